package crosscat

import (
	"errors"
	"testing"
)

func TestFeatureTypeRegistryOrder(t *testing.T) {
	var visited []FeatureType
	ForEachFeatureType(func(ft FeatureType) {
		visited = append(visited, ft)
	})
	want := []FeatureType{DD16, DD256, DPD, GP, NICH}
	if len(visited) != len(want) {
		t.Fatal("visited", len(visited), "types, want", len(want))
	}
	for i := range want {
		if visited[i] != want[i] {
			t.Error("visited[", i, "] = ", visited[i], "want", want[i])
		}
	}
}

func TestFeatureTypeNamesRoundTrip(t *testing.T) {
	ForEachFeatureType(func(ft FeatureType) {
		parsed, ok := ParseFeatureType(ft.String())
		if !ok {
			t.Error("cannot parse", ft.String())
		}
		if parsed != ft {
			t.Error("parsed = ", parsed, "want", ft)
		}
	})
	if _, ok := ParseFeatureType("bogus"); ok {
		t.Error("parsed bogus feature type")
	}
}

func TestModelValidation(t *testing.T) {
	valid := []FeatureModel{
		NewDD16([]float64{1.0, 1.0}),
		&DirichletProcessDiscrete{Alpha: 1.0, Betas: []float64{0.5}, Beta0: 0.5},
		&GammaPoisson{Shape: 1.0, InvScale: 1.0},
		&NormalInverseChiSq{Mu: 0.0, Kappa: 1.0, Sigmasq: 1.0, Nu: 1.0},
	}
	for _, model := range valid {
		if err := model.validate(); err != nil {
			t.Error("valid", model.FeatureType().String(), ":", err)
		}
	}

	bad := []FeatureModel{
		NewDD16([]float64{1.0, 0.0}),
		NewDD16(make([]float64, 17)),
		NewDD256(make([]float64, 0)),
		&DirichletProcessDiscrete{Alpha: 0.0, Betas: []float64{0.5}, Beta0: 0.5},
		&GammaPoisson{Shape: -1.0, InvScale: 1.0},
		&NormalInverseChiSq{Mu: 0.0, Kappa: 0.0, Sigmasq: 1.0, Nu: 1.0},
	}
	for i, model := range bad {
		if err := model.validate(); !errors.Is(err, ErrOutOfRangeHyperparameter) {
			t.Error("bad model", i, ": err = ", err)
		}
	}
}
