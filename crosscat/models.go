package crosscat

import (
	"fmt"
	"math/rand"
)

// FeatureType tags one column of the schema with its observation model.
type FeatureType int

// The closed set of feature types. Any iteration over types visits them in
// this order.
const (
	DD16 FeatureType = iota
	DD256
	DPD
	GP
	NICH
)

var featureTypes = [...]FeatureType{DD16, DD256, DPD, GP, NICH}

var featureTypeNames = map[FeatureType]string{
	DD16:  "dd16",
	DD256: "dd256",
	DPD:   "dpd",
	GP:    "gp",
	NICH:  "nich",
}

func (t FeatureType) String() string {
	name, ok := featureTypeNames[t]
	if !ok {
		return fmt.Sprintf("FeatureType(%d)", int(t))
	}
	return name
}

// ParseFeatureType returns the tag named by s.
func ParseFeatureType(s string) (FeatureType, bool) {
	var found FeatureType
	ok := forSomeFeatureType(func(t FeatureType) bool {
		if featureTypeNames[t] == s {
			found = t
			return true
		}
		return false
	})
	return found, ok
}

// ForEachFeatureType calls fn once per feature type, in registry order.
func ForEachFeatureType(fn func(FeatureType)) {
	for _, t := range featureTypes {
		fn(t)
	}
}

// forSomeFeatureType visits types in registry order until fn returns true.
func forSomeFeatureType(fn func(FeatureType) bool) bool {
	for _, t := range featureTypes {
		if fn(t) {
			return true
		}
	}
	return false
}

// Schema is the ordered list of feature types, one tag per feature.
type Schema []FeatureType

func (s Schema) equal(other Schema) bool {
	if len(s) != len(other) {
		return false
	}
	for i := range s {
		if s[i] != other[i] {
			return false
		}
	}
	return true
}

// FeatureModel is the shared (immutable per run) parameter set of one
// feature. A model creates mixture workspaces; the workspaces carry all
// mutable state.
type FeatureModel interface {
	FeatureType() FeatureType
	InitEmpty(groupCount int, rng *rand.Rand) FeatureMixture
	validate() error
}

// FeatureMixture is a per-kind workspace for one feature: a fixed number of
// groups of sufficient statistics. Score is the log marginal likelihood of
// everything observed so far; an empty workspace scores 0. Scoring is pure
// in the workspace and model, drawing at most entropy from rng.
type FeatureMixture interface {
	GroupCount() int
	Observe(group int, value float64) error
	Score(rng *rand.Rand) float64
}

// DirichletDiscrete is a Dirichlet prior over a discrete value with at most
// MaxDim outcomes. MaxDim is 16 or 256 and selects the DD16/DD256 tag.
type DirichletDiscrete struct {
	MaxDim int
	Alphas []float64
}

// NewDD16 returns a Dirichlet-Discrete model with max dimension 16.
func NewDD16(alphas []float64) *DirichletDiscrete {
	return &DirichletDiscrete{MaxDim: 16, Alphas: alphas}
}

// NewDD256 returns a Dirichlet-Discrete model with max dimension 256.
func NewDD256(alphas []float64) *DirichletDiscrete {
	return &DirichletDiscrete{MaxDim: 256, Alphas: alphas}
}

// FeatureType returns DD16 or DD256 according to MaxDim.
func (m *DirichletDiscrete) FeatureType() FeatureType {
	if m.MaxDim == 16 {
		return DD16
	}
	return DD256
}

func (m *DirichletDiscrete) validate() error {
	if m.MaxDim != 16 && m.MaxDim != 256 {
		return fmt.Errorf("%w: dirichlet-discrete max dim (%v) must be 16 or 256", ErrOutOfRangeHyperparameter, m.MaxDim)
	}
	if len(m.Alphas) < 1 || len(m.Alphas) > m.MaxDim {
		return fmt.Errorf("%w: dirichlet-discrete dim (%v) must be in [1, %v]", ErrOutOfRangeHyperparameter, len(m.Alphas), m.MaxDim)
	}
	for i, alpha := range m.Alphas {
		if !(alpha > 0) {
			return fmt.Errorf("%w: dirichlet-discrete alphas[%v] (%v) must be > 0", ErrOutOfRangeHyperparameter, i, alpha)
		}
	}
	return nil
}

// DirichletProcessDiscrete is a Dirichlet-process prior over an unbounded
// discrete value. Betas are the stick weights of the tracked values and
// Beta0 the residual mass of everything not yet tracked.
type DirichletProcessDiscrete struct {
	Alpha float64
	Betas []float64
	Beta0 float64
}

// FeatureType returns DPD.
func (m *DirichletProcessDiscrete) FeatureType() FeatureType {
	return DPD
}

func (m *DirichletProcessDiscrete) validate() error {
	if !(m.Alpha > 0) {
		return fmt.Errorf("%w: dpd alpha (%v) must be > 0", ErrOutOfRangeHyperparameter, m.Alpha)
	}
	if !(m.Beta0 >= 0) {
		return fmt.Errorf("%w: dpd beta0 (%v) must be >= 0", ErrOutOfRangeHyperparameter, m.Beta0)
	}
	for i, beta := range m.Betas {
		if !(beta > 0) {
			return fmt.Errorf("%w: dpd betas[%v] (%v) must be > 0", ErrOutOfRangeHyperparameter, i, beta)
		}
	}
	return nil
}

// GammaPoisson is a Gamma prior over the rate of a Poisson count value.
type GammaPoisson struct {
	Shape    float64
	InvScale float64
}

// FeatureType returns GP.
func (m *GammaPoisson) FeatureType() FeatureType {
	return GP
}

func (m *GammaPoisson) validate() error {
	if !(m.Shape > 0) {
		return fmt.Errorf("%w: gamma-poisson shape (%v) must be > 0", ErrOutOfRangeHyperparameter, m.Shape)
	}
	if !(m.InvScale > 0) {
		return fmt.Errorf("%w: gamma-poisson inv_scale (%v) must be > 0", ErrOutOfRangeHyperparameter, m.InvScale)
	}
	return nil
}

// NormalInverseChiSq is the conjugate prior over the mean and variance of a
// real value.
type NormalInverseChiSq struct {
	Mu      float64
	Kappa   float64
	Sigmasq float64
	Nu      float64
}

// FeatureType returns NICH.
func (m *NormalInverseChiSq) FeatureType() FeatureType {
	return NICH
}

func (m *NormalInverseChiSq) validate() error {
	if !(m.Kappa > 0) {
		return fmt.Errorf("%w: nich kappa (%v) must be > 0", ErrOutOfRangeHyperparameter, m.Kappa)
	}
	if !(m.Sigmasq > 0) {
		return fmt.Errorf("%w: nich sigmasq (%v) must be > 0", ErrOutOfRangeHyperparameter, m.Sigmasq)
	}
	if !(m.Nu > 0) {
		return fmt.Errorf("%w: nich nu (%v) must be > 0", ErrOutOfRangeHyperparameter, m.Nu)
	}
	return nil
}
