package crosscat

import (
	"encoding/json"
	"fmt"
	"io/ioutil"
	"sort"
)

func (cc *CrossCat) save() ([]byte, error) {
	ccJSON := &crossCatJSON{
		Clustering: pitmanYorJSON{Alpha: cc.Clustering.Alpha, D: cc.Clustering.D},
	}
	for _, t := range cc.Schema {
		ccJSON.Schema = append(ccJSON.Schema, t.String())
	}
	for k := range cc.Kinds {
		kind := &cc.Kinds[k]
		kJSON := kindJSON{GroupCounts: kind.GroupCounts}
		for _, fd := range kind.Features {
			switch model := fd.Model.(type) {
			case *DirichletDiscrete:
				featJSON := ddFeatureJSON{ID: fd.ID, Alphas: model.Alphas}
				if model.MaxDim == 16 {
					kJSON.DD16s = append(kJSON.DD16s, featJSON)
				} else {
					kJSON.DD256s = append(kJSON.DD256s, featJSON)
				}
			case *DirichletProcessDiscrete:
				kJSON.DPDs = append(kJSON.DPDs, dpdFeatureJSON{ID: fd.ID, Alpha: model.Alpha, Betas: model.Betas, Beta0: model.Beta0})
			case *GammaPoisson:
				kJSON.GPs = append(kJSON.GPs, gpFeatureJSON{ID: fd.ID, Shape: model.Shape, InvScale: model.InvScale})
			case *NormalInverseChiSq:
				kJSON.NICHs = append(kJSON.NICHs, nichFeatureJSON{ID: fd.ID, Mu: model.Mu, Kappa: model.Kappa, Sigmasq: model.Sigmasq, Nu: model.Nu})
			default:
				return nil, fmt.Errorf("%w: kind %v feature %v has unknown model type", ErrSchemaMismatch, k, fd.ID)
			}
		}
		ccJSON.Kinds = append(ccJSON.Kinds, kJSON)
	}
	return json.Marshal(ccJSON)
}

func (cc *CrossCat) load(v []byte) error {
	ccJSON := &crossCatJSON{}
	if err := json.Unmarshal(v, ccJSON); err != nil {
		return fmt.Errorf("%w: %v", ErrSchemaMismatch, err)
	}

	schema := make(Schema, 0, len(ccJSON.Schema))
	for i, name := range ccJSON.Schema {
		t, ok := ParseFeatureType(name)
		if !ok {
			return fmt.Errorf("%w: schema[%v] has unknown feature type %q", ErrSchemaMismatch, i, name)
		}
		schema = append(schema, t)
	}

	kinds := make([]Kind, 0, len(ccJSON.Kinds))
	for _, kJSON := range ccJSON.Kinds {
		kind := Kind{GroupCounts: kJSON.GroupCounts}
		for _, featJSON := range kJSON.DD16s {
			kind.Features = append(kind.Features, FeatureDef{ID: featJSON.ID, Model: NewDD16(featJSON.Alphas)})
		}
		for _, featJSON := range kJSON.DD256s {
			kind.Features = append(kind.Features, FeatureDef{ID: featJSON.ID, Model: NewDD256(featJSON.Alphas)})
		}
		for _, featJSON := range kJSON.DPDs {
			kind.Features = append(kind.Features, FeatureDef{ID: featJSON.ID, Model: &DirichletProcessDiscrete{Alpha: featJSON.Alpha, Betas: featJSON.Betas, Beta0: featJSON.Beta0}})
		}
		for _, featJSON := range kJSON.GPs {
			kind.Features = append(kind.Features, FeatureDef{ID: featJSON.ID, Model: &GammaPoisson{Shape: featJSON.Shape, InvScale: featJSON.InvScale}})
		}
		for _, featJSON := range kJSON.NICHs {
			kind.Features = append(kind.Features, FeatureDef{ID: featJSON.ID, Model: &NormalInverseChiSq{Mu: featJSON.Mu, Kappa: featJSON.Kappa, Sigmasq: featJSON.Sigmasq, Nu: featJSON.Nu}})
		}
		sort.Slice(kind.Features, func(i, j int) bool {
			return kind.Features[i].ID < kind.Features[j].ID
		})
		kinds = append(kinds, kind)
	}

	cc.Schema = schema
	cc.Clustering = PitmanYor{Alpha: ccJSON.Clustering.Alpha, D: ccJSON.Clustering.D}
	cc.Kinds = kinds
	return nil
}

// SaveCrossCat writes the cross-categorization state to a JSON file.
func SaveCrossCat(cc *CrossCat, saveFile string) error {
	v, err := cc.save()
	if err != nil {
		return err
	}
	return ioutil.WriteFile(saveFile, v, 0644)
}

// LoadCrossCat reads cross-categorization state from a JSON file and
// validates it.
func LoadCrossCat(loadFile string) (*CrossCat, error) {
	v, err := ioutil.ReadFile(loadFile)
	if err != nil {
		return nil, err
	}
	cc := &CrossCat{}
	if err := cc.load(v); err != nil {
		return nil, err
	}
	if err := cc.Validate(); err != nil {
		return nil, err
	}
	return cc, nil
}
