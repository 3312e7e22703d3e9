package crosscat

import "fmt"

// FeatureDef binds one global feature id to its shared model.
type FeatureDef struct {
	ID    int
	Model FeatureModel
}

// Kind is one column cluster: the shared models of the features it owns and
// the occupancy counts of its row clustering. The number of groups a kind
// reports is the number of entries in GroupCounts.
type Kind struct {
	Features    []FeatureDef
	GroupCounts []int
}

// CrossCat is the loaded cross-categorization state: the full schema, the
// clustering prior over the feature partition, and the kinds partitioning
// the features.
type CrossCat struct {
	Schema     Schema
	Clustering PitmanYor
	Kinds      []Kind
}

// Validate checks hyperparameter ranges, schema tags, feature ids and group
// counts. It does not check that the kinds cover the schema; Engine.Load
// does that while composing.
func (cc *CrossCat) Validate() error {
	if err := cc.Clustering.validate(); err != nil {
		return err
	}
	for f, t := range cc.Schema {
		if _, ok := featureTypeNames[t]; !ok {
			return fmt.Errorf("%w: schema[%v] has unknown feature type %v", ErrSchemaMismatch, f, int(t))
		}
	}
	for k := range cc.Kinds {
		kind := &cc.Kinds[k]
		if len(kind.GroupCounts) < 1 {
			return fmt.Errorf("%w: kind %v has no groups", ErrEmptyDomain, k)
		}
		for g, count := range kind.GroupCounts {
			if count < 0 {
				return fmt.Errorf("%w: kind %v group %v has negative count %v", ErrNumeric, k, g, count)
			}
		}
		for _, fd := range kind.Features {
			if fd.ID < 0 || fd.ID >= len(cc.Schema) {
				return fmt.Errorf("%w: kind %v owns feature id %v outside schema of %v features", ErrSchemaMismatch, k, fd.ID, len(cc.Schema))
			}
			if fd.Model == nil {
				return fmt.Errorf("%w: kind %v feature %v has no model", ErrSchemaMismatch, k, fd.ID)
			}
			if err := fd.Model.validate(); err != nil {
				return err
			}
		}
	}
	return nil
}
