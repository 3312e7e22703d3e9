package crosscat

import (
	"fmt"
	"math/rand"
	"sync"
)

// productModel is the composition of every kind's feature parameter set into
// one model indexed by global feature id.
type productModel struct {
	clustering PitmanYor
	schema     Schema
	features   []FeatureModel
}

// kindState is one kind's scoring workspace: a mixture per feature of the
// full schema, so any feature can be scored against any kind.
type kindState struct {
	mixtures []FeatureMixture
}

func (ks *kindState) scoreFeature(featureID int, rng *rand.Rand) float64 {
	return ks.mixtures[featureID].Score(rng)
}

// Engine reassigns features to kinds. Load installs the immutable per-kind
// parameter sets, InitEmptyMixtures creates the K scoring workspaces, and
// InferAssignments mutates an assignment vector in place. The mixture
// parameter store is read-only during inference.
type Engine struct {
	threadsNum int
	model      productModel
	kinds      []kindState
}

// NewEngine returns an engine that scores likelihood rows across threadsNum
// goroutines.
func NewEngine(threadsNum int) *Engine {
	if threadsNum <= 0 {
		panic("threadsNum should be bigger than 0")
	}
	return &Engine{threadsNum: threadsNum}
}

// Clear drops the loaded model and every mixture workspace.
func (e *Engine) Clear() {
	e.model = productModel{}
	e.kinds = nil
}

// Load composes the kinds' feature parameter sets into the full model. The
// composed schema must equal cc.Schema: every feature covered exactly once,
// with a matching type tag.
func (e *Engine) Load(cc *CrossCat) error {
	e.Clear()
	if err := cc.Validate(); err != nil {
		return err
	}

	featureCount := len(cc.Schema)
	features := make([]FeatureModel, featureCount)
	for k := range cc.Kinds {
		for _, fd := range cc.Kinds[k].Features {
			if features[fd.ID] != nil {
				return fmt.Errorf("%w: feature %v owned by more than one kind", ErrSchemaMismatch, fd.ID)
			}
			features[fd.ID] = fd.Model
		}
	}

	composed := make(Schema, featureCount)
	for f := 0; f < featureCount; f++ {
		if features[f] == nil {
			return fmt.Errorf("%w: feature %v owned by no kind", ErrSchemaMismatch, f)
		}
		composed[f] = features[f].FeatureType()
	}
	if !composed.equal(cc.Schema) {
		return fmt.Errorf("%w: composed schema %v != declared schema %v", ErrSchemaMismatch, composed, cc.Schema)
	}

	e.model = productModel{
		clustering: cc.Clustering,
		schema:     composed,
		features:   features,
	}
	return nil
}

// InitEmptyMixtures creates one scoring workspace per kind, each seeded with
// the group count the kind's row clustering reports.
func (e *Engine) InitEmptyMixtures(cc *CrossCat, rng *rand.Rand) error {
	kindCount := len(cc.Kinds)
	if kindCount < 1 {
		return fmt.Errorf("%w: no kinds", ErrEmptyDomain)
	}
	if len(e.model.features) == 0 {
		return fmt.Errorf("%w: no model loaded", ErrEmptyDomain)
	}

	kinds := make([]kindState, kindCount)
	for k := 0; k < kindCount; k++ {
		groupCount := len(cc.Kinds[k].GroupCounts)
		mixtures := make([]FeatureMixture, len(e.model.features))
		for f, model := range e.model.features {
			mixtures[f] = model.InitEmpty(groupCount, rng)
		}
		kinds[k].mixtures = mixtures
	}
	e.kinds = kinds
	return nil
}

// ObserveRow feeds one row's values into one group of one kind's
// workspaces. values must carry one entry per schema feature.
func (e *Engine) ObserveRow(kind int, group int, values []float64) error {
	if kind < 0 || kind >= len(e.kinds) {
		return fmt.Errorf("%w: kind (%v) out of range [0, %v)", ErrBadAssignment, kind, len(e.kinds))
	}
	if len(values) != len(e.model.features) {
		return fmt.Errorf("%w: row has %v values for %v features", ErrSchemaMismatch, len(values), len(e.model.features))
	}
	for f, value := range values {
		if err := e.kinds[kind].mixtures[f].Observe(group, value); err != nil {
			return err
		}
	}
	return nil
}

// InferAssignments runs the requested number of reassignment sweeps,
// mutating assignments in place. The likelihood fill is data-parallel over
// features; the sampling itself is serial.
func (e *Engine) InferAssignments(assignments []int, iterations int, rng *rand.Rand) error {
	if iterations < 1 {
		return fmt.Errorf("%w: iterations (%v) must be >= 1", ErrEmptyDomain, iterations)
	}
	featureCount := len(assignments)
	if featureCount == 0 {
		return fmt.Errorf("%w: no features", ErrEmptyDomain)
	}
	if len(e.kinds) == 0 {
		return fmt.Errorf("%w: no mixtures initialized", ErrEmptyDomain)
	}
	if featureCount != len(e.model.features) {
		return fmt.Errorf("%w: %v assignments for %v features", ErrBadAssignment, featureCount, len(e.model.features))
	}

	seed := rng.Int63()
	likelihoods, err := e.buildLikelihoods(featureCount, seed)
	if err != nil {
		return err
	}

	sampler, err := NewBlockPitmanYorSampler(e.model.clustering, likelihoods, assignments)
	if err != nil {
		return err
	}
	return sampler.Run(iterations, rng)
}

// buildLikelihoods fills the F x K matrix of normalized likelihoods. Each
// feature is one task with its own rng seeded from seed + feature id, so the
// matrix is deterministic given the seed no matter how tasks are scheduled.
func (e *Engine) buildLikelihoods(featureCount int, seed int64) ([][]float64, error) {
	kindCount := len(e.kinds)
	likelihoods := make([][]float64, featureCount)
	errs := make([]error, featureCount)
	ch := make(chan int, e.threadsNum)
	wg := sync.WaitGroup{}
	for f := 0; f < featureCount; f++ {
		ch <- 1
		wg.Add(1)
		go func(f int) {
			taskRng := rand.New(rand.NewSource(seed + int64(f)))
			row := make([]float64, kindCount)
			for k := 0; k < kindCount; k++ {
				row[k] = e.kinds[k].scoreFeature(f, taskRng)
			}
			errs[f] = ScoresToLikelihoods(row)
			likelihoods[f] = row
			<-ch
			wg.Done()
		}(f)
	}
	wg.Wait()

	for f, err := range errs {
		if err != nil {
			return nil, fmt.Errorf("feature %v: %w", f, err)
		}
	}
	return likelihoods, nil
}
