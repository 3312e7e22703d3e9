package crosscat

import (
	"fmt"
	"math"
	"math/rand"
)

// BlockPitmanYorSampler reassigns features to kinds by single-feature Gibbs
// sweeps under a Pitman-Yor prior with a fixed kind count. The "new table"
// mass of the prior is spread uniformly across the currently empty kinds, so
// the per-kind prior weight of every empty kind depends on how many kinds
// are empty and must be refreshed whenever that number changes.
//
// The sampler borrows likelihoods read-only and assignments mutably for the
// duration of Run. It is single-threaded and allocates nothing after
// construction.
type BlockPitmanYorSampler struct {
	alpha float64
	d     float64

	featureCount int
	kindCount    int

	likelihoods [][]float64
	assignments []int

	counts         []int
	emptyKinds     map[int]struct{}
	emptyKindCount int
	prior          []float64
	posterior      []float64

	// debug re-derives counts, empty set and prior after every step.
	debug bool
}

// NewBlockPitmanYorSampler validates the inputs and derives counts, the
// empty-kind set and the prior vector from the initial assignments.
func NewBlockPitmanYorSampler(clustering PitmanYor, likelihoods [][]float64, assignments []int) (*BlockPitmanYorSampler, error) {
	if err := clustering.validate(); err != nil {
		return nil, err
	}
	if len(likelihoods) == 0 {
		return nil, fmt.Errorf("%w: no features", ErrEmptyDomain)
	}
	kindCount := len(likelihoods[0])
	if kindCount == 0 {
		return nil, fmt.Errorf("%w: no kinds", ErrEmptyDomain)
	}
	for f, row := range likelihoods {
		if len(row) != kindCount {
			return nil, fmt.Errorf("%w: likelihood row %v has %v kinds, want %v", ErrEmptyDomain, f, len(row), kindCount)
		}
	}
	if len(assignments) != len(likelihoods) {
		return nil, fmt.Errorf("%w: %v assignments for %v features", ErrBadAssignment, len(assignments), len(likelihoods))
	}

	s := &BlockPitmanYorSampler{
		alpha:        clustering.Alpha,
		d:            clustering.D,
		featureCount: len(likelihoods),
		kindCount:    kindCount,
		likelihoods:  likelihoods,
		assignments:  assignments,
		posterior:    make([]float64, kindCount),
	}
	counts, err := s.countsFromAssignments()
	if err != nil {
		return nil, err
	}
	s.counts = counts
	s.emptyKinds = s.emptyKindsFromCounts()
	s.emptyKindCount = len(s.emptyKinds)
	s.prior = s.priorFromCounts()
	return s, nil
}

func (s *BlockPitmanYorSampler) countsFromAssignments() ([]int, error) {
	counts := make([]int, s.kindCount)
	for f := 0; f < s.featureCount; f++ {
		k := s.assignments[f]
		if k < 0 || k >= s.kindCount {
			return nil, fmt.Errorf("%w: assignments[%v] (%v) out of range [0, %v)", ErrBadAssignment, f, k, s.kindCount)
		}
		counts[k]++
	}
	return counts, nil
}

func (s *BlockPitmanYorSampler) emptyKindsFromCounts() map[int]struct{} {
	emptyKinds := make(map[int]struct{})
	for k := 0; k < s.kindCount; k++ {
		if s.counts[k] == 0 {
			emptyKinds[k] = struct{}{}
		}
	}
	return emptyKinds
}

func (s *BlockPitmanYorSampler) priorFromCounts() []float64 {
	prior := make([]float64, s.kindCount)
	likelihoodEmpty := s.likelihoodEmpty()
	for k := 0; k < s.kindCount; k++ {
		if s.counts[k] > 0 {
			prior[k] = float64(s.counts[k]) - s.d
		} else {
			prior[k] = likelihoodEmpty
		}
	}
	return prior
}

// likelihoodEmpty is the prior weight of each currently empty kind: the
// Pitman-Yor new-table mass split evenly across the empty kinds, 0 when
// none are empty.
func (s *BlockPitmanYorSampler) likelihoodEmpty() float64 {
	if s.emptyKindCount > 0 {
		nonemptyKindCount := s.kindCount - s.emptyKindCount
		return (s.alpha + s.d*float64(nonemptyKindCount)) / float64(s.emptyKindCount)
	}
	return 0.0
}

func (s *BlockPitmanYorSampler) computePosterior(likelihood []float64) float64 {
	total := 0.0
	for i := range s.posterior {
		s.posterior[i] = s.prior[i] * likelihood[i]
		total += s.posterior[i]
	}
	return total
}

// Run performs the requested number of sweeps, visiting features in
// ascending order and mutating the borrowed assignments in place. It either
// completes every sweep or fails without reporting partial progress.
func (s *BlockPitmanYorSampler) Run(iterations int, rng *rand.Rand) error {
	if iterations < 1 {
		return fmt.Errorf("%w: iterations (%v) must be >= 1", ErrEmptyDomain, iterations)
	}

	for i := 0; i < iterations; i++ {
		for f := 0; f < s.featureCount; f++ {
			likelihood := s.likelihoods[f]
			total := s.computePosterior(likelihood)
			if math.IsNaN(total) || total <= 0 {
				return fmt.Errorf("%w: posterior total (%v) for feature %v", ErrNumeric, total, f)
			}
			newK := SampleFromLikelihoods(rng, s.posterior, total)
			oldK := s.assignments[f]
			if newK != oldK {
				s.assignments[f] = newK

				oldEmptyKindCount := s.emptyKindCount
				oldLikelihoodEmpty := s.likelihoodEmpty()
				s.counts[oldK]--
				if s.counts[oldK] == 0 {
					// The departing kind's weight reflects the state at the
					// moment of departure; the refresh below overrides it
					// when the empty count moved.
					s.prior[oldK] = oldLikelihoodEmpty
					s.emptyKinds[oldK] = struct{}{}
					s.emptyKindCount++
				} else {
					s.prior[oldK] = float64(s.counts[oldK]) - s.d
				}
				if s.counts[newK] == 0 {
					delete(s.emptyKinds, newK)
					s.emptyKindCount--
				}
				s.counts[newK]++
				s.prior[newK] = float64(s.counts[newK]) - s.d

				if s.emptyKindCount != oldEmptyKindCount {
					likelihoodEmpty := s.likelihoodEmpty()
					for k := range s.emptyKinds {
						s.prior[k] = likelihoodEmpty
					}
				}
			}

			if s.debug {
				if err := s.Validate(); err != nil {
					panic(fmt.Sprintf("sampler state invalid after feature %v: %v", f, err))
				}
			}
		}
	}
	return nil
}

// Validate re-derives counts, the empty-kind set and the prior vector from
// the current assignments and compares them against the incrementally
// maintained state.
func (s *BlockPitmanYorSampler) Validate() error {
	expectedCounts, err := s.countsFromAssignments()
	if err != nil {
		return err
	}
	for k := 0; k < s.kindCount; k++ {
		if s.counts[k] != expectedCounts[k] {
			return fmt.Errorf("counts[%v] = %v, want %v", k, s.counts[k], expectedCounts[k])
		}
	}

	if s.emptyKindCount != len(s.emptyKinds) {
		return fmt.Errorf("emptyKindCount = %v, want %v", s.emptyKindCount, len(s.emptyKinds))
	}
	for k := 0; k < s.kindCount; k++ {
		_, inEmptyKinds := s.emptyKinds[k]
		hasZeroCount := s.counts[k] == 0
		if inEmptyKinds != hasZeroCount {
			return fmt.Errorf("kind %v: in empty set = %v, count = %v", k, inEmptyKinds, s.counts[k])
		}
	}

	expectedPrior := s.priorFromCounts()
	for k := 0; k < s.kindCount; k++ {
		if !closeEnough(s.prior[k], expectedPrior[k]) {
			return fmt.Errorf("prior[%v] = %v, want %v", k, s.prior[k], expectedPrior[k])
		}
	}
	return nil
}

func closeEnough(x, y float64) bool {
	return math.Abs(x-y)/(x+y+1e-20) < 1e-4
}
