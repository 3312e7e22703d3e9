package crosscat

import (
	"errors"
	"math"
	"math/rand"
	"testing"

	"gonum.org/v1/gonum/stat/distuv"
)

func onesLikelihoods(featureCount int, kindCount int) [][]float64 {
	likelihoods := make([][]float64, featureCount)
	for f := range likelihoods {
		likelihoods[f] = make([]float64, kindCount)
		for k := range likelihoods[f] {
			likelihoods[f][k] = 1.0
		}
	}
	return likelihoods
}

func TestSamplerSingleFeatureCoinFlip(t *testing.T) {
	// One feature, one occupied and one empty kind, flat likelihoods,
	// alpha = 1, d = 0: both kinds carry weight 1, so the draw is a fair
	// coin flip.
	seeds := 20000
	moved := 0
	for seed := 0; seed < seeds; seed++ {
		likelihoods := [][]float64{{1.0, 1.0}}
		assignments := []int{0}
		sampler, err := NewBlockPitmanYorSampler(PitmanYor{Alpha: 1.0, D: 0.0}, likelihoods, assignments)
		if err != nil {
			t.Fatal("constructor error:", err)
		}
		rng := rand.New(rand.NewSource(int64(seed)))
		if err := sampler.Run(1, rng); err != nil {
			t.Fatal("run error:", err)
		}
		if assignments[0] == 1 {
			moved++
		}
	}
	frequency := float64(moved) / float64(seeds)
	threeSigma := 3.0 * math.Sqrt(0.25/float64(seeds))
	if math.Abs(frequency-0.5) > threeSigma {
		t.Error("frequency = ", frequency, "want 0.5 +- ", threeSigma)
	}
}

func TestSamplerLikelihoodLockIn(t *testing.T) {
	featureCount := 4
	likelihoods := make([][]float64, featureCount)
	for f := range likelihoods {
		likelihoods[f] = []float64{1.0, 1e6}
	}
	assignments := []int{0, 0, 0, 0}
	sampler, err := NewBlockPitmanYorSampler(PitmanYor{Alpha: 1.0, D: 0.0}, likelihoods, assignments)
	if err != nil {
		t.Fatal("constructor error:", err)
	}
	rng := rand.New(rand.NewSource(1))
	if err := sampler.Run(1, rng); err != nil {
		t.Fatal("run error:", err)
	}
	for f := range assignments {
		if assignments[f] != 1 {
			t.Error("assignments[", f, "] = ", assignments[f], "want 1")
		}
	}
}

func TestSamplerInvariantsUnderRandomSweeps(t *testing.T) {
	featureCount := 100
	kindCount := 5
	rng := rand.New(rand.NewSource(42))
	likelihoods := make([][]float64, featureCount)
	for f := range likelihoods {
		likelihoods[f] = make([]float64, kindCount)
		for k := range likelihoods[f] {
			likelihoods[f][k] = rng.Float64() + 1e-3
		}
	}
	assignments := make([]int, featureCount)
	for f := range assignments {
		assignments[f] = rng.Intn(kindCount)
	}
	sampler, err := NewBlockPitmanYorSampler(PitmanYor{Alpha: 0.5, D: 0.1}, likelihoods, assignments)
	if err != nil {
		t.Fatal("constructor error:", err)
	}
	for sweep := 0; sweep < 50; sweep++ {
		if err := sampler.Run(1, rng); err != nil {
			t.Fatal("run error at sweep", sweep, ":", err)
		}
		if err := sampler.Validate(); err != nil {
			t.Fatal("invariant violation at sweep", sweep, ":", err)
		}
	}
	totalCount := 0
	for _, count := range sampler.counts {
		totalCount += count
	}
	if totalCount != featureCount {
		t.Error("totalCount = ", totalCount, "want", featureCount)
	}
}

func TestSamplerEmptyKindRefresh(t *testing.T) {
	// Feature 0 is forced from kind 0 to kind 1, emptying kind 0; features
	// 1 and 2 stay put. The emptied kind's prior weight must end at
	// (alpha + d*2) / 1 = 1.
	likelihoods := [][]float64{
		{0.0, 1.0, 0.0},
		{0.0, 1.0, 0.0},
		{0.0, 0.0, 1.0},
	}
	assignments := []int{0, 1, 2}
	sampler, err := NewBlockPitmanYorSampler(PitmanYor{Alpha: 1.0, D: 0.0}, likelihoods, assignments)
	if err != nil {
		t.Fatal("constructor error:", err)
	}
	rng := rand.New(rand.NewSource(7))
	if err := sampler.Run(1, rng); err != nil {
		t.Fatal("run error:", err)
	}
	wantCounts := []int{0, 2, 1}
	for k := range wantCounts {
		if sampler.counts[k] != wantCounts[k] {
			t.Error("counts[", k, "] = ", sampler.counts[k], "want", wantCounts[k])
		}
	}
	if _, ok := sampler.emptyKinds[0]; !ok {
		t.Error("kind 0 not in empty set")
	}
	if sampler.emptyKindCount != 1 {
		t.Error("emptyKindCount = ", sampler.emptyKindCount, "want 1")
	}
	if sampler.prior[0] != 1.0 {
		t.Error("prior[0] = ", sampler.prior[0], "want 1")
	}
	if err := sampler.Validate(); err != nil {
		t.Error("invariant violation:", err)
	}
}

func TestSamplerSameKindDrawLeavesStateUntouched(t *testing.T) {
	// Each feature's likelihood is positive only for its own kind, so every
	// draw lands on the current assignment and nothing may change.
	likelihoods := [][]float64{
		{1.0, 0.0, 0.0},
		{0.0, 1.0, 0.0},
		{0.0, 0.0, 1.0},
	}
	assignments := []int{0, 1, 2}
	sampler, err := NewBlockPitmanYorSampler(PitmanYor{Alpha: 0.5, D: 0.2}, likelihoods, assignments)
	if err != nil {
		t.Fatal("constructor error:", err)
	}
	wantCounts := append([]int{}, sampler.counts...)
	wantPrior := append([]float64{}, sampler.prior...)
	rng := rand.New(rand.NewSource(3))
	if err := sampler.Run(10, rng); err != nil {
		t.Fatal("run error:", err)
	}
	for k := range wantCounts {
		if sampler.counts[k] != wantCounts[k] {
			t.Error("counts[", k, "] = ", sampler.counts[k], "want", wantCounts[k])
		}
		if sampler.prior[k] != wantPrior[k] {
			t.Error("prior[", k, "] = ", sampler.prior[k], "want", wantPrior[k])
		}
	}
	if assignments[0] != 0 || assignments[1] != 1 || assignments[2] != 2 {
		t.Error("assignments = ", assignments, "want [0 1 2]")
	}
}

func TestSamplerDeterminism(t *testing.T) {
	featureCount := 30
	kindCount := 4
	setupRng := rand.New(rand.NewSource(11))
	likelihoods := make([][]float64, featureCount)
	for f := range likelihoods {
		likelihoods[f] = make([]float64, kindCount)
		for k := range likelihoods[f] {
			likelihoods[f][k] = setupRng.Float64() + 1e-3
		}
	}
	run := func() []int {
		assignments := make([]int, featureCount)
		for f := range assignments {
			assignments[f] = f % kindCount
		}
		sampler, err := NewBlockPitmanYorSampler(PitmanYor{Alpha: 1.5, D: 0.3}, likelihoods, assignments)
		if err != nil {
			t.Fatal("constructor error:", err)
		}
		rng := rand.New(rand.NewSource(99))
		if err := sampler.Run(20, rng); err != nil {
			t.Fatal("run error:", err)
		}
		return assignments
	}
	first := run()
	second := run()
	for f := range first {
		if first[f] != second[f] {
			t.Error("assignments diverge at feature", f, ":", first[f], "!=", second[f])
		}
	}
}

func TestSamplerPriorOnlyOccupancy(t *testing.T) {
	// Two features, two kinds, flat likelihoods, alpha = 1, d = 0. The
	// exact stationary occupancy of this chain (enumerating the four
	// assignment states and one full sweep of transitions) puts 0.6 on
	// "both features share a kind" and 0.4 on "one feature per kind".
	likelihoods := onesLikelihoods(2, 2)
	assignments := []int{0, 0}
	sampler, err := NewBlockPitmanYorSampler(PitmanYor{Alpha: 1.0, D: 0.0}, likelihoods, assignments)
	if err != nil {
		t.Fatal("constructor error:", err)
	}
	rng := rand.New(rand.NewSource(1234))
	if err := sampler.Run(100, rng); err != nil {
		t.Fatal("burn-in error:", err)
	}
	samples := 3000
	together := 0
	for i := 0; i < samples; i++ {
		if err := sampler.Run(5, rng); err != nil {
			t.Fatal("run error:", err)
		}
		if assignments[0] == assignments[1] {
			together++
		}
	}
	apart := samples - together
	expectedTogether := 0.6 * float64(samples)
	expectedApart := 0.4 * float64(samples)
	stat := (float64(together)-expectedTogether)*(float64(together)-expectedTogether)/expectedTogether +
		(float64(apart)-expectedApart)*(float64(apart)-expectedApart)/expectedApart
	pValue := 1.0 - distuv.ChiSquared{K: 1}.CDF(stat)
	if pValue < 1e-5 {
		t.Error("occupancy histogram off: together = ", together, "of", samples, "chi2 = ", stat, "p = ", pValue)
	}
}

func TestSamplerConstructionErrors(t *testing.T) {
	likelihoods := onesLikelihoods(2, 2)
	if _, err := NewBlockPitmanYorSampler(PitmanYor{Alpha: 0.0, D: 0.0}, likelihoods, []int{0, 1}); !errors.Is(err, ErrOutOfRangeHyperparameter) {
		t.Error("alpha = 0: err = ", err)
	}
	if _, err := NewBlockPitmanYorSampler(PitmanYor{Alpha: 1.0, D: 1.0}, likelihoods, []int{0, 1}); !errors.Is(err, ErrOutOfRangeHyperparameter) {
		t.Error("d = 1: err = ", err)
	}
	if _, err := NewBlockPitmanYorSampler(PitmanYor{Alpha: 1.0, D: -0.1}, likelihoods, []int{0, 1}); !errors.Is(err, ErrOutOfRangeHyperparameter) {
		t.Error("d < 0: err = ", err)
	}
	if _, err := NewBlockPitmanYorSampler(PitmanYor{Alpha: 1.0, D: 0.0}, [][]float64{}, []int{}); !errors.Is(err, ErrEmptyDomain) {
		t.Error("no features: err = ", err)
	}
	ragged := [][]float64{{1.0, 1.0}, {1.0}}
	if _, err := NewBlockPitmanYorSampler(PitmanYor{Alpha: 1.0, D: 0.0}, ragged, []int{0, 0}); !errors.Is(err, ErrEmptyDomain) {
		t.Error("ragged rows: err = ", err)
	}
	if _, err := NewBlockPitmanYorSampler(PitmanYor{Alpha: 1.0, D: 0.0}, likelihoods, []int{0}); !errors.Is(err, ErrBadAssignment) {
		t.Error("short assignments: err = ", err)
	}
	if _, err := NewBlockPitmanYorSampler(PitmanYor{Alpha: 1.0, D: 0.0}, likelihoods, []int{0, 2}); !errors.Is(err, ErrBadAssignment) {
		t.Error("kind out of range: err = ", err)
	}
}

func TestSamplerRunErrors(t *testing.T) {
	sampler, err := NewBlockPitmanYorSampler(PitmanYor{Alpha: 1.0, D: 0.0}, onesLikelihoods(2, 2), []int{0, 1})
	if err != nil {
		t.Fatal("constructor error:", err)
	}
	rng := rand.New(rand.NewSource(1))
	if err := sampler.Run(0, rng); !errors.Is(err, ErrEmptyDomain) {
		t.Error("zero iterations: err = ", err)
	}

	zeroRow := [][]float64{{0.0, 0.0}}
	sampler, err = NewBlockPitmanYorSampler(PitmanYor{Alpha: 1.0, D: 0.0}, zeroRow, []int{0})
	if err != nil {
		t.Fatal("constructor error:", err)
	}
	if err := sampler.Run(1, rng); !errors.Is(err, ErrNumeric) {
		t.Error("zero posterior total: err = ", err)
	}
}

func TestSamplerDebugValidation(t *testing.T) {
	rng := rand.New(rand.NewSource(5))
	likelihoods := make([][]float64, 20)
	for f := range likelihoods {
		likelihoods[f] = make([]float64, 3)
		for k := range likelihoods[f] {
			likelihoods[f][k] = rng.Float64() + 1e-3
		}
	}
	assignments := make([]int, 20)
	sampler, err := NewBlockPitmanYorSampler(PitmanYor{Alpha: 2.0, D: 0.5}, likelihoods, assignments)
	if err != nil {
		t.Fatal("constructor error:", err)
	}
	sampler.debug = true
	if err := sampler.Run(10, rng); err != nil {
		t.Fatal("run error:", err)
	}
}
