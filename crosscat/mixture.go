package crosscat

import (
	"fmt"
	"math"
	"math/rand"
)

// The workspaces below hold per-group sufficient statistics for one feature
// inside one kind. Score sums the collapsed log marginal likelihood over
// groups; for every model the marginal of an empty group is exactly 0, so
// freshly initialized workspaces contribute nothing to a kind's score.

func checkGroup(group int, groupCount int) error {
	if group < 0 || group >= groupCount {
		return fmt.Errorf("%w: group (%v) out of range [0, %v)", ErrBadAssignment, group, groupCount)
	}
	return nil
}

//----------------------------------------------------------------------------
// Dirichlet-Discrete

type ddGroup struct {
	counts []int
	total  int
}

type ddMixture struct {
	shared *DirichletDiscrete
	groups []ddGroup
}

// InitEmpty creates a workspace of groupCount empty groups.
func (m *DirichletDiscrete) InitEmpty(groupCount int, rng *rand.Rand) FeatureMixture {
	groups := make([]ddGroup, groupCount)
	for g := range groups {
		groups[g].counts = make([]int, len(m.Alphas))
	}
	return &ddMixture{shared: m, groups: groups}
}

func (mx *ddMixture) GroupCount() int {
	return len(mx.groups)
}

func (mx *ddMixture) Observe(group int, value float64) error {
	if err := checkGroup(group, len(mx.groups)); err != nil {
		return err
	}
	v := int(value)
	if v < 0 || v >= len(mx.shared.Alphas) {
		return fmt.Errorf("%w: dirichlet-discrete value (%v) out of range [0, %v)", ErrNumeric, v, len(mx.shared.Alphas))
	}
	mx.groups[group].counts[v]++
	mx.groups[group].total++
	return nil
}

func (mx *ddMixture) Score(rng *rand.Rand) float64 {
	score := 0.0
	for g := range mx.groups {
		score += mx.scoreGroup(&mx.groups[g])
	}
	return score
}

func (mx *ddMixture) scoreGroup(g *ddGroup) float64 {
	if g.total == 0 {
		return 0.0
	}
	alphaSum := 0.0
	for _, alpha := range mx.shared.Alphas {
		alphaSum += alpha
	}
	score := lgamma(alphaSum) - lgamma(alphaSum+float64(g.total))
	for i, alpha := range mx.shared.Alphas {
		if g.counts[i] > 0 {
			score += lgamma(alpha+float64(g.counts[i])) - lgamma(alpha)
		}
	}
	return score
}

//----------------------------------------------------------------------------
// Dirichlet-Process-Discrete

type dpdGroup struct {
	counts map[int]int
	total  int
}

type dpdMixture struct {
	shared *DirichletProcessDiscrete
	groups []dpdGroup
}

// InitEmpty creates a workspace of groupCount empty groups.
func (m *DirichletProcessDiscrete) InitEmpty(groupCount int, rng *rand.Rand) FeatureMixture {
	groups := make([]dpdGroup, groupCount)
	for g := range groups {
		groups[g].counts = make(map[int]int)
	}
	return &dpdMixture{shared: m, groups: groups}
}

func (mx *dpdMixture) GroupCount() int {
	return len(mx.groups)
}

func (mx *dpdMixture) Observe(group int, value float64) error {
	if err := checkGroup(group, len(mx.groups)); err != nil {
		return err
	}
	v := int(value)
	if v < 0 {
		return fmt.Errorf("%w: dpd value (%v) must be >= 0", ErrNumeric, v)
	}
	mx.groups[group].counts[v]++
	mx.groups[group].total++
	return nil
}

func (mx *dpdMixture) Score(rng *rand.Rand) float64 {
	score := 0.0
	for g := range mx.groups {
		score += mx.scoreGroup(&mx.groups[g])
	}
	return score
}

// Values beyond the tracked stick set weigh in through the residual Beta0
// mass, so a workspace may observe values the shared model has not promoted
// to explicit sticks yet.
func (mx *dpdMixture) scoreGroup(g *dpdGroup) float64 {
	if g.total == 0 {
		return 0.0
	}
	alpha := mx.shared.Alpha
	score := lgamma(alpha) - lgamma(alpha+float64(g.total))
	for v, count := range g.counts {
		beta := mx.shared.Beta0
		if v < len(mx.shared.Betas) {
			beta = mx.shared.Betas[v]
		}
		score += lgamma(alpha*beta+float64(count)) - lgamma(alpha*beta)
	}
	return score
}

//----------------------------------------------------------------------------
// Gamma-Poisson

type gpGroup struct {
	n          int
	sum        int
	sumLogFact float64
}

type gpMixture struct {
	shared *GammaPoisson
	groups []gpGroup
}

// InitEmpty creates a workspace of groupCount empty groups.
func (m *GammaPoisson) InitEmpty(groupCount int, rng *rand.Rand) FeatureMixture {
	return &gpMixture{shared: m, groups: make([]gpGroup, groupCount)}
}

func (mx *gpMixture) GroupCount() int {
	return len(mx.groups)
}

func (mx *gpMixture) Observe(group int, value float64) error {
	if err := checkGroup(group, len(mx.groups)); err != nil {
		return err
	}
	x := int(value)
	if x < 0 {
		return fmt.Errorf("%w: gamma-poisson value (%v) must be >= 0", ErrNumeric, x)
	}
	g := &mx.groups[group]
	g.n++
	g.sum += x
	g.sumLogFact += lgamma(float64(x) + 1)
	return nil
}

func (mx *gpMixture) Score(rng *rand.Rand) float64 {
	score := 0.0
	for g := range mx.groups {
		score += mx.scoreGroup(&mx.groups[g])
	}
	return score
}

func (mx *gpMixture) scoreGroup(g *gpGroup) float64 {
	if g.n == 0 {
		return 0.0
	}
	shape := mx.shared.Shape
	invScale := mx.shared.InvScale
	score := shape*math.Log(invScale) - lgamma(shape)
	score += lgamma(shape+float64(g.sum)) - (shape+float64(g.sum))*math.Log(invScale+float64(g.n))
	score -= g.sumLogFact
	return score
}

//----------------------------------------------------------------------------
// Normal-Inverse-Chi-Squared

type nichGroup struct {
	n      int
	mean   float64
	varsum float64
}

type nichMixture struct {
	shared *NormalInverseChiSq
	groups []nichGroup
}

// InitEmpty creates a workspace of groupCount empty groups.
func (m *NormalInverseChiSq) InitEmpty(groupCount int, rng *rand.Rand) FeatureMixture {
	return &nichMixture{shared: m, groups: make([]nichGroup, groupCount)}
}

func (mx *nichMixture) GroupCount() int {
	return len(mx.groups)
}

func (mx *nichMixture) Observe(group int, value float64) error {
	if err := checkGroup(group, len(mx.groups)); err != nil {
		return err
	}
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return fmt.Errorf("%w: nich value (%v) must be finite", ErrNumeric, value)
	}
	g := &mx.groups[group]
	g.n++
	delta := value - g.mean
	g.mean += delta / float64(g.n)
	g.varsum += delta * (value - g.mean)
	return nil
}

func (mx *nichMixture) Score(rng *rand.Rand) float64 {
	score := 0.0
	for g := range mx.groups {
		score += mx.scoreGroup(&mx.groups[g])
	}
	return score
}

func (mx *nichMixture) scoreGroup(g *nichGroup) float64 {
	if g.n == 0 {
		return 0.0
	}
	n := float64(g.n)
	mu := mx.shared.Mu
	kappa := mx.shared.Kappa
	sigmasq := mx.shared.Sigmasq
	nu := mx.shared.Nu

	kappaN := kappa + n
	nuN := nu + n
	meanDelta := g.mean - mu
	nuSigmasqN := nu*sigmasq + g.varsum + (n*kappa/kappaN)*meanDelta*meanDelta

	score := lgamma(nuN/2) - lgamma(nu/2)
	score += 0.5 * (math.Log(kappa) - math.Log(kappaN))
	score += (nu / 2) * math.Log(nu*sigmasq)
	score -= (nuN / 2) * math.Log(nuSigmasqN)
	score -= (n / 2) * math.Log(math.Pi)
	return score
}

func lgamma(x float64) float64 {
	v, _ := math.Lgamma(x)
	return v
}
