// Package buildanalyzer implements BuildAnalyzer: per-town next-build
// candidates ranked by cost/benefit, plus an aggregate resource wish-list
// the turn loop can weigh against what's affordable this pass.
package buildanalyzer

import (
	"sort"

	"github.com/nullkiller/aicore/mapmodel"
)

// ResourceSet is a generic multi-resource amount (gold, wood, ore, ...);
// the game engine defines what each index means, this package only adds
// and compares.
type ResourceSet map[string]int

// Add returns the componentwise sum of r and other.
func (r ResourceSet) Add(other ResourceSet) ResourceSet {
	out := make(ResourceSet, len(r)+len(other))
	for k, v := range r {
		out[k] = v
	}
	for k, v := range other {
		out[k] += v
	}
	return out
}

// BuildingCandidate is one next-build option at a town.
type BuildingCandidate struct {
	TownID     int
	Building   string
	Cost       ResourceSet
	Benefit    int // higher is better; game-engine-supplied estimate
	Prereqs    []string
	Satisfied  bool
}

// Score is the candidate's benefit-per-gold, the ranking key BuildAnalyzer
// sorts by.
func (b BuildingCandidate) Score() float64 {
	gold := b.Cost["gold"]
	if gold <= 0 {
		return float64(b.Benefit)
	}
	return float64(b.Benefit) / float64(gold)
}

// TownPlan is one town's ranked build candidates.
type TownPlan struct {
	TownID     int
	Candidates []BuildingCandidate
}

// Analyzer computes build plans for every owned town.
type Analyzer struct{}

// New returns a stateless Analyzer; BuildAnalyzer keeps no cross-turn state
// beyond what's recomputed each update() per spec §2's control-flow list.
func New() *Analyzer {
	return &Analyzer{}
}

// Analyze ranks candidates per town descending by Score, dropping
// candidates marked Satisfied (already built); Prereqs is not checked.
func (a *Analyzer) Analyze(towns []mapmodel.Town, candidatesByTown map[int][]BuildingCandidate) []TownPlan {
	plans := make([]TownPlan, 0, len(towns))
	for _, t := range towns {
		if t.Owner == mapmodel.NeutralPlayer {
			continue
		}
		cands := make([]BuildingCandidate, 0)
		for _, c := range candidatesByTown[t.ID] {
			if c.Satisfied {
				continue // already built
			}
			cands = append(cands, c)
		}
		sort.SliceStable(cands, func(i, j int) bool {
			return cands[i].Score() > cands[j].Score()
		})
		plans = append(plans, TownPlan{TownID: t.ID, Candidates: cands})
	}
	sort.SliceStable(plans, func(i, j int) bool { return plans[i].TownID < plans[j].TownID })
	return plans
}

// AggregateWishList sums the cost of the single best candidate per town,
// giving the turn loop a sense of total resource demand this pass.
func AggregateWishList(plans []TownPlan) ResourceSet {
	total := ResourceSet{}
	for _, p := range plans {
		if len(p.Candidates) == 0 {
			continue
		}
		total = total.Add(p.Candidates[0].Cost)
	}
	return total
}
