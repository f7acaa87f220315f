// Package behavior implements the eight strategy modules that generate
// candidate goals from world state (spec §4.10). Each behavior only reads
// world state and previously-computed paths; none mutate pathfinder state.
//
// Grounded on spec §4.10's behavior table and on Behaviors/BuildingBehavior.cpp
// (the one behavior retrieved in the original source: getTasks() scans
// BuildAnalyzer's per-town candidates and proposes a Build goal per
// affordable building, gated by a gold-pressure heuristic). The rest of the
// behaviors follow the same "read-only world-state scan -> composite goal"
// shape that file demonstrates, generalized to their own data sources.
package behavior

import (
	"sort"

	"github.com/nullkiller/aicore/army"
	"github.com/nullkiller/aicore/buildanalyzer"
	"github.com/nullkiller/aicore/cluster"
	"github.com/nullkiller/aicore/coordinate"
	"github.com/nullkiller/aicore/dangermap"
	"github.com/nullkiller/aicore/goal"
	"github.com/nullkiller/aicore/hero"
	"github.com/nullkiller/aicore/mapmodel"
	"github.com/nullkiller/aicore/pathfinder"
)

// LockReason is why a hero is excluded from this pass's path updates or
// certain behaviors' scoring (spec §5 "locked heroes").
type LockReason int

const (
	NotLocked LockReason = iota
	LockStartup
	LockDefence
)

// HeroGoldCost is the gold price of recruiting a hero at a town (spec §6
// tunable HERO_GOLD_COST).
const HeroGoldCost = 2500

// MaxGoldPressure gates Building's willingness to spend on a
// non-income-producing building while under gold pressure, mirroring
// BuildingBehavior.cpp's `goldPreasure < MAX_GOLD_PEASURE || dailyIncome>0`
// guard.
const MaxGoldPressure = 0.8

// WorldState is the read-only snapshot every behavior scans. Nullkiller
// assembles one fresh copy per updateAiState() call (spec §2's control
// flow).
type WorldState struct {
	ActingPlayer  mapmodel.PlayerID
	Day           int
	GoldAvailable int

	Heroes       []mapmodel.Hero
	EnemyHeroes  []mapmodel.Hero
	Towns        []mapmodel.Town
	Objects      []mapmodel.Object

	Clusters   []cluster.Cluster
	BuildPlans []buildanalyzer.TownPlan
	HitMap     *dangermap.HitMap
	Nodes      []*pathfinder.AIPathNode
	Roles      *hero.Manager
	TotalArmy  *army.TotalArmyCache

	LockedHeroes map[int]LockReason
}

func (w *WorldState) isLocked(heroID int) bool {
	return w.LockedHeroes[heroID] != NotLocked
}

func (w *WorldState) roleOf(heroID int) mapmodel.HeroRole {
	if w.Roles == nil {
		return mapmodel.RoleMain
	}
	return w.Roles.RoleOf(heroID)
}

// Behavior is one strategy module (spec §4.10).
type Behavior interface {
	Name() string
	MaxDepth() int
	Generate(state *WorldState) *goal.Goal
}

// All returns the seven behaviors Nullkiller iterates every pass; Startup
// is invoked separately on day 1 only (spec §4.11).
func All() []Behavior {
	return []Behavior{
		CaptureObjects{},
		GatherArmy{},
		BuyArmy{},
		RecruitHero{},
		Defence{},
		Building{},
		Cluster{},
	}
}

// pathIndex is a tile -> reachable nodes lookup built once per behavior
// call, since several behaviors need "what can reach this tile and how".
type pathIndex map[coordinate.Coord][]*pathfinder.AIPathNode

func buildPathIndex(nodes []*pathfinder.AIPathNode) pathIndex {
	idx := make(pathIndex, len(nodes))
	for _, n := range nodes {
		if n.Action == pathfinder.NodeActionBlocked {
			continue
		}
		idx[n.Tile] = append(idx[n.Tile], n)
	}
	return idx
}

// cheapestAt returns the lowest-cost node reaching tile, or nil.
func (idx pathIndex) cheapestAt(tile coordinate.Coord) *pathfinder.AIPathNode {
	var best *pathfinder.AIPathNode
	for _, n := range idx[tile] {
		if best == nil || n.Cost < best.Cost {
			best = n
		}
	}
	return best
}

// closestWayRatio compares n's cost against the cheapest node reaching the
// same tile by any actor, so a hero standing right next to an object scores
// a ratio near 1 and one on the far side of the map scores near 0.
func closestWayRatio(idx pathIndex, n *pathfinder.AIPathNode) float64 {
	best := idx.cheapestAt(n.Tile)
	if best == nil || n.Cost <= 0 {
		return 1
	}
	return best.Cost / n.Cost
}

func contextFromNode(n *pathfinder.AIPathNode, idx pathIndex) goal.EvaluationContext {
	return goal.EvaluationContext{
		ArmyLoss:        n.ArmyLoss,
		HeroStrength:    n.Actor.ArmyValue,
		Danger:          n.Danger,
		MovementCost:    n.Cost,
		ClosestWayRatio: closestWayRatio(idx, n),
	}
}

func heroIDOf(n *pathfinder.AIPathNode) (int, bool) {
	if n.Actor == nil || n.Actor.Hero == nil {
		return 0, false
	}
	return n.Actor.Hero.ID, true
}

func composite(kind goal.Kind, subs []*goal.Goal) *goal.Goal {
	if len(subs) == 0 {
		return goal.Invalid()
	}
	return &goal.Goal{Kind: kind, SubGoals: subs}
}

// --- CaptureObjects ---------------------------------------------------

// CaptureObjects proposes a visit goal per reachable (hero, object) pair,
// weighted by reward and danger (spec §4.10 table).
type CaptureObjects struct{}

func (CaptureObjects) Name() string  { return "CaptureObjects" }
func (CaptureObjects) MaxDepth() int { return 3 }

func (CaptureObjects) Generate(state *WorldState) *goal.Goal {
	idx := buildPathIndex(state.Nodes)
	var subs []*goal.Goal

	for _, c := range state.Clusters {
		node := idx.cheapestAt(c.AccessTile)
		if node == nil {
			continue
		}
		heroID, ok := heroIDOf(node)
		if !ok || state.isLocked(heroID) {
			continue
		}

		for _, obj := range c.Objects {
			g := (&goal.Goal{Kind: goal.KindVisitObject}).
				WithHero(heroID).
				WithTargetObject(obj.ID).
				WithTargetTile(obj.AccessTile)
			g.Context = contextFromNode(node, idx)
			g.Actions = []goal.Action{
				{Kind: goal.ActionMoveHero, HeroID: heroID, Tile: obj.AccessTile},
				{Kind: goal.ActionVisitObject, HeroID: heroID, ObjectID: obj.ID},
			}
			subs = append(subs, g)
		}
	}

	return composite(goal.KindComposite, subs)
}

// --- GatherArmy ---------------------------------------------------------

// GatherArmy routes weaker heroes toward stronger heroes to concentrate
// force (spec §4.10 table).
type GatherArmy struct{}

func (GatherArmy) Name() string  { return "GatherArmy" }
func (GatherArmy) MaxDepth() int { return 2 }

// weakShareThreshold: a hero below this share of the strongest owned hero's
// army power is worth routing toward reinforcement.
const weakShareThreshold = 0.3

func (GatherArmy) Generate(state *WorldState) *goal.Goal {
	if len(state.Heroes) < 2 {
		return goal.Invalid()
	}

	strongest := state.Heroes[0]
	for _, h := range state.Heroes {
		if h.Army.Power() > strongest.Army.Power() {
			strongest = h
		}
	}
	if strongest.Army.Power() == 0 {
		return goal.Invalid()
	}

	idx := buildPathIndex(state.Nodes)
	var subs []*goal.Goal

	for _, h := range state.Heroes {
		if h.ID == strongest.ID || state.isLocked(h.ID) {
			continue
		}
		if float64(h.Army.Power()) >= weakShareThreshold*float64(strongest.Army.Power()) {
			continue
		}

		node := idx.cheapestAt(strongest.Position)
		if node == nil {
			continue
		}
		reachingHeroID, ok := heroIDOf(node)
		if !ok || reachingHeroID != h.ID {
			continue
		}

		gain := army.HowManyReinforcementsCanGet(strongest.Army, h.Army)
		g := (&goal.Goal{Kind: goal.KindGatherArmy}).WithHero(h.ID)
		g.Context = contextFromNode(node, idx)
		g.Context.ArmyReward = int64(gain)
		g.Actions = []goal.Action{
			{Kind: goal.ActionMoveHero, HeroID: h.ID, Tile: strongest.Position},
			{Kind: goal.ActionGarrisonExchange, HeroID: h.ID, TownID: 0},
		}
		subs = append(subs, g)
	}

	return composite(goal.KindComposite, subs)
}

// --- BuyArmy -------------------------------------------------------------

// BuyArmy proposes, at each owned town/dwelling, purchasing the subset
// maximizing AIValue/gold (spec §4.10 table).
type BuyArmy struct{}

func (BuyArmy) Name() string  { return "BuyArmy" }
func (BuyArmy) MaxDepth() int { return 1 }

func (BuyArmy) Generate(state *WorldState) *goal.Goal {
	var subs []*goal.Goal

	for _, t := range state.Towns {
		if t.Owner != state.ActingPlayer {
			continue
		}
		if t.VisitingHero == nil {
			continue
		}
		buyable := army.GetArmyAvailableToBuy(t.Garrison, t.Dwellings, state.GoldAvailable)
		if len(buyable) == 0 {
			continue
		}

		var reward int64
		var actions []goal.Action
		for _, ci := range buyable {
			reward += int64(ci.Count) * int64(ci.Creature.AIValue)
			actions = append(actions, goal.Action{
				Kind:       goal.ActionRecruitCreature,
				DwellingID: t.ID,
				CreatureID: int(ci.Creature.ID),
				Count:      ci.Count,
			})
		}

		g := (&goal.Goal{Kind: goal.KindBuyArmy}).WithHero(*t.VisitingHero).WithTargetObject(t.ID)
		g.Context.ArmyReward = reward
		g.Actions = actions
		subs = append(subs, g)
	}

	return composite(goal.KindComposite, subs)
}

// --- RecruitHero ----------------------------------------------------------

// RecruitHero proposes hiring a new hero at an owned, empty town with
// sufficient gold (spec §4.10 table).
type RecruitHero struct{}

func (RecruitHero) Name() string  { return "RecruitHero" }
func (RecruitHero) MaxDepth() int { return 1 }

func (RecruitHero) Generate(state *WorldState) *goal.Goal {
	if state.GoldAvailable < HeroGoldCost {
		return goal.Invalid()
	}

	var subs []*goal.Goal
	for _, t := range state.Towns {
		if t.Owner != state.ActingPlayer || t.VisitingHero != nil {
			continue
		}
		g := &goal.Goal{Kind: goal.KindRecruitHero, TargetObjectID: t.ID, HasTargetObject: true}
		g.Context.GoldReward = 1000
		g.Actions = []goal.Action{{Kind: goal.ActionRecruitHero, TownID: t.ID}}
		subs = append(subs, g)
	}

	return composite(goal.KindComposite, subs)
}

// --- Defence --------------------------------------------------------------

// Defence locks a suitable hero as DEFENCE at every owned town whose
// hit-map danger exceeds its garrison strength (spec §4.10 table).
type Defence struct{}

func (Defence) Name() string  { return "Defence" }
func (Defence) MaxDepth() int { return 1 }

func (Defence) Generate(state *WorldState) *goal.Goal {
	idx := buildPathIndex(state.Nodes)
	var subs []*goal.Goal

	for _, t := range state.Towns {
		if t.Owner != state.ActingPlayer {
			continue
		}
		danger := state.HitMap.DangerAt(t.Position)
		if danger <= t.Garrison.Power() {
			continue
		}

		node := idx.cheapestAt(t.Position)
		if node == nil {
			continue
		}
		heroID, ok := heroIDOf(node)
		if !ok || state.isLocked(heroID) {
			continue
		}

		state.LockedHeroes[heroID] = LockDefence

		g := (&goal.Goal{Kind: goal.KindDefence}).WithHero(heroID).WithTargetObject(t.ID)
		g.Context = contextFromNode(node, idx)
		g.Context.Danger = danger
		g.Actions = []goal.Action{
			{Kind: goal.ActionMoveHero, HeroID: heroID, Tile: t.Position},
			{Kind: goal.ActionGarrisonExchange, HeroID: heroID, TownID: t.ID},
		}
		subs = append(subs, g)
	}

	return composite(goal.KindComposite, subs)
}

// --- Building ---------------------------------------------------------

// Building proposes the next building per town from BuildAnalyzer's ranked
// candidates, deferring non-income buildings while under gold pressure
// (spec §4.10 table; BuildingBehavior.cpp's MAX_GOLD_PEASURE guard).
type Building struct{}

func (Building) Name() string  { return "Building" }
func (Building) MaxDepth() int { return 1 }

func (Building) Generate(state *WorldState) *goal.Goal {
	var subs []*goal.Goal

	for _, plan := range state.BuildPlans {
		if len(plan.Candidates) == 0 {
			continue
		}
		best := plan.Candidates[0]
		goldPressure := 0.0
		if state.GoldAvailable > 0 {
			goldPressure = float64(best.Cost["gold"]) / float64(state.GoldAvailable)
		}
		producesIncome := best.Cost["gold"] < 0 || best.Benefit > 0 && best.Cost["gold"] == 0
		if goldPressure >= MaxGoldPressure && !producesIncome {
			continue
		}

		g := &goal.Goal{Kind: goal.KindBuild, TargetObjectID: plan.TownID, HasTargetObject: true}
		g.Context.GoldReward = best.Benefit
		g.Actions = []goal.Action{{Kind: goal.ActionBuild, TownID: plan.TownID, Building: best.Building}}
		subs = append(subs, g)
	}

	return composite(goal.KindComposite, subs)
}

// --- Cluster ------------------------------------------------------------

// Cluster is a meta-behavior that composes moves across object clusters
// using chain paths: multi-object clusters become one ClusterVisit goal
// wrapping the same elementary visits CaptureObjects would propose
// individually, ordered by object ID so decomposition visits them in a
// deterministic sequence (spec §4.10 table).
type Cluster struct{}

func (Cluster) Name() string  { return "Cluster" }
func (Cluster) MaxDepth() int { return 3 }

func (Cluster) Generate(state *WorldState) *goal.Goal {
	idx := buildPathIndex(state.Nodes)
	var subs []*goal.Goal

	for _, c := range state.Clusters {
		if len(c.Objects) < 2 {
			continue
		}
		node := idx.cheapestAt(c.AccessTile)
		if node == nil {
			continue
		}
		heroID, ok := heroIDOf(node)
		if !ok || state.isLocked(heroID) {
			continue
		}

		objs := append([]mapmodel.Object(nil), c.Objects...)
		sort.SliceStable(objs, func(i, j int) bool { return objs[i].ID < objs[j].ID })

		var visits []*goal.Goal
		for _, obj := range objs {
			v := (&goal.Goal{Kind: goal.KindVisitObject}).WithHero(heroID).WithTargetObject(obj.ID).WithTargetTile(obj.AccessTile)
			v.Context = contextFromNode(node, idx)
			v.Actions = []goal.Action{
				{Kind: goal.ActionMoveHero, HeroID: heroID, Tile: obj.AccessTile},
				{Kind: goal.ActionVisitObject, HeroID: heroID, ObjectID: obj.ID},
			}
			visits = append(visits, v)
		}

		subs = append(subs, &goal.Goal{Kind: goal.KindClusterVisit, SubGoals: visits})
	}

	return composite(goal.KindComposite, subs)
}

// --- Startup --------------------------------------------------------------

// Startup proposes day-1-only scouting and initial hero placement (spec
// §4.10 table), invoked separately from the regular behavior list with
// maxDepth=1 (spec §4.11).
type Startup struct{}

func (Startup) Name() string  { return "Startup" }
func (Startup) MaxDepth() int { return 1 }

func (Startup) Generate(state *WorldState) *goal.Goal {
	if state.Day != 1 {
		return goal.Invalid()
	}

	idx := buildPathIndex(state.Nodes)
	var subs []*goal.Goal

	for _, h := range state.Heroes {
		if state.isLocked(h.ID) {
			continue
		}
		var bestTile coordinate.Coord
		var bestNode *pathfinder.AIPathNode
		for _, obj := range state.Objects {
			node := idx.cheapestAt(obj.AccessTile)
			if node == nil {
				continue
			}
			nodeHeroID, ok := heroIDOf(node)
			if !ok || nodeHeroID != h.ID {
				continue
			}
			if bestNode == nil || node.Cost < bestNode.Cost {
				bestNode, bestTile = node, obj.AccessTile
			}
		}
		if bestNode == nil {
			continue
		}

		g := (&goal.Goal{Kind: goal.KindStartup}).WithHero(h.ID).WithTargetTile(bestTile)
		g.Context = contextFromNode(bestNode, idx)
		g.Actions = []goal.Action{{Kind: goal.ActionMoveHero, HeroID: h.ID, Tile: bestTile}}
		subs = append(subs, g)

		state.LockedHeroes[h.ID] = LockStartup
	}

	return composite(goal.KindComposite, subs)
}

// waitForGrowthGoal is a disabled dwelling/growth-wait hook (spec §9): the
// original keeps an actor type for "stand at a dwelling until its weekly
// growth happens" but never wires it into the live behavior set. Kept here
// unregistered, not called by All(), matching that decision.
func waitForGrowthGoal(heroID int, dwellingObjectID int) *goal.Goal {
	g := (&goal.Goal{Kind: goal.KindGatherArmy}).WithHero(heroID).WithTargetObject(dwellingObjectID)
	return g
}
