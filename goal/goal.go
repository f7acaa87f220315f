// Package goal implements the Goal/Task taxonomy (spec §3): a tagged
// record carrying an elementary or composite objective, its
// EvaluationContext, and (once converted to a Task) an executable contract.
//
// Grounded on bot/goal.go (the Goal enum) and bot/plan.go (Plan/PlanLength)
// from the teacher, generalized from a fixed 4-goal board game to an
// open tagged sum, and on message/servermessage.go's tagged-type-plus-
// payload pattern, reused here for nothing but the idiom (goals don't need
// JSON marshaling the way cross-process messages do).
package goal

import (
	"github.com/nullkiller/aicore/coordinate"
)

// Kind tags what an elementary or composite goal is about.
type Kind int

const (
	KindInvalid Kind = iota
	KindVisitObject
	KindGatherArmy
	KindBuyArmy
	KindRecruitHero
	KindDefence
	KindBuild
	KindClusterVisit
	KindStartup
	KindComposite
)

var kindNames = map[Kind]string{
	KindInvalid:      "Invalid",
	KindVisitObject:  "VisitObject",
	KindGatherArmy:   "GatherArmy",
	KindBuyArmy:      "BuyArmy",
	KindRecruitHero:  "RecruitHero",
	KindDefence:      "Defence",
	KindBuild:        "Build",
	KindClusterVisit: "ClusterVisit",
	KindStartup:      "Startup",
	KindComposite:    "Composite",
}

func (k Kind) String() string {
	if n, ok := kindNames[k]; ok {
		return n
	}
	return "Unknown"
}

// EvaluationContext carries the numeric inputs PriorityEvaluator's fuzzy
// engine scores a goal on (spec §4.8).
type EvaluationContext struct {
	ArmyLoss         int64
	HeroStrength     int64
	Danger           int64
	MovementCost     float64 // "turns" in turn-units, integer+fractional
	ClosestWayRatio  float64
	GoldReward       int
	ArmyReward       int64
	SkillReward      int
	StrategicalValue float64
}

// ResourcesLocked is a soft reservation of resources a goal intends to
// spend if chosen, consumed by Nullkiller.lockResources (spec §4.11).
type ResourcesLocked map[string]int

// Goal is a tagged objective: elementary goals name a hero and usually a
// target object/tile; composite goals instead own a list of sub-goals and
// a consolidated EvaluationContext (spec §3).
type Goal struct {
	Kind            Kind
	HeroID          int
	HasHero         bool
	TargetObjectID  int
	HasTargetObject bool
	TargetTile      coordinate.Coord
	HasTargetTile   bool
	ResourcesLocked ResourcesLocked

	Priority float64
	Context  EvaluationContext

	SubGoals []*Goal

	// Actions is the ordered sequence of executor calls this elementary
	// goal becomes once converted to a Task. Composite goals leave this
	// nil; only the decomposer's elementary output ever runs.
	Actions []Action
}

// IsComposite reports whether g owns sub-goals rather than being directly
// executable.
func (g *Goal) IsComposite() bool {
	return g.Kind == KindComposite || len(g.SubGoals) > 0
}

// IsEmpty reports whether g is the zero/Invalid goal Nullkiller uses as a
// "no task available" sentinel (mirrors Goals::Invalid in the original).
func (g *Goal) IsEmpty() bool {
	return g == nil || g.Kind == KindInvalid
}

// Invalid is the canonical empty goal.
func Invalid() *Goal {
	return &Goal{Kind: KindInvalid}
}

// WithHero sets the acting hero on an elementary goal, for chained
// construction in behaviors.
func (g *Goal) WithHero(heroID int) *Goal {
	g.HeroID = heroID
	g.HasHero = true
	return g
}

// WithTargetObject sets the target object ID.
func (g *Goal) WithTargetObject(objectID int) *Goal {
	g.TargetObjectID = objectID
	g.HasTargetObject = true
	return g
}

// WithTargetTile sets the target tile.
func (g *Goal) WithTargetTile(tile coordinate.Coord) *Goal {
	g.TargetTile = tile
	g.HasTargetTile = true
	return g
}

// ActionKind tags one step of executing a Task (spec §6 "Action executor
// (produced)").
type ActionKind int

const (
	ActionMoveHero ActionKind = iota
	ActionVisitObject
	ActionRecruitCreature
	ActionBuild
	ActionRecruitHero
	ActionCastTownPortal
	ActionGarrisonExchange
)

// Action is one tagged executor call, a payload-carrying variant rather
// than a virtual hierarchy (design notes §9).
type Action struct {
	Kind ActionKind

	HeroID     int
	ObjectID   int
	Tile       coordinate.Coord
	DwellingID int
	CreatureID int
	Count      int
	TownID     int
	Building   string
}

// Executor is the produced collaborator interface: the set of calls a Task
// may make against the live game state (spec §6).
type Executor interface {
	MoveHero(heroID int, tile coordinate.Coord) error
	VisitObject(heroID, objectID int) error
	RecruitCreature(dwellingID int, creatureID int, count int) error
	Build(townID int, building string) error
	RecruitHero(townID int) error
	CastTownPortal(heroID int, townID int) error
	GarrisonExchange(heroID, townID int) error
}

// ErrGoalFulfilled is the designed control-flow shortcut out of a task's
// execute method (spec §7): the executor reports the target was already
// satisfied, so the turn loop should move on without treating this as a
// failure.
type ErrGoalFulfilled struct{ Reason string }

func (e ErrGoalFulfilled) Error() string { return "goal fulfilled: " + e.Reason }

// Task is an elementary goal made executable: Accept runs its Actions in
// order against exec, short-circuiting on the first error (including the
// designed ErrGoalFulfilled case, which callers should detect with
// errors.As and treat as a clean stop, not a failure).
type Task struct {
	Goal     *Goal
	Priority float64
}

// ToTask converts an elementary goal into a Task, carrying over its
// priority (zero until PriorityEvaluator scores it).
func ToTask(g *Goal) Task {
	return Task{Goal: g, Priority: g.Priority}
}

// Accept runs the task's actions in order, stopping at the first error.
func (t Task) Accept(exec Executor) error {
	if t.Goal == nil {
		return nil
	}
	for _, a := range t.Goal.Actions {
		if err := apply(exec, a); err != nil {
			return err
		}
	}
	return nil
}

func apply(exec Executor, a Action) error {
	switch a.Kind {
	case ActionMoveHero:
		return exec.MoveHero(a.HeroID, a.Tile)
	case ActionVisitObject:
		return exec.VisitObject(a.HeroID, a.ObjectID)
	case ActionRecruitCreature:
		return exec.RecruitCreature(a.DwellingID, a.CreatureID, a.Count)
	case ActionBuild:
		return exec.Build(a.TownID, a.Building)
	case ActionRecruitHero:
		return exec.RecruitHero(a.TownID)
	case ActionCastTownPortal:
		return exec.CastTownPortal(a.HeroID, a.TownID)
	case ActionGarrisonExchange:
		return exec.GarrisonExchange(a.HeroID, a.TownID)
	default:
		return nil
	}
}
