// Package nullkiller implements the outer turn loop (spec §4.11): per-pass
// state refresh, running every behavior through the decomposer and
// PriorityEvaluator, picking the best task, and executing it or widening
// the scan.
//
// Grounded on Engine/Nullkiller.cpp's makeTurn/resetAiState/updateAiState/
// choseBestTask, and on the teacher's RouteBrain.chooseAndExecutePlans /
// handleNotifyEndBump turn-loop shape (accumulate a plan against a budget,
// try to execute, end turn on failure) from bot/routebrain.go.
package nullkiller

import (
	"context"
	"fmt"

	"github.com/nullkiller/aicore/behavior"
	"github.com/nullkiller/aicore/decomposer"
	"github.com/nullkiller/aicore/evaluator"
	"github.com/nullkiller/aicore/goal"
	"github.com/nullkiller/aicore/log"
	"github.com/nullkiller/aicore/mapmodel"
)

// ScanDepth widens how far the pathfinder looks each time every behavior's
// best task scores too low to be worth acting on yet (spec §4.11).
type ScanDepth int

const (
	ScanSmall ScanDepth = iota
	ScanMedium
	ScanFull
)

func (d ScanDepth) next() ScanDepth {
	if d >= ScanFull {
		return ScanFull
	}
	return d + 1
}

// Tunables (spec §6). MaxPass is lower than production VCMI's tracing
// build default; there is no AI_TRACE_LEVEL knob here to raise it.
const (
	MaxPass               = 30
	MinPriority           = 0.3
	NextScanMinPriority   = 1.0
	DecomposerMaxDepth    = 10
	ShallowBehaviorDepth  = 1
)

// Memory is the small cross-turn "visited object, didn't help" fact base
// (SPEC_FULL §C). MakeTurn marks the target of a task whose execution
// failed; no behavior reads it, so CaptureObjects may propose that
// target again.
type Memory struct {
	failedLastPass map[int]bool
}

func NewMemory() *Memory { return &Memory{failedLastPass: make(map[int]bool)} }

// MarkVisited records that visiting objectID failed to help this pass.
func (m *Memory) MarkVisited(objectID int) {
	if m.failedLastPass == nil {
		m.failedLastPass = make(map[int]bool)
	}
	m.failedLastPass[objectID] = true
}

// WasVisited reports whether objectID was marked in a previous pass.
func (m *Memory) WasVisited(objectID int) bool {
	return m.failedLastPass[objectID]
}

func (m *Memory) reset() { m.failedLastPass = make(map[int]bool) }

// StateBuilder produces a fresh WorldState snapshot for one pass, given the
// current scan depth (spec §4.11: "rebuild all analyzers"). The concrete
// implementation lives outside this package, wired against gameapi.
type StateBuilder interface {
	Build(scanDepth ScanDepth) *behavior.WorldState
}

// PassObserver is notified once per completed pass, so a caller can publish
// or persist what Nullkiller decided (spec B's debug turn snapshot and
// per-task telemetry row) without the turn loop knowing how. behaviorNames
// and tasks are parallel slices, one entry per behavior tried this pass.
type PassObserver interface {
	ObservePass(pass int, behaviorNames []string, tasks []goal.Task, chosen goal.Task)
}

// Nullkiller runs the outer turn loop against one acting player.
type Nullkiller struct {
	PlayerID mapmodel.PlayerID

	states     StateBuilder
	evaluators *evaluator.SharedPool
	memory     *Memory
	observer   PassObserver

	lockedResources goal.ResourcesLocked
	lockedHeroes    map[int]behavior.LockReason
	scanDepth       ScanDepth
}

// New builds a Nullkiller for one acting player. evaluators is expected to
// already be primed with the loaded fuzzy engine (config §6).
func New(playerID mapmodel.PlayerID, states StateBuilder, evaluators *evaluator.SharedPool) *Nullkiller {
	return &Nullkiller{
		PlayerID:   playerID,
		states:     states,
		evaluators: evaluators,
		memory:     NewMemory(),
	}
}

// SetObserver attaches o to receive every future pass's ranking; nil
// detaches it. Optional, so tests and callers that don't care about
// observability can leave it unset.
func (n *Nullkiller) SetObserver(o PassObserver) {
	n.observer = o
}

// resetAiState clears locked resources and scan depth at the start of a
// turn, but does not clear the memory of failed visits across turns.
// LockDefence is a lifetime lock (spec §4.11: a hero committed to
// defending a town stays committed across turns) so it survives the reset;
// only turn-scoped locks like LockStartup are cleared.
func (n *Nullkiller) resetAiState() {
	n.lockedResources = goal.ResourcesLocked{}
	n.scanDepth = ScanSmall

	kept := make(map[int]behavior.LockReason, len(n.lockedHeroes))
	for heroID, reason := range n.lockedHeroes {
		if reason == behavior.LockDefence {
			kept[heroID] = reason
		}
	}
	n.lockedHeroes = kept
}

// getFreeResources subtracts locked reservations from what's currently on
// hand, clamped non-negative (spec §8 invariant 8).
func (n *Nullkiller) getFreeResources(current goal.ResourcesLocked) goal.ResourcesLocked {
	free := make(goal.ResourcesLocked, len(current))
	for k, v := range current {
		remaining := v - n.lockedResources[k]
		if remaining < 0 {
			remaining = 0
		}
		free[k] = remaining
	}
	return free
}

// lockResources reserves res against future spending this turn.
func (n *Nullkiller) lockResources(res goal.ResourcesLocked) {
	if n.lockedResources == nil {
		n.lockedResources = goal.ResourcesLocked{}
	}
	for k, v := range res {
		n.lockedResources[k] += v
	}
}

// chooseBestTask decomposes one behavior's proposal into elementary goals,
// evaluates each with the shared fuzzy evaluator pool, and returns the
// highest-priority Task (spec §4.9/§4.11). A cancelled ctx propagates as an
// error rather than being swallowed into an Invalid task, per spec §7's
// Interruption policy ("propagate out of loop; end turn").
func (n *Nullkiller) chooseBestTask(ctx context.Context, state *behavior.WorldState, b behavior.Behavior, maxDepth int) (goal.Task, error) {
	root := b.Generate(state)
	elementary, err := decomposer.Decompose(ctx, root, maxDepth)
	if err != nil {
		return goal.ToTask(goal.Invalid()), err
	}
	if len(elementary) == 0 {
		return goal.ToTask(goal.Invalid()), nil
	}

	pe := n.evaluators.Borrow()
	defer n.evaluators.Release(pe)

	var best *goal.Goal
	for _, g := range elementary {
		if g.Priority <= 0 {
			g.Priority = n.evaluate(pe, state, g)
		}
		if best == nil || g.Priority > best.Priority {
			best = g
		}
	}

	log.Debug("nullkiller: behavior %s returns %s, priority %.3f", b.Name(), best.Kind, best.Priority)
	return goal.ToTask(best), nil
}

// evaluate resolves the acting hero and target for g, then scores it
// through PriorityEvaluator (spec §4.8).
func (n *Nullkiller) evaluate(pe *evaluator.PriorityEvaluator, state *behavior.WorldState, g *goal.Goal) float64 {
	var hero *mapmodel.Hero
	if g.HasHero {
		for i := range state.Heroes {
			if state.Heroes[i].ID == g.HeroID {
				hero = &state.Heroes[i]
				break
			}
		}
	}

	role := mapmodel.RoleMain
	if hero != nil && state.Roles != nil {
		role = state.Roles.RoleOf(hero.ID)
	}

	var target evaluator.Target
	if g.HasTargetObject {
		for i := range state.Objects {
			if state.Objects[i].ID == g.TargetObjectID {
				target = resolveTarget(state, &state.Objects[i])
				break
			}
		}
	}

	return pe.Evaluate(g, hero, role, target, func(msg string) {
		log.Trace("nullkiller: %s", msg)
	})
}

// resolveTarget builds the evaluator.Target for obj: Object is always set,
// and Town/EnemyHero are additionally resolved by matching obj's ID against
// state's owned towns or scanned enemy heroes, so evaluator/reward.go's
// enemy-hero and enemy-town branches (spec §6) see the same structured data
// the object-only reward tables can't carry.
func resolveTarget(state *behavior.WorldState, obj *mapmodel.Object) evaluator.Target {
	target := evaluator.Target{Object: obj}
	switch obj.Type {
	case mapmodel.ObjectTown:
		for i := range state.Towns {
			if state.Towns[i].ID == obj.ID {
				target.Town = &state.Towns[i]
				break
			}
		}
	case mapmodel.ObjectEnemyHero:
		for i := range state.EnemyHeroes {
			if state.EnemyHeroes[i].ID == obj.ID {
				target.EnemyHero = &state.EnemyHeroes[i]
				break
			}
		}
	}
	return target
}

func (n *Nullkiller) heroRoleOf(state *behavior.WorldState, heroID int, has bool) mapmodel.HeroRole {
	if !has || state.Roles == nil {
		return mapmodel.RoleMain
	}
	return state.Roles.RoleOf(heroID)
}

// MakeTurn runs the turn loop until the best available task scores below
// MinPriority, the turn's action executor fails, or MaxPass is reached
// (spec §4.11, §8 property 10).
func (n *Nullkiller) MakeTurn(ctx context.Context, exec goal.Executor) error {
	n.resetAiState()

	for pass := 1; pass <= MaxPass; pass++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		state := n.states.Build(n.scanDepth)
		state.LockedHeroes = n.lockedHeroes

		behaviors := []struct {
			b        behavior.Behavior
			maxDepth int
		}{
			{behavior.BuyArmy{}, ShallowBehaviorDepth},
			{behavior.CaptureObjects{}, ShallowBehaviorDepth},
			{behavior.Cluster{}, DecomposerMaxDepth},
			{behavior.RecruitHero{}, ShallowBehaviorDepth},
			{behavior.Defence{}, DecomposerMaxDepth},
			{behavior.Building{}, ShallowBehaviorDepth},
			{behavior.GatherArmy{}, DecomposerMaxDepth},
		}
		if state.Day == 1 {
			behaviors = append(behaviors, struct {
				b        behavior.Behavior
				maxDepth int
			}{behavior.Startup{}, ShallowBehaviorDepth})
		}

		var tasks []goal.Task
		for _, entry := range behaviors {
			task, err := n.chooseBestTask(ctx, state, entry.b, entry.maxDepth)
			if err != nil {
				return err
			}
			tasks = append(tasks, task)
		}

		best := tasks[0]
		for _, t := range tasks[1:] {
			if t.Priority > best.Priority {
				best = t
			}
		}

		if n.observer != nil {
			names := make([]string, len(behaviors))
			for i, entry := range behaviors {
				names[i] = entry.b.Name()
			}
			n.observer.ObservePass(pass, names, tasks, best)
		}

		heroRole := n.heroRoleOf(state, best.Goal.HeroID, best.Goal.HasHero)

		if best.Priority < NextScanMinPriority && n.scanDepth != ScanFull {
			if heroRole == mapmodel.RoleMain || best.Priority < MinPriority {
				log.Trace("nullkiller: goal %s has too low priority %.3f, widening scan", best.Goal.Kind, best.Priority)
				n.scanDepth = n.scanDepth.next()
				continue
			}
		}

		if best.Priority < MinPriority {
			log.Trace("nullkiller: goal %s has too low priority, ending turn", best.Goal.Kind)
			return nil
		}

		log.Debug("nullkiller: realizing %s (priority %.3f)", best.Goal.Kind, best.Priority)

		if err := best.Accept(exec); err != nil {
			var fulfilled goal.ErrGoalFulfilled
			if asGoalFulfilled(err, &fulfilled) {
				log.Trace("nullkiller: task %s already fulfilled: %s", best.Goal.Kind, fulfilled.Reason)
				continue
			}
			log.Debug("nullkiller: failed to realize %s: %v", best.Goal.Kind, err)
			if best.Goal.HasTargetObject {
				n.memory.MarkVisited(best.Goal.TargetObjectID)
			}
			return fmt.Errorf("nullkiller: executing %s: %w", best.Goal.Kind, err)
		}
	}

	return nil
}

func asGoalFulfilled(err error, target *goal.ErrGoalFulfilled) bool {
	if gf, ok := err.(goal.ErrGoalFulfilled); ok {
		*target = gf
		return true
	}
	return false
}
