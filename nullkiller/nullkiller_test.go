package nullkiller

import (
	"context"
	"errors"
	"testing"

	"github.com/nullkiller/aicore/behavior"
	"github.com/nullkiller/aicore/coordinate"
	"github.com/nullkiller/aicore/evaluator"
	"github.com/nullkiller/aicore/fuzzy"
	"github.com/nullkiller/aicore/goal"
	"github.com/nullkiller/aicore/mapmodel"
)

const testFLL = `Engine: priority
InputVariable: armyLoss
  range: 0.000 1.000
  term: LOW Triangle 0.000 0.000 1.000
  term: HIGH Triangle 0.000 1.000 1.000
InputVariable: heroRole
  range: 0.000 1.000
  term: ANY Triangle 0.000 0.500 1.000
InputVariable: danger
  range: 0.000 100.000
  term: ANY Triangle 0.000 50.000 100.000
InputVariable: turnDistance
  range: 0.000 10.000
  term: ANY Triangle 0.000 5.000 10.000
InputVariable: goldReward
  range: 0.000 10000.000
  term: ANY Triangle 0.000 5000.000 10000.000
InputVariable: armyReward
  range: 0.000 10000.000
  term: ANY Triangle 0.000 5000.000 10000.000
InputVariable: skillReward
  range: 0.000 10.000
  term: ANY Triangle 0.000 5.000 10.000
InputVariable: rewardType
  range: 0.000 4.000
  term: ANY Triangle 0.000 2.000 4.000
InputVariable: closestHeroRatio
  range: 0.000 1.000
  term: ANY Triangle 0.000 0.500 1.000
InputVariable: strategicalValue
  range: 0.000 1.000
  term: ANY Triangle 0.000 0.500 1.000
OutputVariable: Value
  range: 0.000 10.000
  default: 0.000
  term: LOW Triangle 0.000 0.000 3.000
  term: HIGH Triangle 7.000 10.000 10.000
RuleBlock: mamdani
  rule: if armyLoss is LOW then Value is HIGH
  rule: if armyLoss is HIGH then Value is LOW
`

func newTestPool(t *testing.T) *evaluator.SharedPool {
	t.Helper()
	engine, err := fuzzy.Parse(testFLL)
	if err != nil {
		t.Fatalf("parsing test rule file: %v", err)
	}
	return evaluator.NewSharedPool(1, func() *evaluator.PriorityEvaluator {
		return evaluator.New(engine, 1, 5000)
	})
}

// fixedStateBuilder always returns the same prebuilt state, regardless of
// scan depth, so tests can control exactly what each behavior sees.
type fixedStateBuilder struct {
	state *behavior.WorldState
	built []ScanDepth
}

func (b *fixedStateBuilder) Build(scanDepth ScanDepth) *behavior.WorldState {
	b.built = append(b.built, scanDepth)
	return b.state
}

func emptyState() *behavior.WorldState {
	return &behavior.WorldState{
		ActingPlayer: 1,
		Day:          2,
		LockedHeroes: map[int]behavior.LockReason{},
	}
}

// noopExecutor implements goal.Executor, recording nothing and never failing.
type noopExecutor struct{ calls int }

func (e *noopExecutor) MoveHero(heroID int, tile coordinate.Coord) error { e.calls++; return nil }
func (e *noopExecutor) VisitObject(heroID, objectID int) error          { e.calls++; return nil }
func (e *noopExecutor) RecruitCreature(dwellingID, creatureID, count int) error {
	e.calls++
	return nil
}
func (e *noopExecutor) Build(townID int, building string) error        { e.calls++; return nil }
func (e *noopExecutor) RecruitHero(townID int) error                   { e.calls++; return nil }
func (e *noopExecutor) CastTownPortal(heroID, townID int) error        { e.calls++; return nil }
func (e *noopExecutor) GarrisonExchange(heroID, townID int) error      { e.calls++; return nil }

var errExecFailed = errors.New("executor: boom")

// failingExecutor fails on the first action of every task.
type failingExecutor struct{}

func (failingExecutor) MoveHero(heroID int, tile coordinate.Coord) error { return errExecFailed }
func (failingExecutor) VisitObject(heroID, objectID int) error          { return errExecFailed }
func (failingExecutor) RecruitCreature(dwellingID, creatureID, count int) error {
	return errExecFailed
}
func (failingExecutor) Build(townID int, building string) error   { return errExecFailed }
func (failingExecutor) RecruitHero(townID int) error               { return errExecFailed }
func (failingExecutor) CastTownPortal(heroID, townID int) error    { return errExecFailed }
func (failingExecutor) GarrisonExchange(heroID, townID int) error  { return errExecFailed }

// fulfilledExecutor reports every move as already-fulfilled.
type fulfilledExecutor struct{}

func (fulfilledExecutor) MoveHero(heroID int, tile coordinate.Coord) error {
	return goal.ErrGoalFulfilled{Reason: "already there"}
}
func (fulfilledExecutor) VisitObject(heroID, objectID int) error {
	return goal.ErrGoalFulfilled{Reason: "already visited"}
}
func (fulfilledExecutor) RecruitCreature(dwellingID, creatureID, count int) error { return nil }
func (fulfilledExecutor) Build(townID int, building string) error                { return nil }
func (fulfilledExecutor) RecruitHero(townID int) error {
	return goal.ErrGoalFulfilled{Reason: "already recruited"}
}
func (fulfilledExecutor) CastTownPortal(heroID, townID int) error                { return nil }
func (fulfilledExecutor) GarrisonExchange(heroID, townID int) error              { return nil }

func TestResetAiStateClearsScanDepthAndResourcesButKeepsDefenceLocks(t *testing.T) {
	n := New(1, &fixedStateBuilder{state: emptyState()}, newTestPool(t))
	n.scanDepth = ScanFull
	n.lockedHeroes = map[int]behavior.LockReason{5: behavior.LockDefence, 6: behavior.LockStartup}
	n.lockedResources = goal.ResourcesLocked{"gold": 500}

	n.resetAiState()

	if n.scanDepth != ScanSmall {
		t.Fatalf("expected scan depth reset to ScanSmall, got %v", n.scanDepth)
	}
	if reason := n.lockedHeroes[5]; reason != behavior.LockDefence {
		t.Fatalf("expected hero 5's defence lock to persist across turns, got %v", reason)
	}
	if _, ok := n.lockedHeroes[6]; ok {
		t.Fatalf("expected hero 6's turn-scoped startup lock to be cleared")
	}
	if len(n.lockedResources) != 0 {
		t.Fatalf("expected locked resources cleared, got %v", n.lockedResources)
	}
}

func TestGetFreeResourcesClampsAtZero(t *testing.T) {
	n := New(1, &fixedStateBuilder{state: emptyState()}, newTestPool(t))
	n.lockResources(goal.ResourcesLocked{"gold": 800})

	free := n.getFreeResources(goal.ResourcesLocked{"gold": 500})

	if got := free["gold"]; got != 0 {
		t.Fatalf("expected gold floored at 0 when locked exceeds current, got %d", got)
	}
}

func TestGetFreeResourcesSubtractsLocked(t *testing.T) {
	n := New(1, &fixedStateBuilder{state: emptyState()}, newTestPool(t))
	n.lockResources(goal.ResourcesLocked{"gold": 300})

	free := n.getFreeResources(goal.ResourcesLocked{"gold": 1000})

	if got := free["gold"]; got != 700 {
		t.Fatalf("expected 1000-300=700 free gold, got %d", got)
	}
}

// stubBehavior generates a fixed goal every call, ignoring world state.
type stubBehavior struct {
	name string
	goal *goal.Goal
}

func (s stubBehavior) Name() string                            { return s.name }
func (s stubBehavior) MaxDepth() int                            { return 1 }
func (s stubBehavior) Generate(*behavior.WorldState) *goal.Goal { return s.goal }

func elementaryGoal(kind goal.Kind, heroID int, priority float64) *goal.Goal {
	g := &goal.Goal{Kind: kind, Priority: priority}
	g.WithHero(heroID)
	return g
}

func TestChooseBestTaskPicksHighestPriorityElementaryGoal(t *testing.T) {
	n := New(1, &fixedStateBuilder{state: emptyState()}, newTestPool(t))
	low := elementaryGoal(goal.KindVisitObject, 1, 1)
	high := elementaryGoal(goal.KindVisitObject, 2, 9)
	root := &goal.Goal{Kind: goal.KindComposite, SubGoals: []*goal.Goal{low, high}}

	task, err := n.chooseBestTask(context.Background(), emptyState(), stubBehavior{name: "stub", goal: root}, 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if task.Goal.HeroID != 2 {
		t.Fatalf("expected the higher-priority goal (hero 2) to win, got hero %d", task.Goal.HeroID)
	}
}

func TestChooseBestTaskReturnsInvalidWhenBehaviorProposesNothing(t *testing.T) {
	n := New(1, &fixedStateBuilder{state: emptyState()}, newTestPool(t))

	task, err := n.chooseBestTask(context.Background(), emptyState(), stubBehavior{name: "empty", goal: goal.Invalid()}, 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !task.Goal.IsEmpty() {
		t.Fatalf("expected an Invalid task when the behavior proposes nothing, got %v", task.Goal.Kind)
	}
}

func TestChooseBestTaskPropagatesInterruption(t *testing.T) {
	n := New(1, &fixedStateBuilder{state: emptyState()}, newTestPool(t))
	root := &goal.Goal{Kind: goal.KindComposite, SubGoals: []*goal.Goal{elementaryGoal(goal.KindVisitObject, 1, 1)}}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := n.chooseBestTask(ctx, emptyState(), stubBehavior{name: "stub", goal: root}, 1)
	if err == nil {
		t.Fatalf("expected a cancelled context to propagate as an error rather than being swallowed")
	}
}

func TestMakeTurnEndsTurnWhenBestPriorityBelowMinimum(t *testing.T) {
	state := emptyState()
	builder := &fixedStateBuilder{state: state}
	n := New(1, builder, newTestPool(t))
	n.scanDepth = ScanFull // skip scan-widening so a low score ends the turn immediately

	exec := &noopExecutor{}
	if err := n.MakeTurn(context.Background(), exec); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if exec.calls != 0 {
		t.Fatalf("expected no actions to run when nothing clears MinPriority, got %d calls", exec.calls)
	}
}

func TestMakeTurnPropagatesContextCancellation(t *testing.T) {
	builder := &fixedStateBuilder{state: emptyState()}
	n := New(1, builder, newTestPool(t))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := n.MakeTurn(ctx, &noopExecutor{})
	if err == nil {
		t.Fatalf("expected MakeTurn to propagate a cancelled context as an error")
	}
}

func TestMakeTurnEndsTurnOnExecutorFailure(t *testing.T) {
	state := emptyState()
	state.Day = 1
	state.GoldAvailable = behavior.HeroGoldCost
	state.Towns = []mapmodel.Town{{ID: 1, Owner: 1, VisitingHero: nil}}

	builder := &fixedStateBuilder{state: state}
	n := New(1, builder, newTestPool(t))
	n.scanDepth = ScanFull

	err := n.MakeTurn(context.Background(), failingExecutor{})
	if err == nil {
		t.Fatalf("expected an executor failure to end the turn with an error")
	}
	if !errors.Is(err, errExecFailed) {
		t.Fatalf("expected wrapped executor error, got %v", err)
	}
}

type recordingObserver struct {
	passes []int
	last   goal.Task
}

func (r *recordingObserver) ObservePass(pass int, behaviorNames []string, tasks []goal.Task, chosen goal.Task) {
	r.passes = append(r.passes, pass)
	r.last = chosen
}

func TestMakeTurnNotifiesObserverEveryPass(t *testing.T) {
	state := emptyState()
	state.Day = 1
	state.GoldAvailable = behavior.HeroGoldCost
	state.Towns = []mapmodel.Town{{ID: 1, Owner: 1, VisitingHero: nil}}

	builder := &fixedStateBuilder{state: state}
	n := New(1, builder, newTestPool(t))
	n.scanDepth = ScanFull

	obs := &recordingObserver{}
	n.SetObserver(obs)

	if err := n.MakeTurn(context.Background(), fulfilledExecutor{}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(obs.passes) == 0 {
		t.Fatalf("expected the observer to be notified at least once")
	}
	if obs.last.Goal.Kind != goal.KindRecruitHero {
		t.Fatalf("expected the last observed pass to report RecruitHero, got %s", obs.last.Goal.Kind)
	}
}

func TestMakeTurnTreatsGoalFulfilledAsNonFatal(t *testing.T) {
	state := emptyState()
	state.Day = 1
	state.GoldAvailable = behavior.HeroGoldCost
	state.Towns = []mapmodel.Town{{ID: 1, Owner: 1, VisitingHero: nil}}

	builder := &fixedStateBuilder{state: state}
	n := New(1, builder, newTestPool(t))
	n.scanDepth = ScanFull

	// RecruitHero proposes at the one empty town every pass with no other
	// state change, so without memory of fulfillment this would loop until
	// MaxPass; ErrGoalFulfilled must be swallowed as "continue", not
	// returned as a failure.
	err := n.MakeTurn(context.Background(), fulfilledExecutor{})
	if err != nil {
		t.Fatalf("expected ErrGoalFulfilled to be treated as non-fatal, got %v", err)
	}
}

func TestScanDepthNextCapsAtFull(t *testing.T) {
	if got := ScanFull.next(); got != ScanFull {
		t.Fatalf("expected ScanFull.next() to stay at ScanFull, got %v", got)
	}
	if got := ScanSmall.next(); got != ScanMedium {
		t.Fatalf("expected ScanSmall.next() to be ScanMedium, got %v", got)
	}
}

func TestResolveTargetPopulatesTownFromMatchingObjectID(t *testing.T) {
	state := &behavior.WorldState{
		Towns: []mapmodel.Town{{ID: 9, Owner: 2}},
	}
	obj := &mapmodel.Object{ID: 9, Type: mapmodel.ObjectTown}

	target := resolveTarget(state, obj)

	if target.Object != obj {
		t.Fatalf("expected Object to be the resolved object")
	}
	if target.Town == nil || target.Town.ID != 9 {
		t.Fatalf("expected Town resolved to town 9, got %v", target.Town)
	}
	if target.EnemyHero != nil {
		t.Fatalf("expected no EnemyHero for a town target, got %v", target.EnemyHero)
	}
}

func TestResolveTargetPopulatesEnemyHeroFromMatchingObjectID(t *testing.T) {
	state := &behavior.WorldState{
		EnemyHeroes: []mapmodel.Hero{{ID: 4, Level: 7}},
	}
	obj := &mapmodel.Object{ID: 4, Type: mapmodel.ObjectEnemyHero}

	target := resolveTarget(state, obj)

	if target.EnemyHero == nil || target.EnemyHero.ID != 4 {
		t.Fatalf("expected EnemyHero resolved to hero 4, got %v", target.EnemyHero)
	}
	if target.Town != nil {
		t.Fatalf("expected no Town for an enemy-hero target, got %v", target.Town)
	}
}

func TestResolveTargetLeavesTownAndEnemyHeroNilForOtherObjectTypes(t *testing.T) {
	state := &behavior.WorldState{
		Towns:       []mapmodel.Town{{ID: 1}},
		EnemyHeroes: []mapmodel.Hero{{ID: 1}},
	}
	obj := &mapmodel.Object{ID: 1, Type: mapmodel.ObjectResource}

	target := resolveTarget(state, obj)

	if target.Town != nil || target.EnemyHero != nil {
		t.Fatalf("expected a resource object to resolve neither Town nor EnemyHero, got town=%v enemy=%v", target.Town, target.EnemyHero)
	}
}

func TestMemoryTracksFailedVisits(t *testing.T) {
	m := NewMemory()
	if m.WasVisited(42) {
		t.Fatalf("expected a fresh memory to report nothing visited")
	}
	m.MarkVisited(42)
	if !m.WasVisited(42) {
		t.Fatalf("expected MarkVisited(42) to be reflected by WasVisited(42)")
	}
	if m.WasVisited(7) {
		t.Fatalf("expected an unrelated objectID to remain unvisited")
	}
}
