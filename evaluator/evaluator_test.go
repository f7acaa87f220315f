package evaluator

import (
	"testing"

	"github.com/nullkiller/aicore/army"
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

func newTestEvaluator(t *testing.T) *PriorityEvaluator {
	t.Helper()
	engine, err := fuzzy.Parse(testFLL)
	if err != nil {
		t.Fatalf("parsing test rule file: %v", err)
	}
	return New(engine, 1, 5000)
}

func TestEvaluateReturnsCachedPriorityUnchanged(t *testing.T) {
	e := newTestEvaluator(t)
	g := &goal.Goal{Kind: goal.KindVisitObject, Priority: 42}
	hero := mapmodel.Hero{ID: 1}

	got := e.Evaluate(g, &hero, mapmodel.RoleMain, Target{}, nil)
	if got != 42 {
		t.Fatalf("expected the pre-set priority 42 to pass through, got %f", got)
	}
}

func TestEvaluateReturnsFallbackForMissingHero(t *testing.T) {
	e := newTestEvaluator(t)
	g := &goal.Goal{Kind: goal.KindVisitObject}

	got := e.Evaluate(g, nil, mapmodel.RoleMain, Target{}, nil)
	if got != 2 {
		t.Fatalf("expected fallback priority 2 for a goal with no hero, got %f", got)
	}
}

func TestEvaluateLowArmyLossScoresHigherThanHighLoss(t *testing.T) {
	e := newTestEvaluator(t)
	hero := mapmodel.Hero{ID: 1}

	safe := &goal.Goal{Context: goal.EvaluationContext{ArmyLoss: 0, HeroStrength: 1000}}
	risky := &goal.Goal{Context: goal.EvaluationContext{ArmyLoss: 900, HeroStrength: 1000}}

	safeScore := e.Evaluate(safe, &hero, mapmodel.RoleMain, Target{}, nil)
	riskyScore := e.Evaluate(risky, &hero, mapmodel.RoleMain, Target{}, nil)

	if safeScore <= riskyScore {
		t.Fatalf("expected a near-zero-loss goal to outscore a near-total-loss goal: safe=%f risky=%f", safeScore, riskyScore)
	}
}

func TestGetGoldRewardGoldResourceVsOther(t *testing.T) {
	gold := mapmodel.Object{Type: mapmodel.ObjectResource, GoldAmount: 500}
	other := mapmodel.Object{Type: mapmodel.ObjectResource, GoldAmount: 0}

	if r := getGoldReward(gold, 1, nil, nil); r != 600 {
		t.Fatalf("expected 600 for a gold pile, got %d", r)
	}
	if r := getGoldReward(other, 1, nil, nil); r != 100 {
		t.Fatalf("expected 100 for a non-gold resource, got %d", r)
	}
}

func TestGetGoldRewardTownUsesEstimatedIncome(t *testing.T) {
	town := mapmodel.Town{ID: 1, Owner: mapmodel.NeutralPlayer, HasFort: true}
	obj := mapmodel.Object{Type: mapmodel.ObjectTown}

	got := getGoldReward(obj, 1, &town, nil)
	want := dailyIncomeMultiplier * town.EstimatedIncome(1)
	if got != want {
		t.Fatalf("expected %d, got %d", want, got)
	}
}

func TestEvaluateArtifactArmyValuePassesThroughPrecomputedValue(t *testing.T) {
	obj := mapmodel.Object{Type: mapmodel.ObjectArtifact, ArtifactValue: 1234}
	if got := evaluateArtifactArmyValue(obj); got != 1234 {
		t.Fatalf("expected the precomputed artifact value to pass through unchanged, got %d", got)
	}
	scroll := mapmodel.Object{Type: mapmodel.ObjectSpellScroll, ArtifactValue: 1}
	if got := evaluateArtifactArmyValue(scroll); got != 1500 {
		t.Fatalf("expected a fixed 1500 for spell scrolls, got %d", got)
	}
}

func TestGetDwellingScoreSkipsUnaffordableTiersWhenCheckingGold(t *testing.T) {
	tiers := []army.DwellingTier{
		{Creature: army.CreatureInfo{ID: 1, AIValue: 100, GoldCost: 50}, Available: 5},
		{Creature: army.CreatureInfo{ID: 2, AIValue: 1000, GoldCost: 10000}, Available: 5},
	}
	got := getDwellingScore(tiers, 300, true)
	if got != 500 {
		t.Fatalf("expected only the affordable tier's 500 AIValue, got %d", got)
	}

	gotUnchecked := getDwellingScore(tiers, 300, false)
	if gotUnchecked != 500+5000 {
		t.Fatalf("expected both tiers counted when not checking gold, got %d", gotUnchecked)
	}
}

func TestGetSkillRewardWitchHutUnvisitedScoutVsMain(t *testing.T) {
	hut := mapmodel.Object{Type: mapmodel.ObjectWitchHut, WitchHutVisited: false}
	h := mapmodel.Hero{}

	if r := getSkillReward(hut, h, mapmodel.RoleScout, 8, nil); r != 2 {
		t.Fatalf("expected scouts to value an unvisited witch hut at 2, got %d", r)
	}
	if r := getSkillReward(hut, h, mapmodel.RoleMain, 8, nil); r != 0 {
		t.Fatalf("expected main heroes to value an unvisited witch hut at 0, got %d", r)
	}
}

func TestGetStrategicalValueTownOwnedVsNeutral(t *testing.T) {
	owned := mapmodel.Object{Type: mapmodel.ObjectTown, Owner: 1}
	neutral := mapmodel.Object{Type: mapmodel.ObjectTown, Owner: mapmodel.NeutralPlayer}

	if v := getStrategicalValue(owned, 1, nil, nil); v != 1 {
		t.Fatalf("expected an owned town to score 1, got %f", v)
	}
	if v := getStrategicalValue(neutral, 1, nil, nil); v != 0.5 {
		t.Fatalf("expected a neutral town to score 0.5, got %f", v)
	}
}
