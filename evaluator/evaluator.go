// Package evaluator implements PriorityEvaluator (spec §4.8): scoring a
// Goal's EvaluationContext through a fuzzy engine down to a single priority
// float, plus the per-object-type reward functions that populate that
// context's gold/army/skill/strategical-value fields.
//
// Grounded on Engine/PriorityEvaluator.cpp for the reward tables and the
// evaluate() control flow (cached-priority short-circuit, invalid-hero
// fallback, engine-exception-to-zero), and on bot/fitness.go's
// Calculation/Value pattern for trace output: Evaluate returns the score,
// Explain returns the same inputs as a human-readable string for debugging.
package evaluator

import (
	"fmt"

	"github.com/nullkiller/aicore/fuzzy"
	"github.com/nullkiller/aicore/goal"
	"github.com/nullkiller/aicore/mapmodel"
)

// Target is the read-only view of the object an elementary goal points at,
// resolved by the caller (behavior/decomposer) before scoring; nil Object
// means no target (e.g. a Build or BuyArmy goal carries its reward directly
// in EvaluationContext instead).
type Target struct {
	Object      *mapmodel.Object
	Town        *mapmodel.Town
	EnemyHero   *mapmodel.Hero
	UnderThreat map[int64]float64
}

// MaxSkillSlots is the number of secondary-skill slots a hero has, used by
// the witch-hut skill-reward function.
const MaxSkillSlots = 8

// PriorityEvaluator scores goals through a loaded fuzzy engine. It holds no
// per-goal state and is safe to reuse across Evaluate calls within one
// borrow from a SharedPool.
type PriorityEvaluator struct {
	engine        *fuzzy.Engine
	actingPlayer  mapmodel.PlayerID
	goldAvailable int
}

// New wraps an already-loaded fuzzy engine (see fuzzy.LoadFile) for one
// player's turn.
func New(engine *fuzzy.Engine, actingPlayer mapmodel.PlayerID, goldAvailable int) *PriorityEvaluator {
	return &PriorityEvaluator{engine: engine, actingPlayer: actingPlayer, goldAvailable: goldAvailable}
}

// Evaluate scores g, mirroring PriorityEvaluator::evaluate: a goal that
// already carries a positive priority (pre-set by its behavior) is returned
// unchanged, a goal with no hero attached gets the fixed fallback of 2, and
// a fuzzy-engine failure is logged and scored 0 rather than propagated,
// per spec §7 FuzzyEngineFailure.
func (e *PriorityEvaluator) Evaluate(g *goal.Goal, h *mapmodel.Hero, role mapmodel.HeroRole, target Target, logFn func(string)) float64 {
	if g.Priority > 0 {
		return g.Priority
	}
	if h == nil {
		return 2
	}

	ctx := &g.Context

	armyLossPercentage := 0.0
	if ctx.HeroStrength > 0 {
		armyLossPercentage = float64(ctx.ArmyLoss) / float64(ctx.HeroStrength)
	}

	checkGold := ctx.Danger == 0

	goldReward := 0
	var armyReward int64
	skillReward := 0
	strategicalValue := 0.0

	if target.Object != nil {
		goldReward = getGoldReward(*target.Object, e.actingPlayer, target.Town, target.EnemyHero)
		armyReward = getArmyReward(*target.Object, e.actingPlayer, e.goldAvailable, checkGold, target.EnemyHero)
		skillReward = getSkillReward(*target.Object, *h, role, MaxSkillSlots, target.EnemyHero)
		strategicalValue = getStrategicalValue(*target.Object, e.actingPlayer, target.EnemyHero, target.UnderThreat)
	} else {
		goldReward = ctx.GoldReward
		armyReward = ctx.ArmyReward
		skillReward = ctx.SkillReward
		strategicalValue = ctx.StrategicalValue
	}

	rewardType := 0
	if goldReward > 0 {
		rewardType++
	}
	if armyReward > 0 {
		rewardType++
	}
	if skillReward > 0 {
		rewardType++
	}
	if strategicalValue > 0 {
		rewardType++
	}

	roleValue := 0.0
	if role == mapmodel.RoleScout {
		roleValue = 1
	}

	inputs := map[string]float64{
		"armyLoss":         armyLossPercentage,
		"heroRole":         roleValue,
		"danger":           float64(ctx.Danger),
		"turnDistance":     ctx.MovementCost,
		"goldReward":       float64(goldReward),
		"armyReward":       float64(armyReward),
		"skillReward":      float64(skillReward),
		"rewardType":       float64(rewardType),
		"closestHeroRatio": ctx.ClosestWayRatio,
		"strategicalValue": strategicalValue,
	}

	result, err := e.process(inputs)
	if err != nil {
		if logFn != nil {
			logFn(fmt.Sprintf("evaluate: %v", err))
		}
		return 0
	}
	if result < 0 {
		return 0
	}
	return result
}

func (e *PriorityEvaluator) process(inputs map[string]float64) (float64, error) {
	for name, value := range inputs {
		if err := e.engine.SetInput(name, value); err != nil {
			return 0, err
		}
	}
	if err := e.engine.Process(); err != nil {
		return 0, err
	}
	return e.engine.Output("Value")
}

// Explain renders the same inputs Evaluate would score, as a trace string,
// mirroring the VCMI_TRACE_PATHFINDER debug log block and bot/fitness.go's
// Calculation-returns-a-string half of its Calculation/Value pair.
func (e *PriorityEvaluator) Explain(g *goal.Goal, h *mapmodel.Hero, role mapmodel.HeroRole) string {
	ctx := g.Context
	return fmt.Sprintf(
		"loss=%.3f turns=%.2f gold=%d army=%d danger=%d role=%s strategical=%.2f",
		safeDiv(float64(ctx.ArmyLoss), float64(ctx.HeroStrength)),
		ctx.MovementCost, ctx.GoldReward, ctx.ArmyReward, ctx.Danger, role, ctx.StrategicalValue,
	)
}

func safeDiv(a, b float64) float64 {
	if b == 0 {
		return 0
	}
	return a / b
}
