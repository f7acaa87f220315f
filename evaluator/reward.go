package evaluator

import (
	"github.com/nullkiller/aicore/army"
	"github.com/nullkiller/aicore/hero"
	"github.com/nullkiller/aicore/mapmodel"
)

// dailyIncomeMultiplier scales a per-day income reward into a gold-reward
// figure comparable to one-off pickups (PriorityEvaluator.cpp: dailyIncomeMultiplier = 5).
const dailyIncomeMultiplier = 5

// heroEliminationBonus is half of HERO_GOLD_COST (the recruit-a-hero gold
// price), added on top of 20% of the eliminated hero's army value.
const heroEliminationBonus = 1250

func getArmyCost(a army.CreatureSet) int {
	total := 0
	for _, s := range a.Slots {
		total += s.Creature.GoldCost * s.Count
	}
	return total
}

// getGoldReward mirrors PriorityEvaluator::getGoldReward's object-type
// switch.
func getGoldReward(obj mapmodel.Object, actingPlayer mapmodel.PlayerID, town *mapmodel.Town, enemy *mapmodel.Hero) int {
	switch obj.Type {
	case mapmodel.ObjectResource:
		if obj.GoldAmount > 0 {
			return 600
		}
		return 100
	case mapmodel.ObjectTreasureChest:
		return 1500
	case mapmodel.ObjectWaterWheel:
		return 1000
	case mapmodel.ObjectTown:
		if town != nil {
			return dailyIncomeMultiplier * town.EstimatedIncome(actingPlayer)
		}
		return 0
	case mapmodel.ObjectMineGold:
		return dailyIncomeMultiplier * 1000
	case mapmodel.ObjectMineOther:
		return dailyIncomeMultiplier * 75
	case mapmodel.ObjectMysticalGarden:
		return 100
	case mapmodel.ObjectCampfire:
		return 800
	case mapmodel.ObjectCreatureBank:
		return obj.BankGoldReward
	case mapmodel.ObjectCryptOrDerelict:
		return 3000
	case mapmodel.ObjectDragonUtopia:
		return 10000
	case mapmodel.ObjectSeaChest:
		return 1500
	case mapmodel.ObjectEnemyHero:
		if enemy == nil {
			return 0
		}
		return heroEliminationBonus + int(0.2*float64(getArmyCost(enemy.Army)))
	default:
		return 0
	}
}

// getDwellingScore sums AIValue*count across a dwelling's tiers, skipping
// any tier the acting player can't afford when checkGold is set
// (PriorityEvaluator.cpp's getDwellingScore).
func getDwellingScore(tiers []army.DwellingTier, goldAvailable int, checkGold bool) int64 {
	var total int64
	for _, tier := range tiers {
		if checkGold && tier.Creature.GoldCost > 0 && tier.Creature.GoldCost > goldAvailable {
			continue
		}
		total += int64(tier.Creature.AIValue) * int64(tier.Available)
	}
	return total
}

func getCreatureBankArmyReward(obj mapmodel.Object) int64 {
	var total int64
	for _, s := range obj.BankArmyReward {
		total += s.Power
	}
	return total
}

// evaluateArtifactArmyValue returns a fixed 1500 for a spell scroll and
// otherwise the object's precomputed ArtifactValue unchanged. It does no
// stat-bonus or artifact-class weighting of its own, so no defence term is
// applied here — see DESIGN.md Open Question 1.
func evaluateArtifactArmyValue(obj mapmodel.Object) int64 {
	if obj.Type == mapmodel.ObjectSpellScroll {
		return 1500
	}
	return int64(obj.ArtifactValue)
}

// getArmyReward mirrors PriorityEvaluator::getArmyReward's object-type
// switch.
func getArmyReward(obj mapmodel.Object, actingPlayer mapmodel.PlayerID, goldAvailable int, checkGold bool, enemy *mapmodel.Hero) int64 {
	switch obj.Type {
	case mapmodel.ObjectTown:
		if obj.Owner == actingPlayer {
			return 10000
		}
		return 1000
	case mapmodel.ObjectCreatureBank:
		return getCreatureBankArmyReward(obj)
	case mapmodel.ObjectDwelling:
		return getDwellingScore(obj.DwellingCreatures, goldAvailable, checkGold)
	case mapmodel.ObjectCryptOrDerelict, mapmodel.ObjectShipwreckOrTomb:
		return 1500
	case mapmodel.ObjectArtifact, mapmodel.ObjectSpellScroll:
		return evaluateArtifactArmyValue(obj)
	case mapmodel.ObjectDragonUtopia:
		return 10000
	case mapmodel.ObjectEnemyHero:
		if enemy == nil {
			return 0
		}
		return int64(0.5 * float64(enemy.Army.Power()))
	default:
		return 0
	}
}

// evaluateWitchHutSkillScore mirrors PriorityEvaluator::evaluateWitchHutSkillScore.
func evaluateWitchHutSkillScore(obj mapmodel.Object, h mapmodel.Hero, role mapmodel.HeroRole, maxSkillSlots int) int {
	if !obj.WitchHutVisited {
		if role == mapmodel.RoleScout {
			return 2
		}
		return 0
	}

	score := hero.EvaluateSecSkill(h, obj.SkillCandidate, maxSkillSlots)
	if score >= 2 {
		if role == mapmodel.RoleMain {
			return 10
		}
		return 4
	}
	return score
}

// getSkillReward mirrors PriorityEvaluator::getSkillReward's object-type
// switch.
func getSkillReward(obj mapmodel.Object, h mapmodel.Hero, role mapmodel.HeroRole, maxSkillSlots int, enemy *mapmodel.Hero) int {
	switch obj.Type {
	case mapmodel.ObjectGardenOfSchoolTowerCampShrine:
		return 1
	case mapmodel.ObjectArenaOrShrineOfThought:
		return 2
	case mapmodel.ObjectLibrary:
		return 8
	case mapmodel.ObjectWitchHut:
		return evaluateWitchHutSkillScore(obj, h, role, maxSkillSlots)
	case mapmodel.ObjectEnemyHero:
		if enemy == nil {
			return 0
		}
		return enemy.Level / 2
	default:
		return 0
	}
}

// getStrategicalValue mirrors PriorityEvaluator::getStrategicalValue /
// getEnemyHeroStrategicalValue. underThreat maps a reachable coordinate to
// the strategic value of whatever's standing there, supplied by the caller
// from the already-scored set of candidate goals this turn (the original
// reaches back into the dangermap + a second evaluator pass to get this;
// here the caller precomputes it once per turn to avoid recursive scoring).
func getStrategicalValue(obj mapmodel.Object, actingPlayer mapmodel.PlayerID, enemy *mapmodel.Hero, underThreat map[int64]float64) float64 {
	switch obj.Type {
	case mapmodel.ObjectTown:
		if obj.Owner == actingPlayer {
			return 1
		}
		return 0.5
	case mapmodel.ObjectEnemyHero:
		if enemy == nil {
			return 0
		}
		var maxUnderThreat float64
		for _, v := range underThreat {
			if v > maxUnderThreat {
				maxUnderThreat = v
			}
		}
		return maxUnderThreat/2 + float64(enemy.Level)/15
	default:
		return 0
	}
}
