// Package army implements the pure creature-set arithmetic the rest of the
// core relies on: merging two armies into the best possible 7-slot result,
// estimating reinforcement gain, and enumerating what a hero could buy at a
// dwelling with the gold on hand.
//
// Grounded on ArmyManager.cpp (getSortedSlots, getWeakestCreature,
// getBestArmy, howManyReinforcementsCanBuy) from the original Nullkiller
// sources, following CHansas' ArmyManager-less but similarly pure-function
// style (bot/fitness.go computes a value from inputs with no side effects).
package army

import "sort"

// ArmySize is the maximum number of distinct creature stacks an army may
// hold at once (spec §6 ARMY_SIZE).
const ArmySize = 7

// CreatureID identifies a creature type. The game engine is the source of
// truth for what a CreatureID means; this package only needs AIValue and a
// level/speed ordering to make merge decisions.
type CreatureID int

// CreatureInfo is the subset of static creature data ArmyManager needs from
// the (out of scope) game engine collaborator.
type CreatureInfo struct {
	ID       CreatureID
	AIValue  int
	Level    int
	Speed    int
	GoldCost int
}

// CreatureSlot is one stack within a CreatureSet: a creature type and how
// many of it are present.
type CreatureSlot struct {
	Creature CreatureInfo
	Count    int
}

func (s CreatureSlot) power() int64 {
	return int64(s.Creature.AIValue) * int64(s.Count)
}

// CreatureSet is an ordered collection of at most ArmySize slots. No slot is
// ever empty and no creature type appears twice; callers must go through
// this package's constructors to preserve that invariant.
type CreatureSet struct {
	Slots []CreatureSlot

	// NeedsLastStack marks an army that must retain at least one unit as a
	// rear guard after a merge (e.g. a hero that must not be left empty to
	// keep visiting a town).
	NeedsLastStack bool
}

// Power is the sum over slots of AIValue*count.
func (c CreatureSet) Power() int64 {
	var total int64
	for _, s := range c.Slots {
		total += s.power()
	}
	return total
}

// SlotInfo is the intermediate representation used while merging two
// armies: a creature type, its combined count, and its combined power.
type SlotInfo struct {
	Creature CreatureInfo
	Count    int
	Power    int64
}

func sortedSlots(target, source CreatureSet) []SlotInfo {
	byType := make(map[CreatureID]*SlotInfo)
	var order []CreatureID

	merge := func(set CreatureSet) {
		for _, s := range set.Slots {
			if s.Count <= 0 {
				continue
			}
			info, ok := byType[s.Creature.ID]
			if !ok {
				info = &SlotInfo{Creature: s.Creature}
				byType[s.Creature.ID] = info
				order = append(order, s.Creature.ID)
			}
			info.Count += s.Count
			info.Power += s.power()
		}
	}
	merge(target)
	merge(source)

	result := make([]SlotInfo, 0, len(order))
	for _, id := range order {
		result = append(result, *byType[id])
	}

	sort.SliceStable(result, func(i, j int) bool {
		return result[i].Power > result[j].Power
	})
	return result
}

// weakestIndex finds the stack that should be sacrificed when an army must
// shed one unit: lowest level first, ties broken by higher speed (a fast
// weak stack is more replaceable than a slow one, per ArmyManager.cpp's
// getWeakestCreature).
func weakestIndex(slots []SlotInfo) int {
	best := 0
	for i := 1; i < len(slots); i++ {
		a, b := slots[i], slots[best]
		if a.Creature.Level != b.Creature.Level {
			if a.Creature.Level < b.Creature.Level {
				best = i
			}
			continue
		}
		if a.Creature.Speed > b.Creature.Speed {
			best = i
		}
	}
	return best
}

// GetBestArmy merges target and source by creature type, sums counts and
// power per type, sorts descending by power, and truncates to ArmySize. If
// the result still fits within ArmySize but source.NeedsLastStack, one unit
// is deducted from the weakest stack instead (dropping the stack entirely
// if it only had one unit), so that source keeps at least a token presence.
func GetBestArmy(target, source CreatureSet) []SlotInfo {
	merged := sortedSlots(target, source)

	if len(merged) > ArmySize {
		return merged[:ArmySize]
	}

	if !source.NeedsLastStack || len(merged) == 0 {
		return merged
	}

	i := weakestIndex(merged)
	if merged[i].Count == 1 {
		return append(merged[:i], merged[i+1:]...)
	}
	merged[i].Power -= merged[i].Power / int64(merged[i].Count)
	merged[i].Count--
	return merged
}

// ToCreatureSet refits a merge result (already capped to ArmySize) back into
// a CreatureSet, used when materializing the army a composite ChainActor
// carries forward.
func ToCreatureSet(slots []SlotInfo) CreatureSet {
	out := CreatureSet{Slots: make([]CreatureSlot, 0, len(slots))}
	for _, s := range slots {
		out.Slots = append(out.Slots, CreatureSlot{Creature: s.Creature, Count: s.Count})
	}
	return out
}

func powerOf(slots []SlotInfo) int64 {
	var total int64
	for _, s := range slots {
		total += s.Power
	}
	return total
}

// HowManyReinforcementsCanGet is the AIValue gained by merging source into
// target, never negative.
func HowManyReinforcementsCanGet(target, source CreatureSet) uint64 {
	gain := powerOf(GetBestArmy(target, source)) - target.Power()
	if gain < 0 {
		return 0
	}
	return uint64(gain)
}

// DwellingTier is one purchasable creature level at a dwelling: the
// creature on offer, how many are available this week, and unit gold cost.
type DwellingTier struct {
	Creature  CreatureInfo
	Available int
}

// CreInfo describes how many of a creature a hero can actually afford and
// fit, mirroring the original CreInfo struct (creature + buyable count).
type CreInfo struct {
	Creature CreatureInfo
	Count    int
}

// GetArmyAvailableToBuy walks dwelling tiers in the order given (it does
// not reorder them by strength), constraining the buyable count by
// affordable gold and by the hero's free creature slots (ArmySize minus
// distinct creature types already present that aren't this tier's type).
// Resources are reserved as we go so a tier further down the list can't
// double-spend gold already committed to an earlier tier.
func GetArmyAvailableToBuy(heroArmy CreatureSet, dwelling []DwellingTier, goldAvailable int) []CreInfo {
	freeSlots := ArmySize - len(heroArmy.Slots)
	present := make(map[CreatureID]bool, len(heroArmy.Slots))
	for _, s := range heroArmy.Slots {
		present[s.Creature.ID] = true
	}

	var result []CreInfo
	remainingGold := goldAvailable

	for _, tier := range dwelling {
		if tier.Available <= 0 || tier.Creature.GoldCost <= 0 {
			continue
		}
		if freeSlots <= 0 && !present[tier.Creature.ID] {
			continue
		}

		affordable := remainingGold / tier.Creature.GoldCost
		count := tier.Available
		if affordable < count {
			count = affordable
		}
		if count <= 0 {
			continue
		}

		result = append(result, CreInfo{Creature: tier.Creature, Count: count})
		remainingGold -= count * tier.Creature.GoldCost
		if !present[tier.Creature.ID] {
			freeSlots--
			present[tier.Creature.ID] = true
		}
	}

	return result
}

// HowManyReinforcementsCanBuy sums count*AIValue across everything
// GetArmyAvailableToBuy would purchase.
func HowManyReinforcementsCanBuy(heroArmy CreatureSet, dwelling []DwellingTier, goldAvailable int) uint64 {
	var total uint64
	for _, ci := range GetArmyAvailableToBuy(heroArmy, dwelling, goldAvailable) {
		total += uint64(ci.Count) * uint64(ci.Creature.AIValue)
	}
	return total
}

// TotalArmyCache is a per-turn cache of total owned creatures of each type
// across every hero and town garrison, built once at turn start and read by
// behaviors that want to know "how many Griffins do I have anywhere".
type TotalArmyCache struct {
	totals map[CreatureID]int
}

// NewTotalArmyCache builds the cache from every owned army this turn.
func NewTotalArmyCache(armies ...CreatureSet) *TotalArmyCache {
	c := &TotalArmyCache{totals: make(map[CreatureID]int)}
	for _, a := range armies {
		for _, s := range a.Slots {
			c.totals[s.Creature.ID] += s.Count
		}
	}
	return c
}

// GetTotalCreaturesAvailable looks up the cached total for a creature type,
// returning 0 for a type never seen this turn.
func (c *TotalArmyCache) GetTotalCreaturesAvailable(id CreatureID) int {
	if c == nil {
		return 0
	}
	return c.totals[id]
}
