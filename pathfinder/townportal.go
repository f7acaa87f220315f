package pathfinder

import (
	"math"

	"github.com/nullkiller/aicore/actors"
	"github.com/nullkiller/aicore/coordinate"
	"github.com/nullkiller/aicore/mapmodel"
)

// townPortalManaCost returns the mana cost of casting town-portal at the
// given spell level; values are the engine's base-cost constant scaled by
// whether the caster is expert (spec §4.6.4).
func townPortalManaCost(level mapmodel.SpellSchoolLevel) int {
	if level == mapmodel.SpellLevelExpert {
		return 5
	}
	return 10
}

func townPortalMovementCost(level mapmodel.SpellSchoolLevel) int {
	if level == mapmodel.SpellLevelExpert {
		return BaseMovementCost * 2
	}
	return BaseMovementCost * 3
}

func euclidean(a, b coordinate.Coord) float64 {
	dx := float64(a.X - b.X)
	dy := float64(a.Y - b.Y)
	return math.Sqrt(dx*dx + dy*dy)
}

// townPortalNodes synthesizes one TELEPORT_NORMAL node per eligible
// friendly town for every actor whose hero can cast town-portal, per spec
// §4.6.4. It is folded into the INITIAL pass's seed set, since the rule
// says to do this "before returning initial/chain node lists".
func (ns *NodeStorage) townPortalNodes(seeds []*AIPathNode, world WorldView) []*AIPathNode {
	bestLandSource := make(map[*actors.ChainActor]*AIPathNode)
	for _, n := range seeds {
		if n.Layer != coordinate.LayerLand || n.Actor.Hero == nil {
			continue
		}
		cur, ok := bestLandSource[n.Actor]
		if !ok || n.Cost < cur.Cost {
			bestLandSource[n.Actor] = n
		}
	}

	var out []*AIPathNode
	for actor, source := range bestLandSource {
		hero := actor.Hero
		cost := townPortalManaCost(hero.WaterMagicLevel)
		if !hero.CanCastTownPortal(cost) {
			continue
		}
		moveCost := townPortalMovementCost(hero.WaterMagicLevel)
		if source.MoveRemains < moveCost {
			continue
		}

		towns := world.FriendlyTowns(hero.Owner)
		if hero.WaterMagicLevel != mapmodel.SpellLevelExpert {
			towns = closestTown(towns, source.Tile)
		}

		for _, town := range towns {
			if town.VisitingHero != nil && *town.VisitingHero != hero.ID && !inChain(actor, *town.VisitingHero) {
				continue
			}

			n := ns.newNode(town.Position, coordinate.LayerLand, actor)
			n.Turns = source.Turns
			n.MoveRemains = source.MoveRemains - moveCost
			n.Cost = source.Cost + float64(moveCost)/100000.0
			n.ArmyLoss = source.ArmyLoss
			n.Danger = source.Danger
			n.FightingStrength = source.FightingStrength
			n.Action = NodeActionTeleportNormal
			n.Special = &SpecialAction{Kind: SpecialTownPortal, TownID: town.ID}
			n.Parent = source
			out = append(out, n)
		}
	}
	return out
}

// closestTown narrows towns to the single euclidean-closest one to src,
// the non-expert town-portal town-choice rule (spec §4.6.4).
func closestTown(towns []mapmodel.Town, src coordinate.Coord) []mapmodel.Town {
	if len(towns) == 0 {
		return nil
	}
	best := towns[0]
	bestDist := euclidean(src, best.Position)
	for _, t := range towns[1:] {
		if d := euclidean(src, t.Position); d < bestDist {
			best, bestDist = t, d
		}
	}
	return []mapmodel.Town{best}
}

// inChain reports whether heroID is part of actor's merged chain of
// origins: the actor's own hero or, recursively, the hero of either
// parent it was exchanged from.
func inChain(actor *actors.ChainActor, heroID int) bool {
	if actor == nil {
		return false
	}
	if actor.Hero != nil && actor.Hero.ID == heroID {
		return true
	}
	return inChain(actor.CarrierParent, heroID) || inChain(actor.OtherParent, heroID)
}
