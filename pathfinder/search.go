package pathfinder

import (
	"container/heap"

	"github.com/nullkiller/aicore/actors"
	"github.com/nullkiller/aicore/army"
	"github.com/nullkiller/aicore/coordinate"
	"github.com/nullkiller/aicore/mapmodel"
)

// nodeQueue is a best-first (Dijkstra) frontier ordered by Cost, standing
// in for the host A* engine the original delegates neighbour expansion
// to (spec §4.6.2 "the host pathfinder").
type nodeQueue []*AIPathNode

func (q nodeQueue) Len() int            { return len(q) }
func (q nodeQueue) Less(i, j int) bool  { return q[i].Cost < q[j].Cost }
func (q nodeQueue) Swap(i, j int)       { q[i], q[j] = q[j], q[i] }
func (q *nodeQueue) Push(x interface{}) { *q = append(*q, x.(*AIPathNode)) }
func (q *nodeQueue) Pop() interface{} {
	old := *q
	n := len(old)
	item := old[n-1]
	*q = old[:n-1]
	return item
}

// SeedInitial builds one starting node per actor (spec §4.6.1 step 1):
// the actor's own tile/layer, zero cost, full starting movement.
func (ns *NodeStorage) SeedInitial(initial []*actors.ChainActor) []*AIPathNode {
	seeds := make([]*AIPathNode, 0, len(initial))
	for _, a := range initial {
		n := ns.newNode(a.InitialPosition, a.Layer, a)
		n.MoveRemains = a.InitialMovement
		n.Turns = a.InitialTurn
		n.FightingStrength = a.ArmyValue
		n.Action = NodeActionNormal
		seeds = append(seeds, n)
	}
	return seeds
}

func maxMovement(a *actors.ChainActor, layer coordinate.Layer) int {
	if a.Hero == nil {
		return 0
	}
	if a.Hero.MaxMovementPerLayer == nil {
		return a.InitialMovement
	}
	return a.Hero.MaxMovementPerLayer[layer]
}

// calculateNeighbours produces one tentative node per 8-directional
// neighbour tile, for every layer the world enables there, consuming
// BaseMovementCost of the actor's movement and rolling into a new turn
// when it runs out (spec §4.6.2).
func calculateNeighbours(src *AIPathNode, world WorldView) []*AIPathNode {
	if !src.Actor.IsMovable {
		return nil
	}

	var out []*AIPathNode
	dirs := [8][2]int{{-1, -1}, {-1, 0}, {-1, 1}, {0, -1}, {0, 1}, {1, -1}, {1, 0}, {1, 1}}
	for _, d := range dirs {
		tile := coordinate.Coord{X: src.Tile.X + d[0], Y: src.Tile.Y + d[1], Z: src.Tile.Z}
		if world.IsRock(tile) {
			continue
		}
		for _, layer := range coordinate.AllLayers {
			if !world.TileLayerEnabled(tile, layer) {
				continue
			}

			turns := src.Turns
			remains := src.MoveRemains
			cost := src.Cost
			if remains < BaseMovementCost {
				turns++
				remains = maxMovement(src.Actor, layer)
				cost += 1.0
			}
			remains -= BaseMovementCost
			cost += float64(BaseMovementCost) / 100000.0

			n := &AIPathNode{
				Tile: tile, Layer: layer, Actor: src.Actor,
				Turns: turns, MoveRemains: remains, Cost: cost,
				ArmyLoss: src.ArmyLoss, Danger: src.Danger,
				FightingStrength: src.FightingStrength,
				Parent:           src,
			}
			out = append(out, n)
		}
	}
	return out
}

// calculateTeleportations produces a tentative node at every exit of a
// teleporter sitting under src, at a flat single-step cost (spec §4.6.2).
func calculateTeleportations(src *AIPathNode, world WorldView) []*AIPathNode {
	if !src.Actor.IsMovable {
		return nil
	}
	var out []*AIPathNode
	for _, exit := range world.TeleporterExitsAt(src.Tile) {
		n := &AIPathNode{
			Tile: exit, Layer: src.Layer, Actor: src.Actor,
			Turns: src.Turns, MoveRemains: src.MoveRemains, Cost: src.Cost + float64(BaseMovementCost)/100000.0,
			ArmyLoss: src.ArmyLoss, Danger: src.Danger,
			FightingStrength: src.FightingStrength,
			Parent:           src,
			Action:           NodeActionTeleportNormal,
		}
		out = append(out, n)
	}
	return out
}

func isMovementIneficient(src, dst *AIPathNode) bool {
	return dst.Actor.IsMovable && maxMovement(dst.Actor, dst.Layer) == 0 && dst.MoveRemains < 0
}

func isSubset(smaller, larger army.CreatureSet) bool {
	have := make(map[army.CreatureID]int)
	for _, s := range larger.Slots {
		have[s.Creature.ID] += s.Count
	}
	for _, s := range smaller.Slots {
		if have[s.Creature.ID] < s.Count {
			return false
		}
	}
	return true
}

// evaluateArmyLoss estimates the loss a hero's current army would take
// fighting danger guardians; grounded on PriorityEvaluator.cpp's use of a
// proportional danger/strength ratio rather than a full battle sim (spec
// §6 reuses the same estimate for goal evaluation).
func evaluateArmyLoss(armyValue int64, danger int64) int64 {
	if armyValue <= 0 {
		return danger
	}
	loss := danger * danger / armyValue
	if loss > armyValue {
		loss = armyValue
	}
	return loss
}

// movementAfterDestinationRule decides whether a tentative step commits,
// and if so what it means, per spec §4.7.
func movementAfterDestinationRule(src, dst *AIPathNode, world WorldView, options Options, ph phase) bool {
	if isMovementIneficient(src, dst) {
		return false
	}

	destGuardians := world.GuardsAt(dst.Tile)
	obj, hasObj := world.ObjectAt(dst.Tile)

	if len(destGuardians.Slots) > 0 {
		srcGuardians := world.GuardsAt(src.Tile)
		if isSubset(destGuardians, srcGuardians) && dst.Actor.AllowBattle {
			dst.Action = NodeActionNormal
		} else {
			battleActor := dst.Actor.BattleActor()
			danger := destGuardians.Power()
			loss := evaluateArmyLoss(battleActor.ArmyValue-dst.ArmyLoss, danger)
			if loss < battleActor.ArmyValue-dst.ArmyLoss {
				dst.Actor = battleActor
				dst.Action = NodeActionBattle
				dst.ArmyLoss += loss
				if danger > dst.Danger {
					dst.Danger = danger
				}
				dst.Special = &SpecialAction{Kind: SpecialBattle, GuardianArmy: destGuardians}
			} else {
				return false
			}
		}
	} else if hasObj && world.IsBlockVis(dst.Tile) {
		if isQuestGuard(obj) && !world.QuestSatisfied(obj, ownerOf(dst.Actor)) {
			dst.Action = NodeActionBlocked
			dst.Special = &SpecialAction{Kind: SpecialQuest, Object: obj}
			return true // commit as a terminal, non-actable marker
		}
		dst.Action = NodeActionVisit
	} else if dst.Action == NodeActionUnknown {
		dst.Action = NodeActionNormal
	}

	return !isDistanceLimitReached(dst, world, options, ph)
}

func isQuestGuard(o mapmodel.Object) bool {
	return o.Type == mapmodel.ObjectQuestGuard || o.Type == mapmodel.ObjectBorderGuard
}

func ownerOf(a *actors.ChainActor) mapmodel.PlayerID {
	if a.Hero == nil {
		return mapmodel.NeutralPlayer
	}
	return a.Hero.Owner
}

// isDistanceLimitReached applies spec §4.6.2's scout/main distance caps.
// During the FINAL pass, scouts use FinalScoutTurnDistanceLimit instead of
// ScoutTurnDistanceLimit (DESIGN.md Open Question 2): the original reuses
// the same constant in both places, but exposing it separately here lets
// a caller widen FINAL's reach without loosening the INITIAL/CHAIN cap
// that bounds the rest of the search.
func isDistanceLimitReached(n *AIPathNode, world WorldView, options Options, ph phase) bool {
	if n.Actor.Hero == nil {
		return false
	}
	if world.RoleOf(n.Actor.Hero.ID) == mapmodel.RoleScout {
		limit := options.ScoutTurnDistanceLimit
		if ph == phaseFinal && options.FinalScoutTurnDistanceLimit > 0 {
			limit = options.FinalScoutTurnDistanceLimit
		}
		return n.Turns > limit
	}
	return n.Turns > options.MainTurnDistanceLimit*(options.ScanDepth+1)
}

// expand runs a best-first search from seeds until the frontier is
// exhausted, committing every node that survives dominance and the
// movement-after-destination rule, and returns everything newly
// committed in this call.
func (ns *NodeStorage) expand(seeds []*AIPathNode, world WorldView, ph phase) []*AIPathNode {
	var newlyCommitted []*AIPathNode

	q := make(nodeQueue, 0, len(seeds))
	for _, s := range seeds {
		q = append(q, s)
	}
	heap.Init(&q)

	for q.Len() > 0 {
		node := heap.Pop(&q).(*AIPathNode)
		ns.nextSeq++
		node.seq = ns.nextSeq

		if !ns.tryCommit(node, ph) {
			continue
		}
		newlyCommitted = append(newlyCommitted, node)

		if node.Action == NodeActionBlocked {
			continue // terminal marker, do not expand further
		}

		candidates := calculateNeighbours(node, world)
		candidates = append(candidates, calculateTeleportations(node, world)...)
		for _, cand := range candidates {
			if movementAfterDestinationRule(node, cand, world, ns.options, ph) {
				heap.Push(&q, cand)
			}
		}
	}

	return newlyCommitted
}

// SearchInitial runs the INITIAL pass: expand every actor's primitive
// starting node (plus any synthesized town-portal nodes) across the map.
func (ns *NodeStorage) SearchInitial(initialActors []*actors.ChainActor, world WorldView) []*AIPathNode {
	seeds := ns.SeedInitial(initialActors)
	seeds = append(seeds, ns.townPortalNodes(seeds, world)...)
	return ns.expand(seeds, world, phaseInitial)
}
