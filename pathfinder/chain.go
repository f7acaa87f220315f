package pathfinder

import (
	"github.com/nullkiller/aicore/actors"
	"github.com/nullkiller/aicore/coordinate"
)

// Pass CHAIN and Pass FINAL (spec §4.6.2).
//
// The original recomputes chain candidates incrementally, tracking which
// tiles have new settlements since the last round via an "active carrier
// set" bitmask. This rewrite recomputes the full candidate set from
// storage every round instead: functionally equivalent (every round still
// only proposes exchanges whose both sides are already committed, and
// dominance still prunes redundant chains before they're expanded), just
// more repeated work across rounds. See DESIGN.md.

// SearchChain runs Pass CHAIN: repeatedly look for hero pairs meeting at
// the same tile that can exchange into a stronger composite actor, commit
// the survivors, and let the frontier grow from them, until no round adds
// anything new or heroChainTurn exceeds HeroChainMaxTurns.
func (ns *NodeStorage) SearchChain(world WorldView) ([]*AIPathNode, int) {
	var allNew []*AIPathNode
	heroChainTurn := 0

	for heroChainTurn <= ns.options.HeroChainMaxTurns {
		candidates := ns.collectExchangeCandidates(heroChainTurn)
		if len(candidates) == 0 {
			break
		}

		var committed []*AIPathNode
		for _, c := range candidates {
			if ns.tryCommit(c, phaseChain) {
				committed = append(committed, c)
			}
		}
		if len(committed) == 0 {
			break
		}

		expanded := ns.expand(committed, world, phaseChain)
		allNew = append(allNew, expanded...)
		heroChainTurn++
	}

	return allNew, heroChainTurn
}

// collectExchangeCandidates scans every committed LAND/SAIL tile for
// ordered actor pairs eligible to merge, per spec §4.6.2's filter chain.
func (ns *NodeStorage) collectExchangeCandidates(heroChainTurn int) []*AIPathNode {
	var out []*AIPathNode

	for key, nodes := range ns.nodes {
		if key.Layer != coordinate.LayerLand && key.Layer != coordinate.LayerSail {
			continue
		}
		for _, src := range nodes {
			if src.Turns > heroChainTurn {
				continue
			}
			for _, other := range nodes {
				if src == other {
					continue
				}
				if cand := ns.tryExchangeCandidate(src, other); cand != nil {
					out = append(out, cand)
				}
			}
		}
	}
	return out
}

func (ns *NodeStorage) tryExchangeCandidate(src, other *AIPathNode) *AIPathNode {
	if src.Action == NodeActionBattle || src.Action == NodeActionTeleportNormal || src.Action == NodeActionUnknown {
		return nil
	}
	if src.Actor.ChainMask&other.Actor.ChainMask != 0 {
		return nil
	}
	if src.MoveRemains < other.MoveRemains && heroExperience(src.Actor) < heroExperience(other.Actor) {
		return nil // inefficient: strictly worse on both axes
	}
	if src.ArmyAfterLoss() <= 0 || other.ArmyAfterLoss() <= 0 {
		return nil
	}
	if !ns.exch.CanExchange(src.Actor, other.Actor) {
		return nil
	}

	merged := ns.exch.Exchange(src.Actor, other.Actor)

	turns := src.Turns
	moveRemains := src.MoveRemains
	cost := src.Cost + other.Cost/1000
	if src.Turns < other.Turns {
		cost += float64(other.Turns - src.Turns)
		turns = other.Turns
		moveRemains = maxMovement(merged, src.Layer)
	}

	node := ns.newNode(src.Tile, src.Layer, merged)
	node.Turns = turns
	node.MoveRemains = moveRemains
	node.Cost = cost
	node.ArmyLoss = src.ArmyLoss + other.ArmyLoss
	node.Danger = maxInt64(src.Danger, other.Danger)
	node.FightingStrength = merged.ArmyValue - node.ArmyLoss
	node.Action = NodeActionExchange
	node.Parent = src
	return node
}

func heroExperience(a *actors.ChainActor) int64 {
	if a.Hero == nil {
		return 0
	}
	return a.Hero.Experience
}

func maxInt64(a, b int64) int64 {
	if a > b {
		return a
	}
	return b
}

// SearchFinal runs Pass FINAL: gather surviving chain nodes past
// heroChainTurn with more than one exchange in their history, and re-run
// the frontier search from them so composite actors can extend their
// reach beyond the tile where they last merged (spec §4.6.2).
func (ns *NodeStorage) SearchFinal(heroChainTurn int, world WorldView) []*AIPathNode {
	var seeds []*AIPathNode
	for _, nodes := range ns.nodes {
		for _, n := range nodes {
			if n.Turns <= heroChainTurn || n.Action == NodeActionUnknown || n.Actor.ActorExchangeCount <= 1 {
				continue
			}
			if ns.dominatedWithin(nodes, n) {
				continue
			}
			seeds = append(seeds, n)
		}
	}
	return ns.expand(seeds, world, phaseFinal)
}

func (ns *NodeStorage) dominatedWithin(siblings []*AIPathNode, n *AIPathNode) bool {
	for _, other := range siblings {
		if other == n {
			continue
		}
		if hasBetterChain(other, n, phaseFinal) {
			return true
		}
	}
	return false
}
