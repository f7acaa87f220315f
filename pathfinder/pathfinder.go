// Package pathfinder implements the chain pathfinder (spec §4.6): a
// three-pass best-first search over a node grid keyed by (tile, layer,
// chain-slot) that lets multiple hero actors combine into composite
// actors mid-route and keep going.
//
// Grounded on Pathfinding/AINodeStorage.cpp and
// Pathfinding/Rules/AIMovementAfterDestinationRule.cpp, adapted from a
// VCMI-pathfinder-plugin model (the host A* engine calls back into
// AINodeStorage) into a self-contained best-first search, since there is
// no separate host pathfinder in this module.
package pathfinder

import (
	"github.com/nullkiller/aicore/actors"
	"github.com/nullkiller/aicore/army"
	"github.com/nullkiller/aicore/coordinate"
	"github.com/nullkiller/aicore/mapmodel"
)

// NodeAction tags what a node's arrival represents.
type NodeAction int

const (
	NodeActionUnknown NodeAction = iota
	NodeActionNormal
	NodeActionBattle
	NodeActionVisit
	NodeActionBlocked
	NodeActionTeleportNormal
	NodeActionExchange
)

// BaseMovementCost is the engine's movement-point cost of a single plain
// step, used to price teleportation and distance limits (spec §4.6.4).
const BaseMovementCost = 100

// SpecialActionKind tags the payload carried by a node that needs more
// than a move to resolve (spec §4.7, §4.6.4), mirrored on the tagged-
// variant pattern the message package uses for server/client payloads.
type SpecialActionKind int

const (
	SpecialNone SpecialActionKind = iota
	SpecialBattle
	SpecialQuest
	SpecialTownPortal
)

// SpecialAction is the non-actable-until-resolved payload a node carries.
type SpecialAction struct {
	Kind SpecialActionKind

	GuardianArmy army.CreatureSet // SpecialBattle
	Object       mapmodel.Object  // SpecialQuest
	TownID       int              // SpecialTownPortal
}

// CanAct reports whether the hero can act on this special action right
// now; quest guards can't (the player must fulfil the quest out of band).
func (s SpecialAction) CanAct() bool {
	return s.Kind != SpecialQuest
}

// AIPathNode is one (tile, layer, chain-slot) settlement: the actor that
// reached it, at what cost, and what arriving there means.
type AIPathNode struct {
	Tile  coordinate.Coord
	Layer coordinate.Layer
	Actor *actors.ChainActor

	Turns       int
	MoveRemains int
	Cost        float64

	ArmyLoss        int64
	Danger          int64
	FightingStrength int64

	Action  NodeAction
	Special *SpecialAction
	Parent  *AIPathNode

	// seq is an ordering tie-break for the FINAL dominance rule's
	// "strict inequalities break by address" clause, since Go pointers
	// don't have a usable order without unsafe. It is stamped from
	// NodeStorage's counter when the node is created and stamped again
	// when expand pops it.
	seq int64
}

// ArmyAfterLoss is the actor's army value net of losses sustained getting
// here, the quantity dominance rule 3/4 compares across chains (spec
// §4.6.3).
func (n *AIPathNode) ArmyAfterLoss() int64 {
	return n.Actor.ArmyValue - n.ArmyLoss
}

// WorldView is the read-only map/game-state surface the search needs;
// gameapi's consumed collaborator supplies the concrete implementation.
type WorldView interface {
	TileLayerEnabled(tile coordinate.Coord, layer coordinate.Layer) bool
	IsRock(tile coordinate.Coord) bool
	ObjectAt(tile coordinate.Coord) (mapmodel.Object, bool)
	GuardsAt(tile coordinate.Coord) army.CreatureSet
	IsBlockVis(tile coordinate.Coord) bool
	TeleporterExitsAt(tile coordinate.Coord) []coordinate.Coord
	QuestSatisfied(obj mapmodel.Object, owner mapmodel.PlayerID) bool
	FriendlyTowns(owner mapmodel.PlayerID) []mapmodel.Town
	RoleOf(heroID int) mapmodel.HeroRole
}

// Options configures the search's turn/distance limits (spec §4.6.1,
// §4.6.2).
type Options struct {
	ScoutTurnDistanceLimit     int
	MainTurnDistanceLimit      int
	ScanDepth                  int
	HeroChainMaxTurns          int
	FinalScoutTurnDistanceLimit int // see DESIGN.md Open Question 2
}

type slotKey struct {
	Tile  coordinate.Coord
	Layer coordinate.Layer
}

// NodeStorage owns one turn's worth of settled nodes, keyed by tile and
// layer; the chain-slot dimension is the position of a node within the
// slice at that key, not a fixed-size array (spec's 5-D grid generalized
// to however many chains a tile actually sees this turn).
type NodeStorage struct {
	nodes   map[slotKey][]*AIPathNode
	arena   *actors.Arena
	exch    *actors.Exchanger
	options Options
	nextSeq int64
}

// New clears and reinitializes storage for a fresh turn (spec §4.6.1
// step 1: clear()).
func New(options Options) *NodeStorage {
	arena := actors.NewArena()
	return &NodeStorage{
		nodes:   make(map[slotKey][]*AIPathNode),
		arena:   arena,
		exch:    actors.NewExchanger(arena),
		options: options,
	}
}

// Arena exposes the per-turn actor arena so callers can build primitive
// actors before seeding the search.
func (ns *NodeStorage) Arena() *actors.Arena { return ns.arena }

func (ns *NodeStorage) key(tile coordinate.Coord, layer coordinate.Layer) slotKey {
	return slotKey{Tile: tile, Layer: layer}
}

// phase tags which of the three passes dominance rule 3/4 applies in
// (spec §4.6.3: rule 3/4 is only active during CHAIN/FINAL).
type phase int

const (
	phaseInitial phase = iota
	phaseChain
	phaseFinal
)

// hasBetterChain reports whether existing dominates candidate at the same
// tile/layer, implementing the four rules of spec §4.6.3 in order.
func hasBetterChain(existing, candidate *AIPathNode, ph phase) bool {
	// Rule 1: same actor family — ordinary cheaper-cost relaxation.
	if existing.Actor.ChainMask == candidate.Actor.ChainMask {
		return existing.Cost <= candidate.Cost
	}

	// Rule 2: existing is the battle variant of candidate's actor, no
	// riskier and strictly cheaper.
	if existing.Actor == candidate.Actor.BattleActor() &&
		existing.Danger <= candidate.Danger &&
		existing.Cost < candidate.Cost {
		return true
	}

	if ph == phaseInitial {
		return false
	}

	existingArmy := existing.ArmyAfterLoss()
	candidateArmy := candidate.ArmyAfterLoss()

	// Rule 3: different chain, strictly stronger at no greater cost.
	if existingArmy > candidateArmy && existing.Cost <= candidate.Cost {
		return true
	}

	if ph != phaseFinal {
		return false
	}

	// Rule 4 (FINAL only): equal strength after loss, fighting strength
	// at least as good, cost no worse; a true tie is broken by seq, so the
	// earlier-stamped node wins and the result stays deterministic.
	if existingArmy == candidateArmy &&
		existing.FightingStrength >= candidate.FightingStrength &&
		existing.Cost <= candidate.Cost {
		if existing.FightingStrength == candidate.FightingStrength && existing.Cost == candidate.Cost {
			return existing != candidate && existing.seq < candidate.seq
		}
		return true
	}

	return false
}

// tryCommit attempts to settle candidate at its tile/layer: it is
// rejected if any existing node there dominates it, and on success it
// evicts any existing nodes the candidate itself now dominates (spec
// §4.6.3: "dominance must hold both against committed storage and
// against other candidates in the same batch" — the latter is handled by
// the caller re-running tryCommit for every batch member one at a time).
func (ns *NodeStorage) tryCommit(candidate *AIPathNode, ph phase) bool {
	k := ns.key(candidate.Tile, candidate.Layer)
	existing := ns.nodes[k]

	survivors := existing[:0:0]
	for _, e := range existing {
		if hasBetterChain(e, candidate, ph) {
			return false
		}
		if !hasBetterChain(candidate, e, ph) {
			survivors = append(survivors, e)
		}
	}
	survivors = append(survivors, candidate)
	ns.nodes[k] = survivors
	return true
}

// newNode stamps a fresh node with a creation-order sequence number.
func (ns *NodeStorage) newNode(tile coordinate.Coord, layer coordinate.Layer, actor *actors.ChainActor) *AIPathNode {
	ns.nextSeq++
	return &AIPathNode{Tile: tile, Layer: layer, Actor: actor, seq: ns.nextSeq}
}

// All returns every node currently committed to storage.
func (ns *NodeStorage) All() []*AIPathNode {
	var out []*AIPathNode
	for _, nodes := range ns.nodes {
		out = append(out, nodes...)
	}
	return out
}
