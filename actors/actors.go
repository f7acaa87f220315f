// Package actors implements the hero-chain exchange algebra (spec §4.5):
// ChainActor and its 8 permission variants, and the memoized canExchange/
// exchange operations that let two actors that meet on the map combine
// into a single composite actor carrying their best merged army.
//
// Grounded on Pathfinding/Actors.cpp.
package actors

import (
	"github.com/nullkiller/aicore/army"
	"github.com/nullkiller/aicore/coordinate"
	"github.com/nullkiller/aicore/mapmodel"
)

// Permission bit layout: (battle, cast, resource), per spec §4.5.
const (
	BattleBit   = 1
	CastBit     = 2
	ResourceBit = 4

	// SpecialActorsCount is the number of permission-bit combinations, and
	// thus the size of each actor family (spec §4.5 SPECIAL_ACTORS_COUNT).
	SpecialActorsCount = 8
)

// Kind distinguishes what kind of thing an actor represents.
type Kind int

const (
	KindHero Kind = iota
	KindTownGarrison
	KindHillFort
	KindDwelling
)

// ChainActor is one pathfinding identity: a hero (or immobile garrison/
// dwelling) with a specific permission profile, or a composite formed by
// merging two actors that met on the map.
type ChainActor struct {
	id int

	Kind      Kind
	Hero      *mapmodel.Hero // nil unless Kind == KindHero
	Army      army.CreatureSet
	ArmyValue int64

	InitialPosition coordinate.Coord
	InitialTurn     int
	InitialMovement int
	Layer           coordinate.Layer

	ChainMask uint64

	family       *[SpecialActorsCount]*ChainActor
	Bits         int
	AllowBattle  bool
	AllowSpellCast    bool
	AllowUseResources bool

	CarrierParent      *ChainActor
	OtherParent        *ChainActor
	ActorExchangeCount int
	IsMovable          bool
}

// BaseActor is the unpermissioned root of this actor's family.
func (a *ChainActor) BaseActor() *ChainActor { return a.family[0] }

// BattleActor is the variant of this actor's family with AllowBattle set,
// keeping every other permission bit this actor already has.
func (a *ChainActor) BattleActor() *ChainActor { return a.family[a.Bits|BattleBit] }

// CastActor is the variant with AllowSpellCast set.
func (a *ChainActor) CastActor() *ChainActor { return a.family[a.Bits|CastBit] }

// ResourceActor is the variant with AllowUseResources set.
func (a *ChainActor) ResourceActor() *ChainActor { return a.family[a.Bits|ResourceBit] }

// Arena hands out stable per-turn actor IDs, which key the Exchanger's
// memo tables; NodeStorage owns one Arena per turn and drops it at turn
// end. The arena keeps no slice of actors: nodes and chain parents refer
// to actors by pointer.
type Arena struct {
	nextID int
}

// NewArena starts a fresh actor arena for one turn.
func NewArena() *Arena {
	return &Arena{}
}

func (r *Arena) allocID() int {
	id := r.nextID
	r.nextID++
	return id
}

// buildFamily allocates SpecialActorsCount variants sharing everything
// except their permission bits, and wires each variant's BaseActor/
// BattleActor/CastActor/ResourceActor accessors via the shared family
// array.
func (r *Arena) buildFamily(template ChainActor) *ChainActor {
	family := &[SpecialActorsCount]*ChainActor{}
	for bits := 0; bits < SpecialActorsCount; bits++ {
		v := template
		v.id = r.allocID()
		v.family = family
		v.Bits = bits
		v.AllowBattle = bits&BattleBit != 0
		v.AllowSpellCast = bits&CastBit != 0
		v.AllowUseResources = bits&ResourceBit != 0
		family[bits] = &v
	}
	return family[0]
}

// NewHeroActor builds a primitive actor for hero h with the given
// originating chain-mask bit, returning its base (unpermissioned) variant.
func (r *Arena) NewHeroActor(h mapmodel.Hero, maskBit uint64, layer coordinate.Layer) *ChainActor {
	return r.buildFamily(ChainActor{
		Kind:               KindHero,
		Hero:               &h,
		Army:               h.Army,
		ArmyValue:          h.Army.Power(),
		InitialPosition:    h.Position,
		InitialMovement:    h.MovementPointsLeft,
		Layer:              layer,
		ChainMask:          maskBit,
		ActorExchangeCount: 1,
		IsMovable:          true,
	})
}

// NewImmobileActor builds a non-movable actor (garrison, hill fort, or
// dwelling) whose army value reflects a static garrison or generator.
func (r *Arena) NewImmobileActor(kind Kind, garrisonArmy army.CreatureSet, position coordinate.Coord, maskBit uint64) *ChainActor {
	return r.buildFamily(ChainActor{
		Kind:               kind,
		Army:               garrisonArmy,
		ArmyValue:          garrisonArmy.Power(),
		InitialPosition:    position,
		ChainMask:          maskBit,
		ActorExchangeCount: 1,
		IsMovable:          false,
	})
}

func unorderedKey(a, b *ChainActor) [2]int {
	ai, bi := a.BaseActor().id, b.BaseActor().id
	if ai > bi {
		ai, bi = bi, ai
	}
	return [2]int{ai, bi}
}

// Exchanger memoizes canExchange/exchange per unordered actor-pair for the
// duration of one turn (spec §4.5, §9 "actor-pair memoization").
type Exchanger struct {
	arena       *Arena
	canExchange map[[2]int]bool
	exchanged   map[[2]int]*ChainActor
}

// NewExchanger creates a memoization table bound to arena, so composite
// actors it creates are allocated from the same per-turn arena as
// primitives.
func NewExchanger(arena *Arena) *Exchanger {
	return &Exchanger{
		arena:       arena,
		canExchange: make(map[[2]int]bool),
		exchanged:   make(map[[2]int]*ChainActor),
	}
}

// CanExchange reports whether a and b may be merged: their chain masks
// must be disjoint (no shared originating primitive), and the expected
// reinforcement from merging must exceed max(a.armyValue/10, 1000).
func (e *Exchanger) CanExchange(a, b *ChainActor) bool {
	key := unorderedKey(a, b)
	if v, ok := e.canExchange[key]; ok {
		return v
	}

	result := e.computeCanExchange(a, b)
	e.canExchange[key] = result
	return result
}

func (e *Exchanger) computeCanExchange(a, b *ChainActor) bool {
	if a.ChainMask&b.ChainMask != 0 {
		return false
	}

	gain := army.HowManyReinforcementsCanGet(a.Army, b.Army)
	threshold := a.ArmyValue / 10
	if threshold < 1000 {
		threshold = 1000
	}
	return int64(gain) > threshold
}

// Exchange returns the memoized composite actor formed by merging a and b:
// chain mask is the union, army is the best-of merge refitted to
// army.ArmySize slots, and the result has its own family of 8 permission
// variants. Calling Exchange for the same unordered pair twice returns the
// identical actor both times.
func (e *Exchanger) Exchange(a, b *ChainActor) *ChainActor {
	key := unorderedKey(a, b)
	if existing, ok := e.exchanged[key]; ok {
		return existing
	}

	mergedSlots := army.GetBestArmy(a.Army, b.Army)
	mergedArmy := army.ToCreatureSet(mergedSlots)

	primary := a
	if primary.Hero == nil {
		primary = b
	}

	result := e.arena.buildFamily(ChainActor{
		Kind:               KindHero,
		Hero:               primary.Hero,
		Army:               mergedArmy,
		ArmyValue:          mergedArmy.Power(),
		InitialPosition:    a.InitialPosition,
		InitialTurn:        a.InitialTurn,
		InitialMovement:    a.InitialMovement,
		Layer:              a.Layer,
		ChainMask:          a.ChainMask | b.ChainMask,
		CarrierParent:      a,
		OtherParent:        b,
		ActorExchangeCount: a.ActorExchangeCount + b.ActorExchangeCount,
		IsMovable:          true,
	})

	e.exchanged[key] = result
	return result
}
