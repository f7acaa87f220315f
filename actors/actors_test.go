package actors

import (
	"testing"

	"github.com/nullkiller/aicore/army"
	"github.com/nullkiller/aicore/coordinate"
	"github.com/nullkiller/aicore/mapmodel"
)

func makeHero(id int, power int, movement int) mapmodel.Hero {
	return mapmodel.Hero{
		ID:                 id,
		MovementPointsLeft: movement,
		Army: army.CreatureSet{Slots: []army.CreatureSlot{
			{Creature: army.CreatureInfo{ID: army.CreatureID(id), AIValue: power}, Count: 1},
		}},
	}
}

func TestFamilyVariantsShareStateDifferPermissions(t *testing.T) {
	arena := NewArena()
	base := arena.NewHeroActor(makeHero(1, 100, 1000), 1, coordinate.LayerLand)

	if base.Bits != 0 {
		t.Fatalf("base actor should have no permission bits set")
	}
	battle := base.BattleActor()
	if !battle.AllowBattle {
		t.Fatalf("battleActor must allow battle")
	}
	if battle.ArmyValue != base.ArmyValue || battle.ChainMask != base.ChainMask {
		t.Fatalf("variants must share army/mask, differing only in permissions")
	}

	castAndResource := battle.CastActor().ResourceActor()
	if !castAndResource.AllowBattle || !castAndResource.AllowSpellCast || !castAndResource.AllowUseResources {
		t.Fatalf("expected all three permission bits set, got %+v", castAndResource)
	}
}

// S3: chain exchange — two heroes with disjoint masks and enough
// reinforcement gain can merge into a composite actor.
func TestS3ChainExchange(t *testing.T) {
	arena := NewArena()
	a := arena.NewHeroActor(makeHero(1, 100, 1000), 1<<0, coordinate.LayerLand)
	b := arena.NewHeroActor(makeHero(2, 1900, 1000), 1<<1, coordinate.LayerLand)

	ex := NewExchanger(arena)
	if !ex.CanExchange(a, b) {
		t.Fatalf("expected a and b to be exchangeable")
	}

	merged := ex.Exchange(a, b)
	if merged.ChainMask != (a.ChainMask | b.ChainMask) {
		t.Fatalf("expected chain mask union, got %b", merged.ChainMask)
	}
	if merged.ActorExchangeCount != a.ActorExchangeCount+b.ActorExchangeCount {
		t.Fatalf("expected exchange count to add, got %d", merged.ActorExchangeCount)
	}

	// Memoized: same unordered pair returns the identical actor.
	again := ex.Exchange(b, a)
	if again != merged {
		t.Fatalf("expected memoized exchange to return the same actor regardless of argument order")
	}
}

func TestCanExchangeRejectsOverlappingMasks(t *testing.T) {
	arena := NewArena()
	a := arena.NewHeroActor(makeHero(1, 100, 1000), 1<<0, coordinate.LayerLand)
	b := arena.NewHeroActor(makeHero(2, 900, 1000), 1<<0, coordinate.LayerLand) // same origin bit

	ex := NewExchanger(arena)
	if ex.CanExchange(a, b) {
		t.Fatalf("actors sharing an originating bit must not be exchangeable")
	}
}

func TestCanExchangeRejectsWeakReinforcement(t *testing.T) {
	arena := NewArena()
	a := arena.NewHeroActor(makeHero(1, 100000, 1000), 1<<0, coordinate.LayerLand)
	b := arena.NewHeroActor(makeHero(2, 1, 1000), 1<<1, coordinate.LayerLand)

	ex := NewExchanger(arena)
	if ex.CanExchange(a, b) {
		t.Fatalf("tiny reinforcement should not clear the max(armyValue/10, 1000) threshold")
	}
}
