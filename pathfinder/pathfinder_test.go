package pathfinder

import (
	"testing"

	"github.com/nullkiller/aicore/actors"
	"github.com/nullkiller/aicore/army"
	"github.com/nullkiller/aicore/coordinate"
	"github.com/nullkiller/aicore/mapmodel"
)

type fakeWorld struct {
	guards     map[coordinate.Coord]army.CreatureSet
	towns      []mapmodel.Town
	roles      map[int]mapmodel.HeroRole
	blockVis   map[coordinate.Coord]bool
	objects    map[coordinate.Coord]mapmodel.Object
	teleporter map[coordinate.Coord][]coordinate.Coord
}

func newFakeWorld() *fakeWorld {
	return &fakeWorld{
		guards:     map[coordinate.Coord]army.CreatureSet{},
		roles:      map[int]mapmodel.HeroRole{},
		blockVis:   map[coordinate.Coord]bool{},
		objects:    map[coordinate.Coord]mapmodel.Object{},
		teleporter: map[coordinate.Coord][]coordinate.Coord{},
	}
}

func (w *fakeWorld) TileLayerEnabled(tile coordinate.Coord, layer coordinate.Layer) bool {
	return layer == coordinate.LayerLand
}
func (w *fakeWorld) IsRock(tile coordinate.Coord) bool { return false }
func (w *fakeWorld) ObjectAt(tile coordinate.Coord) (mapmodel.Object, bool) {
	o, ok := w.objects[tile]
	return o, ok
}
func (w *fakeWorld) GuardsAt(tile coordinate.Coord) army.CreatureSet { return w.guards[tile] }
func (w *fakeWorld) IsBlockVis(tile coordinate.Coord) bool           { return w.blockVis[tile] }
func (w *fakeWorld) TeleporterExitsAt(tile coordinate.Coord) []coordinate.Coord {
	return w.teleporter[tile]
}
func (w *fakeWorld) QuestSatisfied(obj mapmodel.Object, owner mapmodel.PlayerID) bool { return true }
func (w *fakeWorld) FriendlyTowns(owner mapmodel.PlayerID) []mapmodel.Town            { return w.towns }
func (w *fakeWorld) RoleOf(heroID int) mapmodel.HeroRole {
	if r, ok := w.roles[heroID]; ok {
		return r
	}
	return mapmodel.RoleMain
}

func testOptions() Options {
	return Options{
		ScoutTurnDistanceLimit: 5,
		MainTurnDistanceLimit:  3,
		ScanDepth:              0,
		HeroChainMaxTurns:      3,
	}
}

func heroWithArmy(id, power, movement int) mapmodel.Hero {
	return mapmodel.Hero{
		ID:                  id,
		Position:            coordinate.Coord{X: 5, Y: 5},
		MovementPointsLeft:  movement,
		MaxMovementPerLayer: map[coordinate.Layer]int{coordinate.LayerLand: movement},
		Army: army.CreatureSet{Slots: []army.CreatureSlot{
			{Creature: army.CreatureInfo{ID: 1, AIValue: power}, Count: 1},
		}},
	}
}

func TestInitialPassReachesAdjacentTile(t *testing.T) {
	world := newFakeWorld()
	ns := New(testOptions())
	hero := heroWithArmy(1, 1000, 1000)
	actor := ns.Arena().NewHeroActor(hero, 1<<0, coordinate.LayerLand)

	ns.SearchInitial([]*actors.ChainActor{actor}, world)

	found := false
	for _, n := range ns.All() {
		if n.Tile == (coordinate.Coord{X: 6, Y: 6}) && n.Action == NodeActionNormal {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected a normal node at an adjacent tile")
	}
}

// S5: destination guarded, bypass only if army-loss(guard) < current army,
// else blocked.
func TestS5GuardedStepBypassesWeakGuard(t *testing.T) {
	world := newFakeWorld()
	target := coordinate.Coord{X: 6, Y: 6}
	world.guards[target] = army.CreatureSet{Slots: []army.CreatureSlot{
		{Creature: army.CreatureInfo{ID: 2, AIValue: 10}, Count: 1},
	}}

	ns := New(testOptions())
	hero := heroWithArmy(1, 100000, 1000)
	actor := ns.Arena().NewHeroActor(hero, 1<<0, coordinate.LayerLand)
	ns.SearchInitial([]*actors.ChainActor{actor}, world)

	var reached *AIPathNode
	for _, n := range ns.All() {
		if n.Tile == target {
			reached = n
		}
	}
	if reached == nil {
		t.Fatalf("expected to reach the guarded tile via battle")
	}
	if reached.Action != NodeActionBattle {
		t.Fatalf("expected a battle node, got %v", reached.Action)
	}
}

func TestS5GuardedStepBlockedByStrongGuard(t *testing.T) {
	world := newFakeWorld()
	target := coordinate.Coord{X: 6, Y: 6}
	world.guards[target] = army.CreatureSet{Slots: []army.CreatureSlot{
		{Creature: army.CreatureInfo{ID: 2, AIValue: 1000000}, Count: 50},
	}}

	ns := New(testOptions())
	hero := heroWithArmy(1, 10, 1000)
	actor := ns.Arena().NewHeroActor(hero, 1<<0, coordinate.LayerLand)
	ns.SearchInitial([]*actors.ChainActor{actor}, world)

	for _, n := range ns.All() {
		if n.Tile == target {
			t.Fatalf("expected the overwhelming guard to block the step entirely")
		}
	}
}

// S4: expert water magic hero with enough mana/movement, three friendly
// towns with no visiting hero, should see three TELEPORT_NORMAL nodes.
func TestS4TownPortalSynthesizesOneNodePerTown(t *testing.T) {
	world := newFakeWorld()
	world.towns = []mapmodel.Town{
		{ID: 1, Owner: 1, Position: coordinate.Coord{X: 20, Y: 20}},
		{ID: 2, Owner: 1, Position: coordinate.Coord{X: 40, Y: 5}},
		{ID: 3, Owner: 1, Position: coordinate.Coord{X: 0, Y: 0}},
	}

	ns := New(testOptions())
	hero := heroWithArmy(1, 1000, 2*BaseMovementCost+10)
	hero.Owner = 1
	hero.Mana = 50
	hero.MaxMana = 50
	hero.Spells = map[mapmodel.SpellID]bool{mapmodel.TownPortalSpell: true}
	hero.WaterMagicLevel = mapmodel.SpellLevelExpert
	actor := ns.Arena().NewHeroActor(hero, 1<<0, coordinate.LayerLand)

	seeds := ns.SeedInitial([]*actors.ChainActor{actor})
	portalNodes := ns.townPortalNodes(seeds, world)

	if len(portalNodes) != 3 {
		t.Fatalf("expected 3 town-portal nodes, got %d", len(portalNodes))
	}
	for _, n := range portalNodes {
		if n.Action != NodeActionTeleportNormal {
			t.Fatalf("expected TELEPORT_NORMAL action, got %v", n.Action)
		}
	}
}

func TestS4TownPortalSkipsOccupiedTown(t *testing.T) {
	world := newFakeWorld()
	otherHero := 99
	world.towns = []mapmodel.Town{
		{ID: 1, Owner: 1, Position: coordinate.Coord{X: 20, Y: 20}, VisitingHero: &otherHero},
	}

	ns := New(testOptions())
	hero := heroWithArmy(1, 1000, 2*BaseMovementCost+10)
	hero.Owner = 1
	hero.Mana = 50
	hero.Spells = map[mapmodel.SpellID]bool{mapmodel.TownPortalSpell: true}
	hero.WaterMagicLevel = mapmodel.SpellLevelExpert
	actor := ns.Arena().NewHeroActor(hero, 1<<0, coordinate.LayerLand)

	seeds := ns.SeedInitial([]*actors.ChainActor{actor})
	portalNodes := ns.townPortalNodes(seeds, world)

	if len(portalNodes) != 0 {
		t.Fatalf("expected the occupied town to be skipped, got %d nodes", len(portalNodes))
	}
}

func TestHasBetterChainSameFamilyCheaperWins(t *testing.T) {
	arena := actors.NewArena()
	hero := heroWithArmy(1, 100, 100)
	actor := arena.NewHeroActor(hero, 1<<0, coordinate.LayerLand)

	cheap := &AIPathNode{Actor: actor, Cost: 1}
	expensive := &AIPathNode{Actor: actor, Cost: 5}

	if !hasBetterChain(cheap, expensive, phaseInitial) {
		t.Fatalf("cheaper node in the same family should dominate")
	}
	if hasBetterChain(expensive, cheap, phaseInitial) {
		t.Fatalf("more expensive node must not dominate a cheaper one")
	}
}

// S6: with every goal below MIN_PRIORITY, the turn should terminate within
// the first iteration without calling the executor. The pathfinder-level
// analogue: an empty actor set settles nothing and issues no node.
func TestSearchWithNoActorsSettlesNothing(t *testing.T) {
	world := newFakeWorld()
	ns := New(testOptions())
	ns.SearchInitial(nil, world)
	if len(ns.All()) != 0 {
		t.Fatalf("expected no committed nodes with no seed actors")
	}
}
