package gameapi

import (
	"github.com/nullkiller/aicore/actors"
	"github.com/nullkiller/aicore/army"
	"github.com/nullkiller/aicore/behavior"
	"github.com/nullkiller/aicore/buildanalyzer"
	"github.com/nullkiller/aicore/cluster"
	"github.com/nullkiller/aicore/coordinate"
	"github.com/nullkiller/aicore/dangermap"
	"github.com/nullkiller/aicore/hero"
	"github.com/nullkiller/aicore/mapmodel"
	"github.com/nullkiller/aicore/nullkiller"
	"github.com/nullkiller/aicore/pathfinder"
)

// StateBuilder is the concrete nullkiller.StateBuilder: it drives a
// GameEngine through one full world-state refresh (spec §4.6, §4.7, §4.9),
// the host process's only job once it has a real engine to plug in.
//
// Grounded on the same boundary idea as client/client.go's Client feeding
// bot/routebrain.go a RouteCtx snapshot once per loop iteration; here the
// snapshot is behavior.WorldState and the source is GameEngine.
type StateBuilder struct {
	engine    GameEngine
	converter ArmyConverter
	player    mapmodel.PlayerID
	options   pathfinder.Options
}

// NewStateBuilder builds a StateBuilder for player, searching with the
// given base pathfinder options (spec §6's ScoutTurnDistance/
// MainTurnDistance/HeroChainMaxTurns, before scan widening).
func NewStateBuilder(engine GameEngine, converter ArmyConverter, player mapmodel.PlayerID, options pathfinder.Options) *StateBuilder {
	return &StateBuilder{engine: engine, converter: converter, player: player, options: options}
}

// Build implements nullkiller.StateBuilder.
func (b *StateBuilder) Build(scanDepth nullkiller.ScanDepth) *behavior.WorldState {
	heroes := b.resolveHeroArmies(b.engine.OwnedHeroes(b.player))
	towns := b.resolveTownGarrisons(b.engine.OwnedTowns(b.player))
	objects := b.engine.AllObjects()
	enemies := b.enemyHeroes()

	state := &behavior.WorldState{
		ActingPlayer:  b.player,
		Day:           b.engine.CurrentDate().Day,
		GoldAvailable: b.engine.GoldAvailable(b.player),
		Heroes:        heroes,
		EnemyHeroes:   enemies,
		Towns:         towns,
		Objects:       objects,
		Clusters:      cluster.Clusterize(objects),
		BuildPlans:    b.buildPlans(towns),
		HitMap:        b.hitMap(enemies),
		Nodes:         b.searchNodes(heroes, scanDepth),
		Roles:         hero.NewManager(heroes),
		TotalArmy:     b.totalArmyCache(heroes, towns),
		LockedHeroes:  map[int]behavior.LockReason{},
	}
	return state
}

// resolveHeroArmies fills in full CreatureInfo for every hero's army stack,
// since the engine only needs to report a creature ID and count per stack.
func (b *StateBuilder) resolveHeroArmies(heroes []mapmodel.Hero) []mapmodel.Hero {
	for i := range heroes {
		heroes[i].Army = b.resolveCreatureSet(heroes[i].Army)
	}
	return heroes
}

func (b *StateBuilder) resolveTownGarrisons(towns []mapmodel.Town) []mapmodel.Town {
	for i := range towns {
		towns[i].Garrison = b.resolveCreatureSet(towns[i].Garrison)
	}
	return towns
}

// resolveCreatureSet re-resolves every slot's CreatureInfo through the
// converter, leaving an already-fully-populated slot (AIValue already set)
// untouched so a StateBuilder without a converter still works against test
// doubles that build CreatureSets directly.
func (b *StateBuilder) resolveCreatureSet(cs army.CreatureSet) army.CreatureSet {
	if b.converter == nil {
		return cs
	}
	for i, slot := range cs.Slots {
		if slot.Creature.AIValue != 0 {
			continue
		}
		cs.Slots[i].Creature = b.converter.CreatureInfo(slot.Creature.ID)
	}
	return cs
}

func (b *StateBuilder) buildPlans(towns []mapmodel.Town) []buildanalyzer.TownPlan {
	candidates := make(map[int][]buildanalyzer.BuildingCandidate, len(towns))
	for _, t := range towns {
		candidates[t.ID] = b.engine.BuildingCandidates(t.ID)
	}
	return buildanalyzer.New().Analyze(towns, candidates)
}

func (b *StateBuilder) hitMap(enemies []mapmodel.Hero) *dangermap.HitMap {
	m := dangermap.New()
	m.Update(enemies, reachAdapter{b.engine})
	return m
}

// enemyHeroes collects every hero belonging to a player the acting player
// relates to as RelationEnemy, the danger map's threat source.
func (b *StateBuilder) enemyHeroes() []mapmodel.Hero {
	var enemies []mapmodel.Hero
	for _, p := range b.engine.AllPlayers() {
		if p == b.player {
			continue
		}
		if b.engine.PlayerRelation(b.player, p) != RelationEnemy {
			continue
		}
		enemies = append(enemies, b.engine.OwnedHeroes(p)...)
	}
	return enemies
}

func (b *StateBuilder) totalArmyCache(heroes []mapmodel.Hero, towns []mapmodel.Town) *army.TotalArmyCache {
	armies := make([]army.CreatureSet, 0, len(heroes)+len(towns))
	for _, h := range heroes {
		armies = append(armies, h.Army)
	}
	for _, t := range towns {
		armies = append(armies, t.Garrison)
	}
	return army.NewTotalArmyCache(armies...)
}

// searchNodes builds one ChainActor per owned hero per layer it can move
// on, then runs the full chain search (spec §4.6), widening the turn-
// distance limits by scanDepth the same way Options.ScanDepth does.
func (b *StateBuilder) searchNodes(heroes []mapmodel.Hero, scanDepth nullkiller.ScanDepth) []*pathfinder.AIPathNode {
	options := b.options
	options.ScanDepth = int(scanDepth)

	storage := pathfinder.New(options)
	arena := storage.Arena()

	var initial []*actors.ChainActor
	for i, h := range heroes {
		bit := uint64(1) << uint(i%63)
		for _, layer := range coordinate.AllLayers {
			if max, ok := h.MaxMovementPerLayer[layer]; !ok || max <= 0 {
				continue
			}
			initial = append(initial, arena.NewHeroActor(h, bit, layer))
		}
	}

	return storage.Search(initial, b.engine)
}

// reachAdapter satisfies dangermap.ReachEstimator off the engine's
// OneTurnReach read.
type reachAdapter struct{ engine GameEngine }

func (r reachAdapter) OneTurnReach(h mapmodel.Hero) map[coordinate.Coord]int64 {
	return r.engine.OneTurnReach(h)
}
