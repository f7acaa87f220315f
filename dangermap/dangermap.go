// Package dangermap implements DangerHitMap: for each tile, the maximum
// enemy-hero reach strength within a single turn.
package dangermap

import (
	"github.com/nullkiller/aicore/coordinate"
	"github.com/nullkiller/aicore/mapmodel"
)

// ReachEstimator estimates how far an enemy hero can move in one turn and
// with what fighting strength; supplied by the pathfinder so danger and
// path computation share the same movement model.
type ReachEstimator interface {
	// OneTurnReach returns every tile the hero could reach within a single
	// turn, alongside the fighting strength they'd arrive with.
	OneTurnReach(h mapmodel.Hero) map[coordinate.Coord]int64
}

// HitMap is the rebuilt-every-turn cache of per-tile enemy threat.
type HitMap struct {
	maxDanger map[coordinate.Coord]int64
	byHero    map[int]map[coordinate.Coord]int64
}

// New builds an empty hit map; call Update to populate it.
func New() *HitMap {
	return &HitMap{
		maxDanger: make(map[coordinate.Coord]int64),
		byHero:    make(map[int]map[coordinate.Coord]int64),
	}
}

// Update rebuilds the hit map from scratch (spec §4.3: "Rebuilt from
// scratch each updateHitMap()") from every hero hostile to actingPlayer.
func (m *HitMap) Update(enemyHeroes []mapmodel.Hero, estimator ReachEstimator) {
	m.maxDanger = make(map[coordinate.Coord]int64)
	m.byHero = make(map[int]map[coordinate.Coord]int64)

	for _, h := range enemyHeroes {
		reach := estimator.OneTurnReach(h)
		m.byHero[h.ID] = reach
		for coord, strength := range reach {
			if strength > m.maxDanger[coord] {
				m.maxDanger[coord] = strength
			}
		}
	}
}

// DangerAt returns the maximum enemy-hero reach strength at coord, or 0 if
// no enemy hero can reach it within a turn.
func (m *HitMap) DangerAt(coord coordinate.Coord) int64 {
	if m == nil {
		return 0
	}
	return m.maxDanger[coord]
}

// GetOneTurnAccessibleObjects returns every coordinate a specific enemy
// hero could reach this turn, used by the strategical-value reward
// function (spec §6: "half of max strategic value of one-turn-accessible
// objects").
func (m *HitMap) GetOneTurnAccessibleObjects(enemyHeroID int) map[coordinate.Coord]int64 {
	if m == nil {
		return nil
	}
	return m.byHero[enemyHeroID]
}
