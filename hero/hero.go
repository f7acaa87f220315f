// Package hero implements HeroManager: classifying owned heroes as MAIN or
// SCOUT, and scoring secondary-skill candidates for the witch-hut reward
// function in package evaluator.
//
// Grounded on Analyzers/HeroManager.cpp.
package hero

import (
	"sort"

	"github.com/nullkiller/aicore/mapmodel"
)

// Manager classifies heroes and scores skills for a single turn. It holds
// no long-lived state beyond what's needed to answer those two questions,
// mirroring HeroManager's stateless-per-update design.
type Manager struct {
	roles map[int]mapmodel.HeroRole
}

// NewManager classifies every hero in heroes: the one with the highest army
// power is MAIN, and any hero whose power is less than mainShareThreshold
// of the strongest hero's power is a SCOUT. Ties keep the lower hero ID as
// MAIN for determinism.
func NewManager(heroes []mapmodel.Hero) *Manager {
	m := &Manager{roles: make(map[int]mapmodel.HeroRole, len(heroes))}
	if len(heroes) == 0 {
		return m
	}

	sorted := append([]mapmodel.Hero(nil), heroes...)
	sort.SliceStable(sorted, func(i, j int) bool {
		pi, pj := sorted[i].Army.Power(), sorted[j].Army.Power()
		if pi != pj {
			return pi > pj
		}
		return sorted[i].ID < sorted[j].ID
	})

	const mainShareThreshold = 0.5
	strongest := sorted[0].Army.Power()

	for i, h := range sorted {
		if i == 0 {
			m.roles[h.ID] = mapmodel.RoleMain
			continue
		}
		if strongest > 0 && float64(h.Army.Power()) >= mainShareThreshold*float64(strongest) {
			m.roles[h.ID] = mapmodel.RoleMain
		} else {
			m.roles[h.ID] = mapmodel.RoleScout
		}
	}
	return m
}

// RoleOf returns the classified role, defaulting to SCOUT for an unknown
// hero (a hero this Manager never saw can't be trusted with MAIN behaviors).
func (m *Manager) RoleOf(heroID int) mapmodel.HeroRole {
	if r, ok := m.roles[heroID]; ok {
		return r
	}
	return mapmodel.RoleScout
}

// skillValue is a fixed value table for secondary skills, used by the
// witch-hut reward function (spec §6): higher is more desirable to learn.
var skillValue = map[mapmodel.SkillID]int{}

// SetSkillValue lets the game-engine wiring populate the fixed skill-value
// table once at startup (the table itself is game data, not core logic).
func SetSkillValue(id mapmodel.SkillID, value int) {
	skillValue[id] = value
}

// EvaluateSecSkill scores a secondary-skill candidate a hero could learn,
// mirroring ai->evaluateSecSkill: 0 if the hero already has every skill
// slot full and doesn't already know this skill, otherwise the skill's
// fixed table value.
func EvaluateSecSkill(h mapmodel.Hero, candidate mapmodel.SkillID, maxSkillSlots int) int {
	if _, known := h.SecondarySkills[candidate]; known {
		return skillValue[candidate]
	}
	if len(h.SecondarySkills) >= maxSkillSlots {
		return 0
	}
	return skillValue[candidate]
}

// BestArmyPower is a small helper behaviors use to rank heroes without
// reaching into army internals directly.
func BestArmyPower(h mapmodel.Hero) int64 {
	return h.Army.Power()
}
