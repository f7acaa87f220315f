// Package gameapi defines the boundary between the decision core and the
// (out of scope) game engine: the consumed callback surface the core reads
// world state through, and the produced executor surface the core issues
// actions against (spec §6).
//
// Grounded on the teacher's own external-collaborator boundary,
// message/clientmessage.go + client/client.go: an interface (client.Client)
// the bot talks to without knowing the concrete transport underneath.
// GameEngine plays the same role here for a game engine instead of a
// network client.
package gameapi

import (
	"github.com/nullkiller/aicore/army"
	"github.com/nullkiller/aicore/buildanalyzer"
	"github.com/nullkiller/aicore/coordinate"
	"github.com/nullkiller/aicore/goal"
	"github.com/nullkiller/aicore/mapmodel"
	"github.com/nullkiller/aicore/pathfinder"
)

// Date is the game calendar's day/day-of-week pair (spec §6 "date (day,
// day-of-week)").
type Date struct {
	Day       int
	DayOfWeek int
}

// GameEngine is the consumed collaborator: every read the core needs about
// map, heroes, towns, objects, and calendar state. It embeds
// pathfinder.WorldView so a single implementation satisfies both the
// search and the rest of the core.
type GameEngine interface {
	pathfinder.WorldView

	MapSize() (width, height, levels int)
	FogOfWar(team int, tile coordinate.Coord) bool

	OwnedHeroes(player mapmodel.PlayerID) []mapmodel.Hero
	OwnedTowns(player mapmodel.PlayerID) []mapmodel.Town
	AllObjects() []mapmodel.Object
	AllPlayers() []mapmodel.PlayerID

	PlayerRelation(a, b mapmodel.PlayerID) Relation

	HeroSpellLevel(heroID int, spell mapmodel.SpellID) mapmodel.SpellSchoolLevel
	HeroSkillValue(heroID int, skill mapmodel.SkillID) int

	CurrentDate() Date
	GoldAvailable(player mapmodel.PlayerID) int

	// OneTurnReach estimates where h could move and with what fighting
	// strength within a single turn, feeding dangermap.HitMap.Update.
	OneTurnReach(h mapmodel.Hero) map[coordinate.Coord]int64

	// BuildingCandidates lists townID's next-build options, feeding
	// buildanalyzer.Analyzer.Analyze; cost/benefit estimation is the
	// engine's job since only it knows the building tree and town state.
	BuildingCandidates(townID int) []buildanalyzer.BuildingCandidate
}

// Relation classifies how two players regard each other, used for danger
// and enemy-hero reward scoring.
type Relation int

const (
	RelationEnemy Relation = iota
	RelationAlly
	RelationSame
)

// Executor is the produced collaborator: the action calls a Task issues
// against the live game (spec §6). It is exactly goal.Executor; the alias
// exists so callers can depend on gameapi without also importing goal.
type Executor = goal.Executor

// ArmyConverter adapts the engine's raw creature counts into the army
// package's CreatureSet, since the engine is the only source of AIValue/
// GoldCost/level static data.
type ArmyConverter interface {
	CreatureInfo(id army.CreatureID) army.CreatureInfo
}
