// Package decomposer implements the bounded recursive Behavior→Goal
// expansion (spec §4.9): given a root composite goal and a depth limit,
// repeatedly expands composite goals into their sub-goals until only
// elementary goals remain, dropping duplicates and cycles along the way.
//
// Grounded on spec §4.9 and on Nullkiller.cpp's choseBestTask(behavior,
// maxDepth) / decomposer->decompose pairing: decomposer.Decompose plays
// the same "expand behavior, return elementary goals" role, generalized to
// work over the goal package's tagged-sum Goal rather than a C++ Goals
// namespace of TSubgoal subclasses.
package decomposer

import (
	"context"

	"github.com/nullkiller/aicore/goal"
)

type goalKey struct {
	kind       goal.Kind
	heroID     int
	hasHero    bool
	objectID   int
	hasObject  bool
	tile       [3]int
	hasTile    bool
}

func keyOf(g *goal.Goal) goalKey {
	k := goalKey{kind: g.Kind, heroID: g.HeroID, hasHero: g.HasHero, objectID: g.TargetObjectID, hasObject: g.HasTargetObject}
	if g.HasTargetTile {
		k.hasTile = true
		k.tile = [3]int{g.TargetTile.X, g.TargetTile.Y, g.TargetTile.Z}
	}
	return k
}

// Decompose expands root (normally a behavior's top-level composite goal)
// into a flat list of elementary goals, polling ctx for cooperative
// interruption at every expansion step (spec §5: "inside the decomposer's
// expansion loop must poll a cooperative interruption signal").
//
// Duplicates (by goalKey) are dropped the first time they're seen again;
// a goal already on the current ancestor chain (a cycle) is dropped
// without descending into it. Hitting maxDepth with composite goals still
// unexpanded is not an error: those branches are simply dropped from the
// result, same as the original's silent truncation.
func Decompose(ctx context.Context, root *goal.Goal, maxDepth int) ([]*goal.Goal, error) {
	if root == nil || root.IsEmpty() {
		return nil, nil
	}

	var elementary []*goal.Goal
	seen := make(map[goalKey]bool)

	var walk func(g *goal.Goal, depth int, ancestors map[goalKey]bool) error
	walk = func(g *goal.Goal, depth int, ancestors map[goalKey]bool) error {
		if err := ctx.Err(); err != nil {
			return err
		}

		if !g.IsComposite() {
			k := keyOf(g)
			if seen[k] {
				return nil
			}
			seen[k] = true
			elementary = append(elementary, g)
			return nil
		}

		if depth >= maxDepth {
			return nil
		}

		for _, sub := range g.SubGoals {
			if sub == nil || sub.IsEmpty() {
				continue
			}
			k := keyOf(sub)
			if ancestors[k] {
				continue // cycle
			}
			nextAncestors := make(map[goalKey]bool, len(ancestors)+1)
			for a := range ancestors {
				nextAncestors[a] = true
			}
			nextAncestors[k] = true

			if err := walk(sub, depth+1, nextAncestors); err != nil {
				return err
			}
		}
		return nil
	}

	if err := walk(root, 0, map[goalKey]bool{keyOf(root): true}); err != nil {
		return elementary, err
	}
	return elementary, nil
}
