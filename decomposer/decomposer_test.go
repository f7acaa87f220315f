package decomposer

import (
	"context"
	"testing"

	"github.com/nullkiller/aicore/goal"
)

func elementary(heroID, objectID int) *goal.Goal {
	return (&goal.Goal{Kind: goal.KindVisitObject}).WithHero(heroID).WithTargetObject(objectID)
}

func TestDecomposeFlattensComposite(t *testing.T) {
	root := &goal.Goal{
		Kind: goal.KindComposite,
		SubGoals: []*goal.Goal{
			elementary(1, 10),
			elementary(1, 11),
		},
	}

	got, err := Decompose(context.Background(), root, 4)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 elementary goals, got %d", len(got))
	}
}

func TestDecomposeDropsDuplicates(t *testing.T) {
	root := &goal.Goal{
		Kind: goal.KindComposite,
		SubGoals: []*goal.Goal{
			elementary(1, 10),
			elementary(1, 10),
		},
	}

	got, err := Decompose(context.Background(), root, 4)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("expected duplicates collapsed to 1 goal, got %d", len(got))
	}
}

func TestDecomposeDropsCycles(t *testing.T) {
	a := &goal.Goal{Kind: goal.KindComposite, HeroID: 1, HasHero: true}
	b := &goal.Goal{Kind: goal.KindComposite, HeroID: 2, HasHero: true}
	a.SubGoals = []*goal.Goal{b, elementary(1, 10)}
	b.SubGoals = []*goal.Goal{a, elementary(2, 20)}

	got, err := Decompose(context.Background(), a, 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected the cycle edge dropped and both elementary leaves kept, got %d: %v", len(got), got)
	}
}

func TestDecomposeStopsAtMaxDepth(t *testing.T) {
	deep := elementary(1, 99)
	mid := &goal.Goal{Kind: goal.KindComposite, SubGoals: []*goal.Goal{deep}}
	root := &goal.Goal{Kind: goal.KindComposite, SubGoals: []*goal.Goal{mid}}

	got, err := Decompose(context.Background(), root, 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("expected the depth-1 limit to drop the still-composite branch, got %d", len(got))
	}
}

func TestDecomposeReturnsEmptyForInvalidRoot(t *testing.T) {
	got, err := Decompose(context.Background(), goal.Invalid(), 4)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("expected no goals from an invalid root, got %d", len(got))
	}
}

func TestDecomposeHonorsInterruption(t *testing.T) {
	root := &goal.Goal{
		Kind: goal.KindComposite,
		SubGoals: []*goal.Goal{
			elementary(1, 10),
			elementary(1, 11),
		},
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Decompose(ctx, root, 4)
	if err == nil {
		t.Fatalf("expected an interruption error from an already-cancelled context")
	}
}
