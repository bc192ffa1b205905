package generator

import (
	"reflect"
	"testing"

	"github.com/verte-zerg/typedrill/internal/model"
)

func TestSequentialCycles(t *testing.T) {
	g := NewSeeded(1)
	got := g.Build([]string{"a", "b", "c"}, 7, model.ModeSequential)
	want := []string{"a", "b", "c", "a", "b", "c", "a"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	again := g.Build([]string{"a", "b", "c"}, 7, model.ModeSequential)
	if !reflect.DeepEqual(got, again) {
		t.Fatalf("sequential build is not repeatable: %v vs %v", got, again)
	}
}

func TestBuildLength(t *testing.T) {
	g := NewSeeded(42)
	words := []string{"alpha", "beta"}
	for _, mode := range []model.Mode{model.ModeSequential, model.ModeRandom} {
		for _, n := range []int{1, 2, 3, 250} {
			if got := g.Build(words, n, mode); len(got) != n {
				t.Fatalf("mode %s count %d: got length %d", mode, n, len(got))
			}
		}
	}
}

func TestRandomDrawsFromWords(t *testing.T) {
	g := NewSeeded(7)
	words := []string{"x", "y", "z"}
	allowed := map[string]bool{"x": true, "y": true, "z": true}
	seen := map[string]int{}
	for _, w := range g.Build(words, 300, model.ModeRandom) {
		if !allowed[w] {
			t.Fatalf("unexpected word %q", w)
		}
		seen[w]++
	}
	if len(seen) != 3 {
		t.Fatalf("expected every word to appear in 300 draws, got %v", seen)
	}
}

func TestRandomVariesPerCall(t *testing.T) {
	g := NewSeeded(3)
	words := []string{"a", "b", "c", "d", "e", "f"}
	first := g.Build(words, 50, model.ModeRandom)
	second := g.Build(words, 50, model.ModeRandom)
	if reflect.DeepEqual(first, second) {
		t.Fatalf("expected random streams to differ between calls")
	}
}

func TestBuildEmpty(t *testing.T) {
	g := NewSeeded(1)
	if got := g.Build(nil, 10, model.ModeRandom); len(got) != 0 {
		t.Fatalf("expected empty stream, got %v", got)
	}
	if got := g.Build([]string{"a"}, 0, model.ModeSequential); len(got) != 0 {
		t.Fatalf("expected empty stream for zero count, got %v", got)
	}
}
