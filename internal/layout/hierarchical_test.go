package layout

import (
	"errors"
	"math"
	"testing"
)

func testHierarchical() *Hierarchical {
	return NewHierarchical(testCanvas(), DefaultHierarchicalOptions())
}

func TestHierarchicalSymmetricChildren(t *testing.T) {
	h := testHierarchical()
	h.Load(mkGraph([]string{"A", "B", "C"}, [][2]string{{"A", "B"}, {"A", "C"}}), nil)

	for id, want := range map[string]int{"A": 0, "B": 1, "C": 1} {
		if got, _ := h.Level(id); got != want {
			t.Errorf("level[%s] = %d, want %d", id, got, want)
		}
	}

	pos := h.Positions()
	a, b, c := pos["A"], pos["B"], pos["C"]
	if math.Abs((a.X-b.X)-(c.X-a.X)) > 1e-9 {
		t.Errorf("B and C not symmetric around A: A=%.1f B=%.1f C=%.1f", a.X, b.X, c.X)
	}
	if a.X != testCanvas().Width/2 {
		t.Errorf("single-node row should be centered, got x=%.1f", a.X)
	}
	if b.Y != c.Y || b.Y <= a.Y {
		t.Errorf("children should share a lower row: A.y=%.1f B.y=%.1f C.y=%.1f", a.Y, b.Y, c.Y)
	}
}

func TestHierarchicalRowGeometry(t *testing.T) {
	opts := DefaultHierarchicalOptions()
	h := NewHierarchical(testCanvas(), opts)
	h.Load(mkGraph([]string{"r", "x"}, [][2]string{{"r", "x"}}), nil)

	if y := h.Positions()["r"].Y; y != opts.TopMargin {
		t.Errorf("root row y = %.1f, want %.1f", y, opts.TopMargin)
	}
	want := opts.NodeHeight + opts.VerticalSpacing + opts.TopMargin
	if y := h.Positions()["x"].Y; y != want {
		t.Errorf("level 1 y = %.1f, want %.1f", y, want)
	}
}

func TestLevelsTakeShortestPath(t *testing.T) {
	// a -> b -> c -> d and a shortcut a -> d.
	g := mkGraph([]string{"a", "b", "c", "d"}, [][2]string{{"a", "b"}, {"b", "c"}, {"c", "d"}, {"a", "d"}})

	levels := Levels(g)
	if levels["d"] != 1 {
		t.Errorf("expected d at level 1 via shortcut, got %d", levels["d"])
	}
	for _, e := range g.Edges {
		if levels[e.Target] > levels[e.Source]+1 {
			t.Errorf("edge %s->%s violates min-level: %d -> %d", e.Source, e.Target, levels[e.Source], levels[e.Target])
		}
	}
}

func TestLevelsCyclicFallsBackToFirstNode(t *testing.T) {
	g := mkGraph([]string{"x", "y", "z"}, [][2]string{{"x", "y"}, {"y", "z"}, {"z", "x"}})

	levels := Levels(g)
	if levels["x"] != 0 || levels["y"] != 1 || levels["z"] != 2 {
		t.Errorf("unexpected levels for cycle: %v", levels)
	}
}

func TestLevelsCoversDetachedCycles(t *testing.T) {
	// r is a root; p <-> q is a cycle unreachable from it.
	g := mkGraph([]string{"r", "s", "p", "q"}, [][2]string{{"r", "s"}, {"p", "q"}, {"q", "p"}})

	levels := Levels(g)
	if len(levels) != 4 {
		t.Fatalf("expected every node to get a level, got %v", levels)
	}
	if levels["p"] != 0 || levels["q"] != 1 {
		t.Errorf("unexpected levels for detached cycle: %v", levels)
	}
}

func TestHierarchicalEmptyGraph(t *testing.T) {
	h := testHierarchical()
	h.Load(mkGraph(nil, nil), nil)
	if len(h.Positions()) != 0 {
		t.Error("empty graph should have no positions")
	}
	if !h.Stable() || h.Step() != 0 {
		t.Error("hierarchical layout is always stable")
	}
}

func TestHierarchicalResizeRecenters(t *testing.T) {
	h := testHierarchical()
	h.Load(mkGraph([]string{"a"}, nil), nil)
	h.Resize(400, 300)

	if x := h.Positions()["a"].X; x != 200 {
		t.Errorf("expected a re-centered at 200, got %.1f", x)
	}
}

func TestHierarchicalPinnedSurvivesRecompute(t *testing.T) {
	h := testHierarchical()
	h.Load(mkGraph([]string{"a", "b"}, [][2]string{{"a", "b"}}), nil)

	h.Pin("b")
	h.Positions()["b"].X = 17
	h.Resize(800, 500)
	if x := h.Positions()["b"].X; x != 17 {
		t.Errorf("pinned node was repositioned to %.1f", x)
	}

	h.Unpin("b")
	h.Resize(800, 500)
	if x := h.Positions()["b"].X; x != 400 {
		t.Errorf("unpinned node should be re-laid out at 400, got %.1f", x)
	}
}

func TestParseKind(t *testing.T) {
	for in, want := range map[string]Kind{"": KindForce, "force": KindForce, "Hierarchical": KindHierarchical, "tree": KindHierarchical} {
		got, err := ParseKind(in)
		if err != nil || got != want {
			t.Errorf("ParseKind(%q) = %q, %v; want %q", in, got, err, want)
		}
	}
	if _, err := ParseKind("radial"); !errors.Is(err, ErrUnknownKind) {
		t.Errorf("expected ErrUnknownKind, got %v", err)
	}
}

func TestNewEngine(t *testing.T) {
	opts := Options{Canvas: testCanvas(), Force: DefaultForceOptions(), Hierarchical: DefaultHierarchicalOptions()}
	for _, k := range []Kind{KindForce, KindHierarchical} {
		e, err := New(k, opts)
		if err != nil {
			t.Fatalf("New(%q) failed: %v", k, err)
		}
		if e.Kind() != k {
			t.Errorf("New(%q) returned %q engine", k, e.Kind())
		}
	}
	if _, err := New("radial", opts); err == nil {
		t.Error("expected error for unknown kind")
	}
}
