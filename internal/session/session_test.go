package session

import (
	"context"
	"testing"
	"time"

	"github.com/msalah0e/depviz/internal/graph"
	"github.com/msalah0e/depviz/internal/interaction"
	"github.com/msalah0e/depviz/internal/layout"
	"github.com/msalah0e/depviz/internal/render"
	"github.com/msalah0e/depviz/internal/scheduler"
)

func testOptions(kind layout.Kind) Options {
	force := layout.DefaultForceOptions()
	force.Seed = 1
	return Options{
		Layout: kind,
		Layouts: layout.Options{
			Canvas:       layout.Canvas{Width: 1050, Height: 500, Padding: 50},
			Force:        force,
			Hierarchical: layout.DefaultHierarchicalOptions(),
		},
		Render: render.DefaultOptions(),
	}
}

func testGraph() *graph.Graph {
	return graph.New(
		[]graph.Node{
			{ID: "a", Name: "A", RiskRating: graph.RiskHigh, Department: "Ops"},
			{ID: "b", Name: "B", RiskRating: graph.RiskLow, Department: "Ops"},
			{ID: "c", Name: "C", RiskRating: graph.RiskMedium, Department: "Risk"},
		},
		[]graph.Edge{{Source: "a", Target: "b"}, {Source: "a", Target: "c"}},
	)
}

func newSession(t *testing.T, kind layout.Kind) *Session {
	t.Helper()
	s, err := New(testOptions(kind))
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	return s
}

func settle(t *testing.T, s *Session) int {
	t.Helper()
	n, err := s.Settle(context.Background(), 5000)
	if err != nil {
		t.Fatalf("Settle failed: %v", err)
	}
	return n
}

func TestForceLoopRunsUntilStable(t *testing.T) {
	s := newSession(t, layout.KindForce)
	rec := &render.Recorder{}
	s.Attach(rec)
	s.SetGraph(testGraph())

	frames := settle(t, s)
	if frames < 2 {
		t.Errorf("expected several frames, got %d", frames)
	}
	if !s.Engine().Stable() {
		t.Error("layout should be stable once the loop goes idle")
	}
	if frames >= 500 {
		t.Errorf("took %d frames to settle", frames)
	}
	if len(rec.Filter(render.OpClear)) != frames {
		t.Errorf("expected one draw per frame, got %d draws for %d frames", len(rec.Filter(render.OpClear)), frames)
	}
}

func TestDrawUsesPostStepPositions(t *testing.T) {
	s := newSession(t, layout.KindForce)
	rec := &render.Recorder{}
	s.Attach(rec)
	s.SetGraph(testGraph())
	rec.Reset()

	if _, err := s.Settle(context.Background(), 1); err != nil {
		t.Fatal(err)
	}
	circles := rec.Filter(render.OpCircle)
	if len(circles) != 3 {
		t.Fatalf("expected 3 circles, got %d", len(circles))
	}
	for i, n := range s.View().Nodes {
		p := s.Positions()[n.ID]
		if circles[i].Args[0] != p.X || circles[i].Args[1] != p.Y {
			t.Errorf("node %s drawn at (%v, %v) but is at (%v, %v)", n.ID, circles[i].Args[0], circles[i].Args[1], p.X, p.Y)
		}
	}
}

func TestHierarchicalDrawsOnDemand(t *testing.T) {
	s := newSession(t, layout.KindHierarchical)
	s.SetGraph(testGraph())

	if n := settle(t, s); n != 1 {
		t.Errorf("static layout should draw a single frame, got %d", n)
	}

	s.ZoomIn()
	if n := settle(t, s); n != 1 {
		t.Errorf("input should trigger exactly one frame, got %d", n)
	}
}

func TestSetGraphKeepsStateOfPersistingNodes(t *testing.T) {
	s := newSession(t, layout.KindForce)
	s.SetGraph(testGraph())
	settle(t, s)
	if err := s.Select("a"); err != nil {
		t.Fatal(err)
	}
	s.ZoomIn()
	before, _ := s.Positions().Get("a")

	next := graph.New(
		[]graph.Node{{ID: "a", Name: "A"}, {ID: "d", Name: "D"}},
		[]graph.Edge{{Source: "a", Target: "d"}},
	)
	s.SetGraph(next)

	after, _ := s.Positions().Get("a")
	if after.X != before.X || after.Y != before.Y {
		t.Errorf("a moved across rebuild: %+v -> %+v", before, after)
	}
	if _, ok := s.Positions()["b"]; ok {
		t.Error("b should be discarded")
	}
	if s.Selection().SelectedNodeID != "a" || s.Viewport().Scale == 1 {
		t.Error("selection and viewport should survive a rebuild")
	}
	if s.Engine().Stable() {
		t.Error("rebuild should restart relaxation")
	}
}

func TestFilterNarrowsViewOnly(t *testing.T) {
	s := newSession(t, layout.KindForce)
	s.SetGraph(testGraph())
	settle(t, s)
	hidden, _ := s.Positions().Get("c")

	f, err := graph.NewFilter([]string{"high", "low"}, nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	s.SetFilter(f)
	settle(t, s)

	if s.View().Has("c") || s.View().Len() != 2 {
		t.Errorf("unexpected view %v", s.View().IDs())
	}
	if s.Graph().Len() != 3 {
		t.Error("filter must not mutate the graph")
	}
	if got, _ := s.Positions().Get("c"); got.X != hidden.X || got.Y != hidden.Y {
		t.Error("hidden node position should be untouched")
	}

	s.SetFilter(graph.Filter{})
	if s.View() != s.Graph() {
		t.Error("clearing the filter should show the whole graph")
	}
}

func TestDragThroughSession(t *testing.T) {
	clock := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	opts := testOptions(layout.KindForce)
	opts.Interaction.Now = func() time.Time { return clock }
	s, err := New(opts)
	if err != nil {
		t.Fatal(err)
	}
	s.SetGraph(testGraph())
	settle(t, s)

	p, _ := s.Positions().Get("b")
	sx, sy := s.Viewport().WorldToScreen(p.X, p.Y)
	s.PointerDown(sx, sy)
	s.PointerMove(sx+40, sy+40)
	if s.Gesture() != interaction.Dragging {
		t.Fatalf("expected dragging, got %s", s.Gesture())
	}
	clock = clock.Add(300 * time.Millisecond)
	s.PointerUp(sx+40, sy+40)

	if s.Engine().Stable() {
		t.Error("drag should invalidate the layout")
	}
	if s.Selection().SelectedNodeID != "" {
		t.Error("drag must not select")
	}
	settle(t, s)
}

func TestClickThroughSession(t *testing.T) {
	s := newSession(t, layout.KindHierarchical)
	s.SetGraph(testGraph())
	settle(t, s)

	p, _ := s.Positions().Get("c")
	s.PointerDown(p.X, p.Y)
	s.PointerUp(p.X, p.Y)
	if s.Selection().SelectedNodeID != "c" {
		t.Errorf("expected c selected, got %q", s.Selection().SelectedNodeID)
	}
	if n := settle(t, s); n != 1 {
		t.Errorf("click should redraw once, got %d frames", n)
	}
}

func TestSetLayoutSeedsFromCurrentPositions(t *testing.T) {
	s := newSession(t, layout.KindHierarchical)
	s.SetGraph(testGraph())
	settle(t, s)
	before := s.Positions().Clone()

	if err := s.SetLayout(layout.KindForce); err != nil {
		t.Fatal(err)
	}
	if s.Engine().Kind() != layout.KindForce {
		t.Fatalf("engine is %s", s.Engine().Kind())
	}
	for id, p := range before {
		got, _ := s.Positions().Get(id)
		if got.X != p.X || got.Y != p.Y {
			t.Errorf("%s not seeded from previous layout", id)
		}
	}
	if err := s.SetLayout("radial"); err == nil {
		t.Error("expected error for unknown layout")
	}
}

func TestSelectRejectsHiddenNode(t *testing.T) {
	s := newSession(t, layout.KindForce)
	s.SetGraph(testGraph())
	if err := s.Select("zzz"); err == nil {
		t.Error("expected error selecting an unknown node")
	}
	if err := s.Select(""); err != nil {
		t.Errorf("clearing selection failed: %v", err)
	}
}

func TestFitShowsAllNodes(t *testing.T) {
	s := newSession(t, layout.KindHierarchical)
	s.SetGraph(testGraph())
	s.Fit(40)

	for id, p := range s.Positions() {
		sx, sy := s.Viewport().WorldToScreen(p.X, p.Y)
		if sx < 0 || sx > 1050 || sy < 0 || sy > 500 {
			t.Errorf("%s off screen at (%.1f, %.1f)", id, sx, sy)
		}
	}
}

func TestStopCancelsLoop(t *testing.T) {
	s := newSession(t, layout.KindForce)
	s.SetGraph(testGraph())
	s.Stop()

	if n := settle(t, s); n != 0 {
		t.Errorf("no frames should run after Stop, got %d", n)
	}
	s.ZoomIn()
	if n := settle(t, s); n != 0 {
		t.Errorf("requests after Stop should be ignored, got %d", n)
	}
}

type manual struct{ cb scheduler.Callback }

func (m *manual) RequestFrame(cb scheduler.Callback) { m.cb = cb }
func (m *manual) Cancel()                            { m.cb = nil }

func TestCustomScheduler(t *testing.T) {
	m := &manual{}
	opts := testOptions(layout.KindForce)
	opts.Scheduler = m
	s, err := New(opts)
	if err != nil {
		t.Fatal(err)
	}
	s.SetGraph(testGraph())
	if m.cb == nil {
		t.Fatal("loading a graph should request a frame")
	}
	if _, err := s.Settle(context.Background(), 1); err != ErrNotPumpable {
		t.Errorf("expected ErrNotPumpable, got %v", err)
	}
	s.Stop()
	if m.cb != nil {
		t.Error("Stop should cancel the pending frame")
	}
}
