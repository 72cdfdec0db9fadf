package session

import (
	"sync"
	"testing"
	"time"
)

func TestSurfaceLifecycle(t *testing.T) {
	s := New(nil)
	if _, ok := s.Surface("c1"); ok {
		t.Fatal("surface should not exist yet")
	}

	sf := s.AddSurface("c1", 400, 300)
	sf.AttachIfAbsent(func() any { return "engine" })

	again := s.AddSurface("c1", 500, 300)
	if again != sf {
		t.Fatal("AddSurface must reuse an existing surface")
	}
	if again.Size().Width != 500 || again.Attached() != "engine" {
		t.Fatalf("unexpected surface state: %+v %v", again.Size(), again.Attached())
	}
	if !s.RemoveSurface("c1") || s.RemoveSurface("c1") {
		t.Fatal("RemoveSurface should succeed once")
	}
}

func TestAttachIfAbsentCreateMayReadSurface(t *testing.T) {
	sf := New(nil).AddSurface("c1", 640, 360)

	done := make(chan any)
	go func() {
		done <- sf.AttachIfAbsent(func() any { return sf.Size() })
	}()
	select {
	case got := <-done:
		if got != (Size{Width: 640, Height: 360}) {
			t.Fatalf("attached = %v", got)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("AttachIfAbsent blocked while create read the surface")
	}
}

func TestAttachIfAbsentKeepsFirstInstance(t *testing.T) {
	sf := New(nil).AddSurface("c1", 400, 300)

	var wg sync.WaitGroup
	results := make([]any, 8)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = sf.AttachIfAbsent(func() any { return new(int) })
		}(i)
	}
	wg.Wait()

	for _, r := range results {
		if r != sf.Attached() {
			t.Fatal("all callers must get the attached instance")
		}
	}
}

func TestEnsureRegionAndStylesAreNotDuplicated(t *testing.T) {
	s := New(nil)
	r1, created := s.EnsureRegion("notification-container")
	if !created {
		t.Fatal("first EnsureRegion should create")
	}
	r2, created := s.EnsureRegion("notification-container")
	if created || r1 != r2 {
		t.Fatal("second EnsureRegion must reuse")
	}
	if s.RegionCount() != 1 {
		t.Fatalf("RegionCount = %d", s.RegionCount())
	}

	if !s.InjectStyle("x", "a{}") || s.InjectStyle("x", "b{}") {
		t.Fatal("InjectStyle must inject once per id")
	}
	if st := s.Styles(); len(st) != 1 || st[0].CSS != "a{}" {
		t.Fatalf("Styles = %+v", st)
	}
}

func TestRegionOrdering(t *testing.T) {
	r := &Region{id: "r"}
	r.Append(Element{ID: "a"})
	r.Append(Element{ID: "b"})
	r.Append(Element{ID: "c"})
	if !r.Remove("b") || r.Remove("b") {
		t.Fatal("Remove should succeed once")
	}
	kids := r.Children()
	if len(kids) != 2 || kids[0].ID != "a" || kids[1].ID != "c" {
		t.Fatalf("Children = %+v", kids)
	}
}

func TestResizeListeners(t *testing.T) {
	s := New(nil)
	var order []int
	var got Size
	id1 := s.AddResizeListener(func(sz Size) { order = append(order, 1); got = sz })
	s.AddResizeListener(func(Size) {
		order = append(order, 2)
		// Posluchač smí volat zpět do session bez deadlocku.
		_ = s.ListenerCount()
	})

	s.ResizeWindow(800, 600)
	if len(order) != 2 || order[0] != 1 || order[1] != 2 {
		t.Fatalf("listener order = %v", order)
	}
	if got != (Size{800, 600}) || s.Window() != got {
		t.Fatalf("size = %+v", got)
	}

	if !s.RemoveResizeListener(id1) || s.RemoveResizeListener(id1) {
		t.Fatal("RemoveResizeListener should succeed once")
	}
	order = nil
	s.ResizeWindow(100, 100)
	if len(order) != 1 || order[0] != 2 {
		t.Fatalf("after removal order = %v", order)
	}
}

func TestSessionsAreIndependent(t *testing.T) {
	a, b := New(nil), New(nil)
	a.AddSurface("c1", 1, 1)
	a.EnsureRegion("r")
	if _, ok := b.Surface("c1"); ok {
		t.Fatal("surface leaked between sessions")
	}
	if b.RegionCount() != 0 {
		t.Fatal("region leaked between sessions")
	}
}
