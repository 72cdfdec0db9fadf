package notify

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"telemetry-dashboard/internal/session"
	"telemetry-dashboard/internal/viewstate"
)

func quietSession() *session.Session {
	return session.New(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestShowAutoDismissesAfterTTL(t *testing.T) {
	q := NewQueue(quietSession())

	h := q.Show("disk almost full", SeverityWarning, 50*time.Millisecond)
	if h.State() != StateVisible || q.Len() != 1 {
		t.Fatalf("entry should be visible, state=%v len=%d", h.State(), q.Len())
	}
	region, _ := q.sess.Region(RegionID)
	if region.Len() != 1 {
		t.Fatalf("region should hold the entry")
	}

	time.Sleep(150 * time.Millisecond)

	if h.State() != StateDismissed || q.Len() != 0 || region.Len() != 0 {
		t.Fatalf("entry should be gone, state=%v len=%d region=%d", h.State(), q.Len(), region.Len())
	}
	// Opakované zavření je no-op.
	h.Dismiss()
	h.Dismiss()
}

func TestManualDismissIsIdempotentAndIsolated(t *testing.T) {
	q := NewQueue(quietSession())
	a := q.Show("a", SeverityInfo, 0)
	b := q.Show("b", SeverityError, 0)
	c := q.Show("c", SeveritySuccess, time.Hour)

	b.Dismiss()
	b.Dismiss()

	entries := q.Entries()
	if len(entries) != 2 || entries[0].ID != a.ID() || entries[1].ID != c.ID() {
		t.Fatalf("entries = %+v", entries)
	}

	c.Dismiss()
	if c.timer != nil {
		t.Fatal("manual dismiss must cancel the auto-dismiss timer")
	}
	if q.Len() != 1 {
		t.Fatalf("len = %d", q.Len())
	}
}

func TestZeroAndNegativeTTLPersist(t *testing.T) {
	q := NewQueue(quietSession())
	q.Show("zero", SeverityInfo, 0)
	q.Show("negative", SeverityInfo, -time.Second)
	time.Sleep(30 * time.Millisecond)
	if q.Len() != 2 {
		t.Fatalf("len = %d, want 2", q.Len())
	}
}

func TestDismissOrderFollowsTimerExpiry(t *testing.T) {
	q := NewQueue(quietSession())
	q.Show("long", SeverityInfo, 200*time.Millisecond)
	q.Show("short", SeverityInfo, 30*time.Millisecond)

	time.Sleep(100 * time.Millisecond)
	entries := q.Entries()
	if len(entries) != 1 || entries[0].Message != "long" {
		t.Fatalf("entries = %+v", entries)
	}
}

func TestSeverityStyling(t *testing.T) {
	q := NewQueue(quietSession())

	cases := []struct {
		sev       Severity
		wantSev   Severity
		wantTitle string
	}{
		{SeveritySuccess, SeveritySuccess, "Success"},
		{SeverityError, SeverityError, "Error"},
		{SeverityWarning, SeverityWarning, "Warning"},
		{SeverityInfo, SeverityInfo, "Info"},
		{"critical", SeverityInfo, GenericTitle},
	}
	for _, tc := range cases {
		e := q.Show("m", tc.sev, 0).Entry()
		if e.Severity != tc.wantSev || e.Title != tc.wantTitle || e.Accent == "" {
			t.Errorf("Show(%q) = %+v", tc.sev, e)
		}
	}
	if q.Len() != len(cases) {
		t.Fatalf("unknown severity must still create an entry")
	}
}

func TestConvenienceWrappers(t *testing.T) {
	q := NewQueue(quietSession(), WithDefaultTTL(time.Minute))
	if e := q.Success("ok", 0).Entry(); e.Severity != SeveritySuccess || e.TTL != time.Minute {
		t.Errorf("Success = %+v", e)
	}
	if e := q.Error("bad", 10*time.Second).Entry(); e.Severity != SeverityError || e.TTL != 10*time.Second {
		t.Errorf("Error = %+v", e)
	}
	if e := q.Info("fyi", -1).Entry(); e.Severity != SeverityInfo || e.TTL != -1 {
		t.Errorf("Info = %+v", e)
	}
	if e := q.Warning("hmm", 0).Entry(); e.Severity != SeverityWarning {
		t.Errorf("Warning = %+v", e)
	}
	q.Close()
	if q.Len() != 0 {
		t.Fatal("Close should dismiss everything")
	}
}

func TestSecondQueueReusesRegionAndStyle(t *testing.T) {
	sess := quietSession()
	q1 := NewQueue(sess)
	q2 := NewQueue(sess)

	if sess.RegionCount() != 1 || len(sess.Styles()) != 1 {
		t.Fatalf("regions=%d styles=%d", sess.RegionCount(), len(sess.Styles()))
	}
	if q1.region != q2.region {
		t.Fatal("queues on one session must share the region")
	}
}

func TestKeyedAlertRemembersManualDismissal(t *testing.T) {
	ctx := context.Background()
	store := viewstate.New(viewstate.NewMemoryBackend())
	sess := quietSession()
	q := NewQueue(sess, WithStore(store))

	h, shown := q.ShowKeyed("backend-down", "backend unreachable", SeverityError, 0)
	if !shown {
		t.Fatal("first keyed alert should be shown")
	}
	if again, shown := q.ShowKeyed("backend-down", "still down", SeverityError, 0); shown || again != h {
		t.Fatal("visible keyed alert must not be duplicated")
	}

	h.Dismiss()
	if got := viewstate.Get[[]string](ctx, store, viewstate.DismissedKey, nil); len(got) != 1 || got[0] != "backend-down" {
		t.Fatalf("dismissed keys = %v", got)
	}

	// Nová fronta (reload stránky) nad stejným úložištěm.
	q2 := NewQueue(quietSession(), WithStore(store))
	if h, shown := q2.ShowKeyed("backend-down", "x", SeverityError, 0); shown || h != nil {
		t.Fatal("alert dismissed by hand must stay suppressed after reload")
	}

	q2.Forget("backend-down")
	if _, shown := q2.ShowKeyed("backend-down", "x", SeverityError, 0); !shown {
		t.Fatal("Forget should re-enable the alert")
	}
}

func TestDismissKeyDoesNotRemember(t *testing.T) {
	store := viewstate.New(viewstate.NewMemoryBackend())
	q := NewQueue(quietSession(), WithStore(store))

	q.ShowKeyed("mqtt", "connection lost", SeverityError, 0)
	if !q.DismissKey("mqtt") || q.DismissKey("mqtt") {
		t.Fatal("DismissKey should succeed once")
	}
	if _, shown := q.ShowKeyed("mqtt", "connection lost", SeverityError, 0); !shown {
		t.Fatal("programmatic dismissal must not suppress the key")
	}
}

func TestConcurrentShowKeyedCreatesOneEntry(t *testing.T) {
	store := viewstate.New(viewstate.NewMemoryBackend())
	store.Set(context.Background(), viewstate.DismissedKey, []string{"old"})
	q := NewQueue(quietSession(), WithStore(store))

	var wg sync.WaitGroup
	var mu sync.Mutex
	created, suppressed := 0, 0
	for i := 0; i < 16; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			if _, shown := q.ShowKeyed("mqtt", "connection lost", SeverityWarning, -1); shown {
				mu.Lock()
				created++
				mu.Unlock()
			}
		}()
		go func() {
			defer wg.Done()
			if h, shown := q.ShowKeyed("old", "dismissed earlier", SeverityError, -1); !shown && h == nil {
				mu.Lock()
				suppressed++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if created != 1 || q.Len() != 1 {
		t.Fatalf("created = %d, len = %d; want one entry", created, q.Len())
	}
	if suppressed != 16 {
		t.Fatalf("stored dismissal ignored by %d callers", 16-suppressed)
	}
}

func TestManualDismissKeepsEarlierStoredKeys(t *testing.T) {
	ctx := context.Background()
	store := viewstate.New(viewstate.NewMemoryBackend())
	store.Set(ctx, viewstate.DismissedKey, []string{"backend-down"})

	q := NewQueue(quietSession(), WithStore(store))
	h := q.show("mqtt", "connection lost", SeverityWarning, 0)
	h.Dismiss()

	got := viewstate.Get[[]string](ctx, store, viewstate.DismissedKey, nil)
	if len(got) != 2 || got[0] != "backend-down" || got[1] != "mqtt" {
		t.Fatalf("dismissed keys = %v", got)
	}
}
