package model

import (
	"testing"
	"time"
)

type fakeTime struct {
	t time.Time
}

func (f *fakeTime) now() time.Time { return f.t }

func (f *fakeTime) advance(d time.Duration) { f.t = f.t.Add(d) }

func TestClockAccumulates(t *testing.T) {
	ft := &fakeTime{t: time.Unix(1000, 0)}
	c := NewClock(ft.now)

	ft.advance(time.Second)
	if c.Used() != 0 {
		t.Fatalf("stopped clock counted %s", c.Used())
	}

	c.Start()
	ft.advance(3 * time.Second)
	if got := c.Used(); got != 3*time.Second {
		t.Errorf("running clock = %s, want 3s", got)
	}
	c.Stop()
	ft.advance(5 * time.Second)
	c.Start()
	c.Start()
	ft.advance(2 * time.Second)
	c.Stop()

	if got := c.Client().UsedMs; got != 5000 {
		t.Errorf("used = %dms, want 5000", got)
	}
}

func TestQueuePairsInOrder(t *testing.T) {
	q := NewQueue()
	for _, id := range []string{"a", "b", "c"} {
		if err := q.AddPlayer(Player{ID: id}); err != nil {
			t.Fatal(err)
		}
	}
	if err := q.AddPlayer(Player{ID: "a"}); err != ErrAlreadyQueued {
		t.Errorf("duplicate add: %v", err)
	}

	p1, p2, ok := q.NextPair()
	if !ok || p1.ID != "a" || p2.ID != "b" {
		t.Fatalf("pair = %s %s %v", p1.ID, p2.ID, ok)
	}
	if _, _, ok := q.NextPair(); ok {
		t.Errorf("paired a single player")
	}
	if !q.RemovePlayer("c") || q.Size() != 0 {
		t.Errorf("remove failed, size %d", q.Size())
	}
}
