package queue

import "testing"

func TestDueBeforeOrdering(t *testing.T) {
	q := New()
	q.Enqueue(&Event{FireTime: 100, Name: "late"})
	q.Enqueue(&Event{FireTime: 50, Name: "early"})
	q.Enqueue(&Event{FireTime: 50, Name: "early-too"})

	due := q.DueBefore(50)
	if len(due) != 2 {
		t.Fatalf("DueBefore(50) returned %d events, want 2", len(due))
	}
	if due[0].Name != "early" || due[1].Name != "early-too" {
		t.Errorf("tie at the same fire time should break by enqueue order, got %q then %q", due[0].Name, due[1].Name)
	}
	if q.Len() != 1 {
		t.Errorf("Len() = %d, want 1 (the late event still pending)", q.Len())
	}
}

func TestKillAndInTimequeue(t *testing.T) {
	q := New()
	pid := q.Enqueue(&Event{FireTime: 1000})
	if !q.InTimequeue(pid) {
		t.Fatal("freshly enqueued event should be in the timequeue")
	}
	if !q.Kill(pid) {
		t.Fatal("Kill should succeed on a pending pid")
	}
	if q.InTimequeue(pid) {
		t.Error("killed event should no longer be in the timequeue")
	}
	if q.Kill(pid) {
		t.Error("Kill on an already-killed pid should report false")
	}
}

func TestNextFireTime(t *testing.T) {
	q := New()
	if _, ok := q.NextFireTime(); ok {
		t.Error("empty queue should report no next fire time")
	}
	q.Enqueue(&Event{FireTime: 500})
	q.Enqueue(&Event{FireTime: 200})
	ft, ok := q.NextFireTime()
	if !ok || ft != 200 {
		t.Errorf("NextFireTime() = %d, %v, want 200, true", ft, ok)
	}
}

func TestDelayThenKill(t *testing.T) {
	// End-to-end scenario 6: enqueue a delayed ping, kill it before it fires.
	q := New()
	pid := q.Enqueue(&Event{FireTime: 30, Kind: MPIDelay, Name: "ping"})
	if !q.Kill(pid) {
		t.Fatal("Kill should succeed before the event fires")
	}
	due := q.DueBefore(30)
	if len(due) != 0 {
		t.Errorf("DueBefore after Kill should return nothing, got %d", len(due))
	}
}
