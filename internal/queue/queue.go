// Package queue implements the time/event queue (spec 4.G): a priority
// queue of delayed MUF events, MPI delays, listener triggers, and
// read-blocked-process wakeups keyed by fire time, plus the per-
// descriptor command-quota refresh algorithm (Quota.UpdateQuotas). The
// dispatch tick in internal/dispatch drains due events but does not call
// UpdateQuotas.
//
// The queue itself is a textbook container/heap.Interface use — nothing
// in the retrieved example pack offers a priority-queue library, and
// container/heap is the idiomatic Go answer (documented in SPEC_FULL.md's
// DOMAIN STACK section).
package queue

import (
	"container/heap"

	"github.com/fuzzball-muck/muckd/internal/dbref"
)

// Kind tags what an Event represents.
type Kind int

const (
	MufRead Kind = iota
	MufTimer
	MPIDelay
	Listen
	Trigger
)

// Event is one time-queue entry (spec 3 "Time/event entry").
type Event struct {
	FireTime int64 // unix seconds
	Kind     Kind
	Program  dbref.Dbref
	Trigger  dbref.Dbref
	Player   dbref.Dbref
	PID      int
	Name     string
	Payload  any

	enqueueOrder int64 // tiebreak: fire_time, then enqueue order
	index        int   // heap.Interface bookkeeping
}

// pq is the container/heap.Interface implementation backing Queue.
type pq []*Event

func (q pq) Len() int { return len(q) }
func (q pq) Less(i, j int) bool {
	if q[i].FireTime != q[j].FireTime {
		return q[i].FireTime < q[j].FireTime
	}
	return q[i].enqueueOrder < q[j].enqueueOrder
}
func (q pq) Swap(i, j int) {
	q[i], q[j] = q[j], q[i]
	q[i].index, q[j].index = i, j
}
func (q *pq) Push(x any) {
	e := x.(*Event)
	e.index = len(*q)
	*q = append(*q, e)
}
func (q *pq) Pop() any {
	old := *q
	n := len(old)
	e := old[n-1]
	old[n-1] = nil
	*q = old[:n-1]
	return e
}

// Queue is the scheduler's time/event priority queue.
type Queue struct {
	heap    pq
	byPID   map[int]*Event
	nextPID int
	order   int64
}

// New returns an empty queue.
func New() *Queue {
	return &Queue{byPID: map[int]*Event{}}
}

// Enqueue schedules e to fire at e.FireTime and assigns it a pid,
// returning that pid for later Kill/InTimequeue lookups.
func (q *Queue) Enqueue(e *Event) int {
	q.nextPID++
	e.PID = q.nextPID
	q.order++
	e.enqueueOrder = q.order
	heap.Push(&q.heap, e)
	q.byPID[e.PID] = e
	return e.PID
}

// DueBefore pops and returns every event with FireTime <= now, in
// (fire_time, enqueue_order) order, matching spec 4.G step 1.
func (q *Queue) DueBefore(now int64) []*Event {
	var due []*Event
	for q.heap.Len() > 0 && q.heap[0].FireTime <= now {
		e := heap.Pop(&q.heap).(*Event)
		delete(q.byPID, e.PID)
		due = append(due, e)
	}
	return due
}

// NextFireTime returns the earliest pending fire time and whether the
// queue is non-empty, bounding the dispatch loop's pselect timeout.
func (q *Queue) NextFireTime() (int64, bool) {
	if q.heap.Len() == 0 {
		return 0, false
	}
	return q.heap[0].FireTime, true
}

// Kill removes the event named by pid, matching "kill pid" (spec 4.G
// Cancellation). Returns false if pid is not currently queued.
func (q *Queue) Kill(pid int) bool {
	e, ok := q.byPID[pid]
	if !ok {
		return false
	}
	heap.Remove(&q.heap, e.index)
	delete(q.byPID, pid)
	return true
}

// InTimequeue reports whether pid is still pending, matching
// in_timequeue(pid).
func (q *Queue) InTimequeue(pid int) bool {
	_, ok := q.byPID[pid]
	return ok
}

// Len returns the number of pending events.
func (q *Queue) Len() int { return q.heap.Len() }
