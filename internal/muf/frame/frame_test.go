package frame

import (
	"testing"

	"github.com/fuzzball-muck/muckd/internal/dbref"
	"github.com/fuzzball-muck/muckd/internal/muf/value"
)

func newTestFrame() *Frame {
	return New(10, value.DbrefV(1), value.DbrefV(2), value.DbrefV(dbref.NOTHING), value.StringV("look"))
}

func TestPushPopBalance(t *testing.T) {
	f := newTestFrame()
	if err := f.Push(value.IntV(1)); err != nil {
		t.Fatalf("Push: %v", err)
	}
	if err := f.Push(value.IntV(2)); err != nil {
		t.Fatalf("Push: %v", err)
	}
	v, err := f.Pop()
	if err != nil || v.I != 2 {
		t.Fatalf("Pop() = %v, %v, want 2, nil", v, err)
	}
	if f.Depth() != 1 {
		t.Errorf("Depth() = %d, want 1", f.Depth())
	}
}

func TestPopUnderflow(t *testing.T) {
	f := newTestFrame()
	if _, err := f.Pop(); err != ErrStackUnderflow {
		t.Errorf("Pop() on empty stack = %v, want ErrStackUnderflow", err)
	}
}

func TestForLoopAcrossBreak(t *testing.T) {
	// Mirrors end-to-end scenario 3: 0 10 1 for dup 5 = if break then popn 1 repeat
	f := newTestFrame()
	if err := f.PushFor(0, 10, 1); err != nil {
		t.Fatalf("PushFor: %v", err)
	}
	var seen []int
	for {
		top, err := f.TopFor()
		if err != nil {
			t.Fatalf("TopFor: %v", err)
		}
		seen = append(seen, top.Cur)
		if top.Cur == 5 {
			break
		}
		top.Cur += top.Step
		if top.Cur > top.End {
			break
		}
	}
	if err := f.PopFor(); err != nil {
		t.Fatalf("PopFor: %v", err)
	}
	want := []int{0, 1, 2, 3, 4, 5}
	if len(seen) != len(want) {
		t.Fatalf("seen = %v, want %v", seen, want)
	}
	for i := range want {
		if seen[i] != want[i] {
			t.Errorf("seen[%d] = %d, want %d", i, seen[i], want[i])
		}
	}
	if len(f.Fors) != 0 {
		t.Errorf("for-stack should be empty after PopFor, got %d", len(f.Fors))
	}
}

func TestTryRecoverRestoresDepth(t *testing.T) {
	f := newTestFrame()
	f.Push(value.IntV(1))
	f.PushTry(42)
	f.Push(value.IntV(2))
	f.Push(value.IntV(3))

	pc, ok := f.Recover()
	if !ok || pc != 42 {
		t.Fatalf("Recover() = %d, %v, want 42, true", pc, ok)
	}
	if f.Depth() != 1 {
		t.Errorf("Depth() after Recover = %d, want 1 (restored to pre-TRY depth)", f.Depth())
	}
}

func TestForegroundAfterBackgroundForbidden(t *testing.T) {
	f := newTestFrame()
	if err := f.SetMode(Background); err != nil {
		t.Fatalf("SetMode(Background): %v", err)
	}
	if err := f.SetMode(Foreground); err != ErrForegroundAfterBackground {
		t.Errorf("SetMode(Foreground) after Background = %v, want ErrForegroundAfterBackground", err)
	}
}

func TestScopePushPop(t *testing.T) {
	f := newTestFrame()
	if len(f.Scopes) != 1 {
		t.Fatalf("new frame should start with one scope, got %d", len(f.Scopes))
	}
	f.PushScope()
	f.CurrentScope().Vars[0] = value.IntV(7)
	if err := f.PopScope(); err != nil {
		t.Fatalf("PopScope: %v", err)
	}
	if f.CurrentScope().Vars[0].I == 7 {
		t.Error("popping a scope should discard its local vector")
	}
}

func TestPopScopeUnderflow(t *testing.T) {
	f := newTestFrame()
	if err := f.PopScope(); err != ErrScopeUnderflow {
		t.Errorf("PopScope on the root scope = %v, want ErrScopeUnderflow", err)
	}
}
