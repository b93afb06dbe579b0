package interp

import (
	"github.com/fuzzball-muck/muckd/internal/dbref"
	"github.com/fuzzball-muck/muckd/internal/lockexpr"
	"github.com/fuzzball-muck/muckd/internal/muf/frame"
	"github.com/fuzzball-muck/muckd/internal/muf/value"
	"github.com/fuzzball-muck/muckd/internal/object"
)

// lockEvaluator combines the arena's structural lock queries with a real
// MUF call for Eval-kind locks, the evaluator object.Arena.RunLockProgram's
// doc comment points to. It is safe to
// construct fresh per @lock evaluation; it carries no state of its own
// beyond the two references.
type lockEvaluator struct {
	*object.Arena
	it *Interp
}

// NewLockEvaluator returns a lockexpr.Evaluator that actually executes
// Eval-kind ("@lock is this program") locks via it, instead of always
// rejecting them the way the bare arena does.
func NewLockEvaluator(a *object.Arena, it *Interp) lockexpr.Evaluator {
	return &lockEvaluator{Arena: a, it: it}
}

// RunLockProgram overrides object.Arena's stub: it runs prog in Preempt
// mode, with an opcode budget of StackSize*4, against actor as both "me"
// and the command trigger, and treats a truthy top-of-stack as lock
// success, matching the
// original engine's eval_boolexp behavior for @lock/lock-eval.
func (e *lockEvaluator) RunLockProgram(prog, actor dbref.Dbref) bool {
	o := e.Arena.Get(prog)
	if o == nil || o.Type != object.TypeProgram {
		return false
	}
	f := frame.New(prog, value.DbrefV(actor), value.DbrefV(o.Location), value.DbrefV(actor), value.StringV(""))
	f.Quota = frame.StackSize * 4
	e.it.Run(f)
	if f.Depth() == 0 {
		return false
	}
	top, _ := f.Pop()
	defer top.Release()
	return top.Truthy()
}
