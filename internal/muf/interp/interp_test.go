package interp

import (
	"testing"

	"github.com/fuzzball-muck/muckd/internal/conn"
	"github.com/fuzzball-muck/muckd/internal/dbref"
	"github.com/fuzzball-muck/muckd/internal/ignore"
	"github.com/fuzzball-muck/muckd/internal/muf/frame"
	"github.com/fuzzball-muck/muckd/internal/muf/value"
	"github.com/fuzzball-muck/muckd/internal/notify"
	"github.com/fuzzball-muck/muckd/internal/object"
	"github.com/fuzzball-muck/muckd/internal/queue"
	"github.com/fuzzball-muck/muckd/internal/tune"
)

type testWorld struct {
	arena *object.Arena
	conns *conn.Manager
	ign   *ignore.Checker
	q     *queue.Queue
	tp    *tune.Params
}

func newTestWorld() *testWorld {
	a := object.New()
	isWizard := func(d dbref.Dbref) bool {
		o := a.Get(d)
		return o != nil && o.HasFlag(object.FlagWizard)
	}
	isQuelled := func(dbref.Dbref) bool { return false }
	return &testWorld{
		arena: a,
		conns: conn.NewManager(),
		ign:   ignore.NewChecker(isWizard, isQuelled),
		q:     queue.New(),
		tp:    tune.Default(),
	}
}

func (w *testWorld) Arena() *object.Arena                         { return w.arena }
func (w *testWorld) Conns() *conn.Manager                         { return w.conns }
func (w *testWorld) Ignores() *ignore.Checker                     { return w.ign }
func (w *testWorld) AnsiPolicyFor(dbref.Dbref) notify.AnsiPolicy  { return notify.AnsiPassthrough }
func (w *testWorld) Queue() *queue.Queue                          { return w.q }
func (w *testWorld) Tune() *tune.Params                           { return w.tp }

// compile turns a flat instruction list into a single-program arena entry
// and returns its dbref, the minimal harness hand-assembled test programs
// need since this package owns no compiler.
func compileProgram(w *testWorld, instrs []Instr) dbref.Dbref {
	o := w.arena.Create("test-prog", object.TypeProgram, dbref.NOTHING, dbref.NOTHING)
	o.Program.Code = &Program{Instrs: instrs}
	o.Program.Compiled = true
	return o.Ref
}

func TestRunAddsTwoIntegers(t *testing.T) {
	w := newTestWorld()
	prog := compileProgram(w, []Instr{
		{Op: OpPush, Arg: value.IntV(2)},
		{Op: OpPush, Arg: value.IntV(3)},
		{Op: "+"},
		{Op: OpReturn},
	})
	f := frame.New(prog, value.DbrefV(0), value.DbrefV(dbref.NOTHING), value.DbrefV(dbref.NOTHING), value.StringV(""))
	f.Quota = 100

	it := New(w)
	it.Run(f)

	if f.State != frame.Done {
		t.Fatalf("frame state = %v, want Done", f.State)
	}
	top, err := f.Pop()
	if err != nil || top.Kind != value.Int || top.I != 5 {
		t.Fatalf("top = %+v, err = %v, want int 5", top, err)
	}
}

func TestDivByZeroSetsFlagInsteadOfAborting(t *testing.T) {
	w := newTestWorld()
	prog := compileProgram(w, []Instr{
		{Op: OpPush, Arg: value.IntV(7)},
		{Op: OpPush, Arg: value.IntV(0)},
		{Op: "/"},
		{Op: OpReturn},
	})
	f := frame.New(prog, value.DbrefV(0), value.DbrefV(dbref.NOTHING), value.DbrefV(dbref.NOTHING), value.StringV(""))
	f.Quota = 100

	New(w).Run(f)

	if f.Errors&frame.FlagDivZero == 0 {
		t.Error("expected FlagDivZero set")
	}
	top, _ := f.Pop()
	if top.Kind != value.Int || top.I != 0 {
		t.Errorf("top = %+v, want int 0", top)
	}
}

func TestForLoopSumsRange(t *testing.T) {
	w := newTestWorld()
	// sum = 0 for i = 1 to 3: sum += i
	prog := compileProgram(w, []Instr{
		{Op: OpPush, Arg: value.IntV(0)},        // 0: sum
		{Op: OpPush, Arg: value.IntV(1)},        // 1: start
		{Op: OpPush, Arg: value.IntV(3)},        // 2: end
		{Op: OpPush, Arg: value.IntV(1)},        // 3: step
		{Op: OpFor},                             // 4: consumes start end step (note: opFor expects step,end,start order popped)
		{Op: OpForIter, Arg: value.IntV(9)},      // 5: branch to 9 when exhausted
		{Op: "+"},                               // 6: sum += i
		{Op: OpJmp, Arg: value.IntV(5)},          // 7: loop
		{Op: OpForPop},                           // 8 (unreached directly, see branch target)
		{Op: OpForPop},                           // 9: branch target pops for-node (index 9)
		{Op: OpReturn},                           // 10
	})
	f := frame.New(prog, value.DbrefV(0), value.DbrefV(dbref.NOTHING), value.DbrefV(dbref.NOTHING), value.StringV(""))
	f.Quota = 1000

	New(w).Run(f)

	top, err := f.Pop()
	if err != nil || top.Kind != value.Int || top.I != 6 {
		t.Fatalf("top = %+v, err = %v, want int 6 (1+2+3)", top, err)
	}
}

func TestTryCatchesRecoverableAbort(t *testing.T) {
	w := newTestWorld()
	prog := compileProgram(w, []Instr{
		{Op: OpTry, Arg: value.IntV(3)}, // 0: catch at pc 3
		{Op: "POP"},                     // 1: pops an empty stack -> recoverable abort
		{Op: OpTryPop},                  // 2 (unreached)
		{Op: OpPush, Arg: value.IntV(42)}, // 3: catch handler
		{Op: OpReturn},                   // 4
	})
	f := frame.New(prog, value.DbrefV(0), value.DbrefV(dbref.NOTHING), value.DbrefV(dbref.NOTHING), value.StringV(""))
	f.Quota = 100

	New(w).Run(f)

	if f.State != frame.Done {
		t.Fatalf("frame state = %v, want Done", f.State)
	}
	top, err := f.Pop()
	if err != nil || top.Kind != value.Int || top.I != 42 {
		t.Fatalf("top = %+v, err = %v, want int 42 from catch handler", top, err)
	}
}

func TestCallAndReturnAcrossPrograms(t *testing.T) {
	w := newTestWorld()
	callee := compileProgram(w, []Instr{
		{Op: OpPush, Arg: value.IntV(99)},
		{Op: OpReturn},
	})
	caller := compileProgram(w, []Instr{
		{Op: OpExecute, Arg: value.AddrV(value.Addr{Program: callee, PC: 0})},
		{Op: OpReturn},
	})
	f := frame.New(caller, value.DbrefV(0), value.DbrefV(dbref.NOTHING), value.DbrefV(dbref.NOTHING), value.StringV(""))
	f.Quota = 100

	New(w).Run(f)

	top, err := f.Pop()
	if err != nil || top.Kind != value.Int || top.I != 99 {
		t.Fatalf("top = %+v, err = %v, want int 99", top, err)
	}
	if calleeObj := w.arena.Get(callee); calleeObj.Program.Instances != 0 {
		t.Errorf("callee Instances = %d, want 0 after return", calleeObj.Program.Instances)
	}
}
