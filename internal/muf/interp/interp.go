// Package interp implements the MUF interpreter (spec 4.F): a classical
// bytecode stack machine dispatching over *frame.Frame, with call/return
// across programs, lexical/global/persistent variable scopes, FOR/FOREACH
// iteration, TRY/CATCH recovery, and sticky per-frame arithmetic error
// flags.
//
// Grounded on spec 4.F's dispatch/call/iteration/TRY/error-flag
// description; float error-flag semantics (div_zero, nan, imaginary,
// f_bounds, i_bounds) follow original_source/src/p_float.c and
// include/fbmath.h. Selected primitive families are implemented per
// spec's own "one example per family" framing rather than the full
// historical primitive list.
package interp

import (
	"fmt"

	"github.com/fuzzball-muck/muckd/internal/dbref"
	"github.com/fuzzball-muck/muckd/internal/muf/frame"
	"github.com/fuzzball-muck/muckd/internal/muf/value"
	"github.com/fuzzball-muck/muckd/internal/notify"
	"github.com/fuzzball-muck/muckd/internal/object"
	"github.com/fuzzball-muck/muckd/internal/queue"
	"github.com/fuzzball-muck/muckd/internal/tune"
)

// World supplies every service the interpreter's primitives need beyond
// the frame itself. It embeds notify.World so World values can be passed
// directly to the notification fabric's entry points.
type World interface {
	notify.World
	Queue() *queue.Queue
	Tune() *tune.Params
}

// Abort is a primitive's non-nil failure outcome. Recoverable aborts
// (stack underflow, type mismatch, bad array access) may be caught by an
// enclosing TRY; unrecoverable ones (missing/corrupt program, interpreter
// invariant violation) kill the frame outright (spec 4.F "Failure
// semantics").
type Abort struct {
	Err         error
	Recoverable bool
}

func (a *Abort) Error() string { return a.Err.Error() }

func recoverable(format string, args ...any) *Abort {
	return &Abort{Err: fmt.Errorf(format, args...), Recoverable: true}
}

func fatal(format string, args ...any) *Abort {
	return &Abort{Err: fmt.Errorf(format, args...), Recoverable: false}
}

// Interp is the interpreter. It holds no frame state of its own —
// everything mutable lives on the *frame.Frame passed to Step/Run — only
// the world services and the INTERP/FORCE nesting counters spec 5/4.F
// cap.
type Interp struct {
	World World

	interpDepth int
	forceDepth  int
}

// New returns an interpreter bound to w.
func New(w World) *Interp { return &Interp{World: w} }

// MaxInterpDepth bounds INTERP nesting (spec 4.F: "limited to 8 levels").
const MaxInterpDepth = 8

// Run executes f until its quantum is exhausted, it blocks, or it exits,
// matching spec 4.F's dispatch loop and 4.G's per-frame quantum.
func (it *Interp) Run(f *frame.Frame) {
	f.State = frame.Running
	for f.Quota > 0 {
		if f.State != frame.Running {
			return
		}
		if err := it.Step(f); err != nil {
			return
		}
		f.Quota--
	}
	if f.State == frame.Running {
		f.State = frame.Ready
	}
}

// Step executes exactly one opcode of f.
func (it *Interp) Step(f *frame.Frame) error {
	prog, err := it.programFor(f.Program)
	if err != nil {
		it.kill(f, fatal("%v", err))
		return err
	}
	if f.PC < 0 || f.PC >= len(prog.Instrs) {
		it.doReturn(f)
		return nil
	}
	instr := prog.Instrs[f.PC]
	if ab := it.exec(f, instr); ab != nil {
		if ab.Recoverable {
			if pc, ok := f.Recover(); ok {
				f.PC = pc
				return nil
			}
		}
		it.kill(f, ab)
		return ab
	}
	return nil
}

func (it *Interp) kill(f *frame.Frame, ab *Abort) {
	f.State = frame.Killed
	me := f.Sysvars[frame.SysvarMe]
	if me.Kind == value.Dbref {
		notify.Tell(it.World, me.D, fmt.Sprintf("Program exited with error: %s", ab.Err))
	}
	it.decRunning(f.Program)
}

func (it *Interp) programFor(ref dbref.Dbref) (*Program, error) {
	o := it.World.Arena().Get(ref)
	if o == nil || o.Type != object.TypeProgram || o.Program == nil {
		return nil, fmt.Errorf("interp: #%d is not a program", ref)
	}
	p, ok := o.Program.Code.(*Program)
	if !ok || p == nil {
		return nil, fmt.Errorf("interp: program %s has no compiled code", ref)
	}
	return p, nil
}

func (it *Interp) incRunning(ref dbref.Dbref) {
	if o := it.World.Arena().Get(ref); o != nil && o.Program != nil {
		o.Program.Instances++
	}
}

func (it *Interp) decRunning(ref dbref.Dbref) {
	if o := it.World.Arena().Get(ref); o != nil && o.Program != nil && o.Program.Instances > 0 {
		o.Program.Instances--
	}
}

// localVars returns (lazily allocating) the program-persistent LVAR table
// for ref, matching localvars_get.
func (it *Interp) localVars(ref dbref.Dbref) []value.Value {
	o := it.World.Arena().Get(ref)
	if o == nil || o.Program == nil {
		return make([]value.Value, frame.MaxVar)
	}
	if lv, ok := o.Program.LocalVars.([]value.Value); ok && lv != nil {
		return lv
	}
	lv := make([]value.Value, frame.MaxVar)
	o.Program.LocalVars = lv
	return lv
}

// doReturn unwinds one call level, or finishes the frame if the call
// stack is empty (falling off the end of the top-level program),
// matching spec 4.F's call/return step.
func (it *Interp) doReturn(f *frame.Frame) {
	if len(f.Calls) == 0 {
		f.State = frame.Done
		it.decRunning(f.Program)
		return
	}
	it.decRunning(f.Program)
	cf := f.Calls[len(f.Calls)-1]
	f.Calls = f.Calls[:len(f.Calls)-1]
	for len(f.Scopes) > cf.ScopeDepth {
		_ = f.PopScope()
	}
	f.Program = cf.Return.Program
	f.PC = cf.Return.PC
	if len(f.CallerDbrefs) > 0 {
		f.CallerDbrefs = f.CallerDbrefs[:len(f.CallerDbrefs)-1]
	}
}

// call invokes target starting at pc 0, recording the current position as
// the return address, matching EXECUTE/CALL.
func (it *Interp) call(f *frame.Frame, target value.Addr) {
	f.Calls = append(f.Calls, frame.CallFrame{
		Return:     value.Addr{Program: f.Program, PC: f.PC + 1},
		ScopeDepth: len(f.Scopes),
	})
	f.CallerDbrefs = append(f.CallerDbrefs, f.Program)
	f.Program = target.Program
	f.PC = target.PC
	f.PushScope()
	it.incRunning(target.Program)
}

// exec dispatches one instruction. Control-flow opcodes (call/return,
// branches, FOR/FOREACH/TRY management) are handled directly here since
// they need to set pc themselves; every other opcode goes through the
// uniform primitives table and gets pc auto-advanced.
func (it *Interp) exec(f *frame.Frame, instr Instr) *Abort {
	switch instr.Op {
	case OpPush:
		if err := f.Push(instr.Arg.Retain()); err != nil {
			return recoverable("%v", err)
		}
		f.PC++
		return nil

	case OpExecute, OpCall:
		if instr.Arg.Kind != value.Address {
			return fatal("interp: EXECUTE operand is not an address")
		}
		it.call(f, instr.Arg.Addr)
		return nil

	case OpReturn:
		it.doReturn(f)
		return nil

	case OpJmp:
		f.PC = instr.Arg.I
		return nil

	case OpIfNot:
		v, err := f.Pop()
		if err != nil {
			return recoverable("%v", err)
		}
		defer v.Release()
		if !v.Truthy() {
			f.PC = instr.Arg.I
		} else {
			f.PC++
		}
		return nil

	case OpFor:
		return it.opFor(f, instr)
	case OpForeach:
		return it.opForeach(f)
	case OpForIter:
		return it.opForIter(f, instr)
	case OpForPop:
		if err := f.PopFor(); err != nil {
			return recoverable("%v", err)
		}
		f.PC++
		return nil

	case OpTry:
		f.PushTry(instr.Arg.I)
		f.PC++
		return nil
	case OpTryPop:
		if err := f.PopTry(); err != nil {
			return recoverable("%v", err)
		}
		f.PC++
		return nil

	case OpSetMode:
		mode := frame.Mode(instr.Arg.I)
		if err := f.SetMode(mode); err != nil {
			return recoverable("%v", err)
		}
		f.PC++
		return nil

	default:
		fn, ok := primitives[instr.Op]
		if !ok {
			return fatal("interp: unknown opcode %q", instr.Op)
		}
		if ab := fn(it, f, instr.Arg); ab != nil {
			return ab
		}
		f.PC++
		return nil
	}
}

func (it *Interp) opFor(f *frame.Frame, _ Instr) *Abort {
	step, err1 := f.Pop()
	end, err2 := f.Pop()
	start, err3 := f.Pop()
	if err1 != nil || err2 != nil || err3 != nil {
		return recoverable("interp: FOR needs start end step")
	}
	if start.Kind != value.Int || end.Kind != value.Int || step.Kind != value.Int {
		return recoverable("interp: FOR requires three integers")
	}
	if err := f.PushFor(start.I, end.I, step.I); err != nil {
		return recoverable("%v", err)
	}
	f.PC++
	return nil
}

func (it *Interp) opForeach(f *frame.Frame) *Abort {
	v, err := f.Pop()
	if err != nil {
		return recoverable("%v", err)
	}
	if v.Kind != value.Array {
		return recoverable("interp: FOREACH requires an array")
	}
	if err := f.PushForeach(v.Arr); err != nil {
		return recoverable("%v", err)
	}
	f.PC++
	return nil
}

// opForIter drives one iteration of the innermost for-loop: if exhausted,
// jumps to instr.Arg.I (the loop-exit branch target, matching the
// compiler's "FORITER IF(branch-out) … FORPOP" pattern); otherwise pushes
// the next value (and, for FOREACH, its key) and falls through.
func (it *Interp) opForIter(f *frame.Frame, instr Instr) *Abort {
	node, err := f.TopFor()
	if err != nil {
		return recoverable("%v", err)
	}
	if node.IsForeach {
		if node.ArrDone {
			f.PC = instr.Arg.I
			return nil
		}
		v, _ := node.Arr.Get(node.ArrKey)
		key := node.ArrKey
		nextKey, ok := node.Arr.Next(key)
		node.ArrKey = nextKey
		node.ArrDone = !ok
		var keyVal value.Value
		if key.IsString {
			keyVal = value.StringV(key.S)
		} else {
			keyVal = value.IntV(key.I)
		}
		if err := f.Push(v.Retain()); err != nil {
			return recoverable("%v", err)
		}
		if err := f.Push(keyVal); err != nil {
			return recoverable("%v", err)
		}
		f.PC++
		return nil
	}

	if (node.Step > 0 && node.Cur > node.End) || (node.Step < 0 && node.Cur < node.End) || node.Step == 0 && node.Cur != node.End {
		f.PC = instr.Arg.I
		return nil
	}
	cur := node.Cur
	node.Cur += node.Step
	if err := f.Push(value.IntV(cur)); err != nil {
		return recoverable("%v", err)
	}
	f.PC++
	return nil
}
