package interp

import (
	"time"

	"github.com/fuzzball-muck/muckd/internal/muf/frame"
	"github.com/fuzzball-muck/muckd/internal/muf/value"
	"github.com/fuzzball-muck/muckd/internal/notify"
	"github.com/fuzzball-muck/muckd/internal/object"
	"github.com/fuzzball-muck/muckd/internal/queue"
)

// interpPrim implements "prog trig arg INTERP": runs prog to completion as
// a nested interpreter call in Preempt mode, inheriting the caller's
// descriptor, capped at MaxInterpDepth to bound recursion (spec 4.F).
func interpPrim(it *Interp, f *frame.Frame, _ value.Value) *Abort {
	vals, ab := it.checkArgs(f, "dds")
	if ab != nil {
		return ab
	}
	prog, trig := vals[0].D, vals[1].D
	arg := vals[2]
	defer arg.Release()

	if it.interpDepth >= MaxInterpDepth {
		return recoverable("interp: INTERP nesting exceeds %d levels", MaxInterpDepth)
	}
	o := it.World.Arena().Get(prog)
	if o == nil || o.Type != object.TypeProgram {
		return recoverable("interp: INTERP target is not a program")
	}

	nf := frame.New(prog, f.Sysvars[frame.SysvarMe], f.Sysvars[frame.SysvarLoc], value.DbrefV(trig), value.StringV(""))
	nf.Descr = f.Descr
	nf.Push(value.StringV(arg.AsString()))

	it.interpDepth++
	it.Run(nf)
	it.interpDepth--

	if nf.Depth() == 0 {
		return push(f, value.StringV(""))
	}
	top, _ := nf.Pop()
	defer top.Release()
	return push(f, value.StringV(top.AsString()))
}

// delayPrim implements "secs prog DELAY": schedules prog to be called
// again later via the time queue, validating the delay against spec
// 4.G's [1, 31622400] bound.
func delayPrim(it *Interp, f *frame.Frame, _ value.Value) *Abort {
	vals, ab := it.checkArgs(f, "id")
	if ab != nil {
		return ab
	}
	secs, prog := vals[0].I, vals[1].D
	if secs < 1 || secs > 31_622_400 {
		return recoverable("interp: DELAY out of range [1, 31622400]")
	}
	pid := it.World.Queue().Enqueue(&queue.Event{
		FireTime: nowSeconds() + int64(secs),
		Kind:     queue.MufTimer,
		Program:  prog,
		Player:   f.Sysvars[frame.SysvarMe].D,
		Trigger:  f.Sysvars[frame.SysvarTrig].D,
	})
	return push(f, value.IntV(pid))
}

func killPrim(it *Interp, f *frame.Frame, _ value.Value) *Abort {
	vals, ab := it.checkArgs(f, "i")
	if ab != nil {
		return ab
	}
	ok := it.World.Queue().Kill(vals[0].I)
	return push(f, boolV(ok))
}

func inTimequeue(it *Interp, f *frame.Frame, _ value.Value) *Abort {
	vals, ab := it.checkArgs(f, "i")
	if ab != nil {
		return ab
	}
	ok := it.World.Queue().InTimequeue(vals[0].I)
	return push(f, boolV(ok))
}

func notifyPrim(it *Interp, f *frame.Frame, _ value.Value) *Abort {
	vals, ab := it.checkArgs(f, "ds")
	if ab != nil {
		return ab
	}
	msg := vals[1].Str.Get()
	vals[1].Release()
	notify.NotifyFromEcho(it.World, it.World.Queue(), f.Sysvars[frame.SysvarMe].D, vals[0].D, msg, true)
	return nil
}

func tellPrim(it *Interp, f *frame.Frame, _ value.Value) *Abort {
	vals, ab := it.checkArgs(f, "s")
	if ab != nil {
		return ab
	}
	msg := vals[0].Str.Get()
	vals[0].Release()
	notify.Tell(it.World, f.Sysvars[frame.SysvarMe].D, msg)
	return nil
}

func otellPrim(it *Interp, f *frame.Frame, _ value.Value) *Abort {
	vals, ab := it.checkArgs(f, "s")
	if ab != nil {
		return ab
	}
	msg := vals[0].Str.Get()
	vals[0].Release()
	notify.Otell(it.World, it.World.Queue(), f.Sysvars[frame.SysvarMe].D, msg)
	return nil
}

// notifyExcludePrim implements "room except msg NOTIFY_EXCLUDE".
func notifyExcludePrim(it *Interp, f *frame.Frame, _ value.Value) *Abort {
	vals, ab := it.checkArgs(f, "dds")
	if ab != nil {
		return ab
	}
	room, except := vals[0].D, vals[1].D
	msg := vals[2].Str.Get()
	vals[2].Release()
	notify.NotifyExcept(it.World, it.World.Queue(), room, except, msg, f.Sysvars[frame.SysvarMe].D)
	return nil
}

// forcePrim implements "dbref cmd FORCE": forces target to execute cmd as
// if it had typed it, gated on tp_max_force_level nesting (spec 5) and the
// XFORCIBLE flag (spec 4.F "Force").
func forcePrim(it *Interp, f *frame.Frame, _ value.Value) *Abort {
	vals, ab := it.checkArgs(f, "ds")
	if ab != nil {
		return ab
	}
	target, cmd := vals[0].D, vals[1].Str.Get()
	vals[1].Release()

	if it.forceDepth >= it.World.Tune().MaxForceLevel {
		return recoverable("interp: FORCE nesting exceeds tp_max_force_level")
	}
	o := it.World.Arena().Get(target)
	if o == nil {
		return recoverable("interp: FORCE target does not exist")
	}
	if !o.HasFlag(object.FlagXForcible) && o.Owner != f.Sysvars[frame.SysvarMe].D {
		return recoverable("interp: FORCE target is not XFORCIBLE")
	}

	it.forceDepth++
	it.World.Queue().Enqueue(&queue.Event{
		FireTime: nowSeconds(),
		Kind:     queue.Trigger,
		Trigger:  f.Sysvars[frame.SysvarMe].D,
		Player:   target,
		Name:     cmd,
	})
	it.forceDepth--
	return nil
}

// nowSeconds is the wall-clock time in unix seconds that DELAY and FORCE
// stamp on their events, the same clock internal/dispatch compares
// FireTime against.
var nowSeconds = func() int64 { return time.Now().Unix() }
