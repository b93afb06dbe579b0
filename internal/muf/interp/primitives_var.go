package interp

import (
	"github.com/fuzzball-muck/muckd/internal/muf/frame"
	"github.com/fuzzball-muck/muckd/internal/muf/value"
)

// variableLit pushes a VAR handle (arg.I is the global slot index), the
// compiled form of a bare variable name appearing where a handle is
// expected (e.g. before @ or !).
func variableLit(it *Interp, f *frame.Frame, arg value.Value) *Abort {
	return push(f, value.VarV(value.Var, arg.I))
}

func localvarLit(it *Interp, f *frame.Frame, arg value.Value) *Abort {
	return push(f, value.VarV(value.LVar, arg.I))
}

func scopedvarLit(it *Interp, f *frame.Frame, arg value.Value) *Abort {
	return push(f, value.VarV(value.SVar, arg.I))
}

func push(f *frame.Frame, v value.Value) *Abort {
	if err := f.Push(v); err != nil {
		return recoverable("%v", err)
	}
	return nil
}

// fetch implements "@": pop a variable handle, push the slot's current
// value (retained, since the slot keeps its own reference).
func fetch(it *Interp, f *frame.Frame, _ value.Value) *Abort {
	h, err := f.Pop()
	if err != nil {
		return recoverable("%v", err)
	}
	slot, ab := slotFor(it, f, h)
	if ab != nil {
		return ab
	}
	return push(f, slot.Retain())
}

// store implements "!": pop a value then a variable handle, release the
// slot's old contents, and install the new value.
func store(it *Interp, f *frame.Frame, _ value.Value) *Abort {
	h, err := f.Pop()
	if err != nil {
		return recoverable("%v", err)
	}
	v, err := f.Pop()
	if err != nil {
		return recoverable("%v", err)
	}
	slot, ab := slotRef(it, f, h)
	if ab != nil {
		return ab
	}
	slot.Release()
	*slot = v
	return nil
}

func slotFor(it *Interp, f *frame.Frame, h value.Value) (value.Value, *Abort) {
	slot, ab := slotRef(it, f, h)
	if ab != nil {
		return value.Value{}, ab
	}
	return *slot, nil
}

// slotRef resolves a variable handle to the address of its backing slot
// in the global vector, the program's persistent LVAR table, or the
// current lexical scope's SVAR vector.
func slotRef(it *Interp, f *frame.Frame, h value.Value) (*value.Value, *Abort) {
	if h.Kind != value.Var && h.Kind != value.LVar && h.Kind != value.SVar {
		return nil, recoverable("interp: expected a variable, got %s", h.Kind)
	}
	idx := h.Handle.Index
	switch h.Kind {
	case value.Var:
		if idx < 0 || idx >= frame.MaxVar {
			return nil, recoverable("interp: variable index %d out of range", idx)
		}
		return &f.Globals[idx], nil
	case value.LVar:
		lv := it.localVars(f.Program)
		if idx < 0 || idx >= len(lv) {
			return nil, recoverable("interp: lvar index %d out of range", idx)
		}
		return &lv[idx], nil
	default: // SVar
		scope := f.CurrentScope()
		if idx < 0 || idx >= len(scope.Vars) {
			return nil, recoverable("interp: svar index %d out of range", idx)
		}
		return &scope.Vars[idx], nil
	}
}
