package interp

import (
	"github.com/fuzzball-muck/muckd/internal/muf/frame"
	"github.com/fuzzball-muck/muckd/internal/muf/value"
)

// primFunc is one primitive's implementation. arg is the instruction's
// operand (zero Value for primitives that take none; PICK/PUT/POPN/
// ROTATE/REVERSE/VARIABLE/LOCALVAR/SCOPEDVAR read a compile-time operand
// here rather than popping it, matching how the compiler folds a literal
// "n" immediately before these words).
type primFunc func(it *Interp, f *frame.Frame, arg value.Value) *Abort

func dup(it *Interp, f *frame.Frame, _ value.Value) *Abort {
	v, err := f.Peek(0)
	if err != nil {
		return recoverable("%v", err)
	}
	if pushErr := f.Push(v.Retain()); pushErr != nil {
		return recoverable("%v", pushErr)
	}
	return nil
}

func swap(it *Interp, f *frame.Frame, _ value.Value) *Abort {
	b, err1 := f.Pop()
	a, err2 := f.Pop()
	if err1 != nil || err2 != nil {
		return recoverable("interp: SWAP needs two items")
	}
	f.Push(b)
	f.Push(a)
	return nil
}

func over(it *Interp, f *frame.Frame, _ value.Value) *Abort {
	v, err := f.Peek(1)
	if err != nil {
		return recoverable("%v", err)
	}
	if pushErr := f.Push(v.Retain()); pushErr != nil {
		return recoverable("%v", pushErr)
	}
	return nil
}

func rot(it *Interp, f *frame.Frame, _ value.Value) *Abort {
	c, e1 := f.Pop()
	b, e2 := f.Pop()
	a, e3 := f.Pop()
	if e1 != nil || e2 != nil || e3 != nil {
		return recoverable("interp: ROT needs three items")
	}
	f.Push(b)
	f.Push(c)
	f.Push(a)
	return nil
}

func nrot(it *Interp, f *frame.Frame, _ value.Value) *Abort {
	c, e1 := f.Pop()
	b, e2 := f.Pop()
	a, e3 := f.Pop()
	if e1 != nil || e2 != nil || e3 != nil {
		return recoverable("interp: -ROT needs three items")
	}
	f.Push(c)
	f.Push(a)
	f.Push(b)
	return nil
}

func pick(it *Interp, f *frame.Frame, arg value.Value) *Abort {
	v, err := f.Peek(arg.I - 1)
	if err != nil {
		return recoverable("%v", err)
	}
	if pushErr := f.Push(v.Retain()); pushErr != nil {
		return recoverable("%v", pushErr)
	}
	return nil
}

func put(it *Interp, f *frame.Frame, arg value.Value) *Abort {
	v, err := f.Pop()
	if err != nil {
		return recoverable("%v", err)
	}
	depth := arg.I - 1
	idx := f.Depth() - 1 - depth
	if idx < 0 {
		return recoverable("interp: PUT depth out of range")
	}
	f.Stack[idx].Release()
	f.Stack[idx] = v
	return nil
}

func pop(it *Interp, f *frame.Frame, _ value.Value) *Abort {
	v, err := f.Pop()
	if err != nil {
		return recoverable("%v", err)
	}
	v.Release()
	return nil
}

func popn(it *Interp, f *frame.Frame, arg value.Value) *Abort {
	for i := 0; i < arg.I; i++ {
		v, err := f.Pop()
		if err != nil {
			return recoverable("%v", err)
		}
		v.Release()
	}
	return nil
}

// rotate shifts the top n stack items by one position; a negative n
// rotates the opposite direction (spec 4.F "ROTATE N (negative rotates
// the opposite way)").
func rotate(it *Interp, f *frame.Frame, arg value.Value) *Abort {
	n := arg.I
	neg := n < 0
	if neg {
		n = -n
	}
	if n < 1 || n > f.Depth() {
		return recoverable("interp: ROTATE out of range")
	}
	base := f.Depth() - n
	window := append([]value.Value(nil), f.Stack[base:]...)
	if neg {
		window = append(window[1:], window[0])
	} else {
		last := window[len(window)-1]
		window = append([]value.Value{last}, window[:len(window)-1]...)
	}
	copy(f.Stack[base:], window)
	return nil
}

func reverse(it *Interp, f *frame.Frame, arg value.Value) *Abort {
	n := arg.I
	if n < 1 || n > f.Depth() {
		return recoverable("interp: REVERSE out of range")
	}
	base := f.Depth() - n
	for i, j := base, f.Depth()-1; i < j; i, j = i+1, j-1 {
		f.Stack[i], f.Stack[j] = f.Stack[j], f.Stack[i]
	}
	return nil
}

// mark pushes a Mark sentinel; } counts (and removes) the items pushed
// since the nearest mark, matching "{" / "}".
func mark(it *Interp, f *frame.Frame, _ value.Value) *Abort {
	if err := f.Push(value.MarkV()); err != nil {
		return recoverable("%v", err)
	}
	return nil
}

func markCount(it *Interp, f *frame.Frame, _ value.Value) *Abort {
	n := 0
	for {
		v, err := f.Peek(n)
		if err != nil {
			return recoverable("interp: '}' with no matching mark")
		}
		if v.Kind == value.Mark {
			break
		}
		n++
	}
	// Pop the mark itself along with the counted items, then push the
	// count, matching "}"'s observable effect on MUF stack diagrams:
	// items are left in place, the mark is consumed, count is pushed.
	items := make([]value.Value, n)
	for i := n - 1; i >= 0; i-- {
		items[i], _ = f.Pop()
	}
	if _, err := f.Pop(); err != nil { // discard the mark
		return recoverable("%v", err)
	}
	for _, item := range items {
		f.Push(item)
	}
	if err := f.Push(value.IntV(n)); err != nil {
		return recoverable("%v", err)
	}
	return nil
}
