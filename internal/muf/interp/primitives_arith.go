package interp

import (
	"math"
	"strings"

	"github.com/fuzzball-muck/muckd/internal/muf/frame"
	"github.com/fuzzball-muck/muckd/internal/muf/value"
)

// add implements "+": integer/float addition and string concatenation.
// Any other operand pair, a dbref included, is a recoverable abort.
func add(it *Interp, f *frame.Frame, _ value.Value) *Abort {
	b, err1 := f.Pop()
	a, err2 := f.Pop()
	if err1 != nil || err2 != nil {
		return recoverable("interp: + needs two items")
	}
	switch {
	case a.Kind == value.Int && b.Kind == value.Int:
		return push(f, value.IntV(a.I+b.I))
	case a.Kind == value.Float || b.Kind == value.Float:
		av, bv, ab := bothFloat(a, b)
		if ab != nil {
			return ab
		}
		return push(f, value.FloatV(av+bv))
	case a.Kind == value.String && b.Kind == value.String:
		s := a.Str.Get() + b.Str.Get()
		a.Release()
		b.Release()
		return push(f, value.StringV(s))
	default:
		return recoverable("interp: + requires matching numeric or string operands")
	}
}

func sub(it *Interp, f *frame.Frame, _ value.Value) *Abort {
	b, err1 := f.Pop()
	a, err2 := f.Pop()
	if err1 != nil || err2 != nil {
		return recoverable("interp: - needs two items")
	}
	if a.Kind == value.Int && b.Kind == value.Int {
		return push(f, value.IntV(a.I-b.I))
	}
	av, bv, ab := bothFloat(a, b)
	if ab != nil {
		return ab
	}
	return push(f, value.FloatV(av-bv))
}

// mul implements "*": numeric multiplication plus string-times-int
// repetition (spec 4.F's "overloaded arithmetic" example family).
func mul(it *Interp, f *frame.Frame, _ value.Value) *Abort {
	b, err1 := f.Pop()
	a, err2 := f.Pop()
	if err1 != nil || err2 != nil {
		return recoverable("interp: * needs two items")
	}
	switch {
	case a.Kind == value.Int && b.Kind == value.Int:
		return push(f, value.IntV(a.I*b.I))
	case a.Kind == value.String && b.Kind == value.Int:
		return push(f, value.StringV(strings.Repeat(a.Str.Get(), max(b.I, 0))))
	case a.Kind == value.Int && b.Kind == value.String:
		return push(f, value.StringV(strings.Repeat(b.Str.Get(), max(a.I, 0))))
	default:
		av, bv, ab := bothFloat(a, b)
		if ab != nil {
			return ab
		}
		return push(f, value.FloatV(av*bv))
	}
}

// div implements "/": integer division traps div-by-zero into FlagDivZero
// (returning 0) rather than aborting, matching the sticky-error-flag
// convention spec 4.F describes; INT_MIN / -1 sets FlagIBounds instead of
// overflowing.
func div(it *Interp, f *frame.Frame, _ value.Value) *Abort {
	b, err1 := f.Pop()
	a, err2 := f.Pop()
	if err1 != nil || err2 != nil {
		return recoverable("interp: / needs two items")
	}
	if a.Kind == value.Int && b.Kind == value.Int {
		if b.I == 0 {
			f.Errors |= frame.FlagDivZero
			return push(f, value.IntV(0))
		}
		if a.I == math.MinInt64 && b.I == -1 {
			f.Errors |= frame.FlagIBounds
			return push(f, value.IntV(0))
		}
		return push(f, value.IntV(a.I/b.I))
	}
	av, bv, ab := bothFloat(a, b)
	if ab != nil {
		return ab
	}
	if bv == 0 {
		f.Errors |= frame.FlagDivZero
		if av == 0 {
			return push(f, value.FloatV(math.NaN()))
		}
		return push(f, value.FloatV(math.Inf(int(math.Copysign(1, av)))))
	}
	return push(f, value.FloatV(av/bv))
}

// mod implements "%", integer-only; modulo by zero sets FlagDivZero and
// yields 0, matching "/".
func mod(it *Interp, f *frame.Frame, _ value.Value) *Abort {
	vals, ab := it.checkArgs(f, "ii")
	if ab != nil {
		return ab
	}
	a, b := vals[0], vals[1]
	if b.I == 0 {
		f.Errors |= frame.FlagDivZero
		return push(f, value.IntV(0))
	}
	return push(f, value.IntV(a.I%b.I))
}

func bitAnd(it *Interp, f *frame.Frame, _ value.Value) *Abort {
	vals, ab := it.checkArgs(f, "ii")
	if ab != nil {
		return ab
	}
	return push(f, value.IntV(vals[0].I&vals[1].I))
}

func bitOr(it *Interp, f *frame.Frame, _ value.Value) *Abort {
	vals, ab := it.checkArgs(f, "ii")
	if ab != nil {
		return ab
	}
	return push(f, value.IntV(vals[0].I|vals[1].I))
}

func bitXor(it *Interp, f *frame.Frame, _ value.Value) *Abort {
	vals, ab := it.checkArgs(f, "ii")
	if ab != nil {
		return ab
	}
	return push(f, value.IntV(vals[0].I^vals[1].I))
}

func bitNot(it *Interp, f *frame.Frame, _ value.Value) *Abort {
	vals, ab := it.checkArgs(f, "i")
	if ab != nil {
		return ab
	}
	return push(f, value.IntV(^vals[0].I))
}

func shiftLeft(it *Interp, f *frame.Frame, _ value.Value) *Abort {
	vals, ab := it.checkArgs(f, "ii")
	if ab != nil {
		return ab
	}
	return push(f, value.IntV(vals[0].I<<uint(vals[1].I)))
}

func shiftRight(it *Interp, f *frame.Frame, _ value.Value) *Abort {
	vals, ab := it.checkArgs(f, "ii")
	if ab != nil {
		return ab
	}
	return push(f, value.IntV(vals[0].I>>uint(vals[1].I)))
}

// compare builds the six relational primitives from one comparator,
// matching the original's shared "compare two values" dispatch.
func compare(cmp func(int) bool) primFunc {
	return func(it *Interp, f *frame.Frame, _ value.Value) *Abort {
		b, err1 := f.Pop()
		a, err2 := f.Pop()
		if err1 != nil || err2 != nil {
			return recoverable("interp: comparison needs two items")
		}
		var c int
		switch {
		case a.Kind == value.Int && b.Kind == value.Int:
			c = cmpInt(a.I, b.I)
		case a.Kind == value.String && b.Kind == value.String:
			c = strings.Compare(a.Str.Get(), b.Str.Get())
			a.Release()
			b.Release()
		case a.Kind == value.Dbref && b.Kind == value.Dbref:
			c = cmpInt(int(a.D), int(b.D))
		default:
			av, bv, ab := bothFloat(a, b)
			if ab != nil {
				return ab
			}
			c = cmpFloat(av, bv)
		}
		return push(f, boolV(cmp(c)))
	}
}

func cmpInt(a, b int) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

func cmpFloat(a, b float64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

func boolV(b bool) value.Value {
	if b {
		return value.IntV(1)
	}
	return value.IntV(0)
}

// bothFloat coerces a pair of int/float operands to float64, matching the
// original's implicit int-to-float promotion in mixed arithmetic.
func bothFloat(a, b value.Value) (float64, float64, *Abort) {
	av, ok1 := asFloat(a)
	bv, ok2 := asFloat(b)
	if !ok1 || !ok2 {
		return 0, 0, recoverable("interp: expected numeric operands")
	}
	return av, bv, nil
}

func asFloat(v value.Value) (float64, bool) {
	switch v.Kind {
	case value.Int:
		return float64(v.I), true
	case value.Float:
		return v.F, true
	default:
		return 0, false
	}
}

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}
