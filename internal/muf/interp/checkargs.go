package interp

import (
	"github.com/fuzzball-muck/muckd/internal/muf/frame"
	"github.com/fuzzball-muck/muckd/internal/muf/value"
)

// checkArgs pops len(types) values off f's stack, verifying each one's
// Kind against the corresponding type code (spec 4.E's inputs DSL: "i f s
// S d D e/r/t/p/f l v a x y Y ? {N}"; this interpreter recognizes the
// subset its Kind.TypeCode() produces). types is read left-to-right as
// the arguments appear in MUF source, i.e. types[len-1] matches the top
// of the stack. On success the returned slice is in source (push) order:
// result[0] is the deepest/first-pushed argument.
func (it *Interp) checkArgs(f *frame.Frame, types string) ([]value.Value, *Abort) {
	n := len(types)
	vals := make([]value.Value, n)
	for i := n - 1; i >= 0; i-- {
		v, err := f.Pop()
		if err != nil {
			return nil, recoverable("interp: checkargs %q: %v", types, err)
		}
		want := types[i]
		if want != '?' && v.Kind.TypeCode() != want {
			v.Release()
			return nil, recoverable("interp: checkargs expected %q, got %q", string(want), string(v.Kind.TypeCode()))
		}
		vals[i] = v
	}
	return vals, nil
}
