package interp

import (
	"github.com/fuzzball-muck/muckd/internal/muf/frame"
	"github.com/fuzzball-muck/muckd/internal/muf/value"
)

// arrayMake pops a count then that many stack items, building a packed
// array in source (push) order, matching "v1 .. vN N array_make".
func arrayMake(it *Interp, f *frame.Frame, _ value.Value) *Abort {
	n, err := f.Pop()
	if err != nil || n.Kind != value.Int {
		return recoverable("interp: array_make expects an integer count")
	}
	if n.I < 0 || n.I > f.Depth() {
		return recoverable("interp: array_make count out of range")
	}
	items := make([]value.Value, n.I)
	for i := n.I - 1; i >= 0; i-- {
		items[i], _ = f.Pop()
	}
	return push(f, value.ArrayV(value.NewPackedFrom(items)))
}

// arrayMakeDict pops 2*n items as key/value pairs and builds a dictionary
// array, matching "k1 v1 .. kN vN N array_make_dict".
func arrayMakeDict(it *Interp, f *frame.Frame, _ value.Value) *Abort {
	n, err := f.Pop()
	if err != nil || n.Kind != value.Int {
		return recoverable("interp: array_make_dict expects an integer count")
	}
	arr := value.NewArray(value.Dictionary)
	pairs := make([]struct {
		k value.Value
		v value.Value
	}, n.I)
	for i := n.I - 1; i >= 0; i-- {
		v, err1 := f.Pop()
		k, err2 := f.Pop()
		if err1 != nil || err2 != nil {
			return recoverable("interp: array_make_dict stack underflow")
		}
		pairs[i] = struct {
			k value.Value
			v value.Value
		}{k, v}
	}
	for _, p := range pairs {
		arr.Set(keyFor(p.k), p.v)
		p.k.Release()
	}
	arr.SortKeys()
	return push(f, value.ArrayV(arr))
}

func keyFor(v value.Value) value.Key {
	if v.Kind == value.String {
		return value.StrKey(v.Str.Get())
	}
	return value.IntKey(v.I)
}

func arrayCount(it *Interp, f *frame.Frame, _ value.Value) *Abort {
	vals, ab := it.checkArgs(f, "y")
	if ab != nil {
		return ab
	}
	n := vals[0].Arr.Len()
	vals[0].Release()
	return push(f, value.IntV(n))
}

// arrayGetItem fetches arr[key], pushing 0 (the array_getitem convention
// for a missing packed/dictionary key) when absent.
func arrayGetItem(it *Interp, f *frame.Frame, _ value.Value) *Abort {
	key, err := f.Pop()
	if err != nil {
		return recoverable("%v", err)
	}
	vals, ab := it.checkArgs(f, "y")
	if ab != nil {
		key.Release()
		return ab
	}
	arr := vals[0].Arr
	v, ok := arr.Get(keyFor(key))
	key.Release()
	arr.Release()
	if !ok {
		return push(f, value.IntV(0))
	}
	return push(f, v.Retain())
}

// arraySetItem copy-on-writes arr if shared, sets arr[key] = v, and
// pushes the (possibly new) array.
func arraySetItem(it *Interp, f *frame.Frame, _ value.Value) *Abort {
	v, err := f.Pop()
	if err != nil {
		return recoverable("%v", err)
	}
	key, err := f.Pop()
	if err != nil {
		v.Release()
		return recoverable("%v", err)
	}
	vals, ab := it.checkArgs(f, "y")
	if ab != nil {
		key.Release()
		v.Release()
		return ab
	}
	arr := vals[0].Arr
	if arr.Shared() {
		clone := arr.Clone()
		arr.Release()
		arr = clone
	}
	arr.Set(keyFor(key), v)
	key.Release()
	return push(f, value.ArrayV(arr))
}

func arrayFirst(it *Interp, f *frame.Frame, _ value.Value) *Abort {
	vals, ab := it.checkArgs(f, "y")
	if ab != nil {
		return ab
	}
	k, ok := vals[0].Arr.First()
	vals[0].Release()
	if !ok {
		return push(f, value.IntV(0))
	}
	if err := f.Push(keyVal(k)); err != nil {
		return recoverable("%v", err)
	}
	return push(f, value.IntV(1))
}

func arrayNext(it *Interp, f *frame.Frame, _ value.Value) *Abort {
	cur, err := f.Pop()
	if err != nil {
		return recoverable("%v", err)
	}
	vals, ab := it.checkArgs(f, "y")
	if ab != nil {
		cur.Release()
		return ab
	}
	k, ok := vals[0].Arr.Next(keyFor(cur))
	cur.Release()
	vals[0].Release()
	if !ok {
		return push(f, value.IntV(0))
	}
	if err := f.Push(keyVal(k)); err != nil {
		return recoverable("%v", err)
	}
	return push(f, value.IntV(1))
}

func keyVal(k value.Key) value.Value {
	if k.IsString {
		return value.StringV(k.S)
	}
	return value.IntV(k.I)
}
