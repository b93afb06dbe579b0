package value

import "sort"

// ArrayKind distinguishes a zero-based packed list from a mixed-key
// dictionary (spec 4.E).
type ArrayKind int

const (
	Packed ArrayKind = iota
	Dictionary
)

// Key is an array index: either an integer (packed arrays always use
// these) or a string (dictionary arrays may use either).
type Key struct {
	IsString bool
	I        int
	S        string
}

// IntKey and StrKey build dictionary/packed keys.
func IntKey(i int) Key   { return Key{I: i} }
func StrKey(s string) Key { return Key{IsString: true, S: s} }

func (k Key) Less(o Key) bool {
	if k.IsString != o.IsString {
		return !k.IsString // integer keys sort before string keys
	}
	if k.IsString {
		return k.S < o.S
	}
	return k.I < o.I
}

// SharedArray is a refcounted, copy-on-write array payload. A Packed
// array additionally keeps `order` equal to 0..len-1 implicitly; a
// Dictionary array's `order` records insertion order so array_first/
// array_next can walk keys the way they were added, not sorted, unless
// the caller explicitly asks for sorted iteration (array_make sorts by
// construction, array_setitem on an existing dict preserves position).
type SharedArray struct {
	refs   int
	pinned bool
	kind   ArrayKind
	data   map[Key]Value
	order  []Key
}

// NewArray returns an empty array of the given kind, refcount 1.
func NewArray(kind ArrayKind) *SharedArray {
	return &SharedArray{refs: 1, kind: kind, data: map[Key]Value{}}
}

// NewPackedFrom builds a packed array from a slice, in order.
func NewPackedFrom(items []Value) *SharedArray {
	a := NewArray(Packed)
	for i, v := range items {
		a.data[IntKey(i)] = v
		a.order = append(a.order, IntKey(i))
	}
	return a
}

// Kind reports Packed or Dictionary.
func (a *SharedArray) Kind() ArrayKind { return a.kind }

// Len returns the element count.
func (a *SharedArray) Len() int { return len(a.order) }

// Pin marks the array exempt from copy-on-write, matching the frame-level
// pinning flag spec 4.E describes.
func (a *SharedArray) Pin(on bool) { a.pinned = on }

// Pinned reports the array's pin state.
func (a *SharedArray) Pinned() bool { return a.pinned }

// Retain increments the refcount.
func (a *SharedArray) Retain() *SharedArray {
	if a != nil {
		a.refs++
	}
	return a
}

// Release decrements the refcount (see SharedString.Release for why this
// doesn't free memory directly).
func (a *SharedArray) Release() {
	if a != nil && a.refs > 0 {
		a.refs--
	}
}

// Shared reports whether a mutation needs to copy first.
func (a *SharedArray) Shared() bool {
	return a != nil && a.refs > 1 && !a.pinned
}

// Clone deep-copies the array (a fresh refcount-1 array with the same
// contents), used by mutating primitives when Shared() is true.
func (a *SharedArray) Clone() *SharedArray {
	c := &SharedArray{refs: 1, kind: a.kind, data: make(map[Key]Value, len(a.data))}
	c.order = append([]Key(nil), a.order...)
	for k, v := range a.data {
		c.data[k] = v
	}
	return c
}

// Get returns the element at key and whether it was present.
func (a *SharedArray) Get(k Key) (Value, bool) {
	v, ok := a.data[k]
	return v, ok
}

// Set stores value at key, appending to the iteration order if key is new.
// Callers are responsible for calling Clone first when Shared() is true.
func (a *SharedArray) Set(k Key, v Value) {
	if _, exists := a.data[k]; !exists {
		a.order = append(a.order, k)
	}
	a.data[k] = v
}

// Delete removes key, if present.
func (a *SharedArray) Delete(k Key) {
	if _, ok := a.data[k]; !ok {
		return
	}
	delete(a.data, k)
	for i, o := range a.order {
		if o == k {
			a.order = append(a.order[:i], a.order[i+1:]...)
			break
		}
	}
}

// First returns the first key in iteration order, and whether the array
// is non-empty, matching array_first.
func (a *SharedArray) First() (Key, bool) {
	if len(a.order) == 0 {
		return Key{}, false
	}
	return a.order[0], true
}

// Next returns the key following cur in iteration order, matching
// array_next.
func (a *SharedArray) Next(cur Key) (Key, bool) {
	for i, k := range a.order {
		if k == cur && i+1 < len(a.order) {
			return a.order[i+1], true
		}
	}
	return Key{}, false
}

// Keys returns a copy of the iteration-order key slice.
func (a *SharedArray) Keys() []Key {
	return append([]Key(nil), a.order...)
}

// SortKeys reorders a dictionary array's iteration order by key, matching
// the sorted view array_make produces for a literal dictionary spec.
func (a *SharedArray) SortKeys() {
	sort.Slice(a.order, func(i, j int) bool { return a.order[i].Less(a.order[j]) })
}

// Append adds v to a packed array at the next integer index.
func (a *SharedArray) Append(v Value) {
	a.Set(IntKey(len(a.order)), v)
}

// ToSlice renders a packed array's values in order (for array_make's
// companion array_explode / array_vals on packed data).
func (a *SharedArray) ToSlice() []Value {
	out := make([]Value, 0, len(a.order))
	for _, k := range a.order {
		out = append(out, a.data[k])
	}
	return out
}
