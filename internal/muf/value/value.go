// Package value implements the MUF tagged value union (spec 4.E): the
// variant type every stack slot, variable slot, and array element holds,
// plus the refcounted string and array types that back copy-on-write
// semantics for the interpreter (internal/muf/interp).
package value

import (
	"fmt"

	"github.com/fuzzball-muck/muckd/internal/dbref"
	"github.com/fuzzball-muck/muckd/internal/lockexpr"
)

// Kind tags which field of a Value is meaningful.
type Kind int

const (
	Int Kind = iota
	Float
	Dbref
	String
	Address
	Lock
	Array
	Var
	LVar
	SVar
	Mark
)

// TypeCode returns the single-character type code the inputs DSL (spec
// 4.E: "i f s S d D e/r/t/p/f l v a x y Y ? {N}") uses in checkargs
// error messages.
func (k Kind) TypeCode() byte {
	switch k {
	case Int:
		return 'i'
	case Float:
		return 'f'
	case Dbref:
		return 'd'
	case String:
		return 's'
	case Address:
		return 'a'
	case Lock:
		return 'l'
	case Array:
		return 'y'
	case Var, LVar, SVar:
		return 'v'
	case Mark:
		return '{'
	default:
		return '?'
	}
}

func (k Kind) String() string {
	switch k {
	case Int:
		return "integer"
	case Float:
		return "float"
	case Dbref:
		return "dbref"
	case String:
		return "string"
	case Address:
		return "address"
	case Lock:
		return "lock"
	case Array:
		return "array"
	case Var:
		return "variable"
	case LVar:
		return "lvar"
	case SVar:
		return "svar"
	case Mark:
		return "mark"
	default:
		return "unknown"
	}
}

// Addr is a program-counter-plus-program pair (an EXECUTE return address
// or a pushed call target).
type Addr struct {
	Program dbref.Dbref
	PC      int
}

// VarHandle names a slot in one of the three variable tables: a global
// (VAR, 0..3 bound to me/loc/trig/cmd), a program-persistent LVAR, or a
// current-scope SVAR.
type VarHandle struct {
	Index int
}

// Value is one MUF stack/variable slot. Only the field matching Kind is
// meaningful; the others are zero.
type Value struct {
	Kind   Kind
	I      int
	F      float64
	D      dbref.Dbref
	Str    *SharedString
	Addr   Addr
	Lk     *lockexpr.Boolexp
	Arr    *SharedArray
	Handle VarHandle
}

// IntV, FloatV, DbrefV, MarkV construct primitive values.
func IntV(i int) Value              { return Value{Kind: Int, I: i} }
func FloatV(f float64) Value        { return Value{Kind: Float, F: f} }
func DbrefV(d dbref.Dbref) Value    { return Value{Kind: Dbref, D: d} }
func MarkV() Value                  { return Value{Kind: Mark} }
func AddrV(a Addr) Value            { return Value{Kind: Address, Addr: a} }
func LockV(l *lockexpr.Boolexp) Value { return Value{Kind: Lock, Lk: l} }
func VarV(kind Kind, idx int) Value { return Value{Kind: kind, Handle: VarHandle{Index: idx}} }

// StringV wraps a fresh (refcount 1) string value.
func StringV(s string) Value {
	return Value{Kind: String, Str: NewSharedString(s)}
}

// ArrayV wraps an array, retaining it.
func ArrayV(a *SharedArray) Value {
	a.Retain()
	return Value{Kind: Array, Arr: a}
}

// Retain increments the refcount of any shared payload the value carries,
// used when duplicating a stack slot (DUP, PICK, variable fetch).
func (v Value) Retain() Value {
	if v.Kind == String {
		v.Str.Retain()
	}
	if v.Kind == Array {
		v.Arr.Retain()
	}
	return v
}

// Release decrements the refcount of any shared payload, used when a
// stack slot is popped and discarded.
func (v Value) Release() {
	if v.Kind == String {
		v.Str.Release()
	}
	if v.Kind == Array {
		v.Arr.Release()
	}
}

// AsString renders v for display/concatenation purposes.
func (v Value) AsString() string {
	switch v.Kind {
	case Int:
		return fmt.Sprintf("%d", v.I)
	case Float:
		return fmt.Sprintf("%g", v.F)
	case Dbref:
		return v.D.String()
	case String:
		return v.Str.Get()
	case Lock:
		return v.Lk.Unparse()
	default:
		return fmt.Sprintf("<%s>", v.Kind)
	}
}

// Truthy implements MUF's boolean coercion: integer/float zero and
// NOTHING/empty-string are false, everything else is true.
func (v Value) Truthy() bool {
	switch v.Kind {
	case Int:
		return v.I != 0
	case Float:
		return v.F != 0
	case Dbref:
		return v.D != dbref.NOTHING
	case String:
		return v.Str.Get() != ""
	default:
		return true
	}
}

// SharedString is a refcounted, copy-on-write string payload.
type SharedString struct {
	refs int
	s    string
}

// NewSharedString returns a fresh string with refcount 1.
func NewSharedString(s string) *SharedString {
	return &SharedString{refs: 1, s: s}
}

// Get returns the underlying string.
func (s *SharedString) Get() string {
	if s == nil {
		return ""
	}
	return s.s
}

// Retain increments the refcount and returns s for chaining.
func (s *SharedString) Retain() *SharedString {
	if s != nil {
		s.refs++
	}
	return s
}

// Release decrements the refcount. Go's GC reclaims the backing memory
// regardless; refs is tracked only so Shared can tell whether a mutation
// needs a fresh copy (copy-on-write), mirroring the original's
// reference-counted string buffers.
func (s *SharedString) Release() {
	if s != nil && s.refs > 0 {
		s.refs--
	}
}

// Shared reports whether more than one owner holds a reference, the
// condition under which a mutating operation must copy rather than edit
// in place.
func (s *SharedString) Shared() bool {
	return s != nil && s.refs > 1
}

// Len returns the string's byte length (strlen's basis before the
// ANSI-aware variants in internal/muf/interp adjust for escape codes).
func (s *SharedString) Len() int { return len(s.Get()) }
