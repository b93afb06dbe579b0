package value

import (
	"testing"

	"github.com/fuzzball-muck/muckd/internal/dbref"
)

func TestTruthy(t *testing.T) {
	cases := []struct {
		v    Value
		want bool
	}{
		{IntV(0), false},
		{IntV(1), true},
		{FloatV(0), false},
		{FloatV(0.5), true},
		{DbrefV(dbref.NOTHING), false},
		{DbrefV(0), true},
		{StringV(""), false},
		{StringV("hi"), true},
	}
	for _, c := range cases {
		if got := c.v.Truthy(); got != c.want {
			t.Errorf("Truthy(%v) = %v, want %v", c.v, got, c.want)
		}
	}
}

func TestAsString(t *testing.T) {
	if got := IntV(42).AsString(); got != "42" {
		t.Errorf("IntV(42).AsString() = %q, want 42", got)
	}
	if got := DbrefV(5).AsString(); got != "#5" {
		t.Errorf("DbrefV(5).AsString() = %q, want #5", got)
	}
	if got := StringV("hi").AsString(); got != "hi" {
		t.Errorf("StringV(hi).AsString() = %q, want hi", got)
	}
}

func TestSharedStringRefcount(t *testing.T) {
	s := NewSharedString("hello")
	if s.Shared() {
		t.Error("fresh string should not be shared")
	}
	s.Retain()
	if !s.Shared() {
		t.Error("string with two owners should report Shared")
	}
	s.Release()
	if s.Shared() {
		t.Error("string should not be shared after releasing the extra owner")
	}
}

func TestTypeCode(t *testing.T) {
	cases := map[Kind]byte{
		Int: 'i', Float: 'f', Dbref: 'd', String: 's', Lock: 'l', Array: 'y',
	}
	for k, want := range cases {
		if got := k.TypeCode(); got != want {
			t.Errorf("Kind(%v).TypeCode() = %q, want %q", k, got, want)
		}
	}
}
