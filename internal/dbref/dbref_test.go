package dbref

import "testing"

func TestSentinelString(t *testing.T) {
	cases := map[Dbref]string{
		NOTHING:    "#-1",
		AMBIGUOUS:  "#-2",
		HOME:       "#-3",
		NIL:        "#-4",
		PERMDENIED: "#-5",
		Dbref(0):   "#0",
		Dbref(42):  "#42",
	}
	for d, want := range cases {
		if got := d.String(); got != want {
			t.Errorf("Dbref(%d).String() = %q, want %q", int(d), got, want)
		}
	}
}

func TestIsSentinel(t *testing.T) {
	if !NOTHING.IsSentinel() {
		t.Error("NOTHING should be a sentinel")
	}
	if Dbref(5).IsSentinel() {
		t.Error("Dbref(5) should not be a sentinel")
	}
}

func TestValid(t *testing.T) {
	top := Dbref(10)
	if !Dbref(0).Valid(top) {
		t.Error("0 should be valid under top=10")
	}
	if Dbref(10).Valid(top) {
		t.Error("10 should not be valid under top=10")
	}
	if Dbref(-1).Valid(top) {
		t.Error("-1 should not be valid")
	}
}

func TestParse(t *testing.T) {
	cases := []struct {
		in   string
		want Dbref
		ok   bool
	}{
		{"#123", 123, true},
		{"123", 123, true},
		{"#-1", NOTHING, true},
		{"", NOTHING, false},
		{"abc", NOTHING, false},
	}
	for _, c := range cases {
		got, ok := Parse(c.in)
		if ok != c.ok || got != c.want {
			t.Errorf("Parse(%q) = (%v, %v), want (%v, %v)", c.in, got, ok, c.want, c.ok)
		}
	}
}
