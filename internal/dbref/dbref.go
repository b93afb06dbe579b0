// Package dbref defines the database reference type used to name every
// object in the arena, along with its reserved sentinel values.
package dbref

import "strconv"

// Dbref names an object in the arena. Valid objects satisfy 0 <= ref < db_top.
type Dbref int

// Sentinel values reserved by the data model (spec section 3).
const (
	// NOTHING means "no object", the value an absent reference holds. It is
	// not Dbref's Go zero value, which is #0.
	NOTHING Dbref = -1
	// AMBIGUOUS is returned by name matching when more than one object matches.
	AMBIGUOUS Dbref = -2
	// HOME is a virtual destination meaning "the object's configured home".
	HOME Dbref = -3
	// NIL is used by MUF as an explicit "no value" dbref distinct from NOTHING.
	NIL Dbref = -4
	// PERMDENIED is a synthetic dbref returned in place of an object a caller
	// is not permitted to see, so that further checks fail closed.
	PERMDENIED Dbref = -5
)

// IsSentinel reports whether d is one of the reserved values above rather
// than a potentially valid arena index.
func (d Dbref) IsSentinel() bool {
	switch d {
	case NOTHING, AMBIGUOUS, HOME, NIL, PERMDENIED:
		return true
	default:
		return false
	}
}

// Valid reports whether d could index a live object, i.e. 0 <= d < top.
// It does not check that the slot is actually occupied or non-garbage;
// callers go through the object arena for that.
func (d Dbref) Valid(top Dbref) bool {
	return d >= 0 && d < top
}

// String renders a dbref the way MUF programs expect to see it: "#123",
// with reserved values rendered by number too ("#-1" for NOTHING).
func (d Dbref) String() string {
	switch d {
	case NOTHING:
		return "#-1"
	case AMBIGUOUS:
		return "#-2"
	case HOME:
		return "#-3"
	case NIL:
		return "#-4"
	case PERMDENIED:
		return "#-5"
	default:
		return "#" + strconv.Itoa(int(d))
	}
}

// Parse parses a "#123" or "123" string into a Dbref.
func Parse(s string) (Dbref, bool) {
	if s == "" {
		return NOTHING, false
	}
	if s[0] == '#' {
		s = s[1:]
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return NOTHING, false
	}
	return Dbref(n), true
}
