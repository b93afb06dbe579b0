package lockexpr

import (
	"testing"

	"github.com/fuzzball-muck/muckd/internal/dbref"
)

type fakeEval struct {
	owner map[dbref.Dbref]dbref.Dbref
	flags map[dbref.Dbref]map[string]bool
	props map[dbref.Dbref]map[string]string
	carry map[dbref.Dbref]map[dbref.Dbref]bool
}

func (f *fakeEval) IsObject(actor, target dbref.Dbref) bool { return actor == target }
func (f *fakeEval) Carries(actor, target dbref.Dbref) bool  { return f.carry[actor][target] }
func (f *fakeEval) OwnerOf(target dbref.Dbref) dbref.Dbref  { return f.owner[target] }
func (f *fakeEval) HasFlag(actor dbref.Dbref, flag string) bool {
	return f.flags[actor][flag]
}
func (f *fakeEval) PropValue(actor dbref.Dbref, name string) (string, bool) {
	v, ok := f.props[actor][name]
	return v, ok
}
func (f *fakeEval) RunLockProgram(prog, actor dbref.Dbref) bool { return false }

func TestCompileAndEvalSimple(t *testing.T) {
	ev := &fakeEval{
		owner: map[dbref.Dbref]dbref.Dbref{1: 100},
		flags: map[dbref.Dbref]map[string]bool{1: {"WIZARD": true}},
	}
	expr, err := Compile("=#100")
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	if !expr.Eval(1, ev) {
		t.Error("owner lock should succeed for object owned by #100")
	}
	if expr.Eval(2, ev) {
		t.Error("owner lock should fail for an object with no recorded owner")
	}
}

func TestCompileAndOr(t *testing.T) {
	ev := &fakeEval{
		flags: map[dbref.Dbref]map[string]bool{1: {"WIZARD": true}},
	}
	expr, err := Compile("!WIZARD|#5")
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	if !expr.Eval(1, ev) {
		t.Error("!WIZARD|#5 should succeed via the flag branch for actor 1")
	}
	if !expr.Eval(5, ev) {
		t.Error("!WIZARD|#5 should succeed via the dbref branch for actor 5")
	}
	if expr.Eval(6, ev) {
		t.Error("!WIZARD|#5 should fail for actor 6 with no WIZARD flag")
	}
}

func TestTrueLock(t *testing.T) {
	expr, err := Compile("")
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	if !expr.Eval(0, &fakeEval{}) {
		t.Error("empty expression should compile to an always-true lock")
	}
	if expr.Unparse() != "TRUE_BOOLEXP" {
		t.Errorf("Unparse() = %q, want TRUE_BOOLEXP", expr.Unparse())
	}
}

func TestPropMatchWildcard(t *testing.T) {
	ev := &fakeEval{
		props: map[dbref.Dbref]map[string]string{1: {"sex": "female"}},
	}
	expr, err := Compile("sex:fe*")
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	if !expr.Eval(1, ev) {
		t.Error("sex:fe* should match sex=female")
	}
}

func TestCopySize(t *testing.T) {
	expr, _ := Compile("#1&#2")
	cp := expr.Copy()
	if cp.Size() != expr.Size() {
		t.Errorf("copy size mismatch: %d vs %d", cp.Size(), expr.Size())
	}
	cp.Left.Ref = 99
	if expr.Left.Ref == 99 {
		t.Error("Copy should be a deep copy, not aliasing Left")
	}
}
