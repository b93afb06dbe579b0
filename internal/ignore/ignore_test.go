package ignore

import (
	"testing"

	"github.com/fuzzball-muck/muckd/internal/dbref"
)

func TestParseIgnoreList(t *testing.T) {
	got := ParseIgnoreList("#5 12 #-1")
	want := []dbref.Dbref{5, 12, dbref.NOTHING}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("got[%d] = %v, want %v", i, got[i], want[i])
		}
	}
}

func TestContainsBinarySearch(t *testing.T) {
	c := New()
	c.Load([]dbref.Dbref{30, 10, 20})
	if !c.Contains(20) {
		t.Error("20 should be found")
	}
	if c.Contains(99) {
		t.Error("99 should not be found")
	}
}

func TestLastHitShortCircuit(t *testing.T) {
	c := New()
	c.Load([]dbref.Dbref{5})
	if !c.Contains(5) {
		t.Fatal("5 should be found")
	}
	// Remove the underlying entry but leave lastHit cached; Contains
	// should still report true via the cached hit, matching the
	// original's last-hit short-circuit behavior.
	c.sorted = nil
	if !c.Contains(5) {
		t.Error("cached last hit should short-circuit even after sorted list is cleared")
	}
}

func TestAddRemove(t *testing.T) {
	c := New()
	c.Add(5)
	c.Add(3)
	c.Add(9)
	if !c.Contains(3) || !c.Contains(5) || !c.Contains(9) {
		t.Fatal("all added entries should be found")
	}
	c.Remove(5)
	if c.Contains(5) {
		t.Error("5 should be gone after Remove")
	}
}

func TestCheckerBidirectional(t *testing.T) {
	isWizard := func(d dbref.Dbref) bool { return false }
	isQuelled := func(d dbref.Dbref) bool { return false }
	c := NewChecker(isWizard, isQuelled)
	c.Bidirectional = true

	const a, b = dbref.Dbref(1), dbref.Dbref(2)
	c.CacheFor(a).Add(b) // A ignores B

	if !c.Ignores(a, b) {
		t.Error("A should ignore B directly")
	}
	if !c.Ignores(b, a) {
		t.Error("bidirectional mode should make B ignore A too")
	}
}

func TestCheckerWizardBypass(t *testing.T) {
	isWizard := func(d dbref.Dbref) bool { return d == 1 }
	isQuelled := func(d dbref.Dbref) bool { return false }
	c := NewChecker(isWizard, isQuelled)
	c.CacheFor(1).Add(2)
	if c.Ignores(1, 2) {
		t.Error("an unquelled wizard should never be recorded as ignoring anyone")
	}
}
