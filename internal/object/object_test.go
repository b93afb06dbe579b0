package object

import (
	"testing"

	"github.com/fuzzball-muck/muckd/internal/dbref"
)

func TestCreateAllocatesSequentialRefs(t *testing.T) {
	a := New()
	r1 := a.Create("Limbo", TypeRoom, dbref.NOTHING, dbref.NOTHING)
	r2 := a.Create("a key", TypeThing, r1.Ref, dbref.NOTHING)
	if r1.Ref != 0 || r2.Ref != 1 {
		t.Fatalf("refs = %d, %d, want 0, 1", r1.Ref, r2.Ref)
	}
	if a.Top() != 2 {
		t.Errorf("Top() = %d, want 2", a.Top())
	}
}

func TestMoveLinksContents(t *testing.T) {
	a := New()
	room := a.Create("Room", TypeRoom, dbref.NOTHING, dbref.NOTHING)
	thing := a.Create("Thing", TypeThing, dbref.NOTHING, dbref.NOTHING)

	if err := a.Move(thing.Ref, room.Ref); err != nil {
		t.Fatalf("Move: %v", err)
	}
	found := false
	a.IterContents(room.Ref, func(o *Object) bool {
		if o.Ref == thing.Ref {
			found = true
		}
		return true
	})
	if !found {
		t.Error("thing should appear in room's contents after Move")
	}
	if thing.Location != room.Ref {
		t.Errorf("thing.Location = %v, want %v", thing.Location, room.Ref)
	}
}

func TestMoveRefusesCycle(t *testing.T) {
	a := New()
	outer := a.Create("Outer", TypeThing, dbref.NOTHING, dbref.NOTHING)
	inner := a.Create("Inner", TypeThing, dbref.NOTHING, dbref.NOTHING)
	if err := a.Move(inner.Ref, outer.Ref); err != nil {
		t.Fatalf("Move inner into outer: %v", err)
	}
	if err := a.Move(outer.Ref, inner.Ref); err == nil {
		t.Error("Move(outer, inner) should fail: it would create a containment cycle")
	}
}

func TestDestroyUnlinksFromContainer(t *testing.T) {
	a := New()
	room := a.Create("Room", TypeRoom, dbref.NOTHING, dbref.NOTHING)
	thing := a.Create("Thing", TypeThing, dbref.NOTHING, dbref.NOTHING)
	_ = a.Move(thing.Ref, room.Ref)

	if err := a.Destroy(thing.Ref); err != nil {
		t.Fatalf("Destroy: %v", err)
	}
	count := 0
	a.IterContents(room.Ref, func(o *Object) bool { count++; return true })
	if count != 0 {
		t.Errorf("room should have no contents after destroying thing, got %d", count)
	}
	if a.Get(thing.Ref) != nil {
		t.Error("Get should not return a destroyed (garbage) object")
	}
}

func TestDestroyRefusesLiveProgram(t *testing.T) {
	a := New()
	prog := a.Create("a program", TypeProgram, dbref.NOTHING, dbref.NOTHING)
	prog.Program.Instances = 1
	if err := a.Destroy(prog.Ref); err == nil {
		t.Error("Destroy should refuse a program with live frames")
	}
	prog.Program.Instances = 0
	if err := a.Destroy(prog.Ref); err != nil {
		t.Errorf("Destroy should succeed once instances drop to zero: %v", err)
	}
}

func TestCreateReusesGarbageSlot(t *testing.T) {
	a := New()
	r1 := a.Create("first", TypeThing, dbref.NOTHING, dbref.NOTHING)
	_ = a.Destroy(r1.Ref)
	r2 := a.Create("second", TypeThing, dbref.NOTHING, dbref.NOTHING)
	if r2.Ref != r1.Ref {
		t.Errorf("Create should reuse garbage slot %v, got %v", r1.Ref, r2.Ref)
	}
}

func TestExitsListSeparateFromContents(t *testing.T) {
	a := New()
	room := a.Create("Room", TypeRoom, dbref.NOTHING, dbref.NOTHING)
	exit := a.Create("north", TypeExit, dbref.NOTHING, dbref.NOTHING)
	thing := a.Create("Thing", TypeThing, dbref.NOTHING, dbref.NOTHING)
	if err := a.Move(exit.Ref, room.Ref); err != nil {
		t.Fatalf("Move exit: %v", err)
	}
	if err := a.Move(thing.Ref, room.Ref); err != nil {
		t.Fatalf("Move thing: %v", err)
	}
	var contents, exits int
	a.IterContents(room.Ref, func(o *Object) bool { contents++; return true })
	a.IterExits(room.Ref, func(o *Object) bool { exits++; return true })
	if contents != 1 || exits != 1 {
		t.Errorf("contents=%d exits=%d, want 1, 1", contents, exits)
	}
}
