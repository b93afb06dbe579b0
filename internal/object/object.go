// Package object implements the object arena: a dbref-indexed table of
// every room, thing, exit, player, and program in the database, along with
// the contents/exits/next linked lists that tie them into the containment
// graph (spec 4.A).
//
// The arena's exclusive-owner discipline — one goroutine mutates the
// table, everyone else reads through its accessor methods — mirrors the
// way internal/vm/pool_linux.go's Pool owns its instance map and ready
// channel; here the "pool" is the live object table and the "pool owner"
// is the dispatch loop (internal/dispatch).
package object

import (
	"fmt"

	"github.com/fuzzball-muck/muckd/internal/dbref"
	"github.com/fuzzball-muck/muckd/internal/lockexpr"
	"github.com/fuzzball-muck/muckd/internal/props"
)

// Type is the object's kind.
type Type int

const (
	TypeRoom Type = iota
	TypeThing
	TypeExit
	TypePlayer
	TypeProgram
	TypeGarbage
)

func (t Type) String() string {
	switch t {
	case TypeRoom:
		return "room"
	case TypeThing:
		return "thing"
	case TypeExit:
		return "exit"
	case TypePlayer:
		return "player"
	case TypeProgram:
		return "program"
	case TypeGarbage:
		return "garbage"
	default:
		return "unknown"
	}
}

// Flags are the generic bit flags every object carries, independent of type.
type Flags uint32

const (
	FlagDark Flags = 1 << iota
	FlagLinkOK
	FlagXForcible
	FlagZombie
	FlagVehicle
	FlagWizard
	FlagInteractive
	FlagReadMode
	FlagQuell
	FlagChownOK
	FlagJumpOK
	FlagSticky
	FlagAbode
	FlagHaven
	FlagGuest
	FlagDirty // needs writing by the next dump
)

// MLevel is a MUCKER level, spanning from 0 (non-programmer) up to
// wizard-equivalent; stored separately from Flags because it's a small
// range rather than a single bit.
type MLevel int

const (
	MLevelNone MLevel = iota
	MLevelApprentice
	MLevelJourneyman
	MLevelMaster
	MLevelWizard
)

// RoomData holds the fields specific to TypeRoom.
type RoomData struct {
	Dropto dbref.Dbref
}

// ExitData holds the fields specific to TypeExit.
type ExitData struct {
	Destinations []dbref.Dbref
}

// PlayerData holds the fields specific to TypePlayer.
type PlayerData struct {
	Password     string // salted hash, never the plaintext
	Home         dbref.Dbref
	Descriptors  []int // connection ids currently logged in as this player
	IgnoreCache  any   // *ignore.Cache; opaque here to avoid an import cycle
}

// ThingData holds the fields specific to TypeThing (including zombies,
// which are things with FlagZombie set).
type ThingData struct {
	Home dbref.Dbref
}

// ProgramData holds the fields specific to TypeProgram. Code and LocalVars
// are opaque (*interp.Program and []value.Value respectively)
// because internal/muf/* imports internal/object to read property and
// arena state; storing concrete muf types here would create an import
// cycle, so the interpreter type-asserts them back on use.
type ProgramData struct {
	Instances int // live frames currently executing this program
	Compiled  bool
	Code      any
	LocalVars any
}

// Object is one entry in the arena.
type Object struct {
	Ref   dbref.Dbref
	Name  string
	Type  Type
	Flags Flags
	MLvl  MLevel

	Owner    dbref.Dbref
	Location dbref.Dbref

	// Contents/Exits/Next thread this object into the containment graph:
	// Contents is the head of the list of objects located here, Exits is
	// the head of the list of exits attached here, and Next links this
	// object to its siblings in its container's Contents (or Exits) list.
	Contents dbref.Dbref
	Exits    dbref.Dbref
	Next     dbref.Dbref

	Lock lockexpr.Boolexp
	Properties *props.Tree

	Room    *RoomData
	Exit    *ExitData
	Player  *PlayerData
	Thing   *ThingData
	Program *ProgramData
}

// HasFlag reports whether o carries flag.
func (o *Object) HasFlag(flag Flags) bool { return o.Flags&flag != 0 }

// SetFlag sets or clears flag on o.
func (o *Object) SetFlag(flag Flags, on bool) {
	if on {
		o.Flags |= flag
	} else {
		o.Flags &^= flag
	}
}

// Arena is the dbref-indexed object table. It is not safe for concurrent
// use; callers serialize access through the dispatch loop the way Pool
// serializes access to its instance map.
type Arena struct {
	objects []*Object
	free    []dbref.Dbref // garbage slots available for reuse
}

// New returns an empty arena.
func New() *Arena {
	return &Arena{}
}

// Top returns one past the highest dbref ever allocated, i.e. db_top.
func (a *Arena) Top() dbref.Dbref {
	return dbref.Dbref(len(a.objects))
}

// Get returns the object at ref, or nil if ref is out of range or garbage.
func (a *Arena) Get(ref dbref.Dbref) *Object {
	if ref < 0 || int(ref) >= len(a.objects) {
		return nil
	}
	o := a.objects[ref]
	if o == nil || o.Type == TypeGarbage {
		return nil
	}
	return o
}

// GetRaw returns the object at ref even if it is garbage, or nil if ref is
// out of range — used by the dumper and @recycle bookkeeping, which must
// see garbage slots.
func (a *Arena) GetRaw(ref dbref.Dbref) *Object {
	if ref < 0 || int(ref) >= len(a.objects) {
		return nil
	}
	return a.objects[ref]
}

// Create allocates a new object, reusing a garbage slot if one is free,
// otherwise appending a fresh dbref (matching new_object's free-list-first
// allocation policy).
func (a *Arena) Create(name string, typ Type, owner, location dbref.Dbref) *Object {
	o := &Object{
		Name:       name,
		Type:       typ,
		Owner:      owner,
		Location:   location,
		Contents:   dbref.NOTHING,
		Exits:      dbref.NOTHING,
		Next:       dbref.NOTHING,
		Lock:       *lockexpr.TrueLock,
		Properties: &props.Tree{},
	}
	switch typ {
	case TypeRoom:
		o.Room = &RoomData{Dropto: dbref.NOTHING}
	case TypeExit:
		o.Exit = &ExitData{}
	case TypePlayer:
		o.Player = &PlayerData{Home: location}
	case TypeThing:
		o.Thing = &ThingData{Home: location}
	case TypeProgram:
		o.Program = &ProgramData{}
	}
	if n := len(a.free); n > 0 {
		ref := a.free[n-1]
		a.free = a.free[:n-1]
		o.Ref = ref
		a.objects[ref] = o
		return o
	}
	o.Ref = dbref.Dbref(len(a.objects))
	a.objects = append(a.objects, o)
	return o
}

// Destroy recycles ref into garbage: unlinks it from its container's
// Contents/Exits list, clears its own Contents/Exits (its own contents are
// each destroy's caller's responsibility to relocate first — the arena
// does not do that implicitly, matching the original engine's "empty a
// room before recycling it" convention), and marks the slot reusable.
//
// Destroy refuses to recycle a live TypeProgram with outstanding frames,
// per spec 4.A/4.F ("destroying a program with live frames fails").
func (a *Arena) Destroy(ref dbref.Dbref) error {
	o := a.Get(ref)
	if o == nil {
		return fmt.Errorf("object: destroy %s: no such object", ref)
	}
	if o.Type == TypeProgram && o.Program != nil && o.Program.Instances > 0 {
		return fmt.Errorf("object: destroy %s: program has %d live frame(s)", ref, o.Program.Instances)
	}
	if loc := a.Get(o.Location); loc != nil {
		a.unlink(loc, ref, o.Type == TypeExit)
	}
	o.Type = TypeGarbage
	o.Contents = dbref.NOTHING
	o.Exits = dbref.NOTHING
	o.Next = dbref.NOTHING
	o.Location = dbref.NOTHING
	a.free = append(a.free, ref)
	return nil
}

func (a *Arena) unlink(container *Object, ref dbref.Dbref, isExit bool) {
	head := &container.Contents
	if isExit {
		head = &container.Exits
	}
	if *head == ref {
		*head = a.Get(ref).Next
		return
	}
	cur := a.Get(*head)
	for cur != nil {
		if cur.Next == ref {
			cur.Next = a.Get(ref).Next
			return
		}
		cur = a.Get(cur.Next)
	}
}

// Move relocates ref into dest's Contents list (or Exits list, for an
// exit being attached to a source room). It refuses moves that would
// create a containment cycle (ref located, directly or transitively,
// inside itself), per spec 4.A.
func (a *Arena) Move(ref, dest dbref.Dbref) error {
	o := a.Get(ref)
	if o == nil {
		return fmt.Errorf("object: move %s: no such object", ref)
	}
	if dest != dbref.NOTHING {
		destObj := a.Get(dest)
		if destObj == nil {
			return fmt.Errorf("object: move %s: destination %s does not exist", ref, dest)
		}
		if a.wouldCycle(ref, dest) {
			return fmt.Errorf("object: move %s into %s: would create a containment cycle", ref, dest)
		}
	}
	if old := a.Get(o.Location); old != nil {
		a.unlink(old, ref, o.Type == TypeExit)
	}
	o.Location = dest
	if dest != dbref.NOTHING {
		destObj := a.Get(dest)
		if o.Type == TypeExit {
			o.Next = destObj.Exits
			destObj.Exits = ref
		} else {
			o.Next = destObj.Contents
			destObj.Contents = ref
		}
	}
	return nil
}

// wouldCycle reports whether placing ref inside dest would make ref its
// own (possibly indirect) container.
func (a *Arena) wouldCycle(ref, dest dbref.Dbref) bool {
	seen := map[dbref.Dbref]bool{}
	cur := dest
	for cur != dbref.NOTHING && cur.Valid(a.Top()) {
		if cur == ref {
			return true
		}
		if seen[cur] {
			return false // pre-existing cycle elsewhere; not this call's problem
		}
		seen[cur] = true
		o := a.Get(cur)
		if o == nil {
			return false
		}
		cur = o.Location
	}
	return false
}

// IterContents calls fn for every object directly inside container, in
// Contents-list order, stopping early if fn returns false.
func (a *Arena) IterContents(container dbref.Dbref, fn func(*Object) bool) {
	o := a.Get(container)
	if o == nil {
		return
	}
	for cur := a.Get(o.Contents); cur != nil; cur = a.Get(cur.Next) {
		if !fn(cur) {
			return
		}
	}
}

// IterExits calls fn for every exit attached to room, in Exits-list order,
// stopping early if fn returns false.
func (a *Arena) IterExits(room dbref.Dbref, fn func(*Object) bool) {
	o := a.Get(room)
	if o == nil {
		return
	}
	for cur := a.Get(o.Exits); cur != nil; cur = a.Get(cur.Next) {
		if !fn(cur) {
			return
		}
	}
}

// IsObject implements lockexpr.Evaluator.
func (a *Arena) IsObject(actor, target dbref.Dbref) bool { return actor == target }

// Carries implements lockexpr.Evaluator.
func (a *Arena) Carries(actor, target dbref.Dbref) bool {
	found := false
	a.IterContents(actor, func(o *Object) bool {
		if o.Ref == target {
			found = true
			return false
		}
		return true
	})
	return found
}

// OwnerOf implements lockexpr.Evaluator.
func (a *Arena) OwnerOf(target dbref.Dbref) dbref.Dbref {
	if o := a.Get(target); o != nil {
		return o.Owner
	}
	return dbref.NOTHING
}

// HasFlag implements lockexpr.Evaluator by name — only the handful of
// flag names spec.md's lock grammar actually exercises (WIZARD, DARK,
// ZOMBIE, VEHICLE) are recognized; anything else reports false.
func (a *Arena) HasFlag(actor dbref.Dbref, flag string) bool {
	o := a.Get(actor)
	if o == nil {
		return false
	}
	switch flag {
	case "WIZARD":
		return o.HasFlag(FlagWizard)
	case "DARK":
		return o.HasFlag(FlagDark)
	case "ZOMBIE":
		return o.HasFlag(FlagZombie)
	case "VEHICLE":
		return o.HasFlag(FlagVehicle)
	default:
		return false
	}
}

// PropValue implements lockexpr.Evaluator.
func (a *Arena) PropValue(actor dbref.Dbref, name string) (string, bool) {
	o := a.Get(actor)
	if o == nil {
		return "", false
	}
	n := o.Properties.Locate(name)
	if n == nil || n.IsDir() {
		return "", false
	}
	switch n.Type() {
	case props.String:
		return n.StringValue(), true
	case props.Int:
		return fmt.Sprintf("%d", n.IntValue()), true
	case props.Float:
		return fmt.Sprintf("%g", n.FloatValue()), true
	case props.Dbref:
		return n.DbrefValue().String(), true
	default:
		return "", false
	}
}

// RunLockProgram implements lockexpr.Evaluator. Actually invoking a MUF
// program from here would require importing internal/muf/interp, which
// imports internal/object to read the call target's properties — a cycle.
// interp.NewLockEvaluator instead builds an Evaluator embedding *Arena
// plus a RunLockProgram that runs the program; this default rejects the
// eval lock so the arena's Evaluator remains usable standalone in tests.
func (a *Arena) RunLockProgram(prog, actor dbref.Dbref) bool { return false }
