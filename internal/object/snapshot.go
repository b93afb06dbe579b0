package object

import (
	"encoding/gob"

	"github.com/fuzzball-muck/muckd/internal/dbref"
	"github.com/fuzzball-muck/muckd/internal/lockexpr"
	"github.com/fuzzball-muck/muckd/internal/props"
)

func init() {
	// Decoding a dump child's snapshot happens through a bare interface{}
	// (DumpChildMain reads "any" off the wire), so gob needs this type
	// registered to dispatch back to the concrete Snapshot on decode.
	gob.Register(Snapshot{})
}

// Snapshot is the gob-friendly mirror of an Arena: every field is exported
// so encoding/gob can walk it directly, unlike Object/Node/Tree themselves
// (spec §6 "Persisted state": format is implementation-defined). Compiled
// program bytecode is not part of the snapshot — the MUF compiler that
// would turn stored source back into a loaded opcode vector is out of
// scope, so a restored program object carries its Compiled flag but no
// Code, matching the documented compiler deferral.
type Snapshot struct {
	Objects []ObjectSnapshot
	Free    []dbref.Dbref
}

// ObjectSnapshot mirrors Object, flattening Properties into a path-ordered
// list and dropping fields that are runtime-only (live descriptor ids,
// the ignore cache) or opaque program bytecode.
type ObjectSnapshot struct {
	Ref   dbref.Dbref
	Name  string
	Type  Type
	Flags Flags
	MLvl  MLevel

	Owner    dbref.Dbref
	Location dbref.Dbref
	Contents dbref.Dbref
	Exits    dbref.Dbref
	Next     dbref.Dbref

	Lock  lockexpr.Boolexp
	Props []PropSnapshot

	Room   *RoomData
	Exit   *ExitData
	Thing  *ThingData
	Player *PlayerSnapshot

	ProgramCompiled bool
	IsProgram       bool
}

// PlayerSnapshot mirrors PlayerData minus its runtime-only fields
// (Descriptors, IgnoreCache), which are rebuilt by the dispatch loop as
// players reconnect rather than persisted.
type PlayerSnapshot struct {
	Password string
	Home     dbref.Dbref
}

// PropSnapshot mirrors one props.Node, addressed by its full slash path
// rather than by tree position.
type PropSnapshot struct {
	Path  string
	Type  props.Type
	Flags props.Flags
	SVal  string
	IVal  int
	FVal  float64
	DVal  dbref.Dbref
	LVal  lockexpr.Boolexp
}

// Snapshot implements diskbase.Snapshotter, producing a deep, gob-encodable
// copy of the arena for the background dumper (and for -convert/-dbout,
// via the same path).
func (a *Arena) Snapshot() any {
	snap := Snapshot{
		Objects: make([]ObjectSnapshot, 0, len(a.objects)),
		Free:    append([]dbref.Dbref(nil), a.free...),
	}
	for _, o := range a.objects {
		if o == nil {
			continue
		}
		snap.Objects = append(snap.Objects, snapshotObject(o))
	}
	return snap
}

func snapshotObject(o *Object) ObjectSnapshot {
	s := ObjectSnapshot{
		Ref:      o.Ref,
		Name:     o.Name,
		Type:     o.Type,
		Flags:    o.Flags,
		MLvl:     o.MLvl,
		Owner:    o.Owner,
		Location: o.Location,
		Contents: o.Contents,
		Exits:    o.Exits,
		Next:     o.Next,
		Lock:     o.Lock,
		Room:     o.Room,
		Exit:     o.Exit,
		Thing:    o.Thing,
	}
	if o.Properties != nil {
		o.Properties.Walk(func(dirPath string, n *props.Node) bool {
			path := n.Name()
			if dirPath != "" {
				path = dirPath + string(props.Delimiter) + n.Name()
			}
			s.Props = append(s.Props, PropSnapshot{
				Path:  path,
				Type:  n.Type(),
				Flags: n.Flags(),
				SVal:  n.StringValue(),
				IVal:  n.IntValue(),
				FVal:  n.FloatValue(),
				DVal:  n.DbrefValue(),
				LVal:  n.LockValue(),
			})
			return true
		})
	}
	if o.Player != nil {
		s.Player = &PlayerSnapshot{Password: o.Player.Password, Home: o.Player.Home}
	}
	if o.Program != nil {
		s.IsProgram = true
		s.ProgramCompiled = o.Program.Compiled
	}
	return s
}

// Restore rebuilds an Arena from a Snapshot (or the any a Snapshotter
// produced, for callers that only have the interface value).
func Restore(snap any) *Arena {
	s, ok := snap.(Snapshot)
	if !ok {
		return New()
	}
	a := &Arena{
		objects: make([]*Object, len(s.Objects)),
		free:    append([]dbref.Dbref(nil), s.Free...),
	}
	for _, os := range s.Objects {
		a.objects[os.Ref] = restoreObject(os)
	}
	return a
}

func restoreObject(os ObjectSnapshot) *Object {
	o := &Object{
		Ref:        os.Ref,
		Name:       os.Name,
		Type:       os.Type,
		Flags:      os.Flags,
		MLvl:       os.MLvl,
		Owner:      os.Owner,
		Location:   os.Location,
		Contents:   os.Contents,
		Exits:      os.Exits,
		Next:       os.Next,
		Lock:       os.Lock,
		Room:       os.Room,
		Exit:       os.Exit,
		Thing:      os.Thing,
		Properties: &props.Tree{},
	}
	for _, p := range os.Props {
		restoreProp(o.Properties, p)
	}
	if os.Player != nil {
		o.Player = &PlayerData{Password: os.Player.Password, Home: os.Player.Home}
	}
	if os.IsProgram {
		o.Program = &ProgramData{Compiled: os.ProgramCompiled}
	}
	return o
}

func restoreProp(t *props.Tree, p PropSnapshot) {
	switch p.Type {
	case props.String:
		t.SetString(p.Path, p.SVal)
	case props.Int:
		t.SetInt(p.Path, p.IVal)
	case props.Float:
		t.SetFloat(p.Path, p.FVal)
	case props.Dbref:
		t.SetDbref(p.Path, p.DVal)
	case props.Lock:
		t.SetLock(p.Path, p.LVal)
	default:
		t.EnsureDir(p.Path, p.Flags)
		return
	}
	t.Locate(p.Path).SetFlags(p.Flags)
}
