package notify

import (
	"testing"

	"github.com/fuzzball-muck/muckd/internal/conn"
	"github.com/fuzzball-muck/muckd/internal/dbref"
	"github.com/fuzzball-muck/muckd/internal/ignore"
	"github.com/fuzzball-muck/muckd/internal/object"
	"github.com/fuzzball-muck/muckd/internal/queue"
)

type fakeWorld struct {
	arena *object.Arena
	conns *conn.Manager
	ign   *ignore.Checker
}

func newFakeWorld() *fakeWorld {
	a := object.New()
	isWizard := func(d dbref.Dbref) bool {
		o := a.Get(d)
		return o != nil && o.HasFlag(object.FlagWizard)
	}
	isQuelled := func(dbref.Dbref) bool { return false }
	return &fakeWorld{arena: a, conns: conn.NewManager(), ign: ignore.NewChecker(isWizard, isQuelled)}
}

func (w *fakeWorld) Arena() *object.Arena         { return w.arena }
func (w *fakeWorld) Conns() *conn.Manager         { return w.conns }
func (w *fakeWorld) Ignores() *ignore.Checker     { return w.ign }
func (w *fakeWorld) AnsiPolicyFor(dbref.Dbref) AnsiPolicy { return AnsiPassthrough }

func TestNotifyNolistenDeliversToEveryDescriptor(t *testing.T) {
	w := newFakeWorld()
	player := w.arena.Create("Alice", object.TypePlayer, dbref.NOTHING, dbref.NOTHING)
	d1 := w.conns.Accept("127.0.0.1")
	d1.Connect(player.Ref)
	d2 := w.conns.Accept("127.0.0.1")
	d2.Connect(player.Ref)

	NotifyNolisten(w, player.Ref, "hello", false)

	for _, d := range []*conn.Descriptor{d1, d2} {
		if len(d.Output) != 1 || string(d.Output[0]) != "hello\r\n" {
			t.Errorf("descriptor %d output = %v, want [hello\\r\\n]", d.ID, d.Output)
		}
	}
}

func TestNotifyNolistenRoutesZombieToOwner(t *testing.T) {
	w := newFakeWorld()
	owner := w.arena.Create("Bob", object.TypePlayer, dbref.NOTHING, dbref.NOTHING)
	zombie := w.arena.Create("Fido", object.TypeThing, owner.Ref, dbref.NOTHING)
	zombie.SetFlag(object.FlagZombie, true)
	zombie.Location = 999 // different room than owner so co-location suppression doesn't fire
	d := w.conns.Accept("127.0.0.1")
	d.Connect(owner.Ref)

	NotifyNolisten(w, zombie.Ref, "woof", true)

	if len(d.Output) != 1 || string(d.Output[0]) != "Fido> woof\r\n" {
		t.Errorf("owner output = %v, want [Fido> woof]", d.Output)
	}
}

func TestNotifyFilteredDropsWhenIgnored(t *testing.T) {
	w := newFakeWorld()
	speaker := w.arena.Create("Speaker", object.TypePlayer, dbref.NOTHING, dbref.NOTHING)
	listener := w.arena.Create("Listener", object.TypePlayer, dbref.NOTHING, dbref.NOTHING)
	w.ign.CacheFor(listener.Ref).Load([]dbref.Dbref{speaker.Ref})

	d := w.conns.Accept("127.0.0.1")
	d.Connect(listener.Ref)

	NotifyFiltered(w, speaker.Ref, listener.Ref, "hi", false)

	if len(d.Output) != 0 {
		t.Errorf("ignored speaker's message should be dropped, got %v", d.Output)
	}
}

func TestNotifyExceptSkipsException(t *testing.T) {
	w := newFakeWorld()
	room := w.arena.Create("Room", object.TypeRoom, dbref.NOTHING, dbref.NOTHING)
	a1 := w.arena.Create("A", object.TypePlayer, dbref.NOTHING, room.Ref)
	a2 := w.arena.Create("B", object.TypePlayer, dbref.NOTHING, room.Ref)
	w.arena.Move(a1.Ref, room.Ref)
	w.arena.Move(a2.Ref, room.Ref)

	d1 := w.conns.Accept("127.0.0.1")
	d1.Connect(a1.Ref)
	d2 := w.conns.Accept("127.0.0.1")
	d2.Connect(a2.Ref)

	q := queue.New()
	NotifyExcept(w, q, room.Ref, a1.Ref, "noise", a1.Ref)

	if len(d1.Output) != 0 {
		t.Error("the exception should not receive its own echoed message")
	}
	if len(d2.Output) != 1 {
		t.Errorf("the other occupant should receive the message, got %v", d2.Output)
	}
}
