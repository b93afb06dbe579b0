// Package notify implements the notification fabric (spec 4.J): the five
// entry points that turn "send this message to that player/room" into
// queued descriptor output, respecting ignore lists, ANSI policy, zombie/
// vehicle prefixing, and listener propqueues.
//
// Grounded on original_source/src/interface.c's notify_nolisten/
// notify_filtered/notify_from_echo/notify_listeners/notify_except chain;
// ANSI stripping uses charmbracelet/x/ansi the way the teacher's Bubble
// Tea stack pulls that module in for terminal rendering (SPEC_FULL.md
// DOMAIN STACK).
package notify

import (
	"fmt"

	"github.com/charmbracelet/x/ansi"

	"github.com/fuzzball-muck/muckd/internal/conn"
	"github.com/fuzzball-muck/muckd/internal/dbref"
	"github.com/fuzzball-muck/muckd/internal/ignore"
	"github.com/fuzzball-muck/muckd/internal/object"
	"github.com/fuzzball-muck/muckd/internal/queue"
)

// AnsiPolicy is a recipient's ANSI display preference, read from their
// ansi-policy property by World before calling into this package.
type AnsiPolicy int

const (
	AnsiStrip AnsiPolicy = iota
	AnsiPassthrough
)

// World supplies the object-model and policy queries this package needs
// without importing internal/dispatch (which owns World and would create
// a cycle back to notify).
type World interface {
	Arena() *object.Arena
	Conns() *conn.Manager
	Ignores() *ignore.Checker
	AnsiPolicyFor(player dbref.Dbref) AnsiPolicy
}

// render applies the recipient's ANSI policy to msg.
func render(w World, recipient dbref.Dbref, msg string) string {
	if w.AnsiPolicyFor(recipient) == AnsiStrip {
		return ansi.Strip(msg)
	}
	return msg
}

// deliver queues msg on every descriptor currently logged in as player.
func deliver(w World, player dbref.Dbref, msg string) {
	rendered := render(w, player, msg) + "\r\n"
	for _, d := range w.Conns().ForPlayer(player) {
		d.QueueOutput([]byte(rendered))
	}
}

// zombieSuppressed implements the ZOMBIE suppression rules: a dark zombie
// or owner, or a non-private message while the owner is co-located. The
// zombie's room is not checked for a no-puppets setting.
func zombieSuppressed(w World, zombie, owner dbref.Dbref, isprivate bool) bool {
	a := w.Arena()
	z := a.Get(zombie)
	o := a.Get(owner)
	if z == nil || o == nil {
		return false
	}
	if z.HasFlag(object.FlagDark) || o.HasFlag(object.FlagDark) {
		return true
	}
	if !isprivate && z.Location == o.Location {
		return true
	}
	return false
}

// NotifyNolisten enqueues msg to every one of player's descriptors; if
// player is a puppeted ZOMBIE thing, it instead (subject to suppression)
// routes the message to the owner prefixed with the zombie's name,
// matching notify_nolisten.
func NotifyNolisten(w World, player dbref.Dbref, msg string, isprivate bool) {
	a := w.Arena()
	o := a.Get(player)
	if o == nil {
		return
	}
	if o.Type == object.TypeThing && o.HasFlag(object.FlagZombie) {
		if zombieSuppressed(w, player, o.Owner, isprivate) {
			return
		}
		deliver(w, o.Owner, fmt.Sprintf("%s> %s", o.Name, msg))
		return
	}
	deliver(w, player, msg)
}

// NotifyFiltered drops msg if player is ignoring from, otherwise
// delegates to NotifyNolisten, matching notify_filtered.
func NotifyFiltered(w World, from, player dbref.Dbref, msg string, isprivate bool) {
	if w.Ignores().Ignores(player, from) {
		return
	}
	NotifyNolisten(w, player, msg, isprivate)
}

// NotifyFromEcho is NotifyFiltered plus listener propqueue dispatch on
// target and, for vehicles, an "Outside>" rebroadcast to the vehicle's
// contents, matching notify_from_echo.
func NotifyFromEcho(w World, q *queue.Queue, from, target dbref.Dbref, msg string, isprivate bool) {
	NotifyFiltered(w, from, target, msg, isprivate)
	QueueListenerPropqueues(w, q, from, target, target, msg)

	a := w.Arena()
	t := a.Get(target)
	if t == nil || !t.HasFlag(object.FlagVehicle) {
		return
	}
	if isprivate && t.Location == from {
		return
	}
	outside := fmt.Sprintf("Outside> %s", msg)
	a.IterContents(target, func(o *object.Object) bool {
		NotifyFromEcho(w, q, from, o.Ref, outside, false)
		return true
	})
}

// QueueListenerPropqueues enqueues a Listen-kind time-queue event for
// obj's _listen/~listen/_olisten propqueues, matching notify_listeners'
// "runs LISTEN/WLISTEN/WOLISTEN propqueues" step. The dispatch loop pops
// these and, if obj actually carries a matching listener program, runs
// it via the interpreter; this package only needs to schedule the
// trigger, not execute MUF itself.
func QueueListenerPropqueues(w World, q *queue.Queue, from, obj, room dbref.Dbref, msg string) {
	a := w.Arena()
	o := a.Get(obj)
	if o == nil {
		return
	}
	q.Enqueue(&queue.Event{
		FireTime: 0,
		Kind:     queue.Listen,
		Trigger:  from,
		Player:   obj,
		Name:     msg,
		Payload:  room,
	})
}

// NotifyListeners runs obj's listener propqueues then delegates to
// NotifyFromEcho; vehicles additionally rebroadcast, matching
// notify_listeners.
func NotifyListeners(w World, q *queue.Queue, who, prog, obj, room dbref.Dbref, msg string, isprivate bool) {
	QueueListenerPropqueues(w, q, who, obj, room, msg)
	NotifyFromEcho(w, q, who, obj, msg, isprivate)
}

// NotifyExcept iterates location's contents (skipping exception), pumping
// each through NotifyFromEcho, then notifies the location object itself,
// matching notify_except.
func NotifyExcept(w World, q *queue.Queue, location, exception dbref.Dbref, msg string, who dbref.Dbref) {
	a := w.Arena()
	a.IterContents(location, func(o *object.Object) bool {
		if o.Ref == exception {
			return true
		}
		NotifyFromEcho(w, q, who, o.Ref, msg, false)
		return true
	})
	if location != exception {
		NotifyFromEcho(w, q, who, location, msg, false)
	}
}

// Tell sends msg privately to player, the basis for MUF's TELL/NOTIFY.
func Tell(w World, player dbref.Dbref, msg string) {
	NotifyFiltered(w, player, player, msg, true)
}

// NotifySecure sends secure to encrypted (TLS) descriptors and plain to
// the rest of player's connections, matching NOTIFY_SECURE; it also
// triggers listener propqueues once regardless of which text a given
// descriptor received.
func NotifySecure(w World, q *queue.Queue, plain, secure string, player dbref.Dbref) {
	for _, d := range w.Conns().ForPlayer(player) {
		msg := plain
		if d.TLSConn != nil {
			msg = secure
		}
		d.QueueOutput([]byte(render(w, player, msg) + "\r\n"))
	}
	QueueListenerPropqueues(w, q, player, player, player, plain)
}

// Otell emits msg to everyone in self's location except self, matching
// OTELL ("tell others").
func Otell(w World, q *queue.Queue, self dbref.Dbref, msg string) {
	a := w.Arena()
	o := a.Get(self)
	if o == nil {
		return
	}
	NotifyExcept(w, q, o.Location, self, msg, self)
}
