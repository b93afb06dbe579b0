package conn

import (
	"time"

	"github.com/fuzzball-muck/muckd/internal/dbref"
)

// WelcomeTimeout is how long an unauthenticated descriptor may sit at the
// login screen before being booted (spec 4.H).
const WelcomeTimeout = 300 * time.Second

// Manager owns the live descriptor set. Like internal/object.Arena, it is
// not safe for concurrent use — the dispatch loop is its sole owner.
type Manager struct {
	descriptors map[int]*Descriptor
	nextID      int
	nextConNum  int
	MaxDescriptor int
}

// NewManager returns an empty connection manager.
func NewManager() *Manager {
	return &Manager{descriptors: map[int]*Descriptor{}}
}

// Accept registers a newly-accepted connection and returns its descriptor.
func (m *Manager) Accept(peerHost string) *Descriptor {
	m.nextID++
	m.nextConNum++
	d := New(m.nextID, peerHost, m.nextConNum)
	m.descriptors[d.ID] = d
	if d.ID > m.MaxDescriptor {
		m.MaxDescriptor = d.ID
	}
	return d
}

// Get returns the descriptor by id, or nil.
func (m *Manager) Get(id int) *Descriptor {
	return m.descriptors[id]
}

// Remove deletes a descriptor from the live set (on EOF/boot/idle-timeout).
func (m *Manager) Remove(id int) {
	delete(m.descriptors, id)
}

// All calls fn for every live descriptor; order is map iteration order,
// matching spec 5's "between descriptors, order is the iteration order
// of the descriptor list during one dispatch pass" (a set, not a
// guaranteed sequence).
func (m *Manager) All(fn func(*Descriptor)) {
	for _, d := range m.descriptors {
		fn(d)
	}
}

// ForPlayer returns every live descriptor currently connected as player.
func (m *Manager) ForPlayer(player dbref.Dbref) []*Descriptor {
	var out []*Descriptor
	for _, d := range m.descriptors {
		if d.Player == player {
			out = append(out, d)
		}
	}
	return out
}

// CheckWelcomeTimeout boots any unauthenticated descriptor that has sat
// at the login screen for longer than WelcomeTimeout.
func (m *Manager) CheckWelcomeTimeout(now time.Time) []*Descriptor {
	var booted []*Descriptor
	for _, d := range m.descriptors {
		if d.IsConnected() {
			continue
		}
		if now.Sub(d.ConnectedAt) > WelcomeTimeout {
			d.Boot = BootWithFarewell
			booted = append(booted, d)
		}
	}
	return booted
}

// CheckIdleBoot boots connected, non-wizard descriptors idle longer than
// maxIdle, matching spec 4.H's idle-boot rule.
func (m *Manager) CheckIdleBoot(now time.Time, maxIdle time.Duration, isWizard func(d *Descriptor) bool) []*Descriptor {
	var booted []*Descriptor
	for _, d := range m.descriptors {
		if !d.IsConnected() || isWizard(d) {
			continue
		}
		if now.Sub(d.LastInput) > maxIdle {
			d.Boot = BootWithFarewell
			booted = append(booted, d)
		}
	}
	return booted
}

// CheckKeepalive returns descriptors due for a telnet NOP keepalive,
// matching spec 4.H's "now - last_ping > tp_idle_ping_time" rule.
func (m *Manager) CheckKeepalive(now time.Time, idlePingTime time.Duration) []*Descriptor {
	var due []*Descriptor
	for _, d := range m.descriptors {
		if now.Sub(d.LastPing) > idlePingTime {
			d.LastPing = now
			due = append(due, d)
		}
	}
	return due
}
