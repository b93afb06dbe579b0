package conn

import (
	"testing"
	"time"

	"github.com/fuzzball-muck/muckd/internal/dbref"
)

func TestAcceptAssignsDistinctIDs(t *testing.T) {
	m := NewManager()
	a := m.Accept("127.0.0.1")
	b := m.Accept("127.0.0.1")
	if a.ID == b.ID {
		t.Fatal("descriptors must get distinct ids")
	}
	if m.Get(a.ID) != a || m.Get(b.ID) != b {
		t.Error("Get should return the same descriptors Accept handed back")
	}
}

func TestRemoveDropsDescriptor(t *testing.T) {
	m := NewManager()
	d := m.Accept("127.0.0.1")
	m.Remove(d.ID)
	if m.Get(d.ID) != nil {
		t.Error("a removed descriptor should no longer be reachable")
	}
}

func TestForPlayerFiltersByConnectedPlayer(t *testing.T) {
	m := NewManager()
	a := m.Accept("127.0.0.1")
	b := m.Accept("127.0.0.1")
	a.Connect(dbref.Dbref(7))
	b.Connect(dbref.Dbref(8))

	got := m.ForPlayer(dbref.Dbref(7))
	if len(got) != 1 || got[0] != a {
		t.Errorf("ForPlayer(7) = %v, want just the descriptor connected as 7", got)
	}
}

func TestCheckWelcomeTimeoutBootsStaleLogin(t *testing.T) {
	m := NewManager()
	d := m.Accept("127.0.0.1")
	d.ConnectedAt = time.Now().Add(-WelcomeTimeout - time.Second)

	booted := m.CheckWelcomeTimeout(time.Now())
	if len(booted) != 1 || booted[0] != d {
		t.Fatalf("expected %v to be booted for sitting past the welcome timeout", d.ID)
	}
	if d.Boot != BootWithFarewell {
		t.Errorf("Boot = %v, want BootWithFarewell", d.Boot)
	}
}

func TestCheckWelcomeTimeoutSparesConnectedDescriptor(t *testing.T) {
	m := NewManager()
	d := m.Accept("127.0.0.1")
	d.Connect(dbref.Dbref(1))
	d.ConnectedAt = time.Now().Add(-WelcomeTimeout - time.Second)

	booted := m.CheckWelcomeTimeout(time.Now())
	if len(booted) != 0 {
		t.Error("a logged-in descriptor must never be welcome-timed-out")
	}
}

func TestCheckIdleBootSparesWizards(t *testing.T) {
	m := NewManager()
	d := m.Accept("127.0.0.1")
	d.Connect(dbref.Dbref(1))
	d.LastInput = time.Now().Add(-time.Hour)

	isWizard := func(d *Descriptor) bool { return d.Player == dbref.Dbref(1) }
	booted := m.CheckIdleBoot(time.Now(), time.Minute, isWizard)
	if len(booted) != 0 {
		t.Error("a wizard's descriptor must never be idle-booted")
	}
}

func TestCheckIdleBootBootsIdleNonWizard(t *testing.T) {
	m := NewManager()
	d := m.Accept("127.0.0.1")
	d.Connect(dbref.Dbref(2))
	d.LastInput = time.Now().Add(-time.Hour)

	isWizard := func(*Descriptor) bool { return false }
	booted := m.CheckIdleBoot(time.Now(), time.Minute, isWizard)
	if len(booted) != 1 || booted[0] != d {
		t.Fatal("an idle non-wizard descriptor should be boot-flagged")
	}
}

func TestCheckKeepaliveUpdatesLastPing(t *testing.T) {
	m := NewManager()
	d := m.Accept("127.0.0.1")
	d.LastPing = time.Now().Add(-time.Minute)

	due := m.CheckKeepalive(time.Now(), time.Second)
	if len(due) != 1 || due[0] != d {
		t.Fatal("descriptor overdue for a keepalive should be returned")
	}
	if time.Since(d.LastPing) > time.Second {
		t.Error("CheckKeepalive should refresh LastPing for descriptors it returns")
	}
}
