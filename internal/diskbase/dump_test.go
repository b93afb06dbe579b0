package diskbase

import (
	"os/exec"
	"syscall"
	"testing"
)

func TestHandleExitSuccess(t *testing.T) {
	d := NewDumper()
	d.running = true
	d.pid = 1

	cmd := exec.Command("/bin/true")
	err := cmd.Run()
	if err != nil {
		t.Skipf("no /bin/true on this system: %v", err)
	}
	ws := cmd.ProcessState.Sys().(syscall.WaitStatus)
	d.HandleExit(ws)

	if d.Running() {
		t.Error("Running() should be false once HandleExit has observed the exit")
	}
	select {
	case outcome := <-d.Done:
		if outcome != nil {
			t.Errorf("Done outcome = %v, want nil for a clean exit", outcome)
		}
	default:
		t.Fatal("Done should have an outcome queued")
	}
}

func TestHandleExitFailure(t *testing.T) {
	d := NewDumper()
	d.running = true
	d.pid = 1

	cmd := exec.Command("/bin/false")
	err := cmd.Run()
	exitErr, ok := err.(*exec.ExitError)
	if !ok {
		t.Skipf("no /bin/false on this system: %v", err)
	}
	ws := exitErr.Sys().(syscall.WaitStatus)
	d.HandleExit(ws)

	select {
	case outcome := <-d.Done:
		if outcome == nil {
			t.Error("Done outcome should be non-nil for a nonzero exit (spec 4.C: reported as a warning)")
		}
	default:
		t.Fatal("Done should have an outcome queued")
	}
}

func TestPidReportsNoneWhenIdle(t *testing.T) {
	d := NewDumper()
	if _, running := d.Pid(); running {
		t.Error("a fresh Dumper should report no child running")
	}
}
