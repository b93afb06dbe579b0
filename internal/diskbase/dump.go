package diskbase

import (
	"bytes"
	"encoding/gob"
	"fmt"
	"os"
	"os/exec"
	"os/signal"
	"sync"
	"syscall"

	"golang.org/x/sys/unix"
)

// DumpChildFlag is the hidden CLI flag cmd/muckd recognizes to run as a
// dump child instead of the normal server (spec §4.C: "forking: the
// parent continues serving while the child walks the object arena
// writing a new database file"). It is not part of the documented CLI
// surface in spec §6 — it exists only so this process can re-exec
// itself as the writer, since Go has no portable fork().
const DumpChildFlag = "-dump-child"

// Snapshotter supplies the copy-on-write snapshot the dump walks. Callers
// (internal/dispatch) give the world's arena a Snapshot method that deep-
// copies everything reachable rather than sharing live state, so the
// writer never observes (or corrupts) an in-progress mutation — this is
// the documented substitute for fork()'s copy-on-write address space
// (DESIGN.md Open Question (a)).
type Snapshotter interface {
	Snapshot() any
}

// Dumper owns the lifecycle of at most one in-flight dump child.
type Dumper struct {
	mu      sync.Mutex
	cmd     *exec.Cmd
	pid     int
	running bool
	outPath string

	// Done is sent the dump's outcome once the child has been reaped.
	Done chan error
}

// NewDumper returns a Dumper with no in-flight child.
func NewDumper() *Dumper {
	return &Dumper{Done: make(chan error, 1)}
}

// Running reports whether a dump child is currently in flight.
func (d *Dumper) Running() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.running
}

// Start snapshots src and spawns a dump child to write it to outPath.
// It returns immediately; the dispatch loop's dump completes once the
// reaper observes the child's exit via SIGCHLD and calls HandleExit.
func (d *Dumper) Start(src Snapshotter, outPath string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.running {
		return fmt.Errorf("diskbase: dump already in progress")
	}

	var buf bytes.Buffer
	// Encode through a pointer to the interface so gob sends the value as
	// an interface, which DumpChildMain's decode into "any" requires.
	snap := src.Snapshot()
	if err := gob.NewEncoder(&buf).Encode(&snap); err != nil {
		return fmt.Errorf("diskbase: encode snapshot: %w", err)
	}
	tmpIn, err := os.CreateTemp("", "muckd-dump-in-*")
	if err != nil {
		return fmt.Errorf("diskbase: create snapshot temp file: %w", err)
	}
	if _, err := tmpIn.Write(buf.Bytes()); err != nil {
		tmpIn.Close()
		return fmt.Errorf("diskbase: write snapshot temp file: %w", err)
	}
	tmpIn.Close()

	self, err := os.Executable()
	if err != nil {
		return fmt.Errorf("diskbase: resolve self path: %w", err)
	}

	cmd := exec.Command(self, DumpChildFlag, tmpIn.Name(), outPath)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	// The dump child installs its own distinct signal mask (SIGPIPE/
	// SIGHUP/SIGCHLD ignored, SIGSEGV default) on DumpChildMain entry;
	// here we only need its own process group so a Ctrl-C delivered to
	// the parent's group doesn't also kill a dump mid-write.
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}

	if err := cmd.Start(); err != nil {
		os.Remove(tmpIn.Name())
		return fmt.Errorf("diskbase: start dump child: %w", err)
	}

	d.cmd = cmd
	d.pid = cmd.Process.Pid
	d.running = true
	d.outPath = outPath
	return nil
}

// Pid returns the dump child's pid and whether one is in flight, for the
// dispatch loop's SIGCHLD reaper to match against.
func (d *Dumper) Pid() (int, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.pid, d.running
}

// HandleExit is called by the reaper once Wait4 reports the dump child's
// pid has exited, with the wait status it observed. A non-zero,
// non-signal-zero exit is "panic during save" (spec §4.C): the old
// snapshot file is left untouched and the outcome is reported as a
// warning rather than propagated as a fatal error.
func (d *Dumper) HandleExit(ws syscall.WaitStatus) {
	d.mu.Lock()
	d.running = false
	d.pid = 0
	d.mu.Unlock()

	var err error
	switch {
	case ws.Exited() && ws.ExitStatus() == 0:
		err = nil
	case ws.Exited():
		err = fmt.Errorf("diskbase: dump child exited %d", ws.ExitStatus())
	case ws.Signaled():
		err = fmt.Errorf("diskbase: dump child killed by signal %v", ws.Signal())
	default:
		err = fmt.Errorf("diskbase: dump child exited abnormally")
	}
	select {
	case d.Done <- err:
	default:
	}
}

// Kill forcibly terminates an in-flight dump child and its process
// group. The signal handlers in internal/cmd do not call it.
func (d *Dumper) Kill() error {
	d.mu.Lock()
	pid := d.pid
	running := d.running
	d.mu.Unlock()
	if !running {
		return nil
	}
	return unix.Kill(-pid, unix.SIGKILL)
}

// DumpChildMain is the entry point cmd/muckd dispatches to when invoked
// with DumpChildFlag: decode the snapshot tmpIn holds and write it to
// outPath. It installs the distinct signal mask spec §4.C describes
// before doing any work, so a crash here is visible (default SIGSEGV
// disposition) rather than silently corrupting the parent.
func DumpChildMain(tmpIn, outPath string, writeSnapshot func(any, *os.File) error) int {
	signal.Ignore(unix.SIGPIPE, unix.SIGHUP, unix.SIGCHLD)

	in, err := os.Open(tmpIn)
	if err != nil {
		fmt.Fprintln(os.Stderr, "dump child: open snapshot:", err)
		return 1
	}
	defer in.Close()
	defer os.Remove(tmpIn)

	var snapshot any
	if err := gob.NewDecoder(in).Decode(&snapshot); err != nil {
		fmt.Fprintln(os.Stderr, "dump child: decode snapshot:", err)
		return 1
	}

	tmp := outPath + ".new"
	out, err := os.Create(tmp)
	if err != nil {
		fmt.Fprintln(os.Stderr, "dump child: create output:", err)
		return 1
	}
	if err := writeSnapshot(snapshot, out); err != nil {
		out.Close()
		fmt.Fprintln(os.Stderr, "dump child: write:", err)
		return 1
	}
	if err := out.Close(); err != nil {
		fmt.Fprintln(os.Stderr, "dump child: close:", err)
		return 1
	}
	if err := os.Rename(tmp, outPath); err != nil {
		fmt.Fprintln(os.Stderr, "dump child: rename:", err)
		return 1
	}
	return 0
}
