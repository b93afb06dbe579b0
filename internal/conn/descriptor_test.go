package conn

import (
	"testing"

	"github.com/fuzzball-muck/muckd/internal/dbref"
)

func TestFeedInputAssemblesLines(t *testing.T) {
	d := New(1, "127.0.0.1", 1)
	d.FeedInput([]byte("look\r\n"))
	line, ok := d.NextLine()
	if !ok {
		t.Fatal("expected a completed line")
	}
	if string(line) != "look" {
		t.Errorf("line = %q, want %q", line, "look")
	}
	if d.HasPendingInput() {
		t.Error("no further lines should be pending")
	}
}

func TestFeedInputBackspaceErasesLastByte(t *testing.T) {
	d := New(1, "127.0.0.1", 1)
	d.FeedInput([]byte("loot"))
	d.FeedInput([]byte{0x08}) // backspace
	d.FeedInput([]byte("k\n"))
	line, ok := d.NextLine()
	if !ok || string(line) != "look" {
		t.Errorf("line = %q, ok=%v, want %q", line, ok, "look")
	}
}

func TestFeedInputDELErasesLastByte(t *testing.T) {
	d := New(1, "127.0.0.1", 1)
	d.FeedInput([]byte("looz"))
	d.FeedInput([]byte{0x7f}) // DEL
	d.FeedInput([]byte("k\n"))
	line, ok := d.NextLine()
	if !ok || string(line) != "look" {
		t.Errorf("line = %q, ok=%v, want %q", line, ok, "look")
	}
}

func TestFeedInputSkipsTelnetIAC(t *testing.T) {
	d := New(1, "127.0.0.1", 1)
	// IAC WILL STARTTLS, then plain text and a newline.
	d.FeedInput([]byte{telIAC, telWILL, optSTARTTLS})
	d.FeedInput([]byte("hi\n"))
	if !d.Telnet.StartTLSRequested {
		t.Error("STARTTLS request should have been captured by the FSM")
	}
	line, ok := d.NextLine()
	if !ok || string(line) != "hi" {
		t.Errorf("line = %q, ok=%v, want %q (telnet bytes must not leak into the line buffer)", line, ok, "hi")
	}
}

func TestNextLineMultipleQueued(t *testing.T) {
	d := New(1, "127.0.0.1", 1)
	d.FeedInput([]byte("a\nb\nc\n"))
	for _, want := range []string{"a", "b", "c"} {
		line, ok := d.NextLine()
		if !ok || string(line) != want {
			t.Errorf("line = %q, ok=%v, want %q", line, ok, want)
		}
	}
	if d.HasPendingInput() {
		t.Error("queue should be drained")
	}
}

func TestPendingWritesFlushOrder(t *testing.T) {
	d := New(1, "127.0.0.1", 1)
	d.PendingSSLWrite = []byte("S")
	d.QueuePriority([]byte("P"))
	d.QueueOutput([]byte("O"))

	got := string(d.PendingWrites())
	if got != "SPO" {
		t.Errorf("PendingWrites() = %q, want %q (ssl, then priority, then ordinary)", got, "SPO")
	}
}

func TestPendingWritesBlockedSkipsOrdinary(t *testing.T) {
	d := New(1, "127.0.0.1", 1)
	d.BlockWrites = true
	d.QueuePriority([]byte("P"))
	d.QueueOutput([]byte("O"))

	got := string(d.PendingWrites())
	if got != "P" {
		t.Errorf("PendingWrites() = %q, want %q (ordinary output withheld during BlockWrites)", got, "P")
	}
}

func TestClearFlushedOutputRespectsBlockWrites(t *testing.T) {
	d := New(1, "127.0.0.1", 1)
	d.BlockWrites = true
	d.QueuePriority([]byte("P"))
	d.QueueOutput([]byte("O"))
	d.ClearFlushedOutput()

	if d.PriorityOutput != nil {
		t.Error("priority output should always clear")
	}
	if len(d.Output) != 1 {
		t.Error("ordinary output must survive a clear while BlockWrites is set")
	}
}

func TestDropOverQuotaOutputLeavesSingleMarker(t *testing.T) {
	d := New(1, "127.0.0.1", 1)
	d.QueueOutput([]byte("line one\r\n"))
	d.QueueOutput([]byte("line two\r\n"))
	d.DropOverQuotaOutput()

	if len(d.Output) != 1 {
		t.Fatalf("Output has %d entries after drop, want exactly 1", len(d.Output))
	}
	if string(d.Output[0]) != outputFlushedMarker {
		t.Errorf("Output[0] = %q, want the flushed marker", d.Output[0])
	}
	if !d.outputFlushed {
		t.Error("outputFlushed should be set")
	}
}

func TestConnectSetsPlayerAndIsConnected(t *testing.T) {
	d := New(1, "127.0.0.1", 1)
	if d.IsConnected() {
		t.Error("a fresh descriptor should not be connected")
	}
	d.Connect(dbref.Dbref(42))
	if !d.IsConnected() {
		t.Error("Connect should mark the descriptor connected")
	}
	if d.Player != dbref.Dbref(42) {
		t.Errorf("Player = %v, want 42", d.Player)
	}
}
