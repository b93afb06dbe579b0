package conn

import (
	"crypto/tls"
	"time"

	"github.com/google/uuid"

	"github.com/fuzzball-muck/muckd/internal/dbref"
)

// BootState is a descriptor's pending-disconnect state.
type BootState int

const (
	Live BootState = iota
	BootAfterFlush
	BootWithFarewell
)

// MCPState is the out-of-band MCP negotiation channel's state.
type MCPState struct {
	Negotiated bool
	SessionID  uuid.UUID
}

// Descriptor is one connection (spec 3 "Descriptor").
type Descriptor struct {
	ID int

	PeerHost string
	PeerUser string

	Player dbref.Dbref // NOTHING until login succeeds

	rawInput  []byte
	lines     [][]byte
	Telnet    *TelnetFSM
	STARTTLS  bool
	TLSConn   *tls.Conn
	BlockWrites bool // set while a STARTTLS handshake is in progress
	ShortReads  bool

	Output         [][]byte
	PriorityOutput [][]byte
	PendingSSLWrite []byte
	outputFlushed  bool

	ForwardBuf []byte

	Boot BootState

	ConnectedAt   time.Time
	LastInput     time.Time
	LastPing      time.Time

	CommandQuota int

	MCP MCPState

	ConNumber int // stable surrogate id exposed to MUF (spec 9)
}

// New returns a freshly-accepted descriptor, not yet connected to a player.
func New(id int, peerHost string, conNumber int) *Descriptor {
	now := time.Now()
	return &Descriptor{
		ID:          id,
		PeerHost:    peerHost,
		Player:      dbref.NOTHING,
		Telnet:      NewTelnetFSM(),
		ConnectedAt: now,
		LastInput:   now,
		LastPing:    now,
		ConNumber:   conNumber,
		MCP:         MCPState{SessionID: uuid.New()},
	}
}

// Connect transitions the descriptor to CONNECTED as player, matching
// the lifecycle note in spec §3: "updates the player's descriptor list
// and cached connect counts" is the caller's (world's) job; Connect only
// flips this descriptor's own state.
func (d *Descriptor) Connect(player dbref.Dbref) {
	d.Player = player
}

// IsConnected reports whether the descriptor is attached to a player.
func (d *Descriptor) IsConnected() bool {
	return d.Player != dbref.NOTHING
}

// FeedInput processes raw bytes off the wire: telnet FSM bytes are
// consumed silently, backspace/DEL erase the previous buffered byte, and
// '\n' completes a line that gets appended to the descriptor's command
// queue (spec 4.H "Input is line-buffered on \n").
func (d *Descriptor) FeedInput(data []byte) {
	for _, b := range data {
		if d.Telnet.Step(b) {
			continue
		}
		switch b {
		case '\n':
			line := d.rawInput
			d.rawInput = nil
			d.lines = append(d.lines, line)
		case '\r':
			// swallowed; telnet line endings are CR LF
		case 0x08, 0x7f: // backspace, DEL
			if n := len(d.rawInput); n > 0 {
				d.rawInput = d.rawInput[:n-1]
			}
		default:
			d.rawInput = append(d.rawInput, b)
		}
	}
	d.LastInput = time.Now()
}

// NextLine pops the oldest complete command line, if any.
func (d *Descriptor) NextLine() ([]byte, bool) {
	if len(d.lines) == 0 {
		return nil, false
	}
	line := d.lines[0]
	d.lines = d.lines[1:]
	return line, true
}

// HasPendingInput reports whether at least one complete line is queued.
func (d *Descriptor) HasPendingInput() bool {
	return len(d.lines) > 0
}

// QueueOutput appends msg to the ordinary output queue.
func (d *Descriptor) QueueOutput(msg []byte) {
	d.Output = append(d.Output, msg)
}

// QueuePriority appends msg to the priority (telnet control) output queue.
func (d *Descriptor) QueuePriority(msg []byte) {
	d.PriorityOutput = append(d.PriorityOutput, msg)
}

// outputFlushedMarker is the single marker preserved when over-quota
// buffered output is dropped (spec 4.H).
const outputFlushedMarker = "<Output Flushed>\r\n"

// DropOverQuotaOutput clears the ordinary output queue down to a single
// flushed marker, called when a descriptor's buffered output exceeds its
// configured cap.
func (d *Descriptor) DropOverQuotaOutput() {
	d.Output = [][]byte{[]byte(outputFlushedMarker)}
	d.outputFlushed = true
}

// PendingWrites returns the bytes to write next, in flush order:
// pending_ssl_write first (half-complete writes always go first),
// then priority_output, then (unless BlockWrites) ordinary output.
// It does not clear the queues; callers clear what they successfully wrote.
func (d *Descriptor) PendingWrites() []byte {
	var out []byte
	out = append(out, d.PendingSSLWrite...)
	for _, chunk := range d.PriorityOutput {
		out = append(out, chunk...)
	}
	if !d.BlockWrites {
		for _, chunk := range d.Output {
			out = append(out, chunk...)
		}
	}
	return out
}

// ClearFlushedOutput drops the priority and (if not blocked) ordinary
// output queues after a successful write, and clears the flushed marker.
func (d *Descriptor) ClearFlushedOutput() {
	d.PriorityOutput = nil
	if !d.BlockWrites {
		d.Output = nil
		d.outputFlushed = false
	}
}
