// Package conn implements the connection manager (spec 4.H): descriptors,
// the telnet/STARTTLS option-negotiation state machine, per-descriptor
// input/output queues with priority and deferred-SSL lanes, and the
// command-line assembly that feeds complete lines to the dispatch loop.
package conn

// TelnetState is a descriptor's telnet option-negotiation state.
type TelnetState int

const (
	Normal TelnetState = iota
	GotIAC
	GotWill
	GotWont
	GotDo
	GotDont
	GotSB
	GotSBForwarded
)

// Telnet protocol bytes.
const (
	telSE   = 240
	telNOP  = 241
	telBRK  = 243
	telIP   = 244
	telAO   = 245
	telAYT  = 246
	telEC   = 247
	telEL   = 248
	telGA   = 249
	telSB   = 250
	telWILL = 251
	telWONT = 252
	telDO   = 253
	telDONT = 254
	telIAC  = 255

	optSTARTTLS  = 46 // non-IANA, matches the original's STARTTLS option number
	optForwarded = 40 // non-IANA forwarded-hostname extension
)

// TelnetFSM drives one descriptor's telnet byte stream.
type TelnetFSM struct {
	State      TelnetState
	pendingOpt byte
	sbBuf      []byte

	// Events the step function raises for the descriptor/dispatch layer
	// to act on; collected per Step call and drained by the caller.
	StartTLSRequested bool
	AYTRequested      bool
	ForwardedHost     string
	EraseChar         bool
	EraseLine         bool

	ReplyQueue [][]byte // subnegotiation / reply bytes to send back
}

// NewTelnetFSM returns a descriptor's FSM in its initial NORMAL state.
func NewTelnetFSM() *TelnetFSM {
	return &TelnetFSM{}
}

// Step feeds one byte to the FSM. It returns true if b was consumed as
// part of telnet protocol (IAC sequence) rather than plain text, so the
// caller knows not to also append b to the input line buffer.
func (t *TelnetFSM) Step(b byte) bool {
	switch t.State {
	case Normal:
		if b == telIAC {
			t.State = GotIAC
			return true
		}
		return false
	case GotIAC:
		switch b {
		case telIAC:
			t.State = Normal
			return false // an escaped 0xFF byte is literal data
		case telWILL:
			t.State = GotWill
		case telWONT:
			t.State = GotWont
		case telDO:
			t.State = GotDo
		case telDONT:
			t.State = GotDont
		case telSB:
			t.State = GotSB
			t.sbBuf = t.sbBuf[:0]
		case telAYT:
			t.AYTRequested = true
			t.State = Normal
		case telEC:
			t.EraseChar = true
			t.State = Normal
		case telEL:
			t.EraseLine = true
			t.State = Normal
		case telNOP, telBRK, telIP, telAO, telGA:
			t.State = Normal
		default:
			t.State = Normal
		}
		return true
	case GotWill:
		t.handleWill(b)
		t.State = Normal
		return true
	case GotWont:
		t.State = Normal
		return true
	case GotDo:
		t.handleDo(b)
		t.State = Normal
		return true
	case GotDont:
		t.State = Normal
		return true
	case GotSB:
		if b == optForwarded && len(t.sbBuf) == 0 {
			t.State = GotSBForwarded
			return true
		}
		if b == telIAC {
			// Expect SE next; treat anything else as data continuing.
			t.State = GotSB // stay, handled generically below via sbBuf growth
		}
		t.sbBuf = append(t.sbBuf, b)
		if len(t.sbBuf) >= 2 && t.sbBuf[len(t.sbBuf)-2] == telIAC && b == telSE {
			t.sbBuf = t.sbBuf[:len(t.sbBuf)-2]
			t.State = Normal
		}
		return true
	case GotSBForwarded:
		if b == telIAC {
			t.sbBuf = append(t.sbBuf, b)
			return true
		}
		if b == telSE && len(t.sbBuf) > 0 && t.sbBuf[len(t.sbBuf)-1] == telIAC {
			t.sbBuf = t.sbBuf[:len(t.sbBuf)-1]
			t.ForwardedHost = string(t.sbBuf)
			t.sbBuf = nil
			t.State = Normal
			return true
		}
		t.sbBuf = append(t.sbBuf, b)
		return true
	default:
		t.State = Normal
		return false
	}
}

// handleWill answers a client's WILL <opt>: accept STARTTLS and the
// forwarded-hostname extension (DO), refuse everything else by default
// (spec 4.H: "answer DONT/WONT unless it's STARTTLS or the
// forwarded-hostname extension").
func (t *TelnetFSM) handleWill(opt byte) {
	if opt == optSTARTTLS {
		t.StartTLSRequested = true
		t.ReplyQueue = append(t.ReplyQueue, []byte{telIAC, telSB, optSTARTTLS, 1, telIAC, telSE})
		return
	}
	if opt == optForwarded {
		t.ReplyQueue = append(t.ReplyQueue, []byte{telIAC, telDO, opt})
		return
	}
	t.ReplyQueue = append(t.ReplyQueue, []byte{telIAC, telDONT, opt})
}

// handleDo answers a client's DO <opt>.
func (t *TelnetFSM) handleDo(opt byte) {
	t.ReplyQueue = append(t.ReplyQueue, []byte{telIAC, telWONT, opt})
}

// OfferStartTLS builds the server-initiated "IAC DO STARTTLS" negotiation
// opener (end-to-end scenario 1).
func OfferStartTLS() []byte {
	return []byte{telIAC, telDO, optSTARTTLS}
}

// AYTReply is the fixed reply to an Are-You-There query.
func AYTReply() []byte { return []byte("[Yes]\r\n") }

// IsLocalAddr reports whether addr may use the forwarded-hostname
// subnegotiation, matching "accepted only from localhost".
func IsLocalAddr(addr string) bool {
	return addr == "127.0.0.1" || addr == "::1" || addr == "localhost"
}
