package conn

import "testing"

func feed(t *testing.T, fsm *TelnetFSM, bytes []byte) {
	t.Helper()
	for _, b := range bytes {
		fsm.Step(b)
	}
}

func TestStepPlainByteNotConsumed(t *testing.T) {
	fsm := NewTelnetFSM()
	if fsm.Step('a') {
		t.Error("a plain byte must not be reported as consumed telnet protocol")
	}
}

func TestStepEscapedIACIsLiteral(t *testing.T) {
	fsm := NewTelnetFSM()
	fsm.Step(telIAC)
	if consumed := fsm.Step(telIAC); consumed {
		t.Error("IAC IAC must decode to one literal 0xFF data byte, not stay consumed")
	}
}

func TestWillStartTLSIsAcceptedWithReply(t *testing.T) {
	fsm := NewTelnetFSM()
	feed(t, fsm, []byte{telIAC, telWILL, optSTARTTLS})
	if !fsm.StartTLSRequested {
		t.Fatal("WILL STARTTLS should set StartTLSRequested")
	}
	if len(fsm.ReplyQueue) != 1 {
		t.Fatalf("expected one queued reply, got %d", len(fsm.ReplyQueue))
	}
	want := []byte{telIAC, telSB, optSTARTTLS, 1, telIAC, telSE}
	if string(fsm.ReplyQueue[0]) != string(want) {
		t.Errorf("reply = %v, want %v", fsm.ReplyQueue[0], want)
	}
}

func TestWillUnknownOptionIsRefused(t *testing.T) {
	fsm := NewTelnetFSM()
	feed(t, fsm, []byte{telIAC, telWILL, 99})
	want := []byte{telIAC, telDONT, 99}
	if len(fsm.ReplyQueue) != 1 || string(fsm.ReplyQueue[0]) != string(want) {
		t.Errorf("reply = %v, want %v", fsm.ReplyQueue, want)
	}
}

func TestDoUnknownOptionIsRefused(t *testing.T) {
	fsm := NewTelnetFSM()
	feed(t, fsm, []byte{telIAC, telDO, 99})
	want := []byte{telIAC, telWONT, 99}
	if len(fsm.ReplyQueue) != 1 || string(fsm.ReplyQueue[0]) != string(want) {
		t.Errorf("reply = %v, want %v", fsm.ReplyQueue, want)
	}
}

func TestAYTSetsFlag(t *testing.T) {
	fsm := NewTelnetFSM()
	feed(t, fsm, []byte{telIAC, telAYT})
	if !fsm.AYTRequested {
		t.Error("AYT should set AYTRequested")
	}
}

func TestForwardedHostnameSubnegotiation(t *testing.T) {
	fsm := NewTelnetFSM()
	payload := []byte("shell.example.com")
	msg := append([]byte{telIAC, telSB, optForwarded}, payload...)
	msg = append(msg, telIAC, telSE)
	feed(t, fsm, msg)
	if fsm.ForwardedHost != string(payload) {
		t.Errorf("ForwardedHost = %q, want %q", fsm.ForwardedHost, payload)
	}
}

func TestGenericSubnegotiationIsBuffered(t *testing.T) {
	fsm := NewTelnetFSM()
	// IAC SB <opt 1> <data> IAC SE — consumed wholesale, no crash, state resets.
	msg := []byte{telIAC, telSB, 31, 0x00, 0x50, telIAC, telSE}
	feed(t, fsm, msg)
	if fsm.State != Normal {
		t.Errorf("state = %v, want Normal after IAC SE", fsm.State)
	}
}

func TestIsLocalAddr(t *testing.T) {
	cases := map[string]bool{
		"127.0.0.1": true,
		"::1":       true,
		"localhost": true,
		"10.0.0.5":  false,
	}
	for addr, want := range cases {
		if got := IsLocalAddr(addr); got != want {
			t.Errorf("IsLocalAddr(%q) = %v, want %v", addr, got, want)
		}
	}
}

func TestOfferStartTLSBytes(t *testing.T) {
	want := []byte{telIAC, telDO, optSTARTTLS}
	if string(OfferStartTLS()) != string(want) {
		t.Errorf("OfferStartTLS() = %v, want %v", OfferStartTLS(), want)
	}
}
