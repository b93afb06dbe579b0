package resolver

import "testing"

func TestParseReply(t *testing.T) {
	r, ok := parseReply("127.0.0.1(4201)|example.com(someuser)")
	if !ok {
		t.Fatal("expected parse to succeed")
	}
	if r.Host != "127.0.0.1" || r.Port != "4201" || r.Name != "example.com" || r.User != "someuser" {
		t.Errorf("parsed = %+v", r)
	}
}

func TestParseReplyWithoutUser(t *testing.T) {
	r, ok := parseReply("127.0.0.1(4201)|example.com")
	if !ok {
		t.Fatal("expected parse to succeed")
	}
	if r.Name != "example.com" || r.User != "" {
		t.Errorf("parsed = %+v", r)
	}
}

func TestParseReplyRejectsMalformed(t *testing.T) {
	if _, ok := parseReply("not a reply"); ok {
		t.Error("expected malformed line to fail to parse")
	}
}
