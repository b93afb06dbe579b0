package diskbase

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/fuzzball-muck/muckd/internal/dbref"
)

func TestStoreFetchRoundTrip(t *testing.T) {
	dir := t.TempDir()
	propsPath := filepath.Join(dir, "props.db")
	payload := []byte("a serialized property subtree")
	if err := os.WriteFile(propsPath, payload, 0o600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	s, err := Open(propsPath)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	s.Store(42, "a/b", 0, int64(len(payload)))

	got, err := s.Fetch(42, "a/b")
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if string(got) != string(payload) {
		t.Errorf("Fetch() = %q, want %q", got, payload)
	}
}

func TestFetchMissingEntry(t *testing.T) {
	dir := t.TempDir()
	propsPath := filepath.Join(dir, "props.db")
	os.WriteFile(propsPath, nil, 0o600)
	s, _ := Open(propsPath)
	if _, err := s.Fetch(1, "nope"); err == nil {
		t.Error("Fetch on an unindexed key should fail")
	}
}

func TestSaveIndexRoundTrip(t *testing.T) {
	dir := t.TempDir()
	propsPath := filepath.Join(dir, "props.db")
	os.WriteFile(propsPath, []byte("data"), 0o600)

	s, _ := Open(propsPath)
	s.Store(1, "x", 0, 4)
	if err := s.SaveIndex(); err != nil {
		t.Fatalf("SaveIndex: %v", err)
	}

	s2, err := Open(propsPath)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	got, err := s2.Fetch(1, "x")
	if err != nil || string(got) != "data" {
		t.Errorf("Fetch after reopen = %q, %v, want data, nil", got, err)
	}
}

func TestKeyDigestIsDeterministic(t *testing.T) {
	a := Key(dbref.Dbref(1), "desc")
	b := Key(dbref.Dbref(1), "desc")
	if a != b {
		t.Errorf("Key should be a pure function of its arguments: %q != %q", a, b)
	}
}
