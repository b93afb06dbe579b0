package tune

import (
	"path/filepath"
	"testing"
)

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	p, err := Load(filepath.Join(t.TempDir(), "absent.toml"))
	if err != nil {
		t.Fatalf("Load(missing) = %v", err)
	}
	if p.MaxIdle != Default().MaxIdle {
		t.Errorf("MaxIdle = %d, want default %d", p.MaxIdle, Default().MaxIdle)
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tune.toml")
	p := Default()
	p.MaxIdle = 120
	p.AllowZombies = false

	if err := Save(p, path); err != nil {
		t.Fatalf("Save() = %v", err)
	}
	got, err := Load(path)
	if err != nil {
		t.Fatalf("Load() = %v", err)
	}
	if got.MaxIdle != 120 || got.AllowZombies != false {
		t.Errorf("round-tripped params = %+v", got)
	}
}

func TestGetSetByKey(t *testing.T) {
	p := Default()
	if err := p.Set("maxidle", "42"); err != nil {
		t.Fatalf("Set() = %v", err)
	}
	v, err := p.Get("maxidle")
	if err != nil || v != "42" {
		t.Errorf("Get(maxidle) = %q, %v, want 42", v, err)
	}
	if err := p.Set("bogus_key", "1"); err == nil {
		t.Error("Set on an unknown key should fail")
	}
}
