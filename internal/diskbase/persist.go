package diskbase

import (
	"encoding/gob"
	"fmt"
	"os"

	"github.com/fuzzball-muck/muckd/internal/object"
)

// LoadArena reads a full database snapshot written by SaveArena, for
// startup (-dbin) and -convert. A missing file is reported as an error;
// callers that want "start from an empty world" decide that themselves
// rather than LoadArena silently inventing one.
func LoadArena(path string) (*object.Arena, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("diskbase: load %s: %w", path, err)
	}
	defer f.Close()

	var snap object.Snapshot
	if err := gob.NewDecoder(f).Decode(&snap); err != nil {
		return nil, fmt.Errorf("diskbase: decode %s: %w", path, err)
	}
	return object.Restore(snap), nil
}

// SaveArena writes a's full snapshot to path atomically (write to path+
// ".new", then rename), the synchronous counterpart to Dumper's background
// child used by -convert and -godpasswd, where the process exits
// immediately afterward and a detached writer would serve no purpose.
func SaveArena(a *object.Arena, path string) error {
	tmp := path + ".new"
	f, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("diskbase: create %s: %w", tmp, err)
	}
	if err := gob.NewEncoder(f).Encode(a.Snapshot()); err != nil {
		f.Close()
		return fmt.Errorf("diskbase: encode %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("diskbase: close %s: %w", tmp, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("diskbase: rename %s: %w", tmp, err)
	}
	return nil
}

// WriteSnapshot decodes a dump child's snapshot payload (an object.Snapshot
// boxed as any, per DumpChildMain's contract) and writes it out, the
// writeSnapshot callback DumpChildMain expects.
func WriteSnapshot(snapshot any, out *os.File) error {
	snap, ok := snapshot.(object.Snapshot)
	if !ok {
		return fmt.Errorf("diskbase: dump child: snapshot has type %T, want object.Snapshot", snapshot)
	}
	return gob.NewEncoder(out).Encode(snap)
}
