package seedlink

import (
	"path/filepath"
	"testing"
)

func TestStateStoreSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state")
	store := newStateStore(path)

	if seq, err := store.Load(); err != nil || seq != 0 {
		t.Fatalf("Load on missing file = (%d, %v), want (0, nil)", seq, err)
	}
	if err := store.Save(42); err != nil {
		t.Fatalf("Save: %v", err)
	}
	seq, err := store.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if seq != 42 {
		t.Fatalf("Load() = %d, want 42", seq)
	}
}

func TestStateStoreDelete(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state")
	store := newStateStore(path)
	if err := store.Save(7); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if err := store.Delete(); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	seq, err := store.Load()
	if err != nil || seq != 0 {
		t.Fatalf("Load after delete = (%d, %v), want (0, nil)", seq, err)
	}
}

func TestStateStoreDisabled(t *testing.T) {
	store := newStateStore("")
	if err := store.Save(1); err != nil {
		t.Fatalf("Save on disabled store: %v", err)
	}
	if seq, err := store.Load(); err != nil || seq != 0 {
		t.Fatalf("Load on disabled store = (%d, %v)", seq, err)
	}
}
