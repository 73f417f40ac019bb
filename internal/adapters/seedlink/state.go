package seedlink

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/uuss-seismo/slink2dali/internal/domain"
)

// stateStore persists the sequence number of the last collected packet
// across restarts. The Source loads it on Start and saves it periodically
// and on Stop; the handshake does not send it to the server, so a restart
// still subscribes at the server's live head. A failure here is never
// fatal to collection, so every method wraps its error in
// ErrStateFailure and callers are expected to log and continue.
type stateStore struct {
	path string
}

func newStateStore(path string) *stateStore {
	return &stateStore{path: path}
}

func (s *stateStore) enabled() bool { return s.path != "" }

// Load returns the last persisted sequence number, or 0 if there is no
// state file yet.
func (s *stateStore) Load() (uint64, error) {
	if !s.enabled() {
		return 0, nil
	}
	raw, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, fmt.Errorf("read state file %s: %w", s.path, wrapState(err))
	}
	seq, err := strconv.ParseUint(strings.TrimSpace(string(raw)), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parse state file %s: %w", s.path, wrapState(err))
	}
	return seq, nil
}

// Save writes seq to the state file, replacing the previous contents
// atomically via a write-then-rename so a crash mid-write cannot leave a
// truncated file behind.
func (s *stateStore) Save(seq uint64) error {
	if !s.enabled() {
		return nil
	}
	dir := filepath.Dir(s.path)
	tmp, err := os.CreateTemp(dir, ".seedlink-state-*")
	if err != nil {
		return fmt.Errorf("create temp state file: %w", wrapState(err))
	}
	tmpPath := tmp.Name()
	if _, err := tmp.WriteString(strconv.FormatUint(seq, 10)); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("write temp state file: %w", wrapState(err))
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("close temp state file: %w", wrapState(err))
	}
	if err := os.Rename(tmpPath, s.path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("rename temp state file: %w", wrapState(err))
	}
	return nil
}

// Delete removes the state file. A missing file is not an error.
func (s *stateStore) Delete() error {
	if !s.enabled() {
		return nil
	}
	if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove state file %s: %w", s.path, wrapState(err))
	}
	return nil
}

func wrapState(err error) error {
	return fmt.Errorf("%v: %w", err, domain.ErrStateFailure)
}
