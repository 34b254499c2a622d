package store

import (
	"path/filepath"
	"testing"

	"github.com/roach88/condevent/internal/engine"
)

// createTestStore creates a new temp-dir store for testing.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func testDispatch(id string, seq int64, engineName string) engine.Dispatch {
	return engine.Dispatch{
		ID:             id,
		Seq:            seq,
		Engine:         engineName,
		Trigger:        "player",
		Polarity:       true,
		RequirementMet: true,
	}
}
