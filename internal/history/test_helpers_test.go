package history

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

// createTestStore creates a new store in a temporary directory.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path, nil)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// commit applies fn as one revision and fails the test on error.
func commit(t *testing.T, s *Store, fn func(ctx context.Context, tx *Tx) error) int64 {
	t.Helper()
	rev, err := s.Commit(context.Background(), "", fn)
	require.NoError(t, err)
	return rev
}

// seedCatalog creates the item and ref tables and writes this history:
//
//	rev 1: item 1 "bolt", item 2 "nut"
//	rev 2: ref 10 -> item 1, label "x"
//	rev 3: item 2 deleted
//	rev 4: ref 10 label "y"
//	rev 5: item 1 renamed to "screw"
//	rev 6: item 1 renamed back to "bolt"
func seedCatalog(t *testing.T, s *Store) {
	t.Helper()
	ctx := context.Background()

	require.NoError(t, s.CreateTable(ctx, "item", []string{"name"}))
	require.NoError(t, s.CreateTable(ctx, "ref", []string{"item", "label"}))

	commit(t, s, func(ctx context.Context, tx *Tx) error {
		if err := tx.Put(ctx, "item", 1, map[string]any{"name": "bolt"}); err != nil {
			return err
		}
		return tx.Put(ctx, "item", 2, map[string]any{"name": "nut"})
	})
	commit(t, s, func(ctx context.Context, tx *Tx) error {
		return tx.Put(ctx, "ref", 10, map[string]any{"item": int64(1), "label": "x"})
	})
	commit(t, s, func(ctx context.Context, tx *Tx) error {
		return tx.Delete(ctx, "item", 2)
	})
	commit(t, s, func(ctx context.Context, tx *Tx) error {
		return tx.Put(ctx, "ref", 10, map[string]any{"item": int64(1), "label": "y"})
	})
	commit(t, s, func(ctx context.Context, tx *Tx) error {
		return tx.Put(ctx, "item", 1, map[string]any{"name": "screw"})
	})
	commit(t, s, func(ctx context.Context, tx *Tx) error {
		return tx.Put(ctx, "item", 1, map[string]any{"name": "bolt"})
	})
}
