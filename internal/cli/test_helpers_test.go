package cli

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

// executeCommand runs the root command with args and returns stdout and
// stderr.
func executeCommand(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	stdout := &bytes.Buffer{}
	stderr := &bytes.Buffer{}

	cmd := NewRootCommand()
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)
	cmd.SetArgs(args)

	err := cmd.ExecuteContext(context.Background())
	return stdout.String(), stderr.String(), err
}

// loadedDatabase returns the path of a database seeded with the catalog
// fixture.
func loadedDatabase(t *testing.T) string {
	t.Helper()
	db := filepath.Join(t.TempDir(), "history.db")
	_, _, err := executeCommand(t, "load", "--db", db, "testdata/catalog.yaml")
	require.NoError(t, err)
	return db
}
