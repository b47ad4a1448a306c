package cli

import (
	"encoding/json"
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExplain_Golden(t *testing.T) {
	testCases := []struct {
		name string
		file string
	}{
		{"explain_outer_or", "testdata/outer_or.yaml"},
		{"explain_all_items", "testdata/all_items.yaml"},
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			stdout, _, err := executeCommand(t, "explain", tc.file)
			require.NoError(t, err)
			g.Assert(t, tc.name, []byte(stdout))
		})
	}
}

func TestExplain_PlanOverride(t *testing.T) {
	stdout, _, err := executeCommand(t, "explain", "--plan", "tables", "testdata/outer_or.yaml")
	require.NoError(t, err)
	assert.Contains(t, stdout, "plan:        tables\n")
	assert.Contains(t, stdout, "computation: intersect(row(a), row(r))\n")
	assert.Contains(t, stdout, "oracles:     (none)\n")
}

func TestExplain_JSON(t *testing.T) {
	stdout, _, err := executeCommand(t, "--format", "json", "explain", "testdata/outer_or.yaml")
	require.NoError(t, err)

	var resp struct {
		Status string        `json:"status"`
		Data   ExplainResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(stdout), &resp))

	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, "renamed-or-referenced", resp.Data.Name)
	assert.Equal(t, "where", string(resp.Data.Plan))
	assert.Equal(t, "a0fc75331036ba147363ab364d88dd348a6fb5f27027fb3f3b8b8eecadf0bdfb", resp.Data.Hash)
	assert.Equal(t, []string{"a", "r"}, resp.Data.Tables.Aliases())
	assert.Equal(t, []OracleColumn{
		{Alias: "oracle_0", Expr: "CASE WHEN (a.name = :name) THEN 1 ELSE 0 END"},
		{Alias: "oracle_1", Expr: "CASE WHEN (r.label = 'x') THEN 1 ELSE 0 END"},
	}, resp.Data.Oracles)
	assert.Equal(t, []any{"nut", "x", "nut", "x"}, resp.Data.Params)
}

func TestExplain_Errors(t *testing.T) {
	testCases := []struct {
		name     string
		args     []string
		code     string
		exitCode int
	}{
		{"missing file", []string{"explain", "testdata/absent.yaml"}, ErrCodeNotFound, ExitCommandError},
		{"untranslatable where", []string{"explain", "testdata/case.yaml"}, ErrCodeUnimplemented, ExitFailure},
		{"bad plan flag", []string{"explain", "--plan", "magic", "testdata/outer_or.yaml"}, ErrCodeGeneric, ExitCommandError},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			args := append([]string{"--format", "json"}, tc.args...)
			stdout, _, err := executeCommand(t, args...)
			require.Error(t, err)
			assert.Equal(t, tc.exitCode, GetExitCode(err))

			var resp CLIResponse
			require.NoError(t, json.Unmarshal([]byte(stdout), &resp))
			assert.Equal(t, "error", resp.Status)
			require.NotNil(t, resp.Error)
			assert.Equal(t, tc.code, resp.Error.Code)
		})
	}
}

func TestMapBuildErrorCode(t *testing.T) {
	_, _, loadErr := loadQuery("testdata/case.yaml", "")
	require.NotNil(t, loadErr)
	assert.Equal(t, ErrCodeUnimplemented, loadErr.Code)
	assert.Contains(t, loadErr.Error(), "UNIMPLEMENTED")

	assert.Equal(t, ErrCodeInvalidQuery, MapBuildErrorCode(assert.AnError))
}
