package cli

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	scenarioDir = "../harness/testdata/scenarios"
	goldenDir   = "../harness/testdata/golden"
)

func TestTestCommandPasses(t *testing.T) {
	out, err := execute(t, "", "test", scenarioDir, "--golden-dir", goldenDir)
	require.NoError(t, err, out)

	assert.Contains(t, out, "✓ polarity_changed\n")
	assert.Contains(t, out, "✓ inactive\n")
	assert.Contains(t, out, "Test Summary: 5 passed, 0 failed, 5 total")
	assert.Contains(t, out, "✓ All scenarios passed")
}

func TestTestCommandJSON(t *testing.T) {
	out, err := execute(t, "", "test", scenarioDir, "--golden-dir", goldenDir, "--format", "json")
	require.NoError(t, err)

	var result TestResult
	resp := decodeResponse(t, out, &result)
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, 5, result.Total)
	assert.Equal(t, 5, result.Passed)
	for _, sr := range result.Scenarios {
		assert.Equal(t, "match", sr.Golden, sr.Name)
		assert.Len(t, sr.TraceHash, 64, sr.Name)
	}
}

func TestTestCommandFilter(t *testing.T) {
	out, err := execute(t, "", "test", scenarioDir, "--golden-dir", goldenDir, "--filter", "delayed_*")
	require.NoError(t, err)
	assert.Contains(t, out, "✓ delayed_dispatch")
	assert.Contains(t, out, "1 total")
}

func TestTestCommandMissingGolden(t *testing.T) {
	out, err := execute(t, "", "test", filepath.Join(scenarioDir, "inactive.yaml"), "--golden-dir", t.TempDir())
	require.NoError(t, err)
	assert.Contains(t, out, "✓ inactive (no golden file)")
}

func TestTestCommandUpdateThenMatch(t *testing.T) {
	dir := t.TempDir()
	scenario := filepath.Join(scenarioDir, "once_reset.yaml")

	out, err := execute(t, "", "test", scenario, "--golden-dir", dir, "--update")
	require.NoError(t, err)
	assert.Contains(t, out, "✓ once_reset (golden updated)")

	written, err := os.ReadFile(filepath.Join(dir, "once_reset.golden"))
	require.NoError(t, err)
	expected, err := os.ReadFile(filepath.Join(goldenDir, "once_reset.golden"))
	require.NoError(t, err)
	assert.Equal(t, string(expected), string(written))

	out, err = execute(t, "", "test", scenario, "--golden-dir", dir)
	require.NoError(t, err)
	assert.Contains(t, out, "✓ once_reset\n")
}

func TestTestCommandGoldenMismatch(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "inactive.golden"), []byte(`{"trace":[]}`), 0o644))

	out, err := execute(t, "", "test", filepath.Join(scenarioDir, "inactive.yaml"), "--golden-dir", dir)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "✗ inactive")
	assert.Contains(t, out, "does not match golden file")
	assert.Contains(t, out, "Test Summary: 0 passed, 1 failed, 1 total")
}

func TestTestCommandFailingScenario(t *testing.T) {
	dir := t.TempDir()
	scenario := `name: wrong_count
description: expects a dispatch that never happens
conditions:
  - name: c
    default: false
events:
  - name: sink
steps:
  - update: { trigger: t, positive: true }
assertions:
  - type: sink_count
    event: sink
    count: 1
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "wrong_count.yaml"), []byte(scenario), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "broken.yaml"), []byte("name: broken\n"), 0o644))

	out, err := execute(t, "", "test", dir, "--format", "json")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))

	var result TestResult
	resp := decodeResponse(t, out, &result)
	assert.Equal(t, "error", resp.Status)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "E_TEST_FAILED", resp.Error.Code)
	assert.Equal(t, 2, result.Failed)
	for _, sr := range result.Scenarios {
		assert.False(t, sr.Pass)
		assert.NotEmpty(t, sr.Errors, sr.Name)
	}
}

func TestTestCommandNoScenarios(t *testing.T) {
	out, err := execute(t, "", "test", t.TempDir())
	require.NoError(t, err)
	assert.Contains(t, out, "No scenarios found.")
}

func TestTestCommandErrors(t *testing.T) {
	_, err := execute(t, "", "test", "testdata/no_such_dir")
	assert.Equal(t, ExitCommandError, GetExitCode(err))

	_, err = execute(t, "", "test", scenarioDir, "--filter", "[")
	assert.Equal(t, ExitCommandError, GetExitCode(err))

	_, err = execute(t, "", "test")
	assert.Error(t, err)
}
