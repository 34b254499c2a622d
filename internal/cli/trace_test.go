package cli

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recordRun drives the gate ruleset with --db and returns the database path.
func recordRun(t *testing.T) string {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "dispatch.db")
	_, err := execute(t, "", "run", "testdata/gate.yaml", "--input", "testdata/triggers.txt", "--db", dbPath)
	require.NoError(t, err)
	return dbPath
}

func TestTraceText(t *testing.T) {
	dbPath := recordRun(t)

	out, err := execute(t, "", "trace", "--db", dbPath)
	require.NoError(t, err)

	assert.Contains(t, out, "Dispatches:")
	assert.Contains(t, out, "gate player + met=true")
	assert.Contains(t, out, "gate player - met=true")
	assert.Contains(t, out, "gate guard: requirement_not_met")
	assert.Contains(t, out, "gate player: unchanged")
	assert.Contains(t, out, "Stats: 2 dispatches (1 positive, 1 negative, 0 delayed), 3 suppressions, 0 sink faults")
	assert.Contains(t, out, "  requirement_not_met: 2\n")
	assert.Contains(t, out, "  unchanged: 1\n")
	assert.NotContains(t, out, "Sink faults:")
}

func TestTraceJSON(t *testing.T) {
	dbPath := recordRun(t)

	out, err := execute(t, "", "trace", "--db", dbPath, "--engine", "gate", "--format", "json")
	require.NoError(t, err)

	var result TraceResult
	resp := decodeResponse(t, out, &result)
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, "gate", result.Engine)

	require.Len(t, result.Dispatches, 2)
	first := result.Dispatches[0]
	assert.Equal(t, "player", first.Trigger)
	assert.True(t, first.Positive)
	assert.True(t, first.RequirementMet)
	assert.NotEmpty(t, first.ID)
	assert.Len(t, first.RulesetHash, 64)
	assert.Less(t, first.Seq, result.Dispatches[1].Seq)

	assert.Len(t, result.Suppressions, 3)
	assert.Equal(t, map[string]int{"requirement_not_met": 2, "unchanged": 1}, result.Stats.SuppressedBy)
	assert.Empty(t, result.SinkFaults)
}

func TestTraceEngineFilter(t *testing.T) {
	dbPath := recordRun(t)

	out, err := execute(t, "", "trace", "--db", dbPath, "--engine", "other", "--format", "json")
	require.NoError(t, err)

	var result TraceResult
	decodeResponse(t, out, &result)
	assert.Empty(t, result.Dispatches)
	assert.Empty(t, result.Suppressions)
	assert.Equal(t, 0, result.Stats.Dispatches)
}

func TestTraceAcrossRuns(t *testing.T) {
	dbPath := recordRun(t)
	_, err := execute(t, "", "run", "testdata/gate.yaml", "--input", "testdata/triggers.txt", "--db", dbPath)
	require.NoError(t, err)

	out, err := execute(t, "", "trace", "--db", dbPath, "--format", "json")
	require.NoError(t, err)

	var result TraceResult
	decodeResponse(t, out, &result)
	assert.Len(t, result.Dispatches, 4)
	assert.Len(t, result.Suppressions, 6, "second run continues the sequence")
	assert.Less(t, result.Dispatches[1].Seq, result.Dispatches[2].Seq)
}

func TestTraceWhere(t *testing.T) {
	dbPath := recordRun(t)

	tests := []struct {
		name             string
		where            []string
		wantDispatches   int
		wantSuppressions int
	}{
		{"trigger", []string{"trigger=player"}, 2, 1},
		{"polarity only on dispatches", []string{"polarity=-"}, 1, 0},
		{"reason only on suppressions", []string{"reason=requirement_not_met"}, 0, 2},
		{"conjunction", []string{"trigger=player", "polarity=true"}, 1, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			args := []string{"trace", "--db", dbPath, "--format", "json"}
			for _, w := range tt.where {
				args = append(args, "--where", w)
			}
			out, err := execute(t, "", args...)
			require.NoError(t, err)

			var result TraceResult
			decodeResponse(t, out, &result)
			assert.Len(t, result.Dispatches, tt.wantDispatches)
			assert.Len(t, result.Suppressions, tt.wantSuppressions)
		})
	}
}

func TestTraceErrors(t *testing.T) {
	_, err := execute(t, "", "trace")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "required flag")

	_, err = execute(t, "", "trace", "--db", filepath.Join(t.TempDir(), "missing.db"))
	assert.Equal(t, ExitCommandError, GetExitCode(err))

	dbPath := recordRun(t)
	for _, where := range []string{"colour=blue", "polarity=maybe", "trigger"} {
		_, err = execute(t, "", "trace", "--db", dbPath, "--where", where)
		assert.Equal(t, ExitCommandError, GetExitCode(err), where)
	}
}
