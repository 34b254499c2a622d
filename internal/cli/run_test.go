package cli

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/condevent/internal/testutil"
)

func TestRunFromStdin(t *testing.T) {
	input, err := os.ReadFile("testdata/triggers.txt")
	require.NoError(t, err)

	out, err := execute(t, string(input), "run", "testdata/gate.yaml")
	require.NoError(t, err)

	assert.Equal(t, ""+
		"player + dispatched\n"+
		"player + suppressed\n"+
		"player - dispatched\n"+
		"guard + suppressed\n"+
		"NULL - suppressed\n"+
		"Summary: 5 updates, 2 dispatched, 3 suppressed, 2 fired (1 positive, 1 negative)\n",
		out)
}

func TestRunInputFileJSON(t *testing.T) {
	out, err := execute(t, "", "run", "testdata/gate.yaml", "--input", "testdata/triggers.txt", "--format", "json")
	require.NoError(t, err)

	var result RunResult
	resp := decodeResponse(t, out, &result)
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, "gate", result.Engine)
	assert.Len(t, result.Hash, 64)

	require.Len(t, result.Results, 5)
	assert.Equal(t, UpdateResult{Line: 2, Trigger: "player", Positive: true, Dispatched: true}, result.Results[0])
	assert.Equal(t, UpdateResult{Line: 7, Trigger: "NULL", Positive: false, Dispatched: false}, result.Results[4])

	assert.Equal(t, RunSummary{
		Updates:        5,
		Dispatched:     2,
		Suppressed:     3,
		FiredPositive:  1,
		FiredNegative:  1,
		RequirementMet: 2,
	}, result.Summary)
}

func TestRunWaitsForDelayedDispatches(t *testing.T) {
	out, err := execute(t, "x +\nx -\n", "run", "testdata/delayed.yaml", "--format", "json")
	require.NoError(t, err)

	var result RunResult
	decodeResponse(t, out, &result)
	assert.Equal(t, 2, result.Summary.Dispatched)
	assert.Equal(t, int64(1), result.Summary.FiredPositive)
	assert.Equal(t, int64(1), result.Summary.FiredNegative)
}

func TestRunDirectives(t *testing.T) {
	input := "player +\n@active nothing\nplayer -\n@active everything\n@reset engine_state_only\nplayer +\n"
	out, err := execute(t, input, "run", "testdata/gate.yaml")
	require.NoError(t, err)

	assert.Contains(t, out, "player + dispatched\nplayer - suppressed\nplayer + dispatched\n")
}

func TestRunBadInput(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"missing polarity", "player\n", "line 1"},
		{"bad polarity", "# header\nplayer maybe\n", "line 2"},
		{"unknown directive", "@pause now\n", "unknown directive"},
		{"bad reset scope", "@reset sometimes\n", "line 1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := execute(t, tt.input, "run", "testdata/gate.yaml")
			require.Error(t, err)
			assert.Equal(t, ExitCommandError, GetExitCode(err))
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestRunErrors(t *testing.T) {
	_, err := execute(t, "", "run", "testdata/nope.yaml")
	assert.Equal(t, ExitCommandError, GetExitCode(err))

	_, err = execute(t, "", "run", "testdata/unknown_kind.yaml")
	assert.Equal(t, ExitFailure, GetExitCode(err))

	_, err = execute(t, "", "run", "testdata/gate.yaml", "--input", "testdata/missing.txt")
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestRunMetricsServer(t *testing.T) {
	out, err := execute(t, "player +\n", "run", "testdata/gate.yaml", "--metrics-addr", "127.0.0.1:0")
	require.NoError(t, err)
	assert.Contains(t, out, "player + dispatched")
}

func TestRunWithInjectedHost(t *testing.T) {
	host := testutil.NewManualTimerHost()
	opts := &RunOptions{
		RootOptions: &RootOptions{Format: "text"},
		IDGenerator: testutil.NewSequentialIDs("cli"),
		TimerHost:   host,
	}
	cmd := NewRunCommand(opts.RootOptions)
	out := &bytes.Buffer{}
	cmd.SetOut(out)
	cmd.SetErr(io.Discard)
	cmd.SetIn(strings.NewReader("x +\n"))

	// run blocks until the delayed dispatch fires.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for host.Pending() == 0 {
			time.Sleep(time.Millisecond)
		}
		host.Advance(20 * time.Millisecond)
	}()

	require.NoError(t, runEngine(opts, "testdata/delayed.yaml", cmd))
	<-done

	assert.Contains(t, out.String(), "x + dispatched")
	assert.Contains(t, out.String(), "1 fired (1 positive, 0 negative)")
}

func TestRunRecordsToDatabase(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "dispatch.db")
	_, err := execute(t, "player +\nguard +\n", "run", "testdata/gate.yaml", "--db", dbPath)
	require.NoError(t, err)

	_, err = os.Stat(dbPath)
	require.NoError(t, err)
}
