package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/roach88/condevent/internal/compiler"
	"github.com/roach88/condevent/internal/engine"
	"github.com/roach88/condevent/internal/events"
	"github.com/roach88/condevent/internal/observability"
	"github.com/roach88/condevent/internal/store"
)

// RunOptions holds flags for the run command.
type RunOptions struct {
	*RootOptions
	Input       string
	Database    string
	MetricsAddr string

	// IDGenerator overrides dispatch IDs (for testing). Defaults to UUIDv7.
	IDGenerator engine.IDGenerator

	// TimerHost overrides the real timer host (for testing).
	TimerHost engine.TimerHost
}

// UpdateResult is the outcome of one input line.
type UpdateResult struct {
	Line       int    `json:"line"`
	Trigger    string `json:"trigger"`
	Positive   bool   `json:"positive"`
	Dispatched bool   `json:"dispatched"`
}

// RunSummary counts what happened during a run. Fired counts sink
// notifications, including delayed ones that completed before exit.
type RunSummary struct {
	Updates        int   `json:"updates"`
	Dispatched     int   `json:"dispatched"`
	Suppressed     int   `json:"suppressed"`
	FiredPositive  int64 `json:"fired_positive"`
	FiredNegative  int64 `json:"fired_negative"`
	RequirementMet int64 `json:"requirement_met"`
}

// RunResult is the JSON payload of run.
type RunResult struct {
	Engine  string         `json:"engine"`
	Hash    string         `json:"hash"`
	Results []UpdateResult `json:"results"`
	Summary RunSummary     `json:"summary"`
}

// NewRunCommand creates the run command.
func NewRunCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RunOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "run <ruleset>",
		Short: "Drive an engine from trigger lines",
		Long: `Build an engine from a ruleset and feed it one update per input line.

Each line is "<trigger> <polarity>", where polarity is + or - (or any
boolean). "NULL" passes no trigger. Lines starting with # are ignored.
Two directives change engine state between updates:

  @reset <everything|engine_state_only|conditions_only|events_only>
  @active <everything|conditions_only|nothing>

Delayed dispatches run on real timers; the command waits for them before
exiting.

Examples:
  printf 'player +\nplayer -\n' | condevent run ./door.cue
  condevent run ./door.yaml --input triggers.txt --db ./dispatch.db
  condevent run ./door.cue --metrics-addr :9090 --verbose`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEngine(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.Input, "input", "i", "", "trigger file (default stdin)")
	cmd.Flags().StringVar(&opts.Database, "db", "", "record dispatches to this SQLite database")
	cmd.Flags().StringVar(&opts.MetricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address while running")

	return cmd
}

func runEngine(opts *RunOptions, path string, cmd *cobra.Command) error {
	f := opts.formatter(cmd)
	logger := newLogger(opts.RootOptions, cmd.ErrOrStderr(), slog.LevelInfo)

	parentCtx := cmd.Context()
	if parentCtx == nil {
		parentCtx = context.Background()
	}
	ctx, cancel := context.WithCancel(parentCtx)
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)
	go func() {
		select {
		case sig := <-sigChan:
			logger.Info("received signal, shutting down", "signal", sig)
			cancel()
		case <-ctx.Done():
		}
	}()

	r, err := loadRuleset(path)
	if err != nil {
		return err
	}

	input, closeInput, err := openInput(opts.Input, cmd.InOrStdin())
	if err != nil {
		return err
	}
	defer closeInput()

	var engineOpts []engine.Option
	if opts.IDGenerator != nil {
		engineOpts = append(engineOpts, engine.WithIDGenerator(opts.IDGenerator))
	}

	reg := prometheus.NewRegistry()
	metrics, err := observability.NewMetrics(reg)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to register metrics", err)
	}
	engineOpts = append(engineOpts, engine.WithObserver(metrics))

	var recorder *store.Recorder
	if opts.Database != "" {
		st, err := store.Open(opts.Database)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to open database", err)
		}
		defer func() {
			if closeErr := st.Close(); closeErr != nil {
				logger.Error("error closing database", "error", closeErr)
			}
		}()
		hash, err := st.WriteRuleset(ctx, *r)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to record ruleset", err)
		}
		// Continue numbering after earlier runs in the same log.
		maxSeq, err := st.MaxSeq(ctx)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to read dispatch log", err)
		}
		recorder = store.NewRecorder(ctx, st, hash, logger)
		engineOpts = append(engineOpts,
			engine.WithObserver(recorder),
			engine.WithClock(engine.NewClockAt(maxSeq)),
		)
	}

	built, err := compiler.Build(r, compiler.DefaultRegistry(logger), engineOpts...)
	if err != nil {
		var verrs compiler.ValidationErrors
		if errors.As(err, &verrs) {
			return reportValidationErrors(f, verrs)
		}
		return WrapExitError(ExitFailure, "failed to build engine", err)
	}

	if opts.MetricsAddr != "" {
		shutdown, err := serveMetrics(opts.MetricsAddr, reg, logger)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to start metrics server", err)
		}
		defer shutdown()
	}

	counter := &events.Counter{}
	eng := built.Engine
	eng.AddEvent(counter)

	base := opts.TimerHost
	if base == nil {
		base = engine.RealTimerHost{}
	}
	host := newTrackedTimerHost(base)
	eng.Init("cli", host)

	result := RunResult{Engine: eng.Name(), Hash: built.Hash, Results: []UpdateResult{}}
	if err := drive(ctx, eng, input, f, &result); err != nil {
		host.StopAll()
		eng.Teardown()
		return err
	}

	if err := host.Wait(ctx); err != nil {
		logger.Warn("pending dispatches abandoned", "error", err, "stopped", host.StopAll())
	}
	eng.Teardown()

	result.Summary.FiredPositive = counter.Positive()
	result.Summary.FiredNegative = counter.Negative()
	result.Summary.RequirementMet = counter.RequirementMet()

	if recorder != nil {
		if err := recorder.Err(); err != nil {
			return WrapExitError(ExitFailure, "dispatch log write failed", err)
		}
	}

	if f.JSON() {
		return f.Success(result)
	}
	s := result.Summary
	fmt.Fprintf(f.Writer, "Summary: %d updates, %d dispatched, %d suppressed, %d fired (%d positive, %d negative)\n",
		s.Updates, s.Dispatched, s.Suppressed, s.FiredPositive+s.FiredNegative, s.FiredPositive, s.FiredNegative)
	return nil
}

func openInput(path string, stdin io.Reader) (io.Reader, func(), error) {
	if path == "" || path == "-" {
		return stdin, func() {}, nil
	}
	file, err := os.Open(path)
	if err != nil {
		return nil, nil, WrapExitError(ExitCommandError, "failed to open input", err)
	}
	return file, func() { file.Close() }, nil
}

// drive feeds every input line to the engine.
func drive(ctx context.Context, eng *engine.Engine, input io.Reader, f *OutputFormatter, result *RunResult) error {
	scanner := bufio.NewScanner(input)
	lineNo := 0
	for scanner.Scan() {
		if ctx.Err() != nil {
			return WrapExitError(ExitFailure, "interrupted", ctx.Err())
		}
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		if strings.HasPrefix(line, "@") {
			if err := applyDirective(eng, line); err != nil {
				return WrapExitError(ExitCommandError, fmt.Sprintf("line %d", lineNo), err)
			}
			f.VerboseLog("line %d: %s", lineNo, line)
			continue
		}

		trigger, positive, err := parseTriggerLine(line)
		if err != nil {
			return WrapExitError(ExitCommandError, fmt.Sprintf("line %d", lineNo), err)
		}

		var handle any
		if trigger != "NULL" {
			handle = trigger
		}
		dispatched := eng.Update(handle, positive)

		result.Results = append(result.Results, UpdateResult{
			Line:       lineNo,
			Trigger:    trigger,
			Positive:   positive,
			Dispatched: dispatched,
		})
		result.Summary.Updates++
		if dispatched {
			result.Summary.Dispatched++
		} else {
			result.Summary.Suppressed++
		}

		if !f.JSON() {
			outcome := "suppressed"
			if dispatched {
				outcome = "dispatched"
			}
			fmt.Fprintf(f.Writer, "%s %s %s\n", trigger, polaritySign(positive), outcome)
		}
	}
	if err := scanner.Err(); err != nil {
		return WrapExitError(ExitCommandError, "failed to read input", err)
	}
	return nil
}

// parseTriggerLine parses "<trigger> <polarity>".
func parseTriggerLine(line string) (string, bool, error) {
	fields := strings.Fields(line)
	if len(fields) != 2 {
		return "", false, fmt.Errorf("want \"<trigger> <polarity>\", got %q", line)
	}
	positive, err := parsePolarity(fields[1])
	if err != nil {
		return "", false, err
	}
	return fields[0], positive, nil
}

func parsePolarity(s string) (bool, error) {
	switch s {
	case "+":
		return true, nil
	case "-":
		return false, nil
	}
	b, err := strconv.ParseBool(s)
	if err != nil {
		return false, fmt.Errorf("invalid polarity %q: want +, - or a boolean", s)
	}
	return b, nil
}

func polaritySign(positive bool) string {
	if positive {
		return "+"
	}
	return "-"
}

func applyDirective(eng *engine.Engine, line string) error {
	fields := strings.Fields(line)
	if len(fields) != 2 {
		return fmt.Errorf("want \"@<directive> <value>\", got %q", line)
	}
	switch fields[0] {
	case "@reset":
		scope, err := engine.ParseResetScope(fields[1])
		if err != nil {
			return err
		}
		eng.Reset(scope)
	case "@active":
		status, err := engine.ParseActiveStatus(fields[1])
		if err != nil {
			return err
		}
		eng.SetActive(status)
	default:
		return fmt.Errorf("unknown directive %q", fields[0])
	}
	return nil
}

// serveMetrics serves /metrics until the returned shutdown is called.
func serveMetrics(addr string, g prometheus.Gatherer, logger *slog.Logger) (func(), error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, err
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", observability.Handler(g))
	srv := &http.Server{Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics server failed", "error", err)
		}
	}()
	logger.Info("serving metrics", "addr", ln.Addr().String())

	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
	}, nil
}
