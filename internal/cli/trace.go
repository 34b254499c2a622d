package cli

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"slices"

	"github.com/spf13/cobra"

	"github.com/roach88/condevent/internal/querysql"
	"github.com/roach88/condevent/internal/store"
)

// TraceOptions holds flags for the trace command.
type TraceOptions struct {
	*RootOptions
	Database string
	Engine   string   // optional - filter to one engine
	Where    []string // field=value terms
}

// DispatchEntry is one dispatch in the trace output.
type DispatchEntry struct {
	Seq            int64  `json:"seq"`
	ID             string `json:"id"`
	Engine         string `json:"engine"`
	RulesetHash    string `json:"ruleset_hash"`
	Trigger        string `json:"trigger"`
	Positive       bool   `json:"positive"`
	RequirementMet bool   `json:"requirement_met"`
	DelayMS        int64  `json:"delay_ms,omitempty"`
}

// SuppressionEntry is one suppressed update in the trace output.
type SuppressionEntry struct {
	Seq     int64  `json:"seq"`
	Engine  string `json:"engine"`
	Trigger string `json:"trigger"`
	Reason  string `json:"reason"`
}

// SinkFaultEntry is one sink panic in the trace output.
type SinkFaultEntry struct {
	Engine  string `json:"engine"`
	Index   int    `json:"index"`
	Message string `json:"message"`
}

// TraceResult holds the complete trace output.
type TraceResult struct {
	Engine       string             `json:"engine,omitempty"`
	Dispatches   []DispatchEntry    `json:"dispatches"`
	Suppressions []SuppressionEntry `json:"suppressions"`
	SinkFaults   []SinkFaultEntry   `json:"sink_faults"`
	Stats        TraceStats         `json:"stats"`
}

// TraceStats holds summary statistics for the trace.
type TraceStats struct {
	Dispatches    int            `json:"dispatches"`
	Delayed       int            `json:"delayed"`
	Suppressions  int            `json:"suppressions"`
	SuppressedBy  map[string]int `json:"suppressed_by"`
	SinkFaults    int            `json:"sink_faults"`
	PositiveFired int            `json:"positive"`
	NegativeFired int            `json:"negative"`
}

// NewTraceCommand creates the trace command.
func NewTraceCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &TraceOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "trace",
		Short: "Show the dispatch log",
		Long: `Print dispatches, suppressions and sink faults recorded by "condevent run --db".

Examples:
  condevent trace --db ./dispatch.db
  condevent trace --db ./dispatch.db --engine door
  condevent trace --db ./dispatch.db --where trigger=player --where polarity=+
  condevent trace --db ./dispatch.db --where reason=unchanged --format json

Each --where term keeps rows whose field equals the value. Tables without
that field show no rows. Fields:
  dispatches:   id, seq, engine, ruleset_hash, trigger, polarity, requirement_met, delay_ms
  suppressions: seq, engine, ruleset_hash, trigger, reason
  sink faults:  engine, index, message`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTrace(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to the SQLite dispatch log (required)")
	cmd.Flags().StringVar(&opts.Engine, "engine", "", "only show this engine")
	cmd.Flags().StringArrayVar(&opts.Where, "where", nil, "filter rows by field=value (repeatable)")
	_ = cmd.MarkFlagRequired("db")

	return cmd
}

func runTrace(opts *TraceOptions, cmd *cobra.Command) error {
	f := opts.formatter(cmd)
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	filters, err := traceFilters(opts.Engine, opts.Where)
	if err != nil {
		return WrapExitError(ExitCommandError, "invalid --where", err)
	}

	if err := requireFile(opts.Database, "database not found"); err != nil {
		return err
	}
	st, err := store.Open(opts.Database)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open database", err)
	}
	defer st.Close()

	result, err := buildTrace(ctx, st, opts.Engine, filters)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read dispatch log", err)
	}

	if f.JSON() {
		return f.Success(result)
	}
	printTrace(f, result)
	return nil
}

// tableFilters holds one predicate per table. skip marks tables that lack
// a --where field.
type tableFilters struct {
	dispatches, suppressions, faults querysql.Predicate
	skip                             map[string]bool
}

func traceFilters(engineName string, where []string) (tableFilters, error) {
	tf := tableFilters{skip: make(map[string]bool)}
	slots := []struct {
		table querysql.Table
		pred  *querysql.Predicate
	}{
		{store.DispatchesTable, &tf.dispatches},
		{store.SuppressionsTable, &tf.suppressions},
		{store.SinkFaultsTable, &tf.faults},
	}

	var unknown error
	for _, slot := range slots {
		pred, err := querysql.ParseFilter(slot.table, where)
		if errors.Is(err, querysql.ErrUnknownField) {
			tf.skip[slot.table.Name] = true
			unknown = err
			continue
		}
		if err != nil {
			return tf, err
		}
		*slot.pred = conjoin(querysql.EngineFilter(engineName), pred)
	}
	if len(tf.skip) == len(slots) {
		return tf, unknown
	}
	return tf, nil
}

func conjoin(a, b querysql.Predicate) querysql.Predicate {
	switch {
	case a == nil:
		return b
	case b == nil:
		return a
	default:
		return querysql.And{Predicates: []querysql.Predicate{a, b}}
	}
}

func buildTrace(ctx context.Context, st *store.Store, engineName string, tf tableFilters) (*TraceResult, error) {
	dispatches := []store.DispatchRecord{}
	suppressions := []store.SuppressionRecord{}
	faults := []store.SinkFaultRecord{}
	var err error

	if !tf.skip[store.DispatchesTable.Name] {
		if dispatches, err = st.QueryDispatches(ctx, tf.dispatches); err != nil {
			return nil, err
		}
	}
	if !tf.skip[store.SuppressionsTable.Name] {
		if suppressions, err = st.QuerySuppressions(ctx, tf.suppressions); err != nil {
			return nil, err
		}
	}
	if !tf.skip[store.SinkFaultsTable.Name] {
		if faults, err = st.QuerySinkFaults(ctx, tf.faults); err != nil {
			return nil, err
		}
	}

	counts := make(map[string]int)
	for _, sup := range suppressions {
		counts[sup.Reason]++
	}

	result := &TraceResult{
		Engine:       engineName,
		Dispatches:   make([]DispatchEntry, 0, len(dispatches)),
		Suppressions: make([]SuppressionEntry, 0, len(suppressions)),
		SinkFaults:   make([]SinkFaultEntry, 0, len(faults)),
		Stats:        TraceStats{SuppressedBy: counts},
	}
	for _, d := range dispatches {
		result.Dispatches = append(result.Dispatches, DispatchEntry{
			Seq:            d.Seq,
			ID:             d.ID,
			Engine:         d.Engine,
			RulesetHash:    d.RulesetHash,
			Trigger:        d.Trigger,
			Positive:       d.Polarity,
			RequirementMet: d.RequirementMet,
			DelayMS:        d.Delay.Milliseconds(),
		})
		if d.Delay > 0 {
			result.Stats.Delayed++
		}
		if d.Polarity {
			result.Stats.PositiveFired++
		} else {
			result.Stats.NegativeFired++
		}
	}
	for _, s := range suppressions {
		result.Suppressions = append(result.Suppressions, SuppressionEntry{
			Seq:     s.Seq,
			Engine:  s.Engine,
			Trigger: s.Trigger,
			Reason:  s.Reason,
		})
	}
	for _, sf := range faults {
		result.SinkFaults = append(result.SinkFaults, SinkFaultEntry{
			Engine:  sf.Engine,
			Index:   sf.Index,
			Message: sf.Message,
		})
	}
	result.Stats.Dispatches = len(result.Dispatches)
	result.Stats.Suppressions = len(result.Suppressions)
	result.Stats.SinkFaults = len(result.SinkFaults)
	return result, nil
}

func printTrace(f *OutputFormatter, r *TraceResult) {
	w := f.Writer
	if r.Engine != "" {
		fmt.Fprintf(w, "Engine: %s\n\n", r.Engine)
	}

	fmt.Fprintln(w, "Dispatches:")
	if len(r.Dispatches) == 0 {
		fmt.Fprintln(w, "  (none)")
	}
	for _, d := range r.Dispatches {
		delay := ""
		if d.DelayMS > 0 {
			delay = fmt.Sprintf(" delay=%dms", d.DelayMS)
		}
		fmt.Fprintf(w, "  [%d] %s %s %s met=%t%s (%s)\n",
			d.Seq, d.Engine, d.Trigger, polaritySign(d.Positive), d.RequirementMet, delay, d.ID)
	}

	fmt.Fprintln(w, "\nSuppressions:")
	if len(r.Suppressions) == 0 {
		fmt.Fprintln(w, "  (none)")
	}
	for _, s := range r.Suppressions {
		fmt.Fprintf(w, "  [%d] %s %s: %s\n", s.Seq, s.Engine, s.Trigger, s.Reason)
	}

	if len(r.SinkFaults) > 0 {
		fmt.Fprintln(w, "\nSink faults:")
		for _, sf := range r.SinkFaults {
			fmt.Fprintf(w, "  %s events[%d]: %s\n", sf.Engine, sf.Index, sf.Message)
		}
	}

	s := r.Stats
	fmt.Fprintf(w, "\nStats: %d dispatches (%d positive, %d negative, %d delayed), %d suppressions, %d sink faults\n",
		s.Dispatches, s.PositiveFired, s.NegativeFired, s.Delayed, s.Suppressions, s.SinkFaults)
	for _, reason := range slices.Sorted(maps.Keys(s.SuppressedBy)) {
		fmt.Fprintf(w, "  %s: %d\n", reason, s.SuppressedBy[reason])
	}
}
