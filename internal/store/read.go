package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/roach88/condevent/internal/querysql"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("not found")

// DispatchRecord is one stored dispatch.
type DispatchRecord struct {
	ID             string
	Seq            int64
	Engine         string
	RulesetHash    string
	Trigger        string
	Polarity       bool
	RequirementMet bool
	Delay          time.Duration
}

// SuppressionRecord is one stored suppression.
type SuppressionRecord struct {
	Seq         int64
	Engine      string
	RulesetHash string
	Trigger     string
	Reason      string
}

// SinkFaultRecord is one stored sink panic.
type SinkFaultRecord struct {
	Engine  string
	Index   int
	Message string
}

// RulesetRecord is a stored ruleset body.
type RulesetRecord struct {
	Hash          string
	Name          string
	Body          string
	IRVersion     string
	EngineVersion string
}

// ReadRuleset returns the ruleset stored under hash.
func (s *Store) ReadRuleset(ctx context.Context, hash string) (RulesetRecord, error) {
	var r RulesetRecord
	err := s.db.QueryRowContext(ctx, `
		SELECT hash, name, body, ir_version, engine_version
		FROM rulesets WHERE hash = ?
	`, hash).Scan(&r.Hash, &r.Name, &r.Body, &r.IRVersion, &r.EngineVersion)
	if errors.Is(err, sql.ErrNoRows) {
		return r, fmt.Errorf("ruleset %s: %w", hash, ErrNotFound)
	}
	if err != nil {
		return r, fmt.Errorf("read ruleset: %w", err)
	}
	return r, nil
}

// Dispatch log tables as seen by filters. Field names are the public
// names used by "condevent trace --where".
var (
	DispatchesTable = querysql.Table{
		Name: "dispatches",
		Fields: map[string]querysql.Column{
			"id":              {Name: "id", Type: querysql.Text},
			"seq":             {Name: "seq", Type: querysql.Integer},
			"engine":          {Name: "engine", Type: querysql.Text},
			"ruleset_hash":    {Name: "ruleset_hash", Type: querysql.Text},
			"trigger":         {Name: "trigger_name", Type: querysql.Text},
			"polarity":        {Name: "polarity", Type: querysql.Boolean},
			"requirement_met": {Name: "requirement_met", Type: querysql.Boolean},
			"delay_ms":        {Name: "delay_ms", Type: querysql.Integer},
		},
		OrderBy: "seq ASC, id COLLATE BINARY ASC",
	}

	SuppressionsTable = querysql.Table{
		Name: "suppressions",
		Fields: map[string]querysql.Column{
			"seq":          {Name: "seq", Type: querysql.Integer},
			"engine":       {Name: "engine", Type: querysql.Text},
			"ruleset_hash": {Name: "ruleset_hash", Type: querysql.Text},
			"trigger":      {Name: "trigger_name", Type: querysql.Text},
			"reason":       {Name: "reason", Type: querysql.Text},
		},
		OrderBy: "seq ASC, engine COLLATE BINARY ASC",
	}

	SinkFaultsTable = querysql.Table{
		Name: "sink_faults",
		Fields: map[string]querysql.Column{
			"engine":  {Name: "engine", Type: querysql.Text},
			"index":   {Name: "sink_index", Type: querysql.Integer},
			"message": {Name: "message", Type: querysql.Text},
		},
		OrderBy: "id ASC",
	}
)

var (
	dispatchFields    = []string{"id", "seq", "engine", "ruleset_hash", "trigger", "polarity", "requirement_met", "delay_ms"}
	suppressionFields = []string{"seq", "engine", "ruleset_hash", "trigger", "reason"}
	sinkFaultFields   = []string{"engine", "index", "message"}
)

// ListDispatches returns dispatches for engineName, or for every engine
// when engineName is empty.
func (s *Store) ListDispatches(ctx context.Context, engineName string) ([]DispatchRecord, error) {
	return s.QueryDispatches(ctx, querysql.EngineFilter(engineName))
}

// QueryDispatches returns dispatches matching filter (nil matches all).
// Results are ordered deterministically: ORDER BY seq ASC, id ASC COLLATE BINARY.
//
// Returns an empty slice (not nil) if there are none.
func (s *Store) QueryDispatches(ctx context.Context, filter querysql.Predicate) ([]DispatchRecord, error) {
	query, params, err := querysql.Compile(querysql.Select{
		From:   DispatchesTable,
		Fields: dispatchFields,
		Filter: filter,
	})
	if err != nil {
		return nil, fmt.Errorf("compile dispatch query: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, query, params...)
	if err != nil {
		return nil, fmt.Errorf("query dispatches: %w", err)
	}
	defer rows.Close()

	records := []DispatchRecord{}
	for rows.Next() {
		var d DispatchRecord
		var delayMS int64
		if err := rows.Scan(&d.ID, &d.Seq, &d.Engine, &d.RulesetHash, &d.Trigger,
			&d.Polarity, &d.RequirementMet, &delayMS); err != nil {
			return nil, fmt.Errorf("scan dispatch: %w", err)
		}
		d.Delay = millis(delayMS)
		records = append(records, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate dispatches: %w", err)
	}
	return records, nil
}

// ListSuppressions returns suppressions for engineName, or for every engine
// when engineName is empty, ordered by seq.
func (s *Store) ListSuppressions(ctx context.Context, engineName string) ([]SuppressionRecord, error) {
	return s.QuerySuppressions(ctx, querysql.EngineFilter(engineName))
}

// QuerySuppressions returns suppressions matching filter, ordered by seq.
func (s *Store) QuerySuppressions(ctx context.Context, filter querysql.Predicate) ([]SuppressionRecord, error) {
	query, params, err := querysql.Compile(querysql.Select{
		From:   SuppressionsTable,
		Fields: suppressionFields,
		Filter: filter,
	})
	if err != nil {
		return nil, fmt.Errorf("compile suppression query: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, query, params...)
	if err != nil {
		return nil, fmt.Errorf("query suppressions: %w", err)
	}
	defer rows.Close()

	records := []SuppressionRecord{}
	for rows.Next() {
		var r SuppressionRecord
		if err := rows.Scan(&r.Seq, &r.Engine, &r.RulesetHash, &r.Trigger, &r.Reason); err != nil {
			return nil, fmt.Errorf("scan suppression: %w", err)
		}
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate suppressions: %w", err)
	}
	return records, nil
}

// CountSuppressions returns suppression counts by reason for engineName,
// or for every engine when engineName is empty.
func (s *Store) CountSuppressions(ctx context.Context, engineName string) (map[string]int, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT reason, COUNT(*)
		FROM suppressions
		WHERE ? = '' OR engine = ?
		GROUP BY reason
	`, engineName, engineName)
	if err != nil {
		return nil, fmt.Errorf("count suppressions: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var reason string
		var n int
		if err := rows.Scan(&reason, &n); err != nil {
			return nil, fmt.Errorf("scan suppression count: %w", err)
		}
		counts[reason] = n
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate suppression counts: %w", err)
	}
	return counts, nil
}

// ListSinkFaults returns recorded sink panics in insertion order.
func (s *Store) ListSinkFaults(ctx context.Context, engineName string) ([]SinkFaultRecord, error) {
	return s.QuerySinkFaults(ctx, querysql.EngineFilter(engineName))
}

// QuerySinkFaults returns sink panics matching filter in insertion order.
func (s *Store) QuerySinkFaults(ctx context.Context, filter querysql.Predicate) ([]SinkFaultRecord, error) {
	query, params, err := querysql.Compile(querysql.Select{
		From:   SinkFaultsTable,
		Fields: sinkFaultFields,
		Filter: filter,
	})
	if err != nil {
		return nil, fmt.Errorf("compile sink fault query: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, query, params...)
	if err != nil {
		return nil, fmt.Errorf("query sink faults: %w", err)
	}
	defer rows.Close()

	records := []SinkFaultRecord{}
	for rows.Next() {
		var r SinkFaultRecord
		if err := rows.Scan(&r.Engine, &r.Index, &r.Message); err != nil {
			return nil, fmt.Errorf("scan sink fault: %w", err)
		}
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate sink faults: %w", err)
	}
	return records, nil
}

// MaxSeq returns the highest seq recorded across dispatches and
// suppressions, or 0 for an empty log. Used to resume a clock with
// engine.NewClockAt.
func (s *Store) MaxSeq(ctx context.Context) (int64, error) {
	var seq int64
	err := s.db.QueryRowContext(ctx, `
		SELECT COALESCE(MAX(seq), 0) FROM (
			SELECT seq FROM dispatches
			UNION ALL
			SELECT seq FROM suppressions
		)
	`).Scan(&seq)
	if err != nil {
		return 0, fmt.Errorf("max seq: %w", err)
	}
	return seq, nil
}
