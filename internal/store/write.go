package store

import (
	"context"
	"fmt"
	"time"

	"github.com/roach88/condevent/internal/engine"
	"github.com/roach88/condevent/internal/ir"
)

// WriteRuleset stores r under its content hash and returns the hash.
// Writing the same ruleset twice is a no-op.
func (s *Store) WriteRuleset(ctx context.Context, r ir.Ruleset) (string, error) {
	body, err := ir.CanonicalRuleset(r)
	if err != nil {
		return "", fmt.Errorf("write ruleset: %w", err)
	}
	hash, err := ir.RulesetHash(r)
	if err != nil {
		return "", fmt.Errorf("write ruleset: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO rulesets (hash, name, body, ir_version, engine_version)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(hash) DO NOTHING
	`, hash, r.Name, string(body), ir.IRVersion, ir.EngineVersion)
	if err != nil {
		return "", fmt.Errorf("write ruleset: %w", err)
	}
	return hash, nil
}

// WriteDispatch inserts a dispatch record. Uses ON CONFLICT(id) DO NOTHING
// for idempotency - duplicate IDs are silently ignored.
func (s *Store) WriteDispatch(ctx context.Context, rulesetHash string, d engine.Dispatch) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO dispatches
		(id, seq, engine, ruleset_hash, trigger_name, polarity, requirement_met, delay_ms)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING
	`,
		d.ID,
		d.Seq,
		d.Engine,
		rulesetHash,
		d.Trigger,
		d.Polarity,
		d.RequirementMet,
		d.Delay.Milliseconds(),
	)
	if err != nil {
		return fmt.Errorf("write dispatch: %w", err)
	}
	return nil
}

// WriteSuppression inserts a suppression record. A second record for the
// same engine and seq is silently ignored.
func (s *Store) WriteSuppression(ctx context.Context, rulesetHash string, sup engine.Suppression) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO suppressions (seq, engine, ruleset_hash, trigger_name, reason)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(engine, seq) DO NOTHING
	`, sup.Seq, sup.Engine, rulesetHash, sup.Trigger, sup.Reason)
	if err != nil {
		return fmt.Errorf("write suppression: %w", err)
	}
	return nil
}

// WriteSinkFault records a recovered sink panic.
func (s *Store) WriteSinkFault(ctx context.Context, engineName string, index int, fault error) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO sink_faults (engine, sink_index, message)
		VALUES (?, ?, ?)
	`, engineName, index, fault.Error())
	if err != nil {
		return fmt.Errorf("write sink fault: %w", err)
	}
	return nil
}

func millis(ms int64) time.Duration {
	return time.Duration(ms) * time.Millisecond
}
