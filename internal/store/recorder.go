package store

import (
	"context"
	"log/slog"
	"sync"

	"github.com/roach88/condevent/internal/engine"
)

// Recorder persists engine activity to a Store. It implements
// engine.Observer; evaluations are not recorded.
//
// Write failures never reach the engine. They are logged and the first one
// is kept for Err.
//
// Thread-safety: Recorder is safe for concurrent use, so it may observe
// several engines and sink faults from delayed fan-out.
type Recorder struct {
	engine.NopObserver

	ctx         context.Context
	store       *Store
	rulesetHash string
	logger      *slog.Logger

	mu  sync.Mutex
	err error
}

// NewRecorder returns a Recorder tagging records with rulesetHash. ctx
// bounds every write.
func NewRecorder(ctx context.Context, s *Store, rulesetHash string, logger *slog.Logger) *Recorder {
	if logger == nil {
		logger = slog.Default()
	}
	return &Recorder{ctx: ctx, store: s, rulesetHash: rulesetHash, logger: logger}
}

func (r *Recorder) OnDispatch(d engine.Dispatch) {
	r.fail(r.store.WriteDispatch(r.ctx, r.rulesetHash, d))
}

func (r *Recorder) OnSuppressed(s engine.Suppression) {
	r.fail(r.store.WriteSuppression(r.ctx, r.rulesetHash, s))
}

func (r *Recorder) OnSinkFault(engineName string, index int, err error) {
	r.fail(r.store.WriteSinkFault(r.ctx, engineName, index, err))
}

// Err returns the first write failure, if any.
func (r *Recorder) Err() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.err
}

func (r *Recorder) fail(err error) {
	if err == nil {
		return
	}
	r.logger.Error("dispatch log write failed", "error", err)

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err == nil {
		r.err = err
	}
}
