package focus

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/starford/kenaz-focus/internal/apperr"
	"github.com/starford/kenaz-focus/internal/digest"
	"github.com/starford/kenaz-focus/internal/metrics"
	"github.com/starford/kenaz-focus/internal/models"
)

// NoteSource provides a point-in-time view of all notes.
type NoteSource interface {
	Snapshot(ctx context.Context) ([]models.NoteWithNotebook, error)
}

// Refresher turns note changes into controller calls. Each Trigger supersedes
// the digest computation of the previous one; a superseded batch never
// reaches the controller.
type Refresher struct {
	source NoteSource
	ctrl   *Controller
	budget digest.Budget
	logger *slog.Logger

	mu     sync.Mutex
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewRefresher creates a Refresher.
func NewRefresher(source NoteSource, ctrl *Controller, budget digest.Budget, logger *slog.Logger) *Refresher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Refresher{source: source, ctrl: ctrl, budget: budget, logger: logger}
}

// Digests snapshots the notes and builds the current digest batch.
func (r *Refresher) Digests(ctx context.Context) ([]digest.Digest, error) {
	notes, err := r.source.Snapshot(ctx)
	if err != nil {
		return nil, fmt.Errorf("focus: snapshot notes: %w", err)
	}
	ds := digest.BuildRecentDigests(notes, r.budget)
	metrics.DigestBatchSize.Observe(float64(len(ds)))
	metrics.DigestBatchChars.Observe(float64(digest.TotalChars(ds)))
	return ds, nil
}

// Trigger starts a background generate-if-needed pass. Generation itself runs
// on ctx and is not interrupted by later triggers.
func (r *Refresher) Trigger(ctx context.Context) {
	r.mu.Lock()
	if r.cancel != nil {
		r.cancel()
	}
	buildCtx, cancel := context.WithCancel(ctx)
	r.cancel = cancel
	r.wg.Add(1)
	r.mu.Unlock()

	go func() {
		defer r.wg.Done()
		defer cancel()

		ds, err := r.Digests(buildCtx)
		if buildCtx.Err() != nil {
			r.logger.Debug("focus: digest batch superseded")
			return
		}
		if err != nil {
			r.logger.Warn("focus: build digests failed", slog.String("error", err.Error()))
			return
		}
		if err := r.ctrl.GenerateRecentFocusIfNeeded(ctx, ds); err != nil {
			r.logger.Warn("focus: refresh failed", slog.String("error", err.Error()))
		}
	}()
}

// Regenerate builds the current batch and forces a generation. It returns
// apperr.ErrGenerationInFlight instead of starting a second generation.
func (r *Refresher) Regenerate(ctx context.Context) error {
	if r.ctrl.IsLoading() {
		return apperr.ErrGenerationInFlight
	}
	ds, err := r.Digests(ctx)
	if err != nil {
		return err
	}
	return r.ctrl.RegenerateRecentFocus(ctx, ds)
}

// Wait blocks until every triggered pass has returned.
func (r *Refresher) Wait() {
	r.wg.Wait()
}
