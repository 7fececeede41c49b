package focus

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/starford/kenaz-focus/internal/digest"
	"github.com/starford/kenaz-focus/internal/fingerprint"
	"github.com/starford/kenaz-focus/internal/metrics"
	"github.com/starford/kenaz-focus/internal/reportcache"
)

// Default cache keys and refresh interval.
const (
	DefaultCacheKey        = "recent_focus.report"
	DefaultFingerprintKey  = "recent_focus.fingerprint"
	DefaultRefreshInterval = 24 * time.Hour
)

// ErrEmptyResult is recorded when the generator returns neither a report nor text.
var ErrEmptyResult = errors.New("generator returned an empty report")

// Phase is the externally visible controller state.
type Phase string

const (
	PhaseIdle    Phase = "idle"
	PhaseLoading Phase = "loading"
	PhaseReady   Phase = "ready"
	PhaseError   Phase = "error"
)

// Snapshot is a copy of the published state. Report must be treated as read-only.
type Snapshot struct {
	Phase        Phase      `json:"phase"`
	Report       *Report    `json:"report,omitempty"`
	RawMarkdown  string     `json:"raw_markdown,omitempty"`
	IsLoading    bool       `json:"is_loading"`
	ErrorMessage string     `json:"error_message,omitempty"`
	UpdatedAt    *time.Time `json:"updated_at,omitempty"`
	RunID        string     `json:"run_id,omitempty"`
}

// entry is the persisted cache payload.
type entry struct {
	Report      *Report `json:"report,omitempty"`
	RawMarkdown string  `json:"raw_markdown,omitempty"`
	RunID       string  `json:"run_id,omitempty"`
}

type state struct {
	report       *Report
	rawMarkdown  string
	loading      bool
	errorMessage string
	updatedAt    time.Time
	runID        string
	// epoch changes on Reset so a generation started before it is discarded.
	epoch uint64
	// version changes on every content write; decisions made from cache reads
	// outside the lock are dropped when it moved.
	version uint64
}

func (s *state) hasContent() bool {
	return s.report != nil || s.rawMarkdown != ""
}

// Controller owns the Recent Focus report for one cache key.
//
// All state mutations go through c.mu, which makes the controller the single
// writer; Snapshot is the read path for other goroutines. The loading flag is
// the only gate against duplicate generations.
type Controller struct {
	cache           *reportcache.Cache
	gen             Generator
	params          Params
	refreshInterval time.Duration
	cacheKey        string
	fingerprintKey  string
	logger          *slog.Logger
	onChange        func(Snapshot)

	mu    sync.Mutex
	state state
}

// Option configures a Controller.
type Option func(*Controller)

// WithRefreshInterval sets the maximum age of a cached report.
func WithRefreshInterval(d time.Duration) Option {
	return func(c *Controller) {
		if d > 0 {
			c.refreshInterval = d
		}
	}
}

// WithCacheKeys overrides the entry and fingerprint keys.
func WithCacheKeys(entryKey, fingerprintKey string) Option {
	return func(c *Controller) {
		c.cacheKey = entryKey
		c.fingerprintKey = fingerprintKey
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Controller) {
		c.logger = l
	}
}

// WithOnChange registers a callback invoked after every state change.
// It runs on the goroutine that made the change, outside the lock.
func WithOnChange(fn func(Snapshot)) Option {
	return func(c *Controller) {
		c.onChange = fn
	}
}

// NewController creates a controller. Call Restore to seed it from the cache.
func NewController(cache *reportcache.Cache, gen Generator, params Params, opts ...Option) *Controller {
	c := &Controller{
		cache:           cache,
		gen:             gen,
		params:          params,
		refreshInterval: DefaultRefreshInterval,
		cacheKey:        DefaultCacheKey,
		fingerprintKey:  DefaultFingerprintKey,
		logger:          slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Snapshot returns a copy of the published state.
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()

	s := Snapshot{
		Report:       c.state.report,
		RawMarkdown:  c.state.rawMarkdown,
		IsLoading:    c.state.loading,
		ErrorMessage: c.state.errorMessage,
		RunID:        c.state.runID,
	}
	if !c.state.updatedAt.IsZero() {
		at := c.state.updatedAt
		s.UpdatedAt = &at
	}
	switch {
	case s.IsLoading:
		s.Phase = PhaseLoading
	case s.ErrorMessage != "":
		s.Phase = PhaseError
	case c.state.hasContent():
		s.Phase = PhaseReady
	default:
		s.Phase = PhaseIdle
	}
	return s
}

// IsLoading reports whether a generation is in flight.
func (c *Controller) IsLoading() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state.loading
}

// CacheKey returns the key the report entry is stored under.
func (c *Controller) CacheKey() string {
	return c.cacheKey
}

// StoredFingerprint returns the fingerprint persisted with the cached report.
func (c *Controller) StoredFingerprint(ctx context.Context) (string, error) {
	return c.cache.Fingerprint(ctx, c.fingerprintKey)
}

// Restore seeds in-memory state from the cache, whatever its age.
// An unreadable entry is treated as a miss.
func (c *Controller) Restore(ctx context.Context) error {
	var e entry
	ok, err := c.cache.Load(ctx, c.cacheKey, reportcache.NoMaxAge, &e)
	if err != nil {
		c.logger.Warn("focus: cached report unreadable", slog.String("error", err.Error()))
		return nil
	}
	if !ok {
		return nil
	}
	updatedAt, _, err := c.cache.UpdatedAt(ctx, c.cacheKey)
	if err != nil {
		return fmt.Errorf("focus: restore: %w", err)
	}

	c.mu.Lock()
	c.state.report = e.Report
	c.state.rawMarkdown = e.RawMarkdown
	c.state.runID = e.RunID
	c.state.updatedAt = updatedAt
	c.state.version++
	c.mu.Unlock()

	c.logger.Info("focus: restored cached report",
		slog.String("run_id", e.RunID),
		slog.Time("updated_at", updatedAt))
	c.publish()
	return nil
}

// NeedsRecentFocus reports whether the report for digests must be regenerated.
func (c *Controller) NeedsRecentFocus(ctx context.Context, digests []digest.Digest) bool {
	c.mu.Lock()
	hasContent := c.state.hasContent()
	c.mu.Unlock()

	needed, _ := c.needs(ctx, hasContent, c.fingerprint(digests))
	return needed
}

// GenerateRecentFocusIfNeeded generates a report when NeedsRecentFocus holds.
// It is a no-op while a generation is already in flight.
func (c *Controller) GenerateRecentFocusIfNeeded(ctx context.Context, digests []digest.Digest) error {
	fp := c.fingerprint(digests)

	var (
		epoch  uint64
		reason string
	)
	for {
		c.mu.Lock()
		if c.state.loading {
			c.mu.Unlock()
			metrics.RefreshDecisions.WithLabelValues("in_flight").Inc()
			return nil
		}
		version, hasContent := c.state.version, c.state.hasContent()
		c.mu.Unlock()

		// Cache reads happen without the lock so Snapshot never waits on the store.
		needed, why := c.needs(ctx, hasContent, fp)

		c.mu.Lock()
		if c.state.loading || c.state.version != version {
			c.mu.Unlock()
			continue
		}
		if !needed {
			c.mu.Unlock()
			metrics.RefreshDecisions.WithLabelValues("cached").Inc()
			return nil
		}
		epoch, reason = c.beginLocked(), why
		c.mu.Unlock()
		break
	}

	metrics.RefreshDecisions.WithLabelValues("generate").Inc()
	c.publish()
	return c.generate(ctx, digests, fp, reason, epoch)
}

// RegenerateRecentFocus generates unconditionally. Callers must not invoke it
// while IsLoading is true; there is no queue behind it.
func (c *Controller) RegenerateRecentFocus(ctx context.Context, digests []digest.Digest) error {
	fp := c.fingerprint(digests)

	c.mu.Lock()
	epoch := c.beginLocked()
	c.mu.Unlock()

	c.publish()
	return c.generate(ctx, digests, fp, "forced", epoch)
}

// Reset clears the in-memory report, the cached entry, and the stored fingerprint.
func (c *Controller) Reset(ctx context.Context) error {
	c.mu.Lock()
	c.state = state{epoch: c.state.epoch + 1, version: c.state.version + 1}
	c.mu.Unlock()

	c.publish()
	if err := c.cache.Clear(ctx, c.cacheKey, c.fingerprintKey); err != nil {
		return fmt.Errorf("focus: reset: %w", err)
	}
	c.logger.Info("focus: report reset")
	return nil
}

func (c *Controller) beginLocked() uint64 {
	c.state.loading = true
	c.state.errorMessage = ""
	return c.state.epoch
}

func (c *Controller) generate(ctx context.Context, digests []digest.Digest, fp, reason string, epoch uint64) error {
	runID := ulid.Make().String()
	logger := c.logger.With(slog.String("run_id", runID))
	logger.Info("focus: generating report",
		slog.String("reason", reason),
		slog.Int("digests", len(digests)))

	start := time.Now()
	res, err := c.gen.Generate(ctx, digests, c.params)
	metrics.GenerationDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		return c.fail(logger, epoch, err)
	}

	report := res.Report
	if report != nil && report.empty() {
		report = nil
	}
	if report == nil {
		report = DecodeEmbeddedReport(res.RawMarkdown)
	}
	if report == nil && res.RawMarkdown == "" {
		return c.fail(logger, epoch, ErrEmptyResult)
	}

	if !c.current(epoch) {
		logger.Info("focus: discarding report generated before reset")
		c.publish()
		return nil
	}

	saveCtx := context.WithoutCancel(ctx)
	updatedAt := time.Now()
	e := entry{Report: report, RawMarkdown: res.RawMarkdown, RunID: runID}
	if err := c.cache.SaveWithFingerprint(saveCtx, c.cacheKey, e, c.fingerprintKey, fp); err != nil {
		logger.Error("focus: cache write failed", slog.String("error", err.Error()))
	} else if at, ok, err := c.cache.UpdatedAt(saveCtx, c.cacheKey); err == nil && ok {
		updatedAt = at
	}

	c.mu.Lock()
	if c.state.epoch != epoch {
		c.mu.Unlock()
		// Reset ran while the entry was being written; undo the write.
		if err := c.cache.Clear(saveCtx, c.cacheKey, c.fingerprintKey); err != nil {
			logger.Error("focus: clear after reset failed", slog.String("error", err.Error()))
		}
		logger.Info("focus: discarding report generated before reset")
		c.publish()
		return nil
	}
	c.state.report = report
	c.state.rawMarkdown = res.RawMarkdown
	c.state.loading = false
	c.state.errorMessage = ""
	c.state.updatedAt = updatedAt
	c.state.runID = runID
	c.state.version++
	c.mu.Unlock()

	metrics.GenerationsTotal.WithLabelValues("success").Inc()
	logger.Info("focus: report ready",
		slog.Bool("structured", report != nil),
		slog.Int("markdown_chars", len(res.RawMarkdown)))
	c.publish()
	return nil
}

func (c *Controller) current(epoch uint64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state.epoch == epoch
}

func (c *Controller) fail(logger *slog.Logger, epoch uint64, err error) error {
	metrics.GenerationsTotal.WithLabelValues("error").Inc()
	logger.Warn("focus: generation failed", slog.String("error", err.Error()))
	c.mu.Lock()
	if c.state.epoch == epoch {
		c.state.loading = false
		c.state.errorMessage = err.Error()
	}
	c.mu.Unlock()
	c.publish()
	return fmt.Errorf("focus: generate: %w", err)
}

// needs evaluates the regeneration rule. Any uncertainty counts as needed.
func (c *Controller) needs(ctx context.Context, hasContent bool, fp string) (bool, string) {
	if !hasContent {
		return true, "empty"
	}
	if fp == "" {
		return true, "fingerprint_unavailable"
	}
	stored, err := c.cache.Fingerprint(ctx, c.fingerprintKey)
	if err != nil {
		c.logger.Warn("focus: read fingerprint failed", slog.String("error", err.Error()))
		return true, "cache_error"
	}
	if stored != fp {
		return true, "inputs_changed"
	}
	valid, err := c.cache.IsValid(ctx, c.cacheKey, c.refreshInterval)
	if err != nil {
		c.logger.Warn("focus: cache freshness check failed", slog.String("error", err.Error()))
		return true, "cache_error"
	}
	if !valid {
		return true, "expired"
	}
	return false, ""
}

func (c *Controller) fingerprint(digests []digest.Digest) string {
	return fingerprint.Compute(digests, c.params.ProviderID, c.params.ModelName, c.params.Limit)
}

func (c *Controller) publish() {
	if c.onChange != nil {
		c.onChange(c.Snapshot())
	}
}
