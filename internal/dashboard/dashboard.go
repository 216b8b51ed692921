// Package dashboard composes inference service calls into one view model per
// dashboard page. Customer pages show an error banner when the service
// fails; analytics pages fall back to the last stored snapshot or to
// deterministic sample data.
package dashboard

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/Veraticus/finsight/internal/common"
	"github.com/Veraticus/finsight/internal/config"
	"github.com/Veraticus/finsight/internal/content"
	"github.com/Veraticus/finsight/internal/fallback"
	"github.com/Veraticus/finsight/internal/service"
)

// Banner messages shown when customer data cannot be loaded.
const (
	MsgLoadFailed       = "Failed to load customer data. Please try again."
	MsgUnexpectedFormat = "Received unexpected data format from API."
	MsgCustomerNotFound = "Customer not found."
)

// Source says where a view's data came from.
type Source string

// Data sources.
const (
	SourceLive     Source = "live"
	SourceSnapshot Source = "snapshot"
	SourceSample   Source = "sample"
)

// Provenance is embedded in every view that follows the fallback policy.
type Provenance struct {
	AsOf   *time.Time `json:"as_of,omitempty"`
	Source Source     `json:"source"`
	Notice string     `json:"notice,omitempty"`
}

// Builder assembles page views. It is safe for concurrent use.
type Builder struct {
	api     service.InferenceAPI
	store   service.Storage
	library *content.Library
	logger  *slog.Logger
	now     func() time.Time
	cfg     config.DashboardConfig
}

// Option configures a Builder.
type Option func(*Builder)

// WithStorage enables snapshots and prediction history. A nil store is
// ignored.
func WithStorage(store service.Storage) Option {
	return func(b *Builder) {
		b.store = store
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(b *Builder) {
		b.logger = logger
	}
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(b *Builder) {
		b.now = now
	}
}

// WithConfig sets sample sizes and analytics defaults.
func WithConfig(cfg config.DashboardConfig) Option {
	return func(b *Builder) {
		b.cfg = cfg
	}
}

// DefaultConfig returns the dashboard defaults.
func DefaultConfig() config.DashboardConfig {
	return config.DashboardConfig{
		SampleSize:    1000,
		SampleSeed:    fallback.DefaultSeed,
		AnalyticsDays: 30,
	}
}

// New creates a builder backed by api and the static content library.
func New(api service.InferenceAPI, library *content.Library, opts ...Option) *Builder {
	b := &Builder{
		api:     api,
		library: library,
		logger:  slog.Default(),
		now:     time.Now,
		cfg:     DefaultConfig(),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Library returns the static content the builder renders from.
func (b *Builder) Library() *content.Library {
	return b.library
}

// bannerMessage picks the banner text for a failed customer load.
func bannerMessage(err error) string {
	if errors.Is(err, common.ErrUnexpectedFormat) {
		return MsgUnexpectedFormat
	}
	return MsgLoadFailed
}

// resolve runs live and, on success, stores the result as the snapshot for
// kind. On failure it returns the stored snapshot, then the sample.
func resolve[T any](ctx context.Context, b *Builder, kind string, live func(context.Context) (T, error), sample func() T) (T, Provenance) {
	value, err := live(ctx)
	if err == nil {
		b.saveSnapshot(ctx, kind, value)
		return value, Provenance{Source: SourceLive}
	}
	b.logger.Warn("Live data unavailable, falling back", "view", kind, "error", err)

	if b.store != nil {
		var stored T
		savedAt, serr := b.store.LoadSnapshot(ctx, kind, &stored)
		if serr == nil {
			return stored, Provenance{
				Source: SourceSnapshot,
				AsOf:   &savedAt,
				Notice: "Inference service unavailable. Showing data saved at " + savedAt.Format(time.DateTime) + ".",
			}
		}
		if !errors.Is(serr, common.ErrNoSnapshot) {
			b.logger.Warn("Failed to load snapshot", "view", kind, "error", serr)
		}
	}

	return sample(), Provenance{
		Source: SourceSample,
		Notice: "Inference service unavailable. Showing sample data.",
	}
}

func (b *Builder) saveSnapshot(ctx context.Context, kind string, payload any) {
	if b.store == nil {
		return
	}
	if err := b.store.SaveSnapshot(ctx, kind, payload); err != nil {
		b.logger.Warn("Failed to save snapshot", "view", kind, "error", err)
	}
}
