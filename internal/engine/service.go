package engine

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/arooba/pricing-engine/internal/settings"
	pkgerrors "github.com/arooba/pricing-engine/pkg/errors"
	"github.com/arooba/pricing-engine/pkg/logger"
	"github.com/arooba/pricing-engine/pkg/metrics"
)

// SnapshotLoader builds a fresh settings snapshot.
type SnapshotLoader interface {
	Load(ctx context.Context) (settings.Snapshot, error)
}

// ServiceParams configure the engine service.
type ServiceParams struct {
	Logger   *logger.Logger
	Settings settings.Snapshot
	Loader   SnapshotLoader
	Metrics  *metrics.CalculationMetrics
	// RefreshInterval drives Run; zero or negative disables periodic refresh.
	RefreshInterval time.Duration
	Clock           func() time.Time
}

// Service is the in-process entry point collaborators call. Every operation
// reads the current snapshot once, so a concurrent reload never mixes tables
// within a single calculation.
type Service struct {
	logg     *logger.Logger
	loader   SnapshotLoader
	metrics  *metrics.CalculationMetrics
	interval time.Duration
	now      func() time.Time
	current  atomic.Pointer[settings.Snapshot]
}

// NewService validates the initial snapshot and builds the service.
func NewService(params ServiceParams) (*Service, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if err := params.Settings.Validate(); err != nil {
		return nil, err
	}
	now := params.Clock
	if now == nil {
		now = time.Now
	}
	s := &Service{
		logg:     params.Logger,
		loader:   params.Loader,
		metrics:  params.Metrics,
		interval: params.RefreshInterval,
		now:      now,
	}
	initial := params.Settings.Clone()
	s.current.Store(&initial)
	return s, nil
}

// Snapshot returns a copy of the tables currently in effect.
func (s *Service) Snapshot() settings.Snapshot {
	return s.current.Load().Clone()
}

func (s *Service) tables() *settings.Snapshot {
	return s.current.Load()
}

// Reload validates next and swaps it in. Calculations already running keep
// the snapshot they started with.
func (s *Service) Reload(ctx context.Context, next settings.Snapshot) error {
	ctx = s.logg.WithOperation(ctx, "settings.reload")
	if err := next.Validate(); err != nil {
		s.recordReload(metrics.OutcomeInvalid)
		s.logg.Error(ctx, "rejected settings snapshot", err)
		return err
	}
	stored := next.Clone()
	s.current.Store(&stored)
	s.recordReload(metrics.OutcomeOK)
	s.logg.Info(s.logg.WithFields(ctx, map[string]any{
		"sources":    stored.Sources,
		"categories": len(stored.Pricing.Categories),
		"zones":      len(stored.RateCards),
	}), "settings snapshot loaded")
	return nil
}

// PreviewOverrides layers admin override fields on the current snapshot and
// validates the result without swapping it in. Every bad field is reported.
func (s *Service) PreviewOverrides(ctx context.Context, fields map[string]string) (settings.Snapshot, error) {
	next, err := settings.ApplyOverrides(s.Snapshot(), fields)
	if err == nil {
		err = next.Validate()
	}
	if err != nil {
		s.logg.Warn(s.logg.WithFields(s.logg.WithOperation(ctx, "settings.preview"), map[string]any{
			"fields": len(fields),
			"error":  err.Error(),
		}), "override preview rejected")
		return settings.Snapshot{}, err
	}
	return next, nil
}

// Refresh asks the loader for a new snapshot and reloads it. The previous
// snapshot stays in effect when loading fails.
func (s *Service) Refresh(ctx context.Context) error {
	if s.loader == nil {
		return pkgerrors.New(pkgerrors.CodeConfiguration, "no settings loader configured")
	}
	next, err := s.loader.Load(ctx)
	if err != nil {
		s.recordReload(metrics.OutcomeError)
		s.logg.Error(s.logg.WithOperation(ctx, "settings.refresh"), "settings refresh failed", err)
		return err
	}
	return s.Reload(ctx, next)
}

// Run refreshes settings on a fixed cadence until the context is canceled.
func (s *Service) Run(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	if s.loader == nil || s.interval <= 0 {
		<-ctx.Done()
		return ctx.Err()
	}
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logg.Info(ctx, "settings refresh loop stopped")
			return ctx.Err()
		case <-ticker.C:
			// Failures are logged by Refresh; the loop keeps the last good snapshot.
			_ = s.Refresh(ctx)
		}
	}
}

func (s *Service) recordReload(outcome string) {
	if s.metrics == nil {
		return
	}
	s.metrics.IncReload(outcome)
}

// observe records the outcome of one calculation and logs failures: invalid
// input at warn, everything else at error.
func (s *Service) observe(ctx context.Context, operation string, start time.Time, err error) {
	outcome := outcomeFor(err)
	if s.metrics != nil {
		s.metrics.Observe(operation, outcome, time.Since(start))
	}
	if err == nil {
		return
	}
	ctx = s.logg.WithOperation(ctx, operation)
	if outcome == metrics.OutcomeInvalid {
		s.logg.Warn(s.logg.WithField(ctx, "error", err.Error()), "rejected calculation input")
		return
	}
	s.logg.Error(ctx, "calculation failed", err)
}

func outcomeFor(err error) string {
	switch {
	case err == nil:
		return metrics.OutcomeOK
	case pkgerrors.IsCode(err, pkgerrors.CodeValidation):
		return metrics.OutcomeInvalid
	case pkgerrors.IsCode(err, pkgerrors.CodeInvariant):
		return metrics.OutcomeInvariant
	}
	return metrics.OutcomeError
}
