package settings

import (
	"context"
	"strings"

	"github.com/arooba/pricing-engine/pkg/config"
	"github.com/arooba/pricing-engine/pkg/logger"
)

// Loader assembles a validated Snapshot from env configuration, the optional
// table file and the optional admin override source, in that order.
type Loader struct {
	cfg       *config.Config
	overrides OverrideSource
	logg      *logger.Logger
}

func NewLoader(cfg *config.Config, overrides OverrideSource, logg *logger.Logger) *Loader {
	if logg == nil {
		logg = logger.Nop()
	}
	return &Loader{cfg: cfg, overrides: overrides, logg: logg}
}

func (l *Loader) Load(ctx context.Context) (Snapshot, error) {
	snapshot := FromConfig(l.cfg)

	if l.cfg != nil {
		if path := strings.TrimSpace(l.cfg.Pricing.CategoryTablePath); path != "" {
			table, err := LoadTable(path)
			if err != nil {
				return Snapshot{}, err
			}
			snapshot, err = table.Apply(snapshot, "table:"+path)
			if err != nil {
				return Snapshot{}, err
			}
		}
	}

	if l.overrides != nil {
		fields, err := l.overrides.Overrides(ctx)
		if err != nil {
			return Snapshot{}, err
		}
		snapshot, err = ApplyOverrides(snapshot, fields)
		if err != nil {
			return Snapshot{}, err
		}
		if len(fields) > 0 {
			l.logg.Debug(l.logg.WithField(ctx, "override_fields", len(fields)), "applied pricing overrides")
		}
	}

	if err := snapshot.Validate(); err != nil {
		return Snapshot{}, err
	}
	return snapshot, nil
}
