package match

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"mediamerge/internal/content"
	"mediamerge/internal/logging"
	"mediamerge/internal/media"
)

// PipelineConfig configures a consolidation pipeline.
type PipelineConfig struct {
	Provider content.Provider
	Cache    *content.Cache
	Logger   *slog.Logger

	MinWorkers int
	MaxWorkers int
	HeavySize  int64

	Verify         bool
	VerifyMinGroup int
	VerifyMinSize  int64

	Progress ProgressFunc
}

// Pipeline runs a full consolidation pass: group the collection's
// entities by content, then merge each confirmed group in place.
type Pipeline struct {
	engine   *Engine
	resolver *Resolver
	logger   *slog.Logger
}

// NewPipeline creates a pipeline from cfg.
func NewPipeline(cfg PipelineConfig) (*Pipeline, error) {
	if cfg.Provider == nil {
		return nil, fmt.Errorf("pipeline requires a content provider")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Discard()
	}

	opts := []Option{WithLogger(logger)}
	if cfg.Cache != nil {
		opts = append(opts, WithCache(cfg.Cache))
	}
	if cfg.MinWorkers > 0 || cfg.MaxWorkers > 0 {
		opts = append(opts, WithWorkerBounds(cfg.MinWorkers, cfg.MaxWorkers))
	}
	if cfg.HeavySize > 0 {
		opts = append(opts, WithHeavySizeThreshold(cfg.HeavySize))
	}
	if cfg.Progress != nil {
		opts = append(opts, WithProgress(cfg.Progress))
	}

	return &Pipeline{
		engine: NewEngine(cfg.Provider, opts...),
		resolver: NewResolver(ResolverConfig{
			Provider:       cfg.Provider,
			Verify:         cfg.Verify,
			VerifyMinGroup: cfg.VerifyMinGroup,
			VerifyMinSize:  cfg.VerifyMinSize,
			Logger:         logger,
		}),
		logger: logger,
	}, nil
}

// Run consolidates the collection in place and returns what happened
// together with the groups that drove it. An empty collection is a
// successful run that did nothing.
func (p *Pipeline) Run(col *media.Collection) (Summary, []Group) {
	summary := Summary{
		RunID:          uuid.New().String(),
		Started:        time.Now(),
		EntitiesBefore: col.Len(),
	}

	if col.Len() == 0 {
		summary.Elapsed = time.Since(summary.Started)
		p.logger.Info("nothing to consolidate", "run_id", summary.RunID)
		return summary, nil
	}

	groups, stats := p.engine.Groups(col)
	summary.Grouping = stats
	summary.GroupsConfirmed = stats.Confirmed

	plan := p.resolver.Resolve(col, groups)
	removed, failures := plan.Apply(col)

	summary.Merged = plan.Merged
	summary.GroupsSkipped = plan.Skipped
	summary.MergeFailures = failures
	summary.EntitiesAfter = col.Len()
	summary.Elapsed = time.Since(summary.Started)

	p.logger.Info("consolidation pass complete",
		"run_id", summary.RunID,
		"entities_before", summary.EntitiesBefore,
		"entities_after", summary.EntitiesAfter,
		"groups_confirmed", summary.GroupsConfirmed,
		"merged", summary.Merged,
		"removed", removed,
		"failures", failures,
		"elapsed", summary.Elapsed)
	return summary, groups
}
