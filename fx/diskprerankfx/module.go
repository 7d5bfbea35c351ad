// Package diskprerankfx provides an fx module for a prerank client reading
// gene set libraries from a catalog directory.
package diskprerankfx

import (
	"context"

	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/genepile/prerank"
	"github.com/genepile/prerank/internal/stats"
	"github.com/genepile/prerank/internal/stats/logger"
)

// Config holds configuration for the disk-backed client.
type Config struct {
	// CatalogDir is a directory written by "prerank build".
	CatalogDir string

	// CacheSize is the number of decoded libraries kept in memory.
	// Zero uses the client default.
	CacheSize int

	// Params overrides the default analysis parameters when non-nil.
	Params *prerank.Params

	// Workers bounds concurrent gene set scoring. Zero uses GOMAXPROCS.
	Workers int
}

// Module provides a catalog-backed prerank client.
// Requires a *zap.Logger and a Config to be provided.
var Module = fx.Module("diskprerank",
	fx.Provide(
		newStatsCollector,
		newClient,
	),
)

func newStatsCollector(log *zap.Logger) stats.Collector {
	return logger.New(log.Named("prerank.stats"))
}

// Params holds dependencies for creating the client.
type Params struct {
	fx.In

	Config    Config
	Logger    *zap.Logger
	Collector stats.Collector
	Lifecycle fx.Lifecycle
}

func newClient(p Params) (*prerank.Client, error) {
	catalogOpt, err := prerank.WithCatalogDir(p.Config.CatalogDir)
	if err != nil {
		return nil, err
	}

	opts := []prerank.Option{
		catalogOpt,
		prerank.WithStats(p.Collector),
		prerank.WithLogger(p.Logger.Named("prerank")),
	}
	if p.Config.CacheSize > 0 {
		opts = append(opts, prerank.WithCacheSize(p.Config.CacheSize))
	}
	if p.Config.Params != nil {
		opts = append(opts, prerank.WithParams(*p.Config.Params))
	}
	if p.Config.Workers > 0 {
		opts = append(opts, prerank.WithWorkers(p.Config.Workers))
	}

	client, err := prerank.New(opts...)
	if err != nil {
		return nil, err
	}

	p.Lifecycle.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			return client.Close()
		},
	})
	return client, nil
}
