// Package memoryprerankfx provides an fx module for a prerank client backed
// by an in-memory library store. Useful for testing.
package memoryprerankfx

import (
	"context"

	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/genepile/prerank"
	"github.com/genepile/prerank/internal/stats"
	"github.com/genepile/prerank/internal/stats/logger"
	"github.com/genepile/prerank/internal/store/memstore"
)

// Module provides an in-memory prerank client and its store.
// Requires a *zap.Logger to be provided. A prerank.Params value may be
// supplied to override the defaults.
var Module = fx.Module("memoryprerank",
	fx.Provide(
		newStatsCollector,
		newMemStore,
		newClient,
	),
)

func newStatsCollector(log *zap.Logger) stats.Collector {
	return logger.New(log.Named("prerank.stats"))
}

func newMemStore() *memstore.Store {
	return memstore.New()
}

// Params holds dependencies for creating the client.
type Params struct {
	fx.In

	Logger    *zap.Logger
	Collector stats.Collector
	Store     *memstore.Store
	Analysis  *prerank.Params `optional:"true"`
	Lifecycle fx.Lifecycle
}

func newClient(p Params) (*prerank.Client, error) {
	opts := []prerank.Option{
		prerank.WithStore(p.Store),
		prerank.WithStats(p.Collector),
		prerank.WithLogger(p.Logger.Named("prerank")),
	}
	if p.Analysis != nil {
		opts = append(opts, prerank.WithParams(*p.Analysis))
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
