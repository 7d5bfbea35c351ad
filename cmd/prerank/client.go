package main

import (
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/genepile/prerank"
	"github.com/genepile/prerank/internal/codec/codecs"
	"github.com/genepile/prerank/internal/config"
	"github.com/genepile/prerank/internal/stats"
	statslogger "github.com/genepile/prerank/internal/stats/logger"
	stprometheus "github.com/genepile/prerank/internal/stats/prometheus"
	"github.com/genepile/prerank/internal/store"
	"github.com/genepile/prerank/internal/store/gcsstore"
	"github.com/genepile/prerank/internal/store/s3store"
)

// metrics bundles the run's stats collector with whatever must happen once
// the run is over.
type metrics struct {
	collector stats.Collector
	flush     func() error
}

func newMetrics(mc config.MetricsConfig, log *zap.Logger) *metrics {
	switch mc.Backend {
	case config.MetricsLog:
		c := statslogger.New(log.Named("stats"))
		return &metrics{collector: c, flush: func() error {
			c.Flush()
			return nil
		}}
	case config.MetricsPrometheus:
		registry := prometheus.NewRegistry()
		c := stprometheus.New(registry)
		return &metrics{collector: c, flush: func() error {
			if mc.File == "" {
				return nil
			}
			if err := prometheus.WriteToTextfile(mc.File, registry); err != nil {
				return fmt.Errorf("writing metrics: %w", err)
			}
			log.Debug("metrics written", zap.String("file", mc.File))
			return nil
		}}
	default:
		return &metrics{collector: stats.NewNoop(), flush: func() error { return nil }}
	}
}

// storeOption returns the client option reading libraries from the
// configured backend. Disk stores go through the catalog manifest.
func storeOption(ctx context.Context, sc config.StoreConfig) (prerank.Option, error) {
	if sc.Backend == config.BackendDisk {
		return prerank.WithCatalogDir(sc.Dir)
	}

	c, err := codecs.ByName(sc.Codec)
	if err != nil {
		return nil, err
	}
	var st store.Store
	switch sc.Backend {
	case config.BackendGCS:
		st, err = gcsstore.New(ctx, sc.Bucket, c, gcsstore.WithPrefix(sc.Prefix))
	case config.BackendS3:
		st, err = s3store.New(ctx, sc.Bucket, c,
			s3store.WithPrefix(sc.Prefix),
			s3store.WithRegion(sc.Region),
			s3store.WithEndpoint(sc.Endpoint),
		)
	default:
		return nil, fmt.Errorf("unknown store backend %q", sc.Backend)
	}
	if err != nil {
		return nil, fmt.Errorf("opening %s store: %w", sc.Backend, err)
	}
	return prerank.WithStore(st), nil
}
