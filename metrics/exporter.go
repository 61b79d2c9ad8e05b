package metrics

import (
	"context"
	"fmt"
	"time"

	"github.com/ipfs-force-community/metrics"
	logging "github.com/ipfs/go-log/v2"
	"go.opencensus.io/stats/view"

	"github.com/sachinacharyaa/popChain/types"
)

var log = logging.Logger("metrics")

// SetupMetrics registers the gateway views and starts the configured
// exporter. sessionState is polled periodically to keep the session gauge
// current.
func SetupMetrics(ctx context.Context, metricsConfig *metrics.MetricsConfig, sessionState func() types.WalletSession) error {
	log.Infof("metrics config: enabled: %v, exporter type: %s, prometheus: %+v, graphite: %+v",
		metricsConfig.Enabled, metricsConfig.Exporter.Type, metricsConfig.Exporter.Prometheus,
		metricsConfig.Exporter.Graphite)

	if !metricsConfig.Enabled {
		return nil
	}

	if err := view.Register(views...); err != nil {
		return fmt.Errorf("cannot register the view: %w", err)
	}

	switch metricsConfig.Exporter.Type {
	case metrics.ETPrometheus:
		go func() {
			if err := metrics.RegisterPrometheusExporter(ctx, metricsConfig.Exporter.Prometheus); err != nil {
				log.Errorf("failed to register prometheus exporter err: %v", err)
			}
			log.Infof("prometheus exporter server graceful shutdown successful")
		}()

	case metrics.ETGraphite:
		if err := metrics.RegisterGraphiteExporter(ctx, metricsConfig.Exporter.Graphite); err != nil {
			log.Errorf("failed to register graphite exporter: %v", err)
		}
	default:
		log.Warnf("invalid exporter type: %s", metricsConfig.Exporter.Type)
	}

	go recordSessionLoop(ctx, sessionState)

	return nil
}

func recordSessionLoop(ctx context.Context, sessionState func() types.WalletSession) {
	ticker := time.NewTicker(60 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			state := int64(0)
			if sessionState().Status == types.StatusConnected {
				state = 1
			}
			SessionState.Set(ctx, state)
		case <-ctx.Done():
			log.Infof("context done, stop record metrics")
			return
		}
	}
}
