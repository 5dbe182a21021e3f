package commands

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/rollkit/blockexec/config"
	"github.com/rollkit/blockexec/execution"
	"github.com/rollkit/blockexec/log"
	"github.com/rollkit/blockexec/store"
)

// openStore opens the on-disk store configured in conf.
func openStore(conf config.Config) (*store.DefaultStore, error) {
	kv, err := store.NewDefaultKVStore(conf.RootDir, conf.DBPath, config.DefaultDBName)
	if err != nil {
		return nil, err
	}
	return store.New(store.NewPrefixKVStore(kv, store.DefaultPrefix)), nil
}

// startMetrics returns the executor metrics and, when Prometheus is enabled,
// serves them until the returned stop function is called.
func startMetrics(conf config.Config, logger log.Logger) (*execution.Metrics, func()) {
	if !conf.Instrumentation.IsPrometheusEnabled() {
		return execution.NopMetrics(), func() {}
	}

	metrics := execution.PrometheusMetrics(conf.Instrumentation.Namespace, "chain_id", conf.ChainHash().String())
	srv := &http.Server{
		Addr:              conf.Instrumentation.PrometheusListenAddr,
		Handler:           promhttp.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("prometheus server failed", "error", err)
		}
	}()
	return metrics, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			logger.Error("failed to stop prometheus server", "error", err)
		}
	}
}
