package main

import (
	"context"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/lotobanca/bolita-terminal/internal/authority"
	httpapi "github.com/lotobanca/bolita-terminal/internal/capture/http"
	"github.com/lotobanca/bolita-terminal/internal/capture/session"
	"github.com/lotobanca/bolita-terminal/internal/connectivity"
	"github.com/lotobanca/bolita-terminal/internal/finance"
	"github.com/lotobanca/bolita-terminal/internal/rules"
	"github.com/lotobanca/bolita-terminal/internal/shared/cache"
	"github.com/lotobanca/bolita-terminal/internal/shared/config"
	"github.com/lotobanca/bolita-terminal/internal/shared/db"
	"github.com/lotobanca/bolita-terminal/internal/shared/logger"
	"github.com/lotobanca/bolita-terminal/internal/shared/metrics"
	"github.com/lotobanca/bolita-terminal/internal/syncqueue"
	sqstore "github.com/lotobanca/bolita-terminal/internal/syncqueue/store"
)

func main() {
	cfg := config.Load()
	log, err := logger.New(cfg.ServiceName, cfg.Env)
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Local terminal database backing the durable pending-bet store.
	pg, err := db.ConnectPostgres(cfg.PostgresDSN)
	if err != nil {
		log.Fatal("pg", zap.Error(err))
	}
	defer pg.Close()

	pending := sqstore.NewPostgres(pg)
	if err := pending.EnsureSchema(ctx); err != nil {
		log.Fatal("pending schema", zap.Error(err))
	}

	// Redis for the draw-rules and financial-snapshot read models.
	rdb, err := cache.ConnectRedis(cfg.RedisAddr)
	if err != nil {
		log.Fatal("redis", zap.Error(err))
	}
	defer rdb.Close()

	// Remote authority client + read models.
	auth := authority.New(cfg.AuthorityBaseURL)
	rulesCache := rules.NewCache(rdb, auth, cfg.RulesCacheTTL)
	finStore := finance.NewStore(rdb, auth, cfg.SnapshotCacheTTL)

	// Offline sync queue.
	queue := syncqueue.New(log, pending, auth,
		cfg.NodeID, cfg.SendTimeout, cfg.DrainInterval, cfg.RetrySurfaceThreshold)

	// Connectivity watcher: drains trigger on every restore.
	watcher := connectivity.New(cfg.AuthorityWSURL, log)
	go watcher.Run(ctx)
	go queue.Run(ctx, watcher.Reachable, watcher.Subscribe())

	// Capture sessions + UI-facing API.
	registry := session.NewRegistry(log, rulesCache, queue)
	api := httpapi.NewServer(log, registry, queue, finStore)
	apiSrv := &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.HTTPPort),
		Handler: api.Router(),
	}

	metrics.StartMetricsServer(cfg.MetricsPort, func(hctx context.Context) error {
		if err := pg.PingContext(hctx); err != nil {
			return err
		}
		return rdb.Ping(hctx).Err()
	})

	go func() {
		<-ctx.Done()
		log.Info("shutting down, in-flight send finishes on its own")
		_ = apiSrv.Shutdown(context.Background())
	}()

	log.Info("capture-terminal listening",
		zap.String("addr", fmt.Sprintf(":%s", cfg.HTTPPort)),
		zap.String("node_id", cfg.NodeID),
	)
	if err := apiSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatal("api", zap.Error(err))
	}
}
