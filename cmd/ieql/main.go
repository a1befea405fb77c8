package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"sync"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/ieql"
	"github.com/kailas-cloud/ieql/internal/config"
	dbRedis "github.com/kailas-cloud/ieql/internal/db/redis"
	logpkg "github.com/kailas-cloud/ieql/internal/logger"
	"github.com/kailas-cloud/ieql/internal/metrics"
	"github.com/kailas-cloud/ieql/internal/queue"
	chiTransport "github.com/kailas-cloud/ieql/internal/transport/chi"
	"github.com/kailas-cloud/ieql/internal/version"
)

func main() {
	// Load configuration based on ENV
	env := config.GetEnv()

	cfg, err := config.Load(env)
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	logger, err := logpkg.NewLogger(env, cfg.Logging.Level)
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Starting ieql scanner",
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.String("env", env),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.String("queue_driver", cfg.Queue.Driver),
		zap.Strings("queue_addrs", cfg.Queue.Addrs),
	)

	metrics.RegisterScanMetrics()

	// Load and compile queries
	queries, err := loadQueries(cfg.Queries.Dir)
	if err != nil {
		logger.Fatal("Failed to load queries", zap.Error(err))
	}
	if len(queries) == 0 {
		logger.Fatal("No queries found", zap.String("dir", cfg.Queries.Dir))
	}

	engine, err := ieql.Compile(queries,
		ieql.WithWorkers(cfg.Scan.Workers),
		ieql.WithExcerptWindow(cfg.Scan.ExcerptWindowBytes),
		ieql.WithTextFallback(cfg.Scan.AllowTextFallback),
		ieql.WithLogger(logger),
	)
	if err != nil {
		logger.Fatal("Failed to compile query group", zap.Error(err))
	}
	logger.Info("Query group compiled", zap.Int("queries", engine.QueryCount()))

	// Connect the stream store
	store, err := dbRedis.NewStore(dbRedis.Config{
		Addrs:    cfg.Queue.Addrs,
		Password: cfg.Queue.Password,
	})
	if err != nil {
		logger.Fatal("Failed to create stream store", zap.Error(err))
	}
	defer store.Close()

	ctx := context.Background()
	if err := store.WaitForReady(ctx, time.Duration(cfg.Queue.ReadinessTimeout)*time.Second); err != nil {
		logger.Fatal("Stream store not ready", zap.Error(err))
	}
	logger.Info("Connected to stream store")

	// Wire queues and scanner
	source := queue.NewSource(store, cfg.Queue.DocumentStream, cfg.Queue.ConsumerGroup, cfg.Queue.Consumer, logger)
	sink := queue.NewSink(store, cfg.Queue.ResponseStream, logger)

	in := make(chan ieql.Task, cfg.Scan.InputQueueCapacity)
	out := make(chan ieql.ScanResponse, cfg.Scan.OutputQueueCapacity)

	runCtx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	var wg sync.WaitGroup
	wg.Add(3)
	go func() {
		defer wg.Done()
		if err := source.Run(runCtx, in); err != nil {
			logger.Error("Document source failed", zap.Error(err))
			stop()
		}
		close(in)
	}()
	go func() {
		defer wg.Done()
		if err := engine.Run(runCtx, in, out); err != nil {
			logger.Warn("Scanner stopped", zap.Error(err))
		}
		close(out)
	}()
	go func() {
		defer wg.Done()
		// The sink drains whatever the scanner produced, even mid-shutdown.
		if err := sink.Run(context.Background(), out); err != nil {
			logger.Error("Response sink failed", zap.Error(err))
		}
	}()

	// Ops HTTP server
	opsServer := chiTransport.New(engine, store.Ping, logger)
	addr := fmt.Sprintf(":%d", cfg.HTTP.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      opsServer.Router(),
		ReadTimeout:  time.Duration(cfg.HTTP.ReadTimeoutSec) * time.Second,
		WriteTimeout: time.Duration(cfg.HTTP.WriteTimeoutSec) * time.Second,
	}
	go func() {
		logger.Info("Starting ops HTTP server", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("HTTP server error", zap.Error(err))
		}
	}()

	<-runCtx.Done()
	logger.Info("Received shutdown signal")

	wg.Wait()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.HTTP.ShutdownSec)*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Error during shutdown", zap.Error(err))
	}

	logger.Info("Scanner stopped gracefully")
}

// loadQueries reads every *.ieql file in dir. Each file holds one query, a
// query array, or an object with a "queries" field.
func loadQueries(dir string) ([]ieql.Query, error) {
	if dir == "" {
		return nil, fmt.Errorf("queries.dir is not configured")
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read queries dir: %w", err)
	}

	var names []string
	for _, e := range entries {
		if !e.IsDir() && filepath.Ext(e.Name()) == ".ieql" {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)

	var queries []ieql.Query
	for _, name := range names {
		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", name, err)
		}
		parsed, err := ieql.ParseSource(data)
		if err != nil {
			return nil, fmt.Errorf("parse %s: %w", name, err)
		}
		queries = append(queries, parsed...)
	}
	return queries, nil
}
