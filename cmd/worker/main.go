package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/kirillkom/jobmatch/internal/bootstrap"
	"github.com/kirillkom/jobmatch/internal/config"
	"github.com/kirillkom/jobmatch/internal/observability/metrics"
)

func main() {
	cfg := config.Load()
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := bootstrap.New(ctx, cfg, "worker")
	if err != nil {
		log.Fatalf("bootstrap error: %v", err)
	}
	defer app.Close()

	workerMetrics := metrics.NewWorkerMetrics("worker")
	metricsServer := &http.Server{
		Addr:    ":" + cfg.WorkerMetricsPort,
		Handler: workerMetrics.Handler(),
	}
	go func() {
		log.Printf("worker metrics listening on :%s", cfg.WorkerMetricsPort)
		if err := metricsServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("worker metrics server error: %v", err)
		}
	}()

	rebuild := func() {
		buildCtx, cancel := context.WithTimeout(ctx, 30*time.Minute)
		defer cancel()

		workerMetrics.StartBuild()
		started := time.Now()
		version, err := app.RebuildUC.Rebuild(buildCtx)
		workerMetrics.FinishBuild("worker", time.Since(started), err)
		if err != nil {
			log.Printf("index rebuild error: %v", err)
			return
		}
		workerMetrics.SetCorpusSize(app.SearchUC.CorpusStats())
		log.Printf("index rebuilt, version %s", version)
	}

	scheduler := cron.New(cron.WithLogger(cron.DefaultLogger))
	if _, err := scheduler.AddFunc(cfg.RebuildSchedule, rebuild); err != nil {
		log.Fatalf("invalid rebuild schedule %q: %v", cfg.RebuildSchedule, err)
	}
	scheduler.Start()
	log.Printf("rebuild scheduled with spec %q", cfg.RebuildSchedule)

	// Build once at startup so a fresh deployment does not wait for the
	// first tick.
	go rebuild()

	<-ctx.Done()

	stopCtx := scheduler.Stop()
	select {
	case <-stopCtx.Done():
	case <-time.After(30 * time.Second):
		log.Printf("timed out waiting for running rebuild to finish")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := metricsServer.Shutdown(shutdownCtx); err != nil {
		log.Printf("worker metrics shutdown error: %v", err)
	}
}
