package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	httpadapter "github.com/kirillkom/jobmatch/internal/adapters/http"
	"github.com/kirillkom/jobmatch/internal/bootstrap"
	"github.com/kirillkom/jobmatch/internal/config"
)

func main() {
	cfg := config.Load()
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := bootstrap.New(ctx, cfg, "api")
	if err != nil {
		log.Fatalf("bootstrap error: %v", err)
	}
	defer app.Close()

	buildCtx, cancel := context.WithTimeout(ctx, 10*time.Minute)
	version, err := app.RebuildUC.Rebuild(buildCtx)
	cancel()
	if err != nil {
		log.Fatalf("initial index build error: %v", err)
	}
	log.Printf("serving index version %s", version)

	// Refresh the snapshot whenever the worker announces a rebuilt corpus.
	go func() {
		err := app.Queue.SubscribeCorpusRebuilt(ctx, func(handlerCtx context.Context, version string) error {
			if version == app.SearchUC.IndexVersion() {
				return nil
			}
			refreshCtx, cancel := context.WithTimeout(handlerCtx, 10*time.Minute)
			defer cancel()
			_, err := app.RebuildUC.Rebuild(refreshCtx)
			return err
		})
		if err != nil && ctx.Err() == nil {
			log.Printf("rebuild subscription error: %v", err)
		}
	}()

	router := httpadapter.NewRouter(app.SearchUC, app.SearchUC, app.ServerMetrics, httpadapter.RouterConfig{
		Service:           "api",
		RateLimitRPS:      cfg.RateLimitRPS,
		RateLimitBurst:    cfg.RateLimitBurst,
		MaxConcurrent:     cfg.MaxConcurrent,
		BackpressureWait:  time.Duration(cfg.BackpressureWaitMS) * time.Millisecond,
		DefaultTopK:       cfg.DefaultTopK,
		FallbackByDefault: cfg.FallbackByDefault,
	})

	server := &http.Server{
		Addr:         ":" + cfg.APIPort,
		Handler:      router.Handler(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("api listening on :%s", cfg.APIPort)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("api server error: %v", err)
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("api shutdown error: %v", err)
	}
}
