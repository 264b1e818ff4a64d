package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"eduvision/internal/app"
	"eduvision/internal/config"
	"eduvision/internal/crmapi"
	"eduvision/internal/handlers"
	"eduvision/internal/i18n"
	"eduvision/internal/metrics"
	"eduvision/internal/sessions"
)

// sweepEvery — как часто выбрасываем брошенные вкладки.
const sweepEvery = time.Minute

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	tr, err := i18n.New()
	if err != nil {
		log.Fatalf("i18n: %v", err)
	}
	m := metrics.New()

	api := crmapi.New(cfg.APIURL, crmapi.WithTimeout(cfg.APITimeout), crmapi.WithRecorder(m))
	registry := app.NewRegistry(func() *app.App {
		return app.New(api, app.Options{
			Parent:      ctx,
			Language:    cfg.Language,
			ResetDelay:  cfg.ResetDelay,
			PhonePrefix: cfg.PhonePrefix,
		})
	})

	srv, err := handlers.NewServer(cfg, registry, sessions.New(cfg.SessionSecret, cfg.HTTPS), tr, m)
	if err != nil {
		log.Fatalf("templates: %v", err)
	}
	httpServer := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           srv.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Printf("listening on %s (api %s)", cfg.Addr(), cfg.APIURL)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		t := time.NewTicker(sweepEvery)
		defer t.Stop()
		for {
			select {
			case <-gctx.Done():
				return nil
			case <-t.C:
				if n := registry.Sweep(cfg.IdleTTL); n > 0 {
					log.Printf("sweep: dropped %d idle apps", n)
				}
				m.SetActiveApps(registry.Len())
			}
		}
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		log.Fatal(err)
	}
	log.Println("stopped")
}
