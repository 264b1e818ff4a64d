package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"eduvision/internal/config"
	"eduvision/internal/db"
	"eduvision/internal/devapi"
)

func main() {
	var (
		seed         = flag.Bool("seed", false, "create a demo center with an owner account")
		seedEmail    = flag.String("seed-email", "owner@demo.local", "email of the seeded owner")
		seedPassword = flag.String("seed-password", "demo", "password of the seeded owner")
		memory       = flag.Bool("memory", false, "keep data in memory instead of Postgres")
	)
	flag.Parse()

	cfg, err := config.LoadDevAPI()
	if err != nil {
		log.Fatal(err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var store devapi.Store
	if *memory {
		log.Println("devapi: in-memory store, data is lost on exit")
		store = devapi.NewMemoryStore()
	} else {
		conn, err := db.Open(ctx, db.DSNFromEnv())
		if err != nil {
			log.Fatal(err)
		}
		defer conn.Close()
		pg := devapi.NewPGStore(conn)
		if err := pg.Migrate(ctx); err != nil {
			log.Fatal(err)
		}
		store = pg
	}

	if *seed {
		if err := devapi.Seed(ctx, store, *seedEmail, *seedPassword); err != nil {
			log.Fatal(err)
		}
		log.Printf("devapi: seeded owner %s", *seedEmail)
	}

	httpServer := &http.Server{
		Addr:              cfg.Addr,
		Handler:           devapi.NewServer(store, cfg.JWTSecret, cfg.TokenTTL).Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Printf("devapi: listening on %s", cfg.Addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
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
}
