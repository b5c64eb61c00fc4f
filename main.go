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

	"github.com/AtharAdista/garuda-hacks-6-BE/internal/config"
	"github.com/AtharAdista/garuda-hacks-6-BE/internal/content"
	"github.com/AtharAdista/garuda-hacks-6-BE/internal/game"
	"github.com/AtharAdista/garuda-hacks-6-BE/internal/server"
	"github.com/AtharAdista/garuda-hacks-6-BE/internal/store"
	"github.com/AtharAdista/garuda-hacks-6-BE/internal/websockets"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	ctx := context.Background()

	st, err := store.New(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("store: %v", err)
	}
	defer st.Close()

	if err := st.EnsureSchema(ctx); err != nil {
		log.Fatalf("store: %v", err)
	}

	fetcher := content.NewClient(cfg.AIAPIURL, cfg.FetchTimeout)
	groups := websockets.NewGroups()
	hub := game.NewHub(st, fetcher, groups)

	srv := server.NewServer(*cfg, hub, st)

	go func() {
		log.Printf("listening on %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("http server: %v", err)
		}
	}()

	// Block until asked to stop, then drain connections before closing the
	// pool.
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	log.Println("shutting down")
	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("shutdown: %v", err)
	}
	log.Println("server stopped")
}
