package server

import (
	"fmt"
	"net/http"
	"time"

	"github.com/AtharAdista/garuda-hacks-6-BE/internal/config"
	"github.com/AtharAdista/garuda-hacks-6-BE/internal/game"
	"github.com/AtharAdista/garuda-hacks-6-BE/internal/store"
)

type Server struct {
	port int

	hub   *game.Hub
	store *store.Postgres
}

func NewServer(cfg config.Config, hub *game.Hub, st *store.Postgres) *http.Server {
	s := &Server{
		port:  cfg.Port,
		hub:   hub,
		store: st,
	}

	return &http.Server{
		Addr:         fmt.Sprintf(":%d", s.port),
		Handler:      s.RegisterRoutes(),
		IdleTimeout:  time.Minute,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}
}
