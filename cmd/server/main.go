package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/charmbracelet/log"

	"reneu/pkg/api"
	"reneu/pkg/config"
	"reneu/pkg/store"
)

func main() {
	configPath := flag.String("config", "", "Path to a .toml or .yaml config file")
	addr := flag.String("addr", "", "Listen address (overrides config)")
	corsOrigin := flag.String("cors-origin", "", "CORS allowed origin (empty = same-origin)")
	flag.Parse()

	cfg := config.Default()
	if *configPath != "" {
		var err error
		if cfg, err = config.Load(*configPath); err != nil {
			log.Fatal("Failed to load config", "err", err)
		}
	}
	if *addr != "" {
		cfg.Server.Addr = *addr
	}
	if *corsOrigin != "" {
		cfg.Server.CORSOrigin = *corsOrigin
	}

	level, _ := log.ParseLevel(cfg.Log.Level)
	log.SetDefault(log.NewWithOptions(os.Stderr, log.Options{
		ReportTimestamp: true,
		TimeFormat:      "15:04:05.00",
		Level:           level,
	}))

	start := time.Now()
	s, err := store.Open(cfg.Store)
	if err != nil {
		log.Fatal("Failed to open store", "kind", cfg.Store.Kind, "path", cfg.Store.Path, "err", err)
	}
	defer s.Close()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if ids, err := s.ListSkeletons(ctx); err == nil {
		log.Info("Store ready", "kind", cfg.Store.Kind, "skeletons", len(ids), "elapsed", time.Since(start).Round(time.Millisecond))
	}

	handlers := api.NewHandlers(s, cfg.Codec.Precision)
	srv := api.NewServer(cfg.Server, handlers)

	if err := api.ListenAndServe(ctx, srv); err != nil {
		log.Error("Server stopped", "err", err)
		s.Close()
		os.Exit(1)
	}
}
