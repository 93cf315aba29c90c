package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"

	"github.com/sebaB003/tpsx/internal/app"
	"github.com/sebaB003/tpsx/internal/logger"
	"github.com/sebaB003/tpsx/internal/server"
	"github.com/sebaB003/tpsx/pkg/tpsx/config"
)

func main() {
	var (
		configPath = flag.String("config", "tpsx.yaml", "Config file")
		addr       = flag.String("addr", "", "Listen address, overrides the config")
		model      = flag.String("model", "", "Serve a stored model by ID, or \"latest\"")
	)
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	if *addr != "" {
		cfg.Server.Addr = *addr
	}

	lg, err := logger.New(cfg.Log.Mode)
	if err != nil {
		log.Fatal(err)
	}
	if cfg.Log.Mode == "production" || cfg.Log.Mode == "prod" {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	ref := app.ResumeRef(cfg, *model)
	if ref != *model {
		lg.Info("resuming snapshot", "path", cfg.Resolve(cfg.Store.Path))
	}
	a, err := app.New(ctx, cfg, lg, ref)
	if err != nil {
		lg.Fatal("build engine", "error", err)
	}
	defer a.Close()

	srv, err := server.New(server.Config{
		Engine:      a.Engine,
		Options:     a.Options,
		Store:       a.Store,
		ModelName:   cfg.Store.Name,
		Merge:       cfg.MergeEnabled(),
		CORSOrigins: cfg.Server.CORSOrigins,
		Logger:      lg.With("component", "server"),
	})
	if err != nil {
		lg.Fatal("init server", "error", err)
	}

	if err := srv.Run(ctx, cfg.Server.Addr); err != nil {
		lg.Error("server stopped", "error", err)
		return
	}

	// The file driver writes the served engine back on shutdown.
	if a.Store == nil {
		a.Engine = srv.Current()
		if _, err := a.Persist(context.Background()); err != nil {
			lg.Error("write snapshot", "error", err)
		}
	}
	lg.Info("shutdown complete")
}
