package server

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/sebaB003/tpsx/internal/logger"
	"github.com/sebaB003/tpsx/pkg/tpsx"
	"github.com/sebaB003/tpsx/pkg/tpsx/store"
)

// Config wires a Server.
type Config struct {
	Engine *tpsx.Engine

	// Options rebuilds engines when a stored model is loaded.
	Options tpsx.Options

	// Store is optional; model routes answer 501 without it.
	Store     store.ModelStore
	ModelName string

	Merge  bool
	Logger *logger.Logger

	// CORSOrigins enables CORS for these origins when not empty.
	CORSOrigins []string
}

// Server serves one engine over HTTP. Engine access is serialized: reads
// share a lock, training and relation changes take it exclusively.
type Server struct {
	mu     sync.RWMutex
	engine *tpsx.Engine

	opts      tpsx.Options
	store     store.ModelStore
	modelName string
	merge     bool
	origins   []string
	log       *logger.Logger

	Engine *gin.Engine
}

// New builds the server and its router.
func New(cfg Config) (*Server, error) {
	if cfg.Engine == nil {
		return nil, errors.New("server: engine is required")
	}
	log := cfg.Logger
	if log == nil {
		log = logger.Nop()
	}
	name := cfg.ModelName
	if name == "" {
		name = "default"
	}

	s := &Server{
		engine:    cfg.Engine,
		opts:      cfg.Options,
		store:     cfg.Store,
		modelName: name,
		merge:     cfg.Merge,
		origins:   cfg.CORSOrigins,
		log:       log,
	}
	s.Engine = s.router()
	return s, nil
}

func (s *Server) router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(RequestID())
	r.Use(s.requestLog())
	if len(s.origins) > 0 {
		r.Use(CORS(s.origins))
	}

	r.GET("/healthcheck", s.HealthCheck)

	api := r.Group("/api")
	{
		api.GET("/topics", s.ListTopics)
		api.POST("/topics", s.RegisterTopic)
		api.GET("/topics/:label/related", s.RelatedOf)

		api.POST("/train", s.Train)

		api.GET("/relations", s.ListRelations)
		api.POST("/relations", s.DeclareRelations)

		api.POST("/predict", s.Predict)

		api.GET("/models", s.ListModels)
		api.POST("/models", s.SaveModel)
		api.POST("/models/:id/load", s.LoadModel)
	}
	return r
}

// Current returns the engine being served.
func (s *Server) Current() *tpsx.Engine {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.engine
}

// Run serves on addr until ctx is canceled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info("listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}
