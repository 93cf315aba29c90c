package app

import (
	"context"
	"fmt"
	"os"

	"github.com/sebaB003/tpsx/internal/corpus"
	"github.com/sebaB003/tpsx/internal/logger"
	"github.com/sebaB003/tpsx/pkg/tpsx"
	"github.com/sebaB003/tpsx/pkg/tpsx/config"
	"github.com/sebaB003/tpsx/pkg/tpsx/store"
	"github.com/sebaB003/tpsx/pkg/tpsx/store/memstore"
	"github.com/sebaB003/tpsx/pkg/tpsx/store/sqlite"
)

// LatestModel selects the newest stored model of the configured name.
const LatestModel = "latest"

// App holds the engine and the collaborators shared by the binaries.
type App struct {
	Log     *logger.Logger
	Cfg     *config.Config
	Options tpsx.Options
	Store   store.ModelStore // nil for the file driver
	Engine  *tpsx.Engine
}

// New opens the configured store and either loads a stored model (when
// modelRef is set) or builds a fresh engine from the config.
// modelRef is a model ID or LatestModel; with the file driver any non-empty
// value loads the snapshot file.
func New(ctx context.Context, cfg *config.Config, log *logger.Logger, modelRef string) (*App, error) {
	if log == nil {
		log = logger.Nop()
	}
	a := &App{Log: log, Cfg: cfg}

	loader := &config.Loader{Config: cfg, Logger: log.Zap()}
	opts, err := loader.Options()
	if err != nil {
		return nil, fmt.Errorf("engine options: %w", err)
	}
	a.Options = opts

	storeCfg := cfg.Store
	storeCfg.Path = cfg.Resolve(storeCfg.Path)
	st, err := OpenStore(ctx, storeCfg)
	if err != nil {
		return nil, err
	}
	a.Store = st

	if modelRef != "" {
		a.Engine, err = a.load(ctx, modelRef)
	} else {
		a.Engine, err = loader.Build()
	}
	if err != nil {
		a.Close()
		return nil, err
	}

	stats := a.Engine.Stats()
	log.Info("engine ready",
		"language", a.Engine.Language(),
		"topics", stats.Topics,
		"tokens", stats.Tokens,
		"relations", stats.Relations,
	)
	return a, nil
}

// OpenStore opens the model store selected by the config.
func OpenStore(ctx context.Context, cfg config.Store) (store.ModelStore, error) {
	switch cfg.Driver {
	case config.DriverMemory:
		return memstore.New(), nil
	case config.DriverSQLite:
		st, err := sqlite.OpenSQLite(ctx, cfg.Path)
		if err != nil {
			return nil, fmt.Errorf("open store: %w", err)
		}
		return st, nil
	case config.DriverFile:
		return nil, nil
	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.Driver)
	}
}

func (a *App) load(ctx context.Context, ref string) (*tpsx.Engine, error) {
	if a.Store == nil {
		path := a.Cfg.Resolve(a.Cfg.Store.Path)
		a.Log.Info("loading snapshot", "path", path)
		return tpsx.LoadFile(path, a.Options)
	}

	var (
		m   store.Model
		err error
	)
	if ref == LatestModel {
		m, err = a.Store.LatestModel(ctx, a.Cfg.Store.Name)
	} else {
		m, err = a.Store.GetModel(ctx, ref)
	}
	if err != nil {
		return nil, fmt.Errorf("load model %s: %w", ref, err)
	}
	a.Log.Info("loading model", "id", m.ID, "name", m.Name, "created_at", m.CreatedAt)
	return tpsx.Load(m.Data, a.Options)
}

// ResumeRef returns the model reference to start from. With the file driver
// and no explicit ref, an existing snapshot is resumed so that a later
// Persist does not overwrite it with an engine built from the config alone.
func ResumeRef(cfg *config.Config, ref string) string {
	if ref != "" || cfg.Store.Driver != config.DriverFile {
		return ref
	}
	if _, err := os.Stat(cfg.Resolve(cfg.Store.Path)); err == nil {
		return LatestModel
	}
	return ref
}

// TrainCorpus trains the engine with a JSONL corpus file.
func (a *App) TrainCorpus(path string) (int, error) {
	examples, err := corpus.LoadJSONL(path, a.Log.Zap())
	if err != nil {
		return 0, err
	}
	for _, batch := range corpus.Group(examples) {
		if err := a.Engine.Train(batch.Topics, batch.Texts); err != nil {
			return 0, fmt.Errorf("train %s: %w", path, err)
		}
	}
	a.Log.Info("trained from corpus", "path", path, "examples", len(examples))
	return len(examples), nil
}

// Persist stores the engine: in the model store under the configured name,
// or in the snapshot file for the file driver. It returns the model ID or
// the file path.
func (a *App) Persist(ctx context.Context) (string, error) {
	if a.Store == nil {
		path := a.Cfg.Resolve(a.Cfg.Store.Path)
		if err := a.Engine.SaveFile(path); err != nil {
			return "", err
		}
		a.Log.Info("snapshot written", "path", path)
		return path, nil
	}

	data, err := a.Engine.Save()
	if err != nil {
		return "", err
	}
	id, err := a.Store.SaveModel(ctx, store.Model{
		Name:     a.Cfg.Store.Name,
		Language: string(a.Engine.Language()),
		Data:     data,
	})
	if err != nil {
		return "", err
	}
	a.Log.Info("model stored", "id", id, "name", a.Cfg.Store.Name, "bytes", len(data))
	return id, nil
}

// Close releases the model store.
func (a *App) Close() {
	if a.Store != nil {
		if err := a.Store.Close(); err != nil {
			a.Log.Warn("close store", "error", err)
		}
	}
	a.Log.Sync()
}
