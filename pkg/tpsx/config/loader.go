package config

import (
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/sebaB003/tpsx/internal/corpus"
	"github.com/sebaB003/tpsx/pkg/tpsx"
	"github.com/sebaB003/tpsx/pkg/tpsx/graph"
	"github.com/sebaB003/tpsx/pkg/tpsx/text"
)

// Loader constructs a trained engine from a Config.
type Loader struct {
	Config *Config
	Logger *zap.Logger
}

// Cleaner returns the normalizer described by the config's language and
// stopword adjustments.
func (c *Config) Cleaner() (*text.Cleaner, error) {
	var opts []text.Option
	if c.Stopwords.File != "" {
		sl, err := LoadStoplist(c.Resolve(c.Stopwords.File))
		if err != nil {
			return nil, fmt.Errorf("load stoplist: %w", err)
		}
		opts = append(opts, text.WithStoplist(sl))
	}
	opts = append(opts,
		text.WithStopwords(c.Stopwords.Add...),
		text.WithoutStopwords(c.Stopwords.Remove...),
	)
	return text.NewCleaner(c.LanguageTag(), opts...)
}

// Options returns engine options matching the config.
func (l *Loader) Options() (tpsx.Options, error) {
	cleaner, err := l.Config.Cleaner()
	if err != nil {
		return tpsx.Options{}, err
	}
	return tpsx.Options{
		Language:   l.Config.LanguageTag(),
		Normalizer: cleaner,
		Logger:     l.Logger,
	}, nil
}

// Build creates an engine and trains it with every topic, corpus file,
// relation and rule of the config.
func (l *Loader) Build() (*tpsx.Engine, error) {
	if l.Config == nil {
		return nil, fmt.Errorf("loader has no config")
	}
	opts, err := l.Options()
	if err != nil {
		return nil, err
	}
	e, err := tpsx.New(opts)
	if err != nil {
		return nil, err
	}
	if err := l.Apply(e); err != nil {
		return nil, err
	}
	return e, nil
}

// Apply trains e with the config's topics, corpus files, relations and
// rules, in that order.
func (l *Loader) Apply(e *tpsx.Engine) error {
	cfg := l.Config
	log := l.Logger
	if log == nil {
		log = zap.NewNop()
	}

	for _, t := range cfg.Topics {
		if _, err := e.RegisterTopic(t.Label); err != nil {
			return fmt.Errorf("topic %q: %w", t.Label, err)
		}
		if len(t.Examples) > 0 {
			if err := e.TrainTopic(t.Label, t.Examples...); err != nil {
				return fmt.Errorf("topic %q: %w", t.Label, err)
			}
		}
		if t.HTMLDir != "" {
			examples, err := corpus.LoadHTMLDir(cfg.Resolve(t.HTMLDir), []string{t.Label})
			if err != nil {
				return fmt.Errorf("topic %q: %w", t.Label, err)
			}
			if err := trainExamples(e, examples); err != nil {
				return fmt.Errorf("topic %q: %w", t.Label, err)
			}
			log.Info("trained from html", zap.String("topic", t.Label), zap.Int("documents", len(examples)))
		}
	}

	for _, path := range cfg.Corpus {
		examples, err := corpus.LoadJSONL(cfg.Resolve(path), log)
		if err != nil {
			return fmt.Errorf("load corpus: %w", err)
		}
		if err := trainExamples(e, examples); err != nil {
			return fmt.Errorf("corpus %s: %w", path, err)
		}
		log.Info("trained from corpus", zap.String("path", path), zap.Int("examples", len(examples)))
	}

	for i, r := range cfg.Relations {
		if _, err := e.DeclareRelations(r.From, r.To, r.Coexist, r.Bidirectional); err != nil {
			return fmt.Errorf("relations[%d]: %w", i, err)
		}
	}

	if cfg.Rules != "" {
		data, err := os.ReadFile(cfg.Resolve(cfg.Rules))
		if err != nil {
			return fmt.Errorf("load rules: %w", err)
		}
		rules, err := graph.ParseRules(string(data))
		if err != nil {
			return fmt.Errorf("load rules: %w", err)
		}
		if _, err := e.DeclareRules(rules); err != nil {
			return fmt.Errorf("load rules: %w", err)
		}
	}
	return nil
}

func trainExamples(e *tpsx.Engine, examples []corpus.Example) error {
	for _, batch := range corpus.Group(examples) {
		if err := e.Train(batch.Topics, batch.Texts); err != nil {
			return err
		}
	}
	return nil
}
