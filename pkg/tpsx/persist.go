package tpsx

import (
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/sebaB003/tpsx/pkg/tpsx/graph"
	"github.com/sebaB003/tpsx/pkg/tpsx/snapshot"
	"github.com/sebaB003/tpsx/pkg/tpsx/text"
)

// Save serializes the whole engine state: lexicon, topics, associations
// and relations.
func (e *Engine) Save() ([]byte, error) {
	data, err := snapshot.Encode(e.snapshot())
	if err != nil {
		return nil, fmt.Errorf("save: %w", err)
	}
	return data, nil
}

func (e *Engine) snapshot() snapshot.State {
	s := snapshot.State{Language: string(e.language)}

	for _, tok := range e.lexicon.All() {
		s.Tokens = append(s.Tokens, snapshot.Token{Label: tok.Label, Count: tok.Count})
	}
	for _, topic := range e.topics.All() {
		s.Topics = append(s.Topics, topic.Label)
	}
	for _, a := range e.index.All() {
		s.Associations = append(s.Associations, snapshot.Association{
			Topic:  a.Topic.Label,
			Token:  a.Token.Label,
			Count:  a.Count,
			Weight: a.Weight,
		})
	}
	for _, r := range e.graph.Relations() {
		s.Relations = append(s.Relations, snapshot.Relation{
			A:             r.A,
			B:             r.B,
			Coexist:       r.Coexist,
			Bidirectional: r.Bidirectional,
		})
	}
	return s
}

// Load rebuilds an engine from data produced by Save. The saved language
// takes precedence over opts.Language, and opts.Normalizer is dropped in
// favor of the default cleaner when it was built for another language.
// The other options apply as in New.
func Load(data []byte, opts Options) (*Engine, error) {
	s, err := snapshot.Decode(data)
	if err != nil {
		return nil, fmt.Errorf("load: %w", err)
	}

	lang, err := text.ParseLanguage(s.Language)
	if err != nil {
		return nil, fmt.Errorf("load: %w", err)
	}
	if opts.Language != "" && opts.Language != lang {
		opts.Normalizer = nil
	}
	opts.Language = lang

	e, err := New(opts)
	if err != nil {
		return nil, fmt.Errorf("load: %w", err)
	}
	if err := e.restore(s); err != nil {
		return nil, fmt.Errorf("load: %v: %w", err, ErrPersistence)
	}

	st := e.Stats()
	e.log.Debug("loaded",
		zap.Int("tokens", st.Tokens),
		zap.Int("topics", st.Topics),
		zap.Int("associations", st.Associations),
		zap.Int("relations", st.Relations),
	)
	return e, nil
}

func (e *Engine) restore(s snapshot.State) error {
	for _, label := range s.Topics {
		created, err := e.topics.Register(label)
		if err != nil {
			return err
		}
		if !created {
			return fmt.Errorf("duplicate topic %q", label)
		}
	}
	for _, tok := range s.Tokens {
		if _, err := e.lexicon.Restore(tok.Label, tok.Count); err != nil {
			return err
		}
	}
	for _, a := range s.Associations {
		tok, ok := e.lexicon.Get(a.Token)
		if !ok {
			return fmt.Errorf("association references unknown token %q", a.Token)
		}
		if err := e.index.Restore(tok, a.Topic, a.Count, a.Weight); err != nil {
			return err
		}
	}
	for _, r := range s.Relations {
		rel := graph.Relation{A: r.A, B: r.B, Coexist: r.Coexist, Bidirectional: r.Bidirectional}
		if err := e.graph.Restore(rel); err != nil {
			return err
		}
	}
	return nil
}

// SaveFile writes the engine state to path, replacing it atomically.
func (e *Engine) SaveFile(path string) error {
	data, err := e.Save()
	if err != nil {
		return err
	}

	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("save %s: %v: %w", path, err, ErrPersistence)
		}
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("save %s: %v: %w", path, err, ErrPersistence)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("save %s: %v: %w", path, err, ErrPersistence)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("save %s: %v: %w", path, err, ErrPersistence)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("save %s: %v: %w", path, err, ErrPersistence)
	}
	return nil
}

// LoadFile reads an engine saved with SaveFile.
func LoadFile(path string, opts Options) (*Engine, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("load %s: %v: %w", path, err, ErrPersistence)
	}
	return Load(data, opts)
}
