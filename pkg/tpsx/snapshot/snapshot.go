package snapshot

import (
	"bytes"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	"github.com/sebaB003/tpsx/pkg/tpsx/internalerr"
)

// State is the full serializable state of an engine.
// Slices keep the engine's insertion order so IDs are reproduced on load.
type State struct {
	Language     string        `yaml:"language"`
	Tokens       []Token       `yaml:"tokens"`
	Topics       []string      `yaml:"topics"`
	Associations []Association `yaml:"associations"`
	Relations    []Relation    `yaml:"relations"`
}

// Token is a lexicon entry.
type Token struct {
	Label string `yaml:"label"`
	Count int    `yaml:"count"`
}

// Association is a weighted topic/token link.
type Association struct {
	Topic  string  `yaml:"topic"`
	Token  string  `yaml:"token"`
	Count  int     `yaml:"count"`
	Weight float64 `yaml:"weight"`
}

// Relation is a declared topic relation.
type Relation struct {
	A             string `yaml:"a"`
	B             string `yaml:"b"`
	Coexist       bool   `yaml:"coexist"`
	Bidirectional bool   `yaml:"bidirectional"`
}

// Encode serializes s.
func Encode(s State) ([]byte, error) {
	var buf bytes.Buffer
	if err := Write(&buf, s); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Write serializes s to w.
func Write(w io.Writer, s State) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(s); err != nil {
		return fmt.Errorf("encode snapshot: %v: %w", err, internalerr.ErrPersistence)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("encode snapshot: %v: %w", err, internalerr.ErrPersistence)
	}
	return nil
}

// Decode parses data produced by Encode.
func Decode(data []byte) (State, error) {
	return Read(bytes.NewReader(data))
}

// Read parses a snapshot from r.
func Read(r io.Reader) (State, error) {
	var s State
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&s); err != nil {
		if err == io.EOF {
			return State{}, fmt.Errorf("decode snapshot: empty input: %w", internalerr.ErrPersistence)
		}
		return State{}, fmt.Errorf("decode snapshot: %v: %w", err, internalerr.ErrPersistence)
	}
	if s.Language == "" {
		return State{}, fmt.Errorf("decode snapshot: missing language: %w", internalerr.ErrPersistence)
	}
	return s, nil
}
