package lexicon

import (
	"fmt"

	"github.com/sebaB003/tpsx/pkg/tpsx/internalerr"
)

// Lexicon is the registry of every distinct token seen during training.
//
// Each token carries a running global occurrence count. Tokens are stored in
// an arena and receive sequential IDs (starting at 1) in insertion order, so
// two lexicons built from the same training sequence assign the same IDs.
//
// The lexicon owns its tokens. Other components (the association index,
// prediction results) hold references to them but never change them.
type Lexicon struct {
	tokens []*Token
	// label -> position in tokens
	index map[string]int
}

// Token is a distinct normalized word form.
type Token struct {
	ID    int    // Sequential id assigned on insertion
	Label string // Normalized form, unique within the lexicon
	Count int    // Global occurrences across all topics, always >= 1
}

// New creates an empty lexicon.
func New() *Lexicon {
	return &Lexicon{
		index: make(map[string]int),
	}
}

// Touch records one occurrence of label.
// A new token is created with count 1; an existing one is incremented.
// It returns the token and its resulting global count.
func (l *Lexicon) Touch(label string) (*Token, int) {
	if pos, ok := l.index[label]; ok {
		tok := l.tokens[pos]
		tok.Count++
		return tok, tok.Count
	}

	tok := &Token{
		ID:    len(l.tokens) + 1,
		Label: label,
		Count: 1,
	}
	l.index[label] = len(l.tokens)
	l.tokens = append(l.tokens, tok)
	return tok, tok.Count
}

// Get returns the token stored under label.
func (l *Lexicon) Get(label string) (*Token, bool) {
	pos, ok := l.index[label]
	if !ok {
		return nil, false
	}
	return l.tokens[pos], true
}

// Restore inserts a token with a known count, used when rebuilding a saved model.
// Tokens must be restored in their original ID order.
func (l *Lexicon) Restore(label string, count int) (*Token, error) {
	if label == "" {
		return nil, fmt.Errorf("restore token: empty label: %w", internalerr.ErrInvalidArgument)
	}
	if count < 1 {
		return nil, fmt.Errorf("restore token %q: count %d: %w", label, count, internalerr.ErrInvalidArgument)
	}
	if _, exists := l.index[label]; exists {
		return nil, fmt.Errorf("restore token %q: duplicate label: %w", label, internalerr.ErrInvalidArgument)
	}

	tok, _ := l.Touch(label)
	tok.Count = count
	return tok, nil
}

// Len returns the number of distinct tokens.
func (l *Lexicon) Len() int {
	return len(l.tokens)
}

// All returns copies of every token in ID order.
func (l *Lexicon) All() []Token {
	out := make([]Token, len(l.tokens))
	for i, tok := range l.tokens {
		out[i] = *tok
	}
	return out
}

// Stats returns statistics about the lexicon contents.
func (l *Lexicon) Stats() Stats {
	total := 0
	for _, tok := range l.tokens {
		total += tok.Count
	}
	return Stats{
		Tokens:      len(l.tokens),
		Occurrences: total,
	}
}

// Stats holds statistics about lexicon contents.
type Stats struct {
	Tokens      int // Number of distinct tokens
	Occurrences int // Sum of all global counts
}
