package text

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/blevesearch/snowballstem"
	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"

	"github.com/sebaB003/tpsx/pkg/tpsx/internalerr"
)

// Cleaner turns raw text into sentences of normalized tokens for one
// language: punctuation stripped, lowercased, stemmed and stop-word filtered.
// The same input always yields the same output.
type Cleaner struct {
	lang  Language
	stem  func(*snowballstem.Env) bool
	caser cases.Caser
	stops *Stoplist
}

// Option configures a Cleaner.
type Option func(*Cleaner)

// WithStopwords adds words to the language stoplist.
func WithStopwords(words ...string) Option {
	return func(c *Cleaner) {
		for _, w := range words {
			c.stops.Add(w)
		}
	}
}

// WithoutStopwords removes words from the language stoplist.
func WithoutStopwords(words ...string) Option {
	return func(c *Cleaner) {
		for _, w := range words {
			c.stops.Remove(w)
		}
	}
}

// WithStoplist replaces the bundled stoplist.
func WithStoplist(s *Stoplist) Option {
	return func(c *Cleaner) {
		if s != nil {
			c.stops = s
		}
	}
}

// NewCleaner creates a cleaner for lang.
func NewCleaner(lang Language, opts ...Option) (*Cleaner, error) {
	spec, ok := languages[lang]
	if !ok {
		return nil, fmt.Errorf("cleaner %q: %w", lang, internalerr.ErrUnsupportedLanguage)
	}

	stops, err := LoadStoplist(lang)
	if err != nil {
		return nil, err
	}

	c := &Cleaner{
		lang:  lang,
		stem:  spec.stem,
		caser: cases.Lower(spec.tag),
		stops: stops,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Language returns the cleaner's language.
func (c *Cleaner) Language() Language {
	return c.lang
}

// Stoplist returns the stop words in use.
func (c *Cleaner) Stoplist() *Stoplist {
	return c.stops
}

// Normalize splits text into sentences and each sentence into normalized
// tokens. Sentences left without tokens are dropped.
func (c *Cleaner) Normalize(text string) [][]string {
	text = norm.NFC.String(text)

	var out [][]string
	for _, sentence := range Sentences(text) {
		if tokens := c.NormalizeSentence(sentence); len(tokens) > 0 {
			out = append(out, tokens)
		}
	}
	return out
}

// NormalizeSentence normalizes a single sentence without splitting it.
func (c *Cleaner) NormalizeSentence(sentence string) []string {
	lowered := c.caser.String(sentence)
	stripped := strings.Map(func(r rune) rune {
		if unicode.IsPunct(r) || unicode.IsSymbol(r) {
			return ' '
		}
		return r
	}, lowered)

	var tokens []string
	for _, word := range strings.Fields(stripped) {
		if c.stops.IsStop(word) {
			continue
		}
		stem := c.Stem(word)
		if stem == "" || c.stops.IsStop(stem) {
			continue
		}
		tokens = append(tokens, stem)
	}
	return tokens
}

// Stem returns the stem of a lowercase word.
func (c *Cleaner) Stem(word string) string {
	env := snowballstem.NewEnv(word)
	c.stem(env)
	return env.Current()
}

// Flatten concatenates sentence groups into one token stream.
func Flatten(sentences [][]string) []string {
	n := 0
	for _, s := range sentences {
		n += len(s)
	}
	out := make([]string, 0, n)
	for _, s := range sentences {
		out = append(out, s...)
	}
	return out
}
