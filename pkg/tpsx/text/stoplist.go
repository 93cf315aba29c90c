package text

import (
	"embed"
	"fmt"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/sebaB003/tpsx/pkg/tpsx/internalerr"
)

//go:embed stopwords/*.yaml
var stopwordFS embed.FS

// Stoplist is a set of lowercase stop words.
type Stoplist struct {
	stops map[string]struct{}
}

// NewStoplist creates a stoplist from the given terms.
func NewStoplist(terms []string) *Stoplist {
	s := &Stoplist{stops: make(map[string]struct{}, len(terms))}
	for _, t := range terms {
		s.Add(t)
	}
	return s
}

// LoadStoplist returns the bundled stop words of lang.
//
// Stoplists are YAML documents of the form:
//
//	terms:
//	  - the
//	  - a
func LoadStoplist(lang Language) (*Stoplist, error) {
	spec, ok := languages[lang]
	if !ok {
		return nil, fmt.Errorf("stoplist %q: %w", lang, internalerr.ErrUnsupportedLanguage)
	}

	data, err := stopwordFS.ReadFile("stopwords/" + spec.stoplist + ".yaml")
	if err != nil {
		return nil, fmt.Errorf("read stoplist %q: %w", lang, err)
	}
	return ParseStoplist(data)
}

// ParseStoplist decodes a YAML stoplist document.
func ParseStoplist(data []byte) (*Stoplist, error) {
	var doc struct {
		Terms []string `yaml:"terms"`
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse stoplist: %w", err)
	}
	return NewStoplist(doc.Terms), nil
}

// IsStop checks if a word is a stop word.
func (s *Stoplist) IsStop(word string) bool {
	_, ok := s.stops[word]
	return ok
}

// Add adds a word to the stoplist.
func (s *Stoplist) Add(word string) {
	word = strings.ToLower(strings.TrimSpace(word))
	if word == "" {
		return
	}
	s.stops[word] = struct{}{}
}

// Remove removes a word from the stoplist.
func (s *Stoplist) Remove(word string) {
	delete(s.stops, strings.ToLower(strings.TrimSpace(word)))
}

// All returns every stop word, sorted.
func (s *Stoplist) All() []string {
	out := make([]string, 0, len(s.stops))
	for w := range s.stops {
		out = append(out, w)
	}
	sort.Strings(out)
	return out
}

// Len returns the number of stop words.
func (s *Stoplist) Len() int {
	return len(s.stops)
}
