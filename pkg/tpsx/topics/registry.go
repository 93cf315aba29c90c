package topics

import (
	"fmt"
	"strings"

	"github.com/sebaB003/tpsx/pkg/tpsx/internalerr"
)

// Topic is a user-declared category label.
type Topic struct {
	ID    int
	Label string
}

// Registry holds the distinct topics of one engine.
// IDs are assigned sequentially from 1 in declaration order.
type Registry struct {
	topics []Topic
	index  map[string]int
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{index: make(map[string]int)}
}

// ValidLabel reports whether label can name a topic.
func ValidLabel(label string) bool {
	return strings.TrimSpace(label) != ""
}

// Register declares a topic. It is idempotent and reports whether the topic was created.
func (r *Registry) Register(label string) (bool, error) {
	if !ValidLabel(label) {
		return false, fmt.Errorf("register topic %q: %w", label, internalerr.ErrInvalidArgument)
	}
	if _, ok := r.index[label]; ok {
		return false, nil
	}
	r.index[label] = len(r.topics)
	r.topics = append(r.topics, Topic{ID: len(r.topics) + 1, Label: label})
	return true, nil
}

// Get returns the topic with the given label.
func (r *Registry) Get(label string) (Topic, bool) {
	pos, ok := r.index[label]
	if !ok {
		return Topic{}, false
	}
	return r.topics[pos], true
}

// Has reports whether label is registered.
func (r *Registry) Has(label string) bool {
	_, ok := r.index[label]
	return ok
}

// All returns the topics in declaration order.
func (r *Registry) All() []Topic {
	out := make([]Topic, len(r.topics))
	copy(out, r.topics)
	return out
}

// Len returns the number of topics.
func (r *Registry) Len() int {
	return len(r.topics)
}
