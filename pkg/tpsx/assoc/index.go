package assoc

import (
	"fmt"

	"github.com/sebaB003/tpsx/pkg/tpsx/internalerr"
	"github.com/sebaB003/tpsx/pkg/tpsx/lexicon"
	"github.com/sebaB003/tpsx/pkg/tpsx/topics"
)

// Association is the weighted link between one topic and one token.
//
// Weight is Count divided by the token's global count: it measures how
// concentrated the token is in this topic relative to every topic it has been
// trained under.
type Association struct {
	Topic  topics.Topic
	Token  *lexicon.Token
	Count  int     // Occurrences of the token under Topic
	Weight float64 // Count / global count of Token
}

// TopicResolver looks topics up by label.
type TopicResolver interface {
	Get(label string) (topics.Topic, bool)
}

// Index stores associations keyed by token label, so an update only visits
// the associations of the token being trained.
type Index struct {
	topics TopicResolver
	// token label -> associations, in creation order
	byToken map[string][]*Association
	// token labels in first-seen order, for deterministic iteration
	order []string
	size  int
}

// New creates an empty index resolving topics through r.
func New(r TopicResolver) *Index {
	return &Index{
		topics:  r,
		byToken: make(map[string][]*Association),
	}
}

// Update records one occurrence of tok under topicLabel.
//
// globalCount is the token's global count after the occurrence was recorded
// in the lexicon. Every association of the token is renormalized against it;
// the association for topicLabel additionally has its own count incremented,
// or is created with count 1 when it does not exist yet.
func (x *Index) Update(tok *lexicon.Token, topicLabel string, globalCount int) (Association, error) {
	if tok == nil {
		return Association{}, fmt.Errorf("update association: nil token: %w", internalerr.ErrInvalidArgument)
	}
	if globalCount < 1 {
		return Association{}, fmt.Errorf("update association %q: global count %d: %w",
			tok.Label, globalCount, internalerr.ErrInvalidArgument)
	}
	topic, ok := x.topics.Get(topicLabel)
	if !ok {
		return Association{}, fmt.Errorf("update association %q: topic %q: %w",
			tok.Label, topicLabel, internalerr.ErrUnknownTopic)
	}

	denom := float64(globalCount)
	var target *Association
	for _, a := range x.byToken[tok.Label] {
		if a.Topic.Label == topicLabel {
			a.Count++
			target = a
		}
		a.Weight = float64(a.Count) / denom
	}

	if target == nil {
		target = &Association{
			Topic:  topic,
			Token:  tok,
			Count:  1,
			Weight: 1 / denom,
		}
		x.add(target)
	}

	return *target, nil
}

// Restore inserts a saved association verbatim.
func (x *Index) Restore(tok *lexicon.Token, topicLabel string, count int, weight float64) error {
	if tok == nil || count < 1 {
		return fmt.Errorf("restore association: %w", internalerr.ErrInvalidArgument)
	}
	topic, ok := x.topics.Get(topicLabel)
	if !ok {
		return fmt.Errorf("restore association %q: topic %q: %w", tok.Label, topicLabel, internalerr.ErrUnknownTopic)
	}
	if _, exists := x.Get(tok.Label, topicLabel); exists {
		return fmt.Errorf("restore association %q/%q: duplicate: %w", tok.Label, topicLabel, internalerr.ErrInvalidArgument)
	}

	x.add(&Association{Topic: topic, Token: tok, Count: count, Weight: weight})
	return nil
}

func (x *Index) add(a *Association) {
	label := a.Token.Label
	if _, seen := x.byToken[label]; !seen {
		x.order = append(x.order, label)
	}
	x.byToken[label] = append(x.byToken[label], a)
	x.size++
}

// Lookup returns every association of the token label.
func (x *Index) Lookup(tokenLabel string) []Association {
	list := x.byToken[tokenLabel]
	if len(list) == 0 {
		return nil
	}
	out := make([]Association, len(list))
	for i, a := range list {
		out[i] = *a
	}
	return out
}

// Get returns the association between a token and a topic.
func (x *Index) Get(tokenLabel, topicLabel string) (Association, bool) {
	for _, a := range x.byToken[tokenLabel] {
		if a.Topic.Label == topicLabel {
			return *a, true
		}
	}
	return Association{}, false
}

// All returns every association, grouped by token in first-seen order.
func (x *Index) All() []Association {
	out := make([]Association, 0, x.size)
	for _, label := range x.order {
		for _, a := range x.byToken[label] {
			out = append(out, *a)
		}
	}
	return out
}

// Len returns the number of associations.
func (x *Index) Len() int {
	return x.size
}
