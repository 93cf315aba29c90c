package graph

import (
	"fmt"

	"github.com/sebaB003/tpsx/pkg/tpsx/internalerr"
)

// Relation is a declared relationship between two topics.
//
// A directed relation reads A -> B: B is related to A but not the other way
// round. A bidirectional relation links both endpoints to each other.
// Relations are values; the graph replaces them instead of mutating them.
type Relation struct {
	A             string
	B             string
	Coexist       bool // true: related scores add up, false: they conflict
	Bidirectional bool
}

// String renders the relation as "a --- b", "a -x- b", "a --> b" or "a -x> b".
func (r Relation) String() string {
	link := '-'
	if !r.Coexist {
		link = 'x'
	}
	head := '-'
	if !r.Bidirectional {
		head = '>'
	}
	return fmt.Sprintf("%s -%c%c %s", r.A, link, head, r.B)
}

// Related is one topic reachable from another through a relation.
type Related struct {
	Coexist bool
	Topic   string
}

// TopicChecker reports whether a topic label is declared.
type TopicChecker interface {
	Has(label string) bool
}

// Graph holds the relations between topics of one engine.
// There is at most one relation per unordered topic pair.
type Graph struct {
	topics    TopicChecker
	relations []Relation
}

// New creates an empty graph validating topics through t.
func New(t TopicChecker) *Graph {
	return &Graph{topics: t}
}

// Declare adds or updates the relation between a and b.
//
// When a relation already exists in the same order, only its bidirectional
// flag and coexist flag are overwritten. When it exists in the reverse order,
// a directed declaration flips the stored order to a -> b and makes it
// directed; a bidirectional declaration leaves order and direction as they
// were. Coexist always takes the latest declared value.
func (g *Graph) Declare(a, b string, coexist, bidirectional bool) (Relation, error) {
	if err := g.check(a, b); err != nil {
		return Relation{}, err
	}
	return g.apply(a, b, coexist, bidirectional), nil
}

// DeclareAll declares a relation for every pair of the Cartesian product
// as x bs and returns the resulting relations in iteration order.
// Every pair is validated before the first one is applied.
func (g *Graph) DeclareAll(as, bs []string, coexist, bidirectional bool) ([]Relation, error) {
	for _, a := range as {
		for _, b := range bs {
			if err := g.check(a, b); err != nil {
				return nil, err
			}
		}
	}

	out := make([]Relation, 0, len(as)*len(bs))
	for _, a := range as {
		for _, b := range bs {
			out = append(out, g.apply(a, b, coexist, bidirectional))
		}
	}
	return out, nil
}

func (g *Graph) check(a, b string) error {
	if a == b {
		return fmt.Errorf("relation %q -> %q: a topic cannot relate to itself: %w", a, b, internalerr.ErrInvalidArgument)
	}
	if !g.topics.Has(a) {
		return fmt.Errorf("relation %q -> %q: topic %q: %w", a, b, a, internalerr.ErrUnknownTopic)
	}
	if !g.topics.Has(b) {
		return fmt.Errorf("relation %q -> %q: topic %q: %w", a, b, b, internalerr.ErrUnknownTopic)
	}
	return nil
}

func (g *Graph) apply(a, b string, coexist, bidirectional bool) Relation {
	for i, r := range g.relations {
		switch {
		case r.A == a && r.B == b:
			r.Bidirectional = bidirectional
			r.Coexist = coexist
			return g.replace(i, r)
		case r.A == b && r.B == a:
			// Only a directed declaration reorders. A bidirectional one
			// keeps the stored direction even when that was directed.
			if !bidirectional {
				r = Relation{A: a, B: b}
			}
			r.Coexist = coexist
			return g.replace(i, r)
		}
	}

	r := Relation{A: a, B: b, Coexist: coexist, Bidirectional: bidirectional}
	g.relations = append(g.relations, r)
	return r
}

func (g *Graph) replace(i int, r Relation) Relation {
	g.relations[i] = r
	return r
}

// Restore appends a saved relation without applying merge rules.
func (g *Graph) Restore(r Relation) error {
	if err := g.check(r.A, r.B); err != nil {
		return err
	}
	for _, existing := range g.relations {
		if (existing.A == r.A && existing.B == r.B) || (existing.A == r.B && existing.B == r.A) {
			return fmt.Errorf("restore relation %s: duplicate pair: %w", r, internalerr.ErrInvalidArgument)
		}
	}
	g.relations = append(g.relations, r)
	return nil
}

// RelatedOf returns the topics related to label, following direction:
// bidirectional relations count from either endpoint, directed ones only
// from their source. Each related topic appears once.
func (g *Graph) RelatedOf(label string) ([]Related, error) {
	if !g.topics.Has(label) {
		return nil, fmt.Errorf("related of %q: %w", label, internalerr.ErrUnknownTopic)
	}

	var out []Related
	seen := make(map[string]bool)
	for _, r := range g.relations {
		var other string
		switch {
		case r.A == label:
			other = r.B
		case r.B == label && r.Bidirectional:
			other = r.A
		default:
			continue
		}
		if seen[other] {
			continue
		}
		seen[other] = true
		out = append(out, Related{Coexist: r.Coexist, Topic: other})
	}
	return out, nil
}

// Relations returns every relation in declaration order.
func (g *Graph) Relations() []Relation {
	out := make([]Relation, len(g.relations))
	copy(out, g.relations)
	return out
}

// Len returns the number of relations.
func (g *Graph) Len() int {
	return len(g.relations)
}
