package graph

import (
	"bufio"
	"fmt"
	"strings"

	"github.com/sebaB003/tpsx/pkg/tpsx/internalerr"
)

// Rule is one relation declaration read from a rules file.
type Rule struct {
	A             string
	B             string
	Coexist       bool
	Bidirectional bool
	Line          int
}

// rule kinds: coexist/conflict are bidirectional, the _to forms are directed A -> B
var ruleKinds = map[string]struct{ coexist, bidirectional bool }{
	"coexist":     {true, true},
	"conflict":    {false, true},
	"coexist_to":  {true, false},
	"conflict_to": {false, false},
}

// ParseRules reads relation declarations from a rules file.
// Format:
//
//	coexist(felini, animali)
//	conflict(volatili, pesci)
//	coexist_to(felini, animali)
//	# comments
func ParseRules(rules string) ([]Rule, error) {
	scanner := bufio.NewScanner(strings.NewReader(rules))
	lineNum := 0
	var out []Rule

	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())

		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		// trailing comment
		if i := strings.Index(line, "#"); i >= 0 {
			line = strings.TrimSpace(line[:i])
		}

		rule, err := parseRule(line)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNum, err)
		}
		rule.Line = lineNum
		out = append(out, rule)
	}

	return out, scanner.Err()
}

func parseRule(line string) (Rule, error) {
	line = strings.TrimSuffix(line, ".")

	openParen := strings.Index(line, "(")
	if openParen == -1 {
		return Rule{}, fmt.Errorf("missing '(' in %q: %w", line, internalerr.ErrInvalidArgument)
	}
	closeParen := strings.LastIndex(line, ")")
	if closeParen == -1 || closeParen < openParen {
		return Rule{}, fmt.Errorf("missing ')' in %q: %w", line, internalerr.ErrInvalidArgument)
	}

	name := strings.ToLower(strings.TrimSpace(line[:openParen]))
	kind, ok := ruleKinds[name]
	if !ok {
		return Rule{}, fmt.Errorf("unknown relation %q: %w", name, internalerr.ErrInvalidArgument)
	}

	parts := strings.Split(line[openParen+1:closeParen], ",")
	if len(parts) != 2 {
		return Rule{}, fmt.Errorf("expected 2 arguments, got %d in %q: %w", len(parts), line, internalerr.ErrInvalidArgument)
	}
	a := strings.TrimSpace(parts[0])
	b := strings.TrimSpace(parts[1])
	if a == "" || b == "" {
		return Rule{}, fmt.Errorf("empty topic in %q: %w", line, internalerr.ErrInvalidArgument)
	}

	return Rule{
		A:             a,
		B:             b,
		Coexist:       kind.coexist,
		Bidirectional: kind.bidirectional,
	}, nil
}

// DeclareRules applies parsed rules in order. All rules are validated first,
// so a failing rule leaves the graph unchanged.
func (g *Graph) DeclareRules(rules []Rule) ([]Relation, error) {
	for _, r := range rules {
		if err := g.check(r.A, r.B); err != nil {
			return nil, fmt.Errorf("rule on line %d: %w", r.Line, err)
		}
	}
	out := make([]Relation, 0, len(rules))
	for _, r := range rules {
		out = append(out, g.apply(r.A, r.B, r.Coexist, r.Bidirectional))
	}
	return out, nil
}
