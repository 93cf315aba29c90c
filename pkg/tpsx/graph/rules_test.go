package graph

import (
	"errors"
	"strings"
	"testing"

	"github.com/sebaB003/tpsx/pkg/tpsx/internalerr"
)

func TestParseRules(t *testing.T) {
	input := `
# animal taxonomy
coexist(felini, animali)
conflict(volatili, pesci)   # birds are not fish
coexist_to(pesci, animali).
CONFLICT_TO(felini, pesci)
`
	rules, err := ParseRules(input)
	if err != nil {
		t.Fatalf("ParseRules: %v", err)
	}

	want := []Rule{
		{A: "felini", B: "animali", Coexist: true, Bidirectional: true, Line: 3},
		{A: "volatili", B: "pesci", Coexist: false, Bidirectional: true, Line: 4},
		{A: "pesci", B: "animali", Coexist: true, Bidirectional: false, Line: 5},
		{A: "felini", B: "pesci", Coexist: false, Bidirectional: false, Line: 6},
	}
	if len(rules) != len(want) {
		t.Fatalf("ParseRules returned %d rules, want %d", len(rules), len(want))
	}
	for i := range want {
		if rules[i] != want[i] {
			t.Errorf("rules[%d] = %+v, want %+v", i, rules[i], want[i])
		}
	}
}

func TestParseRulesErrors(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"missing paren", "coexist felini, animali"},
		{"missing close", "coexist(felini, animali"},
		{"unknown relation", "likes(felini, animali)"},
		{"too many args", "coexist(a, b, c)"},
		{"empty arg", "coexist(a, )"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseRules("# header\n" + tt.input)
			if !errors.Is(err, internalerr.ErrInvalidArgument) {
				t.Fatalf("ParseRules(%q) error = %v, want ErrInvalidArgument", tt.input, err)
			}
			if !strings.Contains(err.Error(), "line 2") {
				t.Errorf("error %q should name line 2", err)
			}
		})
	}
}

func TestDeclareRules(t *testing.T) {
	g := newGraph(t, "felini", "animali", "pesci")
	rules, err := ParseRules("coexist(felini, animali)\nconflict_to(pesci, felini)")
	if err != nil {
		t.Fatal(err)
	}

	rels, err := g.DeclareRules(rules)
	if err != nil {
		t.Fatalf("DeclareRules: %v", err)
	}
	if len(rels) != 2 || g.Len() != 2 {
		t.Fatalf("DeclareRules produced %d relations (graph %d), want 2", len(rels), g.Len())
	}
	if rels[1].String() != "pesci -x> felini" {
		t.Errorf("rels[1] = %s", rels[1])
	}
}

func TestDeclareRulesIsAtomic(t *testing.T) {
	g := newGraph(t, "felini", "animali")
	rules, err := ParseRules("coexist(felini, animali)\ncoexist(felini, volatili)")
	if err != nil {
		t.Fatal(err)
	}

	_, err = g.DeclareRules(rules)
	if !errors.Is(err, internalerr.ErrUnknownTopic) {
		t.Fatalf("DeclareRules error = %v, want ErrUnknownTopic", err)
	}
	if !strings.Contains(err.Error(), "line 2") {
		t.Errorf("error %q should name line 2", err)
	}
	if g.Len() != 0 {
		t.Errorf("failed DeclareRules left %d relations", g.Len())
	}
}
