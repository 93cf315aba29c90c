package predict

import (
	"fmt"
	"strings"
)

// Report renders the result as a text block. With details it also lists the
// matched tokens and the related topics ("-" coexist, "x" conflict).
func (r *Result) Report(details bool) string {
	var b strings.Builder
	rule := strings.Repeat("-", 20)

	fmt.Fprintf(&b, "%s %s %s\n", rule, r.Topic.Label, rule)
	fmt.Fprintf(&b, "Score: %g\n", r.Score)
	fmt.Fprintf(&b, "Topic score: %g\n", r.AdjustedScore)

	if !details {
		return b.String()
	}

	b.WriteString("\nMatched tokens\n")
	for _, tok := range r.Tokens {
		fmt.Fprintf(&b, "\tToken - [id %d, label %s]\n", tok.ID, tok.Label)
	}
	fmt.Fprintf(&b, "Matched tokens count = %d\n", r.MatchCount())

	if r.RelatedCount() > 0 {
		b.WriteString("\nRelated topics\n")
		for _, rel := range r.Related {
			mark := "x"
			if rel.Coexist {
				mark = "-"
			}
			fmt.Fprintf(&b, "\tTopic %s [id %d, label %s]\n", mark, rel.Result.Topic.ID, rel.Result.Topic.Label)
		}
		fmt.Fprintf(&b, "Related topics count = %d\n", r.RelatedCount())
	}

	return b.String()
}
