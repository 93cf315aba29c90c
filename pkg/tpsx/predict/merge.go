package predict

import (
	"fmt"

	"github.com/sebaB003/tpsx/pkg/tpsx/graph"
)

// RelationSource returns the topics related to a topic label.
type RelationSource interface {
	RelatedOf(label string) ([]graph.Related, error)
}

// Merge folds related topics' raw scores into each result's adjusted score.
//
// For each result, every related topic that is also present in results is
// recorded in Related; AdjustedScore is then Score plus the raw scores of
// coexisting related topics and minus those of conflicting ones. Only raw
// scores are read, so the outcome does not depend on map iteration order.
// Merging the same results again yields the same scores.
func Merge(results Results, rel RelationSource) error {
	for label, res := range results {
		related, err := rel.RelatedOf(label)
		if err != nil {
			return fmt.Errorf("merge %q: %w", label, err)
		}

		res.Related = res.Related[:0]
		for _, r := range related {
			other, ok := results[r.Topic]
			if !ok {
				continue
			}
			res.Related = append(res.Related, Related{Coexist: r.Coexist, Result: other})
		}
	}

	for _, res := range results {
		adjusted := res.Score
		for _, r := range res.Related {
			if r.Coexist {
				adjusted += r.Result.Score
			} else {
				adjusted -= r.Result.Score
			}
		}
		res.AdjustedScore = adjusted
	}

	return nil
}
