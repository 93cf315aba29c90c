package predict

import (
	"sort"

	"github.com/sebaB003/tpsx/pkg/tpsx/assoc"
	"github.com/sebaB003/tpsx/pkg/tpsx/lexicon"
	"github.com/sebaB003/tpsx/pkg/tpsx/topics"
)

// Result is the prediction output for one topic.
type Result struct {
	Topic topics.Topic

	// Tokens lists every matched token occurrence, in stream order.
	Tokens []lexicon.Token

	// Score is the raw score: the sum of matched association weights.
	Score float64

	// AdjustedScore is Score plus coexisting and minus conflicting related
	// topics' raw scores. It equals Score until Merge runs.
	AdjustedScore float64

	// Related holds the related topics found in the same prediction.
	Related []Related
}

// Related links a result to another result of the same prediction.
type Related struct {
	Coexist bool
	Result  *Result
}

// MatchCount returns the number of matched token occurrences.
func (r *Result) MatchCount() int {
	return len(r.Tokens)
}

// RelatedCount returns the number of related results folded into AdjustedScore.
func (r *Result) RelatedCount() int {
	return len(r.Related)
}

// Results maps topic labels to their prediction result.
type Results map[string]*Result

// Ranked returns the results ordered by adjusted score, then raw score,
// then label.
func (rs Results) Ranked() []*Result {
	out := make([]*Result, 0, len(rs))
	for _, r := range rs {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].AdjustedScore != out[j].AdjustedScore {
			return out[i].AdjustedScore > out[j].AdjustedScore
		}
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		return out[i].Topic.Label < out[j].Topic.Label
	})
	return out
}

// Lookup returns the associations of a token label.
type Lookup interface {
	Lookup(tokenLabel string) []assoc.Association
}

// Engine turns normalized token streams into per-topic raw scores.
type Engine struct {
	index Lookup
}

// New creates a prediction engine reading associations from index.
func New(index Lookup) *Engine {
	return &Engine{index: index}
}

// Predict scores every topic that has at least one association with a token
// of the stream. Tokens unknown to the index are ignored.
func (e *Engine) Predict(tokens []string) Results {
	results := make(Results)

	for _, tok := range tokens {
		for _, a := range e.index.Lookup(tok) {
			res, ok := results[a.Topic.Label]
			if !ok {
				res = &Result{Topic: a.Topic}
				results[a.Topic.Label] = res
			}
			res.Tokens = append(res.Tokens, *a.Token)
			res.Score += a.Weight
			res.AdjustedScore = res.Score
		}
	}

	return results
}
