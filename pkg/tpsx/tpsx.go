package tpsx

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/sebaB003/tpsx/pkg/tpsx/assoc"
	"github.com/sebaB003/tpsx/pkg/tpsx/graph"
	"github.com/sebaB003/tpsx/pkg/tpsx/internalerr"
	"github.com/sebaB003/tpsx/pkg/tpsx/lexicon"
	"github.com/sebaB003/tpsx/pkg/tpsx/predict"
	"github.com/sebaB003/tpsx/pkg/tpsx/text"
	"github.com/sebaB003/tpsx/pkg/tpsx/topics"
)

// Errors returned by the engine. Match them with errors.Is.
var (
	ErrInvalidArgument     = internalerr.ErrInvalidArgument
	ErrUnknownTopic        = internalerr.ErrUnknownTopic
	ErrUnsupportedLanguage = internalerr.ErrUnsupportedLanguage
	ErrPersistence         = internalerr.ErrPersistence
)

// Normalizer turns raw text into sentence groups of normalized tokens.
// text.Cleaner is the default implementation.
type Normalizer interface {
	Normalize(text string) [][]string
}

// Engine is the topic labeling engine facade.
//
// It learns token/topic associations from labeled examples and scores new
// text against them, adjusting scores through declared topic relations.
// An Engine is not safe for concurrent use; callers sharing one across
// goroutines must serialize access.
type Engine struct {
	language   text.Language
	normalizer Normalizer
	log        *zap.Logger

	lexicon   *lexicon.Lexicon
	topics    *topics.Registry
	index     *assoc.Index
	graph     *graph.Graph
	predictor *predict.Engine
}

// Options configures an Engine.
type Options struct {
	// Language must be one of text.Languages().
	Language text.Language

	// Normalizer overrides the default text.Cleaner for Language.
	Normalizer Normalizer

	// Logger receives debug summaries. Defaults to a no-op logger.
	Logger *zap.Logger
}

// New creates an empty engine for the configured language.
func New(opts Options) (*Engine, error) {
	if !text.Supported(opts.Language) {
		return nil, fmt.Errorf("new engine: language %q: %w", opts.Language, ErrUnsupportedLanguage)
	}

	normalizer := opts.Normalizer
	if normalizer == nil {
		cleaner, err := text.NewCleaner(opts.Language)
		if err != nil {
			return nil, fmt.Errorf("new engine: %w", err)
		}
		normalizer = cleaner
	}

	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}

	reg := topics.NewRegistry()
	index := assoc.New(reg)
	return &Engine{
		language:   opts.Language,
		normalizer: normalizer,
		log:        log.With(zap.String("language", string(opts.Language))),
		lexicon:    lexicon.New(),
		topics:     reg,
		index:      index,
		graph:      graph.New(reg),
		predictor:  predict.New(index),
	}, nil
}

// Language returns the engine language.
func (e *Engine) Language() text.Language {
	return e.language
}

// RegisterTopic declares a topic. It reports false when the topic already exists.
func (e *Engine) RegisterTopic(label string) (bool, error) {
	return e.topics.Register(label)
}

// Topic returns a declared topic.
func (e *Engine) Topic(label string) (topics.Topic, bool) {
	return e.topics.Get(label)
}

// Topics returns the declared topics in declaration order.
func (e *Engine) Topics() []topics.Topic {
	return e.topics.All()
}

// DeclareRelation relates topic a to topic b. See graph.Graph.Declare for
// how repeated and reversed declarations merge.
func (e *Engine) DeclareRelation(a, b string, coexist, bidirectional bool) (graph.Relation, error) {
	return e.graph.Declare(a, b, coexist, bidirectional)
}

// DeclareRelations relates every topic of as to every topic of bs and
// returns the resulting relations in iteration order. Nothing is declared
// when any pair is invalid.
func (e *Engine) DeclareRelations(as, bs []string, coexist, bidirectional bool) ([]graph.Relation, error) {
	return e.graph.DeclareAll(as, bs, coexist, bidirectional)
}

// DeclareRules applies relations parsed from a rules file.
func (e *Engine) DeclareRules(rules []graph.Rule) ([]graph.Relation, error) {
	return e.graph.DeclareRules(rules)
}

// Relations returns every declared relation.
func (e *Engine) Relations() []graph.Relation {
	return e.graph.Relations()
}

// RelatedOf returns the topics related to label.
func (e *Engine) RelatedOf(label string) ([]graph.Related, error) {
	return e.graph.RelatedOf(label)
}

// TrainTopic trains a single topic on the given examples.
func (e *Engine) TrainTopic(topic string, examples ...string) error {
	return e.Train([]string{topic}, examples)
}

// Train registers every topic and associates every token of every example
// with each of them. A call with N topics and M tokens performs N*M updates.
// Arguments are validated before anything changes.
func (e *Engine) Train(topicLabels []string, examples []string) error {
	if err := validateTopics(topicLabels); err != nil {
		return fmt.Errorf("train: %w", err)
	}

	var tokens []string
	for _, example := range examples {
		tokens = append(tokens, text.Flatten(e.normalizer.Normalize(example))...)
	}

	return e.train(topicLabels, tokens)
}

// TrainTokens trains topics on an already normalized token stream.
func (e *Engine) TrainTokens(topicLabels []string, tokens []string) error {
	if err := validateTopics(topicLabels); err != nil {
		return fmt.Errorf("train: %w", err)
	}
	for _, tok := range tokens {
		if tok == "" {
			return fmt.Errorf("train: empty token: %w", ErrInvalidArgument)
		}
	}
	return e.train(topicLabels, tokens)
}

func validateTopics(labels []string) error {
	if len(labels) == 0 {
		return fmt.Errorf("no topics given: %w", ErrInvalidArgument)
	}
	for _, label := range labels {
		if !topics.ValidLabel(label) {
			return fmt.Errorf("topic %q: %w", label, ErrInvalidArgument)
		}
	}
	return nil
}

func (e *Engine) train(topicLabels []string, tokens []string) error {
	created := 0
	for _, label := range topicLabels {
		ok, err := e.topics.Register(label)
		if err != nil {
			return fmt.Errorf("train: %w", err)
		}
		if ok {
			created++
		}
	}

	for _, tok := range tokens {
		for _, label := range topicLabels {
			ref, count := e.lexicon.Touch(tok)
			if _, err := e.index.Update(ref, label, count); err != nil {
				return fmt.Errorf("train: %w", err)
			}
		}
	}

	e.log.Debug("trained",
		zap.Strings("topics", topicLabels),
		zap.Int("new_topics", created),
		zap.Int("tokens", len(tokens)),
		zap.Int("updates", len(tokens)*len(topicLabels)),
	)
	return nil
}

// Predict scores the topics matching the given sentences. When merge is
// set, scores are adjusted through the declared topic relations.
func (e *Engine) Predict(sentences []string, merge bool) (predict.Results, error) {
	var tokens []string
	for _, s := range sentences {
		tokens = append(tokens, text.Flatten(e.normalizer.Normalize(s))...)
	}
	return e.PredictTokens(tokens, merge)
}

// PredictTokens scores an already normalized token stream.
func (e *Engine) PredictTokens(tokens []string, merge bool) (predict.Results, error) {
	results := e.predictor.Predict(tokens)
	if merge {
		if err := predict.Merge(results, e.graph); err != nil {
			return nil, fmt.Errorf("predict: %w", err)
		}
	}

	e.log.Debug("predicted",
		zap.Int("tokens", len(tokens)),
		zap.Int("topics", len(results)),
		zap.Bool("merge", merge),
	)
	return results, nil
}

// Stats summarizes the engine contents.
type Stats struct {
	Tokens       int `json:"tokens"`
	Occurrences  int `json:"occurrences"`
	Topics       int `json:"topics"`
	Associations int `json:"associations"`
	Relations    int `json:"relations"`
}

// Stats returns counts of the engine contents.
func (e *Engine) Stats() Stats {
	lex := e.lexicon.Stats()
	return Stats{
		Tokens:       lex.Tokens,
		Occurrences:  lex.Occurrences,
		Topics:       e.topics.Len(),
		Associations: e.index.Len(),
		Relations:    e.graph.Len(),
	}
}
