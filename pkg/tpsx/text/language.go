package text

import (
	"fmt"
	"strings"

	"github.com/blevesearch/snowballstem"
	"github.com/blevesearch/snowballstem/danish"
	"github.com/blevesearch/snowballstem/dutch"
	"github.com/blevesearch/snowballstem/english"
	"github.com/blevesearch/snowballstem/finnish"
	"github.com/blevesearch/snowballstem/french"
	"github.com/blevesearch/snowballstem/german"
	"github.com/blevesearch/snowballstem/hungarian"
	"github.com/blevesearch/snowballstem/italian"
	"github.com/blevesearch/snowballstem/norwegian"
	"github.com/blevesearch/snowballstem/porter"
	"github.com/blevesearch/snowballstem/portuguese"
	"github.com/blevesearch/snowballstem/romanian"
	"github.com/blevesearch/snowballstem/spanish"
	"github.com/blevesearch/snowballstem/swedish"
	"golang.org/x/text/language"

	"github.com/sebaB003/tpsx/pkg/tpsx/internalerr"
)

// Language selects the stemming algorithm and stop words of a Cleaner.
type Language string

// Supported languages. Porter is English with the original Porter stemmer.
const (
	Danish     Language = "danish"
	Dutch      Language = "dutch"
	English    Language = "english"
	Finnish    Language = "finnish"
	French     Language = "french"
	German     Language = "german"
	Hungarian  Language = "hungarian"
	Italian    Language = "italian"
	Norwegian  Language = "norwegian"
	Porter     Language = "porter"
	Portuguese Language = "portuguese"
	Romanian   Language = "romanian"
	Spanish    Language = "spanish"
	Swedish    Language = "swedish"
)

type languageSpec struct {
	stem     func(*snowballstem.Env) bool
	tag      language.Tag
	stoplist string // embedded stoplist file, without extension
}

var languages = map[Language]languageSpec{
	Danish:     {danish.Stem, language.Danish, "danish"},
	Dutch:      {dutch.Stem, language.Dutch, "dutch"},
	English:    {english.Stem, language.English, "english"},
	Finnish:    {finnish.Stem, language.Finnish, "finnish"},
	French:     {french.Stem, language.French, "french"},
	German:     {german.Stem, language.German, "german"},
	Hungarian:  {hungarian.Stem, language.Hungarian, "hungarian"},
	Italian:    {italian.Stem, language.Italian, "italian"},
	Norwegian:  {norwegian.Stem, language.Norwegian, "norwegian"},
	Porter:     {porter.Stem, language.English, "english"},
	Portuguese: {portuguese.Stem, language.Portuguese, "portuguese"},
	Romanian:   {romanian.Stem, language.Romanian, "romanian"},
	Spanish:    {spanish.Stem, language.Spanish, "spanish"},
	Swedish:    {swedish.Stem, language.Swedish, "swedish"},
}

// Languages returns every supported language in alphabetical order.
func Languages() []Language {
	return []Language{
		Danish, Dutch, English, Finnish, French, German, Hungarian,
		Italian, Norwegian, Porter, Portuguese, Romanian, Spanish, Swedish,
	}
}

// Supported reports whether lang is one of the supported languages.
func Supported(lang Language) bool {
	_, ok := languages[lang]
	return ok
}

// ParseLanguage resolves a case-insensitive language name.
func ParseLanguage(name string) (Language, error) {
	lang := Language(strings.ToLower(strings.TrimSpace(name)))
	if !Supported(lang) {
		return "", fmt.Errorf("language %q: %w", name, internalerr.ErrUnsupportedLanguage)
	}
	return lang, nil
}
