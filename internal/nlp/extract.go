package nlp

import (
	"strings"

	prose "github.com/jdkato/prose/v2"
	"github.com/jonreiter/govader"

	"github.com/parleybot/parley/pkg/models"
)

// Polarity thresholds for the mood buckets. Fixed, not configurable.
const (
	positiveThreshold = 0.10
	negativeThreshold = -0.10
)

// KeywordLimit is the default cap on extracted keywords per message.
const KeywordLimit = 5

// sentimentAnalyzer is the shared VADER analyzer. Its lexicon is read-only
// after construction, so concurrent use is safe.
var sentimentAnalyzer = govader.NewSentimentIntensityAnalyzer()

// Extractor pulls keywords, entities, and a mood label out of raw message
// text.
type Extractor struct{}

// NewExtractor creates an Extractor.
func NewExtractor() *Extractor {
	return &Extractor{}
}

// tagTokens part-of-speech-tags text. Tagging failures and empty input
// yield no tokens rather than an error; extraction only degrades.
func tagTokens(text string) []prose.Token {
	if text == "" {
		return nil
	}
	doc, err := prose.NewDocument(text, prose.WithExtraction(false))
	if err != nil {
		return nil
	}
	return doc.Tokens()
}

// keywordTags are the Penn Treebank tags kept for keyword extraction:
// common nouns, singular proper nouns, and adjectives.
var keywordTags = map[string]bool{"NN": true, "NNS": true, "NNP": true, "JJ": true}

// Keywords returns up to limit lowercase keywords from text: tokens with a
// keyword tag, longer than two characters, and not stop words. Duplicates
// collapse to their first occurrence, and truncation keeps first-occurrence
// order, so earlier mentions survive the cap.
func (e *Extractor) Keywords(text string, limit int) []string {
	if limit <= 0 {
		return nil
	}
	seen := make(map[string]bool)
	var kws []string
	for _, tok := range tagTokens(text) {
		if !keywordTags[tok.Tag] {
			continue
		}
		w := strings.ToLower(tok.Text)
		if len(w) <= 2 || stopWords[w] || seen[w] {
			continue
		}
		seen[w] = true
		kws = append(kws, w)
		if len(kws) == limit {
			break
		}
	}
	return kws
}

// Mood buckets the VADER compound polarity of text: above 0.10 positive,
// below -0.10 negative, neutral otherwise.
func (e *Extractor) Mood(text string) models.Mood {
	pol := sentimentAnalyzer.PolarityScores(text).Compound
	switch {
	case pol > positiveThreshold:
		return models.MoodPositive
	case pol < negativeThreshold:
		return models.MoodNegative
	default:
		return models.MoodNeutral
	}
}

// Entities returns proper-noun tokens (NNP/NNPS) in order of appearance.
// Duplicates are retained.
func (e *Extractor) Entities(text string) []string {
	var ents []string
	for _, tok := range tagTokens(text) {
		if tok.Tag == "NNP" || tok.Tag == "NNPS" {
			ents = append(ents, tok.Text)
		}
	}
	return ents
}
