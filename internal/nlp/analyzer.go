package nlp

import (
	"sort"

	"github.com/parleybot/parley/pkg/models"
)

const (
	// historyWindow bounds how many recent turns the context matcher inspects.
	historyWindow = 5
	// maxMatches bounds the ranked context-match list.
	maxMatches = 3
)

// Analyzer produces one structured Analysis per incoming message. It is a
// pure composition of the extractor, classifier, and similarity scorer:
// no side effects, no persistence.
type Analyzer struct {
	extractor  *Extractor
	classifier *Classifier
}

// NewAnalyzer creates an Analyzer over the injected topic table.
func NewAnalyzer(topics []Topic) *Analyzer {
	return &Analyzer{
		extractor:  NewExtractor(),
		classifier: NewClassifier(topics),
	}
}

// Extractor exposes the underlying extractor for callers that only need
// keywords (e.g. turning a search query into search terms).
func (a *Analyzer) Extractor() *Extractor {
	return a.extractor
}

// Analyze runs the full pipeline on a message against recent history, which
// may be empty. History is expected most-recent-first, as the store returns it.
func (a *Analyzer) Analyze(message string, history []models.Turn) models.Analysis {
	res := models.Analysis{
		Topic:    a.classifier.Classify(message),
		Mood:     a.extractor.Mood(message),
		Keywords: a.extractor.Keywords(message, KeywordLimit),
		Entities: a.extractor.Entities(message),
	}
	res.Matches = a.FindContext(message, history)
	for _, m := range res.Matches {
		if m.Similarity > res.ContextScore {
			res.ContextScore = m.Similarity
		}
	}
	return res
}

// FindContext ranks the most recent turns against the message. Only the
// first historyWindow turns are inspected; a turn qualifies only when it
// shares at least one keyword with the message — overlap is a hard gate,
// similarity only orders the survivors. The top maxMatches are returned,
// sorted by similarity descending with input order preserved on ties.
func (a *Analyzer) FindContext(message string, history []models.Turn) []models.ContextMatch {
	if len(history) == 0 {
		return nil
	}
	if len(history) > historyWindow {
		history = history[:historyWindow]
	}

	msgKws := toSet(a.extractor.Keywords(message, KeywordLimit))
	if len(msgKws) == 0 {
		return nil
	}

	var matches []models.ContextMatch
	for _, turn := range history {
		turnKws := a.extractor.Keywords(turn.UserMsg+" "+turn.BotReply, KeywordLimit)
		overlap := intersect(msgKws, turnKws)
		if len(overlap) == 0 {
			continue
		}
		matches = append(matches, models.ContextMatch{
			Turn:       turn,
			Overlap:    overlap,
			Similarity: Similarity(message, turn.UserMsg),
		})
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Similarity > matches[j].Similarity
	})
	if len(matches) > maxMatches {
		matches = matches[:maxMatches]
	}
	return matches
}

func toSet(words []string) map[string]bool {
	set := make(map[string]bool, len(words))
	for _, w := range words {
		set[w] = true
	}
	return set
}

// intersect returns the members of words present in set, keeping the order
// of words.
func intersect(set map[string]bool, words []string) []string {
	var out []string
	for _, w := range words {
		if set[w] {
			out = append(out, w)
		}
	}
	return out
}
