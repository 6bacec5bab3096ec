package nlp

import (
	"strings"

	"github.com/parleybot/parley/pkg/models"
)

// Topic pairs a topic label with the keywords that signal it.
type Topic struct {
	Name     string   `yaml:"name"`
	Keywords []string `yaml:"keywords"`
}

// Classifier scores a fixed, ordered topic table against message text.
// The table is read-only after construction.
type Classifier struct {
	topics []Topic
}

// NewClassifier creates a Classifier over the injected topic table. Table
// order matters: ties between topics go to the one listed first.
func NewClassifier(topics []Topic) *Classifier {
	return &Classifier{topics: topics}
}

// Classify returns the label of the topic whose keywords appear most often
// as substrings of the lowercased text. The first maximum wins; if no topic
// scores at all, the default label is returned.
func (c *Classifier) Classify(text string) string {
	low := strings.ToLower(text)
	best := models.DefaultTopic
	bestScore := 0
	for _, t := range c.topics {
		score := 0
		for _, kw := range t.Keywords {
			if strings.Contains(low, kw) {
				score++
			}
		}
		if score > bestScore {
			best = t.Name
			bestScore = score
		}
	}
	return best
}
