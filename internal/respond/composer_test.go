package respond

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/parleybot/parley/pkg/models"
)

// fixedSource pins every random draw: 0 makes the coin flip fail, 3<<61
// makes Float64 return 0.75 so it passes. The passing value must stay
// strictly below 1<<63 - 1<<10 or Float64 rounds to 1.0 and retries
// forever on a constant source. Candidate lists in these tests have
// power-of-two lengths so Intn never rejection-samples.
type fixedSource struct{ v int64 }

func (s fixedSource) Int63() int64 { return s.v }
func (s fixedSource) Seed(int64)   {}

var (
	flipFails  = fixedSource{0}
	flipPasses = fixedSource{3 << 61}
)

func matchWith(overlap ...string) models.ContextMatch {
	return models.ContextMatch{
		Turn:       models.Turn{UserMsg: "earlier message"},
		Overlap:    overlap,
		Similarity: 0.8,
	}
}

func TestReplyBaseResponse(t *testing.T) {
	c := NewComposer(writeCatalog(t, testCSV), 0.3, flipFails)

	reply := c.Reply(models.Analysis{Topic: "food", Mood: models.MoodPositive})
	assert.Equal(t, "Yum!", reply)
}

func TestReplyFallbacks(t *testing.T) {
	c := NewComposer(writeCatalog(t, testCSV), 0.3, flipFails)

	// Unknown topic falls back to general/neutral.
	reply := c.Reply(models.Analysis{Topic: "space", Mood: models.MoodPositive})
	assert.Equal(t, "I see.", reply)
}

func TestReplyPlaceholderWhenCatalogEmpty(t *testing.T) {
	c := NewComposer(writeCatalog(t, "topic,sentiment,response_text\n"), 0.3, flipFails)

	reply := c.Reply(models.Analysis{Topic: "food", Mood: models.MoodNeutral})
	assert.Equal(t, placeholderReply, reply)
}

func TestReplyMentionsFirstEntity(t *testing.T) {
	c := NewComposer(writeCatalog(t, testCSV), 0.3, flipFails)

	reply := c.Reply(models.Analysis{
		Topic:    "food",
		Mood:     models.MoodPositive,
		Entities: []string{"Naples", "Rome"},
	})
	assert.Equal(t, "Yum! I noticed you mentioned Naples.", reply)
}

func TestReplyContextAppended(t *testing.T) {
	c := NewComposer(writeCatalog(t, testCSV), 0.3, flipPasses)

	reply := c.Reply(models.Analysis{
		Topic:        "food",
		Mood:         models.MoodPositive,
		Matches:      []models.ContextMatch{matchWith("pizza")},
		ContextScore: 0.8,
	})
	assert.Equal(t, "Yum! We talked about pizza before.", reply)
}

func TestReplyContextSkippedByCoinFlip(t *testing.T) {
	c := NewComposer(writeCatalog(t, testCSV), 0.3, flipFails)

	reply := c.Reply(models.Analysis{
		Topic:        "food",
		Mood:         models.MoodPositive,
		Matches:      []models.ContextMatch{matchWith("pizza")},
		ContextScore: 0.8,
	})
	assert.Equal(t, "Yum!", reply)
}

func TestReplyContextBelowThreshold(t *testing.T) {
	c := NewComposer(writeCatalog(t, testCSV), 0.9, flipPasses)

	reply := c.Reply(models.Analysis{
		Topic:        "food",
		Mood:         models.MoodPositive,
		Matches:      []models.ContextMatch{matchWith("pizza")},
		ContextScore: 0.8,
	})
	assert.Equal(t, "Yum!", reply)
}

func TestReplyContextNeedsOverlap(t *testing.T) {
	c := NewComposer(writeCatalog(t, testCSV), 0.3, flipPasses)

	reply := c.Reply(models.Analysis{
		Topic:        "food",
		Mood:         models.MoodPositive,
		Matches:      []models.ContextMatch{matchWith()},
		ContextScore: 0.8,
	})
	assert.Equal(t, "Yum!", reply)
}

func TestGreeting(t *testing.T) {
	c := NewComposer(writeCatalog(t, testCSV), 0.3, flipFails)

	greeting := c.Greeting("Sam", "Parley")
	assert.Contains(t, greeting, "Sam")
	assert.Contains(t, greeting, "Parley")
}
