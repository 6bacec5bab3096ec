// Package respond turns an Analysis into reply text using a flat CSV catalog
// of response templates keyed by topic and sentiment.
package respond

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/parleybot/parley/pkg/models"
)

// contextTopic is the reserved catalog topic holding context-reference
// templates ({topic}/{context} placeholders).
const contextTopic = "context"

// Catalog holds response candidates keyed by topic then sentiment. The table
// is replaced wholesale on reload; readers always see a complete snapshot.
type Catalog struct {
	mu   sync.RWMutex
	path string
	// topic → sentiment → candidates
	table map[string]map[string][]string
}

// LoadCatalog reads the catalog CSV (header: topic,sentiment,response_text).
func LoadCatalog(path string) (*Catalog, error) {
	c := &Catalog{path: path}
	if err := c.Reload(); err != nil {
		return nil, err
	}
	return c, nil
}

// Reload re-reads the catalog file and swaps the table in atomically.
func (c *Catalog) Reload() error {
	f, err := os.Open(c.path)
	if err != nil {
		return fmt.Errorf("open catalog: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = 3

	// Skip header.
	if _, err := r.Read(); err != nil && err != io.EOF {
		return fmt.Errorf("read catalog header: %w", err)
	}

	table := make(map[string]map[string][]string)
	for {
		rec, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("read catalog row: %w", err)
		}
		topic, sentiment, text := rec[0], rec[1], rec[2]
		if table[topic] == nil {
			table[topic] = make(map[string][]string)
		}
		table[topic][sentiment] = append(table[topic][sentiment], text)
	}

	c.mu.Lock()
	c.table = table
	c.mu.Unlock()

	log.Debug().Str("path", c.path).Int("topics", len(table)).Msg("response catalog loaded")
	return nil
}

// Candidates returns the response candidates for a topic/mood pair, falling
// back to the general topic and the neutral sentiment. Returns nil when even
// the fallbacks are absent; the composer substitutes a placeholder then.
func (c *Catalog) Candidates(topic string, mood models.Mood) []string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	rows, ok := c.table[topic]
	if !ok {
		rows = c.table[models.DefaultTopic]
	}
	if rows == nil {
		return nil
	}
	if cands, ok := rows[string(mood)]; ok {
		return cands
	}
	return rows[string(models.MoodNeutral)]
}

// ContextTemplates returns the neutral context-reference templates.
func (c *Catalog) ContextTemplates() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	rows := c.table[contextTopic]
	if rows == nil {
		return nil
	}
	return rows[string(models.MoodNeutral)]
}

// defaultRows seeds a usable catalog on first run.
var defaultRows = [][]string{
	{"greeting", "positive", "Great to see you! What's on your mind?"},
	{"greeting", "neutral", "Hello! How can I help you today?"},
	{"outdoors", "positive", "The outdoors are wonderful! Tell me about your favorite spot."},
	{"outdoors", "neutral", "Getting outside is always worthwhile. Where do you like to go?"},
	{"outdoors", "negative", "Sorry the outdoors let you down. What happened?"},
	{"food", "positive", "Now I'm hungry! What's your favorite dish?"},
	{"food", "neutral", "Food is a great topic. What do you like to cook?"},
	{"food", "negative", "A bad meal is disappointing. What went wrong?"},
	{"music", "positive", "Music makes everything better! Who are you listening to?"},
	{"music", "neutral", "What kind of music do you enjoy?"},
	{"work", "positive", "Glad work is going well! What are you working on?"},
	{"work", "neutral", "How are things at work?"},
	{"work", "negative", "Work can be rough. Want to talk about it?"},
	{"weather", "neutral", "How's the weather where you are?"},
	{"general", "positive", "That sounds great! Tell me more."},
	{"general", "neutral", "I see. Tell me more."},
	{"general", "negative", "That sounds tough. I'm listening."},
	{"context", "neutral", "Earlier we talked about {context} as well."},
	{"context", "neutral", "That reminds me of our chat about {context}."},
}

// EnsureDefault writes the seed catalog to path if no file exists there.
func EnsureDefault(path string) error {
	if _, err := os.Stat(path); err == nil {
		return nil
	} else if !os.IsNotExist(err) {
		return err
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create catalog: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write([]string{"topic", "sentiment", "response_text"}); err != nil {
		return err
	}
	for _, row := range defaultRows {
		if err := w.Write(row); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}
