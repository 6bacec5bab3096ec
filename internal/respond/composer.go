package respond

import (
	"fmt"
	"math/rand"
	"strings"
	"sync"

	"github.com/parleybot/parley/pkg/models"
)

// placeholderReply covers the case where even the general/neutral catalog
// entry is missing.
const placeholderReply = "Tell me more."

// Composer builds the final reply from a base template plus optional entity
// and context references. The random source is injected so tests can pin
// which candidate and which branch a draw takes.
type Composer struct {
	catalog   *Catalog
	threshold float64

	mu  sync.Mutex
	rng *rand.Rand
}

// NewComposer creates a Composer. threshold is the minimum context score
// before a context reference is considered.
func NewComposer(catalog *Catalog, threshold float64, src rand.Source) *Composer {
	return &Composer{
		catalog:   catalog,
		threshold: threshold,
		rng:       rand.New(src),
	}
}

// Reply composes the reply for one analysis: a random base candidate for the
// topic/mood pair (with catalog fallbacks), a mention of the first entity if
// any were found, and — when the context score clears the threshold and a
// coin flip passes — a context reference built from the best match's first
// overlapping keyword.
func (c *Composer) Reply(an models.Analysis) string {
	reply := c.baseResponse(an)

	if len(an.Matches) > 0 && an.ContextScore > c.threshold {
		reply = c.addContext(reply, an)
	}
	return reply
}

// Greeting builds the session-opening line.
func (c *Composer) Greeting(userName, botName string) string {
	return fmt.Sprintf("Hi %s! I'm %s, your conversational assistant. How can I help you today?", userName, botName)
}

func (c *Composer) baseResponse(an models.Analysis) string {
	base := placeholderReply
	if cands := c.catalog.Candidates(an.Topic, an.Mood); len(cands) > 0 {
		base = cands[c.intn(len(cands))]
	}

	if len(an.Entities) > 0 {
		base = fmt.Sprintf("%s I noticed you mentioned %s.", base, an.Entities[0])
	}
	return base
}

func (c *Composer) addContext(reply string, an models.Analysis) string {
	best := an.Matches[0]
	if len(best.Overlap) == 0 || !c.coinFlip() {
		return reply
	}

	templates := c.catalog.ContextTemplates()
	if len(templates) == 0 {
		return reply
	}

	tmpl := templates[c.intn(len(templates))]
	addition := strings.NewReplacer(
		"{topic}", an.Topic,
		"{context}", best.Overlap[0],
	).Replace(tmpl)
	return reply + " " + addition
}

func (c *Composer) intn(n int) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.rng.Intn(n)
}

func (c *Composer) coinFlip() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.rng.Float64() > 0.5
}
