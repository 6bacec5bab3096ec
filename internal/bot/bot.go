// Package bot wires the analyzer, the response composer, and the session
// store into the conversational contract: start a session, analyze a message
// and reply, summarize a session, and search past turns.
package bot

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/parleybot/parley/internal/config"
	"github.com/parleybot/parley/internal/db/sqlite"
	"github.com/parleybot/parley/internal/nlp"
	"github.com/parleybot/parley/internal/respond"
	"github.com/parleybot/parley/pkg/models"
)

// sessionStartMarker is stored as the user text of the greeting turn.
const sessionStartMarker = "[SESSION_START]"

// searchSnippetLen caps how much of a matched turn's text appears in search
// results.
const searchSnippetLen = 50

// Bot is the conversational service facade. All durable state lives in the
// session store; the analyzer, composer, and config are read-only after
// construction.
type Bot struct {
	cfg      *config.Config
	analyzer *nlp.Analyzer
	composer *respond.Composer
	sessions *sqlite.SessionStore
}

// New creates a Bot.
func New(cfg *config.Config, analyzer *nlp.Analyzer, composer *respond.Composer, sessions *sqlite.SessionStore) *Bot {
	return &Bot{cfg: cfg, analyzer: analyzer, composer: composer, sessions: sessions}
}

// Start opens a new session for the named user and returns the session id
// and greeting. The greeting is persisted as the session's first turn.
func (b *Bot) Start(ctx context.Context, userName string) (string, string, error) {
	if userName == "" {
		userName = "User"
	}

	sid, err := b.sessions.CreateSession(ctx, userName)
	if err != nil {
		return "", "", err
	}

	greeting := b.composer.Greeting(userName, b.cfg.BotName)
	if err := b.sessions.SaveTurn(ctx, sid, sessionStartMarker, greeting, "greeting", models.MoodPositive, "", 0); err != nil {
		return "", "", err
	}

	log.Info().Str("sid", sid).Str("uname", userName).Msg("session started")
	return sid, greeting, nil
}

// AnalyzeAndReply analyzes one message against the session's recent history,
// composes a reply, persists the turn, and returns both the reply and the
// analysis. An empty message or unknown session id is an input error.
func (b *Bot) AnalyzeAndReply(ctx context.Context, message, sid string) (string, models.Analysis, error) {
	message = strings.TrimSpace(message)
	if message == "" {
		return "", models.Analysis{}, models.ErrEmptyMessage
	}
	if _, err := b.sessions.GetSession(ctx, sid); err != nil {
		return "", models.Analysis{}, err
	}

	history, err := b.sessions.RecentTurns(ctx, sid, b.cfg.ContextWindow)
	if err != nil {
		return "", models.Analysis{}, err
	}

	analysis := b.analyzer.Analyze(message, history)
	reply := b.composer.Reply(analysis)

	if err := b.sessions.SaveTurn(ctx, sid, message, reply,
		analysis.Topic, analysis.Mood,
		strings.Join(analysis.Keywords, ","), analysis.ContextScore,
	); err != nil {
		return "", models.Analysis{}, err
	}

	log.Debug().
		Str("sid", sid).
		Str("topic", analysis.Topic).
		Str("mood", string(analysis.Mood)).
		Float64("score", analysis.ContextScore).
		Msg("message analyzed")
	return reply, analysis, nil
}

// Summary returns a human-readable summary of the session: turn count and
// the top three topics.
func (b *Bot) Summary(ctx context.Context, sid string) (string, error) {
	stats, err := b.sessions.SessionStats(ctx, sid)
	if err != nil {
		return "", err
	}
	if stats.Session.TotalMsgs == 0 {
		return "No conversation history yet.", nil
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "We've exchanged %d messages. ", stats.Session.TotalMsgs)

	if len(stats.Topics) > 0 {
		top := stats.Topics
		if len(top) > 3 {
			top = top[:3]
		}
		parts := make([]string, len(top))
		for i, tc := range top {
			parts[i] = fmt.Sprintf("%s (%d)", tc.Topic, tc.Count)
		}
		fmt.Fprintf(&sb, "Main topics: %s. ", strings.Join(parts, ", "))
	}
	return sb.String(), nil
}

// Search looks up past turns matching the query's keywords and formats up to
// three of them for display.
func (b *Bot) Search(ctx context.Context, sid, query string) (string, error) {
	keywords := b.analyzer.Extractor().Keywords(query, nlp.KeywordLimit)
	if len(keywords) == 0 {
		return "Please provide more specific search terms.", nil
	}

	results, err := b.sessions.Search(ctx, sid, keywords, b.cfg.SearchLimit)
	if err != nil {
		return "", err
	}
	if len(results) == 0 {
		return fmt.Sprintf("I couldn't find any past conversations about %q.", query), nil
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "I found %d relevant past conversations about %q:\n\n", len(results), query)
	for i, turn := range results {
		fmt.Fprintf(&sb, "%d. You said: %q\n", i+1, snippet(turn.UserMsg))
		fmt.Fprintf(&sb, "   I replied: %q\n\n", snippet(turn.BotReply))
	}
	return sb.String(), nil
}

// snippet truncates text to searchSnippetLen runes with an ellipsis.
func snippet(text string) string {
	runes := []rune(text)
	if len(runes) <= searchSnippetLen {
		return text
	}
	return string(runes[:searchSnippetLen]) + "..."
}
