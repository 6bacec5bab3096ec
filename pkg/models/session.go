// Package models contains domain models for parley.
package models

import (
	"errors"
	"time"
)

// Mood is the polarity bucket assigned to a message.
type Mood string

const (
	MoodPositive Mood = "positive"
	MoodNeutral  Mood = "neutral"
	MoodNegative Mood = "negative"
)

// DefaultTopic is the fallback topic label when no configured topic scores.
const DefaultTopic = "general"

// Sentinel errors surfaced to callers. Storage failures are wrapped with
// fmt.Errorf and remain distinguishable from these.
var (
	ErrEmptyMessage    = errors.New("empty message")
	ErrSessionNotFound = errors.New("session not found")
)

// Session is one conversation, tracked across turns.
type Session struct {
	SID        string    `db:"sid" json:"sid"`
	UserName   string    `db:"uname" json:"uname"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
	LastActive time.Time `db:"last_active" json:"last_active"`
	TotalMsgs  int64     `db:"total_msgs" json:"total_msgs"`
}

// Turn is one user/bot exchange. Immutable once saved.
// Seq is assigned by the store on insert and breaks timestamp ties so
// "recent N" queries stay stable.
type Turn struct {
	ID        string    `db:"id" json:"id"`
	SessionID string    `db:"session_id" json:"session_id"`
	UserMsg   string    `db:"u_msg" json:"u_msg"`
	BotReply  string    `db:"b_rep" json:"b_rep"`
	Timestamp time.Time `db:"ts" json:"ts"`
	Seq       int64     `db:"seq" json:"seq"`
	Topic     string    `db:"topic" json:"topic"`
	Mood      Mood      `db:"mood" json:"mood"`
	Keywords  string    `db:"kws" json:"kws"`
	Score     float64   `db:"score" json:"score"`
}

// TopicCount is one bucket of a session's topic histogram.
type TopicCount struct {
	Topic string `json:"topic"`
	Count int64  `json:"count"`
}

// SessionStats is the aggregate view of a session: the session row plus its
// topic histogram ordered by count descending.
type SessionStats struct {
	Session Session      `json:"session"`
	Topics  []TopicCount `json:"topics"`
}
