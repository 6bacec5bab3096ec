package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/parleybot/parley/pkg/models"
)

// SessionStore provides session and turn persistence on top of the store
// core. Turns are append-only; sessions mutate only their last-active
// timestamp and message counter, and both happen inside the SaveTurn
// transaction.
type SessionStore struct {
	store *Store
}

// NewSessionStore creates a new session store.
func NewSessionStore(store *Store) *SessionStore {
	return &SessionStore{store: store}
}

// CreateSession inserts a fresh session and returns its identifier.
func (s *SessionStore) CreateSession(ctx context.Context, userName string) (string, error) {
	sid := uuid.NewString()
	now := time.Now()

	const query = `
		INSERT INTO sessions (sid, uname, created_at, created_at_epoch, last_active, last_active_epoch, total_msgs)
		VALUES (?, ?, ?, ?, ?, ?, 0)
	`
	_, err := s.store.ExecContext(ctx, query,
		sid, userName,
		now.Format(time.RFC3339Nano), now.UnixMilli(),
		now.Format(time.RFC3339Nano), now.UnixMilli(),
	)
	if err != nil {
		return "", fmt.Errorf("create session: %w", err)
	}
	return sid, nil
}

// GetSession retrieves a session row. Returns models.ErrSessionNotFound when
// the id is unknown.
func (s *SessionStore) GetSession(ctx context.Context, sid string) (*models.Session, error) {
	const query = `
		SELECT sid, uname, created_at, last_active, total_msgs
		FROM sessions
		WHERE sid = ?
		LIMIT 1
	`
	sess, err := scanSession(s.store.QueryRowContext(ctx, query, sid))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, models.ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get session: %w", err)
	}
	return sess, nil
}

// SaveTurn appends one turn and bumps the owning session's last-active
// timestamp and message counter in a single transaction. An unknown session
// id rolls back and returns models.ErrSessionNotFound rather than leaving an
// orphan turn.
func (s *SessionStore) SaveTurn(ctx context.Context, sid, userMsg, botReply, topic string, mood models.Mood, keywords string, score float64) error {
	if topic == "" {
		topic = models.DefaultTopic
	}
	if mood == "" {
		mood = models.MoodNeutral
	}

	tx, err := s.store.BeginTx(ctx)
	if err != nil {
		return fmt.Errorf("begin save turn: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	// The session update runs first: its zero-rows check is the unknown-id
	// gate, and it must fire before the turn insert can trip the foreign key.
	now := time.Now()
	const updateQuery = `
		UPDATE sessions
		SET last_active = ?, last_active_epoch = ?, total_msgs = total_msgs + 1
		WHERE sid = ?
	`
	res, err := tx.ExecContext(ctx, updateQuery, now.Format(time.RFC3339Nano), now.UnixMilli(), sid)
	if err != nil {
		return fmt.Errorf("update session: %w", err)
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		return models.ErrSessionNotFound
	}

	const insertQuery = `
		INSERT INTO turns (id, session_id, u_msg, b_rep, ts, ts_epoch, topic, mood, kws, score)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	if _, err := tx.ExecContext(ctx, insertQuery,
		uuid.NewString(), sid, userMsg, botReply,
		now.Format(time.RFC3339Nano), now.UnixMilli(),
		topic, string(mood), keywords, score,
	); err != nil {
		return fmt.Errorf("insert turn: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit save turn: %w", err)
	}
	return nil
}

// RecentTurns returns up to limit turns for a session, most recent first.
// Timestamp ties fall back to insertion order so the window is stable.
func (s *SessionStore) RecentTurns(ctx context.Context, sid string, limit int) ([]models.Turn, error) {
	const query = `
		SELECT id, session_id, u_msg, b_rep, ts, rowid, topic, mood, kws, score
		FROM turns
		WHERE session_id = ?
		ORDER BY ts_epoch DESC, rowid DESC
		LIMIT ?
	`
	rows, err := s.store.QueryContext(ctx, query, sid, limit)
	if err != nil {
		return nil, fmt.Errorf("recent turns: %w", err)
	}
	defer rows.Close()
	return scanTurns(rows)
}

// Search returns up to limit turns matching the first keyword as a substring
// of the user text, bot text, stored keyword list, or topic. Remaining
// keywords are accepted and ignored; an empty keyword list matches every
// turn in the session. Results order by stored context score, then recency.
func (s *SessionStore) Search(ctx context.Context, sid string, keywords []string, limit int) ([]models.Turn, error) {
	term := "%"
	if len(keywords) > 0 {
		term = "%" + keywords[0] + "%"
	}

	const query = `
		SELECT id, session_id, u_msg, b_rep, ts, rowid, topic, mood, kws, score
		FROM turns
		WHERE session_id = ?
		  AND (u_msg LIKE ? OR b_rep LIKE ? OR kws LIKE ? OR topic LIKE ?)
		ORDER BY score DESC, ts_epoch DESC, rowid DESC
		LIMIT ?
	`
	rows, err := s.store.QueryContext(ctx, query, sid, term, term, term, term, limit)
	if err != nil {
		return nil, fmt.Errorf("search turns: %w", err)
	}
	defer rows.Close()
	return scanTurns(rows)
}

// SessionStats returns the session row plus its topic histogram ordered by
// count descending.
func (s *SessionStore) SessionStats(ctx context.Context, sid string) (*models.SessionStats, error) {
	sess, err := s.GetSession(ctx, sid)
	if err != nil {
		return nil, err
	}

	const query = `
		SELECT topic, COUNT(*) AS count
		FROM turns
		WHERE session_id = ?
		GROUP BY topic
		ORDER BY count DESC
	`
	rows, err := s.store.QueryContext(ctx, query, sid)
	if err != nil {
		return nil, fmt.Errorf("session stats: %w", err)
	}
	defer rows.Close()

	stats := &models.SessionStats{Session: *sess}
	for rows.Next() {
		var tc models.TopicCount
		if err := rows.Scan(&tc.Topic, &tc.Count); err != nil {
			return nil, fmt.Errorf("scan topic count: %w", err)
		}
		stats.Topics = append(stats.Topics, tc)
	}
	return stats, rows.Err()
}

// PurgeInactive deletes every session whose last activity is older than the
// retention window, together with all its turns, in one transaction. It
// returns the number of sessions purged.
func (s *SessionStore) PurgeInactive(ctx context.Context, retentionDays int) (int, error) {
	cutoff := time.Now().AddDate(0, 0, -retentionDays).UnixMilli()

	tx, err := s.store.BeginTx(ctx)
	if err != nil {
		return 0, fmt.Errorf("begin purge: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	const deleteTurns = `
		DELETE FROM turns
		WHERE session_id IN (SELECT sid FROM sessions WHERE last_active_epoch < ?)
	`
	if _, err := tx.ExecContext(ctx, deleteTurns, cutoff); err != nil {
		return 0, fmt.Errorf("purge turns: %w", err)
	}

	res, err := tx.ExecContext(ctx, `DELETE FROM sessions WHERE last_active_epoch < ?`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("purge sessions: %w", err)
	}
	purged, _ := res.RowsAffected()

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit purge: %w", err)
	}
	return int(purged), nil
}
