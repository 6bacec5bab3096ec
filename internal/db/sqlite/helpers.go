package sqlite

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/parleybot/parley/pkg/models"
)

// rowScanner is satisfied by both *sql.Row and *sql.Rows.
type rowScanner interface{ Scan(...interface{}) error }

// scanSession scans one session row.
func scanSession(scanner rowScanner) (*models.Session, error) {
	var (
		sess       models.Session
		created    string
		lastActive string
	)
	if err := scanner.Scan(&sess.SID, &sess.UserName, &created, &lastActive, &sess.TotalMsgs); err != nil {
		return nil, err
	}
	var err error
	if sess.CreatedAt, err = parseTime(created); err != nil {
		return nil, err
	}
	if sess.LastActive, err = parseTime(lastActive); err != nil {
		return nil, err
	}
	return &sess, nil
}

// scanTurns drains rows into turns.
func scanTurns(rows *sql.Rows) ([]models.Turn, error) {
	var turns []models.Turn
	for rows.Next() {
		var (
			turn models.Turn
			ts   string
			mood string
		)
		if err := rows.Scan(
			&turn.ID, &turn.SessionID, &turn.UserMsg, &turn.BotReply,
			&ts, &turn.Seq, &turn.Topic, &mood, &turn.Keywords, &turn.Score,
		); err != nil {
			return nil, fmt.Errorf("scan turn: %w", err)
		}
		var err error
		if turn.Timestamp, err = parseTime(ts); err != nil {
			return nil, fmt.Errorf("parse turn timestamp: %w", err)
		}
		turn.Mood = models.Mood(mood)
		turns = append(turns, turn)
	}
	return turns, rows.Err()
}

func parseTime(s string) (time.Time, error) {
	return time.Parse(time.RFC3339Nano, s)
}
