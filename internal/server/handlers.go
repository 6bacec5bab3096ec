package server

import (
	"errors"
	"net/http"
	"strings"

	json "github.com/goccy/go-json"

	"github.com/parleybot/parley/pkg/models"
)

// Chat commands handled before analysis, mirroring the web UI contract.
const (
	searchCommand  = "/search "
	summaryCommand = "/summary"
)

type startRequest struct {
	UserName string `json:"uname"`
}

type chatRequest struct {
	Message string `json:"msg"`
}

type analysisView struct {
	Topic    string   `json:"topic"`
	Mood     string   `json:"mood"`
	Keywords []string `json:"kws"`
	Score    float64  `json:"score"`
}

func (s *Service) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Service) handleStart(w http.ResponseWriter, r *http.Request) {
	var req startRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	sid, greeting, err := s.bot.Start(r.Context(), req.UserName)
	if err != nil {
		writeBotError(w, err)
		return
	}

	name := req.UserName
	if name == "" {
		name = "User"
	}
	setSessionCookies(w, sid, name)
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"ok":  true,
		"sid": sid,
		"msg": greeting,
	})
}

func (s *Service) handleChat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	msg := strings.TrimSpace(req.Message)
	if msg == "" {
		writeError(w, http.StatusBadRequest, "Empty message")
		return
	}

	sid := sessionID(r)
	if sid == "" {
		writeError(w, http.StatusBadRequest, "No active session")
		return
	}

	lower := strings.ToLower(msg)
	switch {
	case strings.HasPrefix(lower, searchCommand):
		result, err := s.bot.Search(r.Context(), sid, msg[len(searchCommand):])
		if err != nil {
			writeBotError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]interface{}{"ok": true, "msg": result, "type": "search"})

	case lower == summaryCommand:
		summary, err := s.bot.Summary(r.Context(), sid)
		if err != nil {
			writeBotError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]interface{}{"ok": true, "msg": summary, "type": "summary"})

	default:
		reply, an, err := s.bot.AnalyzeAndReply(r.Context(), msg, sid)
		if err != nil {
			writeBotError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"ok":  true,
			"msg": reply,
			"an": analysisView{
				Topic:    an.Topic,
				Mood:     string(an.Mood),
				Keywords: an.Keywords,
				Score:    an.ContextScore,
			},
		})
	}
}

func (s *Service) handleInfo(w http.ResponseWriter, r *http.Request) {
	sid := sessionID(r)
	if sid == "" {
		writeError(w, http.StatusBadRequest, "No active session")
		return
	}

	summary, err := s.bot.Summary(r.Context(), sid)
	if err != nil {
		writeBotError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"ok":    true,
		"sid":   sid,
		"uname": userName(r),
		"summ":  summary,
	})
}

func (s *Service) handleClear(w http.ResponseWriter, r *http.Request) {
	clearSessionCookies(w)
	writeJSON(w, http.StatusOK, map[string]interface{}{"ok": true, "msg": "Session cleared"})
}

// writeBotError maps domain errors to HTTP statuses; anything else is a
// storage failure.
func writeBotError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, models.ErrEmptyMessage):
		writeError(w, http.StatusBadRequest, "Empty message")
	case errors.Is(err, models.ErrSessionNotFound):
		writeError(w, http.StatusNotFound, "Session not found")
	default:
		writeError(w, http.StatusInternalServerError, "Internal server error")
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]interface{}{"ok": false, "err": msg})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
