// Package server exposes the bot over HTTP with a cookie-carried session id.
package server

import (
	"net/http"
	"net/url"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/log"

	"github.com/parleybot/parley/internal/bot"
)

// Cookie names. The session cookie carries only the opaque session id.
const (
	sessionCookie  = "parley_sid"
	userNameCookie = "parley_uname"
)

// Service owns the router and delegates all conversational work to the bot.
type Service struct {
	bot    *bot.Bot
	router *chi.Mux
}

// NewService creates the HTTP service and mounts its routes.
func NewService(b *bot.Bot) *Service {
	s := &Service{bot: b, router: chi.NewRouter()}
	s.setupRoutes()
	return s
}

// Router returns the HTTP handler.
func (s *Service) Router() http.Handler {
	return s.router
}

func (s *Service) setupRoutes() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(requestLogger)
	s.router.Use(middleware.Recoverer)

	s.router.Get("/health", s.handleHealth)
	s.router.Route("/api", func(r chi.Router) {
		r.Post("/start", s.handleStart)
		r.Post("/chat", s.handleChat)
		r.Get("/info", s.handleInfo)
		r.Post("/clear", s.handleClear)
	})

	s.router.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, "Endpoint not found")
	})
	s.router.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
	})
}

// requestLogger logs one line per request through the global zerolog logger.
func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		log.Debug().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Dur("elapsed", time.Since(start)).
			Msg("request")
	})
}

// setSessionCookies stores the session id and display name.
func setSessionCookies(w http.ResponseWriter, sid, userName string) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    sid,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	http.SetCookie(w, &http.Cookie{
		Name:     userNameCookie,
		Value:    url.QueryEscape(userName),
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

// clearSessionCookies expires both cookies.
func clearSessionCookies(w http.ResponseWriter) {
	for _, name := range []string{sessionCookie, userNameCookie} {
		http.SetCookie(w, &http.Cookie{
			Name:     name,
			Value:    "",
			Path:     "/",
			MaxAge:   -1,
			HttpOnly: true,
		})
	}
}

// sessionID reads the session cookie; empty when absent.
func sessionID(r *http.Request) string {
	c, err := r.Cookie(sessionCookie)
	if err != nil {
		return ""
	}
	return c.Value
}

// userName reads the display-name cookie, defaulting to "User".
func userName(r *http.Request) string {
	c, err := r.Cookie(userNameCookie)
	if err != nil {
		return "User"
	}
	name, err := url.QueryUnescape(c.Value)
	if err != nil || name == "" {
		return "User"
	}
	return name
}
