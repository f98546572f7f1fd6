// Package server exposes a live session over HTTP for inspection and
// remote control.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/ivlev/scrollmotion/internal/engine"
	"github.com/ivlev/scrollmotion/internal/preference"
)

// Runner executes fn on the goroutine that owns the session.
// frame.TickerPump implements it.
type Runner interface {
	Do(ctx context.Context, fn func()) error
}

// Server routes requests onto a session.
type Server struct {
	Session *engine.Session
	Runner  Runner
	Metrics http.Handler
	Logger  *slog.Logger
}

// Handler builds the router.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(10 * time.Second))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok\n"))
	})
	if s.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", s.Metrics)
	}
	r.Get("/state", s.handleState)
	r.Post("/scroll", s.handleScroll)
	r.Post("/resize", s.handleResize)
	r.Post("/preference", s.handlePreference)
	r.Post("/pointer", s.handlePointer)
	r.Route("/sections/{name}", func(r chi.Router) {
		r.Post("/key", s.handleKey)
		r.Post("/mount", s.handleMount)
		r.Post("/unmount", s.handleUnmount)
	})
	return r
}

type scrollRequest struct {
	Y      float64 `json:"y"`
	Smooth bool    `json:"smooth"`
}

type resizeRequest struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

type preferenceRequest struct {
	Preference string `json:"preference"`
}

type pointerRequest struct {
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
	Hover *bool   `json:"hover,omitempty"`
}

type keyRequest struct {
	Key string `json:"key"`
}

func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	var st engine.State
	if !s.run(w, r, func() error { st = s.Session.State(); return nil }) {
		return
	}
	writeJSON(w, http.StatusOK, st)
}

func (s *Server) handleScroll(w http.ResponseWriter, r *http.Request) {
	var req scrollRequest
	if !decode(w, r, &req) {
		return
	}
	s.respond(w, r, func() error {
		if req.Smooth {
			s.Session.SmoothScroll(req.Y)
		} else {
			s.Session.Scroll(req.Y)
		}
		return nil
	})
}

func (s *Server) handleResize(w http.ResponseWriter, r *http.Request) {
	var req resizeRequest
	if !decode(w, r, &req) {
		return
	}
	if req.Width <= 0 || req.Height <= 0 {
		writeError(w, http.StatusBadRequest, errors.New("width and height must be positive"))
		return
	}
	s.respond(w, r, func() error {
		s.Session.Resize(req.Width, req.Height)
		return nil
	})
}

func (s *Server) handlePreference(w http.ResponseWriter, r *http.Request) {
	var req preferenceRequest
	if !decode(w, r, &req) {
		return
	}
	p, err := preference.Parse(req.Preference)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	s.respond(w, r, func() error { return s.Session.SetPreference(p) })
}

func (s *Server) handlePointer(w http.ResponseWriter, r *http.Request) {
	var req pointerRequest
	if !decode(w, r, &req) {
		return
	}
	s.respond(w, r, func() error {
		s.Session.Pointer(req.X, req.Y)
		if req.Hover != nil {
			s.Session.Hover(*req.Hover)
		}
		return nil
	})
}

func (s *Server) handleKey(w http.ResponseWriter, r *http.Request) {
	var req keyRequest
	if !decode(w, r, &req) {
		return
	}
	name := chi.URLParam(r, "name")
	s.respond(w, r, func() error { return s.Session.SetKey(name, req.Key) })
}

func (s *Server) handleMount(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	s.respond(w, r, func() error { return s.Session.Mount(name) })
}

func (s *Server) handleUnmount(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	s.respond(w, r, func() error { return s.Session.Unmount(name) })
}

// respond runs fn on the session and answers with the resulting state.
func (s *Server) respond(w http.ResponseWriter, r *http.Request, fn func() error) {
	var st engine.State
	if !s.run(w, r, func() error {
		if err := fn(); err != nil {
			return err
		}
		st = s.Session.State()
		return nil
	}) {
		return
	}
	writeJSON(w, http.StatusOK, st)
}

func (s *Server) run(w http.ResponseWriter, r *http.Request, fn func() error) bool {
	var opErr error
	if err := s.Runner.Do(r.Context(), func() { opErr = fn() }); err != nil {
		writeError(w, http.StatusServiceUnavailable, err)
		return false
	}
	switch {
	case opErr == nil:
		return true
	case errors.Is(opErr, engine.ErrUnknownSection):
		writeError(w, http.StatusNotFound, opErr)
	case errors.Is(opErr, engine.ErrPreferenceFixed):
		writeError(w, http.StatusConflict, opErr)
	default:
		if s.Logger != nil {
			s.Logger.Error("request failed", "path", r.URL.Path, "err", opErr)
		}
		writeError(w, http.StatusUnprocessableEntity, opErr)
	}
	return false
}

func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}
