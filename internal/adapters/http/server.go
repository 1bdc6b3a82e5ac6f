// Package http exposes dialogue sessions over a REST API. Each session owns
// one engine; snapshots are persisted through the session manager so
// replicas can share a store.
package http

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	dialogue "github.com/studiobgc/dialogue-editor"
	"github.com/studiobgc/dialogue-editor/internal/logging"
	"github.com/studiobgc/dialogue-editor/pkg/domain"
	"github.com/studiobgc/dialogue-editor/pkg/session"
)

// errHandled signals that a handler already wrote the HTTP response from
// inside a locked section.
var errHandled = errors.New("response already written")

// EngineFactory builds a fresh engine (graph plus pristine variables) for
// one request. Engines are not shared across sessions: each request
// restores its session's snapshot into a new instance.
type EngineFactory func() (*dialogue.Engine, error)

// Server routes session operations to engines and the snapshot store.
type Server struct {
	factory  EngineFactory
	sessions *session.Manager
	logger   *slog.Logger
	registry *prometheus.Registry
}

// Option configures the Server.
type Option func(*Server)

// WithLogger sets the request logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) { s.logger = logger }
}

// WithRegistry exposes the given metrics registry on /metrics.
func WithRegistry(reg *prometheus.Registry) Option {
	return func(s *Server) { s.registry = reg }
}

// NewServer wires the REST surface.
func NewServer(factory EngineFactory, sessions *session.Manager, opts ...Option) *Server {
	s := &Server{
		factory:  factory,
		sessions: sessions,
		logger:   logging.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Handler returns the routed HTTP handler.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Get("/healthz", s.health)
	if s.registry != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{}))
	}

	r.Route("/sessions", func(r chi.Router) {
		r.Post("/", s.createSession)
		r.Get("/", s.listSessions)
		r.Route("/{sessionID}", func(r chi.Router) {
			r.Get("/", s.getSession)
			r.Delete("/", s.deleteSession)
			r.Post("/play", s.play)
			r.Post("/finish", s.finish)
		})
	})

	return r
}

type createSessionRequest struct {
	StartNode string `json:"startNode"`
}

type playRequest struct {
	Index int `json:"index"`
}

type finishRequest struct {
	PinIndex int `json:"pinIndex"`
}

type nodeView struct {
	ID            string `json:"id"`
	TechnicalName string `json:"technicalName"`
	Kind          string `json:"kind"`
	Text          string `json:"text,omitempty"`
	MenuText      string `json:"menuText,omitempty"`
	Speaker       string `json:"speaker,omitempty"`
}

type branchView struct {
	Index  int      `json:"index"`
	Valid  bool     `json:"valid"`
	Label  string   `json:"label"`
	Target string   `json:"target"`
	Path   []string `json:"path"`
}

type sessionView struct {
	SessionID   string       `json:"sessionId"`
	State       string       `json:"state"`
	Cursor      *nodeView    `json:"cursor,omitempty"`
	Branches    []branchView `json:"branches"`
	Diagnostics []string     `json:"diagnostics,omitempty"`
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) createSession(w http.ResponseWriter, r *http.Request) {
	var body createSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if body.StartNode == "" {
		http.Error(w, "startNode is required", http.StatusBadRequest)
		return
	}

	sessionID := uuid.NewString()
	eng, err := s.factory()
	if err != nil {
		s.fail(w, "engine init failed", err)
		return
	}
	if err := eng.Start(r.Context(), body.StartNode); err != nil {
		var unresolved *domain.UnresolvedReferenceError
		if errors.As(err, &unresolved) {
			http.Error(w, err.Error(), http.StatusNotFound)
			return
		}
		s.fail(w, "session start failed", err)
		return
	}

	if err := s.sessions.Save(r.Context(), sessionID, eng.Snapshot(sessionID)); err != nil {
		s.fail(w, "session save failed", err)
		return
	}

	writeJSON(w, http.StatusCreated, s.view(sessionID, eng))
}

func (s *Server) listSessions(w http.ResponseWriter, r *http.Request) {
	ids, err := s.sessions.List(r.Context())
	if err != nil {
		s.fail(w, "session list failed", err)
		return
	}
	if ids == nil {
		ids = []string{}
	}
	writeJSON(w, http.StatusOK, map[string][]string{"sessions": ids})
}

func (s *Server) getSession(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")
	err := s.sessions.WithLock(r.Context(), sessionID, func(ctx context.Context) error {
		eng, ok := s.restore(w, r, sessionID)
		if !ok {
			return errHandled
		}
		writeJSON(w, http.StatusOK, s.view(sessionID, eng))
		return nil
	})
	if err != nil && !errors.Is(err, errHandled) {
		s.fail(w, "session lock failed", err)
	}
}

func (s *Server) deleteSession(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")
	if err := s.sessions.Delete(r.Context(), sessionID); err != nil {
		s.fail(w, "session delete failed", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) play(w http.ResponseWriter, r *http.Request) {
	var body playRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	sessionID := chi.URLParam(r, "sessionID")
	err := s.sessions.WithLock(r.Context(), sessionID, func(ctx context.Context) error {
		eng, ok := s.restore(w, r, sessionID)
		if !ok {
			return errHandled
		}
		if err := eng.Play(ctx, body.Index); err != nil {
			if errors.Is(err, domain.ErrNoBranches) {
				http.Error(w, err.Error(), http.StatusUnprocessableEntity)
				return errHandled
			}
			s.fail(w, "play failed", err)
			return errHandled
		}
		if err := s.sessions.Store().Save(ctx, sessionID, eng.Snapshot(sessionID)); err != nil {
			s.fail(w, "session save failed", err)
			return errHandled
		}
		writeJSON(w, http.StatusOK, s.view(sessionID, eng))
		return nil
	})
	if err != nil && !errors.Is(err, errHandled) {
		s.fail(w, "session lock failed", err)
	}
}

func (s *Server) finish(w http.ResponseWriter, r *http.Request) {
	var body finishRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	sessionID := chi.URLParam(r, "sessionID")
	err := s.sessions.WithLock(r.Context(), sessionID, func(ctx context.Context) error {
		eng, ok := s.restore(w, r, sessionID)
		if !ok {
			return errHandled
		}
		if err := eng.Finish(ctx, body.PinIndex); err != nil {
			http.Error(w, err.Error(), http.StatusUnprocessableEntity)
			return errHandled
		}
		if err := s.sessions.Store().Save(ctx, sessionID, eng.Snapshot(sessionID)); err != nil {
			s.fail(w, "session save failed", err)
			return errHandled
		}
		writeJSON(w, http.StatusOK, s.view(sessionID, eng))
		return nil
	})
	if err != nil && !errors.Is(err, errHandled) {
		s.fail(w, "session lock failed", err)
	}
}

// restore loads a session snapshot into a fresh engine. On failure it has
// already written the HTTP error. The caller must hold the session lock, so
// the snapshot is read from the store directly; going through the manager
// again would block on the lock already held.
func (s *Server) restore(w http.ResponseWriter, r *http.Request, sessionID string) (*dialogue.Engine, bool) {
	snap, err := s.sessions.Store().Load(r.Context(), sessionID)
	if err != nil {
		if errors.Is(err, domain.ErrSessionNotFound) {
			http.Error(w, "session not found", http.StatusNotFound)
			return nil, false
		}
		s.fail(w, "session load failed", err)
		return nil, false
	}

	eng, err := s.factory()
	if err != nil {
		s.fail(w, "engine init failed", err)
		return nil, false
	}
	if err := eng.RestoreSnapshot(r.Context(), snap); err != nil {
		s.fail(w, "session restore failed", err)
		return nil, false
	}
	return eng, true
}

func (s *Server) view(sessionID string, eng *dialogue.Engine) sessionView {
	view := sessionView{
		SessionID: sessionID,
		State:     eng.StateName(),
		Branches:  []branchView{},
	}
	if node := eng.Cursor(); node != nil {
		view.Cursor = s.nodeView(eng, node)
	}
	for _, branch := range eng.Branches() {
		bv := branchView{
			Index: branch.Index,
			Valid: branch.Valid,
			Path:  make([]string, 0, len(branch.Path)),
		}
		if target := branch.Target(); target != nil {
			bv.Target = target.ID.String()
			bv.Label = branchLabel(target)
		}
		for _, node := range branch.Path {
			bv.Path = append(bv.Path, node.ID.String())
		}
		view.Branches = append(view.Branches, bv)
	}
	for _, diag := range eng.Diagnostics() {
		view.Diagnostics = append(view.Diagnostics, diag.Error())
	}
	return view
}

func (s *Server) nodeView(eng *dialogue.Engine, node *domain.Node) *nodeView {
	nv := &nodeView{
		ID:            node.ID.String(),
		TechnicalName: node.TechnicalName,
		Kind:          node.Kind.String(),
	}
	if node.Dialogue != nil {
		nv.Text = node.Dialogue.Text
		nv.MenuText = node.Dialogue.MenuText
		if speaker := eng.Speaker(node); speaker != nil {
			nv.Speaker = speaker.DisplayName
		}
	}
	return nv
}

func branchLabel(target *domain.Node) string {
	if target.Dialogue != nil {
		if target.Dialogue.MenuText != "" {
			return target.Dialogue.MenuText
		}
		if target.Dialogue.Text != "" {
			return target.Dialogue.Text
		}
	}
	return target.TechnicalName
}

func (s *Server) fail(w http.ResponseWriter, msg string, err error) {
	s.logger.Error(msg, "err", err)
	http.Error(w, msg, http.StatusInternalServerError)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
