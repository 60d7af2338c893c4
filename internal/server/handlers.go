package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"os"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"cinderella/internal/build"
	"cinderella/pkg/utils"
)

const maxBodySize = 1 << 20

// Router returns the HTTP routes of the server.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Post("/builds", s.handleSubmitBuild)
	r.Get("/builds", s.handleListBuilds)
	r.Get("/builds/{id}", s.handleGetBuild)
	r.Post("/webhooks/github", s.handleGitHubWebhook)
	r.Get("/status/{project}/*", s.handleStatusIcon)
	return r
}

type submitRequest struct {
	RepoURL      string `json:"repo_url"`
	Branch       string `json:"branch"`
	Tag          string `json:"tag"`
	PipelineFile string `json:"pipeline_file"`
}

// POST /builds
func (s *Server) handleSubmitBuild(w http.ResponseWriter, r *http.Request) {
	var req submitRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, maxBodySize)).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if req.RepoURL == "" {
		http.Error(w, "repo_url is required", http.StatusBadRequest)
		return
	}
	if req.Branch != "" && req.Tag != "" {
		http.Error(w, "branch and tag are mutually exclusive", http.StatusBadRequest)
		return
	}

	s.enqueue(w, build.ExecutionConfig{
		RepoURL:      req.RepoURL,
		Branch:       req.Branch,
		Tag:          req.Tag,
		PipelineFile: req.PipelineFile,
	})
}

// GET /builds
func (s *Server) handleListBuilds(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.List())
}

// GET /builds/{id}
func (s *Server) handleGetBuild(w http.ResponseWriter, r *http.Request) {
	status, ok := s.Status(chi.URLParam(r, "id"))
	if !ok {
		http.Error(w, "build not found", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, status)
}

type pushPayload struct {
	Ref        string `json:"ref"`
	Deleted    bool   `json:"deleted"`
	Repository struct {
		CloneURL string `json:"clone_url"`
	} `json:"repository"`
}

// POST /webhooks/github
func (s *Server) handleGitHubWebhook(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodySize))
	if err != nil {
		http.Error(w, "cannot read body", http.StatusBadRequest)
		return
	}

	switch {
	case len(s.webhookSecret) > 0:
		if err := utils.VerifyHMAC(s.webhookSecret, body, r.Header.Get("X-Hub-Signature-256")); err != nil {
			s.logger.Warn("webhook rejected", "error", err, "remote_addr", r.RemoteAddr)
			http.Error(w, "", http.StatusUnauthorized)
			return
		}
	case !s.allowUnsigned:
		s.logger.Warn("webhook rejected, no webhook secret configured", "remote_addr", r.RemoteAddr)
		http.Error(w, "", http.StatusUnauthorized)
		return
	}

	switch event := r.Header.Get("X-GitHub-Event"); event {
	case "ping":
		w.WriteHeader(http.StatusOK)
		return
	case "push":
	default:
		s.logger.Debug("webhook event ignored", "event", event)
		w.WriteHeader(http.StatusOK)
		return
	}

	var payload pushPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		http.Error(w, "invalid push payload", http.StatusBadRequest)
		return
	}
	if payload.Deleted || payload.Repository.CloneURL == "" {
		w.WriteHeader(http.StatusOK)
		return
	}

	cfg := build.ExecutionConfig{RepoURL: payload.Repository.CloneURL}
	switch {
	case strings.HasPrefix(payload.Ref, "refs/heads/"):
		cfg.Branch = strings.TrimPrefix(payload.Ref, "refs/heads/")
	case strings.HasPrefix(payload.Ref, "refs/tags/"):
		cfg.Tag = strings.TrimPrefix(payload.Ref, "refs/tags/")
	default:
		w.WriteHeader(http.StatusOK)
		return
	}

	s.enqueue(w, cfg)
}

// GET /status/{project}/{branch}.svg
func (s *Server) handleStatusIcon(w http.ResponseWriter, r *http.Request) {
	if s.icons == nil {
		http.Error(w, "status icons are disabled", http.StatusNotFound)
		return
	}

	branch := strings.TrimSuffix(chi.URLParam(r, "*"), ".svg")
	path := s.icons.Path(chi.URLParam(r, "project"), branch)

	etag, err := utils.HashFile(path)
	if errors.Is(err, os.ErrNotExist) {
		http.Error(w, "no status for this branch", http.StatusNotFound)
		return
	}
	if err != nil {
		http.Error(w, "cannot read status", http.StatusInternalServerError)
		return
	}
	etag = `"` + etag + `"`

	w.Header().Set("ETag", etag)
	w.Header().Set("Cache-Control", "no-cache")
	if r.Header.Get("If-None-Match") == etag {
		w.WriteHeader(http.StatusNotModified)
		return
	}

	data, err := os.ReadFile(path)
	if err != nil {
		http.Error(w, "cannot read status", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "image/svg+xml")
	w.Write(data)
}

func (s *Server) enqueue(w http.ResponseWriter, cfg build.ExecutionConfig) {
	id, err := s.Submit(cfg)
	if err != nil {
		http.Error(w, err.Error(), http.StatusServiceUnavailable)
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]string{"id": id, "status": StatePending})
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}
