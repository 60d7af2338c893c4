// Package server exposes builds over HTTP: submission, GitHub push webhooks,
// build status and status icons. Builds run one at a time in submission
// order.
package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"sync"
	"time"

	"cinderella/internal/build"
	"cinderella/internal/storage"
)

// ErrQueueFull is returned when no more builds can be queued.
var ErrQueueFull = errors.New("build queue is full")

// BuildFunc carries out one build.
type BuildFunc func(ctx context.Context, cfg build.ExecutionConfig) (build.Report, error)

// Build states besides the report statuses success, failure and skipped.
const (
	StatePending = "pending"
	StateRunning = "running"
	StateError   = "error"
)

// BuildStatus is the externally visible state of a submitted build.
type BuildStatus struct {
	ID        string     `json:"id"`
	RepoURL   string     `json:"repo_url"`
	Project   string     `json:"project"`
	Ref       string     `json:"ref"`
	Status    string     `json:"status"`
	Error     string     `json:"error,omitempty"`
	Submitted time.Time  `json:"submitted"`
	Finished  *time.Time `json:"finished,omitempty"`
}

type job struct {
	id  string
	cfg build.ExecutionConfig
}

// Options configures a Server.
type Options struct {
	Build           BuildFunc
	Icons           *storage.IconStorage // nil disables /status
	WebhookSecret   string               // verifies X-Hub-Signature-256
	AllowUnsigned   bool                 // accept webhooks when WebhookSecret is empty
	SecretsPassword string               // applied to every build
	QueueSize       int                  // default 16
	Logger          *slog.Logger
}

type Server struct {
	mu     sync.Mutex
	builds map[string]*BuildStatus
	nextID int

	queue           chan job
	build           BuildFunc
	icons           *storage.IconStorage
	webhookSecret   []byte
	allowUnsigned   bool
	secretsPassword string
	logger          *slog.Logger
}

func New(opts Options) *Server {
	if opts.QueueSize <= 0 {
		opts.QueueSize = 16
	}
	if opts.Logger == nil {
		opts.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Server{
		builds:          make(map[string]*BuildStatus),
		queue:           make(chan job, opts.QueueSize),
		build:           opts.Build,
		icons:           opts.Icons,
		webhookSecret:   []byte(opts.WebhookSecret),
		allowUnsigned:   opts.AllowUnsigned,
		secretsPassword: opts.SecretsPassword,
		logger:          opts.Logger,
	}
}

// Submit queues a build and returns its id.
func (s *Server) Submit(cfg build.ExecutionConfig) (string, error) {
	if cfg.SecretsPassword == "" {
		cfg.SecretsPassword = s.secretsPassword
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextID++
	id := fmt.Sprintf("b-%d", s.nextID)
	select {
	case s.queue <- job{id: id, cfg: cfg}:
	default:
		s.nextID--
		return "", ErrQueueFull
	}

	s.builds[id] = &BuildStatus{
		ID:        id,
		RepoURL:   cfg.RepoURL,
		Project:   cfg.Name(),
		Ref:       cfg.Ref(),
		Status:    StatePending,
		Submitted: time.Now(),
	}
	s.logger.Info("build queued", "id", id, "repo", cfg.RepoURL, "ref", cfg.Ref())
	return id, nil
}

// Status returns a copy of the state of build id.
func (s *Server) Status(id string) (BuildStatus, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	status, ok := s.builds[id]
	if !ok {
		return BuildStatus{}, false
	}
	return *status, true
}

// List returns all builds, most recent first.
func (s *Server) List() []BuildStatus {
	s.mu.Lock()
	list := make([]BuildStatus, 0, len(s.builds))
	for _, status := range s.builds {
		list = append(list, *status)
	}
	s.mu.Unlock()

	sort.Slice(list, func(i, j int) bool {
		return list[i].Submitted.After(list[j].Submitted) ||
			(list[i].Submitted.Equal(list[j].Submitted) && list[i].ID > list[j].ID)
	})
	return list
}

// Run executes queued builds until ctx is cancelled.
func (s *Server) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case j := <-s.queue:
			s.runJob(ctx, j)
		}
	}
}

func (s *Server) runJob(ctx context.Context, j job) {
	s.update(j.id, func(status *BuildStatus) { status.Status = StateRunning })
	s.logger.Info("build started", "id", j.id)

	report, err := s.build(ctx, j.cfg)

	s.update(j.id, func(status *BuildStatus) {
		now := time.Now()
		status.Finished = &now
		if err != nil {
			status.Status = StateError
			status.Error = err.Error()
			return
		}
		status.Status = report.Status()
	})
	if err != nil {
		s.logger.Error("build error", "id", j.id, "error", err)
		return
	}
	s.logger.Info("build finished", "id", j.id, "status", report.Status())
}

func (s *Server) update(id string, fn func(*BuildStatus)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if status, ok := s.builds[id]; ok {
		fn(status)
	}
}
