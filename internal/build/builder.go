// Package build runs the pipelines of one repository revision: it fetches
// the sources, prepares variables and secrets, runs the pipelines and
// reports the outcome.
package build

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"cinderella/internal/core"
	"cinderella/internal/notify"
	"cinderella/internal/security"
	"cinderella/internal/storage"
	"cinderella/internal/vcs"
)

// ExecutionConfig selects what to build.
type ExecutionConfig struct {
	RepoURL         string `json:"repo_url"`
	Branch          string `json:"branch,omitempty"`
	Tag             string `json:"tag,omitempty"`
	PipelineFile    string `json:"pipeline_file,omitempty"` // relative to the checkout unless absolute
	SecretsPassword string `json:"-"`
}

// Name returns the project name derived from the repository URL.
func (c ExecutionConfig) Name() string {
	return vcs.ProjectName(c.RepoURL)
}

// Ref returns the branch or tag being built, "HEAD" when neither is set.
func (c ExecutionConfig) Ref() string {
	switch {
	case c.Tag != "":
		return c.Tag
	case c.Branch != "":
		return c.Branch
	default:
		return "HEAD"
	}
}

// WorkingCopy is a checkout the pipelines run in.
type WorkingCopy interface {
	Path() string
	CheckoutBranch(branch string) error
	CheckoutTag(tag string) error
	Head() (string, error)
	Close() error
}

// Fetcher clones url into a new directory below root.
type Fetcher func(ctx context.Context, url, root string) (WorkingCopy, error)

// GitFetcher fetches with go-git.
func GitFetcher(ctx context.Context, url, root string) (WorkingCopy, error) {
	return vcs.GitSource{URL: url}.Fetch(ctx, root)
}

// Report is the outcome of one build.
type Report struct {
	Project string
	Ref     string
	Result  core.ExecutionResult
	LogPath string
}

// Status returns "success", "failure" or "skipped".
func (r Report) Status() string {
	switch r.Result.(type) {
	case core.Succeeded:
		return "success"
	case core.Failed:
		return "failure"
	default:
		return "skipped"
	}
}

// Builder runs builds. Icons and Logs are optional.
type Builder struct {
	WorkRoot string
	Fetch    Fetcher
	Notifier notify.Notifier
	Icons    *storage.IconStorage
	Logs     *storage.LogStorage
	Console  io.Writer
	Logger   *slog.Logger
}

// NewBuilder creates a builder cloning with go-git below workRoot.
func NewBuilder(workRoot string, logger *slog.Logger) *Builder {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Builder{
		WorkRoot: workRoot,
		Fetch:    GitFetcher,
		Notifier: notify.Nop{},
		Console:  os.Stdout,
		Logger:   logger,
	}
}

// Run builds cfg. A returned error means the build could not be carried out
// at all; failing pipelines are reported through Report.Result.
func (b *Builder) Run(ctx context.Context, cfg ExecutionConfig) (Report, error) {
	report := Report{Project: cfg.Name(), Ref: cfg.Ref(), Result: core.NoExecution{}}
	logger := b.Logger.With("project", report.Project, "ref", report.Ref)

	if cfg.Branch != "" && cfg.Tag != "" {
		return report, fmt.Errorf("branch and tag are mutually exclusive")
	}

	wc, err := b.Fetch(ctx, cfg.RepoURL, b.WorkRoot)
	if err != nil {
		return report, fmt.Errorf("fetch %s: %w", cfg.RepoURL, err)
	}
	defer func() {
		if err := wc.Close(); err != nil {
			logger.Warn("cannot remove working copy", "dir", wc.Path(), "error", err)
		}
	}()
	logger.Info("working copy ready", "dir", wc.Path())

	variables := core.NewVariables()
	switch {
	case cfg.Branch != "":
		if err := wc.CheckoutBranch(cfg.Branch); err != nil {
			return report, err
		}
		variables.Set("branch", cfg.Branch)
	case cfg.Tag != "":
		if err := wc.CheckoutTag(cfg.Tag); err != nil {
			return report, err
		}
		variables.Set("tag", cfg.Tag)
	}

	if commit, err := wc.Head(); err == nil {
		logger = logger.With("commit", commit)
		logger.Info("revision checked out")
	}

	secrets, err := loadSecrets(wc.Path(), cfg.SecretsPassword)
	if err != nil {
		return report, err
	}
	variables.Merge(secrets)

	pipelineFile, err := resolvePipelineFile(wc.Path(), cfg.PipelineFile)
	if err == nil {
		var pipelines []core.Pipeline
		pipelines, err = core.LoadPipelines(pipelineFile)
		if err == nil {
			report.Result = b.runner(wc.Path(), logger).Run(ctx, pipelines, variables)
		}
	}
	if errors.Is(err, core.ErrNoPipelineFile) {
		logger.Info("no pipeline definition found")
		return report, nil
	}
	if err != nil {
		return report, err
	}

	b.publish(ctx, &report, logger)
	return report, nil
}

func (b *Builder) runner(dir string, logger *slog.Logger) *core.Runner {
	runner := core.NewRunner(dir, logger)
	runner.Executor.Console = b.Console
	return runner
}

// publish notifies about failures and updates the icon and log of the build.
func (b *Builder) publish(ctx context.Context, report *Report, logger *slog.Logger) {
	var (
		status storage.BuildStatus
		steps  []core.StepResult
	)
	switch result := report.Result.(type) {
	case core.Succeeded:
		status, steps = storage.StatusSuccess, result.Steps
		logger.Info("build succeeded", "steps", len(steps))
	case core.Failed:
		status, steps = storage.StatusFailure, result.Steps
		logger.Error("build failed", "command", result.FailingStep().Command)

		subject, body := notify.FailureMessage(report.Project, result)
		if b.Notifier != nil {
			if err := b.Notifier.Notify(ctx, subject, body); err != nil {
				logger.Error("cannot send failure notification", "error", err)
			}
		}
	default:
		logger.Info("all pipelines skipped")
		return
	}

	if b.Icons != nil {
		if _, err := b.Icons.SaveIcon(report.Project, report.Ref, status); err != nil {
			logger.Error("cannot write status icon", "error", err)
		}
	}
	if b.Logs != nil {
		var output strings.Builder
		for _, step := range steps {
			fmt.Fprintf(&output, "$ %s\n%s", step.Command, step.Output)
		}
		path, err := b.Logs.SaveLog(report.Project, report.Ref, output.String())
		if err != nil {
			logger.Error("cannot write build log", "error", err)
		}
		report.LogPath = path
	}
}

func resolvePipelineFile(dir, file string) (string, error) {
	if file == "" {
		return core.FindPipelineFile(dir)
	}
	if filepath.IsAbs(file) {
		return file, nil
	}
	return filepath.Join(dir, file), nil
}

// loadSecrets reads the encrypted secrets of the checkout, if it has any.
func loadSecrets(dir, password string) (map[string]string, error) {
	path := filepath.Join(dir, security.EncryptedSecretsFile)
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if password == "" {
		return nil, fmt.Errorf("%s exists but no secrets password is configured", security.EncryptedSecretsFile)
	}

	secrets, err := security.LoadSecrets(path, password)
	if err != nil {
		return nil, fmt.Errorf("decrypt %s: %w", security.EncryptedSecretsFile, err)
	}
	return secrets, nil
}
