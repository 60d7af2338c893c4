// server runs cinderella builds on request: builds are submitted over HTTP
// or triggered by GitHub push webhooks and executed one at a time.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/pflag"

	"cinderella/internal/build"
	"cinderella/internal/config"
	"cinderella/internal/server"
	"cinderella/internal/storage"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	var configPath, listen string
	flags := pflag.NewFlagSet("server", pflag.ContinueOnError)
	flags.StringVar(&configPath, "config", config.DefaultConfigPath(), "configuration file")
	flags.StringVar(&listen, "listen", "", "listen address (overrides server.listen)")
	if err := flags.Parse(os.Args[1:]); err != nil {
		return err
	}

	cfg, err := config.LoadFrom(configPath)
	if err != nil {
		return err
	}
	if listen == "" {
		listen = cfg.ListenOrDefault()
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	builder := build.NewBuilder(cfg.WorkRootOrDefault(), logger)
	builder.Notifier = cfg.Notifier()
	var icons *storage.IconStorage
	if dir := cfg.Dashboard.Directory; dir != "" {
		icons = storage.NewIconStorage(dir)
		builder.Icons = icons
		builder.Logs = storage.NewLogStorage(dir)
	}

	srv := server.New(server.Options{
		Build:           builder.Run,
		Icons:           icons,
		WebhookSecret:   cfg.Server.WebhookSecret,
		AllowUnsigned:   cfg.Server.AllowUnsignedWebhooks,
		SecretsPassword: cfg.SecretsPassword,
		Logger:          logger,
	})
	switch {
	case cfg.Server.WebhookSecret != "":
	case cfg.Server.AllowUnsignedWebhooks:
		logger.Warn("accepting unsigned GitHub webhooks, anyone reaching the server can trigger builds")
	default:
		logger.Info("no webhook secret configured, GitHub webhooks are rejected")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go srv.Run(ctx)

	httpServer := &http.Server{
		Addr:              listen,
		Handler:           srv.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		httpServer.Shutdown(shutdownCtx)
	}()

	logger.Info("cinderella server listening", "addr", listen)
	if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
