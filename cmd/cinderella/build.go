package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"cinderella/internal/build"
	"cinderella/internal/config"
	"cinderella/internal/core"
	"cinderella/internal/storage"
)

// errBuildFailed makes the process exit with status 2.
var errBuildFailed = errors.New("build failed")

func runBuild(args []string) error {
	flags := newFlagSet("run")
	var (
		cfg        build.ExecutionConfig
		configPath string
		verbose    bool
	)
	flags.StringVarP(&cfg.Branch, "branch", "b", "", "branch to build")
	flags.StringVarP(&cfg.Tag, "tag", "t", "", "tag to build")
	flags.StringVarP(&cfg.PipelineFile, "file", "f", "", "pipeline definition, relative to the repository root")
	flags.StringVarP(&cfg.SecretsPassword, "password", "p", "", "password of the encrypted secrets")
	flags.StringVar(&configPath, "config", config.DefaultConfigPath(), "configuration file")
	flags.BoolVarP(&verbose, "verbose", "v", false, "log debug output")
	if err := flags.Parse(args); err != nil {
		return err
	}
	if flags.NArg() != 1 {
		printUsage()
		return fmt.Errorf("run needs exactly one repository url")
	}
	cfg.RepoURL = flags.Arg(0)

	appConfig, err := config.LoadFrom(configPath)
	if err != nil {
		return err
	}
	if cfg.SecretsPassword == "" {
		cfg.SecretsPassword = appConfig.SecretsPassword
	}

	builder := build.NewBuilder(appConfig.WorkRootOrDefault(), newLogger(verbose))
	builder.Notifier = appConfig.Notifier()
	if dir := appConfig.Dashboard.Directory; dir != "" {
		builder.Icons = storage.NewIconStorage(dir)
		builder.Logs = storage.NewLogStorage(dir)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	report, err := builder.Run(ctx, cfg)
	if err != nil {
		return err
	}

	fmt.Fprintln(os.Stdout, renderReport(report))
	if _, failed := report.Result.(core.Failed); failed {
		return errBuildFailed
	}
	return nil
}
