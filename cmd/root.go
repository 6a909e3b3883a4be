// Package cmd defines the CLI commands of the elections scraper.
package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/JakeFAU/election-results-scraper/internal/app"
	"github.com/JakeFAU/election-results-scraper/internal/config"
	"github.com/JakeFAU/election-results-scraper/internal/logging"
	"github.com/JakeFAU/election-results-scraper/internal/pipeline"
	"github.com/JakeFAU/election-results-scraper/internal/walker"
)

// appKeyType is the key for storing the App in the context.
type appKeyType string

const appKey appKeyType = "app"

// Runner executes one scrape job.
type Runner interface {
	Run(ctx context.Context, job pipeline.Job) (pipeline.Summary, error)
}

// App is what the commands need from the application services. Tests swap
// in their own implementation through newApp.
type App interface {
	Config() config.Config
	Logger() *zap.Logger
	Runner() Runner
	MunicipalHierarchy() (walker.Hierarchy, error)
	Close()
}

type services struct {
	*app.App
}

func (s services) Runner() Runner {
	return s.App.Runner()
}

// newApp is the application factory.
var newApp = func(ctx context.Context, configPath string) (App, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	logger, err := logging.New(cfg.Logging)
	if err != nil {
		return nil, err
	}
	a, err := app.New(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}
	return services{a}, nil
}

func newRootCmd() *cobra.Command {
	var cfgFile string
	cmd := &cobra.Command{
		Use:   "elections",
		Short: "Scrapes French election results into a spreadsheet.",
		Long: `elections walks the results pages published by the Ministry of the
Interior, extracts every results table it finds and writes them as one
normalized spreadsheet. Pages that cannot be read are listed in a
diagnostics sheet instead of stopping the run.`,
		SilenceUsage:  true,
		SilenceErrors: true,

		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			appInstance, err := newApp(cmd.Context(), cfgFile)
			if err != nil {
				return fmt.Errorf("failed to initialize application services: %w", err)
			}
			cmd.SetContext(context.WithValue(cmd.Context(), appKey, appInstance))
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, _ []string) {
			if appInstance, ok := cmd.Context().Value(appKey).(App); ok && appInstance != nil {
				appInstance.Close()
				_ = appInstance.Logger().Sync()
			}
		},
	}

	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (yaml, json or toml)")
	cmd.AddCommand(newScrapeCmd())
	return cmd
}

func resolveApp(ctx context.Context) (App, error) {
	appInstance, ok := ctx.Value(appKey).(App)
	if !ok || appInstance == nil {
		return nil, errors.New("application services not initialized")
	}
	return appInstance, nil
}

// Execute runs the CLI until completion or SIGINT/SIGTERM.
func Execute() {
	if err := execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return newRootCmd().ExecuteContext(ctx)
}
