package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"newspipe/internal/app"
	"newspipe/internal/config"
	"newspipe/internal/logging"
	"newspipe/internal/usecase"
)

var (
	stepName   string
	stageName  string
	configPath string
	logLevel   string
	skipReview bool
	cronSpec   string
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "newspipe",
		Short: "News content pipeline: scrape, group, translate, publish",
		Long: "newspipe scrapes a news feed, groups related articles, merges and " +
			"translates them, localizes their images and publishes the result to a " +
			"static site. Without --step it runs the full pipeline once.",
		SilenceUsage: true,
		RunE:         run,
	}

	rootCmd.Flags().StringVar(&stepName, "step", "", "Run a single step (scrape|group|merge|convert|translate|images|review|copy|deploy|clean|cleanup)")
	rootCmd.Flags().StringVar(&stageName, "stage", "", "Stage directory for --step clean; empty cleans everything")
	rootCmd.Flags().StringVar(&configPath, "config", "", "Path to the YAML config file")
	rootCmd.Flags().StringVar(&logLevel, "log-level", "", "Override the configured log level")
	rootCmd.Flags().BoolVar(&skipReview, "skip-review", false, "Skip the manual review pause in full runs")
	rootCmd.Flags().StringVar(&cronSpec, "schedule", "", "Keep running on this cron schedule (e.g. \"0 6 * * *\")")

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, _ []string) error {
	if configPath != "" {
		os.Setenv("NEWSPIPE_CONFIG", configPath)
	}

	cfg := config.Load()
	if logLevel != "" {
		cfg.Logging.Level = logLevel
	}
	if cronSpec != "" {
		cfg.Scheduler.CronExpression = cronSpec
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger := logging.NewWithFile(cfg.Logging.Level, cfg.Logging.Dir)

	application, err := app.New(cfg, logger, app.Options{SkipReview: skipReview})
	if err != nil {
		logger.Error("startup failed", "error", err)
		return err
	}
	defer application.Close()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	switch {
	case stepName != "":
		step, err := usecase.ParseStep(stepName)
		if err != nil {
			return err
		}
		if stageName != "" && step != usecase.StepClean {
			return fmt.Errorf("--stage only applies to --step clean")
		}
		if err := application.RunStep(ctx, step, stageName); err != nil {
			logger.Error("step failed", "step", step, "error", err)
			return err
		}

	case cronSpec != "":
		if err := application.RunScheduled(ctx); err != nil {
			logger.Error("scheduler stopped", "error", err)
			return err
		}

	default:
		if err := application.Run(ctx); err != nil {
			logger.Error("pipeline failed", "error", err)
			return err
		}
	}

	return nil
}
