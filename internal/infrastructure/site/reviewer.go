package site

import (
	"context"
	"fmt"
	"log/slog"
	"os/exec"

	"newspipe/internal/ports"
)

// AppReviewer launches an external review application and waits for the
// user to close it before the pipeline continues.
type AppReviewer struct {
	appPath string
	logger  *slog.Logger
}

var _ ports.Reviewer = (*AppReviewer)(nil)

// NewAppReviewer wires the review application path; empty means review is
// disabled.
func NewAppReviewer(appPath string, logger *slog.Logger) *AppReviewer {
	return &AppReviewer{appPath: appPath, logger: logger}
}

// Review runs the application and blocks until it exits.
func (r *AppReviewer) Review(ctx context.Context) error {
	if r.appPath == "" {
		if r.logger != nil {
			r.logger.Info("no review application configured, skipping")
		}
		return nil
	}

	if r.logger != nil {
		r.logger.Info("launching review application", "path", r.appPath)
	}

	cmd := exec.CommandContext(ctx, r.appPath)
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("review application %s: %w", r.appPath, err)
	}
	return nil
}
