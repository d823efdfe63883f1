package sampledata

import (
	"context"
	"net/http"
	"time"

	"github.com/okian/athleteprofile/pkg/logger"
)

// Run generates the sheet, writes it and optionally verifies a server.
func Run(ctx context.Context, cfg Config) error {
	start := time.Now()
	sheet, err := Generate(cfg)
	if err != nil {
		return err
	}
	if err := WriteFile(cfg.Output, sheet); err != nil {
		return err
	}
	logger.Get().Info(ctx, "sample sheet written",
		logger.String("output", cfg.Output),
		logger.Int("athletes", cfg.Athletes),
		logger.Int("rows", len(sheet.Records)),
		logger.Duration("took", time.Since(start)))

	if cfg.BaseURL == "" {
		return nil
	}
	_, err = Verify(ctx, &http.Client{Timeout: cfg.Timeout}, cfg.BaseURL, sheet)
	return err
}
