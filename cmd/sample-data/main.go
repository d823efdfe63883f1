package main

import (
	"context"
	"flag"
	"os"
	"strings"
	"time"

	"github.com/okian/athleteprofile/internal/sampledata"
	"github.com/okian/athleteprofile/pkg/logger"
)

// Default configuration constants.
const (
	defaultOutput    = "data/metrics.csv"
	defaultStart     = "2025-01-04"
	defaultTestTypes = "CMJ-RE,CMJ,ISO,MAXED"
	defaultTimeout   = 30 * time.Second
	defaultRunTime   = 5 * time.Minute
)

func main() {
	var (
		athletes  = flag.Int("athletes", sampledata.DefaultAthletes, "Number of athletes")
		sessions  = flag.Int("sessions", sampledata.DefaultSessions, "Sessions per athlete")
		start     = flag.String("start", defaultStart, "Date of the first session (YYYY-MM-DD)")
		interval  = flag.Duration("interval", sampledata.DefaultInterval, "Gap between sessions")
		seed      = flag.Int64("seed", 0, "Random seed (0 picks one)")
		testTypes = flag.String("test-types", defaultTestTypes, "Comma-separated test types rotated across sessions")
		dropRate  = flag.Float64("drop", sampledata.DefaultDropRate, "Fraction of metric cells left empty")
		output    = flag.String("output", defaultOutput, "Output CSV file")
		verifyURL = flag.String("verify", "", "Base URL of a running server to reload and verify (e.g. http://localhost:9080)")
		timeout   = flag.Duration("timeout", defaultTimeout, "HTTP request timeout")
	)
	flag.Parse()

	if err := logger.Init(); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		os.Exit(1)
	}

	startDate, err := time.Parse("2006-01-02", *start)
	if err != nil {
		os.Stderr.WriteString("invalid -start: " + err.Error() + "\n")
		os.Exit(2)
	}

	ctx, cancel := context.WithTimeout(context.Background(), defaultRunTime)
	defer cancel()

	cfg := sampledata.Config{
		Athletes:  *athletes,
		Sessions:  *sessions,
		Start:     startDate,
		Interval:  *interval,
		Seed:      *seed,
		TestTypes: splitTypes(*testTypes),
		DropRate:  *dropRate,
		Output:    *output,
		BaseURL:   strings.TrimRight(*verifyURL, "/"),
		Timeout:   *timeout,
	}
	if err := sampledata.Run(ctx, cfg); err != nil {
		logger.Get().Error(ctx, "sample data failed", logger.Error(err))
		os.Exit(1)
	}
}

func splitTypes(s string) []string {
	var out []string
	for _, t := range strings.Split(s, ",") {
		if t = strings.TrimSpace(t); t != "" {
			out = append(out, t)
		}
	}
	return out
}
