package engine

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/tartampluch/go-gedcheck/internal/config"
	"github.com/tartampluch/go-gedcheck/internal/gedcom"
)

// SourceConfig describes where the GEDCOM file comes from.
type SourceConfig struct {
	Mode      string // config.SourceModeLocal or config.SourceModeWeb
	LocalPath string // Path to the .ged file
	WebURL    string // HTTP(S) URL of the .ged file
	WebUser   string // HTTP Basic Auth Username
	WebPass   string // HTTP Basic Auth Password
}

// Name returns the path or URL of the source, for reports.
func (c SourceConfig) Name() string {
	if c.Mode == config.SourceModeWeb {
		return c.WebURL
	}
	return c.LocalPath
}

// Result is everything one analysis produced.
type Result struct {
	Source      string
	GeneratedAt time.Time
	Document    *gedcom.Document
	Stats       gedcom.Stats
	Findings    []Finding
	Summary     Summary
}

// Analyzer is the pipeline: acquire, decode, extract, detect.
type Analyzer struct {
	Clock    Clock         // Interface for time mocking.
	Fetcher  SourceFetcher // Interface for network abstraction.
	Detector *Detector
	Extract  gedcom.ExtractOptions
}

// Run reads the whole source into memory and analyzes it. Only source
// acquisition and cancellation produce errors; data problems end up in
// the Stats or as findings.
func (a *Analyzer) Run(ctx context.Context, cfg SourceConfig) (*Result, error) {
	start := time.Now()
	log := slog.With(
		config.LogKeyComponent, config.CompEngine,
		config.LogKeyMode, cfg.Mode,
	)
	log.InfoContext(ctx, config.MsgAnalysisStarted)

	// 1. Acquire Data
	data, err := a.read(ctx, cfg)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("%s: %w", config.ErrSourceRead, err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// 2. Decode & Extract
	doc, stats, err := gedcom.ParseBytes(data, a.Extract)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// 3. Detect
	det := a.Detector
	if det == nil {
		det = NewDetector(DefaultDetectorConfig())
	}
	findings, summary, err := det.Run(ctx, doc)
	if err != nil {
		return nil, err
	}

	res := &Result{
		Source:      cfg.Name(),
		GeneratedAt: a.now(),
		Document:    doc,
		Stats:       stats,
		Findings:    findings,
		Summary:     summary,
	}
	a.logSuccess(res)
	log.Debug("Analysis finished", config.LogKeyDuration, time.Since(start).Milliseconds())
	return res, nil
}

// read loads the configured source fully into memory.
func (a *Analyzer) read(ctx context.Context, cfg SourceConfig) ([]byte, error) {
	reader, err := a.acquireStream(ctx, cfg)
	if err != nil {
		return nil, err
	}
	// Best effort close. Errors in Close() for read-only files are rarely actionable here.
	defer func() { _ = reader.Close() }()
	return io.ReadAll(reader)
}

// acquireStream opens the appropriate data source based on configuration.
func (a *Analyzer) acquireStream(ctx context.Context, cfg SourceConfig) (io.ReadCloser, error) {
	switch cfg.Mode {
	case config.SourceModeLocal, "":
		if cfg.LocalPath == "" {
			return nil, errors.New(config.ErrLocalPathEmpty)
		}
		return os.Open(cfg.LocalPath)
	case config.SourceModeWeb:
		if cfg.WebURL == "" {
			return nil, errors.New(config.ErrWebURLEmpty)
		}
		if a.Fetcher == nil {
			return nil, errors.New(config.ErrFetcherMissing)
		}
		return a.Fetcher.Fetch(ctx, cfg.WebURL, cfg.WebUser, cfg.WebPass)
	default:
		return nil, fmt.Errorf("%s: %q", config.ErrModeUnsupport, cfg.Mode)
	}
}

func (a *Analyzer) now() time.Time {
	if a.Clock == nil {
		return time.Now()
	}
	return a.Clock.Now()
}

// logSuccess logs the final statistics of the analysis.
func (a *Analyzer) logSuccess(res *Result) {
	slog.Info(config.MsgAnalysisDone,
		config.LogKeyComponent, config.CompEngine,
		config.LogKeyCharset, res.Stats.Charset,
		slog.Group(config.LogKeyStats,
			slog.Int(config.LogKeyLines, res.Stats.Lines),
			slog.Int(config.LogKeySkippedLines, res.Stats.SkippedLines),
			slog.Int(config.LogKeySkippedRecs, res.Stats.SkippedRecords),
			slog.Int(config.LogKeyIndividuals, res.Summary.Individuals),
			slog.Int(config.LogKeyFamilies, res.Summary.Families),
			slog.Int(config.LogKeyUnparseable, res.Stats.UnparseableDates),
		),
		slog.Group(config.LogKeyMarriages,
			slog.Int(config.LogKeyTypical, res.Summary.Typical),
			slog.Int(config.LogKeyAtypical, res.Summary.Atypical),
			slog.Int(config.LogKeyForbidden, res.Summary.Forbidden),
			slog.Int(config.LogKeyIndeterminate, res.Summary.Skipped),
		),
		config.LogKeyFindings, len(res.Findings),
	)
}
