package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"github.com/tartampluch/go-gedcheck/internal/config"
	"github.com/tartampluch/go-gedcheck/internal/engine"
	"github.com/tartampluch/go-gedcheck/internal/gedcom"
	"github.com/tartampluch/go-gedcheck/internal/report"
	"github.com/zalando/go-keyring"
)

var errFindingsFound = errors.New(config.ErrFailOn)

// cli is the state shared by all commands of one invocation.
type cli struct {
	configPath string
	debug      bool
	version    bool

	logToFile bool
	logCloser io.Closer
	settings  *config.Settings
	clock     engine.Clock // nil reads the system clock
}

func (a *cli) now() engine.Clock {
	if a.clock == nil {
		return engine.RealClock{}
	}
	return a.clock
}

func newRootCmd(a *cli) *cobra.Command {
	root := &cobra.Command{
		Use:               config.AppCommand,
		Short:             config.CmdShortRoot,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: a.prepare,
		RunE: func(cmd *cobra.Command, args []string) error {
			if a.version {
				printVersion(cmd.OutOrStdout())
				return nil
			}
			return cmd.Help()
		},
	}

	root.PersistentFlags().StringVar(&a.configPath, config.FlagConfig, "", config.FlagDescConfig)
	root.PersistentFlags().BoolVar(&a.debug, config.FlagDebug, false, config.FlagDescDebug)
	root.Flags().BoolVar(&a.version, config.FlagVersion, false, config.FlagDescVersion)

	root.AddCommand(
		newAnalyzeCmd(a),
		newCalendarCmd(a),
		newServeCmd(a),
		newExportVCardCmd(a),
		newLoginCmd(a),
	)
	return root
}

// prepare sets up logging and loads the settings file before any command.
func (a *cli) prepare(cmd *cobra.Command, _ []string) error {
	if a.version {
		return nil
	}
	a.logCloser = setupLogging(cmd.ErrOrStderr(), a.debug, a.logToFile)
	logStartupInfo()

	path := a.configPath
	if path == "" {
		p, err := config.DefaultSettingsPath()
		if err != nil {
			slog.Debug(config.MsgSettingsMissing, config.LogKeyComponent, config.CompSettings, config.LogKeyError, err)
			a.settings = config.Defaults()
			return nil
		}
		path = p
	}

	s, err := config.Load(path)
	if err != nil {
		return err
	}
	a.settings = s
	return nil
}

func (a *cli) close() {
	if a.logCloser != nil {
		_ = a.logCloser.Close() // Best effort close
		a.logCloser = nil
	}
}

// -----------------------------------------------------------------------------
// Shared flag groups. Each apply copies only the flags given on the command
// line, so unset flags keep the value of the settings file.
// -----------------------------------------------------------------------------

type sourceFlags struct {
	url  string
	user string
}

func (f *sourceFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.url, config.FlagURL, "", config.FlagDescURL)
	cmd.Flags().StringVar(&f.user, config.FlagUser, "", config.FlagDescUser)
}

// apply selects the source: a file argument wins over --url, which wins
// over the settings file.
func (f *sourceFlags) apply(cmd *cobra.Command, args []string, s *config.Settings) {
	if cmd.Flags().Changed(config.FlagUser) {
		s.Source.User = f.user
	}
	switch {
	case len(args) > 0:
		s.Source.Mode = config.SourceModeLocal
		s.Source.Path = args[0]
	case cmd.Flags().Changed(config.FlagURL):
		s.Source.Mode = config.SourceModeWeb
		s.Source.URL = f.url
	}
}

type dateFlags struct {
	calendar      string
	gregorianFrom int
}

func (f *dateFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.calendar, config.FlagCalendar, config.DefaultCalendarMode, config.FlagDescCalendar)
	cmd.Flags().IntVar(&f.gregorianFrom, config.FlagGregorianFrom, config.DefaultGregorianFrom, config.FlagDescGregorianFrom)
}

func (f *dateFlags) apply(cmd *cobra.Command, s *config.Settings) {
	if cmd.Flags().Changed(config.FlagCalendar) {
		s.Calendar.Mode = f.calendar
	}
	if cmd.Flags().Changed(config.FlagGregorianFrom) {
		s.Calendar.GregorianFrom = f.gregorianFrom
	}
}

type detectorFlags struct {
	before       int
	shortGap     int
	veryShortGap int
	longGap      int
	unparseable  bool
	precision    string
	lifespan     bool
	maxLifespan  int
	workers      int
}

func (f *detectorFlags) register(cmd *cobra.Command) {
	fs := cmd.Flags()
	fs.IntVar(&f.before, config.FlagBefore, 0, config.FlagDescBefore)
	fs.IntVar(&f.shortGap, config.FlagShortGap, config.DefaultShortGapDays, config.FlagDescShortGap)
	fs.IntVar(&f.veryShortGap, config.FlagVeryShortGap, config.DefaultVeryShortGapDays, config.FlagDescVeryShortGap)
	fs.IntVar(&f.longGap, config.FlagLongGap, config.DefaultLongGapDays, config.FlagDescLongGap)
	fs.BoolVar(&f.unparseable, config.FlagUnparseable, false, config.FlagDescUnparseable)
	fs.StringVar(&f.precision, config.FlagPrecision, config.DefaultPrecision, config.FlagDescPrecision)
	fs.BoolVar(&f.lifespan, config.FlagLifespan, false, config.FlagDescLifespan)
	fs.IntVar(&f.maxLifespan, config.FlagMaxLifespan, config.DefaultMaxLifespanYears, config.FlagDescMaxLifespan)
	fs.IntVar(&f.workers, config.FlagWorkers, config.DefaultWorkers, config.FlagDescWorkers)
}

func (f *detectorFlags) apply(cmd *cobra.Command, s *config.Settings) {
	changed := cmd.Flags().Changed
	d := &s.Detector
	if changed(config.FlagBefore) {
		d.BeforeYear = f.before
	}
	if changed(config.FlagShortGap) {
		d.ShortGapDays = f.shortGap
	}
	if changed(config.FlagVeryShortGap) {
		d.VeryShortGapDays = f.veryShortGap
	}
	if changed(config.FlagLongGap) {
		d.LongGapDays = f.longGap
	}
	if changed(config.FlagUnparseable) {
		d.ReportUnparseable = f.unparseable
	}
	if changed(config.FlagPrecision) {
		d.Precision = f.precision
	}
	if changed(config.FlagLifespan) {
		d.CheckLifespan = f.lifespan
	}
	if changed(config.FlagMaxLifespan) {
		d.MaxLifespanYears = f.maxLifespan
	}
	if changed(config.FlagWorkers) {
		d.Workers = f.workers
	}
}

func registerLang(cmd *cobra.Command, lang *string) {
	cmd.Flags().StringVar(lang, config.FlagLang, config.DefaultLanguage, config.FlagDescLang)
}

func applyLang(cmd *cobra.Command, lang string, s *config.Settings) {
	if cmd.Flags().Changed(config.FlagLang) {
		s.Report.Language = lang
	}
}

// -----------------------------------------------------------------------------
// Wiring
// -----------------------------------------------------------------------------

// newAnalyzer assembles the pipeline from validated settings.
func newAnalyzer(s *config.Settings, loc *report.Localizer, clock engine.Clock) (*engine.Analyzer, error) {
	precision, err := gedcom.ParsePrecision(s.Detector.Precision)
	if err != nil {
		return nil, err
	}
	mode, err := gedcom.ParseCalendarMode(s.Calendar.Mode)
	if err != nil {
		return nil, err
	}

	det := engine.NewDetector(engine.DetectorConfig{
		BeforeYear:        s.Detector.BeforeYear,
		ShortGapDays:      s.Detector.ShortGapDays,
		VeryShortGapDays:  s.Detector.VeryShortGapDays,
		LongGapDays:       s.Detector.LongGapDays,
		ReportUnparseable: s.Detector.ReportUnparseable,
		ClassifyPrecision: precision,
		CheckLifespan:     s.Detector.CheckLifespan,
		MaxLifespanYears:  s.Detector.MaxLifespanYears,
		Workers:           s.Detector.Workers,
	})
	if loc != nil {
		det.FormatRationale = loc.Rationale
	}

	return &engine.Analyzer{
		Clock:    clock,
		Fetcher:  engine.NewHTTPFetcher(),
		Detector: det,
		Extract: gedcom.ExtractOptions{
			Dates: gedcom.DateContext{Mode: mode, GregorianFrom: s.Calendar.GregorianFrom},
		},
	}, nil
}

// sourceConfig builds the engine source. The password of a web source is
// read from the system keyring; a missing entry means no password.
func sourceConfig(s *config.Settings) engine.SourceConfig {
	cfg := engine.SourceConfig{
		Mode:      s.Source.Mode,
		LocalPath: s.Source.Path,
		WebURL:    s.Source.URL,
		WebUser:   s.Source.User,
	}

	if cfg.Mode == config.SourceModeWeb && cfg.WebUser != "" {
		if p, err := keyring.Get(config.KeyringService, cfg.WebUser); err == nil {
			cfg.WebPass = p
		} else {
			slog.Debug(config.MsgPassFail,
				config.LogKeyUser, cfg.WebUser,
				config.LogKeyError, err,
				config.LogKeyComponent, config.CompMain)
		}
	}
	return cfg
}

// hasSource reports whether the settings name a GEDCOM file to analyze.
func hasSource(s *config.Settings) bool {
	if s.Source.Mode == config.SourceModeWeb {
		return s.Source.URL != ""
	}
	return s.Source.Path != ""
}

// writeOutput sends data to path, or to w when path is empty.
func writeOutput(w io.Writer, path string, data []byte) error {
	if path == "" {
		if _, err := w.Write(data); err != nil {
			return fmt.Errorf("%s: %w", config.ErrReportWrite, err)
		}
		return nil
	}
	if err := os.WriteFile(path, data, config.FilePermReport); err != nil {
		return fmt.Errorf("%s: %w", config.ErrReportWrite, err)
	}
	slog.Info(config.MsgReportWritten,
		config.LogKeyComponent, config.CompReport,
		config.LogKeyFile, path,
		config.LogKeySizeBytes, len(data),
	)
	return nil
}
