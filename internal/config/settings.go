package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
)

// Settings holds the user configuration read from settings.toml. CLI
// flags override individual values.
type Settings struct {
	Source   SourceSettings   `toml:"source"`
	Detector DetectorSettings `toml:"detector"`
	Calendar CalendarSettings `toml:"calendar"`
	Report   ReportSettings   `toml:"report"`
	Server   ServerSettings   `toml:"server"`
}

// SourceSettings locates the GEDCOM file. The password of a web source
// lives in the system keyring, never in the file.
type SourceSettings struct {
	Mode string `toml:"mode"`
	Path string `toml:"path"`
	URL  string `toml:"url"`
	User string `toml:"user"`
}

type DetectorSettings struct {
	BeforeYear        int    `toml:"before_year"`
	ShortGapDays      int    `toml:"short_gap_days"`
	VeryShortGapDays  int    `toml:"very_short_gap_days"`
	LongGapDays       int    `toml:"long_gap_days"`
	ReportUnparseable bool   `toml:"report_unparseable"`
	Precision         string `toml:"precision"`
	CheckLifespan     bool   `toml:"check_lifespan"`
	MaxLifespanYears  int    `toml:"max_lifespan_years"`
	Workers           int    `toml:"workers"`
}

// CalendarSettings decides how undated-calendar GEDCOM dates are read.
type CalendarSettings struct {
	Mode          string `toml:"mode"`
	GregorianFrom int    `toml:"gregorian_from"`
}

type ReportSettings struct {
	Format   string `toml:"format"`
	Language string `toml:"language"`
	Output   string `toml:"output"`
	FailOn   string `toml:"fail_on"`
}

type ServerSettings struct {
	Port        string `toml:"port"`
	IntervalMin int    `toml:"interval_minutes"`
}

// Defaults returns Settings populated with built-in default values.
func Defaults() *Settings {
	return &Settings{
		Source: SourceSettings{Mode: SourceModeLocal},
		Detector: DetectorSettings{
			ShortGapDays:     DefaultShortGapDays,
			VeryShortGapDays: DefaultVeryShortGapDays,
			LongGapDays:      DefaultLongGapDays,
			Precision:        DefaultPrecision,
			MaxLifespanYears: DefaultMaxLifespanYears,
			Workers:          DefaultWorkers,
		},
		Calendar: CalendarSettings{Mode: DefaultCalendarMode, GregorianFrom: DefaultGregorianFrom},
		Report:   ReportSettings{Format: DefaultFormat, Language: DefaultLanguage},
		Server:   ServerSettings{Port: DefaultPort, IntervalMin: DefaultRefreshMin},
	}
}

// DefaultSettingsPath returns settings.toml in the user config directory.
func DefaultSettingsPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, AppCommand, SettingsFileName), nil
}

// Load reads a TOML settings file over the defaults. A missing file is
// not an error: the defaults are returned.
func Load(path string) (*Settings, error) {
	s := Defaults()
	log := slog.With(
		slog.String(LogKeyComponent, CompSettings),
		slog.String(LogKeyFile, path),
	)

	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		log.Debug(MsgSettingsMissing)
		return s, nil
	}

	md, err := toml.DecodeFile(path, s)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", ErrSettingsLoad, err)
	}
	for _, key := range md.Undecoded() {
		log.Warn(MsgSettingsUnknownKey, slog.String(LogKeyKey, key.String()))
	}
	log.Debug(MsgSettingsLoaded)
	return s, nil
}

// ValidatePort checks that port is a number in [MinPort, MaxPort].
func ValidatePort(port string) error {
	if port == "" {
		return errors.New(ErrPortRequired)
	}
	n, err := strconv.Atoi(port)
	if err != nil {
		return errors.New(ErrPortNumber)
	}
	if n < MinPort || n > MaxPort {
		return errors.New(ErrPortRange)
	}
	return nil
}

var (
	validModes      = []string{SourceModeLocal, SourceModeWeb}
	validFormats    = []string{FormatText, FormatICS, FormatJSON}
	validCalendars  = []string{"auto", "julian", "gregorian"}
	validPrecisions = []string{"year", "month", "day"}
	validSeverities = []string{"", "info", "warning", "critical"}
)

// Validate reports every invalid value at once.
func (s *Settings) Validate() error {
	var errs []error
	check := func(ok bool, format string, args ...any) {
		if !ok {
			errs = append(errs, fmt.Errorf(format, args...))
		}
	}
	oneOf := func(field, value string, allowed []string) {
		check(slices.Contains(allowed, strings.ToLower(value)), "%s: %q not in %v", field, value, allowed)
	}

	oneOf("source.mode", s.Source.Mode, validModes)
	oneOf("calendar.mode", s.Calendar.Mode, validCalendars)
	oneOf("detector.precision", s.Detector.Precision, validPrecisions)
	oneOf("report.format", s.Report.Format, validFormats)
	oneOf("report.language", s.Report.Language, SupportedLanguages)
	oneOf("report.fail_on", s.Report.FailOn, validSeverities)

	d := s.Detector
	check(d.BeforeYear >= 0, "detector.before_year: %s", ErrNegative)
	check(d.ShortGapDays >= 0 && d.VeryShortGapDays >= 0 && d.LongGapDays >= 0, "detector gaps: %s", ErrNegative)
	check(d.VeryShortGapDays <= d.ShortGapDays, "detector.very_short_gap_days: %s", ErrGapOrder)
	check(d.MaxLifespanYears >= 0, "detector.max_lifespan_years: %s", ErrNegative)
	check(d.Workers >= 1 && d.Workers <= MaxWorkers, "detector.workers: %s", ErrWorkers)
	check(s.Calendar.GregorianFrom >= MinYear && s.Calendar.GregorianFrom <= MaxYear, "calendar.gregorian_from: %s", ErrYearRange)
	check(s.Server.IntervalMin >= 0, "server.interval_minutes: %s", ErrNegative)
	if err := ValidatePort(s.Server.Port); err != nil {
		errs = append(errs, fmt.Errorf("server.port: %w", err))
	}

	if len(errs) > 0 {
		return fmt.Errorf("%s: %w", ErrSettingsInvalid, errors.Join(errs...))
	}
	return nil
}
