package engine

import (
	"fmt"
	"strings"

	"github.com/tartampluch/go-gedcheck/internal/calendar"
	"github.com/tartampluch/go-gedcheck/internal/config"
)

// Kind identifies what a Finding reports.
type Kind string

const (
	KindForbiddenMarriage   Kind = "FORBIDDEN_MARRIAGE"
	KindAtypicalSeason      Kind = "ATYPICAL_SEASON"
	KindShortGap            Kind = "SHORT_FIRST_CHILD_GAP"
	KindLongGap             Kind = "LONG_FIRST_CHILD_GAP"
	KindUnparseable         Kind = "UNPARSEABLE_DATE"
	KindDeathBeforeBirth    Kind = "DEATH_BEFORE_BIRTH"
	KindImplausibleLifespan Kind = "IMPLAUSIBLE_LIFESPAN"
)

// Severity orders findings by how likely they point at a data error.
type Severity int

const (
	SeverityInfo Severity = iota + 1
	SeverityWarning
	SeverityCritical
)

func (s Severity) String() string {
	switch s {
	case SeverityInfo:
		return "info"
	case SeverityWarning:
		return "warning"
	case SeverityCritical:
		return "critical"
	}
	return "unknown"
}

// MarshalText renders the severity by name in JSON reports.
func (s Severity) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// ParseSeverity maps "info", "warning" or "critical" to a Severity.
func ParseSeverity(s string) (Severity, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "info":
		return SeverityInfo, nil
	case "warning":
		return SeverityWarning, nil
	case "critical":
		return SeverityCritical, nil
	}
	return 0, fmt.Errorf("%s: %q", config.ErrSeverityUnknown, s)
}

// Finding is one anomaly attached to a family or an individual.
type Finding struct {
	// Subject is the family ID for marriage checks, the individual ID
	// otherwise.
	Subject string
	// Related is the other record involved, e.g. the first child of a
	// family or the family of an unparseable birth.
	Related  string
	Kind     Kind
	Severity Severity

	// Dates involved, in check order: marriage then birth, or birth then death.
	Dates []calendar.Date

	// Period is the matched fast for FORBIDDEN_MARRIAGE, Gap the matched
	// gap for ATYPICAL_SEASON.
	Period *calendar.Period
	Gap    *calendar.Gap

	// GapDays is birth minus marriage in days for the first-child checks.
	GapDays int
	// Years is the computed lifespan for IMPLAUSIBLE_LIFESPAN.
	Years int
	// Limit is the configured bound that was crossed, in days or years.
	Limit int

	// Field and Raw describe the offending value of UNPARSEABLE_DATE.
	Field string
	Raw   string

	Rationale string
}

// PeriodName returns the name of the matched period, or "" when none matched.
func (f Finding) PeriodName() string {
	if f.Period == nil {
		return ""
	}
	return f.Period.Name.String()
}

// DefaultRationale renders the English rationale of a finding.
func DefaultRationale(f Finding) string {
	date := func(i int) string {
		if i < len(f.Dates) {
			return f.Dates[i].DualString()
		}
		return config.FallbackName
	}

	switch f.Kind {
	case KindForbiddenMarriage:
		if f.Period != nil {
			return fmt.Sprintf(config.FallbackForbidden, date(0), f.Period.Name,
				f.Period.Start.DualString(), f.Period.End.DualString())
		}
	case KindAtypicalSeason:
		reason := calendar.GapReason(0)
		if f.Gap != nil {
			reason = f.Gap.Reason
		}
		return fmt.Sprintf(config.FallbackAtypical, date(0), reason)
	case KindShortGap:
		if f.GapDays < 0 {
			return fmt.Sprintf(config.FallbackNegativeGap, -f.GapDays, date(0), date(1))
		}
		return fmt.Sprintf(config.FallbackShortGap, f.GapDays, date(0), date(1))
	case KindLongGap:
		return fmt.Sprintf(config.FallbackLongGap, f.GapDays, date(0), date(1))
	case KindUnparseable:
		return fmt.Sprintf(config.FallbackUnparseable, f.Field, f.Raw)
	case KindDeathBeforeBirth:
		return fmt.Sprintf(config.FallbackDeathBeforeBir, date(1), date(0))
	case KindImplausibleLifespan:
		return fmt.Sprintf(config.FallbackLifespan, f.Years, f.Limit)
	}
	return string(f.Kind)
}
