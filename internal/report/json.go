package report

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/tartampluch/go-gedcheck/internal/calendar"
	"github.com/tartampluch/go-gedcheck/internal/config"
	"github.com/tartampluch/go-gedcheck/internal/engine"
)

// JSON DTOs. Field names are part of the output format.
type (
	jsonReport struct {
		Source      string        `json:"source"`
		GeneratedAt time.Time     `json:"generated_at"`
		Charset     string        `json:"charset"`
		Stats       jsonStats     `json:"stats"`
		Summary     jsonSummary   `json:"summary"`
		Findings    []jsonFinding `json:"findings"`
	}

	jsonStats struct {
		Lines            int `json:"lines"`
		SkippedLines     int `json:"skipped_lines"`
		SkippedRecords   int `json:"skipped_records"`
		Individuals      int `json:"individuals"`
		Families         int `json:"families"`
		Dates            int `json:"dates"`
		UnparseableDates int `json:"unparseable_dates"`
	}

	jsonSummary struct {
		Marriages int `json:"marriages"`
		Typical   int `json:"typical"`
		Atypical  int `json:"atypical"`
		Forbidden int `json:"forbidden"`
		Skipped   int `json:"skipped"`
		Info      int `json:"info"`
		Warning   int `json:"warning"`
		Critical  int `json:"critical"`
	}

	jsonFinding struct {
		Subject   string          `json:"subject"`
		Label     string          `json:"label"`
		Related   string          `json:"related,omitempty"`
		Kind      engine.Kind     `json:"kind"`
		Severity  engine.Severity `json:"severity"`
		Dates     []jsonDate      `json:"dates,omitempty"`
		Period    string          `json:"period,omitempty"`
		Reason    string          `json:"reason,omitempty"`
		GapDays   *int            `json:"gap_days,omitempty"`
		Years     int             `json:"years,omitempty"`
		Limit     int             `json:"limit,omitempty"`
		Field     string          `json:"field,omitempty"`
		Raw       string          `json:"raw,omitempty"`
		Rationale string          `json:"rationale"`
	}

	jsonDate struct {
		Julian    string `json:"julian"`
		Gregorian string `json:"gregorian"`
	}
)

func isoDate(d calendar.Date, sys calendar.System) string {
	y, m, day := d.In(sys).YMD()
	return fmt.Sprintf(config.DateFormatISO, y, m, day)
}

func newJSONFinding(f engine.Finding, res *engine.Result) jsonFinding {
	out := jsonFinding{
		Subject:   f.Subject,
		Label:     Label(res.Document, f.Subject),
		Related:   f.Related,
		Kind:      f.Kind,
		Severity:  f.Severity,
		Period:    f.PeriodName(),
		Years:     f.Years,
		Limit:     f.Limit,
		Field:     f.Field,
		Raw:       f.Raw,
		Rationale: f.Rationale,
	}
	for _, d := range f.Dates {
		out.Dates = append(out.Dates, jsonDate{
			Julian:    isoDate(d, calendar.Julian),
			Gregorian: isoDate(d, calendar.Gregorian),
		})
	}
	if f.Gap != nil {
		out.Reason = f.Gap.Reason.String()
	}
	if f.Kind == engine.KindShortGap || f.Kind == engine.KindLongGap {
		days := f.GapDays
		out.GapDays = &days
	}
	return out
}

// WriteJSON encodes res as an indented JSON document.
func WriteJSON(w io.Writer, res *engine.Result) error {
	doc := jsonReport{
		Source:      res.Source,
		GeneratedAt: res.GeneratedAt,
		Charset:     res.Stats.Charset,
		Stats: jsonStats{
			Lines:            res.Stats.Lines,
			SkippedLines:     res.Stats.SkippedLines,
			SkippedRecords:   res.Stats.SkippedRecords,
			Individuals:      res.Summary.Individuals,
			Families:         res.Summary.Families,
			Dates:            res.Stats.Dates,
			UnparseableDates: res.Stats.UnparseableDates,
		},
		Summary: jsonSummary{
			Marriages: res.Summary.Marriages,
			Typical:   res.Summary.Typical,
			Atypical:  res.Summary.Atypical,
			Forbidden: res.Summary.Forbidden,
			Skipped:   res.Summary.Skipped,
			Info:      res.Summary.Info,
			Warning:   res.Summary.Warning,
			Critical:  res.Summary.Critical,
		},
		Findings: make([]jsonFinding, 0, len(res.Findings)),
	}
	for _, f := range res.Findings {
		doc.Findings = append(doc.Findings, newJSONFinding(f, res))
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("%s: %w", config.ErrJSONEncode, err)
	}
	return nil
}
