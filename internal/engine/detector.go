package engine

import (
	"context"
	"log/slog"

	"github.com/tartampluch/go-gedcheck/internal/calendar"
	"github.com/tartampluch/go-gedcheck/internal/classifier"
	"github.com/tartampluch/go-gedcheck/internal/config"
	"github.com/tartampluch/go-gedcheck/internal/gedcom"
	"golang.org/x/sync/errgroup"
)

// DetectorConfig holds the thresholds of the anomaly checks.
type DetectorConfig struct {
	// BeforeYear restricts the marriage checks to marriages whose year is
	// strictly lower. 0 disables the restriction.
	BeforeYear int

	// First children born less than ShortGapDays after the marriage are
	// reported; below VeryShortGapDays the severity rises to warning.
	ShortGapDays     int
	VeryShortGapDays int
	// LongGapDays reports first children born later than this. 0 disables it.
	LongGapDays int

	// ReportUnparseable turns malformed marriage and first-child birth
	// dates into UNPARSEABLE_DATE findings.
	ReportUnparseable bool

	// ClassifyPrecision is the coarsest date precision still checked.
	// Month- and year-only values stand for their first day.
	ClassifyPrecision gedcom.Precision

	CheckLifespan    bool
	MaxLifespanYears int

	// Workers > 1 checks records in parallel. Output is identical.
	Workers int
}

// DefaultDetectorConfig returns the documented defaults.
func DefaultDetectorConfig() DetectorConfig {
	return DetectorConfig{
		ShortGapDays:      config.DefaultShortGapDays,
		VeryShortGapDays:  config.DefaultVeryShortGapDays,
		LongGapDays:       config.DefaultLongGapDays,
		ClassifyPrecision: gedcom.PrecisionYear,
		MaxLifespanYears:  config.DefaultMaxLifespanYears,
		Workers:           config.DefaultWorkers,
	}
}

// Summary aggregates the marriage classification of one run.
type Summary struct {
	Families    int
	Individuals int

	// Marriages counts the marriage dates that were classified; Skipped
	// those recorded but left out (unparseable, too coarse or too late).
	Marriages int
	Typical   int
	Atypical  int
	Forbidden int
	Skipped   int

	Info     int
	Warning  int
	Critical int
}

// Share returns n as a percentage of the classified marriages, rounded
// half up.
func (s Summary) Share(n int) int {
	if s.Marriages == 0 {
		return 0
	}
	return (n*200 + s.Marriages) / (2 * s.Marriages)
}

// Detector runs the anomaly checks over an extracted document.
type Detector struct {
	Classifier *classifier.Classifier
	Config     DetectorConfig

	// FormatRationale allows the shell to inject localized explanations.
	FormatRationale func(Finding) string
}

// NewDetector returns a Detector with a fresh classifier.
func NewDetector(cfg DetectorConfig) *Detector {
	return &Detector{Classifier: classifier.New(), Config: cfg}
}

// marriageOutcome is what the check of one family contributes.
type marriageOutcome struct {
	findings []Finding
	recorded bool
	status   classifier.Status
}

// Detect returns the findings of doc in deterministic order: families in
// document order, then individuals, each in check order.
func (d *Detector) Detect(doc *gedcom.Document) []Finding {
	findings, _, _ := d.Run(context.Background(), doc)
	return findings
}

// Run is Detect with cancellation and a Summary of the classified marriages.
func (d *Detector) Run(ctx context.Context, doc *gedcom.Document) ([]Finding, Summary, error) {
	families := make([]marriageOutcome, len(doc.Families))
	individuals := make([][]Finding, len(doc.Individuals))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(d.Config.Workers, 1))

	for i, fam := range doc.Families {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			families[i] = d.family(doc, fam)
			return nil
		})
	}
	if d.Config.CheckLifespan {
		for i, ind := range doc.Individuals {
			g.Go(func() error {
				if err := gctx.Err(); err != nil {
					return err
				}
				individuals[i] = d.individual(ind)
				return nil
			})
		}
	}
	if err := g.Wait(); err != nil {
		return nil, Summary{}, err
	}

	sum := Summary{Families: len(doc.Families), Individuals: len(doc.Individuals)}
	var findings []Finding
	for _, o := range families {
		findings = append(findings, o.findings...)
		sum.count(o)
	}
	for _, fs := range individuals {
		findings = append(findings, fs...)
	}

	for i := range findings {
		findings[i].Rationale = d.rationale(findings[i])
		switch findings[i].Severity {
		case SeverityInfo:
			sum.Info++
		case SeverityWarning:
			sum.Warning++
		case SeverityCritical:
			sum.Critical++
		}
	}

	slog.Debug(config.MsgDetectDone,
		config.LogKeyComponent, config.CompDetector,
		config.LogKeyWorkers, d.Config.Workers,
		config.LogKeyFindings, len(findings),
	)
	return findings, sum, nil
}

func (s *Summary) count(o marriageOutcome) {
	if !o.recorded {
		return
	}
	switch o.status {
	case classifier.Allowed:
		s.Typical++
	case classifier.Atypical:
		s.Atypical++
	case classifier.Forbidden:
		s.Forbidden++
	default:
		s.Skipped++
		return
	}
	s.Marriages++
}

func (d *Detector) rationale(f Finding) string {
	if d.FormatRationale != nil {
		return d.FormatRationale(f)
	}
	return DefaultRationale(f)
}

func (d *Detector) classify(v gedcom.DateValue) classifier.Result {
	if d.Classifier == nil {
		return (&classifier.Classifier{}).Classify(v)
	}
	return d.Classifier.Classify(v)
}

// family runs the marriage-season and first-child checks of one family.
func (d *Detector) family(doc *gedcom.Document, fam *gedcom.Family) marriageOutcome {
	m := fam.Marriage
	if m == nil || (!m.IsKnown() && !m.IsUnparseable()) {
		return marriageOutcome{}
	}
	out := marriageOutcome{recorded: true}

	if m.IsUnparseable() {
		if d.Config.ReportUnparseable {
			out.findings = append(out.findings, unparseable(fam.ID, "", "MARR", m.Raw))
		}
		return out
	}

	married, ok := d.precise(*m)
	if !ok || (d.Config.BeforeYear > 0 && married.Year() >= d.Config.BeforeYear) {
		return out
	}

	res := d.classify(*m)
	out.status = res.Status
	switch res.Status {
	case classifier.Forbidden:
		out.findings = append(out.findings, Finding{
			Subject:  fam.ID,
			Kind:     KindForbiddenMarriage,
			Severity: SeverityCritical,
			Dates:    []calendar.Date{married},
			Period:   res.Period,
		})
	case classifier.Atypical:
		out.findings = append(out.findings, Finding{
			Subject:  fam.ID,
			Kind:     KindAtypicalSeason,
			Severity: SeverityWarning,
			Dates:    []calendar.Date{married},
			Gap:      res.Gap,
		})
	}

	if f, ok := d.firstChild(doc, fam, married); ok {
		out.findings = append(out.findings, f)
	}
	return out
}

// firstChild compares the birth of the first listed child with the marriage.
func (d *Detector) firstChild(doc *gedcom.Document, fam *gedcom.Family, married calendar.Date) (Finding, bool) {
	childID, ok := fam.FirstChild()
	if !ok {
		return Finding{}, false
	}
	child, ok := doc.Individual(childID)
	if !ok || child.Birth == nil {
		return Finding{}, false
	}
	if child.Birth.IsUnparseable() {
		if d.Config.ReportUnparseable {
			return unparseable(childID, fam.ID, "BIRT", child.Birth.Raw), true
		}
		return Finding{}, false
	}
	born, ok := d.precise(*child.Birth)
	if !ok {
		return Finding{}, false
	}

	f := Finding{
		Subject: fam.ID,
		Related: childID,
		Dates:   []calendar.Date{married, born},
		GapDays: born.Sub(married),
	}
	switch {
	case f.GapDays < d.Config.ShortGapDays:
		f.Kind, f.Limit = KindShortGap, d.Config.ShortGapDays
		switch {
		case f.GapDays < 0:
			f.Severity = SeverityCritical
		case f.GapDays < d.Config.VeryShortGapDays:
			f.Severity = SeverityWarning
		default:
			f.Severity = SeverityInfo
		}
	case d.Config.LongGapDays > 0 && f.GapDays > d.Config.LongGapDays:
		f.Kind, f.Limit, f.Severity = KindLongGap, d.Config.LongGapDays, SeverityInfo
	default:
		return Finding{}, false
	}
	return f, true
}

// individual runs the birth/death consistency checks of one person.
func (d *Detector) individual(ind *gedcom.Individual) []Finding {
	if ind.Birth == nil || ind.Death == nil || !ind.Birth.IsKnown() || !ind.Death.IsKnown() {
		return nil
	}
	born, died := ind.Birth.Start, ind.Death.Start

	// Only certain inversions count: the latest possible death precedes
	// the earliest possible birth.
	if ind.Death.End.Before(ind.Birth.Start) {
		return []Finding{{
			Subject:  ind.ID,
			Kind:     KindDeathBeforeBirth,
			Severity: SeverityCritical,
			Dates:    []calendar.Date{born, died},
		}}
	}

	limit := d.Config.MaxLifespanYears
	if limit <= 0 {
		return nil
	}
	if years := yearsBetween(born, died); years > limit {
		return []Finding{{
			Subject:  ind.ID,
			Kind:     KindImplausibleLifespan,
			Severity: SeverityWarning,
			Dates:    []calendar.Date{born, died},
			Years:    years,
			Limit:    limit,
		}}
	}
	return nil
}

// precise returns the representative date of v when it is at least as
// precise as the configured classification precision.
func (d *Detector) precise(v gedcom.DateValue) (calendar.Date, bool) {
	date, ok := v.Representative()
	if !ok || v.Precision < d.Config.ClassifyPrecision {
		return calendar.Date{}, false
	}
	return date, true
}

func unparseable(subject, related, field, raw string) Finding {
	return Finding{
		Subject:  subject,
		Related:  related,
		Kind:     KindUnparseable,
		Severity: SeverityInfo,
		Field:    field,
		Raw:      raw,
	}
}

// yearsBetween counts completed years from a to b, both read in the
// Julian calendar.
func yearsBetween(a, b calendar.Date) int {
	ay, am, ad := a.In(calendar.Julian).YMD()
	by, bm, bd := b.In(calendar.Julian).YMD()
	years := by - ay
	if bm < am || bm == am && bd < ad {
		years--
	}
	return years
}
