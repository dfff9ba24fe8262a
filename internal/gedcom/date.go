package gedcom

import (
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/tartampluch/go-gedcheck/internal/calendar"
)

// DateKind is the shape of a parsed DATE value.
type DateKind int

const (
	DateUnknown DateKind = iota
	DateExact
	DateQualified
	DateRange
)

func (k DateKind) String() string {
	switch k {
	case DateExact:
		return "exact"
	case DateQualified:
		return "qualified"
	case DateRange:
		return "range"
	}
	return "unknown"
}

// Qualifier refines a DateQualified value.
type Qualifier int

const (
	QualNone Qualifier = iota
	Approximate
	Before
	After
)

func (q Qualifier) String() string {
	switch q {
	case Approximate:
		return "approximately"
	case Before:
		return "on or before"
	case After:
		return "on or after"
	}
	return ""
}

// Precision is the granularity a date was written with. Larger is finer.
type Precision int

const (
	PrecisionNone Precision = iota
	PrecisionYear
	PrecisionMonth
	PrecisionDay
)

func (p Precision) String() string {
	switch p {
	case PrecisionYear:
		return "year"
	case PrecisionMonth:
		return "month"
	case PrecisionDay:
		return "day"
	}
	return "none"
}

// ParsePrecision maps "day", "month" or "year" to a Precision.
func ParsePrecision(s string) (Precision, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "day":
		return PrecisionDay, nil
	case "month":
		return PrecisionMonth, nil
	case "year":
		return PrecisionYear, nil
	}
	return PrecisionNone, fmt.Errorf("unknown precision %q", s)
}

// DateValue is a normalized GEDCOM DATE.
//
// Exact values have Start == End. Month- and year-only values are ranges
// spanning the implied month or year. Qualified values keep the span of
// the qualified date in Start/End. Unknown values carry no date, only Raw.
type DateValue struct {
	Kind      DateKind
	Qualifier Qualifier
	Start     calendar.Date
	End       calendar.Date
	Precision Precision
	Raw       string
}

// IsKnown reports whether the value resolved to at least one concrete date.
func (v DateValue) IsKnown() bool { return v.Kind != DateUnknown }

// IsUnparseable reports a value that was written but could not be read.
func (v DateValue) IsUnparseable() bool {
	return v.Kind == DateUnknown && strings.TrimSpace(v.Raw) != ""
}

// Representative returns the earliest concrete bound of the value.
func (v DateValue) Representative() (calendar.Date, bool) {
	if !v.IsKnown() {
		return calendar.Date{}, false
	}
	return v.Start, true
}

// String renders the value for humans, keeping the recorded text.
func (v DateValue) String() string {
	switch v.Kind {
	case DateExact:
		return v.Start.String()
	case DateQualified:
		return fmt.Sprintf("%s %s", v.Qualifier, v.Start)
	case DateRange:
		return fmt.Sprintf("%s .. %s", v.Start, v.End)
	}
	return fmt.Sprintf("unparseable %q", v.Raw)
}

// CalendarMode selects how dates without a calendar escape are read.
type CalendarMode int

const (
	// CalendarAuto reads years before DateContext.GregorianFrom as Julian.
	CalendarAuto CalendarMode = iota
	CalendarJulian
	CalendarGregorian
)

// ParseCalendarMode maps "auto", "julian" or "gregorian".
func ParseCalendarMode(s string) (CalendarMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "auto":
		return CalendarAuto, nil
	case "julian":
		return CalendarJulian, nil
	case "gregorian":
		return CalendarGregorian, nil
	}
	return CalendarAuto, fmt.Errorf("unknown calendar mode %q", s)
}

// DefaultGregorianFrom is the first year assumed Gregorian when no escape
// is given (Russia switched in February 1918).
const DefaultGregorianFrom = 1918

// DateContext carries the calendar assumptions for escape-less dates.
type DateContext struct {
	Mode          CalendarMode
	GregorianFrom int
}

// DefaultDateContext follows pre-revolutionary Russian convention.
func DefaultDateContext() DateContext {
	return DateContext{Mode: CalendarAuto, GregorianFrom: DefaultGregorianFrom}
}

func (c DateContext) systemFor(year int) calendar.System {
	switch c.Mode {
	case CalendarJulian:
		return calendar.Julian
	case CalendarGregorian:
		return calendar.Gregorian
	}
	from := c.GregorianFrom
	if from == 0 {
		from = DefaultGregorianFrom
	}
	if year < from {
		return calendar.Julian
	}
	return calendar.Gregorian
}

const (
	escJulian    = "@#DJULIAN@"
	escGregorian = "@#DGREGORIAN@"
	escFrench    = "@#DFRENCH R@"
)

var months = map[string]int{
	"JAN": 1, "FEB": 2, "MAR": 3, "APR": 4, "MAY": 5, "JUN": 6,
	"JUL": 7, "AUG": 8, "SEP": 9, "OCT": 10, "NOV": 11, "DEC": 12,
}

var monthAbbr = [...]string{"JAN", "FEB", "MAR", "APR", "MAY", "JUN", "JUL", "AUG", "SEP", "OCT", "NOV", "DEC"}

// ParseDate reads a raw DATE value. It never fails: anything it cannot
// read becomes a DateUnknown value that keeps the raw text.
func ParseDate(raw string, ctx DateContext) DateValue {
	unknown := DateValue{Kind: DateUnknown, Raw: raw}

	s := strings.ToUpper(strings.TrimSpace(raw))
	if s == "" {
		return unknown
	}
	// Interpreted dates: "INT 5 MAY 1890 (fifth of May)".
	if strings.HasPrefix(s, "INT ") {
		s = strings.TrimSpace(s[len("INT "):])
		if i := strings.IndexByte(s, '('); i >= 0 {
			s = strings.TrimSpace(s[:i])
		}
	}
	if strings.HasPrefix(s, "(") {
		return unknown
	}
	s = strings.ReplaceAll(s, escFrench, "@#DFRENCH_R@")

	p := dateParser{tokens: strings.Fields(s), ctx: ctx}
	v, ok := p.parse()
	if !ok || p.pos != len(p.tokens) {
		return unknown
	}
	v.Raw = raw
	return v
}

// dateParser walks the tokens of one DATE value. An escape token applies
// to every following bound until another escape appears.
type dateParser struct {
	tokens []string
	pos    int
	ctx    DateContext
	sys    *calendar.System
}

func (p *dateParser) peek() string {
	if p.pos < len(p.tokens) {
		return p.tokens[p.pos]
	}
	return ""
}

func (p *dateParser) next() string {
	t := p.peek()
	if t != "" {
		p.pos++
	}
	return t
}

func (p *dateParser) parse() (DateValue, bool) {
	if !p.escape() {
		return DateValue{}, false
	}
	switch p.peek() {
	case "ABT", "EST", "CAL":
		p.next()
		return p.qualified(Approximate)
	case "BEF":
		p.next()
		return p.qualified(Before)
	case "AFT":
		p.next()
		return p.qualified(After)
	case "BET":
		p.next()
		return p.between("AND")
	case "FROM":
		p.next()
		if !slices.Contains(p.tokens[p.pos:], "TO") {
			return p.qualified(After)
		}
		return p.between("TO")
	case "TO":
		p.next()
		return p.qualified(Before)
	}

	sp, ok := p.single()
	if !ok {
		return DateValue{}, false
	}
	kind := DateExact
	if sp.precision != PrecisionDay {
		kind = DateRange
	}
	return DateValue{Kind: kind, Start: sp.start, End: sp.end, Precision: sp.precision}, true
}

func (p *dateParser) qualified(q Qualifier) (DateValue, bool) {
	sp, ok := p.single()
	if !ok {
		return DateValue{}, false
	}
	return DateValue{Kind: DateQualified, Qualifier: q, Start: sp.start, End: sp.end, Precision: sp.precision}, true
}

func (p *dateParser) between(sep string) (DateValue, bool) {
	lo, ok := p.single()
	if !ok || p.next() != sep {
		return DateValue{}, false
	}
	hi, ok := p.single()
	if !ok || hi.end.Before(lo.start) {
		return DateValue{}, false
	}
	return DateValue{Kind: DateRange, Start: lo.start, End: hi.end, Precision: min(lo.precision, hi.precision)}, true
}

// escape consumes an optional calendar escape. Calendars other than
// Julian and Gregorian are rejected.
func (p *dateParser) escape() bool {
	t := p.peek()
	if !strings.HasPrefix(t, "@#") {
		return true
	}
	p.next()
	switch t {
	case escJulian:
		sys := calendar.Julian
		p.sys = &sys
	case escGregorian:
		sys := calendar.Gregorian
		p.sys = &sys
	default:
		return false
	}
	return true
}

type span struct {
	start, end calendar.Date
	precision  Precision
}

// single reads "[escape] [[day] month] year".
func (p *dateParser) single() (span, bool) {
	if !p.escape() {
		return span{}, false
	}

	var parts []string
	for len(parts) < 3 {
		t := p.peek()
		if t == "" || t == "AND" || t == "TO" {
			break
		}
		parts = append(parts, p.next())
		if isYear(t) {
			break
		}
	}
	if len(parts) == 0 || !isYear(parts[len(parts)-1]) {
		return span{}, false
	}
	if p.peek() == "B.C." || p.peek() == "BC" {
		return span{}, false
	}

	year, ok := parseYear(parts[len(parts)-1])
	if !ok {
		return span{}, false
	}
	sys := p.ctx.systemFor(year)
	if p.sys != nil {
		sys = *p.sys
	}

	switch len(parts) {
	case 1:
		start, err1 := calendar.NewDate(sys, year, 1, 1)
		end, err2 := calendar.NewDate(sys, year, 12, 31)
		return span{start, end, PrecisionYear}, err1 == nil && err2 == nil
	case 2:
		m, ok := months[parts[0]]
		if !ok {
			return span{}, false
		}
		start, err1 := calendar.NewDate(sys, year, m, 1)
		end, err2 := calendar.NewDate(sys, year, m, calendar.DaysInMonth(sys, year, m))
		return span{start, end, PrecisionMonth}, err1 == nil && err2 == nil
	default:
		m, ok := months[parts[1]]
		if !ok {
			return span{}, false
		}
		day, err := strconv.Atoi(parts[0])
		if err != nil || len(parts[0]) > 2 {
			return span{}, false
		}
		d, err := calendar.NewDate(sys, year, m, day)
		if err != nil {
			return span{}, false
		}
		return span{d, d, PrecisionDay}, true
	}
}

// isYear accepts "1893" and dual years such as "1749/50".
func isYear(t string) bool {
	_, ok := parseYear(t)
	return ok
}

// parseYear reads a year of 3-4 digits. Dual years ("1749/50") resolve to
// the new-style year.
func parseYear(t string) (int, bool) {
	base, dual, isDual := strings.Cut(t, "/")
	if len(base) < 3 || len(base) > 4 || !allDigits(base) {
		return 0, false
	}
	year, _ := strconv.Atoi(base)
	if year == 0 {
		return 0, false
	}
	if !isDual {
		return year, true
	}
	if len(dual) != 2 || !allDigits(dual) {
		return 0, false
	}
	next, _ := strconv.Atoi(dual)
	if next != (year+1)%100 {
		return 0, false
	}
	return year + 1, true
}

func allDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return s != ""
}

// FormatDate writes d as a GEDCOM DATE value. The calendar escape is
// omitted only when ctx would infer the same calendar, so that
// ParseDate(FormatDate(d, ctx), ctx) yields d again.
func FormatDate(d calendar.Date, ctx DateContext) string {
	y, m, day := d.YMD()
	text := fmt.Sprintf("%d %s %d", day, monthAbbr[m-1], y)
	if ctx.systemFor(y) == d.System {
		return text
	}
	if d.System == calendar.Julian {
		return escJulian + " " + text
	}
	return escGregorian + " " + text
}
