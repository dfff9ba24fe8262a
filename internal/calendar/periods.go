package calendar

// PeriodName enumerates the liturgical periods relevant to weddings.
type PeriodName int

const (
	WinterSeason PeriodName = iota + 1
	GreatLent
	SpringSeason
	PetersFast
	AssumptionFast
	AutumnSeason
	ChristmasFast
)

var periodNames = map[PeriodName]string{
	WinterSeason:   "Winter season",
	GreatLent:      "Great Lent",
	SpringSeason:   "Krasnaya Gorka to Trinity",
	PetersFast:     "Peter's Fast",
	AssumptionFast: "Assumption Fast",
	AutumnSeason:   "Autumn season",
	ChristmasFast:  "Christmas Fast",
}

var periodKeys = map[PeriodName]string{
	WinterSeason:   "period_winter_season",
	GreatLent:      "period_great_lent",
	SpringSeason:   "period_spring_season",
	PetersFast:     "period_peters_fast",
	AssumptionFast: "period_assumption_fast",
	AutumnSeason:   "period_autumn_season",
	ChristmasFast:  "period_christmas_fast",
}

func (n PeriodName) String() string {
	if s, ok := periodNames[n]; ok {
		return s
	}
	return "unknown period"
}

// Key is the translation key of the period name.
func (n PeriodName) Key() string { return periodKeys[n] }

// Kind tells whether a period allows weddings or forbids them.
type Kind int

const (
	AllowedSeason Kind = iota + 1
	ForbiddenFast
)

func (k Kind) String() string {
	switch k {
	case AllowedSeason:
		return "ALLOWED_SEASON"
	case ForbiddenFast:
		return "FORBIDDEN_FAST"
	}
	return "UNKNOWN"
}

// Period is an inclusive span of days with a liturgical meaning.
type Period struct {
	Name  PeriodName
	Start Date
	End   Date
	Kind  Kind
	// Year is the Julian civil year the period was derived for.
	Year int
}

// Contains reports whether d falls inside the period, both ends included.
func (p Period) Contains(d Date) bool {
	return d.Days >= p.Start.Days && d.Days <= p.End.Days
}

// Len returns the number of days covered.
func (p Period) Len() int { return p.End.Days - p.Start.Days + 1 }

// Fixed feast days, Julian calendar.
const (
	theophanyMonth, theophanyDay     = 1, 6
	petersFeastMonth, petersFeastDay = 6, 29
	assumptionMonth                  = 8
	assumptionFirstDay               = 1
	assumptionLastDay                = 14
	pokrovMonth, pokrovDay           = 10, 1
	philipsEveMonth, philipsEveDay   = 11, 14
	philipsFastMonth, philipsFastDay = 11, 15
	nativityEveMonth, nativityEveDay = 12, 24
)

// Offsets from Easter Sunday, in days.
const (
	greatLentDays       = 48
	krasnayaGorkaOffset = 7
	trinityOffset       = 49
	petersFastOffset    = trinityOffset + 1
)

// PeriodsForYear derives every wedding season and fast of the Julian
// civil year, ordered by start date. Boundaries are inclusive and no day
// belongs to two periods.
func PeriodsForYear(year int) []Period {
	easter := Easter(year)
	jd := func(m, d int) Date { return Date{Days: JulianToJDN(year, m, d), System: Julian} }

	lentStart := easter.AddDays(-greatLentDays)

	return []Period{
		{Name: WinterSeason, Start: jd(theophanyMonth, theophanyDay), End: lentStart.AddDays(-1), Kind: AllowedSeason, Year: year},
		{Name: GreatLent, Start: lentStart, End: easter.AddDays(-1), Kind: ForbiddenFast, Year: year},
		{Name: SpringSeason, Start: easter.AddDays(krasnayaGorkaOffset), End: easter.AddDays(trinityOffset), Kind: AllowedSeason, Year: year},
		{Name: PetersFast, Start: easter.AddDays(petersFastOffset), End: jd(petersFeastMonth, petersFeastDay), Kind: ForbiddenFast, Year: year},
		{Name: AssumptionFast, Start: jd(assumptionMonth, assumptionFirstDay), End: jd(assumptionMonth, assumptionLastDay), Kind: ForbiddenFast, Year: year},
		{Name: AutumnSeason, Start: jd(pokrovMonth, pokrovDay), End: jd(philipsEveMonth, philipsEveDay), Kind: AllowedSeason, Year: year},
		{Name: ChristmasFast, Start: jd(philipsFastMonth, philipsFastDay), End: jd(nativityEveMonth, nativityEveDay), Kind: ForbiddenFast, Year: year},
	}
}

// GapReason describes why an unnamed stretch of the year is not a
// wedding season although no fast forbids it.
type GapReason int

const (
	Christmastide GapReason = iota + 1
	BrightWeek
	SummerFieldwork
	Harvest
)

var gapNames = map[GapReason]string{
	Christmastide:   "Christmastide",
	BrightWeek:      "Bright Week",
	SummerFieldwork: "summer field work",
	Harvest:         "harvest season",
}

var gapKeys = map[GapReason]string{
	Christmastide:   "gap_christmastide",
	BrightWeek:      "gap_bright_week",
	SummerFieldwork: "gap_summer_fieldwork",
	Harvest:         "gap_harvest",
}

func (r GapReason) String() string {
	if s, ok := gapNames[r]; ok {
		return s
	}
	return "outside the wedding seasons"
}

// Key is the translation key of the gap reason.
func (r GapReason) Key() string { return gapKeys[r] }

// Gap is an inclusive span of the year covered by no Period.
type Gap struct {
	Reason GapReason
	Start  Date
	End    Date
	Year   int
}

// Contains reports whether d falls inside the gap, both ends included.
func (g Gap) Contains(d Date) bool {
	return d.Days >= g.Start.Days && d.Days <= g.End.Days
}

// Len returns the number of days covered.
func (g Gap) Len() int { return g.End.Days - g.Start.Days + 1 }

// GapsForYear returns the complement of PeriodsForYear inside the Julian
// year (1 Jan .. 31 Dec). Together the periods and gaps cover every day
// of the year exactly once.
func GapsForYear(year int) []Gap {
	periods := PeriodsForYear(year)
	first := JulianToJDN(year, 1, 1)
	last := JulianToJDN(year, 12, 31)

	var gaps []Gap
	cursor := first
	var prev PeriodName
	for _, p := range periods {
		if p.Start.Days > cursor {
			gaps = append(gaps, Gap{
				Reason: reasonAfter(prev),
				Start:  Date{Days: cursor, System: Julian},
				End:    Date{Days: p.Start.Days - 1, System: Julian},
				Year:   year,
			})
		}
		cursor = p.End.Days + 1
		prev = p.Name
	}
	if cursor <= last {
		gaps = append(gaps, Gap{
			Reason: reasonAfter(prev),
			Start:  Date{Days: cursor, System: Julian},
			End:    Date{Days: last, System: Julian},
			Year:   year,
		})
	}
	return gaps
}

// reasonAfter names a gap by the period it follows.
func reasonAfter(prev PeriodName) GapReason {
	switch prev {
	case GreatLent:
		return BrightWeek
	case PetersFast:
		return SummerFieldwork
	case AssumptionFast:
		return Harvest
	default:
		return Christmastide
	}
}
