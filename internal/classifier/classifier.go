// Package classifier places a date within the liturgical year: inside a
// fast, inside a wedding season, or in one of the gaps between them.
package classifier

import (
	"github.com/tartampluch/go-gedcheck/internal/calendar"
	"github.com/tartampluch/go-gedcheck/internal/gedcom"
)

// Status is the verdict for one date.
type Status int

const (
	Indeterminate Status = iota
	Allowed
	Forbidden
	Atypical
)

func (s Status) String() string {
	switch s {
	case Allowed:
		return "ALLOWED"
	case Forbidden:
		return "FORBIDDEN"
	case Atypical:
		return "ATYPICAL"
	}
	return "INDETERMINATE"
}

// Result describes where a date fell. Period is set for Allowed and
// Forbidden, Gap for Atypical.
type Result struct {
	Status Status
	Date   calendar.Date
	Period *calendar.Period
	Gap    *calendar.Gap
	Easter calendar.Date
}

// Classifier classifies dates against the periods of their Julian year.
// Periods may be nil, in which case every call recomputes the year.
type Classifier struct {
	Periods *calendar.Cache
}

// New returns a Classifier with its own period cache.
func New() *Classifier {
	return &Classifier{Periods: calendar.NewCache()}
}

// Classify classifies the earliest concrete bound of v. Unknown values are
// Indeterminate.
func (c *Classifier) Classify(v gedcom.DateValue) Result {
	d, ok := v.Representative()
	if !ok {
		return Result{Status: Indeterminate}
	}
	return c.ClassifyDate(d)
}

// ClassifyDate classifies a single day. Fasts win over seasons.
func (c *Classifier) ClassifyDate(d calendar.Date) Result {
	jd := d.In(calendar.Julian)
	year, month, _ := jd.YMD()
	res := Result{Date: d, Easter: calendar.Easter(year)}

	// Neighbouring years are consulted near the turn of the year, so that a
	// period crossing the boundary would still be found.
	years := []int{year}
	if month == 1 {
		years = append(years, year-1)
	}
	if month >= 11 {
		years = append(years, year+1)
	}

	var periods []calendar.Period
	for _, y := range years {
		periods = append(periods, c.periods(y)...)
	}

	for _, kind := range []calendar.Kind{calendar.ForbiddenFast, calendar.AllowedSeason} {
		for i := range periods {
			if periods[i].Kind == kind && periods[i].Contains(jd) {
				res.Period = &periods[i]
				res.Status = Allowed
				if kind == calendar.ForbiddenFast {
					res.Status = Forbidden
				}
				return res
			}
		}
	}

	for _, g := range c.gaps(year) {
		if g.Contains(jd) {
			res.Status = Atypical
			res.Gap = &g
			return res
		}
	}
	// Unreachable while periods and gaps tile the year.
	return Result{Status: Indeterminate, Date: d, Easter: res.Easter}
}

func (c *Classifier) periods(year int) []calendar.Period {
	if c.Periods == nil {
		return calendar.PeriodsForYear(year)
	}
	return c.Periods.Periods(year)
}

func (c *Classifier) gaps(year int) []calendar.Gap {
	if c.Periods == nil {
		return calendar.GapsForYear(year)
	}
	return c.Periods.Gaps(year)
}
