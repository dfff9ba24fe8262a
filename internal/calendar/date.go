package calendar

import (
	"errors"
	"fmt"
	"time"
)

// System identifies the calendar a date was recorded in.
// It only affects display; comparisons use the day count.
type System int

const (
	Gregorian System = iota
	Julian
)

func (s System) String() string {
	if s == Julian {
		return "Julian"
	}
	return "Gregorian"
}

// ErrInvalidDate is returned when a year/month/day triple does not exist
// in the requested calendar (e.g. 29 FEB 1900 Gregorian, 31 APR).
var ErrInvalidDate = errors.New("invalid calendar date")

var monthNames = [...]string{"Jan", "Feb", "Mar", "Apr", "May", "Jun", "Jul", "Aug", "Sep", "Oct", "Nov", "Dec"}

// Date is a Julian Day Number plus the calendar it should be shown in.
type Date struct {
	// Days is the Julian Day Number (JDN). 1 Jan 2000 Gregorian is 2451545.
	Days   int
	System System
}

// NewDate validates y/m/d in the given system and converts it to a day count.
func NewDate(sys System, year, month, day int) (Date, error) {
	if month < 1 || month > 12 || day < 1 || day > DaysInMonth(sys, year, month) {
		return Date{}, fmt.Errorf("%w: %04d-%02d-%02d (%s)", ErrInvalidDate, year, month, day, sys)
	}
	if sys == Julian {
		return Date{Days: JulianToJDN(year, month, day), System: Julian}, nil
	}
	return Date{Days: GregorianToJDN(year, month, day), System: Gregorian}, nil
}

// MustDate is NewDate for constant inputs; it panics on invalid dates.
func MustDate(sys System, year, month, day int) Date {
	d, err := NewDate(sys, year, month, day)
	if err != nil {
		panic(err)
	}
	return d
}

// IsLeap reports whether year is a leap year in sys.
func IsLeap(sys System, year int) bool {
	if sys == Julian {
		return year%4 == 0
	}
	return year%4 == 0 && (year%100 != 0 || year%400 == 0)
}

// DaysInMonth returns the length of month in year for sys.
func DaysInMonth(sys System, year, month int) int {
	switch month {
	case 2:
		if IsLeap(sys, year) {
			return 29
		}
		return 28
	case 4, 6, 9, 11:
		return 30
	default:
		return 31
	}
}

// DaysInYear returns 365 or 366.
func DaysInYear(sys System, year int) int {
	if IsLeap(sys, year) {
		return 366
	}
	return 365
}

// YMD returns the civil date in the date's own system.
func (d Date) YMD() (year, month, day int) {
	if d.System == Julian {
		return JDNToJulian(d.Days)
	}
	return JDNToGregorian(d.Days)
}

// Year is shorthand for the first value of YMD.
func (d Date) Year() int {
	y, _, _ := d.YMD()
	return y
}

// In returns the same day shown in another calendar.
func (d Date) In(sys System) Date {
	return Date{Days: d.Days, System: sys}
}

// AddDays shifts the date, keeping its system.
func (d Date) AddDays(n int) Date {
	return Date{Days: d.Days + n, System: d.System}
}

// Sub returns d - o in days.
func (d Date) Sub(o Date) int { return d.Days - o.Days }

func (d Date) Before(o Date) bool { return d.Days < o.Days }
func (d Date) After(o Date) bool  { return d.Days > o.Days }
func (d Date) Equal(o Date) bool  { return d.Days == o.Days }

// IsZero reports whether d was never set.
func (d Date) IsZero() bool { return d.Days == 0 }

// String renders "14 Jan 1900 (Julian)".
func (d Date) String() string {
	y, m, day := d.YMD()
	return fmt.Sprintf("%d %s %d (%s)", day, monthNames[m-1], y, d.System)
}

// DualString renders the date in both calendars, old style first:
// "14 Jan 1900 O.S. / 26 Jan 1900 N.S.".
func (d Date) DualString() string {
	jy, jm, jd := JDNToJulian(d.Days)
	gy, gm, gd := JDNToGregorian(d.Days)
	return fmt.Sprintf("%d %s %d O.S. / %d %s %d N.S.", jd, monthNames[jm-1], jy, gd, monthNames[gm-1], gy)
}

// Time returns midnight UTC of the civil (Gregorian) day of d.
func (d Date) Time() time.Time {
	y, m, day := JDNToGregorian(d.Days)
	return time.Date(y, time.Month(m), day, 0, 0, 0, 0, time.UTC)
}

// GregorianToJDN converts a proleptic Gregorian date to a Julian Day Number.
func GregorianToJDN(year, month, day int) int {
	a := (14 - month) / 12
	y := year + 4800 - a
	m := month + 12*a - 3
	return day + (153*m+2)/5 + 365*y + y/4 - y/100 + y/400 - 32045
}

// JulianToJDN converts a Julian calendar date to a Julian Day Number.
func JulianToJDN(year, month, day int) int {
	a := (14 - month) / 12
	y := year + 4800 - a
	m := month + 12*a - 3
	return day + (153*m+2)/5 + 365*y + y/4 - 32083
}

// JDNToGregorian is the inverse of GregorianToJDN.
func JDNToGregorian(jdn int) (year, month, day int) {
	a := jdn + 32044
	b := (4*a + 3) / 146097
	c := a - 146097*b/4
	return fromShifted(c, 100*b)
}

// JDNToJulian is the inverse of JulianToJDN.
func JDNToJulian(jdn int) (year, month, day int) {
	return fromShifted(jdn+32082, 0)
}

// fromShifted finishes both inverse conversions once the century term is known.
func fromShifted(c, centuries int) (year, month, day int) {
	d := (4*c + 3) / 1461
	e := c - 1461*d/4
	m := (5*e + 2) / 153
	day = e - (153*m+2)/5 + 1
	month = m + 3 - 12*(m/10)
	year = centuries + d - 4800 + m/10
	return year, month, day
}
