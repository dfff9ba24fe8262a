package report

import (
	"bytes"
	"crypto/sha256"
	"fmt"
	"time"

	"github.com/emersion/go-ical"
	"github.com/tartampluch/go-gedcheck/internal/calendar"
	"github.com/tartampluch/go-gedcheck/internal/config"
	"github.com/tartampluch/go-gedcheck/internal/engine"
)

// newCalendar returns a VCALENDAR with the standard headers set.
func newCalendar(name string) *ical.Calendar {
	cal := ical.NewCalendar()
	cal.Props.SetText(config.PropVersion, config.ICalVersion)
	cal.Props.SetText(config.PropProdid, config.ICalProdid)
	cal.Props.SetText(config.PropXWRCalName, name)
	cal.Props.SetText(config.PropCalScale, config.ICalScale)
	cal.Props.SetText(config.PropMethod, config.ICalMethod)

	// RFC 7986
	refreshProp := ical.NewProp(config.PropRefresh)
	refreshProp.SetDuration(config.DefaultICalRefresh)
	cal.Props.Set(refreshProp)
	return cal
}

// uid derives a UID that stays stable across runs for the same event.
func uid(key string, start calendar.Date) string {
	input := fmt.Sprintf(config.FormatHashInput, key, isoDate(start, calendar.Gregorian), config.UIDSalt)
	hash := sha256.Sum256([]byte(input))
	return fmt.Sprintf(config.FormatUID, fmt.Sprintf("%x", hash[:config.UIDHashLength]), start.In(calendar.Gregorian).Year(), config.ICalDomain)
}

// allDayEvent builds a VEVENT spanning [start, end], both days included.
func allDayEvent(key, summary string, start, end calendar.Date, stamp *ical.Prop) *ical.Event {
	event := ical.NewEvent()
	event.Props.SetText(config.PropUID, uid(key, start))
	event.Props.SetText(config.PropSummary, summary)
	event.Props.SetText(config.PropTransp, config.ICalTransp)
	event.Props.Set(stamp)

	dtStartProp := ical.NewProp(config.PropDTStart)
	dtStartProp.SetDate(start.Time())
	event.Props.Set(dtStartProp)

	// DTEND of an all-day event is exclusive.
	dtEndProp := ical.NewProp(config.PropDTEnd)
	dtEndProp.SetDate(end.AddDays(1).Time())
	event.Props.Set(dtEndProp)
	return event
}

func encode(cal *ical.Calendar) ([]byte, error) {
	if len(cal.Children) == 0 {
		// A valid empty VCALENDAR keeps clients from flagging the feed.
		return []byte(config.StubVCalendar), nil
	}
	var buf bytes.Buffer
	if err := ical.NewEncoder(&buf).Encode(cal); err != nil {
		return nil, fmt.Errorf("%s: %w", config.ErrICalEncode, err)
	}
	return buf.Bytes(), nil
}

// CalendarICS exports Easter and the wedding periods of the Julian years
// [from, to] as all-day events.
func CalendarICS(from, to int, loc *Localizer, now time.Time) ([]byte, error) {
	if from > to {
		return nil, fmt.Errorf("%s: %d > %d", config.ErrYearOrder, from, to)
	}
	cal := newCalendar(loc.GetMsg(config.TKeyCalName))
	stamp := ical.NewProp(config.PropDTStamp)
	stamp.SetDateTime(now.UTC())

	for year := from; year <= to; year++ {
		easter := calendar.Easter(year)
		e := allDayEvent(config.TKeyEvtEaster, loc.GetMsg(config.TKeyEvtEaster), easter, easter, stamp)
		e.Props.SetText(config.PropCategories, config.ICalCategory)
		cal.Children = append(cal.Children, e.Component)

		for _, p := range calendar.PeriodsForYear(year) {
			e := allDayEvent(p.Name.Key(), loc.PeriodName(p.Name), p.Start, p.End, stamp)
			e.Props.SetText(config.PropDescription, loc.PeriodKind(p.Kind))
			e.Props.SetText(config.PropCategories, config.ICalCategory)
			cal.Children = append(cal.Children, e.Component)
		}
	}
	return encode(cal)
}

// FindingsICS exports every dated finding as an all-day event on its
// first date, with the rationale as description.
func FindingsICS(res *engine.Result, loc *Localizer) ([]byte, error) {
	cal := newCalendar(loc.GetMsg(config.TKeyCalFindingsName))
	stamp := ical.NewProp(config.PropDTStamp)
	stamp.SetDateTime(res.GeneratedAt.UTC())

	for _, f := range res.Findings {
		if len(f.Dates) == 0 {
			continue
		}
		summary := loc.Msg(config.TKeyEvtFinding, map[string]any{
			"Kind":    loc.Kind(f.Kind),
			"Subject": Label(res.Document, f.Subject),
		})
		e := allDayEvent(f.Subject+string(f.Kind), summary, f.Dates[0], f.Dates[0], stamp)
		e.Props.SetText(config.PropDescription, f.Rationale)
		e.Props.SetText(config.PropCategories, config.ICalCatFind)
		cal.Children = append(cal.Children, e.Component)
	}
	return encode(cal)
}
