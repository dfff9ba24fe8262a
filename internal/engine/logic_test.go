package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/tartampluch/go-gedcheck/internal/calendar"
	"github.com/tartampluch/go-gedcheck/internal/classifier"
)

// TestYearsBetween verifies completed-year counting around anniversaries.
func TestYearsBetween(t *testing.T) {
	j := func(y, m, d int) calendar.Date { return calendar.MustDate(calendar.Julian, y, m, d) }

	tests := []struct {
		name string
		a, b calendar.Date
		want int
	}{
		{"Same day", j(1850, 5, 5), j(1850, 5, 5), 0},
		{"Day before anniversary", j(1850, 5, 5), j(1900, 5, 4), 49},
		{"Anniversary", j(1850, 5, 5), j(1900, 5, 5), 50},
		{"Earlier month", j(1850, 5, 5), j(1900, 4, 30), 49},
		{"Reversed", j(1900, 1, 1), j(1850, 1, 1), -50},
		// 1 Jan 1900 Gregorian is 20 Dec 1899 Julian.
		{"Mixed systems", j(1800, 1, 1), calendar.MustDate(calendar.Gregorian, 1900, 1, 1), 99},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, yearsBetween(tt.a, tt.b))
		})
	}
}

// TestSummaryCount checks which classifier verdicts count as classified.
func TestSummaryCount(t *testing.T) {
	var s Summary
	s.count(marriageOutcome{})
	s.count(marriageOutcome{recorded: true, status: classifier.Allowed})
	s.count(marriageOutcome{recorded: true, status: classifier.Allowed})
	s.count(marriageOutcome{recorded: true, status: classifier.Atypical})
	s.count(marriageOutcome{recorded: true, status: classifier.Forbidden})
	s.count(marriageOutcome{recorded: true, status: classifier.Indeterminate})

	assert.Equal(t, Summary{Marriages: 4, Typical: 2, Atypical: 1, Forbidden: 1, Skipped: 1}, s)
	assert.Equal(t, 50, s.Share(s.Typical))
	assert.Equal(t, 25, s.Share(s.Forbidden))
}

// TestDefaultRationale covers every finding kind.
func TestDefaultRationale(t *testing.T) {
	married := calendar.MustDate(calendar.Julian, 1900, 1, 14)
	born := calendar.MustDate(calendar.Julian, 1900, 3, 14)
	lent := calendar.PeriodsForYear(1900)[1]

	tests := []struct {
		name     string
		finding  Finding
		contains []string
	}{
		{
			"Forbidden",
			Finding{Kind: KindForbiddenMarriage, Dates: []calendar.Date{calendar.MustDate(calendar.Julian, 1900, 3, 10)}, Period: &lent},
			[]string{"10 Mar 1900 O.S.", "22 Mar 1900 N.S.", "Great Lent", "21 Feb 1900 O.S."},
		},
		{
			"Atypical",
			Finding{Kind: KindAtypicalSeason, Dates: []calendar.Date{married}, Gap: &calendar.Gap{Reason: calendar.Christmastide}},
			[]string{"14 Jan 1900 O.S.", calendar.Christmastide.String()},
		},
		{
			"Short gap",
			Finding{Kind: KindShortGap, Dates: []calendar.Date{married, born}, GapDays: 59},
			[]string{"59 days after", "14 Mar 1900 O.S."},
		},
		{
			"Negative gap",
			Finding{Kind: KindShortGap, Dates: []calendar.Date{married, born}, GapDays: -13},
			[]string{"13 days before"},
		},
		{
			"Long gap",
			Finding{Kind: KindLongGap, Dates: []calendar.Date{married, born}, GapDays: 1142},
			[]string{"1142 days after"},
		},
		{
			"Unparseable",
			Finding{Kind: KindUnparseable, Field: "MARR", Raw: "spring"},
			[]string{"MARR", `"spring"`},
		},
		{
			"Death before birth",
			Finding{Kind: KindDeathBeforeBirth, Dates: []calendar.Date{born, married}},
			[]string{"Death (14 Jan 1900 O.S.", "birth (14 Mar 1900 O.S."},
		},
		{
			"Lifespan",
			Finding{Kind: KindImplausibleLifespan, Years: 125, Limit: 120},
			[]string{"125", "120"},
		},
		{
			"Missing dates",
			Finding{Kind: KindShortGap, GapDays: 10},
			[]string{"Unknown"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := DefaultRationale(tt.finding)
			for _, want := range tt.contains {
				assert.Contains(t, got, want)
			}
		})
	}

	assert.Equal(t, "SOMETHING", DefaultRationale(Finding{Kind: "SOMETHING"}))
}
