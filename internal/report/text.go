package report

import (
	"bytes"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/tartampluch/go-gedcheck/internal/calendar"
	"github.com/tartampluch/go-gedcheck/internal/config"
	"github.com/tartampluch/go-gedcheck/internal/engine"
	"github.com/tartampluch/go-gedcheck/internal/gedcom"
)

// Label renders a record reference for humans: the ID followed by the
// person's name, or by the spouses' names for a family.
func Label(doc *gedcom.Document, id string) string {
	if doc == nil || id == "" {
		return id
	}
	if fam, ok := doc.Family(id); ok {
		var names []string
		for _, s := range fam.Spouses() {
			names = append(names, doc.DisplayName(s))
		}
		if len(names) == 0 {
			return id
		}
		return id + " " + strings.Join(names, " & ")
	}
	if name := doc.DisplayName(id); name != id {
		return id + " " + name
	}
	return id
}

// WriteText renders res as a plain text report: header, statistics,
// marriage summary, then one block per finding.
func WriteText(w io.Writer, res *engine.Result, loc *Localizer) error {
	var buf bytes.Buffer
	sum := res.Summary

	fmt.Fprintln(&buf, loc.Msg(config.TKeyRepTitle, map[string]any{"Source": res.Source}))
	fmt.Fprintln(&buf, loc.Msg(config.TKeyRepCharset, map[string]any{"Charset": res.Stats.Charset}))
	fmt.Fprintln(&buf, loc.Msg(config.TKeyRepStats, map[string]any{
		"Individuals": sum.Individuals,
		"Families":    sum.Families,
		"Lines":       res.Stats.Lines,
		"Skipped":     res.Stats.SkippedLines,
	}))
	fmt.Fprintln(&buf, loc.Msg(config.TKeyRepSummary, map[string]any{
		"Analyzed":  sum.Marriages,
		"Typical":   sum.Share(sum.Typical),
		"Atypical":  sum.Share(sum.Atypical),
		"Forbidden": sum.Share(sum.Forbidden),
	}))
	fmt.Fprintln(&buf)

	if len(res.Findings) == 0 {
		fmt.Fprintln(&buf, loc.GetMsg(config.TKeyRepNoFindings))
	} else {
		fmt.Fprintln(&buf, loc.Msg(config.TKeyRepFindings, map[string]any{"Count": len(res.Findings)}))
		for _, f := range res.Findings {
			fmt.Fprintf(&buf, "\n[%s] %s: %s", loc.Severity(f.Severity), loc.Kind(f.Kind), Label(res.Document, f.Subject))
			if f.Related != "" {
				fmt.Fprintf(&buf, " / %s", Label(res.Document, f.Related))
			}
			fmt.Fprintf(&buf, "\n    %s\n", f.Rationale)
		}
	}

	if _, err := w.Write(buf.Bytes()); err != nil {
		return fmt.Errorf("%s: %w", config.ErrReportWrite, err)
	}
	return nil
}

// WriteCalendarText prints Easter, the wedding periods and the remaining
// gaps of every Julian year in [from, to].
func WriteCalendarText(w io.Writer, from, to int, loc *Localizer) error {
	var buf bytes.Buffer
	tw := tabwriter.NewWriter(&buf, 0, 0, 2, ' ', 0)

	for year := from; year <= to; year++ {
		if year > from {
			fmt.Fprintln(tw)
		}
		fmt.Fprintln(tw, loc.Msg(config.TKeyRepEaster, map[string]any{
			"Year": year,
			"Date": calendar.Easter(year).DualString(),
		}))
		fmt.Fprintln(tw, loc.Msg(config.TKeyRepPeriods, map[string]any{"Year": year}))
		for _, p := range calendar.PeriodsForYear(year) {
			fmt.Fprintf(tw, "  %s\t%s\t%s\t%s\n",
				loc.PeriodName(p.Name), p.Start.DualString(), p.End.DualString(), loc.PeriodKind(p.Kind))
		}
		fmt.Fprintln(tw, loc.GetMsg(config.TKeyRepGaps))
		for _, g := range calendar.GapsForYear(year) {
			fmt.Fprintf(tw, "  %s\t%s\t%s\t\n", loc.GapReason(g.Reason), g.Start.DualString(), g.End.DualString())
		}
	}

	if err := tw.Flush(); err != nil {
		return fmt.Errorf("%s: %w", config.ErrReportWrite, err)
	}
	if _, err := w.Write(buf.Bytes()); err != nil {
		return fmt.Errorf("%s: %w", config.ErrReportWrite, err)
	}
	return nil
}
