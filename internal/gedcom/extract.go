package gedcom

import (
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/tartampluch/go-gedcheck/internal/config"
)

// ExtractOptions tunes record extraction.
type ExtractOptions struct {
	Dates DateContext
}

// DefaultExtractOptions reads escape-less dates with DefaultDateContext.
func DefaultExtractOptions() ExtractOptions {
	return ExtractOptions{Dates: DefaultDateContext()}
}

// Stats counts what extraction saw and dropped.
type Stats struct {
	Charset          string
	Lines            int
	SkippedLines     int
	SkippedRecords   int
	Dates            int
	UnparseableDates int
}

type recordKind int

const (
	recordNone recordKind = iota
	recordHead
	recordIndividual
	recordFamily
)

// extractor walks the line stream keeping one tag per level, so path[n]
// is the tag of the closest enclosing line at level n.
type extractor struct {
	opts  ExtractOptions
	doc   *Document
	stats Stats

	path []string
	kind recordKind
	ind  *Individual
	fam  *Family
}

// Extract builds a Document from decoded lines. It never fails: lines it
// cannot read and records it cannot use are counted in Stats and skipped.
func Extract(lines []string, opts ExtractOptions) (*Document, Stats) {
	x := &extractor{opts: opts, doc: NewDocument()}
	for i, raw := range lines {
		x.line(i+1, raw)
	}

	slog.Debug(config.MsgExtractDone,
		config.LogKeyComponent, config.CompGedcom,
		slog.Group(config.LogKeyStats,
			slog.Int(config.LogKeyLines, x.stats.Lines),
			slog.Int(config.LogKeySkippedLines, x.stats.SkippedLines),
			slog.Int(config.LogKeySkippedRecs, x.stats.SkippedRecords),
			slog.Int(config.LogKeyIndividuals, len(x.doc.Individuals)),
			slog.Int(config.LogKeyFamilies, len(x.doc.Families)),
		),
	)
	return x.doc, x.stats
}

func (x *extractor) line(n int, raw string) {
	if strings.TrimSpace(raw) == "" {
		return
	}
	x.stats.Lines++

	l, ok := ParseLine(raw)
	// A line may go at most one level deeper than its parent.
	if !ok || l.Level > len(x.path) {
		x.stats.SkippedLines++
		slog.Debug(config.MsgSkippedLine,
			config.LogKeyComponent, config.CompGedcom,
			config.LogKeyLine, n,
		)
		if level, ok := LeadingLevel(raw); ok && level <= len(x.path) {
			x.unknown(level)
		}
		return
	}

	x.path = append(x.path[:l.Level], l.Tag)
	if l.Level == 0 {
		x.open(l)
		return
	}

	switch x.kind {
	case recordHead:
		x.head(l)
	case recordIndividual:
		x.individual(l)
	case recordFamily:
		x.family(l)
	}
}

func (x *extractor) open(l Line) {
	x.kind, x.ind, x.fam = recordNone, nil, nil

	switch {
	case l.Tag == "HEAD":
		x.kind = recordHead
		return
	case l.Tag == "TRLR":
		return
	case l.Tag == "INDI" && l.XRef != "":
		ind := &Individual{ID: l.XRef}
		if x.doc.addIndividual(ind) {
			x.kind, x.ind = recordIndividual, ind
			return
		}
		x.duplicate(l)
	case l.Tag == "FAM" && l.XRef != "":
		fam := &Family{ID: l.XRef}
		if x.doc.addFamily(fam) {
			x.kind, x.fam = recordFamily, fam
			return
		}
		x.duplicate(l)
	}

	x.stats.SkippedRecords++
	slog.Debug(config.MsgSkippedRecord,
		config.LogKeyComponent, config.CompGedcom,
		config.LogKeyTag, l.Tag,
		config.LogKeyXRef, l.XRef,
	)
}

// unknown closes the structures at level and deeper for a line that could
// not be read, so its substructures are not taken for the previous tag's.
func (x *extractor) unknown(level int) {
	x.path = append(x.path[:level], "")
	if level == 0 {
		x.kind, x.ind, x.fam = recordNone, nil, nil
		x.stats.SkippedRecords++
	}
}

func (x *extractor) duplicate(l Line) {
	slog.Warn(config.MsgDuplicateRecord,
		config.LogKeyComponent, config.CompGedcom,
		config.LogKeyTag, l.Tag,
		config.LogKeyXRef, l.XRef,
	)
}

func (x *extractor) head(l Line) {
	switch {
	case l.Level == 1 && l.Tag == "CHAR":
		x.doc.Header.Charset = l.Value
	case l.Level == 1 && l.Tag == "SOUR":
		x.doc.Header.Source = l.Value
	case l.Level == 2 && l.Tag == "VERS" && x.path[1] == "GEDC":
		x.doc.Header.Version = l.Value
	}
}

func (x *extractor) individual(l Line) {
	ind := x.ind
	if l.Level == 1 {
		switch l.Tag {
		case "NAME":
			if ind.Name == "" {
				ind.Name = cleanName(l.Value)
			}
		case "FAMC":
			ind.FamilyChild = appendRef(ind.FamilyChild, l.Value)
		case "FAMS":
			ind.FamilySpouse = appendRef(ind.FamilySpouse, l.Value)
		}
		return
	}
	if l.Level != 2 || l.Tag != "DATE" {
		return
	}
	switch x.path[1] {
	case "BIRT":
		ind.Birth = x.date(ind.Birth, l.Value)
	case "CHR", "BAPM":
		ind.Christening = x.date(ind.Christening, l.Value)
	case "DEAT":
		ind.Death = x.date(ind.Death, l.Value)
	}
}

func (x *extractor) family(l Line) {
	fam := x.fam
	if l.Level == 1 {
		switch l.Tag {
		case "HUSB":
			if fam.Husband == "" {
				fam.Husband = l.Value
			}
		case "WIFE":
			if fam.Wife == "" {
				fam.Wife = l.Value
			}
		case "CHIL":
			fam.Children = appendRef(fam.Children, l.Value)
		}
		return
	}
	if l.Level != 2 || x.path[1] != "MARR" {
		return
	}
	switch l.Tag {
	case "DATE":
		fam.Marriage = x.date(fam.Marriage, l.Value)
	case "PLAC":
		if fam.MarriagePlace == "" {
			fam.MarriagePlace = l.Value
		}
	}
}

// date parses raw unless an earlier event of the same tag already set cur.
func (x *extractor) date(cur *DateValue, raw string) *DateValue {
	if cur != nil {
		return cur
	}
	v := ParseDate(raw, x.opts.Dates)
	x.stats.Dates++
	if v.IsUnparseable() {
		x.stats.UnparseableDates++
	}
	return &v
}

func appendRef(refs []string, v string) []string {
	if v == "" {
		return refs
	}
	return append(refs, v)
}

// cleanName drops the slashes around the surname: "Ivan /Petrov/" becomes
// "Ivan Petrov".
func cleanName(v string) string {
	return strings.Join(strings.Fields(strings.ReplaceAll(v, "/", " ")), " ")
}

// ParseBytes decodes, splits and extracts a GEDCOM file.
func ParseBytes(data []byte, opts ExtractOptions) (*Document, Stats, error) {
	text, charset, err := Decode(data)
	if err != nil {
		return nil, Stats{Charset: charset}, err
	}
	doc, stats := Extract(SplitLines(text), opts)
	stats.Charset = charset
	return doc, stats, nil
}

// ParseReader reads r fully and hands it to ParseBytes.
func ParseReader(r io.Reader, opts ExtractOptions) (*Document, Stats, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, Stats{}, fmt.Errorf("%s: %w", config.ErrSourceRead, err)
	}
	return ParseBytes(data, opts)
}
