package gedcom

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
)

const sampleGEDCOM = `0 HEAD
1 SOUR TEST
1 GEDC
2 VERS 5.5.1
1 CHAR UTF-8
0 @I1@ INDI
1 NAME Ivan /Petrov/
1 SEX M
1 BIRT
2 DATE 3 MAR 1875
2 PLAC Moscow
1 DEAT
2 DATE ABT 1940
1 FAMS @F1@
0 @I2@ INDI
1 NAME Maria /Ivanova/
1 NAME Masha
1 FAMS @F1@
0 @I3@ INDI
1 NAME Pyotr /Petrov/
1 BIRT
2 DATE 1 OCT 1900
1 BIRT
2 DATE 2 OCT 1900
1 CHR
2 DATE 3 OCT 1900
1 FAMC @F1@
0 @F1@ FAM
1 HUSB @I1@
1 WIFE @I2@
1 CHIL @I3@
1 CHIL @I4@
1 MARR
2 DATE 14 JAN 1900
2 PLAC Tver
2 NOTE 14 JAN is the feast of St Basil
0 @N1@ NOTE some note
0 TRLR
`

func TestExtract_Sample(t *testing.T) {
	doc, stats := Extract(SplitLines(sampleGEDCOM), DefaultExtractOptions())

	assert.Equal(t, 38, stats.Lines)
	assert.Equal(t, 0, stats.SkippedLines)
	assert.Equal(t, 1, stats.SkippedRecords, "the NOTE record")
	assert.Equal(t, 5, stats.Dates)
	assert.Equal(t, 0, stats.UnparseableDates)

	assert.Equal(t, Header{Charset: "UTF-8", Source: "TEST", Version: "5.5.1"}, doc.Header)
	require.Len(t, doc.Individuals, 3)
	require.Len(t, doc.Families, 1)
	assert.Equal(t, "@I1@", doc.Individuals[0].ID)
	assert.Equal(t, "@I3@", doc.Individuals[2].ID)

	ivan, ok := doc.Individual("@I1@")
	require.True(t, ok)
	assert.Equal(t, "Ivan Petrov", ivan.Name)
	require.NotNil(t, ivan.Birth)
	assert.Equal(t, julian(1875, 3, 3), ivan.Birth.Start)
	require.NotNil(t, ivan.Death)
	assert.Equal(t, DateQualified, ivan.Death.Kind)
	assert.Equal(t, []string{"@F1@"}, ivan.FamilySpouse)

	maria, _ := doc.Individual("@I2@")
	assert.Equal(t, "Maria Ivanova", maria.Name, "first NAME wins")
	assert.Nil(t, maria.Birth)

	pyotr, _ := doc.Individual("@I3@")
	require.NotNil(t, pyotr.Birth)
	assert.Equal(t, julian(1900, 10, 1), pyotr.Birth.Start, "first BIRT wins")
	require.NotNil(t, pyotr.Christening)
	assert.Equal(t, julian(1900, 10, 3), pyotr.Christening.Start)
	assert.Equal(t, []string{"@F1@"}, pyotr.FamilyChild)

	fam, ok := doc.Family("@F1@")
	require.True(t, ok)
	assert.Equal(t, []string{"@I1@", "@I2@"}, fam.Spouses())
	assert.Equal(t, []string{"@I3@", "@I4@"}, fam.Children)
	first, ok := fam.FirstChild()
	assert.True(t, ok)
	assert.Equal(t, "@I3@", first)
	require.NotNil(t, fam.Marriage)
	assert.Equal(t, julian(1900, 1, 14), fam.Marriage.Start)
	assert.Equal(t, "Tver", fam.MarriagePlace)

	// Dangling references resolve lazily to nothing.
	_, ok = doc.Individual("@I4@")
	assert.False(t, ok)
	assert.Equal(t, "@I4@", doc.DisplayName("@I4@"))
	assert.Equal(t, "Pyotr Petrov", doc.DisplayName("@I3@"))
}

func TestExtract_Malformed(t *testing.T) {
	lines := []string{
		"0 @I1@ INDI",
		"3 DATE 1 JAN 1900",
		"1 NAME A",
		"garbage line",
		"",
		"0 INDI",
		"1 NAME Orphan",
		"0 @I1@ INDI",
		"1 NAME Dup",
		"0 @F1@ FAM",
		"1 MARR",
		"2 DATE spring 1900",
		"1 CHIL @I1@",
	}

	doc, stats := Extract(lines, DefaultExtractOptions())

	assert.Equal(t, 12, stats.Lines, "blank lines are not counted")
	assert.Equal(t, 2, stats.SkippedLines, "level jump and garbage")
	assert.Equal(t, 2, stats.SkippedRecords, "record without xref and duplicate ID")
	assert.Equal(t, 1, stats.UnparseableDates)

	require.Len(t, doc.Individuals, 1)
	assert.Equal(t, "A", doc.Individuals[0].Name)

	require.Len(t, doc.Families, 1)
	fam := doc.Families[0]
	require.NotNil(t, fam.Marriage)
	assert.True(t, fam.Marriage.IsUnparseable())
	assert.Equal(t, "spring 1900", fam.Marriage.Raw)
	assert.Equal(t, []string{"@I1@"}, fam.Children)
}

func TestExtract_MalformedTagClosesEvent(t *testing.T) {
	tests := []struct {
		name    string
		lines   []string
		records int
	}{
		{
			name: "Event",
			lines: []string{
				"0 @I1@ INDI",
				"1 DEAT",
				"2 PLAC Moscow",
				"1 BI-RT",
				"2 DATE 1 JAN 1850",
			},
		},
		{
			name: "Record",
			lines: []string{
				"0 @I1@ INDI",
				"1 DEAT",
				"0 @I2 INDI",
				"1 DEAT",
				"2 DATE 1 JAN 1850",
				"1 NAME Stray",
			},
			records: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc, stats := Extract(tt.lines, DefaultExtractOptions())

			assert.Equal(t, 1, stats.SkippedLines)
			assert.Equal(t, tt.records, stats.SkippedRecords)
			assert.Equal(t, 0, stats.Dates)
			require.Len(t, doc.Individuals, 1)
			ind := doc.Individuals[0]
			assert.Nil(t, ind.Birth)
			assert.Nil(t, ind.Death, "the date belongs to the unreadable line")
			assert.Empty(t, ind.Name)
		})
	}
}

func TestExtract_Empty(t *testing.T) {
	doc, stats := Extract(nil, DefaultExtractOptions())
	assert.Empty(t, doc.Individuals)
	assert.Empty(t, doc.Families)
	assert.Equal(t, Stats{}, stats)
}

func TestParseLine(t *testing.T) {
	tests := []struct {
		in   string
		want Line
		ok   bool
	}{
		{"0 @I1@ INDI", Line{Level: 0, XRef: "@I1@", Tag: "INDI"}, true},
		{"1 NAME Ivan /Petrov/", Line{Level: 1, Tag: "NAME", Value: "Ivan /Petrov/"}, true},
		{"2 DATE  14 JAN 1900 \r", Line{Level: 2, Tag: "DATE", Value: "14 JAN 1900"}, true},
		{"  1 name x", Line{Level: 1, Tag: "NAME", Value: "x"}, true},
		{"1 CHIL @I3@", Line{Level: 1, Tag: "CHIL", Value: "@I3@"}, true},
		{"1 _MILT yes", Line{Level: 1, Tag: "_MILT", Value: "yes"}, true},
		{"\uFEFF0 HEAD", Line{Level: 0, Tag: "HEAD"}, true},
		{"", Line{}, false},
		{"X HEAD", Line{}, false},
		{"100 TAG", Line{}, false},
		{"-1 TAG", Line{}, false},
		{"0 @I1 INDI", Line{}, false},
		{"1", Line{}, false},
		{"1 NA-ME x", Line{}, false},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := ParseLine(tt.in)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestLeadingLevel(t *testing.T) {
	tests := []struct {
		in    string
		level int
		ok    bool
	}{
		{"1 BI-RT", 1, true},
		{"\uFEFF0 @I1 INDI", 0, true},
		{"  2", 2, true},
		{"garbage line", 0, false},
		{"100 TAG", 0, false},
		{"", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			level, ok := LeadingLevel(tt.in)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.level, level)
		})
	}
}

func TestSplitLines(t *testing.T) {
	assert.Equal(t, []string{"a", "b", "c", ""}, SplitLines("a\r\nb\rc\n"))
}

func TestParseBytes_Charsets(t *testing.T) {
	const body = "0 @I1@ INDI\n1 NAME Иван /Петров/\n0 TRLR\n"

	tests := []struct {
		name    string
		header  string
		enc     encoding.Encoding
		charset string
	}{
		{"UTF-8", "UTF-8", unicode.UTF8, "UTF-8"},
		{"UTF-8 with BOM", "UTF-8", unicode.UTF8BOM, "UTF-8"},
		{"Windows-1251", "WINDOWS-1251", charmap.Windows1251, "WINDOWS-1251"},
		{"ANSI means CP1251", "ANSI", charmap.Windows1251, "WINDOWS-1251"},
		{"CP866", "CP866", charmap.CodePage866, "IBM866"},
		{"KOI8-R", "KOI8-R", charmap.KOI8R, "KOI8-R"},
		{"UTF-16 LE with BOM", "UNICODE", unicode.UTF16(unicode.LittleEndian, unicode.UseBOM), "UNICODE"},
		{"UTF-16 BE without BOM", "UNICODE", unicode.UTF16(unicode.BigEndian, unicode.IgnoreBOM), "UNICODE"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			text := "0 HEAD\n1 CHAR " + tt.header + "\n" + body
			data, err := tt.enc.NewEncoder().Bytes([]byte(text))
			require.NoError(t, err)

			doc, stats, err := ParseBytes(data, DefaultExtractOptions())
			require.NoError(t, err)
			assert.Equal(t, tt.charset, stats.Charset)
			require.Len(t, doc.Individuals, 1)
			assert.Equal(t, "Иван Петров", doc.Individuals[0].Name)
		})
	}
}

func TestDecode_PassThrough(t *testing.T) {
	data := []byte("0 HEAD\n1 CHAR ANSEL\n0 TRLR\n")

	text, charset, err := Decode(data)
	require.NoError(t, err)
	assert.Equal(t, "ANSEL", charset)
	assert.Equal(t, string(data), text)

	text, charset, err = Decode([]byte("0 HEAD\n1 CHAR MACINTOSH\n"))
	require.NoError(t, err)
	assert.Equal(t, "MACINTOSH", charset)
	assert.True(t, strings.HasPrefix(text, "0 HEAD"))
}

func TestDetectCharset_Defaults(t *testing.T) {
	assert.Equal(t, "UTF-8", DetectCharset(nil))
	assert.Equal(t, "UTF-8", DetectCharset([]byte("0 HEAD\n1 SOUR X\n0 @I1@ INDI\n1 CHAR KOI8-R\n")),
		"CHAR outside HEAD is ignored")
	assert.Equal(t, "ASCII", DetectCharset([]byte("0 HEAD\n1 CHAR ascii\n")))
}

func TestParseReader(t *testing.T) {
	doc, stats, err := ParseReader(strings.NewReader(sampleGEDCOM), DefaultExtractOptions())
	require.NoError(t, err)
	assert.Equal(t, "UTF-8", stats.Charset)
	assert.Len(t, doc.Families, 1)
}
