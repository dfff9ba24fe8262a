package main

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tartampluch/go-gedcheck/internal/config"
	"github.com/tartampluch/go-gedcheck/internal/engine"
	"github.com/tartampluch/go-gedcheck/internal/report"
	"github.com/tartampluch/go-gedcheck/internal/server"
	"github.com/zalando/go-keyring"
)

const sampleTree = `0 HEAD
1 CHAR UTF-8
0 @I1@ INDI
1 NAME Ivan /Petrov/
1 FAMS @F1@
0 @I2@ INDI
1 NAME Maria /Ivanova/
1 FAMS @F1@
0 @I3@ INDI
1 NAME Pyotr /Petrov/
1 BIRT
2 DATE 14 MAR 1900
1 FAMC @F1@
0 @F1@ FAM
1 HUSB @I1@
1 WIFE @I2@
1 CHIL @I3@
1 MARR
2 DATE 14 JAN 1900
0 @F2@ FAM
1 MARR
2 DATE 10 MAR 1900
0 TRLR
`

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), config.FilePermUserRW))
	return path
}

// execute runs the command line with an absent settings file unless args
// name one, and returns what was written to stdout.
func execute(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	return executeWith(t, &cli{}, stdin, args...)
}

func executeWith(t *testing.T, a *cli, stdin string, args ...string) (string, error) {
	t.Helper()
	keyring.MockInit()
	t.Cleanup(a.close)

	root := newRootCmd(a)
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(io.Discard)
	root.SetIn(strings.NewReader(stdin))

	full := args
	if !hasConfigFlag(args) {
		full = append([]string{"--" + config.FlagConfig, filepath.Join(t.TempDir(), "absent.toml")}, args...)
	}
	root.SetArgs(full)

	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func hasConfigFlag(args []string) bool {
	for _, arg := range args {
		if arg == "--"+config.FlagConfig {
			return true
		}
	}
	return false
}

func TestVersion(t *testing.T) {
	out, err := execute(t, "", "--"+config.FlagVersion)

	require.NoError(t, err)
	assert.Contains(t, out, config.AppName)
	assert.Contains(t, out, config.Version)
}

// -----------------------------------------------------------------------------
// analyze
// -----------------------------------------------------------------------------

func TestAnalyze_Text(t *testing.T) {
	out, err := execute(t, "", "analyze", writeFile(t, "tree.ged", sampleTree))
	require.NoError(t, err)

	loc, err := report.NewLocalizer("en")
	require.NoError(t, err)
	assert.Contains(t, out, loc.Kind(engine.KindForbiddenMarriage))
	assert.Contains(t, out, loc.Kind(engine.KindShortGap))
	assert.Contains(t, out, "Ivan Petrov & Maria Ivanova")
}

func TestAnalyze_JSON(t *testing.T) {
	out, err := execute(t, "", "analyze", "--"+config.FlagFormat, config.FormatJSON, writeFile(t, "tree.ged", sampleTree))
	require.NoError(t, err)

	var doc struct {
		Findings []struct {
			Kind     string `json:"kind"`
			Severity string `json:"severity"`
		} `json:"findings"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &doc))
	require.Len(t, doc.Findings, 2)
	assert.Equal(t, string(engine.KindShortGap), doc.Findings[0].Kind)
	assert.Equal(t, "warning", doc.Findings[0].Severity)
	assert.Equal(t, string(engine.KindForbiddenMarriage), doc.Findings[1].Kind)
	assert.Equal(t, "critical", doc.Findings[1].Severity)
}

func TestAnalyze_ICS(t *testing.T) {
	out, err := execute(t, "", "analyze", "--"+config.FlagFormat, config.FormatICS, writeFile(t, "tree.ged", sampleTree))

	require.NoError(t, err)
	assert.Contains(t, out, "BEGIN:VCALENDAR")
	assert.Contains(t, out, "DTSTART;VALUE=DATE:19000322")
}

func TestAnalyze_BeforeYearFlag(t *testing.T) {
	out, err := execute(t, "", "analyze", "--"+config.FlagFormat, config.FormatJSON,
		"--"+config.FlagBefore, "1900", writeFile(t, "tree.ged", sampleTree))
	require.NoError(t, err)

	var doc struct {
		Findings []json.RawMessage `json:"findings"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &doc))
	assert.Empty(t, doc.Findings)
}

func TestAnalyze_OutputFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "report.txt")
	out, err := execute(t, "", "analyze", "-o", path, writeFile(t, "tree.ged", sampleTree))

	require.NoError(t, err)
	assert.Empty(t, out)
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "@F2@")
}

func TestAnalyze_FailOn(t *testing.T) {
	tree := writeFile(t, "tree.ged", sampleTree)

	_, err := execute(t, "", "analyze", "--"+config.FlagFailOn, "critical", tree)
	assert.ErrorIs(t, err, errFindingsFound)

	_, err = execute(t, "", "analyze", "--"+config.FlagFailOn, "critical", "--"+config.FlagBefore, "1900", tree)
	assert.NoError(t, err)
}

func TestAnalyze_SettingsFile(t *testing.T) {
	settings := writeFile(t, config.SettingsFileName, "[report]\nformat = \"json\"\n")
	out, err := execute(t, "", "--"+config.FlagConfig, settings, "analyze", writeFile(t, "tree.ged", sampleTree))

	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(strings.TrimSpace(out), "{"))
}

func TestAnalyze_FlagOverridesSettingsFile(t *testing.T) {
	settings := writeFile(t, config.SettingsFileName, "[report]\nformat = \"json\"\n")
	out, err := execute(t, "", "--"+config.FlagConfig, settings,
		"analyze", "--"+config.FlagFormat, config.FormatText, writeFile(t, "tree.ged", sampleTree))

	require.NoError(t, err)
	assert.False(t, strings.HasPrefix(strings.TrimSpace(out), "{"))
}

func TestAnalyze_Precision(t *testing.T) {
	tree := writeFile(t, "tree.ged", "0 @F1@ FAM\n1 MARR\n2 DATE MAR 1900\n0 TRLR\n")

	out, err := execute(t, "", "analyze", tree, "--"+config.FlagFormat, config.FormatJSON)
	require.NoError(t, err)
	assert.Contains(t, out, string(engine.KindForbiddenMarriage))
	assert.Contains(t, out, `"period": "Great Lent"`)

	out, err = execute(t, "", "analyze", tree, "--"+config.FlagFormat, config.FormatJSON, "--"+config.FlagPrecision, "day")
	require.NoError(t, err)
	assert.NotContains(t, out, string(engine.KindForbiddenMarriage))
}

func TestAnalyze_Errors(t *testing.T) {
	tree := writeFile(t, "tree.ged", sampleTree)

	tests := []struct {
		name string
		args []string
		want string
	}{
		{"No source", []string{"analyze"}, config.ErrLocalPathEmpty},
		{"Missing file", []string{"analyze", filepath.Join(t.TempDir(), "absent.ged")}, config.ErrSourceRead},
		{"Bad format", []string{"analyze", "--" + config.FlagFormat, "pdf", tree}, config.ErrSettingsInvalid},
		{"Bad language", []string{"analyze", "--" + config.FlagLang, "fr", tree}, config.ErrSettingsInvalid},
		{"Bad gaps", []string{"analyze", "--" + config.FlagVeryShortGap, "500", tree}, config.ErrGapOrder},
		{"Bad URL", []string{"analyze", "--" + config.FlagURL, "ftp://example.com/tree.ged"}, config.ErrProtocol},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := execute(t, "", tt.args...)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestCheckFailOn(t *testing.T) {
	findings := []engine.Finding{{Severity: engine.SeverityWarning}}

	assert.NoError(t, checkFailOn(findings, ""))
	assert.NoError(t, checkFailOn(findings, "critical"))
	assert.ErrorIs(t, checkFailOn(findings, "warning"), errFindingsFound)
	assert.ErrorIs(t, checkFailOn(findings, "info"), errFindingsFound)
	assert.NoError(t, checkFailOn(nil, "info"))
	assert.Error(t, checkFailOn(findings, "fatal"))
}

// -----------------------------------------------------------------------------
// calendar
// -----------------------------------------------------------------------------

func TestCalendar_Text(t *testing.T) {
	out, err := execute(t, "", "calendar", "1900")

	require.NoError(t, err)
	assert.Contains(t, out, "Great Lent")
	assert.Contains(t, out, "1900")
}

func TestCalendar_Russian(t *testing.T) {
	loc, err := report.NewLocalizer("ru")
	require.NoError(t, err)

	out, err := execute(t, "", "calendar", "--"+config.FlagLang, "ru", "1900")
	require.NoError(t, err)
	assert.Contains(t, out, loc.GetMsg("period_great_lent"))
}

func TestCalendar_ICSRange(t *testing.T) {
	out, err := execute(t, "", "calendar", "--"+config.FlagICS, "--"+config.FlagTo, "1901", "1900")

	require.NoError(t, err)
	assert.Contains(t, out, "DTSTART;VALUE=DATE:19000422")
	// One Easter event plus seven periods per year.
	assert.Equal(t, 16, strings.Count(out, "BEGIN:VEVENT"))
}

func TestCalendar_ICSStampUsesClock(t *testing.T) {
	a := &cli{clock: fixedClock{time.Date(2025, 1, 1, 10, 0, 0, 0, time.UTC)}}

	out, err := executeWith(t, a, "", "calendar", "1900", "--"+config.FlagICS)
	require.NoError(t, err)
	assert.Contains(t, out, "DTSTAMP:20250101T100000Z")
	assert.NotContains(t, out, "DTSTAMP:"+time.Now().UTC().Format("20060102"))
}

func TestAnalyze_ICSStampUsesClock(t *testing.T) {
	a := &cli{clock: fixedClock{time.Date(2025, 1, 1, 10, 0, 0, 0, time.UTC)}}

	out, err := executeWith(t, a, "", "analyze", writeFile(t, "tree.ged", sampleTree), "--"+config.FlagFormat, config.FormatICS)
	require.NoError(t, err)
	assert.Contains(t, out, "DTSTAMP:20250101T100000Z")
}

func TestCalendar_Errors(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want string
	}{
		{"Not a number", []string{"calendar", "abc"}, config.ErrYearRange},
		{"Zero", []string{"calendar", "0"}, config.ErrYearRange},
		{"Reversed", []string{"calendar", "--" + config.FlagTo, "1899", "1900"}, config.ErrYearOrder},
		{"Language", []string{"calendar", "--" + config.FlagLang, "fr", "1900"}, config.ErrLangUnsupported},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := execute(t, "", tt.args...)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

// -----------------------------------------------------------------------------
// export-vcard
// -----------------------------------------------------------------------------

func TestExportVCard(t *testing.T) {
	out, err := execute(t, "", "export-vcard", writeFile(t, "tree.ged", sampleTree))

	require.NoError(t, err)
	// Only I3 has a dated event.
	assert.Equal(t, 1, strings.Count(out, "BEGIN:VCARD"))
	assert.Contains(t, out, "1900-03-27")
}

func TestExportVCard_GregorianCalendar(t *testing.T) {
	out, err := execute(t, "", "export-vcard", "--"+config.FlagCalendar, "gregorian", writeFile(t, "tree.ged", sampleTree))

	require.NoError(t, err)
	assert.Contains(t, out, "1900-03-14")
}

// -----------------------------------------------------------------------------
// login & keyring
// -----------------------------------------------------------------------------

func TestLogin(t *testing.T) {
	out, err := execute(t, "s3cret\n", "login", "--"+config.FlagUser, "ivan")
	require.NoError(t, err)
	assert.Contains(t, out, "ivan")

	pass, err := keyring.Get(config.KeyringService, "ivan")
	require.NoError(t, err)
	assert.Equal(t, "s3cret", pass)
}

func TestLogin_Errors(t *testing.T) {
	_, err := execute(t, "s3cret\n", "login")
	require.Error(t, err)
	assert.Equal(t, config.ErrUserRequired, err.Error())

	_, err = execute(t, "", "login", "--"+config.FlagUser, "ivan")
	require.Error(t, err)
	assert.Contains(t, err.Error(), config.ErrPasswordRead)
}

func TestReadPassword(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{"secret\n", "secret", false},
		{"secret\r\n", "secret", false},
		{"secret", "secret", false},
		{"\n", "", true},
		{"", "", true},
	}

	for _, tt := range tests {
		got, err := readPassword(strings.NewReader(tt.in))
		if tt.wantErr {
			assert.Error(t, err, "%q", tt.in)
			continue
		}
		require.NoError(t, err, "%q", tt.in)
		assert.Equal(t, tt.want, got)
	}
}

func TestPromptPassword_Pipe(t *testing.T) {
	r, w, err := os.Pipe()
	require.NoError(t, err)
	t.Cleanup(func() { r.Close() })

	_, err = w.WriteString("pw\n")
	require.NoError(t, err)
	require.NoError(t, w.Close())

	var prompt bytes.Buffer
	got, err := promptPassword(r, &prompt)
	require.NoError(t, err)
	assert.Equal(t, "pw", got)
	assert.Empty(t, prompt.String(), "no newline is echoed for piped input")

	got, err = promptPassword(strings.NewReader("s3cret\n"), &prompt)
	require.NoError(t, err)
	assert.Equal(t, "s3cret", got)
}

func TestSourceConfig_Password(t *testing.T) {
	keyring.MockInit()
	require.NoError(t, keyring.Set(config.KeyringService, "ivan", "pw"))

	s := config.Defaults()
	s.Source = config.SourceSettings{Mode: config.SourceModeWeb, URL: "https://example.com/t.ged", User: "ivan"}
	cfg := sourceConfig(s)
	assert.Equal(t, "pw", cfg.WebPass)
	assert.Equal(t, "https://example.com/t.ged", cfg.WebURL)

	s.Source.User = "nobody"
	assert.Empty(t, sourceConfig(s).WebPass)

	s.Source = config.SourceSettings{Mode: config.SourceModeLocal, Path: "t.ged", User: "ivan"}
	assert.Empty(t, sourceConfig(s).WebPass, "local sources never read the keyring")
}

func TestHasSource(t *testing.T) {
	s := config.Defaults()
	assert.False(t, hasSource(s))

	s.Source.Path = "tree.ged"
	assert.True(t, hasSource(s))

	s.Source.Mode = config.SourceModeWeb
	assert.False(t, hasSource(s))
	s.Source.URL = "https://example.com/tree.ged"
	assert.True(t, hasSource(s))
}

// -----------------------------------------------------------------------------
// serve
// -----------------------------------------------------------------------------

type fixedClock struct{ t time.Time }

func (c fixedClock) Now() time.Time { return c.t }

func newTestFeeder(t *testing.T, withSource bool) *feeder {
	t.Helper()
	s := config.Defaults()
	loc, err := report.NewLocalizer("")
	require.NoError(t, err)
	clock := fixedClock{time.Date(1900, 6, 1, 0, 0, 0, 0, time.UTC)}
	an, err := newAnalyzer(s, loc, clock)
	require.NoError(t, err)

	f := &feeder{
		srv:      server.NewCalendarServer("0"),
		analyzer: an,
		loc:      loc,
		clock:    clock,
	}
	if withSource {
		f.source = &engine.SourceConfig{Mode: config.SourceModeLocal, LocalPath: writeFile(t, "tree.ged", sampleTree)}
	}
	return f
}

type feedResponse struct {
	status int
	body   string
}

func getFeed(t *testing.T, f *feeder, path string) feedResponse {
	t.Helper()
	w := httptest.NewRecorder()
	f.srv.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
	return feedResponse{status: w.Code, body: w.Body.String()}
}

func TestFeeder_Refresh(t *testing.T) {
	f := newTestFeeder(t, true)
	f.refresh(context.Background())

	cal := getFeed(t, f, config.RouteCalendar)
	assert.Equal(t, http.StatusOK, cal.status)
	// 1899 to 1901.
	assert.Equal(t, 24, strings.Count(cal.body, "BEGIN:VEVENT"))

	findings := getFeed(t, f, config.RouteFindings)
	assert.Equal(t, http.StatusOK, findings.status)
	assert.Contains(t, findings.body, "DTSTART;VALUE=DATE:19000322")
}

func TestFeeder_CalendarOnly(t *testing.T) {
	f := newTestFeeder(t, false)
	f.refresh(context.Background())

	assert.Equal(t, http.StatusOK, getFeed(t, f, config.RouteCalendar).status)
	assert.Equal(t, http.StatusServiceUnavailable, getFeed(t, f, config.RouteFindings).status)
}

func TestFeeder_FailedAnalysisKeepsFeed(t *testing.T) {
	f := newTestFeeder(t, true)
	f.refresh(context.Background())
	before := getFeed(t, f, config.RouteFindings).body

	require.NoError(t, os.Remove(f.source.LocalPath))
	f.refresh(context.Background())

	assert.Equal(t, before, getFeed(t, f, config.RouteFindings).body)
}

func TestRunWorker(t *testing.T) {
	var runs atomic.Int32
	job := func(context.Context) { runs.Add(1) }

	runWorker(context.Background(), 0, job)
	assert.Equal(t, int32(1), runs.Load(), "zero interval runs once")

	runs.Store(0)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		runWorker(ctx, 10*time.Millisecond, job)
		close(done)
	}()

	require.Eventually(t, func() bool { return runs.Load() >= 3 }, 2*time.Second, 5*time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("worker did not stop on cancellation")
	}
}

func TestServe_InvalidPort(t *testing.T) {
	_, err := execute(t, "", "serve", "--"+config.FlagPort, "0")

	require.Error(t, err)
	assert.Contains(t, err.Error(), config.ErrPortRange)
}
