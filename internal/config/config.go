package config

import (
	"io/fs"
	"time"
)

// -----------------------------------------------------------------------------
// Build Information
// -----------------------------------------------------------------------------

// Build variables are injected via -ldflags.
var (
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
)

// UserAgent identifies the HTTP client.
var UserAgent = "Go-Gedcheck/" + Version

// -----------------------------------------------------------------------------
// Application Constants
// -----------------------------------------------------------------------------

const (
	AppName           = "Go Gedcheck"
	AppCommand        = "go-gedcheck"
	AppID             = "com.github.tartampluch.go-gedcheck"
	KeyringService    = "com.github.tartampluch.go-gedcheck"
	LocalhostBindAddr = "127.0.0.1"
	LogFileName       = "app.log"
	SettingsFileName  = "settings.toml"
)

// -----------------------------------------------------------------------------
// Exit Codes
// -----------------------------------------------------------------------------

const (
	ExitCodeSuccess = 0
	ExitCodeError   = 1
	// ExitCodeFindings is returned by "analyze --fail-on" when a finding
	// reaches the requested severity.
	ExitCodeFindings = 2
)

// -----------------------------------------------------------------------------
// System & File Permissions
// -----------------------------------------------------------------------------

const (
	// FilePermUserRW represents -rw------- (Read/Write for owner only).
	// Used for sensitive files like logs.
	FilePermUserRW fs.FileMode = 0600

	// FilePermReport represents -rw-r--r--, used for exported reports.
	FilePermReport fs.FileMode = 0644

	// DirPermUserRWX represents drwx------ (Read/Write/Exec for owner only).
	DirPermUserRWX fs.FileMode = 0700

	// ChannelBufferSize defines the standard buffer size for internal signaling channels.
	ChannelBufferSize = 1
)

// -----------------------------------------------------------------------------
// CLI Commands, Flags & Descriptions
// -----------------------------------------------------------------------------

const (
	CmdAnalyze     = "analyze [file]"
	CmdCalendar    = "calendar <year>"
	CmdServe       = "serve [file]"
	CmdExportVCard = "export-vcard [file]"
	CmdLogin       = "login"

	CmdShortRoot     = "Flag GEDCOM wedding dates against the Orthodox liturgical calendar"
	CmdShortAnalyze  = "Analyze a GEDCOM file and report anomalies"
	CmdShortCalendar = "Print fasts and wedding seasons of one or more years"
	CmdShortServe    = "Serve the liturgical calendar and findings as iCalendar feeds"
	CmdShortVCard    = "Export individuals with known dates as vCard 4.0"
	CmdShortLogin    = "Store the password of a web source in the system keyring"

	FlagVersion       = "version"
	FlagDebug         = "debug"
	FlagConfig        = "config"
	FlagBefore        = "before"
	FlagOutput        = "output"
	FlagFormat        = "format"
	FlagLang          = "lang"
	FlagUnparseable   = "unparseable"
	FlagShortGap      = "short-gap"
	FlagVeryShortGap  = "very-short-gap"
	FlagLongGap       = "long-gap"
	FlagPrecision     = "precision"
	FlagLifespan      = "lifespan"
	FlagMaxLifespan   = "max-lifespan"
	FlagWorkers       = "workers"
	FlagURL           = "url"
	FlagUser          = "user"
	FlagCalendar      = "calendar"
	FlagGregorianFrom = "gregorian-from"
	FlagTo            = "to"
	FlagICS           = "ics"
	FlagPort          = "port"
	FlagInterval      = "interval"
	FlagFailOn        = "fail-on"

	FlagDescVersion       = "Show application version and exit"
	FlagDescDebug         = "Enable debug logging"
	FlagDescConfig        = "Path to a TOML settings file"
	FlagDescBefore        = "Only analyze marriages before this year (0 = all)"
	FlagDescOutput        = "Write the report to this file instead of stdout"
	FlagDescFormat        = "Report format: text, ics or json"
	FlagDescLang          = "Report language (en, ru)"
	FlagDescUnparseable   = "Report dates that could not be parsed"
	FlagDescShortGap      = "Flag first children born less than this many days after the marriage"
	FlagDescVeryShortGap  = "Raise short gaps below this many days to warning severity"
	FlagDescLongGap       = "Flag first children born more than this many days after the marriage (0 = off)"
	FlagDescPrecision     = "Minimum date precision to classify: day, month or year"
	FlagDescLifespan      = "Check individual birth and death dates for consistency"
	FlagDescMaxLifespan   = "Largest plausible lifespan in years"
	FlagDescWorkers       = "Number of families analyzed in parallel"
	FlagDescURL           = "Fetch the GEDCOM file from this HTTP(S) URL"
	FlagDescUser          = "User name for HTTP basic auth; the password comes from the keyring"
	FlagDescCalendar      = "Calendar of dates without escape: auto, julian or gregorian"
	FlagDescGregorianFrom = "First year read as Gregorian in auto mode"
	FlagDescTo            = "Last year of the range (defaults to the first)"
	FlagDescICS           = "Write the periods as iCalendar instead of text"
	FlagDescPort          = "Port of the local feed server"
	FlagDescInterval      = "Re-run the analysis every N minutes (0 = once)"
	FlagDescFailOn        = "Exit with code 2 when a finding reaches this severity (info, warning, critical)"

	MsgVersionOutput  = "%s version %s (%s/%s)\n"
	MsgPasswordPrompt = "Password: "
	MsgPasswordStored = "Password stored for %s\n"
)

// -----------------------------------------------------------------------------
// Report Formats & Languages
// -----------------------------------------------------------------------------

const (
	FormatText = "text"
	FormatICS  = "ics"
	FormatJSON = "json"
)

// SupportedLanguages defines the list of available report languages (ISO 639-1).
var SupportedLanguages = []string{"en", "ru"}

// -----------------------------------------------------------------------------
// Translation Keys (I18n)
// -----------------------------------------------------------------------------

const (
	// Rationale of findings
	TKeyRatForbidden   = "rationale_forbidden"          // Date, Period, Start, End
	TKeyRatAtypical    = "rationale_atypical"           // Date, Reason
	TKeyRatShortGap    = "rationale_short_gap"          // Days, Marriage, Birth
	TKeyRatNegativeGap = "rationale_negative_gap"       // Days, Marriage, Birth
	TKeyRatLongGap     = "rationale_long_gap"           // Days, Marriage, Birth
	TKeyRatUnparseable = "rationale_unparseable"        // Field, Raw
	TKeyRatDeathBirth  = "rationale_death_before_birth" // Birth, Death
	TKeyRatLifespan    = "rationale_lifespan"           // Years, Max

	// Severities
	TKeySevInfo     = "severity_info"
	TKeySevWarning  = "severity_warning"
	TKeySevCritical = "severity_critical"

	// Finding kinds
	TKeyKindForbidden   = "kind_forbidden_marriage"
	TKeyKindAtypical    = "kind_atypical_season"
	TKeyKindShortGap    = "kind_short_first_child_gap"
	TKeyKindLongGap     = "kind_long_first_child_gap"
	TKeyKindUnparseable = "kind_unparseable_date"
	TKeyKindDeathBirth  = "kind_death_before_birth"
	TKeyKindLifespan    = "kind_implausible_lifespan"

	// Text report
	TKeyRepTitle      = "report_title"   // Source
	TKeyRepStats      = "report_stats"   // Individuals, Families, Lines, Skipped
	TKeyRepSummary    = "report_summary" // Analyzed, Typical, Atypical, Forbidden
	TKeyRepNoFindings = "report_no_findings"
	TKeyRepFindings   = "report_findings" // Count
	TKeyRepEaster     = "report_easter"   // Year, Date
	TKeyRepPeriods    = "report_periods"  // Year
	TKeyRepGaps       = "report_gaps"
	TKeyRepCharset    = "report_charset" // Charset

	// Period kinds
	TKeyPeriodAllowed   = "period_kind_allowed"
	TKeyPeriodForbidden = "period_kind_forbidden"

	// iCalendar
	TKeyCalName         = "ics_calendar_name"
	TKeyCalFindingsName = "ics_findings_name"
	TKeyEvtEaster       = "ics_event_easter"
	TKeyEvtFinding      = "ics_event_finding" // Kind, Subject
)

// -----------------------------------------------------------------------------
// Default Values & Business Logic
// -----------------------------------------------------------------------------

const (
	SourceModeWeb   = "web"
	SourceModeLocal = "local"

	DefaultPort             = "18081"
	DefaultRefreshMin       = 0
	DefaultLanguage         = "en"
	DefaultFormat           = FormatText
	DefaultCalendarMode     = "auto"
	DefaultGregorianFrom    = 1918
	DefaultPrecision        = "year"
	DefaultShortGapDays     = 180
	DefaultVeryShortGapDays = 100
	DefaultLongGapDays      = 0
	DefaultMaxLifespanYears = 120
	DefaultWorkers          = 1
	DisabledInterval        = 0

	// MaxWorkers caps the detector fan-out.
	MaxWorkers = 64

	// MinYear and MaxYear bound the years the calendar commands accept.
	MinYear = 1
	MaxYear = 9999

	UIDSalt = "go-gedcheck-v1-" // Salt for deterministic UID generation
)

// -----------------------------------------------------------------------------
// Standards: iCalendar & vCard
// -----------------------------------------------------------------------------

const (
	// iCal Properties
	ICalVersion  = "2.0"
	ICalProdid   = "-//Go Gedcheck//Liturgical Calendar//EN"
	ICalMethod   = "PUBLISH"
	ICalScale    = "GREGORIAN"
	ICalDomain   = "gogedcheck"
	ICalTransp   = "TRANSPARENT"
	ICalCategory = "LITURGICAL"
	ICalCatFind  = "ANOMALY"

	// iCal/vCard Fields
	PropUID         = "UID"
	PropSummary     = "SUMMARY"
	PropDTStart     = "DTSTART"
	PropDTEnd       = "DTEND"
	PropDTStamp     = "DTSTAMP"
	PropRefresh     = "REFRESH-INTERVAL"
	PropDescription = "DESCRIPTION"
	PropCategories  = "CATEGORIES"
	PropTransp      = "TRANSP"
	PropVersion     = "VERSION"
	PropProdid      = "PRODID"
	PropXWRCalName  = "X-WR-CALNAME"
	PropCalScale    = "CALSCALE"
	PropMethod      = "METHOD"

	VCardBDAY      = "BDAY"
	VCardDeathDate = "DEATHDATE"
	VCardFN        = "FN"
	VCardN         = "N"
	VCardUID       = "UID"
	VCardNote      = "NOTE"

	DefaultICalRefresh = 24 * time.Hour
)

// -----------------------------------------------------------------------------
// Data Formats, Limits & File Extensions
// -----------------------------------------------------------------------------

const (
	// DateFormatISO is the layout of dates in JSON and vCard output.
	DateFormatISO = "%04d-%02d-%02d"

	// Limits
	MinPort = 1
	MaxPort = 65535

	// UID Generation
	UIDHashLength   = 16
	FormatHashInput = "%s|%s|%s"
	FormatUID       = "%s-%d@%s"

	// File Extensions
	ExtGED = ".ged"
	ExtICS = ".ics"
	ExtVCF = ".vcf"
)

// -----------------------------------------------------------------------------
// GEDCOM Charsets
// -----------------------------------------------------------------------------

const (
	CharsetUTF8    = "UTF-8"
	CharsetASCII   = "ASCII"
	CharsetUnicode = "UNICODE"
	CharsetANSEL   = "ANSEL"
	CharsetANSI    = "ANSI"
	CharsetCP1251  = "WINDOWS-1251"
	CharsetCP866   = "IBM866"
	CharsetKOI8R   = "KOI8-R"

	// CharsetSniffBytes bounds how much of the file is searched for "1 CHAR".
	CharsetSniffBytes = 4096
)

// -----------------------------------------------------------------------------
// Network & Timeouts
// -----------------------------------------------------------------------------

const (
	HTTPTimeout         = 30 * time.Second
	ShutdownTimeout     = 5 * time.Second
	ServerReadTimeout   = 10 * time.Second
	ServerWriteTimeout  = 30 * time.Second
	ServerIdleTimeout   = 60 * time.Second
	RetryAfterSeconds   = "10"
	AllowedMethods      = "GET, HEAD"
	MaxHTTPResponseSize = 256 * 1024 * 1024 // 256MB
	SchemeHTTP          = "http"
	SchemeHTTPS         = "https"
	RouteRoot           = "/"
	RouteFindings       = "/findings.ics"
	RouteCalendar       = "/calendar.ics"
	AddrSeparator       = ":"
)

// Feed names served by the HTTP server.
const (
	FeedCalendar = "calendar"
	FeedFindings = "findings"
)

// -----------------------------------------------------------------------------
// HTTP Headers & MIME Types
// -----------------------------------------------------------------------------

const (
	HeaderContentType     = "Content-Type"
	HeaderCacheControl    = "Cache-Control"
	HeaderETag            = "ETag"
	HeaderLastModified    = "Last-Modified"
	HeaderRetryAfter      = "Retry-After"
	HeaderAllow           = "Allow"
	HeaderXContentType    = "X-Content-Type-Options"
	HeaderUserAgent       = "User-Agent"
	HeaderIfNoneMatch     = "If-None-Match"
	HeaderIfModifiedSince = "If-Modified-Since"

	MimeTextCalendar    = "text/calendar; charset=utf-8"
	MimeNoSniff         = "nosniff"
	CacheControlPrivate = "private, no-cache"

	// FormatETag expects a string argument.
	FormatETag = `"%s"`
)

// -----------------------------------------------------------------------------
// Error Messages (Technical/Logs)
// -----------------------------------------------------------------------------

const (
	ErrLocalPathEmpty  = "configuration error: local path is empty"
	ErrWebURLEmpty     = "configuration error: web URL is empty"
	ErrFetcherMissing  = "internal error: network fetcher is not initialized"
	ErrModeUnsupport   = "configuration error: unsupported source mode"
	ErrSourceRead      = "failed to read GEDCOM source"
	ErrDecode          = "failed to decode GEDCOM text"
	ErrServerStartup   = "server startup failed"
	ErrServerShutdown  = "server shutdown failed"
	ErrPortRequired    = "server port is required"
	ErrPortNumber      = "server port must be a number"
	ErrPortRange       = "server port must be between 1 and 65535"
	ErrInvalidURL      = "invalid URL structure"
	ErrProtocol        = "unsupported protocol scheme (http/https only)"
	ErrICalEncode      = "failed to encode iCalendar data"
	ErrVCardEncode     = "failed to encode vCard data"
	ErrJSONEncode      = "failed to encode JSON report"
	ErrReportWrite     = "failed to write report"
	ErrLogFile         = "failed to open log file"
	ErrCacheDir        = "could not determine user cache dir"
	ErrCreateDir       = "could not create app cache dir"
	ErrAppFailed       = "application failed unexpectedly"
	ErrWriteResp       = "failed to write response body"
	ErrLocalesAccess   = "failed to access embedded locales"
	ErrLocaleLoad      = "failed to load locale file"
	ErrLangUnsupported = "unsupported report language"
	ErrSettingsLoad    = "failed to load settings file"
	ErrSettingsInvalid = "invalid settings"
	ErrFormatUnknown   = "unknown report format"
	ErrYearRange       = "year out of range"
	ErrYearOrder       = "end year precedes start year"
	ErrKeyring         = "keyring access failed"
	ErrPasswordRead    = "failed to read password"
	ErrUserRequired    = "user name is required"
	ErrSeverityUnknown = "unknown severity"
	ErrGapOrder        = "very short gap must not exceed short gap"
	ErrNegative        = "value must not be negative"
	ErrWorkers         = "workers must be between 1 and 64"
	ErrFailOn          = "findings reached the fail-on severity"
	ErrSourceTooLarge  = "GEDCOM source exceeds the size limit"
)

// -----------------------------------------------------------------------------
// HTTP Server Responses
// -----------------------------------------------------------------------------

const (
	HTTPMsgInitializing = "Calendar initializing, please try again shortly."
	HTTPMsgMethodNotAll = "Method Not Allowed"
	HTTPMsgNotFound     = "Not Found"
)

// -----------------------------------------------------------------------------
// Fallbacks & Defaults
// -----------------------------------------------------------------------------

const (
	FallbackForbidden      = "Marriage on %s falls in %s (%s .. %s), when weddings were not celebrated."
	FallbackAtypical       = "Marriage on %s falls outside the wedding seasons (%s)."
	FallbackShortGap       = "First child born %d days after the marriage (%s .. %s)."
	FallbackNegativeGap    = "First child born %d days before the marriage (%s .. %s)."
	FallbackLongGap        = "First child born %d days after the marriage (%s .. %s)."
	FallbackUnparseable    = "%s date %q could not be parsed."
	FallbackDeathBeforeBir = "Death (%s) is recorded before birth (%s)."
	FallbackLifespan       = "Lifespan of %d years exceeds %d."
	FallbackName           = "Unknown"

	// StubVCalendar is the minimal valid iCalendar object used when no events are found.
	StubVCalendar = "BEGIN:VCALENDAR\r\nVERSION:2.0\r\nPRODID:" + ICalProdid + "\r\nEND:VCALENDAR\r\n"

	MsgAnalysisStarted    = "Analysis started"
	MsgAnalysisDone       = "Analysis completed"
	MsgAnalysisFailed     = "Analysis failed"
	MsgDetectDone         = "Anomaly detection finished"
	MsgWorkerStart        = "Background worker started"
	MsgWorkerStop         = "Worker stopping due to context cancellation"
	MsgAppStop            = "Application stopped gracefully"
	MsgAppStarting        = "Starting application"
	MsgServerListen       = "HTTP server listening"
	MsgServerStop         = "Shutting down HTTP server..."
	MsgCacheUpdated       = "Calendar cache updated"
	MsgLocaleSkip         = "Skipping non-locale file"
	MsgLocaleBadName      = "Skipping malformed locale filename"
	MsgLocaleLoaded       = "Locale loaded successfully"
	MsgTransMissing       = "Missing translation key"
	MsgPassFail           = "Password retrieval failed (might be empty)"
	MsgLogWarning         = "Warning: %s at %s: %v\n"
	MsgSettingsLoaded     = "Settings loaded"
	MsgSettingsMissing    = "Settings file not found, using defaults"
	MsgSettingsUnknownKey = "Unknown settings key ignored"
	MsgCharsetPass        = "Charset not decoded, passing bytes through"
	MsgCharsetDetected    = "GEDCOM charset detected"
	MsgSkippedLine        = "Skipping malformed GEDCOM line"
	MsgSkippedRecord      = "Skipping GEDCOM record"
	MsgDuplicateRecord    = "Duplicate record ID, keeping the first"
	MsgExtractDone        = "GEDCOM extraction finished"
	MsgSourceDownload     = "GEDCOM downloading"
	MsgSourceInit         = "Initiating GEDCOM download"
	MsgSourceStatus       = "Server returned error status"
	MsgReportWritten      = "Report written"
)

// -----------------------------------------------------------------------------
// Structured Logging Keys (slog)
// -----------------------------------------------------------------------------

const (
	LogKeyComponent = "component"
	LogKeyError     = "error"
	LogKeyURL       = "url"
	LogKeyStatus    = "status_code"
	LogKeyFile      = "file"
	LogKeyLang      = "lang"
	LogKeyKey       = "key"
	LogKeyPort      = "port"
	LogKeyMode      = "mode"
	LogKeyInterval  = "interval"
	LogKeyUser      = "user"
	LogKeySizeBytes = "size_bytes"
	LogKeyLength    = "content_length"
	LogKeyETag      = "etag"
	LogKeyFeed      = "feed"
	LogKeyValue     = "value"
	LogKeyStats     = "stats"
	LogKeyCount     = "count"
	LogKeyDuration  = "duration_ms"
	LogKeyCharset   = "charset"
	LogKeyLine      = "line"
	LogKeyTag       = "tag"
	LogKeyXRef      = "xref"
	LogKeyFormat    = "format"
	LogKeyWorkers   = "workers"

	LogKeyLines         = "lines"
	LogKeySkippedLines  = "skipped_lines"
	LogKeySkippedRecs   = "skipped_records"
	LogKeyIndividuals   = "individuals"
	LogKeyFamilies      = "families"
	LogKeyDates         = "dates"
	LogKeyUnparseable   = "unparseable_dates"
	LogKeyFindings      = "findings"
	LogKeyMarriages     = "marriages"
	LogKeyTypical       = "typical"
	LogKeyAtypical      = "atypical"
	LogKeyForbidden     = "forbidden"
	LogKeyIndeterminate = "indeterminate"

	// Startup Info Keys
	LogKeyBuild   = "build"
	LogKeyApp     = "app"
	LogKeyVersion = "version"
	LogKeyGoVer   = "go_version"
	LogKeyEnv     = "env"
	LogKeyOS      = "os"
	LogKeyArch    = "arch"
	LogKeyPID     = "pid"
)

// -----------------------------------------------------------------------------
// Log Components
// -----------------------------------------------------------------------------

const (
	CompEngine   = "engine"
	CompDetector = "detector"
	CompGedcom   = "gedcom"
	CompReport   = "report"
	CompServer   = "server"
	CompFetcher  = "fetcher"
	CompWorker   = "worker"
	CompMain     = "main"
	CompI18n     = "i18n"
	CompSettings = "settings"
)
