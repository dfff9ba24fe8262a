package report

import (
	"embed"
	"encoding/json"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync"

	"github.com/nicksnyder/go-i18n/v2/i18n"
	"github.com/tartampluch/go-gedcheck/internal/calendar"
	"github.com/tartampluch/go-gedcheck/internal/config"
	"github.com/tartampluch/go-gedcheck/internal/engine"
	"golang.org/x/text/language"
)

//go:embed locales/*.json
var localeFS embed.FS

// bundle is built once; the embedded files never change.
var bundle = sync.OnceValues(loadBundle)

// loadBundle registers every active.<lang>.json file found in locales/.
func loadBundle() (*i18n.Bundle, []string) {
	b := i18n.NewBundle(language.English)
	b.RegisterUnmarshalFunc("json", json.Unmarshal)

	entries, err := localeFS.ReadDir("locales")
	if err != nil {
		slog.Error(config.ErrLocalesAccess,
			config.LogKeyComponent, config.CompI18n,
			config.LogKeyError, err,
		)
		return b, nil
	}

	var langs []string
	for _, entry := range entries {
		name := entry.Name()
		if !strings.HasPrefix(name, "active.") || !strings.HasSuffix(name, ".json") {
			slog.Debug(config.MsgLocaleSkip,
				config.LogKeyComponent, config.CompI18n,
				config.LogKeyFile, name,
			)
			continue
		}

		lang := strings.TrimSuffix(strings.TrimPrefix(name, "active."), ".json")
		if lang == "" {
			slog.Warn(config.MsgLocaleBadName,
				config.LogKeyComponent, config.CompI18n,
				config.LogKeyFile, name,
			)
			continue
		}

		if _, err := b.LoadMessageFileFS(localeFS, "locales/"+name); err != nil {
			slog.Error(config.ErrLocaleLoad,
				config.LogKeyComponent, config.CompI18n,
				config.LogKeyFile, name,
				config.LogKeyError, err,
			)
			continue
		}
		langs = append(langs, lang)
		slog.Debug(config.MsgLocaleLoaded,
			config.LogKeyComponent, config.CompI18n,
			config.LogKeyLang, lang,
		)
	}
	return b, langs
}

// Languages lists the report languages found in the embedded locales.
func Languages() []string {
	_, langs := bundle()
	return slices.Clone(langs)
}

// Localizer translates report strings into one language.
type Localizer struct {
	Lang string
	loc  *i18n.Localizer
}

// NewLocalizer returns a Localizer for lang ("" means the default language).
func NewLocalizer(lang string) (*Localizer, error) {
	if lang == "" {
		lang = config.DefaultLanguage
	}
	b, langs := bundle()
	if !slices.Contains(langs, lang) {
		return nil, fmt.Errorf("%s: %q", config.ErrLangUnsupported, lang)
	}
	return &Localizer{Lang: lang, loc: i18n.NewLocalizer(b, lang)}, nil
}

// Msg translates key, filling its template with data. A missing key is
// returned as is.
func (l *Localizer) Msg(key string, data map[string]any) string {
	if l == nil || l.loc == nil {
		return key
	}
	msg, err := l.loc.Localize(&i18n.LocalizeConfig{MessageID: key, TemplateData: data})
	if err != nil {
		slog.Debug(config.MsgTransMissing,
			config.LogKeyComponent, config.CompI18n,
			config.LogKeyKey, key,
			config.LogKeyError, err,
		)
		return key
	}
	return msg
}

// GetMsg translates a key without template data.
func (l *Localizer) GetMsg(key string) string {
	return l.Msg(key, nil)
}

func (l *Localizer) PeriodName(n calendar.PeriodName) string {
	if n.Key() == "" {
		return n.String()
	}
	return l.GetMsg(n.Key())
}

func (l *Localizer) GapReason(r calendar.GapReason) string {
	if r.Key() == "" {
		return r.String()
	}
	return l.GetMsg(r.Key())
}

func (l *Localizer) PeriodKind(k calendar.Kind) string {
	if k == calendar.ForbiddenFast {
		return l.GetMsg(config.TKeyPeriodForbidden)
	}
	return l.GetMsg(config.TKeyPeriodAllowed)
}

var severityKeys = map[engine.Severity]string{
	engine.SeverityInfo:     config.TKeySevInfo,
	engine.SeverityWarning:  config.TKeySevWarning,
	engine.SeverityCritical: config.TKeySevCritical,
}

func (l *Localizer) Severity(s engine.Severity) string {
	if key, ok := severityKeys[s]; ok {
		return l.GetMsg(key)
	}
	return s.String()
}

var kindKeys = map[engine.Kind]string{
	engine.KindForbiddenMarriage:   config.TKeyKindForbidden,
	engine.KindAtypicalSeason:      config.TKeyKindAtypical,
	engine.KindShortGap:            config.TKeyKindShortGap,
	engine.KindLongGap:             config.TKeyKindLongGap,
	engine.KindUnparseable:         config.TKeyKindUnparseable,
	engine.KindDeathBeforeBirth:    config.TKeyKindDeathBirth,
	engine.KindImplausibleLifespan: config.TKeyKindLifespan,
}

func (l *Localizer) Kind(k engine.Kind) string {
	if key, ok := kindKeys[k]; ok {
		return l.GetMsg(key)
	}
	return string(k)
}

// Rationale renders the explanation of f in the localizer's language.
// It is meant for Detector.FormatRationale.
func (l *Localizer) Rationale(f engine.Finding) string {
	date := func(i int) string {
		if i < len(f.Dates) {
			return f.Dates[i].DualString()
		}
		return config.FallbackName
	}

	switch f.Kind {
	case engine.KindForbiddenMarriage:
		if f.Period == nil {
			break
		}
		return l.Msg(config.TKeyRatForbidden, map[string]any{
			"Date":   date(0),
			"Period": l.PeriodName(f.Period.Name),
			"Start":  f.Period.Start.DualString(),
			"End":    f.Period.End.DualString(),
		})
	case engine.KindAtypicalSeason:
		var reason calendar.GapReason
		if f.Gap != nil {
			reason = f.Gap.Reason
		}
		return l.Msg(config.TKeyRatAtypical, map[string]any{"Date": date(0), "Reason": l.GapReason(reason)})
	case engine.KindShortGap, engine.KindLongGap:
		key, days := config.TKeyRatShortGap, f.GapDays
		switch {
		case f.Kind == engine.KindLongGap:
			key = config.TKeyRatLongGap
		case days < 0:
			key, days = config.TKeyRatNegativeGap, -days
		}
		return l.Msg(key, map[string]any{"Days": days, "Marriage": date(0), "Birth": date(1)})
	case engine.KindUnparseable:
		return l.Msg(config.TKeyRatUnparseable, map[string]any{"Field": f.Field, "Raw": f.Raw})
	case engine.KindDeathBeforeBirth:
		return l.Msg(config.TKeyRatDeathBirth, map[string]any{"Birth": date(0), "Death": date(1)})
	case engine.KindImplausibleLifespan:
		return l.Msg(config.TKeyRatLifespan, map[string]any{"Years": f.Years, "Max": f.Limit})
	}
	return engine.DefaultRationale(f)
}
