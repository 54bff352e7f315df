// Package i18n renders panel, toast and error messages from the embedded
// active.<locale>.toml catalogs.
package i18n

import (
	"embed"
	"log/slog"
	"slices"
	"sync"

	"github.com/nicksnyder/go-i18n/v2/i18n"
	"github.com/pelletier/go-toml/v2"
	"golang.org/x/text/language"

	"luckyspot/internal/ports/output"
)

//go:embed active.*.toml
var localeFS embed.FS

var _ output.T = (*Translator)(nil)

// Locales lists the embedded catalogs.
var Locales = []string{"en", "fr"}

type Translator struct {
	bundle   *i18n.Bundle
	fallback language.Tag

	mu         sync.Mutex
	localizers map[string]*i18n.Localizer
}

// NewTranslator loads every catalog. An unparsable default locale means
// English.
func NewTranslator(defaultLocale string) *Translator {
	tag, err := language.Parse(defaultLocale)
	if err != nil {
		tag = language.English
	}
	bundle := i18n.NewBundle(tag)
	bundle.RegisterUnmarshalFunc("toml", toml.Unmarshal)

	for _, locale := range Locales {
		if _, err := bundle.LoadMessageFileFS(localeFS, catalogFile(locale)); err != nil {
			slog.Error("i18n: catalog not loaded", "locale", locale, "error", err)
		}
	}
	for locale, keys := range MissingKeys() {
		slog.Warn("i18n: catalog is missing keys", "locale", locale, "keys", keys)
	}

	return &Translator{
		bundle:     bundle,
		fallback:   tag,
		localizers: make(map[string]*i18n.Localizer),
	}
}

// T renders key in locale. Discord locales such as "en-US" match their base
// catalog. A key unknown to the locale comes from the default catalog, and a
// key unknown everywhere renders as itself.
func (t *Translator) T(locale, key string, data map[string]any) string {
	if key == "" {
		return ""
	}
	msg, err := t.localizer(locale).Localize(&i18n.LocalizeConfig{
		MessageID:    key,
		TemplateData: data,
	})
	if err != nil {
		slog.Debug("i18n: no message", "key", key, "locale", locale, "error", err)
		return key
	}
	return msg
}

func (t *Translator) localizer(locale string) *i18n.Localizer {
	t.mu.Lock()
	defer t.mu.Unlock()
	if l, ok := t.localizers[locale]; ok {
		return l
	}
	langs := []string{t.fallback.String()}
	if locale != "" {
		langs = append([]string{locale}, langs...)
	}
	l := i18n.NewLocalizer(t.bundle, langs...)
	t.localizers[locale] = l
	return l
}

func catalogFile(locale string) string { return "active." + locale + ".toml" }

// MissingKeys returns, per locale, the message ids some other catalog
// defines and this one lacks. An empty map means the catalogs agree.
func MissingKeys() map[string][]string {
	keys := make(map[string][]string, len(Locales))
	var all []string
	for _, locale := range Locales {
		raw, err := localeFS.ReadFile(catalogFile(locale))
		if err != nil {
			continue
		}
		var messages map[string]any
		if err := toml.Unmarshal(raw, &messages); err != nil {
			continue
		}
		for id := range messages {
			keys[locale] = append(keys[locale], id)
			all = append(all, id)
		}
	}
	slices.Sort(all)
	all = slices.Compact(all)

	missing := make(map[string][]string)
	for _, locale := range Locales {
		for _, id := range all {
			if !slices.Contains(keys[locale], id) {
				missing[locale] = append(missing[locale], id)
			}
		}
	}
	return missing
}
