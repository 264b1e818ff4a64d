// Package i18n resolves dotted translation keys ("login.submit") for the
// console's two languages.
package i18n

import (
	"embed"
	"encoding/json"
	"fmt"
	"strings"

	"golang.org/x/text/language"
)

//go:embed locales/*.json
var localeFS embed.FS

type Language string

const (
	Ukrainian Language = "uk"
	English   Language = "en"

	Default = Ukrainian
)

// Supported lists languages in negotiation priority order.
var Supported = []Language{Ukrainian, English}

var matcher = language.NewMatcher([]language.Tag{language.Ukrainian, language.English})

// Translator holds the parsed translation tables.
type Translator struct {
	tables map[Language]map[string]any
}

// New loads the embedded tables for every supported language.
func New() (*Translator, error) {
	t := &Translator{tables: make(map[Language]map[string]any, len(Supported))}
	for _, lang := range Supported {
		raw, err := localeFS.ReadFile("locales/" + string(lang) + ".json")
		if err != nil {
			return nil, fmt.Errorf("i18n: read %s table: %w", lang, err)
		}
		var table map[string]any
		if err := json.Unmarshal(raw, &table); err != nil {
			return nil, fmt.Errorf("i18n: parse %s table: %w", lang, err)
		}
		t.tables[lang] = table
	}
	return t, nil
}

// T returns the string stored under path for lang. A missing key, or a path
// that stops on a nested section, yields path itself.
func (t *Translator) T(lang Language, path string) string {
	table, ok := t.tables[lang]
	if !ok {
		table = t.tables[Default]
	}

	var current any = table
	for _, key := range strings.Split(path, ".") {
		node, ok := current.(map[string]any)
		if !ok {
			return path
		}
		current, ok = node[key]
		if !ok {
			return path
		}
	}

	s, ok := current.(string)
	if !ok {
		return path
	}
	return s
}

// Func binds T to a language, for template FuncMaps.
func (t *Translator) Func(lang Language) func(string) string {
	return func(path string) string { return t.T(lang, path) }
}

// Parse maps a language code to a supported Language.
func Parse(code string) (Language, bool) {
	switch Language(strings.ToLower(strings.TrimSpace(code))) {
	case Ukrainian:
		return Ukrainian, true
	case English:
		return English, true
	}
	return "", false
}

// Negotiate picks the best supported language for an Accept-Language header.
func Negotiate(acceptLanguage string) Language {
	if acceptLanguage == "" {
		return Default
	}
	tags, _, err := language.ParseAcceptLanguage(acceptLanguage)
	if err != nil || len(tags) == 0 {
		return Default
	}
	_, idx, conf := matcher.Match(tags...)
	if conf == language.No {
		return Default
	}
	return Supported[idx]
}
