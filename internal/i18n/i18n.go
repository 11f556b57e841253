// Package i18n holds the string tables shown by the web frontend.
package i18n

import (
	"embed"
	"encoding/json"
	"fmt"
	"path"
	"strings"

	"golang.org/x/text/language"
)

// DefaultLanguage is served when a requested language has no table.
const DefaultLanguage = "en"

//go:embed locales/*.json
var localeFS embed.FS

// Table is one language's nested string dictionary.
type Table map[string]any

// Language describes an entry of the language dropdown.
type Language struct {
	Code  string
	Label string
}

var (
	order   = []string{"en", "ar", "tr"}
	tables  = mustLoad()
	matcher = language.NewMatcher([]language.Tag{language.English, language.Arabic, language.Turkish})
)

func mustLoad() map[string]Table {
	out := make(map[string]Table, len(order))
	for _, code := range order {
		raw, err := localeFS.ReadFile(path.Join("locales", code+".json"))
		if err != nil {
			panic(fmt.Sprintf("i18n: read %s: %v", code, err))
		}
		var t Table
		if err := json.Unmarshal(raw, &t); err != nil {
			panic(fmt.Sprintf("i18n: parse %s: %v", code, err))
		}
		out[code] = t
	}
	return out
}

// Lookup returns the table for lang, or the English table when lang is unknown.
func Lookup(lang string) Table {
	if t, ok := tables[lang]; ok {
		return t
	}
	return tables[DefaultLanguage]
}

// Supported lists the available languages in dropdown order.
func Supported() []Language {
	out := make([]Language, 0, len(order))
	for _, code := range order {
		out = append(out, Language{Code: code, Label: tables[code].Get("language")})
	}
	return out
}

// Dir returns the text direction for lang.
func Dir(lang string) string {
	if lang == "ar" {
		return "rtl"
	}
	return "ltr"
}

// Resolve picks the page language. An explicit query value wins when it names a
// supported language, then the Accept-Language header, then English.
func Resolve(query, acceptLanguage string) string {
	if _, ok := tables[query]; ok {
		return query
	}
	if query != "" {
		if tag, err := language.Parse(query); err == nil {
			if code, ok := match(tag); ok {
				return code
			}
		}
	}
	if tags, _, err := language.ParseAcceptLanguage(acceptLanguage); err == nil && len(tags) > 0 {
		if code, ok := match(tags...); ok {
			return code
		}
	}
	return DefaultLanguage
}

func match(tags ...language.Tag) (string, bool) {
	_, idx, conf := matcher.Match(tags...)
	if conf == language.No {
		return "", false
	}
	return order[idx], true
}

// Get returns the string at a dotted key path such as "auth.Login.username".
// Missing keys and non-string values yield "".
func (t Table) Get(key string) string {
	v, ok := t.walk(key)
	if !ok {
		return ""
	}
	s, _ := v.(string)
	return s
}

// Section returns the nested table at key, or an empty table.
func (t Table) Section(key string) Table {
	v, ok := t.walk(key)
	if !ok {
		return Table{}
	}
	if m, ok := v.(map[string]any); ok {
		return Table(m)
	}
	return Table{}
}

// List returns the array of tables at key, skipping entries that are not objects.
func (t Table) List(key string) []Table {
	v, ok := t.walk(key)
	if !ok {
		return nil
	}
	items, _ := v.([]any)
	out := make([]Table, 0, len(items))
	for _, item := range items {
		if m, ok := item.(map[string]any); ok {
			out = append(out, Table(m))
		}
	}
	return out
}

func (t Table) walk(key string) (any, bool) {
	var cur any = map[string]any(t)
	for _, part := range strings.Split(key, ".") {
		m, ok := cur.(map[string]any)
		if !ok {
			return nil, false
		}
		if cur, ok = m[part]; !ok {
			return nil, false
		}
	}
	return cur, true
}
