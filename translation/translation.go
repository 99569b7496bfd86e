// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package translation rewrites validation error messages into a configured
// locale. Catalogs are nested maps keyed by error type; a dotted type such as
// "value_error.any_str.max_length" matches a flat key or any nesting of its
// dot separated parts.
package translation

import (
	"errors"
	"fmt"
	"io/fs"
	"path"
	"regexp"
	"slices"
	"strconv"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"
	"gopkg.in/yaml.v3"
)

// ErrLocaleNotFound is returned for a locale without a catalog.
var ErrLocaleNotFound = errors.New("locale not found")

// ValidationError is one field error as reported by request validation.
type ValidationError struct {
	Loc  []string `json:"loc"`
	Msg  string   `json:"msg"`
	Type string   `json:"type"`
	// Ctx holds the template arguments {0}, {1}, ... in order.
	Ctx []any `json:"ctx,omitempty"`
}

// Translator holds every catalog and the active locale.
type Translator struct {
	catalogs map[string]map[string]any
	locale   string

	locales []string
	// matched[i] is the locale of the i-th tag given to matcher
	matched []string
	matcher language.Matcher
}

// New returns a Translator for locale. translations maps a locale to its
// catalog.
func New(translations map[string]any, locale string) (*Translator, error) {
	t := &Translator{catalogs: make(map[string]map[string]any, len(translations)), locale: locale}
	for loc, raw := range translations {
		catalog, ok := raw.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("translation: catalog %q is %T, want a map", loc, raw)
		}
		t.catalogs[loc] = catalog
		t.locales = append(t.locales, loc)
	}
	slices.Sort(t.locales)

	var tags []language.Tag
	for _, loc := range t.locales {
		tag, err := language.Parse(strings.ReplaceAll(loc, "_", "-"))
		if err != nil {
			continue
		}
		tags = append(tags, tag)
		t.matched = append(t.matched, loc)
	}
	if len(tags) > 0 {
		t.matcher = language.NewMatcher(tags)
	}
	return t, nil
}

// Locale returns the active locale.
func (t *Translator) Locale() string { return t.locale }

// WithLocale returns a Translator sharing t's catalogs with another active
// locale.
func (t *Translator) WithLocale(locale string) (*Translator, error) {
	if _, ok := t.catalogs[locale]; !ok {
		return nil, fmt.Errorf("translation: %q: %w", locale, ErrLocaleNotFound)
	}
	c := *t
	c.locale = locale
	return &c, nil
}

// Locales returns the known locales, sorted.
func (t *Translator) Locales() []string {
	return slices.Clone(t.locales)
}

// Translations returns the catalog of locale.
func (t *Translator) Translations(locale string) (map[string]any, error) {
	catalog, ok := t.catalogs[locale]
	if !ok {
		return nil, fmt.Errorf("translation: %q: %w", locale, ErrLocaleNotFound)
	}
	return catalog, nil
}

// Translate returns a copy of errs with each Msg replaced by the active
// locale's template for its Type. Errors without a translation keep their
// message.
func (t *Translator) Translate(errs []ValidationError) ([]ValidationError, error) {
	catalog, err := t.Translations(t.locale)
	if err != nil {
		return nil, err
	}
	out := make([]ValidationError, len(errs))
	for i, e := range errs {
		out[i] = e
		if tmpl, ok := lookup(catalog, e.Type); ok {
			out[i].Msg = format(tmpl, e.Ctx)
		}
	}
	return out, nil
}

// Negotiate picks the known locale that best serves an Accept-Language
// header, falling back to the active locale.
func (t *Translator) Negotiate(acceptLanguage string) string {
	if t.matcher == nil {
		return t.locale
	}
	wanted, _, err := language.ParseAcceptLanguage(acceptLanguage)
	if err != nil || len(wanted) == 0 {
		return t.locale
	}
	_, idx, conf := t.matcher.Match(wanted...)
	if conf == language.No {
		return t.locale
	}
	return t.matched[idx]
}

func lookup(tree map[string]any, key string) (string, bool) {
	if s, ok := tree[key].(string); ok {
		return s, true
	}
	for i := 0; i < len(key); i++ {
		if key[i] != '.' {
			continue
		}
		if sub, ok := tree[key[:i]].(map[string]any); ok {
			if s, ok := lookup(sub, key[i+1:]); ok {
				return s, true
			}
		}
	}
	return "", false
}

var placeholderRe = regexp.MustCompile(`\{(\d+)\}`)

func format(tmpl string, args []any) string {
	if len(args) == 0 {
		return norm.NFC.String(tmpl)
	}
	out := placeholderRe.ReplaceAllStringFunc(tmpl, func(m string) string {
		n, err := strconv.Atoi(m[1 : len(m)-1])
		if err != nil || n >= len(args) {
			return m
		}
		return fmt.Sprint(args[n])
	})
	return norm.NFC.String(out)
}

// LoadFS reads one catalog per "<locale>.yaml" (or .yml) file in dir.
func LoadFS(fsys fs.FS, dir string) (map[string]any, error) {
	entries, err := fs.ReadDir(fsys, dir)
	if err != nil {
		return nil, fmt.Errorf("translation: read %s: %w", dir, err)
	}
	out := make(map[string]any)
	for _, e := range entries {
		ext := path.Ext(e.Name())
		if e.IsDir() || (ext != ".yaml" && ext != ".yml") {
			continue
		}
		data, err := fs.ReadFile(fsys, path.Join(dir, e.Name()))
		if err != nil {
			return nil, fmt.Errorf("translation: read %s: %w", e.Name(), err)
		}
		catalog := map[string]any{}
		if err := yaml.Unmarshal(data, &catalog); err != nil {
			return nil, fmt.Errorf("translation: decode %s: %w", e.Name(), err)
		}
		out[strings.TrimSuffix(e.Name(), ext)] = catalog
	}
	return out, nil
}
