// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package translation

import (
	"os"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func maxLength(limit int) ValidationError {
	return ValidationError{
		Loc:  []string{"body", "firstname"},
		Msg:  "ensure this value has at most 20 characters",
		Type: "value_error.any_str.max_length",
		Ctx:  []any{limit},
	}
}

func TestTranslateFlatKeys(t *testing.T) {
	tr, err := New(map[string]any{
		"fr_FR": map[string]any{
			"value_error.any_str.max_length": "Ce champ doit faire {0} caractères",
			"value_error.any_str.min_length": "Ce {1} doit faire plus de {0} caractères",
		},
	}, "fr_FR")
	require.NoError(t, err)

	in := []ValidationError{
		maxLength(20),
		{Loc: []string{"body", "lastname"}, Msg: "too short", Type: "value_error.any_str.min_length", Ctx: []any{10, "string"}},
	}
	got, err := tr.Translate(in)
	require.NoError(t, err)

	assert.Equal(t, "Ce champ doit faire 20 caractères", got[0].Msg)
	assert.Equal(t, "Ce string doit faire plus de 10 caractères", got[1].Msg)
	assert.Equal(t, "ensure this value has at most 20 characters", in[0].Msg, "input must not be modified")
	assert.Equal(t, in[1].Loc, got[1].Loc)
}

func TestTranslateKeepsMessageWithoutTranslation(t *testing.T) {
	tr, err := New(map[string]any{"fr_FR": map[string]any{}}, "fr_FR")
	require.NoError(t, err)

	got, err := tr.Translate([]ValidationError{maxLength(20)})
	require.NoError(t, err)
	assert.Equal(t, "ensure this value has at most 20 characters", got[0].Msg)
}

func TestTranslateWithoutContext(t *testing.T) {
	tr, err := New(map[string]any{"fr_FR": map[string]any{
		"value_error.any_str.max_length": "Ce champ est trop grand",
	}}, "fr_FR")
	require.NoError(t, err)

	e := maxLength(0)
	e.Ctx = nil
	got, err := tr.Translate([]ValidationError{e})
	require.NoError(t, err)
	assert.Equal(t, "Ce champ est trop grand", got[0].Msg)
}

func TestTranslateLeavesUnknownPlaceholders(t *testing.T) {
	tr, err := New(map[string]any{"en": map[string]any{"x": "{0} of {2}"}}, "en")
	require.NoError(t, err)
	got, err := tr.Translate([]ValidationError{{Type: "x", Ctx: []any{"a"}}})
	require.NoError(t, err)
	assert.Equal(t, "a of {2}", got[0].Msg)
}

func TestTranslateNestedKeys(t *testing.T) {
	tr, err := New(map[string]any{
		"fr_FR": map[string]any{
			"value_error": map[string]any{
				"any_str.max_length": "Ce champ doit faire {0} caractères",
				"any_str": map[string]any{
					"min_length": "Ce {1} doit faire plus de {0} caractères",
				},
			},
		},
	}, "fr_FR")
	require.NoError(t, err)

	got, err := tr.Translate([]ValidationError{
		maxLength(20),
		{Type: "value_error.any_str.min_length", Msg: "short", Ctx: []any{10, "string"}},
		{Type: "value_error.any_str.other", Msg: "other msg"},
		{Type: "value_error", Msg: "simple msg"},
	})
	require.NoError(t, err)

	msgs := make([]string, len(got))
	for i, e := range got {
		msgs[i] = e.Msg
	}
	want := []string{
		"Ce champ doit faire 20 caractères",
		"Ce string doit faire plus de 10 caractères",
		"other msg",
		"simple msg",
	}
	if diff := cmp.Diff(want, msgs); diff != "" {
		t.Errorf("translated messages mismatch (-want +got):\n%s", diff)
	}
}

func TestTranslateUnknownLocale(t *testing.T) {
	tr, err := New(map[string]any{"fr": map[string]any{}}, "fr_FR")
	require.NoError(t, err)

	_, err = tr.Translate([]ValidationError{maxLength(20)})
	assert.ErrorIs(t, err, ErrLocaleNotFound)

	_, err = tr.WithLocale("de")
	assert.ErrorIs(t, err, ErrLocaleNotFound)
}

func TestLocalesAndTranslations(t *testing.T) {
	fr := map[string]any{"a": "b"}
	tr, err := New(map[string]any{"fr_FR": fr, "en_EN": map[string]any{}}, "fr_FR")
	require.NoError(t, err)

	assert.Equal(t, []string{"en_EN", "fr_FR"}, tr.Locales())
	got, err := tr.Translations("fr_FR")
	require.NoError(t, err)
	assert.Equal(t, fr, got)
}

func TestNewRejectsNonMapCatalog(t *testing.T) {
	_, err := New(map[string]any{"fr": "nope"}, "fr")
	assert.Error(t, err)
}

func TestNegotiate(t *testing.T) {
	tr, err := New(map[string]any{
		"en_US": map[string]any{},
		"fr_FR": map[string]any{},
		"de_DE": map[string]any{},
	}, "en_US")
	require.NoError(t, err)

	assert.Equal(t, "fr_FR", tr.Negotiate("fr-FR,fr;q=0.9,en;q=0.5"))
	assert.Equal(t, "de_DE", tr.Negotiate("de"))
	assert.Equal(t, "en_US", tr.Negotiate(""))
	assert.Equal(t, "en_US", tr.Negotiate("!!!"))

	de, err := tr.WithLocale("de_DE")
	require.NoError(t, err)
	assert.Equal(t, "de_DE", de.Locale())
	assert.Equal(t, "en_US", tr.Locale())
}

func TestLoadFS(t *testing.T) {
	catalogs, err := LoadFS(os.DirFS("testdata"), "locales")
	require.NoError(t, err)
	require.Len(t, catalogs, 2)

	tr, err := New(catalogs, "fr_FR")
	require.NoError(t, err)
	got, err := tr.Translate([]ValidationError{maxLength(20)})
	require.NoError(t, err)
	assert.Equal(t, "Ce champ doit faire au plus 20 caractères", got[0].Msg)

	de, err := tr.WithLocale("de_DE")
	require.NoError(t, err)
	got, err = de.Translate([]ValidationError{{Type: "value_error.missing", Msg: "field required"}})
	require.NoError(t, err)
	assert.Equal(t, "Feld fehlt", got[0].Msg)

	_, err = LoadFS(os.DirFS("testdata"), "missing")
	assert.Error(t, err)
}
