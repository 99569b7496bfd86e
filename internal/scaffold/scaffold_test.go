// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package scaffold

import (
	"go/parser"
	"go/token"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"testing"

	"github.com/ManuGH/reqkit/internal/version"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateName(t *testing.T) {
	tests := []struct {
		name  string
		valid bool
	}{
		{"myapp", true},
		{"_private", true},
		{"my-app_2", true},
		{"L@rem!", false},
		{"1app", false},
		{"", false},
		{"a/b", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateName(tt.name)
			if tt.valid {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, ErrInvalidName)
			}
		})
	}
}

func TestGenerate(t *testing.T) {
	parent := t.TempDir()
	p, err := Generate(parent, "shop", Options{Module: "example.com/shop", ID: "fixed-id"})
	require.NoError(t, err)

	files := append([]string(nil), p.Files...)
	sort.Strings(files)
	assert.Equal(t, []string{
		".env",
		"config/app.yaml",
		"config/test/app.yaml",
		"go.mod",
		"locales/en_US.yaml",
		"main.go",
	}, files)

	gomod, err := os.ReadFile(filepath.Join(parent, "shop", "go.mod"))
	require.NoError(t, err)
	assert.Contains(t, string(gomod), "module example.com/shop")
	assert.Contains(t, string(gomod), "github.com/ManuGH/reqkit "+version.Version)

	cfg, err := os.ReadFile(filepath.Join(parent, "shop", "config", "app.yaml"))
	require.NoError(t, err)
	assert.Contains(t, string(cfg), "id: fixed-id")
	assert.Contains(t, string(cfg), "path: shop.db")
	assert.Contains(t, string(cfg), "${ADDR}", "env references are left for the config loader")
}

func TestGenerateMainUsesReqkit(t *testing.T) {
	parent := t.TempDir()
	_, err := Generate(parent, "shop", Options{Module: "example.com/shop", ReqkitVersion: "v0.2.0"})
	require.NoError(t, err)

	src := filepath.Join(parent, "shop", "main.go")
	f, err := parser.ParseFile(token.NewFileSet(), src, nil, parser.ImportsOnly)
	require.NoError(t, err, "generated main.go must be valid Go")
	var imports []string
	for _, imp := range f.Imports {
		imports = append(imports, strings.Trim(imp.Path.Value, `"`))
	}
	assert.Subset(t, imports, []string{
		"github.com/ManuGH/reqkit/app",
		"github.com/ManuGH/reqkit/config",
		"github.com/ManuGH/reqkit/eventbus",
		"github.com/ManuGH/reqkit/persistence",
		"github.com/ManuGH/reqkit/translation",
	})

	raw, err := os.ReadFile(src)
	require.NoError(t, err)
	body := string(raw)
	for _, call := range []string{
		`config.New("config", config.WithEnvFile(".env"))`,
		"config.LoadAppSettings(cfg)",
		"app.New(ctx, settings, app.WithRoutes(",
		"eventbus.Emit(r.Context()",
		"a.WriteValidationErrors(",
		"a.Run(ctx)",
	} {
		assert.Contains(t, body, call)
	}
	_, err = parser.ParseFile(token.NewFileSet(), src, raw, parser.AllErrors)
	assert.NoError(t, err)

	gomod, err := os.ReadFile(filepath.Join(parent, "shop", "go.mod"))
	require.NoError(t, err)
	assert.Contains(t, string(gomod), "github.com/ManuGH/reqkit v0.2.0")

	locale, err := os.ReadFile(filepath.Join(parent, "shop", "locales", "en_US.yaml"))
	require.NoError(t, err)
	assert.Contains(t, string(locale), "missing: field required", "validation errors have a catalog entry")
}

func TestGenerateDefaults(t *testing.T) {
	p, err := Generate(t.TempDir(), "svc", Options{})
	require.NoError(t, err)
	assert.Equal(t, "svc", p.Module)
	_, err = uuid.Parse(p.ID)
	assert.NoError(t, err)
}

func TestGenerateRejectsInvalidName(t *testing.T) {
	parent := t.TempDir()
	_, err := Generate(parent, "L@rem!", Options{})
	assert.ErrorIs(t, err, ErrInvalidName)

	entries, err := os.ReadDir(parent)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestGenerateRefusesExisting(t *testing.T) {
	parent := t.TempDir()
	require.NoError(t, os.Mkdir(filepath.Join(parent, "taken"), 0o755))

	_, err := Generate(parent, "taken", Options{})
	assert.ErrorIs(t, err, ErrExists)
}
