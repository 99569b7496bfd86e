// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package scaffold generates a new reqkit project from the embedded template.
package scaffold

import (
	"bytes"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"regexp"
	"strings"
	"text/template"

	xglog "github.com/ManuGH/reqkit/internal/log"
	"github.com/ManuGH/reqkit/internal/version"
	"github.com/google/renameio/v2"
	"github.com/google/uuid"
)

//go:embed all:template
var templateFS embed.FS

const templateRoot = "template"

var (
	// ErrInvalidName is returned for project names that are not identifier-like.
	ErrInvalidName = errors.New("scaffold: invalid project name")
	// ErrExists is returned when the target directory already exists.
	ErrExists = errors.New("scaffold: target already exists")
)

var nameRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_-]*$`)

// ValidateName reports whether name can be used as a project name.
func ValidateName(name string) error {
	if !nameRe.MatchString(name) {
		return fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	return nil
}

// Options controls generation.
type Options struct {
	// Module is the Go module path; defaults to the project name.
	Module string
	// ID overrides the generated project id. Tests use it for stable output.
	ID string
	// ReqkitVersion is the reqkit version the project requires; defaults to
	// the version of the running binary.
	ReqkitVersion string
}

// Project describes a generated project.
type Project struct {
	Name          string
	Module        string
	ID            string
	ReqkitVersion string
	Dir           string
	Files         []string
}

// Generate renders the template into parent/name. Existing directories are
// never overwritten.
func Generate(parent, name string, opts Options) (*Project, error) {
	if err := ValidateName(name); err != nil {
		return nil, err
	}
	dir := filepath.Join(parent, name)
	if _, err := os.Lstat(dir); err == nil {
		return nil, fmt.Errorf("%w: %s", ErrExists, dir)
	} else if !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("scaffold: stat %s: %w", dir, err)
	}

	p := &Project{Name: name, Module: opts.Module, ID: opts.ID, ReqkitVersion: opts.ReqkitVersion, Dir: dir}
	if p.Module == "" {
		p.Module = name
	}
	if p.ReqkitVersion == "" {
		p.ReqkitVersion = version.Version
	}
	if p.ID == "" {
		p.ID = uuid.NewString()
	}

	logger := xglog.WithComponent("scaffold")
	err := fs.WalkDir(templateFS, templateRoot, func(src string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		rel := targetPath(strings.TrimPrefix(src, templateRoot+"/"))
		out, err := render(src, p)
		if err != nil {
			return err
		}
		dst := filepath.Join(dir, filepath.FromSlash(rel))
		if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
			return fmt.Errorf("scaffold: %w", err)
		}
		if err := renameio.WriteFile(dst, out, 0o644); err != nil {
			return fmt.Errorf("scaffold: write %s: %w", rel, err)
		}
		p.Files = append(p.Files, rel)
		logger.Debug().Str("file", rel).Msg("generated")
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Info().
		Str("project", name).
		Str("dir", dir).
		Int("files", len(p.Files)).
		Msg("project generated")
	return p, nil
}

// targetPath strips the .tmpl suffix and turns "env" into ".env".
func targetPath(rel string) string {
	rel = strings.TrimSuffix(rel, ".tmpl")
	if path.Base(rel) == "env" {
		rel = path.Join(path.Dir(rel), ".env")
	}
	return rel
}

func render(src string, p *Project) ([]byte, error) {
	raw, err := templateFS.ReadFile(src)
	if err != nil {
		return nil, err
	}
	tmpl, err := template.New(path.Base(src)).Option("missingkey=error").Parse(string(raw))
	if err != nil {
		return nil, fmt.Errorf("scaffold: parse %s: %w", src, err)
	}
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, p); err != nil {
		return nil, fmt.Errorf("scaffold: render %s: %w", src, err)
	}
	return buf.Bytes(), nil
}
