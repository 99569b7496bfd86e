// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"regexp"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"
)

var envRefRe = regexp.MustCompile(`\$\{([^}]*)\}`)

// loadEnvFile exports the variables of a .env file. Variables already set
// in the process environment win. A missing file is not an error.
func loadEnvFile(path string) error {
	if path == "" {
		return nil
	}
	err := godotenv.Load(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return err
}

// expandEnv replaces ${VAR} references in every string of the tree.
// References to unset variables are kept verbatim and logged.
func expandEnv(v any, logger zerolog.Logger) any {
	switch t := v.(type) {
	case map[string]any:
		for k, e := range t {
			t[k] = expandEnv(e, logger)
		}
		return t
	case []any:
		for i, e := range t {
			t[i] = expandEnv(e, logger)
		}
		return t
	case string:
		return expandString(t, logger)
	default:
		return v
	}
}

func expandString(s string, logger zerolog.Logger) any {
	if !envRefRe.MatchString(s) {
		return s
	}
	out := envRefRe.ReplaceAllStringFunc(s, func(ref string) string {
		name := ref[2 : len(ref)-1]
		if val, ok := os.LookupEnv(name); ok && val != "" {
			return val
		}
		logger.Warn().Str("variable", name).Msg("environment variable not found")
		return ref
	})
	if out == s {
		return s
	}
	return retype(out)
}

// retype gives a substituted scalar its YAML type back, so that "${PORT}"
// decodes into an int field. Only values that print back unchanged are
// retyped: "0123" or "1.50" stay strings. Non-scalar results stay strings.
func retype(s string) any {
	var v any
	if err := yaml.Unmarshal([]byte(s), &v); err != nil {
		return s
	}
	switch v.(type) {
	case map[string]any, []any, nil:
		return s
	}
	if fmt.Sprint(v) != s {
		return s
	}
	return v
}
