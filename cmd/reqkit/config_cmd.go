// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"

	"github.com/ManuGH/reqkit/config"
	"gopkg.in/yaml.v3"
)

// configFlags are shared by every command reading the configuration.
type configFlags struct {
	dir     string
	env     string
	envFile string
}

func (c *configFlags) register(fs *flag.FlagSet) {
	fs.StringVar(&c.dir, "config", "config", "configuration directory")
	fs.StringVar(&c.env, "env", "", "environment layer to merge (subdirectory of --config)")
	fs.StringVar(&c.envFile, "env-file", ".env", "dotenv file exported before loading")
}

func (c *configFlags) load() (*config.Configuration, error) {
	cfg := config.New(c.dir, config.WithEnvFile(c.envFile))
	if err := cfg.Load(config.LoadOptions{Env: c.env}); err != nil {
		return nil, err
	}
	return cfg, nil
}

func runConfigCLI(args []string, stdout, stderr io.Writer) int {
	if len(args) == 0 || args[0] == "-h" || args[0] == "--help" || args[0] == "help" {
		printConfigUsage(stderr)
		return 0
	}

	switch args[0] {
	case "dump":
		return runConfigDump(args[1:], stdout, stderr)
	case "validate":
		return runConfigValidate(args[1:], stdout, stderr)
	default:
		fmt.Fprintf(stderr, "Unknown subcommand: %s\n\n", args[0])
		printConfigUsage(stderr)
		return 2
	}
}

func printConfigUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage:")
	fmt.Fprintln(w, "  reqkit config dump [--config DIR] [--env ENV] [--format yaml|json]")
	fmt.Fprintln(w, "  reqkit config validate [--config DIR] [--env ENV]")
}

func runConfigDump(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("reqkit config dump", flag.ContinueOnError)
	fs.SetOutput(stderr)

	var cf configFlags
	cf.register(fs)
	var format string
	fs.StringVar(&format, "format", "yaml", "output format: yaml or json")

	if err := fs.Parse(args); err != nil {
		return 2
	}
	if format != "yaml" && format != "json" {
		fmt.Fprintf(stderr, "Error: unsupported format %q\n", format)
		return 2
	}

	cfg, err := cf.load()
	if err != nil {
		fmt.Fprintf(stderr, "Configuration error in %s:\n  %v\n", cf.dir, err)
		return 1
	}
	tree, err := cfg.All()
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}

	if format == "json" {
		enc := json.NewEncoder(stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(tree); err != nil {
			fmt.Fprintf(stderr, "Error: %v\n", err)
			return 1
		}
		return 0
	}
	enc := yaml.NewEncoder(stdout)
	enc.SetIndent(2)
	if err := enc.Encode(tree); err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	_ = enc.Close()
	return 0
}

func runConfigValidate(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("reqkit config validate", flag.ContinueOnError)
	fs.SetOutput(stderr)

	var cf configFlags
	cf.register(fs)
	if err := fs.Parse(args); err != nil {
		return 2
	}

	cfg, err := cf.load()
	if err != nil {
		fmt.Fprintf(stderr, "Configuration error in %s:\n  %v\n", cf.dir, err)
		return 1
	}
	if _, err := config.LoadAppSettings(cfg); err != nil {
		fmt.Fprintf(stderr, "Validation error in %s:\n  %v\n", cf.dir, err)
		return 1
	}
	fmt.Fprintf(stdout, "%s is valid\n", cf.dir)
	return 0
}
