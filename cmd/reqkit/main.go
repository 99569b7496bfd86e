// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// reqkit scaffolds and serves request-scoped event applications.
//
// Usage:
//
//	reqkit new [--dir PARENT] [--module PATH] NAME
//	reqkit serve [--config DIR] [--env ENV] [--env-file FILE] [--watch]
//	reqkit config dump [--config DIR] [--env ENV] [--format yaml|json]
//	reqkit config validate [--config DIR] [--env ENV]
//	reqkit version
//
// Exit codes: 0 on success, 1 on failure, 2 on usage errors.
package main

import (
	"fmt"
	"io"
	"os"

	xglog "github.com/ManuGH/reqkit/internal/log"
	"github.com/ManuGH/reqkit/internal/version"
)

func main() {
	xglog.Configure(xglog.Config{Level: "info", Service: "reqkit", Version: version.Version})
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	if len(args) == 0 {
		printUsage(stderr)
		return 2
	}
	switch args[0] {
	case "new":
		return runNew(args[1:], stdout, stderr)
	case "serve":
		return runServe(args[1:], stderr)
	case "config":
		return runConfigCLI(args[1:], stdout, stderr)
	case "version", "--version", "-version":
		fmt.Fprintln(stdout, version.String())
		return 0
	case "help", "-h", "--help":
		printUsage(stdout)
		return 0
	default:
		fmt.Fprintf(stderr, "Unknown command: %s\n\n", args[0])
		printUsage(stderr)
		return 2
	}
}

func printUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage:")
	fmt.Fprintln(w, "  reqkit new [--dir PARENT] [--module PATH] NAME")
	fmt.Fprintln(w, "  reqkit serve [--config DIR] [--env ENV] [--env-file FILE] [--watch]")
	fmt.Fprintln(w, "  reqkit config dump [--config DIR] [--env ENV] [--format yaml|json]")
	fmt.Fprintln(w, "  reqkit config validate [--config DIR] [--env ENV]")
	fmt.Fprintln(w, "  reqkit version")
}
