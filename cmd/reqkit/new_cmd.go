// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package main

import (
	"errors"
	"flag"
	"fmt"
	"io"

	"github.com/ManuGH/reqkit/internal/scaffold"
)

func runNew(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("reqkit new", flag.ContinueOnError)
	fs.SetOutput(stderr)

	var dir, module string
	fs.StringVar(&dir, "dir", ".", "parent directory of the new project")
	fs.StringVar(&module, "module", "", "Go module path (defaults to NAME)")

	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() != 1 {
		fmt.Fprintln(stderr, "Error: exactly one project NAME is required")
		return 2
	}

	p, err := scaffold.Generate(dir, fs.Arg(0), scaffold.Options{Module: module})
	switch {
	case errors.Is(err, scaffold.ErrInvalidName):
		fmt.Fprintf(stderr, "Error: %v (use letters, digits, '_' or '-', not starting with a digit)\n", err)
		return 1
	case err != nil:
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}

	fmt.Fprintf(stdout, "Created %s in %s (%d files)\n", p.Name, p.Dir, len(p.Files))
	return 0
}
