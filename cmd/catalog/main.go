// Package main provides the entry point for the catalog CLI.
package main

import (
	"fmt"
	"os"

	"github.com/braint-ru/catalog/cmd/catalog/cmd"
	cerrors "github.com/braint-ru/catalog/internal/errors"
)

func main() {
	if err := cmd.Execute(); err != nil {
		fmt.Fprint(os.Stderr, cerrors.FormatForCLI(err))
		os.Exit(1)
	}
}
