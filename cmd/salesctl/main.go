// Package main provides the salesctl CLI.
package main

import (
	"fmt"
	"os"

	"salesboard/internal/cli"
)

func main() {
	if err := cli.NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
