// Package main provides the medallion CLI entry point.
package main

import (
	"os"

	"github.com/leapstack-labs/medallion/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
