// Package main is the dataload command.
package main

import (
	"os"

	"github.com/leapstack-labs/dataload/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
