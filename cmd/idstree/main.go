// Package main provides the idstree command.
package main

import (
	"os"

	"probe-ids/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
