// Package main is the entry point for the datareduce CLI binary.
package main

import (
	"os"

	"datareduce/pkg/cli"
)

func main() {
	os.Exit(cli.Execute())
}
