// Package main is the single-binary entrypoint for habitd.
package main

import "github.com/habitloop/backend/internal/cli"

// version is set at build time via -ldflags.
var version = "dev"

func main() {
	cli.Execute(version)
}
