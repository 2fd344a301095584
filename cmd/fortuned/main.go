// Package main is the single-binary entrypoint for fortuned.
package main

import "github.com/lucklab/fortuned/internal/cli"

// version is set at build time via -ldflags.
var version = "dev"

func main() {
	cli.Execute(version)
}
