// Package main is the entry point for the healthctl CLI.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/ZanzyTHEbar/project-health-monitor/internal/cli"
)

// version is set at build time using -ldflags.
var version = "dev"

func main() {
	root := cli.NewRootCommand(version, nil)
	if err := root.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
