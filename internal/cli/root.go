// Package cli provides the healthctl command-line interface.
package cli

import (
	"time"

	"github.com/spf13/cobra"
)

// NewRootCommand creates the root command. now is the clock used for
// scoring; nil means time.Now.
func NewRootCommand(version string, now func() time.Time) *cobra.Command {
	if now == nil {
		now = time.Now
	}

	root := &cobra.Command{
		Use:   "healthctl",
		Short: "Score project health from the command line",
		Long: `healthctl scores project snapshots across delivery, workload,
communication, risk signals and momentum, and prints the detected risks
and recommendations.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(newScoreCommand(now))
	root.AddCommand(newConfigCommand())
	root.AddCommand(newDemoCommand(now))

	return root
}
