package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/ZanzyTHEbar/project-health-monitor/internal/adapters"
	"github.com/ZanzyTHEbar/project-health-monitor/internal/types"
)

func newDemoCommand(now func() time.Time) *cobra.Command {
	var (
		seed       int64
		jsonOutput bool
		configPath string
	)

	cmd := &cobra.Command{
		Use:   "demo [project-id]",
		Short: "Score the built-in demo projects",
		Long: `Score the generated demo projects. With a project id the full report
is printed; without one every demo project is summarized.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			provider := adapters.NewMockProvider(seed, now)
			ctx := cmd.Context()

			if len(args) == 1 {
				project, err := provider.GetProject(ctx, args[0])
				if err != nil {
					return err
				}
				report, err := scoreProject(ctx, project, configPath, nil, now)
				if err != nil {
					return err
				}
				return printReport(cmd.OutOrStdout(), report, jsonOutput)
			}

			projects, err := provider.ListProjects(ctx)
			if err != nil {
				return err
			}
			return printSummary(cmd, projects, configPath, now)
		},
	}

	cmd.Flags().Int64Var(&seed, "seed", 42, "Seed for the generated demo data")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Print the report as JSON")
	cmd.Flags().StringVarP(&configPath, "config", "c", "", "Scoring config file (.json, .yaml, .toml)")

	return cmd
}

func printSummary(cmd *cobra.Command, projects []*types.Project, configPath string, now func() time.Time) error {
	w := cmd.OutOrStdout()
	_, _ = fmt.Fprintf(w, "%-8s %-24s %7s  %-8s %s\n", "ID", "NAME", "SCORE", "STATUS", "RISKS")
	for _, p := range projects {
		report, err := scoreProject(cmd.Context(), p, configPath, nil, now)
		if err != nil {
			return err
		}
		_, _ = fmt.Fprintf(w, "%-8s %-24s %7.1f  %-8s %d\n",
			p.ID, p.Name, report.HealthScore.OverallScore, report.HealthScore.Status, len(report.Risks))
	}
	return nil
}
