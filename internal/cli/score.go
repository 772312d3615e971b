package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/ZanzyTHEbar/project-health-monitor/internal/adapters"
	"github.com/ZanzyTHEbar/project-health-monitor/internal/analysis"
	"github.com/ZanzyTHEbar/project-health-monitor/internal/config"
	"github.com/ZanzyTHEbar/project-health-monitor/internal/recommend"
	"github.com/ZanzyTHEbar/project-health-monitor/internal/store"
	"github.com/ZanzyTHEbar/project-health-monitor/internal/types"
)

type scoreOptions struct {
	configPath string
	previous   float64
	jsonOutput bool
}

func newScoreCommand(now func() time.Time) *cobra.Command {
	var opts scoreOptions

	cmd := &cobra.Command{
		Use:   "score <project-file>",
		Short: "Score a project snapshot file",
		Long: `Score a project snapshot stored as JSON or YAML and print its health report.

Use --previous to supply the last recorded overall score so the trend and
momentum comparison can be computed.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			project, err := adapters.LoadProjectFile(args[0])
			if err != nil {
				return err
			}

			var previous *float64
			if cmd.Flags().Changed("previous") {
				if opts.previous < 0 || opts.previous > 100 {
					return fmt.Errorf("--previous must be between 0 and 100, got %g", opts.previous)
				}
				previous = &opts.previous
			}

			report, err := scoreProject(cmd.Context(), project, opts.configPath, previous, now)
			if err != nil {
				return err
			}
			return printReport(cmd.OutOrStdout(), report, opts.jsonOutput)
		},
	}

	cmd.Flags().StringVarP(&opts.configPath, "config", "c", "", "Scoring config file (.json, .yaml, .toml)")
	cmd.Flags().Float64Var(&opts.previous, "previous", 0, "Previous overall score of the project")
	cmd.Flags().BoolVar(&opts.jsonOutput, "json", false, "Print the report as JSON")

	return cmd
}

func scoreProject(ctx context.Context, project *types.Project, configPath string, previous *float64, now func() time.Time) (recommend.HealthReport, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return recommend.HealthReport{}, err
	}

	calc, err := analysis.NewCalculator(cfg, analysis.WithClock(now))
	if err != nil {
		return recommend.HealthReport{}, err
	}

	scores := store.NewMemoryStore()
	if previous != nil {
		if err := scores.Put(ctx, project.ID, *previous); err != nil {
			return recommend.HealthReport{}, err
		}
	}

	assessment, err := calc.Assess(ctx, project, scores)
	if err != nil {
		return recommend.HealthReport{}, err
	}
	return recommend.BuildReport(project, assessment, cfg.AgingTaskThresholdDays), nil
}

func printReport(w io.Writer, report recommend.HealthReport, asJSON bool) error {
	if asJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(report)
	}

	h := report.HealthScore
	_, _ = fmt.Fprintf(w, "Project: %s (%s)\n", report.ProjectName, report.ProjectID)
	_, _ = fmt.Fprintf(w, "Overall: %.1f [%s]", h.OverallScore, h.Status)
	if h.PreviousScore != nil {
		_, _ = fmt.Fprintf(w, " trend %s from %.1f", h.Trend, *h.PreviousScore)
	}
	_, _ = fmt.Fprintln(w)

	_, _ = fmt.Fprintln(w, "\nDimensions:")
	for _, d := range h.Dimensions {
		_, _ = fmt.Fprintf(w, "  %-24s %5.1f  (weight %.2f)\n", d.Name, d.Score, d.Weight)
	}

	_, _ = fmt.Fprintln(w, "\nRisks:")
	if len(report.Risks) == 0 {
		_, _ = fmt.Fprintln(w, "  none")
	}
	for _, r := range report.Risks {
		_, _ = fmt.Fprintf(w, "  [%s] %s: %s\n", strings.ToUpper(string(r.Severity)), r.Title, r.Description)
	}

	_, _ = fmt.Fprintln(w, "\nRecommendations:")
	for _, rec := range report.Recommendations {
		_, _ = fmt.Fprintf(w, "  [%s] %s\n      %s\n", strings.ToUpper(string(rec.Priority)), rec.Title, rec.Description)
	}
	return nil
}
