package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/ptlab/ptstat/infrastructure/middleware"
	"github.com/ptlab/ptstat/internal/application"
	"github.com/ptlab/ptstat/internal/stats"
)

var calculateFlags struct {
	configPath  string
	method      string
	sigmaPT     float64
	analyte     string
	resultsJSON string
	verbose     bool
}

var calculateCmd = &cobra.Command{
	Use:   "calculate <input.csv>",
	Short: "Run a proficiency-testing round over a participant results file",
	Long: `Calculate the assigned value, its standard uncertainty, and per-participant
performance scores for one round of results.

The input file is a CSV with a header row; column names are configurable
(defaults: ParticipantID, Value, Uncertainty). Configuration is YAML and
every field has a default, so a config file is optional.

Usage:
  ptstat calculate results.csv
  ptstat calculate results.csv --config round.yaml --results-json out.json
  ptstat calculate results.csv --method CRM --sigma-pt 0.2`,
	Args: cobra.ExactArgs(1),
	RunE: runCalculate,
}

func init() {
	f := calculateCmd.Flags()
	f.StringVarP(&calculateFlags.configPath, "config", "c", "", "Path to YAML round configuration (defaults used if omitted)")
	f.StringVar(&calculateFlags.method, "method", "", "Override calculation method (AlgorithmA, CRM, Formulation, Expert)")
	f.Float64Var(&calculateFlags.sigmaPT, "sigma-pt", 0, "Override standard deviation for proficiency assessment")
	f.StringVar(&calculateFlags.analyte, "analyte", "", "Analyte name recorded in the report")
	f.StringVar(&calculateFlags.resultsJSON, "results-json", "", "Optional path to save the round report as JSON")
	f.BoolVarP(&calculateFlags.verbose, "verbose", "v", false, "Enable verbose output")
}

func runCalculate(cmd *cobra.Command, args []string) error {
	cfg, err := application.LoadConfig(calculateFlags.configPath)
	if err != nil {
		return err
	}

	// CLI flags override the file configuration, mirroring the config
	// precedence: defaults < file < flags.
	if calculateFlags.method != "" {
		cfg.Calculation.Method = application.CalculationMethod(calculateFlags.method)
	}
	if calculateFlags.sigmaPT != 0 {
		cfg.Calculation.SigmaPT = calculateFlags.sigmaPT
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	if calculateFlags.verbose {
		fmt.Fprintf(cmd.OutOrStdout(), "configuration loaded (method=%s, sigma_pt=%g)\n",
			cfg.Calculation.Method, cfg.Calculation.SigmaPT)
	}

	ds, err := application.LoadDataset(args[0], cfg.InputData)
	if err != nil {
		return err
	}
	if calculateFlags.verbose {
		fmt.Fprintf(cmd.OutOrStdout(), "data loaded: %d participants\n", len(ds.Participants))
	}

	metrics := middleware.NewPrometheusMetrics()
	estimator, err := stats.NewAlgorithmA(cfg.Calculation.AlgorithmA)
	if err != nil {
		return err
	}
	analyzer, err := application.NewAnalyzer(cfg,
		application.WithMetrics(metrics),
		application.WithObserver(middleware.NewOTelRoundObserver()),
		application.WithEstimator(middleware.NewInstrumentedEstimator(estimator, metrics, calculateFlags.analyte)),
	)
	if err != nil {
		return err
	}

	report, err := analyzer.Analyze(context.Background(), calculateFlags.analyte, ds)
	if err != nil {
		return err
	}

	if calculateFlags.resultsJSON != "" {
		data, err := json.MarshalIndent(report, "", "  ")
		if err != nil {
			return fmt.Errorf("encode report: %w", err)
		}
		if err := os.WriteFile(calculateFlags.resultsJSON, data, 0o644); err != nil {
			return fmt.Errorf("write report: %w", err)
		}
		if calculateFlags.verbose {
			fmt.Fprintf(cmd.OutOrStdout(), "report saved to %s\n", calculateFlags.resultsJSON)
		}
	}

	printReport(cmd, report)
	return nil
}

func printReport(cmd *cobra.Command, report *application.RoundReport) {
	out := cmd.OutOrStdout()

	fmt.Fprintf(out, "method:        %s\n", report.AssignedValue.Method)
	fmt.Fprintf(out, "x_pt:          %.6g\n", report.AssignedValue.XPt)
	fmt.Fprintf(out, "u(x_pt):       %.6g\n", report.Uncertainty.UXPt)
	fmt.Fprintf(out, "sigma_pt:      %.6g\n", report.SigmaPT)
	if report.Estimate != nil {
		fmt.Fprintf(out, "s*:            %.6g\n", report.Estimate.SStar)
		fmt.Fprintf(out, "participants:  %d of %d used\n", report.Estimate.ParticipantsUsed, len(report.Scores))
		fmt.Fprintf(out, "iterations:    %d\n", report.Estimate.Iterations)
	}
	fmt.Fprintln(out)

	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "PARTICIPANT\tRESULT\tZ\tASSESSMENT\tZETA\tZETA ASSESSMENT")
	for _, s := range report.Scores {
		zeta, zetaInterp := "-", "-"
		if s.ZPrime != nil {
			zeta = fmt.Sprintf("%.3f", s.ZPrime.Value)
			zetaInterp = string(s.ZPrime.Interpretation)
		}
		fmt.Fprintf(w, "%s\t%.4g\t%.3f\t%s\t%s\t%s\n",
			s.ParticipantID, s.Result, s.Z.Value, s.Z.Interpretation, zeta, zetaInterp)
	}
	w.Flush()
}
