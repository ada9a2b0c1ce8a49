package main

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/meridian-fm/assetcond/internal/insight"
	"github.com/meridian-fm/assetcond/internal/model"
	"github.com/meridian-fm/assetcond/internal/predict"
	"github.com/meridian-fm/assetcond/internal/store"
	"github.com/meridian-fm/assetcond/pkg/anthropic"
)

var predictCmd = &cobra.Command{
	Use:   "predict",
	Short: "Predict component deterioration and failure timing",
	Long: `Fits a linear deterioration rate to each component's assessment
history, estimates current condition, and projects the year the component
crosses the failure threshold.

Narrative insights come from Claude when ASSETCOND_PREDICT_INSIGHTS=true and
an API key is configured; otherwise deterministic fallback sentences are used.

Examples:
  # Every component in a project
  assetcond predict --project proj-1

  # A single component, as JSON
  assetcond predict --project proj-1 --component D3020-boiler --format json`,
	RunE: runPredict,
}

func init() {
	f := predictCmd.Flags()
	f.String("project", "", "project ID (required)")
	f.String("component", "", "restrict to a single component code")
	f.String("output", "", "output file path (default: stdout)")
	f.String("format", "table", "output format: table or json")
	_ = predictCmd.MarkFlagRequired("project")

	rootCmd.AddCommand(predictCmd)
}

func runPredict(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	projectID, _ := cmd.Flags().GetString("project")
	componentCode, _ := cmd.Flags().GetString("component")
	outputPath, _ := cmd.Flags().GetString("output")
	format, _ := cmd.Flags().GetString("format")

	if format != "table" && format != "json" {
		return eris.Errorf("predict: --format must be table or json (got %q)", format)
	}

	st, err := openStore(ctx)
	if err != nil {
		return err
	}
	defer st.Close() //nolint:errcheck

	predictor, withInsights := buildPredictor()

	assessments, err := st.ListAssessments(ctx, store.AssessmentFilter{
		ProjectID:     projectID,
		ComponentCode: componentCode,
	})
	if err != nil {
		return err
	}
	byComponent := make(map[string][]model.Assessment)
	for _, a := range assessments {
		byComponent[a.ComponentCode] = append(byComponent[a.ComponentCode], a)
	}
	// An explicitly named component with no history still gets a
	// defaults-based prediction.
	if componentCode != "" && len(byComponent) == 0 {
		byComponent[componentCode] = nil
	}

	codes := make([]string, 0, len(byComponent))
	for code := range byComponent {
		codes = append(codes, code)
	}
	sort.Strings(codes)

	currentYear := time.Now().UTC().Year()
	predictions := make([]model.Prediction, len(codes))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(cfg.Predict.MaxConcurrent)

	var mu sync.Mutex
	for i, code := range codes {
		g.Go(func() error {
			history := byComponent[code]
			series := predict.SeriesFromAssessments(history)
			installYear := inferInstallYear(history, currentYear)

			pred := predictor.PredictWithInsights(gctx, code, installYear, series, currentYear)

			mu.Lock()
			predictions[i] = pred
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return eris.Wrap(err, "predict: run")
	}

	zap.L().Info("predict: predictions complete",
		zap.String("project_id", projectID),
		zap.Int("components", len(predictions)),
		zap.Bool("insights", withInsights),
	)

	return outputPredictions(predictions, format, outputPath)
}

// buildPredictor wires the Claude insight generator when enabled and
// configured; numeric prediction never depends on it.
func buildPredictor() (*predict.Predictor, bool) {
	if !cfg.Predict.Insights || cfg.Anthropic.Key == "" {
		return predict.New(nil), false
	}
	client := anthropic.NewClient(cfg.Anthropic.Key)
	return predict.New(insight.New(client, cfg.Anthropic)), true
}

// inferInstallYear derives the installation year from the most recent
// assessment's age. With no history the component is treated as newly
// observed this year.
func inferInstallYear(history []model.Assessment, currentYear int) int {
	if len(history) == 0 {
		return currentYear
	}
	latest := history[0]
	for _, a := range history[1:] {
		if a.AssessedAt.After(latest.AssessedAt) {
			latest = a
		}
	}
	return latest.AssessedAt.Year() - int(latest.Age)
}

func outputPredictions(predictions []model.Prediction, format, outputPath string) error {
	var w *os.File
	if outputPath != "" {
		var err error
		w, err = os.Create(outputPath)
		if err != nil {
			return eris.Wrapf(err, "predict: create output file %s", outputPath)
		}
		defer w.Close() //nolint:errcheck
	} else {
		w = os.Stdout
	}

	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(predictions)
	case "table":
		return writePredictionTable(w, predictions)
	default:
		return eris.Errorf("predict: unsupported format %q", format)
	}
}

func writePredictionTable(w *os.File, predictions []model.Prediction) error {
	header := fmt.Sprintf("%-24s %9s %8s %8s %6s %10s %5s\n",
		"Component", "Condition", "Rate/yr", "Failure", "Life", "Risk", "Conf")
	if _, err := fmt.Fprint(w, header); err != nil {
		return eris.Wrap(err, "predict: write table header")
	}
	if _, err := fmt.Fprintln(w, strings.Repeat("-", 78)); err != nil {
		return eris.Wrap(err, "predict: write table separator")
	}

	for _, p := range predictions {
		line := fmt.Sprintf("%-24s %9.1f %8.2f %8d %6d %10s %4d%%\n",
			p.ComponentCode, p.CurrentCondition, p.DeteriorationRate,
			p.PredictedFailureYear, p.PredictedRemainingLife, p.RiskLevel, p.ConfidenceScore)
		if _, err := fmt.Fprint(w, line); err != nil {
			return eris.Wrap(err, "predict: write table row")
		}
		for _, ins := range p.Insights {
			if _, err := fmt.Fprintf(w, "    - %s\n", ins); err != nil {
				return eris.Wrap(err, "predict: write insight row")
			}
		}
	}
	return nil
}
