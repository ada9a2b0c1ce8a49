package main

import (
	"encoding/csv"
	"fmt"
	"os"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/meridian-fm/assetcond/internal/model"
	"github.com/meridian-fm/assetcond/internal/priority"
)

var prioritizeCmd = &cobra.Command{
	Use:   "prioritize",
	Short: "Rank projects by weighted composite priority score",
	Long: `Computes each project's composite priority as the weight-normalized
sum of its criteria scores, then ranks projects highest first. Criteria with
no score for a project are omitted rather than counted as zero.

Examples:
  assetcond prioritize
  assetcond prioritize --format csv --output priorities.csv`,
	RunE: runPrioritize,
}

func init() {
	f := prioritizeCmd.Flags()
	f.String("output", "", "output file path (default: stdout)")
	f.String("format", "table", "output format: table or csv")

	rootCmd.AddCommand(prioritizeCmd)
}

func runPrioritize(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	outputPath, _ := cmd.Flags().GetString("output")
	format, _ := cmd.Flags().GetString("format")

	if format != "table" && format != "csv" {
		return eris.Errorf("prioritize: --format must be table or csv (got %q)", format)
	}

	st, err := openStore(ctx)
	if err != nil {
		return err
	}
	defer st.Close() //nolint:errcheck

	criteria, err := st.ListCriteria(ctx, true)
	if err != nil {
		return err
	}
	if len(criteria) == 0 {
		return eris.New("prioritize: no active criteria defined (run 'assetcond criteria load' first)")
	}
	priority.ValidateCriteria(criteria)

	scores, err := st.ListAllScores(ctx)
	if err != nil {
		return err
	}

	byProject := make(map[string][]model.CriteriaScore)
	for _, s := range scores {
		byProject[s.ProjectID] = append(byProject[s.ProjectID], s)
	}

	results := priority.Rank(criteria, byProject)

	zap.L().Info("prioritize: ranking complete",
		zap.Int("projects", len(results)),
		zap.Int("criteria", len(criteria)),
	)

	return outputPriorityResults(results, format, outputPath)
}

func outputPriorityResults(results []model.CompositeResult, format, outputPath string) error {
	var w *os.File
	if outputPath != "" {
		var err error
		w, err = os.Create(outputPath)
		if err != nil {
			return eris.Wrapf(err, "prioritize: create output file %s", outputPath)
		}
		defer w.Close() //nolint:errcheck
	} else {
		w = os.Stdout
	}

	switch format {
	case "csv":
		return writePriorityCSV(w, results)
	case "table":
		return writePriorityTable(w, results)
	default:
		return eris.Errorf("prioritize: unsupported format %q", format)
	}
}

func writePriorityCSV(w *os.File, results []model.CompositeResult) error {
	cw := csv.NewWriter(w)
	defer cw.Flush()

	header := []string{"rank", "project_id", "composite_score", "scored_criteria", "active_criteria"}
	if err := cw.Write(header); err != nil {
		return eris.Wrap(err, "prioritize: write CSV header")
	}

	for i, r := range results {
		row := []string{
			fmt.Sprintf("%d", i+1),
			r.ProjectID,
			fmt.Sprintf("%.2f", r.CompositeScore),
			fmt.Sprintf("%d", r.ScoredCriteria),
			fmt.Sprintf("%d", r.ActiveCriteria),
		}
		if err := cw.Write(row); err != nil {
			return eris.Wrap(err, "prioritize: write CSV row")
		}
	}
	return nil
}

func writePriorityTable(w *os.File, results []model.CompositeResult) error {
	header := fmt.Sprintf("%-5s %-30s %10s %8s\n", "Rank", "Project", "Score", "Scored")
	if _, err := fmt.Fprint(w, header); err != nil {
		return eris.Wrap(err, "prioritize: write table header")
	}
	if _, err := fmt.Fprintln(w, strings.Repeat("-", 58)); err != nil {
		return eris.Wrap(err, "prioritize: write table separator")
	}

	for i, r := range results {
		line := fmt.Sprintf("%-5d %-30s %10.2f %5d/%d\n",
			i+1, r.ProjectID, r.CompositeScore, r.ScoredCriteria, r.ActiveCriteria)
		if _, err := fmt.Fprint(w, line); err != nil {
			return eris.Wrap(err, "prioritize: write table row")
		}
	}
	return nil
}
