package main

import (
	"encoding/csv"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/meridian-fm/assetcond/internal/aggregate"
	"github.com/meridian-fm/assetcond/internal/condition"
	"github.com/meridian-fm/assetcond/internal/model"
	"github.com/meridian-fm/assetcond/internal/store"
)

var conditionCmd = &cobra.Command{
	Use:   "condition",
	Short: "Report condition indices across the facility hierarchy",
	Long: `Computes replacement-cost-weighted Condition Index rollups from the
latest assessment of each component: per system, per building, and for the
whole portfolio.

Examples:
  # Portfolio-wide report
  assetcond condition --project proj-1

  # One building, exported as CSV
  assetcond condition --project proj-1 --building bldg-2 --format csv --output ci.csv`,
	RunE: runCondition,
}

func init() {
	f := conditionCmd.Flags()
	f.String("project", "", "project ID (required)")
	f.String("building", "", "restrict to a single building")
	f.String("output", "", "output file path (default: stdout)")
	f.String("format", "table", "output format: table or csv")
	_ = conditionCmd.MarkFlagRequired("project")

	rootCmd.AddCommand(conditionCmd)
}

// conditionReport is the full hierarchy rollup for one project.
type conditionReport struct {
	ProjectID   string           `json:"project_id"`
	PortfolioCI float64          `json:"portfolio_ci"`
	Buildings   []buildingReport `json:"buildings"`
}

type buildingReport struct {
	Building model.BuildingResult `json:"building"`
	Systems  []model.SystemResult `json:"systems"`
}

func runCondition(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	projectID, _ := cmd.Flags().GetString("project")
	buildingID, _ := cmd.Flags().GetString("building")
	outputPath, _ := cmd.Flags().GetString("output")
	format, _ := cmd.Flags().GetString("format")

	if format != "table" && format != "csv" {
		return eris.Errorf("condition: --format must be table or csv (got %q)", format)
	}

	st, err := openStore(ctx)
	if err != nil {
		return err
	}
	defer st.Close() //nolint:errcheck

	assessments, err := st.ListAssessments(ctx, store.AssessmentFilter{
		ProjectID:  projectID,
		BuildingID: buildingID,
	})
	if err != nil {
		return err
	}

	report := buildConditionReport(projectID, assessments)

	zap.L().Info("condition: report built",
		zap.String("project_id", projectID),
		zap.Int("assessments", len(assessments)),
		zap.Int("buildings", len(report.Buildings)),
		zap.Float64("portfolio_ci", report.PortfolioCI),
	)

	return outputConditionReport(report, format, outputPath)
}

// buildConditionReport rolls assessments up to building and portfolio
// level, keeping only the latest assessment per component.
func buildConditionReport(projectID string, assessments []model.Assessment) conditionReport {
	byBuilding := make(map[string][]model.Assessment)
	for _, a := range assessments {
		byBuilding[a.BuildingID] = append(byBuilding[a.BuildingID], a)
	}

	buildingIDs := make([]string, 0, len(byBuilding))
	for id := range byBuilding {
		buildingIDs = append(buildingIDs, id)
	}
	sort.Strings(buildingIDs)

	report := conditionReport{ProjectID: projectID}
	var buildingResults []model.BuildingResult

	for _, id := range buildingIDs {
		rows := byBuilding[id]
		components := aggregate.LatestComponentCIs(rows)
		building := aggregate.BuildingCI(id, components)

		var systems []model.SystemResult
		for systemCode, group := range aggregate.GroupBySystem(rows) {
			systems = append(systems, aggregate.SystemCI(systemCode, aggregate.LatestComponentCIs(group)))
		}
		sort.Slice(systems, func(i, j int) bool {
			return systems[i].SystemCode < systems[j].SystemCode
		})

		report.Buildings = append(report.Buildings, buildingReport{Building: building, Systems: systems})
		buildingResults = append(buildingResults, building)
	}

	report.PortfolioCI = aggregate.PortfolioCI(buildingResults)
	return report
}

func outputConditionReport(report conditionReport, format, outputPath string) error {
	var w *os.File
	if outputPath != "" {
		var err error
		w, err = os.Create(outputPath)
		if err != nil {
			return eris.Wrapf(err, "condition: create output file %s", outputPath)
		}
		defer w.Close() //nolint:errcheck
	} else {
		w = os.Stdout
	}

	switch format {
	case "csv":
		return writeConditionCSV(w, report)
	case "table":
		return writeConditionTable(w, report)
	default:
		return eris.Errorf("condition: unsupported format %q", format)
	}
}

func writeConditionCSV(w *os.File, report conditionReport) error {
	cw := csv.NewWriter(w)
	defer cw.Flush()

	header := []string{"building_id", "system_code", "ci", "rating", "components", "total_weight"}
	if err := cw.Write(header); err != nil {
		return eris.Wrap(err, "condition: write CSV header")
	}

	for _, b := range report.Buildings {
		for _, s := range b.Systems {
			row := []string{
				b.Building.BuildingID,
				s.SystemCode,
				fmt.Sprintf("%.2f", s.CI),
				condition.Rating(s.CI),
				fmt.Sprintf("%d", s.ComponentCount),
				fmt.Sprintf("%.2f", s.TotalWeight),
			}
			if err := cw.Write(row); err != nil {
				return eris.Wrap(err, "condition: write CSV row")
			}
		}
		row := []string{
			b.Building.BuildingID,
			"(all)",
			fmt.Sprintf("%.2f", b.Building.CI),
			condition.Rating(b.Building.CI),
			fmt.Sprintf("%d", b.Building.ComponentCount),
			fmt.Sprintf("%.2f", b.Building.TotalWeight),
		}
		if err := cw.Write(row); err != nil {
			return eris.Wrap(err, "condition: write CSV row")
		}
	}

	return cw.Write([]string{"(portfolio)", "", fmt.Sprintf("%.2f", report.PortfolioCI), condition.Rating(report.PortfolioCI), "", ""})
}

func writeConditionTable(w *os.File, report conditionReport) error {
	header := fmt.Sprintf("%-20s %-12s %8s %-10s %6s %15s\n",
		"Building", "System", "CI", "Rating", "Comps", "Weight")
	if _, err := fmt.Fprint(w, header); err != nil {
		return eris.Wrap(err, "condition: write table header")
	}
	if _, err := fmt.Fprintln(w, strings.Repeat("-", 76)); err != nil {
		return eris.Wrap(err, "condition: write table separator")
	}

	for _, b := range report.Buildings {
		for _, s := range b.Systems {
			line := fmt.Sprintf("%-20s %-12s %8.2f %-10s %6d %15.2f\n",
				b.Building.BuildingID, s.SystemCode, s.CI, condition.Rating(s.CI), s.ComponentCount, s.TotalWeight)
			if _, err := fmt.Fprint(w, line); err != nil {
				return eris.Wrap(err, "condition: write table row")
			}
		}
		line := fmt.Sprintf("%-20s %-12s %8.2f %-10s %6d %15.2f\n",
			b.Building.BuildingID, "(all)", b.Building.CI, condition.Rating(b.Building.CI),
			b.Building.ComponentCount, b.Building.TotalWeight)
		if _, err := fmt.Fprint(w, line); err != nil {
			return eris.Wrap(err, "condition: write table row")
		}
	}

	_, err := fmt.Fprintf(w, "\nPortfolio CI: %.2f (%s)\n", report.PortfolioCI, condition.Rating(report.PortfolioCI))
	return err
}
