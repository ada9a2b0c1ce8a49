package main

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/meridian-fm/assetcond/internal/model"
	"github.com/meridian-fm/assetcond/internal/priority"
)

var criteriaCmd = &cobra.Command{
	Use:   "criteria",
	Short: "Manage prioritization criteria and scores",
}

var criteriaListCmd = &cobra.Command{
	Use:   "list",
	Short: "List criteria and their weights",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		all, _ := cmd.Flags().GetBool("all")

		st, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		criteria, err := st.ListCriteria(ctx, !all)
		if err != nil {
			return err
		}

		fmt.Printf("%-20s %-35s %8s %8s\n", "ID", "Name", "Weight", "Active")
		fmt.Println(strings.Repeat("-", 74))
		for _, c := range criteria {
			fmt.Printf("%-20s %-35s %8.1f %8v\n", c.ID, c.Name, c.Weight, c.IsActive)
		}

		sum := priority.ValidateCriteria(activeOnly(criteria))
		fmt.Printf("\nActive weight total: %.1f\n", sum)
		return nil
	},
}

var criteriaFilePath string

var criteriaLoadCmd = &cobra.Command{
	Use:   "load",
	Short: "Load criteria definitions from a YAML file",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		criteria, err := loadCriteriaFile(criteriaFilePath)
		if err != nil {
			return err
		}

		st, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		for _, c := range criteria {
			if err := st.UpsertCriterion(ctx, c); err != nil {
				return eris.Wrapf(err, "criteria: upsert %s", c.ID)
			}
		}

		sum := priority.ValidateCriteria(activeOnly(criteria))
		zap.L().Info("criteria: load complete",
			zap.Int("criteria", len(criteria)),
			zap.Float64("active_weight_total", sum),
			zap.String("file", criteriaFilePath),
		)
		return nil
	},
}

var criteriaScoreCmd = &cobra.Command{
	Use:   "score <project-id> <criteria-id> <score>",
	Short: "Record a 0-10 score for a project against one criterion",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		var score float64
		if _, err := fmt.Sscanf(args[2], "%f", &score); err != nil {
			return eris.Errorf("criteria: invalid score %q", args[2])
		}
		if score < 0 || score > 10 {
			return eris.Errorf("criteria: score must be between 0 and 10 (got %.2f)", score)
		}

		scoredBy, _ := cmd.Flags().GetString("by")

		st, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		sc := model.CriteriaScore{
			ProjectID:  args[0],
			CriteriaID: args[1],
			Score:      score,
			ScoredBy:   scoredBy,
			ScoredAt:   time.Now().UTC(),
		}
		if err := st.UpsertScore(ctx, sc); err != nil {
			return err
		}

		zap.L().Info("criteria: score recorded",
			zap.String("project_id", sc.ProjectID),
			zap.String("criteria_id", sc.CriteriaID),
			zap.Float64("score", sc.Score),
		)
		return nil
	},
}

var criteriaDeactivateCmd = &cobra.Command{
	Use:   "deactivate <criteria-id>",
	Short: "Exclude a criterion from composite scoring without deleting it",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		st, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		if err := st.DeactivateCriterion(ctx, args[0]); err != nil {
			return err
		}

		zap.L().Info("criteria: deactivated", zap.String("criteria_id", args[0]))
		return nil
	},
}

func init() {
	criteriaLoadCmd.Flags().StringVar(&criteriaFilePath, "file", "", "path to YAML criteria file (required)")
	_ = criteriaLoadCmd.MarkFlagRequired("file")

	criteriaListCmd.Flags().Bool("all", false, "include inactive criteria")
	criteriaScoreCmd.Flags().String("by", "", "who assigned the score")

	criteriaCmd.AddCommand(criteriaListCmd, criteriaLoadCmd, criteriaScoreCmd, criteriaDeactivateCmd)
	rootCmd.AddCommand(criteriaCmd)
}

// criteriaFile is the YAML shape accepted by 'criteria load'.
type criteriaFile struct {
	Criteria []struct {
		ID     string  `yaml:"id"`
		Name   string  `yaml:"name"`
		Weight float64 `yaml:"weight"`
		Active *bool   `yaml:"active"`
	} `yaml:"criteria"`
}

// loadCriteriaFile parses criteria definitions. Criteria default to
// active unless the file says otherwise.
func loadCriteriaFile(path string) ([]model.Criterion, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "criteria: read %s", path)
	}

	var file criteriaFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, eris.Wrap(err, "criteria: parse YAML")
	}
	if len(file.Criteria) == 0 {
		return nil, eris.New("criteria: file defines no criteria")
	}

	out := make([]model.Criterion, 0, len(file.Criteria))
	for _, c := range file.Criteria {
		if c.ID == "" {
			return nil, eris.New("criteria: every criterion needs an id")
		}
		if c.Weight < 0 {
			return nil, eris.Errorf("criteria: %s has negative weight %.1f", c.ID, c.Weight)
		}
		active := true
		if c.Active != nil {
			active = *c.Active
		}
		out = append(out, model.Criterion{
			ID:       c.ID,
			Name:     c.Name,
			Weight:   c.Weight,
			IsActive: active,
		})
	}
	return out, nil
}

func activeOnly(criteria []model.Criterion) []model.Criterion {
	out := make([]model.Criterion, 0, len(criteria))
	for _, c := range criteria {
		if c.IsActive {
			out = append(out, c)
		}
	}
	return out
}
