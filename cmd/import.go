package main

import (
	"fmt"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/meridian-fm/assetcond/internal/importer"
)

var (
	importCSVPath  string
	importXLSXPath string
)

var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Import assessment records from CSV or XLSX",
	Long: `Imports field assessment rows into the store. Invalid rows are
reported with their row number and skipped; the rest of the batch imports.

Expected columns:
  project_id, building_id, system_code, component_code, condition_label,
  age, assessed_at (YYYY-MM-DD), observations, estimated_repair_cost`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		if (importCSVPath == "") == (importXLSXPath == "") {
			return eris.New("import: exactly one of --csv or --xlsx is required")
		}

		st, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		im := importer.New(st)

		var result *importer.Result
		if importCSVPath != "" {
			result, err = im.ImportCSVFile(ctx, importCSVPath)
		} else {
			result, err = im.ImportXLSX(ctx, importXLSXPath)
		}
		if err != nil {
			return err
		}

		for _, re := range result.RowErrors {
			fmt.Printf("row %d: %s\n", re.Row, re.Err)
		}
		fmt.Printf("Imported %d assessments (%d rows skipped)\n",
			result.Imported, len(result.RowErrors))

		zap.L().Info("import: complete",
			zap.Int("imported", result.Imported),
			zap.Int("skipped", len(result.RowErrors)),
			zap.String("file", strings.TrimSpace(importCSVPath+importXLSXPath)),
		)
		return nil
	},
}

func init() {
	importCmd.Flags().StringVar(&importCSVPath, "csv", "", "path to CSV file")
	importCmd.Flags().StringVar(&importXLSXPath, "xlsx", "", "path to XLSX workbook")
	rootCmd.AddCommand(importCmd)
}
