package nutrilog

import (
	"database/sql"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/saadjs/nutrilog/internal/domain"
	"github.com/saadjs/nutrilog/internal/service"
)

var (
	exportFormat string
	exportOut    string
	importIn     string
	importMode   string
	importDryRun bool
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export local data (json snapshot or csv day log)",
	Long: "json writes a full snapshot of every user's data that `nutrilog import` reads back. " +
		"csv writes one row per meal or fake meal linked to a day, for the active user.",
	RunE: func(cmd *cobra.Command, args []string) error {
		switch strings.ToLower(strings.TrimSpace(exportFormat)) {
		case "json":
			return withDB(func(sqldb *sql.DB) error {
				data, err := service.ExportDataSnapshot(sqldb)
				if err != nil {
					return err
				}
				b, err := json.MarshalIndent(data, "", "  ")
				if err != nil {
					return fmt.Errorf("marshal export json: %w", err)
				}
				return writeExport(cmd, func(w io.Writer) error {
					_, err := w.Write(append(b, '\n'))
					return err
				})
			})
		case "csv":
			return withUser(func(sqldb *sql.DB, userID string) error {
				data, err := service.ExportDataSnapshot(sqldb)
				if err != nil {
					return err
				}
				return writeExport(cmd, func(w io.Writer) error {
					return writeDayCSV(w, sqldb, userID, data.Days)
				})
			})
		default:
			return domain.Validationf("unsupported --format %q (use json or csv)", exportFormat)
		}
	},
}

// writeExport sends output to --out, or stdout when it is empty.
func writeExport(cmd *cobra.Command, write func(io.Writer) error) error {
	if strings.TrimSpace(exportOut) == "" {
		return write(cmd.OutOrStdout())
	}
	f, err := os.Create(exportOut)
	if err != nil {
		return fmt.Errorf("create export file: %w", err)
	}
	if err := write(f); err != nil {
		_ = f.Close()
		return fmt.Errorf("write export file: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close export file: %w", err)
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "Exported data to %s\n", exportOut)
	return nil
}

func writeDayCSV(out io.Writer, sqldb *sql.DB, userID string, days []service.ExportDay) error {
	w := csv.NewWriter(out)
	if err := w.Write([]string{"date", "kind", "id", "name", "calories", "protein_g"}); err != nil {
		return fmt.Errorf("write export csv header: %w", err)
	}
	for _, d := range days {
		if d.UserID != userID {
			continue
		}
		date, err := parseDay(d.Date)
		if err != nil {
			return err
		}
		s, err := service.DaySummary(sqldb, userID, date)
		if err != nil {
			return err
		}
		rows := make([][]string, 0, len(s.Meals)+len(s.FakeMeals))
		for _, m := range s.Meals {
			rows = append(rows, csvRecord(d.Date, "meal", m.ID, m.Name, m.Calories, m.Protein))
		}
		for _, f := range s.FakeMeals {
			rows = append(rows, csvRecord(d.Date, "fake_meal", f.ID, f.Name, f.Calories, f.Protein))
		}
		if err := w.WriteAll(rows); err != nil {
			return fmt.Errorf("write export csv row: %w", err)
		}
	}
	w.Flush()
	return w.Error()
}

func csvRecord(date, kind, id, name string, calories, protein float64) []string {
	return []string{
		date,
		kind,
		id,
		name,
		strconv.FormatFloat(calories, 'f', -1, 64),
		strconv.FormatFloat(protein, 'f', -1, 64),
	}
}

var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Import a json snapshot written by export",
	RunE: func(cmd *cobra.Command, args []string) error {
		if strings.TrimSpace(importIn) == "" {
			return domain.Validationf("--in is required")
		}
		raw, err := os.ReadFile(importIn)
		if err != nil {
			return fmt.Errorf("read import file: %w", err)
		}
		var payload service.ExportData
		if err := json.Unmarshal(raw, &payload); err != nil {
			return domain.Validationf("parse import json: %v", err)
		}
		mode := service.ImportMode(strings.ToLower(strings.TrimSpace(importMode)))
		switch mode {
		case service.ImportModeFail, service.ImportModeSkip, service.ImportModeMerge, service.ImportModeReplace:
		default:
			return domain.Validationf("unsupported --mode %q (use fail, skip, merge or replace)", importMode)
		}
		return withDB(func(sqldb *sql.DB) error {
			report, err := service.ImportDataSnapshotWithOptions(sqldb, &payload, service.ImportOptions{
				Mode:   mode,
				DryRun: importDryRun,
			})
			if err != nil {
				return err
			}
			prefix := "Import report"
			if importDryRun {
				prefix = "Dry run"
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: inserted=%d updated=%d skipped=%d\n", prefix, report.Inserted, report.Updated, report.Skipped)
			for _, w := range report.Warnings {
				fmt.Fprintf(cmd.OutOrStdout(), "warning: %s\n", w)
			}
			return nil
		})
	},
}

func init() {
	rootCmd.AddCommand(exportCmd, importCmd)
	exportCmd.Flags().StringVar(&exportFormat, "format", "json", "Export format: json or csv")
	exportCmd.Flags().StringVar(&exportOut, "out", "", "Output file (default: stdout)")
	importCmd.Flags().StringVar(&importIn, "in", "", "Input json file")
	importCmd.Flags().StringVar(&importMode, "mode", "merge", "On existing records: fail, skip, merge or replace")
	importCmd.Flags().BoolVar(&importDryRun, "dry-run", false, "Validate and count without writing")
}
