package nutrilog

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/saadjs/nutrilog/internal/app"
	"github.com/saadjs/nutrilog/internal/domain"
	"github.com/saadjs/nutrilog/internal/service"
)

var (
	backupOut     string
	backupDir     string
	backupJSON    bool
	restoreFile   string
	restoreLatest bool
	restoreForce  bool
)

var backupCmd = &cobra.Command{
	Use:   "backup",
	Short: "Copy, list and restore nutrilog database files",
}

var backupCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Write a checksummed copy of the database",
	RunE: func(cmd *cobra.Command, args []string) error {
		dbFile, err := resolveDBPath()
		if err != nil {
			return err
		}
		target := backupOut
		if target == "" {
			target = filepath.Join(backupDirFor(dbFile), app.BackupFileName(time.Now().UTC()))
		}
		info, err := service.CreateBackup(dbFile, target)
		if err != nil {
			return err
		}
		w := cmd.OutOrStdout()
		fmt.Fprintf(w, "Created backup: %s\n", info.Path)
		fmt.Fprintf(w, "Checksum: %s\n", info.Checksum)
		return nil
	},
}

var backupListCmd = &cobra.Command{
	Use:   "list",
	Short: "List backups, newest first",
	RunE: func(cmd *cobra.Command, args []string) error {
		dbFile, err := resolveDBPath()
		if err != nil {
			return err
		}
		backups, err := service.ListBackups(backupDirFor(dbFile))
		if err != nil {
			return err
		}
		if backupJSON {
			return printJSON(cmd.OutOrStdout(), backups)
		}
		w := cmd.OutOrStdout()
		fmt.Fprintln(w, "FILE\tSIZE\tCREATED\tCHECKSUM")
		for _, b := range backups {
			fmt.Fprintf(w, "%s\t%d\t%s\t%s\n", b.Path, b.SizeBytes, b.CreatedAt.UTC().Format(time.RFC3339), b.Checksum)
		}
		return nil
	},
}

var backupRestoreCmd = &cobra.Command{
	Use:     "restore",
	Short:   "Replace the database with a backup",
	Example: `  nutrilog backup restore --latest --force`,
	RunE: func(cmd *cobra.Command, args []string) error {
		dbFile, err := resolveDBPath()
		if err != nil {
			return err
		}
		source, err := restoreSource(dbFile)
		if err != nil {
			return err
		}
		if err := service.RestoreBackup(source, dbFile, restoreForce); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Restored %s to %s\n", source, dbFile)
		return nil
	},
}

func backupDirFor(dbFile string) string {
	if backupDir != "" {
		return backupDir
	}
	return app.BackupDir(dbFile)
}

func restoreSource(dbFile string) (string, error) {
	switch {
	case restoreFile != "" && restoreLatest:
		return "", domain.Validationf("use either --file or --latest, not both")
	case restoreFile != "":
		return restoreFile, nil
	case !restoreLatest:
		return "", domain.Validationf("--file or --latest is required")
	}
	backups, err := service.ListBackups(backupDirFor(dbFile))
	if err != nil {
		return "", err
	}
	if len(backups) == 0 {
		return "", domain.NotFoundf("no backups in %s", backupDirFor(dbFile))
	}
	return backups[0].Path, nil
}

func init() {
	rootCmd.AddCommand(backupCmd)
	backupCmd.AddCommand(backupCreateCmd, backupListCmd, backupRestoreCmd)

	for _, c := range []*cobra.Command{backupCreateCmd, backupListCmd, backupRestoreCmd} {
		c.Flags().StringVar(&backupDir, "dir", "", "Backup directory (default: backups/ next to the database)")
	}
	backupCreateCmd.Flags().StringVar(&backupOut, "out", "", "Backup file (overrides --dir)")
	backupListCmd.Flags().BoolVar(&backupJSON, "json", false, "Output JSON")
	backupRestoreCmd.Flags().StringVar(&restoreFile, "file", "", "Backup file to restore")
	backupRestoreCmd.Flags().BoolVar(&restoreLatest, "latest", false, "Restore the newest backup in --dir")
	backupRestoreCmd.Flags().BoolVar(&restoreForce, "force", false, "Overwrite an existing database")
}
