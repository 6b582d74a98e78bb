package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/nielle003/patient-record/internal/app"
)

func newBackupCommand(globals *GlobalOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "backup",
		Short: "Export and import table data",
	}
	cmd.AddCommand(newBackupExportCommand(globals))
	cmd.AddCommand(newBackupExportAllCommand(globals))
	cmd.AddCommand(newBackupImportCommand(globals))
	cmd.AddCommand(newBackupWorkbookCommand(globals))
	return cmd
}

func newBackupExportCommand(globals *GlobalOptions) *cobra.Command {
	var dir string

	cmd := &cobra.Command{
		Use:   "export <table>",
		Short: "Export one table to a timestamped CSV file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			table := args[0]

			rt, err := openRuntime(globals)
			if err != nil {
				return mapCommandError(err)
			}
			defer rt.Close()

			text, err := rt.Backup.ExportTable(cmd.Context(), table)
			if err != nil {
				return mapCommandError(err)
			}

			target := dir
			if target == "" {
				target = rt.Config.Backup.Dir
			}
			if err := os.MkdirAll(target, 0o700); err != nil {
				return asExitError(ExitCodeIO, fmt.Errorf("create backup dir: %w", err))
			}

			name := app.ExportFileName(table, app.BackupTimestamp(time.Now()))
			path := filepath.Join(target, name)
			if err := os.WriteFile(path, []byte(text), 0o600); err != nil {
				return asExitError(ExitCodeIO, fmt.Errorf("write %s: %w", path, err))
			}
			fmt.Fprintf(cmd.OutOrStdout(), "exported %s to %s\n", table, path)
			return nil
		},
	}
	cmd.Flags().StringVar(&dir, "dir", "", "Target directory (defaults to the configured backup dir)")
	return cmd
}

func newBackupExportAllCommand(globals *GlobalOptions) *cobra.Command {
	var dir string

	cmd := &cobra.Command{
		Use:   "export-all",
		Short: "Export every table into a timestamped backup folder",
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := openRuntime(globals)
			if err != nil {
				return mapCommandError(err)
			}
			defer rt.Close()

			target := dir
			if target == "" {
				target = rt.Config.Backup.Dir
			}

			manifest, err := rt.Backup.ExportAll(cmd.Context(), target)
			if err != nil {
				return mapCommandError(err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "backup %s written to %s\n", manifest.BatchID, manifest.Directory)
			for name := range manifest.Files {
				fmt.Fprintf(cmd.OutOrStdout(), "  %s\n", name)
			}
			for table, reason := range manifest.Skipped {
				fmt.Fprintf(cmd.OutOrStdout(), "  skipped %s: %s\n", table, reason)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&dir, "dir", "", "Target directory (defaults to the configured backup dir)")
	return cmd
}

func newBackupImportCommand(globals *GlobalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "import <file>...",
		Short: "Import CSV backup files, resolving the table from each file name",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := openRuntime(globals)
			if err != nil {
				return mapCommandError(err)
			}
			defer rt.Close()

			failed := false
			for _, path := range args {
				result, err := rt.Backup.ImportFile(cmd.Context(), path)
				if err != nil {
					return mapCommandError(err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s: imported %d rows into %s\n", filepath.Base(path), result.Imported, result.Table)
				if result.Failed > 0 {
					failed = true
					fmt.Fprintf(cmd.OutOrStdout(), "%s: %d rows failed\n", filepath.Base(path), result.Failed)
					for _, msg := range result.Errors {
						fmt.Fprintf(cmd.OutOrStdout(), "  %s\n", msg)
					}
				}
			}
			if failed {
				return &ExitError{Code: ExitCodeGeneric, Err: fmt.Errorf("some rows failed to import")}
			}
			return nil
		},
	}
}

func newBackupWorkbookCommand(globals *GlobalOptions) *cobra.Command {
	var out string

	cmd := &cobra.Command{
		Use:   "workbook",
		Short: "Export all tables into a single XLSX workbook",
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := openRuntime(globals)
			if err != nil {
				return mapCommandError(err)
			}
			defer rt.Close()

			path := out
			if path == "" {
				stamp := app.BackupTimestamp(time.Now())
				path = filepath.Join(rt.Config.Backup.Dir, "patient_records_"+stamp+".xlsx")
			}
			if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
				return asExitError(ExitCodeIO, fmt.Errorf("create backup dir: %w", err))
			}

			if err := rt.Backup.ExportWorkbook(cmd.Context(), path); err != nil {
				return mapCommandError(err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "workbook written to %s\n", path)
			return nil
		},
	}
	cmd.Flags().StringVar(&out, "out", "", "Output file (defaults to a timestamped file in the backup dir)")
	return cmd
}
