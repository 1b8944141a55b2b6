package cli

import (
	"fmt"
	"time"

	"github.com/sadopc/cmdvault/internal/bundle"
	"github.com/sadopc/cmdvault/internal/store"
	"github.com/spf13/cobra"
)

func (a *app) importCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "import <file-or-glob>...",
		Short: "Import bundles; globs such as 'backups/**/*.json' are expanded",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			failures := 0
			report := func(path string, r bundle.Result) {
				if r.Success {
					printOK(out, "%s: %d projects, %d commands, %d skipped", path, r.Projects, r.Commands, r.Skipped)
					return
				}
				failures++
				errorColor.Fprintf(out, "✗ %s: %s\n", path, r.Error)
			}

			for _, arg := range args {
				dir, pattern, ok := bundle.SplitGlob(arg)
				if !ok {
					report(arg, bundle.ImportFile(a.fs, a.store, arg))
					continue
				}
				results, err := bundle.ImportGlob(a.fs, a.store, dir, pattern)
				if err != nil {
					return err
				}
				if len(results) == 0 {
					printWarn(out, "%s matched no files", arg)
				}
				for _, r := range results {
					report(r.Path, r.Result)
				}
			}
			if failures > 0 {
				return fmt.Errorf("%d import(s) failed", failures)
			}
			return nil
		},
	}
}

func (a *app) exportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "export [path]",
		Short: "Export projects and commands with a code-index to a bundle",
		Long: `Export projects and commands to a JSON bundle. Without a path the bundle
is written to a timestamped file in the configured exportPath.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var path string
			if len(args) == 1 {
				path = args[0]
				if err := bundle.ExportFile(a.fs, a.store, path); err != nil {
					return err
				}
			} else {
				dir, err := a.store.GetSetting(store.ExportPathKey)
				if err != nil {
					return err
				}
				path, err = bundle.ExportToDir(a.fs, a.store, dir)
				if err != nil {
					return err
				}
			}
			printOK(cmd.OutOrStdout(), "exported to %s", path)
			return nil
		},
	}
}

func (a *app) historyCmd() *cobra.Command {
	var limit int
	var commandRef, csvPath string

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recent runs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			f := store.RunFilter{Limit: limit}
			if commandRef != "" {
				c, err := resolveCommand(a.store, commandRef)
				if err != nil {
					return err
				}
				f.CommandID = &c.ID
			}
			runs, err := a.store.ListRuns(f)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()

			if csvPath != "" {
				if err := bundle.RunsToCSV(a.fs, csvPath, runs); err != nil {
					return err
				}
				printOK(out, "wrote %d runs to %s", len(runs), csvPath)
				return nil
			}

			if len(runs) == 0 {
				fmt.Fprintln(out, "No runs yet.")
				return nil
			}
			for _, r := range runs {
				status := okColor.Sprint("ok  ")
				if !r.OK {
					status = errorColor.Sprintf("%-4d", r.ExitCode)
				}
				fmt.Fprintf(out, "%s  %s  %-20s %8s  %s\n",
					r.StartedAt.Local().Format("2006-01-02 15:04"),
					status,
					truncate(orDash(r.CommandName), 20),
					r.Duration.Round(time.Millisecond),
					truncate(r.Rendered, 60))
			}
			return nil
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "number of runs to show (0 for all)")
	cmd.Flags().StringVarP(&commandRef, "command", "c", "", "only runs of this command")
	cmd.Flags().StringVar(&csvPath, "csv", "", "write the runs to a CSV file instead")
	return cmd
}
