package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"audioscribe/internal/staging"
)

func newCleanCommand(ctx *commandContext) *cobra.Command {
	var olderThan time.Duration
	var listOnly bool
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "clean",
		Short: "Remove leftover run workspaces",
		Long: `Remove run workspaces left under paths.work_dir.

Runs delete their own workspace on exit, so leftovers only appear after a
crash or kill -9. Workspaces whose lock is still held by a live run are never
touched.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()

			if listOnly {
				dirs, err := staging.ListDirectories(cfg.Paths.WorkDir)
				if err != nil {
					return fmt.Errorf("list workspaces: %w", err)
				}
				if jsonOutput {
					if dirs == nil {
						dirs = []staging.DirInfo{}
					}
					return writeJSON(cmd, map[string]any{
						"work_dir":    cfg.Paths.WorkDir,
						"directories": dirs,
					})
				}
				if len(dirs) == 0 {
					fmt.Fprintln(out, "No workspaces found")
					return nil
				}
				var total int64
				rows := make([][]string, 0, len(dirs))
				for _, dir := range dirs {
					total += dir.Size
					rows = append(rows, []string{
						dir.Name,
						formatAge(time.Since(dir.ModTime).Truncate(time.Minute)),
						formatBytes(dir.Size),
						yesNo(dir.Locked),
					})
				}
				fmt.Fprintf(out, "Work directory: %s\n\n", cfg.Paths.WorkDir)
				fmt.Fprint(out, renderTable(
					[]string{"Workspace", "Age", "Size", "In use"},
					rows,
					[]columnAlignment{alignLeft, alignRight, alignRight, alignLeft},
				))
				fmt.Fprintf(out, "\nTotal: %d workspaces, %s\n", len(dirs), formatBytes(total))
				return nil
			}

			logger, err := ctx.ensureLogger()
			if err != nil {
				return err
			}
			result := staging.CleanStale(cmd.Context(), cfg.Paths.WorkDir, olderThan, logger)

			if jsonOutput {
				errs := make([]string, 0, len(result.Errors))
				for _, e := range result.Errors {
					errs = append(errs, e.Path+": "+e.Error.Error())
				}
				removed := result.Removed
				if removed == nil {
					removed = []string{}
				}
				return writeJSON(cmd, map[string]any{
					"removed": removed,
					"busy":    result.Busy,
					"errors":  errs,
				})
			}

			fmt.Fprintf(out, "Removed %d workspaces\n", len(result.Removed))
			if len(result.Busy) > 0 {
				fmt.Fprintf(out, "Skipped %d workspaces in use\n", len(result.Busy))
			}
			for _, e := range result.Errors {
				fmt.Fprintf(out, "Failed to remove %s: %v\n", e.Path, e.Error)
			}
			if len(result.Errors) > 0 {
				return fmt.Errorf("clean: %d workspaces could not be removed", len(result.Errors))
			}
			return nil
		},
	}

	cmd.Flags().DurationVar(&olderThan, "older-than", time.Hour, "Only remove workspaces last modified before this age")
	cmd.Flags().BoolVar(&listOnly, "list", false, "List workspaces instead of removing them")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Write results as JSON")
	return cmd
}
