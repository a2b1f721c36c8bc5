package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"audioscribe/internal/deps"
	"audioscribe/internal/language"
	"audioscribe/internal/preflight"
	"audioscribe/internal/services"
)

func newDepsCommand(ctx *commandContext) *cobra.Command {
	var checkAPI bool
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "deps",
		Short: "Check external tools, directories and API access",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			statuses := preflight.CheckSystemDeps(cmd.Context(), cfg, services.ExecRunner{})
			checks := preflight.RunAll(cmd.Context(), cfg, checkAPI)

			missing := deps.MissingRequired(statuses)
			failed := preflight.Failed(checks)

			if jsonOutput {
				if err := writeJSON(cmd, map[string]any{
					"dependencies": statuses,
					"checks":       checks,
					"language":     cfg.Transcription.Language,
					"model":        cfg.Transcription.Model,
				}); err != nil {
					return err
				}
			} else {
				out := cmd.OutOrStdout()
				colorize := shouldColorize(out)
				lines := renderSectionHeader("Dependencies", colorize)
				for _, status := range statuses {
					lines = append(lines, renderDependencyLine(status, colorize))
				}
				lines = append(lines, "")
				lines = append(lines, renderSectionHeader("Environment", colorize)...)
				for _, check := range checks {
					kind := statusOK
					if !check.Passed {
						kind = statusError
					}
					lines = append(lines, renderStatusLine(check.Name, kind, check.Detail, colorize))
				}
				lang := fmt.Sprintf("%s (%s)", language.DisplayName(cfg.Transcription.Language), cfg.Transcription.Language)
				lines = append(lines, renderStatusLine("Language", statusInfo, lang, colorize))
				lines = append(lines, renderStatusLine("Model", statusInfo, cfg.Transcription.Model, colorize))
				fmt.Fprintln(out, strings.Join(lines, "\n"))
			}

			if len(missing) > 0 || len(failed) > 0 {
				return services.Wrap(services.ErrConfiguration, "deps", "",
					fmt.Sprintf("%d required dependencies missing, %d checks failed", len(missing), len(failed)), nil)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&checkAPI, "check-api", false, "Also call the transcription API to verify the key")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Write results as JSON")
	return cmd
}

func renderDependencyLine(status deps.Status, colorize bool) string {
	switch {
	case status.Available:
		detail := status.Path
		if detail == "" {
			detail = status.Description
		}
		return renderStatusLine(status.Name, statusOK, detail, colorize)
	case status.Optional:
		return renderStatusLine(status.Name, statusWarn, status.Detail+" (optional)", colorize)
	default:
		return renderStatusLine(status.Name, statusError, status.Detail, colorize)
	}
}
