package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"echoes/internal/preflight"
)

func newDoctorCommand(ctx *commandContext) *cobra.Command {
	var online bool
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "doctor",
		Short: "Check binaries, directories and backend credentials",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			results := preflight.RunAll(cmd.Context(), cfg, preflight.Options{Online: online})
			failed := preflight.Failed(results)

			if jsonOut {
				type row struct {
					Name          string `json:"name"`
					Passed        bool   `json:"passed"`
					Informational bool   `json:"informational"`
					Detail        string `json:"detail"`
				}
				rows := make([]row, 0, len(results))
				for _, r := range results {
					rows = append(rows, row{r.Name, r.Passed, r.Informational, r.Detail})
				}
				if err := writeJSON(cmd, map[string]any{"config": ctx.configPath, "checks": rows}); err != nil {
					return err
				}
			} else {
				out := cmd.OutOrStdout()
				color := isTerminal(out)
				rows := make([][]string, 0, len(results))
				for _, r := range results {
					rows = append(rows, []string{r.Name, statusLabel(checkStatus(r), color), r.Detail})
				}
				fmt.Fprintf(out, "Config: %s\n", ctx.configPath)
				fmt.Fprintln(out, renderTable([]string{"Check", "Status", "Detail"}, rows, nil))
			}

			if len(failed) > 0 {
				return fmt.Errorf("doctor found %d problem(s)", len(failed))
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&online, "online", false, "Also contact the summarization API to verify the key")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Emit results as JSON")
	return cmd
}

func checkStatus(r preflight.Result) string {
	switch {
	case r.Passed:
		return "ok"
	case r.Informational:
		return "off"
	default:
		return "FAIL"
	}
}
