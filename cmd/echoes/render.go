package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/mattn/go-isatty"

	"echoes/internal/workflow"
)

// isTerminal reports whether w is an interactive terminal.
func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

func renderResult(result *workflow.Result, color bool) string {
	var b strings.Builder
	heading := func(s string) string {
		if color {
			return text.Colors{text.Bold}.Sprint(s)
		}
		return s
	}

	fmt.Fprintln(&b, heading("Summary"))
	fmt.Fprintln(&b, result.Summary)

	if len(result.KeyPoints) > 0 {
		fmt.Fprintln(&b)
		fmt.Fprintln(&b, heading("Key points"))
		for _, point := range result.KeyPoints {
			fmt.Fprintf(&b, "  • %s\n", point)
		}
	}

	fmt.Fprintln(&b)
	fmt.Fprintln(&b, heading(fmt.Sprintf("Action items (%d)", len(result.ActionItems))))
	if len(result.ActionItems) > 0 {
		rows := make([][]string, 0, len(result.ActionItems))
		for _, item := range result.ActionItems {
			rows = append(rows, []string{item.Action, string(item.Priority), truncate(item.Context, 70)})
		}
		b.WriteString(renderTable([]string{"Action", "Priority", "Context"}, rows, nil))
		b.WriteString("\n")
	}

	if len(result.Integrations) > 0 {
		fmt.Fprintln(&b)
		rows := make([][]string, 0, len(result.Integrations))
		for _, in := range result.Integrations {
			rows = append(rows, []string{in.Step, statusLabel(string(in.Status), color), in.Detail})
		}
		b.WriteString(renderTable([]string{"Integration", "Status", "Detail"}, rows, nil))
		b.WriteString("\n")
	}
	return b.String()
}

func statusLabel(status string, color bool) string {
	if !color {
		return status
	}
	switch status {
	case "completed", "ok":
		return text.FgGreen.Sprint(status)
	case "failed", "FAIL":
		return text.FgRed.Sprint(status)
	default:
		return text.FgYellow.Sprint(status)
	}
}

func truncate(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit-1]) + "…"
}
