package report

import (
	"fmt"

	"github.com/xuri/excelize/v2"

	"echoes/internal/fileutil"
	"echoes/internal/workflow"
)

const (
	sheetSummary      = "Summary"
	sheetKeyPoints    = "Key Points"
	sheetActionItems  = "Action Items"
	sheetTasks        = "Tasks"
	sheetIntegrations = "Integrations"
)

func writeXLSX(path string, result *workflow.Result) error {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if err := f.SetSheetName("Sheet1", sheetSummary); err != nil {
		return fmt.Errorf("xlsx: %w", err)
	}
	summaryRows := [][]any{
		{"Field", "Value"},
		{"Run ID", result.RunID},
		{"Source", result.Source},
		{"Summary", result.Summary},
		{"Transcript", result.Transcript},
		{"Tasks", integrationDetail(result, workflow.StepTasks)},
		{"Follow-up", integrationDetail(result, workflow.StepFollowup)},
	}
	if result.CalendarEvent != nil {
		summaryRows = append(summaryRows, []any{"Follow-up event", result.CalendarEvent.ID})
	}
	if err := fillSheet(f, sheetSummary, summaryRows); err != nil {
		return err
	}
	_ = f.SetColWidth(sheetSummary, "A", "A", 18)
	_ = f.SetColWidth(sheetSummary, "B", "B", 100)

	points := [][]any{{"#", "Key point"}}
	for i, point := range result.KeyPoints {
		points = append(points, []any{i + 1, point})
	}
	if err := addSheet(f, sheetKeyPoints, points); err != nil {
		return err
	}

	items := [][]any{{"Action", "Priority", "Context"}}
	for _, item := range result.ActionItems {
		items = append(items, []any{item.Action, string(item.Priority), item.Context})
	}
	if err := addSheet(f, sheetActionItems, items); err != nil {
		return err
	}

	tasks := [][]any{{"ID", "Status", "Title", "Priority"}}
	for _, task := range result.Tasks {
		tasks = append(tasks, []any{task.ID, task.Status, task.Title, task.Priority})
	}
	if err := addSheet(f, sheetTasks, tasks); err != nil {
		return err
	}

	integrations := [][]any{{"Step", "Status", "Detail"}}
	for _, in := range result.Integrations {
		integrations = append(integrations, []any{in.Step, string(in.Status), in.Detail})
	}
	if err := addSheet(f, sheetIntegrations, integrations); err != nil {
		return err
	}

	return fileutil.WriteViaTemp(path, 0o644, func(tmp string) error {
		if err := f.SaveAs(tmp); err != nil {
			return fmt.Errorf("xlsx: save: %w", err)
		}
		return nil
	})
}

func addSheet(f *excelize.File, name string, rows [][]any) error {
	if _, err := f.NewSheet(name); err != nil {
		return fmt.Errorf("xlsx: new sheet %s: %w", name, err)
	}
	return fillSheet(f, name, rows)
}

func fillSheet(f *excelize.File, sheet string, rows [][]any) error {
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return fmt.Errorf("xlsx: %w", err)
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("xlsx: %s row %d: %w", sheet, i+1, err)
		}
	}
	return nil
}
