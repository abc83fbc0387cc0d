package report

import (
	"fmt"

	"github.com/gomutex/godocx"
	"github.com/gomutex/godocx/docx"

	"echoes/internal/fileutil"
	"echoes/internal/workflow"
)

const (
	docxFont     = "Calibri"
	docxBodySize = 11
)

func writeDOCX(path string, result *workflow.Result) error {
	doc, err := godocx.NewDocument()
	if err != nil {
		return fmt.Errorf("docx: %w", err)
	}

	heading(doc, "Meeting summary", 16)
	body(doc.AddParagraph(""), result.Summary)

	if len(result.KeyPoints) > 0 {
		heading(doc, "Key points", 13)
		for _, point := range result.KeyPoints {
			body(doc.AddParagraph(""), "• "+point)
		}
	}

	heading(doc, "Action items", 13)
	if len(result.ActionItems) == 0 {
		body(doc.AddParagraph(""), "None found.")
	}
	for _, item := range result.ActionItems {
		p := doc.AddParagraph("")
		p.AddText("• " + item.Action).Font(docxFont).Size(docxBodySize).Bold(true)
		p.AddText(fmt.Sprintf(" (%s) ", item.Priority)).Font(docxFont).Size(docxBodySize)
		p.AddText(item.Context).Font(docxFont).Size(docxBodySize)
	}

	if len(result.Tasks) > 0 {
		heading(doc, "Tasks", 13)
		for _, task := range result.Tasks {
			body(doc.AddParagraph(""), fmt.Sprintf("• %s [%s] %s", task.ID, task.Status, task.Title))
		}
	}
	if result.CalendarEvent != nil {
		heading(doc, "Follow-up", 13)
		body(doc.AddParagraph(""), result.CalendarEvent.Summary)
	}

	heading(doc, "Transcript", 13)
	body(doc.AddParagraph(""), result.Transcript)

	footer := doc.AddParagraph("")
	footer.AddText(fmt.Sprintf("Run %s, source %s", result.RunID, result.Source)).Font(docxFont).Size(9).Color("666666")

	return fileutil.WriteViaTemp(path, 0o644, func(tmp string) error {
		if err := doc.SaveTo(tmp); err != nil {
			return fmt.Errorf("docx: save: %w", err)
		}
		return nil
	})
}

func heading(doc *docx.RootDoc, text string, size uint64) {
	doc.AddParagraph("").AddText(text).Font(docxFont).Size(size).Bold(true)
}

func body(p *docx.Paragraph, text string) {
	p.AddText(text).Font(docxFont).Size(docxBodySize).Color("000000")
}
