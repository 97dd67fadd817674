// Package export renders the accepted question bank as an XLSX workbook.
package export

import (
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/arjunrs/paperbank/internal/model"
)

// QuestionsXLSX returns a workbook with one row per accepted question,
// marking-scheme columns included.
func QuestionsXLSX(bank model.PaperExport) ([]byte, error) {
	f := excelize.NewFile()
	const sheet = "Questions"
	// Rename the default sheet so the workbook holds exactly one.
	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return nil, err
	}

	headers := []string{
		"Paper",
		"Page",
		"Number",
		"Type",
		"Statement",
		"Options",
		"Has Image",
		"Image Description",
		"Subject",
		"Topic",
		"Difficulty",
		"Correct",
		"Incorrect",
		"Skipped",
		"Partial",
		"Time (s)",
	}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(sheet, cell, h)
	}

	row := 2
	for _, q := range bank.Questions {
		write := func(col int, v any) {
			cell, _ := excelize.CoordinatesToCellName(col, row)
			_ = f.SetCellValue(sheet, cell, v)
		}

		write(1, q.PaperName)
		write(2, q.PageNumber)
		write(3, q.Number)
		write(4, string(q.Type))
		write(5, q.Statement)
		write(6, strings.Join(q.Options, " | "))
		write(7, q.HasImage)
		write(8, q.ImageDesc)
		write(9, q.Subject)
		write(10, q.Topic)
		write(11, q.Difficulty)
		write(12, q.CorrectMarks)
		write(13, q.IncorrectMarks)
		write(14, q.SkippedMarks)
		write(15, q.PartialMarks)
		write(16, q.TimeSeconds)

		row++
	}

	_ = f.SetColWidth(sheet, "A", "A", 24) // paper
	_ = f.SetColWidth(sheet, "E", "E", 60) // statement
	_ = f.SetColWidth(sheet, "F", "F", 40) // options
	_ = f.SetColWidth(sheet, "H", "H", 32) // image description

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("xlsx write: %w", err)
	}
	return buf.Bytes(), nil
}
