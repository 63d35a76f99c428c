package report

import (
	"bytes"
	"fmt"

	"quiz-attempt-service/internal/domain"

	"github.com/xuri/excelize/v2"
)

const timeLayout = "2006-01-02 15:04:05"

// AttemptsExcel renders every attempt of the quiz as one spreadsheet row.
// Unsubmitted attempts leave the result columns empty.
func AttemptsExcel(quiz domain.QuizSummary, attempts []domain.Attempt) ([]byte, error) {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	sheet := "Attempts"
	if err := f.SetSheetName(f.GetSheetName(0), sheet); err != nil {
		return nil, fmt.Errorf("rename sheet: %w", err)
	}

	_ = f.SetCellValue(sheet, "A1", quiz.Title)
	_ = f.SetCellValue(sheet, "B1", quiz.Subject)
	_ = f.SetCellValue(sheet, "C1", fmt.Sprintf("%d min", quiz.DurationMinutes))

	headers := []string{"attempt_id", "name", "status", "started_at", "submitted_at", "total", "correct", "wrong", "score"}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 2)
		_ = f.SetCellValue(sheet, cell, h)
	}
	if style, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}}); err == nil {
		_ = f.SetCellStyle(sheet, "A1", "I2", style)
	}

	for i, a := range attempts {
		row := i + 3
		values := []any{
			a.ID,
			a.Name,
			a.Status(),
			a.StartedAt.UTC().Format(timeLayout),
		}
		if a.SubmittedAt != nil && a.Result != nil {
			values = append(values,
				a.SubmittedAt.UTC().Format(timeLayout),
				a.Result.Total,
				a.Result.Correct,
				a.Result.Wrong,
				a.Result.Score,
			)
		}
		for col, v := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, row)
			_ = f.SetCellValue(sheet, cell, v)
		}
	}
	_ = f.SetColWidth(sheet, "A", "A", 38)
	_ = f.SetColWidth(sheet, "B", "E", 22)

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, fmt.Errorf("write excel: %w", err)
	}
	return buf.Bytes(), nil
}
