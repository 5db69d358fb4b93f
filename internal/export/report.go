// Package export renders the batch run report workbook.
package export

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/tsaito/scannote/internal/processor"
)

type Service struct {
	logger *slog.Logger
}

func NewService(logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{logger: logger}
}

// BuildRunReportXLSX returns an XLSX workbook (as bytes) with one row per
// artifact seen by the batch: where its note went, the resolved category,
// and the outcome.
func (s *Service) BuildRunReportXLSX(results []processor.Result, startedAt time.Time) ([]byte, error) {
	f := excelize.NewFile()
	const sheet = "Run Report"
	if index, _ := f.GetSheetIndex(sheet); index == -1 {
		if _, err := f.NewSheet(sheet); err != nil {
			return nil, err
		}
	}
	activeIndex, _ := f.GetSheetIndex(sheet)
	f.SetActiveSheet(activeIndex)
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return nil, err
	}

	headers := []string{
		"Source Artifact",
		"Note Path",
		"Copied Artifact",
		"Category",
		"Status",
		"Error",
	}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(sheet, cell, h)
	}

	row := 2
	for _, r := range results {
		write := func(col int, v any) {
			cell, _ := excelize.CoordinatesToCellName(col, row)
			_ = f.SetCellValue(sheet, cell, v)
		}
		write(1, r.SourcePath)
		write(2, r.NotePath)
		write(3, r.CopyPath)
		write(4, r.Category)
		write(5, r.Status)
		write(6, r.Err)
		row++
	}

	// A small footer with run metadata keeps reports self-describing.
	footerCell, _ := excelize.CoordinatesToCellName(1, row+1)
	_ = f.SetCellValue(sheet, footerCell,
		fmt.Sprintf("run started %s, %d artifacts", startedAt.Format(time.RFC3339), len(results)))

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("write workbook: %w", err)
	}
	s.logger.Info("export.report_ok", "rows", len(results))
	return buf.Bytes(), nil
}
