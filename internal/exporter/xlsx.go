package exporter

import (
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"

	"stockpulse/pkg/contracts/domain"
)

const (
	SheetCorrelations = "Correlations"
	SheetStatistics   = "Statistics"
	SheetReport       = "Report"
)

// XLSXWriter writes a correlation report as an Excel workbook
type XLSXWriter struct{}

// NewXLSXWriter creates a new workbook writer
func NewXLSXWriter() *XLSXWriter {
	return &XLSXWriter{}
}

// Write builds the workbook in memory and streams it to out
func (x *XLSXWriter) Write(out io.Writer, report *domain.CorrelationReport) error {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if err := f.SetSheetName(f.GetSheetName(0), SheetCorrelations); err != nil {
		return fmt.Errorf("failed to name sheet: %w", err)
	}
	for _, name := range []string{SheetStatistics, SheetReport} {
		if _, err := f.NewSheet(name); err != nil {
			return fmt.Errorf("failed to create sheet %s: %w", name, err)
		}
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("failed to create header style: %w", err)
	}

	if err := x.writeCorrelations(f, report, bold); err != nil {
		return err
	}
	if err := x.writeStatistics(f, report, bold); err != nil {
		return err
	}
	if err := x.writeReport(f, report, bold); err != nil {
		return err
	}

	f.SetActiveSheet(0)
	if err := f.Write(out); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

func (x *XLSXWriter) writeCorrelations(f *excelize.File, report *domain.CorrelationReport, bold int) error {
	header := make([]interface{}, 0, len(report.Symbols)+1)
	header = append(header, "symbol")
	for _, s := range report.Symbols {
		header = append(header, s)
	}
	if err := f.SetSheetRow(SheetCorrelations, "A1", &header); err != nil {
		return fmt.Errorf("failed to write correlation header: %w", err)
	}

	for i, a := range report.Symbols {
		row := make([]interface{}, 0, len(report.Symbols)+1)
		row = append(row, a)
		for _, b := range report.Symbols {
			row = append(row, report.Correlations[a][b])
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(SheetCorrelations, cell, &row); err != nil {
			return fmt.Errorf("failed to write correlation row %s: %w", a, err)
		}
	}

	last, err := excelize.CoordinatesToCellName(len(report.Symbols)+1, 1)
	if err != nil {
		return err
	}
	if err := f.SetCellStyle(SheetCorrelations, "A1", last, bold); err != nil {
		return err
	}
	if len(report.Symbols) > 0 {
		lastRow, err := excelize.CoordinatesToCellName(1, len(report.Symbols)+1)
		if err != nil {
			return err
		}
		if err := f.SetCellStyle(SheetCorrelations, "A2", lastRow, bold); err != nil {
			return err
		}
	}
	return nil
}

func (x *XLSXWriter) writeStatistics(f *excelize.File, report *domain.CorrelationReport, bold int) error {
	header := []interface{}{"symbol", "avg", "stdDev"}
	if err := f.SetSheetRow(SheetStatistics, "A1", &header); err != nil {
		return fmt.Errorf("failed to write statistics header: %w", err)
	}
	if err := f.SetCellStyle(SheetStatistics, "A1", "C1", bold); err != nil {
		return err
	}

	for i, s := range report.Symbols {
		row := []interface{}{s}
		if st, ok := report.Statistics[s]; ok {
			row = append(row, st.Average, st.StdDev)
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(SheetStatistics, cell, &row); err != nil {
			return fmt.Errorf("failed to write statistics row %s: %w", s, err)
		}
	}
	return nil
}

func (x *XLSXWriter) writeReport(f *excelize.File, report *domain.CorrelationReport, bold int) error {
	rows := [][]interface{}{
		{"minutes", report.Minutes},
		{"generatedAt", formatTime(report.GeneratedAt)},
		{"source", string(report.Source)},
		{"symbols", strings.Join(report.Symbols, ",")},
	}
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(SheetReport, cell, &row); err != nil {
			return fmt.Errorf("failed to write report row: %w", err)
		}
	}
	if err := f.SetCellStyle(SheetReport, "A1", fmt.Sprintf("A%d", len(rows)), bold); err != nil {
		return err
	}
	return f.SetColWidth(SheetReport, "B", "B", 28)
}
