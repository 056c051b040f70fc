package exporter

import (
	"encoding/csv"
	"fmt"
	"io"

	"stockpulse/pkg/contracts/domain"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// CSVWriter writes a correlation report as CSV
type CSVWriter struct {
	// BOMPrefix adds a UTF-8 BOM for Excel compatibility
	BOMPrefix bool
}

// NewCSVWriter creates a new CSV writer instance
func NewCSVWriter() *CSVWriter {
	return &CSVWriter{BOMPrefix: true}
}

// Write emits the matrix, a blank row, then symbol,avg,stdDev per symbol.
// Symbols without data get empty statistics cells.
func (w *CSVWriter) Write(out io.Writer, report *domain.CorrelationReport) error {
	if w.BOMPrefix {
		if _, err := out.Write(utf8BOM); err != nil {
			return fmt.Errorf("failed to write BOM: %w", err)
		}
	}

	writer := csv.NewWriter(out)

	if err := writer.Write(append([]string{"symbol"}, report.Symbols...)); err != nil {
		return fmt.Errorf("failed to write headers: %w", err)
	}
	for _, row := range matrixRows(report) {
		if err := writer.Write(row); err != nil {
			return fmt.Errorf("failed to write matrix row %s: %w", row[0], err)
		}
	}

	if err := writer.Write(nil); err != nil {
		return err
	}
	if err := writer.Write([]string{"symbol", "avg", "stdDev"}); err != nil {
		return fmt.Errorf("failed to write statistics headers: %w", err)
	}
	for _, row := range statisticsRows(report) {
		if err := writer.Write(row); err != nil {
			return fmt.Errorf("failed to write statistics row %s: %w", row[0], err)
		}
	}

	writer.Flush()
	return writer.Error()
}

// matrixRows renders one row per symbol in report order
func matrixRows(report *domain.CorrelationReport) [][]string {
	rows := make([][]string, 0, len(report.Symbols))
	for _, a := range report.Symbols {
		row := make([]string, 0, len(report.Symbols)+1)
		row = append(row, a)
		for _, b := range report.Symbols {
			row = append(row, formatFloat(report.Correlations[a][b]))
		}
		rows = append(rows, row)
	}
	return rows
}

func statisticsRows(report *domain.CorrelationReport) [][]string {
	rows := make([][]string, 0, len(report.Symbols))
	for _, s := range report.Symbols {
		st, ok := report.Statistics[s]
		if !ok {
			rows = append(rows, []string{s, "", ""})
			continue
		}
		rows = append(rows, []string{s, formatFloat(st.Average), formatFloat(st.StdDev)})
	}
	return rows
}
