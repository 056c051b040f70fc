package exporter

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	apierrors "stockpulse/internal/errors"
	"stockpulse/pkg/contracts/domain"
)

// Format is an export file format
type Format string

const (
	FormatXLSX Format = "xlsx"
	FormatCSV  Format = "csv"
)

// Formats lists the supported formats, default first
var Formats = []string{string(FormatXLSX), string(FormatCSV)}

// ParseFormat accepts a case-insensitive format name; "" means xlsx
func ParseFormat(s string) (Format, error) {
	switch Format(strings.ToLower(strings.TrimSpace(s))) {
	case "", FormatXLSX:
		return FormatXLSX, nil
	case FormatCSV:
		return FormatCSV, nil
	default:
		return "", apierrors.NewAppValidationError(fmt.Sprintf("unsupported export format %q", s)).WithContext("format", s)
	}
}

// ContentType returns the media type served for the format
func (f Format) ContentType() string {
	if f == FormatCSV {
		return "text/csv; charset=utf-8"
	}
	return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
}

// Filename names the download, e.g. correlations_60m_20250508T042627Z.xlsx
func (f Format) Filename(report *domain.CorrelationReport) string {
	return fmt.Sprintf("correlations_%dm_%s.%s", report.Minutes, report.GeneratedAt.UTC().Format("20060102T150405Z"), f)
}

// formatFloat keeps full precision; correlations are small differences near 1
func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}
