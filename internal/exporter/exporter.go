package exporter

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"

	apierrors "stockpulse/internal/errors"
	"stockpulse/pkg/contracts/domain"
)

// ReportWriter renders a correlation report into out
type ReportWriter interface {
	Write(out io.Writer, report *domain.CorrelationReport) error
}

// WriterFor returns the writer for a format
func WriterFor(format Format) (ReportWriter, error) {
	switch format {
	case FormatXLSX:
		return NewXLSXWriter(), nil
	case FormatCSV:
		return NewCSVWriter(), nil
	default:
		return nil, fmt.Errorf("unsupported export format %q", format)
	}
}

// Export renders the report fully before touching out, so a failure never
// leaves a half-written download behind
func Export(out io.Writer, report *domain.CorrelationReport, format Format) error {
	w, err := WriterFor(format)
	if err != nil {
		return apierrors.NewExportError("unknown format", err).WithContext("format", string(format))
	}

	var buf bytes.Buffer
	if err := w.Write(&buf, report); err != nil {
		return apierrors.NewExportError("render report", err).WithContext("format", string(format))
	}

	if _, err := buf.WriteTo(out); err != nil {
		return apierrors.NewExportError("write report", err).WithContext("format", string(format))
	}
	return nil
}

// WriteFile exports the report to path, creating parent directories. The
// report goes to a temporary file in the same directory which is renamed
// over path, so readers never see a partial file.
func WriteFile(path string, report *domain.CorrelationReport, format Format) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmp.Name()

	if err := Export(tmp, report, format); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
		return err
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("failed to close temp file: %w", err)
	}
	if err := os.Chmod(tmpPath, 0o644); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("failed to set file mode: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("failed to move report into place: %w", err)
	}
	return nil
}
