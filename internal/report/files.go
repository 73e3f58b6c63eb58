package report

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/AI-Template-SDK/senso-visibility/internal/models"
)

// Files names the artifacts WriteAll produced
type Files struct {
	Responses string `json:"responses"`
	Analysis  string `json:"analysis"`
	Summary   string `json:"summary"`
	HTML      string `json:"html"`
}

// WriteAll writes every report artifact for one run into dir, creating it if needed.
func WriteAll(dir string, report *models.RunReport) (*Files, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	stamp := report.GeneratedAt.Format("20060102_150405")
	files := &Files{
		Responses: filepath.Join(dir, fmt.Sprintf("responses_%s.csv", stamp)),
		Analysis:  filepath.Join(dir, fmt.Sprintf("analysis_%s.csv", stamp)),
		Summary:   filepath.Join(dir, fmt.Sprintf("summary_%s.json", stamp)),
		HTML:      filepath.Join(dir, fmt.Sprintf("report_%s.html", stamp)),
	}

	records := make([]models.ResponseRecord, 0, len(report.Analyses))
	for _, a := range report.Analyses {
		records = append(records, a.Record)
	}

	writes := []struct {
		path  string
		write func(io.Writer) error
	}{
		{files.Responses, func(w io.Writer) error { return WriteResponsesCSV(w, records) }},
		{files.Analysis, func(w io.Writer) error { return WriteAnalysisCSV(w, report) }},
		{files.Summary, func(w io.Writer) error { return WriteSummaryJSON(w, report) }},
		{files.HTML, func(w io.Writer) error { return WriteHTML(w, report) }},
	}
	for _, wr := range writes {
		if err := WriteFile(wr.path, wr.write); err != nil {
			return nil, err
		}
	}
	return files, nil
}

// WriteFile creates path and fills it with write.
func WriteFile(path string, write func(io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	if err := write(f); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to close %s: %w", path, err)
	}
	return nil
}
