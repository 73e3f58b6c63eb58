// Package report renders run results as CSV, JSON and HTML files.
package report

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/AI-Template-SDK/senso-visibility/internal/models"
)

var responseHeader = []string{"Query ID", "Query Text", "Provider", "Response Text"}

var analysisHeader = append(append([]string{}, responseHeader...),
	"Business_Mentioned", "Competitors_Mentioned", "Business_Position", "Context_Type")

// ErrMissingColumn is returned when a responses CSV lacks a required column.
var ErrMissingColumn = errors.New("responses csv is missing a required column")

// WriteResponsesCSV writes the raw collected records.
func WriteResponsesCSV(w io.Writer, records []models.ResponseRecord) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(responseHeader); err != nil {
		return fmt.Errorf("failed to write csv header: %w", err)
	}
	for _, r := range records {
		if err := cw.Write(responseFields(r)); err != nil {
			return fmt.Errorf("failed to write csv row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// ReadResponsesCSV reads records written by WriteResponsesCSV. Columns are
// located by header name so extra columns (as in analysis files) are ignored.
func ReadResponsesCSV(r io.Reader) ([]models.ResponseRecord, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err == io.EOF {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read csv header: %w", err)
	}

	index := make(map[string]int, len(header))
	for i, name := range header {
		index[strings.TrimSpace(strings.TrimPrefix(name, "\ufeff"))] = i
	}
	for _, name := range responseHeader {
		if _, ok := index[name]; !ok {
			return nil, fmt.Errorf("%w: %q", ErrMissingColumn, name)
		}
	}

	field := func(row []string, name string) string {
		if i := index[name]; i < len(row) {
			return row[i]
		}
		return ""
	}

	var records []models.ResponseRecord
	for line := 2; ; line++ {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read csv line %d: %w", line, err)
		}

		id, err := strconv.Atoi(strings.TrimSpace(field(row, "Query ID")))
		if err != nil {
			return nil, fmt.Errorf("invalid Query ID on line %d: %w", line, err)
		}
		records = append(records, models.ResponseRecord{
			QueryID:      id,
			QueryText:    field(row, "Query Text"),
			Provider:     field(row, "Provider"),
			ResponseText: field(row, "Response Text"),
		})
	}
	return records, nil
}

// WriteAnalysisCSV writes one row per analysed response with its scan outcome.
func WriteAnalysisCSV(w io.Writer, report *models.RunReport) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(analysisHeader); err != nil {
		return fmt.Errorf("failed to write csv header: %w", err)
	}
	for _, a := range report.Analyses {
		row := a.Row()
		mentioned := "False"
		if row.BusinessMentioned {
			mentioned = "True"
		}
		contextType := string(a.Mention.ContextType)
		if contextType == "" {
			contextType = "None"
		}
		fields := append(responseFields(a.Record), mentioned, row.CompetitorsMentioned, row.BusinessPosition, contextType)
		if err := cw.Write(fields); err != nil {
			return fmt.Errorf("failed to write csv row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteSummaryJSON writes the full report as indented JSON.
func WriteSummaryJSON(w io.Writer, report *models.RunReport) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(report); err != nil {
		return fmt.Errorf("failed to encode summary: %w", err)
	}
	return nil
}

func responseFields(r models.ResponseRecord) []string {
	return []string{strconv.Itoa(r.QueryID), r.QueryText, r.Provider, r.ResponseText}
}
