package cmd

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/AI-Template-SDK/senso-visibility/internal/app"
	"github.com/AI-Template-SDK/senso-visibility/internal/models"
	"github.com/AI-Template-SDK/senso-visibility/internal/report"
	"github.com/AI-Template-SDK/senso-visibility/internal/textparse"
	"github.com/AI-Template-SDK/senso-visibility/services"
)

var responsesPath string

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Find competitors and score business visibility in collected responses",
	RunE:  runAnalyze,
}

func init() {
	analyzeCmd.Flags().StringVarP(&responsesPath, "responses", "r", "", "responses file (.csv or .txt) from collect (required)")
	_ = analyzeCmd.MarkFlagRequired("responses")
}

// readResponses picks the reader by extension.
func readResponses(path string) ([]models.ResponseRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open responses file: %w", err)
	}
	defer f.Close()

	var read func(io.Reader) ([]models.ResponseRecord, error) = textparse.ParseResponses
	if strings.EqualFold(filepath.Ext(path), ".csv") {
		read = report.ReadResponsesCSV
	}
	records, err := read(f)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("no responses found in %s", path)
	}
	return records, nil
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	profile, err := loadProfile()
	if err != nil {
		return err
	}
	records, err := readResponses(responsesPath)
	if err != nil {
		return err
	}

	components := app.Build(cfg, nil, log)
	defer components.Close()

	result, err := components.Analyzer.Analyze(cmd.Context(), services.AnalyzeRequest{
		Profile:            profile.Business(),
		Records:            records,
		StaticCompetitors:  profile.Competitors,
		CompetitorVariants: profile.CompetitorVariants,
	})
	if err != nil {
		return err
	}
	dir, err := outputDir(profile)
	if err != nil {
		return err
	}
	return writeReport(cmd, profile.BusinessName, result, dir)
}

func writeReport(cmd *cobra.Command, business string, result *models.RunReport, dir string) error {
	files, err := report.WriteAll(dir, result)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	s := result.Summary
	fmt.Fprintf(out, "%s: mentioned in %d of %d responses (visibility %.1f%%)\n", business, s.BusinessMentions, s.TotalQueries, s.VisibilityScore)
	for i, c := range s.CompetitorRanking {
		if i == 10 {
			break
		}
		fmt.Fprintf(out, "  %2d. %s (%d)\n", i+1, c.Name, c.Count)
	}
	fmt.Fprintf(out, "Reports:\n  %s\n  %s\n  %s\n  %s\n", files.Responses, files.Analysis, files.Summary, files.HTML)
	return nil
}
