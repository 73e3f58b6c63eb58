package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/AI-Template-SDK/senso-visibility/internal/app"
	"github.com/AI-Template-SDK/senso-visibility/internal/config"
	"github.com/AI-Template-SDK/senso-visibility/internal/models"
	"github.com/AI-Template-SDK/senso-visibility/internal/report"
	"github.com/AI-Template-SDK/senso-visibility/internal/textparse"
	"github.com/AI-Template-SDK/senso-visibility/services"
)

var queriesPath string

var collectCmd = &cobra.Command{
	Use:   "collect",
	Short: "Send every query to every provider and save the answers",
	RunE:  runCollect,
}

func init() {
	collectCmd.Flags().StringVarP(&queriesPath, "queries", "q", "", "queries file from generate (required)")
	_ = collectCmd.MarkFlagRequired("queries")
}

// readQueries loads a queries file and numbers it; categories come from content.
func readQueries(path string, profile *config.RunProfile) ([]models.Query, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open queries file: %w", err)
	}
	defer f.Close()

	texts, err := textparse.ReadQueriesFile(f)
	if err != nil {
		return nil, err
	}
	if len(texts) == 0 {
		return nil, models.ErrNoQueries
	}
	return textparse.BuildQueries(texts, profile.BusinessName, 0), nil
}

func runCollect(cmd *cobra.Command, args []string) error {
	profile, err := loadProfile()
	if err != nil {
		return err
	}
	queries, err := readQueries(queriesPath, profile)
	if err != nil {
		return err
	}

	components := app.Build(cfg, nil, log)
	defer components.Close()
	providers, err := buildProviders(components.Factory, profile)
	if err != nil {
		return err
	}

	records := services.NewCollectionService(providers, log).Collect(cmd.Context(), queries)
	dir, err := outputDir(profile)
	if err != nil {
		return err
	}
	textPath, csvPath, err := writeResponses(dir, records)
	if err != nil {
		return err
	}

	failed := 0
	for _, r := range records {
		if r.Failed() {
			failed++
		}
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Collected %d responses (%d failed)\n  %s\n  %s\n", len(records), failed, textPath, csvPath)
	return nil
}

func writeResponses(dir string, records []models.ResponseRecord) (string, string, error) {
	textPath := stampedPath(dir, "responses", "txt")
	if err := report.WriteFile(textPath, func(w io.Writer) error {
		return textparse.FormatResponses(w, records)
	}); err != nil {
		return "", "", err
	}
	csvPath := stampedPath(dir, "responses", "csv")
	if err := report.WriteFile(csvPath, func(w io.Writer) error {
		return report.WriteResponsesCSV(w, records)
	}); err != nil {
		return "", "", err
	}
	return textPath, csvPath, nil
}
