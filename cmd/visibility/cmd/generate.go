package cmd

import (
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/AI-Template-SDK/senso-visibility/internal/app"
	"github.com/AI-Template-SDK/senso-visibility/internal/report"
	"github.com/AI-Template-SDK/senso-visibility/internal/textparse"
	"github.com/AI-Template-SDK/senso-visibility/services"
)

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Ask every provider for customer queries and merge them into one file",
	RunE:  runGenerate,
}

func runGenerate(cmd *cobra.Command, args []string) error {
	profile, err := loadProfile()
	if err != nil {
		return err
	}
	components := app.Build(cfg, nil, log)
	defer components.Close()

	providers, err := buildProviders(components.Factory, profile)
	if err != nil {
		return err
	}

	queries, err := services.NewQueryService(providers, log).GenerateFromEach(cmd.Context(), services.QueryRequestFor(profile))
	if err != nil {
		return err
	}
	texts := make([]string, len(queries))
	for i, q := range queries {
		texts[i] = q.Text
	}

	dir, err := outputDir(profile)
	if err != nil {
		return err
	}
	path := stampedPath(dir, "queries", "txt")
	names := make([]string, 0, len(providers))
	for _, p := range providers {
		names = append(names, p.Name())
	}
	err = report.WriteFile(path, func(w io.Writer) error {
		return textparse.FormatQueries(w, textparse.QueriesHeader{
			BusinessName: profile.BusinessName,
			Providers:    names,
			GeneratedAt:  time.Now(),
		}, texts)
	})
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Generated %d queries: %s\n", len(texts), path)
	return nil
}
