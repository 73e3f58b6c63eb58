package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/AI-Template-SDK/senso-visibility/internal/app"
	"github.com/AI-Template-SDK/senso-visibility/internal/models"
	"github.com/AI-Template-SDK/senso-visibility/internal/store"
	"github.com/AI-Template-SDK/senso-visibility/services"
)

var persist bool

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Generate, collect and analyze in one pass",
	RunE:  runAll,
}

func init() {
	runCmd.Flags().StringVarP(&queriesPath, "queries", "q", "", "queries file; generated when omitted")
	runCmd.Flags().BoolVar(&persist, "store", true, "save the run snapshot to DATABASE_URL")
}

func runAll(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	profile, err := loadProfile()
	if err != nil {
		return err
	}

	var queries []models.Query
	if queriesPath != "" {
		if queries, err = readQueries(queriesPath, profile); err != nil {
			return err
		}
	}

	var runStore services.RunStore
	if persist {
		s, err := store.Open(ctx, cfg.Database, log)
		if err != nil {
			return err
		}
		defer s.Close()
		runStore = s
	}

	components := app.Build(cfg, runStore, log)
	defer components.Close()
	providers, err := buildProviders(components.Factory, profile)
	if err != nil {
		return err
	}

	req := services.QueryRequestFor(profile)
	result, err := components.Runner(providers, runStore, log).Run(ctx, services.RunRequest{
		Profile:            profile.Business(),
		Queries:            queries,
		NumConsumer:        req.NumConsumer,
		NumBusiness:        req.NumBusiness,
		PromptTemplate:     req.PromptTemplate,
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
	if runStore != nil {
		fmt.Fprintf(cmd.OutOrStdout(), "Run %s saved\n", result.RunID)
	}
	return writeReport(cmd, profile.BusinessName, result, dir)
}
