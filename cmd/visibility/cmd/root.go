package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/AI-Template-SDK/senso-visibility/internal/config"
	"github.com/AI-Template-SDK/senso-visibility/internal/logger"
	"github.com/AI-Template-SDK/senso-visibility/services"
)

var (
	profilePath   string
	providerNames []string
	outDir        string

	cfg *config.Config
	log zerolog.Logger
)

var rootCmd = &cobra.Command{
	Use:   "visibility",
	Short: "Measure how AI answer engines mention a business and its competitors",
	Long: "Generates customer queries, collects answers from OpenAI, Claude and Perplexity,\n" +
		"and reports business visibility and competitor mentions.",
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if err := godotenv.Load(); err != nil {
			_ = godotenv.Load("dev.env")
		}
		cfg = config.Load()
		log = logger.Setup(cfg.LogLevel, cfg.LogFormat)
	},
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&profilePath, "profile", "p", "profile.yaml", "run profile YAML")
	rootCmd.PersistentFlags().StringSliceVar(&providerNames, "providers", nil, "restrict to these providers (openai, claude, perplexity)")
	rootCmd.PersistentFlags().StringVarP(&outDir, "out", "o", "", "output directory (default: the profile's business directory)")

	rootCmd.AddCommand(generateCmd)
	rootCmd.AddCommand(collectCmd)
	rootCmd.AddCommand(analyzeCmd)
	rootCmd.AddCommand(runCmd)
}

func loadProfile() (*config.RunProfile, error) {
	profile, err := config.LoadProfile(profilePath)
	if err != nil {
		return nil, err
	}
	return profile, nil
}

// outputDir resolves --out against the profile and creates it.
func outputDir(profile *config.RunProfile) (string, error) {
	dir := outDir
	if dir == "" {
		dir = profile.BusinessDir()
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create output directory: %w", err)
	}
	return dir, nil
}

func stampedPath(dir, prefix, ext string) string {
	return filepath.Join(dir, fmt.Sprintf("%s_%s.%s", prefix, time.Now().Format("20060102_150405"), ext))
}

type factory interface {
	NewProviders(profile *config.RunProfile, only []string) ([]services.AIProvider, error)
}

func buildProviders(f factory, profile *config.RunProfile) ([]services.AIProvider, error) {
	providers, err := f.NewProviders(profile, providerNames)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(providers))
	for _, p := range providers {
		names = append(names, p.Name())
	}
	log.Info().Strs("providers", names).Msg("providers ready")
	return providers, nil
}
