// services/interfaces.go
package services

import (
	"context"

	"github.com/invopop/jsonschema"

	"github.com/AI-Template-SDK/senso-visibility/internal/models"
	"github.com/AI-Template-SDK/senso-visibility/internal/providers/common"
)

// AIProvider is one answer engine (OpenAI, Claude, Perplexity, ...)
type AIProvider interface {
	Name() string
	Model() string
	GenerateQueries(ctx context.Context, req common.QueryRequest) (string, error)
	GetResponse(ctx context.Context, query string) (*common.AIResponse, error)
	// GetManyResponses never fails; failed queries carry models.ErrorResponseSentinel.
	GetManyResponses(ctx context.Context, queries []string) []models.ResponseRecord
}

type CostService interface {
	CalculateCost(provider string, model string, inputTokens int, outputTokens int, websearch bool) float64
}

// CompetitorOracle extracts competitor names from one response
type CompetitorOracle interface {
	ExtractCompetitors(ctx context.Context, text string, profile models.BusinessProfile) ([]string, error)
	Name() string
}

// CompetitorCache stores oracle results keyed by response fingerprint
type CompetitorCache interface {
	Get(ctx context.Context, key string) ([]string, bool, error)
	Set(ctx context.Context, key string, names []string) error
}

type CompetitorDiscoveryService interface {
	Discover(ctx context.Context, texts []string, profile models.BusinessProfile) (*models.DiscoveryResult, error)
}

type QueryService interface {
	GenerateQueries(ctx context.Context, req common.QueryRequest) ([]models.Query, error)
	GenerateFromEach(ctx context.Context, req common.QueryRequest) ([]models.Query, error)
}

type CollectionService interface {
	Collect(ctx context.Context, queries []models.Query) []models.ResponseRecord
	Providers() []string
}

// RunStore persists run snapshots. Implemented by internal/store.
type RunStore interface {
	CreateRun(ctx context.Context, runID string, profile models.BusinessProfile, providers []string) error
	UpdateRunStatus(ctx context.Context, runID string, status models.RunStatus, errMsg string) error
	SaveReport(ctx context.Context, report *models.RunReport) error
}

type VisibilityService interface {
	Analyze(ctx context.Context, req AnalyzeRequest) (*models.RunReport, error)
	Run(ctx context.Context, req RunRequest) (*models.RunReport, error)
}

// AnalyzeRequest is the input of the analysis pipeline over collected records
type AnalyzeRequest struct {
	RunID              string
	Profile            models.BusinessProfile
	Records            []models.ResponseRecord
	Queries            []models.Query
	StaticCompetitors  []string
	CompetitorVariants map[string]string
}

// RunRequest drives a full generate, collect, analyze and persist run
type RunRequest struct {
	RunID              string
	Profile            models.BusinessProfile
	Queries            []models.Query // generated when empty
	NumConsumer        int
	NumBusiness        int
	PromptTemplate     string
	StaticCompetitors  []string
	CompetitorVariants map[string]string
}

// CompetitorListResponse is the structured output of the competitor oracle
type CompetitorListResponse struct {
	Competitors []string `json:"competitors" jsonschema_description:"Distinct competitor company or brand names mentioned in the response, each listed once"`
}

// GenerateSchema reflects T into a strict JSON schema for structured outputs.
func GenerateSchema[T any]() interface{} {
	reflector := jsonschema.Reflector{
		AllowAdditionalProperties: false,
		DoNotReference:            true,
	}
	var v T
	return reflector.Reflect(v)
}
