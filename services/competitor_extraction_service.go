// services/competitor_extraction_service.go
package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/rs/zerolog"
	"github.com/sony/gobreaker"

	"github.com/AI-Template-SDK/senso-visibility/internal/analysis"
	"github.com/AI-Template-SDK/senso-visibility/internal/config"
	"github.com/AI-Template-SDK/senso-visibility/internal/models"
)

const extractionSystemMessage = "You are a precise business name extraction assistant. Extract only company and brand names that compete with the target business, not products, dealers, or locations. Output valid JSON only."

// ErrMalformedOracleOutput is returned when the oracle answer is not a name list.
var ErrMalformedOracleOutput = errors.New("oracle returned malformed competitor list")

// CompetitorListSchema is generated once for structured outputs
var CompetitorListSchema = GenerateSchema[CompetitorListResponse]()

type openAIOracle struct {
	client      openai.Client
	model       string
	temperature float64
	breaker     *gobreaker.CircuitBreaker
	log         zerolog.Logger
}

// NewOpenAIOracle builds the LLM-backed competitor oracle. baseURL may be empty.
func NewOpenAIOracle(cfg *config.Config, baseURL string, log zerolog.Logger) CompetitorOracle {
	opts := []option.RequestOption{
		option.WithAPIKey(cfg.OpenAIAPIKey),
		option.WithMaxRetries(0),
	}
	if baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}

	return &openAIOracle{
		client:      openai.NewClient(opts...),
		model:       cfg.Oracle.Model,
		temperature: cfg.Oracle.Temperature,
		breaker: gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:        "competitor-oracle",
			MaxRequests: 1,
			Interval:    time.Minute,
			Timeout:     30 * time.Second,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= 5
			},
		}),
		log: log,
	}
}

func (o *openAIOracle) Name() string {
	return "openai:" + o.model
}

func (o *openAIOracle) ExtractCompetitors(ctx context.Context, text string, profile models.BusinessProfile) ([]string, error) {
	out, err := o.breaker.Execute(func() (interface{}, error) {
		return o.extract(ctx, text, profile)
	})
	if err != nil {
		return nil, err
	}
	return out.([]string), nil
}

func (o *openAIOracle) extract(ctx context.Context, text string, profile models.BusinessProfile) ([]string, error) {
	schemaParam := openai.ResponseFormatJSONSchemaJSONSchemaParam{
		Name:        "competitor_list",
		Description: openai.String("Competitor names mentioned in one AI response"),
		Schema:      CompetitorListSchema,
		Strict:      openai.Bool(true),
	}

	resp, err := o.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(extractionSystemMessage),
			openai.UserMessage(BuildExtractionPrompt(text, profile)),
		},
		Model:       openai.ChatModel(o.model),
		Temperature: openai.Float(o.temperature),
		ResponseFormat: openai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONSchema: &openai.ResponseFormatJSONSchemaParam{JSONSchema: schemaParam},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to call competitor oracle: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("%w: no choices", ErrMalformedOracleOutput)
	}

	o.log.Debug().
		Int64("input_tokens", resp.Usage.PromptTokens).
		Int64("output_tokens", resp.Usage.CompletionTokens).
		Msg("competitor extraction complete")

	return ParseCompetitorList(resp.Choices[0].Message.Content)
}

// BuildExtractionPrompt renders the per-response extraction prompt.
func BuildExtractionPrompt(text string, profile models.BusinessProfile) string {
	aliases := "None"
	if len(profile.Aliases) > 0 {
		aliases = strings.Join(profile.Aliases, ", ")
	}

	return fmt.Sprintf(`Review the following AI response and extract ONLY competitor business/brand/company names that were recommended or mentioned.

Target Business (DO NOT include): %s
Aliases to exclude: %s

Rules for extraction:
- Extract ONLY company/manufacturer/brand names
- DO NOT extract: product names or model numbers
- DO NOT extract: locations (cities, regions, suburbs)
- DO NOT extract: vehicle brands or models
- DO NOT extract: generic business names or dealers that do not compete with the target
- Normalize company names (e.g. "Pedders" and "Pedders Suspension" should be "Pedders Suspension")
- List each competitor only ONCE per response, even if mentioned multiple times

Output ONLY JSON of the form {"competitors": ["Company Name 1", "Company Name 2"]}.
If no competitors found, return: {"competitors": []}

AI Response to analyze:

%s`, profile.Name, aliases, text)
}

// ParseCompetitorList accepts either a bare JSON array of names or an object
// holding one under "competitors" (or, failing that, its only list value).
func ParseCompetitorList(raw string) ([]string, error) {
	raw = strings.TrimSpace(raw)
	raw = strings.TrimPrefix(raw, "```json")
	raw = strings.TrimPrefix(raw, "```")
	raw = strings.TrimSuffix(raw, "```")
	raw = strings.TrimSpace(raw)

	var names []string
	if err := json.Unmarshal([]byte(raw), &names); err == nil {
		return cleanNames(names), nil
	}

	var obj map[string]json.RawMessage
	if err := json.Unmarshal([]byte(raw), &obj); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedOracleOutput, err)
	}
	if list, ok := obj["competitors"]; ok {
		if err := json.Unmarshal(list, &names); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformedOracleOutput, err)
		}
		return cleanNames(names), nil
	}
	for _, value := range obj {
		if err := json.Unmarshal(value, &names); err == nil {
			return cleanNames(names), nil
		}
	}
	if len(obj) == 0 {
		return []string{}, nil
	}
	return nil, fmt.Errorf("%w: no name list in object", ErrMalformedOracleOutput)
}

func cleanNames(names []string) []string {
	out := make([]string, 0, len(names))
	for _, name := range names {
		if name = strings.TrimSpace(name); name != "" {
			out = append(out, name)
		}
	}
	return out
}

type heuristicOracle struct{}

// NewHeuristicOracle returns the capitalized-phrase oracle used when no LLM
// key is configured.
func NewHeuristicOracle() CompetitorOracle {
	return heuristicOracle{}
}

func (heuristicOracle) Name() string {
	return "heuristic"
}

func (heuristicOracle) ExtractCompetitors(ctx context.Context, text string, profile models.BusinessProfile) ([]string, error) {
	return analysis.FallbackCompetitors(text, profile), nil
}
