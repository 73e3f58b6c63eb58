package claude

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/rs/zerolog"

	"github.com/AI-Template-SDK/senso-visibility/internal/models"
	"github.com/AI-Template-SDK/senso-visibility/internal/providers/common"
	"github.com/AI-Template-SDK/senso-visibility/services"
)

type provider struct {
	client      anthropic.Client
	settings    common.Settings
	costService services.CostService
	dispatcher  *common.Dispatcher
	log         zerolog.Logger
}

// NewProvider creates the Claude answer provider.
func NewProvider(apiKey string, settings common.Settings, retryInterval time.Duration, costService services.CostService, log zerolog.Logger) services.AIProvider {
	clientOpts := []option.RequestOption{
		option.WithAPIKey(apiKey),
		option.WithMaxRetries(0),
	}
	if settings.BaseURL != "" {
		clientOpts = append(clientOpts, option.WithBaseURL(settings.BaseURL))
	}

	log = log.With().Str("provider", "claude").Str("model", settings.Model).Logger()
	log.Info().Msg("provider ready")

	return &provider{
		client:      anthropic.NewClient(clientOpts...),
		settings:    settings,
		costService: costService,
		dispatcher:  common.NewDispatcher("claude", settings, retryInterval, log),
		log:         log,
	}
}

func (p *provider) Name() string {
	return "claude"
}

func (p *provider) Model() string {
	return p.settings.Model
}

func (p *provider) GenerateQueries(ctx context.Context, req common.QueryRequest) (string, error) {
	resp, err := p.dispatcher.Call(ctx, func(ctx context.Context) (*common.AIResponse, error) {
		return p.message(ctx, common.QuerySystemMessage, common.BuildQueryPrompt(req))
	})
	if err != nil {
		return "", fmt.Errorf("failed to generate queries: %w", err)
	}
	return resp.Response, nil
}

func (p *provider) GetResponse(ctx context.Context, query string) (*common.AIResponse, error) {
	return p.dispatcher.Call(ctx, func(ctx context.Context) (*common.AIResponse, error) {
		return p.answer(ctx, query)
	})
}

func (p *provider) GetManyResponses(ctx context.Context, queries []string) []models.ResponseRecord {
	p.log.Info().Int("queries", len(queries)).Msg("collecting responses")
	return p.dispatcher.Many(ctx, queries, p.answer)
}

func (p *provider) answer(ctx context.Context, query string) (*common.AIResponse, error) {
	return p.message(ctx, common.AnswerSystemMessage, query)
}

func (p *provider) message(ctx context.Context, system, prompt string) (*common.AIResponse, error) {
	response, err := p.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(p.settings.Model),
		MaxTokens: int64(p.settings.MaxTokens),
		System:    []anthropic.TextBlockParam{{Text: system}},
		Messages: []anthropic.MessageParam{{
			Content: []anthropic.ContentBlockParamUnion{{
				OfText: &anthropic.TextBlockParam{Text: prompt},
			}},
			Role: anthropic.MessageParamRoleUser,
		}},
		Temperature: anthropic.Float(p.settings.Temperature),
	})
	if err != nil {
		return nil, fmt.Errorf("message request failed: %w", err)
	}

	inputTokens := int(response.Usage.InputTokens)
	outputTokens := int(response.Usage.OutputTokens)
	return &common.AIResponse{
		Response:     extractResponseText(*response),
		InputTokens:  inputTokens,
		OutputTokens: outputTokens,
		Cost:         p.costService.CalculateCost("claude", p.settings.Model, inputTokens, outputTokens, false),
	}, nil
}

func extractResponseText(response anthropic.Message) string {
	var textParts []string
	for _, block := range response.Content {
		switch variant := block.AsAny().(type) {
		case anthropic.TextBlock:
			textParts = append(textParts, variant.Text)
		}
	}
	return strings.TrimSpace(strings.Join(textParts, ""))
}
