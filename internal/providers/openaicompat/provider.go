// Package openaicompat talks to any chat-completions API that speaks the
// OpenAI wire format. It backs both the OpenAI and Perplexity providers.
package openaicompat

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/rs/zerolog"

	"github.com/AI-Template-SDK/senso-visibility/internal/models"
	"github.com/AI-Template-SDK/senso-visibility/internal/providers/common"
	"github.com/AI-Template-SDK/senso-visibility/services"
)

type provider struct {
	name        string
	client      openai.Client
	settings    common.Settings
	websearch   bool
	costService services.CostService
	dispatcher  *common.Dispatcher
	log         zerolog.Logger
}

// Options configure a provider beyond its settings
type Options struct {
	Name      string
	APIKey    string
	Settings  common.Settings
	Websearch bool // the model searches the web on every call (e.g. Perplexity Sonar)
	// RetryInterval overrides the initial backoff; zero keeps the default.
	RetryInterval time.Duration
}

func NewProvider(opts Options, costService services.CostService, log zerolog.Logger) services.AIProvider {
	clientOpts := []option.RequestOption{
		option.WithAPIKey(opts.APIKey),
		option.WithMaxRetries(0),
	}
	if opts.Settings.BaseURL != "" {
		clientOpts = append(clientOpts, option.WithBaseURL(opts.Settings.BaseURL))
	}

	log = log.With().Str("provider", opts.Name).Str("model", opts.Settings.Model).Logger()
	log.Info().Str("base_url", opts.Settings.BaseURL).Msg("provider ready")

	return &provider{
		name:        opts.Name,
		client:      openai.NewClient(clientOpts...),
		settings:    opts.Settings,
		websearch:   opts.Websearch,
		costService: costService,
		dispatcher:  common.NewDispatcher(opts.Name, opts.Settings, opts.RetryInterval, log),
		log:         log,
	}
}

func (p *provider) Name() string {
	return p.name
}

func (p *provider) Model() string {
	return p.settings.Model
}

func (p *provider) GenerateQueries(ctx context.Context, req common.QueryRequest) (string, error) {
	resp, err := p.dispatcher.Call(ctx, func(ctx context.Context) (*common.AIResponse, error) {
		return p.complete(ctx, common.QuerySystemMessage, common.BuildQueryPrompt(req))
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
	return p.complete(ctx, common.AnswerSystemMessage, query)
}

func (p *provider) complete(ctx context.Context, system, prompt string) (*common.AIResponse, error) {
	resp, err := p.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(system),
			openai.UserMessage(prompt),
		},
		Model:       openai.ChatModel(p.settings.Model),
		Temperature: openai.Float(p.settings.Temperature),
		MaxTokens:   openai.Int(int64(p.settings.MaxTokens)),
	})
	if err != nil {
		return nil, fmt.Errorf("chat completion failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("no choices in %s response", p.name)
	}

	inputTokens := int(resp.Usage.PromptTokens)
	outputTokens := int(resp.Usage.CompletionTokens)
	return &common.AIResponse{
		Response:     strings.TrimSpace(resp.Choices[0].Message.Content),
		InputTokens:  inputTokens,
		OutputTokens: outputTokens,
		Cost:         p.costService.CalculateCost(p.name, p.settings.Model, inputTokens, outputTokens, p.websearch),
	}, nil
}
