package services_test

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AI-Template-SDK/senso-visibility/internal/models"
	"github.com/AI-Template-SDK/senso-visibility/internal/providers/common"
	"github.com/AI-Template-SDK/senso-visibility/internal/providers/testutil"
	"github.com/AI-Template-SDK/senso-visibility/services"
)

func generator(name, answer string, err error) *testutil.MockProvider {
	return &testutil.MockProvider{
		ProviderName: name,
		GenerateQueriesFunc: func(ctx context.Context, req common.QueryRequest) (string, error) {
			return answer, err
		},
	}
}

func queryRequest() common.QueryRequest {
	return common.QueryRequest{Profile: testutil.SampleProfile(), NumConsumer: 2, NumBusiness: 1}
}

func TestGenerateQueriesFallsBackInPreferenceOrder(t *testing.T) {
	claude := generator("claude", "1. from claude", nil)
	openai := generator("openai", "1. Who fixes shocks?\n2. Best lift kits?\n3. Is Acme any good?", nil)
	perplexity := generator("perplexity", "", errors.New("rate limited"))

	svc := services.NewQueryService([]services.AIProvider{claude, openai, perplexity}, zerolog.Nop())
	got, err := svc.GenerateQueries(context.Background(), queryRequest())
	require.NoError(t, err)

	assert.Equal(t, []models.Query{
		{ID: 1, Text: "Who fixes shocks?", Category: models.QueryConsumer},
		{ID: 2, Text: "Best lift kits?", Category: models.QueryConsumer},
		{ID: 3, Text: "Is Acme any good?", Category: models.QueryBusiness},
	}, got)
	assert.Len(t, perplexity.Calls(), 1)
	assert.Len(t, openai.Calls(), 1)
	assert.Empty(t, claude.Calls())
}

func TestGenerateQueriesSkipsUnparseableAnswers(t *testing.T) {
	perplexity := generator("perplexity", "I cannot help with that.", nil)
	claude := generator("claude", "1. only query", nil)

	svc := services.NewQueryService([]services.AIProvider{claude, perplexity}, zerolog.Nop())
	got, err := svc.GenerateQueries(context.Background(), queryRequest())
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "only query", got[0].Text)
}

func TestGenerateQueriesAllFail(t *testing.T) {
	svc := services.NewQueryService([]services.AIProvider{
		generator("openai", "", errors.New("down")),
	}, zerolog.Nop())
	_, err := svc.GenerateQueries(context.Background(), queryRequest())
	assert.Error(t, err)

	_, err = services.NewQueryService(nil, zerolog.Nop()).GenerateQueries(context.Background(), queryRequest())
	assert.ErrorIs(t, err, models.ErrNoProviders)
}

func TestGenerateFromEachMerges(t *testing.T) {
	svc := services.NewQueryService([]services.AIProvider{
		generator("openai", "1. b query\n2. a query", nil),
		generator("claude", "1. a query\n2. What do people think about Acme Suspensions?", nil),
		generator("perplexity", "", errors.New("down")),
	}, zerolog.Nop())

	got, err := svc.GenerateFromEach(context.Background(), queryRequest())
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, "What do people think about Acme Suspensions?", got[0].Text)
	assert.Equal(t, models.QueryBusiness, got[0].Category)
	assert.Equal(t, "a query", got[1].Text)
	assert.Equal(t, models.QueryConsumer, got[1].Category)
	assert.Equal(t, 3, got[2].ID)
}
