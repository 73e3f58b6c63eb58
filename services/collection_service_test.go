package services_test

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AI-Template-SDK/senso-visibility/internal/models"
	"github.com/AI-Template-SDK/senso-visibility/internal/providers/testutil"
	"github.com/AI-Template-SDK/senso-visibility/services"
)

func TestCollectFansOutToEveryProvider(t *testing.T) {
	openai := &testutil.MockProvider{ProviderName: "openai", ModelName: "gpt-4o-mini"}
	claude := &testutil.MockProvider{
		ProviderName: "claude",
		ModelName:    "claude-3-haiku-20240307",
		AnswerFunc: func(query string) (string, error) {
			if query == "second" {
				return "", errors.New("overloaded")
			}
			return "claude says " + query, nil
		},
	}

	svc := services.NewCollectionService([]services.AIProvider{openai, claude}, zerolog.Nop())
	assert.Equal(t, []string{"openai", "claude"}, svc.Providers())

	records := svc.Collect(context.Background(), []models.Query{
		{ID: 7, Text: "first"},
		{ID: 9, Text: "second"},
	})
	require.Len(t, records, 4)

	assert.Equal(t, "claude", records[0].Provider)
	assert.Equal(t, 7, records[0].QueryID)
	assert.Equal(t, "claude says first", records[0].ResponseText)
	assert.Equal(t, 9, records[1].QueryID)
	assert.Equal(t, models.ErrorResponseSentinel, records[1].ResponseText)
	assert.True(t, records[1].Failed())

	assert.Equal(t, "openai", records[2].Provider)
	assert.Equal(t, "answer to first", records[2].ResponseText)
	assert.Equal(t, "gpt-4o-mini", records[3].Model)
	assert.Equal(t, 9, records[3].QueryID)
}

func TestCollectWithoutProviders(t *testing.T) {
	svc := services.NewCollectionService(nil, zerolog.Nop())
	assert.Empty(t, svc.Collect(context.Background(), []models.Query{{ID: 1, Text: testutil.SampleQueries()[0]}}))
}
