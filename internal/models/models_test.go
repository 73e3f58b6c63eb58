package models_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/AI-Template-SDK/senso-visibility/internal/models"
)

func TestResponseRecordFailed(t *testing.T) {
	tests := []struct {
		name string
		text string
		want bool
	}{
		{"sentinel", models.ErrorResponseSentinel, true},
		{"padded sentinel", "  " + models.ErrorResponseSentinel + "\n", true},
		{"empty", "", true},
		{"whitespace", " \t\n", true},
		{"answer starting with ERROR", "ERROR: codes usually mean a worn shock sensor.", false},
		{"sentinel inside an answer", "Some tools print " + models.ErrorResponseSentinel + " on timeouts.", false},
		{"ordinary answer", "Try Acme Suspensions.", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, models.ResponseRecord{ResponseText: tt.text}.Failed())
			assert.Equal(t, tt.want, models.IsFailedResponse(tt.text))
		})
	}
}
