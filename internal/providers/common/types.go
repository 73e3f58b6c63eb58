package common

import (
	"time"

	"github.com/AI-Template-SDK/senso-visibility/internal/models"
)

// AIResponse contains the response from an AI provider
// Defined here to avoid import cycles
type AIResponse struct {
	Response     string
	InputTokens  int
	OutputTokens int
	Cost         float64
}

// QueryRequest describes one query-generation call
type QueryRequest struct {
	Profile        models.BusinessProfile
	NumConsumer    int
	NumBusiness    int
	PromptTemplate string
}

// Total is the number of queries requested.
func (r QueryRequest) Total() int {
	return r.NumConsumer + r.NumBusiness
}

// Settings are the per-provider call parameters
type Settings struct {
	Model         string
	BaseURL       string
	Temperature   float64
	MaxTokens     int
	RateDelay     time.Duration
	MaxConcurrent int
	Retries       int
}

// WithDefaults fills zero fields from def.
func (s Settings) WithDefaults(def Settings) Settings {
	if s.Model == "" {
		s.Model = def.Model
	}
	if s.BaseURL == "" {
		s.BaseURL = def.BaseURL
	}
	if s.Temperature == 0 {
		s.Temperature = def.Temperature
	}
	if s.MaxTokens <= 0 {
		s.MaxTokens = def.MaxTokens
	}
	if s.RateDelay <= 0 {
		s.RateDelay = def.RateDelay
	}
	if s.MaxConcurrent <= 0 {
		s.MaxConcurrent = def.MaxConcurrent
	}
	if s.Retries <= 0 {
		s.Retries = def.Retries
	}
	return s
}
