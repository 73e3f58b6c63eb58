package testutil

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/AI-Template-SDK/senso-visibility/internal/models"
	"github.com/AI-Template-SDK/senso-visibility/internal/providers/common"
)

// MockCostService is a mock implementation of CostService for testing
type MockCostService struct {
	CalculateCostFunc func(provider, model string, inputTokens, outputTokens int, websearch bool) float64
}

func (m *MockCostService) CalculateCost(provider, model string, inputTokens, outputTokens int, websearch bool) float64 {
	if m.CalculateCostFunc != nil {
		return m.CalculateCostFunc(provider, model, inputTokens, outputTokens, websearch)
	}
	return 0.0015 // Default mock cost
}

// NewMockCostService creates a new mock cost service
func NewMockCostService() *MockCostService {
	return &MockCostService{}
}

// MockProvider is a scriptable AI provider
type MockProvider struct {
	ProviderName        string
	ModelName           string
	GenerateQueriesFunc func(ctx context.Context, req common.QueryRequest) (string, error)
	AnswerFunc          func(query string) (string, error)

	mu    sync.Mutex
	calls []string
}

func (m *MockProvider) Name() string  { return m.ProviderName }
func (m *MockProvider) Model() string { return m.ModelName }

func (m *MockProvider) GenerateQueries(ctx context.Context, req common.QueryRequest) (string, error) {
	m.record("generate")
	if m.GenerateQueriesFunc != nil {
		return m.GenerateQueriesFunc(ctx, req)
	}
	return "", nil
}

func (m *MockProvider) GetResponse(ctx context.Context, query string) (*common.AIResponse, error) {
	m.record(query)
	if m.AnswerFunc == nil {
		return &common.AIResponse{Response: "answer to " + query}, nil
	}
	text, err := m.AnswerFunc(query)
	if err != nil {
		return nil, err
	}
	return &common.AIResponse{Response: text}, nil
}

func (m *MockProvider) GetManyResponses(ctx context.Context, queries []string) []models.ResponseRecord {
	records := make([]models.ResponseRecord, len(queries))
	for i, q := range queries {
		records[i] = models.ResponseRecord{
			QueryID:      i + 1,
			QueryText:    q,
			Provider:     m.ProviderName,
			Model:        m.ModelName,
			ResponseText: models.ErrorResponseSentinel,
		}
		if resp, err := m.GetResponse(ctx, q); err == nil && resp.Response != "" {
			records[i].ResponseText = resp.Response
		}
	}
	return records
}

// Calls returns the recorded calls in order.
func (m *MockProvider) Calls() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.calls...)
}

func (m *MockProvider) record(call string) {
	m.mu.Lock()
	m.calls = append(m.calls, call)
	m.mu.Unlock()
}

// MockOracle is a scriptable competitor oracle
type MockOracle struct {
	ExtractFunc func(text string) ([]string, error)
	calls       atomic.Int32
}

func (m *MockOracle) Name() string { return "mock" }

func (m *MockOracle) ExtractCompetitors(ctx context.Context, text string, profile models.BusinessProfile) ([]string, error) {
	m.calls.Add(1)
	if m.ExtractFunc != nil {
		return m.ExtractFunc(text)
	}
	return nil, nil
}

// Calls is the number of extraction calls made.
func (m *MockOracle) Calls() int {
	return int(m.calls.Load())
}

// MockChatServer is an OpenAI-compatible chat completions server
type MockChatServer struct {
	Server *httptest.Server

	mu       sync.Mutex
	replies  []string
	status   int
	requests atomic.Int32
	lastBody map[string]any
}

// NewMockChatServer creates a server answering every completion with reply.
func NewMockChatServer(replies ...string) *MockChatServer {
	mock := &MockChatServer{replies: replies, status: http.StatusOK}

	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || !strings.HasSuffix(r.URL.Path, "/chat/completions") {
			http.Error(w, "not found", http.StatusNotFound)
			return
		}
		n := int(mock.requests.Add(1))

		var body map[string]any
		_ = json.NewDecoder(r.Body).Decode(&body)

		mock.mu.Lock()
		mock.lastBody = body
		status := mock.status
		reply := ""
		if len(mock.replies) > 0 {
			reply = mock.replies[(n-1)%len(mock.replies)]
		}
		mock.mu.Unlock()

		w.Header().Set("Content-Type", "application/json")
		if status != http.StatusOK {
			w.WriteHeader(status)
			w.Write([]byte(`{"error":{"message":"mock failure","type":"server_error"}}`))
			return
		}
		json.NewEncoder(w).Encode(map[string]any{
			"id":      "chatcmpl-test",
			"object":  "chat.completion",
			"created": 1700000000,
			"model":   body["model"],
			"choices": []map[string]any{{
				"index":         0,
				"finish_reason": "stop",
				"message":       map[string]any{"role": "assistant", "content": reply},
			}},
			"usage": map[string]any{"prompt_tokens": 12, "completion_tokens": 30, "total_tokens": 42},
		})
	})

	mock.Server = httptest.NewServer(mux)
	return mock
}

// URL is the base URL to hand to the client.
func (m *MockChatServer) URL() string {
	return m.Server.URL + "/"
}

// SetStatus makes the server fail every request with status.
func (m *MockChatServer) SetStatus(status int) {
	m.mu.Lock()
	m.status = status
	m.mu.Unlock()
}

// Requests is the number of completion requests received.
func (m *MockChatServer) Requests() int {
	return int(m.requests.Load())
}

// LastBody returns the last decoded request body.
func (m *MockChatServer) LastBody() map[string]any {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lastBody
}

// Close closes the mock server
func (m *MockChatServer) Close() {
	m.Server.Close()
}
