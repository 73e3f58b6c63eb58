// internal/models/models.go
package models

import (
	"strings"
	"time"
)

// ErrorResponseSentinel marks a response the collection step could not obtain.
const ErrorResponseSentinel = "ERROR: Failed to get response"

// BusinessProfile is the business whose visibility is being measured
type BusinessProfile struct {
	Name     string   `json:"name" yaml:"name"`
	URL      string   `json:"url,omitempty" yaml:"url"`
	Aliases  []string `json:"aliases,omitempty" yaml:"aliases"`
	Location string   `json:"location,omitempty" yaml:"location"`
}

// Validate fails fast on profiles that cannot produce a match pattern.
func (p BusinessProfile) Validate() error {
	if strings.TrimSpace(p.Name) == "" {
		return ErrEmptyBusinessName
	}
	return nil
}

// Terms returns the name followed by every non-empty alias.
func (p BusinessProfile) Terms() []string {
	terms := make([]string, 0, len(p.Aliases)+1)
	if name := strings.TrimSpace(p.Name); name != "" {
		terms = append(terms, name)
	}
	for _, alias := range p.Aliases {
		if alias = strings.TrimSpace(alias); alias != "" {
			terms = append(terms, alias)
		}
	}
	return terms
}

// IsSelf reports whether name is the business itself or one of its aliases.
func (p BusinessProfile) IsSelf(name string) bool {
	name = strings.TrimSpace(name)
	for _, term := range p.Terms() {
		if strings.EqualFold(term, name) {
			return true
		}
	}
	return false
}

// ResponseRecord is one AI-generated answer to one query
type ResponseRecord struct {
	QueryID      int     `json:"query_id"`
	QueryText    string  `json:"query_text"`
	Provider     string  `json:"provider"`
	Model        string  `json:"model,omitempty"`
	ResponseText string  `json:"response_text"`
	InputTokens  int     `json:"input_tokens,omitempty"`
	OutputTokens int     `json:"output_tokens,omitempty"`
	Cost         float64 `json:"cost,omitempty"`
}

// Failed reports whether the record carries no usable answer.
func (r ResponseRecord) Failed() bool {
	return IsFailedResponse(r.ResponseText)
}

// IsFailedResponse reports whether text is empty or the collection sentinel.
// An answer that merely starts with "ERROR:" is still content.
func IsFailedResponse(text string) bool {
	text = strings.TrimSpace(text)
	return text == "" || text == ErrorResponseSentinel
}

type Position string

const (
	PositionBeginning Position = "Beginning"
	PositionMiddle    Position = "Middle"
	PositionEnd       Position = "End"
	PositionUnknown   Position = "Unknown"
)

// ReportLabel maps the position onto the Early/Middle/Late labels used in report rows.
func (p Position) ReportLabel() string {
	switch p {
	case PositionBeginning:
		return "Early"
	case PositionMiddle:
		return "Middle"
	case PositionEnd:
		return "Late"
	default:
		return "Not mentioned"
	}
}

// ContextType is the sentiment context of a mention. The zero value means no mention.
type ContextType string

const (
	ContextRecommended ContextType = "Recommended"
	ContextNegative    ContextType = "Negative"
	ContextComparison  ContextType = "Comparison"
	ContextNeutral     ContextType = "Neutral"
)

// MentionSpan is one literal occurrence of the business name or an alias
type MentionSpan struct {
	Text  string `json:"text"`
	Start int    `json:"start"`
	End   int    `json:"end"`
	Type  string `json:"type"` // business_name or alias
}

// MentionResult is the per-response scan outcome
type MentionResult struct {
	BusinessMentioned    bool          `json:"business_mentioned"`
	BusinessNameFound    bool          `json:"business_name_found"`
	DomainFound          bool          `json:"domain_found"`
	Position             Position      `json:"position"`
	ContextType          ContextType   `json:"context_type,omitempty"`
	CompetitorsMentioned []string      `json:"competitors_mentioned"`
	Mentions             []MentionSpan `json:"mentions,omitempty"`
}

// EmptyMentionResult is the result for text that carries no signal.
func EmptyMentionResult() MentionResult {
	return MentionResult{
		Position:             PositionUnknown,
		CompetitorsMentioned: []string{},
	}
}

// CompetitorCounts maps a canonical competitor name to the number of responses naming it
type CompetitorCounts map[string]int

// RankedCompetitor is one entry of a competitor ranking
type RankedCompetitor struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

// Citation is a URL cited inside a response
type Citation struct {
	URL     string `json:"url"`
	Domain  string `json:"domain"`
	Primary bool   `json:"primary"`
}

// CompetitorContext describes how one competitor is framed within a response
type CompetitorContext struct {
	Competitor string `json:"competitor"`
	Mentioned  bool   `json:"mentioned"`
	Context    string `json:"context,omitempty"`
	Sentiment  string `json:"sentiment,omitempty"` // positive, negative, neutral
	Position   string `json:"position,omitempty"`  // early, middle, late
}

// ResponseAnalysis pairs a record with everything derived from it
type ResponseAnalysis struct {
	Record             ResponseRecord      `json:"record"`
	Mention            MentionResult       `json:"mention"`
	CompetitorContexts []CompetitorContext `json:"competitor_contexts,omitempty"`
	Citations          []Citation          `json:"citations,omitempty"`
}

// ReportRow is the positional per-response shape consumed by report renderers
type ReportRow struct {
	QueryID              int    `json:"query_id"`
	Provider             string `json:"provider"`
	BusinessMentioned    bool   `json:"business_mentioned"`
	CompetitorsMentioned string `json:"competitors_mentioned"`
	BusinessPosition     string `json:"business_position"`
}

func (a ResponseAnalysis) Row() ReportRow {
	competitors := "None"
	if len(a.Mention.CompetitorsMentioned) > 0 {
		competitors = strings.Join(a.Mention.CompetitorsMentioned, ";")
	}
	position := "Not mentioned"
	if a.Mention.BusinessMentioned {
		position = a.Mention.Position.ReportLabel()
	}
	return ReportRow{
		QueryID:              a.Record.QueryID,
		Provider:             a.Record.Provider,
		BusinessMentioned:    a.Mention.BusinessMentioned,
		CompetitorsMentioned: competitors,
		BusinessPosition:     position,
	}
}

// ProviderSummary is the per-provider rollup, recomputed on every report
type ProviderSummary struct {
	Provider             string           `json:"provider"`
	TotalQueries         int              `json:"total_queries"`
	BusinessFoundCount   int              `json:"business_found_count"`
	FailedResponses      int              `json:"failed_responses"`
	MentionRate          float64          `json:"mention_rate"`
	CompetitorsFound     []string         `json:"competitors_found"`
	CompetitorFrequency  CompetitorCounts `json:"competitor_frequency"`
	CitationCount        int              `json:"citation_count"`
	PrimaryCitationCount int              `json:"primary_citation_count"`
}

// Summary is the aggregate over every analysed response of a run
type Summary struct {
	Providers         map[string]*ProviderSummary `json:"providers"`
	ProviderOrder     []string                    `json:"provider_order"`
	CompetitorRanking []RankedCompetitor          `json:"competitor_ranking"`
	TotalQueries      int                         `json:"total_queries"`
	BusinessMentions  int                         `json:"business_mentions"`
	VisibilityScore   float64                     `json:"visibility_score"` // percent
}

// DiscoveryResult is the outcome of one competitor discovery batch
type DiscoveryResult struct {
	Counts    CompetitorCounts   `json:"counts"`
	Order     []string           `json:"order"` // first-discovered order
	Ranking   []RankedCompetitor `json:"ranking"`
	Processed int                `json:"processed"`
	Cached    int                `json:"cached"`
	Skipped   int                `json:"skipped"`
}

// Names returns the discovered canonical names in first-discovered order.
func (d *DiscoveryResult) Names() []string {
	if d == nil {
		return nil
	}
	names := make([]string, len(d.Order))
	copy(names, d.Order)
	return names
}

type QueryCategory string

const (
	QueryConsumer QueryCategory = "Consumer"
	QueryBusiness QueryCategory = "Business"
)

// Query is one synthetic user query
type Query struct {
	ID       int           `json:"id"`
	Text     string        `json:"text"`
	Category QueryCategory `json:"category,omitempty"`
}

type RunStatus string

const (
	RunPending   RunStatus = "pending"
	RunRunning   RunStatus = "running"
	RunCompleted RunStatus = "completed"
	RunFailed    RunStatus = "failed"
)

// RunReport is everything a single visibility run produced
type RunReport struct {
	RunID       string             `json:"run_id"`
	Profile     BusinessProfile    `json:"profile"`
	Providers   []string           `json:"providers"`
	Queries     []Query            `json:"queries,omitempty"`
	Discovery   *DiscoveryResult   `json:"discovery"`
	Analyses    []ResponseAnalysis `json:"analyses"`
	Summary     Summary            `json:"summary"`
	GeneratedAt time.Time          `json:"generated_at"`
}

// Rows returns the report row of every analysed response.
func (r *RunReport) Rows() []ReportRow {
	rows := make([]ReportRow, 0, len(r.Analyses))
	for _, a := range r.Analyses {
		rows = append(rows, a.Row())
	}
	return rows
}
