package common

import (
	"fmt"
	"strconv"
	"strings"
)

const (
	QuerySystemMessage  = "You are an expert at generating realistic search queries for business visibility testing. Create diverse, natural queries that real users would ask."
	AnswerSystemMessage = "You are a helpful AI assistant. Answer the user's question naturally and helpfully. If relevant businesses come to mind, mention them."
)

// BuildQueryPrompt renders the custom template from req, or the default prompt
// when no template is set.
func BuildQueryPrompt(req QueryRequest) string {
	if strings.TrimSpace(req.PromptTemplate) != "" {
		return strings.NewReplacer(
			"{total_queries}", strconv.Itoa(req.Total()),
			"{business_name}", req.Profile.Name,
			"{business_url}", req.Profile.URL,
			"{business_location}", req.Profile.Location,
			"{num_consumer}", strconv.Itoa(req.NumConsumer),
			"{num_business}", strconv.Itoa(req.NumBusiness),
		).Replace(req.PromptTemplate)
	}

	name := req.Profile.Name
	return fmt.Sprintf(`Generate %d realistic search queries to test AI visibility for %s (%s).

Create exactly %d consumer-focused queries and %d business-focused queries.

CONSUMER QUERIES (%d):
- Questions a customer might ask when they have a problem that %s could solve
- Should NOT mention %s directly
- Should be natural, conversational questions

BUSINESS QUERIES (%d):
- Questions someone might ask when specifically researching %s
- Can mention the business name or ask for comparisons
- Examples: "What do people think about %s?", "Is %s better than competitors?"

Format your response as a numbered list with exactly %d queries total.
Make sure each query is self-contained and doesn't require additional context.`,
		req.Total(), name, req.Profile.URL,
		req.NumConsumer, req.NumBusiness,
		req.NumConsumer, name, name,
		req.NumBusiness, name, name, name,
		req.Total())
}
