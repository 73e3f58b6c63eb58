package report

import (
	"fmt"
	"html/template"
	"io"
	"strings"

	"github.com/AI-Template-SDK/senso-visibility/internal/models"
)

var funcs = template.FuncMap{
	"title": func(s string) string {
		if s == "" {
			return s
		}
		return strings.ToUpper(s[:1]) + s[1:]
	},
	"inc": func(i int) int { return i + 1 },
	"pct": func(f float64) string { return fmt.Sprintf("%.1f", f) },
}

var htmlTemplate = template.Must(template.New("report").Funcs(funcs).Parse(`<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="UTF-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
    <title>AI Visibility Report - {{.Profile.Name}}</title>
    <style>
        body { font-family: Arial, sans-serif; margin: 40px; background: #f5f5f5; }
        .container { max-width: 1000px; margin: 0 auto; background: white; padding: 30px; border-radius: 8px; }
        h1 { color: #333; border-bottom: 3px solid #007acc; padding-bottom: 10px; }
        h2 { color: #444; border-bottom: 1px solid #ddd; padding-bottom: 5px; margin-top: 30px; }
        .summary { background: #f9f9f9; padding: 20px; border-radius: 6px; margin: 20px 0; }
        .provider-section { border: 1px solid #ddd; padding: 20px; margin: 15px 0; border-radius: 6px; }
        .found { color: #28a745; font-weight: bold; }
        .not-found { color: #dc3545; font-weight: bold; }
        table { width: 100%; border-collapse: collapse; margin: 15px 0; }
        th, td { padding: 10px; text-align: left; border-bottom: 1px solid #ddd; vertical-align: top; }
        th { background: #f8f9fa; }
        .rank { font-weight: bold; color: #007acc; }
    </style>
</head>
<body>
<div class="container">
    <h1>AI Visibility Analysis Report</h1>

    <div class="summary">
        <h2>Summary</h2>
        <p><strong>Business:</strong> {{.Profile.Name}}</p>
        <p><strong>Run:</strong> {{.RunID}}</p>
        <p><strong>Total Queries:</strong> {{.Summary.TotalQueries}}</p>
        <p><strong>Business Found:</strong> <span class="{{if gt .Summary.BusinessMentions 0}}found{{else}}not-found{{end}}">{{.Summary.BusinessMentions}} times</span> ({{pct .Summary.VisibilityScore}}%)</p>
        <p><strong>Generated:</strong> {{.GeneratedAt.Format "2006-01-02 15:04:05"}}</p>
    </div>

    <h2>AI Engine Results</h2>
    {{range .ProviderSummaries}}
    <div class="provider-section">
        <h3>{{title .Provider}} AI Engine</h3>
        <p><strong>Business Found:</strong>
            <span class="{{if gt .BusinessFoundCount 0}}found{{else}}not-found{{end}}">{{.BusinessFoundCount}} out of {{.TotalQueries}} queries</span>
        </p>
        {{if .FailedResponses}}<p><strong>Failed Responses:</strong> {{.FailedResponses}}</p>{{end}}
        {{if .CompetitorsFound}}
        <p><strong>Competitors Found:</strong></p>
        <ul>{{range .CompetitorsFound}}<li>{{.}}</li>{{end}}</ul>
        {{else}}
        <p><strong>Competitors Found:</strong> None</p>
        {{end}}
    </div>
    {{end}}

    <h2>Competitor Ranking</h2>
    {{if .Summary.CompetitorRanking}}
    <table>
        <tr><th>Rank</th><th>Competitor</th><th>Total Mentions</th></tr>
        {{range $i, $c := .Summary.CompetitorRanking}}
        <tr><td class="rank">{{inc $i}}</td><td>{{$c.Name}}</td><td>{{$c.Count}}</td></tr>
        {{end}}
    </table>
    {{else}}
    <p>No competitors were mentioned by any AI engine.</p>
    {{end}}

    <h2>Responses</h2>
    <table>
        <tr><th>Query</th><th>Provider</th><th>Business</th><th>Position</th><th>Competitors</th></tr>
        {{range .ResponseRows}}
        <tr><td>{{.QueryID}}</td><td>{{.Provider}}</td><td>{{if .BusinessMentioned}}Yes{{else}}No{{end}}</td><td>{{.BusinessPosition}}</td><td>{{.CompetitorsMentioned}}</td></tr>
        {{end}}
    </table>
</div>
</body>
</html>
`))

type htmlData struct {
	*models.RunReport
	ProviderSummaries []*models.ProviderSummary
	ResponseRows      []models.ReportRow
}

// WriteHTML renders the report page.
func WriteHTML(w io.Writer, report *models.RunReport) error {
	data := htmlData{RunReport: report, ResponseRows: report.Rows()}
	for _, name := range report.Summary.ProviderOrder {
		if ps := report.Summary.Providers[name]; ps != nil {
			data.ProviderSummaries = append(data.ProviderSummaries, ps)
		}
	}
	if err := htmlTemplate.Execute(w, data); err != nil {
		return fmt.Errorf("failed to render html report: %w", err)
	}
	return nil
}
