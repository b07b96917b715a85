package insight

import (
	"bytes"
	"context"
	"embed"
	"encoding/json"
	"fmt"
	"sort"
	"text/template"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/gollem"

	"github.com/devmon-lab/chreos/pkg/domain/model"
	"github.com/devmon-lab/chreos/pkg/domain/types"
)

// Error tags for categorization
var (
	ErrTagInvalidJSON     = goerr.NewTag("invalid_json")
	ErrTagMissingField    = goerr.NewTag("missing_field")
	ErrTagEmptyResponse   = goerr.NewTag("empty_response")
	ErrTagTemplateFailure = goerr.NewTag("template_failure")
)

//go:embed templates/*.md
var templateFS embed.FS

const maxKeyFindings = 5

// Service generates narrative debt reports from per-area assessment results
type Service struct {
	llmClient gollem.LLMClient
}

// Report represents the structured narrative for one organization
type Report struct {
	Summary        string   `json:"summary"`
	KeyFindings    []string `json:"key_findings"`
	SuggestedFocus string   `json:"suggested_focus"`
}

// AreaTemplateData holds one assessed product area for template rendering
type AreaTemplateData struct {
	ProductArea         string
	Category            string
	DebtScore           float64
	TotalTickets        int
	CriticalTickets     int
	UsageDropPercentage float64
	IsKeyModule         bool
	Recommendations     []string
}

// ReportTemplateData contains data for the debt report template
type ReportTemplateData struct {
	Organization string
	AnalyzedAt   string
	Areas        []AreaTemplateData
}

// New creates a new Service instance
func New(llmClient gollem.LLMClient) *Service {
	return &Service{
		llmClient: llmClient,
	}
}

// GenerateReport produces a narrative report for one organization's debt results
// Areas are presented to the model worst-first so the summary leads with them
func (s *Service) GenerateReport(ctx context.Context, org types.OrgID, results []*model.TechnicalDebtResult) (*Report, error) {
	if len(results) == 0 {
		return nil, goerr.New("no debt results provided for report generation",
			goerr.V("organization", org))
	}

	prompt, err := s.renderReportTemplate(buildReportTemplateData(org, results))
	if err != nil {
		return nil, goerr.Wrap(err, "failed to render debt report template",
			goerr.T(ErrTagTemplateFailure))
	}

	// Create session with JSON content type
	session, err := s.llmClient.NewSession(ctx, gollem.WithSessionContentType(gollem.ContentTypeJSON))
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create LLM session")
	}

	response, err := session.GenerateContent(ctx, gollem.Text(prompt))
	if err != nil {
		return nil, goerr.Wrap(err, "failed to generate LLM response")
	}

	if len(response.Texts) == 0 || response.Texts[0] == "" {
		return nil, goerr.New("empty response from LLM",
			goerr.T(ErrTagEmptyResponse))
	}

	// Parse JSON response
	var report Report
	if err := json.Unmarshal([]byte(response.Texts[0]), &report); err != nil {
		return nil, goerr.Wrap(err, "failed to parse LLM response as JSON",
			goerr.V("response", response.Texts[0]),
			goerr.T(ErrTagInvalidJSON))
	}

	if report.Summary == "" {
		return nil, goerr.New("LLM response missing summary",
			goerr.T(ErrTagMissingField),
			goerr.V("field", "summary"))
	}

	// Fall back to the highest scoring area when the model names an unknown one
	if !isAssessedArea(results, report.SuggestedFocus) {
		report.SuggestedFocus = worstOf(results).ProductArea.String()
	}
	if len(report.KeyFindings) > maxKeyFindings {
		report.KeyFindings = report.KeyFindings[:maxKeyFindings]
	}

	return &report, nil
}

// FallbackReport builds a deterministic report for when no LLM client is configured
func FallbackReport(org types.OrgID, results []*model.TechnicalDebtResult) *Report {
	if len(results) == 0 {
		return &Report{
			Summary: fmt.Sprintf("No product areas were assessed for %s.", org),
		}
	}

	sorted := sortByScore(results)
	elevated := 0
	for _, r := range sorted {
		if r.Category != types.DebtCategoryGood {
			elevated++
		}
	}
	worst := sorted[0]

	report := &Report{
		Summary: fmt.Sprintf("%d of %d product areas in %s carry elevated technical debt. %s has the highest debt score at %.1f (%s).",
			elevated, len(sorted), org, worst.ProductArea, worst.DebtScore, worst.Category),
		SuggestedFocus: worst.ProductArea.String(),
	}
	for _, r := range sorted {
		if r.Category == types.DebtCategoryGood {
			continue
		}
		if len(report.KeyFindings) >= maxKeyFindings {
			break
		}
		report.KeyFindings = append(report.KeyFindings, fmt.Sprintf("%s: debt score %.1f (%s), %d tickets, %.1f%% usage drop",
			r.ProductArea, r.DebtScore, r.Category, r.TicketCounts.Total(), r.UsageMetrics.UsageDropPercentage))
	}
	return report
}

func buildReportTemplateData(org types.OrgID, results []*model.TechnicalDebtResult) ReportTemplateData {
	sorted := sortByScore(results)

	data := ReportTemplateData{
		Organization: org.String(),
		AnalyzedAt:   sorted[0].AnalyzedAt.Format("2006-01-02"),
		Areas:        make([]AreaTemplateData, 0, len(sorted)),
	}
	for _, r := range sorted {
		data.Areas = append(data.Areas, AreaTemplateData{
			ProductArea:         r.ProductArea.String(),
			Category:            r.Category.String(),
			DebtScore:           r.DebtScore,
			TotalTickets:        r.TicketCounts.Total(),
			CriticalTickets:     r.TicketCounts.Critical,
			UsageDropPercentage: r.UsageMetrics.UsageDropPercentage,
			IsKeyModule:         r.IsKeyModule,
			Recommendations:     r.Recommendations,
		})
	}
	return data
}

// renderReportTemplate renders the debt report prompt template
func (s *Service) renderReportTemplate(data ReportTemplateData) (string, error) {
	templateContent, err := templateFS.ReadFile("templates/debt_report.md")
	if err != nil {
		return "", goerr.Wrap(err, "failed to read debt report template")
	}

	tmpl, err := template.New("debt_report").Parse(string(templateContent))
	if err != nil {
		return "", goerr.Wrap(err, "failed to parse debt report template")
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", goerr.Wrap(err, "failed to execute debt report template")
	}

	return buf.String(), nil
}

// sortByScore returns a copy of results ordered by debt score, worst first
func sortByScore(results []*model.TechnicalDebtResult) []*model.TechnicalDebtResult {
	sorted := make([]*model.TechnicalDebtResult, len(results))
	copy(sorted, results)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].DebtScore > sorted[j].DebtScore
	})
	return sorted
}

func worstOf(results []*model.TechnicalDebtResult) *model.TechnicalDebtResult {
	return sortByScore(results)[0]
}

func isAssessedArea(results []*model.TechnicalDebtResult, area string) bool {
	for _, r := range results {
		if r.ProductArea.String() == area {
			return true
		}
	}
	return false
}
