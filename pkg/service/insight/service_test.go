package insight_test

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/gollem"
	"github.com/m-mizutani/gollem/mock"
	"github.com/m-mizutani/gt"

	"github.com/devmon-lab/chreos/pkg/domain/model"
	"github.com/devmon-lab/chreos/pkg/domain/types"
	"github.com/devmon-lab/chreos/pkg/service/insight"
)

func debtResult(area string, critical int, current, previous float64, isKeyModule bool) *model.TechnicalDebtResult {
	counts := model.TicketCounts{Critical: critical, Moderate: 2}
	metrics := model.NewUsageMetrics(current, previous)
	asOf := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)
	return model.ComputeTechnicalDebt("acme", types.AreaID(area), counts, metrics, isKeyModule, asOf)
}

func mockClientReturning(text string) *mock.LLMClientMock {
	return &mock.LLMClientMock{
		NewSessionFunc: func(ctx context.Context, options ...gollem.SessionOption) (gollem.Session, error) {
			mockSession := &mock.SessionMock{
				GenerateContentFunc: func(ctx context.Context, input ...gollem.Input) (*gollem.Response, error) {
					return &gollem.Response{
						Texts: []string{text},
					}, nil
				},
			}
			return mockSession, nil
		},
	}
}

func TestService_GenerateReport_Success(t *testing.T) {
	ctx := context.Background()

	service := insight.New(mockClientReturning(`{
		"summary": "Billing carries most of the organization's debt while search stays healthy.",
		"key_findings": ["billing has 8 critical tickets", "search usage is stable"],
		"suggested_focus": "billing"
	}`))

	results := []*model.TechnicalDebtResult{
		debtResult("billing", 8, 100, 1000, true),
		debtResult("search", 0, 1000, 1000, false),
	}

	report, err := service.GenerateReport(ctx, "acme", results)

	gt.NoError(t, err)
	gt.NotNil(t, report)
	gt.Equal(t, report.Summary, "Billing carries most of the organization's debt while search stays healthy.")
	gt.Equal(t, len(report.KeyFindings), 2)
	gt.Equal(t, report.SuggestedFocus, "billing")
}

func TestService_GenerateReport_PromptContainsAreas(t *testing.T) {
	ctx := context.Background()

	var captured string
	mockClient := &mock.LLMClientMock{
		NewSessionFunc: func(ctx context.Context, options ...gollem.SessionOption) (gollem.Session, error) {
			mockSession := &mock.SessionMock{
				GenerateContentFunc: func(ctx context.Context, input ...gollem.Input) (*gollem.Response, error) {
					for _, in := range input {
						if text, ok := in.(gollem.Text); ok {
							captured = string(text)
						}
					}
					return &gollem.Response{
						Texts: []string{`{"summary": "ok", "key_findings": [], "suggested_focus": "billing"}`},
					}, nil
				},
			}
			return mockSession, nil
		},
	}
	service := insight.New(mockClient)

	results := []*model.TechnicalDebtResult{
		debtResult("search", 0, 1000, 1000, false),
		debtResult("billing", 8, 100, 1000, true),
	}

	_, err := service.GenerateReport(ctx, "acme", results)

	gt.NoError(t, err)
	gt.S(t, captured).Contains("acme")
	gt.S(t, captured).Contains("billing (key module)")
	gt.S(t, captured).Contains("8 critical")

	// Worst area comes first in the prompt
	gt.True(t, strings.Index(captured, "## billing") < strings.Index(captured, "## search"))
}

func TestService_GenerateReport_InvalidJSON(t *testing.T) {
	ctx := context.Background()

	service := insight.New(mockClientReturning("not valid json"))

	report, err := service.GenerateReport(ctx, "acme", []*model.TechnicalDebtResult{
		debtResult("billing", 8, 100, 1000, true),
	})

	gt.Error(t, err)
	gt.B(t, goerr.HasTag(err, insight.ErrTagInvalidJSON)).True()
	gt.Nil(t, report)
}

func TestService_GenerateReport_MissingSummary(t *testing.T) {
	ctx := context.Background()

	service := insight.New(mockClientReturning(`{
		"key_findings": ["something"],
		"suggested_focus": "billing"
	}`))

	report, err := service.GenerateReport(ctx, "acme", []*model.TechnicalDebtResult{
		debtResult("billing", 8, 100, 1000, true),
	})

	gt.Error(t, err)
	gt.B(t, goerr.HasTag(err, insight.ErrTagMissingField)).True()
	values := goerr.Values(err)
	gt.V(t, values["field"]).Equal("summary")
	gt.Nil(t, report)
}

func TestService_GenerateReport_UnknownFocusFallsBack(t *testing.T) {
	ctx := context.Background()

	service := insight.New(mockClientReturning(`{
		"summary": "Debt is concentrated in one area.",
		"key_findings": [],
		"suggested_focus": "nonexistent_area"
	}`))

	results := []*model.TechnicalDebtResult{
		debtResult("search", 0, 1000, 1000, false),
		debtResult("billing", 8, 100, 1000, true),
	}

	report, err := service.GenerateReport(ctx, "acme", results)

	gt.NoError(t, err)
	gt.NotNil(t, report)
	gt.Equal(t, report.SuggestedFocus, "billing")
}

func TestService_GenerateReport_EmptyResponse(t *testing.T) {
	ctx := context.Background()

	mockClient := &mock.LLMClientMock{
		NewSessionFunc: func(ctx context.Context, options ...gollem.SessionOption) (gollem.Session, error) {
			mockSession := &mock.SessionMock{
				GenerateContentFunc: func(ctx context.Context, input ...gollem.Input) (*gollem.Response, error) {
					return &gollem.Response{Texts: []string{}}, nil
				},
			}
			return mockSession, nil
		},
	}
	service := insight.New(mockClient)

	report, err := service.GenerateReport(ctx, "acme", []*model.TechnicalDebtResult{
		debtResult("billing", 8, 100, 1000, true),
	})

	gt.Error(t, err)
	gt.B(t, goerr.HasTag(err, insight.ErrTagEmptyResponse)).True()
	gt.Nil(t, report)
}

func TestService_GenerateReport_NoResults(t *testing.T) {
	ctx := context.Background()

	service := insight.New(mockClientReturning(`{"summary": "ok"}`))

	report, err := service.GenerateReport(ctx, "acme", nil)

	gt.Error(t, err)
	gt.Nil(t, report)
}

func TestFallbackReport(t *testing.T) {
	t.Run("orders findings by score and picks worst focus", func(t *testing.T) {
		results := []*model.TechnicalDebtResult{
			debtResult("search", 0, 1000, 1000, false),
			debtResult("billing", 8, 100, 1000, true),
			debtResult("reporting", 2, 0, 500, false),
		}

		report := insight.FallbackReport("acme", results)

		gt.NotNil(t, report)
		gt.S(t, report.Summary).Contains("acme")
		gt.Equal(t, report.SuggestedFocus, "billing")

		// Healthy areas are left out of the findings, worst first
		gt.Equal(t, len(report.KeyFindings), 2)
		gt.S(t, report.KeyFindings[0]).Contains("billing")
		gt.S(t, report.KeyFindings[1]).Contains("reporting")
	})

	t.Run("empty results", func(t *testing.T) {
		report := insight.FallbackReport("acme", nil)

		gt.NotNil(t, report)
		gt.S(t, report.Summary).Contains("No product areas")
		gt.Equal(t, report.SuggestedFocus, "")
	})
}
