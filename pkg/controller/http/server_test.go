package http_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/gt"

	controller "github.com/devmon-lab/chreos/pkg/controller/http"
	"github.com/devmon-lab/chreos/pkg/domain/model"
	"github.com/devmon-lab/chreos/pkg/domain/types"
	"github.com/devmon-lab/chreos/pkg/repository"
	"github.com/devmon-lab/chreos/pkg/usecase"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()

	ctx := context.Background()
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelWarn}))
	ctx = ctxlog.With(ctx, logger)

	repo := repository.NewMemory()
	ingestUC := usecase.NewIngest(repo)
	debtUC := usecase.NewTechnicalDebt(repo)
	analyticsUC := usecase.NewAnalytics(repo)

	server := controller.NewServer(ctx, "localhost:0", ingestUC, debtUC, analyticsUC)
	ts := httptest.NewServer(server.Handler)
	t.Cleanup(ts.Close)
	t.Cleanup(func() { _ = repo.Close() })

	return ts
}

func doJSON(t *testing.T, method, url string, body any) (*http.Response, []byte) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		gt.NoError(t, err)
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequest(method, url, reader)
	gt.NoError(t, err)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := http.DefaultClient.Do(req)
	gt.NoError(t, err)

	payload, err := io.ReadAll(resp.Body)
	gt.NoError(t, err)
	gt.NoError(t, resp.Body.Close())

	return resp, payload
}

func TestServerHealth(t *testing.T) {
	ts := newTestServer(t)

	resp, body := doJSON(t, http.MethodGet, ts.URL+"/health", nil)
	gt.Equal(t, resp.StatusCode, http.StatusOK)

	var health map[string]string
	gt.NoError(t, json.Unmarshal(body, &health))
	gt.Equal(t, health["status"], "healthy")
	gt.Equal(t, health["service"], "chreos")
}

func TestServerMetrics(t *testing.T) {
	ts := newTestServer(t)

	resp, _ := doJSON(t, http.MethodGet, ts.URL+"/metrics", nil)
	gt.Equal(t, resp.StatusCode, http.StatusOK)
}

func TestServerTicketLifecycle(t *testing.T) {
	ts := newTestServer(t)
	base := ts.URL + "/api/orgs/acme"

	resp, body := doJSON(t, http.MethodPost, base+"/tickets", map[string]any{
		"productArea": "billing",
		"severity":    "CRITICAL",
		"title":       "checkout fails under load",
	})
	gt.Equal(t, resp.StatusCode, http.StatusCreated)

	var ticket model.Ticket
	gt.NoError(t, json.Unmarshal(body, &ticket))
	gt.Equal(t, ticket.Organization, types.OrgID("acme"))
	gt.Equal(t, ticket.Severity, types.SeverityCritical)
	gt.True(t, ticket.ID != "")

	resp, body = doJSON(t, http.MethodPost, fmt.Sprintf("%s/tickets/%s/resolve", base, ticket.ID), nil)
	gt.Equal(t, resp.StatusCode, http.StatusOK)

	var resolved model.Ticket
	gt.NoError(t, json.Unmarshal(body, &resolved))
	gt.True(t, resolved.ResolvedAt != nil)

	resp, body = doJSON(t, http.MethodGet, base+"/tickets?area=billing", nil)
	gt.Equal(t, resp.StatusCode, http.StatusOK)

	var listed struct {
		Tickets []*model.Ticket `json:"tickets"`
	}
	gt.NoError(t, json.Unmarshal(body, &listed))
	gt.Equal(t, len(listed.Tickets), 1)
}

func TestServerTicketValidation(t *testing.T) {
	ts := newTestServer(t)
	base := ts.URL + "/api/orgs/acme"

	resp, body := doJSON(t, http.MethodPost, base+"/tickets", map[string]any{
		"productArea": "billing",
		"severity":    "WHATEVER",
		"title":       "bad severity",
	})
	gt.Equal(t, resp.StatusCode, http.StatusBadRequest)

	var errBody map[string]string
	gt.NoError(t, json.Unmarshal(body, &errBody))
	gt.True(t, errBody["error"] != "")

	resp, _ = doJSON(t, http.MethodPost, base+"/tickets/tkt-missing/resolve", nil)
	gt.Equal(t, resp.StatusCode, http.StatusNotFound)
}

func TestServerAreaCatalog(t *testing.T) {
	ts := newTestServer(t)
	base := ts.URL + "/api/orgs/acme"

	resp, body := doJSON(t, http.MethodPut, base+"/areas/payments", map[string]any{
		"name":        "Payments",
		"description": "Payment processing",
		"isKeyModule": true,
	})
	gt.Equal(t, resp.StatusCode, http.StatusOK)

	var area model.ProductArea
	gt.NoError(t, json.Unmarshal(body, &area))
	gt.Equal(t, area.ID, types.AreaID("payments"))
	gt.True(t, area.IsKeyModule)

	resp, body = doJSON(t, http.MethodGet, base+"/areas", nil)
	gt.Equal(t, resp.StatusCode, http.StatusOK)

	var listed struct {
		Areas []*model.ProductArea `json:"areas"`
	}
	gt.NoError(t, json.Unmarshal(body, &listed))
	gt.Equal(t, len(listed.Areas), 1)
	gt.Equal(t, listed.Areas[0].Name, "Payments")
}

func TestServerAreaDebt(t *testing.T) {
	ts := newTestServer(t)
	base := ts.URL + "/api/orgs/acme"

	// One critical ticket and no usage records: impact 4, zero usage
	// flat penalty 25, health 75, debt 4*2 + 25 = 33
	resp, _ := doJSON(t, http.MethodPost, base+"/tickets", map[string]any{
		"productArea": "billing",
		"severity":    "CRITICAL",
		"title":       "invoice generation broken",
	})
	gt.Equal(t, resp.StatusCode, http.StatusCreated)

	resp, body := doJSON(t, http.MethodGet, base+"/debt/billing", nil)
	gt.Equal(t, resp.StatusCode, http.StatusOK)

	var result model.TechnicalDebtResult
	gt.NoError(t, json.Unmarshal(body, &result))
	gt.Equal(t, result.ProductArea, types.AreaID("billing"))
	gt.Equal(t, result.DebtScore, 33.0)
	gt.Equal(t, result.Category, types.DebtCategoryGood)
	gt.Equal(t, result.TicketCounts.Critical, 1)
}

func TestServerAreaDebtAsOf(t *testing.T) {
	ts := newTestServer(t)
	base := ts.URL + "/api/orgs/acme"

	// Ticket created in May 2025 counts for an asOf inside its window
	resp, _ := doJSON(t, http.MethodPost, base+"/tickets", map[string]any{
		"productArea": "search",
		"severity":    "LOW",
		"title":       "stale index",
		"createdAt":   time.Date(2025, 5, 20, 12, 0, 0, 0, time.UTC),
	})
	gt.Equal(t, resp.StatusCode, http.StatusCreated)

	resp, body := doJSON(t, http.MethodGet, base+"/debt/search?asOf=2025-06-01", nil)
	gt.Equal(t, resp.StatusCode, http.StatusOK)

	var result model.TechnicalDebtResult
	gt.NoError(t, json.Unmarshal(body, &result))
	gt.Equal(t, result.TicketCounts.Low, 1)

	resp, _ = doJSON(t, http.MethodGet, base+"/debt/search?asOf=not-a-time", nil)
	gt.Equal(t, resp.StatusCode, http.StatusBadRequest)
}

func TestServerOrganizationDebtAndAnalyses(t *testing.T) {
	ts := newTestServer(t)
	base := ts.URL + "/api/orgs/acme"

	for _, name := range []string{"billing", "search"} {
		resp, _ := doJSON(t, http.MethodPut, base+"/areas/"+name, map[string]any{
			"name": name,
		})
		gt.Equal(t, resp.StatusCode, http.StatusOK)
	}
	resp, _ := doJSON(t, http.MethodPost, base+"/tickets", map[string]any{
		"productArea": "billing",
		"severity":    "SEVERE",
		"title":       "slow statements",
	})
	gt.Equal(t, resp.StatusCode, http.StatusCreated)

	resp, body := doJSON(t, http.MethodGet, base+"/debt", nil)
	gt.Equal(t, resp.StatusCode, http.StatusOK)

	var debt struct {
		Results []*model.TechnicalDebtResult `json:"results"`
	}
	gt.NoError(t, json.Unmarshal(body, &debt))
	gt.Equal(t, len(debt.Results), 2)

	resp, body = doJSON(t, http.MethodPost, base+"/analyses", nil)
	gt.Equal(t, resp.StatusCode, http.StatusCreated)

	var run struct {
		Analyses []*model.StoredAnalysis `json:"analyses"`
	}
	gt.NoError(t, json.Unmarshal(body, &run))
	gt.Equal(t, len(run.Analyses), 2)

	resp, body = doJSON(t, http.MethodGet, base+"/analyses?area=billing", nil)
	gt.Equal(t, resp.StatusCode, http.StatusOK)

	var history struct {
		Analyses []*model.StoredAnalysis `json:"analyses"`
	}
	gt.NoError(t, json.Unmarshal(body, &history))
	gt.Equal(t, len(history.Analyses), 1)
	gt.Equal(t, history.Analyses[0].ProductArea, types.AreaID("billing"))
}

func TestServerAnalytics(t *testing.T) {
	ts := newTestServer(t)
	base := ts.URL + "/api/orgs/acme"

	resp, _ := doJSON(t, http.MethodPut, base+"/areas/billing", map[string]any{
		"name": "Billing",
	})
	gt.Equal(t, resp.StatusCode, http.StatusOK)

	resp, _ = doJSON(t, http.MethodPost, base+"/tickets", map[string]any{
		"productArea": "billing",
		"severity":    "MODERATE",
		"title":       "rounding error",
	})
	gt.Equal(t, resp.StatusCode, http.StatusCreated)

	resp, _ = doJSON(t, http.MethodPost, base+"/usage", map[string]any{
		"productArea": "billing",
		"amount":      1200.0,
	})
	gt.Equal(t, resp.StatusCode, http.StatusCreated)

	resp, body := doJSON(t, http.MethodGet, base+"/analytics/tickets", nil)
	gt.Equal(t, resp.StatusCode, http.StatusOK)

	var breakdown struct {
		Breakdowns []*model.TicketBreakdown `json:"breakdowns"`
	}
	gt.NoError(t, json.Unmarshal(body, &breakdown))
	gt.Equal(t, len(breakdown.Breakdowns), 1)
	gt.Equal(t, breakdown.Breakdowns[0].TotalTickets, 1)

	resp, body = doJSON(t, http.MethodGet, base+"/analytics/correlation", nil)
	gt.Equal(t, resp.StatusCode, http.StatusOK)

	var correlation struct {
		Correlations []*model.UsageCorrelation `json:"correlations"`
	}
	gt.NoError(t, json.Unmarshal(body, &correlation))
	gt.Equal(t, len(correlation.Correlations), 1)
	gt.Equal(t, correlation.Correlations[0].TicketCount, 1)

	resp, body = doJSON(t, http.MethodGet, base+"/analytics/trends?months=3", nil)
	gt.Equal(t, resp.StatusCode, http.StatusOK)

	var trends struct {
		Trends []*model.TrendAnalysis `json:"trends"`
	}
	gt.NoError(t, json.Unmarshal(body, &trends))
	gt.Equal(t, len(trends.Trends), 1)
	gt.Equal(t, len(trends.Trends[0].Points), 3)

	resp, _ = doJSON(t, http.MethodGet, base+"/analytics/trends?months=nope", nil)
	gt.Equal(t, resp.StatusCode, http.StatusBadRequest)
}

func TestServerReport(t *testing.T) {
	ts := newTestServer(t)
	base := ts.URL + "/api/orgs/acme"

	resp, _ := doJSON(t, http.MethodPut, base+"/areas/billing", map[string]any{
		"name": "Billing",
	})
	gt.Equal(t, resp.StatusCode, http.StatusOK)

	resp, body := doJSON(t, http.MethodGet, base+"/report", nil)
	gt.Equal(t, resp.StatusCode, http.StatusOK)

	var report model.DebtReport
	gt.NoError(t, json.Unmarshal(body, &report))
	gt.Equal(t, report.Organization, types.OrgID("acme"))
	gt.True(t, report.Summary != "")
	gt.Equal(t, len(report.Results), 1)
}

func TestServerHome(t *testing.T) {
	ts := newTestServer(t)

	resp, body := doJSON(t, http.MethodGet, ts.URL+"/", nil)
	gt.Equal(t, resp.StatusCode, http.StatusOK)
	gt.True(t, bytes.Contains(body, []byte("chreos")))
}
