package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/m-mizutani/goerr/v2"

	"github.com/devmon-lab/chreos/pkg/domain/interfaces"
	"github.com/devmon-lab/chreos/pkg/domain/model"
	"github.com/devmon-lab/chreos/pkg/domain/types"
)

// handler dispatches API requests to the use cases
type handler struct {
	ingest    interfaces.Ingest
	debt      interfaces.TechnicalDebt
	analytics interfaces.Analytics
}

type createTicketRequest struct {
	ProductArea types.AreaID   `json:"productArea"`
	Severity    types.Severity `json:"severity"`
	Title       string         `json:"title"`
	CreatedAt   time.Time      `json:"createdAt"`
}

func (h *handler) handleCreateTicket(w http.ResponseWriter, r *http.Request) {
	org := types.OrgID(chi.URLParam(r, "orgID"))

	var req createTicketRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, r, goerr.Wrap(err, "invalid request body"), http.StatusBadRequest)
		return
	}

	ticket, err := h.ingest.CreateTicket(r.Context(), org, req.ProductArea, req.Severity, req.Title, req.CreatedAt)
	if err != nil {
		writeError(w, r, err, http.StatusBadRequest)
		return
	}

	writeJSON(w, r, http.StatusCreated, ticket)
}

type resolveTicketRequest struct {
	ResolvedAt time.Time `json:"resolvedAt"`
}

func (h *handler) handleResolveTicket(w http.ResponseWriter, r *http.Request) {
	org := types.OrgID(chi.URLParam(r, "orgID"))
	id := types.TicketID(chi.URLParam(r, "ticketID"))

	var req resolveTicketRequest
	if r.ContentLength > 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, r, goerr.Wrap(err, "invalid request body"), http.StatusBadRequest)
			return
		}
	}

	ticket, err := h.ingest.ResolveTicket(r.Context(), org, id, req.ResolvedAt)
	if err != nil {
		if errors.Is(err, model.ErrTicketNotFound) {
			writeError(w, r, err, http.StatusNotFound)
			return
		}
		writeError(w, r, err, http.StatusBadRequest)
		return
	}

	writeJSON(w, r, http.StatusOK, ticket)
}

func (h *handler) handleListTickets(w http.ResponseWriter, r *http.Request) {
	org := types.OrgID(chi.URLParam(r, "orgID"))
	area := types.AreaID(r.URL.Query().Get("area"))

	limit, err := parseIntParam(r, "limit", 0)
	if err != nil {
		writeError(w, r, err, http.StatusBadRequest)
		return
	}

	tickets, err := h.ingest.ListTickets(r.Context(), org, area, limit)
	if err != nil {
		writeError(w, r, err, http.StatusInternalServerError)
		return
	}

	writeJSON(w, r, http.StatusOK, map[string]any{
		"tickets": tickets,
	})
}

type recordUsageRequest struct {
	ProductArea types.AreaID `json:"productArea"`
	Amount      float64      `json:"amount"`
	RecordedAt  time.Time    `json:"recordedAt"`
}

func (h *handler) handleRecordUsage(w http.ResponseWriter, r *http.Request) {
	org := types.OrgID(chi.URLParam(r, "orgID"))

	var req recordUsageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, r, goerr.Wrap(err, "invalid request body"), http.StatusBadRequest)
		return
	}

	record, err := h.ingest.RecordUsage(r.Context(), org, req.ProductArea, req.Amount, req.RecordedAt)
	if err != nil {
		writeError(w, r, err, http.StatusBadRequest)
		return
	}

	writeJSON(w, r, http.StatusCreated, record)
}

func (h *handler) handleListAreas(w http.ResponseWriter, r *http.Request) {
	org := types.OrgID(chi.URLParam(r, "orgID"))

	areas, err := h.ingest.ListProductAreas(r.Context(), org)
	if err != nil {
		writeError(w, r, err, http.StatusInternalServerError)
		return
	}

	writeJSON(w, r, http.StatusOK, map[string]any{
		"areas": areas,
	})
}

type upsertAreaRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	IsKeyModule bool   `json:"isKeyModule"`
}

func (h *handler) handleUpsertArea(w http.ResponseWriter, r *http.Request) {
	org := types.OrgID(chi.URLParam(r, "orgID"))
	id := types.AreaID(chi.URLParam(r, "areaID"))

	var req upsertAreaRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, r, goerr.Wrap(err, "invalid request body"), http.StatusBadRequest)
		return
	}

	area := &model.ProductArea{
		ID:           id,
		Organization: org,
		Name:         req.Name,
		Description:  req.Description,
		IsKeyModule:  req.IsKeyModule,
	}
	if err := h.ingest.UpsertProductArea(r.Context(), area); err != nil {
		writeError(w, r, err, http.StatusBadRequest)
		return
	}

	writeJSON(w, r, http.StatusOK, area)
}

func (h *handler) handleOrganizationDebt(w http.ResponseWriter, r *http.Request) {
	org := types.OrgID(chi.URLParam(r, "orgID"))

	results, err := h.debt.CalculateOrganizationTechnicalDebt(r.Context(), org)
	if err != nil {
		writeError(w, r, err, http.StatusInternalServerError)
		return
	}

	writeJSON(w, r, http.StatusOK, map[string]any{
		"results": results,
	})
}

func (h *handler) handleAreaDebt(w http.ResponseWriter, r *http.Request) {
	org := types.OrgID(chi.URLParam(r, "orgID"))
	area := types.AreaID(chi.URLParam(r, "areaID"))

	asOf, err := parseTimeParam(r, "asOf")
	if err != nil {
		writeError(w, r, err, http.StatusBadRequest)
		return
	}

	var result *model.TechnicalDebtResult
	if asOf.IsZero() {
		result, err = h.debt.CalculateTechnicalDebt(r.Context(), org, area)
	} else {
		result, err = h.debt.CalculateTechnicalDebtAt(r.Context(), org, area, asOf)
	}
	if err != nil {
		writeError(w, r, err, http.StatusInternalServerError)
		return
	}

	writeJSON(w, r, http.StatusOK, result)
}

func (h *handler) handleRunAnalysis(w http.ResponseWriter, r *http.Request) {
	org := types.OrgID(chi.URLParam(r, "orgID"))

	// Analyses are persisted unless explicitly disabled
	store := true
	if v := r.URL.Query().Get("store"); v != "" {
		parsed, err := strconv.ParseBool(v)
		if err != nil {
			writeError(w, r, goerr.Wrap(err, "invalid store parameter"), http.StatusBadRequest)
			return
		}
		store = parsed
	}

	analyses, err := h.debt.RunOrganizationAnalysis(r.Context(), org, store)
	if err != nil {
		writeError(w, r, err, http.StatusInternalServerError)
		return
	}

	writeJSON(w, r, http.StatusCreated, map[string]any{
		"analyses": analyses,
	})
}

func (h *handler) handleListAnalyses(w http.ResponseWriter, r *http.Request) {
	org := types.OrgID(chi.URLParam(r, "orgID"))
	area := types.AreaID(r.URL.Query().Get("area"))

	limit, err := parseIntParam(r, "limit", 0)
	if err != nil {
		writeError(w, r, err, http.StatusBadRequest)
		return
	}

	analyses, err := h.debt.GetHistoricalAnalysis(r.Context(), org, area, limit)
	if err != nil {
		writeError(w, r, err, http.StatusInternalServerError)
		return
	}

	writeJSON(w, r, http.StatusOK, map[string]any{
		"analyses": analyses,
	})
}

func (h *handler) handleTicketBreakdown(w http.ResponseWriter, r *http.Request) {
	org := types.OrgID(chi.URLParam(r, "orgID"))

	start, err := parseTimeParam(r, "start")
	if err != nil {
		writeError(w, r, err, http.StatusBadRequest)
		return
	}
	end, err := parseTimeParam(r, "end")
	if err != nil {
		writeError(w, r, err, http.StatusBadRequest)
		return
	}

	breakdowns, err := h.analytics.GetTicketBreakdown(r.Context(), org, start, end)
	if err != nil {
		writeError(w, r, err, http.StatusInternalServerError)
		return
	}

	writeJSON(w, r, http.StatusOK, map[string]any{
		"breakdowns": breakdowns,
	})
}

func (h *handler) handleUsageCorrelation(w http.ResponseWriter, r *http.Request) {
	org := types.OrgID(chi.URLParam(r, "orgID"))

	correlations, err := h.analytics.GetUsageCorrelation(r.Context(), org)
	if err != nil {
		writeError(w, r, err, http.StatusInternalServerError)
		return
	}

	writeJSON(w, r, http.StatusOK, map[string]any{
		"correlations": correlations,
	})
}

func (h *handler) handleTrendAnalysis(w http.ResponseWriter, r *http.Request) {
	org := types.OrgID(chi.URLParam(r, "orgID"))

	months, err := parseIntParam(r, "months", 0)
	if err != nil {
		writeError(w, r, err, http.StatusBadRequest)
		return
	}

	trends, err := h.analytics.GetTrendAnalysis(r.Context(), org, months)
	if err != nil {
		writeError(w, r, err, http.StatusInternalServerError)
		return
	}

	writeJSON(w, r, http.StatusOK, map[string]any{
		"trends": trends,
	})
}

func (h *handler) handleReport(w http.ResponseWriter, r *http.Request) {
	org := types.OrgID(chi.URLParam(r, "orgID"))

	report, err := h.debt.GenerateReport(r.Context(), org)
	if err != nil {
		writeError(w, r, err, http.StatusInternalServerError)
		return
	}

	writeJSON(w, r, http.StatusOK, report)
}

// parseTimeParam parses an optional time query parameter, accepting
// RFC3339 or a plain date. An absent parameter yields the zero time.
func parseTimeParam(r *http.Request, name string) (time.Time, error) {
	value := r.URL.Query().Get(name)
	if value == "" {
		return time.Time{}, nil
	}

	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return t, nil
	}
	if t, err := time.Parse("2006-01-02", value); err == nil {
		return t, nil
	}

	return time.Time{}, goerr.New("invalid time parameter",
		goerr.V("name", name),
		goerr.V("value", value))
}

// parseIntParam parses an optional integer query parameter
func parseIntParam(r *http.Request, name string, fallback int) (int, error) {
	value := r.URL.Query().Get(name)
	if value == "" {
		return fallback, nil
	}

	parsed, err := strconv.Atoi(value)
	if err != nil {
		return 0, goerr.Wrap(err, "invalid integer parameter",
			goerr.V("name", name),
			goerr.V("value", value))
	}
	return parsed, nil
}
