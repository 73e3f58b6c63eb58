package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/inngest/inngestgo"
	"github.com/rs/zerolog"

	"github.com/AI-Template-SDK/senso-visibility/internal/config"
	"github.com/AI-Template-SDK/senso-visibility/internal/models"
	"github.com/AI-Template-SDK/senso-visibility/internal/store"
	"github.com/AI-Template-SDK/senso-visibility/workflows"
)

type handlers struct {
	store  RunStore
	events EventSender
	log    zerolog.Logger
}

// CreateRunRequest is the body of POST /api/runs
type CreateRunRequest struct {
	Profile     *config.RunProfile `json:"profile"`
	ProfilePath string             `json:"profile_path"`
	Providers   []string           `json:"providers"`
	Queries     []string           `json:"queries"`
}

type createRunResponse struct {
	RunID   string           `json:"run_id"`
	EventID string           `json:"event_id"`
	Status  models.RunStatus `json:"status"`
}

type runDetail struct {
	Run    *store.Run        `json:"run"`
	Report *models.RunReport `json:"report,omitempty"`
}

func (h *handlers) health(w http.ResponseWriter, r *http.Request) {
	if err := h.store.Ping(r.Context()); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unhealthy", "error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

func (h *handlers) createRun(w http.ResponseWriter, r *http.Request) {
	var req CreateRunRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_REQUEST", "Invalid JSON body")
		return
	}

	var profile *config.RunProfile
	switch {
	case req.Profile != nil:
		profile = req.Profile
		if err := profile.Prepare(); err != nil {
			writeError(w, http.StatusBadRequest, "INVALID_PROFILE", err.Error())
			return
		}
	case req.ProfilePath != "":
		loaded, err := config.LoadProfile(req.ProfilePath)
		if err != nil {
			writeError(w, http.StatusBadRequest, "INVALID_PROFILE", err.Error())
			return
		}
		profile = loaded
	default:
		writeError(w, http.StatusBadRequest, "INVALID_REQUEST", "profile or profile_path is required")
		return
	}

	runID := uuid.NewString()
	if err := h.store.CreateRun(r.Context(), runID, profile.Business(), req.Providers); err != nil {
		h.log.Error().Err(err).Msg("failed to create run")
		writeError(w, http.StatusInternalServerError, "STORE_ERROR", "Failed to create run")
		return
	}

	event := workflows.VisibilityRunEvent{
		RunID:       runID,
		Profile:     req.Profile,
		ProfilePath: req.ProfilePath,
		Providers:   req.Providers,
		Queries:     req.Queries,
		TriggeredBy: "api",
	}
	eventID, err := h.events.Send(r.Context(), inngestgo.Event{
		Name: workflows.VisibilityRunEventName,
		Data: eventData(event),
	})
	if err != nil {
		h.log.Error().Err(err).Str("run_id", runID).Msg("failed to send run event")
		writeError(w, http.StatusBadGateway, "EVENT_ERROR", "Failed to send run event")
		return
	}

	h.log.Info().Str("run_id", runID).Str("event_id", eventID).Msg("run queued")
	writeData(w, http.StatusAccepted, createRunResponse{RunID: runID, EventID: eventID, Status: models.RunPending})
}

// eventData flattens the event into the map form inngest sends.
func eventData(event workflows.VisibilityRunEvent) map[string]interface{} {
	raw, _ := json.Marshal(event)
	data := map[string]interface{}{}
	_ = json.Unmarshal(raw, &data)
	return data
}

func (h *handlers) listRuns(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	runs, err := h.store.ListRuns(r.Context(), limit)
	if err != nil {
		h.storeError(w, err)
		return
	}
	writeData(w, http.StatusOK, runs)
}

func (h *handlers) getRun(w http.ResponseWriter, r *http.Request) {
	runID := chi.URLParam(r, "runID")
	run, err := h.store.GetRun(r.Context(), runID)
	if err != nil {
		h.storeError(w, err)
		return
	}

	detail := runDetail{Run: run}
	if run.Status == models.RunCompleted {
		report, err := h.store.GetReport(r.Context(), runID)
		if err != nil && !errors.Is(err, models.ErrRunNotFound) {
			h.storeError(w, err)
			return
		}
		detail.Report = report
	}
	writeData(w, http.StatusOK, detail)
}

func (h *handlers) listCompetitors(w http.ResponseWriter, r *http.Request) {
	runID := chi.URLParam(r, "runID")
	if _, err := h.store.GetRun(r.Context(), runID); err != nil {
		h.storeError(w, err)
		return
	}
	competitors, err := h.store.ListCompetitors(r.Context(), runID)
	if err != nil {
		h.storeError(w, err)
		return
	}
	writeData(w, http.StatusOK, competitors)
}

func (h *handlers) listQueries(w http.ResponseWriter, r *http.Request) {
	runID := chi.URLParam(r, "runID")
	if _, err := h.store.GetRun(r.Context(), runID); err != nil {
		h.storeError(w, err)
		return
	}
	queries, err := h.store.ListQueries(r.Context(), runID)
	if err != nil {
		h.storeError(w, err)
		return
	}
	writeData(w, http.StatusOK, queries)
}

func (h *handlers) storeError(w http.ResponseWriter, err error) {
	if errors.Is(err, models.ErrRunNotFound) {
		writeError(w, http.StatusNotFound, "NOT_FOUND", "Run not found")
		return
	}
	h.log.Error().Err(err).Msg("store request failed")
	writeError(w, http.StatusInternalServerError, "STORE_ERROR", "Internal error")
}
