package workspace

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"

	"github.com/de-tools/pbi-refresh/pkg/adapters"
	"github.com/de-tools/pbi-refresh/pkg/models/api"
	"github.com/de-tools/pbi-refresh/pkg/models/domain"
	"github.com/de-tools/pbi-refresh/pkg/services/refresh"
	"github.com/de-tools/pbi-refresh/pkg/store/client"
	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
)

// Service is the part of the orchestrator exposed over HTTP.
type Service interface {
	Workspaces() []domain.Workspace
	ListWorkspaceDatasets(ctx context.Context, workspaceID string) ([]domain.Dataset, error)
	Run(ctx context.Context, policy domain.RefreshPolicy, handler refresh.OutcomeHandler) (*domain.RunSummary, error)
}

type Handler struct {
	svc           Service
	defaultPolicy domain.RefreshPolicy

	// running admits a single refresh run at a time.
	running sync.Mutex
}

func NewHandler(svc Service, defaultPolicy domain.RefreshPolicy) *Handler {
	return &Handler{
		svc:           svc,
		defaultPolicy: defaultPolicy,
	}
}

func (h *Handler) ListWorkspaces(w http.ResponseWriter, r *http.Request) {
	logger := zerolog.Ctx(r.Context())

	response := make([]api.Workspace, 0)
	for _, ws := range h.svc.Workspaces() {
		response = append(response, adapters.MapDomainWsToAPIWs(ws))
	}

	writeJSON(w, logger, http.StatusOK, response)
}

func (h *Handler) ListDatasets(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := zerolog.Ctx(ctx)
	ws := chi.URLParam(r, "workspace")

	if !h.isConfigured(ws) {
		http.Error(w, "workspace is not configured", http.StatusNotFound)
		return
	}

	datasets, err := h.svc.ListWorkspaceDatasets(ctx, ws)
	if err != nil {
		logger.Error().Err(err).Str("ws", ws).Msg("failed to list datasets")
		http.Error(w, err.Error(), statusFor(err))
		return
	}

	response := make([]api.Dataset, 0, len(datasets))
	for _, ds := range datasets {
		response = append(response, adapters.MapDomainDatasetToAPI(ds, refresh.IsModelBased(ds)))
	}

	writeJSON(w, logger, http.StatusOK, response)
}

func (h *Handler) RunRefresh(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := zerolog.Ctx(ctx)

	policy := h.defaultPolicy
	if raw := r.URL.Query().Get("policy"); raw != "" {
		parsed, err := domain.ParseRefreshPolicy(raw)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		policy = parsed
	}

	if !h.running.TryLock() {
		http.Error(w, "a refresh run is already in progress", http.StatusConflict)
		return
	}
	defer h.running.Unlock()

	summary, err := h.svc.Run(ctx, policy, nil)
	if err != nil {
		logger.Error().Err(err).Str("policy", string(policy)).Msg("refresh run aborted")
		http.Error(w, err.Error(), statusFor(err))
		return
	}

	writeJSON(w, logger, http.StatusOK, adapters.MapDomainSummaryToAPI(summary))
}

func (h *Handler) isConfigured(id string) bool {
	for _, ws := range h.svc.Workspaces() {
		if ws.ID == id {
			return true
		}
	}
	return false
}

func statusFor(err error) int {
	var authErr *client.AuthenticationError
	if errors.As(err, &authErr) {
		return http.StatusUnauthorized
	}
	return http.StatusBadGateway
}

func writeJSON(w http.ResponseWriter, logger *zerolog.Logger, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Error().
			Err(err).
			Msg("failed to encode response")
	}
}
