package httpx

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/MrCreosote/user-and-job-state/internal/core"
	"github.com/MrCreosote/user-and-job-state/internal/domain/model"
	"github.com/MrCreosote/user-and-job-state/internal/service"
)

// StateHandlers exposes the user state store. The ?auth=true query selects
// the authorized keyspace.
type StateHandlers struct {
	Svc    *service.UserStateService
	Logger *slog.Logger
}

type stateValueResponse struct {
	Key   string          `json:"key"`
	Value json.RawMessage `json:"value"`
}

func (h *StateHandlers) key(r *http.Request) (model.StateKey, error) {
	authed, err := parseBoolQuery(r.URL.Query().Get("auth"), "auth")
	if err != nil {
		return model.StateKey{}, err
	}
	return model.StateKey{
		User:    UserFromContext(r.Context()),
		Service: r.PathValue("service"),
		Authed:  authed,
		Key:     r.PathValue("key"),
	}, nil
}

// GetState handles GET /api/v1/state/{service}/{key}.
func (h *StateHandlers) GetState(w http.ResponseWriter, r *http.Request) {
	key, err := h.key(r)
	if err != nil {
		WriteAppError(w, r, h.Logger, err)
		return
	}
	val, err := h.Svc.GetState(r.Context(), key)
	if err != nil {
		WriteAppError(w, r, h.Logger, err)
		return
	}
	WriteJSON(w, http.StatusOK, stateValueResponse{Key: key.Key, Value: val})
}

// HasState handles HEAD /api/v1/state/{service}/{key}.
func (h *StateHandlers) HasState(w http.ResponseWriter, r *http.Request) {
	key, err := h.key(r)
	if err != nil {
		WriteAppError(w, r, h.Logger, err)
		return
	}
	ok, err := h.Svc.HasState(r.Context(), key)
	if err != nil {
		WriteAppError(w, r, h.Logger, err)
		return
	}
	if !ok {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	w.WriteHeader(http.StatusOK)
}

// SetState handles PUT /api/v1/state/{service}/{key}. The body is the value.
func (h *StateHandlers) SetState(w http.ResponseWriter, r *http.Request) {
	key, err := h.key(r)
	if err != nil {
		WriteAppError(w, r, h.Logger, err)
		return
	}
	var value json.RawMessage
	if !DecodeJSON(w, r, &value) {
		return
	}
	if err := h.Svc.SetState(r.Context(), key, value); err != nil {
		WriteAppError(w, r, h.Logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// RemoveState handles DELETE /api/v1/state/{service}/{key}.
func (h *StateHandlers) RemoveState(w http.ResponseWriter, r *http.Request) {
	key, err := h.key(r)
	if err != nil {
		WriteAppError(w, r, h.Logger, err)
		return
	}
	if err := h.Svc.RemoveState(r.Context(), key); err != nil {
		WriteAppError(w, r, h.Logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ListState handles GET /api/v1/state/{service}.
func (h *StateHandlers) ListState(w http.ResponseWriter, r *http.Request) {
	key, err := h.key(r)
	if err != nil {
		WriteAppError(w, r, h.Logger, err)
		return
	}
	keys, err := h.Svc.ListState(r.Context(), core.StateScope{User: key.User, Service: key.Service, Authed: key.Authed})
	if err != nil {
		WriteAppError(w, r, h.Logger, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]any{"keys": keys})
}

// ListStateServices handles GET /api/v1/state.
func (h *StateHandlers) ListStateServices(w http.ResponseWriter, r *http.Request) {
	key, err := h.key(r)
	if err != nil {
		WriteAppError(w, r, h.Logger, err)
		return
	}
	services, err := h.Svc.ListStateServices(r.Context(), key.User, key.Authed)
	if err != nil {
		WriteAppError(w, r, h.Logger, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]any{"services": services})
}
