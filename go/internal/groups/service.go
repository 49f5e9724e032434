package groups

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/mcdev12/gavel/go/internal/models"
)

// Service exposes the group registry over HTTP/JSON: registration plus the
// reads clients need to render rooms (display name, remaining budget).
type Service struct {
	app *App
}

// NewService creates the group HTTP service.
func NewService(app *App) *Service {
	return &Service{app: app}
}

// RegisterRoutes mounts the group endpoints.
func (s *Service) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /v1/groups", s.handleCreate)
	mux.HandleFunc("GET /v1/groups", s.handleList)
	mux.HandleFunc("GET /v1/groups/{id}", s.handleGet)
}

type createGroupRequest struct {
	Name              string     `json:"name"`
	Budget            int64      `json:"budget"`
	CaptainIdentityID *uuid.UUID `json:"captain_identity_id,omitempty"`
}

func (s *Service) handleCreate(w http.ResponseWriter, r *http.Request) {
	var req createGroupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpError(w, http.StatusUnprocessableEntity, "malformed request body")
		return
	}

	group, err := s.app.CreateGroup(r.Context(), &models.Group{
		Name:              req.Name,
		Budget:            req.Budget,
		CaptainIdentityID: req.CaptainIdentityID,
	})
	if err != nil {
		httpError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	respond(w, http.StatusCreated, group)
}

func (s *Service) handleGet(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		httpError(w, http.StatusUnprocessableEntity, "invalid group id")
		return
	}

	group, err := s.app.GetGroup(r.Context(), id)
	if err != nil {
		httpError(w, http.StatusNotFound, "group not found")
		return
	}
	respond(w, http.StatusOK, group)
}

// handleList returns the groups named by the ids query parameter, a
// comma-separated uuid list.
func (s *Service) handleList(w http.ResponseWriter, r *http.Request) {
	raw := r.URL.Query().Get("ids")
	if raw == "" {
		httpError(w, http.StatusUnprocessableEntity, "ids query parameter is required")
		return
	}

	var ids []uuid.UUID
	for _, part := range strings.Split(raw, ",") {
		id, err := uuid.Parse(strings.TrimSpace(part))
		if err != nil {
			httpError(w, http.StatusUnprocessableEntity, "invalid group id in ids")
			return
		}
		ids = append(ids, id)
	}

	list, err := s.app.ListGroups(r.Context(), ids)
	if err != nil {
		httpError(w, http.StatusInternalServerError, "failed to list groups")
		return
	}
	if list == nil {
		list = []*models.Group{}
	}
	respond(w, http.StatusOK, list)
}

func respond(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Error().Err(err).Msg("failed to write response")
	}
}

func httpError(w http.ResponseWriter, status int, msg string) {
	respond(w, status, map[string]string{"message": msg})
}
