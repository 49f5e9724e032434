package auction

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/mcdev12/gavel/go/internal/auction/engine"
	"github.com/mcdev12/gavel/go/internal/models"
)

// EngineAPI defines what the service layer needs from the engine.
type EngineAPI interface {
	Create(ctx context.Context, req engine.CreateAuctionRequest) (*models.Auction, error)
	Get(ctx context.Context, auctionID uuid.UUID) (*models.Auction, error)
	Start(ctx context.Context, auctionID uuid.UUID) (*models.Auction, error)
	Pause(ctx context.Context, auctionID uuid.UUID) (*models.Auction, error)
	Resume(ctx context.Context, auctionID uuid.UUID) (*models.Auction, error)
	Close(ctx context.Context, auctionID uuid.UUID) (*models.Auction, error)
	SetCurrentItem(ctx context.Context, auctionID, itemID uuid.UUID) (*models.Auction, error)
	PlaceBid(ctx context.Context, auctionID uuid.UUID, req engine.PlaceBidRequest) (*models.Auction, error)
	UndoBid(ctx context.Context, auctionID, groupID uuid.UUID) (*models.Auction, error)
	Skip(ctx context.Context, auctionID, groupID uuid.UUID) (*models.Auction, error)
	SettleCurrent(ctx context.Context, auctionID uuid.UUID) (*models.Auction, error)
}

// Service exposes the engine commands over HTTP/JSON.
type Service struct {
	engine EngineAPI
	app    *App
}

// NewService creates the auction HTTP service.
func NewService(eng EngineAPI, app *App) *Service {
	return &Service{
		engine: eng,
		app:    app,
	}
}

// RegisterRoutes mounts the command and read endpoints.
func (s *Service) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /v1/auctions", s.handleCreate)
	mux.HandleFunc("GET /v1/auctions/{id}", s.handleGet)
	mux.HandleFunc("GET /v1/rooms/{roomID}/auction", s.handleGetByRoom)
	mux.HandleFunc("POST /v1/auctions/{id}/start", s.command(s.engine.Start))
	mux.HandleFunc("POST /v1/auctions/{id}/pause", s.command(s.engine.Pause))
	mux.HandleFunc("POST /v1/auctions/{id}/resume", s.command(s.engine.Resume))
	mux.HandleFunc("POST /v1/auctions/{id}/close", s.command(s.engine.Close))
	mux.HandleFunc("POST /v1/auctions/{id}/settle", s.command(s.engine.SettleCurrent))
	mux.HandleFunc("PUT /v1/auctions/{id}/item", s.handleSetItem)
	mux.HandleFunc("POST /v1/auctions/{id}/bids", s.handlePlaceBid)
	mux.HandleFunc("POST /v1/auctions/{id}/bids/undo", s.handleUndoBid)
	mux.HandleFunc("POST /v1/auctions/{id}/skips", s.handleSkip)
}

func (s *Service) handleCreate(w http.ResponseWriter, r *http.Request) {
	var req engine.CreateAuctionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, &engine.Error{Kind: engine.KindInvalidInput, Msg: "malformed request body"})
		return
	}

	auction, err := s.engine.Create(r.Context(), req)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, auction)
}

func (s *Service) handleGet(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		writeError(w, &engine.Error{Kind: engine.KindInvalidInput, Msg: "invalid auction id"})
		return
	}

	auction, err := s.engine.Get(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, auction)
}

func (s *Service) handleGetByRoom(w http.ResponseWriter, r *http.Request) {
	auction, err := s.app.GetAuctionByRoom(r.Context(), r.PathValue("roomID"))
	if err != nil {
		writeError(w, &engine.Error{Kind: engine.KindNotFound, Msg: "no auction for room", Err: err})
		return
	}
	writeJSON(w, http.StatusOK, auction)
}

// command adapts the id-only engine commands to a handler.
func (s *Service) command(fn func(context.Context, uuid.UUID) (*models.Auction, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := uuid.Parse(r.PathValue("id"))
		if err != nil {
			writeError(w, &engine.Error{Kind: engine.KindInvalidInput, Msg: "invalid auction id"})
			return
		}

		auction, err := fn(r.Context(), id)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, auction)
	}
}

func (s *Service) handleSetItem(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		writeError(w, &engine.Error{Kind: engine.KindInvalidInput, Msg: "invalid auction id"})
		return
	}

	var req struct {
		ItemID uuid.UUID `json:"item_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, &engine.Error{Kind: engine.KindInvalidInput, Msg: "malformed request body"})
		return
	}

	auction, err := s.engine.SetCurrentItem(r.Context(), id, req.ItemID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, auction)
}

func (s *Service) handlePlaceBid(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		writeError(w, &engine.Error{Kind: engine.KindInvalidInput, Msg: "invalid auction id"})
		return
	}

	var req engine.PlaceBidRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, &engine.Error{Kind: engine.KindInvalidInput, Msg: "malformed request body"})
		return
	}

	auction, err := s.engine.PlaceBid(r.Context(), id, req)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, auction)
}

func (s *Service) handleUndoBid(w http.ResponseWriter, r *http.Request) {
	s.groupCommand(w, r, s.engine.UndoBid)
}

func (s *Service) handleSkip(w http.ResponseWriter, r *http.Request) {
	s.groupCommand(w, r, s.engine.Skip)
}

func (s *Service) groupCommand(w http.ResponseWriter, r *http.Request, fn func(context.Context, uuid.UUID, uuid.UUID) (*models.Auction, error)) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		writeError(w, &engine.Error{Kind: engine.KindInvalidInput, Msg: "invalid auction id"})
		return
	}

	var req struct {
		GroupID uuid.UUID `json:"group_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, &engine.Error{Kind: engine.KindInvalidInput, Msg: "malformed request body"})
		return
	}

	auction, err := fn(r.Context(), id, req.GroupID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, auction)
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Error().Err(err).Msg("failed to write response")
	}
}

func writeError(w http.ResponseWriter, err error) {
	kind := engine.KindOf(err)

	status := http.StatusInternalServerError
	switch kind {
	case engine.KindNotFound:
		status = http.StatusNotFound
	case engine.KindConflict:
		status = http.StatusConflict
	case engine.KindForbidden:
		status = http.StatusForbidden
	case engine.KindInvalidInput:
		status = http.StatusUnprocessableEntity
	}

	msg := err.Error()
	var typed *engine.Error
	if errors.As(err, &typed) {
		msg = typed.Msg
	}
	if status == http.StatusInternalServerError {
		log.Error().Err(err).Msg("command failed")
		msg = "internal error"
	}

	writeJSON(w, status, map[string]string{
		"error":   kind.String(),
		"message": msg,
	})
}
