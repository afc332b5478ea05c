package rest

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/rocketscienceinc/tictactoe-core/internal/apperror"
	"github.com/rocketscienceinc/tictactoe-core/internal/entity"
	"github.com/rocketscienceinc/tictactoe-core/internal/service"
)

type sessionService interface {
	Create(ctx context.Context) (*entity.Session, error)
	Get(ctx context.Context, id string) (*entity.Session, error)
	Close(ctx context.Context, id string) error

	Place(ctx context.Context, id string, cell int) (*entity.Session, error)
	MoveAI(ctx context.Context, id string) (*entity.Session, error)
	Reset(ctx context.Context, id string) (*entity.Session, error)
	Load(ctx context.Context, id, state string) (*entity.Session, error)
}

type Handlers interface {
	CreateSession(w http.ResponseWriter, r *http.Request)
	GetSession(w http.ResponseWriter, r *http.Request)
	CloseSession(w http.ResponseWriter, r *http.Request)

	Place(w http.ResponseWriter, r *http.Request)
	MoveAI(w http.ResponseWriter, r *http.Request)
	Reset(w http.ResponseWriter, r *http.Request)
	LoadState(w http.ResponseWriter, r *http.Request)
}

type loadStateRequest struct {
	State string `json:"state"`
}

type errorResponse struct {
	Error string `json:"error"`
}

type handlers struct {
	logger *slog.Logger

	sessions sessionService
}

func NewHandlers(logger *slog.Logger, sessions sessionService) Handlers {
	return &handlers{
		logger:   logger.With("component", "rest"),
		sessions: sessions,
	}
}

func (that *handlers) CreateSession(w http.ResponseWriter, r *http.Request) {
	session, err := that.sessions.Create(r.Context())
	if err != nil {
		that.writeError(w, "CreateSession", err)
		return
	}

	writeJSON(w, http.StatusCreated, session)
}

func (that *handlers) GetSession(w http.ResponseWriter, r *http.Request) {
	session, err := that.sessions.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		that.writeError(w, "GetSession", err)
		return
	}

	writeJSON(w, http.StatusOK, session)
}

func (that *handlers) CloseSession(w http.ResponseWriter, r *http.Request) {
	if err := that.sessions.Close(r.Context(), chi.URLParam(r, "id")); err != nil {
		that.writeError(w, "CloseSession", err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (that *handlers) Place(w http.ResponseWriter, r *http.Request) {
	cell, err := strconv.Atoi(chi.URLParam(r, "cell"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: apperror.ErrInvalidCell.Error()})
		return
	}

	session, err := that.sessions.Place(r.Context(), chi.URLParam(r, "id"), cell)
	if err != nil {
		that.writeError(w, "Place", err)
		return
	}

	writeJSON(w, http.StatusOK, session)
}

func (that *handlers) MoveAI(w http.ResponseWriter, r *http.Request) {
	session, err := that.sessions.MoveAI(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		that.writeError(w, "MoveAI", err)
		return
	}

	writeJSON(w, http.StatusOK, session)
}

func (that *handlers) Reset(w http.ResponseWriter, r *http.Request) {
	session, err := that.sessions.Reset(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		that.writeError(w, "Reset", err)
		return
	}

	writeJSON(w, http.StatusOK, session)
}

func (that *handlers) LoadState(w http.ResponseWriter, r *http.Request) {
	var req loadStateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid payload"})
		return
	}

	session, err := that.sessions.Load(r.Context(), chi.URLParam(r, "id"), req.State)
	if err != nil {
		that.writeError(w, "LoadState", err)
		return
	}

	writeJSON(w, http.StatusOK, session)
}

// writeError - maps domain errors onto HTTP statuses, anything unknown is a 500.
func (that *handlers) writeError(w http.ResponseWriter, method string, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		that.logger.Error("request failed", "method", method, "error", err)
		writeJSON(w, status, errorResponse{Error: "internal server error"})
		return
	}

	writeJSON(w, status, errorResponse{Error: err.Error()})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, apperror.ErrInvalidCell), errors.Is(err, apperror.ErrInvalidStateString):
		return http.StatusBadRequest
	case errors.Is(err, service.ErrSessionNotFound):
		return http.StatusNotFound
	case errors.Is(err, apperror.ErrCellOccupied),
		errors.Is(err, apperror.ErrGameFinished),
		errors.Is(err, apperror.ErrNotYourTurn),
		errors.Is(err, apperror.ErrNoAvailableMoves):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
