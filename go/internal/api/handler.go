// Package api exposes the blind generator, tournaments and their clocks over
// REST.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/mcdev12/pokerclock/go/internal/blinds"
	"github.com/mcdev12/pokerclock/go/internal/chips"
	"github.com/mcdev12/pokerclock/go/internal/clock"
	"github.com/mcdev12/pokerclock/go/internal/models"
	"github.com/mcdev12/pokerclock/go/internal/tournament"
	"github.com/rs/zerolog/log"
)

// TournamentApp is what the handlers need from the tournament layer
type TournamentApp interface {
	Presets() []blinds.Preset
	CreateTournament(ctx context.Context, req tournament.CreateTournamentRequest) (*models.Tournament, error)
	GetTournament(ctx context.Context, id uuid.UUID) (*models.Tournament, error)
	ListTournaments(ctx context.Context) ([]models.Tournament, error)
	StartTournament(ctx context.Context, id uuid.UUID) (*models.Tournament, error)
	StopTournament(ctx context.Context, id uuid.UUID) (*models.Tournament, error)
	GetTournamentState(ctx context.Context, id uuid.UUID) (*tournament.State, error)
	GetChipSheet(ctx context.Context, id uuid.UUID) (*chips.Sheet, error)
	PauseClock(ctx context.Context, id uuid.UUID) error
	ResumeClock(ctx context.Context, id uuid.UUID) error
	AdvanceLevel(ctx context.Context, id uuid.UUID) error
	PreviousLevel(ctx context.Context, id uuid.UUID) error
	AddTime(ctx context.Context, id uuid.UUID, seconds int) error
	RegisterPlayer(ctx context.Context, id uuid.UUID, req tournament.RegisterPlayerRequest) (*models.Player, error)
	Rebuy(ctx context.Context, id, playerID uuid.UUID) (*models.Player, error)
	EliminatePlayer(ctx context.Context, id, playerID uuid.UUID) (*models.Player, error)
}

type Handler struct {
	app TournamentApp
}

func NewHandler(app TournamentApp) *Handler {
	return &Handler{app: app}
}

// RegisterRoutes mounts the REST routes on r.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/health", h.Health)

	r.Route("/api", func(r chi.Router) {
		r.Post("/blind-structure/generate", h.GenerateBlindStructure)
		r.Get("/blind-structure/presets", h.ListPresets)

		r.Route("/tournaments", func(r chi.Router) {
			r.Post("/", h.CreateTournament)
			r.Get("/", h.ListTournaments)

			r.Route("/{tournamentID}", func(r chi.Router) {
				r.Get("/", h.GetTournament)
				r.Get("/blind-structure", h.GetBlindStructure)
				r.Post("/start", h.StartTournament)
				r.Post("/stop", h.StopTournament)
				r.Get("/state", h.GetTournamentState)
				r.Get("/chips", h.GetChipSheet)

				r.Post("/timer/pause", h.clockCommand(h.app.PauseClock))
				r.Post("/timer/resume", h.clockCommand(h.app.ResumeClock))
				r.Post("/timer/level/advance", h.clockCommand(h.app.AdvanceLevel))
				r.Post("/timer/level/previous", h.clockCommand(h.app.PreviousLevel))
				r.Post("/timer/add-time", h.AddTime)

				r.Post("/players", h.RegisterPlayer)
				r.Post("/players/{playerID}/rebuy", h.Rebuy)
				r.Post("/players/{playerID}/eliminate", h.EliminatePlayer)
			})
		})
	})
}

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// GenerateBlindStructure returns the schedule derived from a blind config
// without creating a tournament.
func (h *Handler) GenerateBlindStructure(w http.ResponseWriter, r *http.Request) {
	var cfg models.BlindConfig
	if err := decode(r, &cfg); err != nil {
		writeError(w, err)
		return
	}

	schedule, err := blinds.Generate(cfg)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, schedule)
}

func (h *Handler) ListPresets(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.app.Presets())
}

func (h *Handler) CreateTournament(w http.ResponseWriter, r *http.Request) {
	var req tournament.CreateTournamentRequest
	if err := decode(r, &req); err != nil {
		writeError(w, err)
		return
	}

	t, err := h.app.CreateTournament(r.Context(), req)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, t)
}

func (h *Handler) ListTournaments(w http.ResponseWriter, r *http.Request) {
	list, err := h.app.ListTournaments(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (h *Handler) GetTournament(w http.ResponseWriter, r *http.Request) {
	h.withTournament(w, r, h.app.GetTournament)
}

func (h *Handler) GetBlindStructure(w http.ResponseWriter, r *http.Request) {
	id, ok := urlUUID(w, r, "tournamentID")
	if !ok {
		return
	}

	t, err := h.app.GetTournament(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, t.Schedule)
}

func (h *Handler) StartTournament(w http.ResponseWriter, r *http.Request) {
	h.withTournament(w, r, h.app.StartTournament)
}

func (h *Handler) StopTournament(w http.ResponseWriter, r *http.Request) {
	h.withTournament(w, r, h.app.StopTournament)
}

func (h *Handler) GetTournamentState(w http.ResponseWriter, r *http.Request) {
	id, ok := urlUUID(w, r, "tournamentID")
	if !ok {
		return
	}

	state, err := h.app.GetTournamentState(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, state)
}

// GetChipSheet returns chip values for the tournament's current level and
// how its starting stack splits into chips.
func (h *Handler) GetChipSheet(w http.ResponseWriter, r *http.Request) {
	id, ok := urlUUID(w, r, "tournamentID")
	if !ok {
		return
	}

	sheet, err := h.app.GetChipSheet(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sheet)
}

type addTimeRequest struct {
	Seconds *int `json:"seconds"`
}

func (h *Handler) AddTime(w http.ResponseWriter, r *http.Request) {
	var req addTimeRequest
	if err := decode(r, &req); err != nil {
		writeError(w, err)
		return
	}
	if req.Seconds == nil {
		writeError(w, fmt.Errorf("%w: seconds is required", tournament.ErrInvalidRequest))
		return
	}

	seconds := *req.Seconds
	h.clockCommand(func(ctx context.Context, id uuid.UUID) error {
		return h.app.AddTime(ctx, id, seconds)
	})(w, r)
}

// clockCommand runs an operator command and replies with the resulting state.
func (h *Handler) clockCommand(fn func(ctx context.Context, id uuid.UUID) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := urlUUID(w, r, "tournamentID")
		if !ok {
			return
		}

		if err := fn(r.Context(), id); err != nil {
			writeError(w, err)
			return
		}

		state, err := h.app.GetTournamentState(r.Context(), id)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, state)
	}
}

func (h *Handler) RegisterPlayer(w http.ResponseWriter, r *http.Request) {
	id, ok := urlUUID(w, r, "tournamentID")
	if !ok {
		return
	}

	var req tournament.RegisterPlayerRequest
	if err := decode(r, &req); err != nil {
		writeError(w, err)
		return
	}

	player, err := h.app.RegisterPlayer(r.Context(), id, req)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, player)
}

func (h *Handler) Rebuy(w http.ResponseWriter, r *http.Request) {
	h.withPlayer(w, r, h.app.Rebuy)
}

func (h *Handler) EliminatePlayer(w http.ResponseWriter, r *http.Request) {
	h.withPlayer(w, r, h.app.EliminatePlayer)
}

func (h *Handler) withTournament(w http.ResponseWriter, r *http.Request, fn func(context.Context, uuid.UUID) (*models.Tournament, error)) {
	id, ok := urlUUID(w, r, "tournamentID")
	if !ok {
		return
	}

	t, err := fn(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, t)
}

func (h *Handler) withPlayer(w http.ResponseWriter, r *http.Request, fn func(context.Context, uuid.UUID, uuid.UUID) (*models.Player, error)) {
	id, ok := urlUUID(w, r, "tournamentID")
	if !ok {
		return
	}
	playerID, ok := urlUUID(w, r, "playerID")
	if !ok {
		return
	}

	player, err := fn(r.Context(), id, playerID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, player)
}

func urlUUID(w http.ResponseWriter, r *http.Request, param string) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, param))
	if err != nil {
		writeError(w, fmt.Errorf("%w: %s is not a valid id", tournament.ErrInvalidRequest, param))
		return uuid.Nil, false
	}
	return id, true
}

func decode(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("%w: failed to decode request body: %v", tournament.ErrInvalidRequest, err)
	}
	return nil
}

type errorResponse struct {
	Error string `json:"error"`
}

func writeError(w http.ResponseWriter, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		log.Error().Err(err).Msg("request failed")
	}
	writeJSON(w, status, errorResponse{Error: err.Error()})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, tournament.ErrNotFound), errors.Is(err, tournament.ErrPlayerNotFound):
		return http.StatusNotFound
	case errors.Is(err, clock.ErrNotActive), errors.Is(err, tournament.ErrInvalidStatus):
		return http.StatusConflict
	case blinds.IsValidationError(err),
		errors.Is(err, tournament.ErrInvalidRequest),
		errors.Is(err, tournament.ErrTournamentFull),
		errors.Is(err, tournament.ErrDuplicatePlayer),
		errors.Is(err, tournament.ErrPlayerEliminated),
		errors.Is(err, clock.ErrInvalidTransition):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("failed to encode response")
	}
}
