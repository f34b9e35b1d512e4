package board

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/appetiteclub/apt"
	"github.com/appetiteclub/apt/telemetry"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/tableside/expo/pkg/enums/station"
)

const MaxBodyBytes = 1 << 20

// Handler exposes the display lifecycle and board actions over HTTP.
// The SSE stream endpoint lives in internal/stream and is mounted by
// the app alongside these routes.
type Handler struct {
	registry *Registry
	stream   http.Handler
	logger   apt.Logger
	config   *apt.Config
	tlm      *telemetry.HTTP
}

func NewHandler(registry *Registry, config *apt.Config, logger apt.Logger) *Handler {
	if logger == nil {
		logger = apt.NewNoopLogger()
	}
	return &Handler{
		registry: registry,
		logger:   logger,
		config:   config,
		tlm:      telemetry.NewHTTP(),
	}
}

// SetStreamHandler mounts the SSE handler under the display routes.
func (h *Handler) SetStreamHandler(stream http.Handler) {
	h.stream = stream
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/displays", func(r chi.Router) {
		r.Post("/", h.OpenDisplay)
		r.Get("/{id}", h.GetBoard)
		r.Delete("/{id}", h.CloseDisplay)
		r.Post("/{id}/refresh", h.RefreshDisplay)
		r.Put("/{id}/mute", h.MuteDisplay)
		r.Patch("/{id}/items/{itemID}/{action}", h.TransitionItem)
		if h.stream != nil {
			r.Get("/{id}/stream", h.stream.ServeHTTP)
		}
	})
}

func (h *Handler) log(r *http.Request) apt.Logger {
	return h.logger.With("request_id", apt.RequestIDFrom(r.Context()))
}

func (h *Handler) display(w http.ResponseWriter, r *http.Request) (*Display, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		apt.RespondError(w, http.StatusBadRequest, "Invalid display ID")
		return nil, false
	}

	d, err := h.registry.Get(id)
	if err != nil {
		apt.RespondError(w, http.StatusNotFound, "Display not found")
		return nil, false
	}
	return d, true
}

func (h *Handler) OpenDisplay(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.OpenDisplay")
	defer finish()
	log := h.log(r)

	r.Body = http.MaxBytesReader(w, r.Body, MaxBodyBytes)
	body, err := io.ReadAll(r.Body)
	if err != nil {
		apt.RespondError(w, http.StatusBadRequest, "Could not read request body")
		return
	}

	var payload struct {
		Stations []string `json:"stations"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		apt.RespondError(w, http.StatusBadRequest, "Invalid JSON payload")
		return
	}

	for _, code := range payload.Stations {
		if station.ByName(code) == nil {
			apt.RespondError(w, http.StatusBadRequest, "Unknown station: "+code)
			return
		}
	}

	d, err := h.registry.Open(payload.Stations)
	if err != nil {
		log.Errorf("cannot open display: %v", err)
		apt.RespondError(w, http.StatusBadRequest, "Could not open display")
		return
	}

	apt.Respond(w, http.StatusCreated, map[string]interface{}{
		"display_id": d.ID().String(),
		"stations":   d.Stations(),
	}, nil)
}

func (h *Handler) GetBoard(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.GetBoard")
	defer finish()

	d, ok := h.display(w, r)
	if !ok {
		return
	}

	d.Touch()
	apt.Respond(w, http.StatusOK, d.View(), nil)
}

func (h *Handler) CloseDisplay(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.CloseDisplay")
	defer finish()
	log := h.log(r)

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		apt.RespondError(w, http.StatusBadRequest, "Invalid display ID")
		return
	}

	if err := h.registry.Close(id); err != nil {
		log.Errorf("cannot close display: %v", err)
		apt.RespondError(w, http.StatusNotFound, "Display not found")
		return
	}

	apt.Respond(w, http.StatusOK, map[string]interface{}{"closed": id.String()}, nil)
}

func (h *Handler) RefreshDisplay(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.RefreshDisplay")
	defer finish()

	d, ok := h.display(w, r)
	if !ok {
		return
	}

	d.Refresh()
	apt.Respond(w, http.StatusAccepted, map[string]interface{}{"refresh": "scheduled"}, nil)
}

func (h *Handler) MuteDisplay(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.MuteDisplay")
	defer finish()

	d, ok := h.display(w, r)
	if !ok {
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, MaxBodyBytes)
	body, err := io.ReadAll(r.Body)
	if err != nil {
		apt.RespondError(w, http.StatusBadRequest, "Could not read request body")
		return
	}

	var payload struct {
		Muted bool `json:"muted"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		apt.RespondError(w, http.StatusBadRequest, "Invalid JSON payload")
		return
	}

	d.SetMuted(payload.Muted)
	apt.Respond(w, http.StatusOK, map[string]interface{}{"muted": payload.Muted}, nil)
}

// TransitionItem runs a gated status change. Local rejections respond
// with an "ignored" result and no upstream call: the board only offers
// the legal next action, so these are duplicate clicks or stale views,
// not operator errors.
func (h *Handler) TransitionItem(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.TransitionItem")
	defer finish()
	log := h.log(r)
	ctx := r.Context()

	d, ok := h.display(w, r)
	if !ok {
		return
	}

	itemID, err := uuid.Parse(chi.URLParam(r, "itemID"))
	if err != nil {
		apt.RespondError(w, http.StatusBadRequest, "Invalid item ID")
		return
	}
	action := chi.URLParam(r, "action")

	err = d.Transition(ctx, itemID, action)
	switch {
	case err == nil:
		apt.Respond(w, http.StatusOK, map[string]interface{}{"result": "accepted"}, nil)
	case errors.Is(err, ErrTransitionPending):
		apt.Respond(w, http.StatusOK, map[string]interface{}{"result": "pending"}, nil)
	case errors.Is(err, ErrInvalidTransition), errors.Is(err, ErrUnknownAction), errors.Is(err, ErrUnknownItem):
		log.Errorf("ignored transition request: %v", err)
		apt.Respond(w, http.StatusOK, map[string]interface{}{"result": "ignored"}, nil)
	default:
		log.Errorf("transition failed upstream: %v", err)
		apt.RespondError(w, http.StatusBadGateway, "Could not update item status")
	}
}
