package sim

import (
	"net/http"

	"github.com/appetiteclub/apt"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/tableside/expo/pkg/enums/station"
)

// Handler serves the order-service surface expo polls, backed by the
// simulated store. Response shapes match the production order service.
type Handler struct {
	store  *Store
	logger apt.Logger
}

func NewHandler(store *Store, logger apt.Logger) *Handler {
	if logger == nil {
		logger = apt.NewNoopLogger()
	}
	return &Handler{store: store, logger: logger}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/items", func(r chi.Router) {
		r.Get("/", h.ListItems)
		r.Patch("/{id}/{action}", h.TransitionItem)
	})
}

func (h *Handler) ListItems(w http.ResponseWriter, r *http.Request) {
	stationCode := r.URL.Query().Get("station")
	if station.ByName(stationCode) == nil {
		apt.RespondError(w, http.StatusBadRequest, "Unknown station")
		return
	}

	apt.Respond(w, http.StatusOK, map[string]interface{}{
		"items": h.store.List(stationCode),
	}, nil)
}

func (h *Handler) TransitionItem(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		apt.RespondError(w, http.StatusBadRequest, "Invalid item ID")
		return
	}

	action := chi.URLParam(r, "action")
	if !h.store.Transition(id, action) {
		apt.RespondError(w, http.StatusConflict, "Transition not allowed")
		return
	}

	apt.Respond(w, http.StatusOK, map[string]interface{}{"result": "ok"}, nil)
}
