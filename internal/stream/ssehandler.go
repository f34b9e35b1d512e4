package stream

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/appetiteclub/apt"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/tableside/expo/internal/board"
)

// SSEHandler streams a display's board over Server-Sent Events: a
// "snapshot" event per poll cycle, an "alert" event per item that newly
// went urgent, and "notice" events for failed transitions. The browser
// renders snapshots and plays the audio cue on alerts.
type SSEHandler struct {
	registry *board.Registry
	logger   apt.Logger
}

// NewSSEHandler creates a new SSE handler
func NewSSEHandler(registry *board.Registry, logger apt.Logger) *SSEHandler {
	if logger == nil {
		logger = apt.NewNoopLogger()
	}
	return &SSEHandler{
		registry: registry,
		logger:   logger,
	}
}

// ServeHTTP implements http.Handler for the SSE endpoint
func (h *SSEHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	displayID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "Invalid display ID", http.StatusBadRequest)
		return
	}

	display, err := h.registry.Get(displayID)
	if err != nil {
		http.Error(w, "Display not found", http.StatusNotFound)
		return
	}

	// Set SSE headers
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")

	subscriberID := uuid.New().String()
	h.logger.Info("new SSE connection", "display_id", displayID.String(), "subscriber_id", subscriberID)

	eventChan := display.Subscribe(subscriberID)
	defer display.Unsubscribe(subscriberID)

	// Send initial comment to establish connection
	fmt.Fprintf(w, ": connected\n\n")

	// Configure retry interval for reconnection (in milliseconds)
	fmt.Fprintf(w, "retry: 2000\n\n")

	if f, ok := w.(http.Flusher); ok {
		f.Flush()
	}

	// A reconnecting screen should not stare at an empty board until the
	// next cycle lands.
	h.send(w, "snapshot", display.View())

	// Send keepalive every 30 seconds
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-r.Context().Done():
			h.logger.Info("SSE client disconnected", "subscriber_id", subscriberID)
			return

		case <-ticker.C:
			// Send keepalive comment
			fmt.Fprintf(w, ": keepalive\n\n")
			if f, ok := w.(http.Flusher); ok {
				f.Flush()
			}

		case evt, ok := <-eventChan:
			if !ok {
				h.logger.Info("display stream closed", "subscriber_id", subscriberID)
				return
			}
			h.send(w, evt.Type, evt.Data)
		}
	}
}

func (h *SSEHandler) send(w http.ResponseWriter, eventType string, payload interface{}) {
	data, err := json.Marshal(payload)
	if err != nil {
		h.logger.Error("failed to marshal SSE payload", "event", eventType, "error", err)
		return
	}
	sendSSEEvent(w, eventType, string(data))
}

// sendSSEEvent sends an SSE event with properly formatted multi-line data
func sendSSEEvent(w http.ResponseWriter, eventType string, data string) {
	// Remove any trailing/leading whitespace
	data = strings.TrimSpace(data)

	// SSE format: each line of data must be prefixed with "data: "
	fmt.Fprintf(w, "event: %s\n", eventType)

	// Split data into lines and prefix each with "data: "
	lines := strings.Split(data, "\n")
	for _, line := range lines {
		fmt.Fprintf(w, "data: %s\n", line)
	}

	// Empty line marks end of event
	fmt.Fprintf(w, "\n")

	if f, ok := w.(http.Flusher); ok {
		f.Flush()
	}
}
