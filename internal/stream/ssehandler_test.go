package stream

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/appetiteclub/apt"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/tableside/expo/internal/board"
)

type stubUpstream struct{}

func (stubUpstream) ListStationItems(ctx context.Context, station string) ([]board.Item, error) {
	return nil, nil
}

func (stubUpstream) TransitionItem(ctx context.Context, id board.ItemID, action string) error {
	return nil
}

func newStreamFixture(t *testing.T) (chi.Router, *board.Registry) {
	t.Helper()

	registry := board.NewRegistry(stubUpstream{}, nil, nil, nil, apt.NewNoopLogger())
	if err := registry.Start(context.Background()); err != nil {
		t.Fatalf("registry start: %v", err)
	}
	t.Cleanup(func() { registry.Stop(context.Background()) })

	h := NewSSEHandler(registry, apt.NewNoopLogger())
	r := chi.NewRouter()
	r.Get("/displays/{id}/stream", h.ServeHTTP)
	return r, registry
}

func TestSSEHandlerInvalidID(t *testing.T) {
	router, _ := newStreamFixture(t)

	req := httptest.NewRequest(http.MethodGet, "/displays/not-a-uuid/stream", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", w.Code, http.StatusBadRequest)
	}
}

func TestSSEHandlerUnknownDisplay(t *testing.T) {
	router, _ := newStreamFixture(t)

	req := httptest.NewRequest(http.MethodGet, "/displays/"+uuid.New().String()+"/stream", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want %d", w.Code, http.StatusNotFound)
	}
}

func TestSSEHandlerStreamsSnapshot(t *testing.T) {
	router, registry := newStreamFixture(t)

	d, err := registry.Open([]string{"kitchen"})
	if err != nil {
		t.Fatalf("open display: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	req := httptest.NewRequest(http.MethodGet, "/displays/"+d.ID().String()+"/stream", nil).WithContext(ctx)
	w := httptest.NewRecorder()

	done := make(chan struct{})
	go func() {
		router.ServeHTTP(w, req)
		close(done)
	}()

	// Give the handler time to write the connection preamble and the
	// initial snapshot, then disconnect.
	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("handler did not return after client disconnect")
	}

	body := w.Body.String()
	if !strings.Contains(body, ": connected") {
		t.Error("missing connection comment")
	}
	if !strings.Contains(body, "retry: 2000") {
		t.Error("missing retry hint")
	}
	if !strings.Contains(body, "event: snapshot") {
		t.Error("missing initial snapshot event")
	}
	if ct := w.Header().Get("Content-Type"); ct != "text/event-stream" {
		t.Errorf("content type = %q, want text/event-stream", ct)
	}
}

func TestSSEHandlerEndsWhenDisplayCloses(t *testing.T) {
	router, registry := newStreamFixture(t)

	d, err := registry.Open([]string{"kitchen"})
	if err != nil {
		t.Fatalf("open display: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/displays/"+d.ID().String()+"/stream", nil)
	w := httptest.NewRecorder()

	done := make(chan struct{})
	go func() {
		router.ServeHTTP(w, req)
		close(done)
	}()

	time.Sleep(50 * time.Millisecond)
	if err := registry.Close(d.ID()); err != nil {
		t.Fatalf("close display: %v", err)
	}

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("handler did not return after display close")
	}
}

func TestSendSSEEventMultiline(t *testing.T) {
	w := httptest.NewRecorder()
	sendSSEEvent(w, "snapshot", "{\n  \"a\": 1\n}")

	want := "event: snapshot\ndata: {\ndata:   \"a\": 1\ndata: }\n\n"
	if got := w.Body.String(); got != want {
		t.Errorf("sendSSEEvent output = %q, want %q", got, want)
	}
}
