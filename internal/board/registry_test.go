package board

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/tableside/expo/pkg/event"
)

func TestRegistryOpenBeforeStartRejected(t *testing.T) {
	r := NewRegistry(NewMockUpstream(), nil, nil, nil, nil)

	if _, err := r.Open([]string{"kitchen"}); err == nil {
		t.Fatal("Open before Start must fail")
	}
}

func TestRegistryOpenGetClose(t *testing.T) {
	publisher := NewMockPublisher()
	r := NewRegistry(NewMockUpstream(), nil, nil, publisher, nil)
	if err := r.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer r.Stop(context.Background())

	d, err := r.Open([]string{"kitchen", "pizza"})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if r.Count() != 1 {
		t.Errorf("Count = %d, want 1", r.Count())
	}

	got, err := r.Get(d.ID())
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got != d {
		t.Error("Get returned a different display")
	}

	if err := r.Close(d.ID()); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if r.Count() != 0 {
		t.Errorf("Count after close = %d, want 0", r.Count())
	}
	if _, err := r.Get(d.ID()); !errors.Is(err, ErrDisplayNotFound) {
		t.Errorf("Get after close = %v, want ErrDisplayNotFound", err)
	}
	if err := r.Close(d.ID()); !errors.Is(err, ErrDisplayNotFound) {
		t.Errorf("second Close = %v, want ErrDisplayNotFound", err)
	}

	msgs := publisher.Messages(event.DisplaysTopic)
	if len(msgs) != 2 {
		t.Fatalf("published display events = %d, want 2", len(msgs))
	}
	var opened, closed event.DisplayEvent
	if err := json.Unmarshal(msgs[0], &opened); err != nil {
		t.Fatalf("decode opened event: %v", err)
	}
	if err := json.Unmarshal(msgs[1], &closed); err != nil {
		t.Fatalf("decode closed event: %v", err)
	}
	if opened.EventType != event.EventDisplayOpened {
		t.Errorf("first event = %s, want %s", opened.EventType, event.EventDisplayOpened)
	}
	if closed.EventType != event.EventDisplayClosed {
		t.Errorf("second event = %s, want %s", closed.EventType, event.EventDisplayClosed)
	}
	if opened.DisplayID != d.ID().String() {
		t.Errorf("opened display id = %s, want %s", opened.DisplayID, d.ID())
	}
	if len(opened.Stations) != 2 {
		t.Errorf("opened stations = %d, want 2", len(opened.Stations))
	}
}

func TestRegistryOpenNeedsStations(t *testing.T) {
	r := NewRegistry(NewMockUpstream(), nil, nil, nil, nil)
	if err := r.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer r.Stop(context.Background())

	if _, err := r.Open(nil); err == nil {
		t.Fatal("Open with no stations must fail")
	}
}

func TestRegistryStopClosesAll(t *testing.T) {
	r := NewRegistry(NewMockUpstream(), nil, nil, nil, nil)
	if err := r.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}

	d1, err := r.Open([]string{"kitchen"})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if _, err := r.Open([]string{"bar-counter"}); err != nil {
		t.Fatalf("Open: %v", err)
	}

	ch := d1.Subscribe("screen-1")

	if err := r.Stop(context.Background()); err != nil {
		t.Fatalf("Stop: %v", err)
	}
	if r.Count() != 0 {
		t.Errorf("Count after Stop = %d, want 0", r.Count())
	}

	deadline := time.After(2 * time.Second)
	for {
		select {
		case _, ok := <-ch:
			if !ok {
				return
			}
		case <-deadline:
			t.Fatal("subscriber channel still open after registry Stop")
		}
	}
}

func TestRegistryNudgeStation(t *testing.T) {
	upstream := NewMockUpstream()
	r := NewRegistry(upstream, nil, nil, nil, nil)
	if err := r.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer r.Stop(context.Background())

	// Default kitchen cadence is seconds, so extra calls within the test
	// window can only come from a nudge.
	if _, err := r.Open([]string{"kitchen"}); err != nil {
		t.Fatalf("Open: %v", err)
	}

	waitCalls := func(station string, want int) {
		t.Helper()
		deadline := time.Now().Add(2 * time.Second)
		for upstream.Calls(station) < want {
			if time.Now().After(deadline) {
				t.Fatalf("calls(%s) = %d, want %d", station, upstream.Calls(station), want)
			}
			time.Sleep(time.Millisecond)
		}
	}

	waitCalls("kitchen", 1)

	r.NudgeStation("kitchen")
	waitCalls("kitchen", 2)

	// A station no open display shows is a no-op.
	r.NudgeStation("takeaway")
	time.Sleep(20 * time.Millisecond)
	if got := upstream.Calls("takeaway"); got != 0 {
		t.Errorf("calls(takeaway) = %d, want 0", got)
	}
}
