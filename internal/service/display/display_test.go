package display

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"testing"

	"trafficcounter/internal/pipeline"
)

type frame int

func (frame) Close() error { return nil }

type stubSink struct {
	shown int
	err   error
	stop  bool
	polls int
}

func (s *stubSink) Show(frame, int) error {
	s.shown++
	return s.err
}

func (s *stubSink) PollStop() bool {
	s.polls++
	return s.stop
}

type stubHub struct {
	messages [][]byte
	full     bool
}

func (h *stubHub) Broadcast(message []byte) bool {
	if h.full {
		return false
	}
	h.messages = append(h.messages, message)
	return true
}

func TestMulti_ShowReachesEverySink(t *testing.T) {
	failing := &stubSink{err: errors.New("no window")}
	healthy := &stubSink{}
	m := Multi[frame]{failing, healthy}

	err := m.Show(frame(1), 2)
	if err == nil {
		t.Fatal("Expected error from failing sink")
	}
	if failing.shown != 1 || healthy.shown != 1 {
		t.Errorf("Shown = %d/%d, want 1/1", failing.shown, healthy.shown)
	}
}

func TestMulti_PollStopAsksEverySink(t *testing.T) {
	first := &stubSink{stop: true}
	second := &stubSink{}
	m := Multi[frame]{first, second}

	if !m.PollStop() {
		t.Error("PollStop should report a stop from any sink")
	}
	if second.polls != 1 {
		t.Errorf("Second sink polled %d times, want 1", second.polls)
	}
}

func TestSignal_StopsAfterCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	var s pipeline.Display[frame] = NewSignal[frame](ctx)

	if s.PollStop() {
		t.Error("PollStop before cancel should be false")
	}
	cancel()
	if !s.PollStop() {
		t.Error("PollStop after cancel should be true")
	}
}

func TestWeb_BroadcastsCountAndImage(t *testing.T) {
	hub := &stubHub{}
	w := NewWeb[frame](hub, func(frame) ([]byte, error) { return []byte("jpeg"), nil })

	if err := w.Show(frame(1), 4); err != nil {
		t.Fatalf("Show failed: %v", err)
	}
	if len(hub.messages) != 1 {
		t.Fatalf("Broadcast %d messages, want 1", len(hub.messages))
	}

	var msg viewerMessage
	if err := json.Unmarshal(hub.messages[0], &msg); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}
	if msg.Vehicles != 4 {
		t.Errorf("Vehicles = %d, want 4", msg.Vehicles)
	}
	if msg.Image != base64.StdEncoding.EncodeToString([]byte("jpeg")) {
		t.Errorf("Unexpected image payload %q", msg.Image)
	}
}

func TestWeb_DropIsNotAnError(t *testing.T) {
	w := NewWeb[frame](&stubHub{full: true}, func(frame) ([]byte, error) { return nil, nil })

	if err := w.Show(frame(1), 0); err != nil {
		t.Errorf("Show with full hub returned %v", err)
	}
	if w.Dropped() != 1 {
		t.Errorf("Dropped = %d, want 1", w.Dropped())
	}
}

func TestWeb_EncodeFailure(t *testing.T) {
	w := NewWeb[frame](&stubHub{}, func(frame) ([]byte, error) { return nil, errors.New("bad frame") })

	if err := w.Show(frame(1), 0); err == nil {
		t.Error("Expected encode error")
	}
}

func TestWeb_RequestStop(t *testing.T) {
	w := NewWeb[frame](&stubHub{}, nil)
	if w.PollStop() {
		t.Error("PollStop before request should be false")
	}
	w.RequestStop()
	if !w.PollStop() || !w.Stopping() {
		t.Error("PollStop after request should be true")
	}
}
