// Package display holds the frame sinks the counting loop presents to.
package display

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"io"
	"sync/atomic"

	"github.com/pkg/errors"
	"go.uber.org/multierr"

	"trafficcounter/internal/pipeline"
)

// Multi shows every frame on each sink in order. A failing sink does not
// keep the frame from the others.
type Multi[F io.Closer] []pipeline.Display[F]

func (m Multi[F]) Show(frame F, vehicles int) error {
	var err error
	for _, d := range m {
		err = multierr.Append(err, d.Show(frame, vehicles))
	}
	return err
}

// PollStop asks every sink so that each one drains its pending input.
func (m Multi[F]) PollStop() bool {
	stop := false
	for _, d := range m {
		if d.PollStop() {
			stop = true
		}
	}
	return stop
}

// Signal turns context cancellation, usually SIGINT or SIGTERM, into a
// stop request seen at the next frame boundary.
type Signal[F io.Closer] struct {
	ctx context.Context
}

func NewSignal[F io.Closer](ctx context.Context) *Signal[F] {
	return &Signal[F]{ctx: ctx}
}

func (s *Signal[F]) Show(F, int) error { return nil }

func (s *Signal[F]) PollStop() bool {
	return s.ctx.Err() != nil
}

// Broadcaster delivers a message to live viewers without blocking.
type Broadcaster interface {
	Broadcast(message []byte) bool
}

// Encoder turns a frame into image bytes for the viewers.
type Encoder[F io.Closer] func(frame F) ([]byte, error)

type viewerMessage struct {
	Vehicles int    `json:"vehicles"`
	Image    string `json:"image"`
}

// Web streams annotated frames to browser viewers and carries the stop
// request raised from the HTTP control endpoint.
type Web[F io.Closer] struct {
	hub     Broadcaster
	encode  Encoder[F]
	stop    atomic.Bool
	dropped atomic.Uint64
}

func NewWeb[F io.Closer](hub Broadcaster, encode Encoder[F]) *Web[F] {
	return &Web[F]{hub: hub, encode: encode}
}

func (w *Web[F]) Show(frame F, vehicles int) error {
	img, err := w.encode(frame)
	if err != nil {
		return errors.Wrap(err, "encode frame for viewers")
	}
	msg, err := json.Marshal(viewerMessage{
		Vehicles: vehicles,
		Image:    base64.StdEncoding.EncodeToString(img),
	})
	if err != nil {
		return errors.Wrap(err, "marshal viewer message")
	}
	if !w.hub.Broadcast(msg) {
		w.dropped.Add(1)
	}
	return nil
}

func (w *Web[F]) PollStop() bool {
	return w.stop.Load()
}

// RequestStop asks the loop to end after the current frame.
func (w *Web[F]) RequestStop() {
	w.stop.Store(true)
}

// Stopping reports whether a stop was requested.
func (w *Web[F]) Stopping() bool {
	return w.stop.Load()
}

// Dropped is the number of frames skipped because viewers were behind.
func (w *Web[F]) Dropped() uint64 {
	return w.dropped.Load()
}
