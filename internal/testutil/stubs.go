// Package testutil provides shared test doubles and fixtures for backend tests.
package testutil

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"sort"
	"sync"

	"stocktalk/internal/events"
)

// ObjectStoreStub is an in-memory object store for tests. URLs point at
// BaseURL followed by the object key.
type ObjectStoreStub struct {
	BaseURL string

	mu      sync.Mutex
	objects map[string][]byte
	types   map[string]string
}

// NewObjectStoreStub creates an empty store serving from baseURL.
func NewObjectStoreStub(baseURL string) *ObjectStoreStub {
	return &ObjectStoreStub{
		BaseURL: baseURL,
		objects: make(map[string][]byte),
		types:   make(map[string]string),
	}
}

// Put stores data under key.
func (s *ObjectStoreStub) Put(_ context.Context, key, contentType string, data []byte) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.objects[key] = append([]byte(nil), data...)
	s.types[key] = contentType
	return s.BaseURL + "/" + key, nil
}

// Remove deletes key. Missing keys are not an error.
func (s *ObjectStoreStub) Remove(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.objects, key)
	delete(s.types, key)
	return nil
}

// Keys returns the stored keys in order.
func (s *ObjectStoreStub) Keys() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	keys := make([]string, 0, len(s.objects))
	for k := range s.objects {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// ContentType returns the content type key was stored with.
func (s *ObjectStoreStub) ContentType(key string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.types[key]
}

// EventRecorder is an events.Publisher that keeps every event in memory.
type EventRecorder struct {
	mu     sync.Mutex
	events []events.Event
}

func (r *EventRecorder) Publish(_ context.Context, ev events.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
	return nil
}

func (r *EventRecorder) Driver() string { return "recording" }

func (r *EventRecorder) Close() error { return nil }

// Events returns a copy of the recorded events.
func (r *EventRecorder) Events() []events.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]events.Event(nil), r.events...)
}

// Types returns the recorded event types in publish order.
func (r *EventRecorder) Types() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.events))
	for _, ev := range r.events {
		out = append(out, ev.Type)
	}
	return out
}

// TinyPNG returns an in-memory PNG byte slice with the requested dimensions.
// Pixels form a gradient so encoders cannot collapse the image.
func TinyPNG(t interface {
	Helper()
	Fatalf(string, ...any)
}, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			img.Set(x, y, color.RGBA{R: uint8(x % 256), G: uint8(y % 256), B: 120, A: 255})
		}
	}
	buf := bytes.NewBuffer(nil)
	if err := png.Encode(buf, img); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	return buf.Bytes()
}
