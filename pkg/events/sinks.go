package events

import (
	"bufio"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
)

// Memory keeps every written event. Useful for tests and for the HTTP
// inspector, which serves the log back to clients.
type Memory struct {
	mu     sync.Mutex
	events []Event
}

// NewMemory creates an empty in-memory sink.
func NewMemory() *Memory { return &Memory{} }

// Write appends events.
func (m *Memory) Write(_ context.Context, events []Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, events...)
	return nil
}

// Events returns a copy of everything written so far.
func (m *Memory) Events() []Event {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Event(nil), m.events...)
}

// Types returns the type of every written event, in order.
func (m *Memory) Types() []Type {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Type, len(m.events))
	for i, e := range m.events {
		out[i] = e.Type
	}
	return out
}

// Reset drops all stored events.
func (m *Memory) Reset() {
	m.mu.Lock()
	m.events = nil
	m.mu.Unlock()
}

// Close does nothing.
func (m *Memory) Close() error { return nil }

// Null discards everything.
type Null struct{}

// Write does nothing.
func (Null) Write(context.Context, []Event) error { return nil }

// Close does nothing.
func (Null) Close() error { return nil }

// File appends events as JSON lines to a file. Used by the CLI to keep a
// session log without any external service.
type File struct {
	mu   sync.Mutex
	path string
	f    *os.File
}

// NewFile opens (or creates) path for appending. Parent directories are
// created as needed.
func NewFile(path string) (*File, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return nil, err
	}
	return &File{path: path, f: f}, nil
}

// Path returns the log file location.
func (s *File) Path() string { return s.path }

// Write appends one JSON document per event.
func (s *File) Write(_ context.Context, events []Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	w := bufio.NewWriter(s.f)
	enc := json.NewEncoder(w)
	for _, e := range events {
		if err := enc.Encode(e); err != nil {
			return err
		}
	}
	return w.Flush()
}

// Close closes the underlying file.
func (s *File) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.f.Close()
}

// ReadFile loads a JSON lines event log written by File.
func ReadFile(path string) ([]Event, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var out []Event
	dec := json.NewDecoder(f)
	for dec.More() {
		var e Event
		if err := dec.Decode(&e); err != nil {
			return out, err
		}
		out = append(out, e)
	}
	return out, nil
}

var (
	_ Sink = (*Memory)(nil)
	_ Sink = Null{}
	_ Sink = (*File)(nil)
)
