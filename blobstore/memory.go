package blobstore

import (
	"bytes"
	"context"
	"io"
	"sync"
)

// Memory implements Bucket in process memory. Intended for tests.
type Memory struct {
	mu    sync.RWMutex
	blobs map[string][]byte
}

// NewMemory creates an empty in-memory bucket.
func NewMemory() *Memory {
	return &Memory{blobs: make(map[string][]byte)}
}

// Open opens a blob for reading.
func (m *Memory) Open(ctx context.Context, name string) (io.ReadCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.RLock()
	data, ok := m.blobs[name]
	m.mu.RUnlock()
	if !ok {
		return nil, ErrNotFound
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

// Put atomically replaces a blob.
func (m *Memory) Put(ctx context.Context, name string, write func(w io.Writer) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	var buf bytes.Buffer
	if err := write(&buf); err != nil {
		return err
	}

	m.mu.Lock()
	m.blobs[name] = buf.Bytes()
	m.mu.Unlock()
	return nil
}

// Delete removes a blob. Used by tests to simulate missing artifacts.
func (m *Memory) Delete(name string) {
	m.mu.Lock()
	delete(m.blobs, name)
	m.mu.Unlock()
}

// SetRaw overwrites a blob's bytes directly. Used by tests to simulate
// corruption.
func (m *Memory) SetRaw(name string, data []byte) {
	m.mu.Lock()
	m.blobs[name] = append([]byte(nil), data...)
	m.mu.Unlock()
}
