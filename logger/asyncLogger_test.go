package logger

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"

	log_model "facility-booking/models/log"
	"facility-booking/types"

	"github.com/stretchr/testify/assert"
)

type recordingStore struct {
	mu      sync.Mutex
	entries []log_model.Log
	fail    bool
}

func (s *recordingStore) CreateRequestLog(_ context.Context, entry *log_model.Log) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fail {
		return errors.New("insert failed")
	}
	s.entries = append(s.entries, *entry)
	return nil
}

func TestAsyncLoggerFlushesOnClose(t *testing.T) {
	SetOutput(io.Discard)
	store := &recordingStore{}
	async := NewAsyncLogger(store)
	go async.ProcessLog()

	async.Log(types.LogEntry{Method: "POST", URL: "/api/bookings", StatusCode: 201})
	async.Log(types.LogEntry{Method: "GET", URL: "/health", StatusCode: 200})
	async.Close()

	assert.Len(t, store.entries, 2)
	assert.Equal(t, "/api/bookings", store.entries[0].URL)
}

func TestAsyncLoggerIgnoresEntriesAfterClose(t *testing.T) {
	SetOutput(io.Discard)
	store := &recordingStore{fail: true}
	async := NewAsyncLogger(store)
	go async.ProcessLog()

	async.Log(types.LogEntry{Method: "GET", URL: "/a"})
	async.Close()

	assert.NotPanics(t, func() {
		async.Log(types.LogEntry{Method: "GET", URL: "/b"})
		async.Close()
	})
	assert.Empty(t, store.entries)
}
