package logger

import (
	"context"
	"sync"

	log_model "facility-booking/models/log"
	"facility-booking/types"

	"github.com/sirupsen/logrus"
)

// RequestLogStore persists request logs; the repository implements it.
type RequestLogStore interface {
	CreateRequestLog(ctx context.Context, entry *log_model.Log) error
}

type AsyncLogger struct {
	store   RequestLogStore
	channel chan types.LogEntry
	done    chan struct{}
	mu      sync.RWMutex
	closed  bool
}

func NewAsyncLogger(store RequestLogStore) *AsyncLogger {
	return &AsyncLogger{
		store:   store,
		channel: make(chan types.LogEntry, 100), // Buffered channel to hold log entries
		done:    make(chan struct{}),
	}
}

// ProcessLog drains the channel until Close is called.
func (logger *AsyncLogger) ProcessLog() {
	defer close(logger.done)
	Debug("Starting asynchronous logger...")

	for logEntry := range logger.channel {
		dbLog := log_model.Log{
			Method:          logEntry.Method,
			URL:             logEntry.URL,
			RequestBody:     logEntry.RequestBody,
			ResponseBody:    logEntry.ResponseBody,
			RequestHeaders:  logEntry.RequestHeaders,
			ResponseHeaders: logEntry.ResponseHeaders,
			StatusCode:      logEntry.StatusCode,
			CreatedAt:       logEntry.CreatedAt,
		}

		if err := logger.store.CreateRequestLog(context.Background(), &dbLog); err != nil {
			log.WithFields(logrus.Fields{"method": dbLog.Method, "url": dbLog.URL}).
				WithError(err).Warn("⚠️ Failed to insert request log")
		}
	}
}

// Log pushes a log entry into the channel. Entries are dropped when the buffer is full.
func (logger *AsyncLogger) Log(entry types.LogEntry) {
	logger.mu.RLock()
	defer logger.mu.RUnlock()
	if logger.closed {
		return
	}
	select {
	case logger.channel <- entry:
	default:
		log.WithField("url", entry.URL).Warn("⚠️ Request log buffer full, entry dropped")
	}
}

// Close stops accepting entries and waits until ProcessLog has flushed the buffer.
func (logger *AsyncLogger) Close() {
	logger.mu.Lock()
	if !logger.closed {
		logger.closed = true
		close(logger.channel)
	}
	logger.mu.Unlock()
	<-logger.done
}
