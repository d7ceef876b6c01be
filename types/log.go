package types

import "time"

// LogEntry is a sanitized copy of one HTTP exchange, queued for the request log table.
type LogEntry struct {
	Method          string
	URL             string
	RequestBody     string
	ResponseBody    string
	RequestHeaders  string
	ResponseHeaders string
	StatusCode      int
	CreatedAt       time.Time
}
