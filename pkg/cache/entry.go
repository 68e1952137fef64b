package cache

import (
	"net/http"
	"time"
)

// Entry is a cached API response.
type Entry struct {
	Body         []byte      `json:"body"`
	ETag         string      `json:"etag,omitempty"`
	Expires      time.Time   `json:"expires"`
	LastModified time.Time   `json:"last_modified,omitempty"`
	StatusCode   int         `json:"status_code"`
	Header       http.Header `json:"header,omitempty"`
	StoredAt     time.Time   `json:"stored_at"`
}

// IsExpired returns true if the entry has expired.
func (e *Entry) IsExpired() bool {
	return time.Now().After(e.Expires)
}

// TTL returns the time until expiration, or 0 once expired.
func (e *Entry) TTL() time.Duration {
	ttl := time.Until(e.Expires)
	if ttl < 0 {
		return 0
	}
	return ttl
}

// Age returns how long ago the entry was stored.
func (e *Entry) Age() time.Duration {
	if e.StoredAt.IsZero() {
		return 0
	}
	return time.Since(e.StoredAt)
}
