package services

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/m-a-p/link-archiver/internal/archive"
)

// maxResponseBytes bounds how much of a service response body is read
// when hunting for the archived-page link.
const maxResponseBytes = 2 << 20

// classifyStatus maps an HTTP status to the retry taxonomy: nil for 2xx,
// a RateLimitError for 429, a plain (transient) error for 5xx, and a
// PermanentError for everything else.
func classifyStatus(service string, resp *http.Response) error {
	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return nil
	case resp.StatusCode == http.StatusTooManyRequests:
		return &archive.RateLimitError{
			Service:    service,
			RetryAfter: parseRetryAfter(resp.Header.Get("Retry-After")),
		}
	case resp.StatusCode >= 500:
		return fmt.Errorf("%s: server error: status %d", service, resp.StatusCode)
	default:
		return archive.Permanent(fmt.Errorf("%s: status %d", service, resp.StatusCode))
	}
}

// parseRetryAfter understands both the delta-seconds and HTTP-date forms
// of the Retry-After header. Zero means no usable hint.
func parseRetryAfter(value string) time.Duration {
	if value == "" {
		return 0
	}
	if secs, err := strconv.Atoi(value); err == nil {
		if secs <= 0 {
			return 0
		}
		return time.Duration(secs) * time.Second
	}
	if at, err := http.ParseTime(value); err == nil {
		if d := time.Until(at); d > 0 {
			return d
		}
	}
	return 0
}
