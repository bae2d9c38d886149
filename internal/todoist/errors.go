package todoist

import (
	"fmt"
	"net/http"
)

// RemoteError reports a failed API call: a non-2xx response, a transport
// failure, or a body that could not be decoded
type RemoteError struct {
	Method     string
	URL        string
	StatusCode int    // 0 when no response was received
	Body       string // truncated response body for non-2xx responses
	Err        error
}

func (e *RemoteError) Error() string {
	if e.StatusCode != 0 && e.Err == nil {
		msg := fmt.Sprintf("%s %s: %d %s", e.Method, e.URL, e.StatusCode, http.StatusText(e.StatusCode))
		if e.Body != "" {
			msg += ": " + e.Body
		}
		return msg
	}
	return fmt.Sprintf("%s %s: %v", e.Method, e.URL, e.Err)
}

func (e *RemoteError) Unwrap() error {
	return e.Err
}

// Unauthorized reports whether the token was rejected
func (e *RemoteError) Unauthorized() bool {
	return e.StatusCode == http.StatusUnauthorized || e.StatusCode == http.StatusForbidden
}
