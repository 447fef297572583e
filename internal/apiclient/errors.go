package apiclient

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
)

// Kind classifies an API failure
type Kind string

const (
	KindTransport Kind = "transport" // DNS, connect, timeout
	KindHTTP      Kind = "http"      // non-200 status
	KindDecode    Kind = "decode"    // malformed JSON body
)

// APIError is returned by Client.Get for every failure
type APIError struct {
	Kind       Kind
	StatusCode int
	Message    string
	Err        error
}

func (e *APIError) Error() string {
	return e.Message
}

func (e *APIError) Unwrap() error {
	return e.Err
}

var httpMessages = map[int]string{
	http.StatusUnauthorized:    "Unauthorized (use valid authentication)",
	http.StatusForbidden:       "Forbidden (use valid authentication)",
	http.StatusNotFound:        "Resource not found (check repository name, branch/tag/commit name)",
	http.StatusTooManyRequests: "Too many requests",
}

// HTTPMessage returns the human-readable explanation for a status code
func HTTPMessage(code int) string {
	if msg, ok := httpMessages[code]; ok {
		return msg
	}
	return fmt.Sprintf("HTTP error %d", code)
}

// redact hides credentials carried in query strings before logging
func redact(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return raw
	}
	q := u.Query()
	if q.Has("private_token") {
		q.Set("private_token", "REDACTED")
		u.RawQuery = q.Encode()
	}
	return u.String()
}

// transportMessage renders a transport failure without leaking query-string
// credentials that url.Error would otherwise echo back.
func transportMessage(err error) string {
	var ue *url.Error
	if errors.As(err, &ue) {
		return fmt.Sprintf("%s %q: %v", ue.Op, redact(ue.URL), ue.Err)
	}
	return err.Error()
}
