package integration

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// LoadError reports a failed load request: a transport failure (Status 0)
// or a non-success response.
type LoadError struct {
	Integration Type
	Status      int    // HTTP status, 0 when no response was received
	Detail      string // server-supplied detail message, if any
	Err         error  // underlying transport or decode error, if any
}

func (e *LoadError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "load %s", e.Integration)
	if e.Status != 0 {
		fmt.Fprintf(&b, ": %d %s", e.Status, http.StatusText(e.Status))
	}
	if e.Detail != "" {
		fmt.Fprintf(&b, ": %s", e.Detail)
	}
	if e.Err != nil {
		fmt.Fprintf(&b, ": %v", e.Err)
	}
	return b.String()
}

func (e *LoadError) Unwrap() error { return e.Err }

// Detail returns the server-supplied detail message carried by err.
func Detail(err error) (string, bool) {
	var le *LoadError
	if errors.As(err, &le) && le.Detail != "" {
		return le.Detail, true
	}
	return "", false
}

// parseDetail extracts the "detail" member of an error body. Plain string
// details are returned as-is; validation error lists yield the first "msg".
func parseDetail(body []byte) string {
	var envelope struct {
		Detail json.RawMessage `json:"detail"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil || len(envelope.Detail) == 0 {
		return ""
	}

	var s string
	if err := json.Unmarshal(envelope.Detail, &s); err == nil {
		return s
	}

	var items []struct {
		Msg string `json:"msg"`
	}
	if err := json.Unmarshal(envelope.Detail, &items); err == nil {
		for _, it := range items {
			if it.Msg != "" {
				return it.Msg
			}
		}
	}
	return ""
}
