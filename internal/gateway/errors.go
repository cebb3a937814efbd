package gateway

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
)

// StatusError is a non-2xx HTTP response. Its message is "{status}: {body}",
// falling back to the standard status text when the body is empty.
type StatusError struct {
	Status int
	Body   string
}

func (e *StatusError) Error() string {
	text := strings.TrimSpace(e.Body)
	if text == "" {
		text = http.StatusText(e.Status)
	}
	return fmt.Sprintf("%d: %s", e.Status, text)
}

func newStatusError(status int, body []byte) *StatusError {
	return &StatusError{Status: status, Body: string(body)}
}

// APIError is a logical failure: HTTP 2xx carrying success:false in the
// response envelope.
type APIError struct {
	Message string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return "request failed"
	}
	return e.Message
}

type envelopeProbe struct {
	Success *bool  `json:"success"`
	Error   string `json:"error"`
	Message string `json:"message"`
}

// checkEnvelope treats a 2xx body declaring success:false as a failure.
// Bodies without a success field (e.g. the diagnosis endpoint) pass through.
func checkEnvelope(body []byte) error {
	trimmed := strings.TrimSpace(string(body))
	if !strings.HasPrefix(trimmed, "{") {
		return nil
	}
	var probe envelopeProbe
	if err := json.Unmarshal(body, &probe); err != nil {
		return nil
	}
	if probe.Success != nil && !*probe.Success {
		msg := probe.Error
		if msg == "" {
			msg = probe.Message
		}
		return &APIError{Message: msg}
	}
	return nil
}
