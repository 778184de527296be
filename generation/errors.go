package generation

import (
	"context"
	"encoding/json"
	"errors"
	"strings"

	"github.com/gaborage/go-proposals/submission"
)

// errorPayload is the error body returned by HTTP and AMQP generation services:
//
//	{"error":{"code":"...","message":"..."}}
type errorPayload struct {
	Error *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// serviceError builds a ServiceError from a response body. Bodies that are not
// an error payload become the message verbatim.
func serviceError(status int, body []byte) *submission.ServiceError {
	var payload errorPayload
	if err := json.Unmarshal(body, &payload); err == nil && payload.Error != nil {
		return &submission.ServiceError{Status: status, Code: payload.Error.Code, Message: payload.Error.Message}
	}
	msg := strings.TrimSpace(string(body))
	if msg == "" {
		msg = "empty response"
	}
	return &submission.ServiceError{Status: status, Message: msg}
}

// errorPayloadOf reports whether body is an error payload.
func errorPayloadOf(body []byte) (code, message string, ok bool) {
	var payload errorPayload
	if err := json.Unmarshal(body, &payload); err != nil || payload.Error == nil {
		return "", "", false
	}
	return payload.Error.Code, payload.Error.Message, true
}

func transportError(op string, err error) *submission.TransportError {
	return &submission.TransportError{
		Op:      op,
		Timeout: errors.Is(err, context.DeadlineExceeded),
		Err:     err,
	}
}
