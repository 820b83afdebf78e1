package gateway

import (
	"context"
	"errors"
	"net/http"

	"github.com/danmuck/summarizer/internal/protocol"
	"github.com/danmuck/summarizer/internal/upstream"
)

// StatusClientClosedRequest is logged when the client goes away before the
// daemon answered.
const StatusClientClosedRequest = 499

// StatusForResponse maps a daemon status to the HTTP status sent to clients.
func StatusForResponse(s protocol.Status) int {
	switch s {
	case protocol.StatusSummary:
		return http.StatusOK
	case protocol.StatusInvalidRequest:
		return http.StatusBadRequest
	case protocol.StatusInternalError:
		return http.StatusInternalServerError
	default:
		return http.StatusBadGateway
	}
}

// StatusForError maps a failed upstream exchange to an HTTP status.
func StatusForError(err error) int {
	switch {
	case errors.Is(err, context.Canceled):
		return StatusClientClosedRequest
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	}
	if kind, ok := upstream.FailureOf(err); ok && kind == upstream.FailureTimeout {
		return http.StatusGatewayTimeout
	}
	return http.StatusBadGateway
}
