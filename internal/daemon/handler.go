// Package daemon implements the summarizer side of the wire protocol: one
// request per connection, one response, then close.
package daemon

import (
	"context"

	"github.com/danmuck/summarizer/internal/protocol"
)

// Result is a handler's answer. Summary is only sent for StatusSummary.
type Result struct {
	Status  protocol.Status
	Summary []byte
}

type Handler interface {
	Summarize(ctx context.Context, req protocol.Request) Result
}

// HandlerFunc adapts a function to Handler.
type HandlerFunc func(ctx context.Context, req protocol.Request) Result

func (f HandlerFunc) Summarize(ctx context.Context, req protocol.Request) Result {
	return f(ctx, req)
}

func Summary(text []byte) Result {
	return Result{Status: protocol.StatusSummary, Summary: text}
}

func InvalidRequest() Result {
	return Result{Status: protocol.StatusInvalidRequest}
}

func InternalError() Result {
	return Result{Status: protocol.StatusInternalError}
}
