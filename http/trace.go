package http

import (
	"context"
	nethttp "net/http"

	"github.com/gaborage/go-proposals/trace"
)

// TraceHeaders returns a request interceptor that propagates the request ID,
// traceparent and job ID from ctx onto the outbound request.
func TraceHeaders() RequestInterceptor {
	return func(ctx context.Context, req *nethttp.Request) error {
		trace.InjectHeaders(ctx, req.Header)
		return nil
	}
}
