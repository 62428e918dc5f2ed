package flight

import (
	"context"

	"google.golang.org/grpc/metadata"
)

// Request headers read from incoming gRPC metadata.
const (
	HeaderAuthorization = "authorization"
	HeaderTraceID       = "airport-trace-id"
	HeaderSessionID     = "airport-client-session-id"
)

// ContextMeta holds the Airport request headers of one call.
type ContextMeta struct {
	Authorization string
	TraceID       string
	SessionID     string
}

type metaKey struct{}

// WithContextMeta stores meta in ctx.
func WithContextMeta(ctx context.Context, meta ContextMeta) context.Context {
	return context.WithValue(ctx, metaKey{}, meta)
}

// MetaFromContext returns the stored headers and whether any were stored.
func MetaFromContext(ctx context.Context) (ContextMeta, bool) {
	meta, ok := ctx.Value(metaKey{}).(ContextMeta)
	return meta, ok
}

// AuthorizationFromContext returns the raw authorization header.
func AuthorizationFromContext(ctx context.Context) string {
	meta, _ := MetaFromContext(ctx)
	return meta.Authorization
}

// TraceIDFromContext returns the client trace id, or "".
func TraceIDFromContext(ctx context.Context) string {
	meta, _ := MetaFromContext(ctx)
	return meta.TraceID
}

// SessionIDFromContext returns the client session id, or "".
func SessionIDFromContext(ctx context.Context) string {
	meta, _ := MetaFromContext(ctx)
	return meta.SessionID
}

// EnrichContextMetadata copies the Airport headers of the incoming call
// into ctx. A context that already carries them is returned unchanged.
func EnrichContextMetadata(ctx context.Context) context.Context {
	if _, ok := MetaFromContext(ctx); ok {
		return ctx
	}
	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		return ctx
	}
	first := func(key string) string {
		if v := md.Get(key); len(v) > 0 {
			return v[0]
		}
		return ""
	}
	return WithContextMeta(ctx, ContextMeta{
		Authorization: first(HeaderAuthorization),
		TraceID:       first(HeaderTraceID),
		SessionID:     first(HeaderSessionID),
	})
}
