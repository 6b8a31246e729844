package trace

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/metadata"
)

// UnaryServerInterceptor attaches a trace context to incoming unary calls,
// continuing the caller's trace when it sent one.
func UnaryServerInterceptor() grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		ctx = extractMetadata(ctx)
		ctx, span := StartSpan(ctx, info.FullMethod)
		resp, err := handler(ctx, req)
		span.End()
		if err != nil {
			span.SetAttr("error", err.Error())
		}
		Logger(ctx).Debug("grpc call", "span", span)
		return resp, err
	}
}

func extractMetadata(ctx context.Context) context.Context {
	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		return WithContext(ctx, New())
	}
	return WithContext(ctx, fromIncoming(first(md, TraceIDKey), first(md, SpanIDKey)))
}

func first(md metadata.MD, key string) string {
	if v := md.Get(key); len(v) > 0 {
		return v[0]
	}
	return ""
}
