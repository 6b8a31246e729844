package trace

import (
	"net/http"
)

// Middleware extracts or creates trace context for HTTP requests.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tc := fromIncoming(r.Header.Get(TraceIDKey), r.Header.Get(SpanIDKey))
		ctx := WithContext(r.Context(), tc)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// InjectHeaders copies the trace context of req's context onto its headers,
// so upstream access logs can be matched with ours.
func InjectHeaders(req *http.Request) {
	tc, ok := FromContext(req.Context())
	if !ok {
		return
	}
	req.Header.Set(TraceIDKey, tc.TraceID)
	req.Header.Set(SpanIDKey, tc.SpanID)
	if tc.ParentSpanID != "" {
		req.Header.Set(ParentSpanIDKey, tc.ParentSpanID)
	}
}
