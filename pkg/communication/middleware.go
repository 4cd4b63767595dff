package communication

import (
	"context"
	"net/http"

	"github.com/google/uuid"
)

type key string

const (
	// KeyRequestID the key for the request variable holding the request id
	KeyRequestID key = "requestID"

	// HeaderRequestID is echoed back on every response
	HeaderRequestID = "X-Request-ID"
)

// JSONMiddleware sets the JSON content type on every response
func JSONMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Add("Content-Type", "application/json")
		next.ServeHTTP(w, r)
	})
}

// RequestIDMiddleware takes the request id from the header or generates one
func RequestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get(HeaderRequestID)
		if _, err := uuid.Parse(requestID); err != nil {
			requestID = uuid.New().String()
		}

		w.Header().Set(HeaderRequestID, requestID)
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), KeyRequestID, requestID)))
	})
}

// RequestID returns the request id stored by RequestIDMiddleware
func RequestID(ctx context.Context) string {
	requestID, _ := ctx.Value(KeyRequestID).(string)
	return requestID
}
