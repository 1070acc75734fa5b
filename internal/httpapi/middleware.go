package httpapi

import (
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/scripturai/scriptura/pkg/log"
)

const requestIDHeader = "X-Request-Id"

// requestID tags every request with a fresh UUID unless the client sent one.
func requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(requestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set(requestIDHeader, id)
		next.ServeHTTP(w, r)
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()
		next.ServeHTTP(rec, r)
		log.Info("%s %s -> %d (%s) [%s]", r.Method, r.URL.Path, rec.status, time.Since(start), rec.Header().Get(requestIDHeader))
	})
}
