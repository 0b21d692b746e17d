package httpx

import (
	"net/http"
	"runtime/debug"

	"github.com/sirupsen/logrus"
)

func RecoveryMiddleware(logger logrus.FieldLogger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if err := recover(); err != nil {
					logger.WithFields(logrus.Fields{
						"request_id": RequestIDFrom(r),
						"error":      err,
						"stack":      string(debug.Stack()),
					}).Error("panic recovered")

					var wroteHeader bool
					if rw, ok := w.(*responseWriter); ok {
						wroteHeader = rw.wroteHeader()
					}

					if !wroteHeader {
						JSONError(w, r, http.StatusInternalServerError, "An internal error occurred", nil)
					}
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}
