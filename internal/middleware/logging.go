package middleware

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/HammerMeetNail/odinbook/internal/logging"
)

const requestIDHeader = "X-Request-ID"

// probePaths are polled by orchestrators and only logged at debug level.
var probePaths = map[string]bool{
	"/health": true,
	"/ready":  true,
	"/live":   true,
}

type requestLogKey struct{}

// requestLog collects fields inner middleware learns about the request.
// Authenticate runs inside RequestLogger, so it writes through this pointer
// rather than a derived context.
type requestLog struct {
	accountID string
}

func annotateAccount(ctx context.Context, accountID uuid.UUID) {
	if entry, ok := ctx.Value(requestLogKey{}).(*requestLog); ok {
		entry.accountID = accountID.String()
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status      int
	bytes       int
	wroteHeader bool
}

func (r *statusRecorder) WriteHeader(status int) {
	if r.wroteHeader {
		return
	}
	r.wroteHeader = true
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func (r *statusRecorder) Write(b []byte) (int, error) {
	r.wroteHeader = true
	n, err := r.ResponseWriter.Write(b)
	r.bytes += n
	return n, err
}

// RequestLogger logs one line per request, tagged with a request id and the
// authenticated account when there is one.
type RequestLogger struct {
	logger *logging.Logger
}

func NewRequestLogger(logger *logging.Logger) *RequestLogger {
	if logger == nil {
		logger = logging.Default
	}
	return &RequestLogger{logger: logger}
}

func (l *RequestLogger) Apply(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		requestID := r.Header.Get(requestIDHeader)
		if _, err := uuid.Parse(requestID); err != nil {
			requestID = uuid.NewString()
		}
		w.Header().Set(requestIDHeader, requestID)

		entry := &requestLog{}
		recorder := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(recorder, r.WithContext(context.WithValue(r.Context(), requestLogKey{}, entry)))

		fields := map[string]interface{}{
			"request_id":  requestID,
			"method":      r.Method,
			"path":        r.URL.Path,
			"status":      recorder.status,
			"size":        recorder.bytes,
			"duration_ms": time.Since(start).Milliseconds(),
			"remote_addr": GetClientIP(r),
		}
		if entry.accountID != "" {
			fields["account_id"] = entry.accountID
		}
		if r.URL.RawQuery != "" {
			fields["query"] = r.URL.RawQuery
		}

		switch {
		case recorder.status >= 500:
			l.logger.Error("HTTP request", fields)
		case recorder.status >= 400:
			l.logger.Warn("HTTP request", fields)
		case probePaths[r.URL.Path]:
			l.logger.Debug("HTTP request", fields)
		default:
			l.logger.Info("HTTP request", fields)
		}
	})
}
