package inertiacore

import (
	"bytes"
	"net/http"
)

var _ http.ResponseWriter = (*responseWriter)(nil)

// responseWriter buffers a handler's response so that the middleware can
// rewrite the status code or replace an empty response before anything
// reaches the client.
type responseWriter struct {
	w           http.ResponseWriter
	buf         bytes.Buffer
	statusCode  int
	wroteHeader bool
}

func newResponseWriter(w http.ResponseWriter) *responseWriter {
	//nolint:exhaustruct
	return &responseWriter{w: w, statusCode: http.StatusOK}
}

func (rw *responseWriter) Header() http.Header { return rw.w.Header() }

// WriteHeader records the status code. Unlike http.ResponseWriter, it may
// be called again to override the recorded code.
func (rw *responseWriter) WriteHeader(statusCode int) {
	rw.statusCode = statusCode
	rw.wroteHeader = true
}

func (rw *responseWriter) Write(b []byte) (int, error) {
	if !rw.wroteHeader {
		rw.WriteHeader(http.StatusOK)
	}

	return rw.buf.Write(b) //nolint:wrapcheck
}

// Unwrap returns the underlying writer for http.ResponseController.
func (rw *responseWriter) Unwrap() http.ResponseWriter { return rw.w }

// Empty reports whether the handler produced neither a status nor a body.
func (rw *responseWriter) Empty() bool { return !rw.wroteHeader && rw.buf.Len() == 0 }

// flush sends the buffered response to the underlying writer.
func (rw *responseWriter) flush() {
	rw.w.WriteHeader(rw.statusCode)

	if rw.buf.Len() > 0 {
		_, err := rw.buf.WriteTo(rw.w)
		if err != nil {
			d("failed to flush response: %v", err)
		}
	}
}
