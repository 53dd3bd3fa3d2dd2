package logging

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestRequestIDMiddleware(t *testing.T) {
	t.Parallel()

	t.Run("assigns an ID", func(t *testing.T) {
		t.Parallel()

		var seen string
		handler := RequestIDMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			seen = RequestID(r.Context())
		}))

		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

		if seen == "" {
			t.Error("handler saw no request ID in the context")
		}
		if got := rec.Header().Get("X-Request-ID"); got != seen {
			t.Errorf("X-Request-ID header = %q, context ID = %q", got, seen)
		}
	})

	t.Run("reuses an upstream ID", func(t *testing.T) {
		t.Parallel()

		var seen string
		handler := RequestIDMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			seen = RequestID(r.Context())
		}))

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("X-Request-ID", "proxy-7")
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		if seen != "proxy-7" {
			t.Errorf("context ID = %q, want proxy-7", seen)
		}
		if got := rec.Header().Get("X-Request-ID"); got != "proxy-7" {
			t.Errorf("X-Request-ID header = %q, want proxy-7", got)
		}
	})
}

func TestRequestIDMissing(t *testing.T) {
	t.Parallel()

	if id := RequestID(context.Background()); id != "" {
		t.Errorf("RequestID() = %q, want empty for a bare context", id)
	}
}

func TestResponseRecorder(t *testing.T) {
	t.Parallel()

	t.Run("captures the status", func(t *testing.T) {
		t.Parallel()

		rec := httptest.NewRecorder()
		rw := &responseRecorder{ResponseWriter: rec, status: http.StatusOK}
		rw.WriteHeader(http.StatusNotFound)
		rw.WriteHeader(http.StatusOK)

		if rw.status != http.StatusNotFound {
			t.Errorf("status = %d, want %d", rw.status, http.StatusNotFound)
		}
		if rec.Code != http.StatusNotFound {
			t.Errorf("underlying status = %d, want %d", rec.Code, http.StatusNotFound)
		}
	})

	t.Run("write implies OK", func(t *testing.T) {
		t.Parallel()

		rec := httptest.NewRecorder()
		rw := &responseRecorder{ResponseWriter: rec, status: http.StatusOK}
		if _, err := rw.Write([]byte("тело")); err != nil {
			t.Fatalf("Write() error = %v", err)
		}
		if rw.status != http.StatusOK || !rw.written {
			t.Errorf("status = %d written = %v, want implicit 200", rw.status, rw.written)
		}
	})
}

func TestMiddlewareChain(t *testing.T) {
	t.Parallel()

	handler := Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if RequestID(r.Context()) == "" {
			t.Error("logging middleware lost the request ID")
		}
		w.WriteHeader(http.StatusTeapot)
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/документы", nil))

	if rec.Code != http.StatusTeapot {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusTeapot)
	}
	if rec.Header().Get("X-Request-ID") == "" {
		t.Error("response missing X-Request-ID header")
	}
}
