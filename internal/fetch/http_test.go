package fetch

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestHTTPFetcher(t *testing.T) {
	release := make(chan struct{})
	t.Cleanup(func() { close(release) })

	mux := http.NewServeMux()
	mux.HandleFunc("/ok", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "test-agent", r.Header.Get("User-Agent"))
		_, _ = io.WriteString(w, "<html>ok</html>")
	})
	mux.HandleFunc("/missing", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusNotFound)
	})
	mux.HandleFunc("/slow", func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	f := NewHTTPFetcher(Options{Timeout: 100 * time.Millisecond, UserAgent: "test-agent"}, quietLogger())

	t.Run("success returns body", func(t *testing.T) {
		body, err := f.Fetch(context.Background(), srv.URL+"/ok")
		require.NoError(t, err)
		assert.Equal(t, "<html>ok</html>", body)
	})

	t.Run("non success status", func(t *testing.T) {
		_, err := f.Fetch(context.Background(), srv.URL+"/missing")
		require.Error(t, err)

		var fetchErr *Error
		require.True(t, errors.As(err, &fetchErr))
		assert.Equal(t, KindStatus, fetchErr.Kind)
		assert.Equal(t, http.StatusNotFound, fetchErr.StatusCode)
		assert.Equal(t, srv.URL+"/missing", fetchErr.URL)
		assert.ErrorIs(t, err, ErrStatus)
		assert.NotErrorIs(t, err, ErrTimeout)
	})

	t.Run("timeout", func(t *testing.T) {
		start := time.Now()
		_, err := f.Fetch(context.Background(), srv.URL+"/slow")
		require.Error(t, err)
		assert.Less(t, time.Since(start), 5*time.Second)

		assert.ErrorIs(t, err, ErrTimeout)
		assert.NotErrorIs(t, err, ErrTransport)
	})

	t.Run("transport error", func(t *testing.T) {
		dead := httptest.NewServer(http.NotFoundHandler())
		url := dead.URL
		dead.Close()

		_, err := f.Fetch(context.Background(), url)
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrTransport)

		var fetchErr *Error
		require.ErrorAs(t, err, &fetchErr)
		assert.Equal(t, KindTransport, fetchErr.Kind)
	})

	t.Run("malformed url", func(t *testing.T) {
		_, err := f.Fetch(context.Background(), "://nope")
		assert.ErrorIs(t, err, ErrTransport)
	})
}

func TestNewHTTPFetcherDefaults(t *testing.T) {
	f := NewHTTPFetcher(Options{}, nil)
	assert.Equal(t, DefaultTimeout, f.timeout)
	assert.Equal(t, DefaultUserAgent, f.userAgent)
	assert.NotNil(t, f.client)
}

func TestErrorMessage(t *testing.T) {
	err := &Error{URL: "http://x/1", Kind: KindStatus, StatusCode: 503, Err: ErrStatus}
	assert.Equal(t, "fetch http://x/1: status 503", err.Error())

	err = &Error{URL: "http://x/2", Kind: KindTimeout, Err: context.DeadlineExceeded}
	assert.Equal(t, "fetch http://x/2: timeout: context deadline exceeded", err.Error())
}

func TestHTTPFetcherDecodesCharset(t *testing.T) {
	tests := []struct {
		name        string
		contentType string
		body        []byte
		want        string
	}{
		{"latin1 header", "text/html; charset=ISO-8859-1", []byte("<h1>Citro\xebn C3</h1>"), "<h1>Citroën C3</h1>"},
		{"windows-1252 meta", "text/html", []byte("<html><head><meta charset=\"windows-1252\"></head><body>Citro\xebn</body></html>"), `<html><head><meta charset="windows-1252"></head><body>Citroën</body></html>`},
		{"utf-8 passthrough", "text/html; charset=utf-8", []byte("<h1>Citroën C3</h1>"), "<h1>Citroën C3</h1>"},
		{"no charset utf-8 body", "text/html", []byte("<h1>Citroën C3</h1>"), "<h1>Citroën C3</h1>"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", tt.contentType)
				_, _ = w.Write(tt.body)
			}))
			defer srv.Close()

			body, err := NewHTTPFetcher(Options{Timeout: time.Second}, quietLogger()).Fetch(context.Background(), srv.URL)
			require.NoError(t, err)
			assert.Equal(t, tt.want, body)
		})
	}
}
