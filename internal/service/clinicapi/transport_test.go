package clinicapi

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

type loggerFunc func(string, ...any)

func (f loggerFunc) Debug(msg string, v ...any) { f(msg, v...) }

func TestRequestTransport(t *testing.T) {
	called := 0
	var msg string
	var args []any

	logger := loggerFunc(func(m string, v ...any) {
		called++
		msg = m
		args = v
	})

	var gotRequestID string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotRequestID = r.Header.Get(RequestIDHeader)
		w.WriteHeader(http.StatusTeapot)
		_, err := w.Write([]byte("hi"))
		require.NoError(t, err, "should write response")
	}))
	defer srv.Close()

	client := &http.Client{Transport: newRequestTransport(nil, logger)}
	req, err := http.NewRequestWithContext(t.Context(), http.MethodGet, srv.URL+"/test?day=monday", nil)
	require.NoError(t, err)

	resp, err := client.Do(req)
	require.NoError(t, err, "should make request to test server")
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err, "should read response body")
	defer resp.Body.Close() // nolint:errcheck

	require.Equal(t, http.StatusTeapot, resp.StatusCode)
	require.Equal(t, "hi", string(body))
	require.Empty(t, req.Header.Get(RequestIDHeader), "original request should not be modified")

	_, err = uuid.Parse(gotRequestID)
	require.NoError(t, err, "server should get uuid request id")

	require.Equal(t, 1, called, "logger should be called once")
	require.Equal(t, "sent HTTP request", msg)
	require.Len(t, args, 10, "logger should log 10 fields")
	require.Equal(t, "method", args[0])
	require.Equal(t, "GET", args[1])
	require.Equal(t, "uri", args[2])
	require.Equal(t, "/test?day=monday", args[3])
	require.Equal(t, "request_id", args[4])
	require.Equal(t, gotRequestID, args[5])
	require.Equal(t, "duration", args[6])
	require.Equal(t, "status", args[8])
	require.Equal(t, http.StatusTeapot, args[9])
}

func TestRequestTransport_keepsRequestID(t *testing.T) {
	var gotRequestID string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotRequestID = r.Header.Get(RequestIDHeader)
	}))
	defer srv.Close()

	client := &http.Client{Transport: newRequestTransport(http.DefaultTransport, loggerFunc(func(string, ...any) {}))}
	req, err := http.NewRequestWithContext(t.Context(), http.MethodGet, srv.URL, nil)
	require.NoError(t, err)
	req.Header.Set(RequestIDHeader, "trace-1")

	resp, err := client.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close() // nolint:errcheck

	require.Equal(t, "trace-1", gotRequestID)
}
