package oracle

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSendJSONSuccess(t *testing.T) {
	var gotContentType string
	var gotHeader string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotContentType = r.Header.Get("Content-Type")
		gotHeader = r.Header.Get("Authorization")
		_, _ = w.Write([]byte(`{"ok":true}`))
	}))
	t.Cleanup(srv.Close)

	raw, code, err := SendJSON(context.Background(), srv.Client(), srv.URL,
		map[string]any{"k": "v"}, map[string]string{"Authorization": "Bearer x"}, nil)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, code)
	assert.JSONEq(t, `{"ok":true}`, string(raw))
	assert.Equal(t, "application/json", gotContentType)
	assert.Equal(t, "Bearer x", gotHeader)
}

func TestSendJSONNon2xxReturnsBodyAndError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte(`{"error":"upstream"}`))
	}))
	t.Cleanup(srv.Close)

	raw, code, err := SendJSON(context.Background(), srv.Client(), srv.URL, map[string]any{}, nil, nil)
	require.Error(t, err)
	assert.Equal(t, http.StatusBadGateway, code)
	assert.JSONEq(t, `{"error":"upstream"}`, string(raw))
}

func TestSendJSONTruncatedBodyIsAnError(t *testing.T) {
	// declared length exceeds what is written, so the body read fails mid-stream
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Length", "100")
		_, _ = w.Write([]byte(`{"partial`))
	}))
	t.Cleanup(srv.Close)

	raw, _, err := SendJSON(context.Background(), srv.Client(), srv.URL, map[string]any{}, nil, nil)
	require.Error(t, err)
	assert.Nil(t, raw)
	assert.Contains(t, err.Error(), "read response body")
}

func TestSendJSONUnencodableBody(t *testing.T) {
	_, _, err := SendJSON(context.Background(), nil, "http://127.0.0.1:0",
		map[string]any{"bad": make(chan int)}, nil, nil)
	assert.Error(t, err)
}
