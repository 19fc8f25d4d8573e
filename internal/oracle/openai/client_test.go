package openai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/citecheck/internal/oracle"
)

// completionResponse wraps a model message into the chat/completions envelope.
func completionResponse(t *testing.T, content string) []byte {
	t.Helper()
	b, err := json.Marshal(map[string]any{
		"choices": []map[string]any{
			{"message": map[string]any{"role": "assistant", "content": content}},
		},
	})
	require.NoError(t, err)
	return b
}

func newTestClient(t *testing.T, handler http.HandlerFunc) (*Client, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(Config{APIKey: "test-key", BaseURL: srv.URL}, nil), srv
}

func TestVerifyCitationsParsesRecords(t *testing.T) {
	var gotAuth string
	var gotPath string
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotPath = r.URL.Path
		_, _ = w.Write(completionResponse(t, `{"citations":[
			{"original_text":"AIR 1978 SC 597","status":"VERIFIED","court_name":"Supreme Court of India"},
			{"original_text":"AIR 1975 SC 1378","corrected_text":"AIR 1975 SC 1379","status":"INCORRECT","note":"wrong page"}
		]}`))
	})

	records, raw, err := client.VerifyCitations(context.Background(), oracle.VerifyRequest{Text: "some judgment text"})
	require.NoError(t, err)
	assert.Equal(t, "Bearer test-key", gotAuth)
	assert.Equal(t, "/chat/completions", gotPath)
	assert.NotEmpty(t, raw)

	require.Len(t, records, 2)
	for _, rec := range records {
		assert.NotEqual(t, uuid.Nil, rec.ID)
	}
	// VERIFIED forces corrected == original
	assert.Equal(t, "AIR 1978 SC 597", records[0].CorrectedText)
	assert.Equal(t, oracle.StatusVerified, records[0].Status)
	// non-VERIFIED keeps the oracle's correction
	assert.Equal(t, "AIR 1975 SC 1379", records[1].CorrectedText)
	assert.Equal(t, "wrong page", records[1].Note)
}

func TestVerifyCitationsEmptyCorrectionFallsBackToOriginal(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write(completionResponse(t, `{"citations":[{"original_text":"2019 SCC OnLine SC 1",
			"status":"MODIFIED"}]}`))
	})

	records, _, err := client.VerifyCitations(context.Background(), oracle.VerifyRequest{Text: "t"})
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "2019 SCC OnLine SC 1", records[0].CorrectedText)
}

func TestVerifyCitationsEmptyArrayIsValid(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write(completionResponse(t, `{"citations":[]}`))
	})

	records, _, err := client.VerifyCitations(context.Background(), oracle.VerifyRequest{Text: "no citations here"})
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestVerifyCitationsLenientSanitize(t *testing.T) {
	// lowercase status and junk decision_date must survive via the lenient pass
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write(completionResponse(t, `{"citations":[{"original_text":"x","status":"verified",
			"decision_date":"sometime in 1978"}]}`))
	})

	records, _, err := client.VerifyCitations(context.Background(), oracle.VerifyRequest{Text: "t"})
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, oracle.StatusVerified, records[0].Status)
	assert.Empty(t, records[0].DecisionDate)
}

func TestVerifyCitationsStrictFieldsRejectsSanitizable(t *testing.T) {
	// the same response the lenient default repairs is malformed under strict mode
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write(completionResponse(t, `{"citations":[{"original_text":"x","status":"verified",
			"decision_date":"sometime in 1978"}]}`))
	}))
	t.Cleanup(srv.Close)
	client := NewClient(Config{APIKey: "k", BaseURL: srv.URL, StrictFields: true}, nil)

	_, _, err := client.VerifyCitations(context.Background(), oracle.VerifyRequest{Text: "t"})
	assert.ErrorIs(t, err, oracle.ErrMalformed)
}

func TestVerifyCitationsRateLimited(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"error":{"message":"rate limit"}}`))
	})

	_, _, err := client.VerifyCitations(context.Background(), oracle.VerifyRequest{Text: "t"})
	assert.ErrorIs(t, err, oracle.ErrRateLimited)
}

func TestVerifyCitationsServerErrorIsUnavailable(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})

	_, _, err := client.VerifyCitations(context.Background(), oracle.VerifyRequest{Text: "t"})
	assert.ErrorIs(t, err, oracle.ErrUnavailable)
}

func TestVerifyCitationsConnectionFailureIsUnavailable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	srv.Close() // connection refused from here on
	client := NewClient(Config{APIKey: "k", BaseURL: srv.URL}, nil)

	_, _, err := client.VerifyCitations(context.Background(), oracle.VerifyRequest{Text: "t"})
	assert.ErrorIs(t, err, oracle.ErrUnavailable)
}

func TestVerifyCitationsMalformedContent(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write(completionResponse(t, `I found three citations, listed below.`))
	})

	_, _, err := client.VerifyCitations(context.Background(), oracle.VerifyRequest{Text: "t"})
	assert.ErrorIs(t, err, oracle.ErrMalformed)
}

func TestVerifyCitationsUnknownStatusIsMalformed(t *testing.T) {
	// required-field and enum offenders are not sanitized away
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write(completionResponse(t, `{"citations":[{"original_text":"x","status":"PROBABLY_FINE"}]}`))
	})

	_, _, err := client.VerifyCitations(context.Background(), oracle.VerifyRequest{Text: "t"})
	assert.ErrorIs(t, err, oracle.ErrMalformed)
}

func TestVerifyCitationsNoChoices(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"choices":[]}`))
	})

	_, _, err := client.VerifyCitations(context.Background(), oracle.VerifyRequest{Text: "t"})
	assert.ErrorIs(t, err, oracle.ErrMalformed)
}

func TestVerifyCitationsInputGateSkipsCall(t *testing.T) {
	called := false
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		called = true
	})

	_, _, err := client.VerifyCitations(context.Background(),
		oracle.VerifyRequest{Text: strings.Repeat("a", 80001)})
	assert.ErrorIs(t, err, oracle.ErrInputTooLarge)
	assert.False(t, called, "oversized input must be rejected before any network call")
}

func TestVerifyCitationsCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write(completionResponse(t, `{"citations":[]}`))
	})

	_, _, err := client.VerifyCitations(ctx, oracle.VerifyRequest{Text: "t"})
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	assert.NotErrorIs(t, err, oracle.ErrUnavailable)
}
