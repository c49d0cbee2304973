package sdk

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTestServer serves handler and counts requests
func newTestServer(t *testing.T, handler http.HandlerFunc) (*httptest.Server, *atomic.Int32) {
	t.Helper()

	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		handler(w, r)
	}))
	t.Cleanup(srv.Close)

	return srv, &calls
}

func TestGetToken(t *testing.T) {
	srv, calls := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/user/get-token-with-api-key", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var req TokenRequest
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "isso@example.com", req.Email)
		assert.Equal(t, "key-123", req.APIKey)

		io.WriteString(w, `{"status": 200, "response": {"access_token": "tok-abc"}}`)
	})

	client := NewClient(srv.URL + "/")
	token, err := client.GetToken(context.Background(), "isso@example.com", "key-123")
	require.NoError(t, err)
	assert.Equal(t, "tok-abc", token)
	assert.EqualValues(t, 1, calls.Load())
}

func TestGetToken_Failures(t *testing.T) {
	tests := []struct {
		name       string
		email      string
		apiKey     string
		body       string
		httpStatus int
		wantStatus int
		wantCalls  int32
	}{
		{
			name:      "empty email makes no request",
			email:     "",
			apiKey:    "key",
			wantCalls: 0,
		},
		{
			name:      "blank api key makes no request",
			email:     "isso@example.com",
			apiKey:    "   ",
			wantCalls: 0,
		},
		{
			name:       "envelope status not ok",
			email:      "isso@example.com",
			apiKey:     "bad",
			body:       `{"status": 400, "response": "Invalid credentials"}`,
			httpStatus: http.StatusOK,
			wantStatus: 400,
			wantCalls:  1,
		},
		{
			name:       "string status not ok",
			email:      "isso@example.com",
			apiKey:     "bad",
			body:       `{"status": "401", "response": "Unauthorized"}`,
			httpStatus: http.StatusOK,
			wantStatus: 401,
			wantCalls:  1,
		},
		{
			name:       "http error without envelope status",
			email:      "isso@example.com",
			apiKey:     "bad",
			body:       `{"response": "gateway"}`,
			httpStatus: http.StatusBadGateway,
			wantStatus: http.StatusBadGateway,
			wantCalls:  1,
		},
		{
			name:       "missing token",
			email:      "isso@example.com",
			apiKey:     "key",
			body:       `{"status": 200, "response": {}}`,
			httpStatus: http.StatusOK,
			wantStatus: 200,
			wantCalls:  1,
		},
		{
			name:       "non json body",
			email:      "isso@example.com",
			apiKey:     "key",
			body:       `<html>maintenance</html>`,
			httpStatus: http.StatusServiceUnavailable,
			wantStatus: http.StatusServiceUnavailable,
			wantCalls:  1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv, calls := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.httpStatus)
				io.WriteString(w, tt.body)
			})

			_, err := NewClient(srv.URL).GetToken(context.Background(), tt.email, tt.apiKey)
			require.Error(t, err)

			var authErr *AuthenticationError
			require.True(t, errors.As(err, &authErr), "expected AuthenticationError, got %T", err)
			assert.Equal(t, tt.wantStatus, authErr.Status)
			assert.Equal(t, tt.wantCalls, calls.Load())
		})
	}
}

func TestGetToken_TransportError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	_, err := NewClient(url).GetToken(context.Background(), "isso@example.com", "key")

	var authErr *AuthenticationError
	require.ErrorAs(t, err, &authErr)
	assert.NotNil(t, authErr.Unwrap())
}

func TestQuery(t *testing.T) {
	srv, calls := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/server/query", r.URL.Path)
		assert.Equal(t, "tok-abc", r.Header.Get(TokenHeader))

		var body map[string]any
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "Describe AC-1", body["message"])
		assert.Equal(t, float64(0), body["temperature"])
		assert.Equal(t, "all", body["dataset"])
		assert.Equal(t, "gpt4", body["model"])

		io.WriteString(w, `{"status": "200", "message": "We implement AC-1 by..."}`)
	})

	text, err := NewClient(srv.URL).Query(context.Background(), "tok-abc", &QueryRequest{
		Message:     "Describe AC-1",
		Temperature: 0,
		Dataset:     "all",
		Model:       "gpt4",
	})
	require.NoError(t, err)
	assert.Equal(t, "We implement AC-1 by...", text)
	assert.EqualValues(t, 1, calls.Load())
}

func TestQuery_StatusError(t *testing.T) {
	tests := []struct {
		name       string
		httpStatus int
		body       string
		wantStatus int
	}{
		{"rate limited in envelope", http.StatusOK, `{"status": 429, "message": "Too many requests"}`, 429},
		{"http error with html", http.StatusBadGateway, `<html>bad gateway</html>`, http.StatusBadGateway},
		{"http error with envelope ok", http.StatusInternalServerError, `{"status": 200, "message": ""}`, 200},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv, _ := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.httpStatus)
				io.WriteString(w, tt.body)
			})

			_, err := NewClient(srv.URL).Query(context.Background(), "tok", &QueryRequest{Message: "p"})

			var statusErr *StatusError
			require.ErrorAs(t, err, &statusErr)
			assert.Equal(t, tt.wantStatus, statusErr.Status)
		})
	}
}

func TestStatusUnmarshal(t *testing.T) {
	tests := []struct {
		in      string
		want    Status
		wantErr bool
	}{
		{`200`, 200, false},
		{`"200"`, 200, false},
		{`null`, 0, false},
		{`"ok"`, 0, true},
		{`true`, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			var s Status
			err := json.Unmarshal([]byte(tt.in), &s)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, s)
		})
	}
}

func TestNewClient_Defaults(t *testing.T) {
	assert.Equal(t, DefaultBaseURL, NewClient("").BaseURL())

	custom := &http.Client{}
	c := NewClient("https://example.test/", WithHTTPClient(custom), WithHTTPClient(nil))
	assert.Equal(t, "https://example.test", c.BaseURL())
	assert.Same(t, custom, c.httpClient)
}
