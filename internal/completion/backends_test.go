package completion

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/ethanbaker/controlfill/pkg/sdk"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAskSageBackend(t *testing.T) {
	var queries int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/user/get-token-with-api-key":
			io.WriteString(w, `{"status": 200, "response": {"access_token": "session-token"}}`)
		case "/server/query":
			queries++
			assert.Equal(t, "session-token", r.Header.Get(sdk.TokenHeader))

			var body sdk.QueryRequest
			assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			assert.Equal(t, "gpt4", body.Model)
			assert.Equal(t, "all", body.Dataset)

			io.WriteString(w, `{"status": 200, "message": "generated"}`)
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	ctx := context.Background()
	backend, err := NewAskSageBackend(ctx, sdk.NewClient(srv.URL), "isso@example.com", "key")
	require.NoError(t, err)
	assert.Equal(t, "session-token", backend.Token)

	text, err := backend.Complete(ctx, Request{Prompt: "p", Dataset: "all", Model: "gpt4"})
	require.NoError(t, err)
	assert.Equal(t, "generated", text)
	assert.Equal(t, 1, queries)
}

func TestAskSageBackend_AuthFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"status": 400, "response": "bad key"}`)
	}))
	defer srv.Close()

	_, err := NewAskSageBackend(context.Background(), sdk.NewClient(srv.URL), "isso@example.com", "bad")

	var authErr *sdk.AuthenticationError
	require.ErrorAs(t, err, &authErr)
	assert.Equal(t, 400, authErr.Status)
}

func TestOpenAIBackend(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))

		var body map[string]any
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "gpt-4o", body["model"])
		assert.Equal(t, float64(0), body["temperature"])

		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{
			"id": "chatcmpl-1",
			"object": "chat.completion",
			"created": 1700000000,
			"model": "gpt-4o",
			"choices": [{"index": 0, "finish_reason": "stop", "message": {"role": "assistant", "content": "AC-2 is implemented by..."}}]
		}`)
	}))
	defer srv.Close()

	backend, err := NewOpenAIBackend("sk-test", srv.URL+"/")
	require.NoError(t, err)

	text, err := backend.Complete(context.Background(), Request{Prompt: "p", Temperature: 0, Dataset: "all", Model: "gpt-4o"})
	require.NoError(t, err)
	assert.Equal(t, "AC-2 is implemented by...", text)
}

func TestOpenAIBackend_Errors(t *testing.T) {
	_, err := NewOpenAIBackend("", "")
	assert.Error(t, err)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusTooManyRequests)
		io.WriteString(w, `{"error": {"message": "rate limited", "type": "requests"}}`)
	}))
	defer srv.Close()

	backend, err := NewOpenAIBackend("sk-test", srv.URL+"/")
	require.NoError(t, err)

	_, err = backend.Complete(context.Background(), Request{Prompt: "p", Model: "gpt-4o"})
	assert.Error(t, err)
}
