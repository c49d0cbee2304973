package sdk

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
)

const (
	tokenPath = "/user/get-token-with-api-key"
	queryPath = "/server/query"
)

// GetToken exchanges an account email and API key for a short-lived session
// token. Every failure is reported as *AuthenticationError
func (c *Client) GetToken(ctx context.Context, email, apiKey string) (string, error) {
	if strings.TrimSpace(email) == "" || strings.TrimSpace(apiKey) == "" {
		return "", &AuthenticationError{Message: "email and api key are required"}
	}

	code, body, err := c.newRequest(ctx, http.MethodPost, tokenPath, &TokenRequest{Email: email, APIKey: apiKey}).doJSON()
	if err != nil {
		return "", &AuthenticationError{Status: code, Message: "token request failed", Err: err}
	}

	var out TokenResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return "", &AuthenticationError{Status: code, Message: truncate(string(body)), Err: err}
	}

	// Check for success
	if out.Status != StatusOK || code < 200 || code >= 300 {
		status := int(out.Status)
		if status == 0 {
			status = code
		}
		return "", &AuthenticationError{Status: status, Message: truncate(string(out.Response))}
	}

	var payload tokenPayload
	if err := json.Unmarshal(out.Response, &payload); err != nil || payload.AccessToken == "" {
		return "", &AuthenticationError{Status: int(out.Status), Message: "no access token returned", Err: err}
	}

	return payload.AccessToken, nil
}

// Query sends one prompt with the given session token and returns the
// generated text. A non-success status is reported as *StatusError
func (c *Client) Query(ctx context.Context, token string, req *QueryRequest) (string, error) {
	code, body, err := c.newRequest(ctx, http.MethodPost, queryPath, req).withToken(token).doJSON()
	if err != nil {
		return "", err
	}

	var out QueryResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return "", &StatusError{Status: code, Body: truncate(string(body))}
	}

	if out.Status != StatusOK || code < 200 || code >= 300 {
		status := int(out.Status)
		if status == 0 {
			status = code
		}
		return "", &StatusError{Status: status, Body: truncate(string(body))}
	}

	return out.Message, nil
}

// truncate keeps server error bodies readable in logs
func truncate(s string) string {
	const limit = 512
	s = strings.TrimSpace(s)
	if len(s) > limit {
		return s[:limit] + "..."
	}
	return s
}
