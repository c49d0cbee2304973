package sdk

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

// StatusOK is the envelope status reported on success
const StatusOK = 200

// Status is the envelope status code. The API sends it either as a JSON
// number or as a numeric string
type Status int

// UnmarshalJSON accepts both 200 and "200"
func (s *Status) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || string(data) == "null" {
		*s = 0
		return nil
	}

	if data[0] == '"' {
		var str string
		if err := json.Unmarshal(data, &str); err != nil {
			return err
		}
		n, err := strconv.Atoi(str)
		if err != nil {
			return fmt.Errorf("invalid status %q", str)
		}
		*s = Status(n)
		return nil
	}

	var n int
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("invalid status %s", string(data))
	}
	*s = Status(n)
	return nil
}

/** Requests */

// TokenRequest exchanges an account email and API key for a session token
type TokenRequest struct {
	Email  string `json:"email"`
	APIKey string `json:"api_key"`
}

// QueryRequest is a single prompt sent to the query endpoint
type QueryRequest struct {
	Message     string  `json:"message"`     // Full prompt text
	Temperature float64 `json:"temperature"` // Sampling temperature
	Dataset     string  `json:"dataset"`     // Dataset scope ("all", "none", or a named dataset)
	Model       string  `json:"model"`       // Model name, e.g. "gpt4"
}

/** Responses */

// TokenResponse is the envelope returned by the token endpoint
type TokenResponse struct {
	Status   Status          `json:"status"`
	Response json.RawMessage `json:"response"`
}

// tokenPayload is the success shape of TokenResponse.Response
type tokenPayload struct {
	AccessToken string `json:"access_token"`
}

// QueryResponse is the envelope returned by the query endpoint
type QueryResponse struct {
	Status  Status `json:"status"`
	Message string `json:"message"`
}
