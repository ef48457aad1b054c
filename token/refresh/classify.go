package refresh

import (
	"encoding/json"
	"errors"
	"strings"

	"golang.org/x/oauth2"
	"google.golang.org/api/googleapi"
)

// Classification is the normalised outcome of a refresh failure.
type Classification int

const (
	Transient Classification = iota
	Terminal
)

func (c Classification) String() string {
	if c == Terminal {
		return "terminal"
	}
	return "transient"
}

const (
	invalidGrantCode = "invalid_grant"
	revokedPhrase    = "expired or revoked"
	maxPayloadDepth  = 5
)

// Classify normalises a refresh failure into Terminal or Transient.
//
// Recognised terminal shapes:
//   - ErrInvalidGrant, ErrNoRefreshToken or ErrSessionInvalid anywhere in the chain
//   - *oauth2.RetrieveError with ErrorCode "invalid_grant", an ErrorDescription
//     containing "expired or revoked", or a Body matching ClassifyPayload
//   - *googleapi.Error whose Body, Message or Errors[].Reason carries the code
//   - any error text carrying the "invalid_grant" code, whatever wrapped it
//
// Everything else, including network failures and malformed responses, is Transient.
func Classify(err error) Classification {
	if err == nil {
		return Transient
	}
	if IsTerminal(err) {
		return Terminal
	}

	var retrieveErr *oauth2.RetrieveError
	if errors.As(err, &retrieveErr) {
		if isTerminalCode(retrieveErr.ErrorCode) || isTerminalDescription(retrieveErr.ErrorDescription) {
			return Terminal
		}
		if ClassifyPayload(retrieveErr.Body) == Terminal {
			return Terminal
		}
	}

	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		if isTerminalDescription(apiErr.Message) || ClassifyPayload([]byte(apiErr.Body)) == Terminal {
			return Terminal
		}
		for _, item := range apiErr.Errors {
			if isTerminalCode(item.Reason) || isTerminalDescription(item.Message) {
				return Terminal
			}
		}
	}

	if isTerminalDescription(err.Error()) {
		return Terminal
	}
	return Transient
}

// ClassifyPayload inspects a raw token-endpoint response body. The code may sit at
// the top level ({"error":"invalid_grant"}), inside an error object
// ({"error":{"status":"invalid_grant"}}) or under response/data wrappers
// ({"response":{"data":{"error":"invalid_grant"}}}); a free-text
// error_description or message containing "expired or revoked" also counts.
func ClassifyPayload(body []byte) Classification {
	if len(body) == 0 {
		return Transient
	}
	var payload any
	if err := json.Unmarshal(body, &payload); err != nil {
		if isTerminalDescription(string(body)) {
			return Terminal
		}
		return Transient
	}
	if walkPayload(payload, 0) {
		return Terminal
	}
	return Transient
}

func walkPayload(v any, depth int) bool {
	if depth > maxPayloadDepth {
		return false
	}
	switch node := v.(type) {
	case map[string]any:
		for key, value := range node {
			if s, ok := value.(string); ok {
				switch strings.ToLower(key) {
				case "error", "error_code", "code", "status", "reason":
					if isTerminalCode(s) {
						return true
					}
				case "error_description", "description", "message":
					if isTerminalDescription(s) {
						return true
					}
				}
				continue
			}
			if walkPayload(value, depth+1) {
				return true
			}
		}
	case []any:
		for _, item := range node {
			if walkPayload(item, depth+1) {
				return true
			}
		}
	}
	return false
}

func isTerminalCode(code string) bool {
	return strings.EqualFold(strings.TrimSpace(code), invalidGrantCode)
}

func isTerminalDescription(text string) bool {
	lower := strings.ToLower(text)
	return strings.Contains(lower, invalidGrantCode) || strings.Contains(lower, revokedPhrase)
}
