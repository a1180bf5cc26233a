// Package clients holds the thin HTTP gateways to the commerce backend.
// Every persistence operation of the console flows through one of them;
// nothing else in the service talks to the network.
package clients

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/comercio-labs/admin-console-service/internal/apperrors"
)

// TokenSource supplies the bearer token attached to backend requests.
// Implemented by the session store. When no token is available the request
// goes out unauthenticated and the backend is the one to reject it.
type TokenSource interface {
	Token(ctx context.Context) (string, bool)
}

// StaticToken is a fixed-token TokenSource, mostly for tests.
type StaticToken string

func (s StaticToken) Token(context.Context) (string, bool) {
	return string(s), s != ""
}

// NoToken never supplies a token.
type NoToken struct{}

func (NoToken) Token(context.Context) (string, bool) { return "", false }

func setHeaders(ctx context.Context, req *http.Request, tokens TokenSource) {
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	if tokens != nil {
		if token, ok := tokens.Token(ctx); ok {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}
}

// classifyResponse turns a non-2xx backend response into the taxonomy the
// rest of the service branches on.
func classifyResponse(op string, resp *http.Response) error {
	if resp.StatusCode == http.StatusNotFound {
		return fmt.Errorf("%s: %w", op, apperrors.ErrNotFound)
	}

	var payload struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	_ = json.NewDecoder(resp.Body).Decode(&payload)
	msg := payload.Message
	if msg == "" {
		msg = payload.Error
	}
	return &apperrors.ServerError{Status: resp.StatusCode, Message: msg}
}

func networkError(op string, err error) error {
	return &apperrors.NetworkError{Op: op, Err: err}
}

func is2xx(status int) bool {
	return status >= http.StatusOK && status < http.StatusMultipleChoices
}
