package clients

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/comercio-labs/admin-console-service/internal/apperrors"
	"github.com/comercio-labs/admin-console-service/internal/config"
	"github.com/comercio-labs/admin-console-service/internal/metrics"
	"github.com/comercio-labs/admin-console-service/internal/models"
)

// AuthGateway covers the backend's auth resource: staff login and
// registration, plus the user listing the backend serves from the same
// registration endpoint. Login and register are the only unauthenticated
// calls the console makes.
type AuthGateway interface {
	Login(ctx context.Context, creds models.Credentials) (*models.LoginResponse, error)
	Register(ctx context.Context, user models.User) (*models.User, error)
	ListUsers(ctx context.Context) ([]models.User, error)
}

var _ AuthGateway = (*HTTPAuthGateway)(nil)

// HTTPAuthGateway implements AuthGateway against /api/auth.
type HTTPAuthGateway struct {
	baseURL    string
	httpClient *http.Client
	tokens     TokenSource
	metrics    *metrics.Metrics
	logger     *zap.Logger
}

func NewHTTPAuthGateway(cfg config.BackendConfig, tokens TokenSource, m *metrics.Metrics, logger *zap.Logger) *HTTPAuthGateway {
	return &HTTPAuthGateway{
		baseURL: cfg.BaseURL,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		tokens:  tokens,
		metrics: m,
		logger:  logger,
	}
}

// Login exchanges credentials for a bearer token.
func (g *HTTPAuthGateway) Login(ctx context.Context, creds models.Credentials) (*models.LoginResponse, error) {
	const op = "auth.login"
	start := time.Now()

	body, err := json.Marshal(creds)
	if err != nil {
		return nil, err
	}
	url := fmt.Sprintf("%s/api/auth/login", g.baseURL)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	setHeaders(ctx, req, nil)

	resp, err := g.httpClient.Do(req)
	if err != nil {
		g.observe(op, start, err)
		return nil, networkError(op, err)
	}
	defer resp.Body.Close()

	if !is2xx(resp.StatusCode) {
		err := classifyResponse(op, resp)
		g.observe(op, start, err)
		return nil, err
	}

	var result models.LoginResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		g.observe(op, start, err)
		return nil, err
	}

	g.observe(op, start, nil)
	g.logger.Info("staff login", zap.String("email", creds.Email))
	return &result, nil
}

// Register creates a new staff user.
func (g *HTTPAuthGateway) Register(ctx context.Context, user models.User) (*models.User, error) {
	const op = "auth.register"
	start := time.Now()

	body, err := json.Marshal(user)
	if err != nil {
		return nil, err
	}
	url := fmt.Sprintf("%s/api/auth/registrar", g.baseURL)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	setHeaders(ctx, req, nil)

	resp, err := g.httpClient.Do(req)
	if err != nil {
		g.observe(op, start, err)
		return nil, networkError(op, err)
	}
	defer resp.Body.Close()

	if !is2xx(resp.StatusCode) {
		err := classifyResponse(op, resp)
		g.observe(op, start, err)
		return nil, err
	}

	var created models.User
	if err := json.NewDecoder(resp.Body).Decode(&created); err != nil {
		g.observe(op, start, err)
		return nil, err
	}
	created.Password = ""

	g.observe(op, start, nil)
	return &created, nil
}

// ListUsers retrieves the registered staff users. The backend serves the
// listing from the registration resource and has answered with both a bare
// array and a wrapped object over time, so both shapes are accepted.
func (g *HTTPAuthGateway) ListUsers(ctx context.Context) ([]models.User, error) {
	const op = "auth.users"
	start := time.Now()

	url := fmt.Sprintf("%s/api/auth/registrar", g.baseURL)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	setHeaders(ctx, req, g.tokens)

	resp, err := g.httpClient.Do(req)
	if err != nil {
		g.observe(op, start, err)
		return nil, networkError(op, err)
	}
	defer resp.Body.Close()

	if !is2xx(resp.StatusCode) {
		err := classifyResponse(op, resp)
		g.observe(op, start, err)
		return nil, err
	}

	var raw json.RawMessage
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		g.observe(op, start, err)
		return nil, err
	}
	users := unwrapUsers(raw)

	g.observe(op, start, nil)
	g.logger.Debug("users listed", zap.Int("count", len(users)))
	return users, nil
}

// unwrapUsers accepts a bare user array or the wrapped {usuarios}/{data}
// payloads; anything else yields an empty listing. Passwords never reach
// callers.
func unwrapUsers(raw json.RawMessage) []models.User {
	var users []models.User
	if err := json.Unmarshal(raw, &users); err != nil {
		var wrapped struct {
			Usuarios []models.User `json:"usuarios"`
			Data     []models.User `json:"data"`
		}
		if err := json.Unmarshal(raw, &wrapped); err != nil {
			return []models.User{}
		}
		users = wrapped.Usuarios
		if users == nil {
			users = wrapped.Data
		}
	}
	if users == nil {
		users = []models.User{}
	}
	for i := range users {
		users[i].Password = ""
	}
	return users
}

func (g *HTTPAuthGateway) observe(op string, start time.Time, err error) {
	if g.metrics != nil {
		g.metrics.ObserveBackend(op, start, err)
	}
}

// MockAuthGateway is a canned-response auth gateway for tests.
type MockAuthGateway struct {
	Tokens map[string]string // email -> token
	Users  []models.User
	Err    error

	Registered []models.User
}

var _ AuthGateway = (*MockAuthGateway)(nil)

func NewMockAuthGateway() *MockAuthGateway {
	return &MockAuthGateway{Tokens: make(map[string]string)}
}

func (m *MockAuthGateway) Login(ctx context.Context, creds models.Credentials) (*models.LoginResponse, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	token, ok := m.Tokens[creds.Email]
	if !ok {
		return nil, &apperrors.ServerError{Status: http.StatusUnauthorized, Message: "invalid credentials"}
	}
	return &models.LoginResponse{
		Token: token,
		User:  models.User{Email: creds.Email},
	}, nil
}

func (m *MockAuthGateway) Register(ctx context.Context, user models.User) (*models.User, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	m.Registered = append(m.Registered, user)
	user.Password = ""
	return &user, nil
}

func (m *MockAuthGateway) ListUsers(ctx context.Context) ([]models.User, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	out := make([]models.User, len(m.Users))
	copy(out, m.Users)
	return out, nil
}
