package server

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/comercio-labs/admin-console-service/internal/session"
)

type countingStore struct {
	inner   session.Store
	lookups int
}

func (s *countingStore) Create(ctx context.Context, token string) (string, error) {
	return s.inner.Create(ctx, token)
}

func (s *countingStore) Lookup(ctx context.Context, sessionID string) (string, error) {
	s.lookups++
	return s.inner.Lookup(ctx, sessionID)
}

func (s *countingStore) Delete(ctx context.Context, sessionID string) error {
	return s.inner.Delete(ctx, sessionID)
}

func TestSessionMiddlewareResolvesTokenOnce(t *testing.T) {
	gin.SetMode(gin.TestMode)

	memory := session.NewMemoryStore(time.Hour)
	sessionID, err := memory.Create(context.Background(), "backend-token")
	if err != nil {
		t.Fatalf("creating session: %v", err)
	}

	store := &countingStore{inner: memory}
	source := session.NewContextTokenSource(store)

	var gotToken string
	var gotOK bool
	router := gin.New()
	router.Use(SessionMiddleware(store))
	router.GET("/echo", func(c *gin.Context) {
		gotToken, gotOK = source.Token(c.Request.Context())
		c.Status(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/echo", nil)
	req.Header.Set(SessionHeader, sessionID)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if !gotOK || gotToken != "backend-token" {
		t.Errorf("Expected resolved token in context, got (%q, %v)", gotToken, gotOK)
	}
	if store.lookups != 1 {
		t.Errorf("Expected one store lookup per request, got %d", store.lookups)
	}
}

func TestSessionMiddlewareUnknownSession(t *testing.T) {
	gin.SetMode(gin.TestMode)

	store := &countingStore{inner: session.NewMemoryStore(time.Hour)}

	var hadSession bool
	router := gin.New()
	router.Use(SessionMiddleware(store))
	router.GET("/echo", func(c *gin.Context) {
		_, hadSession = session.IDFromContext(c.Request.Context())
		c.Status(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/echo", nil)
	req.Header.Set(SessionHeader, "unknown")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	// The request is not rejected; it just carries no session.
	if w.Code != http.StatusOK {
		t.Errorf("Expected 200, got %d", w.Code)
	}
	if hadSession {
		t.Error("Expected no session attached for an unknown id")
	}
}
