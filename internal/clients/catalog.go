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
	"github.com/comercio-labs/admin-console-service/internal/draft"
	"github.com/comercio-labs/admin-console-service/internal/metrics"
	"github.com/comercio-labs/admin-console-service/internal/models"
)

// CatalogGateway provides product persistence plus the price lookup the
// order workflow depends on.
type CatalogGateway interface {
	draft.PriceLookup
	ListProducts(ctx context.Context) ([]models.Product, error)
	GetProduct(ctx context.Context, id string) (*models.Product, error)
	CreateProduct(ctx context.Context, p models.Product) (*models.Product, error)
	UpdateProduct(ctx context.Context, id string, p models.Product) (*models.Product, error)
	DeleteProduct(ctx context.Context, id string) error
}

var _ CatalogGateway = (*HTTPCatalogGateway)(nil)

// HTTPCatalogGateway implements CatalogGateway against /api/productos.
type HTTPCatalogGateway struct {
	baseURL    string
	httpClient *http.Client
	tokens     TokenSource
	metrics    *metrics.Metrics
	logger     *zap.Logger
}

func NewHTTPCatalogGateway(cfg config.BackendConfig, tokens TokenSource, m *metrics.Metrics, logger *zap.Logger) *HTTPCatalogGateway {
	return &HTTPCatalogGateway{
		baseURL: cfg.BaseURL,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		tokens:  tokens,
		metrics: m,
		logger:  logger,
	}
}

// ProductPrice resolves a product id to its current unit price. Every edit
// of a line's product id triggers a fresh call; nothing is cached.
func (g *HTTPCatalogGateway) ProductPrice(ctx context.Context, productID string) (float64, error) {
	p, err := g.GetProduct(ctx, productID)
	if err != nil {
		return 0, err
	}
	return p.Price, nil
}

// ListProducts retrieves the catalog.
func (g *HTTPCatalogGateway) ListProducts(ctx context.Context) ([]models.Product, error) {
	const op = "products.list"
	start := time.Now()

	url := fmt.Sprintf("%s/api/productos", g.baseURL)
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

	var products []models.Product
	if err := json.NewDecoder(resp.Body).Decode(&products); err != nil {
		g.observe(op, start, err)
		return nil, err
	}

	g.observe(op, start, nil)
	return products, nil
}

// GetProduct retrieves one product by id.
func (g *HTTPCatalogGateway) GetProduct(ctx context.Context, id string) (*models.Product, error) {
	const op = "products.get"
	start := time.Now()

	url := fmt.Sprintf("%s/api/productos/%s", g.baseURL, id)
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

	var product models.Product
	if err := json.NewDecoder(resp.Body).Decode(&product); err != nil {
		g.observe(op, start, err)
		return nil, err
	}

	g.observe(op, start, nil)
	return &product, nil
}

// CreateProduct persists a new product.
func (g *HTTPCatalogGateway) CreateProduct(ctx context.Context, p models.Product) (*models.Product, error) {
	const op = "products.create"
	return g.send(ctx, op, http.MethodPost, fmt.Sprintf("%s/api/productos", g.baseURL), p)
}

// UpdateProduct replaces a product, keyed by id.
func (g *HTTPCatalogGateway) UpdateProduct(ctx context.Context, id string, p models.Product) (*models.Product, error) {
	const op = "products.update"
	return g.send(ctx, op, http.MethodPut, fmt.Sprintf("%s/api/productos/%s", g.baseURL, id), p)
}

// DeleteProduct removes a product.
func (g *HTTPCatalogGateway) DeleteProduct(ctx context.Context, id string) error {
	const op = "products.delete"
	start := time.Now()

	url := fmt.Sprintf("%s/api/productos/%s", g.baseURL, id)
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, url, nil)
	if err != nil {
		return err
	}
	setHeaders(ctx, req, g.tokens)

	resp, err := g.httpClient.Do(req)
	if err != nil {
		g.observe(op, start, err)
		return networkError(op, err)
	}
	defer resp.Body.Close()

	if !is2xx(resp.StatusCode) {
		err := classifyResponse(op, resp)
		g.observe(op, start, err)
		return err
	}

	g.observe(op, start, nil)
	return nil
}

func (g *HTTPCatalogGateway) send(ctx context.Context, op, method, url string, p models.Product) (*models.Product, error) {
	start := time.Now()

	body, err := json.Marshal(p)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, method, url, bytes.NewReader(body))
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

	var saved models.Product
	if err := json.NewDecoder(resp.Body).Decode(&saved); err != nil {
		g.observe(op, start, err)
		return nil, err
	}

	g.observe(op, start, nil)
	g.logger.Debug("product saved", zap.String("product_id", saved.ID))
	return &saved, nil
}

func (g *HTTPCatalogGateway) observe(op string, start time.Time, err error) {
	if g.metrics != nil {
		g.metrics.ObserveBackend(op, start, err)
	}
}

// MockCatalogGateway is an in-memory catalog for tests.
type MockCatalogGateway struct {
	Products map[string]models.Product
	Err      error
}

var _ CatalogGateway = (*MockCatalogGateway)(nil)

func NewMockCatalogGateway() *MockCatalogGateway {
	return &MockCatalogGateway{Products: make(map[string]models.Product)}
}

func (m *MockCatalogGateway) ProductPrice(ctx context.Context, productID string) (float64, error) {
	p, err := m.GetProduct(ctx, productID)
	if err != nil {
		return 0, err
	}
	return p.Price, nil
}

func (m *MockCatalogGateway) ListProducts(ctx context.Context) ([]models.Product, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	out := make([]models.Product, 0, len(m.Products))
	for _, p := range m.Products {
		out = append(out, p)
	}
	return out, nil
}

func (m *MockCatalogGateway) GetProduct(ctx context.Context, id string) (*models.Product, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	p, ok := m.Products[id]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	return &p, nil
}

func (m *MockCatalogGateway) CreateProduct(ctx context.Context, p models.Product) (*models.Product, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	m.Products[p.ID] = p
	return &p, nil
}

func (m *MockCatalogGateway) UpdateProduct(ctx context.Context, id string, p models.Product) (*models.Product, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	if _, ok := m.Products[id]; !ok {
		return nil, apperrors.ErrNotFound
	}
	m.Products[id] = p
	return &p, nil
}

func (m *MockCatalogGateway) DeleteProduct(ctx context.Context, id string) error {
	if m.Err != nil {
		return m.Err
	}
	delete(m.Products, id)
	return nil
}
