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

// Ensure HTTPOrderGateway satisfies the workflow's gateway boundary.
var _ draft.Gateway = (*HTTPOrderGateway)(nil)

// HTTPOrderGateway implements order CRUD against /api/pedidos.
type HTTPOrderGateway struct {
	baseURL    string
	httpClient *http.Client
	tokens     TokenSource
	metrics    *metrics.Metrics
	logger     *zap.Logger
}

// NewHTTPOrderGateway creates the order gateway. The token source is the
// session-scoped replacement for the old ambient client-storage token.
func NewHTTPOrderGateway(cfg config.BackendConfig, tokens TokenSource, m *metrics.Metrics, logger *zap.Logger) *HTTPOrderGateway {
	return &HTTPOrderGateway{
		baseURL: cfg.BaseURL,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		tokens:  tokens,
		metrics: m,
		logger:  logger,
	}
}

// ListOrders retrieves all orders.
func (g *HTTPOrderGateway) ListOrders(ctx context.Context) ([]models.Order, error) {
	const op = "orders.list"
	start := time.Now()

	url := fmt.Sprintf("%s/api/pedidos", g.baseURL)
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

	var orders []models.Order
	if err := json.NewDecoder(resp.Body).Decode(&orders); err != nil {
		g.observe(op, start, err)
		return nil, err
	}

	g.observe(op, start, nil)
	g.logger.Debug("orders listed", zap.Int("count", len(orders)))
	return orders, nil
}

// GetOrder retrieves one order by id.
func (g *HTTPOrderGateway) GetOrder(ctx context.Context, id string) (*models.Order, error) {
	const op = "orders.get"
	start := time.Now()

	url := fmt.Sprintf("%s/api/pedidos/%s", g.baseURL, id)
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

	var order models.Order
	if err := json.NewDecoder(resp.Body).Decode(&order); err != nil {
		g.observe(op, start, err)
		return nil, err
	}

	g.observe(op, start, nil)
	return &order, nil
}

// CreateOrder persists a new order and returns the server's copy.
func (g *HTTPOrderGateway) CreateOrder(ctx context.Context, order models.Order) (*models.Order, error) {
	const op = "orders.create"
	return g.send(ctx, op, http.MethodPost, fmt.Sprintf("%s/api/pedidos", g.baseURL), order)
}

// UpdateOrder replaces an existing order wholesale, keyed by id.
func (g *HTTPOrderGateway) UpdateOrder(ctx context.Context, id string, order models.Order) (*models.Order, error) {
	const op = "orders.update"
	return g.send(ctx, op, http.MethodPut, fmt.Sprintf("%s/api/pedidos/%s", g.baseURL, id), order)
}

// DeleteOrder removes an order.
func (g *HTTPOrderGateway) DeleteOrder(ctx context.Context, id string) error {
	const op = "orders.delete"
	start := time.Now()

	url := fmt.Sprintf("%s/api/pedidos/%s", g.baseURL, id)
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
	g.logger.Debug("order deleted", zap.String("order_id", id))
	return nil
}

func (g *HTTPOrderGateway) send(ctx context.Context, op, method, url string, order models.Order) (*models.Order, error) {
	start := time.Now()

	body, err := json.Marshal(order)
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

	var saved models.Order
	if err := json.NewDecoder(resp.Body).Decode(&saved); err != nil {
		g.observe(op, start, err)
		return nil, err
	}

	g.observe(op, start, nil)
	g.logger.Debug("order saved", zap.String("order_id", saved.ID), zap.Float64("total", saved.Total))
	return &saved, nil
}

func (g *HTTPOrderGateway) observe(op string, start time.Time, err error) {
	if g.metrics != nil {
		g.metrics.ObserveBackend(op, start, err)
	}
}

// MockOrderGateway is an in-memory gateway for tests.
type MockOrderGateway struct {
	OrdersData []models.Order
	Err        error

	Created []models.Order
	Updated []models.Order
	Deleted []string
}

var _ draft.Gateway = (*MockOrderGateway)(nil)

func NewMockOrderGateway(seed ...models.Order) *MockOrderGateway {
	return &MockOrderGateway{OrdersData: seed}
}

func (m *MockOrderGateway) ListOrders(ctx context.Context) ([]models.Order, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	out := make([]models.Order, len(m.OrdersData))
	copy(out, m.OrdersData)
	return out, nil
}

func (m *MockOrderGateway) GetOrder(ctx context.Context, id string) (*models.Order, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	for _, o := range m.OrdersData {
		if o.ID == id {
			order := o
			return &order, nil
		}
	}
	return nil, apperrors.ErrNotFound
}

func (m *MockOrderGateway) CreateOrder(ctx context.Context, order models.Order) (*models.Order, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	m.Created = append(m.Created, order)
	m.OrdersData = append(m.OrdersData, order)
	return &order, nil
}

func (m *MockOrderGateway) UpdateOrder(ctx context.Context, id string, order models.Order) (*models.Order, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	m.Updated = append(m.Updated, order)
	for i := range m.OrdersData {
		if m.OrdersData[i].ID == id {
			m.OrdersData[i] = order
			return &order, nil
		}
	}
	return nil, apperrors.ErrNotFound
}

func (m *MockOrderGateway) DeleteOrder(ctx context.Context, id string) error {
	if m.Err != nil {
		return m.Err
	}
	m.Deleted = append(m.Deleted, id)
	kept := m.OrdersData[:0:0]
	for _, o := range m.OrdersData {
		if o.ID != id {
			kept = append(kept, o)
		}
	}
	m.OrdersData = kept
	return nil
}
