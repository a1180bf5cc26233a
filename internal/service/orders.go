package service

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/comercio-labs/admin-console-service/internal/draft"
	"github.com/comercio-labs/admin-console-service/internal/events"
	"github.com/comercio-labs/admin-console-service/internal/models"
	"github.com/comercio-labs/admin-console-service/internal/session"
)

// OrderService exposes the order workflow to the HTTP layer. Each console
// session gets its own workspace (draft controller + loaded collection);
// the gateways underneath are shared, with tokens resolved per request.
type OrderService struct {
	mu         sync.Mutex
	workspaces map[string]*draft.Controller

	gateway   draft.Gateway
	catalog   draft.PriceLookup
	publisher events.Publisher
	logger    *zap.Logger
}

func NewOrderService(gateway draft.Gateway, catalog draft.PriceLookup, publisher events.Publisher, logger *zap.Logger) *OrderService {
	return &OrderService{
		workspaces: make(map[string]*draft.Controller),
		gateway:    gateway,
		catalog:    catalog,
		publisher:  publisher,
		logger:     logger,
	}
}

func (s *OrderService) workspace(ctx context.Context) *draft.Controller {
	// Requests without a session share one anonymous workspace; their
	// gateway calls go out unauthenticated and the backend rejects them.
	id, _ := session.IDFromContext(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()

	ws, ok := s.workspaces[id]
	if !ok {
		ws = draft.NewController(s.gateway, s.catalog, s.logger.Named("workspace"))
		s.workspaces[id] = ws
	}
	return ws
}

// DropWorkspace discards a session's workspace after letting in-flight
// price lookups settle. Called at logout.
func (s *OrderService) DropWorkspace(sessionID string) {
	s.mu.Lock()
	ws, ok := s.workspaces[sessionID]
	delete(s.workspaces, sessionID)
	s.mu.Unlock()

	if ok {
		ws.Wait()
	}
}

// ListOrders refreshes and returns the session's order collection.
func (s *OrderService) ListOrders(ctx context.Context) ([]models.Order, error) {
	return s.workspace(ctx).Load(ctx)
}

// GetOrder fetches one order from the backend.
func (s *OrderService) GetOrder(ctx context.Context, id string) (*models.Order, error) {
	return s.gateway.GetOrder(ctx, id)
}

// DeleteOrder removes an order remotely and locally, then audits it.
func (s *OrderService) DeleteOrder(ctx context.Context, id string) error {
	if err := s.workspace(ctx).Delete(ctx, id); err != nil {
		return err
	}

	if err := s.publisher.OrderDeleted(ctx, id); err != nil {
		// Audit failures never fail the operation.
		s.logger.Error("audit event failed", zap.String("order_id", id), zap.Error(err))
	}
	return nil
}

// OpenCreate starts a create form.
func (s *OrderService) OpenCreate(ctx context.Context) draft.View {
	return s.workspace(ctx).OpenCreate()
}

// OpenEdit starts an edit form seeded from an existing order.
func (s *OrderService) OpenEdit(ctx context.Context, id string) (draft.View, error) {
	return s.workspace(ctx).OpenEdit(ctx, id)
}

// OpenView shows an order read-only.
func (s *OrderService) OpenView(ctx context.Context, id string) (draft.View, error) {
	return s.workspace(ctx).OpenView(ctx, id)
}

// CloseDraft discards the open form.
func (s *OrderService) CloseDraft(ctx context.Context) {
	s.workspace(ctx).Close()
}

// DraftView returns the current form snapshot.
func (s *OrderService) DraftView(ctx context.Context) draft.View {
	return s.workspace(ctx).View()
}

// AddLine appends a blank line to the open draft.
func (s *OrderService) AddLine(ctx context.Context) (draft.View, error) {
	return s.workspace(ctx).AddLine()
}

// UpdateLine edits one field of one line.
func (s *OrderService) UpdateLine(ctx context.Context, index int, field draft.Field, value string) (draft.View, error) {
	return s.workspace(ctx).UpdateLine(index, field, value)
}

// RemoveLine drops the line at index.
func (s *OrderService) RemoveLine(ctx context.Context, index int) (draft.View, error) {
	return s.workspace(ctx).RemoveLine(index)
}

// SetCustomer sets the draft's customer id.
func (s *OrderService) SetCustomer(ctx context.Context, id string) (draft.View, error) {
	return s.workspace(ctx).SetCustomer(id)
}

// SetStatus transitions the draft's status.
func (s *OrderService) SetStatus(ctx context.Context, status models.OrderStatus) (draft.View, error) {
	return s.workspace(ctx).SetStatus(status)
}

// Submit sends the open draft to the backend and audits the result.
func (s *OrderService) Submit(ctx context.Context) (*models.Order, error) {
	ws := s.workspace(ctx)
	mode := ws.View().Mode

	saved, err := ws.Submit(ctx)
	if err != nil {
		return nil, err
	}

	var auditErr error
	switch mode {
	case draft.ModeCreating:
		auditErr = s.publisher.OrderCreated(ctx, saved)
	case draft.ModeEditing:
		auditErr = s.publisher.OrderUpdated(ctx, saved)
	}
	if auditErr != nil {
		s.logger.Error("audit event failed", zap.String("order_id", saved.ID), zap.Error(auditErr))
	}

	return saved, nil
}
