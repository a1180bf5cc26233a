package draft

import (
	"context"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/comercio-labs/admin-console-service/internal/apperrors"
	"github.com/comercio-labs/admin-console-service/internal/models"
)

// Mode is the state of the order form.
type Mode string

const (
	ModeClosed   Mode = "closed"
	ModeCreating Mode = "creating"
	ModeEditing  Mode = "editing"
	ModeViewing  Mode = "viewing"
)

// PriceLookup resolves a product id to its current unit price. Called on
// every product-id edit; results are never cached here.
type PriceLookup interface {
	ProductPrice(ctx context.Context, productID string) (float64, error)
}

// Gateway is the remote persistence boundary for orders. The backend copy
// is authoritative; whatever it returns replaces local state wholesale.
type Gateway interface {
	ListOrders(ctx context.Context) ([]models.Order, error)
	GetOrder(ctx context.Context, id string) (*models.Order, error)
	CreateOrder(ctx context.Context, order models.Order) (*models.Order, error)
	UpdateOrder(ctx context.Context, id string, order models.Order) (*models.Order, error)
	DeleteOrder(ctx context.Context, id string) error
}

// Controller owns one staff session's order workspace: the loaded order
// collection, the active form draft, and the in-flight price lookups.
//
// All state changes happen under one mutex, which is the Go rendition of
// the single event loop this workflow assumes: user edits and lookup
// resolutions interleave but never overlap.
type Controller struct {
	mu sync.Mutex
	wg sync.WaitGroup

	mode       Mode
	orderID    string
	customerID string
	status     models.OrderStatus
	lines      []Line
	createdAt  time.Time
	viewing    *models.Order

	orders []models.Order

	// gen bumps every time the form opens or closes. A price patch carries
	// the gen of the edit that started it and is dropped on mismatch, so a
	// lookup resolving after the form closed cannot touch a later draft.
	gen uint64

	gateway Gateway
	catalog PriceLookup
	logger  *zap.Logger
	now     func() time.Time
}

// NewController creates a workspace bound to the given gateway and catalog.
func NewController(gateway Gateway, catalog PriceLookup, logger *zap.Logger) *Controller {
	return &Controller{
		mode:    ModeClosed,
		gateway: gateway,
		catalog: catalog,
		logger:  logger,
		now:     time.Now,
	}
}

// Load refreshes the local order collection from the backend.
func (c *Controller) Load(ctx context.Context) ([]models.Order, error) {
	orders, err := c.gateway.ListOrders(ctx)
	if err != nil {
		c.logger.Warn("loading orders failed", zap.Error(err))
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.orders = orders
	return copyOrders(orders), nil
}

// Orders returns a snapshot of the local collection.
func (c *Controller) Orders() []models.Order {
	c.mu.Lock()
	defer c.mu.Unlock()
	return copyOrders(c.orders)
}

// OpenCreate starts a fresh draft: next numeric id, active status, no lines.
func (c *Controller) OpenCreate() View {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.gen++
	c.mode = ModeCreating
	c.orderID = NextOrderID(c.orders)
	c.customerID = ""
	c.status = models.OrderStatusActive
	c.lines = nil
	c.createdAt = time.Time{}
	c.viewing = nil
	return c.viewLocked()
}

// OpenEdit seeds the form from an existing order. The id is immutable for
// the rest of the form session and the original createdAt is kept aside so
// submission preserves it.
func (c *Controller) OpenEdit(ctx context.Context, id string) (View, error) {
	order, err := c.findOrder(ctx, id)
	if err != nil {
		return View{}, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.gen++
	c.mode = ModeEditing
	c.orderID = order.ID
	c.customerID = order.CustomerID
	c.status = order.Status
	c.lines = fromOrderLines(order.Lines)
	c.createdAt = order.CreatedAt
	c.viewing = nil
	return c.viewLocked(), nil
}

// OpenView shows an order read-only without touching any draft state.
func (c *Controller) OpenView(ctx context.Context, id string) (View, error) {
	order, err := c.findOrder(ctx, id)
	if err != nil {
		return View{}, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.gen++
	c.mode = ModeViewing
	c.lines = nil
	c.viewing = order
	return c.viewLocked(), nil
}

// Close discards the draft. Any price lookup still in flight resolves
// against the old generation and is dropped.
func (c *Controller) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.gen++
	c.mode = ModeClosed
	c.lines = nil
	c.viewing = nil
}

// View returns the current form snapshot with a freshly computed total.
func (c *Controller) View() View {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.viewLocked()
}

// AddLine appends a blank line to the open draft.
func (c *Controller) AddLine() (View, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.requireFormLocked(); err != nil {
		return View{}, err
	}
	c.lines = AddLine(c.lines)
	return c.viewLocked(), nil
}

// RemoveLine drops the line at index.
func (c *Controller) RemoveLine(index int) (View, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.requireFormLocked(); err != nil {
		return View{}, err
	}
	if index < 0 || index >= len(c.lines) {
		return View{}, apperrors.NewValidationError("index", "line index out of range")
	}
	c.lines = RemoveLine(c.lines, index)
	return c.viewLocked(), nil
}

// UpdateLine replaces one field of one line. Setting a non-blank product id
// starts an asynchronous catalog lookup; when it resolves, the price is
// patched into the line found by identity, or dropped if that line is gone.
func (c *Controller) UpdateLine(index int, field Field, value string) (View, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.requireFormLocked(); err != nil {
		return View{}, err
	}
	if index < 0 || index >= len(c.lines) {
		return View{}, apperrors.NewValidationError("index", "line index out of range")
	}
	switch field {
	case FieldProductID, FieldQuantity, FieldUnitPrice:
	default:
		return View{}, apperrors.NewValidationError("field", "unknown line field")
	}

	c.lines = SetField(c.lines, index, field, value)

	if field == FieldProductID && strings.TrimSpace(value) != "" {
		lineID := c.lines[index].ID
		gen := c.gen
		c.wg.Add(1)
		go func() {
			defer c.wg.Done()
			c.resolvePrice(lineID, value, gen)
		}()
	}

	return c.viewLocked(), nil
}

// SetCustomer sets the draft's customer id.
func (c *Controller) SetCustomer(id string) (View, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.requireFormLocked(); err != nil {
		return View{}, err
	}
	c.customerID = id
	return c.viewLocked(), nil
}

// SetStatus transitions the draft's status. Creation always starts active;
// edits may move to either value.
func (c *Controller) SetStatus(status models.OrderStatus) (View, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.requireFormLocked(); err != nil {
		return View{}, err
	}
	if status != models.OrderStatusActive && status != models.OrderStatusCancelled {
		return View{}, apperrors.NewValidationError("status", "unknown order status")
	}
	c.status = status
	return c.viewLocked(), nil
}

// CanSubmit reports whether the draft meets the submission preconditions:
// a non-empty customer id and at least one line.
func (c *Controller) CanSubmit() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.canSubmitLocked()
}

// Submit packages the draft and sends it to the backend. The total is
// recomputed here from the lines, never trusted from earlier state. On
// success the local collection is reconciled with the server's copy and the
// form closes; on failure the form stays open so the user can retry.
func (c *Controller) Submit(ctx context.Context) (*models.Order, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.mode != ModeCreating && c.mode != ModeEditing {
		return nil, apperrors.NewValidationError("form", "no draft open for submission")
	}
	if !c.canSubmitLocked() {
		return nil, apperrors.NewValidationError("draft", "customer id and at least one line are required")
	}

	order := models.Order{
		ID:         c.orderID,
		CustomerID: c.customerID,
		Status:     c.status,
		Lines:      toOrderLines(c.lines),
		Total:      Total(c.lines),
	}

	var (
		saved *models.Order
		err   error
	)
	switch c.mode {
	case ModeCreating:
		order.CreatedAt = c.now()
		saved, err = c.gateway.CreateOrder(ctx, order)
	case ModeEditing:
		order.CreatedAt = c.createdAt
		saved, err = c.gateway.UpdateOrder(ctx, order.ID, order)
	}
	if err != nil {
		c.logger.Warn("order submission failed",
			zap.String("order_id", order.ID),
			zap.String("mode", string(c.mode)),
			zap.Error(err))
		return nil, err
	}

	if c.mode == ModeCreating {
		c.orders = append(c.orders, *saved)
	} else {
		for i := range c.orders {
			if c.orders[i].ID == saved.ID {
				c.orders[i] = *saved
				break
			}
		}
	}

	c.gen++
	c.mode = ModeClosed
	c.lines = nil
	return saved, nil
}

// Delete removes an order remotely, then from the local collection.
func (c *Controller) Delete(ctx context.Context, id string) error {
	if err := c.gateway.DeleteOrder(ctx, id); err != nil {
		c.logger.Warn("order deletion failed", zap.String("order_id", id), zap.Error(err))
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	kept := c.orders[:0:0]
	for _, o := range c.orders {
		if o.ID != id {
			kept = append(kept, o)
		}
	}
	c.orders = kept
	return nil
}

// Wait blocks until every in-flight price lookup has settled. Used by tests
// and by session teardown.
func (c *Controller) Wait() {
	c.wg.Wait()
}

func (c *Controller) resolvePrice(lineID, productID string, gen uint64) {
	price, err := c.catalog.ProductPrice(context.Background(), productID)
	if err != nil {
		// A bad product id degrades to a zero-priced line; editing is
		// never blocked by a failed lookup.
		c.logger.Warn("price lookup failed, defaulting to 0",
			zap.String("product_id", productID),
			zap.Error(err))
		price = 0
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.gen != gen {
		return
	}
	for i, l := range c.lines {
		if l.ID == lineID {
			next := make([]Line, len(c.lines))
			copy(next, c.lines)
			next[i].UnitPrice = price
			c.lines = next
			return
		}
	}
	// Line was removed while the lookup was in flight; drop the patch.
}

func (c *Controller) findOrder(ctx context.Context, id string) (*models.Order, error) {
	c.mu.Lock()
	for _, o := range c.orders {
		if o.ID == id {
			order := o
			c.mu.Unlock()
			return &order, nil
		}
	}
	c.mu.Unlock()

	return c.gateway.GetOrder(ctx, id)
}

func (c *Controller) requireFormLocked() error {
	if c.mode != ModeCreating && c.mode != ModeEditing {
		return apperrors.NewValidationError("form", "no draft open")
	}
	return nil
}

func (c *Controller) canSubmitLocked() bool {
	if c.mode != ModeCreating && c.mode != ModeEditing {
		return false
	}
	return strings.TrimSpace(c.customerID) != "" && len(c.lines) > 0
}

func copyOrders(orders []models.Order) []models.Order {
	out := make([]models.Order, len(orders))
	copy(out, orders)
	return out
}
