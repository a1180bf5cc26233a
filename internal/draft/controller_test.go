package draft_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/comercio-labs/admin-console-service/internal/apperrors"
	"github.com/comercio-labs/admin-console-service/internal/clients"
	"github.com/comercio-labs/admin-console-service/internal/draft"
	"github.com/comercio-labs/admin-console-service/internal/models"
)

// gatedCatalog blocks each lookup until release is closed, so tests can
// interleave edits with an in-flight price resolution.
type gatedCatalog struct {
	release chan struct{}
	price   float64
	err     error
}

func (g *gatedCatalog) ProductPrice(ctx context.Context, id string) (float64, error) {
	<-g.release
	return g.price, g.err
}

func newController(gateway draft.Gateway, catalog draft.PriceLookup) *draft.Controller {
	return draft.NewController(gateway, catalog, zap.NewNop())
}

func seedOrders() []models.Order {
	return []models.Order{
		{ID: "3", CustomerID: "u1", Status: models.OrderStatusActive, Total: 5, CreatedAt: time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)},
		{ID: "1", CustomerID: "u2", Status: models.OrderStatusCancelled, Total: 7, CreatedAt: time.Date(2024, 1, 5, 9, 0, 0, 0, time.UTC)},
		{ID: "7", CustomerID: "u3", Status: models.OrderStatusActive, Total: 12, CreatedAt: time.Date(2024, 5, 20, 8, 0, 0, 0, time.UTC)},
	}
}

func TestOpenCreateAssignsNextID(t *testing.T) {
	gateway := clients.NewMockOrderGateway(seedOrders()...)
	ctrl := newController(gateway, clients.NewMockCatalogGateway())

	if _, err := ctrl.Load(context.Background()); err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	view := ctrl.OpenCreate()

	if view.Mode != draft.ModeCreating {
		t.Errorf("Expected creating mode, got %s", view.Mode)
	}
	if view.OrderID != "8" {
		t.Errorf("Expected next id 8, got %q", view.OrderID)
	}
	if view.Status != models.OrderStatusActive {
		t.Errorf("Expected active status, got %s", view.Status)
	}
	if len(view.Lines) != 0 {
		t.Errorf("Expected no lines, got %d", len(view.Lines))
	}
}

func TestPricePatchAppliesToEditedLineOnly(t *testing.T) {
	catalog := clients.NewMockCatalogGateway()
	catalog.Products["P9"] = models.Product{ID: "P9", Price: 9.99}

	ctrl := newController(clients.NewMockOrderGateway(), catalog)
	ctrl.OpenCreate()
	ctrl.AddLine()
	ctrl.AddLine()

	if _, err := ctrl.UpdateLine(1, draft.FieldProductID, "P9"); err != nil {
		t.Fatalf("UpdateLine failed: %v", err)
	}
	ctrl.Wait()

	view := ctrl.View()
	if view.Lines[0].UnitPrice != 0 {
		t.Errorf("Line 0 price changed to %f, want 0", view.Lines[0].UnitPrice)
	}
	if view.Lines[1].UnitPrice != 9.99 {
		t.Errorf("Line 1 price = %f, want 9.99", view.Lines[1].UnitPrice)
	}
	if view.Lines[1].Subtotal != 9.99 {
		t.Errorf("Line 1 subtotal = %f, want 9.99", view.Lines[1].Subtotal)
	}
}

func TestFailedLookupDegradesToZeroPrice(t *testing.T) {
	catalog := clients.NewMockCatalogGateway() // empty: every lookup is a miss

	ctrl := newController(clients.NewMockOrderGateway(), catalog)
	ctrl.OpenCreate()
	ctrl.AddLine()
	if _, err := ctrl.UpdateLine(0, draft.FieldUnitPrice, "4.50"); err != nil {
		t.Fatalf("UpdateLine failed: %v", err)
	}

	if _, err := ctrl.UpdateLine(0, draft.FieldProductID, "MISSING"); err != nil {
		t.Fatalf("UpdateLine must not surface lookup failures, got %v", err)
	}
	ctrl.Wait()

	view := ctrl.View()
	if view.Lines[0].UnitPrice != 0 {
		t.Errorf("Expected price degraded to 0, got %f", view.Lines[0].UnitPrice)
	}
}

func TestBlankProductIDSkipsLookup(t *testing.T) {
	catalog := &gatedCatalog{release: make(chan struct{})}

	ctrl := newController(clients.NewMockOrderGateway(), catalog)
	ctrl.OpenCreate()
	ctrl.AddLine()

	if _, err := ctrl.UpdateLine(0, draft.FieldProductID, "   "); err != nil {
		t.Fatalf("UpdateLine failed: %v", err)
	}

	// Wait would hang if a lookup had been started against the gated
	// catalog; returning immediately proves none was.
	ctrl.Wait()
}

func TestPricePatchFollowsLineIdentity(t *testing.T) {
	catalog := &gatedCatalog{release: make(chan struct{}), price: 9.99}

	ctrl := newController(clients.NewMockOrderGateway(), catalog)
	ctrl.OpenCreate()
	ctrl.AddLine()
	ctrl.AddLine()

	if _, err := ctrl.UpdateLine(1, draft.FieldProductID, "P9"); err != nil {
		t.Fatalf("UpdateLine failed: %v", err)
	}
	// The edited line shifts from index 1 to index 0 while the lookup is
	// still in flight.
	if _, err := ctrl.RemoveLine(0); err != nil {
		t.Fatalf("RemoveLine failed: %v", err)
	}

	close(catalog.release)
	ctrl.Wait()

	view := ctrl.View()
	if len(view.Lines) != 1 {
		t.Fatalf("Expected 1 line, got %d", len(view.Lines))
	}
	if view.Lines[0].ProductID != "P9" {
		t.Fatalf("Wrong line survived: %q", view.Lines[0].ProductID)
	}
	if view.Lines[0].UnitPrice != 9.99 {
		t.Errorf("Expected patch to follow the line to its new index, price = %f", view.Lines[0].UnitPrice)
	}
}

func TestPricePatchDroppedWhenLineRemoved(t *testing.T) {
	catalog := &gatedCatalog{release: make(chan struct{}), price: 9.99}

	ctrl := newController(clients.NewMockOrderGateway(), catalog)
	ctrl.OpenCreate()
	ctrl.AddLine()

	if _, err := ctrl.UpdateLine(0, draft.FieldProductID, "P9"); err != nil {
		t.Fatalf("UpdateLine failed: %v", err)
	}
	if _, err := ctrl.RemoveLine(0); err != nil {
		t.Fatalf("RemoveLine failed: %v", err)
	}

	close(catalog.release)
	ctrl.Wait()

	if got := len(ctrl.View().Lines); got != 0 {
		t.Errorf("Expected patch dropped with the line, got %d lines", got)
	}
}

func TestPricePatchDroppedAfterClose(t *testing.T) {
	catalog := &gatedCatalog{release: make(chan struct{}), price: 9.99}

	ctrl := newController(clients.NewMockOrderGateway(), catalog)
	ctrl.OpenCreate()
	ctrl.AddLine()

	if _, err := ctrl.UpdateLine(0, draft.FieldProductID, "P9"); err != nil {
		t.Fatalf("UpdateLine failed: %v", err)
	}
	ctrl.Close()

	// A new form opened before the stale lookup resolves must not receive
	// its patch.
	ctrl.OpenCreate()
	ctrl.AddLine()

	close(catalog.release)
	ctrl.Wait()

	view := ctrl.View()
	if view.Lines[0].UnitPrice != 0 {
		t.Errorf("Stale lookup leaked into a new form: price = %f", view.Lines[0].UnitPrice)
	}
}

func TestSubmitPreconditions(t *testing.T) {
	tests := []struct {
		name     string
		customer string
		lines    int
	}{
		{"missing customer", "", 1},
		{"no lines", "u1", 0},
		{"closed form", "", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gateway := clients.NewMockOrderGateway()
			ctrl := newController(gateway, clients.NewMockCatalogGateway())

			if tt.name != "closed form" {
				ctrl.OpenCreate()
				if tt.customer != "" {
					ctrl.SetCustomer(tt.customer)
				}
				for i := 0; i < tt.lines; i++ {
					ctrl.AddLine()
				}
			}

			if ctrl.CanSubmit() {
				t.Error("Expected CanSubmit to be false")
			}

			_, err := ctrl.Submit(context.Background())
			var validationErr *apperrors.ValidationError
			if !errors.As(err, &validationErr) {
				t.Errorf("Expected validation error, got %v", err)
			}
			if len(gateway.Created) != 0 || len(gateway.Updated) != 0 {
				t.Error("Submit must not reach the gateway when preconditions fail")
			}
		})
	}
}

func TestSubmitCreateAppendsServerCopy(t *testing.T) {
	gateway := clients.NewMockOrderGateway(seedOrders()...)
	ctrl := newController(gateway, clients.NewMockCatalogGateway())

	if _, err := ctrl.Load(context.Background()); err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	ctrl.OpenCreate()
	ctrl.SetCustomer("u9")
	ctrl.AddLine()
	ctrl.UpdateLine(0, draft.FieldQuantity, "2")
	ctrl.UpdateLine(0, draft.FieldUnitPrice, "5.00")
	ctrl.AddLine()
	ctrl.UpdateLine(1, draft.FieldQuantity, "1")
	ctrl.UpdateLine(1, draft.FieldUnitPrice, "10.00")

	saved, err := ctrl.Submit(context.Background())
	if err != nil {
		t.Fatalf("Submit failed: %v", err)
	}

	if saved.ID != "8" {
		t.Errorf("Expected order id 8, got %q", saved.ID)
	}
	if saved.Total != 20.00 {
		t.Errorf("Expected total 20.00, got %f", saved.Total)
	}
	if saved.CreatedAt.IsZero() {
		t.Error("Expected createdAt stamped at submission")
	}

	orders := ctrl.Orders()
	if len(orders) != 4 {
		t.Fatalf("Expected 4 orders after create, got %d", len(orders))
	}
	if orders[3].ID != "8" {
		t.Errorf("Expected server copy appended, tail id %q", orders[3].ID)
	}
	if ctrl.View().Mode != draft.ModeClosed {
		t.Errorf("Expected form closed after submit, got %s", ctrl.View().Mode)
	}
}

func TestSubmitEditReplacesMatchingOrder(t *testing.T) {
	gateway := clients.NewMockOrderGateway(seedOrders()...)
	ctrl := newController(gateway, clients.NewMockCatalogGateway())

	if _, err := ctrl.Load(context.Background()); err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	originalCreatedAt := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)

	if _, err := ctrl.OpenEdit(context.Background(), "3"); err != nil {
		t.Fatalf("OpenEdit failed: %v", err)
	}
	ctrl.AddLine()
	ctrl.UpdateLine(0, draft.FieldQuantity, "3")
	ctrl.UpdateLine(0, draft.FieldUnitPrice, "2.50")
	if _, err := ctrl.SetStatus(models.OrderStatusCancelled); err != nil {
		t.Fatalf("SetStatus failed: %v", err)
	}

	saved, err := ctrl.Submit(context.Background())
	if err != nil {
		t.Fatalf("Submit failed: %v", err)
	}

	if saved.ID != "3" {
		t.Errorf("Order id must be immutable across edits, got %q", saved.ID)
	}
	if !saved.CreatedAt.Equal(originalCreatedAt) {
		t.Errorf("Expected createdAt preserved as %v, got %v", originalCreatedAt, saved.CreatedAt)
	}
	if saved.Total != 7.50 {
		t.Errorf("Expected recomputed total 7.50, got %f", saved.Total)
	}
	if saved.Status != models.OrderStatusCancelled {
		t.Errorf("Expected cancelled status, got %s", saved.Status)
	}

	orders := ctrl.Orders()
	if len(orders) != 3 {
		t.Fatalf("Edit must replace, not append: got %d orders", len(orders))
	}
	for _, o := range orders {
		if o.ID == "3" && o.Total != 7.50 {
			t.Errorf("Expected replaced entry with total 7.50, got %f", o.Total)
		}
	}
	if len(gateway.Updated) != 1 {
		t.Fatalf("Expected 1 update call, got %d", len(gateway.Updated))
	}
}

func TestSubmitFailureLeavesFormOpen(t *testing.T) {
	gateway := clients.NewMockOrderGateway()
	ctrl := newController(gateway, clients.NewMockCatalogGateway())

	ctrl.OpenCreate()
	ctrl.SetCustomer("u1")
	ctrl.AddLine()

	gateway.Err = &apperrors.NetworkError{Op: "orders.create", Err: errors.New("connection refused")}

	if _, err := ctrl.Submit(context.Background()); err == nil {
		t.Fatal("Expected submit to fail")
	}

	view := ctrl.View()
	if view.Mode != draft.ModeCreating {
		t.Errorf("Expected form still open for retry, got %s", view.Mode)
	}
	if len(view.Lines) != 1 {
		t.Errorf("Expected draft lines preserved, got %d", len(view.Lines))
	}

	// Retry succeeds once the backend recovers.
	gateway.Err = nil
	if _, err := ctrl.Submit(context.Background()); err != nil {
		t.Errorf("Expected retry to succeed, got %v", err)
	}
}

func TestDeleteRemovesFromCollection(t *testing.T) {
	gateway := clients.NewMockOrderGateway(seedOrders()...)
	ctrl := newController(gateway, clients.NewMockCatalogGateway())

	if _, err := ctrl.Load(context.Background()); err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if err := ctrl.Delete(context.Background(), "1"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}

	for _, o := range ctrl.Orders() {
		if o.ID == "1" {
			t.Error("Expected order 1 removed from local collection")
		}
	}
	if len(gateway.Deleted) != 1 || gateway.Deleted[0] != "1" {
		t.Errorf("Expected gateway delete of order 1, got %v", gateway.Deleted)
	}
}

func TestOpenViewIsReadOnly(t *testing.T) {
	gateway := clients.NewMockOrderGateway(seedOrders()...)
	ctrl := newController(gateway, clients.NewMockCatalogGateway())

	if _, err := ctrl.Load(context.Background()); err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	view, err := ctrl.OpenView(context.Background(), "7")
	if err != nil {
		t.Fatalf("OpenView failed: %v", err)
	}
	if view.Mode != draft.ModeViewing {
		t.Errorf("Expected viewing mode, got %s", view.Mode)
	}
	if view.Order == nil || view.Order.ID != "7" {
		t.Fatalf("Expected order 7 in view, got %+v", view.Order)
	}

	if _, err := ctrl.AddLine(); err == nil {
		t.Error("Expected line edits to be rejected in viewing mode")
	}
	if _, err := ctrl.Submit(context.Background()); err == nil {
		t.Error("Expected submit to be rejected in viewing mode")
	}
}

func TestOpenEditFallsBackToGateway(t *testing.T) {
	gateway := clients.NewMockOrderGateway(seedOrders()...)
	ctrl := newController(gateway, clients.NewMockCatalogGateway())

	// Collection never loaded: the order must be fetched remotely.
	view, err := ctrl.OpenEdit(context.Background(), "7")
	if err != nil {
		t.Fatalf("OpenEdit failed: %v", err)
	}
	if view.OrderID != "7" {
		t.Errorf("Expected draft seeded with order 7, got %q", view.OrderID)
	}

	if _, err := ctrl.OpenEdit(context.Background(), "999"); !errors.Is(err, apperrors.ErrNotFound) {
		t.Errorf("Expected not-found for unknown order, got %v", err)
	}
}
