package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/comercio-labs/admin-console-service/internal/clients"
	"github.com/comercio-labs/admin-console-service/internal/draft"
	"github.com/comercio-labs/admin-console-service/internal/events"
	"github.com/comercio-labs/admin-console-service/internal/models"
	"github.com/comercio-labs/admin-console-service/internal/session"
)

// failingPublisher errors on every event, to prove audit failures never
// fail the order operation.
type failingPublisher struct{}

func (failingPublisher) OrderCreated(context.Context, *models.Order) error {
	return errors.New("broker unavailable")
}
func (failingPublisher) OrderUpdated(context.Context, *models.Order) error {
	return errors.New("broker unavailable")
}
func (failingPublisher) OrderDeleted(context.Context, string) error {
	return errors.New("broker unavailable")
}
func (failingPublisher) Close() error { return nil }

func newOrderService(gateway draft.Gateway, publisher events.Publisher) *OrderService {
	return NewOrderService(gateway, clients.NewMockCatalogGateway(), publisher, zap.NewNop())
}

func TestWorkspacesAreSessionScoped(t *testing.T) {
	gateway := clients.NewMockOrderGateway(models.Order{ID: "1", CustomerID: "u1", Status: models.OrderStatusActive})
	svc := newOrderService(gateway, events.NewMockPublisher())

	alice := session.WithID(context.Background(), "session-a")
	bob := session.WithID(context.Background(), "session-b")

	svc.OpenCreate(alice)
	if _, err := svc.AddLine(alice); err != nil {
		t.Fatalf("AddLine failed: %v", err)
	}

	if mode := svc.DraftView(bob).Mode; mode != draft.ModeClosed {
		t.Errorf("Expected bob's workspace untouched, got mode %s", mode)
	}
	if mode := svc.DraftView(alice).Mode; mode != draft.ModeCreating {
		t.Errorf("Expected alice's form still open, got mode %s", mode)
	}
}

func TestSubmitAuditsCreateAndUpdate(t *testing.T) {
	gateway := clients.NewMockOrderGateway(
		models.Order{ID: "1", CustomerID: "u1", Status: models.OrderStatusActive, CreatedAt: time.Now()},
	)
	publisher := events.NewMockPublisher()
	svc := newOrderService(gateway, publisher)

	ctx := session.WithID(context.Background(), "session-a")
	if _, err := svc.ListOrders(ctx); err != nil {
		t.Fatalf("ListOrders failed: %v", err)
	}

	svc.OpenCreate(ctx)
	svc.SetCustomer(ctx, "u2")
	svc.AddLine(ctx)
	if _, err := svc.Submit(ctx); err != nil {
		t.Fatalf("Submit failed: %v", err)
	}

	if _, err := svc.OpenEdit(ctx, "1"); err != nil {
		t.Fatalf("OpenEdit failed: %v", err)
	}
	svc.AddLine(ctx)
	if _, err := svc.Submit(ctx); err != nil {
		t.Fatalf("Submit failed: %v", err)
	}

	if len(publisher.Events) != 2 {
		t.Fatalf("Expected 2 audit events, got %d", len(publisher.Events))
	}
	if publisher.Events[0].Type != events.EventTypeOrderCreated {
		t.Errorf("Expected order.created first, got %s", publisher.Events[0].Type)
	}
	if publisher.Events[1].Type != events.EventTypeOrderUpdated {
		t.Errorf("Expected order.updated second, got %s", publisher.Events[1].Type)
	}
	if publisher.Events[1].OrderID != "1" {
		t.Errorf("Expected update keyed by order 1, got %q", publisher.Events[1].OrderID)
	}
	if got := publisher.Events[0].Metadata["session_id"]; got != "session-a" {
		t.Errorf("Expected acting session in metadata, got %q", got)
	}
}

func TestDeleteAudits(t *testing.T) {
	gateway := clients.NewMockOrderGateway(models.Order{ID: "9", CustomerID: "u1"})
	publisher := events.NewMockPublisher()
	svc := newOrderService(gateway, publisher)

	ctx := session.WithID(context.Background(), "session-a")
	if err := svc.DeleteOrder(ctx, "9"); err != nil {
		t.Fatalf("DeleteOrder failed: %v", err)
	}

	if len(publisher.Events) != 1 || publisher.Events[0].Type != events.EventTypeOrderDeleted {
		t.Fatalf("Expected one order.deleted event, got %+v", publisher.Events)
	}
}

func TestAuditFailureIsNotFatal(t *testing.T) {
	gateway := clients.NewMockOrderGateway(models.Order{ID: "9", CustomerID: "u1"})
	svc := newOrderService(gateway, failingPublisher{})

	ctx := session.WithID(context.Background(), "session-a")

	svc.OpenCreate(ctx)
	svc.SetCustomer(ctx, "u2")
	svc.AddLine(ctx)
	if _, err := svc.Submit(ctx); err != nil {
		t.Errorf("Submit must succeed despite audit failure, got %v", err)
	}

	if err := svc.DeleteOrder(ctx, "9"); err != nil {
		t.Errorf("Delete must succeed despite audit failure, got %v", err)
	}
	if len(gateway.Deleted) != 1 {
		t.Errorf("Expected delete to reach the gateway, got %v", gateway.Deleted)
	}
}

func TestDropWorkspaceDiscardsState(t *testing.T) {
	gateway := clients.NewMockOrderGateway()
	svc := newOrderService(gateway, events.NewMockPublisher())

	ctx := session.WithID(context.Background(), "session-a")
	svc.OpenCreate(ctx)
	svc.AddLine(ctx)

	svc.DropWorkspace("session-a")

	if mode := svc.DraftView(ctx).Mode; mode != draft.ModeClosed {
		t.Errorf("Expected a fresh workspace after drop, got mode %s", mode)
	}
}
