package draft

import (
	"testing"

	"github.com/comercio-labs/admin-console-service/internal/models"
)

func TestNextOrderID(t *testing.T) {
	tests := []struct {
		name   string
		ids    []string
		expect string
	}{
		{"empty collection", nil, "1"},
		{"numeric ids", []string{"3", "1", "7"}, "8"},
		{"single id", []string{"41"}, "42"},
		{"non-numeric ids ignored", []string{"3", "ORD-X", "7", ""}, "8"},
		{"all non-numeric", []string{"a", "b"}, "1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			orders := make([]models.Order, len(tt.ids))
			for i, id := range tt.ids {
				orders[i] = models.Order{ID: id}
			}

			if got := NextOrderID(orders); got != tt.expect {
				t.Errorf("NextOrderID = %q, want %q", got, tt.expect)
			}
		})
	}
}
