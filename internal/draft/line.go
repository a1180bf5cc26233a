// Package draft implements the order-composition workflow: a mutable draft
// order whose lines are edited one field at a time, with unit prices
// resolved from the product catalog and the total always derived fresh from
// the lines.
package draft

import (
	"strconv"

	"github.com/google/uuid"

	"github.com/comercio-labs/admin-console-service/internal/models"
)

// Field names an editable line attribute.
type Field string

const (
	FieldProductID Field = "productId"
	FieldQuantity  Field = "quantity"
	FieldUnitPrice Field = "unitPrice"
)

// Line is one entry of a draft order. ID is a console-local identity that
// stays stable while the line moves around the slice; price patches from
// in-flight catalog lookups are keyed by it, never by position.
type Line struct {
	ID        string  `json:"lineId"`
	ProductID string  `json:"idProducto"`
	Quantity  int     `json:"cantidad"`
	UnitPrice float64 `json:"precioUnitario"`
}

// NewLine returns a blank line: empty product, quantity 1, price 0.
func NewLine() Line {
	return Line{ID: uuid.NewString(), Quantity: 1}
}

func (l Line) Subtotal() float64 {
	return float64(l.Quantity) * l.UnitPrice
}

// AddLine appends a blank line. Like every editor operation it returns a
// fresh slice and leaves the input untouched, so observers of the previous
// state never see mutation.
func AddLine(lines []Line) []Line {
	next := make([]Line, 0, len(lines)+1)
	next = append(next, lines...)
	return append(next, NewLine())
}

// RemoveLine drops the line at index, shifting later lines down.
func RemoveLine(lines []Line, index int) []Line {
	next := make([]Line, 0, len(lines)-1)
	next = append(next, lines[:index]...)
	return append(next, lines[index+1:]...)
}

// SetField replaces one field of one line. Values arrive as the raw strings
// typed into the form; numeric fields coerce leniently, with anything
// unparseable treated as zero rather than rejected.
func SetField(lines []Line, index int, field Field, value string) []Line {
	next := make([]Line, len(lines))
	copy(next, lines)
	switch field {
	case FieldProductID:
		next[index].ProductID = value
	case FieldQuantity:
		next[index].Quantity = coerceInt(value)
	case FieldUnitPrice:
		next[index].UnitPrice = coerceFloat(value)
	}
	return next
}

func coerceInt(value string) int {
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0
	}
	return n
}

func coerceFloat(value string) float64 {
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0
	}
	return f
}

func toOrderLines(lines []Line) []models.OrderLine {
	out := make([]models.OrderLine, len(lines))
	for i, l := range lines {
		out[i] = models.OrderLine{
			ProductID: l.ProductID,
			Quantity:  l.Quantity,
			UnitPrice: l.UnitPrice,
		}
	}
	return out
}

func fromOrderLines(lines []models.OrderLine) []Line {
	out := make([]Line, len(lines))
	for i, l := range lines {
		out[i] = Line{
			ID:        uuid.NewString(),
			ProductID: l.ProductID,
			Quantity:  l.Quantity,
			UnitPrice: l.UnitPrice,
		}
	}
	return out
}
