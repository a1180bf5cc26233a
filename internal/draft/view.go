package draft

import "github.com/comercio-labs/admin-console-service/internal/models"

// LineView is a line plus its derived subtotal.
type LineView struct {
	Line
	Subtotal float64 `json:"subtotal"`
}

// View is the form snapshot handed to the HTTP layer. Total and subtotals
// are computed at snapshot time.
type View struct {
	Mode       Mode               `json:"mode"`
	OrderID    string             `json:"idPedido,omitempty"`
	CustomerID string             `json:"idUsuario,omitempty"`
	Status     models.OrderStatus `json:"estado,omitempty"`
	Lines      []LineView         `json:"detalles"`
	Total      float64            `json:"total"`
	CanSubmit  bool               `json:"canSubmit"`
	Order      *models.Order      `json:"order,omitempty"`
}

func (c *Controller) viewLocked() View {
	v := View{
		Mode:      c.mode,
		Lines:     []LineView{},
		CanSubmit: c.canSubmitLocked(),
	}

	switch c.mode {
	case ModeViewing:
		v.Order = c.viewing
	case ModeCreating, ModeEditing:
		v.OrderID = c.orderID
		v.CustomerID = c.customerID
		v.Status = c.status
		for _, l := range c.lines {
			v.Lines = append(v.Lines, LineView{Line: l, Subtotal: l.Subtotal()})
		}
		v.Total = Total(c.lines)
	}
	return v
}
