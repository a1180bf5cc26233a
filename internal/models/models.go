// Package models holds the wire types shared with the commerce backend.
// JSON tags follow the backend's field names (idPedido, idUsuario, ...);
// the backend owns this contract and the console never renames fields on
// the wire.
package models

import "time"

// OrderStatus is the backend's order state enum.
type OrderStatus string

const (
	OrderStatusActive    OrderStatus = "activo"
	OrderStatusCancelled OrderStatus = "cancelado"
)

// OrderLine is one product-quantity-price entry within an order.
type OrderLine struct {
	ProductID string  `json:"idProducto"`
	Quantity  int     `json:"cantidad"`
	UnitPrice float64 `json:"precioUnitario"`
}

// Subtotal is always derived, never stored.
func (l OrderLine) Subtotal() float64 {
	return float64(l.Quantity) * l.UnitPrice
}

// Order is the backend's persisted order. After any round trip the server
// copy is authoritative and replaces the local one wholesale.
type Order struct {
	ID         string      `json:"idPedido"`
	CustomerID string      `json:"idUsuario"`
	Status     OrderStatus `json:"estado"`
	Lines      []OrderLine `json:"detalles"`
	Total      float64     `json:"total"`
	CreatedAt  time.Time   `json:"createdAt"`
}

// Product as served by GET /api/productos/{id}. The order workflow only
// reads Price; the remaining fields exist for the product management pages.
type Product struct {
	ID          string  `json:"idProducto"`
	Name        string  `json:"nombre,omitempty"`
	Description string  `json:"descripcion,omitempty"`
	Price       float64 `json:"precio"`
	Stock       int     `json:"stock,omitempty"`
}

// Credentials for POST /api/auth/login.
type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// User as exchanged with the auth endpoints. Password is only ever set on
// registration requests.
type User struct {
	ID       string `json:"id,omitempty"`
	Name     string `json:"nombre,omitempty"`
	Email    string `json:"email"`
	Role     string `json:"rol,omitempty"`
	Password string `json:"password,omitempty"`
}

// LoginResponse is the backend's answer to a successful login.
type LoginResponse struct {
	Token string `json:"token"`
	User  User   `json:"user"`
}
