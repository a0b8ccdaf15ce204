package entity

import (
	"github.com/shopspring/decimal"
	"time"
)

// TimestampLayout is how submission times appear in the order log and
// in the generated document.
const TimestampLayout = "2006-01-02 15:04:05"

type Customer struct {
	Nombre     string `json:"nombre"`
	Cedula     string `json:"cedula"`
	Telefono   string `json:"telefono"`
	Correo     string `json:"correo"`
	Comentario string `json:"comentario"`
}

// LineItem is one cart row. UnitPrice is resolved when the item is added
// and never recomputed.
type LineItem struct {
	Product     string          `json:"product"`
	Description string          `json:"description"`
	Quantity    int             `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	Subtotal    decimal.Decimal `json:"subtotal"`
}

type Order struct {
	ID          string          `json:"id"`
	Customer    Customer        `json:"customer"`
	Items       []LineItem      `json:"items"`
	SubmittedAt time.Time       `json:"submitted_at"`
	Total       decimal.Decimal `json:"total"`
}

// OrderLogEntry is the flattened summary persisted per order. Line items
// are only kept in the generated document.
type OrderLogEntry struct {
	Fecha      string          `json:"fecha"`
	Nombre     string          `json:"nombre"`
	Cedula     string          `json:"cedula"`
	Telefono   string          `json:"telefono"`
	Correo     string          `json:"correo"`
	Comentario string          `json:"comentario"`
	Total      decimal.Decimal `json:"total"`
}

func (o *Order) LogEntry() OrderLogEntry {
	return OrderLogEntry{
		Fecha:      o.SubmittedAt.Format(TimestampLayout),
		Nombre:     o.Customer.Nombre,
		Cedula:     o.Customer.Cedula,
		Telefono:   o.Customer.Telefono,
		Correo:     o.Customer.Correo,
		Comentario: o.Customer.Comentario,
		Total:      o.Total,
	}
}

/*
Mysql Table

CREATE TABLE order_log (
	id INT AUTO_INCREMENT PRIMARY KEY,
	order_id VARCHAR(36) NOT NULL UNIQUE,
	fecha DATETIME NOT NULL,
	nombre VARCHAR(255) NOT NULL,
	cedula VARCHAR(32) NOT NULL,
	telefono VARCHAR(64) NOT NULL,
	correo VARCHAR(255) NOT NULL,
	comentario TEXT NOT NULL,
	total DECIMAL(12,2) NOT NULL
);
*/
