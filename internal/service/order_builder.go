package service

import (
	"github.com/google/uuid"
	"order-intake-service/internal/entity"
	"strings"
	"time"
)

// BuildOrder validates customer and cart and freezes them into an Order.
// Mandatory fields are checked in a fixed order: nombre, cedula, telefono,
// correo. The cart is only checked once all fields are present.
func BuildOrder(customer entity.Customer, cart *Cart, now time.Time) (*entity.Order, error) {
	customer = trimCustomer(customer)

	required := []struct {
		name  string
		value string
	}{
		{"nombre", customer.Nombre},
		{"cedula", customer.Cedula},
		{"telefono", customer.Telefono},
		{"correo", customer.Correo},
	}
	for _, field := range required {
		if field.value == "" {
			return nil, &MissingFieldError{Field: field.name}
		}
	}

	if cart == nil || cart.Len() == 0 {
		return nil, ErrEmptyCart
	}

	items := cart.Items()
	return &entity.Order{
		ID:          uuid.NewString(),
		Customer:    customer,
		Items:       items,
		SubmittedAt: now,
		Total:       SumSubtotals(items),
	}, nil
}

func trimCustomer(c entity.Customer) entity.Customer {
	return entity.Customer{
		Nombre:     strings.TrimSpace(c.Nombre),
		Cedula:     strings.TrimSpace(c.Cedula),
		Telefono:   strings.TrimSpace(c.Telefono),
		Correo:     strings.TrimSpace(c.Correo),
		Comentario: strings.TrimSpace(c.Comentario),
	}
}
