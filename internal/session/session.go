package session

import (
	"context"
	"errors"
	"order-intake-service/internal/entity"
)

var ErrSessionNotFound = errors.New("cart session not found")

// Store holds the line items of each customer session. A session lives
// until its order is submitted or it is abandoned.
//
// Cart updates read the session and save it back without a per-session
// lock; two concurrent changes to the same cart can lose one of them.
type Store interface {
	Create(ctx context.Context) (string, error)
	Load(ctx context.Context, id string) ([]entity.LineItem, error)
	Save(ctx context.Context, id string, items []entity.LineItem) error
	Delete(ctx context.Context, id string) error
}
