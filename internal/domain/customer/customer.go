package customer

import (
	"context"
	"errors"
	"time"
)

var ErrNotFound = errors.New("customer: not found")

// Customer mirrors the identity provider's view; the token's subject is the id.
type Customer struct {
	ID        string
	Phone     string
	Name      string
	CreatedAt time.Time
}

type Repository interface {
	ByID(ctx context.Context, id string) (*Customer, error)
	Save(ctx context.Context, c *Customer) error
}
