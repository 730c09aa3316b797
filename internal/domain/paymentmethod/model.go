package paymentmethod

import (
	"context"
	"time"
)

// PaymentMethod is the read-only view the ledger needs of a payer's stored
// card or bank account. Methods are managed outside the ledger.
type PaymentMethod struct {
	ID         string    `db:"id" json:"id"`
	OwnerID    int64     `db:"owner_id" json:"owner_id"`
	MethodType string    `db:"method_type" json:"method_type"`
	IsActive   bool      `db:"is_active" json:"is_active"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
	UpdatedAt  time.Time `db:"updated_at" json:"updated_at"`
}

// Repository looks payment methods up by id
type Repository interface {
	Get(ctx context.Context, id string) (*PaymentMethod, error)
}
