package entity

import (
	"time"

	"retailcore/internal/core/id"
)

// Customer buys from the shop.
type Customer struct {
	ID           id.ID     `db:"id" json:"id"`
	Name         string    `db:"name" json:"name"`
	ContactInfo  *string   `db:"contact_info" json:"contactInfo,omitempty"`
	CustomerType string    `db:"customer_type" json:"customerType"`
	CreatedAt    time.Time `db:"created_at" json:"createdAt"`
}

// Supplier sells stock to the shop.
type Supplier struct {
	ID        id.ID     `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	Phone     *string   `db:"phone" json:"phone,omitempty"`
	Email     *string   `db:"email" json:"email,omitempty"`
	Address   *string   `db:"address" json:"address,omitempty"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
}
