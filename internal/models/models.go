package models

import "time"

// PurchaseIntent is the caller input accepted by the public API. It is
// transient: once converted into a PurchaseEvent it is discarded.
type PurchaseIntent struct {
	Username    string  `json:"username" binding:"required"`
	UserID      string  `json:"userId" binding:"required"`
	Price       float64 `json:"price" binding:"required,gt=0"`
	ProductName string  `json:"productName,omitempty"`
	Description string  `json:"description,omitempty"`
}

// Purchase is the persisted record. ID equals the eventId of the event
// that produced it; at most one Purchase exists per eventId.
type Purchase struct {
	ID          string    `db:"id" json:"id"`
	UserID      string    `db:"user_id" json:"userId"`
	Username    string    `db:"username" json:"username"`
	Price       float64   `db:"price" json:"price"`
	Timestamp   time.Time `db:"ts" json:"timestamp"`
	ProductName *string   `db:"product_name" json:"productName,omitempty"`
	Description *string   `db:"description" json:"description,omitempty"`
	CreatedAt   time.Time `db:"created_at" json:"createdAt"`
}

// BuyResponse is returned by the public API after a submission.
type BuyResponse struct {
	Success    bool   `json:"success"`
	Message    string `json:"message"`
	PurchaseID string `json:"purchaseId,omitempty"`
}

// GetBuysResponse is the paginated read-path response.
type GetBuysResponse struct {
	Purchases []Purchase `json:"purchases"`
	Total     int64      `json:"total"`
	UserID    string     `json:"userId"`
}
