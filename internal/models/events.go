package models

// Event types carried in the event-type message header
const (
	EventTypePurchaseCreated = "purchase.created"
)

// Message header keys
const (
	HeaderEventID     = "event-id"
	HeaderEventType   = "event-type"
	HeaderContentType = "content-type"
)

// PurchaseEvent is the wire payload published to the purchases topic.
// EventID is the idempotency key, generated by the producer and never by
// the caller. UserID doubles as the partition key so all events for one
// user land on the same partition in publish order. Timestamp is the
// event-creation instant in RFC 3339 text. Immutable once published.
type PurchaseEvent struct {
	Username    string  `json:"username"`
	UserID      string  `json:"userId"`
	Price       float64 `json:"price"`
	ProductName string  `json:"productName,omitempty"`
	Description string  `json:"description,omitempty"`
	Timestamp   string  `json:"timestamp"`
	EventID     string  `json:"eventId"`
}
