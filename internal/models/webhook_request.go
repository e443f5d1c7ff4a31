package models

import (
	"time"

	"github.com/uptrace/bun"
)

// WebhookRequest is the audit trail: exactly one row per delivery attempt,
// success or failure. The raw body is stored verbatim so a record can always
// be inspected later; a few fields are denormalized so the listing does not
// have to re-parse payloads.
type WebhookRequest struct {
	bun.BaseModel `bun:"table:webhook_requests"`

	ID           int64     `bun:"id,pk,autoincrement" json:"id"`
	Timestamp    time.Time `bun:"timestamp,notnull" json:"timestamp"`
	RawPayload   string    `bun:"raw_payload" json:"-"`
	HTTPStatus   int       `bun:"http_status,notnull" json:"http_status"`
	ErrorMessage *string   `bun:"error_message" json:"error_message,omitempty"`

	// Snapshot of the successful payload, empty on rejections.
	BuyerFirstName *string  `bun:"buyer_first_name" json:"buyer_first_name,omitempty"`
	BuyerLastName  *string  `bun:"buyer_last_name" json:"buyer_last_name,omitempty"`
	EventName      *string  `bun:"event_name" json:"event_name,omitempty"`
	PriceAmount    *float64 `bun:"price_amount" json:"price_amount,omitempty"`
}
