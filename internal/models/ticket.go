package models

import (
	"time"

	"github.com/uptrace/bun"
)

// Ticket is one ticket sale reported by the provider. A row is written once
// at ingestion and never updated; `number` is the provider-assigned identity
// and is unique across all tickets.
type Ticket struct {
	bun.BaseModel `bun:"table:tickets"`

	ID                 int64     `bun:"id,pk,autoincrement" json:"id"`
	Number             string    `bun:"number,unique,notnull" json:"number"`
	Type               string    `bun:"type" json:"type"`
	Title              string    `bun:"title" json:"title"`
	Category           string    `bun:"category" json:"category"`
	EventID            int64     `bun:"event_id" json:"event_id"`
	Event              string    `bun:"event" json:"event"`
	CancellationReason string    `bun:"cancellation_reason,nullzero" json:"cancellation_reason,omitempty"`
	GeneratedAt        time.Time `bun:"generated_at" json:"generated_at"`
	Promoter           string    `bun:"promoter" json:"promoter"`
	PriceAmount        float64   `bun:"price_amount" json:"price_amount"`
	PriceCurrency      string    `bun:"price_currency" json:"price_currency"`
	BuyerRole          string    `bun:"buyer_role" json:"buyer_role"`
	BuyerFirstName     string    `bun:"buyer_first_name" json:"buyer_first_name"`
	BuyerLastName      string    `bun:"buyer_last_name" json:"buyer_last_name"`
	BuyerPostcode      string    `bun:"buyer_postcode" json:"buyer_postcode"`
}
