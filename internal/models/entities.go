package models

import (
	"time"
)

// Waiting list entry statuses
const (
	WaitingListWaiting   = "waiting"
	WaitingListOffered   = "offered"
	WaitingListPurchased = "purchased"
	WaitingListExpired   = "expired"
)

// Ticket statuses
const (
	TicketValid    = "valid"
	TicketUsed     = "used"
	TicketRefunded = "refunded"
)

// RoleSeller allows a user to create and manage events
const RoleSeller = "seller"

// User represents a profile mirrored from the identity provider
type User struct {
	UserID    string    `json:"user_id" db:"user_id"`
	Email     string    `json:"email" db:"email"`
	Name      string    `json:"name" db:"name"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// Event represents a sellable event
type Event struct {
	ID             string    `json:"id" db:"id"`
	Name           string    `json:"name" db:"name"`
	Description    string    `json:"description" db:"description"`
	Location       string    `json:"location" db:"location"`
	EventDate      time.Time `json:"event_date" db:"event_date"`
	Price          int64     `json:"price" db:"price"` // minor currency units
	TotalTickets   int       `json:"total_tickets" db:"total_tickets"`
	UserID         string    `json:"user_id" db:"user_id"` // owner
	IsCancelled    bool      `json:"is_cancelled" db:"is_cancelled"`
	ImageStorageID *string   `json:"image_storage_id" db:"image_storage_id"`
	CreatedAt      time.Time `json:"created_at" db:"created_at"`
	UpdatedAt      time.Time `json:"updated_at" db:"updated_at"`
}

// Pass represents a ticket tier for an event
type Pass struct {
	ID            string    `json:"id" db:"id"`
	EventID       string    `json:"event_id" db:"event_id"`
	Name          string    `json:"name" db:"name"`
	Description   string    `json:"description" db:"description"`
	Price         int64     `json:"price" db:"price"`
	TotalQuantity int       `json:"total_quantity" db:"total_quantity"`
	SoldQuantity  int       `json:"sold_quantity" db:"sold_quantity"`
	Benefits      []string  `json:"benefits" db:"benefits"`
	CreatedAt     time.Time `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time `json:"updated_at" db:"updated_at"`
}

// WaitingListEntry tracks a user's place in the admission queue for an event.
// Entries are historical records and are never deleted; status captures the
// lifecycle: waiting -> offered -> purchased | expired.
type WaitingListEntry struct {
	ID             string     `json:"id" db:"id"`
	EventID        string     `json:"event_id" db:"event_id"`
	UserID         string     `json:"user_id" db:"user_id"`
	Status         string     `json:"status" db:"status"`
	OfferExpiresAt *time.Time `json:"offer_expires_at,omitempty" db:"offer_expires_at"`
	PassID         *string    `json:"pass_id,omitempty" db:"pass_id"`
	CreatedAt      time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at" db:"updated_at"`
}

// Ticket represents an issued ticket. All tickets sharing a payment intent id
// come from exactly one finalization call.
type Ticket struct {
	ID              string     `json:"id" db:"id"`
	EventID         string     `json:"event_id" db:"event_id"`
	UserID          string     `json:"user_id" db:"user_id"`
	PassID          *string    `json:"pass_id,omitempty" db:"pass_id"`
	Status          string     `json:"status" db:"status"`
	PaymentIntentID string     `json:"payment_intent_id" db:"payment_intent_id"`
	Amount          int64      `json:"amount" db:"amount"` // per-unit, minor currency units
	PurchasedAt     time.Time  `json:"purchased_at" db:"purchased_at"`
	ScannedAt       *time.Time `json:"scanned_at,omitempty" db:"scanned_at"`
}
