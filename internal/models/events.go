package models

import "time"

// NATS subjects
const (
	EventWaitingListJoined  = "waitinglist.joined"
	EventOfferGranted       = "waitinglist.offered"
	EventOfferExpired       = "waitinglist.expired"
	EventTicketsIssued      = "ticket.issued"
	EventTicketScanned      = "ticket.scanned"
	EventPaymentCaptured    = "payment.captured"
	EventEventCancelled     = "event.cancelled"
)

// WaitingListJoinedEvent is published when a user lands in the waiting set
type WaitingListJoinedEvent struct {
	EntryID   string    `json:"entry_id"`
	EventID   string    `json:"event_id"`
	UserID    string    `json:"user_id"`
	Timestamp time.Time `json:"timestamp"`
}

// OfferGrantedEvent is published when a timed purchase offer is created
type OfferGrantedEvent struct {
	EntryID   string    `json:"entry_id"`
	EventID   string    `json:"event_id"`
	UserID    string    `json:"user_id"`
	ExpiresAt time.Time `json:"expires_at"`
	Timestamp time.Time `json:"timestamp"`
}

// OfferExpiredEvent is published when an unconverted offer is reclaimed
type OfferExpiredEvent struct {
	EntryID   string    `json:"entry_id"`
	EventID   string    `json:"event_id"`
	UserID    string    `json:"user_id"`
	Timestamp time.Time `json:"timestamp"`
}

// TicketsIssuedEvent is published after a finalization creates tickets
type TicketsIssuedEvent struct {
	EventID         string    `json:"event_id"`
	UserID          string    `json:"user_id"`
	PaymentIntentID string    `json:"payment_intent_id"`
	TicketIDs       []string  `json:"ticket_ids"`
	Timestamp       time.Time `json:"timestamp"`
}

// TicketScannedEvent is published when a ticket is marked used
type TicketScannedEvent struct {
	TicketID  string    `json:"ticket_id"`
	EventID   string    `json:"event_id"`
	ScannerID string    `json:"scanner_id"`
	Timestamp time.Time `json:"timestamp"`
}

// PaymentCapturedEvent is published after a verified gateway webhook
type PaymentCapturedEvent struct {
	PaymentIntentID string    `json:"payment_intent_id"`
	EventID         string    `json:"event_id"`
	UserID          string    `json:"user_id"`
	Amount          int64     `json:"amount"`
	Timestamp       time.Time `json:"timestamp"`
}

// EventCancelledEvent is published when an owner cancels an event
type EventCancelledEvent struct {
	EventID   string    `json:"event_id"`
	OwnerID   string    `json:"owner_id"`
	Timestamp time.Time `json:"timestamp"`
}
