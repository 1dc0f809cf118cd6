package models

import "time"

// CreateEventRequest - payload for creating an event
type CreateEventRequest struct {
	Name         string    `json:"name" binding:"required"`
	Description  string    `json:"description"`
	Location     string    `json:"location" binding:"required"`
	EventDate    time.Time `json:"event_date" binding:"required"`
	Price        int64     `json:"price"`
	TotalTickets int       `json:"total_tickets" binding:"required,min=1"`
}

// UpdateEventRequest - payload for editing an event (owner only)
type UpdateEventRequest struct {
	Name         string    `json:"name" binding:"required"`
	Description  string    `json:"description"`
	Location     string    `json:"location" binding:"required"`
	EventDate    time.Time `json:"event_date" binding:"required"`
	Price        int64     `json:"price"`
	TotalTickets int       `json:"total_tickets" binding:"required,min=1"`
}

// CreateEventResponse - response when an event is created
type CreateEventResponse struct {
	ID string `json:"id"`
}

// AvailabilityResponse - remaining capacity for an event.
// remaining_tickets = max(0, total - purchased - active offers), never negative.
type AvailabilityResponse struct {
	IsSoldOut        bool `json:"is_sold_out"`
	TotalTickets     int  `json:"total_tickets"`
	PurchasedCount   int  `json:"purchased_count"`
	ActiveOffers     int  `json:"active_offers"`
	RemainingTickets int  `json:"remaining_tickets"`
}

// JoinResponse - result of a waiting-list join
type JoinResponse struct {
	Success bool   `json:"success"`
	Status  string `json:"status"`
	Message string `json:"message"`
}

// CreatePassRequest - payload for creating a pass (ticket tier)
type CreatePassRequest struct {
	EventID       string   `json:"event_id" binding:"required"`
	Name          string   `json:"name" binding:"required"`
	Description   string   `json:"description"`
	Price         int64    `json:"price"`
	TotalQuantity int      `json:"total_quantity" binding:"required,min=1"`
	Benefits      []string `json:"benefits"`
}

// UpdatePassRequest - payload for editing a pass
type UpdatePassRequest struct {
	Name          string   `json:"name" binding:"required"`
	Description   string   `json:"description"`
	Price         int64    `json:"price"`
	TotalQuantity int      `json:"total_quantity" binding:"required,min=1"`
	Benefits      []string `json:"benefits"`
}

// ScanResponse - progress summary after scanning one ticket, covering every
// valid or used ticket the same holder has for the event
type ScanResponse struct {
	Success        bool `json:"success"`
	ScannedCount   int  `json:"scanned_count"`
	TotalCount     int  `json:"total_count"`
	RemainingCount int  `json:"remaining_count"`
	AllScanned     bool `json:"all_scanned"`
}

// TicketStatusResponse - scan state of a single ticket plus booking progress
type TicketStatusResponse struct {
	Status       string     `json:"status"`
	ScannedAt    *time.Time `json:"scanned_at,omitempty"`
	IsScanned    bool       `json:"is_scanned"`
	ScannedCount int        `json:"scanned_count"`
	TotalCount   int        `json:"total_count"`
}

// UserTicket - a ticket joined with its event details
type UserTicket struct {
	Ticket
	EventName     string    `json:"event_name"`
	EventDate     time.Time `json:"event_date"`
	EventLocation string    `json:"event_location"`
}

// EventTicket - a ticket joined with its holder's profile, for the owner's
// scan roster
type EventTicket struct {
	Ticket
	HolderName  string `json:"holder_name"`
	HolderEmail string `json:"holder_email"`
}

// CreateOrderRequest - payload for creating a payment-gateway order
type CreateOrderRequest struct {
	EventID  string  `json:"event_id" binding:"required"`
	Quantity int     `json:"quantity"`
	PassID   *string `json:"pass_id,omitempty"`
}

// CreateOrderResponse - gateway order handle returned to the client
type CreateOrderResponse struct {
	OrderID  string `json:"order_id"`
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
}

// UploadResponse - presigned upload slot for an event image
type UploadResponse struct {
	StorageID string `json:"storage_id"`
	UploadURL string `json:"upload_url"`
}

// StorageURLResponse - resolved URL for an opaque storage id
type StorageURLResponse struct {
	URL string `json:"url"`
}

// SetEventImageRequest - attach or replace an event image
type SetEventImageRequest struct {
	StorageID *string `json:"storage_id"`
}
