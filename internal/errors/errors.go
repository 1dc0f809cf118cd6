// Package errors defines the domain error taxonomy. Services return these
// sentinels (possibly wrapped); HTTP handlers translate them to status codes.
package errors

import "errors"

var (
	ErrEventNotFound  = errors.New("event not found")
	ErrTicketNotFound = errors.New("ticket not found")
	ErrPassNotFound   = errors.New("pass not found")
	ErrEntryNotFound  = errors.New("waiting list entry not found")

	ErrUnauthorized   = errors.New("user is not authorized")
	ErrEventCancelled = errors.New("event is cancelled")

	ErrAlreadyScanned   = errors.New("ticket already scanned")
	ErrTicketRefunded   = errors.New("ticket has been refunded")
	ErrPassSoldOut      = errors.New("pass is sold out")
	ErrNoActiveOffer    = errors.New("no active ticket offer")
	ErrInvalidSignature = errors.New("invalid webhook signature")
)
