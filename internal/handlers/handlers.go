package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"gatepass/internal/cache"
	apperrors "gatepass/internal/errors"
	"gatepass/internal/external"
	"gatepass/internal/logger"
	"gatepass/internal/service"
	"gatepass/internal/storage"
)

// Handlers bundles the HTTP layer dependencies. cacheClient and storageClient
// may be nil when the corresponding backend is not configured.
type Handlers struct {
	services      *service.Services
	cacheClient   *cache.RedisClient
	storageClient *storage.S3Client
	payment       *external.PaymentClient
}

func NewHandlers(services *service.Services, cacheClient *cache.RedisClient,
	storageClient *storage.S3Client, payment *external.PaymentClient) *Handlers {
	return &Handlers{
		services:      services,
		cacheClient:   cacheClient,
		storageClient: storageClient,
		payment:       payment,
	}
}

// userID returns the authenticated user id set by the identity middleware
func userID(c *gin.Context) string {
	return c.GetString("user_id")
}

// respondError translates domain errors into HTTP status codes
func respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, apperrors.ErrEventNotFound),
		errors.Is(err, apperrors.ErrTicketNotFound),
		errors.Is(err, apperrors.ErrPassNotFound),
		errors.Is(err, apperrors.ErrEntryNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, apperrors.ErrUnauthorized):
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
	case errors.Is(err, apperrors.ErrEventCancelled),
		errors.Is(err, apperrors.ErrAlreadyScanned),
		errors.Is(err, apperrors.ErrTicketRefunded),
		errors.Is(err, apperrors.ErrPassSoldOut),
		errors.Is(err, apperrors.ErrNoActiveOffer):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, apperrors.ErrInvalidSignature):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		logger.WithContext(c.Request.Context()).Error("Request failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
	}
}
