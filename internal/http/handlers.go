package http

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/sujalbistaa/petitions/internal/auth"
	"github.com/sujalbistaa/petitions/internal/logging"
	"github.com/sujalbistaa/petitions/internal/store"
	"github.com/sujalbistaa/petitions/internal/ws"
)

// --- Handlers ---
type Env struct {
	Store    *store.Store
	Hub      *ws.Hub
	Tokens   *auth.Tokens
	Log      *zap.Logger
	PageSize int
}

func (e *Env) Healthz(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()
	if err := e.Store.Ping(ctx); err != nil {
		e.Log.Error("health check failed", zap.Error(err))
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// parseID reads a positive integer path parameter.
func parseID(c *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 32)
	if err != nil || id == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid " + name})
		return 0, false
	}
	return uint(id), true
}

// storeError maps store errors to responses. Anything unrecognised is logged
// and reported as a 500.
func (e *Env) storeError(c *gin.Context, err error, action string) {
	switch {
	case errors.Is(err, store.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Not Found"})
	case errors.Is(err, store.ErrTierNotInPetition):
		c.JSON(http.StatusNotFound, gin.H{"error": "Support tier does not exist for this petition"})
	case errors.Is(err, store.ErrUnknownCategory):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Unknown category"})
	case errors.Is(err, store.ErrTitleTaken):
		c.JSON(http.StatusForbidden, gin.H{"error": "Title already in use"})
	case errors.Is(err, store.ErrHasSupporters):
		c.JSON(http.StatusForbidden, gin.H{"error": "Cannot modify a record that already has supporters"})
	case errors.Is(err, store.ErrTierLimit):
		c.JSON(http.StatusForbidden, gin.H{"error": "A petition may have at most 3 support tiers"})
	case errors.Is(err, store.ErrLastTier):
		c.JSON(http.StatusForbidden, gin.H{"error": "Cannot remove the only support tier of a petition"})
	case errors.Is(err, store.ErrAlreadySupported):
		c.JSON(http.StatusForbidden, gin.H{"error": "Already supporting this petition"})
	default:
		e.Log.Error("store failure",
			zap.String("action", action),
			zap.String("request_id", logging.RequestID(c)),
			zap.Error(err),
		)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal Server Error"})
	}
}

// loadOwnedPetition aborts with 404/403 unless the caller owns the petition.
func (e *Env) loadOwnedPetition(c *gin.Context) (uint, bool) {
	id, ok := parseID(c, "id")
	if !ok {
		return 0, false
	}
	p, err := e.Store.FindPetition(c.Request.Context(), id)
	if err != nil {
		e.storeError(c, err, "find petition")
		return 0, false
	}
	if p.OwnerID != currentUserID(c) {
		c.JSON(http.StatusForbidden, gin.H{"error": "Only the owner of a petition may change it"})
		return 0, false
	}
	return id, true
}

func (e *Env) publish(eventType string, data any) {
	if err := e.Hub.Publish(eventType, data); err != nil {
		e.Log.Warn("failed to publish event", zap.String("type", eventType), zap.Error(err))
	}
}
