package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/sujalbistaa/petitions/internal/models"
	"github.com/sujalbistaa/petitions/internal/ws"
)

type AddSupporterInput struct {
	SupportTierID uint    `json:"supportTierId" binding:"required"`
	Message       *string `json:"message"`
}

// ListSupporters returns a petition's supporters, newest first.
func (e *Env) ListSupporters(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	ctx := c.Request.Context()
	if _, err := e.Store.FindPetition(ctx, id); err != nil {
		e.storeError(c, err, "find petition")
		return
	}
	supporters, err := e.Store.FindSupportersByPetition(ctx, id)
	if err != nil {
		e.storeError(c, err, "list supporters")
		return
	}
	c.JSON(http.StatusOK, supporters)
}

func (e *Env) AddSupporter(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var input AddSupporterInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input: " + err.Error()})
		return
	}

	ctx := c.Request.Context()
	userID := currentUserID(c)
	p, err := e.Store.FindPetition(ctx, id)
	if err != nil {
		e.storeError(c, err, "find petition")
		return
	}
	if p.OwnerID == userID {
		c.JSON(http.StatusForbidden, gin.H{"error": "Cannot support your own petition"})
		return
	}

	supporter := &models.Supporter{
		PetitionID:    id,
		SupportTierID: input.SupportTierID,
		UserID:        userID,
		Message:       input.Message,
	}
	if err := e.Store.AddSupporter(ctx, supporter); err != nil {
		e.storeError(c, err, "add supporter")
		return
	}

	e.publish(ws.EventSupporterAdded, gin.H{
		"petitionId":    id,
		"supportTierId": supporter.SupportTierID,
		"userId":        userID,
	})
	c.JSON(http.StatusCreated, supporter)
}
