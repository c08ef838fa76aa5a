package http

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/sujalbistaa/petitions/internal/models"
	"github.com/sujalbistaa/petitions/internal/store"
)

type EditSupportTierInput struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
	Cost        *int    `json:"cost"`
}

func (e *Env) AddSupportTier(c *gin.Context) {
	id, ok := e.loadOwnedPetition(c)
	if !ok {
		return
	}
	var input SupportTierInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input: " + err.Error()})
		return
	}
	if *input.Cost < 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Support tier cost must not be negative"})
		return
	}

	tier := &models.SupportTier{PetitionID: id, Title: input.Title, Description: input.Description, Cost: *input.Cost}
	if err := e.Store.AddSupportTier(c.Request.Context(), tier); err != nil {
		e.storeError(c, err, "add support tier")
		return
	}
	c.JSON(http.StatusCreated, tier)
}

func (e *Env) EditSupportTier(c *gin.Context) {
	id, ok := e.loadOwnedPetition(c)
	if !ok {
		return
	}
	tierID, ok := parseID(c, "tierId")
	if !ok {
		return
	}
	var input EditSupportTierInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input: " + err.Error()})
		return
	}
	switch {
	case input.Title != nil && strings.TrimSpace(*input.Title) == "":
		c.JSON(http.StatusBadRequest, gin.H{"error": "Title must not be empty"})
		return
	case input.Description != nil && *input.Description == "":
		c.JSON(http.StatusBadRequest, gin.H{"error": "Description must not be empty"})
		return
	case input.Cost != nil && *input.Cost < 0:
		c.JSON(http.StatusBadRequest, gin.H{"error": "Support tier cost must not be negative"})
		return
	}

	updated, err := e.Store.UpdateSupportTier(c.Request.Context(), id, tierID, store.SupportTierPatch{
		Title:       input.Title,
		Description: input.Description,
		Cost:        input.Cost,
	})
	if err != nil {
		e.storeError(c, err, "update support tier")
		return
	}
	c.JSON(http.StatusOK, updated)
}

func (e *Env) DeleteSupportTier(c *gin.Context) {
	id, ok := e.loadOwnedPetition(c)
	if !ok {
		return
	}
	tierID, ok := parseID(c, "tierId")
	if !ok {
		return
	}
	if err := e.Store.DeleteSupportTier(c.Request.Context(), id, tierID); err != nil {
		e.storeError(c, err, "delete support tier")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Support tier deleted"})
}
