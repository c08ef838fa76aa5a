package http

import (
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/sujalbistaa/petitions/internal/metrics"
	"github.com/sujalbistaa/petitions/internal/models"
	"github.com/sujalbistaa/petitions/internal/petition"
	"github.com/sujalbistaa/petitions/internal/store"
	"github.com/sujalbistaa/petitions/internal/ws"
)

const maxTitleLength = 80

// --- Structs for request binding ---
type SupportTierInput struct {
	Title       string `json:"title" binding:"required"`
	Description string `json:"description" binding:"required"`
	Cost        *int   `json:"cost" binding:"required"`
}

type CreatePetitionInput struct {
	Title        string             `json:"title" binding:"required"`
	Description  string             `json:"description" binding:"required"`
	CategoryID   uint               `json:"categoryId" binding:"required"`
	SupportTiers []SupportTierInput `json:"supportTiers" binding:"required,dive"`
}

type EditPetitionInput struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
	CategoryID  *uint   `json:"categoryId"`
}

// PetitionDetail is the single-petition view.
type PetitionDetail struct {
	PetitionID         uint                 `json:"petitionId"`
	Title              string               `json:"title"`
	Description        string               `json:"description"`
	CategoryID         uint                 `json:"categoryId"`
	OwnerID            uint                 `json:"ownerId"`
	CreationDate       time.Time            `json:"creationDate"`
	ImageFilename      *string              `json:"imageFilename,omitempty"`
	MoneyRaised        int                  `json:"moneyRaised"`
	NumberOfSupporters int                  `json:"numberOfSupporters"`
	SupportTiers       []models.SupportTier `json:"supportTiers"`
}

func (e *Env) ListPetitions(c *gin.Context) {
	query, err := parseListQuery(c, e.PageSize)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	snap, err := e.Store.Snapshot(c.Request.Context())
	if err != nil {
		e.storeError(c, err, "load petitions")
		return
	}

	page, err := petition.List(snap, query)
	if err != nil {
		// Sort keys are validated while parsing, so this is an internal error.
		e.Log.Error("petition listing failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal Server Error"})
		return
	}
	metrics.RecordListing(string(query.SortBy), page.Count)
	c.JSON(http.StatusOK, page)
}

func (e *Env) GetPetition(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	snap, err := e.Store.PetitionSnapshot(c.Request.Context(), id)
	if err != nil {
		e.storeError(c, err, "load petition")
		return
	}

	p := petition.Aggregate(snap.Petitions, snap.Tiers, snap.Supporters)[0]
	supporters := 0
	for _, tier := range p.SupportTiers {
		supporters += len(tier.Supporters)
	}
	c.JSON(http.StatusOK, PetitionDetail{
		PetitionID:         p.ID,
		Title:              p.Title,
		Description:        p.Description,
		CategoryID:         p.CategoryID,
		OwnerID:            p.OwnerID,
		CreationDate:       p.CreationDate,
		ImageFilename:      p.ImageFilename,
		MoneyRaised:        p.SupportingCost,
		NumberOfSupporters: supporters,
		SupportTiers:       p.SupportTiers,
	})
}

func (e *Env) CreatePetition(c *gin.Context) {
	var input CreatePetitionInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input: " + err.Error()})
		return
	}
	if msg := validateNewPetition(input); msg != "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": msg})
		return
	}

	p := &models.Petition{
		Title:       input.Title,
		Description: input.Description,
		OwnerID:     currentUserID(c),
		CategoryID:  input.CategoryID,
	}
	tiers := make([]models.SupportTier, 0, len(input.SupportTiers))
	for _, t := range input.SupportTiers {
		tiers = append(tiers, models.SupportTier{Title: t.Title, Description: t.Description, Cost: *t.Cost})
	}

	id, err := e.Store.CreatePetition(c.Request.Context(), p, tiers)
	if err != nil {
		e.storeError(c, err, "create petition")
		return
	}

	e.publish(ws.EventPetitionCreated, gin.H{"petitionId": id, "title": p.Title, "ownerId": p.OwnerID})
	c.JSON(http.StatusCreated, gin.H{"petitionId": id})
}

func validateNewPetition(input CreatePetitionInput) string {
	if strings.TrimSpace(input.Title) == "" || utf8.RuneCountInString(input.Title) > maxTitleLength {
		return "Title must be between 1 and 80 characters"
	}
	if len(input.SupportTiers) < 1 || len(input.SupportTiers) > store.MaxSupportTiers {
		return "A petition needs between 1 and 3 support tiers"
	}
	seen := make(map[string]bool, len(input.SupportTiers))
	for _, t := range input.SupportTiers {
		if *t.Cost < 0 {
			return "Support tier cost must not be negative"
		}
		if seen[t.Title] {
			return "Support tier titles must be unique within a petition"
		}
		seen[t.Title] = true
	}
	return ""
}

func (e *Env) EditPetition(c *gin.Context) {
	id, ok := e.loadOwnedPetition(c)
	if !ok {
		return
	}
	var input EditPetitionInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input: " + err.Error()})
		return
	}
	if input.Title != nil && (strings.TrimSpace(*input.Title) == "" || utf8.RuneCountInString(*input.Title) > maxTitleLength) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Title must be between 1 and 80 characters"})
		return
	}
	if input.Description != nil && *input.Description == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Description must not be empty"})
		return
	}

	updated, err := e.Store.UpdatePetition(c.Request.Context(), id, store.PetitionPatch{
		Title:       input.Title,
		Description: input.Description,
		CategoryID:  input.CategoryID,
	})
	if err != nil {
		e.storeError(c, err, "update petition")
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"title":       updated.Title,
		"description": updated.Description,
		"categoryId":  updated.CategoryID,
	})
}

func (e *Env) DeletePetition(c *gin.Context) {
	id, ok := e.loadOwnedPetition(c)
	if !ok {
		return
	}
	if err := e.Store.DeletePetition(c.Request.Context(), id); err != nil {
		e.storeError(c, err, "delete petition")
		return
	}
	e.publish(ws.EventPetitionDeleted, gin.H{"petitionId": id})
	c.JSON(http.StatusOK, gin.H{"message": "Petition deleted"})
}

func (e *Env) GetCategories(c *gin.Context) {
	categories, err := e.Store.ListCategories(c.Request.Context())
	if err != nil {
		e.storeError(c, err, "list categories")
		return
	}
	c.JSON(http.StatusOK, categories)
}
