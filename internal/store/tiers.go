package store

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/sujalbistaa/petitions/internal/models"
)

// AddSupportTier appends a tier to an existing petition. Titles are unique
// within a petition.
func (s *Store) AddSupportTier(ctx context.Context, tier *models.SupportTier) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := findPetition(tx, tier.PetitionID); err != nil {
			return err
		}
		var n int64
		if err := tx.Model(&models.SupportTier{}).Where("petition_id = ?", tier.PetitionID).Count(&n).Error; err != nil {
			return fmt.Errorf("failed to count support tiers: %w", err)
		}
		if n >= MaxSupportTiers {
			return ErrTierLimit
		}
		taken, err := exists(tx, &models.SupportTier{}, "petition_id = ? AND title = ?", tier.PetitionID, tier.Title)
		if err != nil {
			return fmt.Errorf("failed to check support tier title: %w", err)
		}
		if taken {
			return ErrTitleTaken
		}
		if err := tx.Create(tier).Error; err != nil {
			return fmt.Errorf("failed to create support tier: %w", err)
		}
		return nil
	})
}

// SupportTierPatch lists the editable tier fields; nil leaves a field as is.
type SupportTierPatch struct {
	Title       *string
	Description *string
	Cost        *int
}

// UpdateSupportTier edits a tier that nobody supports yet.
func (s *Store) UpdateSupportTier(ctx context.Context, petitionID, tierID uint, patch SupportTierPatch) (*models.SupportTier, error) {
	var updated *models.SupportTier
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		tier, err := findTier(tx, petitionID, tierID)
		if err != nil {
			return err
		}
		supported, err := exists(tx, &models.Supporter{}, "support_tier_id = ?", tierID)
		if err != nil {
			return fmt.Errorf("failed to check supporters: %w", err)
		}
		if supported {
			return ErrHasSupporters
		}

		changes := map[string]any{}
		if patch.Title != nil && *patch.Title != tier.Title {
			taken, err := exists(tx, &models.SupportTier{}, "petition_id = ? AND title = ? AND id <> ?", petitionID, *patch.Title, tierID)
			if err != nil {
				return fmt.Errorf("failed to check support tier title: %w", err)
			}
			if taken {
				return ErrTitleTaken
			}
			changes["title"] = *patch.Title
			tier.Title = *patch.Title
		}
		if patch.Description != nil {
			changes["description"] = *patch.Description
			tier.Description = *patch.Description
		}
		if patch.Cost != nil {
			changes["cost"] = *patch.Cost
			tier.Cost = *patch.Cost
		}

		if len(changes) > 0 {
			if err := tx.Model(&models.SupportTier{}).Where("id = ?", tierID).Updates(changes).Error; err != nil {
				return fmt.Errorf("failed to update support tier: %w", err)
			}
		}
		updated = tier
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// DeleteSupportTier removes a tier that nobody supports and that is not the
// petition's last one.
func (s *Store) DeleteSupportTier(ctx context.Context, petitionID, tierID uint) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := findTier(tx, petitionID, tierID); err != nil {
			return err
		}
		supported, err := exists(tx, &models.Supporter{}, "support_tier_id = ?", tierID)
		if err != nil {
			return fmt.Errorf("failed to check supporters: %w", err)
		}
		if supported {
			return ErrHasSupporters
		}
		var n int64
		if err := tx.Model(&models.SupportTier{}).Where("petition_id = ?", petitionID).Count(&n).Error; err != nil {
			return fmt.Errorf("failed to count support tiers: %w", err)
		}
		if n <= 1 {
			return ErrLastTier
		}
		if err := tx.Delete(&models.SupportTier{}, tierID).Error; err != nil {
			return fmt.Errorf("failed to delete support tier: %w", err)
		}
		return nil
	})
}

// findTier loads tierID and checks that it belongs to petitionID.
func findTier(tx *gorm.DB, petitionID, tierID uint) (*models.SupportTier, error) {
	var tier models.SupportTier
	if err := tx.First(&tier, tierID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get support tier: %w", err)
	}
	if tier.PetitionID != petitionID {
		return nil, ErrTierNotInPetition
	}
	return &tier, nil
}
