package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/sujalbistaa/petitions/internal/models"
)

// AddSupporter records a user backing a tier. A user supports a petition at
// most once, whatever the tier.
func (s *Store) AddSupporter(ctx context.Context, supporter *models.Supporter) error {
	if supporter.Timestamp.IsZero() {
		supporter.Timestamp = time.Now().UTC()
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := findPetition(tx, supporter.PetitionID); err != nil {
			return err
		}
		if _, err := findTier(tx, supporter.PetitionID, supporter.SupportTierID); err != nil {
			return err
		}
		already, err := exists(tx, &models.Supporter{}, "petition_id = ? AND user_id = ?", supporter.PetitionID, supporter.UserID)
		if err != nil {
			return fmt.Errorf("failed to check supporters: %w", err)
		}
		if already {
			return ErrAlreadySupported
		}
		return insertSupporter(tx, supporter)
	})
}

// insertSupporter maps a violation of the (petition_id, user_id) unique index
// to ErrAlreadySupported.
func insertSupporter(tx *gorm.DB, supporter *models.Supporter) error {
	if err := tx.Create(supporter).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return ErrAlreadySupported
		}
		return fmt.Errorf("failed to create supporter: %w", err)
	}
	return nil
}
