package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/sujalbistaa/petitions/internal/models"
)

// CreatePetition inserts p and its tiers in one transaction and returns the
// new petition id. CreationDate defaults to now.
func (s *Store) CreatePetition(ctx context.Context, p *models.Petition, tiers []models.SupportTier) (uint, error) {
	if len(tiers) == 0 || len(tiers) > MaxSupportTiers {
		return 0, ErrTierLimit
	}
	if p.CreationDate.IsZero() {
		p.CreationDate = time.Now().UTC()
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := checkCategory(tx, p.CategoryID); err != nil {
			return err
		}
		taken, err := exists(tx, &models.Petition{}, "title = ?", p.Title)
		if err != nil {
			return fmt.Errorf("failed to check petition title: %w", err)
		}
		if taken {
			return ErrTitleTaken
		}

		if err := insertPetition(tx, p); err != nil {
			return err
		}
		for i := range tiers {
			tiers[i].PetitionID = p.ID
		}
		if err := tx.Create(&tiers).Error; err != nil {
			return fmt.Errorf("failed to create support tiers: %w", err)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return p.ID, nil
}

// PetitionPatch lists the editable petition fields; nil leaves a field as is.
type PetitionPatch struct {
	Title       *string
	Description *string
	CategoryID  *uint
}

// UpdatePetition applies patch and returns the updated petition.
func (s *Store) UpdatePetition(ctx context.Context, id uint, patch PetitionPatch) (*models.Petition, error) {
	var updated *models.Petition
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		p, err := findPetition(tx, id)
		if err != nil {
			return err
		}

		changes := map[string]any{}
		if patch.Title != nil && *patch.Title != p.Title {
			taken, err := exists(tx, &models.Petition{}, "title = ? AND id <> ?", *patch.Title, id)
			if err != nil {
				return fmt.Errorf("failed to check petition title: %w", err)
			}
			if taken {
				return ErrTitleTaken
			}
			changes["title"] = *patch.Title
			p.Title = *patch.Title
		}
		if patch.Description != nil {
			changes["description"] = *patch.Description
			p.Description = *patch.Description
		}
		if patch.CategoryID != nil {
			if err := checkCategory(tx, *patch.CategoryID); err != nil {
				return err
			}
			changes["category_id"] = *patch.CategoryID
			p.CategoryID = *patch.CategoryID
		}

		if len(changes) > 0 {
			if err := tx.Model(&models.Petition{}).Where("id = ?", id).Updates(changes).Error; err != nil {
				if errors.Is(err, gorm.ErrDuplicatedKey) {
					return ErrTitleTaken
				}
				return fmt.Errorf("failed to update petition: %w", err)
			}
		}
		updated = p
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// DeletePetition removes a petition and its tiers. Petitions with supporters
// cannot be deleted.
func (s *Store) DeletePetition(ctx context.Context, id uint) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := findPetition(tx, id); err != nil {
			return err
		}
		supported, err := exists(tx, &models.Supporter{}, "petition_id = ?", id)
		if err != nil {
			return fmt.Errorf("failed to check supporters: %w", err)
		}
		if supported {
			return ErrHasSupporters
		}
		if err := tx.Where("petition_id = ?", id).Delete(&models.SupportTier{}).Error; err != nil {
			return fmt.Errorf("failed to delete support tiers: %w", err)
		}
		if err := tx.Delete(&models.Petition{}, id).Error; err != nil {
			return fmt.Errorf("failed to delete petition: %w", err)
		}
		return nil
	})
}

// insertPetition maps a lost race on the unique title index to ErrTitleTaken.
func insertPetition(tx *gorm.DB, p *models.Petition) error {
	if err := tx.Create(p).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return ErrTitleTaken
		}
		return fmt.Errorf("failed to create petition: %w", err)
	}
	return nil
}

func checkCategory(tx *gorm.DB, id uint) error {
	ok, err := exists(tx, &models.Category{}, "id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to check category: %w", err)
	}
	if !ok {
		return ErrUnknownCategory
	}
	return nil
}
