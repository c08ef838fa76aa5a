package store

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/sujalbistaa/petitions/internal/models"
	"github.com/sujalbistaa/petitions/internal/petition"
)

// MaxSupportTiers is the most tiers a single petition may carry.
const MaxSupportTiers = 3

var (
	ErrNotFound          = errors.New("record not found")
	ErrTitleTaken        = errors.New("title already in use")
	ErrUnknownCategory   = errors.New("unknown category")
	ErrHasSupporters     = errors.New("record has supporters")
	ErrTierLimit         = errors.New("support tier limit reached")
	ErrLastTier          = errors.New("cannot remove the only support tier")
	ErrAlreadySupported  = errors.New("user already supports this petition")
	ErrTierNotInPetition = errors.New("support tier does not belong to petition")
)

// Store is the relational data access layer.
type Store struct {
	db *gorm.DB
}

func New(db *gorm.DB) *Store {
	return &Store{db: db}
}

// Migrate creates or updates the schema.
func (s *Store) Migrate() error {
	if err := s.db.AutoMigrate(&models.Category{}, &models.Petition{}, &models.SupportTier{}, &models.Supporter{}); err != nil {
		return fmt.Errorf("failed to migrate schema: %w", err)
	}
	return nil
}

// Ping checks the database connection.
func (s *Store) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// SeedCategories inserts names when the category table is empty.
func (s *Store) SeedCategories(ctx context.Context, names []string) error {
	if len(names) == 0 {
		return nil
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var n int64
		if err := tx.Model(&models.Category{}).Count(&n).Error; err != nil {
			return fmt.Errorf("failed to count categories: %w", err)
		}
		if n > 0 {
			return nil
		}
		categories := make([]models.Category, 0, len(names))
		for _, name := range names {
			categories = append(categories, models.Category{Name: name})
		}
		if err := tx.Create(&categories).Error; err != nil {
			return fmt.Errorf("failed to seed categories: %w", err)
		}
		return nil
	})
}

func (s *Store) ListCategories(ctx context.Context) ([]models.Category, error) {
	var categories []models.Category
	if err := s.db.WithContext(ctx).Order("id asc").Find(&categories).Error; err != nil {
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}
	return categories, nil
}

func (s *Store) FindAllPetitions(ctx context.Context) ([]models.Petition, error) {
	var petitions []models.Petition
	if err := s.db.WithContext(ctx).Order("creation_date asc, id asc").Find(&petitions).Error; err != nil {
		return nil, fmt.Errorf("failed to list petitions: %w", err)
	}
	return petitions, nil
}

func (s *Store) FindAllSupportTiers(ctx context.Context) ([]models.SupportTier, error) {
	var tiers []models.SupportTier
	if err := s.db.WithContext(ctx).Order("id asc").Find(&tiers).Error; err != nil {
		return nil, fmt.Errorf("failed to list support tiers: %w", err)
	}
	return tiers, nil
}

func (s *Store) FindAllSupporters(ctx context.Context) ([]models.Supporter, error) {
	var supporters []models.Supporter
	if err := s.db.WithContext(ctx).Order("id asc").Find(&supporters).Error; err != nil {
		return nil, fmt.Errorf("failed to list supporters: %w", err)
	}
	return supporters, nil
}

// Snapshot loads every petition, tier and supporter for a listing.
func (s *Store) Snapshot(ctx context.Context) (petition.Snapshot, error) {
	petitions, err := s.FindAllPetitions(ctx)
	if err != nil {
		return petition.Snapshot{}, err
	}
	tiers, err := s.FindAllSupportTiers(ctx)
	if err != nil {
		return petition.Snapshot{}, err
	}
	supporters, err := s.FindAllSupporters(ctx)
	if err != nil {
		return petition.Snapshot{}, err
	}
	return petition.Snapshot{Petitions: petitions, Tiers: tiers, Supporters: supporters}, nil
}

// PetitionSnapshot loads one petition with its tiers and supporters.
func (s *Store) PetitionSnapshot(ctx context.Context, petitionID uint) (petition.Snapshot, error) {
	p, err := s.FindPetition(ctx, petitionID)
	if err != nil {
		return petition.Snapshot{}, err
	}
	tiers, err := s.FindSupportTiersByPetition(ctx, petitionID)
	if err != nil {
		return petition.Snapshot{}, err
	}
	var supporters []models.Supporter
	if err := s.db.WithContext(ctx).Where("petition_id = ?", petitionID).Order("id asc").Find(&supporters).Error; err != nil {
		return petition.Snapshot{}, fmt.Errorf("failed to list supporters: %w", err)
	}
	return petition.Snapshot{Petitions: []models.Petition{*p}, Tiers: tiers, Supporters: supporters}, nil
}

func (s *Store) FindPetition(ctx context.Context, id uint) (*models.Petition, error) {
	return findPetition(s.db.WithContext(ctx), id)
}

func findPetition(tx *gorm.DB, id uint) (*models.Petition, error) {
	var p models.Petition
	if err := tx.First(&p, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get petition: %w", err)
	}
	return &p, nil
}

func (s *Store) FindSupportTiersByPetition(ctx context.Context, petitionID uint) ([]models.SupportTier, error) {
	var tiers []models.SupportTier
	if err := s.db.WithContext(ctx).Where("petition_id = ?", petitionID).Order("id asc").Find(&tiers).Error; err != nil {
		return nil, fmt.Errorf("failed to list support tiers: %w", err)
	}
	return tiers, nil
}

// FindSupportersByPetition lists a petition's supporters, newest first.
func (s *Store) FindSupportersByPetition(ctx context.Context, petitionID uint) ([]models.Supporter, error) {
	var supporters []models.Supporter
	if err := s.db.WithContext(ctx).
		Where("petition_id = ?", petitionID).
		Order("supported_at desc, id desc").
		Find(&supporters).Error; err != nil {
		return nil, fmt.Errorf("failed to list supporters: %w", err)
	}
	return supporters, nil
}

func exists(tx *gorm.DB, model any, query string, args ...any) (bool, error) {
	var n int64
	if err := tx.Model(model).Where(query, args...).Count(&n).Error; err != nil {
		return false, err
	}
	return n > 0, nil
}
