package models

import (
	"time"
)

// Category groups petitions by topic.
type Category struct {
	ID   uint   `gorm:"primarykey" json:"categoryId"`
	Name string `gorm:"not null;uniqueIndex;size:64" json:"name"`
}

// Petition is a fundraising campaign owned by a single user.
type Petition struct {
	ID            uint      `gorm:"primarykey" json:"petitionId"`
	Title         string    `gorm:"not null;uniqueIndex;size:128" json:"title"`
	Description   string    `gorm:"not null" json:"description"`
	CreationDate  time.Time `gorm:"not null;index" json:"creationDate"`
	ImageFilename *string   `json:"imageFilename,omitempty"`
	OwnerID       uint      `gorm:"not null;index" json:"ownerId"`
	CategoryID    uint      `gorm:"not null;index" json:"categoryId"`

	// Populated by aggregation, never persisted.
	SupportTiers   []SupportTier `gorm:"-" json:"supportTiers"`
	SupportingCost int           `gorm:"-" json:"supportingCost"`
}

// SupportTier is a priced pledge level belonging to one petition.
type SupportTier struct {
	ID          uint   `gorm:"primarykey" json:"supportTierId"`
	PetitionID  uint   `gorm:"not null;index" json:"petitionId"`
	Title       string `gorm:"not null;size:128" json:"title"`
	Description string `gorm:"not null" json:"description"`
	Cost        int    `gorm:"not null;default:0" json:"cost"`

	Supporters []Supporter `gorm:"-" json:"supporters"`
}

// Supporter records a user backing a specific support tier.
type Supporter struct {
	ID            uint      `gorm:"primarykey" json:"supportId"`
	PetitionID    uint      `gorm:"not null;uniqueIndex:idx_supporter_petition_user" json:"petitionId"`
	SupportTierID uint      `gorm:"not null;index" json:"supportTierId"`
	UserID        uint      `gorm:"not null;uniqueIndex:idx_supporter_petition_user;index" json:"supporterId"`
	Message       *string   `json:"message"`
	Timestamp     time.Time `gorm:"column:supported_at;not null" json:"timestamp"`
}
