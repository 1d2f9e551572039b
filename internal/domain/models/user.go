package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// User is a SetupHub account, created on first OAuth sign-in
type User struct {
	ID       uuid.UUID `json:"id" gorm:"type:uuid;primaryKey"`
	Username string    `json:"username" gorm:"uniqueIndex;not null;size:64"`
	Name     string    `json:"name" gorm:"size:255"`
	Email    string    `json:"email" gorm:"size:255"`
	Image    string    `json:"image" gorm:"size:1024"`

	// Provider and ProviderSubject identify the account at the identity provider
	Provider        string `json:"-" gorm:"uniqueIndex:idx_users_provider_subject;size:32;not null"`
	ProviderSubject string `json:"-" gorm:"uniqueIndex:idx_users_provider_subject;size:255;not null"`

	// BannerKey is the storage key of an uploaded banner; empty means generated
	BannerKey string `json:"-" gorm:"size:512"`

	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}

// TableName returns the table name for the User model
func (User) TableName() string {
	return "users"
}

// BeforeCreate assigns a random id when none is set
func (u *User) BeforeCreate(*gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	return nil
}
