package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// PersonalAccessToken is a long-lived bearer credential for the editor extension.
// Only the SHA-256 hex digest of the secret is stored. A user holds at most one.
type PersonalAccessToken struct {
	ID         uuid.UUID  `json:"id" gorm:"type:uuid;primaryKey"`
	Name       string     `json:"name" gorm:"not null;size:255"`
	TokenHash  string     `json:"-" gorm:"uniqueIndex;not null;size:64"`
	UserID     uuid.UUID  `json:"user_id" gorm:"type:uuid;not null;uniqueIndex"`
	ExpiresAt  *time.Time `json:"expires_at,omitempty"`
	LastUsedAt *time.Time `json:"last_used_at,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at" gorm:"autoUpdateTime"`

	User *User `json:"-" gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
}

// TableName returns the table name for the PersonalAccessToken model
func (PersonalAccessToken) TableName() string {
	return "personal_access_tokens"
}

// BeforeCreate assigns a random id and creation time when unset
func (t *PersonalAccessToken) BeforeCreate(*gorm.DB) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	if t.CreatedAt.IsZero() {
		t.CreatedAt = time.Now()
	}
	return nil
}

// IsExpired reports whether the token has an expiry at or before now
func (t *PersonalAccessToken) IsExpired(now time.Time) bool {
	return t.ExpiresAt != nil && !t.ExpiresAt.After(now)
}
