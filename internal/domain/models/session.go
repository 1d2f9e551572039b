package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Session is a browser sign-in. TokenHash is the SHA-256 of the opaque
// secret carried inside the signed cookie.
type Session struct {
	ID        uuid.UUID `json:"id" gorm:"type:uuid;primaryKey"`
	UserID    uuid.UUID `json:"user_id" gorm:"type:uuid;not null;index"`
	TokenHash string    `json:"-" gorm:"uniqueIndex;not null;size:64"`
	ExpiresAt time.Time `json:"expires_at" gorm:"not null;index"`
	IPAddress *string   `json:"ip_address" gorm:"size:64"`
	UserAgent *string   `json:"user_agent" gorm:"size:512"`
	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time `json:"updated_at" gorm:"autoUpdateTime"`

	User *User `json:"-" gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
}

// TableName returns the table name for the Session model
func (Session) TableName() string {
	return "sessions"
}

// BeforeCreate assigns a random id when none is set
func (s *Session) BeforeCreate(*gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}
