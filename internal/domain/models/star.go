package models

import (
	"time"

	"github.com/google/uuid"
)

// SetupStar records that a user starred a setup. The pair is the primary key.
type SetupStar struct {
	UserID    uuid.UUID `json:"user_id" gorm:"type:uuid;primaryKey"`
	SetupID   uuid.UUID `json:"setup_id" gorm:"type:uuid;primaryKey;index"`
	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`

	User  *User  `json:"-" gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
	Setup *Setup `json:"-" gorm:"foreignKey:SetupID;constraint:OnDelete:CASCADE"`
}

// TableName returns the table name for the SetupStar model
func (SetupStar) TableName() string {
	return "setup_stars"
}
