package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// SetupContent is the editor configuration synced by the extension
type SetupContent struct {
	Theme      string                 `json:"theme"`
	Font       *Font                  `json:"font,omitempty"`
	Extensions []Extension            `json:"extensions"`
	Settings   map[string]interface{} `json:"settings"`
}

// Font describes the editor font
type Font struct {
	Family     string  `json:"family"`
	Size       float64 `json:"size,omitempty"`
	Ligatures  bool    `json:"ligatures,omitempty"`
	LineHeight float64 `json:"line_height,omitempty"`
}

// Extension is one installed editor extension
type Extension struct {
	ID      string `json:"id"`
	Name    string `json:"name,omitempty"`
	Version string `json:"version,omitempty"`
}

// Setup is one user's configuration for one editor.
// (UserID, EditorName) is unique; sync upserts on that pair.
type Setup struct {
	ID          uuid.UUID    `json:"id" gorm:"type:uuid;primaryKey"`
	UserID      uuid.UUID    `json:"user_id" gorm:"type:uuid;not null;uniqueIndex:idx_setups_user_editor"`
	EditorName  string       `json:"editor_name" gorm:"not null;size:50;uniqueIndex:idx_setups_user_editor"`
	DisplayName string       `json:"display_name" gorm:"not null;size:100"`
	Description string       `json:"description" gorm:"size:500"`
	Content     SetupContent `json:"content" gorm:"type:jsonb;serializer:json;not null"`
	IsPublic    bool         `json:"is_public" gorm:"not null;index"`
	StarCount   int64        `json:"star_count" gorm:"not null;default:0;index"`
	CreatedAt   time.Time    `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt   time.Time    `json:"updated_at" gorm:"autoUpdateTime;index"`

	Owner *User `json:"owner,omitempty" gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
}

// TableName returns the table name for the Setup model
func (Setup) TableName() string {
	return "setups"
}

// BeforeCreate assigns a random id when none is set
func (s *Setup) BeforeCreate(*gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}

// VisibleTo reports whether the viewer may read this setup
func (s *Setup) VisibleTo(viewer *User) bool {
	if s.IsPublic {
		return true
	}
	return viewer != nil && viewer.ID == s.UserID
}
