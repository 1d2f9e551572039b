package repository

import (
	"errors"
	"strings"

	"gorm.io/gorm"
)

// isDuplicate reports a unique constraint violation. TranslateError covers
// most drivers; the message check catches the rest.
func isDuplicate(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique constraint") || strings.Contains(msg, "duplicate key")
}
