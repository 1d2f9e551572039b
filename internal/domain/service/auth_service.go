package service

import (
	"context"
	"net/http"

	"github.com/setuphub/setuphub/internal/domain/models"
)

// AuthResolver determines the acting identity of a request.
// A nil result means unauthenticated; resolvers never return errors.
type AuthResolver interface {
	Resolve(ctx context.Context, r *http.Request) *models.AuthSession
}

// SessionResolver resolves the browser session cookie of a request
type SessionResolver interface {
	ResolveCookie(ctx context.Context, r *http.Request) (*models.AuthSession, error)
}
