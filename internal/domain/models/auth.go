package models

import "time"

// AuthMethod names the credential that resolved a request
type AuthMethod string

const (
	AuthMethodToken   AuthMethod = "token"
	AuthMethodSession AuthMethod = "session"
)

// AuthSession is the uniform identity shape produced for both PAT and cookie auth
type AuthSession struct {
	User    *User       `json:"user"`
	Session SessionView `json:"session"`
	Method  AuthMethod  `json:"-"`
}

// SessionView is the session half of AuthSession. For PAT auth the id is
// synthetic and the IP and user agent are always nil.
type SessionView struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	ExpiresAt time.Time `json:"expires_at"`
	Token     string    `json:"token"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	IPAddress *string   `json:"ip_address"`
	UserAgent *string   `json:"user_agent"`
}

// AllModels lists every persisted model in dependency order
func AllModels() []interface{} {
	return []interface{}{
		&User{},
		&PersonalAccessToken{},
		&Setup{},
		&SetupStar{},
		&Session{},
	}
}
