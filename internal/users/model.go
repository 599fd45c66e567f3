package users

import (
	"strings"
	"time"
)

// AuthorizedUser is the persisted record for an account that completed the
// login flow. Re-authentication replaces the profile fields and token but
// keeps the original created_at.
type AuthorizedUser struct {
	InstagramID string    `gorm:"column:instagram_id;primaryKey;size:190;not null"`
	Username    string    `gorm:"column:username;size:190"`
	AccountType string    `gorm:"column:account_type;size:64"`
	AccessToken string    `gorm:"column:access_token;size:512;not null"`
	CreatedAt   time.Time `gorm:"column:created_at;autoCreateTime"`
}

// TableName exposes the table backing authorized users.
func (AuthorizedUser) TableName() string {
	return "authorized_users"
}

// ListedUser is the listing projection; the access token is never listed.
type ListedUser struct {
	InstagramID string    `gorm:"column:instagram_id"`
	Username    string    `gorm:"column:username"`
	AccountType string    `gorm:"column:account_type"`
	CreatedAt   time.Time `gorm:"column:created_at"`
}

func normalize(value string) string {
	return strings.TrimSpace(value)
}
