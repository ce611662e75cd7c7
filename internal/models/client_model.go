package models

import (
	"time"
)

// Client is a tenant. AccessToken is stored sealed; see service.CredentialStore.
type Client struct {
	ID                 string     `db:"id" json:"id"`
	Name               string     `db:"name" json:"name"`
	InstagramAccountID string     `db:"instagram_account_id" json:"instagram_account_id"`
	FacebookPageID     string     `db:"facebook_page_id" json:"facebook_page_id"`
	AccessToken        string     `db:"access_token" json:"-"`
	TokenExpiresAt     *time.Time `db:"token_expires_at" json:"token_expires_at,omitempty"`
	LastImportAt       *time.Time `db:"last_import_at" json:"last_import_at,omitempty"`
	CreatedAt          time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt          time.Time  `db:"updated_at" json:"updated_at"`
}

// Credentials is the decrypted publishing identity of a client.
type Credentials struct {
	ClientID           string
	ClientName         string
	InstagramAccountID string
	FacebookPageID     string
	AccessToken        string
	ExpiresAt          *time.Time

	// sealed token as read from the store, used for conditional rotation
	SealedToken string
}
