package service

import (
	"context"
	"fmt"
	"time"

	"github.com/maheshrc27/contentflow/internal/models"
	"github.com/maheshrc27/contentflow/internal/repository"
	"github.com/maheshrc27/contentflow/pkg/utils"
)

// CredentialStore hands out decrypted client credentials and persists rotated
// tokens. Tokens are sealed at rest with the application secret key.
type CredentialStore interface {
	Get(ctx context.Context, clientID string) (*models.Credentials, error)
	// ListWithToken returns every client holding a token. Tokens stay sealed
	// until Unseal is called.
	ListWithToken(ctx context.Context) ([]*models.Credentials, error)
	Unseal(cred *models.Credentials) error
	Rotate(ctx context.Context, cred *models.Credentials, newToken string, expiresAt *time.Time) error
}

type credentialStore struct {
	cr  repository.ClientRepository
	key []byte
	now func() time.Time
}

func NewCredentialStore(cr repository.ClientRepository, secretKey string) CredentialStore {
	return &credentialStore{
		cr:  cr,
		key: []byte(secretKey),
		now: time.Now,
	}
}

func toCredentials(c *models.Client) *models.Credentials {
	return &models.Credentials{
		ClientID:           c.ID,
		ClientName:         c.Name,
		InstagramAccountID: c.InstagramAccountID,
		FacebookPageID:     c.FacebookPageID,
		ExpiresAt:          c.TokenExpiresAt,
		SealedToken:        c.AccessToken,
	}
}

func (s *credentialStore) Get(ctx context.Context, clientID string) (*models.Credentials, error) {
	client, err := s.cr.GetByID(ctx, clientID)
	if err != nil {
		return nil, err
	}

	if client.AccessToken == "" || (client.InstagramAccountID == "" && client.FacebookPageID == "") {
		return nil, fmt.Errorf("%s: %w", client.Name, models.ErrClientNotPublishable)
	}
	if client.TokenExpiresAt != nil && client.TokenExpiresAt.Before(s.now()) {
		return nil, &models.CredentialExpiredError{
			Detail: fmt.Sprintf("token for %s expired at %s", client.Name, client.TokenExpiresAt.UTC().Format(time.RFC3339)),
		}
	}

	cred := toCredentials(client)
	if err := s.Unseal(cred); err != nil {
		return nil, err
	}
	return cred, nil
}

func (s *credentialStore) ListWithToken(ctx context.Context) ([]*models.Credentials, error) {
	clients, err := s.cr.ListWithToken(ctx)
	if err != nil {
		return nil, err
	}
	creds := make([]*models.Credentials, 0, len(clients))
	for _, c := range clients {
		creds = append(creds, toCredentials(c))
	}
	return creds, nil
}

func (s *credentialStore) Unseal(cred *models.Credentials) error {
	token, err := utils.Decrypt(cred.SealedToken, s.key)
	if err != nil {
		return fmt.Errorf("unable to decrypt access token: %w", err)
	}
	cred.AccessToken = token
	return nil
}

func (s *credentialStore) Rotate(ctx context.Context, cred *models.Credentials, newToken string, expiresAt *time.Time) error {
	sealed, err := utils.Encrypt([]byte(newToken), s.key)
	if err != nil {
		return err
	}
	if err := s.cr.SetToken(ctx, cred.ClientID, cred.SealedToken, sealed, expiresAt); err != nil {
		return err
	}
	cred.SealedToken = sealed
	cred.AccessToken = newToken
	cred.ExpiresAt = expiresAt
	return nil
}
