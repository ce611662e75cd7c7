package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/maheshrc27/contentflow/internal/models"
	"github.com/maheshrc27/contentflow/pkg/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecretKey = "0123456789abcdef"

type memClientRepo struct {
	clients map[string]*models.Client
}

func (r *memClientRepo) GetByID(_ context.Context, id string) (*models.Client, error) {
	c, ok := r.clients[id]
	if !ok {
		return nil, models.ErrClientNotFound
	}
	cp := *c
	return &cp, nil
}

func (r *memClientRepo) ListWithToken(context.Context) ([]*models.Client, error) {
	var out []*models.Client
	for _, c := range r.clients {
		if c.AccessToken != "" {
			cp := *c
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *memClientRepo) SetToken(_ context.Context, id, oldToken, newToken string, expiresAt *time.Time) error {
	c, ok := r.clients[id]
	if !ok || c.AccessToken != oldToken {
		return errors.New("token changed concurrently")
	}
	c.AccessToken = newToken
	c.TokenExpiresAt = expiresAt
	return nil
}

func sealed(t *testing.T, token string) string {
	t.Helper()
	s, err := utils.Encrypt([]byte(token), []byte(testSecretKey))
	require.NoError(t, err)
	return s
}

func TestCredentialStoreGet(t *testing.T) {
	past := time.Now().Add(-time.Hour)
	repo := &memClientRepo{clients: map[string]*models.Client{
		"ok":       {ID: "ok", Name: "Acme", InstagramAccountID: "1784", AccessToken: sealed(t, "EAAB")},
		"expired":  {ID: "expired", Name: "Old", InstagramAccountID: "1785", AccessToken: sealed(t, "EAAC"), TokenExpiresAt: &past},
		"no-token": {ID: "no-token", Name: "Bare", InstagramAccountID: "1786"},
		"garbled":  {ID: "garbled", Name: "Broken", InstagramAccountID: "1787", AccessToken: "not-sealed"},
	}}
	store := NewCredentialStore(repo, testSecretKey)

	creds, err := store.Get(context.Background(), "ok")
	require.NoError(t, err)
	assert.Equal(t, "EAAB", creds.AccessToken)
	assert.Equal(t, "1784", creds.InstagramAccountID)

	_, err = store.Get(context.Background(), "expired")
	var credErr *models.CredentialExpiredError
	assert.ErrorAs(t, err, &credErr)

	_, err = store.Get(context.Background(), "no-token")
	assert.ErrorIs(t, err, models.ErrClientNotPublishable)

	_, err = store.Get(context.Background(), "missing")
	assert.ErrorIs(t, err, models.ErrClientNotFound)

	_, err = store.Get(context.Background(), "garbled")
	assert.Error(t, err)
}

func TestCredentialStoreRotate(t *testing.T) {
	repo := &memClientRepo{clients: map[string]*models.Client{
		"ok": {ID: "ok", Name: "Acme", InstagramAccountID: "1784", AccessToken: sealed(t, "EAAB")},
	}}
	store := NewCredentialStore(repo, testSecretKey)

	list, err := store.ListWithToken(context.Background())
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Empty(t, list[0].AccessToken)
	require.NoError(t, store.Unseal(list[0]))
	assert.Equal(t, "EAAB", list[0].AccessToken)

	exp := time.Now().Add(60 * 24 * time.Hour)
	require.NoError(t, store.Rotate(context.Background(), list[0], "EAAB-new", &exp))

	creds, err := store.Get(context.Background(), "ok")
	require.NoError(t, err)
	assert.Equal(t, "EAAB-new", creds.AccessToken)
	assert.NotEqual(t, "EAAB-new", repo.clients["ok"].AccessToken)
}
