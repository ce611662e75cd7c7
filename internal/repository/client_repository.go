package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/maheshrc27/contentflow/internal/models"
	"github.com/maheshrc27/contentflow/pkg/logging"
)

type ClientRepository interface {
	GetByID(ctx context.Context, id string) (*models.Client, error)
	ListWithToken(ctx context.Context) ([]*models.Client, error)
	SetToken(ctx context.Context, clientID, oldAccessToken, newAccessToken string, expiresAt *time.Time) error
}

type clientRepository struct {
	db *sql.DB
}

func NewClientRepository(db *sql.DB) ClientRepository {
	return &clientRepository{db: db}
}

const clientColumns = `id, name, COALESCE(instagram_account_id, ''), COALESCE(facebook_page_id, ''),
	COALESCE(access_token, ''), token_expires_at, last_import_at, created_at, updated_at`

func scanClient(row rowScanner) (*models.Client, error) {
	var (
		c          models.Client
		expiresAt  sql.NullTime
		lastImport sql.NullTime
	)
	err := row.Scan(&c.ID, &c.Name, &c.InstagramAccountID, &c.FacebookPageID, &c.AccessToken,
		&expiresAt, &lastImport, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if expiresAt.Valid {
		c.TokenExpiresAt = &expiresAt.Time
	}
	if lastImport.Valid {
		c.LastImportAt = &lastImport.Time
	}
	return &c, nil
}

func (r *clientRepository) GetByID(ctx context.Context, id string) (*models.Client, error) {
	query := `SELECT ` + clientColumns + ` FROM clients WHERE id = $1`

	c, err := scanClient(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, models.ErrClientNotFound
		}
		logging.GetLogger().Info(err.Error())
		return nil, err
	}
	return c, nil
}

func (r *clientRepository) ListWithToken(ctx context.Context) ([]*models.Client, error) {
	query := `SELECT ` + clientColumns + ` FROM clients WHERE access_token IS NOT NULL AND access_token <> '' ORDER BY name`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		logging.GetLogger().Info(err.Error())
		return nil, err
	}
	defer rows.Close()

	var clients []*models.Client
	for rows.Next() {
		c, err := scanClient(rows)
		if err != nil {
			logging.GetLogger().Info(err.Error())
			return nil, err
		}
		clients = append(clients, c)
	}
	if err := rows.Err(); err != nil {
		logging.GetLogger().Info(err.Error())
		return nil, err
	}
	return clients, nil
}

// SetToken rotates the token only if the stored one is still oldAccessToken.
func (r *clientRepository) SetToken(ctx context.Context, clientID, oldAccessToken, newAccessToken string, expiresAt *time.Time) error {
	query := `
		UPDATE clients
		SET access_token = $1,
			token_expires_at = $2,
			updated_at = CURRENT_TIMESTAMP
		WHERE id = $3 AND access_token = $4
	`
	var exp sql.NullTime
	if expiresAt != nil {
		exp = sql.NullTime{Time: *expiresAt, Valid: true}
	}

	result, err := r.db.ExecContext(ctx, query, newAccessToken, exp, clientID, oldAccessToken)
	if err != nil {
		logging.GetLogger().Info(err.Error())
		return err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		logging.GetLogger().Info(err.Error())
		return err
	}
	if affected != 1 {
		err = errors.New("no rows affected; client may not exist or its token changed concurrently")
		logging.GetLogger().Info(err.Error())
		return err
	}
	return nil
}
