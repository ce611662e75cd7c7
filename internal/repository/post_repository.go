package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/lib/pq"
	"github.com/maheshrc27/contentflow/internal/models"
	"github.com/maheshrc27/contentflow/pkg/logging"
)

type PostRepository interface {
	GetByID(ctx context.Context, id string) (*models.Post, error)
	// ListDueApproved returns approved posts scheduled at or before now. A
	// positive lookback skips posts older than now-lookback.
	ListDueApproved(ctx context.Context, now time.Time, lookback time.Duration) ([]*models.Post, error)
	// TransitionStatus moves a post to status only if it is still in one of from.
	TransitionStatus(ctx context.Context, postID string, from []string, to string) (bool, error)
	// ClaimForPublish takes a publish lease on a post that is still publishable.
	// Leases older than staleBefore are considered abandoned.
	ClaimForPublish(ctx context.Context, postID, claim string, now, staleBefore time.Time) (bool, error)
	// RenewClaim refreshes a lease the caller still holds. It reports false once
	// the lease has been taken over or the post is no longer publishable.
	RenewClaim(ctx context.Context, postID, claim string, now time.Time) (bool, error)
	MarkPublished(ctx context.Context, postID, claim, externalID, facebookID string) (bool, error)
	ReleaseClaim(ctx context.Context, postID, claim string) error
}

type postRepository struct {
	db *sql.DB
}

func NewPostRepository(db *sql.DB) PostRepository {
	return &postRepository{db: db}
}

const postColumns = `id, client_id, caption, scheduled_date, media_urls, post_type, platforms, status,
	external_post_id, facebook_post_id, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPost(row rowScanner) (*models.Post, error) {
	var (
		post       models.Post
		scheduled  sql.NullTime
		externalID sql.NullString
		facebookID sql.NullString
	)
	err := row.Scan(&post.ID, &post.ClientID, &post.Caption, &scheduled, pq.Array(&post.MediaURLs),
		&post.PostType, pq.Array(&post.Platforms), &post.Status, &externalID, &facebookID,
		&post.CreatedAt, &post.UpdatedAt)
	if err != nil {
		return nil, err
	}
	post.ScheduledDate = scheduled.Time
	post.ExternalPostID = externalID.String
	post.FacebookPostID = facebookID.String
	return &post, nil
}

func (r *postRepository) GetByID(ctx context.Context, id string) (*models.Post, error) {
	query := `SELECT ` + postColumns + ` FROM posts WHERE id = $1`

	post, err := scanPost(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, models.ErrPostNotFound
		}
		logging.GetLogger().Info(err.Error())
		return nil, err
	}
	return post, nil
}

func (r *postRepository) ListDueApproved(ctx context.Context, now time.Time, lookback time.Duration) ([]*models.Post, error) {
	query := `SELECT ` + postColumns + `
		FROM posts
		WHERE status = $1
			AND scheduled_date <= $2
			AND ($3::timestamptz IS NULL OR scheduled_date > $3)
		ORDER BY scheduled_date ASC`

	var since sql.NullTime
	if lookback > 0 {
		since = sql.NullTime{Time: now.Add(-lookback), Valid: true}
	}

	rows, err := r.db.QueryContext(ctx, query, models.PostStatusApproved, now, since)
	if err != nil {
		logging.GetLogger().Info(err.Error())
		return nil, err
	}
	defer rows.Close()

	var posts []*models.Post
	for rows.Next() {
		post, err := scanPost(rows)
		if err != nil {
			logging.GetLogger().Info(err.Error())
			return nil, err
		}
		posts = append(posts, post)
	}
	if err := rows.Err(); err != nil {
		logging.GetLogger().Info(err.Error())
		return nil, err
	}
	return posts, nil
}

func (r *postRepository) TransitionStatus(ctx context.Context, postID string, from []string, to string) (bool, error) {
	query := `
		UPDATE posts
		SET status = $1,
			updated_at = $2
		WHERE id = $3 AND status = ANY($4)
	`
	return r.execAffected(ctx, query, to, time.Now(), postID, pq.Array(from))
}

func (r *postRepository) ClaimForPublish(ctx context.Context, postID, claim string, now, staleBefore time.Time) (bool, error) {
	query := `
		UPDATE posts
		SET publish_claim = $1,
			publish_claimed_at = $2
		WHERE id = $3
			AND status = ANY($4)
			AND (publish_claimed_at IS NULL OR publish_claimed_at < $5)
	`
	return r.execAffected(ctx, query, claim, now, postID, pq.Array(models.PublishableStatuses), staleBefore)
}

func (r *postRepository) RenewClaim(ctx context.Context, postID, claim string, now time.Time) (bool, error) {
	query := `
		UPDATE posts
		SET publish_claimed_at = $1
		WHERE id = $2 AND publish_claim = $3 AND status = ANY($4)
	`
	return r.execAffected(ctx, query, now, postID, claim, pq.Array(models.PublishableStatuses))
}

func (r *postRepository) MarkPublished(ctx context.Context, postID, claim, externalID, facebookID string) (bool, error) {
	query := `
		UPDATE posts
		SET status = $1,
			external_post_id = NULLIF($2, ''),
			facebook_post_id = NULLIF($3, ''),
			publish_claim = NULL,
			publish_claimed_at = NULL,
			updated_at = $4
		WHERE id = $5 AND publish_claim = $6 AND status = ANY($7)
	`
	return r.execAffected(ctx, query, models.PostStatusPublished, externalID, facebookID, time.Now(),
		postID, claim, pq.Array(models.PublishableStatuses))
}

func (r *postRepository) ReleaseClaim(ctx context.Context, postID, claim string) error {
	query := `
		UPDATE posts
		SET publish_claim = NULL,
			publish_claimed_at = NULL
		WHERE id = $1 AND publish_claim = $2
	`
	_, err := r.db.ExecContext(ctx, query, postID, claim)
	if err != nil {
		logging.GetLogger().Info(err.Error())
		return err
	}
	return nil
}

func (r *postRepository) execAffected(ctx context.Context, query string, args ...any) (bool, error) {
	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		logging.GetLogger().Info(err.Error())
		return false, err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		logging.GetLogger().Info(err.Error())
		return false, err
	}
	return affected == 1, nil
}
