package job

import (
	"context"
	"sort"
	"sync"

	"github.com/maheshrc27/contentflow/internal/meta"
	"github.com/maheshrc27/contentflow/internal/models"
	"github.com/maheshrc27/contentflow/internal/service"
	"github.com/maheshrc27/contentflow/pkg/logging"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const defaultConcurrency = 4

type tokenExchanger interface {
	ExchangeToken(ctx context.Context, appID, appSecret, token string) (*meta.Token, error)
}

// TokenRefreshJob renews the long-lived access token of every client that has
// one. A failing client never stops the others.
type TokenRefreshJob struct {
	creds       service.CredentialStore
	exchanger   tokenExchanger
	appID       string
	appSecret   string
	concurrency int
	log         *zap.Logger
}

func NewTokenRefreshJob(creds service.CredentialStore, exchanger tokenExchanger, appID, appSecret string, concurrency int) *TokenRefreshJob {
	if concurrency <= 0 {
		concurrency = defaultConcurrency
	}
	return &TokenRefreshJob{
		creds:       creds,
		exchanger:   exchanger,
		appID:       appID,
		appSecret:   appSecret,
		concurrency: concurrency,
		log:         logging.WithComponent("token_refresh"),
	}
}

func (j *TokenRefreshJob) Run(ctx context.Context) (*models.RefreshSummary, error) {
	if j.appID == "" || j.appSecret == "" {
		return nil, models.ErrMissingAppCredentials
	}

	clients, err := j.creds.ListWithToken(ctx)
	if err != nil {
		j.log.Error("unable to list clients", zap.Error(err))
		return nil, err
	}

	summary := &models.RefreshSummary{Successful: []string{}, Failed: []models.RefreshFailure{}}
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(j.concurrency)

	for _, cred := range clients {
		cred := cred
		g.Go(func() error {
			err := j.refresh(gctx, cred)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				j.log.Warn("token refresh failed", zap.String("client", cred.ClientName), zap.Error(err))
				summary.Failed = append(summary.Failed, models.RefreshFailure{Name: cred.ClientName, Reason: service.FailureMessage(err)})
				return nil
			}
			summary.Successful = append(summary.Successful, cred.ClientName)
			return nil
		})
	}
	_ = g.Wait()

	sort.Strings(summary.Successful)
	sort.Slice(summary.Failed, func(a, b int) bool { return summary.Failed[a].Name < summary.Failed[b].Name })

	j.log.Info("token refresh finished",
		zap.Int("successful", len(summary.Successful)),
		zap.Int("failed", len(summary.Failed)))
	return summary, nil
}

func (j *TokenRefreshJob) refresh(ctx context.Context, cred *models.Credentials) error {
	if err := j.creds.Unseal(cred); err != nil {
		return err
	}
	token, err := j.exchanger.ExchangeToken(ctx, j.appID, j.appSecret, cred.AccessToken)
	if err != nil {
		return err
	}
	return j.creds.Rotate(ctx, cred, token.AccessToken, token.ExpiresAt)
}
