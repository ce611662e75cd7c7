// Package app assembles repositories, the Graph client and services from config.
package app

import (
	"database/sql"
	"net/http"

	config "github.com/maheshrc27/contentflow/configs"
	job "github.com/maheshrc27/contentflow/internal/jobs"
	"github.com/maheshrc27/contentflow/internal/meta"
	"github.com/maheshrc27/contentflow/internal/repository"
	"github.com/maheshrc27/contentflow/internal/service"
)

type Components struct {
	Posts        repository.PostRepository
	Attempts     repository.PublishAttemptRepository
	Credentials  service.CredentialStore
	Graph        *meta.Client
	Publisher    service.PublisherService
	Delivery     service.DeliveryService
	TokenRefresh *job.TokenRefreshJob
	OverduePosts *job.OverduePostJob
}

func Build(cfg *config.Config, db *sql.DB) *Components {
	postRepo := repository.NewPostRepository(db)
	clientRepo := repository.NewClientRepository(db)
	attemptRepo := repository.NewPublishAttemptRepository(db)

	graph := meta.NewClient(cfg.Meta.GraphBaseURL,
		meta.WithHTTPClient(&http.Client{Timeout: cfg.Meta.HTTPTimeout}),
		meta.WithPolling(cfg.Meta.PollInterval, cfg.Meta.MaxPollAttempts),
	)

	credentials := service.NewCredentialStore(clientRepo, cfg.SecretKey)
	publisher := service.NewPublisherService(graph)
	delivery := service.NewDeliveryService(postRepo, attemptRepo, credentials, publisher, cfg.Jobs.ClaimTTL)

	return &Components{
		Posts:        postRepo,
		Attempts:     attemptRepo,
		Credentials:  credentials,
		Graph:        graph,
		Publisher:    publisher,
		Delivery:     delivery,
		TokenRefresh: job.NewTokenRefreshJob(credentials, graph, cfg.Meta.AppID, cfg.Meta.AppSecret, cfg.Jobs.Concurrency),
		OverduePosts: job.NewOverduePostJob(postRepo, delivery, cfg.Jobs.ScanLookback),
	}
}
