package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/maheshrc27/contentflow/internal/models"
	"github.com/maheshrc27/contentflow/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func approvedPost(id string) *models.Post {
	return &models.Post{
		ID:            id,
		ClientID:      "client-1",
		PostType:      models.PostTypePhoto,
		MediaURLs:     []string{"https://cdn.example.com/a.jpg"},
		Status:        models.PostStatusApproved,
		ScheduledDate: time.Now().Add(-time.Minute),
	}
}

func newTestDelivery(posts *testutil.MemPostRepo, pub PublisherService) (DeliveryService, *testutil.MemAttemptRepo) {
	attempts := &testutil.MemAttemptRepo{}
	creds := &testutil.StaticCredentials{Creds: map[string]*models.Credentials{
		"client-1": {ClientID: "client-1", InstagramAccountID: "1784", AccessToken: "tok"},
	}}
	return NewDeliveryService(posts, attempts, creds, pub, time.Minute), attempts
}

func TestDeliverPublishesAndMarks(t *testing.T) {
	posts := testutil.NewMemPostRepo(approvedPost("post-1"))
	pub := &testutil.CountingPublisher{}
	svc, attempts := newTestDelivery(posts, pub)

	outcome := svc.Deliver(context.Background(), approvedPost("post-1"))
	assert.Equal(t, models.OutcomePublished, outcome.Status)
	assert.Equal(t, "media-1", outcome.MediaID)
	assert.Equal(t, models.PostStatusPublished, posts.Status("post-1"))
	require.Len(t, attempts.Attempts, 1)
	assert.Equal(t, "media-1", attempts.Attempts[0].ExternalID)
}

func TestDeliverFailureReleasesClaim(t *testing.T) {
	posts := testutil.NewMemPostRepo(approvedPost("post-1"))
	pub := &testutil.CountingPublisher{Err: &models.CredentialExpiredError{Detail: "expired"}}
	svc, attempts := newTestDelivery(posts, pub)

	outcome := svc.Deliver(context.Background(), approvedPost("post-1"))
	assert.Equal(t, models.OutcomeFailed, outcome.Status)
	assert.Equal(t, models.CredentialRenewalMessage, outcome.Error)
	assert.Equal(t, models.PostStatusApproved, posts.Status("post-1"))
	require.Len(t, attempts.Attempts, 1)
	assert.Equal(t, models.CredentialRenewalMessage, attempts.Attempts[0].ErrorMessage)

	// released, so a retry can claim it again
	pub.Err = nil
	outcome = svc.Deliver(context.Background(), approvedPost("post-1"))
	assert.Equal(t, models.OutcomePublished, outcome.Status)
}

func TestDeliverSkipsPublishedPost(t *testing.T) {
	post := approvedPost("post-1")
	post.Status = models.PostStatusPublished
	posts := testutil.NewMemPostRepo(post)
	pub := &testutil.CountingPublisher{}
	svc, _ := newTestDelivery(posts, pub)

	outcome := svc.Deliver(context.Background(), post)
	assert.Equal(t, models.OutcomeSkipped, outcome.Status)
	assert.Zero(t, pub.Calls())
}

func TestDeliverConcurrentCallersPublishOnce(t *testing.T) {
	posts := testutil.NewMemPostRepo(approvedPost("post-1"))
	pub := &testutil.CountingPublisher{Delay: 20 * time.Millisecond}
	svc, _ := newTestDelivery(posts, pub)

	var wg sync.WaitGroup
	outcomes := make([]models.PostOutcome, 8)
	for i := range outcomes {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			outcomes[i] = svc.Deliver(context.Background(), approvedPost("post-1"))
		}(i)
	}
	wg.Wait()

	published := 0
	for _, o := range outcomes {
		if o.Status == models.OutcomePublished {
			published++
		} else {
			assert.Equal(t, models.OutcomeSkipped, o.Status)
		}
	}
	assert.Equal(t, 1, published)
	assert.Equal(t, 1, pub.Calls())
}

func TestPublishNow(t *testing.T) {
	t.Run("ad hoc post", func(t *testing.T) {
		pub := &testutil.CountingPublisher{}
		svc, _ := newTestDelivery(testutil.NewMemPostRepo(), pub)

		result, err := svc.PublishNow(context.Background(), "client-1", &models.Post{PostType: models.PostTypePhoto})
		require.NoError(t, err)
		assert.Equal(t, "media-1", result.MediaID)
	})

	t.Run("unknown client", func(t *testing.T) {
		svc, _ := newTestDelivery(testutil.NewMemPostRepo(), &testutil.CountingPublisher{})
		_, err := svc.PublishNow(context.Background(), "nobody", &models.Post{PostType: models.PostTypePhoto})
		assert.ErrorIs(t, err, models.ErrClientNotFound)
	})

	t.Run("unknown stored post", func(t *testing.T) {
		pub := &testutil.CountingPublisher{}
		svc, _ := newTestDelivery(testutil.NewMemPostRepo(), pub)
		_, err := svc.PublishNow(context.Background(), "client-1", approvedPost("ghost"))
		assert.ErrorIs(t, err, models.ErrPostNotFound)
		assert.Zero(t, pub.Calls())
	})

	t.Run("stored post of another client", func(t *testing.T) {
		posts := testutil.NewMemPostRepo(approvedPost("post-1"))
		pub := &testutil.CountingPublisher{}
		svc, _ := newTestDelivery(posts, pub)

		_, err := svc.PublishNow(context.Background(), "client-2", &models.Post{
			ID:        "post-1",
			PostType:  models.PostTypePhoto,
			MediaURLs: []string{"https://other.example.com/b.jpg"},
		})
		assert.ErrorIs(t, err, models.ErrForbidden)
		assert.Zero(t, pub.Calls())
		assert.Equal(t, models.PostStatusApproved, posts.Status("post-1"))
	})

	t.Run("stored content wins over request body", func(t *testing.T) {
		posts := testutil.NewMemPostRepo(approvedPost("post-1"))
		pub := &testutil.CountingPublisher{}
		svc, _ := newTestDelivery(posts, pub)

		result, err := svc.PublishNow(context.Background(), "client-1", &models.Post{
			ID:        "post-1",
			Caption:   "edited in transit",
			PostType:  models.PostTypeReel,
			MediaURLs: []string{"https://other.example.com/b.mp4"},
		})
		require.NoError(t, err)
		assert.Equal(t, "media-1", result.MediaID)

		got := pub.LastPost()
		require.NotNil(t, got)
		assert.Equal(t, models.PostTypePhoto, got.PostType)
		assert.Equal(t, []string{"https://cdn.example.com/a.jpg"}, got.MediaURLs)
		assert.Empty(t, got.Caption)
		assert.Equal(t, models.PostStatusPublished, posts.Status("post-1"))
	})

	t.Run("already published", func(t *testing.T) {
		post := approvedPost("post-1")
		post.Status = models.PostStatusPublished
		pub := &testutil.CountingPublisher{}
		svc, _ := newTestDelivery(testutil.NewMemPostRepo(post), pub)
		_, err := svc.PublishNow(context.Background(), "client-1", post)
		assert.ErrorIs(t, err, models.ErrPublishInProgress)
		assert.Zero(t, pub.Calls())
	})
}

func TestDeliverRenewsClaimDuringLongPublish(t *testing.T) {
	posts := testutil.NewMemPostRepo(approvedPost("post-1"))
	pub := &testutil.CountingPublisher{Delay: 300 * time.Millisecond}
	creds := &testutil.StaticCredentials{Creds: map[string]*models.Credentials{
		"client-1": {ClientID: "client-1", InstagramAccountID: "1784", AccessToken: "tok"},
	}}
	svc := NewDeliveryService(posts, &testutil.MemAttemptRepo{}, creds, pub, 60*time.Millisecond)

	first := make(chan models.PostOutcome, 1)
	go func() { first <- svc.Deliver(context.Background(), approvedPost("post-1")) }()

	// well past the TTL; the running publish keeps the lease alive
	time.Sleep(150 * time.Millisecond)
	second := svc.Deliver(context.Background(), approvedPost("post-1"))

	assert.Equal(t, models.OutcomeSkipped, second.Status)
	assert.Equal(t, models.OutcomePublished, (<-first).Status)
	assert.Equal(t, 1, pub.Calls())
}

func TestDeliverAbandonsPublishWhenClaimLost(t *testing.T) {
	posts := testutil.LosingClaimRepo{MemPostRepo: testutil.NewMemPostRepo(approvedPost("post-1"))}
	pub := &testutil.CountingPublisher{Delay: time.Second}
	creds := &testutil.StaticCredentials{Creds: map[string]*models.Credentials{
		"client-1": {ClientID: "client-1", InstagramAccountID: "1784", AccessToken: "tok"},
	}}
	attempts := &testutil.MemAttemptRepo{}
	svc := NewDeliveryService(posts, attempts, creds, pub, 30*time.Millisecond)

	start := time.Now()
	outcome := svc.Deliver(context.Background(), approvedPost("post-1"))

	assert.Equal(t, models.OutcomeSkipped, outcome.Status)
	assert.Less(t, time.Since(start), time.Second)
	assert.Equal(t, models.PostStatusApproved, posts.Status("post-1"))
	assert.Empty(t, attempts.Attempts)
}
