// Package testutil holds in-memory stand-ins shared by package tests.
package testutil

import (
	"context"
	"fmt"
	"slices"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/maheshrc27/contentflow/internal/models"
)

type memPost struct {
	post      models.Post
	claim     string
	claimedAt time.Time
}

// MemPostRepo implements repository.PostRepository with the same lease rules
// as the SQL version.
type MemPostRepo struct {
	mu    sync.Mutex
	posts map[string]*memPost
}

func NewMemPostRepo(posts ...*models.Post) *MemPostRepo {
	r := &MemPostRepo{posts: map[string]*memPost{}}
	for _, p := range posts {
		r.posts[p.ID] = &memPost{post: *p}
	}
	return r
}

func (r *MemPostRepo) GetByID(_ context.Context, id string) (*models.Post, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	mp, ok := r.posts[id]
	if !ok {
		return nil, models.ErrPostNotFound
	}
	p := mp.post
	return &p, nil
}

func (r *MemPostRepo) ListDueApproved(_ context.Context, now time.Time, lookback time.Duration) ([]*models.Post, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.Post
	for _, mp := range r.posts {
		if mp.post.Status != models.PostStatusApproved || mp.post.ScheduledDate.After(now) {
			continue
		}
		if lookback > 0 && !mp.post.ScheduledDate.After(now.Add(-lookback)) {
			continue
		}
		p := mp.post
		out = append(out, &p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ScheduledDate.Before(out[j].ScheduledDate) })
	return out, nil
}

func (r *MemPostRepo) TransitionStatus(_ context.Context, postID string, from []string, to string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	mp, ok := r.posts[postID]
	if !ok || !slices.Contains(from, mp.post.Status) {
		return false, nil
	}
	mp.post.Status = to
	return true, nil
}

func (r *MemPostRepo) ClaimForPublish(_ context.Context, postID, claim string, now, staleBefore time.Time) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	mp, ok := r.posts[postID]
	if !ok || !slices.Contains(models.PublishableStatuses, mp.post.Status) {
		return false, nil
	}
	if mp.claim != "" && !mp.claimedAt.Before(staleBefore) {
		return false, nil
	}
	mp.claim, mp.claimedAt = claim, now
	return true, nil
}

func (r *MemPostRepo) RenewClaim(_ context.Context, postID, claim string, now time.Time) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	mp, ok := r.posts[postID]
	if !ok || mp.claim != claim || !slices.Contains(models.PublishableStatuses, mp.post.Status) {
		return false, nil
	}
	mp.claimedAt = now
	return true, nil
}

func (r *MemPostRepo) MarkPublished(_ context.Context, postID, claim, externalID, facebookID string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	mp, ok := r.posts[postID]
	if !ok || mp.claim != claim || !slices.Contains(models.PublishableStatuses, mp.post.Status) {
		return false, nil
	}
	mp.post.Status = models.PostStatusPublished
	mp.post.ExternalPostID = externalID
	mp.post.FacebookPostID = facebookID
	mp.claim = ""
	return true, nil
}

func (r *MemPostRepo) ReleaseClaim(_ context.Context, postID, claim string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if mp, ok := r.posts[postID]; ok && mp.claim == claim {
		mp.claim = ""
	}
	return nil
}

// Status returns the stored status of a post.
func (r *MemPostRepo) Status(id string) string {
	r.mu.Lock()
	defer r.mu.Unlock()
	if mp, ok := r.posts[id]; ok {
		return mp.post.Status
	}
	return ""
}

// MemAttemptRepo implements repository.PublishAttemptRepository.
type MemAttemptRepo struct {
	mu       sync.Mutex
	Attempts []models.PublishAttempt
}

func (r *MemAttemptRepo) Create(_ context.Context, pa *models.PublishAttempt) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	pa.ID = int64(len(r.Attempts) + 1)
	r.Attempts = append(r.Attempts, *pa)
	return pa.ID, nil
}

func (r *MemAttemptRepo) ListByPostID(_ context.Context, postID string) ([]*models.PublishAttempt, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.PublishAttempt
	for i := range r.Attempts {
		if r.Attempts[i].PostID == postID {
			pa := r.Attempts[i]
			out = append(out, &pa)
		}
	}
	return out, nil
}

// StaticCredentials hands out fixed credentials per client id.
type StaticCredentials struct {
	mu      sync.Mutex
	Creds   map[string]*models.Credentials
	Err     error
	Rotated map[string]string
}

func (s *StaticCredentials) Get(_ context.Context, clientID string) (*models.Credentials, error) {
	if s.Err != nil {
		return nil, s.Err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.Creds[clientID]
	if !ok {
		return nil, models.ErrClientNotFound
	}
	cp := *c
	return &cp, nil
}

func (s *StaticCredentials) ListWithToken(_ context.Context) ([]*models.Credentials, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*models.Credentials
	for _, c := range s.Creds {
		cp := *c
		out = append(out, &cp)
	}
	return out, nil
}

func (s *StaticCredentials) Unseal(cred *models.Credentials) error {
	cred.AccessToken = cred.SealedToken
	return nil
}

func (s *StaticCredentials) Rotate(_ context.Context, cred *models.Credentials, newToken string, expiresAt *time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Rotated == nil {
		s.Rotated = map[string]string{}
	}
	s.Rotated[cred.ClientID] = newToken
	cred.AccessToken = newToken
	cred.ExpiresAt = expiresAt
	return nil
}

// CountingPublisher records every publish it is asked to make. Delay widens
// the window in which concurrent callers can race.
type CountingPublisher struct {
	calls  atomic.Int32
	mu     sync.Mutex
	byPost map[string]int
	last   *models.Post
	Err    error
	Delay  time.Duration
}

func (p *CountingPublisher) Publish(ctx context.Context, creds *models.Credentials, post *models.Post) (*models.PublishResult, error) {
	n := p.calls.Add(1)
	p.mu.Lock()
	if p.byPost == nil {
		p.byPost = map[string]int{}
	}
	p.byPost[post.ID]++
	cp := *post
	p.last = &cp
	p.mu.Unlock()

	if p.Delay > 0 {
		select {
		case <-time.After(p.Delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if p.Err != nil {
		return nil, p.Err
	}
	return &models.PublishResult{MediaID: fmt.Sprintf("media-%d", n)}, nil
}

func (p *CountingPublisher) Calls() int { return int(p.calls.Load()) }

func (p *CountingPublisher) CallsFor(postID string) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.byPost[postID]
}

// LastPost returns a copy of the most recent post handed to Publish.
func (p *CountingPublisher) LastPost() *models.Post {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.last
}

// LosingClaimRepo is a MemPostRepo whose leases are always reported as taken
// over on renewal.
type LosingClaimRepo struct {
	*MemPostRepo
}

func (r LosingClaimRepo) RenewClaim(context.Context, string, string, time.Time) (bool, error) {
	return false, nil
}
