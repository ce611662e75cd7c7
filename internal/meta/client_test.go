package meta

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/maheshrc27/contentflow/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return NewClient(srv.URL, WithPolling(time.Millisecond, 3))
}

func TestCreateSingleMediaContainer(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/1784/media", r.URL.Path)
		q := r.URL.Query()
		assert.Equal(t, "tok", q.Get("access_token"))
		assert.Equal(t, "https://cdn.example.com/a.jpg", q.Get("image_url"))
		assert.Equal(t, "hello", q.Get("caption"))
		assert.Empty(t, q.Get("is_carousel_item"))
		fmt.Fprint(w, `{"id":"c-1"}`)
	})

	id, err := c.CreateSingleMediaContainer(context.Background(), "1784", "tok", "https://cdn.example.com/a.jpg", "hello", false)
	require.NoError(t, err)
	assert.Equal(t, "c-1", id)
}

func TestCreateSingleMediaContainerCarouselVideoItem(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		assert.Equal(t, "VIDEO", q.Get("media_type"))
		assert.Equal(t, "https://cdn.example.com/clip.MP4", q.Get("video_url"))
		assert.Equal(t, "true", q.Get("is_carousel_item"))
		assert.Empty(t, q.Get("caption"))
		fmt.Fprint(w, `{"id":"c-2"}`)
	})

	id, err := c.CreateSingleMediaContainer(context.Background(), "1784", "tok", "https://cdn.example.com/clip.MP4", "ignored", true)
	require.NoError(t, err)
	assert.Equal(t, "c-2", id)
}

func TestCreateCarouselContainerNeedsTwoChildren(t *testing.T) {
	var calls int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
	})

	_, err := c.CreateCarouselContainer(context.Background(), "1784", "tok", []string{"only"}, "cap")
	var vErr *models.ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Zero(t, atomic.LoadInt32(&calls))
}

func TestCreateVideoContainerThumbOffset(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		assert.Equal(t, "REELS", q.Get("media_type"))
		assert.Equal(t, "1000", q.Get("thumb_offset"))
		assert.Empty(t, q.Get("cover_url"))
		fmt.Fprint(w, `{"id":"reel-1"}`)
	})

	id, err := c.CreateVideoContainer(context.Background(), "1784", "tok", "https://cdn.example.com/r.mp4", "cap", "", ReelThumbOffset)
	require.NoError(t, err)
	assert.Equal(t, "reel-1", id)
}

func TestGraphErrorMapping(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		check  func(t *testing.T, err error)
	}{
		{
			name:   "expired token",
			status: http.StatusBadRequest,
			body:   `{"error":{"message":"Error validating access token","type":"OAuthException","code":190,"error_subcode":463}}`,
			check: func(t *testing.T, err error) {
				var credErr *models.CredentialExpiredError
				require.ErrorAs(t, err, &credErr)
				assert.Equal(t, models.CredentialRenewalMessage, err.Error())
			},
		},
		{
			name:   "platform error",
			status: http.StatusBadRequest,
			body:   `{"error":{"message":"Invalid parameter","type":"OAuthException","code":100,"fbtrace_id":"abc"}}`,
			check: func(t *testing.T, err error) {
				var apiErr *models.ExternalAPIError
				require.ErrorAs(t, err, &apiErr)
				assert.Equal(t, 100, apiErr.Code)
				assert.Equal(t, "Invalid parameter", apiErr.Message)
				assert.Equal(t, "abc", apiErr.TraceID)
			},
		},
		{
			name:   "error body with 200",
			status: http.StatusOK,
			body:   `{"error":{"message":"Session expired","code":190}}`,
			check: func(t *testing.T, err error) {
				var credErr *models.CredentialExpiredError
				require.ErrorAs(t, err, &credErr)
			},
		},
		{
			name:   "non json failure",
			status: http.StatusBadGateway,
			body:   `upstream down`,
			check: func(t *testing.T, err error) {
				var apiErr *models.ExternalAPIError
				require.ErrorAs(t, err, &apiErr)
				assert.Equal(t, http.StatusBadGateway, apiErr.StatusCode)
			},
		},
		{
			name:   "missing id",
			status: http.StatusOK,
			body:   `{}`,
			check: func(t *testing.T, err error) {
				var apiErr *models.ExternalAPIError
				require.ErrorAs(t, err, &apiErr)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				fmt.Fprint(w, tt.body)
			})
			_, err := c.CreateStoryContainer(context.Background(), "1784", "tok", "https://cdn.example.com/s.png", false)
			require.Error(t, err)
			tt.check(t, err)
		})
	}
}

func TestAwaitProcessing(t *testing.T) {
	t.Run("finishes after polling", func(t *testing.T) {
		var polls int32
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, http.MethodGet, r.Method)
			assert.Equal(t, "/cont-1", r.URL.Path)
			assert.Equal(t, "status_code,status", r.URL.Query().Get("fields"))
			if atomic.AddInt32(&polls, 1) < 3 {
				fmt.Fprint(w, `{"id":"cont-1","status_code":"IN_PROGRESS"}`)
				return
			}
			fmt.Fprint(w, `{"id":"cont-1","status_code":"FINISHED"}`)
		})

		require.NoError(t, c.AwaitProcessing(context.Background(), "cont-1", "tok"))
		assert.Equal(t, int32(3), atomic.LoadInt32(&polls))
	})

	t.Run("processing error", func(t *testing.T) {
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprint(w, `{"id":"cont-1","status_code":"ERROR","status":"Error: unsupported codec"}`)
		})

		err := c.AwaitProcessing(context.Background(), "cont-1", "tok")
		var pErr *models.ProcessingError
		require.ErrorAs(t, err, &pErr)
		assert.Equal(t, "Error: unsupported codec", pErr.Status)
	})

	t.Run("timeout after ceiling", func(t *testing.T) {
		var polls int32
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			atomic.AddInt32(&polls, 1)
			fmt.Fprint(w, `{"id":"cont-1","status_code":"IN_PROGRESS"}`)
		})

		err := c.AwaitProcessing(context.Background(), "cont-1", "tok")
		var tErr *models.TimeoutError
		require.ErrorAs(t, err, &tErr)
		assert.Equal(t, 3, tErr.Attempts)
		assert.Equal(t, int32(3), atomic.LoadInt32(&polls))
	})

	t.Run("context cancelled", func(t *testing.T) {
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprint(w, `{"id":"cont-1","status_code":"IN_PROGRESS"}`)
		})
		c.pollInterval = time.Hour

		ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
		defer cancel()
		err := c.AwaitProcessing(ctx, "cont-1", "tok")
		assert.True(t, errors.Is(err, context.DeadlineExceeded))
	})
}

func TestPublishScheduledTime(t *testing.T) {
	when := time.Date(2026, 11, 20, 15, 30, 45, 0, time.UTC)
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/1784/media_publish", r.URL.Path)
		q := r.URL.Query()
		assert.Equal(t, "cont-9", q.Get("creation_id"))
		assert.Equal(t, fmt.Sprint(when.Unix()), q.Get("scheduled_publish_time"))
		fmt.Fprint(w, `{"id":"media-9"}`)
	})

	id, err := c.Publish(context.Background(), "1784", "tok", "cont-9", &when)
	require.NoError(t, err)
	assert.Equal(t, "media-9", id)
}

func TestPublishPageCarousel(t *testing.T) {
	var photos int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		switch r.URL.Path {
		case "/page-1/photos":
			assert.Equal(t, "false", q.Get("published"))
			n := atomic.AddInt32(&photos, 1)
			fmt.Fprintf(w, `{"id":"ph-%d"}`, n)
		case "/page-1/feed":
			assert.Equal(t, `{"media_fbid":"ph-1"}`, q.Get("attached_media[0]"))
			assert.Equal(t, `{"media_fbid":"ph-2"}`, q.Get("attached_media[1]"))
			assert.Equal(t, "caption", q.Get("message"))
			assert.Empty(t, q.Get("scheduled_publish_time"))
			fmt.Fprint(w, `{"id":"page-1_post"}`)
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
		}
	})

	id, err := c.PublishPageCarousel(context.Background(), "page-1", "tok",
		[]string{"https://cdn.example.com/1.jpg", "https://cdn.example.com/2.jpg"}, "caption", nil)
	require.NoError(t, err)
	assert.Equal(t, "page-1_post", id)
}

func TestExchangeToken(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/oauth/access_token", r.URL.Path)
		q := r.URL.Query()
		assert.Equal(t, "fb_exchange_token", q.Get("grant_type"))
		assert.Equal(t, "app", q.Get("client_id"))
		assert.Equal(t, "secret", q.Get("client_secret"))
		assert.Equal(t, "old", q.Get("fb_exchange_token"))
		fmt.Fprint(w, `{"access_token":"new","token_type":"bearer","expires_in":5184000}`)
	})

	tok, err := c.ExchangeToken(context.Background(), "app", "secret", "old")
	require.NoError(t, err)
	assert.Equal(t, "new", tok.AccessToken)
	require.NotNil(t, tok.ExpiresAt)
	assert.WithinDuration(t, time.Now().Add(60*24*time.Hour), *tok.ExpiresAt, time.Minute)
}

func TestMediaKind(t *testing.T) {
	assert.True(t, IsVideoURL("https://cdn.example.com/v/clip.mov?sig=abc"))
	assert.True(t, IsVideoURL("https://cdn.example.com/clip.mp4"))
	assert.True(t, IsImageURL("https://cdn.example.com/photo.JPEG"))
	assert.True(t, IsImageURL("https://cdn.example.com/photo.png"))
	assert.False(t, IsVideoURL("https://cdn.example.com/photo.png"))
	assert.False(t, IsVideoURL("https://cdn.example.com/noext"))
}
