package service

import (
	"testing"
	"time"

	"github.com/maheshrc27/contentflow/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecidePublishTime(t *testing.T) {
	now := time.Date(2026, 10, 19, 9, 0, 0, 0, time.UTC)

	tests := []struct {
		name      string
		scheduled time.Time
		postType  string
		immediate bool
		wantErr   bool
	}{
		{"five minutes ahead", now.Add(5 * time.Minute), models.PostTypePhoto, true, false},
		{"in the past", now.Add(-2 * time.Hour), models.PostTypeCarousel, true, false},
		{"zero time", time.Time{}, models.PostTypeReel, true, false},
		{"exactly ten minutes", now.Add(MinScheduleLead), models.PostTypePhoto, false, false},
		{"thirty days", now.Add(30 * 24 * time.Hour), models.PostTypeReel, false, false},
		{"exactly seventy five days", now.Add(MaxScheduleLead), models.PostTypePhoto, false, false},
		{"seventy six days", now.Add(76 * 24 * time.Hour), models.PostTypePhoto, false, true},
		{"story thirty days", now.Add(30 * 24 * time.Hour), models.PostTypeStory, true, false},
		{"story seventy six days", now.Add(76 * 24 * time.Hour), models.PostTypeStory, true, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			timing, err := DecidePublishTime(tt.scheduled, now, tt.postType)
			if tt.wantErr {
				var wErr *models.SchedulingWindowExceededError
				require.ErrorAs(t, err, &wErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.immediate, timing.Immediate())
		})
	}
}

func TestDecidePublishTimeEpochSeconds(t *testing.T) {
	now := time.Date(2026, 10, 19, 9, 0, 0, 0, time.UTC)
	scheduled := now.Add(30*24*time.Hour + 750*time.Millisecond)

	timing, err := DecidePublishTime(scheduled, now, models.PostTypePhoto)
	require.NoError(t, err)
	require.NotNil(t, timing.ScheduledAt)
	assert.Equal(t, now.Add(30*24*time.Hour).Unix(), timing.ScheduledAt.Unix())
	assert.Zero(t, timing.ScheduledAt.Nanosecond())
}

func TestIsLateApproval(t *testing.T) {
	now := time.Now()
	assert.True(t, IsLateApproval(now.Add(9*time.Minute), now))
	assert.True(t, IsLateApproval(now.Add(-time.Minute), now))
	assert.False(t, IsLateApproval(now.Add(2*time.Hour), now))
}
