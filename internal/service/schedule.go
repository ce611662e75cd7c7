package service

import (
	"time"

	"github.com/maheshrc27/contentflow/internal/models"
)

const (
	// MinScheduleLead is the shortest lead time the platform accepts for a
	// deferred publish; anything closer is published immediately.
	MinScheduleLead = 10 * time.Minute
	// MaxScheduleLead is the furthest ahead a publish may be scheduled.
	MaxScheduleLead = 75 * 24 * time.Hour
)

// PublishTiming is the decision attached to a publish call. A nil ScheduledAt
// means publish now.
type PublishTiming struct {
	ScheduledAt *time.Time
}

func (t PublishTiming) Immediate() bool { return t.ScheduledAt == nil }

// DecidePublishTime applies the platform scheduling window. Stories are always
// immediate; a zero scheduled time is an explicit "publish now".
func DecidePublishTime(scheduled, now time.Time, postType string) (PublishTiming, error) {
	if postType == models.PostTypeStory || scheduled.IsZero() {
		return PublishTiming{}, nil
	}

	lead := scheduled.Sub(now)
	if lead > MaxScheduleLead {
		return PublishTiming{}, &models.SchedulingWindowExceededError{ScheduledDate: scheduled, Max: MaxScheduleLead}
	}
	if lead < MinScheduleLead {
		return PublishTiming{}, nil
	}

	at := time.Unix(scheduled.Unix(), 0).UTC()
	return PublishTiming{ScheduledAt: &at}, nil
}

// IsLateApproval reports whether an approval at now is too close to the
// scheduled time for a deferred publish.
func IsLateApproval(scheduled, now time.Time) bool {
	return scheduled.Sub(now) < MinScheduleLead
}
