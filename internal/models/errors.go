package models

import (
	"errors"
	"fmt"
	"time"
)

var (
	ErrClientNotFound        = errors.New("client not found")
	ErrPostNotFound          = errors.New("post not found")
	ErrClientNotPublishable  = errors.New("client has no linked business account or access token")
	ErrInvalidTransition     = errors.New("post is not in a status that allows this action")
	ErrForbidden             = errors.New("forbidden")
	ErrMissingAppCredentials = errors.New("META_APP_ID and META_APP_SECRET must be configured")
	ErrPublishInProgress     = errors.New("post is already being published or is no longer publishable")
)

// CredentialRenewalMessage is shown for every expired or invalid token, whatever
// step of the publish flow hit it.
const CredentialRenewalMessage = "The client's Meta access token has expired or is invalid. Renew the access token in the client settings and try again."

type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

func NewValidationError(format string, args ...any) *ValidationError {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}

type CredentialExpiredError struct {
	// platform message, kept for logs
	Detail string
}

func (e *CredentialExpiredError) Error() string { return CredentialRenewalMessage }

type ExternalAPIError struct {
	StatusCode int
	Code       int
	Subcode    int
	Type       string
	Message    string
	TraceID    string
}

func (e *ExternalAPIError) Error() string {
	if e.Code != 0 {
		return fmt.Sprintf("%s (code %d)", e.Message, e.Code)
	}
	return e.Message
}

type ProcessingError struct {
	ContainerID string
	Status      string
}

func (e *ProcessingError) Error() string {
	return fmt.Sprintf("media container %s failed processing: %s", e.ContainerID, e.Status)
}

// TimeoutError means polling gave up. The container may still exist remotely.
type TimeoutError struct {
	ContainerID string
	Attempts    int
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("media container %s still processing after %d status checks", e.ContainerID, e.Attempts)
}

type SchedulingWindowExceededError struct {
	ScheduledDate time.Time
	Max           time.Duration
}

func (e *SchedulingWindowExceededError) Error() string {
	return fmt.Sprintf("scheduled date %s is more than %d days ahead", e.ScheduledDate.UTC().Format(time.RFC3339), int(e.Max.Hours()/24))
}

type UnsupportedPostTypeError struct {
	PostType string
}

func (e *UnsupportedPostTypeError) Error() string {
	return fmt.Sprintf("unsupported post type %q", e.PostType)
}
