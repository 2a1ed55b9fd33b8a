package models

import (
	"errors"
	"strings"
	"time"
)

// Validation constants for records entering the store.
const (
	// MinRating is the lowest valid effectiveness or mood rating.
	MinRating = 1
	// MaxRating is the highest valid effectiveness or mood rating.
	MaxRating = 10
	// MaxNotesLength is the maximum allowed length of free-text notes, in bytes.
	MaxNotesLength = 5000
	// MaxInterventionTagLength is the maximum allowed length of a single intervention tag.
	MaxInterventionTagLength = 100
)

var (
	ErrEmptyUserID            = errors.New("user id cannot be empty")
	ErrMissingStartTime       = errors.New("crisis start time is required")
	ErrResolutionBeforeStart  = errors.New("resolution time must not precede crisis start time")
	ErrRatingOutOfRange       = errors.New("rating must be between 1 and 10")
	ErrNotesTooLong           = errors.New("notes exceed maximum length")
	ErrEmptyInterventionTag   = errors.New("intervention tag cannot be empty")
	ErrInterventionTagTooLong = errors.New("intervention tag exceeds maximum length")
	ErrMissingTimestamp       = errors.New("check-in timestamp is required")
)

// CrisisResolution is a single resolved crisis as recorded by the user.
type CrisisResolution struct {
	ID                  string    `json:"id"`
	UserID              string    `json:"user_id"`
	CrisisStartTime     time.Time `json:"crisis_start_time"`
	ResolutionTime      time.Time `json:"resolution_time"`
	InterventionsUsed   []string  `json:"interventions_used,omitempty"`
	EffectivenessRating *int      `json:"effectiveness_rating,omitempty"` // optional, 1-10
	Notes               string    `json:"notes,omitempty"`
	SafetyConfirmed     bool      `json:"safety_confirmed"`
}

// HasValidRating reports whether the record carries a rating within [MinRating, MaxRating].
func (r CrisisResolution) HasValidRating() bool {
	return r.EffectivenessRating != nil && IsValidRating(*r.EffectivenessRating)
}

// Validate checks the invariants a crisis resolution must satisfy before it is stored.
func (r *CrisisResolution) Validate() error {
	if strings.TrimSpace(r.UserID) == "" {
		return ErrEmptyUserID
	}
	if r.CrisisStartTime.IsZero() {
		return ErrMissingStartTime
	}
	if r.ResolutionTime.Before(r.CrisisStartTime) {
		return ErrResolutionBeforeStart
	}
	if r.EffectivenessRating != nil && !IsValidRating(*r.EffectivenessRating) {
		return ErrRatingOutOfRange
	}
	if len(r.Notes) > MaxNotesLength {
		return ErrNotesTooLong
	}
	for _, tag := range r.InterventionsUsed {
		if strings.TrimSpace(tag) == "" {
			return ErrEmptyInterventionTag
		}
		if len(tag) > MaxInterventionTagLength {
			return ErrInterventionTagTooLong
		}
	}
	return nil
}

// CheckIn is a mood check-in submitted by the user.
type CheckIn struct {
	ID           string    `json:"id"`
	UserID       string    `json:"user_id"`
	TaskID       string    `json:"task_id,omitempty"`
	Timestamp    time.Time `json:"timestamp"`
	MoodRating   int       `json:"mood_rating"` // 1-10
	Notes        string    `json:"notes,omitempty"`
	NeedsSupport bool      `json:"needs_support"`
}

// Validate checks the invariants a check-in must satisfy before it is stored.
func (c *CheckIn) Validate() error {
	if strings.TrimSpace(c.UserID) == "" {
		return ErrEmptyUserID
	}
	if c.Timestamp.IsZero() {
		return ErrMissingTimestamp
	}
	if !IsValidRating(c.MoodRating) {
		return ErrRatingOutOfRange
	}
	if len(c.Notes) > MaxNotesLength {
		return ErrNotesTooLong
	}
	return nil
}

// History is everything the record store knows about one user, fetched in a single call.
type History struct {
	Resolutions []CrisisResolution `json:"resolutions"`
	CheckIns    []CheckIn          `json:"check_ins"`
}

// IsValidRating checks if a rating lies within the 1-10 scale.
func IsValidRating(rating int) bool {
	return rating >= MinRating && rating <= MaxRating
}
