package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/BTreeMap/CrisisSense/internal/models"
	"github.com/google/uuid"
)

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

// nilIfEmpty returns nil if s is empty, otherwise returns s.
// Used for nullable database columns.
func nilIfEmpty(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}

// nullableRating maps an optional rating onto a nullable integer column.
func nullableRating(r *int) interface{} {
	if r == nil {
		return nil
	}
	return int64(*r)
}

// prepareResolution validates r and fills in the ID. Intervention tags are trimmed.
func prepareResolution(r models.CrisisResolution) (models.CrisisResolution, error) {
	if err := r.Validate(); err != nil {
		return models.CrisisResolution{}, fmt.Errorf("invalid crisis resolution: %w", err)
	}
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	if len(r.InterventionsUsed) > 0 {
		tags := make([]string, len(r.InterventionsUsed))
		for i, tag := range r.InterventionsUsed {
			tags[i] = strings.TrimSpace(tag)
		}
		r.InterventionsUsed = tags
	}
	return r, nil
}

// prepareCheckIn validates c and fills in the ID.
func prepareCheckIn(c models.CheckIn) (models.CheckIn, error) {
	if err := c.Validate(); err != nil {
		return models.CheckIn{}, fmt.Errorf("invalid check-in: %w", err)
	}
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	return c, nil
}

// cloneResolution copies the slice and pointer fields of r.
func cloneResolution(r models.CrisisResolution) models.CrisisResolution {
	if r.InterventionsUsed != nil {
		r.InterventionsUsed = append([]string(nil), r.InterventionsUsed...)
	}
	if r.EffectivenessRating != nil {
		v := *r.EffectivenessRating
		r.EffectivenessRating = &v
	}
	return r
}

// encodeInterventions serializes intervention tags as a JSON array.
func encodeInterventions(tags []string) (string, error) {
	if tags == nil {
		tags = []string{}
	}
	b, err := json.Marshal(tags)
	if err != nil {
		return "", fmt.Errorf("failed to encode interventions: %w", err)
	}
	return string(b), nil
}

func decodeInterventions(raw []byte) ([]string, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	var tags []string
	if err := json.Unmarshal(raw, &tags); err != nil {
		return nil, fmt.Errorf("failed to decode interventions: %w", err)
	}
	if len(tags) == 0 {
		return nil, nil
	}
	return tags, nil
}

// scanResolution scans a row selected with resolutionColumns.
func scanResolution(row rowScanner) (models.CrisisResolution, error) {
	var r models.CrisisResolution
	var interventions []byte
	var rating sql.NullInt64
	var notes sql.NullString
	err := row.Scan(
		&r.ID, &r.UserID, &r.CrisisStartTime, &r.ResolutionTime,
		&interventions, &rating, &notes, &r.SafetyConfirmed,
	)
	if err != nil {
		return r, fmt.Errorf("scan crisis resolution failed: %w", err)
	}
	if r.InterventionsUsed, err = decodeInterventions(interventions); err != nil {
		return r, fmt.Errorf("crisis resolution %s: %w", r.ID, err)
	}
	if rating.Valid {
		v := int(rating.Int64)
		r.EffectivenessRating = &v
	}
	r.Notes = notes.String
	return r, nil
}

// scanCheckIn scans a row selected with checkInColumns.
func scanCheckIn(row rowScanner) (models.CheckIn, error) {
	var c models.CheckIn
	var taskID, notes sql.NullString
	err := row.Scan(&c.ID, &c.UserID, &taskID, &c.Timestamp, &c.MoodRating, &notes, &c.NeedsSupport)
	if err != nil {
		return c, fmt.Errorf("scan check-in failed: %w", err)
	}
	c.TaskID = taskID.String
	c.Notes = notes.String
	return c, nil
}

const (
	resolutionColumns = `id, user_id, crisis_start_time, resolution_time, interventions_used, effectiveness_rating, notes, safety_confirmed`
	checkInColumns    = `id, user_id, task_id, recorded_at, mood_rating, notes, needs_support`
)

// queryHistory runs the two history queries of a SQL backend. The queries must select
// resolutionColumns and checkInColumns and take the user ID as their only argument.
func queryHistory(ctx context.Context, db *sql.DB, resolutionsQuery, checkInsQuery, userID string) (models.History, error) {
	var h models.History

	rows, err := db.QueryContext(ctx, resolutionsQuery, userID)
	if err != nil {
		return h, fmt.Errorf("failed to query crisis resolutions: %w", err)
	}
	for rows.Next() {
		r, err := scanResolution(rows)
		if err != nil {
			rows.Close()
			return models.History{}, err
		}
		h.Resolutions = append(h.Resolutions, r)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return models.History{}, fmt.Errorf("failed to iterate crisis resolution rows: %w", err)
	}
	rows.Close()

	rows, err = db.QueryContext(ctx, checkInsQuery, userID)
	if err != nil {
		return models.History{}, fmt.Errorf("failed to query check-ins: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		c, err := scanCheckIn(rows)
		if err != nil {
			return models.History{}, err
		}
		h.CheckIns = append(h.CheckIns, c)
	}
	if err := rows.Err(); err != nil {
		return models.History{}, fmt.Errorf("failed to iterate check-in rows: %w", err)
	}
	return h, nil
}
