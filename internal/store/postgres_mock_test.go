package store

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/BTreeMap/CrisisSense/internal/models"
	"github.com/DATA-DOG/go-sqlmock"
)

var (
	resolutionCols = []string{"id", "user_id", "crisis_start_time", "resolution_time", "interventions_used", "effectiveness_rating", "notes", "safety_confirmed"}
	checkInCols    = []string{"id", "user_id", "task_id", "recorded_at", "mood_rating", "notes", "needs_support"}
)

func newMockPostgresStore(t *testing.T) (*PostgresStore, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	mock.ExpectExec("CREATE TABLE IF NOT EXISTS crisis_resolutions").WillReturnResult(sqlmock.NewResult(0, 0))
	s, err := newPostgresStoreWithDB(db)
	if err != nil {
		t.Fatalf("newPostgresStoreWithDB failed: %v", err)
	}
	return s, mock
}

func TestPostgresStore_MigrationFailure(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}
	defer db.Close()

	mock.ExpectExec("CREATE TABLE IF NOT EXISTS crisis_resolutions").WillReturnError(errors.New("permission denied"))
	if _, err := newPostgresStoreWithDB(db); err == nil {
		t.Error("expected migration error")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unfulfilled expectations: %v", err)
	}
}

func TestPostgresStore_AddCrisisResolution(t *testing.T) {
	s, mock := newMockPostgresStore(t)
	start := time.Date(2026, 9, 3, 1, 0, 0, 0, time.UTC)
	end := start.Add(40 * time.Minute)

	mock.ExpectExec("INSERT INTO crisis_resolutions").
		WithArgs("res-1", "u1", start, end, `["breathing","walk"]`, int64(8), nil, true).
		WillReturnResult(sqlmock.NewResult(1, 1))

	got, err := s.AddCrisisResolution(context.Background(), models.CrisisResolution{
		ID:                  "res-1",
		UserID:              "u1",
		CrisisStartTime:     start,
		ResolutionTime:      end,
		InterventionsUsed:   []string{"breathing", "walk "},
		EffectivenessRating: intPtr(8),
		SafetyConfirmed:     true,
	})
	if err != nil {
		t.Fatalf("AddCrisisResolution failed: %v", err)
	}
	if got.InterventionsUsed[1] != "walk" {
		t.Errorf("expected trimmed tags, got %q", got.InterventionsUsed)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unfulfilled expectations: %v", err)
	}
}

func TestPostgresStore_AddCheckIn(t *testing.T) {
	tests := []struct {
		name    string
		checkIn models.CheckIn
		setup   func(mock sqlmock.Sqlmock)
		wantErr error
	}{
		{
			name:    "stores check-in",
			checkIn: models.CheckIn{ID: "c1", UserID: "u1", Timestamp: baseTime, MoodRating: 2, Notes: "rough day"},
			setup: func(mock sqlmock.Sqlmock) {
				mock.ExpectExec("INSERT INTO check_ins").
					WithArgs("c1", "u1", nil, baseTime, 2, "rough day", false).
					WillReturnResult(sqlmock.NewResult(1, 1))
			},
		},
		{
			name:    "rejects invalid mood before touching the database",
			checkIn: models.CheckIn{UserID: "u1", Timestamp: baseTime, MoodRating: 0},
			setup:   func(mock sqlmock.Sqlmock) {},
			wantErr: models.ErrRatingOutOfRange,
		},
		{
			name:    "database error",
			checkIn: models.CheckIn{ID: "c2", UserID: "u1", Timestamp: baseTime, MoodRating: 5},
			setup: func(mock sqlmock.Sqlmock) {
				mock.ExpectExec("INSERT INTO check_ins").WillReturnError(sql.ErrConnDone)
			},
			wantErr: sql.ErrConnDone,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, mock := newMockPostgresStore(t)
			tt.setup(mock)

			_, err := s.AddCheckIn(context.Background(), tt.checkIn)
			if tt.wantErr == nil && err != nil {
				t.Fatalf("AddCheckIn failed: %v", err)
			}
			if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
				t.Errorf("expected %v, got %v", tt.wantErr, err)
			}
			if err := mock.ExpectationsWereMet(); err != nil {
				t.Errorf("unfulfilled expectations: %v", err)
			}
		})
	}
}

func TestPostgresStore_FetchHistory(t *testing.T) {
	s, mock := newMockPostgresStore(t)
	start := time.Date(2026, 9, 3, 1, 0, 0, 0, time.UTC)

	mock.ExpectQuery("SELECT .* FROM crisis_resolutions WHERE user_id").
		WithArgs("u1").
		WillReturnRows(sqlmock.NewRows(resolutionCols).
			AddRow("r1", "u1", start, start.Add(time.Hour), []byte(`["walk"]`), int64(7), "family", true).
			AddRow("r2", "u1", start.Add(24*time.Hour), start.Add(25*time.Hour), []byte(`[]`), nil, nil, false))
	mock.ExpectQuery("SELECT .* FROM check_ins WHERE user_id").
		WithArgs("u1").
		WillReturnRows(sqlmock.NewRows(checkInCols).
			AddRow("c1", "u1", nil, start.Add(-time.Hour), int64(3), nil, true))

	h, err := s.FetchHistory(context.Background(), "u1")
	if err != nil {
		t.Fatalf("FetchHistory failed: %v", err)
	}
	if len(h.Resolutions) != 2 || len(h.CheckIns) != 1 {
		t.Fatalf("expected 2 resolutions and 1 check-in, got %+v", h)
	}
	r1, r2 := h.Resolutions[0], h.Resolutions[1]
	if r1.EffectivenessRating == nil || *r1.EffectivenessRating != 7 || r1.Notes != "family" || len(r1.InterventionsUsed) != 1 {
		t.Errorf("unexpected first resolution %+v", r1)
	}
	if r2.EffectivenessRating != nil || r2.InterventionsUsed != nil || r2.SafetyConfirmed {
		t.Errorf("unexpected second resolution %+v", r2)
	}
	if c := h.CheckIns[0]; c.MoodRating != 3 || !c.NeedsSupport || c.TaskID != "" {
		t.Errorf("unexpected check-in %+v", c)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unfulfilled expectations: %v", err)
	}
}

func TestPostgresStore_FetchHistoryErrors(t *testing.T) {
	t.Run("query error", func(t *testing.T) {
		s, mock := newMockPostgresStore(t)
		mock.ExpectQuery("SELECT .* FROM crisis_resolutions").WillReturnError(sql.ErrConnDone)
		if _, err := s.FetchHistory(context.Background(), "u1"); !errors.Is(err, sql.ErrConnDone) {
			t.Errorf("expected sql.ErrConnDone, got %v", err)
		}
	})
	t.Run("corrupt interventions", func(t *testing.T) {
		s, mock := newMockPostgresStore(t)
		mock.ExpectQuery("SELECT .* FROM crisis_resolutions").
			WillReturnRows(sqlmock.NewRows(resolutionCols).
				AddRow("r1", "u1", baseTime, baseTime, []byte(`{not json`), nil, nil, false))
		if _, err := s.FetchHistory(context.Background(), "u1"); err == nil {
			t.Error("expected a decode error")
		}
	})
}
