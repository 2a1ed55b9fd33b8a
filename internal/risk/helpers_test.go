package risk

import (
	"context"
	"io"
	"log/slog"
	"math"
	"sync/atomic"
	"time"

	"github.com/BTreeMap/CrisisSense/internal/models"
)

var testNow = time.Date(2026, 10, 17, 14, 30, 0, 0, time.UTC)

func testAnalyzer() Analyzer {
	return NewAnalyzer(WithLocation(time.UTC), WithClock(func() time.Time { return testNow }))
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func rating(v int) *int { return &v }

func resolutionAt(hour int, notes string, r *int, interventions ...string) models.CrisisResolution {
	start := time.Date(2026, 10, 1, hour, 5, 0, 0, time.UTC)
	return models.CrisisResolution{
		ID:                  "r",
		UserID:              "u1",
		CrisisStartTime:     start,
		ResolutionTime:      start.Add(30 * time.Minute),
		InterventionsUsed:   interventions,
		EffectivenessRating: r,
		Notes:               notes,
		SafetyConfirmed:     true,
	}
}

func checkInAgo(ago time.Duration, mood int) models.CheckIn {
	return models.CheckIn{UserID: "u1", Timestamp: testNow.Add(-ago), MoodRating: mood}
}

// checkInsNewestFirst builds check-ins one hour apart, the first being the newest.
func checkInsNewestFirst(moods ...int) []models.CheckIn {
	out := make([]models.CheckIn, len(moods))
	for i, m := range moods {
		out[i] = checkInAgo(time.Duration(i+1)*time.Hour, m)
	}
	return out
}

func approxEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

type fakeSource struct {
	history models.History
	err     error
	calls   atomic.Int32
}

func (f *fakeSource) FetchHistory(ctx context.Context, userID string) (models.History, error) {
	f.calls.Add(1)
	if f.err != nil {
		return models.History{}, f.err
	}
	return f.history, nil
}
