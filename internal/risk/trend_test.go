package risk

import (
	"testing"
	"time"

	"github.com/BTreeMap/CrisisSense/internal/models"
)

func precursorsAgo(days ...int) []models.CrisisPrecursor {
	out := make([]models.CrisisPrecursor, len(days))
	for i, d := range days {
		out[i] = models.CrisisPrecursor{Mood: 2, Timestamp: testNow.Add(-time.Duration(d) * 24 * time.Hour)}
	}
	return out
}

func TestCalculateRiskScore(t *testing.T) {
	tests := []struct {
		name       string
		moods      []int // newest first
		precursors []models.CrisisPrecursor
		want       float64
	}{
		{"no check-ins", nil, precursorsAgo(1, 2), 0},
		// mean 4.8 -> 0.016; mood fell from 9 to 2 -> 0.21
		{"declining", []int{2, 2, 3, 8, 9}, nil, 0.016 + 0.21},
		{"improving", []int{9, 8, 3, 2, 2}, nil, 0.016},
		{"flat", []int{6, 6, 6}, nil, 0},
		{"only five most recent", []int{5, 5, 5, 5, 5, 1}, nil, 0},
		{"invalid moods skipped", []int{0, 5, 11, 5}, nil, 0},
		{"recent precursors", []int{5}, precursorsAgo(1, 10, 29, 45), 3.0 / 5 * 0.3},
		{"precursors saturate", []int{5}, precursorsAgo(1, 2, 3, 4, 5, 6, 7, 8), 0.3},
		// mean 2.8 -> 0.176; fell from 10 to 1 -> 0.27; saturated precursors -> 0.3
		{"worst case", []int{1, 1, 1, 1, 10}, precursorsAgo(1, 2, 3, 4, 5), 0.746},
	}
	a := testAnalyzer()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := a.CalculateRiskScore(checkInsNewestFirst(tt.moods...), tt.precursors)
			if !approxEqual(got, tt.want) {
				t.Errorf("CalculateRiskScore() = %v, want %v", got, tt.want)
			}
			if got < 0 || got > 1 {
				t.Errorf("score %v out of [0,1]", got)
			}
		})
	}
}

func TestRecentCheckIns(t *testing.T) {
	a := testAnalyzer()
	checkIns := []models.CheckIn{
		checkInAgo(3*24*time.Hour, 4),
		checkInAgo(8*24*time.Hour, 2),
		checkInAgo(time.Hour, 7),
		checkInAgo(7*24*time.Hour, 5), // boundary is inclusive
	}
	got := a.RecentCheckIns(checkIns)
	if len(got) != 3 {
		t.Fatalf("expected 3 recent check-ins, got %d", len(got))
	}
	wantMoods := []int{7, 4, 5}
	for i, c := range got {
		if c.MoodRating != wantMoods[i] {
			t.Errorf("check-in %d mood = %d, want %d", i, c.MoodRating, wantMoods[i])
		}
	}
}

func TestCrisisPrecursors(t *testing.T) {
	checkIns := []models.CheckIn{
		checkInAgo(48*time.Hour, 3),
		checkInAgo(2*time.Hour, 4),
		checkInAgo(time.Hour, 1),
		checkInAgo(30*time.Minute, 0),
	}
	got := CrisisPrecursors(checkIns)
	if len(got) != 2 {
		t.Fatalf("expected 2 precursors, got %v", got)
	}
	if got[0].Mood != 1 || got[1].Mood != 3 {
		t.Errorf("expected precursors newest first with moods [1 3], got %v", got)
	}
	if empty := CrisisPrecursors(nil); empty == nil || len(empty) != 0 {
		t.Errorf("expected empty non-nil slice, got %#v", empty)
	}
}

func TestAnalyzePatterns(t *testing.T) {
	a := testAnalyzer()
	resolutions := []models.CrisisResolution{
		resolutionAt(23, "", rating(8), "breathing"),
		resolutionAt(23, "", rating(6), "breathing"),
	}
	checkIns := []models.CheckIn{
		checkInAgo(time.Hour, 2),
		checkInAgo(2*time.Hour, 6),
		checkInAgo(20*24*time.Hour, 1), // precursor, but too old for the trend window
	}

	got := a.AnalyzePatterns(resolutions, checkIns)

	if s := got.InterventionStats["breathing"]; s.Count != 2 || !approxEqual(s.AverageEffectiveness, 7) {
		t.Errorf("unexpected breathing stats: %+v", s)
	}
	if len(got.CrisisPrecursors) != 2 {
		t.Errorf("expected 2 precursors, got %v", got.CrisisPrecursors)
	}
	// moods [2 6]: mean 4 -> 0.08; fell from 6 to 2 -> 0.12; 2 precursors in 30 days -> 0.12
	if !approxEqual(got.RiskScore, 0.32) {
		t.Errorf("RiskScore = %v, want 0.32", got.RiskScore)
	}
	if len(got.VulnerableHours) != 1 || got.VulnerableHours[0].Hour != 23 {
		t.Errorf("unexpected vulnerable hours %v", got.VulnerableHours)
	}
}

func TestAnalyzePatterns_Empty(t *testing.T) {
	got := testAnalyzer().AnalyzePatterns(nil, nil)
	if got.InterventionStats == nil || got.CrisisPrecursors == nil || got.VulnerableHours == nil {
		t.Errorf("expected empty collections rather than nil, got %+v", got)
	}
	if got.RiskScore != 0 {
		t.Errorf("RiskScore = %v, want 0", got.RiskScore)
	}
}

func TestIsHighRisk(t *testing.T) {
	if IsHighRisk(0.7) {
		t.Error("0.7 must not be flagged")
	}
	if !IsHighRisk(0.746) {
		t.Error("0.746 must be flagged")
	}
}
