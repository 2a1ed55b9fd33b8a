package risk

import (
	"math"
	"sort"
	"time"

	"github.com/BTreeMap/CrisisSense/internal/models"
)

const (
	// PrecursorMoodCeiling is the highest mood rating that counts as a crisis precursor.
	PrecursorMoodCeiling = 3

	recentCheckInWindow = 7 * 24 * time.Hour
	precursorWindow     = 30 * 24 * time.Hour
	trendSampleSize     = 5

	moodMidpoint        = 5.0
	moodRiskWeight      = 0.4
	trendRiskWeight     = 0.3
	frequencyWeight     = 0.3
	trendScale          = 10.0
	precursorSaturation = 5.0
)

// HighRiskThreshold is the trend score above which a user is flagged as high risk.
const HighRiskThreshold = 0.7

// IsHighRisk reports whether a trend score warrants a high-risk alert.
func IsHighRisk(trendScore float64) bool {
	return trendScore > HighRiskThreshold
}

// RecentCheckIns returns the check-ins from the last seven days, newest first.
func (a Analyzer) RecentCheckIns(checkIns []models.CheckIn) []models.CheckIn {
	cutoff := a.Now().Add(-recentCheckInWindow)
	recent := make([]models.CheckIn, 0, len(checkIns))
	for _, c := range checkIns {
		if !c.Timestamp.Before(cutoff) {
			recent = append(recent, c)
		}
	}
	sort.SliceStable(recent, func(i, j int) bool {
		return recent[i].Timestamp.After(recent[j].Timestamp)
	})
	return recent
}

// CrisisPrecursors returns the check-ins with a mood of 3 or less, newest first.
func CrisisPrecursors(checkIns []models.CheckIn) []models.CrisisPrecursor {
	precursors := make([]models.CrisisPrecursor, 0)
	for _, c := range checkIns {
		if models.IsValidRating(c.MoodRating) && c.MoodRating <= PrecursorMoodCeiling {
			precursors = append(precursors, models.CrisisPrecursor{Mood: c.MoodRating, Timestamp: c.Timestamp, Notes: c.Notes})
		}
	}
	sort.SliceStable(precursors, func(i, j int) bool {
		return precursors[i].Timestamp.After(precursors[j].Timestamp)
	})
	return precursors
}

// CalculateRiskScore is the short-horizon trend scorer. recentCheckIns must be ordered
// newest first; only the five most recent valid moods are used. A declining mood across
// those five raises the score, as do precursors within the last 30 days.
func (a Analyzer) CalculateRiskScore(recentCheckIns []models.CheckIn, precursors []models.CrisisPrecursor) float64 {
	moods := make([]int, 0, trendSampleSize)
	for _, c := range recentCheckIns {
		if len(moods) == trendSampleSize {
			break
		}
		if models.IsValidRating(c.MoodRating) {
			moods = append(moods, c.MoodRating)
		}
	}
	if len(moods) == 0 {
		return 0
	}

	sum := 0
	for _, m := range moods {
		sum += m
	}
	mean := float64(sum) / float64(len(moods))
	moodRisk := math.Max(0, (moodMidpoint-mean)/moodMidpoint) * moodRiskWeight

	newest, oldest := moods[0], moods[len(moods)-1]
	trendRisk := math.Max(0, float64(oldest-newest)/trendScale) * trendRiskWeight

	cutoff := a.Now().Add(-precursorWindow)
	recentPrecursors := 0
	for _, p := range precursors {
		if !p.Timestamp.Before(cutoff) {
			recentPrecursors++
		}
	}
	frequencyRisk := math.Min(1, float64(recentPrecursors)/precursorSaturation) * frequencyWeight

	return clamp01(moodRisk + trendRisk + frequencyRisk)
}
