package risk

import (
	"sort"

	"github.com/BTreeMap/CrisisSense/internal/models"
)

const (
	hoursPerDay = 24
	// vulnerableHourThreshold is the share of all crises an hour must exceed to be reported.
	vulnerableHourThreshold = 0.1
)

// hourHistogram counts crisis start times per hour of day. Records without a start
// time are skipped; total is the number of records counted.
func (a Analyzer) hourHistogram(resolutions []models.CrisisResolution) (counts [hoursPerDay]int, total int) {
	for _, r := range resolutions {
		hour, ok := a.hourOf(r.CrisisStartTime)
		if !ok {
			continue
		}
		counts[hour]++
		total++
	}
	return counts, total
}

// TemporalPatterns groups crises by the hour of day they started, most frequent first.
// Hours without any crisis are omitted.
func (a Analyzer) TemporalPatterns(resolutions []models.CrisisResolution) []models.HourFrequency {
	counts, _ := a.hourHistogram(resolutions)

	patterns := make([]models.HourFrequency, 0, hoursPerDay)
	for hour, n := range counts {
		if n > 0 {
			patterns = append(patterns, models.HourFrequency{Hour: hour, Frequency: n})
		}
	}
	sort.SliceStable(patterns, func(i, j int) bool {
		return patterns[i].Frequency > patterns[j].Frequency
	})
	return patterns
}

// VulnerableHours returns the hours holding more than 10% of all recorded crises,
// ordered by probability, highest first. Empty input yields an empty slice.
func (a Analyzer) VulnerableHours(resolutions []models.CrisisResolution) []models.HourProbability {
	counts, total := a.hourHistogram(resolutions)
	hours := make([]models.HourProbability, 0)
	if total == 0 {
		return hours
	}

	for hour, n := range counts {
		p := float64(n) / float64(total)
		if p > vulnerableHourThreshold {
			hours = append(hours, models.HourProbability{Hour: hour, Probability: clamp01(p)})
		}
	}
	sort.SliceStable(hours, func(i, j int) bool {
		return hours[i].Probability > hours[j].Probability
	})
	return hours
}
