package risk

import (
	"sort"
	"strings"

	"github.com/BTreeMap/CrisisSense/internal/models"
)

const (
	// RecommendationThreshold is the minimum average effectiveness for a personal recommendation.
	RecommendationThreshold = 7.0
	// MaxRecommendations caps the number of interventions recommended.
	MaxRecommendations = 3
)

var defaultInterventions = []string{
	"deep breathing",
	"grounding exercise",
	"reach out to a support contact",
}

// DefaultInterventions returns the general-purpose interventions suggested when there is
// no personal history to go on. A new slice is returned on every call.
func DefaultInterventions() []string {
	return append([]string(nil), defaultInterventions...)
}

// InterventionStats aggregates effectiveness ratings per intervention tag. Unrated
// records and ratings outside 1-10 are skipped, and a tag is counted once per record.
// Tags with no rated use are left out.
func (a Analyzer) InterventionStats(resolutions []models.CrisisResolution) map[string]models.InterventionStat {
	stats := make(map[string]models.InterventionStat)
	for _, r := range resolutions {
		if !r.HasValidRating() {
			continue
		}
		rating := *r.EffectivenessRating
		for _, tag := range uniqueTags(r.InterventionsUsed) {
			s := stats[tag]
			s.Count++
			s.TotalEffectiveness += rating
			stats[tag] = s
		}
	}
	for tag, s := range stats {
		s.AverageEffectiveness = float64(s.TotalEffectiveness) / float64(s.Count)
		stats[tag] = s
	}
	return stats
}

// InterventionEffectiveness ranks interventions by mean effectiveness, highest first.
func (a Analyzer) InterventionEffectiveness(resolutions []models.CrisisResolution) []models.InterventionScore {
	return rankInterventions(a.InterventionStats(resolutions))
}

func rankInterventions(stats map[string]models.InterventionStat) []models.InterventionScore {
	ranked := make([]models.InterventionScore, 0, len(stats))
	for tag, s := range stats {
		if s.Count == 0 {
			continue
		}
		ranked = append(ranked, models.InterventionScore{Intervention: tag, AverageEffectiveness: s.AverageEffectiveness})
	}
	sortInterventionScores(ranked)
	return ranked
}

func sortInterventionScores(scores []models.InterventionScore) {
	sort.Slice(scores, func(i, j int) bool {
		if scores[i].AverageEffectiveness != scores[j].AverageEffectiveness {
			return scores[i].AverageEffectiveness > scores[j].AverageEffectiveness
		}
		return scores[i].Intervention < scores[j].Intervention
	})
}

// RecommendInterventions picks up to three interventions whose average effectiveness is
// at least 7, best first. It returns nil when none qualifies.
func RecommendInterventions(ranked []models.InterventionScore) []string {
	candidates := make([]models.InterventionScore, 0, len(ranked))
	for _, s := range ranked {
		if s.AverageEffectiveness >= RecommendationThreshold {
			candidates = append(candidates, s)
		}
	}
	sortInterventionScores(candidates)

	var picks []string
	for _, s := range candidates {
		if len(picks) == MaxRecommendations {
			break
		}
		picks = append(picks, s.Intervention)
	}
	return picks
}

// uniqueTags trims tags, drops blanks and removes repeats within a single record.
func uniqueTags(tags []string) []string {
	if len(tags) == 0 {
		return nil
	}
	seen := make(map[string]bool, len(tags))
	out := make([]string, 0, len(tags))
	for _, tag := range tags {
		tag = strings.TrimSpace(tag)
		if tag == "" || seen[tag] {
			continue
		}
		seen[tag] = true
		out = append(out, tag)
	}
	return out
}
