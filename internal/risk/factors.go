package risk

import "github.com/BTreeMap/CrisisSense/internal/models"

// Defaults used when a factor has no history behind it.
const (
	defaultTimeBasedRisk          = 0.1
	defaultTriggerRisk            = 0.2
	defaultInterventionConfidence = 0.5

	maturePatternWeight   = 0.3
	immaturePatternWeight = 0.5
	// maturePatternSamples is the number of mood samples above which the pattern is mature.
	maturePatternSamples = 3

	hourFrequencyScale    = 10.0
	triggerFrequencyScale = 5.0
	effectivenessScale    = 10.0
)

// Composite score weights and bounds.
const (
	timeWeight         = 0.25
	triggerWeight      = 0.35
	interventionWeight = 0.25
	patternWeight      = 0.15

	MinCompositeScore = 0.05
	MaxCompositeScore = 0.95
)

// ComputeRiskFactors turns the ranked analyzer outputs into the four normalized risk
// factors. temporal, triggers and interventions must be sorted as returned by the
// analyzer; moodSamples is the number of valid mood check-ins on record.
func ComputeRiskFactors(
	temporal []models.HourFrequency,
	triggers []models.TriggerFrequency,
	interventions []models.InterventionScore,
	currentHour int,
	moodSamples int,
) models.RiskFactors {
	f := models.RiskFactors{
		TimeBasedRisk:          defaultTimeBasedRisk,
		TriggerRisk:            defaultTriggerRisk,
		InterventionConfidence: defaultInterventionConfidence,
		OverallPattern:         immaturePatternWeight,
	}

	for _, h := range temporal {
		if h.Hour == currentHour {
			f.TimeBasedRisk = clamp01(float64(h.Frequency) / hourFrequencyScale)
			break
		}
	}
	if len(triggers) > 0 {
		f.TriggerRisk = clamp01(float64(triggers[0].Frequency) / triggerFrequencyScale)
	}
	if len(interventions) > 0 {
		f.InterventionConfidence = clamp01(interventions[0].AverageEffectiveness / effectivenessScale)
	}
	if moodSamples > maturePatternSamples {
		f.OverallPattern = maturePatternWeight
	}
	return f
}

// RiskFactors computes the risk factors for the analyzer's current hour.
func (a Analyzer) RiskFactors(resolutions []models.CrisisResolution, checkIns []models.CheckIn) models.RiskFactors {
	return ComputeRiskFactors(
		a.TemporalPatterns(resolutions),
		a.TriggerFrequencies(resolutions),
		a.InterventionEffectiveness(resolutions),
		a.CurrentHour(),
		moodSampleCount(checkIns),
	)
}

// CompositeScore combines risk factors into the long-horizon risk estimate. The result
// is kept within [0.05, 0.95].
func CompositeScore(f models.RiskFactors) float64 {
	score := timeWeight*f.TimeBasedRisk +
		triggerWeight*f.TriggerRisk +
		interventionWeight*(1-f.InterventionConfidence) +
		patternWeight*f.OverallPattern
	return clamp(score, MinCompositeScore, MaxCompositeScore)
}

func moodSampleCount(checkIns []models.CheckIn) int {
	n := 0
	for _, c := range checkIns {
		if models.IsValidRating(c.MoodRating) {
			n++
		}
	}
	return n
}
