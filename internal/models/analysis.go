package models

import "time"

// UrgencyLevel is the severity assigned to a block of free text by the content classifier.
type UrgencyLevel string

const (
	UrgencyLow      UrgencyLevel = "low"
	UrgencyModerate UrgencyLevel = "moderate"
	UrgencyHigh     UrgencyLevel = "high"
	UrgencySevere   UrgencyLevel = "severe"
)

// String returns the string representation of the urgency level.
func (u UrgencyLevel) String() string {
	return string(u)
}

// IsValid returns true if the urgency level is a known value.
func (u UrgencyLevel) IsValid() bool {
	switch u {
	case UrgencyLow, UrgencyModerate, UrgencyHigh, UrgencySevere:
		return true
	default:
		return false
	}
}

// TextRiskAssessment is the result of scanning one free-text string for risk language.
type TextRiskAssessment struct {
	RiskIndicators              []string     `json:"risk_indicators"` // "<tier>: <keyword>"
	UrgencyLevel                UrgencyLevel `json:"urgency_level"`
	RecommendProfessionalReview bool         `json:"recommend_professional_review"`
}

// RiskFactors are the four normalized inputs of the composite risk score.
type RiskFactors struct {
	TimeBasedRisk          float64 `json:"time_based_risk"`
	TriggerRisk            float64 `json:"trigger_risk"`
	InterventionConfidence float64 `json:"intervention_confidence"`
	OverallPattern         float64 `json:"overall_pattern"`
}

// HourFrequency counts crisis events that started in a given hour of the day.
type HourFrequency struct {
	Hour      int `json:"hour"`
	Frequency int `json:"frequency"`
}

// HourProbability is the share of all crisis events that started in a given hour of the day.
type HourProbability struct {
	Hour        int     `json:"hour"`
	Probability float64 `json:"probability"`
}

// TriggerFrequency counts the records whose notes mention a trigger keyword.
type TriggerFrequency struct {
	Trigger   string `json:"trigger"`
	Frequency int    `json:"frequency"`
}

// InterventionScore is the mean effectiveness of an intervention across rated records.
type InterventionScore struct {
	Intervention         string  `json:"intervention"`
	AverageEffectiveness float64 `json:"average_effectiveness"`
}

// InterventionStat aggregates the ratings of one intervention tag.
type InterventionStat struct {
	Count                int     `json:"count"` // rated occurrences
	TotalEffectiveness   int     `json:"total_effectiveness"`
	AverageEffectiveness float64 `json:"average_effectiveness"`
}

// CrisisPrecursor is a low-mood check-in used as a proxy for an approaching low point.
type CrisisPrecursor struct {
	Mood      int       `json:"mood"`
	Timestamp time.Time `json:"timestamp"`
	Notes     string    `json:"notes,omitempty"`
}

// PatternAnalysis is the snapshot returned to callers asking for a user's patterns.
type PatternAnalysis struct {
	InterventionStats map[string]InterventionStat `json:"intervention_stats"`
	CrisisPrecursors  []CrisisPrecursor           `json:"crisis_precursors"`
	RiskScore         float64                     `json:"risk_score"`
	VulnerableHours   []HourProbability           `json:"vulnerable_hours"`
}

// RiskSummary combines both risk scores of a user for the HTTP API.
type RiskSummary struct {
	UserID    string  `json:"user_id"`
	Composite float64 `json:"composite"`
	Trend     float64 `json:"trend"`
	HighRisk  bool    `json:"high_risk"`
}

// ContentAnalysisRequest is the body of a crisis-content classification request.
type ContentAnalysisRequest struct {
	Text string `json:"text"`
}
