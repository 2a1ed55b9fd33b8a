package risk

import "github.com/BTreeMap/CrisisSense/internal/models"

// Scorer names.
const (
	ScorerComposite = "composite"
	ScorerTrend     = "trend"
)

// RiskScorer turns a user's history into a risk score in [0,1].
//
// Two strategies exist and answer different questions: CompositeScorer estimates
// baseline risk from long-run patterns, TrendScorer flags a recent change in mood.
type RiskScorer interface {
	Name() string
	Score(h models.History) float64
}

// CompositeScorer is the long-horizon, multi-factor scorer.
type CompositeScorer struct {
	Analyzer Analyzer
}

// Name implements RiskScorer.
func (s CompositeScorer) Name() string { return ScorerComposite }

// Score implements RiskScorer. The result lies in [0.05, 0.95].
func (s CompositeScorer) Score(h models.History) float64 {
	return CompositeScore(s.Analyzer.RiskFactors(h.Resolutions, h.CheckIns))
}

// TrendScorer is the short-horizon scorer driven by recent moods and precursors.
type TrendScorer struct {
	Analyzer Analyzer
}

// Name implements RiskScorer.
func (s TrendScorer) Name() string { return ScorerTrend }

// Score implements RiskScorer.
func (s TrendScorer) Score(h models.History) float64 {
	return s.Analyzer.CalculateRiskScore(s.Analyzer.RecentCheckIns(h.CheckIns), CrisisPrecursors(h.CheckIns))
}

var (
	_ RiskScorer = CompositeScorer{}
	_ RiskScorer = TrendScorer{}
)
