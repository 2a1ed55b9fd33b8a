package risk

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/BTreeMap/CrisisSense/internal/models"
)

// Fallback scores of PredictCrisisRisk. They must stay distinct: no history is a low
// baseline, a failed fetch is unknown and treated with caution.
const (
	NoHistoryRisk    = 0.1
	FetchFailureRisk = 0.5
)

// ErrNoHistorySource is returned when an Engine was built without a HistorySource.
var ErrNoHistorySource = errors.New("no history source configured")

// HistorySource is the record store boundary. Implementations fetch all crisis
// resolutions and check-ins of a user in one call.
type HistorySource interface {
	FetchHistory(ctx context.Context, userID string) (models.History, error)
}

// Engine runs the analyzers over histories fetched from a HistorySource. It holds no
// mutable state.
type Engine struct {
	source    HistorySource
	analyzer  Analyzer
	composite CompositeScorer
	trend     TrendScorer
	logger    *slog.Logger
}

// NewEngine creates an Engine reading from source.
func NewEngine(source HistorySource, opts ...Option) *Engine {
	var cfg Opts
	for _, opt := range opts {
		opt(&cfg)
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	analyzer := Analyzer{loc: cfg.Location, now: cfg.Now}
	return &Engine{
		source:    source,
		analyzer:  analyzer,
		composite: CompositeScorer{Analyzer: analyzer},
		trend:     TrendScorer{Analyzer: analyzer},
		logger:    logger,
	}
}

// Analyzer returns the analyzer used by the engine.
func (e *Engine) Analyzer() Analyzer {
	return e.analyzer
}

// Scorers returns the composite and trend scorers, in that order.
func (e *Engine) Scorers() []RiskScorer {
	return []RiskScorer{e.composite, e.trend}
}

func (e *Engine) fetch(ctx context.Context, userID string) (models.History, error) {
	if e.source == nil {
		return models.History{}, ErrNoHistorySource
	}
	h, err := e.source.FetchHistory(ctx, userID)
	if err != nil {
		return models.History{}, fmt.Errorf("fetch history for %s: %w", userID, err)
	}
	return h, nil
}

// PredictCrisisRisk returns the composite risk score of a user. It returns
// NoHistoryRisk when the user has no crisis resolutions and FetchFailureRisk when the
// history cannot be fetched; errors are logged, never returned.
func (e *Engine) PredictCrisisRisk(ctx context.Context, userID string) float64 {
	h, err := e.fetch(ctx, userID)
	if err != nil {
		e.logger.Warn("Engine.PredictCrisisRisk: history fetch failed, using fallback",
			"user_id", userID, "error", err, "fallback", FetchFailureRisk)
		return FetchFailureRisk
	}
	if len(h.Resolutions) == 0 {
		e.logger.Debug("Engine.PredictCrisisRisk: no crisis history", "user_id", userID, "score", NoHistoryRisk)
		return NoHistoryRisk
	}

	score := e.composite.Score(h)
	e.logger.Debug("Engine.PredictCrisisRisk: computed composite score",
		"user_id", userID, "resolutions", len(h.Resolutions), "check_ins", len(h.CheckIns), "score", score)
	return score
}

// GetPersonalizedInterventions returns up to three interventions that worked well for the
// user before. On fetch failure, or when nothing rated at least 7 on average, it returns
// DefaultInterventions.
func (e *Engine) GetPersonalizedInterventions(ctx context.Context, userID string) []string {
	h, err := e.fetch(ctx, userID)
	if err != nil {
		e.logger.Warn("Engine.GetPersonalizedInterventions: history fetch failed, using defaults",
			"user_id", userID, "error", err)
		return DefaultInterventions()
	}

	picks := RecommendInterventions(e.analyzer.InterventionEffectiveness(h.Resolutions))
	if len(picks) == 0 {
		e.logger.Debug("Engine.GetPersonalizedInterventions: no effective interventions on record, using defaults",
			"user_id", userID)
		return DefaultInterventions()
	}
	e.logger.Debug("Engine.GetPersonalizedInterventions: personalized picks", "user_id", userID, "count", len(picks))
	return picks
}

// AnalyzeUserPatterns fetches a user's history and returns the pattern snapshot.
// Unlike the other entry points it reports fetch errors to the caller.
func (e *Engine) AnalyzeUserPatterns(ctx context.Context, userID string) (models.PatternAnalysis, error) {
	h, err := e.fetch(ctx, userID)
	if err != nil {
		e.logger.Error("Engine.AnalyzeUserPatterns: history fetch failed", "user_id", userID, "error", err)
		return models.PatternAnalysis{}, err
	}
	return e.analyzer.AnalyzePatterns(h.Resolutions, h.CheckIns), nil
}

// VulnerableHours fetches a user's history and returns the hours with more than 10% of
// recorded crises.
func (e *Engine) VulnerableHours(ctx context.Context, userID string) ([]models.HourProbability, error) {
	h, err := e.fetch(ctx, userID)
	if err != nil {
		e.logger.Error("Engine.VulnerableHours: history fetch failed", "user_id", userID, "error", err)
		return nil, err
	}
	return e.analyzer.VulnerableHours(h.Resolutions), nil
}
