// Package api provides HTTP handlers for CrisisSense endpoints.
package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/BTreeMap/CrisisSense/internal/models"
	"github.com/BTreeMap/CrisisSense/internal/risk"
)

// healthCheckTimeout bounds the store ping of the health endpoint.
const healthCheckTimeout = 5 * time.Second

var validationErrors = []error{
	models.ErrEmptyUserID,
	models.ErrMissingStartTime,
	models.ErrResolutionBeforeStart,
	models.ErrRatingOutOfRange,
	models.ErrNotesTooLong,
	models.ErrEmptyInterventionTag,
	models.ErrInterventionTagTooLong,
	models.ErrMissingTimestamp,
}

func isValidationError(err error) bool {
	for _, target := range validationErrors {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

// userIDFromPath returns the trimmed {userID} path value, writing a 400 response when it is blank.
func userIDFromPath(w http.ResponseWriter, r *http.Request) (string, bool) {
	userID := strings.TrimSpace(r.PathValue("userID"))
	if userID == "" {
		writeJSONResponse(w, http.StatusBadRequest, models.Error(models.ErrEmptyUserID.Error()))
		return "", false
	}
	return userID, true
}

// bindUserID fills in the path user ID and rejects a conflicting body value.
func bindUserID(pathUserID string, bodyUserID *string) bool {
	if *bodyUserID != "" && *bodyUserID != pathUserID {
		return false
	}
	*bodyUserID = pathUserID
	return true
}

func (s *Server) addCrisisResolutionHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDFromPath(w, r)
	if !ok {
		return
	}
	var res models.CrisisResolution
	if msg, err := decodeJSONBody(r, &res); err != nil {
		slog.Warn("Server.addCrisisResolutionHandler: failed to decode JSON", "error", err, "user_id", userID)
		writeJSONResponse(w, http.StatusBadRequest, models.Error(msg))
		return
	}
	if !bindUserID(userID, &res.UserID) {
		writeJSONResponse(w, http.StatusBadRequest, models.Error("user_id in body does not match path"))
		return
	}

	stored, err := s.store.AddCrisisResolution(r.Context(), res)
	if err != nil {
		if isValidationError(err) {
			slog.Warn("Server.addCrisisResolutionHandler: validation failed", "error", err, "user_id", userID)
			writeJSONResponse(w, http.StatusBadRequest, models.Error(err.Error()))
			return
		}
		slog.Error("Server.addCrisisResolutionHandler: failed to store crisis resolution", "error", err, "user_id", userID)
		writeJSONResponse(w, http.StatusInternalServerError, models.Error("Failed to store crisis resolution"))
		return
	}
	slog.Info("Server.addCrisisResolutionHandler: crisis resolution recorded", "user_id", userID, "id", stored.ID)
	writeJSONResponse(w, http.StatusCreated, models.RecordedWithResult(stored))
}

func (s *Server) addCheckInHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDFromPath(w, r)
	if !ok {
		return
	}
	var c models.CheckIn
	if msg, err := decodeJSONBody(r, &c); err != nil {
		slog.Warn("Server.addCheckInHandler: failed to decode JSON", "error", err, "user_id", userID)
		writeJSONResponse(w, http.StatusBadRequest, models.Error(msg))
		return
	}
	if !bindUserID(userID, &c.UserID) {
		writeJSONResponse(w, http.StatusBadRequest, models.Error("user_id in body does not match path"))
		return
	}

	stored, err := s.store.AddCheckIn(r.Context(), c)
	if err != nil {
		if isValidationError(err) {
			slog.Warn("Server.addCheckInHandler: validation failed", "error", err, "user_id", userID)
			writeJSONResponse(w, http.StatusBadRequest, models.Error(err.Error()))
			return
		}
		slog.Error("Server.addCheckInHandler: failed to store check-in", "error", err, "user_id", userID)
		writeJSONResponse(w, http.StatusInternalServerError, models.Error("Failed to store check-in"))
		return
	}
	slog.Info("Server.addCheckInHandler: check-in recorded", "user_id", userID, "id", stored.ID)
	writeJSONResponse(w, http.StatusCreated, models.RecordedWithResult(stored))
}

func (s *Server) riskHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDFromPath(w, r)
	if !ok {
		return
	}
	patterns, err := s.engine.AnalyzeUserPatterns(r.Context(), userID)
	if err != nil {
		writeJSONResponse(w, http.StatusServiceUnavailable, models.Error("Failed to fetch user history"))
		return
	}
	composite := s.engine.PredictCrisisRisk(r.Context(), userID)
	s.metrics.ObserveScore(risk.ScorerComposite, composite)
	s.metrics.ObserveScore(risk.ScorerTrend, patterns.RiskScore)

	summary := models.RiskSummary{
		UserID:    userID,
		Composite: composite,
		Trend:     patterns.RiskScore,
		HighRisk:  risk.IsHighRisk(patterns.RiskScore),
	}
	if summary.HighRisk {
		slog.Warn("Server.riskHandler: user flagged as high risk", "user_id", userID, "trend", summary.Trend)
	}
	writeJSONResponse(w, http.StatusOK, models.Success(summary))
}

func (s *Server) patternsHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDFromPath(w, r)
	if !ok {
		return
	}
	patterns, err := s.engine.AnalyzeUserPatterns(r.Context(), userID)
	if err != nil {
		writeJSONResponse(w, http.StatusServiceUnavailable, models.Error("Failed to fetch user history"))
		return
	}
	s.metrics.ObserveScore(risk.ScorerTrend, patterns.RiskScore)
	writeJSONResponse(w, http.StatusOK, models.Success(patterns))
}

func (s *Server) vulnerableHoursHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDFromPath(w, r)
	if !ok {
		return
	}
	hours, err := s.engine.VulnerableHours(r.Context(), userID)
	if err != nil {
		writeJSONResponse(w, http.StatusServiceUnavailable, models.Error("Failed to fetch user history"))
		return
	}
	writeJSONResponse(w, http.StatusOK, models.Success(hours))
}

func (s *Server) interventionsHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDFromPath(w, r)
	if !ok {
		return
	}
	writeJSONResponse(w, http.StatusOK, models.Success(s.engine.GetPersonalizedInterventions(r.Context(), userID)))
}

func (s *Server) analyzeContentHandler(w http.ResponseWriter, r *http.Request) {
	var req models.ContentAnalysisRequest
	if msg, err := decodeJSONBody(r, &req); err != nil {
		slog.Warn("Server.analyzeContentHandler: failed to decode JSON", "error", err)
		writeJSONResponse(w, http.StatusBadRequest, models.Error(msg))
		return
	}
	assessment := risk.AnalyzeCrisisContent(req.Text)
	s.metrics.RecordClassification(assessment.UrgencyLevel)
	if assessment.RecommendProfessionalReview {
		// Text is not logged.
		slog.Info("Server.analyzeContentHandler: content flagged for professional review",
			"urgency", assessment.UrgencyLevel, "indicators", len(assessment.RiskIndicators))
	}
	writeJSONResponse(w, http.StatusOK, models.Success(assessment))
}

// healthHandler provides a health check endpoint for monitoring and load balancing
func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), healthCheckTimeout)
	defer cancel()

	healthData := map[string]interface{}{
		"status":    "healthy",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	}

	if p, ok := s.store.(interface{ Ping(context.Context) error }); ok {
		if err := p.Ping(ctx); err != nil {
			slog.Warn("Health check: store ping failed", "error", err)
			healthData["status"] = "degraded"
			healthData["error"] = "Database unavailable"
		}
	}

	statusCode := http.StatusOK
	if healthData["status"] == "degraded" {
		statusCode = http.StatusServiceUnavailable
	}
	writeJSONResponse(w, statusCode, healthData)
}
