package http

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	"github.com/Naareman/UnlockEgypt-sub000/internal/application/command"
	"github.com/Naareman/UnlockEgypt-sub000/internal/application/query"
	"github.com/Naareman/UnlockEgypt-sub000/internal/domain/achievement"
	"github.com/Naareman/UnlockEgypt-sub000/internal/domain/location"
	"github.com/Naareman/UnlockEgypt-sub000/internal/domain/shared"
)

// maxBodyBytes bounds reward-write request bodies. Every payload is a few
// identifiers; anything bigger is abuse.
const maxBodyBytes = 64 << 10

// ══════════════════════════════════════════════════════════════════════════════
// HEALTH & STATUS HANDLERS
// ══════════════════════════════════════════════════════════════════════════════

// handleRoot handles GET / - basic service info.
func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		writeJSONError(w, http.StatusNotFound, "not_found", "Endpoint not found")
		return
	}

	writeJSON(w, r, http.StatusOK, map[string]interface{}{
		"service": "unlock-egypt-rewards",
		"status":  "running",
		"uptime":  s.Uptime().Round(time.Second).String(),
	})
}

// handleHealth handles GET /health - full health check.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if s.deps.HealthChecker == nil {
		writeJSON(w, r, http.StatusOK, map[string]interface{}{"healthy": true})
		return
	}

	status := s.deps.HealthChecker.Check(r.Context())
	code := http.StatusOK
	if !status.Healthy {
		code = http.StatusServiceUnavailable
	}
	writeJSON(w, r, code, status)
}

// handleReady handles GET /ready - readiness probe.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if s.deps.HealthChecker == nil {
		writeJSON(w, r, http.StatusOK, map[string]interface{}{"ready": true})
		return
	}

	status := s.deps.HealthChecker.Check(r.Context())
	if !status.Ready {
		writeJSONError(w, http.StatusServiceUnavailable, "not_ready", "Service is not ready")
		return
	}
	writeJSON(w, r, http.StatusOK, map[string]interface{}{"ready": true})
}

// handleLive handles GET /live - liveness probe. Always succeeds while the
// process can serve requests.
func (s *Server) handleLive(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, map[string]interface{}{"alive": true})
}

// handleGetStats handles GET /api/v1/stats - runtime counters.
func (s *Server) handleGetStats(w http.ResponseWriter, r *http.Request) {
	stats := map[string]any{
		"uptime": s.Uptime().Round(time.Second).String(),
	}
	if s.deps.Stats != nil {
		for k, v := range s.deps.Stats() {
			stats[k] = v
		}
	}
	writeJSON(w, r, http.StatusOK, stats)
}

// ══════════════════════════════════════════════════════════════════════════════
// READ HANDLERS
// ══════════════════════════════════════════════════════════════════════════════

// handleGetProgress handles GET /api/v1/progress.
//
// Query parameters:
//   - include_sites: include the per-site breakdown
func (s *Server) handleGetProgress(w http.ResponseWriter, r *http.Request) {
	if s.deps.GetProgressHandler == nil {
		writeJSONError(w, http.StatusNotImplemented, "not_implemented", "Progress endpoint is not available")
		return
	}

	result, err := s.deps.GetProgressHandler.Handle(r.Context(), query.GetProgressQuery{
		IncludeSites: getQueryParamBool(r, "include_sites"),
	})
	if err != nil {
		s.respondError(w, r, "get progress", err)
		return
	}

	writeJSON(w, r, http.StatusOK, result)
}

// handleGetAchievements handles GET /api/v1/achievements.
//
// Query parameters:
//   - category: filter to one category
//   - unlocked_only: drop locked achievements
func (s *Server) handleGetAchievements(w http.ResponseWriter, r *http.Request) {
	if s.deps.GetAchievementsHandler == nil {
		writeJSONError(w, http.StatusNotImplemented, "not_implemented", "Achievements endpoint is not available")
		return
	}

	result, err := s.deps.GetAchievementsHandler.Handle(r.Context(), query.GetAchievementsQuery{
		Category:     achievement.Category(r.URL.Query().Get("category")),
		UnlockedOnly: getQueryParamBool(r, "unlocked_only"),
	})
	if err != nil {
		s.respondError(w, r, "get achievements", err)
		return
	}

	writeJSON(w, r, http.StatusOK, result)
}

// handleGetNotifications handles GET /api/v1/notifications - pending unlock
// celebrations in arrival order.
func (s *Server) handleGetNotifications(w http.ResponseWriter, r *http.Request) {
	if s.deps.Feed == nil {
		writeJSONError(w, http.StatusNotImplemented, "not_implemented", "Notifications endpoint is not available")
		return
	}

	pending := s.deps.Feed.Pending()
	writeJSON(w, r, http.StatusOK, map[string]interface{}{
		"notifications": pending,
		"count":         len(pending),
	})
}

// handleAckNotification handles POST /api/v1/notifications/{id}/ack.
// Acknowledging twice returns 404: the notice is gone.
func (s *Server) handleAckNotification(w http.ResponseWriter, r *http.Request) {
	if s.deps.Feed == nil {
		writeJSONError(w, http.StatusNotImplemented, "not_implemented", "Notifications endpoint is not available")
		return
	}

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid_id", "Notification ID must be a UUID")
		return
	}

	if !s.deps.Feed.Acknowledge(id) {
		writeJSONError(w, http.StatusNotFound, "not_found", "No pending notification with that ID")
		return
	}

	writeJSON(w, r, http.StatusOK, map[string]interface{}{"acknowledged": true})
}

// ══════════════════════════════════════════════════════════════════════════════
// REWARD WRITE HANDLERS
// ══════════════════════════════════════════════════════════════════════════════

// positionPayload is the client-supplied fix on a verify request.
type positionPayload struct {
	Latitude       float64   `json:"latitude"`
	Longitude      float64   `json:"longitude"`
	AccuracyMeters float64   `json:"accuracy_meters"`
	Timestamp      time.Time `json:"timestamp"`
}

type verifyVisitRequest struct {
	SiteID   string           `json:"site_id"`
	Position *positionPayload `json:"position,omitempty"`
}

// unlockDTO is one achievement unlock in a write response.
type unlockDTO struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	RewardPoints int    `json:"reward_points"`
}

func toUnlockDTOs(unlocks []achievement.Unlock) []unlockDTO {
	out := make([]unlockDTO, 0, len(unlocks))
	for _, u := range unlocks {
		out = append(out, unlockDTO{
			ID:           u.Achievement.ID.String(),
			Name:         u.Achievement.Name,
			RewardPoints: u.RewardPoints,
		})
	}
	return out
}

// visitResponse is the shared response shape of both visit endpoints.
type visitResponse struct {
	SiteID        string      `json:"site_id"`
	Status        string      `json:"status"`
	PointsAwarded int         `json:"points_awarded"`
	DaysRemaining int         `json:"days_remaining,omitempty"`
	DistanceKm    float64     `json:"distance_km,omitempty"`
	TotalPoints   int         `json:"total_points"`
	Unlocks       []unlockDTO `json:"unlocks"`
}

// handleVerifyVisit handles POST /api/v1/visits/verify - the geolocation
// verification path. Business rejections (too far, cooldown, no fix) are 200
// responses with a status; only malformed requests and system failures error.
func (s *Server) handleVerifyVisit(w http.ResponseWriter, r *http.Request) {
	if s.deps.VerifyVisitHandler == nil {
		writeJSONError(w, http.StatusNotImplemented, "not_implemented", "Visit verification is not available")
		return
	}

	var req verifyVisitRequest
	if !s.decodeBody(w, r, &req) {
		return
	}

	cmd := command.VerifyVisitCommand{
		SiteID:        shared.SiteID(req.SiteID),
		CorrelationID: middleware.GetReqID(r.Context()),
	}
	if req.Position != nil {
		ts := req.Position.Timestamp
		if ts.IsZero() {
			ts = time.Now().UTC()
		}
		cmd.Position = &location.Position{
			Coordinate: shared.Coordinate{
				Latitude:  req.Position.Latitude,
				Longitude: req.Position.Longitude,
			},
			AccuracyMeters: req.Position.AccuracyMeters,
			Timestamp:      ts,
		}
	}

	result, err := s.deps.VerifyVisitHandler.Handle(r.Context(), cmd)
	if err != nil {
		s.respondError(w, r, "verify visit", err)
		return
	}

	writeJSON(w, r, http.StatusOK, visitResponse{
		SiteID:        result.SiteID.String(),
		Status:        string(result.Outcome.Status),
		PointsAwarded: result.Outcome.PointsAwarded,
		DaysRemaining: result.Outcome.DaysRemaining,
		DistanceKm:    result.Outcome.DistanceKm,
		TotalPoints:   result.TotalPoints,
		Unlocks:       toUnlockDTOs(result.Unlocks),
	})
}

type selfReportVisitRequest struct {
	SiteID string `json:"site_id"`
}

// handleSelfReportVisit handles POST /api/v1/visits/self-report - the honor
// system fallback when no geolocation is available.
func (s *Server) handleSelfReportVisit(w http.ResponseWriter, r *http.Request) {
	if s.deps.SelfReportVisitHandler == nil {
		writeJSONError(w, http.StatusNotImplemented, "not_implemented", "Visit self-report is not available")
		return
	}

	var req selfReportVisitRequest
	if !s.decodeBody(w, r, &req) {
		return
	}

	result, err := s.deps.SelfReportVisitHandler.Handle(r.Context(), command.SelfReportVisitCommand{
		SiteID:        shared.SiteID(req.SiteID),
		CorrelationID: middleware.GetReqID(r.Context()),
	})
	if err != nil {
		s.respondError(w, r, "self-report visit", err)
		return
	}

	writeJSON(w, r, http.StatusOK, visitResponse{
		SiteID:        result.SiteID.String(),
		Status:        string(result.Outcome.Status),
		PointsAwarded: result.Outcome.PointsAwarded,
		DaysRemaining: result.Outcome.DaysRemaining,
		TotalPoints:   result.TotalPoints,
		Unlocks:       toUnlockDTOs(result.Unlocks),
	})
}

type completeReadingRequest struct {
	SiteID        string `json:"site_id"`
	SubLocationID string `json:"sub_location_id"`
}

// handleCompleteReading handles POST /api/v1/reading/complete - fires when
// the reader finishes the last story card of a sub-location.
func (s *Server) handleCompleteReading(w http.ResponseWriter, r *http.Request) {
	if s.deps.AwardScholarBadgeHandler == nil {
		writeJSONError(w, http.StatusNotImplemented, "not_implemented", "Reading completion is not available")
		return
	}

	var req completeReadingRequest
	if !s.decodeBody(w, r, &req) {
		return
	}

	result, err := s.deps.AwardScholarBadgeHandler.Handle(r.Context(), command.AwardScholarBadgeCommand{
		SiteID:        shared.SiteID(req.SiteID),
		SubLocationID: shared.SubLocationID(req.SubLocationID),
		CorrelationID: middleware.GetReqID(r.Context()),
	})
	if err != nil {
		s.respondError(w, r, "complete reading", err)
		return
	}

	writeJSON(w, r, http.StatusOK, map[string]interface{}{
		"sub_location_id": result.SubLocationID.String(),
		"awarded":         result.Awarded,
		"points_awarded":  result.PointsAwarded,
		"total_points":    result.TotalPoints,
		"unlocks":         toUnlockDTOs(result.Unlocks),
	})
}

type completeQuizRequest struct {
	QuizID  string `json:"quiz_id"`
	Correct bool   `json:"correct"`
}

// handleCompleteQuiz handles POST /api/v1/quizzes/complete.
func (s *Server) handleCompleteQuiz(w http.ResponseWriter, r *http.Request) {
	if s.deps.CompleteQuizHandler == nil {
		writeJSONError(w, http.StatusNotImplemented, "not_implemented", "Quiz completion is not available")
		return
	}

	var req completeQuizRequest
	if !s.decodeBody(w, r, &req) {
		return
	}

	result, err := s.deps.CompleteQuizHandler.Handle(r.Context(), command.CompleteQuizCommand{
		QuizID:        shared.QuizID(req.QuizID),
		Correct:       req.Correct,
		CorrelationID: middleware.GetReqID(r.Context()),
	})
	if err != nil {
		s.respondError(w, r, "complete quiz", err)
		return
	}

	writeJSON(w, r, http.StatusOK, map[string]interface{}{
		"quiz_id":           result.QuizID.String(),
		"rewarded":          result.Rewarded,
		"already_completed": result.AlreadyCompleted,
		"points_awarded":    result.PointsAwarded,
		"total_points":      result.TotalPoints,
		"unlocks":           toUnlockDTOs(result.Unlocks),
	})
}

type discoverPlaceRequest struct {
	PlaceID string `json:"place_id"`
}

// handleDiscoverPlace handles POST /api/v1/places/discover.
func (s *Server) handleDiscoverPlace(w http.ResponseWriter, r *http.Request) {
	if s.deps.DiscoverPlaceHandler == nil {
		writeJSONError(w, http.StatusNotImplemented, "not_implemented", "Place discovery is not available")
		return
	}

	var req discoverPlaceRequest
	if !s.decodeBody(w, r, &req) {
		return
	}

	result, err := s.deps.DiscoverPlaceHandler.Handle(r.Context(), command.DiscoverPlaceCommand{
		PlaceID:       shared.PlaceID(req.PlaceID),
		CorrelationID: middleware.GetReqID(r.Context()),
	})
	if err != nil {
		s.respondError(w, r, "discover place", err)
		return
	}

	writeJSON(w, r, http.StatusOK, map[string]interface{}{
		"place_id":       result.PlaceID.String(),
		"rewarded":       result.Rewarded,
		"points_awarded": result.PointsAwarded,
		"days_remaining": result.DaysRemaining,
		"total_points":   result.TotalPoints,
		"unlocks":        toUnlockDTOs(result.Unlocks),
	})
}

type toggleFavoriteRequest struct {
	SiteID string `json:"site_id"`
}

// handleToggleFavorite handles POST /api/v1/favorites/toggle.
func (s *Server) handleToggleFavorite(w http.ResponseWriter, r *http.Request) {
	if s.deps.ToggleFavoriteHandler == nil {
		writeJSONError(w, http.StatusNotImplemented, "not_implemented", "Favorites are not available")
		return
	}

	var req toggleFavoriteRequest
	if !s.decodeBody(w, r, &req) {
		return
	}

	result, err := s.deps.ToggleFavoriteHandler.Handle(r.Context(), command.ToggleFavoriteCommand{
		SiteID:        shared.SiteID(req.SiteID),
		CorrelationID: middleware.GetReqID(r.Context()),
	})
	if err != nil {
		s.respondError(w, r, "toggle favorite", err)
		return
	}

	writeJSON(w, r, http.StatusOK, map[string]interface{}{
		"site_id":  result.SiteID.String(),
		"favorite": result.Favorite,
	})
}

// ══════════════════════════════════════════════════════════════════════════════
// ADMIN HANDLERS
// ══════════════════════════════════════════════════════════════════════════════

type resetProgressRequest struct {
	Confirm bool `json:"confirm"`
}

// handleResetProgress handles POST /api/v1/admin/reset. The auth middleware
// has already verified the admin token; the body must still confirm.
func (s *Server) handleResetProgress(w http.ResponseWriter, r *http.Request) {
	if s.deps.ResetProgressHandler == nil {
		writeJSONError(w, http.StatusNotImplemented, "not_implemented", "Progress reset is not available")
		return
	}

	var req resetProgressRequest
	if !s.decodeBody(w, r, &req) {
		return
	}

	result, err := s.deps.ResetProgressHandler.Handle(r.Context(), command.ResetProgressCommand{
		Confirm:       req.Confirm,
		CorrelationID: middleware.GetReqID(r.Context()),
	})
	if err != nil {
		s.respondError(w, r, "reset progress", err)
		return
	}

	s.logger.Warn("progress reset executed",
		"points_discarded", result.PointsDiscarded,
		"ip", clientIP(r),
	)

	writeJSON(w, r, http.StatusOK, map[string]interface{}{
		"reset":            true,
		"points_discarded": result.PointsDiscarded,
	})
}

// ══════════════════════════════════════════════════════════════════════════════
// SHARED HELPERS
// ══════════════════════════════════════════════════════════════════════════════

// decodeBody parses a JSON request body, writing the error response itself.
// Returns false when the handler should stop.
func (s *Server) decodeBody(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	body := http.MaxBytesReader(w, r.Body, maxBodyBytes)
	defer func() {
		_, _ = io.Copy(io.Discard, body)
	}()

	dec := json.NewDecoder(body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		writeJSONErrorWithDetails(w, http.StatusBadRequest, "invalid_body", "Request body is not valid JSON", err.Error())
		return false
	}
	return true
}

// respondError maps application errors to HTTP responses.
func (s *Server) respondError(w http.ResponseWriter, r *http.Request, op string, err error) {
	switch {
	case shared.IsValidation(err):
		writeJSONErrorWithDetails(w, http.StatusBadRequest, "validation_error", "Invalid request", err.Error())
	case shared.IsNotFound(err):
		writeJSONError(w, http.StatusNotFound, "not_found", err.Error())
	case errors.Is(err, shared.ErrForbidden):
		writeJSONError(w, http.StatusForbidden, "forbidden", err.Error())
	case shared.IsExternalService(err):
		writeJSONError(w, http.StatusBadGateway, "upstream_error", "A backing service is unavailable")
	default:
		s.logger.Error("request failed",
			"op", op,
			"error", err,
			"request_id", middleware.GetReqID(r.Context()),
		)
		writeJSONError(w, http.StatusInternalServerError, "internal_server_error", "An unexpected error occurred")
	}
}
