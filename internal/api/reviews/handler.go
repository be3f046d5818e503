// Package reviews provides the REST API for reviews, trust scores, badges,
// endorsements, moderation and analytics.
package reviews

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/skillnexus/reputation-service/internal/apperrors"
	"github.com/skillnexus/reputation-service/internal/middleware"
	"github.com/skillnexus/reputation-service/internal/models"
	"github.com/skillnexus/reputation-service/internal/service/analytics"
	"github.com/skillnexus/reputation-service/internal/service/badges"
	"github.com/skillnexus/reputation-service/internal/service/endorsements"
	"github.com/skillnexus/reputation-service/internal/service/moderation"
	"github.com/skillnexus/reputation-service/internal/service/reputation"
	reviewsvc "github.com/skillnexus/reputation-service/internal/service/reviews"
	"github.com/skillnexus/reputation-service/pkg/logger"
)

// ReviewService interface for review intake and feedback.
type ReviewService interface {
	Submit(ctx context.Context, in reviewsvc.SubmitInput) (*models.Review, error)
	ListForUser(ctx context.Context, in reviewsvc.ListInput) (*reviewsvc.Page, error)
	Respond(ctx context.Context, reviewID, userID uint, text string) error
	Vote(ctx context.Context, reviewID, voterID uint, voteType string) (int, error)
}

// ModerationService interface for moderation and reports.
type ModerationService interface {
	Moderate(ctx context.Context, actor moderation.Actor, reviewID uint, status, notes string) (*models.Review, error)
	Report(ctx context.Context, in moderation.ReportInput) (*models.ReviewReport, error)
	ListReports(ctx context.Context, actor moderation.Actor, status string, page, limit int) (*moderation.ReportPage, error)
	UpdateReport(ctx context.Context, actor moderation.Actor, reportID uint, status, notes string) (*models.ReviewReport, error)
}

// ReputationService interface for the reputation profile.
type ReputationService interface {
	GetProfile(ctx context.Context, userID uint) (*reputation.Profile, error)
}

// BadgeCatalog interface for the badge catalog.
type BadgeCatalog interface {
	GetBadgeCatalog() []badges.Rule
}

// EndorsementService interface for skill endorsements.
type EndorsementService interface {
	Endorse(ctx context.Context, in endorsements.EndorseInput) (*models.SkillEndorsement, error)
	List(ctx context.Context, endorseeID uint) (*endorsements.Listing, error)
}

// AnalyticsService interface for review analytics.
type AnalyticsService interface {
	ForUser(ctx context.Context, requesterID, userID uint) (*analytics.Report, error)
}

// Services groups the handler's dependencies.
type Services struct {
	Reviews      ReviewService
	Moderation   ModerationService
	Reputation   ReputationService
	Badges       BadgeCatalog
	Endorsements EndorsementService
	Analytics    AnalyticsService
}

// Handler handles review API requests.
type Handler struct {
	services Services
	log      *logger.Logger
}

// NewHandler creates a new review API handler.
func NewHandler(services Services, log *logger.Logger) *Handler {
	return &Handler{
		services: services,
		log:      log.Component("api"),
	}
}

// RegisterRoutes mounts the review routes on r. requireAuth guards the
// authenticated endpoints.
func (h *Handler) RegisterRoutes(r *gin.RouterGroup, requireAuth gin.HandlerFunc) {
	reviews := r.Group("/reviews")

	// Public
	reviews.GET("/user/:userId", h.ListUserReviews)
	reviews.GET("/trust-score/:userId", h.GetTrustScore)
	reviews.GET("/badges", h.GetBadgeCatalog)
	reviews.GET("/endorsements/:userId", h.ListEndorsements)

	authed := reviews.Group("", requireAuth)
	authed.POST("", h.SubmitReview)
	authed.PUT("/:reviewId/response", h.RespondToReview)
	authed.POST("/:reviewId/vote", h.VoteOnReview)
	authed.POST("/:reviewId/report", h.ReportReview)
	authed.PUT("/:reviewId/moderate", h.ModerateReview)
	authed.GET("/moderation/reports", h.ListReports)
	authed.PUT("/reports/:reportId", h.UpdateReport)
	authed.POST("/endorse/:userId", h.EndorseUser)
	authed.GET("/analytics/:userId", h.GetAnalytics)
}

// SubmitReview creates a review.
// POST /api/v1/reviews.
func (h *Handler) SubmitReview(c *gin.Context) {
	userID, ok := h.currentUser(c)
	if !ok {
		return
	}

	var in reviewsvc.SubmitInput
	if !h.bindJSON(c, &in) {
		return
	}
	in.ReviewerID = userID

	review, err := h.services.Reviews.Submit(c.Request.Context(), in)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message":  "Review submitted",
		"reviewId": review.ID,
	})
}

// ListUserReviews returns the approved reviews a user received.
// GET /api/v1/reviews/user/:userId?page=1&limit=10&type=skill_session.
func (h *Handler) ListUserReviews(c *gin.Context) {
	userID, ok := h.paramID(c, "userId")
	if !ok {
		return
	}
	page, limit, ok := h.pageParams(c)
	if !ok {
		return
	}

	reviewType := c.Query("type")
	if reviewType == "" {
		reviewType = c.Query("review_type")
	}

	result, err := h.services.Reviews.ListForUser(c.Request.Context(), reviewsvc.ListInput{
		RevieweeID: userID,
		ReviewType: reviewType,
		Page:       page,
		Limit:      limit,
	})
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// RespondToReview stores the reviewee's response.
// PUT /api/v1/reviews/:reviewId/response.
func (h *Handler) RespondToReview(c *gin.Context) {
	userID, ok := h.currentUser(c)
	if !ok {
		return
	}
	reviewID, ok := h.paramID(c, "reviewId")
	if !ok {
		return
	}

	var req struct {
		ResponseText string `json:"response_text"`
	}
	if !h.bindJSON(c, &req) {
		return
	}

	if err := h.services.Reviews.Respond(c.Request.Context(), reviewID, userID, req.ResponseText); err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Response saved"})
}

// VoteOnReview records a helpfulness vote.
// POST /api/v1/reviews/:reviewId/vote.
func (h *Handler) VoteOnReview(c *gin.Context) {
	userID, ok := h.currentUser(c)
	if !ok {
		return
	}
	reviewID, ok := h.paramID(c, "reviewId")
	if !ok {
		return
	}

	var req struct {
		VoteType string `json:"vote_type"`
	}
	if !h.bindJSON(c, &req) {
		return
	}

	helpful, err := h.services.Reviews.Vote(c.Request.Context(), reviewID, userID, req.VoteType)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":       "Vote recorded",
		"helpful_votes": helpful,
	})
}

// ReportReview files a report against a review.
// POST /api/v1/reviews/:reviewId/report.
func (h *Handler) ReportReview(c *gin.Context) {
	userID, ok := h.currentUser(c)
	if !ok {
		return
	}
	reviewID, ok := h.paramID(c, "reviewId")
	if !ok {
		return
	}

	var in moderation.ReportInput
	if !h.bindJSON(c, &in) {
		return
	}
	in.ReviewID = reviewID
	in.ReporterID = userID

	report, err := h.services.Moderation.Report(c.Request.Context(), in)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "Report submitted",
		"report":  report,
	})
}

// ModerateReview approves or rejects a review.
// PUT /api/v1/reviews/:reviewId/moderate.
func (h *Handler) ModerateReview(c *gin.Context) {
	actor, ok := h.currentActor(c)
	if !ok {
		return
	}
	reviewID, ok := h.paramID(c, "reviewId")
	if !ok {
		return
	}

	var req struct {
		Status string `json:"moderation_status"`
		Notes  string `json:"moderator_notes"`
	}
	if !h.bindJSON(c, &req) {
		return
	}

	review, err := h.services.Moderation.Moderate(c.Request.Context(), actor, reviewID, req.Status, req.Notes)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Review moderated",
		"review":  review,
	})
}

// ListReports lists review reports for moderators.
// GET /api/v1/reviews/moderation/reports?status=pending&page=1&limit=10.
func (h *Handler) ListReports(c *gin.Context) {
	actor, ok := h.currentActor(c)
	if !ok {
		return
	}
	page, limit, ok := h.pageParams(c)
	if !ok {
		return
	}

	result, err := h.services.Moderation.ListReports(c.Request.Context(), actor, c.Query("status"), page, limit)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// UpdateReport moves a report forward.
// PUT /api/v1/reviews/reports/:reportId.
func (h *Handler) UpdateReport(c *gin.Context) {
	actor, ok := h.currentActor(c)
	if !ok {
		return
	}
	reportID, ok := h.paramID(c, "reportId")
	if !ok {
		return
	}

	var req struct {
		Status string `json:"status"`
		Notes  string `json:"resolution_notes"`
	}
	if !h.bindJSON(c, &req) {
		return
	}

	report, err := h.services.Moderation.UpdateReport(c.Request.Context(), actor, reportID, req.Status, req.Notes)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Report updated",
		"report":  report,
	})
}

// GetTrustScore returns a user's reputation profile.
// GET /api/v1/reviews/trust-score/:userId.
func (h *Handler) GetTrustScore(c *gin.Context) {
	userID, ok := h.paramID(c, "userId")
	if !ok {
		return
	}

	profile, err := h.services.Reputation.GetProfile(c.Request.Context(), userID)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, profile)
}

// GetBadgeCatalog returns every badge that can be earned.
// GET /api/v1/reviews/badges.
func (h *Handler) GetBadgeCatalog(c *gin.Context) {
	catalog := h.services.Badges.GetBadgeCatalog()

	c.JSON(http.StatusOK, gin.H{
		"badges":       catalog,
		"total_badges": len(catalog),
	})
}

// EndorseUser endorses one of a user's skills.
// POST /api/v1/reviews/endorse/:userId.
func (h *Handler) EndorseUser(c *gin.Context) {
	endorserID, ok := h.currentUser(c)
	if !ok {
		return
	}
	endorseeID, ok := h.paramID(c, "userId")
	if !ok {
		return
	}

	var in endorsements.EndorseInput
	if !h.bindJSON(c, &in) {
		return
	}
	in.EndorserID = endorserID
	in.EndorseeID = endorseeID

	endorsement, err := h.services.Endorsements.Endorse(c.Request.Context(), in)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message":     "Skill endorsed",
		"endorsement": endorsement,
	})
}

// ListEndorsements returns a user's public endorsements.
// GET /api/v1/reviews/endorsements/:userId.
func (h *Handler) ListEndorsements(c *gin.Context) {
	userID, ok := h.paramID(c, "userId")
	if !ok {
		return
	}

	listing, err := h.services.Endorsements.List(c.Request.Context(), userID)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, listing)
}

// GetAnalytics returns the caller's review analytics.
// GET /api/v1/reviews/analytics/:userId.
func (h *Handler) GetAnalytics(c *gin.Context) {
	requesterID, ok := h.currentUser(c)
	if !ok {
		return
	}
	userID, ok := h.paramID(c, "userId")
	if !ok {
		return
	}

	report, err := h.services.Analytics.ForUser(c.Request.Context(), requesterID, userID)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"analytics":    report,
		"generated_at": time.Now().UTC(),
	})
}

// Helper functions

func (h *Handler) currentUser(c *gin.Context) (uint, bool) {
	userID, ok := middleware.UserID(c)
	if !ok {
		h.respondError(c, apperrors.New(apperrors.KindUnauthorized, "authentication required"))
		return 0, false
	}
	return userID, true
}

func (h *Handler) currentActor(c *gin.Context) (moderation.Actor, bool) {
	userID, ok := h.currentUser(c)
	if !ok {
		return moderation.Actor{}, false
	}
	return moderation.Actor{UserID: userID, Role: middleware.Role(c)}, true
}

// paramID extracts and validates a numeric id from the URL.
func (h *Handler) paramID(c *gin.Context, name string) (uint, bool) {
	raw := c.Param(name)
	id, err := strconv.ParseUint(raw, 10, 32)
	if err != nil || id == 0 {
		h.respondError(c, apperrors.Validation("invalid %s: %s", name, raw))
		return 0, false
	}
	return uint(id), true
}

// pageParams reads page and limit; the services clamp them.
func (h *Handler) pageParams(c *gin.Context) (int, int, bool) {
	page, err := optionalInt(c.Query("page"))
	if err != nil {
		h.respondError(c, apperrors.Validation("invalid page parameter: %s", c.Query("page")))
		return 0, 0, false
	}
	limit, err := optionalInt(c.Query("limit"))
	if err != nil {
		h.respondError(c, apperrors.Validation("invalid limit parameter: %s", c.Query("limit")))
		return 0, 0, false
	}
	return page, limit, true
}

func optionalInt(raw string) (int, error) {
	if raw == "" {
		return 0, nil
	}
	return strconv.Atoi(raw)
}

func (h *Handler) bindJSON(c *gin.Context, dst interface{}) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		h.respondError(c, apperrors.Validation("invalid request body: %v", err))
		return false
	}
	return true
}

// respondError writes err as the standard error body. Internal details never
// leave the process.
func (h *Handler) respondError(c *gin.Context, err error) {
	var appErr *apperrors.Error
	if !errors.As(err, &appErr) {
		appErr = apperrors.Internal(err, "internal server error")
	}

	status := appErr.HTTPStatus()
	body := gin.H{
		"code":    appErr.Kind,
		"message": appErr.Message,
	}
	if status >= http.StatusInternalServerError {
		h.log.Ctx(c.Request.Context()).Error().
			Err(err).
			Str("path", c.FullPath()).
			Msg("Request failed")
		body["message"] = "internal server error"
	} else if appErr.Details != nil {
		body["details"] = appErr.Details
	}

	c.AbortWithStatusJSON(status, gin.H{
		"error":     body,
		"timestamp": time.Now().UTC(),
	})
}

