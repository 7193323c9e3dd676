package http

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/ecoreco/backend/internal/domain"
	"github.com/ecoreco/backend/internal/observability"
	"github.com/ecoreco/backend/internal/usecase"
)

// Handler holds dependencies for HTTP handlers
type Handler struct {
	search          *usecase.SearchService
	recommendations *usecase.RecommendationService
	ratings         *usecase.RatingService
	logger          zerolog.Logger
}

// NewHandler creates a new HTTP handler. Nil services answer 503.
func NewHandler(
	search *usecase.SearchService,
	recommendations *usecase.RecommendationService,
	ratings *usecase.RatingService,
	logger zerolog.Logger,
) *Handler {
	return &Handler{
		search:          search,
		recommendations: recommendations,
		ratings:         ratings,
		logger:          logger,
	}
}

// HealthCheck returns the health status of the API
func (h *Handler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"ok":      true,
		"status":  "healthy",
		"service": "ecoreco-backend",
		"version": "1.0.0",
	})
}

// Search handles GET /api/v1/search?q=&mode=
func (h *Handler) Search(c *gin.Context) {
	if h.search == nil {
		h.notConfigured(c, "search")
		return
	}

	var request domain.SearchRequest
	if err := c.ShouldBindQuery(&request); err != nil {
		h.fail(c, domain.ErrInvalidRequest)
		return
	}
	if request.Mode != "" && !request.Mode.Valid() {
		h.fail(c, domain.ErrInvalidRequest)
		return
	}

	results, err := h.search.Search(c.Request.Context(), &request)
	if err != nil {
		h.logError(c, err, "search failed")
		c.JSON(statusFor(err), gin.H{"results": []domain.RankedResult{}, "error": domain.ErrorKind(err)})
		return
	}

	c.JSON(http.StatusOK, gin.H{"results": results})
}

// PopularProducts handles GET /api/v1/products/popular
func (h *Handler) PopularProducts(c *gin.Context) {
	if h.recommendations == nil {
		h.notConfigured(c, "recommendations")
		return
	}

	results, err := h.recommendations.Popular(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "results": results})
}

// Recommendations handles GET /api/v1/products/:id/recommendations
func (h *Handler) Recommendations(c *gin.Context) {
	if h.recommendations == nil {
		h.notConfigured(c, "recommendations")
		return
	}

	id, ok := h.productID(c)
	if !ok {
		return
	}

	results, err := h.recommendations.Recommend(c.Request.Context(), id)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "product_id": id, "recommendations": results})
}

// SimilarProducts handles GET /api/v1/products/:id/similar
func (h *Handler) SimilarProducts(c *gin.Context) {
	if h.recommendations == nil {
		h.notConfigured(c, "recommendations")
		return
	}

	id, ok := h.productID(c)
	if !ok {
		return
	}

	results, err := h.recommendations.SimilarProducts(c.Request.Context(), id)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "product_id": id, "results": results})
}

// SubmitReview handles POST /api/v1/products/:id/reviews
func (h *Handler) SubmitReview(c *gin.Context) {
	if h.ratings == nil {
		h.notConfigured(c, "ratings")
		return
	}

	id, ok := h.productID(c)
	if !ok {
		return
	}

	var request domain.ReviewRequest
	if err := c.ShouldBindJSON(&request); err != nil || strings.TrimSpace(request.Review) == "" {
		h.fail(c, domain.ErrInvalidRequest)
		return
	}

	adjustment, err := h.ratings.SubmitReview(c.Request.Context(), id, request.Review)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "adjustment": adjustment})
}

func (h *Handler) productID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		h.fail(c, domain.ErrInvalidRequest)
		return 0, false
	}
	return id, true
}

func (h *Handler) notConfigured(c *gin.Context, service string) {
	c.JSON(http.StatusServiceUnavailable, gin.H{
		"ok":    false,
		"error": service + " service not configured",
	})
}

// fail writes {"ok":false,"error":KIND} with the status matching err
func (h *Handler) fail(c *gin.Context, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		h.logError(c, err, "request failed")
	}
	c.JSON(status, gin.H{"ok": false, "error": domain.ErrorKind(err)})
}

func (h *Handler) logError(c *gin.Context, err error, msg string) {
	log := observability.LoggerFromContext(c.Request.Context(), h.logger)
	log.Error().Err(err).Str("path", c.FullPath()).Msg(msg)
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrProductNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrInvalidRequest):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrRateLimited):
		return http.StatusTooManyRequests
	case errors.Is(err, domain.ErrUpstreamUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
