package api

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/wikifeeds-api/internal/config"
	"github.com/wikifeeds-api/internal/models"
	"github.com/wikifeeds-api/internal/service"
	"github.com/wikifeeds-api/internal/validation"
)

const mostReadContentType = `application/json; charset=utf-8; profile="https://www.mediawiki.org/wiki/Specs/MostRead/1.0.0"`

// FeedHandler handles feed endpoints
type FeedHandler struct {
	services    *service.Services
	validator   *validation.Validator
	cacheMaxAge time.Duration
	timeout     time.Duration
	log         zerolog.Logger
}

// NewFeedHandler creates a new FeedHandler
func NewFeedHandler(services *service.Services, cfg *config.Config, log zerolog.Logger) *FeedHandler {
	return &FeedHandler{
		services:    services,
		validator:   validation.NewValidator(),
		cacheMaxAge: cfg.Server.CacheMaxAge,
		timeout:     cfg.Server.WriteTimeout,
		log:         log.With().Str("handler", "feed").Logger(),
	}
}

// MostRead handles GET /:domain/v1/page/most-read/:yyyy/:mm/:dd[?aggregated=true]
func (h *FeedHandler) MostRead(c *gin.Context) {
	ctx, cancel := contextWithTimeout(c, h.timeout)
	defer cancel()

	domain := c.Param("domain")
	if err := h.validator.ValidateDomain(domain); err != nil {
		writeError(c, err)
		return
	}

	aggregated, _ := strconv.ParseBool(c.Query("aggregated"))
	req := models.MostReadRequest{
		Domain:         domain,
		Year:           c.Param("yyyy"),
		Month:          c.Param("mm"),
		Day:            c.Param("dd"),
		Aggregated:     aggregated,
		AcceptLanguage: c.GetHeader("Accept-Language"),
	}

	result, err := h.services.MostRead.Build(ctx, req)
	if err != nil {
		h.log.Debug().Err(err).Str("domain", domain).Msg("Most-read request failed")
		writeError(c, err)
		return
	}
	if result.Empty() {
		c.Status(http.StatusNoContent)
		return
	}

	h.setCacheHeaders(c, result.Meta)
	c.Header("Content-Type", mostReadContentType)
	c.JSON(http.StatusOK, result.Payload)
}

// Aggregated handles GET /:domain/v1/feed/featured/:yyyy/:mm/:dd
func (h *FeedHandler) Aggregated(c *gin.Context) {
	ctx, cancel := contextWithTimeout(c, h.timeout)
	defer cancel()

	domain := c.Param("domain")
	if err := h.validator.ValidateDomain(domain); err != nil {
		writeError(c, err)
		return
	}

	result, err := h.services.Feed.Aggregated(ctx, models.FeedRequest{
		Domain:         domain,
		Year:           c.Param("yyyy"),
		Month:          c.Param("mm"),
		Day:            c.Param("dd"),
		AcceptLanguage: c.GetHeader("Accept-Language"),
	})
	if err != nil {
		writeError(c, err)
		return
	}

	h.setCacheHeaders(c, result.Meta)
	c.JSON(http.StatusOK, result.Payload)
}

// setCacheHeaders sets ETag, Cache-Control and Vary from feed metadata
func (h *FeedHandler) setCacheHeaders(c *gin.Context, meta models.FeedMeta) {
	if meta.Revision != "" {
		tid, err := uuid.NewUUID()
		if err == nil {
			c.Header("ETag", fmt.Sprintf(`"%s/%s"`, meta.Revision, tid))
		}
	}
	if h.cacheMaxAge > 0 {
		secs := int(h.cacheMaxAge.Seconds())
		c.Header("Cache-Control", fmt.Sprintf("s-maxage=%d, max-age=%d", secs, secs))
	}
	if meta.Vary != "" {
		c.Header("Vary", meta.Vary)
	}
}
