package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/importar-info/importador/cache"
	"github.com/importar-info/importador/models"
	"github.com/importar-info/importador/scrape"
)

// Scrape returns a handler for POST /api/v1/scrape.
//
// Orchestration flow:
//  1. Parse & validate request.
//  2. Cache lookup by listing URL.
//  3. Scraper.Scrape → fetch chain + extractor merge.
//  4. Cache store, fill timing, return 200.
//
// A degraded record (nothing extracted, or every fetch strategy
// failed) is still a 200 with success=true; the frontend falls back to
// manual entry.
func Scrape(sc *scrape.Scraper, cc *cache.Cache) gin.HandlerFunc {
	return func(c *gin.Context) {
		totalStart := time.Now()

		var req models.ScrapeRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, models.ScrapeResponse{
				Success: false,
				Error: &models.ErrorDetail{
					Code:    models.ErrCodeInvalidInput,
					Message: err.Error(),
				},
			})
			return
		}

		// Source validation happens before any cache or network work so
		// an unsupported marketplace fails fast with a clear code.
		if err := req.Validate(); err != nil {
			respondError(c, err, models.TimingInfo{
				TotalMs: time.Since(totalStart).Milliseconds(),
			})
			return
		}

		cacheKey := cache.Key(req.URL)
		if cc != nil {
			if cached, hit := cc.Get(cacheKey); hit {
				c.JSON(http.StatusOK, models.ScrapeResponse{
					Success:     true,
					Car:         cached,
					CacheStatus: "hit",
					Timing: models.TimingInfo{
						TotalMs: time.Since(totalStart).Milliseconds(),
					},
				})
				return
			}
		}

		result, err := sc.Scrape(c.Request.Context(), req.URL)
		if err != nil {
			respondError(c, err, models.TimingInfo{
				TotalMs: time.Since(totalStart).Milliseconds(),
			})
			return
		}

		resp := models.ScrapeResponse{
			Success:     true,
			Car:         result.Car,
			FetchedWith: result.FetchedWith,
			Timing:      result.Timing,
		}
		resp.Timing.TotalMs = time.Since(totalStart).Milliseconds()

		if cc != nil {
			cc.Set(cacheKey, result.Car)
			resp.CacheStatus = "miss"
		}

		c.JSON(http.StatusOK, resp)
	}
}

// respondError maps a ScrapeError to the correct HTTP status code and
// writes a structured JSON error response.
func respondError(c *gin.Context, err error, timing models.TimingInfo) {
	var scrapeErr *models.ScrapeError
	if !errors.As(err, &scrapeErr) {
		scrapeErr = models.NewScrapeError(models.ErrCodeInternal, err.Error(), err)
	}

	c.JSON(mapErrorToStatus(scrapeErr), models.ScrapeResponse{
		Success: false,
		Error:   scrapeErr.ToDetail(),
		Timing:  timing,
	})
}

// mapErrorToStatus translates error codes to HTTP status codes.
func mapErrorToStatus(e *models.ScrapeError) int {
	switch e.Code {
	case models.ErrCodeInvalidInput, models.ErrCodeUnsupportedSource:
		return http.StatusBadRequest // 400
	case models.ErrCodeTimeout:
		return http.StatusGatewayTimeout // 504
	case models.ErrCodeNavigation, models.ErrCodeFetchExhausted, models.ErrCodeBrowserCrash:
		return http.StatusBadGateway // 502
	case models.ErrCodeBlocked:
		return http.StatusBadGateway // 502
	case models.ErrCodeRateLimited:
		return http.StatusTooManyRequests // 429
	case models.ErrCodeUnauthorized:
		return http.StatusUnauthorized // 401
	default:
		return http.StatusInternalServerError // 500
	}
}
