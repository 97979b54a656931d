package middleware

import (
	"net/http"
	"time"

	"shoppinglist/internal/logging"
	"shoppinglist/internal/models"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/ulule/limiter/v3"
	mgin "github.com/ulule/limiter/v3/drivers/middleware/gin"
	"github.com/ulule/limiter/v3/drivers/store/memory"
)

// RateLimitConfig holds rate limiting configuration
type RateLimitConfig struct {
	Enabled             bool
	RequestsPerMin      int64
	WriteRequestsPerMin int64
}

// NewRateLimitConfigFromEnv creates rate limit config from environment variables
func NewRateLimitConfigFromEnv() *RateLimitConfig {
	perMin := int64(getEnvInt("RATE_LIMIT_REQUESTS_PER_MIN", 120))
	return &RateLimitConfig{
		Enabled:             getEnvBool("RATE_LIMIT_ENABLED", true),
		RequestsPerMin:      perMin,
		WriteRequestsPerMin: int64(getEnvInt("RATE_LIMIT_WRITES_PER_MIN", int(perMin/2))),
	}
}

// GlobalRateLimiter limits every request per client IP
func GlobalRateLimiter(config *RateLimitConfig) gin.HandlerFunc {
	if !config.Enabled {
		logging.Logger.Info("Rate limiting is disabled")
		return passThrough
	}

	logging.Logger.Infof("Rate limiting enabled: %d requests per minute", config.RequestsPerMin)
	return newLimiter("global", config.RequestsPerMin)
}

// WriteRateLimiter limits list mutations per client IP. Every accepted write
// triggers a persistence write, so the budget is tighter than for reads.
func WriteRateLimiter(config *RateLimitConfig) gin.HandlerFunc {
	if !config.Enabled {
		return passThrough
	}
	return newLimiter("write", config.WriteRequestsPerMin)
}

func passThrough(c *gin.Context) {
	c.Next()
}

func newLimiter(limitType string, perMin int64) gin.HandlerFunc {
	rate := limiter.Rate{
		Period: time.Minute,
		Limit:  perMin,
	}
	instance := limiter.New(memory.NewStore(), rate)

	return mgin.NewMiddleware(instance,
		mgin.WithKeyGetter(func(c *gin.Context) string {
			return limitType + ":" + c.ClientIP()
		}),
		mgin.WithLimitReachedHandler(func(c *gin.Context) {
			logging.Logger.WithFields(logrus.Fields{
				"client_ip":     c.ClientIP(),
				"path":          c.Request.URL.Path,
				"method":        c.Request.Method,
				"limit_type":    limitType,
				"limit_per_min": rate.Limit,
			}).Warn("Rate limit exceeded")

			c.AbortWithStatusJSON(http.StatusTooManyRequests, models.ErrorResponse{
				Code:    "RATE_LIMIT_EXCEEDED",
				Message: "Too many requests. Please try again later.",
				Details: map[string]interface{}{
					"retry_after_seconds": int(rate.Period.Seconds()),
					"limit":               rate.Limit,
				},
			})
		}),
	)
}
