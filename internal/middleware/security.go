package middleware

import (
	"net/http"
	"strconv"

	"shoppinglist/internal/logging"
	"shoppinglist/internal/models"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// ContextKeyItemID is the gin context key for the parsed :itemId
const ContextKeyItemID = "item_id"

// SecurityConfig holds security middleware configuration
type SecurityConfig struct {
	MaxRequestBodySize int64    // bytes
	TrustedProxies     []string // passed to gin's SetTrustedProxies
}

// NewSecurityConfigFromEnv creates security config from environment variables
func NewSecurityConfigFromEnv() *SecurityConfig {
	return &SecurityConfig{
		MaxRequestBodySize: int64(getEnvInt("MAX_REQUEST_BODY_SIZE", 64*1024)),
		TrustedProxies:     parseCommaSeparated(getEnv("TRUSTED_PROXIES", "")),
	}
}

// SecurityHeaders adds security-related HTTP headers
func SecurityHeaders() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("X-Frame-Options", "DENY")
		c.Header("X-Content-Type-Options", "nosniff")
		c.Header("Content-Security-Policy", "default-src 'none'; frame-ancestors 'none'")
		c.Header("Referrer-Policy", "no-referrer")

		// The list changes on every write
		c.Header("Cache-Control", "no-store")
		c.Header("Pragma", "no-cache")

		c.Next()
	}
}

// RequestSizeLimit rejects bodies larger than maxSize
func RequestSizeLimit(maxSize int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.ContentLength > maxSize {
			logging.Logger.WithFields(logrus.Fields{
				"client_ip":      c.ClientIP(),
				"content_length": c.Request.ContentLength,
				"max_size":       maxSize,
			}).Warn("Request body too large")

			c.AbortWithStatusJSON(http.StatusRequestEntityTooLarge, models.ErrorResponse{
				Code:    "REQUEST_TOO_LARGE",
				Message: "Request body too large",
				Details: map[string]interface{}{"max_size_bytes": maxSize},
			})
			return
		}

		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxSize)
		c.Next()
	}
}

// ErrorSanitizer logs errors attached to the context and replaces the body of
// unanswered 5xx responses with a generic message
func ErrorSanitizer() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 {
			return
		}

		logging.Logger.WithFields(logrus.Fields{
			"client_ip":  c.ClientIP(),
			"path":       c.Request.URL.Path,
			"method":     c.Request.Method,
			"request_id": GetRequestID(c),
			"error":      c.Errors.Last().Error(),
		}).Error("Request error")

		if !c.Writer.Written() {
			c.JSON(http.StatusInternalServerError, models.ErrorResponse{
				Code:    "INTERNAL_ERROR",
				Message: "An internal error occurred. Please try again later.",
			})
		}
	}
}

// ParseItemID parses an item id path value. Ids are millisecond timestamps so
// anything that is not a positive int64 is rejected.
func ParseItemID(s string) (int64, bool) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

// ItemIDValidator validates the named path parameter and stores the parsed id
// under ContextKeyItemID
func ItemIDValidator(param string) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := c.Param(param)
		id, ok := ParseItemID(raw)
		if !ok {
			logging.Logger.WithFields(logrus.Fields{
				"client_ip": c.ClientIP(),
				"path":      c.Request.URL.Path,
				"param":     param,
				"value":     raw,
			}).Warn("Invalid item id")

			c.AbortWithStatusJSON(http.StatusBadRequest, models.ErrorResponse{
				Code:    "INVALID_ITEM_ID",
				Message: "Item id must be a positive integer",
				Details: map[string]interface{}{"field": param},
			})
			return
		}

		c.Set(ContextKeyItemID, id)
		c.Next()
	}
}

// GetItemID returns the id stored by ItemIDValidator
func GetItemID(c *gin.Context) (int64, bool) {
	value, exists := c.Get(ContextKeyItemID)
	if !exists {
		return 0, false
	}
	id, ok := value.(int64)
	return id, ok
}
