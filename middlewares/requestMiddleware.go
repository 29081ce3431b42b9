package middlewares

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/sop/financialcontrol/config"
	"github.com/sop/financialcontrol/utils"
)

const CorrelationIdHeader = "x-correlation-id"

// CorrelationMiddleware attaches a correlation id and the request path to the context.
func CorrelationMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		cid := c.GetHeader(CorrelationIdHeader)
		if cid == "" {
			cid = uuid.NewString()
		}
		ctx := utils.SetCorrelationIdInContext(c.Request.Context(), cid)
		ctx = utils.SetRequestPathInContext(ctx, c.Request.URL.Path)
		c.Request = c.Request.WithContext(ctx)
		c.Header(CorrelationIdHeader, cid)
		c.Next()
	}
}

// ReadinessMiddleware answers /healthz and returns 503 until the database is connected.
func ReadinessMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.URL.Path == "/healthz" {
			c.Status(http.StatusNoContent)
			c.Abort()
			return
		}
		if config.GetDB() == nil {
			c.AbortWithStatus(http.StatusServiceUnavailable)
			return
		}
		c.Next()
	}
}

// ErrorLogger logs only requests that collected errors.
func ErrorLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) > 0 {
			config.LoggerFromContext(c.Request.Context()).WithFields(logrus.Fields{
				"method": c.Request.Method,
				"path":   c.Request.URL.Path,
				"status": c.Writer.Status(),
			}).Error(c.Errors.String())
		}
	}
}
