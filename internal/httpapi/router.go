// Package httpapi serves the admin HTTP endpoints: health, metrics and a
// JSON form of the command interface.
package httpapi

import (
	"net/http"
	"strings"
	"time"

	"typed-kv-service/internal/auth"
	"typed-kv-service/internal/core/ports"

	"github.com/gin-contrib/gzip"
	"github.com/gin-contrib/requestid"
	"github.com/gin-gonic/gin"
	"github.com/hashicorp/go-hclog"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// NewRouter wires the admin routes. /healthz and /metrics are open;
// /v1/commands requires the shared credential when one is configured.
func NewRouter(svc ports.CommandService, authn *auth.Authenticator, logger hclog.Logger) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(requestid.New(requestid.WithCustomHeaderStrKey("X-Request-Id")))
	r.Use(LoggerMiddleware(logger))
	r.Use(gzip.Gzip(gzip.DefaultCompression))

	health := NewHealthController()
	r.GET("/healthz", health.Health)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	cmds := NewCommandController(svc)
	v1 := r.Group("/v1", AuthMiddleware(authn))
	v1.POST("/commands", cmds.Execute)

	return r
}

// LoggerMiddleware logs every request with its request id.
func LoggerMiddleware(logger hclog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		rlog := logger.With(
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"client_ip", c.ClientIP(),
			"request_id", requestid.Get(c),
		)

		start := time.Now()
		rlog.Trace("request started")
		c.Next()
		rlog.Debug("request completed", "status", c.Writer.Status(), "duration", time.Since(start))
	}
}

// AuthMiddleware checks the bearer token against the shared credential.
func AuthMiddleware(authn *auth.Authenticator) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !authn.Required() {
			c.Next()
			return
		}
		token, ok := strings.CutPrefix(c.GetHeader("Authorization"), "Bearer ")
		if !ok || token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": errorString(auth.ErrNoAuth)})
			return
		}
		if err := authn.Check(token); err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": errorString(err)})
			return
		}
		c.Next()
	}
}
