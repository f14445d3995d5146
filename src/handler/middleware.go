package handler

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/ascension-ai/backend/src/metrics"
	"github.com/ascension-ai/backend/src/service"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

func SetMiddlewares(ctx context.Context, ginRouter *gin.Engine) {
	ginRouter.Use(LoggerMiddleware(ctx))
	ginRouter.Use(MetricsMiddleware())
}

func LoggerMiddleware(ctx context.Context) gin.HandlerFunc {
	return func(c *gin.Context) {

		zlog := zerolog.Ctx(ctx).With().
			Str("path", c.FullPath()).
			Str("method", c.Request.Method).
			Logger()
		ctx = zlog.WithContext(ctx)
		c.Request = c.Request.WithContext(zlog.WithContext(ctx))
		c.Next()
	}
}

// MetricsMiddleware records prometheus request metrics
func MetricsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		duration := time.Since(start).Seconds()
		method := c.Request.Method
		path := c.FullPath()
		status := strconv.Itoa(c.Writer.Status())

		metrics.HTTPRequestsTotal.WithLabelValues(method, path, status).Inc()
		metrics.HTTPRequestDuration.WithLabelValues(method, path, status).Observe(duration)
	}
}

// ServeRoute is the internal endpoint tenant traffic is rewritten to. The
// original hostname and path travel as query parameters.
const ServeRoute = "/api/v1/serve"

// edgeExclusions never go through hostname classification.
var edgeExclusions = []string{"/api/", "/_next/", "/swagger/", "/metrics", "/favicon.ico", "/health"}

// EdgeRouterMiddleware intercepts every inbound request, classifies its Host
// header and, for tenant traffic, re-dispatches to the serve endpoint with the
// resolved hostname and path attached. Platform traffic passes through
// untouched. The hot path performs no writes.
func EdgeRouterMiddleware(classifier *service.HostClassifier, router *gin.Engine) gin.HandlerFunc {
	return func(c *gin.Context) {
		path := c.Request.URL.Path

		for _, prefix := range edgeExclusions {
			if strings.HasPrefix(path, prefix) || path == strings.TrimSuffix(prefix, "/") {
				c.Next()
				return
			}
		}

		class := classifier.Classify(c.Request.Host, path)
		metrics.RecordRouteDecision(class.String())

		switch class {
		case service.RouteCustomDomain, service.RoutePlatformSubdomain:
			host := hostWithoutPort(c.Request.Host)

			query := c.Request.URL.Query()
			query.Set("host", host)
			query.Set("path", path)
			c.Request.URL.RawQuery = query.Encode()
			c.Request.URL.Path = ServeRoute

			router.HandleContext(c)
			c.Abort()
		default:
			c.Next()
		}
	}
}

func hostWithoutPort(host string) string {
	host = strings.ToLower(host)
	if i := strings.LastIndex(host, ":"); i != -1 && !strings.Contains(host, "]") {
		host = host[:i]
	}
	return host
}
