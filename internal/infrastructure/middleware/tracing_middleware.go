package middleware

import (
	"parley/internal/core/domain"
	"parley/pkg/tracing"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

// TracingMiddleware traces HTTP requests.
func TracingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, span := tracing.StartSpan(c.Request.Context(), "http."+c.Request.Method)
		defer span.End()

		span.SetAttributes(
			attribute.String("http.route", c.FullPath()),
			attribute.String("http.host", c.Request.Host),
			attribute.String("http.remote_addr", c.ClientIP()),
		)

		c.Request = c.Request.WithContext(ctx)
		c.Next()

		if uid, ok := c.Get("user_id"); ok {
			if id, ok := uid.(domain.UserID); ok {
				span.SetAttributes(tracing.UserIDKey.String(string(id)))
			}
		}

		span.SetAttributes(attribute.Int("http.status_code", c.Writer.Status()))
		if len(c.Errors) > 0 {
			tracing.RecordError(ctx, c.Errors.Last().Err)
		}
		if c.Writer.Status() >= 400 {
			span.SetStatus(codes.Error, c.Errors.String())
		}
	}
}
