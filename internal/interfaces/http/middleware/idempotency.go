package middleware

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rtmanagement/backend/internal/domain/shared"
	"github.com/rtmanagement/backend/internal/infrastructure/logger"
	"github.com/rtmanagement/backend/internal/interfaces/http/dto"
	"go.uber.org/zap"
)

// IdempotencyKeyHeader names the optional client supplied idempotency key
const IdempotencyKeyHeader = "Idempotency-Key"

const maxIdempotencyKeyLength = 255

// Idempotency claims the request's Idempotency-Key for ttl before the
// handler runs. A key already claimed gets 409. The claim is released when
// the handler responds with an error, so a failed submission can be retried
// with the same key. Requests without the header pass through.
func Idempotency(store shared.IdempotencyStore, ttl time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := c.GetHeader(IdempotencyKeyHeader)
		if key == "" || store == nil {
			c.Next()
			return
		}
		if len(key) > maxIdempotencyKeyLength {
			abortWithError(c, dto.ErrCodeValidation, "Idempotency-Key is too long")
			return
		}

		ctx := c.Request.Context()
		log := logger.GetGinLogger(c)

		first, err := store.MarkProcessed(ctx, key, ttl)
		if err != nil {
			log.Error("Idempotency store unavailable", zap.Error(err))
			abortWithError(c, dto.ErrCodeUnavailable, "Service temporarily unavailable")
			return
		}
		if !first {
			log.Info("Duplicate idempotency key rejected", zap.String("idempotency_key", key))
			abortWithError(c, dto.ErrCodeConflict, "A request with this Idempotency-Key was already processed")
			return
		}

		c.Next()

		if c.Writer.Status() >= http.StatusBadRequest {
			if err := store.Release(ctx, key); err != nil {
				log.Warn("Failed to release idempotency key", zap.String("idempotency_key", key), zap.Error(err))
			}
		}
	}
}

func abortWithError(c *gin.Context, code, message string) {
	c.AbortWithStatusJSON(dto.GetHTTPStatus(code), dto.NewErrorResponse(code, message, GetRequestID(c)))
}
