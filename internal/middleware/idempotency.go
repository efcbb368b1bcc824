package middleware

import (
	"net/http"
	"strconv"
	"time"

	"github.com/01moynul/storefront-golang/internal/cache"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

const IdempotencyHeader = "Idempotency-Key"

// Idempotency rejects a replayed Idempotency-Key from the same caller with
// 409 while the first request's key is retained. Keys of requests that
// failed are released so the client can retry. Requests without the header
// pass through.
func Idempotency(c cache.Cache, ttl time.Duration, log zerolog.Logger) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		key := ctx.GetHeader(IdempotencyHeader)
		if key == "" {
			ctx.Next()
			return
		}
		if len(key) > 128 {
			abort(ctx, http.StatusBadRequest, "Idempotency-Key is too long.")
			return
		}

		owner := "anonymous"
		if p, ok := PrincipalFrom(ctx); ok {
			owner = strconv.FormatInt(p.UserID, 10)
		}
		cacheKey := c.Key("idempotency", owner+":"+ctx.FullPath()+":"+key)

		stored, err := c.SetNX(ctx.Request.Context(), cacheKey, ctx.GetString(requestIDKey), ttl)
		if err != nil {
			// Fail open.
			log.Warn().Err(err).Msg("idempotency cache unavailable")
			ctx.Next()
			return
		}
		if !stored {
			abort(ctx, http.StatusConflict, "This request has already been processed.")
			return
		}

		ctx.Next()

		if ctx.Writer.Status() >= http.StatusBadRequest {
			if err := c.Delete(ctx.Request.Context(), cacheKey); err != nil {
				log.Warn().Err(err).Str("key", cacheKey).Msg("release idempotency key")
			}
		}
	}
}
