package middlewares

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const RequestIDHeader = "X-Request-Id"

var ErrMaintenance = errors.New("server is under maintenance")

func SecureHeaders(ctx *gin.Context) {
	h := ctx.Writer.Header()
	h.Set("X-Content-Type-Options", "nosniff")
	h.Set("X-Frame-Options", "DENY")
	h.Set("Referrer-Policy", "strict-origin-when-cross-origin")
	h.Set("Strict-Transport-Security", "max-age=31536000; includeSubDomains")
	ctx.Next()
}

// RequestID echoes the caller's X-Request-Id or assigns a new one.
func RequestID(ctx *gin.Context) {
	id := ctx.GetHeader(RequestIDHeader)
	if _, err := uuid.Parse(id); err != nil {
		id = uuid.NewString()
	}
	ctx.Set("request_id", id)
	ctx.Writer.Header().Set(RequestIDHeader, id)
	ctx.Next()
}

// Maintenance aborts every request with 503 while enabled() reports true.
func Maintenance(enabled func() bool) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		if enabled() {
			log.Println(ErrMaintenance.Error())
			ctx.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{"error": ErrMaintenance.Error()})
			return
		}
	}
}
