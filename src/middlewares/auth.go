package middlewares

import (
	"errors"
	"log"
	"net/http"
	"slices"
	"strconv"
	"strings"

	"maidops/src/types"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v4"
)

var errUnauthorized = errors.New("unauthorized")

// Auth verifies the HS256 bearer token and stores the caller on the context:
// "id" (uint, from sub) and "role" (housemaid, customer, admin or system).
func Auth(secret []byte) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		bearerToken := ctx.Request.Header.Get("Authorization")
		reqToken, ok := strings.CutPrefix(bearerToken, "Bearer ")
		if !ok || strings.TrimSpace(reqToken) == "" {
			ctx.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": errUnauthorized.Error()})
			return
		}
		claims := &types.Claims{}
		tkn, err := jwt.ParseWithClaims(reqToken, claims, func(t *jwt.Token) (any, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, jwt.ErrSignatureInvalid
			}
			return secret, nil
		})
		if err != nil || !tkn.Valid {
			if err != nil {
				log.Printf("token error: %s\n", err.Error())
			}
			ctx.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": errUnauthorized.Error()})
			return
		}

		uid, err := strconv.ParseUint(claims.Subject, 10, 64)
		if err != nil || uid == 0 {
			log.Printf("error parsing claims subject [%s]\n", claims.Subject)
			ctx.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": errUnauthorized.Error()})
			return
		}
		role := types.ActorType(claims.Role)
		if !role.IsValid() {
			ctx.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "unknown role"})
			return
		}
		ctx.Set("id", uint(uid))
		ctx.Set("role", string(role))
		ctx.Set("name", claims.Name)
	}
}

// RequireRole lets the request through only for the listed roles.
func RequireRole(roles ...types.ActorType) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		role := types.ActorType(ctx.GetString("role"))
		if !slices.Contains(roles, role) {
			ctx.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "forbidden"})
			return
		}
	}
}
