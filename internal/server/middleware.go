package server

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	domain "taskman/internal/domain/errors"
	"taskman/internal/domain/models"
)

const (
	ctxUserKey      = "currentUser"
	requestIDKey    = "requestID"
	requestIDHeader = "X-Request-ID"
)

// RequestID tags every request with a unique identifier, honoring one
// supplied by the client.
func RequestID() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		id := ctx.GetHeader(requestIDHeader)
		if id == "" {
			id = uuid.New().String()
		}
		ctx.Set(requestIDKey, id)
		ctx.Writer.Header().Set(requestIDHeader, id)
		ctx.Next()
	}
}

// RequestLogger emits one structured event per handled request.
func RequestLogger(logger zerolog.Logger) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		start := time.Now()
		ctx.Next()

		logger.Info().
			Str("requestId", ctx.GetString(requestIDKey)).
			Str("method", ctx.Request.Method).
			Str("path", ctx.Request.URL.Path).
			Int("status", ctx.Writer.Status()).
			Dur("latency", time.Since(start)).
			Msg("request handled")
	}
}

// RequireAuth guards a route: it demands a Bearer token, verifies it,
// resolves the embedded user id against storage and attaches the user to
// the gin context. The account's active flag is checked at login only, not
// here.
func (api *TaskAPI) RequireAuth() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		header := ctx.GetHeader("Authorization")
		if header == "" {
			respondError(ctx, http.StatusUnauthorized, domain.ErrMissingToken.Error())
			return
		}
		token, found := strings.CutPrefix(header, "Bearer ")
		if !found || token == "" {
			respondError(ctx, http.StatusUnauthorized, domain.ErrMissingToken.Error())
			return
		}

		claims, err := api.codec.Verify(token)
		if err != nil {
			if errors.Is(err, domain.ErrTokenExpired) {
				respondError(ctx, http.StatusUnauthorized, domain.ErrTokenExpired.Error())
			} else {
				respondError(ctx, http.StatusUnauthorized, domain.ErrInvalidToken.Error())
			}
			return
		}

		user, err := api.users.GetUserByID(ctx.Request.Context(), claims.UserID)
		if err != nil {
			respondError(ctx, http.StatusUnauthorized, domain.ErrInvalidToken.Error())
			return
		}

		ctx.Set(ctxUserKey, user)
		ctx.Next()
	}
}

// RequireRole restricts a route to users whose role is in the allowed set.
// It must run after RequireAuth.
func (api *TaskAPI) RequireRole(roles ...string) gin.HandlerFunc {
	allowed := make(map[string]bool, len(roles))
	for _, r := range roles {
		allowed[r] = true
	}
	return func(ctx *gin.Context) {
		user := currentUser(ctx)
		if user == nil || !allowed[user.Role] {
			respondError(ctx, http.StatusForbidden, domain.ErrForbidden.Error())
			return
		}
		ctx.Next()
	}
}

func currentUser(ctx *gin.Context) *models.User {
	v, ok := ctx.Get(ctxUserKey)
	if !ok {
		return nil
	}
	user, ok := v.(*models.User)
	if !ok {
		return nil
	}
	return user
}
