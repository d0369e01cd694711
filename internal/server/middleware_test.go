package server

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"taskman/internal/auth"
	"taskman/internal/domain/models"
)

func TestRequireAuth(t *testing.T) {
	tests := []struct {
		name   string
		header func(t *testing.T, api *TaskAPI) string
		want   struct {
			statusCode int
			errorMsg   string
		}
	}{
		{
			name:   "missing header",
			header: func(t *testing.T, api *TaskAPI) string { return "" },
			want: struct {
				statusCode int
				errorMsg   string
			}{statusCode: http.StatusUnauthorized, errorMsg: "authorization token required"},
		},
		{
			name:   "not a bearer token",
			header: func(t *testing.T, api *TaskAPI) string { return "Basic dXNlcjpwYXNz" },
			want: struct {
				statusCode int
				errorMsg   string
			}{statusCode: http.StatusUnauthorized, errorMsg: "authorization token required"},
		},
		{
			name:   "garbage token",
			header: func(t *testing.T, api *TaskAPI) string { return "Bearer not.a.token" },
			want: struct {
				statusCode int
				errorMsg   string
			}{statusCode: http.StatusUnauthorized, errorMsg: "invalid token"},
		},
		{
			name: "expired token",
			header: func(t *testing.T, api *TaskAPI) string {
				expired := auth.NewCodec(api.cfg.JWTSecret, -time.Minute)
				_, user := registerUser(t, api, "Alice", "alice@example.com")
				access, _, err := expired.Issue(user)
				require.NoError(t, err)
				return "Bearer " + access
			},
			want: struct {
				statusCode int
				errorMsg   string
			}{statusCode: http.StatusUnauthorized, errorMsg: "token has expired"},
		},
		{
			name: "token for a user that no longer exists",
			header: func(t *testing.T, api *TaskAPI) string {
				access, _, err := api.codec.Issue(&models.User{ID: 9999, Email: "ghost@example.com"})
				require.NoError(t, err)
				return "Bearer " + access
			},
			want: struct {
				statusCode int
				errorMsg   string
			}{statusCode: http.StatusUnauthorized, errorMsg: "invalid token"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			api, _ := newTestAPI(t)
			header := tt.header(t, api)

			req, _ := http.NewRequest(http.MethodGet, "/api/tasks", nil)
			if header != "" {
				req.Header.Set("Authorization", header)
			}
			w := httptest.NewRecorder()
			api.Handler().ServeHTTP(w, req)

			assert.Equal(t, tt.want.statusCode, w.Code)
			assert.Contains(t, w.Body.String(), tt.want.errorMsg)
		})
	}
}

func TestRequireRole(t *testing.T) {
	tests := []struct {
		name    string
		role    string
		allowed []string
		want    struct {
			statusCode int
		}
	}{
		{
			name:    "role allowed",
			role:    models.RoleAdmin,
			allowed: []string{models.RoleAdmin},
			want:    struct{ statusCode int }{statusCode: http.StatusOK},
		},
		{
			name:    "role not in set",
			role:    models.RoleUser,
			allowed: []string{models.RoleAdmin},
			want:    struct{ statusCode int }{statusCode: http.StatusForbidden},
		},
		{
			name:    "absent role",
			role:    "",
			allowed: []string{models.RoleAdmin, models.RoleUser},
			want:    struct{ statusCode int }{statusCode: http.StatusForbidden},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			api, _ := newTestAPI(t)
			gin.SetMode(gin.TestMode)

			router := gin.New()
			router.GET("/restricted", func(ctx *gin.Context) {
				ctx.Set(ctxUserKey, &models.User{ID: 1, Role: tt.role})
			}, api.RequireRole(tt.allowed...), func(ctx *gin.Context) {
				respondData(ctx, http.StatusOK, "ok", nil)
			})

			req, _ := http.NewRequest(http.MethodGet, "/restricted", nil)
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			assert.Equal(t, tt.want.statusCode, w.Code)
		})
	}
}

func TestRequestID(t *testing.T) {
	api, _ := newTestAPI(t)

	t.Run("generated when absent", func(t *testing.T) {
		req, _ := http.NewRequest(http.MethodGet, "/health", nil)
		w := httptest.NewRecorder()
		api.Handler().ServeHTTP(w, req)

		assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
	})

	t.Run("client-supplied id is kept", func(t *testing.T) {
		req, _ := http.NewRequest(http.MethodGet, "/health", nil)
		req.Header.Set("X-Request-ID", "req-123")
		w := httptest.NewRecorder()
		api.Handler().ServeHTTP(w, req)

		assert.Equal(t, "req-123", w.Header().Get("X-Request-ID"))
	})
}
