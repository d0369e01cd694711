package server

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"taskman/internal/auth"
	"taskman/internal/config"
	"taskman/internal/domain/models"
)

// UserRepository is the storage contract for accounts. Implementations
// return the sentinel errors from internal/domain/errors.
type UserRepository interface {
	CreateUser(ctx context.Context, user *models.User) error
	GetUserByID(ctx context.Context, id int64) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	UpdateUserName(ctx context.Context, id int64, name string) (*models.User, error)
	UpdateLastAccess(ctx context.Context, id int64) (*models.User, error)
}

// TaskRepository is the storage contract for tasks. Every read and write is
// scoped by the owning user id; an ownership mismatch is reported as
// ErrTaskNotFound, indistinguishable from absence.
type TaskRepository interface {
	CreateTask(ctx context.Context, task *models.Task) error
	GetTask(ctx context.Context, id, userID int64) (*models.Task, error)
	ListTasks(ctx context.Context, userID int64, filter models.TaskFilter) ([]models.Task, int64, error)
	UpdateTask(ctx context.Context, task *models.Task) error
	DeleteTask(ctx context.Context, id, userID int64) error
	TaskStats(ctx context.Context, userID int64) (*models.TaskStats, error)
}

// HealthChecker reports whether the backing store is reachable.
type HealthChecker interface {
	Ping(ctx context.Context) error
}

type TaskAPI struct {
	httpSrv  *http.Server
	users    UserRepository
	tasks    TaskRepository
	codec    *auth.Codec
	cfg      *config.Config
	log      zerolog.Logger
	validate *validator.Validate
	health   HealthChecker
}

// NewTaskAPI wires the HTTP surface. health may be nil when no reachable
// store backs the repositories (in-memory runs).
func NewTaskAPI(users UserRepository, tasks TaskRepository, codec *auth.Codec, cfg *config.Config, logger zerolog.Logger, health HealthChecker) *TaskAPI {
	if users == nil || tasks == nil || codec == nil || cfg == nil {
		return nil
	}

	api := &TaskAPI{
		httpSrv:  &http.Server{Addr: cfg.ListenAddr()},
		users:    users,
		tasks:    tasks,
		codec:    codec,
		cfg:      cfg,
		log:      logger,
		validate: newValidator(),
		health:   health,
	}

	api.configRoutes()

	return api
}

func (api *TaskAPI) configRoutes() {
	if api.cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery(), RequestID(), RequestLogger(api.log))

	router.NoRoute(func(ctx *gin.Context) {
		respondError(ctx, http.StatusNotFound, "route not found")
	})
	router.NoMethod(func(ctx *gin.Context) {
		respondError(ctx, http.StatusMethodNotAllowed, "method not allowed")
	})

	router.GET("/health", api.healthCheck)

	authGroup := router.Group("/api/auth")
	{
		authGroup.POST("/register", api.register)
		authGroup.POST("/login", api.login)
		authGroup.POST("/refresh", api.refresh)
		authGroup.GET("/profile", api.RequireAuth(), api.getProfile)
		authGroup.PUT("/profile", api.RequireAuth(), api.updateProfile)
	}

	tasksGroup := router.Group("/api/tasks", api.RequireAuth())
	{
		tasksGroup.GET("", api.listTasks)
		tasksGroup.GET("/statistics", api.taskStats)
		tasksGroup.GET("/:taskID", api.getTask)
		tasksGroup.POST("", api.createTask)
		tasksGroup.PUT("/:taskID", api.updateTask)
		tasksGroup.DELETE("/:taskID", api.deleteTask)
	}

	api.httpSrv.Handler = router
}

func (api *TaskAPI) Start() error {
	return api.httpSrv.ListenAndServe()
}

// Shutdown stops accepting new requests and waits for in-flight ones.
func (api *TaskAPI) Shutdown(ctx context.Context) error {
	return api.httpSrv.Shutdown(ctx)
}

// Handler exposes the router for tests.
func (api *TaskAPI) Handler() http.Handler {
	return api.httpSrv.Handler
}

func (api *TaskAPI) healthCheck(ctx *gin.Context) {
	if api.health != nil {
		if err := api.health.Ping(ctx.Request.Context()); err != nil {
			api.log.Error().Err(err).Msg("health check failed")
			ctx.JSON(http.StatusServiceUnavailable, Response{Success: false, Error: "database unavailable"})
			return
		}
	}
	ctx.JSON(http.StatusOK, Response{Success: true, Message: "ok"})
}
