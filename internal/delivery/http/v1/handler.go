package v1

import (
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/pwronski/go-taskboard/internal/services"
)

type Handler interface {
	HandleRegister(c *gin.Context)
	HandleLogin(c *gin.Context)
	HandleHealth(c *gin.Context)
	HandleAuthMiddleware(c *gin.Context)

	HandleCreateTask(c *gin.Context)
	HandleGetTasks(c *gin.Context)
	HandleGetAllTasks(c *gin.Context)
	HandleUpdateTask(c *gin.Context)
	HandleDeleteTask(c *gin.Context)
}

type handlerImpl struct {
	logger zerolog.Logger
	auth   services.AuthService
	tasks  services.TaskService
}

func New(
	logger zerolog.Logger,
	authService services.AuthService,
	taskService services.TaskService,
) Handler {
	return &handlerImpl{
		logger: logger,
		auth:   authService,
		tasks:  taskService,
	}
}

// RegisterRoutes attaches every endpoint to the router. Task routes sit
// behind the bearer-token middleware; /admin/tasks additionally requires
// the admin role, enforced by the service.
func RegisterRoutes(router gin.IRouter, h Handler) {
	router.GET("/health", h.HandleHealth)

	authRouter := router.Group("/auth")
	authRouter.POST("/register", h.HandleRegister)
	authRouter.POST("/login", h.HandleLogin)

	taskRouter := router.Group("/tasks", h.HandleAuthMiddleware)
	taskRouter.GET("", h.HandleGetTasks)
	taskRouter.POST("", h.HandleCreateTask)
	taskRouter.PUT("/:id", h.HandleUpdateTask)
	taskRouter.DELETE("/:id", h.HandleDeleteTask)

	adminRouter := router.Group("/admin", h.HandleAuthMiddleware)
	adminRouter.GET("/tasks", h.HandleGetAllTasks)
}
