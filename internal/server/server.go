package server

import (
	"context"
	"log"
	"net/http"
	"slices"
	"strings"
	"time"

	"anoa.com/taskmanager/internal/config"
	"anoa.com/taskmanager/internal/middleware"
	"anoa.com/taskmanager/internal/progress"
	"anoa.com/taskmanager/internal/scheduler"
	"anoa.com/taskmanager/pkg/ratelimiter"
	"anoa.com/taskmanager/pkg/validator"

	projectHttp "anoa.com/taskmanager/internal/modules/project/delivery/http"
	projectRepo "anoa.com/taskmanager/internal/modules/project/repository"
	projectService "anoa.com/taskmanager/internal/modules/project/service"

	searchService "anoa.com/taskmanager/internal/modules/search/service"

	taskHttp "anoa.com/taskmanager/internal/modules/task/delivery/http"
	taskRepo "anoa.com/taskmanager/internal/modules/task/repository"
	taskService "anoa.com/taskmanager/internal/modules/task/service"

	userHttp "anoa.com/taskmanager/internal/modules/user/delivery/http"
	userRepo "anoa.com/taskmanager/internal/modules/user/repository"
	userService "anoa.com/taskmanager/internal/modules/user/service"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/meilisearch/meilisearch-go"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

const progressJob = "progress-recompute"

type Server struct {
	engine      *gin.Engine
	db          *gorm.DB
	redisClient *redis.Client
	scheduler   *scheduler.Scheduler
}

// NewServer wires repositories, services and handlers. redisClient may be nil.
func NewServer(cfg *config.Config, db *gorm.DB, redisClient *redis.Client) *Server {
	if err := validator.Register(); err != nil {
		log.Fatalf("failed to register validators: %v", err)
	}

	origins := allowedOrigins(cfg.AllowedOrigins)

	var meiliClient meilisearch.ServiceManager
	if host := cfg.MeiliSearchHost; host != "" {
		if !strings.HasPrefix(host, "http") {
			host = "http://" + host + ":7700"
		}
		meiliClient = meilisearch.New(host, meilisearch.WithAPIKey(cfg.MeiliMasterKey))
	}
	taskIndex := searchService.NewMeiliSearchService(meiliClient)

	publisher := progress.NewPublisher(redisClient)
	loginLimiter := ratelimiter.NewAttemptLimiter(redisClient, "login", cfg.LoginMaxAttempts, cfg.LoginWindow)

	userRepository := userRepo.NewUserRepository(db)
	tokenRepository := userRepo.NewTokenRepository(redisClient)

	authSvc := userService.NewAuthService(userRepository, tokenRepository, loginLimiter, cfg.JWTSecret, cfg.JWTTTL)
	authHandler := userHttp.NewAuthHandler(authSvc)

	userSvc := userService.NewUserService(userRepository)
	userHandler := userHttp.NewUserHandler(userSvc)

	projectRepository := projectRepo.NewProjectRepository(db)
	projectSvc := projectService.NewProjectService(projectRepository, publisher)
	projectHandler := projectHttp.NewProjectHandler(projectSvc, publisher, checkOrigin(origins))

	taskRepository := taskRepo.NewTaskRepository(db)
	taskSvc := taskService.NewTaskService(taskRepository, projectRepository, userRepository, taskIndex, publisher)
	taskHandler := taskHttp.NewTaskHandler(taskSvc)

	// Rebuilds cached progress so rows written outside the API converge.
	jobs := scheduler.New(5 * time.Minute)
	err := jobs.Register(scheduler.NewJob(progressJob, cfg.ProgressRecomputeSchedule, func(ctx context.Context) error {
		results, err := projectSvc.RecomputeAll(ctx)
		if err != nil {
			return err
		}
		log.Printf("[%s] recomputed %d projects", progressJob, len(results))
		return nil
	}))
	if err != nil {
		log.Fatalf("failed to register background jobs: %v", err)
	}

	if !cfg.IsDevelopment() {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	setupCORS(router, origins)

	router.Use(gin.Recovery())
	router.Use(gin.LoggerWithConfig(gin.LoggerConfig{
		SkipPaths: []string{"/healthz", "/metrics"},
	}))
	router.Use(middleware.Metrics())

	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	authMiddleware := middleware.NewAuthMiddleware(userRepository, tokenRepository, cfg.JWTSecret)

	api := router.Group("/api/v1")

	// Public routes (no auth required)
	auth := api.Group("/auth")
	{
		auth.POST("/login", authHandler.Login)
		auth.POST("/register", authHandler.Register)
	}

	// Protected routes (apply auth middleware explicitly)
	protected := api.Group("")
	protected.Use(authMiddleware.RequireAuth())
	{
		protected.POST("/auth/logout", authHandler.Logout)
		protected.GET("/auth/me", authHandler.Me)
		protected.POST("/auth/me", authHandler.Me)

		// User routes
		protected.GET("/users", userHandler.GetUsers)
		protected.GET("/users/developers", userHandler.GetDevelopers)
		protected.GET("/users/admins", userHandler.GetAdmins)
		protected.GET("/users/:id", userHandler.GetUser)
		protected.POST("/users", userHandler.CreateUser)
		protected.PUT("/users/:id", userHandler.UpdateUser)
		protected.PATCH("/users/:id", userHandler.UpdateUser)
		protected.DELETE("/users/:id", userHandler.DeleteUser)

		// Project routes
		protected.GET("/projects", projectHandler.GetProjects)
		protected.POST("/projects", projectHandler.CreateProject)
		protected.GET("/projects/:id", projectHandler.GetProject)
		protected.PUT("/projects/:id", projectHandler.UpdateProject)
		protected.PATCH("/projects/:id", projectHandler.UpdateProject)
		protected.DELETE("/projects/:id", projectHandler.DeleteProject)
		protected.GET("/projects/:id/progress/ws", projectHandler.ProgressFeed)

		// Task routes
		protected.GET("/tasks/summary", taskHandler.GetSummary)
		protected.GET("/tasks/search", taskHandler.SearchTasks)
		protected.GET("/tasks", taskHandler.GetTasks)
		protected.POST("/tasks", taskHandler.CreateTask)
		protected.GET("/tasks/:id", taskHandler.GetTask)
		protected.PUT("/tasks/:id", taskHandler.UpdateTask)
		protected.PATCH("/tasks/:id", taskHandler.UpdateTask)
		protected.DELETE("/tasks/:id", taskHandler.DeleteTask)

		// Admin routes
		adminGroup := protected.Group("/admin")
		adminGroup.Use(authMiddleware.RequireAdmin())
		{
			adminGroup.POST("/projects/recompute", projectHandler.RecomputeProgress)
		}
	}

	return &Server{
		engine:      router,
		db:          db,
		redisClient: redisClient,
		scheduler:   jobs,
	}
}

func (s *Server) Handler() http.Handler {
	return s.engine
}

// Run starts the background jobs and serves HTTP until the listener fails.
func (s *Server) Run(addr string) error {
	s.scheduler.Start()
	defer s.scheduler.Stop()

	return s.engine.Run(addr)
}

func allowedOrigins(raw string) []string {
	var origins []string
	for _, o := range strings.Split(raw, ",") {
		if o = strings.TrimSpace(o); o != "" {
			origins = append(origins, o)
		}
	}
	if len(origins) == 0 {
		origins = []string{"http://localhost:3000"}
	}
	return origins
}

// checkOrigin accepts websocket upgrades from the CORS origins and from clients that send none.
func checkOrigin(origins []string) func(r *http.Request) bool {
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		return origin == "" || slices.Contains(origins, "*") || slices.Contains(origins, origin)
	}
}

func setupCORS(router *gin.Engine, origins []string) {
	router.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "HEAD", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"Content-Length", "Retry-After"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))
}
