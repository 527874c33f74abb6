package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/noah-isme/sma-timetable-api/api/swagger"
	"github.com/noah-isme/sma-timetable-api/internal/handler"
	"github.com/noah-isme/sma-timetable-api/internal/middleware"
	"github.com/noah-isme/sma-timetable-api/internal/models"
	"github.com/noah-isme/sma-timetable-api/internal/repository"
	"github.com/noah-isme/sma-timetable-api/internal/service"
	"github.com/noah-isme/sma-timetable-api/pkg/cache"
	"github.com/noah-isme/sma-timetable-api/pkg/config"
	"github.com/noah-isme/sma-timetable-api/pkg/database"
	"github.com/noah-isme/sma-timetable-api/pkg/jobs"
	"github.com/noah-isme/sma-timetable-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/sma-timetable-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/sma-timetable-api/pkg/middleware/requestid"
)

// @title SMA Timetable API
// @version 1.0.0
// @description School timetable management and constraint solving service
// @BasePath /api/v1
// @schemes http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to postgres", "error", err)
	}
	defer db.Close()

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to redis", "error", err)
	}
	defer redisClient.Close()

	validate := validator.New()

	subjectRepo := repository.NewSubjectRepository(db)
	teacherRepo := repository.NewTeacherRepository(db)
	classRepo := repository.NewClassRepository(db)
	roomRepo := repository.NewRoomRepository(db)
	allocationRepo := repository.NewAllocationRepository(db)
	settingsRepo := repository.NewSettingsRepository(db)
	timetableRepo := repository.NewTimetableRepository(db)
	conflictRepo := repository.NewConflictRepository(db)
	userRepo := repository.NewUserRepository(db)

	solveStore := service.NewSolveStore(redisClient)
	metricsSvc := service.NewMetricsService()

	authSvc := service.NewAuthService(userRepo, validate, logr, service.AuthConfig{
		AccessTokenSecret:  cfg.JWT.Secret,
		AccessTokenExpiry:  cfg.JWT.Expiration,
		RefreshTokenExpiry: cfg.JWT.RefreshExpiration,
		Issuer:             "sma-timetable-api",
	})
	subjectSvc := service.NewSubjectService(subjectRepo, validate, logr)
	teacherSvc := service.NewTeacherService(teacherRepo, validate, logr)
	classSvc := service.NewClassService(classRepo, validate, logr)
	roomSvc := service.NewRoomService(roomRepo, validate, logr)
	allocationSvc := service.NewAllocationService(allocationRepo, teacherRepo, subjectRepo, classRepo, validate, logr)
	snapshotSvc := service.NewSnapshotService(subjectRepo, teacherRepo, classRepo, roomRepo, allocationRepo, settingsRepo, logr)
	settingsSvc := service.NewSettingsService(settingsRepo, snapshotSvc, validate, logr)
	exportSvc := service.NewExportService(timetableRepo, settingsRepo, snapshotSvc, logr, cfg.Exports)

	timetableSvc := service.NewTimetableService(
		timetableRepo,
		conflictRepo,
		snapshotSvc,
		solveStore,
		nil,
		metricsSvc,
		validate,
		logr,
		cfg.Solver,
	)

	solveQueue := jobs.NewQueue("solver", timetableSvc.HandleSolveJob, jobs.QueueConfig{
		Workers: cfg.Solver.WorkerConcurrency,
		Logger:  logr,
	})
	timetableSvc.SetQueue(solveQueue)

	queueCtx, queueCancel := context.WithCancel(context.Background())
	defer queueCancel()
	solveQueue.Start(queueCtx)
	defer solveQueue.Stop()

	authHandler := handler.NewAuthHandler(authSvc)
	subjectHandler := handler.NewSubjectHandler(subjectSvc)
	teacherHandler := handler.NewTeacherHandler(teacherSvc)
	classHandler := handler.NewClassHandler(classSvc)
	roomHandler := handler.NewRoomHandler(roomSvc)
	allocationHandler := handler.NewAllocationHandler(allocationSvc)
	settingsHandler := handler.NewSettingsHandler(settingsSvc)
	timetableHandler := handler.NewTimetableHandler(timetableSvc)
	exportHandler := handler.NewExportHandler(exportSvc)

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsSvc))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/ready", func(c *gin.Context) {
		if err := db.Ping(); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "db unavailable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})
	r.GET("/metrics", gin.WrapH(metricsSvc.Handler()))

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)

	auth := api.Group("/auth")
	{
		auth.POST("/login", authHandler.Login)
		auth.POST("/refresh", authHandler.Refresh)
		auth.POST("/logout", middleware.JWT(authSvc), authHandler.Logout)
		auth.GET("/me", middleware.JWT(authSvc), authHandler.Me)
	}

	secured := api.Group("")
	secured.Use(middleware.JWT(authSvc))

	staff := middleware.RBAC(models.RoleAdmin, models.RoleStaff)

	subjects := secured.Group("/subjects")
	{
		subjects.GET("", subjectHandler.List)
		subjects.GET("/:id", subjectHandler.Get)
		subjects.POST("", staff, subjectHandler.Create)
		subjects.PUT("/:id", staff, subjectHandler.Update)
		subjects.DELETE("/:id", staff, subjectHandler.Delete)
	}

	teachers := secured.Group("/teachers")
	{
		teachers.GET("", teacherHandler.List)
		teachers.GET("/:id", teacherHandler.Get)
		teachers.POST("", staff, teacherHandler.Create)
		teachers.PUT("/:id", staff, teacherHandler.Update)
		teachers.DELETE("/:id", staff, teacherHandler.Delete)
	}

	classes := secured.Group("/classes")
	{
		classes.GET("", classHandler.List)
		classes.GET("/:id", classHandler.Get)
		classes.POST("", staff, classHandler.Create)
		classes.PUT("/:id", staff, classHandler.Update)
		classes.DELETE("/:id", staff, classHandler.Delete)
	}

	rooms := secured.Group("/rooms")
	{
		rooms.GET("", roomHandler.List)
		rooms.GET("/:id", roomHandler.Get)
		rooms.POST("", staff, roomHandler.Create)
		rooms.PUT("/:id", staff, roomHandler.Update)
		rooms.DELETE("/:id", staff, roomHandler.Delete)
	}

	allocations := secured.Group("/allocations")
	{
		allocations.GET("", allocationHandler.List)
		allocations.GET("/:id", allocationHandler.Get)
		allocations.POST("", staff, allocationHandler.Create)
		allocations.PUT("/:id", staff, allocationHandler.Update)
		allocations.DELETE("/:id", staff, allocationHandler.Delete)
	}

	settings := secured.Group("/settings")
	{
		settings.GET("", settingsHandler.Get)
		settings.PUT("", staff, settingsHandler.Update)
		settings.GET("/time-slots", settingsHandler.TimeSlots)
	}

	timetable := secured.Group("/timetable")
	{
		timetable.GET("", timetableHandler.List)
		timetable.GET("/conflicts", timetableHandler.Conflicts)
		timetable.POST("/solve", staff, timetableHandler.Solve)
		timetable.GET("/jobs/:id", timetableHandler.JobStatus)
		timetable.POST("/entries/:id/validate-move", staff, timetableHandler.ValidateMove)
		timetable.POST("/entries/:id/move", staff, timetableHandler.Move)
		timetable.POST("/entries/:id/lock", staff, timetableHandler.Lock)
		timetable.POST("/entries/:id/unlock", staff, timetableHandler.Unlock)
		timetable.DELETE("/entries/:id", staff, timetableHandler.DeleteEntry)
	}

	exports := secured.Group("/exports")
	{
		exports.GET("/classes/:id", exportHandler.ClassWeek)
		exports.GET("/teachers/:id", exportHandler.TeacherWeek)
	}

	addr := fmt.Sprintf(":%d", cfg.Port)
	server := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 5 * time.Minute,
		IdleTimeout:  2 * time.Minute,
	}

	go func() {
		logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logr.Sugar().Infow("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		logr.Sugar().Errorw("shutdown failed", "error", err)
	}
}
