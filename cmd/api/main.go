package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/joshiBinit/College-Event-Management/internal/auth"
	"github.com/joshiBinit/College-Event-Management/internal/bugs"
	"github.com/joshiBinit/College-Event-Management/internal/config"
	"github.com/joshiBinit/College-Event-Management/internal/httpmiddleware"
	"github.com/joshiBinit/College-Event-Management/internal/queue"
	"github.com/joshiBinit/College-Event-Management/internal/registry"
	"github.com/joshiBinit/College-Event-Management/internal/store"
)

func main() {
	cfg := config.Load()

	if cfg.Env == "production" || cfg.Env == "prod" {
		gin.SetMode(gin.ReleaseMode)
	}

	if err := runHTTP(cfg); err != nil {
		log.Fatalf("http server failed: %v", err)
	}
}

func runHTTP(cfg config.App) error {
	var (
		db     *store.DB
		events registry.EventStore
		regs   registry.RegistrationStore
		bstore bugs.Store
	)
	if cfg.StoreBackend == "postgres" {
		var err error
		db, err = store.NewDB(cfg.DatabaseURL)
		if err != nil {
			return err
		}
		defer db.Close()
		if err := db.Migrate(context.Background()); err != nil {
			return err
		}
		events = registry.NewEventRepository(db.Client)
		regs = registry.NewRegistrationRepository(db.Client)
		bstore = bugs.NewRepository(db.Client)
	} else {
		events = registry.NewMemoryEventStore()
		regs = registry.NewMemoryRegistrationStore()
		bstore = bugs.NewMemoryStore()
	}

	redisClient := store.NewRedis(cfg.RedisAddr)

	var q queue.Queue
	if cfg.QueueBackend == "memory" {
		q = queue.NewInMemory(64)
	} else {
		q = queue.NewRedisQueue(redisClient.Client, "events:registrations")
	}

	svc := registry.NewService(events, regs)
	bugSvc := bugs.NewService(bstore)
	ctx := context.Background()

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(gin.LoggerWithConfig(gin.LoggerConfig{
		SkipPaths: []string{"/healthz", "/metrics"},
	}))
	r.Use(corsMiddleware())
	r.Use(httpmiddleware.NewSimpleTokenBucket(cfg.RateLimitPerMin, cfg.RateLimitPerMin).GinMiddleware())

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	r.GET("/healthz", func(c *gin.Context) {
		redisHealthy := cfg.QueueBackend == "memory" || redisClient.Healthy(c.Request.Context())
		dbHealthy := cfg.StoreBackend != "postgres" || db != nil
		status := http.StatusOK
		if !redisHealthy || !dbHealthy {
			status = http.StatusServiceUnavailable
		}
		c.JSON(status, gin.H{"status": "ok", "redis": redisHealthy, "db": dbHealthy})
	})

	r.POST("/v1/auth/token", func(c *gin.Context) {
		var req struct {
			UserID string `json:"user_id" binding:"required"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		role := auth.RoleStudent
		if cfg.IsAdmin(req.UserID) {
			role = auth.RoleAdmin
		}
		tokens, err := auth.Issue(req.UserID, role, cfg.JWTIssuer, cfg.JWTSigningKey, cfg.AccessTTL, cfg.RefreshTTL)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "token issue failed"})
			return
		}
		_ = redisClient.SaveRefreshToken(c.Request.Context(), tokens.RefreshToken, req.UserID, cfg.RefreshTTL)

		c.JSON(http.StatusCreated, gin.H{
			"access_token":  tokens.AccessToken,
			"refresh_token": tokens.RefreshToken,
			"role":          role,
			"expires_at":    tokens.AccessExp.Unix(),
		})
	})

	r.GET("/v1/events", func(c *gin.Context) {
		list, err := svc.ListEvents(c.Request.Context())
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		if list == nil {
			list = []registry.Event{}
		}
		c.JSON(http.StatusOK, gin.H{"events": list})
	})

	r.GET("/v1/events/:id", func(c *gin.Context) {
		evt, err := svc.GetEvent(c.Request.Context(), c.Param("id"))
		if err != nil {
			c.JSON(httpStatus(err), gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, evt)
	})

	authGroup := r.Group("/v1", auth.UserAuth(cfg.JWTSigningKey, cfg.JWTIssuer))
	adminGroup := authGroup.Group("", auth.RequireAdmin())

	adminGroup.POST("/events", func(c *gin.Context) {
		var req struct {
			Title       string   `json:"title" binding:"required"`
			Description string   `json:"description"`
			Date        string   `json:"date"`
			Time        string   `json:"time"`
			Location    string   `json:"location"`
			Organizer   string   `json:"organizer"`
			Capacity    int      `json:"capacity" binding:"required"`
			Registered  int      `json:"registered"`
			ImageURL    string   `json:"image_url"`
			Tags        []string `json:"tags"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		evt, err := svc.CreateEvent(c.Request.Context(), registry.Event{
			Title:       req.Title,
			Description: req.Description,
			Date:        req.Date,
			Time:        req.Time,
			Location:    req.Location,
			Organizer:   req.Organizer,
			Capacity:    req.Capacity,
			Registered:  req.Registered,
			ImageURL:    req.ImageURL,
			Tags:        req.Tags,
		})
		if err != nil {
			c.JSON(httpStatus(err), gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusCreated, evt)
	})

	adminGroup.PUT("/events/:id", func(c *gin.Context) {
		var upd registry.EventUpdate
		if err := c.ShouldBindJSON(&upd); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		evt, err := svc.UpdateEvent(c.Request.Context(), c.Param("id"), upd)
		if err != nil {
			c.JSON(httpStatus(err), gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, evt)
	})

	adminGroup.DELETE("/events/:id", func(c *gin.Context) {
		if err := svc.DeleteEvent(c.Request.Context(), c.Param("id")); err != nil {
			c.JSON(httpStatus(err), gin.H{"error": err.Error()})
			return
		}
		c.Status(http.StatusNoContent)
	})

	authGroup.POST("/events/:id/registrations", func(c *gin.Context) {
		claims := auth.ClaimsFrom(c)
		reg, err := svc.Register(c.Request.Context(), c.Param("id"), claims.Subject)
		if err != nil {
			c.JSON(httpStatus(err), gin.H{"error": err.Error()})
			return
		}
		if err := q.Publish(ctx, queue.Message{Type: "registration", Body: []byte(reg.ID)}); err != nil {
			log.Printf("queue publish failed: %v", err)
		}
		c.JSON(http.StatusCreated, reg)
	})

	authGroup.GET("/registrations", func(c *gin.Context) {
		claims := auth.ClaimsFrom(c)
		out, err := svc.ListForUser(c.Request.Context(), claims.Subject)
		if err != nil {
			c.JSON(httpStatus(err), gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"registrations": out})
	})

	authGroup.DELETE("/registrations/:id", func(c *gin.Context) {
		claims := auth.ClaimsFrom(c)
		reg, err := svc.GetRegistration(c.Request.Context(), c.Param("id"))
		if err != nil {
			c.JSON(httpStatus(err), gin.H{"error": err.Error()})
			return
		}
		if reg.UserID != claims.Subject && claims.Role != auth.RoleAdmin {
			c.JSON(http.StatusForbidden, gin.H{"error": "not your registration"})
			return
		}
		if err := svc.Cancel(c.Request.Context(), reg.ID); err != nil {
			c.JSON(httpStatus(err), gin.H{"error": err.Error()})
			return
		}
		c.Status(http.StatusNoContent)
	})

	adminGroup.POST("/registrations/:id/attendance", func(c *gin.Context) {
		var req struct {
			Attended *bool `json:"attended" binding:"required"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		if err := svc.MarkAttendance(c.Request.Context(), c.Param("id"), *req.Attended); err != nil {
			c.JSON(httpStatus(err), gin.H{"error": err.Error()})
			return
		}
		c.Status(http.StatusNoContent)
	})

	adminGroup.GET("/bugs", func(c *gin.Context) {
		list, err := bugSvc.List(c.Request.Context())
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		if list == nil {
			list = []bugs.Report{}
		}
		c.JSON(http.StatusOK, gin.H{"bugs": list})
	})

	authGroup.GET("/bugs/mine", func(c *gin.Context) {
		claims := auth.ClaimsFrom(c)
		list, err := bugSvc.ListByUser(c.Request.Context(), claims.Subject)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		if list == nil {
			list = []bugs.Report{}
		}
		c.JSON(http.StatusOK, gin.H{"bugs": list})
	})

	authGroup.POST("/bugs", func(c *gin.Context) {
		var req struct {
			Title       string `json:"title" binding:"required"`
			Description string `json:"description"`
			Priority    string `json:"priority"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		claims := auth.ClaimsFrom(c)
		rep, err := bugSvc.Submit(c.Request.Context(), bugs.Report{
			Title:       req.Title,
			Description: req.Description,
			SubmittedBy: claims.Subject,
			Priority:    req.Priority,
		})
		if err != nil {
			c.JSON(httpStatus(err), gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusCreated, rep)
	})

	adminGroup.PATCH("/bugs/:id/status", func(c *gin.Context) {
		var req struct {
			Status string `json:"status" binding:"required"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		rep, err := bugSvc.UpdateStatus(c.Request.Context(), c.Param("id"), req.Status)
		if err != nil {
			c.JSON(httpStatus(err), gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, rep)
	})

	srv := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("Starting server on :%s", cfg.HTTPPort)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	// Give outstanding requests 10 seconds to complete
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server forced shutdown: %v", err)
	}

	log.Println("Server exited")
	return nil
}

// httpStatus maps domain errors to response codes.
func httpStatus(err error) int {
	switch {
	case errors.Is(err, registry.ErrEventNotFound),
		errors.Is(err, registry.ErrRegistrationNotFound),
		errors.Is(err, bugs.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, registry.ErrEventFull),
		errors.Is(err, registry.ErrAlreadyRegistered):
		return http.StatusConflict
	case errors.Is(err, registry.ErrInvalidEvent),
		errors.Is(err, registry.ErrCapacityTooSmall),
		errors.Is(err, bugs.ErrInvalidStatus),
		errors.Is(err, bugs.ErrInvalidPriority),
		errors.Is(err, bugs.ErrInvalidReport):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// CORS middleware for browser requests
func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		origin := c.Request.Header.Get("Origin")
		if origin == "" {
			origin = "*"
		}

		c.Header("Access-Control-Allow-Origin", origin)
		c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Origin, Content-Type, Accept, Authorization")
		c.Header("Access-Control-Allow-Credentials", "true")
		c.Header("Access-Control-Max-Age", "86400")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}
