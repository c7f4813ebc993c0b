// Package httpapi wires the HTTP transport (Gin) to application services,
// middleware, and route handlers. It centralizes cross-cutting concerns such
// as tracing, correlation IDs, logging, panic recovery, metrics, CORS,
// security headers, authentication, and rate limiting.
//
// Design goals:
//   - Put observability first (OTel + Prometheus)
//   - Safe-by-default middleware ordering (RequestID → logging → recovery)
//   - Deterministic, minimal router setup; all dependencies injected
//   - Production-ready CORS and security header posture
package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/tbourn/go-bootcamp-backend/internal/apperr"
	"github.com/tbourn/go-bootcamp-backend/internal/config"
	"github.com/tbourn/go-bootcamp-backend/internal/domain"
	"github.com/tbourn/go-bootcamp-backend/internal/geocode"
	"github.com/tbourn/go-bootcamp-backend/internal/http/handlers"
	"github.com/tbourn/go-bootcamp-backend/internal/http/middleware"
	"github.com/tbourn/go-bootcamp-backend/internal/mail"
	"github.com/tbourn/go-bootcamp-backend/internal/repo"
	"github.com/tbourn/go-bootcamp-backend/internal/services"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
)

// bootcampRepoShim adapts the repository free functions to the
// services.BootcampRepo interface expected by the BootcampService. This keeps
// services decoupled from the concrete repo package while reusing existing
// functions.
type bootcampRepoShim struct{}

// Create proxies repo.CreateBootcamp.
func (bootcampRepoShim) Create(ctx context.Context, db *mongo.Database, b *domain.Bootcamp) (*domain.Bootcamp, error) {
	return repo.CreateBootcamp(ctx, db, b)
}

// Get proxies repo.GetBootcamp.
func (bootcampRepoShim) Get(ctx context.Context, db *mongo.Database, id primitive.ObjectID) (*domain.Bootcamp, error) {
	return repo.GetBootcamp(ctx, db, id)
}

// CountByOwner proxies repo.CountBootcampsByOwner.
func (bootcampRepoShim) CountByOwner(ctx context.Context, db *mongo.Database, owner primitive.ObjectID) (int64, error) {
	return repo.CountBootcampsByOwner(ctx, db, owner)
}

// Update proxies repo.UpdateBootcamp.
func (bootcampRepoShim) Update(ctx context.Context, db *mongo.Database, id primitive.ObjectID, fields bson.M) (*domain.Bootcamp, error) {
	return repo.UpdateBootcamp(ctx, db, id, fields)
}

// Delete proxies repo.DeleteBootcamp.
func (bootcampRepoShim) Delete(ctx context.Context, db *mongo.Database, id primitive.ObjectID) error {
	return repo.DeleteBootcamp(ctx, db, id)
}

// FindWithin proxies repo.FindBootcampsWithin (geospatial radius search).
func (bootcampRepoShim) FindWithin(ctx context.Context, db *mongo.Database, lng, lat, radians float64) ([]domain.Bootcamp, error) {
	return repo.FindBootcampsWithin(ctx, db, lng, lat, radians)
}

// SetPhoto proxies repo.SetBootcampPhoto.
func (bootcampRepoShim) SetPhoto(ctx context.Context, db *mongo.Database, id primitive.ObjectID, filename string) error {
	return repo.SetBootcampPhoto(ctx, db, id, filename)
}

// DeleteCourses proxies repo.DeleteCoursesByBootcamp (cascade support).
func (bootcampRepoShim) DeleteCourses(ctx context.Context, db *mongo.Database, bootcampID primitive.ObjectID) error {
	return repo.DeleteCoursesByBootcamp(ctx, db, bootcampID)
}

// DeleteReviews proxies repo.DeleteReviewsByBootcamp (cascade support).
func (bootcampRepoShim) DeleteReviews(ctx context.Context, db *mongo.Database, bootcampID primitive.ObjectID) error {
	return repo.DeleteReviewsByBootcamp(ctx, db, bootcampID)
}

// courseRepoShim adapts the repo free functions to services.CourseRepo.
type courseRepoShim struct{}

func (courseRepoShim) Create(ctx context.Context, db *mongo.Database, c *domain.Course) (*domain.Course, error) {
	return repo.CreateCourse(ctx, db, c)
}

func (courseRepoShim) Get(ctx context.Context, db *mongo.Database, id primitive.ObjectID) (*domain.Course, error) {
	return repo.GetCourse(ctx, db, id)
}

func (courseRepoShim) Update(ctx context.Context, db *mongo.Database, id primitive.ObjectID, fields bson.M) (*domain.Course, error) {
	return repo.UpdateCourse(ctx, db, id, fields)
}

func (courseRepoShim) Delete(ctx context.Context, db *mongo.Database, id primitive.ObjectID) error {
	return repo.DeleteCourse(ctx, db, id)
}

func (courseRepoShim) GetBootcamp(ctx context.Context, db *mongo.Database, id primitive.ObjectID) (*domain.Bootcamp, error) {
	return repo.GetBootcamp(ctx, db, id)
}

func (courseRepoShim) RecomputeAverageCost(ctx context.Context, db *mongo.Database, bootcampID primitive.ObjectID) error {
	return repo.RecomputeAverageCost(ctx, db, bootcampID)
}

func (courseRepoShim) AttachBootcampInfo(ctx context.Context, db *mongo.Database, ids []primitive.ObjectID) (map[primitive.ObjectID]*domain.BootcampRef, error) {
	return repo.AttachBootcampInfo(ctx, db, ids)
}

// reviewRepoShim adapts the repo free functions to services.ReviewRepo.
type reviewRepoShim struct{}

func (reviewRepoShim) Create(ctx context.Context, db *mongo.Database, r *domain.Review) (*domain.Review, error) {
	return repo.CreateReview(ctx, db, r)
}

func (reviewRepoShim) Get(ctx context.Context, db *mongo.Database, id primitive.ObjectID) (*domain.Review, error) {
	return repo.GetReview(ctx, db, id)
}

func (reviewRepoShim) Update(ctx context.Context, db *mongo.Database, id primitive.ObjectID, fields bson.M) (*domain.Review, error) {
	return repo.UpdateReview(ctx, db, id, fields)
}

func (reviewRepoShim) Delete(ctx context.Context, db *mongo.Database, id primitive.ObjectID) error {
	return repo.DeleteReview(ctx, db, id)
}

func (reviewRepoShim) GetBootcamp(ctx context.Context, db *mongo.Database, id primitive.ObjectID) (*domain.Bootcamp, error) {
	return repo.GetBootcamp(ctx, db, id)
}

func (reviewRepoShim) RecomputeAverageRating(ctx context.Context, db *mongo.Database, bootcampID primitive.ObjectID) error {
	return repo.RecomputeAverageRating(ctx, db, bootcampID)
}

func (reviewRepoShim) AttachBootcampInfo(ctx context.Context, db *mongo.Database, ids []primitive.ObjectID) (map[primitive.ObjectID]*domain.BootcampRef, error) {
	return repo.AttachBootcampInfo(ctx, db, ids)
}

// userRepoShim adapts the repo free functions to services.UserRepo.
type userRepoShim struct{}

func (userRepoShim) Create(ctx context.Context, db *mongo.Database, u *domain.User) (*domain.User, error) {
	return repo.CreateUser(ctx, db, u)
}

func (userRepoShim) Get(ctx context.Context, db *mongo.Database, id primitive.ObjectID) (*domain.User, error) {
	return repo.GetUser(ctx, db, id)
}

func (userRepoShim) GetByEmail(ctx context.Context, db *mongo.Database, email string) (*domain.User, error) {
	return repo.GetUserByEmail(ctx, db, email)
}

func (userRepoShim) GetByResetToken(ctx context.Context, db *mongo.Database, hashedToken string, now time.Time) (*domain.User, error) {
	return repo.GetUserByResetToken(ctx, db, hashedToken, now)
}

func (userRepoShim) Update(ctx context.Context, db *mongo.Database, id primitive.ObjectID, fields bson.M) (*domain.User, error) {
	return repo.UpdateUser(ctx, db, id, fields)
}

func (userRepoShim) ClearResetToken(ctx context.Context, db *mongo.Database, id primitive.ObjectID) error {
	return repo.ClearResetToken(ctx, db, id)
}

func (userRepoShim) Delete(ctx context.Context, db *mongo.Database, id primitive.ObjectID) error {
	return repo.DeleteUser(ctx, db, id)
}

// RegisterRoutes attaches all middleware and HTTP endpoints to the given Gin
// engine. It configures observability (tracing, metrics), rate limiting, CORS
// and security headers, health and metrics endpoints, and then mounts the
// versioned public API under /api/v*.
//
// Middleware order matters:
//  1. OpenTelemetry: trace everything
//  2. RequestID: generate/propagate correlation id
//  3. Structured request logging
//  4. Recovery: capture panics after logger
//  5. Body size limiter
//  6. Metrics
//  7. Rate limiter (per user/IP)
//  8. CORS and Security headers
func RegisterRoutes(r *gin.Engine, db *mongo.Database, geo geocode.Resolver, mailer mail.Sender, cfg config.Config) {
	r.HandleMethodNotAllowed = true

	// 1) Trace all HTTP requests
	r.Use(otelgin.Middleware(cfg.OTEL.ServiceName))

	// 2) Correlate requests and logs
	r.Use(middleware.RequestID())

	// 3) Structured logging
	r.Use(middleware.Logger())

	// 4) Panic recovery to JSON 500 (with request id)
	r.Use(middleware.Recovery())

	// 5) Global body size limit; photo uploads need headroom above JSON payloads
	r.Use(limitBody(cfg.MaxFileUpload + 1<<20))

	// 6) Prometheus metrics and /metrics endpoint
	r.Use(middleware.Metrics())
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// 7) Token-bucket rate limiter per user/IP
	rl := middleware.NewRateLimiter(cfg.RateRPS, cfg.RateBurst, middleware.KeyByUserOrIP())
	r.Use(rl.Handler())

	// 8) CORS posture (safe defaults: allow all if none configured)
	if len(cfg.CORS.AllowedOrigins) == 0 {
		// Force ACAO: * even for requests without an Origin header (helps tests and simple health checks).
		r.Use(func(c *gin.Context) {
			c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
			c.Next()
		})
		r.Use(cors.New(cors.Config{
			AllowAllOrigins:  true,
			AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
			ExposeHeaders:    []string{"X-Request-ID", "Content-Length"},
			AllowCredentials: false, // must remain false with AllowAllOrigins
			MaxAge:           12 * time.Hour,
		}))
	} else {
		// Echo ACAO with the request Origin when it is in the allowlist (in addition to gin-contrib/cors).
		allowed := make(map[string]struct{}, len(cfg.CORS.AllowedOrigins))
		for _, o := range cfg.CORS.AllowedOrigins {
			allowed[o] = struct{}{}
		}
		r.Use(func(c *gin.Context) {
			if origin := c.GetHeader("Origin"); origin != "" {
				if _, ok := allowed[origin]; ok {
					h := c.Writer.Header()
					h.Set("Access-Control-Allow-Origin", origin)
					h.Add("Vary", "Origin")
				}
			}
			c.Next()
		})
		r.Use(cors.New(cors.Config{
			AllowOrigins:     cfg.CORS.AllowedOrigins,
			AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
			ExposeHeaders:    []string{"X-Request-ID", "Content-Length"},
			AllowCredentials: true,
			MaxAge:           12 * time.Hour,
		}))
	}

	// Security headers (HSTS only when enabled and request is HTTPS)
	r.Use(middleware.SecurityHeaders(middleware.SecurityOptions{
		EnableHSTS:   cfg.Security.EnableHSTS,
		HSTSMaxAge:   cfg.Security.HSTSMaxAge,
		NoStore:      false,
		EnablePolicy: true,
	}))

	// Fallbacks
	r.NoRoute(func(c *gin.Context) {
		handlers.Fail(c, apperr.NotFound("Route not found"))
	})
	r.NoMethod(func(c *gin.Context) {
		handlers.Fail(c, apperr.New("Method not allowed", http.StatusMethodNotAllowed))
	})

	// Liveness/health
	r.GET("/health", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })

	// Dependency injection: services ← repo/db/geocoder/mailer
	bootcampSvc := &services.BootcampService{
		DB:            db,
		Repo:          bootcampRepoShim{},
		Geo:           geo,
		MaxFileUpload: cfg.MaxFileUpload,
		UploadDir:     cfg.FileUploadPath,
	}
	courseSvc := &services.CourseService{DB: db, Repo: courseRepoShim{}}
	reviewSvc := &services.ReviewService{DB: db, Repo: reviewRepoShim{}}
	userSvc := &services.UserService{DB: db, Repo: userRepoShim{}}
	authSvc := &services.AuthService{DB: db, Repo: userRepoShim{}, Mail: mailer, JWT: cfg.JWT}

	h := handlers.New(bootcampSvc, courseSvc, reviewSvc, userSvc, authSvc, cfg.APIBasePath, int(cfg.JWT.CookieExpire/time.Second))

	// Protect loads the authenticated user on every guarded route.
	protect := middleware.Protect(cfg.JWT.Secret, func(ctx context.Context, id primitive.ObjectID) (*domain.User, error) {
		return repo.GetUser(ctx, db, id)
	})

	// Public API
	apiBase := cfg.APIBasePath // e.g. "/api/v1"
	api := groupWithPrefix(r, apiBase)
	{
		// Bootcamps
		api.GET("/bootcamps", h.ListBootcamps)
		api.POST("/bootcamps", protect, middleware.Authorize(domain.RolePublisher, domain.RoleAdmin), h.CreateBootcamp)
		api.GET("/bootcamps/radius/:zipcode/:distance", h.BootcampsInRadius)
		api.GET("/bootcamps/:id", h.GetBootcamp)
		api.PUT("/bootcamps/:id", protect, middleware.Authorize(domain.RolePublisher, domain.RoleAdmin), h.UpdateBootcamp)
		api.DELETE("/bootcamps/:id", protect, middleware.Authorize(domain.RolePublisher, domain.RoleAdmin), h.DeleteBootcamp)
		api.PUT("/bootcamps/:id/photo", protect, middleware.Authorize(domain.RolePublisher, domain.RoleAdmin), h.UploadBootcampPhoto)

		// Courses (flat and nested under a bootcamp)
		api.GET("/courses", h.ListCourses)
		api.GET("/courses/:id", h.GetCourse)
		api.PUT("/courses/:id", protect, middleware.Authorize(domain.RolePublisher, domain.RoleAdmin), h.UpdateCourse)
		api.DELETE("/courses/:id", protect, middleware.Authorize(domain.RolePublisher, domain.RoleAdmin), h.DeleteCourse)
		api.GET("/bootcamps/:id/courses", h.ListCourses)
		api.POST("/bootcamps/:id/courses", protect, middleware.Authorize(domain.RolePublisher, domain.RoleAdmin), h.CreateCourse)

		// Reviews (flat and nested under a bootcamp)
		api.GET("/reviews", h.ListReviews)
		api.GET("/reviews/:id", h.GetReview)
		api.PUT("/reviews/:id", protect, middleware.Authorize(domain.RoleUser, domain.RoleAdmin), h.UpdateReview)
		api.DELETE("/reviews/:id", protect, middleware.Authorize(domain.RoleUser, domain.RoleAdmin), h.DeleteReview)
		api.GET("/bootcamps/:id/reviews", h.ListReviews)
		api.POST("/bootcamps/:id/reviews", protect, middleware.Authorize(domain.RoleUser, domain.RoleAdmin), h.CreateReview)

		// Auth
		api.POST("/auth/register", h.Register)
		api.POST("/auth/login", h.Login)
		api.GET("/auth/logout", h.Logout)
		api.GET("/auth/me", protect, h.Me)
		api.PUT("/auth/updatedetails", protect, h.UpdateDetails)
		api.PUT("/auth/updatepassword", protect, h.UpdatePassword)
		api.POST("/auth/forgotpassword", h.ForgotPassword)
		api.PUT("/auth/resetpassword/:resettoken", h.ResetPassword)

		// Users (admin only)
		admin := api.Group("/users", protect, middleware.Authorize(domain.RoleAdmin))
		{
			admin.GET("", h.ListUsers)
			admin.POST("", h.CreateUser)
			admin.GET("/:id", h.GetUser)
			admin.PUT("/:id", h.UpdateUser)
			admin.DELETE("/:id", h.DeleteUser)
		}
	}
}

// limitBody returns a Gin middleware that caps the request body size for all
// endpoints to maxBytes using http.MaxBytesReader. Requests exceeding the cap
// will cause downstream body reads to error.
func limitBody(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		c.Next()
	}
}

// groupWithPrefix mounts a group at prefix, treating "/" (or empty) as root.
func groupWithPrefix(r *gin.Engine, prefix string) *gin.RouterGroup {
	if prefix == "" || prefix == "/" {
		return r.Group("")
	}
	return r.Group(prefix)
}
