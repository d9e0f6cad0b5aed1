package routes

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/LovationAdmin/triptrack-api/handlers"
	"github.com/LovationAdmin/triptrack-api/middleware"
	"github.com/LovationAdmin/triptrack-api/services"
	"github.com/LovationAdmin/triptrack-api/storage"
)

// Deps are the long-lived services the router is built from.
type Deps struct {
	Auth    *services.AuthService
	Users   *services.UserService
	Trips   *services.TripService
	Members *services.MemberService
	Shares  *services.ShareService
	Photos  *services.PhotoService
	Bucket  storage.Bucket

	AllowedOrigins []string
	RateLimiter    *middleware.RateLimiter
	Metrics        *middleware.Metrics
	Gatherer       prometheus.Gatherer
}

func NewRouter(d Deps) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestLogger())
	router.Use(d.Metrics.Middleware())
	router.Use(cors.New(cors.Config{
		AllowOrigins:     d.AllowedOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"Content-Length", "Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))
	if d.RateLimiter != nil {
		router.Use(d.RateLimiter.Middleware())
	}

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status": "healthy",
			"time":   time.Now().UTC().Format(time.RFC3339),
		})
	})
	if d.Gatherer != nil {
		router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(d.Gatherer, promhttp.HandlerOpts{})))
	}
	if local, ok := d.Bucket.(*storage.LocalBucket); ok {
		router.Static("/storage", local.Root())
	}

	v1 := router.Group("/api/v1")
	SetupAuthRoutes(v1, d)
	SetupTripPageRoutes(v1, d)

	protected := v1.Group("/")
	protected.Use(middleware.AuthMiddleware(d.Auth), middleware.ProfileMiddleware(d.Auth))
	SetupSessionRoutes(protected, d)

	admin := protected.Group("/")
	admin.Use(middleware.RequireAdmin())
	SetupTripRoutes(admin, d)
	SetupUserRoutes(admin, d)

	return router
}

// SetupAuthRoutes sets up public authentication routes.
func SetupAuthRoutes(rg *gin.RouterGroup, d Deps) {
	h := handlers.NewAuthHandler(d.Auth)

	rg.POST("/auth/signup", h.Signup)
	rg.POST("/auth/login", h.Login)
	rg.POST("/auth/refresh", h.Refresh)
	rg.POST("/auth/logout", middleware.AuthMiddleware(d.Auth), h.Logout)
}

// SetupSessionRoutes sets up routes for any signed-in profile.
func SetupSessionRoutes(rg *gin.RouterGroup, d Deps) {
	h := handlers.NewAuthHandler(d.Auth)

	rg.GET("/auth/session", h.Session)
	rg.POST("/user/2fa/setup", h.SetupTOTP)
	rg.POST("/user/2fa/verify", h.VerifyTOTP)
	rg.POST("/user/2fa/disable", h.DisableTOTP)
}

// SetupTripPageRoutes sets up the read-only trip pages, reachable with a
// session or a share token.
func SetupTripPageRoutes(rg *gin.RouterGroup, d Deps) {
	h := handlers.NewTripHandler(d.Trips, d.Members, d.Shares, d.Metrics)
	optional := middleware.OptionalAuth(d.Auth, d.Auth)

	rg.GET("/trips/:id", optional, h.GetTrip)
	rg.GET("/trips/:id/photos", optional, h.GetPhotos)
}

// SetupTripRoutes sets up the dashboard and admin trip routes.
func SetupTripRoutes(rg *gin.RouterGroup, d Deps) {
	h := handlers.NewTripHandler(d.Trips, d.Members, d.Shares, d.Metrics)

	rg.GET("/trips", h.ListTrips)
	rg.POST("/trips", h.CreateTrip)
	rg.PUT("/trips/:id", h.UpdateTrip)
	rg.DELETE("/trips/:id", h.DeleteTrip)
	rg.GET("/trips/:id/export.csv", h.ExportCSV)
	rg.POST("/trips/:id/share", h.ShareTrip)

	rg.GET("/trips/:id/members", h.ListMembers)
	rg.GET("/trips/:id/members/candidates", h.ListCandidates)
	rg.POST("/trips/:id/members", h.AddMember)
	rg.DELETE("/trips/:id/members/:member_id", h.RemoveMember)
	rg.POST("/trips/:id/members/:member_id/savings", h.AddSavings)
}

// SetupUserRoutes sets up the travelers tab.
func SetupUserRoutes(rg *gin.RouterGroup, d Deps) {
	h := handlers.NewUserHandler(d.Users, d.Photos)

	rg.GET("/users", h.ListUsers)
	rg.POST("/users", h.CreateUser)
	rg.PUT("/users/:id", h.UpdateUser)
	rg.DELETE("/users/:id", h.DeleteUser)
	rg.POST("/users/:id/photo", h.UploadPhoto)
	rg.DELETE("/users/:id/photo", h.DeletePhoto)
}
