// Package handler exposes the EventHub services over HTTP.
package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"eventhub/internal/analytics"
	"eventhub/internal/attendance"
	"eventhub/internal/auth"
	"eventhub/internal/events"
	"eventhub/internal/feedback"
	"eventhub/internal/httpmiddleware"
	"eventhub/internal/users"
)

// HealthCheck reports the health of each named dependency.
type HealthCheck func(ctx context.Context) map[string]bool

// Options tunes the router's middleware.
type Options struct {
	AllowOrigins    []string
	RateLimitPerMin int
	Production      bool
	Metrics         bool
	Health          HealthCheck
}

// Handler holds the services behind the HTTP API.
type Handler struct {
	users      *users.Service
	attendance *attendance.Service
	events     *events.Service
	feedback   *feedback.Service
	analytics  *analytics.Service
	issuer     *auth.Issuer
}

// New creates a Handler.
func New(u *users.Service, a *attendance.Service, e *events.Service, f *feedback.Service, an *analytics.Service, issuer *auth.Issuer) *Handler {
	useJSONFieldNames()
	return &Handler{users: u, attendance: a, events: e, feedback: f, analytics: an, issuer: issuer}
}

// Router builds the gin engine with every route mounted.
func (h *Handler) Router(opts Options) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(gin.LoggerWithConfig(gin.LoggerConfig{
		SkipPaths: []string{"/healthz", "/metrics"},
	}))
	r.Use(cors.New(corsConfig(opts.AllowOrigins)))
	r.Use(httpmiddleware.SecurityHeaders(opts.Production))
	r.Use(httpmiddleware.NewTokenBucket(opts.RateLimitPerMin, opts.RateLimitPerMin).GinMiddleware())

	if opts.Metrics {
		r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	}
	r.GET("/healthz", healthz(opts.Health))

	api := r.Group("/api")
	authn := auth.Authenticate(h.issuer, h.users)

	a := api.Group("/auth")
	a.POST("/signup", h.signup)
	a.POST("/login", h.login)
	a.POST("/refresh", h.refresh)
	a.GET("/me", authn, h.me)

	att := api.Group("/attendance", authn)
	att.POST("/checkin", h.checkIn)
	att.POST("/checkout/:id", h.checkOut)
	att.POST("/checkout", h.checkOutOpen)
	att.GET("/all", h.allAttendance)
	att.GET("/student/:studentId", h.studentAttendance)

	u := api.Group("/users", authn)
	u.GET("/pending", h.pendingUsers)
	u.GET("/all", h.allUsers)
	u.GET("/stats", h.userStats)
	u.POST("/:id/approve", h.approveUser)
	u.POST("/:id/archive", h.archiveUser)
	u.POST("/:id/delete", h.deleteUser)

	ev := api.Group("/events")
	ev.GET("", h.listEvents)
	ev.GET("/:id", h.getEvent)
	ev.GET("/:id/qr", authn, h.eventQR)
	ev.POST("", authn, h.createEvent)
	ev.PATCH("/:id", authn, h.updateEvent)
	ev.POST("/:id/status", authn, h.setEventStatus)
	ev.POST("/:id/approve", authn, h.approveEvent)
	ev.DELETE("/:id", authn, h.deleteEvent)

	fb := api.Group("/feedback", authn)
	fb.POST("/submit", h.submitFeedback)
	fb.GET("/records", h.feedbackRecords)
	fb.PUT("/forms/:eventId", h.setFeedbackForm)
	fb.GET("/forms/:eventId", h.feedbackForm)

	an := api.Group("/analytics", authn)
	an.GET("/overview", h.analyticsOverview)
	an.GET("/events", h.analyticsEvents)
	an.GET("/demographics", h.analyticsDemographics)

	return r
}

func corsConfig(origins []string) cors.Config {
	cfg := cors.Config{
		AllowMethods:  []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Accept", "Authorization"},
		ExposeHeaders: []string{"Retry-After"},
		MaxAge:        12 * time.Hour,
	}
	if len(origins) == 0 {
		cfg.AllowAllOrigins = true
		return cfg
	}
	cfg.AllowOrigins = origins
	cfg.AllowCredentials = true
	return cfg
}

func healthz(check HealthCheck) gin.HandlerFunc {
	return func(c *gin.Context) {
		body := gin.H{"status": "ok"}
		status := http.StatusOK
		if check != nil {
			for name, ok := range check(c.Request.Context()) {
				body[name] = ok
				if !ok {
					status = http.StatusServiceUnavailable
					body["status"] = "degraded"
				}
			}
		}
		c.JSON(status, body)
	}
}

// principal returns the authenticated principal. Routes calling it are
// mounted behind Authenticate.
func principal(c *gin.Context) auth.Principal {
	p, _ := auth.FromContext(c)
	return p
}
