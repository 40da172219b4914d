// Package api HTTP интерфейс маркетплейса: REST для клиентов, /functions/* для
// виджетов оплаты и админки, websocket с изменениями статусов экспертов.
package api

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/Freeeeeet/wellness_api/internal/model"
	"github.com/Freeeeeet/wellness_api/internal/pubsub"
	"github.com/Freeeeeet/wellness_api/internal/service"
)

type Services struct {
	Experts      *service.ExpertService
	Availability *service.AvailabilityService
	Appointments *service.AppointmentService
	Calls        *service.CallService
	Payments     *service.PaymentService
	Presence     *service.PresenceService
	Messages     *service.MessageService
}

type Options struct {
	JWTSecret          string
	CORSOrigins        []string
	RateLimitPerMinute int
	Development        bool
}

// NewRouter собирает gin engine со всеми маршрутами и middleware
func NewRouter(svc Services, hub *pubsub.Hub[model.Presence], opts Options, logger *zap.Logger) *gin.Engine {
	if !opts.Development {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.HandleMethodNotAllowed = true

	r.Use(Recovery(logger, opts.Development))
	r.Use(RequestLogger(logger))
	r.Use(cors.New(corsConfig(opts.CORSOrigins)))
	if opts.RateLimitPerMinute > 0 {
		r.Use(RateLimit(opts.RateLimitPerMinute, logger))
	}

	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
	})
	r.NoMethod(func(c *gin.Context) {
		c.JSON(http.StatusMethodNotAllowed, gin.H{"error": "method not allowed"})
	})

	h := NewHandler(svc, hub, opts.CORSOrigins, logger)
	auth := Auth(opts.JWTSecret, svc.Experts)

	r.GET("/health", h.Health)

	registerPublicRoutes(r, h)
	registerUserRoutes(r, h, auth)
	registerFunctionRoutes(r, h, auth)

	r.GET("/ws/presence", auth, h.PresenceFeed)

	return r
}

func registerPublicRoutes(r *gin.Engine, h *Handler) {
	experts := r.Group("/api/experts")
	{
		experts.GET("", h.ListExperts)
		experts.GET("/:id", h.GetExpert)
		experts.GET("/:id/presence", h.GetPresence)
		experts.GET("/:id/slots", h.OpenSlots)
		experts.GET("/:id/bookable", h.CheckBookable)
		experts.GET("/:id/quote", h.QuoteCall)
	}
}

func registerUserRoutes(r *gin.Engine, h *Handler, auth gin.HandlerFunc) {
	api := r.Group("/api")
	api.Use(auth)
	{
		api.GET("/me", h.Me)

		api.POST("/experts/:id/messages", h.LeaveMessage)

		api.GET("/availability", RequireRole(model.RoleExpert), h.ListAvailability)
		api.POST("/availability", RequireRole(model.RoleExpert), h.CreateAvailability)
		api.DELETE("/availability/:id", RequireRole(model.RoleExpert), h.DeleteAvailability)

		api.GET("/appointments", h.ListAppointments)
		api.POST("/appointments", h.BookAppointment)
		api.GET("/appointments/expert", RequireRole(model.RoleExpert), h.ListExpertAppointments)
		api.GET("/appointments/:id", h.GetAppointment)
		api.POST("/appointments/:id/cancel", h.CancelAppointment)
		api.POST("/appointments/:id/calendar", h.SyncAppointmentCalendar)

		api.POST("/payments/confirm", h.ConfirmPayment)

		api.GET("/calls", h.CallHistory)
		api.POST("/calls", h.CheckoutCall)
		api.GET("/calls/incoming", RequireRole(model.RoleExpert), h.IncomingCalls)
		api.GET("/calls/:id", h.GetCall)
		api.POST("/calls/:id/accept", RequireRole(model.RoleExpert), h.AcceptCall)
		api.POST("/calls/:id/join", h.JoinCall)
		api.POST("/calls/:id/end", h.EndCall)
		api.POST("/calls/:id/cancel", h.CancelCall)
		api.POST("/calls/:id/interrupt", h.InterruptCall)

		api.PUT("/presence", RequireRole(model.RoleExpert), h.SetPresence)

		api.GET("/messages", RequireRole(model.RoleExpert), h.ListMessages)
		api.POST("/messages/read", RequireRole(model.RoleExpert), h.MarkMessagesRead)
		api.GET("/messages/unread", RequireRole(model.RoleExpert), h.UnreadCount)
		api.POST("/messages/unread/refresh", RequireRole(model.RoleExpert), h.RefreshUnread)
	}
}

// registerFunctionRoutes эндпоинты, которые вызывают виджеты оплаты и админка
func registerFunctionRoutes(r *gin.Engine, h *Handler, auth gin.HandlerFunc) {
	fn := r.Group("/functions")
	fn.Use(auth)
	{
		fn.POST("/create-razorpay-order", h.CreateOrder)
		fn.POST("/verify-razorpay-payment", h.VerifyPayment)
		fn.POST("/admin-update-expert", h.AdminUpdateExpert)
		fn.POST("/notify-expert-status", h.NotifyExpertStatus)
		fn.POST("/google-calendar-sync", h.GoogleCalendarSync)
		fn.POST("/create-test-call-request", h.CreateTestCallRequest)
	}
}

func corsConfig(origins []string) cors.Config {
	cfg := cors.Config{
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Authorization", "Content-Type"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if len(origins) == 0 {
		// credentials со звёздочкой браузер не примет
		cfg.AllowAllOrigins = true
		cfg.AllowCredentials = false
	} else {
		cfg.AllowOrigins = origins
	}
	return cfg
}
