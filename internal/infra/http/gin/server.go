package ginserver

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	gin "github.com/gin-gonic/gin"

	"rentwheels/internal/infra/config"
	"rentwheels/internal/infra/obs"
)

type QuoteHTTP interface {
	Get(c *gin.Context)
}

type LockHTTP interface {
	Acquire(c *gin.Context)
	Extend(c *gin.Context)
	Release(c *gin.Context)
}

type OrderHTTP interface {
	Create(c *gin.Context)
}

type BookingHTTP interface {
	Complete(c *gin.Context)
	Cancel(c *gin.Context)
	Get(c *gin.Context)
	ListMine(c *gin.Context)
}

type CouponHTTP interface {
	Validate(c *gin.Context)
}

type Handlers struct {
	Quote          QuoteHTTP
	Lock           LockHTTP
	Order          OrderHTTP
	Booking        BookingHTTP
	Coupon         CouponHTTP
	AuthMiddleware gin.HandlerFunc
}

func NewServer(cfg config.Config, obsMW obs.Middleware, health obs.HealthHandlers, h Handlers) *http.Server {
	mode := configureGinMode(cfg.Env)
	if obsMW.Logger != nil {
		obsMW.Logger.Info("gin initialized", "mode", mode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(obsMW.RequestID())
	router.Use(obsMW.LoggerMiddleware())
	router.Use(cors.New(cors.Config{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders: []string{"Origin", "Content-Type", "Accept", "Authorization", "Idempotency-Key"},
		ExposeHeaders: []string{
			"Content-Length",
			"Content-Type",
			"X-Request-ID",
		},
		MaxAge: 12 * time.Hour,
	}))
	if h.AuthMiddleware != nil {
		router.Use(h.AuthMiddleware)
	}

	router.GET("/livez", health.Livez)
	router.GET("/readyz", health.Readyz)

	api := router.Group("/api/v1")
	if h.Quote != nil {
		api.POST("/quote", h.Quote.Get)
	}
	if h.Lock != nil {
		api.POST("/locks", h.Lock.Acquire)
		api.PATCH("/locks", h.Lock.Extend)
		api.DELETE("/locks", h.Lock.Release)
	}
	if h.Order != nil {
		api.POST("/orders", h.Order.Create)
	}
	if h.Booking != nil {
		api.POST("/bookings/complete", h.Booking.Complete)
		api.GET("/bookings/:id", h.Booking.Get)
		api.POST("/bookings/:id/cancel", h.Booking.Cancel)
		api.GET("/me/bookings", h.Booking.ListMine)
	}
	if h.Coupon != nil {
		api.POST("/coupons/validate", h.Coupon.Validate)
	}

	return &http.Server{Addr: cfg.HTTPAddr, Handler: router}
}

func configureGinMode(env string) string {
	switch strings.ToLower(strings.TrimSpace(env)) {
	case "debug":
		gin.SetMode(gin.DebugMode)
		return gin.DebugMode
	case "test", "testing":
		gin.SetMode(gin.TestMode)
		return gin.TestMode
	default:
		gin.SetMode(gin.ReleaseMode)
		return gin.ReleaseMode
	}
}
