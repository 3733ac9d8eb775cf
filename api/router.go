package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/Domenick1991/busbooking/docs"
	"github.com/Domenick1991/busbooking/internal/service/booking"
	"github.com/Domenick1991/busbooking/internal/service/trips"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	httpSwagger "github.com/swaggo/http-swagger"
)

type RouterConfig struct {
	AllowedOrigins []string
	Docs           bool
	RequestTimeout time.Duration
}

type Dependencies struct {
	Trips    trips.TripUseCase
	Bookings booking.BookingUseCase
	Verifier TokenVerifier
	Logger   *slog.Logger
}

func NewRouter(cfg RouterConfig, deps Dependencies) *gin.Engine {
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}

	router := gin.New()
	router.Use(gin.Recovery(), RequestID(), RequestLogger(deps.Logger), RequestTimeout(cfg.RequestTimeout))
	router.Use(cors.New(corsConfig(cfg.AllowedOrigins)))

	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	if cfg.Docs {
		router.GET("/swagger/doc.json", func(c *gin.Context) {
			c.Data(http.StatusOK, "application/json", docs.Swagger())
		})
		router.GET("/docs/*any", gin.WrapH(httpSwagger.Handler(httpSwagger.URL("/swagger/doc.json"))))
	}

	v1 := router.Group("/api/v1")
	NewTripHandler(deps.Trips, deps.Bookings).Register(v1.Group("/trips"))

	bookings := NewBookingHandler(deps.Bookings)
	authed := v1.Group("", Authenticate(deps.Verifier))
	bookings.Register(authed.Group("/bookings"))
	bookings.RegisterOperator(authed.Group("/operator"))

	return router
}

func corsConfig(origins []string) cors.Config {
	cfg := cors.Config{
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", requestIDHeader},
		ExposeHeaders:    []string{requestIDHeader},
		AllowCredentials: len(origins) > 0,
		MaxAge:           12 * time.Hour,
	}
	if len(origins) == 0 {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = origins
	}
	return cfg
}
