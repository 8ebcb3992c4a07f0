package api

import (
	"net/http" // HTTP status codes

	"ppob_wallet/internal/middleware" // JWT auth

	"github.com/gin-gonic/gin"   // Gin web framework
	"github.com/sirupsen/logrus" // Logging library
)

// RouterConfig carries what the HTTP surface is built from
type RouterConfig struct {
	Ledger    Ledger             // Ledger operations
	JWTSecret string             // HMAC secret for bearer tokens
	Metrics   http.Handler       // Served on /metrics when set
	Logger    logrus.FieldLogger // Request scoped logging
}

// NewRouter wires the ledger endpoints behind the JWT middleware
func NewRouter(cfg RouterConfig) *gin.Engine {
	log := cfg.Logger
	if log == nil {
		log = logrus.StandardLogger()
	}

	r := gin.New()                         // Create Gin router
	r.Use(gin.Recovery(), requestLog(log)) // Panic recovery and access log

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"}) // Liveness probe
	})
	if cfg.Metrics != nil {
		r.GET("/metrics", gin.WrapH(cfg.Metrics)) // Prometheus scrape endpoint
	}

	// Ledger routes (JWT protected)
	wallet := r.Group("/")
	wallet.Use(middleware.JWTAuthMiddleware(cfg.JWTSecret, log))
	{
		wallet.GET("/balance", BalanceHandler(cfg.Ledger))             // Current balance
		wallet.POST("/topup", TopUpHandler(cfg.Ledger, log))           // Credit balance
		wallet.POST("/transaction", PaymentHandler(cfg.Ledger, log))   // Pay a service
		wallet.GET("/transaction/history", HistoryHandler(cfg.Ledger)) // Paged history
	}
	return r
}

// requestLog logs one line per request
func requestLog(log logrus.FieldLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()
		log.WithFields(logrus.Fields{
			"method":  c.Request.Method,
			"path":    c.Request.URL.Path,
			"status":  c.Writer.Status(),
			"user_id": c.GetString(middleware.UserIDKey),
		}).Info("HTTP request")
	}
}
