// Package api exposes the ledger over a JSON REST surface.
package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/carnoises/ingresos-gastos-app/internal/cache"
	"github.com/carnoises/ingresos-gastos-app/internal/ledger"
	applog "github.com/carnoises/ingresos-gastos-app/internal/log"
	"github.com/carnoises/ingresos-gastos-app/internal/storage"
)

func init() {
	// Amounts serialize as JSON numbers, matching the wire format clients
	// already parse.
	decimal.MarshalJSONWithoutQuotes = true
}

const reportCacheTTL = 5 * time.Minute

// Server wires the ledger service into a gin router.
type Server struct {
	ledger      *ledger.Service
	store       *storage.Store
	reports     *cache.LRU[any]
	logger      *slog.Logger
	corsOrigins []string
}

// Options tunes the HTTP surface.
type Options struct {
	CORSOrigins     []string
	ReportCacheSize int
	Logger          *slog.Logger
}

// New builds a server around svc. The store is only used for health checks.
func New(svc *ledger.Service, store *storage.Store, opts Options) *Server {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.ReportCacheSize < 1 {
		opts.ReportCacheSize = 128
	}
	if len(opts.CORSOrigins) == 0 {
		opts.CORSOrigins = []string{"*"}
	}
	return &Server{
		ledger:      svc,
		store:       store,
		reports:     cache.NewLRU[any](opts.ReportCacheSize, reportCacheTTL),
		logger:      applog.WithComponent(opts.Logger, applog.ComponentHTTP),
		corsOrigins: opts.CORSOrigins,
	}
}

// Router builds the gin engine with middleware and all routes registered.
func (s *Server) Router() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(RequestID())
	router.Use(RequestLogger(s.logger))
	router.Use(RateLimiter())

	corsConfig := cors.Config{
		AllowOrigins:  s.corsOrigins,
		AllowMethods:  []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders: []string{"Content-Length"},
		MaxAge:        12 * time.Hour,
	}
	if len(s.corsOrigins) == 1 && s.corsOrigins[0] == "*" {
		corsConfig.AllowAllOrigins = true
		corsConfig.AllowOrigins = nil
	}
	router.Use(cors.New(corsConfig))

	router.GET("/", s.welcome)
	router.GET("/healthz", s.healthz)

	api := router.Group("/api")
	{
		accounts := api.Group("/accounts")
		accounts.POST("", s.createAccount)
		accounts.GET("", s.listAccounts)
		accounts.GET("/:id", s.getAccount)
		accounts.PUT("/:id", s.updateAccount)
		accounts.DELETE("/:id", s.deleteAccount)

		categories := api.Group("/categories")
		categories.POST("", s.createCategory)
		categories.GET("", s.listCategories)
		categories.PUT("/:id", s.updateCategory)
		categories.DELETE("/:id", s.deleteCategory)

		transactions := api.Group("/transactions")
		transactions.POST("", s.createTransaction)
		transactions.GET("", s.listTransactions)
		transactions.PUT("/:id", s.updateTransaction)
		transactions.DELETE("/:id", s.deleteTransaction)

		api.POST("/transfers", s.createTransfer)

		reports := api.Group("/reports")
		reports.GET("/monthly", s.monthlyReport)
		reports.GET("/daily", s.dailyReport)
		reports.GET("/categorized", s.categorizedExpenses)
	}

	return router
}

func (s *Server) welcome(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"message": "API de Ingresos y Gastos"})
}

func (s *Server) healthz(c *gin.Context) {
	if err := s.store.Ping(c.Request.Context()); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unhealthy", "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// invalidateReports drops cached report payloads after any ledger mutation.
func (s *Server) invalidateReports() {
	s.reports.Purge()
}
