package handler

import (
	"store-credit-ledger/internal/adapter/http/middleware"
	redisStore "store-credit-ledger/internal/adapter/storage/redis"
	"store-credit-ledger/internal/core/ports"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// RouterDeps holds all dependencies needed to set up routes.
type RouterDeps struct {
	LedgerSvc       ports.LedgerService
	SettlementSvc   ports.SettlementService
	DefaultCurrency string
	RateLimitStore  *redisStore.RateLimitStore // nil = rate limiting disabled
	HealthCheckers  []ports.HealthChecker
	Logger          zerolog.Logger
}

// SetupRouter initialises the Gin engine with all routes and middleware.
func SetupRouter(deps RouterDeps) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()

	// Global middleware
	r.Use(middleware.Recovery(deps.Logger))
	r.Use(middleware.RequestLogger(deps.Logger))
	r.Use(middleware.MaxBodySize(1 << 20)) // 1 MB request body limit

	// Health check (deep, verifies PostgreSQL and Redis)
	r.GET("/health", HealthCheck(deps.HealthCheckers...))

	// Rate limit rules
	rules := middleware.DefaultRateLimitRules()

	// Helper: return rate limiter middleware if store is available, else noop.
	rl := func(group string) gin.HandlerFunc {
		if deps.RateLimitStore == nil {
			return func(c *gin.Context) { c.Next() }
		}
		rule, ok := rules[group]
		if !ok {
			return func(c *gin.Context) { c.Next() }
		}
		return middleware.RateLimiter(deps.RateLimitStore, group, rule, deps.Logger)
	}

	// API v1 routes
	v1 := r.Group("/api/v1")

	walletHandler := NewWalletHandler(deps.LedgerSvc, deps.DefaultCurrency)
	wallets := v1.Group("/wallets/:customer_id")
	{
		wallets.POST("/credit", rl("wallet_credit"), walletHandler.Credit)
		wallets.POST("/debit", rl("wallet_debit"), walletHandler.Debit)
		wallets.GET("/balance", rl("wallet_reads"), walletHandler.GetBalance)
		wallets.GET("/transactions", rl("wallet_reads"), walletHandler.ListTransactions)
	}

	checkoutHandler := NewCheckoutHandler(deps.SettlementSvc)
	checkout := v1.Group("/checkout/:customer_id")
	{
		checkout.POST("/quote", rl("checkout"), checkoutHandler.Quote)
		checkout.POST("/settle", rl("checkout"), checkoutHandler.Settle)
	}

	return r
}
