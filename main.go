package main

import (
	"log/slog"
	"os"
	"time"

	"github.com/DiegoLonghys/next-stripe-demo/config"
	"github.com/DiegoLonghys/next-stripe-demo/database"
	billingapi "github.com/DiegoLonghys/next-stripe-demo/internal/api/billing"
	stripewebhooks "github.com/DiegoLonghys/next-stripe-demo/internal/api/stripewebhook"
	routes "github.com/DiegoLonghys/next-stripe-demo/internal/app/http"
	"github.com/DiegoLonghys/next-stripe-demo/internal/domain/plans"
	stripeinfra "github.com/DiegoLonghys/next-stripe-demo/internal/infra/stripe"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/lmittmann/tint"
)

func main() {
	// gin.SetMode(gin.ReleaseMode) uncomment only in production
	config.LoadEnv()

	logger := slog.New(tint.NewHandler(os.Stderr, &tint.Options{
		Level:      slog.LevelInfo,
		TimeFormat: time.Kitchen,
	}))
	slog.SetDefault(logger)

	database.InitDB(config.DB_URL)

	provider := stripeinfra.NewClient(config.STRIPE_SECRET_KEY)
	prices := plans.NewPriceMap(config.StripePriceTable())

	hooks := stripewebhooks.New(database.DB, provider, config.STRIPE_WEBHOOK_SECRET, prices, logger)
	billingHandler := billingapi.NewHandler(provider, prices, config.APP_URL)

	r := gin.Default()

	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{os.Getenv("CORS_ORIGIN")},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	routes.RegisterRoutes(r, hooks, billingHandler)

	logger.Info("listening", "port", config.PORT)
	if err := r.Run(":" + config.PORT); err != nil {
		logger.Error("server stopped", "error", err)
		os.Exit(1)
	}
}
