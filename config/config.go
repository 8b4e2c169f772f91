package config

import (
	"log"
	"os"

	"github.com/joho/godotenv"
)

var (
	PORT       string
	DB_URL     string
	JWT_SECRET string
	APP_URL    string
	API_URL    string

	STRIPE_SECRET_KEY     string
	STRIPE_WEBHOOK_SECRET string

	// Stripe price ids per plan/interval. Unset entries make the plan
	// unavailable for checkout; the webhook side maps unknown prices to
	// the free plan regardless.
	STRIPE_PRICE_STARTER_MONTHLY  string
	STRIPE_PRICE_STARTER_YEARLY   string
	STRIPE_PRICE_PRO_MONTHLY      string
	STRIPE_PRICE_PRO_YEARLY       string
	STRIPE_PRICE_BUSINESS_MONTHLY string
	STRIPE_PRICE_BUSINESS_YEARLY  string

	GOOGLE_CLIENT_ID         string
	GOOGLE_CLIENT_SECRET     string
	GOOGLE_REDIRECT_URL      string
	GOOGLE_FRONTEND_REDIRECT string
)

func LoadEnv() {
	err := godotenv.Load()
	if err != nil {
		log.Println("No .env file found. Using system environment variables.")
	}

	PORT = getEnv("PORT", "8080")
	DB_URL = mustEnv("DB_URL")
	JWT_SECRET = mustEnv("JWT_SECRET")
	APP_URL = getEnv("APP_URL", "http://localhost:3000")
	API_URL = getEnv("API_URL", "http://localhost:8080")

	STRIPE_SECRET_KEY = mustEnv("STRIPE_SECRET_KEY")
	STRIPE_WEBHOOK_SECRET = mustEnv("STRIPE_WEBHOOK_SECRET")

	STRIPE_PRICE_STARTER_MONTHLY = getEnv("STRIPE_PRICE_STARTER_MONTHLY", "")
	STRIPE_PRICE_STARTER_YEARLY = getEnv("STRIPE_PRICE_STARTER_YEARLY", "")
	STRIPE_PRICE_PRO_MONTHLY = getEnv("STRIPE_PRICE_PRO_MONTHLY", "")
	STRIPE_PRICE_PRO_YEARLY = getEnv("STRIPE_PRICE_PRO_YEARLY", "")
	STRIPE_PRICE_BUSINESS_MONTHLY = getEnv("STRIPE_PRICE_BUSINESS_MONTHLY", "")
	STRIPE_PRICE_BUSINESS_YEARLY = getEnv("STRIPE_PRICE_BUSINESS_YEARLY", "")

	GOOGLE_CLIENT_ID = getEnv("GOOGLE_CLIENT_ID", "")
	GOOGLE_CLIENT_SECRET = getEnv("GOOGLE_CLIENT_SECRET", "")
	GOOGLE_REDIRECT_URL = getEnv("GOOGLE_REDIRECT_URL", "")
	GOOGLE_FRONTEND_REDIRECT = getEnv("GOOGLE_FRONTEND_REDIRECT", "")
}

// StripePriceTable returns price id -> {plan, interval} pairs for every
// configured price. Used to build the plan mapping passed to the webhook
// handler and checkout.
func StripePriceTable() map[string][2]string {
	table := map[string][2]string{}
	add := func(priceID, plan, interval string) {
		if priceID != "" {
			table[priceID] = [2]string{plan, interval}
		}
	}
	add(STRIPE_PRICE_STARTER_MONTHLY, "starter", "monthly")
	add(STRIPE_PRICE_STARTER_YEARLY, "starter", "yearly")
	add(STRIPE_PRICE_PRO_MONTHLY, "pro", "monthly")
	add(STRIPE_PRICE_PRO_YEARLY, "pro", "yearly")
	add(STRIPE_PRICE_BUSINESS_MONTHLY, "business", "monthly")
	add(STRIPE_PRICE_BUSINESS_YEARLY, "business", "yearly")
	return table
}

func mustEnv(key string) string {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		log.Fatalf("Missing required environment variable: %s", key)
	}
	return v
}

func getEnv(key string, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}
