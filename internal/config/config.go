package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds the whole application configuration, populated from
// environment variables. Gateway adapters receive their sub-config as an
// explicit object at construction time; nothing reads the environment at
// module load.
type Config struct {
	App        AppConfig
	Database   DatabaseConfig
	Redis      RedisConfig
	JWT        JWTConfig
	SMTP       SMTPConfig
	Payment    PaymentConfig
	SSLCommerz SSLCommerzConfig
	Stripe     StripeConfig
	Bkash      BkashConfig
	Nagad      NagadConfig
	Payoneer   PayoneerConfig
}

type AppConfig struct {
	Name        string
	Environment string // development, staging, production
	Port        string
	Version     string
	FrontendURL string // redirect targets after payment
	BackendURL  string // base for provider callback URLs
}

type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Database string
	SSLMode  string
	MaxConns int
	MinConns int
}

type RedisConfig struct {
	Host     string
	Password string
	DB       int
}

type JWTConfig struct {
	Secret            string
	AccessTokenExpiry int // minutes
}

type SMTPConfig struct {
	Host       string
	Port       string
	From       string
	AdminEmail string // invoice requests and anomaly reports go here
}

// PaymentConfig tunes the orchestrator itself, independent of any
// single provider.
type PaymentConfig struct {
	GatewayTimeout      time.Duration // bound on outbound provider calls
	StaleOrderThreshold time.Duration // pending orders older than this are expired by the sweep
	StaleOrderBatchSize int
}

type SSLCommerzConfig struct {
	StoreID       string
	StorePassword string
	APIURL        string // sandbox or live
	SuccessURL    string
	FailURL       string
	CancelURL     string
	IPNURL        string
}

type StripeConfig struct {
	SecretKey     string
	WebhookSecret string // HMAC key for Stripe-Signature verification
	APIURL        string
	SuccessURL    string
	CancelURL     string
}

type BkashConfig struct {
	AppKey      string
	AppSecret   string
	Username    string
	Password    string
	APIURL      string
	CallbackURL string
}

type NagadConfig struct {
	MerchantID  string
	MerchantKey string // HMAC key for callback verification
	APIURL      string
	CallbackURL string
}

type PayoneerConfig struct {
	PayeeID string
}

// Load reads config from environment variables.
func Load() (*Config, error) {
	cfg := &Config{
		App: AppConfig{
			Name:        getEnv("APP_NAME", "TechNest API"),
			Environment: getEnv("APP_ENV", "development"),
			Port:        getEnv("APP_PORT", "8080"),
			Version:     getEnv("APP_VERSION", "1.0.0"),
			FrontendURL: getEnv("FRONTEND_URL", "http://localhost:3000"),
			BackendURL:  getEnv("BACKEND_URL", "http://localhost:8080"),
		},
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnvInt("DB_PORT", 5432),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", ""),
			Database: getEnv("DB_NAME", "technest"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
			MaxConns: getEnvInt("DB_MAX_CONNS", 25),
			MinConns: getEnvInt("DB_MIN_CONNS", 5),
		},
		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvInt("REDIS_DB", 0),
		},
		JWT: JWTConfig{
			Secret:            getEnv("JWT_SECRET", "your-secret-key-change-in-production"),
			AccessTokenExpiry: getEnvInt("JWT_ACCESS_EXPIRY", 15),
		},
		SMTP: SMTPConfig{
			Host:       getEnv("SMTP_HOST", "localhost"),
			Port:       getEnv("SMTP_PORT", "1025"),
			From:       getEnv("SMTP_FROM", "noreply@technest.dev"),
			AdminEmail: getEnv("ADMIN_EMAIL", "admin@technest.dev"),
		},
		Payment: PaymentConfig{
			GatewayTimeout:      getEnvDuration("PAYMENT_GATEWAY_TIMEOUT", 30*time.Second),
			StaleOrderThreshold: getEnvDuration("PAYMENT_STALE_THRESHOLD", 24*time.Hour),
			StaleOrderBatchSize: getEnvInt("PAYMENT_STALE_BATCH_SIZE", 100),
		},
		SSLCommerz: SSLCommerzConfig{
			StoreID:       getEnv("SSLCOMMERZ_STORE_ID", ""),
			StorePassword: getEnv("SSLCOMMERZ_STORE_PASSWORD", ""),
			APIURL:        getEnv("SSLCOMMERZ_API_URL", "https://sandbox.sslcommerz.com"),
			SuccessURL:    getEnv("SSLCOMMERZ_SUCCESS_URL", "http://localhost:3000/payment/success"),
			FailURL:       getEnv("SSLCOMMERZ_FAIL_URL", "http://localhost:3000/payment/failed"),
			CancelURL:     getEnv("SSLCOMMERZ_CANCEL_URL", "http://localhost:3000/payment/cancelled"),
			IPNURL:        getEnv("SSLCOMMERZ_IPN_URL", "http://localhost:8080/api/v1/payments/sslcommerz/ipn"),
		},
		Stripe: StripeConfig{
			SecretKey:     getEnv("STRIPE_SECRET_KEY", ""),
			WebhookSecret: getEnv("STRIPE_WEBHOOK_SECRET", ""),
			APIURL:        getEnv("STRIPE_API_URL", "https://api.stripe.com"),
			SuccessURL:    getEnv("STRIPE_SUCCESS_URL", "http://localhost:3000/payment/success"),
			CancelURL:     getEnv("STRIPE_CANCEL_URL", "http://localhost:3000/payment/cancelled"),
		},
		Bkash: BkashConfig{
			AppKey:      getEnv("BKASH_APP_KEY", ""),
			AppSecret:   getEnv("BKASH_APP_SECRET", ""),
			Username:    getEnv("BKASH_USERNAME", ""),
			Password:    getEnv("BKASH_PASSWORD", ""),
			APIURL:      getEnv("BKASH_API_URL", "https://tokenized.sandbox.bka.sh/v1.2.0-beta"),
			CallbackURL: getEnv("BKASH_CALLBACK_URL", "http://localhost:8080/api/v1/payments/bkash/callback"),
		},
		Nagad: NagadConfig{
			MerchantID:  getEnv("NAGAD_MERCHANT_ID", ""),
			MerchantKey: getEnv("NAGAD_MERCHANT_KEY", ""),
			APIURL:      getEnv("NAGAD_API_URL", "https://sandbox.mynagad.com/remote-payment-gateway"),
			CallbackURL: getEnv("NAGAD_CALLBACK_URL", "http://localhost:8080/api/v1/payments/nagad/callback"),
		},
		Payoneer: PayoneerConfig{
			PayeeID: getEnv("PAYONEER_PAYEE_ID", ""),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// Validate checks config consistency. Gateway credentials are allowed to
// be empty outside production so a developer can run a subset of
// providers against sandboxes.
func (c *Config) Validate() error {
	if c.App.Environment == "production" {
		if c.JWT.Secret == "your-secret-key-change-in-production" {
			return fmt.Errorf("JWT_SECRET must be set in production")
		}
		if c.Database.Password == "" {
			return fmt.Errorf("DB_PASSWORD must be set in production")
		}
		if c.Stripe.WebhookSecret == "" {
			return fmt.Errorf("STRIPE_WEBHOOK_SECRET must be set in production")
		}
		if c.SSLCommerz.StorePassword == "" {
			fmt.Println("WARNING: SSLCommerz store password not set - SSLCommerz payments will not work")
		}
		if c.Bkash.AppKey == "" {
			fmt.Println("WARNING: bKash app key not set - bKash payments will not work")
		}
		if c.Nagad.MerchantID == "" {
			fmt.Println("WARNING: Nagad merchant ID not set - Nagad payments will not work")
		}
	}

	if c.Payment.GatewayTimeout <= 0 {
		return fmt.Errorf("PAYMENT_GATEWAY_TIMEOUT must be positive")
	}
	if c.Payment.StaleOrderThreshold <= 0 {
		return fmt.Errorf("PAYMENT_STALE_THRESHOLD must be positive")
	}

	return nil
}

// Helper functions
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := time.ParseDuration(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}
