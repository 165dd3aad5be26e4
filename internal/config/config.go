package config

import (
	"log"
	"time"

	"github.com/spf13/viper"
)

// Backends understood by DATA_BACKEND
const (
	BackendPostgres = "postgres"
	BackendSupabase = "supabase"
)

type Config struct {
	App       AppConfig
	Database  DatabaseConfig
	Supabase  SupabaseConfig
	JWT       JWTConfig
	Storage   StorageConfig
	CORS      CORSConfig
	RateLimit RateLimitConfig
	Email     EmailConfig
	Stripe    StripeConfig
	Reminder  ReminderConfig
	Billing   BillingConfig
}

type AppConfig struct {
	Name        string
	Env         string
	Port        string
	Debug       bool
	DataBackend string
}

type DatabaseConfig struct {
	Host     string
	Port     string
	Name     string
	User     string
	Password string
	SSLMode  string
	Timezone string
}

type SupabaseConfig struct {
	URL    string
	APIKey string
}

type JWTConfig struct {
	Secret             string
	ExpiryHours        time.Duration
	RefreshExpiryHours time.Duration
}

// StorageConfig points at the directory generated PDFs are written to
type StorageConfig struct {
	Path string
}

type CORSConfig struct {
	AllowedOrigins []string
	AllowedMethods []string
	AllowedHeaders []string
}

type RateLimitConfig struct {
	Requests int
	Duration int
}

type EmailConfig struct {
	SMTPHost     string
	SMTPPort     int
	SMTPUsername string
	SMTPPassword string
	FromName     string
	FromEmail    string
	FrontendURL  string
}

type StripeConfig struct {
	SecretKey     string
	WebhookSecret string
}

// ReminderConfig controls the daily sweep. Schedule uses the six-field
// cron format with a leading seconds column.
type ReminderConfig struct {
	Enabled  bool
	Schedule string
	SyncSpec string
	Timezone string
	Workers  int
}

type BillingConfig struct {
	CompanyName      string
	DefaultCurrency  string
	PaymentTermsDays int
	QuoteValidDays   int
}

func Load() *Config {
	viper.SetConfigFile(".env")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		log.Printf("Warning: .env file not found, using environment variables: %v", err)
	}

	viper.SetDefault("APP_NAME", "investify-billing")
	viper.SetDefault("APP_ENV", "development")
	viper.SetDefault("APP_PORT", "8080")
	viper.SetDefault("APP_DEBUG", true)
	viper.SetDefault("DATA_BACKEND", BackendPostgres)
	viper.SetDefault("DB_HOST", "localhost")
	viper.SetDefault("DB_PORT", "5432")
	viper.SetDefault("DB_NAME", "investify")
	viper.SetDefault("DB_USER", "postgres")
	viper.SetDefault("DB_PASSWORD", "postgres")
	viper.SetDefault("DB_SSL_MODE", "disable")
	viper.SetDefault("DB_TIMEZONE", "Africa/Nairobi")
	viper.SetDefault("JWT_SECRET", "change-this-secret-in-production")
	viper.SetDefault("JWT_EXPIRY_HOURS", 24)
	viper.SetDefault("JWT_REFRESH_EXPIRY_HOURS", 168)
	viper.SetDefault("STORAGE_PATH", "./storage")
	viper.SetDefault("CORS_ALLOWED_ORIGINS", "http://localhost:3000")
	viper.SetDefault("CORS_ALLOWED_HEADERS", []string{})
	viper.SetDefault("RATE_LIMIT_REQUESTS", 100)
	viper.SetDefault("RATE_LIMIT_DURATION", 60)
	viper.SetDefault("SMTP_HOST", "smtp.gmail.com")
	viper.SetDefault("SMTP_PORT", 587)
	viper.SetDefault("EMAIL_FROM_NAME", "Investify Billing")
	viper.SetDefault("EMAIL_FROM_ADDRESS", "billing@investify.local")
	viper.SetDefault("FRONTEND_URL", "http://localhost:3000")
	viper.SetDefault("REMINDER_ENABLED", true)
	viper.SetDefault("REMINDER_SCHEDULE", "0 0 9 * * *")
	viper.SetDefault("SUBSCRIPTION_SYNC_SCHEDULE", "0 30 2 * * *")
	viper.SetDefault("REMINDER_TIMEZONE", "UTC")
	viper.SetDefault("REMINDER_WORKERS", 4)
	viper.SetDefault("BILLING_COMPANY_NAME", "Investify")
	viper.SetDefault("BILLING_DEFAULT_CURRENCY", "USD")
	viper.SetDefault("BILLING_PAYMENT_TERMS_DAYS", 30)
	viper.SetDefault("BILLING_QUOTE_VALID_DAYS", 30)

	return &Config{
		App: AppConfig{
			Name:        viper.GetString("APP_NAME"),
			Env:         viper.GetString("APP_ENV"),
			Port:        viper.GetString("APP_PORT"),
			Debug:       viper.GetBool("APP_DEBUG"),
			DataBackend: viper.GetString("DATA_BACKEND"),
		},
		Database: DatabaseConfig{
			Host:     viper.GetString("DB_HOST"),
			Port:     viper.GetString("DB_PORT"),
			Name:     viper.GetString("DB_NAME"),
			User:     viper.GetString("DB_USER"),
			Password: viper.GetString("DB_PASSWORD"),
			SSLMode:  viper.GetString("DB_SSL_MODE"),
			Timezone: viper.GetString("DB_TIMEZONE"),
		},
		Supabase: SupabaseConfig{
			URL:    viper.GetString("SUPABASE_URL"),
			APIKey: viper.GetString("SUPABASE_SERVICE_KEY"),
		},
		JWT: JWTConfig{
			Secret:             viper.GetString("JWT_SECRET"),
			ExpiryHours:        time.Duration(viper.GetInt("JWT_EXPIRY_HOURS")) * time.Hour,
			RefreshExpiryHours: time.Duration(viper.GetInt("JWT_REFRESH_EXPIRY_HOURS")) * time.Hour,
		},
		Storage: StorageConfig{
			Path: viper.GetString("STORAGE_PATH"),
		},
		CORS: CORSConfig{
			AllowedOrigins: viper.GetStringSlice("CORS_ALLOWED_ORIGINS"),
			AllowedMethods: viper.GetStringSlice("CORS_ALLOWED_METHODS"),
			AllowedHeaders: viper.GetStringSlice("CORS_ALLOWED_HEADERS"),
		},
		RateLimit: RateLimitConfig{
			Requests: viper.GetInt("RATE_LIMIT_REQUESTS"),
			Duration: viper.GetInt("RATE_LIMIT_DURATION"),
		},
		Email: EmailConfig{
			SMTPHost:     viper.GetString("SMTP_HOST"),
			SMTPPort:     viper.GetInt("SMTP_PORT"),
			SMTPUsername: viper.GetString("SMTP_USERNAME"),
			SMTPPassword: viper.GetString("SMTP_PASSWORD"),
			FromName:     viper.GetString("EMAIL_FROM_NAME"),
			FromEmail:    viper.GetString("EMAIL_FROM_ADDRESS"),
			FrontendURL:  viper.GetString("FRONTEND_URL"),
		},
		Stripe: StripeConfig{
			SecretKey:     viper.GetString("STRIPE_SECRET_KEY"),
			WebhookSecret: viper.GetString("STRIPE_WEBHOOK_SECRET"),
		},
		Reminder: ReminderConfig{
			Enabled:  viper.GetBool("REMINDER_ENABLED"),
			Schedule: viper.GetString("REMINDER_SCHEDULE"),
			SyncSpec: viper.GetString("SUBSCRIPTION_SYNC_SCHEDULE"),
			Timezone: viper.GetString("REMINDER_TIMEZONE"),
			Workers:  viper.GetInt("REMINDER_WORKERS"),
		},
		Billing: BillingConfig{
			CompanyName:      viper.GetString("BILLING_COMPANY_NAME"),
			DefaultCurrency:  viper.GetString("BILLING_DEFAULT_CURRENCY"),
			PaymentTermsDays: viper.GetInt("BILLING_PAYMENT_TERMS_DAYS"),
			QuoteValidDays:   viper.GetInt("BILLING_QUOTE_VALID_DAYS"),
		},
	}
}

func (c *DatabaseConfig) DSN() string {
	return "host=" + c.Host +
		" user=" + c.User +
		" password=" + c.Password +
		" dbname=" + c.Name +
		" port=" + c.Port +
		" sslmode=" + c.SSLMode +
		" TimeZone=" + c.Timezone
}
