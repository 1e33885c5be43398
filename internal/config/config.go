package config

import (
	"fmt"
	"os"
	"strconv"

	_ "github.com/joho/godotenv/autoload"
)

// Config holds all environment-derived settings for the service.
type Config struct {
	Port     string
	BaseURL  string
	DBPath   string
	LogLevel string

	Clerk  ClerkConfig
	Stripe StripeConfig
	Backup BackupConfig

	// SubscriptionsEnabled turns on the parallel subscription-billing path
	// (checkout sessions in subscription mode, invoice.payment_succeeded).
	SubscriptionsEnabled bool
}

// ClerkConfig configures networkless session-token verification.
type ClerkConfig struct {
	// PEMPublicKey is the identity provider's RSA public key in PEM form.
	PEMPublicKey string
}

// StripeConfig configures the Stripe client.
type StripeConfig struct {
	SecretKey     string
	WebhookSecret string
	PriceID       string
}

// BackupConfig configures the scheduled encrypted S3 backup.
type BackupConfig struct {
	Endpoint   string
	Bucket     string
	Region     string
	AccessKey  string
	SecretKey  string
	Passphrase string
	Hour       int
}

// Load reads configuration from the environment. A .env file in the working
// directory is picked up automatically.
func Load() (*Config, error) {
	cfg := &Config{
		Port:     getenv("LEADSCOUT_PORT", "8080"),
		DBPath:   getenv("LEADSCOUT_DB_PATH", "leadscout.db"),
		LogLevel: os.Getenv("LEADSCOUT_LOG_LEVEL"),
		Clerk: ClerkConfig{
			PEMPublicKey: os.Getenv("CLERK_PEM_PUBLIC_KEY"),
		},
		Stripe: StripeConfig{
			SecretKey:     os.Getenv("STRIPE_SECRET_KEY"),
			WebhookSecret: os.Getenv("STRIPE_WEBHOOK_SECRET"),
			PriceID:       os.Getenv("STRIPE_PRICE_ID"),
		},
		Backup: BackupConfig{
			Endpoint:   os.Getenv("LEADSCOUT_S3_ENDPOINT"),
			Bucket:     os.Getenv("LEADSCOUT_S3_BUCKET"),
			Region:     getenv("LEADSCOUT_S3_REGION", "auto"),
			AccessKey:  os.Getenv("LEADSCOUT_S3_ACCESS_KEY"),
			SecretKey:  os.Getenv("LEADSCOUT_S3_SECRET_KEY"),
			Passphrase: os.Getenv("LEADSCOUT_BACKUP_PASSPHRASE"),
			Hour:       3,
		},
	}

	cfg.BaseURL = getenv("LEADSCOUT_BASE_URL", "http://localhost:"+cfg.Port)

	if v := os.Getenv("LEADSCOUT_ENABLE_SUBSCRIPTIONS"); v != "" {
		enabled, err := strconv.ParseBool(v)
		if err != nil {
			return nil, fmt.Errorf("parse LEADSCOUT_ENABLE_SUBSCRIPTIONS: %w", err)
		}
		cfg.SubscriptionsEnabled = enabled
	}

	if v := os.Getenv("LEADSCOUT_BACKUP_HOUR"); v != "" {
		hour, err := strconv.Atoi(v)
		if err != nil || hour < 0 || hour > 23 {
			return nil, fmt.Errorf("LEADSCOUT_BACKUP_HOUR must be 0-23, got %q", v)
		}
		cfg.Backup.Hour = hour
	}

	// Clerk keys may be provided through a file path instead of inline PEM.
	if cfg.Clerk.PEMPublicKey == "" {
		if path := os.Getenv("CLERK_PEM_PUBLIC_KEY_FILE"); path != "" {
			data, err := os.ReadFile(path)
			if err != nil {
				return nil, fmt.Errorf("read clerk public key file: %w", err)
			}
			cfg.Clerk.PEMPublicKey = string(data)
		}
	}

	return cfg, nil
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
