package config

import (
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	App     AppConfig
	DB      DBConfig
	Redis   RedisConfig
	JWT     JWTConfig
	Payment PaymentConfig
	Mail    MailConfig
	Booking BookingConfig
}

type AppConfig struct {
	Port    string
	Env     string
	BaseURL string
	// CORSOrigins lists the browser origins allowed to call the API; "*"
	// allows any.
	CORSOrigins []string
}

type DBConfig struct {
	Host          string
	Port          string
	User          string
	Password      string
	Name          string
	MigrationsDir string
}

type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
	PoolSize int
}

type JWTConfig struct {
	Secret string
	Expiry time.Duration
}

type PaymentConfig struct {
	KeyID     string
	KeySecret string
	Currency  string
}

type MailConfig struct {
	SendGridAPIKey string
	FromEmail      string
	FromName       string
}

type BookingConfig struct {
	// SlotHoldTTL is how long a pending payment order keeps its slot reserved.
	SlotHoldTTL time.Duration
	// SweepInterval is how often stale unpaid orders are expired.
	SweepInterval time.Duration
	// VerifyTokenTTL applies to email-verification and password-reset tokens.
	VerifyTokenTTL time.Duration
}

func LoadConfig() (*Config, error) {
	viper.SetConfigFile(".env")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		return nil, err
	}

	jwtExpiry, err := time.ParseDuration(viper.GetString("JWT_EXPIRY"))
	if err != nil {
		jwtExpiry = time.Hour
	}

	holdTTL, err := time.ParseDuration(viper.GetString("BOOKING_SLOT_HOLD_TTL"))
	if err != nil {
		holdTTL = 15 * time.Minute
	}

	sweepInterval, err := time.ParseDuration(viper.GetString("BOOKING_SWEEP_INTERVAL"))
	if err != nil {
		sweepInterval = 5 * time.Minute
	}

	tokenTTL, err := time.ParseDuration(viper.GetString("AUTH_TOKEN_TTL"))
	if err != nil {
		tokenTTL = 10 * time.Minute
	}

	currency := viper.GetString("PAYMENT_CURRENCY")
	if currency == "" {
		currency = "INR"
	}

	migrationsDir := viper.GetString("DB_MIGRATIONS_DIR")
	if migrationsDir == "" {
		migrationsDir = "db/migrations"
	}

	corsOrigins := []string{"*"}
	if raw := viper.GetString("CORS_ALLOWED_ORIGINS"); raw != "" {
		corsOrigins = corsOrigins[:0]
		for _, origin := range strings.Split(raw, ",") {
			if origin = strings.TrimSpace(origin); origin != "" {
				corsOrigins = append(corsOrigins, origin)
			}
		}
	}

	config := &Config{
		App: AppConfig{
			Port:        viper.GetString("APP_PORT"),
			Env:         viper.GetString("APP_ENV"),
			BaseURL:     viper.GetString("APP_BASE_URL"),
			CORSOrigins: corsOrigins,
		},
		DB: DBConfig{
			Host:          viper.GetString("DB_HOST"),
			Port:          viper.GetString("DB_PORT"),
			User:          viper.GetString("DB_USER"),
			Password:      viper.GetString("DB_PASSWORD"),
			Name:          viper.GetString("DB_NAME"),
			MigrationsDir: migrationsDir,
		},
		Redis: RedisConfig{
			Host:     viper.GetString("REDIS_HOST"),
			Port:     viper.GetString("REDIS_PORT"),
			Password: viper.GetString("REDIS_PASSWORD"),
			DB:       viper.GetInt("REDIS_DB"),
			PoolSize: viper.GetInt("REDIS_POOL_SIZE"),
		},
		JWT: JWTConfig{
			Secret: viper.GetString("JWT_SECRET"),
			Expiry: jwtExpiry,
		},
		Payment: PaymentConfig{
			KeyID:     viper.GetString("RAZORPAY_KEY_ID"),
			KeySecret: viper.GetString("RAZORPAY_KEY_SECRET"),
			Currency:  currency,
		},
		Mail: MailConfig{
			SendGridAPIKey: viper.GetString("SENDGRID_API_KEY"),
			FromEmail:      viper.GetString("MAIL_FROM_EMAIL"),
			FromName:       viper.GetString("MAIL_FROM_NAME"),
		},
		Booking: BookingConfig{
			SlotHoldTTL:    holdTTL,
			SweepInterval:  sweepInterval,
			VerifyTokenTTL: tokenTTL,
		},
	}

	return config, nil
}
