package config

import (
	"errors"
	"log"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all configuration values.
type Config struct {
	AppPort  string `mapstructure:"APP_PORT"`
	Env      string `mapstructure:"ENV"`
	LogLevel string `mapstructure:"LOG_LEVEL"`
	Domain   string `mapstructure:"DOMAIN"`
	BaseURL  string `mapstructure:"BASE_URL"`

	// Database.
	DBDriver    string `mapstructure:"DB_DRIVER"`
	SQLiteDB    string `mapstructure:"SQLITE_DB"`
	DatabaseURL string `mapstructure:"DATABASE_URL"`
	AnalyticsDB string `mapstructure:"ANALYTICS_DB"`

	// Admin access.
	SessionSecret  string `mapstructure:"SESSION_SECRET"`
	JWTSecret      string `mapstructure:"JWT_SECRET"`
	JWTExpiryHours int    `mapstructure:"JWT_EXPIRY_HOURS"`
	AdminEmail     string `mapstructure:"ADMIN_EMAIL"`
	AdminPassword  string `mapstructure:"ADMIN_PASSWORD"`
	CORSOrigins    string `mapstructure:"CORS_ORIGINS"`

	// Response cache.
	CacheDriver   string        `mapstructure:"CACHE_DRIVER"`
	CacheDir      string        `mapstructure:"CACHE_DIR"`
	CacheTTL      time.Duration `mapstructure:"CACHE_TTL"`
	RedisAddr     string        `mapstructure:"REDIS_ADDR"`
	RedisPassword string        `mapstructure:"REDIS_PASSWORD"`
	RedisCacheDB  int           `mapstructure:"REDIS_CACHE_DB"`

	// Notifications.
	SMTPHost          string `mapstructure:"SMTP_HOST"`
	SMTPPort          string `mapstructure:"SMTP_PORT"`
	SMTPUser          string `mapstructure:"SMTP_USER"`
	SMTPPassword      string `mapstructure:"SMTP_PASSWORD"`
	SMTPFrom          string `mapstructure:"SMTP_FROM"`
	ClinicEmail       string `mapstructure:"CLINIC_EMAIL"`
	TwilioAccountSID  string `mapstructure:"TWILIO_ACCOUNT_SID"`
	TwilioAuthToken   string `mapstructure:"TWILIO_AUTH_TOKEN"`
	TwilioPhoneNumber string `mapstructure:"TWILIO_PHONE_NUMBER"`

	// Uploads.
	UploadDriver        string `mapstructure:"UPLOAD_DRIVER"`
	UploadDir           string `mapstructure:"UPLOAD_DIR"`
	MaxUploadMB         int64  `mapstructure:"MAX_UPLOAD_MB"`
	CloudinaryCloudName string `mapstructure:"CLOUDINARY_CLOUD_NAME"`
	CloudinaryAPIKey    string `mapstructure:"CLOUDINARY_API_KEY"`
	CloudinaryAPISecret string `mapstructure:"CLOUDINARY_API_SECRET"`

	SubmissionsPerMin int `mapstructure:"SUBMISSIONS_PER_MIN"`
}

var defaults = map[string]any{
	"APP_PORT":              "8080",
	"ENV":                   "development",
	"LOG_LEVEL":             "info",
	"DOMAIN":                "http://localhost:8080",
	"BASE_URL":              "http://localhost:8080",
	"DB_DRIVER":             "sqlite",
	"SQLITE_DB":             "klinika.db",
	"DATABASE_URL":          "",
	"ANALYTICS_DB":          "",
	"SESSION_SECRET":        "",
	"JWT_SECRET":            "",
	"JWT_EXPIRY_HOURS":      24,
	"ADMIN_EMAIL":           "",
	"ADMIN_PASSWORD":        "",
	"CORS_ORIGINS":          "http://localhost:3000",
	"CACHE_DRIVER":          "file",
	"CACHE_DIR":             "cache",
	"CACHE_TTL":             "10m",
	"REDIS_ADDR":            "localhost:6379",
	"REDIS_PASSWORD":        "",
	"REDIS_CACHE_DB":        0,
	"SMTP_HOST":             "",
	"SMTP_PORT":             "587",
	"SMTP_USER":             "",
	"SMTP_PASSWORD":         "",
	"SMTP_FROM":             "",
	"CLINIC_EMAIL":          "",
	"TWILIO_ACCOUNT_SID":    "",
	"TWILIO_AUTH_TOKEN":     "",
	"TWILIO_PHONE_NUMBER":   "",
	"UPLOAD_DRIVER":         "local",
	"UPLOAD_DIR":            "uploads",
	"MAX_UPLOAD_MB":         8,
	"CLOUDINARY_CLOUD_NAME": "",
	"CLOUDINARY_API_KEY":    "",
	"CLOUDINARY_API_SECRET": "",
	"SUBMISSIONS_PER_MIN":   5,
}

// Load reads .env, an optional config.yaml and the environment, in that order of
// increasing precedence.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables only")
	}

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AutomaticEnv()

	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, err
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate reports settings the server cannot start without.
func (c *Config) Validate() error {
	if c.SessionSecret == "" {
		return errors.New("SESSION_SECRET environment variable not set")
	}
	if c.JWTSecret == "" {
		return errors.New("JWT_SECRET environment variable not set")
	}
	return nil
}

func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// Origins splits CORS_ORIGINS on commas.
func (c *Config) Origins() []string {
	var origins []string
	for _, o := range strings.Split(c.CORSOrigins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			origins = append(origins, o)
		}
	}
	return origins
}
