package config

import (
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	DBDriverMongo  = "mongo"
	DBDriverMemory = "memory"

	MediaDriverCloudinary = "cloudinary"
	MediaDriverS3         = "s3"
	MediaDriverMemory     = "memory"
)

type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	Redis     RedisConfig
	RateLimit RateLimitConfig
	JWT       JWTConfig
	Media     MediaConfig
	Booking   BookingConfig
}

type ServerConfig struct {
	Port           string
	Env            string
	LogLevel       string
	AllowedOrigins []string
	CookieSecure   bool
}

func (s ServerConfig) IsDevelopment() bool {
	return s.Env != "production"
}

type DatabaseConfig struct {
	Driver   string
	URI      string
	Database string
	Timeout  time.Duration
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

type RateLimitConfig struct {
	Requests int
	Window   time.Duration
}

type JWTConfig struct {
	Secret       string
	AccessExpiry int // in minutes
}

type MediaConfig struct {
	Driver     string
	Timeout    time.Duration
	Cloudinary CloudinaryConfig
	S3         S3Config
}

type CloudinaryConfig struct {
	CloudName string
	APIKey    string
	APISecret string
}

type S3Config struct {
	Bucket   string
	Region   string
	Key      string
	Secret   string
	Endpoint string
	BaseURL  string
}

type BookingConfig struct {
	// StrictTransitions enforces the booking state machine edges on
	// status changes
	StrictTransitions bool
}

func Load() *Config {
	v := viper.New()
	v.SetConfigName(".env")
	v.SetConfigType("env")
	v.AddConfigPath(".")
	v.AutomaticEnv()

	// Set defaults
	v.SetDefault("SERVER_PORT", "8080")
	v.SetDefault("SERVER_ENV", "development")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("COOKIE_SECURE", false)
	v.SetDefault("DB_DRIVER", DBDriverMongo)
	v.SetDefault("MONGO_URI", "mongodb://localhost:27017")
	v.SetDefault("MONGO_DATABASE", "servicehub")
	v.SetDefault("MONGO_TIMEOUT_SECONDS", 10)
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("RATE_LIMIT_REQUESTS", 20)
	v.SetDefault("RATE_LIMIT_WINDOW_SECONDS", 60)
	v.SetDefault("JWT_ACCESS_EXPIRY", 1440)
	v.SetDefault("MEDIA_DRIVER", MediaDriverCloudinary)
	v.SetDefault("MEDIA_TIMEOUT_SECONDS", 120)
	v.SetDefault("S3_REGION", "us-east-1")
	v.SetDefault("BOOKING_STRICT_TRANSITIONS", false)

	if err := v.ReadInConfig(); err != nil {
		log.Printf("Warning: Could not read config file: %v", err)
	}

	return &Config{
		Server: ServerConfig{
			Port:           v.GetString("SERVER_PORT"),
			Env:            v.GetString("SERVER_ENV"),
			LogLevel:       v.GetString("LOG_LEVEL"),
			AllowedOrigins: splitList(v.GetString("CORS_ALLOWED_ORIGINS")),
			CookieSecure:   v.GetBool("COOKIE_SECURE"),
		},
		Database: DatabaseConfig{
			Driver:   v.GetString("DB_DRIVER"),
			URI:      v.GetString("MONGO_URI"),
			Database: v.GetString("MONGO_DATABASE"),
			Timeout:  time.Duration(v.GetInt("MONGO_TIMEOUT_SECONDS")) * time.Second,
		},
		Redis: RedisConfig{
			Addr:     v.GetString("REDIS_ADDR"),
			Password: v.GetString("REDIS_PASSWORD"),
			DB:       v.GetInt("REDIS_DB"),
		},
		RateLimit: RateLimitConfig{
			Requests: v.GetInt("RATE_LIMIT_REQUESTS"),
			Window:   time.Duration(v.GetInt("RATE_LIMIT_WINDOW_SECONDS")) * time.Second,
		},
		JWT: JWTConfig{
			Secret:       v.GetString("JWT_SECRET"),
			AccessExpiry: v.GetInt("JWT_ACCESS_EXPIRY"),
		},
		Media: MediaConfig{
			Driver:  v.GetString("MEDIA_DRIVER"),
			Timeout: time.Duration(v.GetInt("MEDIA_TIMEOUT_SECONDS")) * time.Second,
			Cloudinary: CloudinaryConfig{
				CloudName: v.GetString("CLOUDINARY_CLOUD_NAME"),
				APIKey:    v.GetString("CLOUDINARY_API_KEY"),
				APISecret: v.GetString("CLOUDINARY_API_SECRET"),
			},
			S3: S3Config{
				Bucket:   v.GetString("S3_BUCKET"),
				Region:   v.GetString("S3_REGION"),
				Key:      v.GetString("S3_KEY"),
				Secret:   v.GetString("S3_SECRET"),
				Endpoint: v.GetString("S3_ENDPOINT"),
				BaseURL:  v.GetString("S3_URL"),
			},
		},
		Booking: BookingConfig{
			StrictTransitions: v.GetBool("BOOKING_STRICT_TRANSITIONS"),
		},
	}
}

// Validate reports configuration that would make the server unusable
func (c *Config) Validate() error {
	var errs []error
	if c.JWT.Secret == "" {
		errs = append(errs, errors.New("JWT_SECRET is required"))
	}
	if c.JWT.AccessExpiry <= 0 {
		errs = append(errs, errors.New("JWT_ACCESS_EXPIRY must be positive"))
	}
	switch c.Database.Driver {
	case DBDriverMongo, DBDriverMemory:
	default:
		errs = append(errs, fmt.Errorf("unsupported DB_DRIVER %q", c.Database.Driver))
	}
	switch c.Media.Driver {
	case MediaDriverCloudinary, MediaDriverS3, MediaDriverMemory:
	default:
		errs = append(errs, fmt.Errorf("unsupported MEDIA_DRIVER %q", c.Media.Driver))
	}
	return errors.Join(errs...)
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
