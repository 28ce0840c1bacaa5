package config

import (
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds application configuration
type Config struct {
	Server    ServerConfig
	MongoDB   MongoDBConfig
	Redis     RedisConfig
	Identity  IdentityConfig
	JWT       JWTConfig
	Uploads   UploadsConfig
	RateLimit RateLimitConfig
	Feed      FeedConfig
}

type ServerConfig struct {
	Port         string
	Host         string
	Environment  string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

type MongoDBConfig struct {
	URI      string
	Database string
	Timeout  time.Duration
}

type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
}

// IdentityConfig points at the hosted identity provider. BaseURL/TokenURL and
// the API key drive the REST client; OIDCIssuer/OIDCClientID optionally enable
// ID-token verification against the provider's OIDC discovery document.
type IdentityConfig struct {
	BaseURL      string
	TokenURL     string
	APIKey       string
	OIDCIssuer   string
	OIDCClientID string
}

type JWTConfig struct {
	Secret          string
	AccessTokenTTL  time.Duration
	RefreshTokenTTL time.Duration
}

// UploadsConfig selects the image storage backend: "minio" or "cloudinary".
type UploadsConfig struct {
	Backend string

	MinIOEndpoint  string
	MinIOAccessKey string
	MinIOSecretKey string
	MinIOUseSSL    bool
	MinIOBucket    string
	MinIOPublicURL string

	CloudinaryCloud   string
	CloudinaryPreset  string
	CloudinaryBaseURL string
}

type RateLimitConfig struct {
	Enabled bool
	RPS     float64
	Burst   int
}

type FeedConfig struct {
	PageSize int
}

// LoadConfig loads configuration from environment variables and .env file
func LoadConfig() (*Config, error) {
	_ = godotenv.Load()

	viper.AutomaticEnv()

	viper.SetDefault("SERVER_PORT", "5001")
	viper.SetDefault("SERVER_HOST", "0.0.0.0")
	viper.SetDefault("SERVER_ENVIRONMENT", "development")
	viper.SetDefault("MONGODB_DATABASE", "inkfeed")
	viper.SetDefault("MONGODB_TIMEOUT", 10)
	viper.SetDefault("JWT_ACCESS_TOKEN_TTL", 15)
	viper.SetDefault("JWT_REFRESH_TOKEN_TTL", 10080)
	viper.SetDefault("IDENTITY_BASE_URL", "https://identitytoolkit.googleapis.com/v1")
	viper.SetDefault("IDENTITY_TOKEN_URL", "https://securetoken.googleapis.com/v1/token")
	viper.SetDefault("UPLOADS_BACKEND", "minio")
	viper.SetDefault("MINIO_BUCKET", "inkfeed")
	viper.SetDefault("CLOUDINARY_BASE_URL", "https://api.cloudinary.com/v1_1")
	viper.SetDefault("RATE_LIMIT_ENABLED", false)
	viper.SetDefault("RATE_LIMIT_RPS", 10.0)
	viper.SetDefault("RATE_LIMIT_BURST", 20)
	viper.SetDefault("FEED_PAGE_SIZE", 5)

	cfg := &Config{
		Server: ServerConfig{
			Port:         viper.GetString("SERVER_PORT"),
			Host:         viper.GetString("SERVER_HOST"),
			Environment:  viper.GetString("SERVER_ENVIRONMENT"),
			ReadTimeout:  30 * time.Second,
			WriteTimeout: 30 * time.Second,
		},
		MongoDB: MongoDBConfig{
			URI:      getEnvOrPanic("MONGODB_URI"),
			Database: viper.GetString("MONGODB_DATABASE"),
			Timeout:  time.Duration(viper.GetInt("MONGODB_TIMEOUT")) * time.Second,
		},
		Redis: RedisConfig{
			Host:     viper.GetString("REDIS_HOST"),
			Port:     viper.GetString("REDIS_PORT"),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       0,
		},
		Identity: IdentityConfig{
			BaseURL:      viper.GetString("IDENTITY_BASE_URL"),
			TokenURL:     viper.GetString("IDENTITY_TOKEN_URL"),
			APIKey:       os.Getenv("IDENTITY_API_KEY"),
			OIDCIssuer:   viper.GetString("IDENTITY_OIDC_ISSUER"),
			OIDCClientID: viper.GetString("IDENTITY_OIDC_CLIENT_ID"),
		},
		JWT: JWTConfig{
			Secret:          os.Getenv("JWT_SECRET"),
			AccessTokenTTL:  time.Duration(viper.GetInt("JWT_ACCESS_TOKEN_TTL")) * time.Minute,
			RefreshTokenTTL: time.Duration(viper.GetInt("JWT_REFRESH_TOKEN_TTL")) * time.Minute,
		},
		Uploads: UploadsConfig{
			Backend:           viper.GetString("UPLOADS_BACKEND"),
			MinIOEndpoint:     viper.GetString("MINIO_ENDPOINT"),
			MinIOAccessKey:    os.Getenv("MINIO_ACCESS_KEY"),
			MinIOSecretKey:    os.Getenv("MINIO_SECRET_KEY"),
			MinIOUseSSL:       viper.GetBool("MINIO_USE_SSL"),
			MinIOBucket:       viper.GetString("MINIO_BUCKET"),
			MinIOPublicURL:    viper.GetString("MINIO_PUBLIC_URL"),
			CloudinaryCloud:   viper.GetString("CLOUDINARY_CLOUD_NAME"),
			CloudinaryPreset:  viper.GetString("CLOUDINARY_UPLOAD_PRESET"),
			CloudinaryBaseURL: viper.GetString("CLOUDINARY_BASE_URL"),
		},
		RateLimit: RateLimitConfig{
			Enabled: viper.GetBool("RATE_LIMIT_ENABLED"),
			RPS:     viper.GetFloat64("RATE_LIMIT_RPS"),
			Burst:   viper.GetInt("RATE_LIMIT_BURST"),
		},
		Feed: FeedConfig{
			PageSize: viper.GetInt("FEED_PAGE_SIZE"),
		},
	}

	// Basic validation
	if cfg.JWT.Secret == "" {
		log.Println("WARNING: JWT_SECRET is not set; set a secure value in production")
	}
	if cfg.Identity.APIKey == "" {
		log.Println("WARNING: IDENTITY_API_KEY is not set; auth endpoints will fail")
	}

	return cfg, nil
}

func getEnvOrPanic(key string) string {
	v := os.Getenv(key)
	if v == "" {
		log.Fatalf("environment variable %s is required", key)
	}
	return v
}
