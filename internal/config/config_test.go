package config

import (
	"os"
	"testing"
)

func TestLoadConfig(t *testing.T) {
	os.Setenv("MONGODB_URI", "mongodb://localhost:27017/testdb")
	os.Setenv("MONGODB_DATABASE", "inkfeed_test")
	os.Setenv("REDIS_HOST", "localhost")
	os.Setenv("REDIS_PORT", "6379")
	os.Setenv("IDENTITY_API_KEY", "test-api-key")
	os.Setenv("JWT_SECRET", "testsecret123456789012345678901234")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}

	if cfg.MongoDB.URI == "" || cfg.Redis.Host == "" {
		t.Fatalf("unexpected empty config values: %+v", cfg)
	}
	if cfg.Identity.BaseURL == "" || cfg.Identity.TokenURL == "" {
		t.Fatalf("expected identity endpoint defaults, got: %+v", cfg.Identity)
	}
	if cfg.Feed.PageSize != 5 {
		t.Fatalf("expected default page size 5, got %d", cfg.Feed.PageSize)
	}
	if cfg.Uploads.Backend != "minio" {
		t.Fatalf("expected default uploads backend minio, got %q", cfg.Uploads.Backend)
	}
}
