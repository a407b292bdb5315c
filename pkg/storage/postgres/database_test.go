package postgres_test

import (
	"os"
	"testing"

	"cbfeed/config"
	"cbfeed/pkg/storage/postgres"
)

// go test -v --run TestCreateDatabase
func TestCreateDatabase(t *testing.T) {
	if os.Getenv("POSTGRES_TEST_DSN") == "" {
		t.Skip("POSTGRES_TEST_DSN not set")
	}

	cfg := config.PostgresConfig{
		Host:     envOr("POSTGRES_TEST_HOST", "localhost"),
		Port:     5432,
		User:     envOr("POSTGRES_TEST_USER", "postgres"),
		Password: os.Getenv("POSTGRES_TEST_PASSWORD"),
		DBName:   "cbfeed_create_test",
		SSLMode:  "disable",
	}

	// second call finds the database already present
	for i := 0; i < 2; i++ {
		if err := postgres.CreateDatabase(cfg); err != nil {
			t.Fatalf("failed to create database: %v", err)
		}
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
