package postgres

import (
	"context"
	"fmt"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ragline/ragline/store"
)

// getTestConfig returns a test configuration
// You can set environment variables to override defaults:
// - POSTGRES_HOST
// - POSTGRES_PORT
// - POSTGRES_USER
// - POSTGRES_PASSWORD
// - POSTGRES_DB
func getTestConfig() *Config {
	config := DefaultConfig()

	if host := os.Getenv("POSTGRES_HOST"); host != "" {
		config.Host = host
	}
	if port := os.Getenv("POSTGRES_PORT"); port != "" {
		fmt.Sscanf(port, "%d", &config.Port)
	}
	if user := os.Getenv("POSTGRES_USER"); user != "" {
		config.User = user
	}
	if password := os.Getenv("POSTGRES_PASSWORD"); password != "" {
		config.Password = password
	}
	if db := os.Getenv("POSTGRES_DB"); db != "" {
		config.Database = db
	}

	return config
}

// skipIfNoPostgres skips the test if PostgreSQL is not available
func skipIfNoPostgres(t *testing.T) store.Store {
	config := getTestConfig()
	s, err := NewPostgresStore(config)
	if err != nil {
		t.Skipf("PostgreSQL not available: %v", err)
		return nil
	}
	return s
}

func TestPostgresStore_SetAndGet(t *testing.T) {
	s := skipIfNoPostgres(t)
	if s == nil {
		return
	}
	if closer, ok := s.(interface{ Close() error }); ok {
		defer closer.Close()
	}

	ctx := context.Background()

	err := s.Set(ctx, "/test/", "key1", []byte("value1"))
	assert.Nil(t, err)

	value, err := s.Get(ctx, "/test/", "key1")
	assert.Nil(t, err)
	assert.Equal(t, []byte("value1"), value)

	value, err = s.Get(ctx, "/test/", "non-existent")
	assert.Nil(t, err)
	assert.Nil(t, value)

	err = s.Remove(ctx, "/test/", "key1")
	assert.Nil(t, err)
}

func TestPostgresStore_Update(t *testing.T) {
	s := skipIfNoPostgres(t)
	if s == nil {
		return
	}
	if closer, ok := s.(interface{ Close() error }); ok {
		defer closer.Close()
	}

	ctx := context.Background()

	err := s.Set(ctx, "/test/", "key1", []byte("value1"))
	assert.Nil(t, err)

	err = s.Set(ctx, "/test/", "key1", []byte("value2"))
	assert.Nil(t, err)

	value, err := s.Get(ctx, "/test/", "key1")
	assert.Nil(t, err)
	assert.Equal(t, []byte("value2"), value)

	err = s.Remove(ctx, "/test/", "key1")
	assert.Nil(t, err)
}

func TestPostgresStore_List(t *testing.T) {
	s := skipIfNoPostgres(t)
	if s == nil {
		return
	}
	if closer, ok := s.(interface{ Close() error }); ok {
		defer closer.Close()
	}

	ctx := context.Background()

	err := s.Set(ctx, "/test/", "key1", []byte("value1"))
	assert.Nil(t, err)
	err = s.Set(ctx, "/test/", "key2", []byte("value2"))
	assert.Nil(t, err)
	err = s.Set(ctx, "/other/", "key1", []byte("other1"))
	assert.Nil(t, err)

	keys := make([]string, 0)
	err = s.List(ctx, "/test/", func(key string) bool {
		keys = append(keys, key)
		return true
	})
	assert.Nil(t, err)
	assert.Equal(t, 2, len(keys))
	assert.Contains(t, keys, "key1")
	assert.Contains(t, keys, "key2")

	count := 0
	err = s.List(ctx, "/test/", func(key string) bool {
		count++
		return count < 1
	})
	assert.Nil(t, err)
	assert.Equal(t, 1, count)

	s.Remove(ctx, "/test/", "key1")
	s.Remove(ctx, "/test/", "key2")
	s.Remove(ctx, "/other/", "key1")
}

func TestConfig_Validate(t *testing.T) {
	config := DefaultConfig()
	assert.Nil(t, config.Validate())

	config = DefaultConfig()
	config.Host = ""
	assert.NotNil(t, config.Validate())

	config = DefaultConfig()
	config.Port = 0
	assert.NotNil(t, config.Validate())

	config = DefaultConfig()
	config.User = ""
	assert.NotNil(t, config.Validate())

	config = DefaultConfig()
	config.Database = ""
	assert.NotNil(t, config.Validate())

	config = DefaultConfig()
	config.SSLMode = "invalid"
	assert.NotNil(t, config.Validate())

	// empty SSLMode defaults to disable
	config = DefaultConfig()
	config.SSLMode = ""
	assert.Nil(t, config.Validate())
	assert.Equal(t, "disable", config.SSLMode)
}

func TestConfig_DSN(t *testing.T) {
	config := &Config{
		Host:     "localhost",
		Port:     5432,
		User:     "testuser",
		Password: "testpass",
		Database: "testdb",
		SSLMode:  "disable",
	}

	dsn := config.DSN()
	expected := "host=localhost port=5432 user=testuser password=testpass dbname=testdb sslmode=disable"
	assert.Equal(t, expected, dsn)
}

func TestParseDSN(t *testing.T) {
	dsn := "host=dbhost port=5433 user=testuser password=testpass dbname=testdb sslmode=require"
	config, err := ParseDSN(dsn)
	assert.Nil(t, err)
	assert.Equal(t, "dbhost", config.Host)
	assert.Equal(t, 5433, config.Port)
	assert.Equal(t, "testuser", config.User)
	assert.Equal(t, "testpass", config.Password)
	assert.Equal(t, "testdb", config.Database)
	assert.Equal(t, "require", config.SSLMode)
}
