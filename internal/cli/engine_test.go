package cli

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/redis/go-redis/v9"

	"github.com/matzehuels/traitstack/pkg/config"
)

func TestNewEngineClosesRedisWhenCacheFails(t *testing.T) {
	var client *redis.Client
	orig := newRedisClient
	newRedisClient = func(opt *redis.Options) *redis.Client {
		client = orig(opt)
		return client
	}
	t.Cleanup(func() { newRedisClient = orig })

	// A regular file where the cache directory should go makes MkdirAll fail.
	blocker := filepath.Join(t.TempDir(), "blocker")
	if err := os.WriteFile(blocker, nil, 0o644); err != nil {
		t.Fatal(err)
	}
	cfg := config.Default()
	cfg.StaticDir = t.TempDir()
	cfg.CacheDir = filepath.Join(blocker, "cache")
	cfg.Redis.Addr = "127.0.0.1:1"

	c := New(io.Discard, log.InfoLevel)
	if _, err := c.newEngine(context.Background(), cfg); err == nil {
		t.Fatal("newEngine should fail when the cache directory cannot be created")
	}
	if client == nil {
		t.Fatal("redis client was never opened")
	}
	err := client.Ping(context.Background()).Err()
	if err == nil || !strings.Contains(err.Error(), "closed") {
		t.Errorf("ping after failure = %v, want a closed-client error", err)
	}
}
