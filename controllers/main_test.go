package controllers_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/avkorolev/yatube/config"
	"github.com/avkorolev/yatube/utils"
)

// TestMain pins the environment before the config singleton loads: a throwaway
// media root, no redis (caching falls back to disabled), and a rate limit high
// enough to never throttle the suites.
func TestMain(m *testing.M) {
	tmp, err := os.MkdirTemp("", "yatube-test-media-")
	if err != nil {
		panic(err)
	}

	os.Setenv("JWT_SECRET", "test-secret-do-not-use")
	os.Setenv("GIN_MODE", "test")
	os.Setenv("MEDIA_ROOT", tmp)
	os.Setenv("GIN_LOG_PATH", filepath.Join(tmp, "gin.log"))
	os.Setenv("LOG_PATH", filepath.Join(tmp, "app.log"))
	os.Setenv("LOG_LEVEL", "error")
	os.Setenv("RATE_LIMIT_PER_MINUTE", "100000")

	cfg := config.Load()
	if err := utils.InitLogger(cfg); err != nil {
		panic(err)
	}

	code := m.Run()
	os.RemoveAll(tmp)
	os.Exit(code)
}
