package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
)

type Config struct {
	// Backend selects the persistence gateway: "rest" or "sqlite".
	Backend string

	APIBaseURL string
	APIToken   string

	// DataDir holds the sqlite file and logs.
	DataDir string

	CourseID string

	LogLevel string
}

// Load reads .env (if present) and the environment, applying defaults.
// It does not log; the logger is configured from the result.
func Load() (*Config, error) {
	_ = godotenv.Load(".env")

	def := func(v, d string) string {
		v = strings.TrimSpace(v)
		if v == "" {
			return d
		}
		return v
	}

	home, _ := os.UserHomeDir()
	cfg := &Config{
		Backend:    def(os.Getenv("CURRICULA_BACKEND"), "sqlite"),
		APIBaseURL: def(os.Getenv("CURRICULA_API_URL"), "http://localhost:8080/api"),
		APIToken:   os.Getenv("CURRICULA_API_TOKEN"),
		DataDir:    def(os.Getenv("CURRICULA_DATA_DIR"), filepath.Join(home, ".curricula")),
		CourseID:   os.Getenv("CURRICULA_COURSE_ID"),
		LogLevel:   def(os.Getenv("CURRICULA_LOG_LEVEL"), "info"),
	}

	switch cfg.Backend {
	case "rest", "sqlite":
	default:
		return nil, fmt.Errorf("config: unknown backend %q (want rest or sqlite)", cfg.Backend)
	}
	return cfg, nil
}

func (c *Config) SQLitePath() string {
	return filepath.Join(c.DataDir, "curricula.sqlite")
}

func (c *Config) LogDir() string {
	return filepath.Join(c.DataDir, "logs")
}
