package cli

import (
	"os"
	"time"
)

// Config holds CLI configuration
type Config struct {
	AdminURL string
	Token    string
	Addr     string
	DataDir  string
	Version  string
	Timeout  time.Duration
	Output   string
}

// DefaultConfig returns a Config with default values
func DefaultConfig() *Config {
	return &Config{
		AdminURL: getEnvOrDefault("TKCTL_ADMIN", "http://localhost:8090"),
		Token:    os.Getenv("TKCTL_TOKEN"),
		Addr:     getEnvOrDefault("TKCTL_ADDR", "localhost:5000"),
		DataDir:  getEnvOrDefault("TKCTL_DATA_DIR", "."),
		Version:  getEnvOrDefault("TKCTL_VERSION", "1.1.5"),
		Timeout:  5 * time.Second,
		Output:   "text",
	}
}

func getEnvOrDefault(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}
