package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Load reads the .env file specified by NAMETAG_ENV (or .env by default),
// then loads the corresponding .secret file if it exists.
// All config is flat env vars read via os.Getenv after loading.
func Load() error {
	envFile := os.Getenv("NAMETAG_ENV")
	if envFile == "" {
		envFile = ".env"
	}

	// Load main env file (ignore error if file doesn't exist)
	_ = godotenv.Load(envFile)

	// Load secret sidecar if it exists
	_ = godotenv.Load(envFile + ".secret")

	return nil
}

func ServerPort() int {
	port, err := strconv.Atoi(os.Getenv("SERVER_PORT"))
	if err != nil {
		return 8080
	}
	return port
}

func ServerAddr() string {
	return fmt.Sprintf(":%d", ServerPort())
}

func DatabaseURL() string {
	return os.Getenv("DATABASE_URL")
}

// APIKey returns the static bearer key protecting the /v1 routes.
// An empty value disables auth (local development).
func APIKey() string {
	return os.Getenv("API_KEY")
}

// NameServiceProvider returns the configured name-service adapter.
// Valid values: ens, mock. Defaults to "ens".
func NameServiceProvider() string {
	p := os.Getenv("NAME_SERVICE_PROVIDER")
	if p == "" {
		return "ens"
	}
	return p
}

func NameServiceURL() string {
	return os.Getenv("NAME_SERVICE_URL")
}

// SocialGraphProvider returns the configured social-graph adapter.
// Valid values: neynar, mock. Defaults to "neynar".
func SocialGraphProvider() string {
	p := os.Getenv("SOCIAL_GRAPH_PROVIDER")
	if p == "" {
		return "neynar"
	}
	return p
}

func NeynarAPIKey() string {
	return os.Getenv("NEYNAR_API_KEY")
}

// NeynarRPS returns the outbound requests-per-second budget for the
// social-graph API. Defaults to 5.
func NeynarRPS() float64 {
	rps, err := strconv.ParseFloat(os.Getenv("NEYNAR_RPS"), 64)
	if err != nil || rps <= 0 {
		return 5
	}
	return rps
}

// DirectoryProvider returns the configured inbox-directory adapter.
// Valid values: xmtp, mock. Defaults to "xmtp".
func DirectoryProvider() string {
	p := os.Getenv("DIRECTORY_PROVIDER")
	if p == "" {
		return "xmtp"
	}
	return p
}

func DirectoryURL() string {
	return os.Getenv("DIRECTORY_URL")
}

// RefreshIntervalMinutes returns the background re-resolution sweep
// interval in minutes. 0 disables the sweeper.
func RefreshIntervalMinutes() int {
	m, err := strconv.Atoi(os.Getenv("REFRESH_INTERVAL_MINUTES"))
	if err != nil || m < 0 {
		return 0
	}
	return m
}

// RateLimitRPS returns requests per second limit.
// Defaults to 100 if not set.
func RateLimitRPS() float64 {
	rps, err := strconv.ParseFloat(os.Getenv("RATE_LIMIT_RPS"), 64)
	if err != nil || rps <= 0 {
		return 100
	}
	return rps
}

// RateLimitBurst returns the burst size for rate limiting.
// Defaults to 20 if not set.
func RateLimitBurst() int {
	burst, err := strconv.Atoi(os.Getenv("RATE_LIMIT_BURST"))
	if err != nil || burst <= 0 {
		return 20
	}
	return burst
}

// LogLevel returns the log level (debug, info, warn, error).
// Defaults to "info" if not set.
func LogLevel() string {
	level := os.Getenv("LOG_LEVEL")
	if level == "" {
		return "info"
	}
	return level
}
