package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	JWT       JWTConfig
	TrueLayer TrueLayerConfig
	Sync      SyncConfig
	Logger    LoggerConfig
}

type LoggerConfig struct {
	Level string
}

type ServerConfig struct {
	Port         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	// AppURL is where the OAuth callback redirects the browser back to,
	// carrying code and state as query parameters.
	AppURL string
}

type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

type JWTConfig struct {
	SecretKey  string
	Expiration time.Duration
	RefreshExp time.Duration
}

// TrueLayerConfig is the resolved credential set for whichever TrueLayer
// environment is active. Live and sandbox expose the same API surface, so
// the rest of the code never needs to know which one it is talking to.
type TrueLayerConfig struct {
	Environment  string
	ClientID     string
	ClientSecret string
	AuthBaseURL  string
	APIBaseURL   string
	RedirectURI  string
	Scopes       []string
}

type SyncConfig struct {
	Interval            time.Duration
	InitialWindowDays   int
	ScheduledWindowDays int
}

func Load() (*Config, error) {
	// Try to load .env file from current directory or project root
	envFiles := []string{".env", "../.env", "../../.env"}
	for _, envFile := range envFiles {
		if err := godotenv.Load(envFile); err == nil {
			break
		}
	}
	// No .env file is fine: environment variables alone work for Docker/K8s.

	readTimeout, _ := strconv.Atoi(getEnv("SERVER_READ_TIMEOUT", "30"))
	writeTimeout, _ := strconv.Atoi(getEnv("SERVER_WRITE_TIMEOUT", "30"))
	jwtExp, _ := strconv.Atoi(getEnv("JWT_EXPIRATION_HOURS", "24"))
	refreshExp, _ := strconv.Atoi(getEnv("JWT_REFRESH_EXPIRATION_HOURS", "168"))
	syncIntervalHours, _ := strconv.Atoi(getEnv("SYNC_INTERVAL_HOURS", "24"))
	initialWindow, _ := strconv.Atoi(getEnv("SYNC_INITIAL_WINDOW_DAYS", "180"))
	scheduledWindow, _ := strconv.Atoi(getEnv("SYNC_SCHEDULED_WINDOW_DAYS", "7"))

	truelayer, err := loadTrueLayer()
	if err != nil {
		return nil, err
	}

	return &Config{
		Server: ServerConfig{
			Port:         getEnv("SERVER_PORT", "8080"),
			ReadTimeout:  time.Duration(readTimeout) * time.Second,
			WriteTimeout: time.Duration(writeTimeout) * time.Second,
			AppURL:       getEnv("APP_URL", "http://localhost:3000"),
		},
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", "postgres"),
			DBName:   getEnv("DB_NAME", "finsight"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
		JWT: JWTConfig{
			SecretKey:  getEnv("JWT_SECRET_KEY", "your-secret-key-change-in-production"),
			Expiration: time.Duration(jwtExp) * time.Hour,
			RefreshExp: time.Duration(refreshExp) * time.Hour,
		},
		TrueLayer: truelayer,
		Sync: SyncConfig{
			Interval:            time.Duration(syncIntervalHours) * time.Hour,
			InitialWindowDays:   initialWindow,
			ScheduledWindowDays: scheduledWindow,
		},
		Logger: LoggerConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
	}, nil
}

// loadTrueLayer picks the live or sandbox credential pair. Missing
// credentials are a startup failure, not something to discover on the
// first connect request.
func loadTrueLayer() (TrueLayerConfig, error) {
	env := getEnv("TRUELAYER_ENV", "sandbox")

	cfg := TrueLayerConfig{
		Environment: env,
		RedirectURI: getEnv("TRUELAYER_REDIRECT_URI", "http://localhost:8080/api/v1/banking/callback"),
		Scopes:      []string{"info", "accounts", "balance", "transactions", "offline_access"},
	}

	switch env {
	case "live":
		cfg.ClientID = os.Getenv("TRUELAYER_CLIENT_ID")
		cfg.ClientSecret = os.Getenv("TRUELAYER_CLIENT_SECRET")
		cfg.AuthBaseURL = getEnv("TRUELAYER_AUTH_URL", "https://auth.truelayer.com")
		cfg.APIBaseURL = getEnv("TRUELAYER_API_URL", "https://api.truelayer.com")
	case "sandbox":
		cfg.ClientID = os.Getenv("TRUELAYER_SANDBOX_CLIENT_ID")
		cfg.ClientSecret = os.Getenv("TRUELAYER_SANDBOX_CLIENT_SECRET")
		cfg.AuthBaseURL = getEnv("TRUELAYER_AUTH_URL", "https://auth.truelayer-sandbox.com")
		cfg.APIBaseURL = getEnv("TRUELAYER_API_URL", "https://api.truelayer-sandbox.com")
	default:
		return cfg, fmt.Errorf("unknown TRUELAYER_ENV %q (want live or sandbox)", env)
	}

	if cfg.ClientID == "" || cfg.ClientSecret == "" {
		return cfg, fmt.Errorf("truelayer credentials missing for environment %q", env)
	}

	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
