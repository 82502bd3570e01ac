package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Server   ServerConfig
	Google   GoogleConfig
	Firebase FirebaseConfig
	Cache    CacheConfig
	App      AppConfig
}

type ServerConfig struct {
	Port            string
	AllowedOrigins  []string
	ShutdownTimeout time.Duration
}

// GoogleConfig holds the service account used for both the master directory
// and every private collection. All tabs live in MasterSpreadsheetID.
type GoogleConfig struct {
	ServiceAccountEmail string
	PrivateKey          string
	CredentialsFile     string
	MasterSpreadsheetID string
	ClientID            string // audience for Google ID tokens
	RequestsPerSecond   float64
	Burst               int
}

type FirebaseConfig struct {
	CredentialsPath string
}

type CacheConfig struct {
	TTL           time.Duration
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	SweepSpec     string
}

type AppConfig struct {
	Environment string
	LogLevel    string
	Version     string
}

var defaultOrigins = []string{
	"https://kitapunya.web.id",
	"https://www.kitapunya.web.id",
	"http://localhost:5173",
	"http://localhost:3000",
}

func Load() (*Config, error) {
	// Load .env file if it exists (ignore error in production)
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	env := getEnv("APP_ENV", getEnv("NODE_ENV", "production"))

	cfg := &Config{
		Server: ServerConfig{
			Port:            getEnv("PORT", "3000"),
			AllowedOrigins:  append(append([]string{}, defaultOrigins...), getEnvAsList("ALLOWED_ORIGINS")...),
			ShutdownTimeout: getEnvAsDuration("SHUTDOWN_TIMEOUT", 10*time.Second),
		},
		Google: GoogleConfig{
			ServiceAccountEmail: getEnv("GOOGLE_SERVICE_ACCOUNT_EMAIL", ""),
			PrivateKey:          strings.ReplaceAll(getEnv("GOOGLE_PRIVATE_KEY", ""), `\n`, "\n"),
			CredentialsFile:     getEnv("GOOGLE_APPLICATION_CREDENTIALS", ""),
			MasterSpreadsheetID: getEnv("GOOGLE_SPREADSHEET_ID", ""),
			ClientID:            getEnv("GOOGLE_CLIENT_ID", ""),
			RequestsPerSecond:   getEnvAsFloat("SHEETS_RPS", 5),
			Burst:               getEnvAsInt("SHEETS_BURST", 10),
		},
		Firebase: FirebaseConfig{
			CredentialsPath: getEnv("FIREBASE_CREDENTIALS_PATH", ""),
		},
		Cache: CacheConfig{
			TTL:           getEnvAsDuration("HANDLE_CACHE_TTL", 5*time.Minute),
			RedisAddr:     getEnv("REDIS_ADDR", ""),
			RedisPassword: getEnv("REDIS_PASSWORD", ""),
			RedisDB:       getEnvAsInt("REDIS_DB", 0),
			SweepSpec:     getEnv("CACHE_SWEEP_SPEC", "@every 1m"),
		},
		App: AppConfig{
			Environment: env,
			LogLevel:    getEnv("LOG_LEVEL", "info"),
			Version:     getEnv("APP_VERSION", "3.2.0"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) Validate() error {
	if c.Server.Port == "" {
		return fmt.Errorf("PORT is required")
	}

	if c.Cache.TTL <= 0 {
		return fmt.Errorf("HANDLE_CACHE_TTL must be positive")
	}

	if c.Google.RequestsPerSecond <= 0 {
		return fmt.Errorf("SHEETS_RPS must be positive")
	}

	return nil
}

// Configured reports whether enough credentials are present to talk to
// Google Sheets. Without them every core operation reports NotConfigured.
func (g GoogleConfig) Configured() bool {
	if g.MasterSpreadsheetID == "" {
		return false
	}
	if g.ServiceAccountEmail != "" && g.PrivateKey != "" {
		return true
	}
	return g.CredentialsFile != ""
}

func (a AppConfig) IsDevelopment() bool {
	return a.Environment == "development"
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.Atoi(valueStr)
	if err != nil {
		log.Printf("Warning: Invalid integer for %s, using default: %d", key, defaultValue)
		return defaultValue
	}

	return value
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		log.Printf("Warning: Invalid number for %s, using default: %g", key, defaultValue)
		return defaultValue
	}

	return value
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := time.ParseDuration(valueStr)
	if err != nil {
		log.Printf("Warning: Invalid duration for %s, using default: %s", key, defaultValue)
		return defaultValue
	}

	return value
}

func getEnvAsList(key string) []string {
	raw := os.Getenv(key)
	if raw == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
