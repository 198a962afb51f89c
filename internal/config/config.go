package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Development-only signing material. Load refuses to hand these out when
// APP_ENV=production.
const (
	devAccessSecret  = "contenthub-dev-access-secret"
	devRefreshSecret = "contenthub-dev-refresh-secret"
)

type Config struct {
	Env        string
	ServerPort int
	LogLevel   string

	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string

	ESURL      string
	ESUser     string
	ESPassword string

	KafkaAddress string

	AccessSecret  []byte
	RefreshSecret []byte
	AccessTTL     time.Duration
	RefreshTTL    time.Duration

	LoginRateWindow time.Duration
	LoginRateLimit  int

	BcryptCost int
}

func (c *Config) Production() bool {
	return c.Env == "production"
}

func (c *Config) DatabaseDSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=disable",
		c.DBUser, c.DBPassword, c.DBHost, c.DBPort, c.DBName,
	)
}

func Load() (*Config, error) {
	if err := godotenv.Load(".env"); err != nil {
		log.Printf("Notice: .env file not found: %v. Using system environment variables", err)
	}

	config := &Config{
		Env:        envDefault("APP_ENV", "development"),
		ServerPort: envIntDefault("SERVER_PORT", 8080),
		LogLevel:   envDefault("LOG_LEVEL", "info"),

		DBHost:     os.Getenv("DB_HOST"),
		DBPort:     envDefault("DB_PORT", "5432"),
		DBUser:     os.Getenv("DB_USER"),
		DBPassword: os.Getenv("DB_PASSWORD"),
		DBName:     os.Getenv("DB_NAME"),

		ESURL:      os.Getenv("ES_URL"),
		ESUser:     os.Getenv("ES_USER"),
		ESPassword: os.Getenv("ES_PASSWORD"),

		KafkaAddress: os.Getenv("KAFKA_ADDRESS"),

		AccessSecret:  []byte(os.Getenv("JWT_SECRET")),
		RefreshSecret: []byte(os.Getenv("REFRESH_SECRET")),
		AccessTTL:     envDurationDefault("ACCESS_TTL", time.Hour),
		RefreshTTL:    envDurationDefault("REFRESH_TTL", 7*24*time.Hour),

		LoginRateWindow: envDurationDefault("LOGIN_RATE_WINDOW", 15*time.Minute),
		LoginRateLimit:  envIntDefault("LOGIN_RATE_LIMIT", 5),

		BcryptCost: envIntDefault("BCRYPT_COST", 0),
	}

	if err := config.resolveSecrets(); err != nil {
		return nil, err
	}

	return config, nil
}

// resolveSecrets enforces the signing-key policy: production requires both
// secrets from the environment and they must differ; outside production a
// missing secret falls back to a labeled dev constant with a loud warning.
func (c *Config) resolveSecrets() error {
	if c.Production() {
		if len(c.AccessSecret) == 0 {
			return errors.New("JWT_SECRET must be set when APP_ENV=production")
		}
		if len(c.RefreshSecret) == 0 {
			return errors.New("REFRESH_SECRET must be set when APP_ENV=production")
		}
	} else {
		if len(c.AccessSecret) == 0 {
			log.Printf("WARNING: JWT_SECRET is not set, using the development fallback")
			c.AccessSecret = []byte(devAccessSecret)
		}
		if len(c.RefreshSecret) == 0 {
			log.Printf("WARNING: REFRESH_SECRET is not set, using the development fallback")
			c.RefreshSecret = []byte(devRefreshSecret)
		}
	}

	if string(c.AccessSecret) == string(c.RefreshSecret) {
		return errors.New("JWT_SECRET and REFRESH_SECRET must differ")
	}

	return nil
}

func envDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envIntDefault(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

func envDurationDefault(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return def
	}
	return d
}
