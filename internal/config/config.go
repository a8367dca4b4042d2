package config

import (
	"fmt"
	"net/url"
	"time"

	"storyweave-server/internal/logger"
	"storyweave-server/internal/utils"

	"github.com/kelseyhightower/envconfig"
)

// Config определяет конфигурацию сервера. Значения читаются из
// переменных окружения, секреты — из файлов /run/secrets.
type Config struct {
	ServerPort string `envconfig:"SERVER_PORT" default:"8080"`

	Logger logger.Config

	DBHost        string        `envconfig:"DB_HOST" default:"localhost"`
	DBPort        string        `envconfig:"DB_PORT" default:"5432"`
	DBUser        string        `envconfig:"DB_USER" default:"postgres"`
	DBName        string        `envconfig:"DB_NAME" default:"storyweave"`
	DBSSLMode     string        `envconfig:"DB_SSLMODE" default:"disable"`
	DBMaxConns    int32         `envconfig:"DB_MAX_CONNS" default:"10"`
	DBIdleTimeout time.Duration `envconfig:"DB_IDLE_TIMEOUT" default:"5m"`

	MigrationsPath string `envconfig:"MIGRATIONS_PATH" default:"file://migrations"`

	RedisAddr string `envconfig:"REDIS_ADDR" default:"localhost:6379"`
	RedisDB   int    `envconfig:"REDIS_DB" default:"0"`

	CORSAllowedOrigins []string `envconfig:"CORS_ALLOWED_ORIGINS" default:"http://localhost:3000"`

	FirebaseCredentialsFile string `envconfig:"FIREBASE_CREDENTIALS_FILE"`
	FirebaseStorageBucket   string `envconfig:"FIREBASE_STORAGE_BUCKET"`

	// Секреты. envconfig их не трогает, заполняются из /run/secrets.
	DBPassword    string `ignored:"true"`
	JWTSecret     string `ignored:"true"`
	RedisPassword string `ignored:"true"`
}

// GetDSN собирает строку подключения к PostgreSQL.
func (c *Config) GetDSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s",
		url.QueryEscape(c.DBUser),
		url.QueryEscape(c.DBPassword),
		c.DBHost,
		c.DBPort,
		c.DBName,
		c.DBSSLMode,
	)
}

// Load читает конфигурацию из окружения и секреты из файлов.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process env config: %w", err)
	}

	dbPassword, err := utils.ReadSecret("db_password")
	if err != nil {
		return nil, err
	}
	cfg.DBPassword = dbPassword

	jwtSecret, err := utils.ReadSecret("jwt_secret")
	if err != nil {
		return nil, err
	}
	cfg.JWTSecret = jwtSecret

	// Redis может работать без пароля в dev-окружении.
	if redisPassword, err := utils.ReadSecret("redis_password"); err == nil {
		cfg.RedisPassword = redisPassword
	}

	return &cfg, nil
}
