package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Configはアプリ全体の設定
type Config struct {
	Port   string `envconfig:"PORT" default:"8080"`
	AppEnv string `envconfig:"APP_ENV" default:"dev"` // dev/prod

	DBDriver    string `envconfig:"DB_DRIVER" default:"postgres"` // postgres/mysql/sqlite/sqlserver
	DatabaseURL string `envconfig:"DATABASE_URL"`                 // あれば最優先

	PostgresUser     string `envconfig:"POSTGRES_USER" default:"postgres"`
	PostgresPassword string `envconfig:"POSTGRES_PASSWORD" default:"postgres"`
	PostgresDB       string `envconfig:"POSTGRES_DB" default:"storefront"`
	PostgresHost     string `envconfig:"POSTGRES_HOST" default:"localhost"`
	PostgresPort     int    `envconfig:"POSTGRES_PORT" default:"5432"`
	PostgresSSLMode  string `envconfig:"POSTGRES_SSLMODE" default:"disable"`

	JWTSecret      string        `envconfig:"JWT_SECRET" required:"true"`
	AccessTokenTTL time.Duration `envconfig:"ACCESS_TOKEN_TTL" default:"24h"`
	BcryptCost     int           `envconfig:"BCRYPT_COST" default:"12"`

	RedisAddr       string        `envconfig:"REDIS_ADDR"` // 空ならキャッシュ無効
	RedisPassword   string        `envconfig:"REDIS_PASSWORD"`
	ProductCacheTTL time.Duration `envconfig:"PRODUCT_CACHE_TTL" default:"5m"`

	StorageDisk      string `envconfig:"STORAGE_DISK" default:"local"` // local/s3
	StorageLocalRoot string `envconfig:"STORAGE_LOCAL_ROOT" default:"uploads"`
	StoragePublicURL string `envconfig:"STORAGE_PUBLIC_URL" default:"/uploads"`
	S3Bucket         string `envconfig:"S3_BUCKET"`
	S3Region         string `envconfig:"S3_REGION" default:"us-east-1"`
	S3Key            string `envconfig:"S3_KEY"`
	S3Secret         string `envconfig:"S3_SECRET"`
	S3Endpoint       string `envconfig:"S3_ENDPOINT"` // MinIO等
	S3URL            string `envconfig:"S3_URL"`

	KafkaBrokers []string `envconfig:"KAFKA_BROKERS"` // 空ならイベント発行しない

	CORSOrigins    []string `envconfig:"CORS_ORIGINS" default:"http://localhost:5173"`
	LogLevel       string   `envconfig:"LOG_LEVEL" default:"info"`
	MaxUploadBytes int64    `envconfig:"MAX_UPLOAD_BYTES" default:"5242880"` // 5MB
}

// Loadは.env（あれば）と環境変数から設定を読む
func Load() (Config, error) {
	// .envは任意
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return Config{}, err
	}

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) validate() error {
	// requiredは「変数がある」ことしか見ないので空文字はここで弾く
	if strings.TrimSpace(c.JWTSecret) == "" {
		return fmt.Errorf("JWT_SECRET is required")
	}
	switch c.DBDriver {
	case "postgres", "mysql", "sqlite", "sqlserver":
	default:
		return fmt.Errorf("DB_DRIVER must be one of postgres/mysql/sqlite/sqlserver: %q", c.DBDriver)
	}
	switch c.StorageDisk {
	case "local":
	case "s3":
		if c.S3Bucket == "" {
			return fmt.Errorf("S3_BUCKET is required when STORAGE_DISK=s3")
		}
	default:
		return fmt.Errorf("STORAGE_DISK must be local or s3: %q", c.StorageDisk)
	}
	if c.MaxUploadBytes <= 0 {
		return fmt.Errorf("MAX_UPLOAD_BYTES must be positive")
	}
	return nil
}

// IsDev はdev環境か
func (c Config) IsDev() bool {
	return strings.EqualFold(c.AppEnv, "dev")
}

// DSNはDB_DRIVERに応じた接続文字列を返す
func (c Config) DSN() string {
	if c.DatabaseURL != "" {
		return c.DatabaseURL
	}
	if c.DBDriver != "postgres" {
		return ""
	}
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.PostgresHost, c.PostgresPort, c.PostgresUser, c.PostgresPassword, c.PostgresDB, c.PostgresSSLMode,
	)
}

// Addrはecho.Startに渡すアドレス
func (c Config) Addr() string {
	if strings.HasPrefix(c.Port, ":") {
		return c.Port
	}
	return ":" + c.Port
}
