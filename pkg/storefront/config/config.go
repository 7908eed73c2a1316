package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

// DefaultSecretKey is the development-only session key. Production
// configurations must override it.
const DefaultSecretKey = "change-me-in-production"

// ServerConfig represents the storefront server configuration. Every field is
// read from the environment.
type ServerConfig struct {
	Port        string        `env:"PORT" env-default:"8080"`
	Environment string        `env:"ENVIRONMENT" env-default:"development"` // development, production, testing
	BaseURL     string        `env:"BASE_URL"`
	SecretKey   string        `env:"SECRET_KEY" env-default:"change-me-in-production"`
	SessionTTL  time.Duration `env:"SESSION_TTL" env-default:"24h"`
	BcryptCost  int           `env:"BCRYPT_COST" env-default:"10"`

	Database DatabaseConfig
	Media    MediaConfig
	Mail     MailConfig
	Contact  ContactConfig
	Sessions SessionStoreConfig
}

type DatabaseConfig struct {
	Type         string `env:"DATABASE_TYPE" env-default:"memory"` // memory, mongo, postgres
	MongoURI     string `env:"MONGO_URI" env-default:"mongodb://localhost:27017"`
	MongoDBName  string `env:"MONGO_DB_NAME" env-default:"dessert_ecommerce"`
	PostgresURL  string `env:"DATABASE_URL"`
	EnsureSchema bool   `env:"DATABASE_ENSURE_SCHEMA" env-default:"true"`
}

type MediaConfig struct {
	Type      string `env:"MEDIA_TYPE" env-default:"memory"` // memory, fs, s3
	FSDir     string `env:"MEDIA_FS_DIR" env-default:"./data/media"`
	URLPrefix string `env:"MEDIA_URL_PREFIX" env-default:"/media"`
	S3        S3Config
}

// ServePath is the request path locally hosted images are served under: the
// path component of URLPrefix without a trailing slash. It is empty when
// URLPrefix carries no path.
func (m MediaConfig) ServePath() string {
	u, err := url.Parse(m.URLPrefix)
	if err != nil {
		return ""
	}
	return strings.TrimRight(u.Path, "/")
}

type S3Config struct {
	Endpoint        string `env:"S3_ENDPOINT"`
	Region          string `env:"S3_REGION" env-default:"us-east-1"`
	Bucket          string `env:"S3_BUCKET"`
	AccessKeyID     string `env:"S3_ACCESS_KEY_ID"`
	SecretAccessKey string `env:"S3_SECRET_ACCESS_KEY"`
	UsePathStyle    bool   `env:"S3_USE_PATH_STYLE" env-default:"false"`
	KeyPrefix       string `env:"S3_KEY_PREFIX" env-default:"storefront/"`
	PublicBaseURL   string `env:"S3_PUBLIC_BASE_URL"`
	CreateBucket    bool   `env:"S3_CREATE_BUCKET" env-default:"false"`
}

type MailConfig struct {
	Server        string `env:"MAIL_SERVER"`
	Port          int    `env:"MAIL_PORT" env-default:"587"`
	UseSSL        bool   `env:"MAIL_USE_SSL" env-default:"false"`
	Username      string `env:"EMAIL_USER"`
	Password      string `env:"EMAIL_PASS"`
	DefaultSender string `env:"MAIL_DEFAULT_SENDER"`
}

type SessionStoreConfig struct {
	Type          string `env:"SESSION_STORE" env-default:"memory"` // memory, redis
	RedisAddr     string `env:"REDIS_ADDR" env-default:"localhost:6379"`
	RedisPassword string `env:"REDIS_PASSWORD"`
	RedisDB       int    `env:"REDIS_DB" env-default:"0"`
}

type ContactConfig struct {
	Recipients []string `env:"CONTACT_RECIPIENTS" env-separator:"," env-default:"owner@localhost"`
	Subject    string   `env:"CONTACT_SUBJECT"`
}

// Load reads the configuration from the environment and validates it
func Load() (*ServerConfig, error) {
	var cfg ServerConfig
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, fmt.Errorf("failed to read configuration: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate validates the server configuration
func (c *ServerConfig) Validate() error {
	if c.Port == "" {
		return errors.New("port is required")
	}
	if c.SecretKey == "" {
		return errors.New("secret_key is required")
	}
	if c.Environment == "production" && c.SecretKey == DefaultSecretKey {
		return errors.New("secret_key must be set in production")
	}
	if c.SessionTTL <= 0 {
		return errors.New("session_ttl must be positive")
	}

	switch c.Database.Type {
	case "memory":
	case "mongo":
		if c.Database.MongoURI == "" || c.Database.MongoDBName == "" {
			return errors.New("mongo_uri and mongo_db_name are required when using mongo")
		}
	case "postgres":
		if c.Database.PostgresURL == "" {
			return errors.New("database_url is required when using postgres")
		}
	default:
		return errors.New("database_type must be 'memory', 'mongo' or 'postgres'")
	}

	switch c.Media.Type {
	case "memory", "fs":
		if c.Media.Type == "fs" && c.Media.FSDir == "" {
			return errors.New("media_fs_dir is required when using fs media")
		}
		if p := c.Media.ServePath(); !strings.HasPrefix(p, "/") || p == "/admin" || strings.HasPrefix(p, "/admin/") {
			return errors.New("media_url_prefix must have a path outside /admin when images are served locally")
		}
	case "s3":
		if c.Media.S3.Bucket == "" {
			return errors.New("s3_bucket is required when using s3 media")
		}
	default:
		return errors.New("media_type must be 'memory', 'fs' or 's3'")
	}

	switch c.Sessions.Type {
	case "memory":
	case "redis":
		if c.Sessions.RedisAddr == "" {
			return errors.New("redis_addr is required when using the redis session store")
		}
	default:
		return errors.New("session_store must be 'memory' or 'redis'")
	}

	if c.Mail.Server != "" && c.Mail.Port <= 0 {
		return errors.New("mail_port must be positive")
	}
	if len(c.Contact.Recipients) == 0 {
		return errors.New("contact_recipients is required")
	}
	return nil
}

// Sender is the From address of outgoing mail
func (c MailConfig) Sender() string {
	if c.DefaultSender != "" {
		return c.DefaultSender
	}
	return c.Username
}
