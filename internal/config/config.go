package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Env      string         `yaml:"env"`
	Port     string         `yaml:"port"`
	LogLevel string         `yaml:"log_level"`
	Database DatabaseConfig `yaml:"database"`
	Auth     AuthConfig     `yaml:"auth"`
	Redis    RedisConfig    `yaml:"redis"`
	Storage  StorageConfig  `yaml:"storage"`
	Email    EmailConfig    `yaml:"email"`
	CORS     CORSConfig     `yaml:"cors"`
	Admin    AdminConfig    `yaml:"admin"`
}

type DatabaseConfig struct {
	Driver   string         `yaml:"driver"`
	SQLite   SQLiteConfig   `yaml:"sqlite"`
	Postgres PostgresConfig `yaml:"postgres"`
}

type SQLiteConfig struct {
	Path string `yaml:"path"`
}

type PostgresConfig struct {
	Host     string `yaml:"host"`
	Port     string `yaml:"port"`
	Database string `yaml:"database"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	SSLMode  string `yaml:"sslmode"`
}

func (p PostgresConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s user=%s password=%s dbname=%s port=%s sslmode=%s",
		p.Host, p.User, p.Password, p.Database, p.Port, p.SSLMode,
	)
}

type AuthConfig struct {
	JWTSecret    string        `yaml:"jwt_secret"`
	SessionTTL   time.Duration `yaml:"session_ttl"`
	CookieSecure bool          `yaml:"cookie_secure"`
	CookieDomain string        `yaml:"cookie_domain"`
	LoginLimit   int           `yaml:"login_limit"`
	LoginWindow  time.Duration `yaml:"login_window"`
}

type RedisConfig struct {
	URL string `yaml:"url"`
}

type StorageConfig struct {
	AWSRegion       string `yaml:"aws_region"`
	AccessKeyID     string `yaml:"access_key_id"`
	SecretAccessKey string `yaml:"secret_access_key"`
	Bucket          string `yaml:"bucket"`
	UploadDir       string `yaml:"upload_dir"`
	BaseURL         string `yaml:"base_url"`
}

// UsesS3 is true when every S3 setting is present.
func (s StorageConfig) UsesS3() bool {
	return s.AWSRegion != "" && s.AccessKeyID != "" && s.SecretAccessKey != "" && s.Bucket != ""
}

type EmailConfig struct {
	From       string `yaml:"from"`
	Password   string `yaml:"password"`
	SMTPHost   string `yaml:"smtp_host"`
	SMTPPort   string `yaml:"smtp_port"`
	AdminEmail string `yaml:"admin_email"`
}

type CORSConfig struct {
	AllowOrigins []string `yaml:"allow_origins"`
}

// AdminConfig seeds a staff account on startup when both fields are set.
type AdminConfig struct {
	Email    string `yaml:"email"`
	Password string `yaml:"password"`
}

func Defaults() *Config {
	return &Config{
		Env:      "development",
		Port:     "8080",
		LogLevel: "info",
		Database: DatabaseConfig{
			Driver: "postgres",
			SQLite: SQLiteConfig{Path: "swiftserve.db"},
			Postgres: PostgresConfig{
				Host:     "localhost",
				Port:     "5432",
				Database: "swiftserve",
				User:     "swiftserve",
				SSLMode:  "disable",
			},
		},
		Auth: AuthConfig{
			SessionTTL:  7 * 24 * time.Hour,
			LoginLimit:  5,
			LoginWindow: time.Minute,
		},
		Redis: RedisConfig{URL: "redis://localhost:6379"},
		Storage: StorageConfig{
			UploadDir: "./uploads",
			BaseURL:   "http://localhost:8080",
		},
		Email: EmailConfig{SMTPPort: "587"},
		CORS: CORSConfig{
			AllowOrigins: []string{"http://localhost:3000"},
		},
	}
}

// Load reads the optional YAML file at path, then applies environment
// overrides. A .env file in the working directory is loaded first when
// present.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	cfg := Defaults()
	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("parse %s: %w", path, err)
			}
		case os.IsNotExist(err):
		default:
			return nil, err
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() error {
	setString(&c.Env, "ENV")
	setString(&c.Port, "PORT")
	setString(&c.LogLevel, "LOG_LEVEL")

	setString(&c.Database.Driver, "DB_DRIVER")
	setString(&c.Database.SQLite.Path, "DB_PATH")
	setString(&c.Database.Postgres.Host, "DB_HOST")
	setString(&c.Database.Postgres.Port, "DB_PORT")
	setString(&c.Database.Postgres.Database, "DB_NAME")
	setString(&c.Database.Postgres.User, "DB_USER")
	setString(&c.Database.Postgres.Password, "DB_PASSWORD")
	setString(&c.Database.Postgres.SSLMode, "DB_SSLMODE")

	setString(&c.Auth.JWTSecret, "JWT_SECRET")
	setString(&c.Auth.CookieDomain, "COOKIE_DOMAIN")
	if err := setDuration(&c.Auth.SessionTTL, "SESSION_TTL"); err != nil {
		return err
	}
	if err := setBool(&c.Auth.CookieSecure, "COOKIE_SECURE"); err != nil {
		return err
	}

	setString(&c.Redis.URL, "REDIS_URL")

	setString(&c.Storage.AWSRegion, "AWS_REGION")
	setString(&c.Storage.AccessKeyID, "AWS_ACCESS_KEY_ID")
	setString(&c.Storage.SecretAccessKey, "AWS_SECRET_ACCESS_KEY")
	setString(&c.Storage.Bucket, "AWS_S3_BUCKET")
	setString(&c.Storage.UploadDir, "UPLOAD_DIR")
	setString(&c.Storage.BaseURL, "BASE_URL")

	setString(&c.Email.From, "EMAIL_FROM")
	setString(&c.Email.Password, "EMAIL_PASSWORD")
	setString(&c.Email.SMTPHost, "SMTP_HOST")
	setString(&c.Email.SMTPPort, "SMTP_PORT")
	setString(&c.Email.AdminEmail, "ADMIN_EMAIL")

	if v := os.Getenv("FRONTEND_ORIGINS"); v != "" {
		c.CORS.AllowOrigins = splitList(v)
	}

	setString(&c.Admin.Email, "ADMIN_BOOTSTRAP_EMAIL")
	setString(&c.Admin.Password, "ADMIN_BOOTSTRAP_PASSWORD")
	return nil
}

func (c *Config) IsDevelopment() bool {
	return c.Env == "" || c.Env == "development" || c.Env == "test"
}

// Validate catches settings that would make the server unsafe to run.
func (c *Config) Validate() error {
	switch c.Database.Driver {
	case "postgres", "sqlite":
	default:
		return fmt.Errorf("unsupported database driver %q", c.Database.Driver)
	}
	if c.Auth.JWTSecret == "" && !c.IsDevelopment() {
		return errors.New("JWT_SECRET must be set outside development")
	}
	if c.Auth.SessionTTL <= 0 {
		return errors.New("session ttl must be positive")
	}
	if len(c.CORS.AllowOrigins) == 0 {
		return errors.New("at least one CORS origin must be set (FRONTEND_ORIGINS)")
	}
	return nil
}

func setString(dst *string, key string) {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		*dst = v
	}
}

func setBool(dst *bool, key string) error {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	*dst = b
	return nil
}

func setDuration(dst *time.Duration, key string) error {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	*dst = d
	return nil
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
