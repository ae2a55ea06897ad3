package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	DefaultConfigPath = "config/config.yaml"

	defaultEsewaInitiateURL    = "https://rc-epay.esewa.com.np/api/epay/main/v2/form"
	defaultEsewaStatusCheckURL = "https://rc.esewa.com.np/api/epay/transaction/status/"
)

type Config struct {
	Server struct {
		Host       string `yaml:"host"`
		Port       int    `yaml:"port"`
		Env        string `yaml:"env"`
		LogLevel   string `yaml:"log_level"`
		BackendURL string `yaml:"backend_url"` // база для success_url / failure_url
	} `yaml:"server"`

	Database struct {
		DSN          string `yaml:"url"`
		MaxOpenConns int    `yaml:"max_open_conns"`
		MaxIdleConns int    `yaml:"max_idle_conns"`
	} `yaml:"database"`

	JWT struct {
		Secret     string `yaml:"secret"`
		CookieName string `yaml:"cookie_name"`
		TTLMinutes int    `yaml:"ttl_minutes"`
	} `yaml:"jwt"`

	Esewa struct {
		SecretKey      string        `yaml:"secret_key"`
		ProductCode    string        `yaml:"product_code"`
		InitiateURL    string        `yaml:"initiate_url"`
		StatusCheckURL string        `yaml:"status_check_url"`
		StatusTimeout  time.Duration `yaml:"status_timeout"`
		// StrictSignature: отклонять callback с присутствующей, но неверной подписью
		StrictSignature bool `yaml:"strict_signature"`
		// AlwaysVerifyStatus: делать status-check даже для подписанного COMPLETE
		AlwaysVerifyStatus bool `yaml:"always_verify_status"`
	} `yaml:"esewa"`

	Frontend struct {
		URL string `yaml:"url"`
	} `yaml:"frontend"`

	RateLimit struct {
		RPS   float64 `yaml:"rps"`
		Burst int     `yaml:"burst"`
	} `yaml:"rate_limit"`

	Workers WorkersConfig `yaml:"workers"`
}

type WorkersConfig struct {
	Enabled           bool          `yaml:"enabled"`
	ExpiryInterval    time.Duration `yaml:"expiry_interval"`
	ReconcileInterval time.Duration `yaml:"reconcile_interval"`
	PendingAge        time.Duration `yaml:"pending_age"`
	ReconcileBatch    int           `yaml:"reconcile_batch"`
}

// Default возвращает конфигурацию со значениями по умолчанию
func Default() *Config {
	var cfg Config
	cfg.Server.Host = "0.0.0.0"
	cfg.Server.Port = 8000
	cfg.Server.Env = "development"
	cfg.Server.BackendURL = "http://localhost:8000"

	cfg.Database.MaxOpenConns = 20
	cfg.Database.MaxIdleConns = 5

	cfg.JWT.CookieName = "access_token"
	cfg.JWT.TTLMinutes = 15

	cfg.Esewa.ProductCode = "EPAYTEST"
	cfg.Esewa.InitiateURL = defaultEsewaInitiateURL
	cfg.Esewa.StatusCheckURL = defaultEsewaStatusCheckURL
	cfg.Esewa.StatusTimeout = 10 * time.Second

	cfg.Frontend.URL = "http://localhost:3000"

	cfg.RateLimit.RPS = 1
	cfg.RateLimit.Burst = 5

	cfg.Workers.Enabled = true
	cfg.Workers.ExpiryInterval = time.Hour
	cfg.Workers.ReconcileInterval = 5 * time.Minute
	cfg.Workers.PendingAge = 15 * time.Minute
	cfg.Workers.ReconcileBatch = 50
	return &cfg
}

// Load собирает конфигурацию: значения по умолчанию -> YAML -> .env -> переменные окружения.
// Пустой path означает CONFIG_PATH или config/config.yaml; отсутствие файла по умолчанию не ошибка.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil {
		slog.Debug(".env не найден, используются только системные переменные окружения")
	}

	explicit := path != ""
	if !explicit {
		path = os.Getenv("CONFIG_PATH")
		explicit = path != ""
	}
	if path == "" {
		path = DefaultConfigPath
	}

	cfg := Default()
	if err := cfg.loadFile(path); err != nil {
		if !(errors.Is(err, os.ErrNotExist) && !explicit) {
			return nil, err
		}
		slog.Info("файл конфигурации не найден, используются значения по умолчанию", "path", path)
	}

	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := yaml.NewDecoder(f).Decode(c); err != nil {
		return fmt.Errorf("config: decode %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnv() {
	c.Server.Env = getEnv("SERVER_ENV", c.Server.Env)
	c.Server.Port = getIntEnv("SERVER_PORT", c.Server.Port)
	c.Server.LogLevel = getEnv("LOG_LEVEL", c.Server.LogLevel)
	c.Server.BackendURL = getEnv("BACKEND_URL", c.Server.BackendURL)

	c.Database.DSN = getEnv("DATABASE_URL", c.Database.DSN)
	c.JWT.Secret = getEnv("JWT_SECRET", c.JWT.Secret)

	c.Esewa.SecretKey = getEnv("ESEWA_SECRET_KEY", c.Esewa.SecretKey)
	c.Esewa.ProductCode = getEnv("ESEWA_PRODUCT_CODE", getEnv("ESEWA_MERCHANT_CODE", c.Esewa.ProductCode))
	c.Esewa.InitiateURL = getEnv("ESEWA_INITIATE_URL", getEnv("ESEWA_PAYMENT_URL", c.Esewa.InitiateURL))
	c.Esewa.StatusCheckURL = getEnv("ESEWA_STATUS_CHECK_URL", c.Esewa.StatusCheckURL)
	c.Esewa.StrictSignature = getBoolEnv("ESEWA_STRICT_SIGNATURE", c.Esewa.StrictSignature)
	c.Esewa.AlwaysVerifyStatus = getBoolEnv("ESEWA_ALWAYS_VERIFY_STATUS", c.Esewa.AlwaysVerifyStatus)

	c.Frontend.URL = getEnv("FRONTEND_URL", c.Frontend.URL)
}

// Validate проверяет обязательные параметры
func (c *Config) Validate() error {
	var missing []string
	if c.Database.DSN == "" {
		missing = append(missing, "database.url (DATABASE_URL)")
	}
	if c.JWT.Secret == "" {
		missing = append(missing, "jwt.secret (JWT_SECRET)")
	}
	if c.Esewa.SecretKey == "" {
		missing = append(missing, "esewa.secret_key (ESEWA_SECRET_KEY)")
	}
	if c.Esewa.ProductCode == "" {
		missing = append(missing, "esewa.product_code (ESEWA_PRODUCT_CODE)")
	}
	if len(missing) > 0 {
		return fmt.Errorf("config: missing required settings: %s", strings.Join(missing, ", "))
	}
	if c.Esewa.StatusTimeout <= 0 {
		return errors.New("config: esewa.status_timeout must be positive")
	}
	return nil
}

// Addr возвращает адрес для http-сервера
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

func (c *Config) IsDevelopment() bool {
	return c.Server.Env == "development"
}

func getEnv(key, defaultValue string) string {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		return value
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if valueStr, ok := os.LookupEnv(key); ok {
		if value, err := strconv.Atoi(valueStr); err == nil {
			return value
		}
		slog.Warn("не удалось преобразовать переменную окружения в число", "key", key, "value", valueStr)
	}
	return defaultValue
}

func getBoolEnv(key string, defaultValue bool) bool {
	if valueStr, ok := os.LookupEnv(key); ok {
		if value, err := strconv.ParseBool(valueStr); err == nil {
			return value
		}
		slog.Warn("не удалось преобразовать переменную окружения в bool", "key", key, "value", valueStr)
	}
	return defaultValue
}
