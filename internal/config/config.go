package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v2"
)

type Config struct {
	Server struct {
		Host        string   `yaml:"host"`
		Port        int      `yaml:"port"`
		Env         string   `yaml:"env"`
		CORSOrigins []string `yaml:"cors_origins"`
	} `yaml:"server"`

	Database struct {
		Driver string `yaml:"driver"` // postgres, mysql, sqlite
		DSN    string `yaml:"url"`
	} `yaml:"database"`

	Matching struct {
		DefaultRadiusKm float64 `yaml:"default_radius_km"`
		TieThresholdKm  float64 `yaml:"tie_threshold_km"`
		Ranking         string  `yaml:"ranking"` // pairwise, banded
	} `yaml:"matching"`

	Catalog struct {
		Source          string        `yaml:"source"` // static, database, http
		SeedOnStart     bool          `yaml:"seed_on_start"`
		HTTPURL         string        `yaml:"http_url"`
		HTTPTimeout     time.Duration `yaml:"http_timeout"`
		CacheTTL        time.Duration `yaml:"cache_ttl"`
		RefreshInterval time.Duration `yaml:"refresh_interval"`
	} `yaml:"catalog"`

	Redis struct {
		Addr     string `yaml:"addr"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
		Prefix   string `yaml:"prefix"`
	} `yaml:"redis"`

	Delivery struct {
		Channels           []string      `yaml:"channels"` // log, email, sms, amqp, kafka
		Workers            int           `yaml:"workers"`
		QueueSize          int           `yaml:"queue_size"`
		InitialInterval    time.Duration `yaml:"initial_interval"`
		MaxElapsed         time.Duration `yaml:"max_elapsed"`
		BreakerMaxFailures uint32        `yaml:"breaker_max_failures"`
		BreakerTimeout     time.Duration `yaml:"breaker_timeout"`

		Email struct {
			SMTPHost     string `yaml:"smtp_host"`
			SMTPPort     int    `yaml:"smtp_port"`
			SMTPUsername string `yaml:"smtp_user"`
			SMTPPassword string `yaml:"smtp_password"`
			FromEmail    string `yaml:"from_email"`
			FromName     string `yaml:"from_name"`
			TemplatesDir string `yaml:"templates_dir"`
		} `yaml:"email"`

		SMS struct {
			AccountSID string `yaml:"account_sid"`
			AuthToken  string `yaml:"auth_token"`
			From       string `yaml:"from"`
		} `yaml:"sms"`

		AMQP struct {
			URL   string `yaml:"url"`
			Queue string `yaml:"queue"`
		} `yaml:"amqp"`

		Kafka struct {
			Brokers []string `yaml:"brokers"`
			Topic   string   `yaml:"topic"`
		} `yaml:"kafka"`
	} `yaml:"delivery"`

	RateLimit struct {
		Requests int           `yaml:"requests"`
		Window   time.Duration `yaml:"window"`
	} `yaml:"rate_limit"`
}

var AppConfig *Config

// LoadConfig reads .env, then either the YAML file at CONFIG_PATH or, when
// DATABASE_URL is set, the environment alone. It exits on a broken file.
func LoadConfig() {
	if err := godotenv.Load(); err == nil {
		log.Println("Loaded environment from .env")
	}

	var cfg *Config
	if os.Getenv("DATABASE_URL") == "" {
		configPath := os.Getenv("CONFIG_PATH")
		if configPath == "" {
			configPath = "config/config.yaml"
		}
		log.Println("Loading configuration from", configPath)

		var err error
		cfg, err = Load(configPath)
		if err != nil {
			log.Fatalf("Failed to load config: %v", err)
		}
	} else {
		log.Println("Loading configuration from environment")
		cfg = &Config{}
	}

	applyEnv(cfg)
	applyDefaults(cfg)
	AppConfig = cfg
}

// Load parses one YAML file without touching the environment.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("open config file at %s: %w", path, err)
	}
	var cfg Config
	if err := yaml.UnmarshalStrict(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config file at %s: %w", path, err)
	}
	return &cfg, nil
}

// Default is a config with every default applied and nothing read from disk
// or the environment.
func Default() *Config {
	cfg := &Config{}
	applyDefaults(cfg)
	return cfg
}

func applyEnv(cfg *Config) {
	setString(&cfg.Server.Env, "SERVER_ENV")
	setInt(&cfg.Server.Port, "SERVER_PORT")
	setString(&cfg.Database.DSN, "DATABASE_URL")
	setString(&cfg.Database.Driver, "DATABASE_DRIVER")
	setString(&cfg.Catalog.Source, "CATALOG_SOURCE")
	setString(&cfg.Catalog.HTTPURL, "CATALOG_HTTP_URL")
	setString(&cfg.Redis.Addr, "REDIS_ADDR")
	setString(&cfg.Redis.Password, "REDIS_PASSWORD")
	setString(&cfg.Delivery.SMS.AccountSID, "TWILIO_ACCOUNT_SID")
	setString(&cfg.Delivery.SMS.AuthToken, "TWILIO_AUTH_TOKEN")
	setString(&cfg.Delivery.SMS.From, "TWILIO_FROM")
	setString(&cfg.Delivery.Email.SMTPPassword, "SMTP_PASSWORD")
	setString(&cfg.Delivery.AMQP.URL, "AMQP_URL")
	if v := os.Getenv("KAFKA_BROKERS"); v != "" {
		cfg.Delivery.Kafka.Brokers = strings.Split(v, ",")
	}
	if v := os.Getenv("DELIVERY_CHANNELS"); v != "" {
		cfg.Delivery.Channels = strings.Split(v, ",")
	}
}

func applyDefaults(cfg *Config) {
	if cfg.Server.Host == "" {
		cfg.Server.Host = "0.0.0.0"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Server.Env == "" {
		cfg.Server.Env = "development"
	}
	if cfg.Database.Driver == "" {
		cfg.Database.Driver = "postgres"
	}
	if cfg.Matching.DefaultRadiusKm <= 0 {
		cfg.Matching.DefaultRadiusKm = 50
	}
	if cfg.Matching.TieThresholdKm <= 0 {
		cfg.Matching.TieThresholdKm = 5
	}
	if cfg.Matching.Ranking == "" {
		cfg.Matching.Ranking = "pairwise"
	}
	if cfg.Catalog.Source == "" {
		cfg.Catalog.Source = "database"
	}
	if cfg.Catalog.HTTPTimeout == 0 {
		cfg.Catalog.HTTPTimeout = 5 * time.Second
	}
	if cfg.Catalog.CacheTTL == 0 {
		cfg.Catalog.CacheTTL = time.Minute
	}
	if cfg.Catalog.RefreshInterval == 0 {
		cfg.Catalog.RefreshInterval = 5 * time.Minute
	}
	if cfg.Redis.Prefix == "" {
		cfg.Redis.Prefix = "ngo_connect"
	}
	if len(cfg.Delivery.Channels) == 0 {
		cfg.Delivery.Channels = []string{"log"}
	}
	if cfg.Delivery.Workers <= 0 {
		cfg.Delivery.Workers = 4
	}
	if cfg.Delivery.QueueSize <= 0 {
		cfg.Delivery.QueueSize = 256
	}
	if cfg.Delivery.InitialInterval == 0 {
		cfg.Delivery.InitialInterval = 200 * time.Millisecond
	}
	if cfg.Delivery.MaxElapsed == 0 {
		cfg.Delivery.MaxElapsed = 10 * time.Second
	}
	if cfg.Delivery.BreakerMaxFailures == 0 {
		cfg.Delivery.BreakerMaxFailures = 5
	}
	if cfg.Delivery.BreakerTimeout == 0 {
		cfg.Delivery.BreakerTimeout = 30 * time.Second
	}
	if cfg.Delivery.Email.SMTPPort == 0 {
		cfg.Delivery.Email.SMTPPort = 587
	}
	if cfg.Delivery.AMQP.Queue == "" {
		cfg.Delivery.AMQP.Queue = "ngo.notifications"
	}
	if cfg.Delivery.Kafka.Topic == "" {
		cfg.Delivery.Kafka.Topic = "ngo.notifications"
	}
	if cfg.RateLimit.Requests <= 0 {
		cfg.RateLimit.Requests = 120
	}
	if cfg.RateLimit.Window == 0 {
		cfg.RateLimit.Window = time.Minute
	}
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func (c *Config) IsProduction() bool {
	return c.Server.Env == "production"
}

func GetConfig() *Config {
	if AppConfig == nil {
		LoadConfig()
	}
	return AppConfig
}
