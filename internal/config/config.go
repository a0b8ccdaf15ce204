package config

import (
	"errors"
	"fmt"
	"gopkg.in/yaml.v3"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	HTTP     HTTPConfig     `yaml:"http"`
	Catalog  CatalogConfig  `yaml:"catalog"`
	Document DocumentConfig `yaml:"document"`
	OrderLog OrderLogConfig `yaml:"order_log"`
	MySQL    MySQLConfig    `yaml:"mysql"`
	Redis    RedisConfig    `yaml:"redis"`
	Kafka    KafkaConfig    `yaml:"kafka"`
	Mail     MailConfig     `yaml:"mail"`
	Notify   NotifyConfig   `yaml:"notify"`
}

type HTTPConfig struct {
	Port      string  `yaml:"port"`
	RateLimit float64 `yaml:"rate_limit"`
	RateBurst int     `yaml:"rate_burst"`
}

type CatalogConfig struct {
	// Source is "xlsx" or "mysql".
	Source  string `yaml:"source"`
	Path    string `yaml:"path"`
	Schema  string `yaml:"schema"`
	Pricing string `yaml:"pricing"`
}

type DocumentConfig struct {
	Layout      string        `yaml:"layout"`
	Logo        string        `yaml:"logo"`
	LogoTimeout time.Duration `yaml:"logo_timeout"`
	OutputDir   string        `yaml:"output_dir"`
}

type OrderLogConfig struct {
	// Backend is "xlsx" or "mysql".
	Backend string `yaml:"backend"`
	Path    string `yaml:"path"`
}

type MySQLConfig struct {
	// DSNs lists one DSN per shard. parseTime=true is required.
	DSNs    []string `yaml:"dsns"`
	Retries int      `yaml:"retries"`
}

type RedisConfig struct {
	Addr       string        `yaml:"addr"`
	SessionTTL time.Duration `yaml:"session_ttl"`
	KeyTTL     time.Duration `yaml:"idempotency_ttl"`
}

type KafkaConfig struct {
	Brokers    []string `yaml:"brokers"`
	EventTopic string   `yaml:"event_topic"`
	RetryTopic string   `yaml:"retry_topic"`
	GroupID    string   `yaml:"group_id"`
}

type MailConfig struct {
	Host     string        `yaml:"host"`
	Port     int           `yaml:"port"`
	Username string        `yaml:"username"`
	Password string        `yaml:"-"`
	Operator string        `yaml:"operator"`
	Subject  string        `yaml:"subject"`
	ShopName string        `yaml:"shop_name"`
	Timeout  time.Duration `yaml:"timeout"`
}

type NotifyConfig struct {
	MaxAttempts  int           `yaml:"max_attempts"`
	RetryBackoff time.Duration `yaml:"retry_backoff"`
}

func Default() Config {
	return Config{
		HTTP: HTTPConfig{Port: "8082", RateLimit: 1, RateBurst: 3},
		Catalog: CatalogConfig{
			Source:  "xlsx",
			Path:    "precios.xlsx",
			Schema:  "tiered",
			Pricing: "tiered",
		},
		Document: DocumentConfig{
			Layout:      "priced",
			LogoTimeout: 5 * time.Second,
			OutputDir:   "pedidos",
		},
		OrderLog: OrderLogConfig{Backend: "xlsx", Path: "pedidos.xlsx"},
		MySQL:    MySQLConfig{Retries: 3},
		Redis:    RedisConfig{SessionTTL: 2 * time.Hour, KeyTTL: 24 * time.Hour},
		Kafka: KafkaConfig{
			EventTopic: "order-topic",
			RetryTopic: "order-notify-retry",
			GroupID:    "order-notify-group",
		},
		Mail: MailConfig{
			Port:     465,
			Subject:  "Nuevo Pedido - Ingatuo Loja",
			ShopName: "Ingatuo Loja",
			Timeout:  30 * time.Second,
		},
		Notify: NotifyConfig{MaxAttempts: 5, RetryBackoff: time.Minute},
	}
}

// Load reads the YAML file at path, if any, over the defaults and then
// applies environment overrides. The SMTP password is only taken from
// SMTP_PASSWORD.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := applyEnv(&cfg, os.LookupEnv); err != nil {
		return Config{}, err
	}
	return cfg, cfg.Validate()
}

func applyEnv(cfg *Config, lookup func(string) (string, bool)) error {
	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok && v != "" {
			*dst = v
		}
	}
	list := func(key string, dst *[]string) {
		if v, ok := lookup(key); ok && v != "" {
			*dst = splitList(v)
		}
	}

	str("PORT", &cfg.HTTP.Port)
	str("CATALOG_SOURCE", &cfg.Catalog.Source)
	str("CATALOG_PATH", &cfg.Catalog.Path)
	str("CATALOG_SCHEMA", &cfg.Catalog.Schema)
	str("PRICING_SCHEME", &cfg.Catalog.Pricing)
	str("DOCUMENT_LAYOUT", &cfg.Document.Layout)
	str("LOGO", &cfg.Document.Logo)
	str("OUTPUT_DIR", &cfg.Document.OutputDir)
	str("ORDER_LOG_BACKEND", &cfg.OrderLog.Backend)
	str("ORDER_LOG_PATH", &cfg.OrderLog.Path)
	list("MYSQL_DSNS", &cfg.MySQL.DSNs)
	str("REDIS_ADDR", &cfg.Redis.Addr)
	list("KAFKA_BROKERS", &cfg.Kafka.Brokers)
	str("SMTP_HOST", &cfg.Mail.Host)
	str("SMTP_USERNAME", &cfg.Mail.Username)
	str("SMTP_PASSWORD", &cfg.Mail.Password)
	str("OPERATOR_EMAIL", &cfg.Mail.Operator)

	if v, ok := lookup("SMTP_PORT"); ok && v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("SMTP_PORT: %w", err)
		}
		cfg.Mail.Port = port
	}
	return nil
}

func (c Config) Validate() error {
	var errs []error
	if c.Mail.Host == "" {
		errs = append(errs, errors.New("mail host is required"))
	}
	if c.Mail.Operator == "" {
		errs = append(errs, errors.New("operator email is required"))
	}
	if c.Mail.Username != "" && c.Mail.Password == "" {
		errs = append(errs, errors.New("SMTP_PASSWORD is required when a mail username is set"))
	}
	if (c.Catalog.Source == "mysql" || c.OrderLog.Backend == "mysql") && len(c.MySQL.DSNs) == 0 {
		errs = append(errs, errors.New("mysql dsns are required for the mysql backends"))
	}
	if c.Catalog.Source == "xlsx" && c.Catalog.Path == "" {
		errs = append(errs, errors.New("catalog path is required"))
	}
	if c.OrderLog.Backend == "xlsx" && c.OrderLog.Path == "" {
		errs = append(errs, errors.New("order log path is required"))
	}
	return errors.Join(errs...)
}

func splitList(v string) []string {
	var out []string
	for _, s := range strings.Split(v, ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
