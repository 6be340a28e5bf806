package config

import (
	"flag"
	"log"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
)

type Config struct {
	Env           string              `yaml:"env" env-default:"development"` // environment
	HTTPServer    HTTPServerConfig    `yaml:"http_server"`
	Database      DatabaseConfig      `yaml:"database"`
	JWT           JWTConfig           `yaml:"jwt"`
	Migrations    MigrationsConfig    `yaml:"migrations"`
	Redis         RedisConfig         `yaml:"redis"`
	Notifications NotificationsConfig `yaml:"notifications"`
	SMTP          SMTPConfig          `yaml:"smtp"`
	Checkout      CheckoutConfig      `yaml:"checkout"`
	Idempotency   IdempotencyConfig   `yaml:"idempotency"`
}

// HTTPServerConfig структура http сервера
type HTTPServerConfig struct {
	Address     string        `yaml:"address" env-default:"localhost:8080"`
	Timeout     time.Duration `yaml:"timeout" env-default:"4s"`
	IdleTimeout time.Duration `yaml:"idle_timeout" env-default:"60s"`
}

// DatabaseConfig структура по работе с БД
type DatabaseConfig struct {
	Host     string `yaml:"host" env-default:"localhost"`
	Port     int    `yaml:"port" env-default:"5432"`
	User     string `yaml:"user" env-required:"true"`
	Password string `yaml:"-" env:"DB_PASSWORD" env-required:"true"`
	Name     string `yaml:"name" env-required:"true"`
}

// JWTConfig настройка jwt
type JWTConfig struct {
	Secret   string `yaml:"-" env:"JWT_SECRET" env-required:"true"`
	TokenTTL int    `yaml:"token_ttl" env-default:"60"`
}

type MigrationsConfig struct {
	Path string `yaml:"path" env-default:"./migrations"`
}

// RedisConfig - брокер очереди уведомлений и хранилище ключей идемпотентности
type RedisConfig struct {
	Addr     string `yaml:"addr" env:"REDIS_ADDR" env-default:"localhost:6379"`
	Password string `yaml:"-" env:"REDIS_PASSWORD"`
	DB       int    `yaml:"db" env-default:"0"`
}

const (
	QueueDriverRedis = "redis"
	QueueDriverKafka = "kafka"
)

// NotificationsConfig настройка очереди и воркеров уведомлений
type NotificationsConfig struct {
	Driver         string        `yaml:"driver" env:"NOTIFICATIONS_DRIVER" env-default:"redis"`
	RedisKey       string        `yaml:"redis_key" env-default:"notifications:orders"`
	Kafka          KafkaConfig   `yaml:"kafka"`
	Buffer         int           `yaml:"buffer" env-default:"100"`
	Workers        int           `yaml:"workers" env-default:"4"`
	JobTimeout     time.Duration `yaml:"job_timeout" env-default:"30s"`
	MaxAttempts    int           `yaml:"max_attempts" env-default:"3"`
	Backoff        time.Duration `yaml:"backoff" env-default:"2s"`
	MetricsAddress string        `yaml:"metrics_address" env-default:"localhost:9091"`
}

type KafkaConfig struct {
	Brokers []string `yaml:"brokers" env:"KAFKA_BROKERS" env-separator:","`
	Topic   string   `yaml:"topic" env-default:"shop.order-notifications"`
	GroupID string   `yaml:"group_id" env-default:"notifier"`
}

// SMTPConfig - если host пустой, письма только пишутся в лог
type SMTPConfig struct {
	Host     string `yaml:"host" env:"SMTP_HOST"`
	Port     int    `yaml:"port" env-default:"587"`
	Username string `yaml:"username"`
	Password string `yaml:"-" env:"SMTP_PASSWORD"`
	From     string `yaml:"from" env-default:"no-reply@skmart.com"`
}

type CheckoutConfig struct {
	StrictProductCheck bool `yaml:"strict_product_check" env-default:"false"`
}

type IdempotencyConfig struct {
	TTL time.Duration `yaml:"ttl" env-default:"24h"`
}

// MustLoad - если не загружаем - паникуем
func MustLoad() *Config {
	// .env не обязателен, переменные могут прийти из окружения
	_ = godotenv.Load()

	configPath := fetchConfigPath()
	if configPath == "" {
		log.Fatal("CONFIG_PATH not exists")
	}
	return MustLoadByPath(configPath)
}

func fetchConfigPath() string {
	var path string

	if f := flag.Lookup("config"); f != nil {
		path = f.Value.String()
	} else {
		flag.StringVar(&path, "config", "", "path to config file")
		flag.Parse()
	}

	if path == "" {
		path = os.Getenv("CONFIG_PATH")
	}
	return path
}

func MustLoadByPath(configPath string) *Config {
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		panic("config file not found: " + configPath)
	}

	var cfg Config
	if err := cleanenv.ReadConfig(configPath, &cfg); err != nil {
		log.Fatalf("can't read config file %s: %v", configPath, err)
	}

	return &cfg
}
