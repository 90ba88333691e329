// Package config предоставляет структуры и функцию для парсинга и загрузки конфига
package config

import (
	"fmt"
	"log"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

// Config общая структура для хранения настроек
type Config struct {
	Env                     string `yaml:"env" env:"ENV" env-default:"local"`
	StorageConnectionString string `yaml:"storage_connection_string" env:"STORAGE_CONNECTION_STRING"`
	MigrationsPath          string `yaml:"migrations_path" env:"MIGRATIONS_PATH" env-default:"./migrations"`
	HTTPServer              `yaml:"http_server"`
	RedisConnection         `yaml:"redis_connection"`
	JWTToken                `yaml:"jwttoken"`
	RabbitMQ                `yaml:"rabbitmq"`
	SMTP                    `yaml:"smtp"`
	License                 `yaml:"license"`
	Scheduler               `yaml:"scheduler"`
	RateLimit               `yaml:"rate_limit"`
}

// HTTPServer структура для настройки сервера
type HTTPServer struct {
	AddressHTTP string        `yaml:"addresshttp" env:"HTTP_ADDRESS" env-default:":8080"`
	TimeoutHTTP time.Duration `yaml:"timeouthttp" env-default:"10s"`
	IdleTimeout time.Duration `yaml:"idle_timeout" env-default:"60s"`
	// MetricsAddress — адрес /metrics для фоновых процессов; пустой отключает.
	MetricsAddress string `yaml:"metrics_address" env:"METRICS_ADDRESS"`
}

// RedisConnection структура для настройки подключения к redis
type RedisConnection struct {
	RedisAddress     string        `yaml:"addressredis" env:"REDIS_ADDRESS"`
	RedisPassword    string        `yaml:"password" env:"REDIS_PASSWORD"`
	RedisUser        string        `yaml:"user"`
	RedisDB          int           `yaml:"db"`
	RedisMaxRetries  int           `yaml:"max_retries"`
	RedisDialTimeout time.Duration `yaml:"dial_timeout"`
	RedisTimeout     time.Duration `yaml:"timeoutredis"`
	RedisCacheTTL    time.Duration `yaml:"cache_ttl" env-default:"5m"`
}

// JWTToken структура для работы с jwt-токеном
type JWTToken struct {
	JWTSecretKey    string        `yaml:"jwt_secret_key" env:"JWT_SECRET_KEY"`
	TokenTTL        time.Duration `yaml:"token_ttl" env-default:"24h"`
	VerificationTTL time.Duration `yaml:"verification_ttl" env-default:"48h"`
	VerifyURL       string        `yaml:"verify_url" env:"VERIFY_URL" env-default:"http://localhost:8080/api/v1/verify"`
}

// RabbitMQ настройки подключения к брокеру
type RabbitMQ struct {
	RabbitMQURL     string        `yaml:"url" env:"RABBITMQ_URL"`
	RabbitMQRetries int           `yaml:"retries" env-default:"5"`
	RabbitMQDelay   time.Duration `yaml:"retry_delay" env-default:"2s"`
}

// SMTP настройки отправки писем
type SMTP struct {
	SMTPHost     string `yaml:"host" env:"SMTP_HOST"`
	SMTPPort     int    `yaml:"port" env:"SMTP_PORT" env-default:"587"`
	SMTPUser     string `yaml:"user" env:"SMTP_USER"`
	SMTPPassword string `yaml:"password" env:"SMTP_PASSWORD"`
	SMTPFrom     string `yaml:"from" env:"SMTP_FROM"`
}

// License параметры пробного периода, лицензий и админки
type License struct {
	AdminEmail      string        `yaml:"admin_email" env:"ADMIN_EMAIL"`
	TrialSeconds    int           `yaml:"trial_seconds" env-default:"600"`
	OfflineGrace    time.Duration `yaml:"offline_grace" env-default:"168h"`
	DefaultMonths   int           `yaml:"default_months" env-default:"12"`
	MaxKeysPerBatch int           `yaml:"max_keys_per_batch" env-default:"500"`
	UsersListLimit  int           `yaml:"users_list_limit" env-default:"500"`
	KeysListLimit   int           `yaml:"keys_list_limit" env-default:"1000"`
}

// Scheduler настройки фоновых задач
type Scheduler struct {
	ExpiryCheckInterval time.Duration `yaml:"expiry_check_interval" env-default:"1h"`
	ExpiryWindow        time.Duration `yaml:"expiry_window" env-default:"24h"`
}

// RateLimit настройки ограничения частоты запросов
type RateLimit struct {
	RequestsPerSecond float64 `yaml:"rps" env-default:"5"`
	Burst             int     `yaml:"burst" env-default:"10"`
}

// Load читает конфиг из файла path, переменные окружения имеют приоритет.
func Load(path string) (*Config, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, fmt.Errorf("file: %s - does not exist", path)
	}
	var cfg Config
	if err := cleanenv.ReadConfig(path, &cfg); err != nil {
		return nil, fmt.Errorf("cannot read config: %w", err)
	}
	return &cfg, nil
}

// MustLoad загружает конфиг по пути из CONFIG_PATH и завершает процесс при ошибке.
func MustLoad() *Config {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		log.Fatal("CONFIG_PATH is not set")
	}
	cfg, err := Load(configPath)
	if err != nil {
		log.Fatal(err)
	}
	return cfg
}

func (c *Config) String() string {
	return fmt.Sprintf(
		"Env: %s\n"+
			"MigrationsPath: %s\n"+
			"RedisConnection:\n"+
			"  Addr: %s\n"+
			"  DB: %d\n"+
			"HTTPServer:\n"+
			"  Address: %s\n"+
			"  Timeout: %s\n"+
			"  IdleTimeout: %s\n"+
			"JWTToken:\n"+
			"  TokenTTL: %s\n"+
			"License:\n"+
			"  AdminEmail: %s\n"+
			"  TrialSeconds: %d\n"+
			"  OfflineGrace: %s\n",
		c.Env,
		c.MigrationsPath,
		c.RedisAddress,
		c.RedisDB,
		c.AddressHTTP,
		c.TimeoutHTTP,
		c.IdleTimeout,
		c.TokenTTL,
		c.AdminEmail,
		c.TrialSeconds,
		c.OfflineGrace,
	)
}
