// Package config предоставялет структуры и функцию для парсинга и загрузки конфига
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
	Env                     string `yaml:"env" env-default:"local"`
	StorageConnectionString string `yaml:"storage_connection_string" env:"STORAGE_CONNECTION_STRING"`
	MigrationsPath          string `yaml:"migrations_path" env-default:"./migrations"`
	RedisConnection         `yaml:"redis_connection"`
	HTTPServer              `yaml:"http_server"`
	JWTToken                `yaml:"jwttoken"`
	RabbitMQ                `yaml:"rabbitmq"`
	Billing                 `yaml:"billing"`
	Notifier                `yaml:"notifier"`
	BootstrapAdmin          `yaml:"bootstrap_admin"`
	PasswordReset           `yaml:"password_reset"`
	SMTP                    `yaml:"smtp"`
}

// HTTPServer структура для настройки сервера
type HTTPServer struct {
	AddressHTTP string        `yaml:"addresshttp" env-default:":8080"`
	TimeoutHTTP time.Duration `yaml:"timeouthttp" env-default:"10s"`
	IdleTimeout time.Duration `yaml:"idle_timeout" env-default:"60s"`
}

// RedisConnection структура для настройки подключения к redis
type RedisConnection struct {
	AddressRedis string        `yaml:"addressredis"`
	Password     string        `yaml:"password" env:"REDIS_PASSWORD"`
	User         string        `yaml:"user"`
	DB           int           `yaml:"db"`
	MaxRetries   int           `yaml:"max_retries"`
	DialTimeout  time.Duration `yaml:"dial_timeout"`
	TimeoutRedis time.Duration `yaml:"timeoutredis"`
}

// JWTToken структура для работы с jwt-токеном
type JWTToken struct {
	JWTSecretKey string        `yaml:"jwt_secret_key" env:"JWT_SECRET_KEY"`
	TokenTTL     time.Duration `yaml:"token_ttl" env-default:"24h"`
}

// RabbitMQ структура для подключения к брокеру уведомлений
type RabbitMQ struct {
	RabbitMQURL        string        `yaml:"url" env:"RABBITMQ_URL"`
	RabbitMQMaxRetries int           `yaml:"max_retries" env-default:"5"`
	RabbitMQRetryDelay time.Duration `yaml:"retry_delay" env-default:"2s"`
	Exchange           string        `yaml:"exchange" env-default:"notifications"`
	AlertQueue         string        `yaml:"alert_queue" env-default:"notification.contract_alert"`
	AlertRoutingKey    string        `yaml:"alert_routing_key" env-default:"contract.alert"`
	ResetQueue         string        `yaml:"reset_queue" env-default:"notification.password_reset"`
	ResetRoutingKey    string        `yaml:"reset_routing_key" env-default:"password.reset"`
}

// Billing настройки расчёта стоянок и статусов контрактов
type Billing struct {
	AlertThresholdDays int           `yaml:"alert_threshold_days" env-default:"5"`
	TariffCacheTTL     time.Duration `yaml:"tariff_cache_ttl" env-default:"1h"`
}

// Notifier расписание фоновой сверки уведомлений (cron с секундами)
type Notifier struct {
	Schedule string `yaml:"schedule" env-default:"0 0 * * * *"`
}

// BootstrapAdmin учётная запись SUPER_ADMIN, создаваемая при старте, если её нет
type BootstrapAdmin struct {
	AdminEmail    string `yaml:"email"`
	AdminPassword string `yaml:"password" env:"BOOTSTRAP_ADMIN_PASSWORD"`
	AdminFullName string `yaml:"full_name" env-default:"Administrador Principal"`
}

// PasswordReset настройки восстановления пароля
type PasswordReset struct {
	CodeTTL time.Duration `yaml:"code_ttl" env-default:"15m"`
}

// SMTP настройки почтового сервера для рассылки уведомлений
type SMTP struct {
	SMTPHost string `yaml:"host" env:"SMTP_HOST"`
	SMTPPort string `yaml:"port" env-default:"587"`
	SMTPUser string `yaml:"user" env:"SMTP_USER"`
	SMTPPass string `yaml:"password" env:"SMTP_PASS"`
}

// MustLoad функция для загрузки конфига, возвращает конфиг, сгенерированный из config/config.go
func MustLoad() *Config {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		log.Fatal("CONFIG_PATH is not set")
	}
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		log.Fatalf("file: %s - does not exist", configPath)
	}
	var cfg Config

	if err := cleanenv.ReadConfig(configPath, &cfg); err != nil {
		log.Fatalf("cannot read config: %s", err)
	}
	return &cfg
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
			"RabbitMQ:\n"+
			"  Exchange: %s\n"+
			"  Queue: %s\n"+
			"  ResetQueue: %s\n"+
			"Billing:\n"+
			"  AlertThresholdDays: %d\n"+
			"  TariffCacheTTL: %s\n"+
			"Notifier:\n"+
			"  Schedule: %s\n"+
			"SMTP:\n"+
			"  Host: %s\n",
		c.Env,
		c.MigrationsPath,
		c.AddressRedis,
		c.DB,
		c.AddressHTTP,
		c.TimeoutHTTP,
		c.IdleTimeout,
		c.Exchange,
		c.AlertQueue,
		c.ResetQueue,
		c.AlertThresholdDays,
		c.TariffCacheTTL,
		c.Schedule,
		c.SMTPHost,
	)
}
