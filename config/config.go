// config/config.go
package config

import (
	"fmt"
	"os"
)

// Config holds every piece of environment configuration the automation
// service needs. Secrets are loaded once at startup and treated as
// immutable for the process lifetime.
type Config struct {
	// HTTP server
	Port string

	// Database (PostgreSQL) config. Empty DB_HOST means "run on the
	// in-memory store" (local/dev mode).
	DB_USER     string
	DB_PASSWORD string
	DB_NAME     string
	DB_HOST     string
	DB_PORT     string

	// Kafka config. Empty broker disables event publishing.
	KAFKA_BROKER string
	KAFKA_TOPIC  string

	// RabbitMQ config. Empty host means notifications are sent inline
	// instead of through the job queue.
	RABBITMQ_USER     string
	RABBITMQ_PASSWORD string
	RABBITMQ_HOST     string
	RABBITMQ_PORT     string

	// Carrier (Mapit) integration
	MAPIT_API_KEY        string
	MAPIT_API_URL        string
	MAPIT_WEBHOOK_SECRET string

	// Payment (Myfatora) integration
	MYFATORA_API_KEY        string
	MYFATORA_API_URL        string
	MYFATORA_WEBHOOK_SECRET string

	// Stripe (second payment provider) webhook secret
	STRIPE_WEBHOOK_SECRET string

	// Notification channels
	TELEGRAM_BOT_TOKEN string

	// Text-generation oracle (optional; the pipeline runs without it).
	// Gemini is preferred when both keys are present.
	GEMINI_API_KEY string
	OPENAI_API_KEY string
}

// LoadConfig reads the service configuration from environment variables.
func LoadConfig() *Config {
	return &Config{
		Port: getEnv("PORT", "3000"),

		DB_USER:     os.Getenv("DB_USER"),
		DB_PASSWORD: os.Getenv("DB_PASSWORD"),
		DB_NAME:     os.Getenv("DB_NAME"),
		DB_HOST:     os.Getenv("DB_HOST"),
		DB_PORT:     getEnv("DB_PORT", "5432"),

		KAFKA_BROKER: os.Getenv("KAFKA_BROKER"),
		KAFKA_TOPIC:  getEnv("KAFKA_TOPIC", "shipment.events"),

		RABBITMQ_USER:     os.Getenv("RABBITMQ_USER"),
		RABBITMQ_PASSWORD: os.Getenv("RABBITMQ_PASSWORD"),
		RABBITMQ_HOST:     os.Getenv("RABBITMQ_HOST"),
		RABBITMQ_PORT:     getEnv("RABBITMQ_PORT", "5672"),

		MAPIT_API_KEY:        os.Getenv("MAPIT_API_KEY"),
		MAPIT_API_URL:        getEnv("MAPIT_API_URL", "https://api.mapit.example/v1/shipments"),
		MAPIT_WEBHOOK_SECRET: os.Getenv("MAPIT_WEBHOOK_SECRET"),

		MYFATORA_API_KEY:        os.Getenv("MYFATORA_API_KEY"),
		MYFATORA_API_URL:        getEnv("MYFATORA_API_URL", "https://api.myfatora.example/v1/payments"),
		MYFATORA_WEBHOOK_SECRET: os.Getenv("MYFATORA_WEBHOOK_SECRET"),

		STRIPE_WEBHOOK_SECRET: os.Getenv("STRIPE_WEBHOOK_SECRET"),

		TELEGRAM_BOT_TOKEN: os.Getenv("TELEGRAM_BOT_TOKEN"),

		GEMINI_API_KEY: os.Getenv("GEMINI_API_KEY"),
		OPENAI_API_KEY: os.Getenv("OPENAI_API_KEY"),
	}
}

// GetDBURL formats the config into a PostgreSQL connection string.
func (c *Config) GetDBURL() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable",
		c.DB_USER, c.DB_PASSWORD, c.DB_HOST, c.DB_PORT, c.DB_NAME)
}

// GetRabbitMQURL formats the config into a RabbitMQ connection string.
// Defaults to standard ports if missing to prevent crashes.
func (c *Config) GetRabbitMQURL() string {
	host := c.RABBITMQ_HOST
	if host == "" {
		host = "localhost"
	}
	port := c.RABBITMQ_PORT
	if port == "" {
		port = "5672"
	}
	return fmt.Sprintf("amqp://%s:%s@%s:%s/",
		c.RABBITMQ_USER, c.RABBITMQ_PASSWORD, host, port)
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
