package config

import (
	"fmt"
	"os"
	"strconv"
)

// Config содержит все настройки Importer Service
// Импортер - batch процесс: читает JSON файл, пишет в PostgreSQL,
// складывает историю прогонов в MongoDB и шлет события в Kafka
type Config struct {
	LogLevel string
	Database DatabaseConfig
	Mongo    MongoConfig
	Kafka    KafkaConfig
	Media    MediaConfig
	Image    ImageConfig
}

// DatabaseConfig - настройки подключения к PostgreSQL
type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

// MongoConfig - настройки MongoDB для истории прогонов импорта
type MongoConfig struct {
	URI      string
	Database string
}

// KafkaConfig - настройки Kafka для событий PRODUCT_IMPORTED
type KafkaConfig struct {
	Brokers []string
	Topic   string
}

// MediaConfig - корневая директория для сохранения изображений товаров
type MediaConfig struct {
	Root string
}

// ImageConfig - настройки загрузки изображений по image_url
type ImageConfig struct {
	TimeoutSec int // таймаут одного HTTP запроса за изображением
}

// Load загружает конфигурацию из переменных окружения
func Load() (*Config, error) {
	imageTimeout, err := strconv.Atoi(getEnv("IMAGE_TIMEOUT_SEC", "30"))
	if err != nil {
		return nil, fmt.Errorf("invalid IMAGE_TIMEOUT_SEC value: %w", err)
	}

	return &Config{
		LogLevel: getEnv("LOG_LEVEL", "info"),
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "catalog"),
			Password: getEnv("DB_PASSWORD", "catalog"),
			DBName:   getEnv("DB_NAME", "catalog"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
		Mongo: MongoConfig{
			URI:      getEnv("MONGO_URI", "mongodb://localhost:27017"),
			Database: getEnv("MONGO_DB", "importer"),
		},
		Kafka: KafkaConfig{
			Brokers: []string{getEnv("KAFKA_BROKERS", "localhost:9092")},
			Topic:   getEnv("KAFKA_TOPIC", "product_events"),
		},
		Media: MediaConfig{
			Root: getEnv("MEDIA_ROOT", "media"),
		},
		Image: ImageConfig{
			TimeoutSec: imageTimeout,
		},
	}, nil
}

// DSN возвращает строку подключения к PostgreSQL в формате libpq
func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode,
	)
}

// URL возвращает строку подключения к PostgreSQL в формате URL (для pgxpool)
func (c *DatabaseConfig) URL() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=%s",
		c.User, c.Password, c.Host, c.Port, c.DBName, c.SSLMode,
	)
}

// getEnv получает значение переменной окружения или возвращает значение по умолчанию
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
