// Package config loads service configuration from the environment with
// viper. Every key has a sane local-development default so the service runs
// against docker-compose with no env file.
package config

import (
	"strings"

	"github.com/spf13/viper"

	"github.com/rentaride/service-booking/pkg/database"
)

// KafkaConfig holds the Kafka connection settings.
type KafkaConfig struct {
	Brokers []string
	Source  string
}

// ServiceConfig holds all configuration for the booking service.
type ServiceConfig struct {
	Port           string
	AppEnv         string
	DBConfig       database.PostgresConfig
	KafkaConfig    KafkaConfig
	RoyaltyPercent float64
}

// Load reads configuration from environment variables.
func Load() (*ServiceConfig, error) {
	v := viper.New()
	v.AutomaticEnv()

	v.SetDefault("SERVICE_PORT", "8080")
	v.SetDefault("APP_ENV", "development")
	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", "5432")
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "booking")
	v.SetDefault("DB_SSLMODE", "disable")
	v.SetDefault("KAFKA_BROKERS", "localhost:9092")
	v.SetDefault("KAFKA_SOURCE", "service-booking")
	v.SetDefault("OWNER_ROYALTY_PERCENT", 5.0)

	royalty := v.GetFloat64("OWNER_ROYALTY_PERCENT")
	if royalty <= 0 {
		royalty = 5.0
	}

	return &ServiceConfig{
		Port:   v.GetString("SERVICE_PORT"),
		AppEnv: v.GetString("APP_ENV"),
		DBConfig: database.PostgresConfig{
			Host:     v.GetString("DB_HOST"),
			Port:     v.GetString("DB_PORT"),
			User:     v.GetString("DB_USER"),
			Password: v.GetString("DB_PASSWORD"),
			DBName:   v.GetString("DB_NAME"),
			SSLMode:  v.GetString("DB_SSLMODE"),
		},
		KafkaConfig: KafkaConfig{
			Brokers: strings.Split(v.GetString("KAFKA_BROKERS"), ","),
			Source:  v.GetString("KAFKA_SOURCE"),
		},
		RoyaltyPercent: royalty,
	}, nil
}
