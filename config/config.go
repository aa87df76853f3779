package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds every runtime setting, loaded from environment variables.
type Config struct {
	Port       string
	Env        string
	MongoURL   string
	DBName     string
	JWTSecret  string
	LoanPeriod time.Duration

	RedisURL     string
	KafkaBrokers []string
	KafkaTopic   string

	AWSRegion    string
	AWSEndpoint  string
	AWSAccessKey string
	AWSSecretKey string
	S3Bucket     string
}

// Load reads configuration from the environment. JWT_SECRET is the only
// required setting; everything else has a development default. Redis and
// Kafka are optional and disabled when their addresses are empty.
func Load() (Config, error) {
	cfg := Config{
		Port:         getEnv("PORT", "8080"),
		Env:          getEnv("APP_ENV", "development"),
		MongoURL:     getEnv("MONGO_URI", "mongodb://localhost:27017"),
		DBName:       getEnv("MONGO_DB", "library"),
		JWTSecret:    os.Getenv("JWT_SECRET"),
		RedisURL:     os.Getenv("REDIS_URL"),
		KafkaTopic:   getEnv("KAFKA_TOPIC", "booking.events"),
		AWSRegion:    getEnv("AWS_REGION", "us-east-1"),
		AWSEndpoint:  os.Getenv("AWS_ENDPOINT"),
		AWSAccessKey: os.Getenv("AWS_ACCESS_KEY_ID"),
		AWSSecretKey: os.Getenv("AWS_SECRET_ACCESS_KEY"),
		S3Bucket:     getEnv("AWS_S3_BUCKET", "library-materials"),
	}

	if cfg.JWTSecret == "" {
		return Config{}, fmt.Errorf("JWT_SECRET must be set")
	}

	if brokers := os.Getenv("KAFKA_BROKERS"); brokers != "" {
		for _, b := range strings.Split(brokers, ",") {
			if trimmed := strings.TrimSpace(b); trimmed != "" {
				cfg.KafkaBrokers = append(cfg.KafkaBrokers, trimmed)
			}
		}
	}

	days, err := strconv.Atoi(getEnv("LOAN_PERIOD_DAYS", "14"))
	if err != nil || days < 1 {
		return Config{}, fmt.Errorf("LOAN_PERIOD_DAYS must be a positive integer")
	}
	cfg.LoanPeriod = time.Duration(days) * 24 * time.Hour

	return cfg, nil
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}
