package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// BotTokenEnv holds the chat-platform credential. It is deliberately not part
// of the yaml file and the process must refuse to start without it.
const BotTokenEnv = "BOT_TOKEN"

type Config struct {
	HTTP       HTTPConfig       `yaml:"http"`
	Auth       AuthConfig       `yaml:"auth"`
	Storage    StorageConfig    `yaml:"storage"`
	Roblox     RobloxConfig     `yaml:"roblox"`
	Validation ValidationConfig `yaml:"validation"`
	Session    SessionConfig    `yaml:"session"`
	Redis      RedisConfig      `yaml:"redis"`
	Kafka      KafkaConfig      `yaml:"kafka"`
	Gateway    GatewayConfig    `yaml:"gateway"`
	Refresh    RefreshConfig    `yaml:"refresh"`
}

type HTTPConfig struct {
	Address string `yaml:"address"`
}

type AuthConfig struct {
	JWTSecret string `yaml:"jwt_secret"`
	AdminRole string `yaml:"admin_role"`
}

type StorageConfig struct {
	FlightsFile  string `yaml:"flights_file"`
	BookingsFile string `yaml:"bookings_file"`
}

type RobloxConfig struct {
	BaseURL        string `yaml:"base_url"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
}

type ValidationConfig struct {
	// Mode is "advisory" (an unverifiable username is assumed valid) or
	// "strict" (verification failure rejects the name).
	Mode string `yaml:"mode"`
}

type SessionConfig struct {
	Backend    string `yaml:"backend"` // "memory" or "redis"
	TTLSeconds int    `yaml:"ttl_seconds"`
}

type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

type KafkaConfig struct {
	Brokers            []string `yaml:"brokers"`
	BookingTopic       string   `yaml:"booking_topic"`
	NotificationsTopic string   `yaml:"notifications_topic"`
	GroupID            string   `yaml:"group_id"`
}

type GatewayConfig struct {
	BaseURL string `yaml:"base_url"`
}

type RefreshConfig struct {
	IntervalSeconds int `yaml:"interval_seconds"`
}

func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.applyDefaults()
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.HTTP.Address == "" {
		c.HTTP.Address = ":8080"
	}
	if c.Storage.FlightsFile == "" {
		c.Storage.FlightsFile = "flights.json"
	}
	if c.Storage.BookingsFile == "" {
		c.Storage.BookingsFile = "bookings.json"
	}
	if c.Validation.Mode == "" {
		c.Validation.Mode = "advisory"
	}
	if c.Session.Backend == "" {
		c.Session.Backend = "memory"
	}
	if c.Session.TTLSeconds == 0 {
		c.Session.TTLSeconds = 300
	}
	if c.Refresh.IntervalSeconds == 0 {
		c.Refresh.IntervalSeconds = 30
	}
	if c.Roblox.TimeoutSeconds == 0 {
		c.Roblox.TimeoutSeconds = 10
	}
}

// BotToken reads the platform credential from the environment.
func BotToken() (string, error) {
	token := os.Getenv(BotTokenEnv)
	if token == "" {
		return "", errors.New(BotTokenEnv + " is not set")
	}
	return token, nil
}
