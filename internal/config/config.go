package config

import (
	"log"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

type Config struct {
	Env         string          `yaml:"env" env-default:"local" json:"-"`
	DatabaseDSN string          `yaml:"database_dsn" env:"DATABASE_URL" env-required:"true" json:"-"`
	HTTPServer  HTTPServer      `yaml:"http_server" json:"-"`
	LLM         LLMConfig       `yaml:"llm" json:"llm"`
	S3          S3Config        `yaml:"s3" json:"-"`
	RateLimit   RateLimitConfig `yaml:"rate_limit" json:"rate_limit"`
	Resume      ResumeConfig    `yaml:"resume" json:"resume"`
}

type HTTPServer struct {
	Address     string        `yaml:"address" env-default:"localhost:8002" json:"-"`
	Timeout     time.Duration `yaml:"timeout" env-default:"4s" json:"-"`
	IdleTimeout time.Duration `yaml:"idle_timeout" env-default:"60s" json:"-"`
}

type LLMConfig struct {
	BaseURL     string  `yaml:"base_url" env:"LLM_BASE_URL" env-default:"https://api.openai.com/v1" json:"base_url"`
	APIKey      string  `yaml:"-" env:"OPENAI_API_KEY" json:"-"`
	Model       string  `yaml:"model" env:"LLM_MODEL" env-default:"gpt-4o-mini" json:"model"`
	Temperature float64 `yaml:"temperature" env-default:"0.7" json:"temperature"`
}

type S3Config struct {
	Bucket    string `yaml:"bucket" env:"S3_BUCKET" json:"-"`
	Region    string `yaml:"region" env:"S3_REGION" json:"-"`
	Endpoint  string `yaml:"endpoint" env:"S3_ENDPOINT" json:"-"`
	AccessKey string `yaml:"-" env:"S3_ACCESS_KEY" json:"-"`
	SecretKey string `yaml:"-" env:"S3_SECRET_KEY" json:"-"`
}

type RateLimitConfig struct {
	PerMinute int `yaml:"per_minute" env:"RATE_LIMIT_PER_MINUTE" env-default:"60" json:"per_minute"`
	Burst     int `yaml:"burst" env:"RATE_LIMIT_BURST" env-default:"10" json:"burst"`
}

type ResumeConfig struct {
	ChunkSize   int `yaml:"chunk_size" env-default:"1000" json:"chunk_size"`
	SearchLimit int `yaml:"search_limit" env-default:"5" json:"search_limit"`
}

func MustLoad() *Config {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		log.Fatal("CONFIG_PATH is not set")
	}

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		log.Fatalf("config file does not exist: %s", configPath)
	}

	var cfg Config

	if err := cleanenv.ReadConfig(configPath, &cfg); err != nil {
		log.Fatalf("cannot read config %s", err)
	}

	return &cfg
}
