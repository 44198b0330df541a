package config

import (
	"os"
	"voicehook/pkg/logger"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
)

const defaultConfigPath = "configs/config.yaml"

type Config struct {
	Telegram struct {
		Token string `yaml:"token" env:"TELEGRAM_BOT_TOKEN"`
	} `yaml:"telegram"`

	OpenAI struct {
		APIKey       string `yaml:"api_key" env:"OPENAI_API_KEY"`
		BaseURL      string `yaml:"base_url" env:"OPENAI_BASE_URL" env-default:"https://api.openai.com/v1"`
		WhisperModel string `yaml:"whisper_model" env:"WHISPER_MODEL" env-default:"whisper-1"`
		GPTModel     string `yaml:"gpt_model" env:"GPT_MODEL" env-default:"gpt-4o-mini"`
	} `yaml:"openai"`

	Webhook struct {
		BaseURL string `yaml:"base_url" env:"WEBHOOK_URL"`
	} `yaml:"webhook"`

	Server struct {
		Addr string `yaml:"addr" env:"SERVER_ADDR" env-default:":8080"`
	} `yaml:"server"`

	Downloads struct {
		Dir string `yaml:"dir" env:"DOWNLOADS_DIR" env-default:"downloads"`
	} `yaml:"downloads"`

	Transcription struct {
		Language string `yaml:"language" env:"LANGUAGE_HINT" env-default:"en"`
	} `yaml:"transcription"`

	Redis struct {
		Addr     string `yaml:"addr" env:"REDIS_ADDR" env-default:""`
		Password string `yaml:"password" env:"REDIS_PASSWORD" env-default:""`
		DB       int    `yaml:"db" env:"REDIS_DB" env-default:"0"`
	} `yaml:"redis"`
}

func LoadConfig() (*Config, error) {
	// Load .env file
	_ = godotenv.Load()

	var cfg Config
	if _, err := os.Stat(defaultConfigPath); err == nil {
		if err := cleanenv.ReadConfig(defaultConfigPath, &cfg); err != nil {
			return nil, err
		}
	} else if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, err
	}

	logger.Info("Config loaded successfully")
	return &cfg, nil
}
