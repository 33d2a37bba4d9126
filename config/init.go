package config

import (
	"log"

	"github.com/caarlos0/env/v6"
	"github.com/joho/godotenv"

	"github.com/prismateams/mailroom/internal/database"
	"github.com/prismateams/mailroom/internal/logger"
	"github.com/prismateams/mailroom/internal/tracing"
	"github.com/prismateams/mailroom/services/imap"
	"github.com/prismateams/mailroom/services/smtp"
)

func InitConfig() (*Config, error) {
	config := &Config{
		AppConfig:      &AppConfig{},
		Logger:         &logger.Config{},
		Tracing:        &tracing.JaegerConfig{},
		DatabaseConfig: &database.DatabaseConfig{},
		StorageConfig:  &StorageConfig{},
		ImapConfig:     &imap.Config{},
		SmtpConfig:     &smtp.Config{},
	}

	err := godotenv.Load()
	if err != nil {
		log.Print("Unable to load .env file")
	}

	err = env.Parse(config)
	if err != nil {
		return nil, err
	}

	return config, nil
}
