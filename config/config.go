package config

import (
	"github.com/prismateams/mailroom/internal/database"
	"github.com/prismateams/mailroom/internal/logger"
	"github.com/prismateams/mailroom/internal/tracing"
	"github.com/prismateams/mailroom/services/imap"
	"github.com/prismateams/mailroom/services/smtp"
)

type AppConfig struct {
	APIPort     string `env:"PORT" envDefault:"12300"`
	APIKey      string `env:"API_KEY,required"`
	RabbitMQURL string `env:"RABBITMQ_URL"`
}

type StorageConfig struct {
	// Backend selects where large attachment payloads live: "local" or "s3".
	Backend       string `env:"ATTACHMENT_STORAGE_BACKEND" envDefault:"local"`
	AttachmentDir string `env:"ATTACHMENT_DIR" envDefault:"./data/attachments"`

	S3Region          string `env:"ATTACHMENT_S3_REGION"`
	S3AccessKeyID     string `env:"ATTACHMENT_S3_ACCESS_KEY_ID"`
	S3AccessKeySecret string `env:"ATTACHMENT_S3_ACCESS_KEY_SECRET"`
	S3Bucket          string `env:"ATTACHMENT_S3_BUCKET" envDefault:"attachments"`
}

type Config struct {
	AppConfig      *AppConfig
	Logger         *logger.Config
	Tracing        *tracing.JaegerConfig
	DatabaseConfig *database.DatabaseConfig
	StorageConfig  *StorageConfig
	ImapConfig     *imap.Config
	SmtpConfig     *smtp.Config
}
