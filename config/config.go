package config

import (
	"database/sql"

	_ "github.com/lib/pq"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/spf13/viper"
)

type Config struct {
	MinIOBucket string        `yaml:"minio_bucket"`
	App         App           `yaml:"app"`
	DB          *sql.DB       `yaml:"db"`
	Queue       *RabbitMQ     `yaml:"rabbitmq"`
	Storage     *minio.Client `yaml:"storage"`
	Server      Server        `yaml:"server"`
	OpenAI      OpenAI        `yaml:"openai"`
	Media       Media         `yaml:"media"`
}

type App struct {
	Environment string `yaml:"environment"`
	Host        string `yaml:"host"`
	Protocol    string `yaml:"protocol"`
}

type Server struct {
	HttpPort string `yaml:"http_port"`
	Workers  int    `yaml:"workers"`
}

type RabbitMQ struct {
	Host         string `json:"host"`
	Port         int    `json:"port"`
	User         string `json:"user"`
	Pass         string `json:"pass"`
	ExchangeName string `json:"exchange_name"`
	Kind         string `json:"kind"`
}

type OpenAI struct {
	BaseURL        string `yaml:"base_url"`
	APIKey         string `yaml:"api_key"`
	ChatModel      string `yaml:"chat_model"`
	WhisperModel   string `yaml:"whisper_model"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
}

type Media struct {
	DownloadDir            string `yaml:"download_dir"`
	TopicCount             int    `yaml:"topic_count"`
	TranscriptPrefixLimit  int    `yaml:"transcript_prefix_limit"`
	DownloadTimeoutSeconds int    `yaml:"download_timeout_seconds"`
}

func Load(path string) (*Config, error) {
	viper.AddConfigPath(path)
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	err := viper.ReadInConfig()
	if err != nil {
		return nil, err
	}

	viper.SetDefault("openai.base_url", "https://api.openai.com/v1")
	viper.SetDefault("openai.chat_model", "gpt-3.5-turbo")
	viper.SetDefault("openai.whisper_model", "whisper-1")
	viper.SetDefault("openai.timeout_seconds", 120)
	viper.SetDefault("media.download_dir", "downloads")
	viper.SetDefault("media.topic_count", 60)
	viper.SetDefault("media.transcript_prefix_limit", 4000)
	viper.SetDefault("media.download_timeout_seconds", 600)

	db, err := sql.Open("postgres", viper.GetString("postgresql_host"))
	if err != nil {
		return nil, err
	}

	rabbitmq := &RabbitMQ{
		Host: viper.GetString("rabbitmq_host"),
		Port: viper.GetInt("rabbitmq_port"),
		User: viper.GetString("rabbitmq_user"),
		Pass: viper.GetString("rabbitmq_pass"),
		Kind: viper.GetString("rabbitmq_kind"),
	}

	minioClient, err := minio.New(viper.GetString("minio.url"), &minio.Options{
		Creds:  credentials.NewStaticV4(viper.GetString("minio.access_id"), viper.GetString("minio.secret_access_key"), ""),
		Secure: false,
	})
	if err != nil {
		return nil, err
	}

	return &Config{
		MinIOBucket: viper.GetString("minio.bucket"),
		App: App{
			Environment: viper.GetString("app.environment"),
			Host:        viper.GetString("app.host"),
			Protocol:    viper.GetString("app.protocol"),
		},
		Server: Server{
			HttpPort: viper.GetString("server.port"),
			Workers:  viper.GetInt("server.workers"),
		},
		OpenAI: OpenAI{
			BaseURL:        viper.GetString("openai.base_url"),
			APIKey:         viper.GetString("openai.api_key"),
			ChatModel:      viper.GetString("openai.chat_model"),
			WhisperModel:   viper.GetString("openai.whisper_model"),
			TimeoutSeconds: viper.GetInt("openai.timeout_seconds"),
		},
		Media: Media{
			DownloadDir:            viper.GetString("media.download_dir"),
			TopicCount:             viper.GetInt("media.topic_count"),
			TranscriptPrefixLimit:  viper.GetInt("media.transcript_prefix_limit"),
			DownloadTimeoutSeconds: viper.GetInt("media.download_timeout_seconds"),
		},
		DB:      db,
		Queue:   rabbitmq,
		Storage: minioClient,
	}, nil
}
