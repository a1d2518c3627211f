package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"autovid-worker/config"
	"autovid-worker/constant"
	jobHandler "autovid-worker/handler"
	"autovid-worker/pkg/openai"
	"autovid-worker/pkg/rabbitmq"
	"autovid-worker/repository"
	"autovid-worker/service"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

func RunHttp(cfg *config.Config) {
	ctx, cancel := signal.NotifyContext(setupLogger(cfg), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	zerolog.Ctx(ctx).Info().Str("env", cfg.App.Environment).Bool("isProduction", cfg.App.Environment == constant.EnvironmentProduction.String()).Send()
	if cfg.App.Environment == constant.EnvironmentProduction.String() {
		gin.SetMode(gin.ReleaseMode)
	}

	conn, err := config.NewRabbitMQConn(ctx, cfg.Queue)
	if err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Msg("NewRabbitMQConn")
	}

	repo := repository.NewRepo(cfg.DB)
	store := service.NewObjectStore(cfg.Storage, cfg.MinIOBucket)
	aiClient := openai.NewClient(cfg.OpenAI)
	dispatcher := rabbitmq.NewPublisher(conn, cfg.Queue, constant.ExchangeName)

	acquireService := service.NewAcquireService(repo, store, dispatcher)
	downloadService := service.NewDownloadService(repo, service.NewYtDlpFetcher(), store, dispatcher, cfg.Media)
	transcribeService := service.NewTranscribeService(repo, store, aiClient)
	topicsService := service.NewTopicsService(repo, aiClient, cfg.Media)

	serviceDeps := jobHandler.ServiceDependencies{
		DownloadService:   downloadService,
		TranscribeService: transcribeService,
		TopicsService:     topicsService,
	}

	// Downloads go through the retrying consumer with a DLQ: the fetch is the
	// transport-flakiest stage. Transcription and topics use the plain
	// consumer, their failures belong on the job row.
	downloadConsumer := rabbitmq.NewRetryConsumer(conn, cfg.Queue, rabbitmq.QueueSpec{
		Exchange:   constant.ExchangeName,
		Queue:      constant.DownloadQueue,
		RoutingKey: constant.DownloadRoutingKey,
	}, cfg.Server.Workers, jobHandler.DownloadHandler)
	go func() {
		if err := downloadConsumer.Consume(ctx, serviceDeps); err != nil {
			zerolog.Ctx(ctx).Error().Err(err).Msg("Download consumer error")
		}
	}()

	transcribeConsumer := rabbitmq.NewConsumer(conn, cfg.Queue, rabbitmq.QueueSpec{
		Exchange:   constant.ExchangeName,
		Queue:      constant.TranscriptionQueue,
		RoutingKey: constant.TranscriptionRoutingKey,
	}, cfg.Server.Workers, jobHandler.TranscribeHandler)
	go func() {
		if err := transcribeConsumer.Consume(ctx, serviceDeps); err != nil {
			zerolog.Ctx(ctx).Error().Err(err).Msg("Transcribe consumer error")
		}
	}()

	topicsConsumer := rabbitmq.NewConsumer(conn, cfg.Queue, rabbitmq.QueueSpec{
		Exchange:   constant.ExchangeName,
		Queue:      constant.TopicsQueue,
		RoutingKey: constant.TopicsRoutingKey,
	}, cfg.Server.Workers, jobHandler.TopicsHandler)
	go func() {
		if err := topicsConsumer.Consume(ctx, serviceDeps); err != nil {
			zerolog.Ctx(ctx).Error().Err(err).Msg("Topics consumer error")
		}
	}()

	r := gin.Default()
	r.Use(loggerMiddleware(ctx))
	addHealth(r)

	routes := NewJobRoutes(repo, acquireService, dispatcher)
	routes.Register(r.Group("/api/v1"))

	handler := http.Server{
		Handler:           r,
		Addr:              fmt.Sprintf(":%s", cfg.Server.HttpPort),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		zerolog.Ctx(ctx).Info().Str("env", cfg.App.Environment).Msg("start http server")
		if err := handler.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zerolog.Ctx(ctx).Error().Str("env", cfg.App.Environment).Msg(err.Error())
		}
	}()

	<-ctx.Done()
	zerolog.Ctx(ctx).Info().Msg("shutting down server")
	if err := handler.Shutdown(ctx); err != nil {
		zerolog.Ctx(ctx).Error().Str("env", cfg.App.Environment).Msg(err.Error())
	}

	zerolog.Ctx(ctx).Info().Str("env", cfg.App.Environment).Msg("server shutdown")
}

func addHealth(r *gin.Engine) {
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status": "ok",
		})
	})
}

// loggerMiddleware carries the process logger into each request context so
// handlers and services can use zerolog.Ctx.
func loggerMiddleware(base context.Context) gin.HandlerFunc {
	logger := zerolog.Ctx(base)
	return func(c *gin.Context) {
		c.Request = c.Request.WithContext(logger.WithContext(c.Request.Context()))
		c.Next()
	}
}

func setupLogger(cfg *config.Config) context.Context {
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	if cfg.App.Environment == constant.EnvironmentDevelop.String() {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}

	// Log to standard output
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()
	ctx := logger.WithContext(context.Background())

	return ctx
}
