package handler

import (
	"context"
	"encoding/json"

	"autovid-worker/dto"
	"autovid-worker/service"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog"
)

type ServiceDependencies struct {
	DownloadService   service.DownloadService
	TranscribeService service.TranscribeService
	TopicsService     service.TopicsService
}

func DownloadHandler(ctx context.Context, msg amqp.Delivery, deps ServiceDependencies) error {
	var message dto.DownloadMessage
	if err := json.Unmarshal(msg.Body, &message); err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Msg("failed to unmarshal download message")
		return err
	}

	return deps.DownloadService.Process(ctx, message)
}

func TranscribeHandler(ctx context.Context, msg amqp.Delivery, deps ServiceDependencies) error {
	var message dto.TranscribeMessage
	if err := json.Unmarshal(msg.Body, &message); err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Msg("failed to unmarshal transcribe message")
		return err
	}

	zerolog.Ctx(ctx).Info().
		Str("job_id", message.JobId.String()).
		Str("object_path", message.ObjectPath).
		Msg("received transcribe message")

	return deps.TranscribeService.Process(ctx, message)
}

func TopicsHandler(ctx context.Context, msg amqp.Delivery, deps ServiceDependencies) error {
	var message dto.TopicsMessage
	if err := json.Unmarshal(msg.Body, &message); err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Msg("failed to unmarshal topics message")
		return err
	}

	return deps.TopicsService.Process(ctx, message)
}
