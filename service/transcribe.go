package service

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"autovid-worker/constant"
	"autovid-worker/dto"
	"autovid-worker/repository"

	"github.com/rs/zerolog"
)

type TranscribeService interface {
	Process(ctx context.Context, message dto.TranscribeMessage) error
}

type transcribeService struct {
	repo   repository.JobRepository
	store  ObjectStore
	client AIClient
}

func NewTranscribeService(repo repository.JobRepository, store ObjectStore, client AIClient) TranscribeService {
	return &transcribeService{
		repo:   repo,
		store:  store,
		client: client,
	}
}

// Process turns a staged audio artifact into a transcript. Whatever the
// outcome, transcript_fetched is set: the attempt terminated, even if it
// produced nothing. The artifact is always released afterwards, best-effort.
func (s *transcribeService) Process(ctx context.Context, message dto.TranscribeMessage) error {
	log := zerolog.Ctx(ctx).With().Str("job_id", message.JobId.String()).Logger()

	job, err := s.repo.FindJobById(ctx, message.JobId)
	if err != nil {
		log.Warn().Err(err).Msg("transcription requested for unknown job")
		return nil
	}
	if job.TranscriptFetched && job.Status == constant.JobStatusCompleted {
		log.Info().Msg("transcript already present, skipping transcription")
		return nil
	}

	if err := s.repo.UpdateStatus(ctx, message.JobId, constant.JobStatusProcessing, "Starting transcription..."); err != nil {
		return err
	}

	defer s.cleanup(ctx, message.ObjectPath)

	tempDir, err := os.MkdirTemp("", "transcribe_"+message.JobId.String())
	if err != nil {
		s.finish(ctx, message, nil, fmt.Sprintf("Transcription failed: %v", err))
		return nil
	}
	defer os.RemoveAll(tempDir)

	localPath := filepath.Join(tempDir, filepath.Base(message.ObjectPath))
	if err := s.store.FGet(ctx, message.ObjectPath, localPath); err != nil {
		log.Error().Err(err).Str("object_path", message.ObjectPath).Msg("audio artifact not found")
		s.finish(ctx, message, nil, fmt.Sprintf("Transcription failed: audio artifact not found: %s", message.ObjectPath))
		return nil
	}

	audio, err := os.Open(localPath)
	if err != nil {
		s.finish(ctx, message, nil, fmt.Sprintf("Transcription failed: %v", err))
		return nil
	}
	defer audio.Close()

	transcript, err := s.client.Transcribe(ctx, audio, filepath.Base(localPath))
	if err != nil {
		log.Error().Err(err).Msg("transcription call failed")
		s.finish(ctx, message, nil, fmt.Sprintf("Transcription failed: %v", err))
		return nil
	}

	log.Info().Int("transcript_length", len(transcript)).Msg("transcription successful")
	s.finish(ctx, message, &transcript, "Transcription successful. Ready for topic generation.")
	return nil
}

// finish records the terminal outcome. The write is an idempotent overwrite
// so a redelivered message lands on the same final state.
func (s *transcribeService) finish(ctx context.Context, message dto.TranscribeMessage, transcript *string, statusMessage string) {
	status := constant.JobStatusFailed
	if transcript != nil {
		status = constant.JobStatusCompleted
	}

	fields := map[string]any{
		"status":             status,
		"status_message":     statusMessage,
		"transcript_fetched": true,
	}
	if transcript != nil {
		fields["transcript"] = *transcript
	}

	if _, err := s.repo.UpdateJob(context.WithoutCancel(ctx), message.JobId, fields); err != nil {
		zerolog.Ctx(ctx).Error().Err(err).
			Str("job_id", message.JobId.String()).
			Msg("failed to record transcription outcome")
	}
}

func (s *transcribeService) cleanup(ctx context.Context, objectPath string) {
	if err := s.store.Remove(context.WithoutCancel(ctx), objectPath); err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Str("object_path", objectPath).Msg("failed to remove audio artifact")
	}
}
