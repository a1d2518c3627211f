package service

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"path/filepath"
	"strings"

	"autovid-worker/constant"
	"autovid-worker/dto"
	"autovid-worker/entities"
	"autovid-worker/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// SubmitInput carries one job submission. Exactly one of PromptText,
// RemoteURL, or Audio must be set, matching SourceType.
type SubmitInput struct {
	SourceType    string
	PromptText    string
	RemoteURL     string
	Audio         io.Reader
	AudioFilename string
	AudioSize     int64
}

type AcquireService interface {
	Submit(ctx context.Context, in SubmitInput) (*entities.VideoJob, error)
}

type acquireService struct {
	repo       repository.JobRepository
	store      ObjectStore
	dispatcher Dispatcher
}

func NewAcquireService(repo repository.JobRepository, store ObjectStore, dispatcher Dispatcher) AcquireService {
	return &acquireService{
		repo:       repo,
		store:      store,
		dispatcher: dispatcher,
	}
}

func (s *acquireService) Submit(ctx context.Context, in SubmitInput) (*entities.VideoJob, error) {
	switch constant.SourceType(in.SourceType) {
	case constant.SourceTypePrompt:
		return s.submitPrompt(ctx, in)
	case constant.SourceTypeRemoteURL:
		return s.submitRemoteURL(ctx, in)
	case constant.SourceTypeAudioFile:
		return s.submitAudioFile(ctx, in)
	default:
		return nil, fmt.Errorf("%w: unsupported source_type %q", ErrValidation, in.SourceType)
	}
}

// submitPrompt completes synchronously: the prompt text is the transcript.
func (s *acquireService) submitPrompt(ctx context.Context, in SubmitInput) (*entities.VideoJob, error) {
	text := strings.TrimSpace(in.PromptText)
	if text == "" {
		return nil, fmt.Errorf("%w: prompt_text is required for source_type 'prompt'", ErrValidation)
	}

	job, err := s.repo.CreateJob(ctx, constant.SourceTypePrompt, text)
	if err != nil {
		return nil, err
	}

	updated, err := s.repo.UpdateJob(ctx, job.ID, map[string]any{
		"transcript":         text,
		"transcript_fetched": true,
		"status":             constant.JobStatusCompleted,
		"status_message":     "Prompt processed. Ready for topic generation.",
	})
	if err != nil {
		s.failJob(ctx, job.ID, err)
		return nil, err
	}

	zerolog.Ctx(ctx).Info().Str("job_id", job.ID.String()).Msg("processed prompt directly")
	return updated, nil
}

func (s *acquireService) submitRemoteURL(ctx context.Context, in SubmitInput) (*entities.VideoJob, error) {
	raw := strings.TrimSpace(in.RemoteURL)
	if raw == "" {
		return nil, fmt.Errorf("%w: remote_url is required for source_type 'remote_url'", ErrValidation)
	}
	u, err := url.Parse(raw)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, fmt.Errorf("%w: remote_url must be an absolute http(s) URL", ErrValidation)
	}

	job, err := s.repo.CreateJob(ctx, constant.SourceTypeRemoteURL, raw)
	if err != nil {
		return nil, err
	}

	msg := dto.DownloadMessage{JobId: job.ID, Url: raw}
	if err := s.dispatcher.Publish(ctx, constant.DownloadRoutingKey, msg); err != nil {
		s.failJob(ctx, job.ID, err)
		return nil, err
	}

	zerolog.Ctx(ctx).Info().Str("job_id", job.ID.String()).Msg("created remote url job, download dispatched")
	return job, nil
}

func (s *acquireService) submitAudioFile(ctx context.Context, in SubmitInput) (*entities.VideoJob, error) {
	if in.Audio == nil {
		return nil, fmt.Errorf("%w: audio_file is required for source_type 'audio_file'", ErrValidation)
	}

	ext := filepath.Ext(in.AudioFilename)
	if ext == "" {
		ext = ".tmp"
	}
	objectPath := fmt.Sprintf("uploads/%s%s", uuid.New(), ext)

	if err := s.store.Put(ctx, objectPath, in.Audio, in.AudioSize, "application/octet-stream"); err != nil {
		return nil, fmt.Errorf("failed to save uploaded file: %w", err)
	}

	job, err := s.repo.CreateJob(ctx, constant.SourceTypeAudioFile, objectPath)
	if err != nil {
		return nil, err
	}

	msg := dto.TranscribeMessage{JobId: job.ID, ObjectPath: objectPath}
	if err := s.dispatcher.Publish(ctx, constant.TranscriptionRoutingKey, msg); err != nil {
		s.failJob(ctx, job.ID, err)
		return nil, err
	}

	zerolog.Ctx(ctx).Info().
		Str("job_id", job.ID.String()).
		Str("object_path", objectPath).
		Msg("created audio file job, transcription dispatched")
	return job, nil
}

// failJob records an acquisition failure after the row already exists. It
// runs on a detached context so a canceled request cannot block the write;
// the original error still propagates to the caller.
func (s *acquireService) failJob(ctx context.Context, id uuid.UUID, cause error) {
	detached := context.WithoutCancel(ctx)
	message := fmt.Sprintf("Input processing error: %v", cause)
	if err := s.repo.UpdateStatus(detached, id, constant.JobStatusFailed, message); err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Str("job_id", id.String()).Msg("failed to mark job FAILED after input error")
	}
}
