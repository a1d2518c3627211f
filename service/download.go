package service

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"autovid-worker/config"
	"autovid-worker/constant"
	"autovid-worker/dto"
	"autovid-worker/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// audioExtensions are the acceptable yt-dlp output encodings, probed in
// order when resolving the downloaded artifact.
var audioExtensions = []string{".mp3", ".m4a", ".wav", ".ogg"}

type DownloadService interface {
	Process(ctx context.Context, message dto.DownloadMessage) error
}

type downloadService struct {
	repo       repository.JobRepository
	fetcher    MediaFetcher
	store      ObjectStore
	dispatcher Dispatcher
	cfg        config.Media
}

func NewDownloadService(
	repo repository.JobRepository,
	fetcher MediaFetcher,
	store ObjectStore,
	dispatcher Dispatcher,
	cfg config.Media,
) DownloadService {
	return &downloadService{
		repo:       repo,
		fetcher:    fetcher,
		store:      store,
		dispatcher: dispatcher,
		cfg:        cfg,
	}
}

// Process downloads the audio track for a remote-url job, stages it, and
// chains into transcription. It never sets a terminal status when chaining;
// on failure it records FAILED and stops the chain. A non-nil return means a
// transport problem worth redelivery, business failures land on the job row.
func (s *downloadService) Process(ctx context.Context, message dto.DownloadMessage) error {
	log := zerolog.Ctx(ctx).With().Str("job_id", message.JobId.String()).Logger()

	job, err := s.repo.FindJobById(ctx, message.JobId)
	if err != nil {
		log.Warn().Err(err).Msg("download requested for unknown job")
		return nil
	}
	if job.TranscriptFetched {
		log.Info().Msg("transcript already attempted, skipping download")
		return nil
	}

	if err := s.repo.UpdateStatus(ctx, message.JobId, constant.JobStatusProcessing,
		fmt.Sprintf("Downloading audio from %s...", message.Url)); err != nil {
		return err
	}

	if err := os.MkdirAll(s.cfg.DownloadDir, os.ModePerm); err != nil {
		s.fail(ctx, message.JobId, fmt.Sprintf("Audio download failed: %v", err))
		return nil
	}

	base := fmt.Sprintf("audio_job_%s_%s", message.JobId, uuid.New())
	template := filepath.Join(s.cfg.DownloadDir, base+".%(ext)s")

	fetchCtx := ctx
	if s.cfg.DownloadTimeoutSeconds > 0 {
		var cancel context.CancelFunc
		fetchCtx, cancel = context.WithTimeout(ctx, time.Duration(s.cfg.DownloadTimeoutSeconds)*time.Second)
		defer cancel()
	}

	if err := s.fetcher.FetchAudio(fetchCtx, message.Url, template); err != nil {
		log.Error().Err(err).Msg("audio download failed")
		s.fail(ctx, message.JobId, fmt.Sprintf("Audio download failed: %v", err))
		return nil
	}

	localPath := ""
	for _, ext := range audioExtensions {
		candidate := filepath.Join(s.cfg.DownloadDir, base+ext)
		if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
			localPath = candidate
			break
		}
	}
	if localPath == "" {
		log.Error().Str("base", base).Msg("download finished but output file not found")
		s.fail(ctx, message.JobId, "Download succeeded but output file not found.")
		return nil
	}

	objectPath := "downloads/" + filepath.Base(localPath)
	if err := s.store.FPut(ctx, objectPath, localPath); err != nil {
		log.Error().Err(err).Msg("failed to stage downloaded audio")
		s.fail(ctx, message.JobId, fmt.Sprintf("Audio download failed: %v", err))
		return nil
	}
	if err := os.Remove(localPath); err != nil {
		log.Error().Err(err).Str("path", localPath).Msg("failed to remove local download")
	}

	if err := s.repo.UpdateStatus(ctx, message.JobId, constant.JobStatusProcessing,
		"Download successful. Starting transcription..."); err != nil {
		return err
	}

	msg := dto.TranscribeMessage{JobId: message.JobId, ObjectPath: objectPath}
	if err := s.dispatcher.Publish(ctx, constant.TranscriptionRoutingKey, msg); err != nil {
		log.Error().Err(err).Msg("failed to dispatch transcription")
		s.fail(ctx, message.JobId, "Download succeeded but transcription could not be dispatched.")
		return nil
	}

	log.Info().Str("object_path", objectPath).Msg("audio downloaded, transcription dispatched")
	return nil
}

func (s *downloadService) fail(ctx context.Context, id uuid.UUID, message string) {
	if err := s.repo.UpdateStatus(context.WithoutCancel(ctx), id, constant.JobStatusFailed, message); err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Str("job_id", id.String()).Msg("failed to mark job FAILED")
	}
}
