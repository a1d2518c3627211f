package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"autovid-worker/config"
	"autovid-worker/constant"
	"autovid-worker/dto"
	"autovid-worker/entities"
	"autovid-worker/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const systemPrompt = "You are a helpful assistant analyzing video scripts."

const genrePromptTemplate = `Analyze the following script and determine its primary genre or category from the list below.
Focus on the overall theme, style, and content.

Possible Genres:
%s

Script:
"""
%s
"""

Output only the *single most fitting genre* from the list above.
Genre:`

const topicsPromptTemplate = `Based on the following script and its identified genre, generate %d unique and engaging video topic ideas that are closely related or follow-up logically.
The topics should be suitable for short-form or medium-length faceless videos.

Script Genre: %s

Script Content:
"""
%s
"""

Generate exactly %d topics. Format the output as a JSON list of strings.
Example JSON Output:
["Topic Idea 1", "Topic Idea 2", "Topic Idea 3"]

JSON Topic List:`

type TopicsService interface {
	Process(ctx context.Context, message dto.TopicsMessage) error
}

type topicsService struct {
	repo   repository.JobRepository
	client AIClient
	cfg    config.Media
}

func NewTopicsService(repo repository.JobRepository, client AIClient, cfg config.Media) TopicsService {
	return &topicsService{
		repo:   repo,
		client: client,
		cfg:    cfg,
	}
}

// Process classifies the transcript's genre and generates follow-up topics.
// A job that already has topics is left untouched: topics presence, not
// status, is the guard, so re-delivery and duplicate triggers cannot
// overwrite an earlier result.
func (s *topicsService) Process(ctx context.Context, message dto.TopicsMessage) error {
	log := zerolog.Ctx(ctx).With().Str("job_id", message.JobId.String()).Logger()

	job, err := s.repo.FindJobById(ctx, message.JobId)
	if err != nil {
		log.Warn().Err(err).Msg("topic generation requested for unknown job")
		return nil
	}

	if job.Topics != nil {
		log.Warn().Msg("job already has topics, skipping generation")
		return nil
	}
	if job.Transcript == nil || *job.Transcript == "" {
		s.fail(ctx, message.JobId, "Topic generation failed: job has no transcript.")
		return nil
	}

	if err := s.repo.UpdateStatus(ctx, message.JobId, constant.JobStatusProcessing, "Determining script genre..."); err != nil {
		return err
	}

	prefix := transcriptPrefix(*job.Transcript, s.cfg.TranscriptPrefixLimit)

	genre, err := s.determineGenre(ctx, prefix)
	if err != nil {
		log.Error().Err(err).Msg("genre determination failed")
		s.fail(ctx, message.JobId, "Could not determine script genre.")
		return nil
	}
	if genre == constant.GenreUnknown {
		log.Warn().Msg("classifier could not determine a known genre")
		s.fail(ctx, message.JobId, "Could not determine script genre.")
		return nil
	}

	if _, err := s.repo.UpdateJob(ctx, message.JobId, map[string]any{
		"status":         constant.JobStatusProcessing,
		"status_message": fmt.Sprintf("Genre determined: %s. Generating topics...", genre),
		"script_genre":   genre,
	}); err != nil {
		s.fail(ctx, message.JobId, "Topic generation failed due to an internal error.")
		return err
	}

	log.Info().Str("genre", genre).Msg("generating topics")

	topics, err := s.generateTopics(ctx, prefix, genre, s.cfg.TopicCount)
	if err != nil {
		// The genre persisted above deliberately survives this failure.
		log.Error().Err(err).Msg("topic generation failed")
		s.fail(ctx, message.JobId, "Failed to generate topics from LLM.")
		return nil
	}

	if _, err := s.repo.UpdateJob(ctx, message.JobId, map[string]any{
		"status":         constant.JobStatusCompleted,
		"status_message": fmt.Sprintf("Successfully generated %d topics.", len(topics)),
		"topics":         entities.StringList(topics),
	}); err != nil {
		s.fail(ctx, message.JobId, "Topic generation failed due to an internal error.")
		return err
	}

	log.Info().Int("topic_count", len(topics)).Msg("topic generation completed")
	return nil
}

// determineGenre asks the model for a single genre label and validates it
// against the closed set. Anything else collapses to the Unknown sentinel.
func (s *topicsService) determineGenre(ctx context.Context, prefix string) (string, error) {
	prompt := fmt.Sprintf(genrePromptTemplate, genreList(), prefix)

	answer, err := s.client.ChatComplete(ctx, systemPrompt, prompt)
	if err != nil {
		return "", err
	}

	genre := strings.TrimSpace(answer)
	if !constant.IsKnownGenre(genre) {
		return constant.GenreUnknown, nil
	}
	return genre, nil
}

func (s *topicsService) generateTopics(ctx context.Context, prefix, genre string, count int) ([]string, error) {
	prompt := fmt.Sprintf(topicsPromptTemplate, count, genre, prefix, count)

	answer, err := s.client.ChatComplete(ctx, systemPrompt, prompt)
	if err != nil {
		return nil, err
	}

	topics, err := parseTopicList(answer)
	if err != nil {
		return nil, err
	}

	if deviation := len(topics) - count; deviation > count/2 || deviation < -count/2 {
		zerolog.Ctx(ctx).Warn().
			Int("returned", len(topics)).
			Int("requested", count).
			Msg("model returned an unexpected number of topics")
	}

	if len(topics) > count {
		topics = topics[:count]
	}
	return topics, nil
}

// parseTopicList extracts the JSON array from a model answer that may wrap
// it in prose: only the span between the first '[' and the last ']' is
// parsed, and every element must be a string.
func parseTopicList(raw string) ([]string, error) {
	start := strings.Index(raw, "[")
	end := strings.LastIndex(raw, "]")
	if start == -1 || end == -1 || end < start {
		return nil, fmt.Errorf("no JSON list found in model response")
	}

	var topics []string
	if err := json.Unmarshal([]byte(raw[start:end+1]), &topics); err != nil {
		return nil, fmt.Errorf("model response is not a JSON list of strings: %w", err)
	}
	return topics, nil
}

func transcriptPrefix(transcript string, limit int) string {
	if limit > 0 && len(transcript) > limit {
		return transcript[:limit]
	}
	return transcript
}

func genreList() string {
	var b strings.Builder
	for _, g := range constant.Genres {
		b.WriteString("- ")
		b.WriteString(g)
		b.WriteString("\n")
	}
	return strings.TrimSuffix(b.String(), "\n")
}

func (s *topicsService) fail(ctx context.Context, id uuid.UUID, message string) {
	if err := s.repo.UpdateStatus(context.WithoutCancel(ctx), id, constant.JobStatusFailed, message); err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Str("job_id", id.String()).Msg("failed to mark job FAILED")
	}
}
