package repository

import (
	"context"
	"testing"

	"autovid-worker/constant"
	"autovid-worker/entities"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// schema mirrors the production table without the postgres-only column
// defaults, which sqlite cannot parse.
const schema = `
CREATE TABLE video_jobs (
	id text PRIMARY KEY,
	created_at datetime,
	updated_at datetime,
	source_type text NOT NULL,
	source_value text NOT NULL,
	transcript text,
	transcript_fetched boolean NOT NULL DEFAULT false,
	status text NOT NULL DEFAULT 'PENDING',
	status_message text,
	script_genre text,
	topics text,
	editor_data text,
	selected_music text,
	render_path text,
	youtube_title text,
	youtube_description text,
	youtube_tags text,
	youtube_id text,
	scheduled_upload_time datetime
)`

func newTestRepo(t *testing.T) JobRepository {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.Exec(schema).Error)
	return NewRepoWithDB(db)
}

func TestCreateJobDefaults(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	job, err := repo.CreateJob(ctx, constant.SourceTypeRemoteURL, "https://example.com/watch?v=abc")
	require.NoError(t, err)
	require.NotEqual(t, uuid.Nil, job.ID)

	stored, err := repo.FindJobById(ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, constant.JobStatusPending, stored.Status)
	assert.Equal(t, "Job submitted. Waiting for processing...", *stored.StatusMessage)
	assert.Equal(t, constant.SourceTypeRemoteURL, stored.SourceType)
	assert.Equal(t, "https://example.com/watch?v=abc", stored.SourceValue)
	assert.Nil(t, stored.Transcript)
	assert.False(t, stored.TranscriptFetched)
	assert.Nil(t, stored.ScriptGenre)
	assert.Nil(t, stored.Topics)
}

func TestFindJobByIdNotFound(t *testing.T) {
	repo := newTestRepo(t)

	_, err := repo.FindJobById(context.Background(), uuid.New())
	assert.ErrorIs(t, err, ErrJobNotFound)
}

func TestUpdateJobPartial(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	job, err := repo.CreateJob(ctx, constant.SourceTypePrompt, "some prompt")
	require.NoError(t, err)

	updated, err := repo.UpdateJob(ctx, job.ID, map[string]any{
		"transcript":         "some prompt",
		"transcript_fetched": true,
		"status":             constant.JobStatusCompleted,
		"status_message":     "Prompt processed. Ready for topic generation.",
	})
	require.NoError(t, err)

	assert.Equal(t, constant.JobStatusCompleted, updated.Status)
	require.NotNil(t, updated.Transcript)
	assert.Equal(t, "some prompt", *updated.Transcript)
	assert.True(t, updated.TranscriptFetched)
	assert.Equal(t, "some prompt", updated.SourceValue, "untouched columns keep their values")
}

func TestUpdateJobSkipsNilValues(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	job, err := repo.CreateJob(ctx, constant.SourceTypePrompt, "text")
	require.NoError(t, err)
	_, err = repo.UpdateJob(ctx, job.ID, map[string]any{"transcript": "original"})
	require.NoError(t, err)

	updated, err := repo.UpdateJob(ctx, job.ID, map[string]any{
		"status":     constant.JobStatusProcessing,
		"transcript": nil,
	})
	require.NoError(t, err)

	assert.Equal(t, constant.JobStatusProcessing, updated.Status)
	require.NotNil(t, updated.Transcript, "nil outside allowNull means leave unchanged")
	assert.Equal(t, "original", *updated.Transcript)
}

func TestUpdateJobAllowsExplicitNullReset(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	job, err := repo.CreateJob(ctx, constant.SourceTypePrompt, "text")
	require.NoError(t, err)
	_, err = repo.UpdateJob(ctx, job.ID, map[string]any{
		"script_genre": "Comedy / Sketch",
		"topics":       entities.StringList{"a", "b"},
	})
	require.NoError(t, err)

	updated, err := repo.UpdateJob(ctx, job.ID, map[string]any{
		"script_genre": nil,
		"topics":       nil,
	})
	require.NoError(t, err)

	assert.Nil(t, updated.ScriptGenre)
	assert.Nil(t, updated.Topics)
}

func TestUpdateJobTopicsRoundTrip(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	job, err := repo.CreateJob(ctx, constant.SourceTypePrompt, "text")
	require.NoError(t, err)

	topics := entities.StringList{"First topic", "Second topic", "Third topic"}
	updated, err := repo.UpdateJob(ctx, job.ID, map[string]any{"topics": topics})
	require.NoError(t, err)

	assert.Equal(t, topics, updated.Topics)
}

func TestUpdateJobUnknownId(t *testing.T) {
	repo := newTestRepo(t)

	_, err := repo.UpdateJob(context.Background(), uuid.New(), map[string]any{
		"status": constant.JobStatusFailed,
	})
	assert.ErrorIs(t, err, ErrJobNotFound)
}

func TestUpdateJobNoEffectiveFieldsReturnsCurrent(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	job, err := repo.CreateJob(ctx, constant.SourceTypePrompt, "text")
	require.NoError(t, err)

	updated, err := repo.UpdateJob(ctx, job.ID, map[string]any{"transcript": nil})
	require.NoError(t, err)
	assert.Equal(t, job.ID, updated.ID)
	assert.Equal(t, constant.JobStatusPending, updated.Status)
}

func TestUpdateStatus(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	job, err := repo.CreateJob(ctx, constant.SourceTypeAudioFile, "uploads/x.mp3")
	require.NoError(t, err)

	require.NoError(t, repo.UpdateStatus(ctx, job.ID, constant.JobStatusFailed, "Audio download failed: boom"))

	stored, err := repo.FindJobById(ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, constant.JobStatusFailed, stored.Status)
	assert.Equal(t, "Audio download failed: boom", *stored.StatusMessage)
}
