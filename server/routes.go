package server

import (
	"errors"
	"net/http"

	"autovid-worker/constant"
	"autovid-worker/dto"
	"autovid-worker/repository"
	"autovid-worker/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

type jobRoutes struct {
	repo       repository.JobRepository
	acquire    service.AcquireService
	dispatcher service.Dispatcher
}

func NewJobRoutes(repo repository.JobRepository, acquire service.AcquireService, dispatcher service.Dispatcher) *jobRoutes {
	return &jobRoutes{
		repo:       repo,
		acquire:    acquire,
		dispatcher: dispatcher,
	}
}

func (r *jobRoutes) Register(g *gin.RouterGroup) {
	g.POST("/jobs", r.createJob)
	g.GET("/jobs/:id/status", r.getJobStatus)
	g.GET("/jobs/:id", r.getJobDetails)
	g.POST("/jobs/:id/generate_topics", r.triggerTopicGeneration)
}

func (r *jobRoutes) createJob(c *gin.Context) {
	ctx := c.Request.Context()

	in := service.SubmitInput{
		SourceType: c.PostForm("source_type"),
		PromptText: c.PostForm("prompt_text"),
		RemoteURL:  c.PostForm("remote_url"),
	}

	if constant.SourceType(in.SourceType) == constant.SourceTypeAudioFile {
		fileHeader, err := c.FormFile("audio_file")
		if err == nil {
			file, openErr := fileHeader.Open()
			if openErr != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": "could not read audio_file"})
				return
			}
			defer file.Close()
			in.Audio = file
			in.AudioFilename = fileHeader.Filename
			in.AudioSize = fileHeader.Size
		}
	}

	job, err := r.acquire.Submit(ctx, in)
	if err != nil {
		if errors.Is(err, service.ErrValidation) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		zerolog.Ctx(ctx).Error().Err(err).Msg("failed to create job")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error processing job request."})
		return
	}

	c.JSON(http.StatusAccepted, dto.SubmissionResponse{
		Message: "Job submitted successfully",
		JobId:   job.ID,
		Status:  job.Status,
	})
}

func (r *jobRoutes) getJobStatus(c *gin.Context) {
	ctx := c.Request.Context()

	id, ok := parseJobId(c)
	if !ok {
		return
	}

	job, err := r.repo.FindJobById(ctx, id)
	if err != nil {
		respondNotFoundOrError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.NewStatusResponse(job))
}

func (r *jobRoutes) getJobDetails(c *gin.Context) {
	ctx := c.Request.Context()

	id, ok := parseJobId(c)
	if !ok {
		return
	}

	job, err := r.repo.FindJobById(ctx, id)
	if err != nil {
		respondNotFoundOrError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.NewJobResponse(job))
}

// triggerTopicGeneration validates the stage preconditions and dispatches the
// topics task. Classification is only ever started here, never chained from
// transcription.
func (r *jobRoutes) triggerTopicGeneration(c *gin.Context) {
	ctx := c.Request.Context()

	id, ok := parseJobId(c)
	if !ok {
		return
	}

	job, err := r.repo.FindJobById(ctx, id)
	if err != nil {
		respondNotFoundOrError(c, err)
		return
	}

	if job.Transcript == nil || !job.TranscriptFetched {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Transcript is not ready for this job."})
		return
	}
	if job.Status != constant.JobStatusCompleted && job.Status != constant.JobStatusEditing {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Cannot generate topics when job status is " + job.Status.String() + ". Transcript must be ready.",
		})
		return
	}
	if job.Topics != nil {
		// Idempotent trigger: report the existing result without re-running.
		resp := dto.NewStatusResponse(job)
		message := "Topics have already been generated."
		resp.StatusMessage = &message
		c.JSON(http.StatusAccepted, resp)
		return
	}

	updated, err := r.repo.UpdateJob(ctx, id, map[string]any{
		"status":         constant.JobStatusProcessing,
		"status_message": "Topic generation initiated...",
	})
	if err != nil {
		respondNotFoundOrError(c, err)
		return
	}

	if err := r.dispatcher.Publish(ctx, constant.TopicsRoutingKey, dto.TopicsMessage{JobId: id}); err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Str("job_id", id.String()).Msg("failed to dispatch topic generation")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to trigger topic generation."})
		return
	}

	resp := dto.NewStatusResponse(updated)
	resp.Topics = nil
	c.JSON(http.StatusAccepted, resp)
}

func parseJobId(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid job id"})
		return uuid.Nil, false
	}
	return id, true
}

func respondNotFoundOrError(c *gin.Context, err error) {
	if errors.Is(err, repository.ErrJobNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Job not found."})
		return
	}
	zerolog.Ctx(c.Request.Context()).Error().Err(err).Msg("job lookup failed")
	c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error."})
}
