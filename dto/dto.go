package dto

import (
	"time"

	"autovid-worker/constant"
	"autovid-worker/entities"

	"github.com/google/uuid"
)

// Queue messages.

type DownloadMessage struct {
	JobId uuid.UUID `json:"jobId"`
	Url   string    `json:"url"`
}

type TranscribeMessage struct {
	JobId      uuid.UUID `json:"jobId"`
	ObjectPath string    `json:"objectPath"`
}

type TopicsMessage struct {
	JobId uuid.UUID `json:"jobId"`
}

// HTTP responses.

type SubmissionResponse struct {
	Message string             `json:"message"`
	JobId   uuid.UUID          `json:"job_id"`
	Status  constant.JobStatus `json:"status"`
}

type StatusResponse struct {
	JobId         uuid.UUID          `json:"job_id"`
	Status        constant.JobStatus `json:"status"`
	StatusMessage *string            `json:"status_message,omitempty"`
	Transcript    *string            `json:"transcript,omitempty"`
	Topics        []string           `json:"topics,omitempty"`
}

type JobResponse struct {
	Id                uuid.UUID           `json:"id"`
	CreatedAt         time.Time           `json:"created_at"`
	UpdatedAt         time.Time           `json:"updated_at"`
	SourceType        constant.SourceType `json:"source_type"`
	SourceValue       string              `json:"source_value"`
	Status            constant.JobStatus  `json:"status"`
	StatusMessage     *string             `json:"status_message,omitempty"`
	Transcript        *string             `json:"transcript,omitempty"`
	TranscriptFetched bool                `json:"transcript_fetched"`
	ScriptGenre       *string             `json:"script_genre,omitempty"`
	Topics            []string            `json:"topics,omitempty"`
}

// NewStatusResponse projects a job into the external status payload.
// Transcript is hidden until the transcription stage has terminally run and
// topics are hidden until generation succeeded at least once.
func NewStatusResponse(job *entities.VideoJob) StatusResponse {
	resp := StatusResponse{
		JobId:         job.ID,
		Status:        job.Status,
		StatusMessage: job.StatusMessage,
	}
	if job.TranscriptFetched {
		resp.Transcript = job.Transcript
	}
	if job.Topics != nil {
		resp.Topics = job.Topics
	}
	return resp
}

func NewJobResponse(job *entities.VideoJob) JobResponse {
	return JobResponse{
		Id:                job.ID,
		CreatedAt:         job.CreatedAt,
		UpdatedAt:         job.UpdatedAt,
		SourceType:        job.SourceType,
		SourceValue:       job.SourceValue,
		Status:            job.Status,
		StatusMessage:     job.StatusMessage,
		Transcript:        job.Transcript,
		TranscriptFetched: job.TranscriptFetched,
		ScriptGenre:       job.ScriptGenre,
		Topics:            job.Topics,
	}
}
