package service

import (
	"context"
	"errors"
	"io"
)

// ErrValidation marks bad or missing caller input. The HTTP layer maps it to
// a 400 response; it is never retried.
var ErrValidation = errors.New("validation error")

// Dispatcher hands a unit of work to the queue. Satisfied by
// pkg/rabbitmq.Publisher.
type Dispatcher interface {
	Publish(ctx context.Context, routingKey string, message any) error
}

// AIClient is the external model boundary: text generation for genre and
// topic prompts, speech-to-text for audio artifacts. Satisfied by
// pkg/openai.Client.
type AIClient interface {
	ChatComplete(ctx context.Context, system, user string) (string, error)
	Transcribe(ctx context.Context, audio io.Reader, filename string) (string, error)
}

// ObjectStore stages audio artifacts between the request path and the
// workers.
type ObjectStore interface {
	Put(ctx context.Context, objectPath string, r io.Reader, size int64, contentType string) error
	FPut(ctx context.Context, objectPath, localPath string) error
	FGet(ctx context.Context, objectPath, localPath string) error
	Remove(ctx context.Context, objectPath string) error
}

// MediaFetcher downloads the audio track of a remote media URL into the
// given yt-dlp output template.
type MediaFetcher interface {
	FetchAudio(ctx context.Context, url, outputTemplate string) error
}
