package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"autovid-worker/constant"
	"autovid-worker/entities"
	"autovid-worker/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// fakeRepo is an in-memory JobRepository mirroring the partial-update
// semantics of the real one.
type fakeRepo struct {
	mu      sync.Mutex
	jobs    map[uuid.UUID]*entities.VideoJob
	failAll bool
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{jobs: map[uuid.UUID]*entities.VideoJob{}}
}

func (r *fakeRepo) GetDB() *gorm.DB { return nil }

func (r *fakeRepo) Transaction(ctx context.Context, callback func(ctx context.Context) error, opts ...*sql.TxOptions) error {
	return callback(ctx)
}

func (r *fakeRepo) CreateJob(ctx context.Context, sourceType constant.SourceType, sourceValue string) (*entities.VideoJob, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failAll {
		return nil, errors.New("store unavailable")
	}
	message := "Job submitted. Waiting for processing..."
	job := &entities.VideoJob{
		ID:            uuid.New(),
		SourceType:    sourceType,
		SourceValue:   sourceValue,
		Status:        constant.JobStatusPending,
		StatusMessage: &message,
	}
	r.jobs[job.ID] = job
	copied := *job
	return &copied, nil
}

func (r *fakeRepo) FindJobById(ctx context.Context, id uuid.UUID) (*entities.VideoJob, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	job, ok := r.jobs[id]
	if !ok {
		return nil, repository.ErrJobNotFound
	}
	copied := *job
	return &copied, nil
}

func (r *fakeRepo) UpdateJob(ctx context.Context, id uuid.UUID, fields map[string]any) (*entities.VideoJob, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failAll {
		return nil, errors.New("store unavailable")
	}
	job, ok := r.jobs[id]
	if !ok {
		return nil, repository.ErrJobNotFound
	}
	for k, v := range fields {
		switch k {
		case "status":
			job.Status = v.(constant.JobStatus)
		case "status_message":
			s := v.(string)
			job.StatusMessage = &s
		case "transcript":
			s := v.(string)
			job.Transcript = &s
		case "transcript_fetched":
			job.TranscriptFetched = v.(bool)
		case "script_genre":
			if v == nil {
				job.ScriptGenre = nil
				continue
			}
			s := v.(string)
			job.ScriptGenre = &s
		case "topics":
			if v == nil {
				job.Topics = nil
				continue
			}
			job.Topics = v.(entities.StringList)
		default:
			return nil, fmt.Errorf("fakeRepo: unexpected field %q", k)
		}
	}
	copied := *job
	return &copied, nil
}

func (r *fakeRepo) UpdateStatus(ctx context.Context, id uuid.UUID, status constant.JobStatus, message string) error {
	_, err := r.UpdateJob(ctx, id, map[string]any{
		"status":         status,
		"status_message": message,
	})
	return err
}

// seed inserts a job directly, bypassing CreateJob defaults.
func (r *fakeRepo) seed(job *entities.VideoJob) {
	r.mu.Lock()
	defer r.mu.Unlock()
	copied := *job
	r.jobs[job.ID] = &copied
}

func (r *fakeRepo) get(id uuid.UUID) *entities.VideoJob {
	r.mu.Lock()
	defer r.mu.Unlock()
	copied := *r.jobs[id]
	return &copied
}

// fakeDispatcher records published messages.
type fakeDispatcher struct {
	mu       sync.Mutex
	messages []publishedMessage
	err      error
}

type publishedMessage struct {
	routingKey string
	body       any
}

func (d *fakeDispatcher) Publish(ctx context.Context, routingKey string, message any) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.err != nil {
		return d.err
	}
	d.messages = append(d.messages, publishedMessage{routingKey: routingKey, body: message})
	return nil
}

func (d *fakeDispatcher) published() []publishedMessage {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]publishedMessage(nil), d.messages...)
}

// fakeStore is an in-memory ObjectStore.
type fakeStore struct {
	mu      sync.Mutex
	objects map[string][]byte
	putErr  error
	getErr  error
}

func newFakeStore() *fakeStore {
	return &fakeStore{objects: map[string][]byte{}}
}

func (s *fakeStore) Put(ctx context.Context, objectPath string, r io.Reader, size int64, contentType string) error {
	if s.putErr != nil {
		return s.putErr
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.objects[objectPath] = data
	return nil
}

func (s *fakeStore) FPut(ctx context.Context, objectPath, localPath string) error {
	if s.putErr != nil {
		return s.putErr
	}
	data, err := os.ReadFile(localPath)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.objects[objectPath] = data
	return nil
}

func (s *fakeStore) FGet(ctx context.Context, objectPath, localPath string) error {
	if s.getErr != nil {
		return s.getErr
	}
	s.mu.Lock()
	data, ok := s.objects[objectPath]
	s.mu.Unlock()
	if !ok {
		return fmt.Errorf("object %s does not exist", objectPath)
	}
	return os.WriteFile(localPath, data, 0o644)
}

func (s *fakeStore) Remove(ctx context.Context, objectPath string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.objects, objectPath)
	return nil
}

func (s *fakeStore) has(objectPath string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.objects[objectPath]
	return ok
}

func (s *fakeStore) keys() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []string
	for k := range s.objects {
		out = append(out, k)
	}
	return out
}

// fakeAIClient scripts the model boundary.
type fakeAIClient struct {
	mu             sync.Mutex
	chatResponses  []string
	chatErr        error
	chatCalls      int
	transcript     string
	transcribeErr  error
	transcribeCall int
}

func (c *fakeAIClient) ChatComplete(ctx context.Context, system, user string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.chatErr != nil {
		return "", c.chatErr
	}
	if c.chatCalls >= len(c.chatResponses) {
		return "", errors.New("fakeAIClient: no scripted response left")
	}
	resp := c.chatResponses[c.chatCalls]
	c.chatCalls++
	return resp, nil
}

func (c *fakeAIClient) Transcribe(ctx context.Context, audio io.Reader, filename string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.transcribeCall++
	if c.transcribeErr != nil {
		return "", c.transcribeErr
	}
	return c.transcript, nil
}

// fakeFetcher writes a canned artifact at the resolved output template.
type fakeFetcher struct {
	ext string
	err error
}

func (f *fakeFetcher) FetchAudio(ctx context.Context, url, outputTemplate string) error {
	if f.err != nil {
		return f.err
	}
	if f.ext == "" {
		// Simulate a fetch that reports success without producing output.
		return nil
	}
	path := strings.Replace(outputTemplate, ".%(ext)s", f.ext, 1)
	return os.WriteFile(path, []byte("audio-bytes"), 0o644)
}
