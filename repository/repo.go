package repository

import (
	"context"
	"database/sql"
	"errors"

	"autovid-worker/constant"
	"autovid-worker/entities"

	"github.com/google/uuid"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// ErrJobNotFound is returned for lookups and updates against unknown job ids.
var ErrJobNotFound = errors.New("job not found")

// allowNull lists the fields a partial update may explicitly set back to NULL.
// Every other nil value in an update map is treated as "leave unchanged".
var allowNull = map[string]bool{
	"topics":       true,
	"script_genre": true,
}

type JobRepository interface {
	Transaction(ctx context.Context, callback func(ctx context.Context) error, opts ...*sql.TxOptions) error
	GetDB() *gorm.DB
	CreateJob(ctx context.Context, sourceType constant.SourceType, sourceValue string) (*entities.VideoJob, error)
	FindJobById(ctx context.Context, id uuid.UUID) (*entities.VideoJob, error)
	UpdateJob(ctx context.Context, id uuid.UUID, fields map[string]any) (*entities.VideoJob, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status constant.JobStatus, message string) error
}

type repo struct {
	db *gorm.DB
}

func NewRepo(db *sql.DB) JobRepository {
	gormDB, _ := gorm.Open(postgres.New(postgres.Config{
		Conn: db}),
		&gorm.Config{
			Logger: logger.Default.LogMode(logger.Info),
		},
	)
	return &repo{
		db: gormDB,
	}
}

// NewRepoWithDB wraps an already opened gorm handle. Used by tests running
// against sqlite.
func NewRepoWithDB(db *gorm.DB) JobRepository {
	return &repo{db: db}
}

func (r *repo) GetDB() *gorm.DB {
	return r.db
}

func (r *repo) CreateJob(ctx context.Context, sourceType constant.SourceType, sourceValue string) (*entities.VideoJob, error) {
	message := "Job submitted. Waiting for processing..."
	job := &entities.VideoJob{
		ID:            uuid.New(),
		SourceType:    sourceType,
		SourceValue:   sourceValue,
		Status:        constant.JobStatusPending,
		StatusMessage: &message,
	}
	if err := r.db.WithContext(ctx).Create(job).Error; err != nil {
		return nil, err
	}
	return job, nil
}

func (r *repo) FindJobById(ctx context.Context, id uuid.UUID) (*entities.VideoJob, error) {
	job := &entities.VideoJob{}
	err := r.db.WithContext(ctx).First(job, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrJobNotFound
	}
	if err != nil {
		return nil, err
	}
	return job, nil
}

func (r *repo) UpdateJob(ctx context.Context, id uuid.UUID, fields map[string]any) (*entities.VideoJob, error) {
	filtered := map[string]any{}
	for k, v := range fields {
		if isNil(v) && !allowNull[k] {
			continue
		}
		filtered[k] = v
	}
	if len(filtered) == 0 {
		return r.FindJobById(ctx, id)
	}

	res := r.db.WithContext(ctx).Model(&entities.VideoJob{}).Where("id = ?", id).Updates(filtered)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, ErrJobNotFound
	}
	return r.FindJobById(ctx, id)
}

func (r *repo) UpdateStatus(ctx context.Context, id uuid.UUID, status constant.JobStatus, message string) error {
	_, err := r.UpdateJob(ctx, id, map[string]any{
		"status":         status,
		"status_message": message,
	})
	return err
}

func (r *repo) Transaction(ctx context.Context, callback func(ctx context.Context) error, opts ...*sql.TxOptions) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return callback(ctx)
	}, opts...)
}

func isNil(v any) bool {
	if v == nil {
		return true
	}
	switch t := v.(type) {
	case *string:
		return t == nil
	case entities.StringList:
		return t == nil
	case []string:
		return t == nil
	}
	return false
}
