package entities

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"autovid-worker/constant"

	"github.com/google/uuid"
)

// StringList stores an ordered list of strings as a JSON column. A nil list
// marshals to SQL NULL, which is how the pipeline distinguishes "never
// generated" from "generated but empty".
type StringList []string

func (l StringList) Value() (driver.Value, error) {
	if l == nil {
		return nil, nil
	}
	return json.Marshal(l)
}

func (l *StringList) Scan(value any) error {
	if value == nil {
		*l = nil
		return nil
	}
	switch v := value.(type) {
	case []byte:
		return json.Unmarshal(v, l)
	case string:
		return json.Unmarshal([]byte(v), l)
	default:
		return fmt.Errorf("unsupported type %T for StringList", value)
	}
}

type VideoJob struct {
	ID        uuid.UUID `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	CreatedAt time.Time `json:"created_at" gorm:"type:timestamptz;not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt time.Time `json:"updated_at" gorm:"type:timestamptz;not null;default:CURRENT_TIMESTAMP"`

	SourceType  constant.SourceType `json:"source_type" gorm:"type:varchar(20);not null;index:idx_video_jobs_source_type"`
	SourceValue string              `json:"source_value" gorm:"type:text;not null"`

	Transcript        *string `json:"transcript" gorm:"type:text"`
	TranscriptFetched bool    `json:"transcript_fetched" gorm:"not null;default:false"`

	Status        constant.JobStatus `json:"status" gorm:"type:varchar(20);not null;default:'PENDING';index:idx_video_jobs_status"`
	StatusMessage *string            `json:"status_message" gorm:"type:varchar(500)"`

	ScriptGenre *string    `json:"script_genre" gorm:"type:varchar(100)"`
	Topics      StringList `json:"topics" gorm:"type:jsonb"`

	// Later-phase fields (editor, render, publish). The pipeline core never
	// writes these; partial updates must leave them intact.
	EditorData          *string    `json:"editor_data" gorm:"type:jsonb"`
	SelectedMusic       *string    `json:"selected_music" gorm:"type:varchar(500)"`
	RenderPath          *string    `json:"render_path" gorm:"type:varchar(500)"`
	YoutubeTitle        *string    `json:"youtube_title" gorm:"type:varchar(255)"`
	YoutubeDescription  *string    `json:"youtube_description" gorm:"type:text"`
	YoutubeTags         StringList `json:"youtube_tags" gorm:"type:jsonb"`
	YoutubeId           *string    `json:"youtube_id" gorm:"type:varchar(100)"`
	ScheduledUploadTime *time.Time `json:"scheduled_upload_time" gorm:"type:timestamptz"`
}

func (VideoJob) TableName() string {
	return "video_jobs"
}
