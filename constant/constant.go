package constant

type JobStatus string

const (
	JobStatusPending    JobStatus = "PENDING"
	JobStatusProcessing JobStatus = "PROCESSING"
	JobStatusEditing    JobStatus = "EDITING"
	JobStatusRendering  JobStatus = "RENDERING"
	JobStatusUploading  JobStatus = "UPLOADING"
	JobStatusCompleted  JobStatus = "COMPLETED"
	JobStatusFailed     JobStatus = "FAILED"
)

func (s JobStatus) String() string {
	return string(s)
}

type SourceType string

const (
	SourceTypePrompt    SourceType = "prompt"
	SourceTypeRemoteURL SourceType = "remote_url"
	SourceTypeAudioFile SourceType = "audio_file"
)

func (s SourceType) String() string {
	return string(s)
}

type Environment string

const (
	EnvironmentProduction Environment = "production"
	EnvironmentStaging    Environment = "staging"
	EnvironmentDevelop    Environment = "develop"
)

func (e Environment) String() string {
	return string(e)
}

// GenreUnknown is the sentinel the classifier falls back to when the model
// answer is not one of the known genres.
const GenreUnknown = "Unknown"

// Genres is the closed set of script genres the classifier may return.
var Genres = []string{
	"Storytelling / Narrative",
	"Educational / Explainer",
	"Historical Fact / Analysis",
	"Current Events / News Commentary",
	"Product Review / Tutorial",
	"Opinion / Rant",
	"Comedy / Sketch",
	"Inspirational / Motivational",
	"Science / Technology Update",
	"Travel / Exploration",
	"Personal Vlog / Update",
}

func IsKnownGenre(genre string) bool {
	for _, g := range Genres {
		if g == genre {
			return true
		}
	}
	return false
}

// Queue topology shared by publishers and consumers.
const (
	ExchangeName = "autovid_exchange"

	DownloadQueue      = "audio_download_queue"
	DownloadRoutingKey = "job.download.request"

	TranscriptionQueue      = "transcription_queue"
	TranscriptionRoutingKey = "job.transcribe.request"

	TopicsQueue      = "topic_generation_queue"
	TopicsRoutingKey = "job.topics.request"
)
