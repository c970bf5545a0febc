package resume

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/lib/pq"
)

var (
	ErrQueryRequired  = errors.New("query is required")
	ErrUserIDRequired = errors.New("user_id is required")
	ErrEmptyContent   = errors.New("resume content is empty")
	ErrNotStored      = errors.New("no stored resume file")
)

type Resume struct {
	ID               string         `json:"id" db:"id"`
	UserID           string         `json:"user_id" db:"user_id"`
	FileName         string         `json:"file_name" db:"file_name"`
	Content          string         `json:"-" db:"content"`
	ContentType      string         `json:"content_type" db:"content_type"`
	FileSize         int64          `json:"file_size" db:"file_size"`
	StorageKey       string         `json:"storage_key,omitempty" db:"storage_key"`
	Processed        bool           `json:"processed" db:"processed"`
	ProcessingStatus string         `json:"processing_status" db:"processing_status"`
	ProcessedAt      time.Time      `json:"processed_at" db:"processed_at"`
	ChunkCount       int            `json:"chunk_count" db:"chunk_count"`
	Summary          string         `json:"summary" db:"summary"`
	SkillsExtracted  pq.StringArray `json:"skills_extracted" db:"skills_extracted"`
	JobTitles        pq.StringArray `json:"job_titles" db:"job_titles"`
	Industries       pq.StringArray `json:"industries" db:"industries"`
	CreatedAt        time.Time      `json:"created_at" db:"created_at"`
}

type Chunk struct {
	ID              int64           `json:"-" db:"id"`
	ResumeID        string          `json:"-" db:"resume_id"`
	ChunkIndex      int             `json:"chunk_index" db:"chunk_index"`
	Content         string          `json:"content" db:"content"`
	PageNumber      int             `json:"page_number" db:"page_number"`
	ChunkType       string          `json:"chunk_type" db:"chunk_type"`
	SectionType     string          `json:"section_type" db:"section_type"`
	ImportanceScore float64         `json:"importance_score" db:"importance_score"`
	Metadata        json.RawMessage `json:"metadata,omitempty" db:"metadata"`
}

type Analysis struct {
	ResumeID         string          `json:"resume_id" db:"resume_id"`
	UserID           string          `json:"user_id" db:"user_id"`
	AnalysisType     string          `json:"analysis_type" db:"analysis_type"`
	TargetPopulation string          `json:"target_population" db:"target_population"`
	AnalysisContent  json.RawMessage `json:"analysis_content" db:"analysis_content"`
	ProcessingStatus string          `json:"processing_status" db:"processing_status"`
	CreatedAt        time.Time       `json:"created_at" db:"created_at"`
}

type SearchResult struct {
	ChunkIndex      int     `json:"chunk_index"`
	Content         string  `json:"content"`
	SectionType     string  `json:"section_type"`
	ImportanceScore float64 `json:"importance_score"`
}

// IngestResult is what the chat endpoint embeds into the processed_files
// entry for a resume attachment.
type IngestResult struct {
	ResumeID      string `json:"resume_id"`
	UserID        string `json:"user_id"`
	FileName      string `json:"file_name"`
	ChunksCreated int    `json:"chunks_created"`
	Status        string `json:"status"`
}

type CheckResponse struct {
	HasResume bool `json:"has_resume"`
}

type SearchResponse struct {
	Results []SearchResult `json:"results"`
}

// DownloadResponse carries a short-lived presigned URL for the raw file.
type DownloadResponse struct {
	URL string `json:"url"`
}
