package resume

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/pendohq/pendo-assistant/internal/logger/sl"
)

// Analysis matrix seeded for every uploaded resume. The AI agent fills the
// pending rows in asynchronously.
var (
	targetPopulations = []string{
		"veterans",
		"environmental_justice",
		"reentry",
		"internationals",
	}

	analysisTypes = []string{
		"skills_translation",
		"career_pathways",
		"skills_gap_analysis",
		"credential_evaluation",
	}
)

type Repo interface {
	InsertResume(ctx context.Context, r *Resume) (string, error)
	InsertChunks(ctx context.Context, resumeID string, chunks []Chunk) error
	UpdateChunkCount(ctx context.Context, resumeID string, count int) error
	ResumeIDByUser(ctx context.Context, userID string) (string, error)
	StorageKeyByUser(ctx context.Context, userID string) (string, error)
	ChunksByResume(ctx context.Context, resumeID string) ([]Chunk, error)
	InsertAnalyses(ctx context.Context, records []Analysis) error
}

// ObjectStore keeps the raw uploaded file; the database only holds the
// extracted text.
type ObjectStore interface {
	Upload(ctx context.Context, filename, contentType string, body []byte) (key string, err error)
	Presign(ctx context.Context, key string) (url string, err error)
}

type Processor struct {
	repo      Repo
	store     ObjectStore
	chunkSize int
	log       *slog.Logger
}

func NewProcessor(repo Repo, store ObjectStore, chunkSize int, log *slog.Logger) *Processor {
	if chunkSize <= 0 {
		chunkSize = 1000
	}
	return &Processor{repo: repo, store: store, chunkSize: chunkSize, log: log}
}

// Ingest stores a resume, splits it into chunks and seeds the analysis
// matrix. content is the already-decoded file body.
func (p *Processor) Ingest(ctx context.Context, content []byte, fileName, userID, contentType string) (any, error) {
	const op = "resume.Ingest"

	text := strings.ToValidUTF8(string(content), "")
	if strings.TrimSpace(text) == "" {
		return nil, ErrEmptyContent
	}

	var storageKey string
	if p.store != nil {
		key, err := p.store.Upload(ctx, fileName, contentType, content)
		if err != nil {
			// The extracted text still lands in the database; losing the
			// original object is not fatal for the analysis flow.
			p.log.Warn("failed to store raw resume", slog.String("file", fileName), sl.Err(err))
		} else {
			storageKey = key
		}
	}

	now := time.Now().UTC()
	rec := &Resume{
		UserID:           userID,
		FileName:         fileName,
		Content:          text,
		ContentType:      contentType,
		FileSize:         int64(len(content)),
		StorageKey:       storageKey,
		Processed:        true,
		ProcessingStatus: "completed",
		ProcessedAt:      now,
		Summary:          fmt.Sprintf("Resume uploaded: %s", fileName),
		SkillsExtracted:  []string{},
		JobTitles:        []string{},
		Industries:       []string{},
	}

	resumeID, err := p.repo.InsertResume(ctx, rec)
	if err != nil {
		return nil, fmt.Errorf("%s: insert resume: %w", op, err)
	}

	chunks := BuildChunks(text, p.chunkSize)

	rows := make([]Chunk, 0, len(chunks))
	for i, chunk := range chunks {
		rows = append(rows, Chunk{
			ResumeID:        resumeID,
			ChunkIndex:      i,
			Content:         chunk,
			PageNumber:      0,
			ChunkType:       "content",
			SectionType:     ClassifySection(chunk),
			ImportanceScore: 0.5,
			Metadata:        json.RawMessage(`{}`),
		})
	}

	if len(rows) > 0 {
		if err := p.repo.InsertChunks(ctx, resumeID, rows); err != nil {
			return nil, fmt.Errorf("%s: insert chunks: %w", op, err)
		}
	}

	if err := p.repo.UpdateChunkCount(ctx, resumeID, len(rows)); err != nil {
		return nil, fmt.Errorf("%s: update chunk count: %w", op, err)
	}

	if err := p.triggerComprehensiveAnalysis(ctx, resumeID, userID); err != nil {
		return nil, fmt.Errorf("%s: trigger analysis: %w", op, err)
	}

	return IngestResult{
		ResumeID:      resumeID,
		UserID:        userID,
		FileName:      fileName,
		ChunksCreated: len(rows),
		Status:        "success",
	}, nil
}

// BuildChunks splits text on word boundaries into pieces of roughly
// chunkSize characters.
func BuildChunks(content string, chunkSize int) []string {
	words := strings.Fields(content)

	var chunks []string
	var current []string
	size := 0

	for _, word := range words {
		if size+len(word)+1 > chunkSize && len(current) > 0 {
			chunks = append(chunks, strings.Join(current, " "))
			current = []string{word}
			size = len(word)
		} else {
			current = append(current, word)
			size += len(word) + 1
		}
	}

	if len(current) > 0 {
		chunks = append(chunks, strings.Join(current, " "))
	}

	return chunks
}

// ClassifySection applies a keyword heuristic; a real section parser is the
// RAG pipeline's job, not ours.
func ClassifySection(chunk string) string {
	lower := strings.ToLower(chunk)
	switch {
	case strings.Contains(lower, "experience"):
		return "experience"
	case strings.Contains(lower, "education"):
		return "education"
	case strings.Contains(lower, "skills"):
		return "skills"
	}
	return "unknown"
}

func (p *Processor) triggerComprehensiveAnalysis(ctx context.Context, resumeID, userID string) error {
	now := time.Now().UTC()

	records := make([]Analysis, 0, len(targetPopulations)*len(analysisTypes))
	for _, population := range targetPopulations {
		for _, analysisType := range analysisTypes {
			content, _ := json.Marshal(map[string]string{
				"status":  "pending",
				"message": fmt.Sprintf("Analysis for %s - %s will be processed by AI agent", population, analysisType),
			})
			records = append(records, Analysis{
				ResumeID:         resumeID,
				UserID:           userID,
				AnalysisType:     analysisType,
				TargetPopulation: population,
				AnalysisContent:  content,
				ProcessingStatus: "pending",
				CreatedAt:        now,
			})
		}
	}

	return p.repo.InsertAnalyses(ctx, records)
}

// HasResume reports whether userID has uploaded a resume.
func (p *Processor) HasResume(ctx context.Context, userID string) (bool, error) {
	if userID == "" {
		return false, ErrUserIDRequired
	}

	id, err := p.repo.ResumeIDByUser(ctx, userID)
	if err != nil {
		return false, err
	}
	return id != "", nil
}

// DownloadURL presigns a short-lived link to the user's latest raw resume
// file. ErrNotStored is returned when nothing was kept in the object store.
func (p *Processor) DownloadURL(ctx context.Context, userID string) (string, error) {
	const op = "resume.DownloadURL"

	if userID == "" {
		return "", ErrUserIDRequired
	}
	if p.store == nil {
		return "", ErrNotStored
	}

	key, err := p.repo.StorageKeyByUser(ctx, userID)
	if err != nil {
		return "", fmt.Errorf("%s: storage key: %w", op, err)
	}
	if key == "" {
		return "", ErrNotStored
	}

	url, err := p.store.Presign(ctx, key)
	if err != nil {
		return "", fmt.Errorf("%s: presign: %w", op, err)
	}

	return url, nil
}

// Search does a case-insensitive substring match over the user's resume
// chunks, ranked by importance score.
func (p *Processor) Search(ctx context.Context, query, userID string, limit int) ([]SearchResult, error) {
	if strings.TrimSpace(query) == "" {
		return nil, ErrQueryRequired
	}
	if limit <= 0 {
		limit = 5
	}

	resumeID, err := p.repo.ResumeIDByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if resumeID == "" {
		return []SearchResult{}, nil
	}

	chunks, err := p.repo.ChunksByResume(ctx, resumeID)
	if err != nil {
		return nil, err
	}

	queryLower := strings.ToLower(query)

	matches := []SearchResult{}
	for _, chunk := range chunks {
		if strings.Contains(strings.ToLower(chunk.Content), queryLower) {
			matches = append(matches, SearchResult{
				ChunkIndex:      chunk.ChunkIndex,
				Content:         chunk.Content,
				SectionType:     chunk.SectionType,
				ImportanceScore: chunk.ImportanceScore,
			})
		}
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].ImportanceScore > matches[j].ImportanceScore
	})

	if len(matches) > limit {
		matches = matches[:limit]
	}

	return matches, nil
}
