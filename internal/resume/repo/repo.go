package repo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"

	"github.com/pendohq/pendo-assistant/internal/resume"
)

type Repo struct {
	db *sqlx.DB
}

func New(db *sqlx.DB) *Repo {
	return &Repo{db: db}
}

func (r *Repo) InsertResume(ctx context.Context, rec *resume.Resume) (string, error) {
	const op = "resume.repo.InsertResume"

	var id string
	err := r.db.QueryRowxContext(
		ctx,
		`INSERT INTO resumes (
			user_id, file_name, content, content_type, file_size, storage_key,
			processed, processing_status, processed_at, chunk_count, summary,
			skills_extracted, job_titles, industries
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, 0, $10, $11, $12, $13)
		RETURNING id`,
		rec.UserID, rec.FileName, rec.Content, rec.ContentType, rec.FileSize,
		rec.StorageKey, rec.Processed, rec.ProcessingStatus, rec.ProcessedAt,
		rec.Summary, rec.SkillsExtracted, rec.JobTitles, rec.Industries,
	).Scan(&id)

	if err != nil {
		return "", fmt.Errorf("%s: insert: %w", op, err)
	}

	return id, nil
}

func (r *Repo) InsertChunks(ctx context.Context, resumeID string, chunks []resume.Chunk) error {
	const op = "resume.repo.InsertChunks"

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%s: begin tx: %w", op, err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(
		ctx,
		`INSERT INTO resume_chunks (
			resume_id, chunk_index, content, page_number, chunk_type,
			section_type, importance_score, metadata
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
	)
	if err != nil {
		return fmt.Errorf("%s: prepare: %w", op, err)
	}
	defer stmt.Close()

	for _, chunk := range chunks {
		_, err := stmt.ExecContext(
			ctx,
			resumeID, chunk.ChunkIndex, chunk.Content, chunk.PageNumber,
			chunk.ChunkType, chunk.SectionType, chunk.ImportanceScore, chunk.Metadata,
		)
		if err != nil {
			return fmt.Errorf("%s: insert chunk %d: %w", op, chunk.ChunkIndex, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%s: commit: %w", op, err)
	}

	return nil
}

func (r *Repo) UpdateChunkCount(ctx context.Context, resumeID string, count int) error {
	const op = "resume.repo.UpdateChunkCount"

	_, err := r.db.ExecContext(
		ctx,
		`UPDATE resumes SET chunk_count = $1 WHERE id = $2`,
		count, resumeID,
	)
	if err != nil {
		return fmt.Errorf("%s: update: %w", op, err)
	}

	return nil
}

func (r *Repo) ResumeIDByUser(ctx context.Context, userID string) (string, error) {
	const op = "resume.repo.ResumeIDByUser"

	var id string
	err := r.db.GetContext(
		ctx,
		&id,
		`SELECT id FROM resumes WHERE user_id = $1 ORDER BY created_at DESC LIMIT 1`,
		userID,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("%s: select: %w", op, err)
	}

	return id, nil
}

func (r *Repo) StorageKeyByUser(ctx context.Context, userID string) (string, error) {
	const op = "resume.repo.StorageKeyByUser"

	var key string
	err := r.db.GetContext(
		ctx,
		&key,
		`SELECT storage_key FROM resumes
		 WHERE user_id = $1 AND storage_key <> ''
		 ORDER BY created_at DESC LIMIT 1`,
		userID,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("%s: select: %w", op, err)
	}

	return key, nil
}

func (r *Repo) ChunksByResume(ctx context.Context, resumeID string) ([]resume.Chunk, error) {
	const op = "resume.repo.ChunksByResume"

	var chunks []resume.Chunk
	err := r.db.SelectContext(
		ctx,
		&chunks,
		`SELECT id, resume_id, chunk_index, content, page_number, chunk_type,
		        section_type, importance_score, metadata
		 FROM resume_chunks
		 WHERE resume_id = $1
		 ORDER BY chunk_index`,
		resumeID,
	)
	if err != nil {
		return nil, fmt.Errorf("%s: select: %w", op, err)
	}

	return chunks, nil
}

func (r *Repo) InsertAnalyses(ctx context.Context, records []resume.Analysis) error {
	const op = "resume.repo.InsertAnalyses"

	if len(records) == 0 {
		return nil
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%s: begin tx: %w", op, err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(
		ctx,
		`INSERT INTO resume_analysis (
			resume_id, user_id, analysis_type, target_population,
			analysis_content, processing_status, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7)`,
	)
	if err != nil {
		return fmt.Errorf("%s: prepare: %w", op, err)
	}
	defer stmt.Close()

	for _, rec := range records {
		_, err := stmt.ExecContext(
			ctx,
			rec.ResumeID, rec.UserID, rec.AnalysisType, rec.TargetPopulation,
			rec.AnalysisContent, rec.ProcessingStatus, rec.CreatedAt,
		)
		if err != nil {
			return fmt.Errorf("%s: insert %s/%s: %w", op, rec.TargetPopulation, rec.AnalysisType, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%s: commit: %w", op, err)
	}

	return nil
}
