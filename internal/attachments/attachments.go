package attachments

import (
	"context"
	"encoding/base64"
	"fmt"
	"log/slog"
	"strings"

	"github.com/pendohq/pendo-assistant/internal/logger/sl"
)

// Processed file types.
const (
	TypeResume      = "resume"
	TypeImage       = "image"
	TypeUnsupported = "unsupported"
	TypeError       = "error"
)

// FileAttachment is a transient base64-encoded upload riding on a chat
// request. Name duplicates Filename for older frontends.
type FileAttachment struct {
	Filename string `json:"filename"`
	Name     string `json:"name,omitempty"`
	Content  string `json:"content"`
	MimeType string `json:"mime_type"`
}

func (f FileAttachment) DisplayName() string {
	if f.Filename != "" {
		return f.Filename
	}
	if f.Name != "" {
		return f.Name
	}
	return "unknown_file"
}

type ProcessedFile struct {
	Filename string `json:"filename"`
	Type     string `json:"type"`
	Result   any    `json:"result,omitempty"`
	// Content keeps the original base64 so a vision model can still see it.
	Content  string `json:"content,omitempty"`
	MimeType string `json:"mime_type,omitempty"`
}

type errorResult struct {
	Error string `json:"error"`
}

type infoResult struct {
	Message string `json:"message"`
}

// ResumeIngester stores an extracted resume and returns a structured result.
type ResumeIngester interface {
	Ingest(ctx context.Context, content []byte, fileName, userID, contentType string) (any, error)
}

type Processor struct {
	resumes ResumeIngester
	log     *slog.Logger
}

func NewProcessor(resumes ResumeIngester, log *slog.Logger) *Processor {
	return &Processor{resumes: resumes, log: log}
}

// Process classifies and handles each attachment. A failure on one file is
// recorded in its entry and never aborts the rest of the batch.
func (p *Processor) Process(ctx context.Context, files []FileAttachment, userID string) []ProcessedFile {
	if len(files) == 0 {
		return nil
	}

	processed := make([]ProcessedFile, 0, len(files))

	for _, file := range files {
		name := file.DisplayName()

		p.log.Info("processing file",
			slog.String("filename", name),
			slog.String("mime_type", file.MimeType),
		)

		entry, err := p.processOne(ctx, file, name, userID)
		if err != nil {
			p.log.Error("file processing failed",
				slog.String("filename", name),
				sl.Err(err),
			)
			processed = append(processed, ProcessedFile{
				Filename: name,
				Type:     TypeError,
				Result:   errorResult{Error: err.Error()},
			})
			continue
		}

		processed = append(processed, entry)
	}

	return processed
}

func (p *Processor) processOne(ctx context.Context, file FileAttachment, name, userID string) (ProcessedFile, error) {
	switch {
	case strings.HasPrefix(file.MimeType, "application/pdf"),
		strings.HasPrefix(file.MimeType, "text/"):
		content, err := base64.StdEncoding.DecodeString(file.Content)
		if err != nil {
			return ProcessedFile{}, fmt.Errorf("decode base64: %w", err)
		}

		result, err := p.resumes.Ingest(ctx, content, name, userID, file.MimeType)
		if err != nil {
			return ProcessedFile{}, fmt.Errorf("process resume: %w", err)
		}

		return ProcessedFile{
			Filename: name,
			Type:     TypeResume,
			Result:   result,
			Content:  file.Content,
			MimeType: file.MimeType,
		}, nil

	case strings.HasPrefix(file.MimeType, "image/"):
		if _, err := base64.StdEncoding.DecodeString(file.Content); err != nil {
			return ProcessedFile{}, fmt.Errorf("decode base64: %w", err)
		}

		return ProcessedFile{
			Filename: name,
			Type:     TypeImage,
			Result:   infoResult{Message: "Image ready for vision analysis"},
			Content:  file.Content,
			MimeType: file.MimeType,
		}, nil

	default:
		return ProcessedFile{
			Filename: name,
			Type:     TypeUnsupported,
			Result:   errorResult{Error: fmt.Sprintf("Unsupported file type: %s", file.MimeType)},
		}, nil
	}
}
