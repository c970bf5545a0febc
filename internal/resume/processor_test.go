package resume

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"
)

type fakeRepo struct {
	resumes    []*Resume
	chunks     map[string][]Chunk
	analyses   []Analysis
	chunkCount map[string]int

	resumeIDByUser string
	storageKey     string
	failInsert     bool
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		chunks:     make(map[string][]Chunk),
		chunkCount: make(map[string]int),
	}
}

func (f *fakeRepo) InsertResume(_ context.Context, r *Resume) (string, error) {
	if f.failInsert {
		return "", errors.New("insert failed")
	}
	f.resumes = append(f.resumes, r)
	return "resume-1", nil
}

func (f *fakeRepo) InsertChunks(_ context.Context, resumeID string, chunks []Chunk) error {
	f.chunks[resumeID] = append(f.chunks[resumeID], chunks...)
	return nil
}

func (f *fakeRepo) UpdateChunkCount(_ context.Context, resumeID string, count int) error {
	f.chunkCount[resumeID] = count
	return nil
}

func (f *fakeRepo) ResumeIDByUser(_ context.Context, userID string) (string, error) {
	return f.resumeIDByUser, nil
}

func (f *fakeRepo) StorageKeyByUser(_ context.Context, userID string) (string, error) {
	return f.storageKey, nil
}

func (f *fakeRepo) ChunksByResume(_ context.Context, resumeID string) ([]Chunk, error) {
	return f.chunks[resumeID], nil
}

func (f *fakeRepo) InsertAnalyses(_ context.Context, records []Analysis) error {
	f.analyses = append(f.analyses, records...)
	return nil
}

type fakeStore struct {
	keys []string
	err  error
}

func (f *fakeStore) Upload(_ context.Context, filename, contentType string, body []byte) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	key := "resumes/" + filename
	f.keys = append(f.keys, key)
	return key, nil
}

func (f *fakeStore) Presign(_ context.Context, key string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	return "https://files.example.com/" + key, nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestBuildChunks(t *testing.T) {
	tests := []struct {
		name      string
		content   string
		chunkSize int
		want      []string
	}{
		{
			name:      "short content stays whole",
			content:   "solar panel technician",
			chunkSize: 100,
			want:      []string{"solar panel technician"},
		},
		{
			name:      "splits on word boundary",
			content:   "alpha beta gamma delta",
			chunkSize: 11,
			want:      []string{"alpha beta", "gamma delta"},
		},
		{
			name:      "empty content",
			content:   "   ",
			chunkSize: 10,
			want:      nil,
		},
		{
			name:      "single oversized word",
			content:   "supercalifragilistic",
			chunkSize: 5,
			want:      []string{"supercalifragilistic"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := BuildChunks(tt.content, tt.chunkSize)
			if len(got) != len(tt.want) {
				t.Fatalf("got %d chunks %v, want %d", len(got), got, len(tt.want))
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("chunk[%d] = %q, want %q", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestBuildChunks_NoChunkExceedsSizeForNormalWords(t *testing.T) {
	content := strings.Repeat("windturbine ", 500)
	for _, chunk := range BuildChunks(content, 1000) {
		if len(chunk) > 1000 {
			t.Errorf("chunk of %d chars exceeds limit", len(chunk))
		}
	}
}

func TestClassifySection(t *testing.T) {
	tests := []struct {
		chunk string
		want  string
	}{
		{"Work Experience: solar installer at SunCo", "experience"},
		{"Education: B.S. Environmental Science", "education"},
		{"Skills: welding, OSHA 10, CAD", "skills"},
		{"References available upon request", "unknown"},
	}
	for _, tt := range tests {
		if got := ClassifySection(tt.chunk); got != tt.want {
			t.Errorf("ClassifySection(%q) = %q, want %q", tt.chunk, got, tt.want)
		}
	}
}

func TestIngest(t *testing.T) {
	repo := newFakeRepo()
	store := &fakeStore{}
	p := NewProcessor(repo, store, 1000, discardLogger())

	content := []byte("Work Experience: five years as an electrician. Skills: solar wiring.")

	result, err := p.Ingest(context.Background(), content, "resume.pdf", "user-1", "application/pdf")
	if err != nil {
		t.Fatalf("Ingest: %v", err)
	}

	ir, ok := result.(IngestResult)
	if !ok {
		t.Fatalf("result type %T", result)
	}
	if ir.Status != "success" {
		t.Errorf("status = %q", ir.Status)
	}
	if ir.ResumeID != "resume-1" {
		t.Errorf("resume id = %q", ir.ResumeID)
	}
	if ir.ChunksCreated != 1 {
		t.Errorf("chunks created = %d, want 1", ir.ChunksCreated)
	}

	if repo.chunkCount["resume-1"] != 1 {
		t.Errorf("chunk count = %d, want 1", repo.chunkCount["resume-1"])
	}

	// 4 populations x 4 analysis types
	if len(repo.analyses) != 16 {
		t.Errorf("analysis rows = %d, want 16", len(repo.analyses))
	}
	for _, a := range repo.analyses {
		if a.ProcessingStatus != "pending" {
			t.Errorf("analysis status = %q, want pending", a.ProcessingStatus)
		}
	}

	if len(store.keys) != 1 {
		t.Errorf("stored %d raw files, want 1", len(store.keys))
	}
	if repo.resumes[0].StorageKey == "" {
		t.Error("resume row is missing the storage key")
	}
}

func TestIngest_StoreFailureIsNotFatal(t *testing.T) {
	repo := newFakeRepo()
	p := NewProcessor(repo, &fakeStore{err: errors.New("s3 down")}, 1000, discardLogger())

	result, err := p.Ingest(context.Background(), []byte("some resume text"), "r.txt", "user-1", "text/plain")
	if err != nil {
		t.Fatalf("Ingest: %v", err)
	}
	if result.(IngestResult).Status != "success" {
		t.Error("ingest should succeed without the object store")
	}
	if repo.resumes[0].StorageKey != "" {
		t.Error("storage key should be empty when upload failed")
	}
}

func TestIngest_EmptyContent(t *testing.T) {
	p := NewProcessor(newFakeRepo(), nil, 1000, discardLogger())

	_, err := p.Ingest(context.Background(), []byte("   "), "r.txt", "user-1", "text/plain")
	if !errors.Is(err, ErrEmptyContent) {
		t.Errorf("err = %v, want ErrEmptyContent", err)
	}
}

func TestHasResume(t *testing.T) {
	repo := newFakeRepo()
	p := NewProcessor(repo, nil, 1000, discardLogger())

	has, err := p.HasResume(context.Background(), "user-1")
	if err != nil || has {
		t.Errorf("HasResume = %v, %v; want false, nil", has, err)
	}

	repo.resumeIDByUser = "resume-1"
	has, err = p.HasResume(context.Background(), "user-1")
	if err != nil || !has {
		t.Errorf("HasResume = %v, %v; want true, nil", has, err)
	}

	if _, err := p.HasResume(context.Background(), ""); !errors.Is(err, ErrUserIDRequired) {
		t.Errorf("err = %v, want ErrUserIDRequired", err)
	}
}

func TestSearch(t *testing.T) {
	repo := newFakeRepo()
	repo.resumeIDByUser = "resume-1"
	repo.chunks["resume-1"] = []Chunk{
		{ChunkIndex: 0, Content: "solar installation at SunCo", SectionType: "experience", ImportanceScore: 0.4},
		{ChunkIndex: 1, Content: "certified SOLAR technician", SectionType: "skills", ImportanceScore: 0.9},
		{ChunkIndex: 2, Content: "drove a forklift", SectionType: "unknown", ImportanceScore: 0.8},
	}

	p := NewProcessor(repo, nil, 1000, discardLogger())

	results, err := p.Search(context.Background(), "solar", "user-1", 5)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}

	if len(results) != 2 {
		t.Fatalf("got %d results, want 2", len(results))
	}
	// ranked by importance score, case-insensitive match
	if results[0].ChunkIndex != 1 || results[1].ChunkIndex != 0 {
		t.Errorf("result order = %d, %d; want 1, 0", results[0].ChunkIndex, results[1].ChunkIndex)
	}
}

func TestSearch_LimitAndNoResume(t *testing.T) {
	repo := newFakeRepo()
	repo.resumeIDByUser = "resume-1"
	for i := 0; i < 10; i++ {
		repo.chunks["resume-1"] = append(repo.chunks["resume-1"], Chunk{
			ChunkIndex: i, Content: "wind turbine", ImportanceScore: 0.5,
		})
	}

	p := NewProcessor(repo, nil, 1000, discardLogger())

	results, err := p.Search(context.Background(), "wind", "user-1", 3)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(results) != 3 {
		t.Errorf("got %d results, want 3", len(results))
	}

	repo.resumeIDByUser = ""
	results, err = p.Search(context.Background(), "wind", "user-2", 3)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(results) != 0 {
		t.Errorf("got %d results for user without resume, want 0", len(results))
	}

	if _, err := p.Search(context.Background(), " ", "user-1", 3); !errors.Is(err, ErrQueryRequired) {
		t.Errorf("err = %v, want ErrQueryRequired", err)
	}
}

func TestDownloadURL(t *testing.T) {
	repo := newFakeRepo()
	repo.storageKey = "resumes/abc.pdf"

	p := NewProcessor(repo, &fakeStore{}, 1000, discardLogger())

	url, err := p.DownloadURL(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("DownloadURL: %v", err)
	}
	if url != "https://files.example.com/resumes/abc.pdf" {
		t.Errorf("url = %q", url)
	}
}

func TestDownloadURL_NotStored(t *testing.T) {
	p := NewProcessor(newFakeRepo(), &fakeStore{}, 1000, discardLogger())

	if _, err := p.DownloadURL(context.Background(), "user-1"); !errors.Is(err, ErrNotStored) {
		t.Errorf("err = %v, want ErrNotStored", err)
	}

	// no object store configured at all
	p = NewProcessor(newFakeRepo(), nil, 1000, discardLogger())
	if _, err := p.DownloadURL(context.Background(), "user-1"); !errors.Is(err, ErrNotStored) {
		t.Errorf("err = %v, want ErrNotStored", err)
	}

	if _, err := p.DownloadURL(context.Background(), ""); !errors.Is(err, ErrUserIDRequired) {
		t.Errorf("err = %v, want ErrUserIDRequired", err)
	}
}
