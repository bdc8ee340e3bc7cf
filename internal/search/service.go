package search

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/noah-isme/gwd-records-api/internal/models"
)

// Hit is one matching file.
type Hit struct {
	FileNo        string   `json:"fileNo"`
	ApplicantName string   `json:"applicantName"`
	SiteNames     []string `json:"siteNames"`
}

// Index is the full-text backend. Meili implements it.
type Index interface {
	Healthy() bool
	Search(text string, limit int) ([]Hit, error)
	IndexFiles(records []FileRecord) error
	DeleteFile(fileNo string) error
}

type fileLister interface {
	List(ctx context.Context, filter models.FileEntryFilter) ([]models.FileEntry, int, error)
}

// Service tries the full-text index first and falls back to SQL matching.
type Service struct {
	index    Index
	fallback fileLister
	logger   *zap.Logger
}

// NewService creates a search service. index may be nil when search is disabled.
func NewService(index Index, fallback fileLister, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{index: index, fallback: fallback, logger: logger}
}

// Search returns files matching text.
func (s *Service) Search(ctx context.Context, text string, limit int) ([]Hit, error) {
	text = strings.TrimSpace(text)
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if s.index != nil && s.index.Healthy() {
		hits, err := s.index.Search(text, limit)
		if err == nil {
			return hits, nil
		}
		s.logger.Warn("search index error, falling back to sql", zap.Error(err))
	}

	files, _, err := s.fallback.List(ctx, models.FileEntryFilter{Search: text, PageSize: limit})
	if err != nil {
		return nil, err
	}
	hits := make([]Hit, 0, len(files))
	for _, file := range files {
		rec := RecordFromFile(file)
		hits = append(hits, Hit{FileNo: rec.FileNo, ApplicantName: rec.ApplicantName, SiteNames: rec.SiteNames})
	}
	return hits, nil
}

// IndexFile indexes a file (fire-and-forget).
func (s *Service) IndexFile(file models.FileEntry) {
	if s.index == nil || !s.index.Healthy() {
		return
	}
	rec := RecordFromFile(file)
	go func() {
		if err := s.index.IndexFiles([]FileRecord{rec}); err != nil {
			s.logger.Warn("index file", zap.String("file_no", rec.FileNo), zap.Error(err))
		}
	}()
}

// Reindex replaces index records for every given file.
func (s *Service) Reindex(files []models.FileEntry) error {
	if s.index == nil || !s.index.Healthy() {
		return nil
	}
	records := make([]FileRecord, 0, len(files))
	for _, file := range files {
		records = append(records, RecordFromFile(file))
	}
	return s.index.IndexFiles(records)
}
