package search

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/gwd-records-api/internal/models"
)

type indexStub struct {
	healthy bool
	hits    []Hit
	err     error
	indexed []FileRecord
}

func (s *indexStub) Healthy() bool { return s.healthy }
func (s *indexStub) Search(string, int) ([]Hit, error) {
	return s.hits, s.err
}
func (s *indexStub) IndexFiles(records []FileRecord) error {
	s.indexed = append(s.indexed, records...)
	return nil
}
func (s *indexStub) DeleteFile(string) error { return nil }

type listerStub struct {
	filter models.FileEntryFilter
	files  []models.FileEntry
}

func (s *listerStub) List(_ context.Context, filter models.FileEntryFilter) ([]models.FileEntry, int, error) {
	s.filter = filter
	return s.files, len(s.files), nil
}

func sampleFile() models.FileEntry {
	uid := "sup-1"
	return models.FileEntry{
		FileNo:        "GWD/12/2024",
		ApplicantName: "Panchayat Office",
		SiteDetails: models.SiteDetails{
			{ID: "site-12", NameOfSite: "Borewell-12", Purpose: models.PurposeBWC, WorkStatus: models.WorkStatusWorkInProgress, SupervisorUID: &uid},
			{ID: "site-13", NameOfSite: "Pond-3"},
		},
	}
}

func TestRecordFromFile(t *testing.T) {
	rec := RecordFromFile(sampleFile())
	assert.Equal(t, "4757442f31322f32303234", rec.ID)
	assert.Equal(t, []string{"Borewell-12", "Pond-3"}, rec.SiteNames)
	assert.Equal(t, []string{"BWC"}, rec.Purposes)
	assert.Equal(t, []string{"sup-1"}, rec.SupervisorUIDs)
}

func TestServiceUsesHealthyIndex(t *testing.T) {
	index := &indexStub{healthy: true, hits: []Hit{{FileNo: "GWD/12/2024"}}}
	lister := &listerStub{}
	svc := NewService(index, lister, nil)

	hits, err := svc.Search(context.Background(), "borewell", 0)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Empty(t, lister.filter.Search)
}

func TestServiceFallsBackToSQL(t *testing.T) {
	index := &indexStub{healthy: true, err: errors.New("timeout")}
	lister := &listerStub{files: []models.FileEntry{sampleFile()}}
	svc := NewService(index, lister, nil)

	hits, err := svc.Search(context.Background(), " Borewell ", 5)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "Borewell", lister.filter.Search)
	assert.Equal(t, 5, lister.filter.PageSize)
	assert.Equal(t, []string{"Borewell-12", "Pond-3"}, hits[0].SiteNames)
}

func TestServiceWithoutIndex(t *testing.T) {
	lister := &listerStub{files: []models.FileEntry{sampleFile()}}
	svc := NewService(nil, lister, nil)

	hits, err := svc.Search(context.Background(), "GWD", 0)
	require.NoError(t, err)
	assert.Len(t, hits, 1)
	require.NoError(t, svc.Reindex([]models.FileEntry{sampleFile()}))
}

func TestServiceReindex(t *testing.T) {
	index := &indexStub{healthy: true}
	svc := NewService(index, &listerStub{}, nil)

	require.NoError(t, svc.Reindex([]models.FileEntry{sampleFile()}))
	require.Len(t, index.indexed, 1)
	assert.Equal(t, "GWD/12/2024", index.indexed[0].FileNo)
}
