package search

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sync/atomic"
	"time"

	meili "github.com/meilisearch/meilisearch-go"
	"go.uber.org/zap"

	"github.com/noah-isme/gwd-records-api/internal/models"
)

const idxFiles = "gwd_files"

// FileRecord is the indexed shape of a file entry.
type FileRecord struct {
	ID             string   `json:"id"`
	FileNo         string   `json:"fileNo"`
	ApplicantName  string   `json:"applicantName"`
	SiteNames      []string `json:"siteNames"`
	Purposes       []string `json:"purposes"`
	WorkStatuses   []string `json:"workStatuses"`
	SupervisorUIDs []string `json:"supervisorUids"`
}

// RecordFromFile flattens a file into its index record. File numbers contain
// slashes, so the document id is their hex encoding.
func RecordFromFile(file models.FileEntry) FileRecord {
	rec := FileRecord{
		ID:            DocumentID(file.FileNo),
		FileNo:        file.FileNo,
		ApplicantName: file.ApplicantName,
	}
	for _, site := range file.SiteDetails {
		rec.SiteNames = append(rec.SiteNames, site.NameOfSite)
		if site.Purpose != "" {
			rec.Purposes = append(rec.Purposes, string(site.Purpose))
		}
		if site.WorkStatus != "" {
			rec.WorkStatuses = append(rec.WorkStatuses, string(site.WorkStatus))
		}
		if site.SupervisorUID != nil {
			rec.SupervisorUIDs = append(rec.SupervisorUIDs, *site.SupervisorUID)
		}
	}
	return rec
}

// DocumentID returns the index id for a file number.
func DocumentID(fileNo string) string {
	return hex.EncodeToString([]byte(fileNo))
}

// Meili indexes and searches file entries via Meilisearch.
type Meili struct {
	client  meili.ServiceManager
	logger  *zap.Logger
	healthy atomic.Bool
	done    chan struct{}
}

// NewMeili creates a Meilisearch client and configures the file index. An
// unreachable server leaves the client unhealthy until the health loop sees
// it recover.
func NewMeili(url, apiKey string, logger *zap.Logger) *Meili {
	if logger == nil {
		logger = zap.NewNop()
	}
	m := &Meili{
		client: meili.New(url, meili.WithAPIKey(apiKey)),
		logger: logger,
		done:   make(chan struct{}),
	}

	if _, err := m.client.Health(); err != nil {
		logger.Warn("meilisearch unavailable", zap.String("url", url), zap.Error(err))
		m.healthy.Store(false)
	} else {
		m.healthy.Store(true)
		m.configureIndex()
	}

	go m.healthLoop()
	return m
}

func (m *Meili) configureIndex() {
	if _, err := m.client.CreateIndex(&meili.IndexConfig{Uid: idxFiles, PrimaryKey: "id"}); err != nil {
		m.logger.Debug("create index (may already exist)", zap.String("index", idxFiles), zap.Error(err))
	}
	index := m.client.Index(idxFiles)
	filterable := []interface{}{"purposes", "workStatuses", "supervisorUids"}
	if _, err := index.UpdateFilterableAttributes(&filterable); err != nil {
		m.logger.Warn("update filterable attributes", zap.String("index", idxFiles), zap.Error(err))
	}
	searchable := []string{"fileNo", "applicantName", "siteNames"}
	if _, err := index.UpdateSearchableAttributes(&searchable); err != nil {
		m.logger.Warn("update searchable attributes", zap.String("index", idxFiles), zap.Error(err))
	}
}

func (m *Meili) healthLoop() {
	ticker := time.NewTicker(10 * time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-m.done:
			return
		case <-ticker.C:
			_, err := m.client.Health()
			wasHealthy := m.healthy.Load()
			m.healthy.Store(err == nil)
			if err == nil && !wasHealthy {
				m.logger.Info("meilisearch recovered, reconfiguring index")
				m.configureIndex()
			}
		}
	}
}

// Close stops the background health monitor.
func (m *Meili) Close() {
	close(m.done)
}

// Healthy reports whether Meilisearch is reachable.
func (m *Meili) Healthy() bool {
	return m.healthy.Load()
}

// Search runs a full-text query over the file index.
func (m *Meili) Search(text string, limit int) ([]Hit, error) {
	if !m.healthy.Load() {
		return nil, fmt.Errorf("meilisearch unhealthy")
	}
	if limit <= 0 {
		limit = 20
	}
	resp, err := m.client.MultiSearch(&meili.MultiSearchRequest{
		Queries: []*meili.SearchRequest{{
			IndexUID: idxFiles,
			Query:    text,
			Limit:    int64(limit),
		}},
	})
	if err != nil {
		m.healthy.Store(false)
		return nil, fmt.Errorf("meilisearch search: %w", err)
	}
	hits := make([]Hit, 0)
	for _, result := range resp.Results {
		for _, hit := range result.Hits {
			hits = append(hits, Hit{
				FileNo:        decodeString(hit, "fileNo"),
				ApplicantName: decodeString(hit, "applicantName"),
				SiteNames:     decodeStrings(hit, "siteNames"),
			})
		}
	}
	return hits, nil
}

// IndexFiles adds or replaces file records.
func (m *Meili) IndexFiles(records []FileRecord) error {
	if len(records) == 0 {
		return nil
	}
	_, err := m.client.Index(idxFiles).AddDocuments(records, nil)
	return err
}

// DeleteFile removes a file from the index.
func (m *Meili) DeleteFile(fileNo string) error {
	_, err := m.client.Index(idxFiles).DeleteDocument(DocumentID(fileNo), nil)
	return err
}

func decodeString(hit meili.Hit, key string) string {
	raw, ok := hit[key]
	if !ok {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return ""
}

func decodeStrings(hit meili.Hit, key string) []string {
	raw, ok := hit[key]
	if !ok {
		return nil
	}
	var values []string
	if err := json.Unmarshal(raw, &values); err == nil {
		return values
	}
	return nil
}
