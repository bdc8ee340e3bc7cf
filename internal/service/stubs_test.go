package service

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/noah-isme/gwd-records-api/internal/models"
	"github.com/noah-isme/gwd-records-api/internal/repository"
)

type fileRepoStub struct {
	mu    sync.Mutex
	files map[string]models.FileEntry
	clock time.Time
}

func newFileRepoStub(files ...models.FileEntry) *fileRepoStub {
	stub := &fileRepoStub{files: make(map[string]models.FileEntry), clock: time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)}
	for _, f := range files {
		if f.UpdatedAt.IsZero() {
			f.UpdatedAt = stub.tick()
		}
		stub.files[f.FileNo] = cloneFile(f)
	}
	return stub
}

func (s *fileRepoStub) tick() time.Time {
	s.clock = s.clock.Add(time.Second)
	return s.clock
}

func cloneFile(f models.FileEntry) models.FileEntry {
	f.SiteDetails = append(models.SiteDetails(nil), f.SiteDetails...)
	f.RemittanceDetails = append(models.Remittances(nil), f.RemittanceDetails...)
	f.PaymentDetails = append(models.Payments(nil), f.PaymentDetails...)
	return f
}

func (s *fileRepoStub) get(fileNo string) models.FileEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return cloneFile(s.files[fileNo])
}

func (s *fileRepoStub) FindByFileNo(ctx context.Context, fileNo string) (*models.FileEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	f, ok := s.files[fileNo]
	if !ok {
		return nil, sql.ErrNoRows
	}
	out := cloneFile(f)
	return &out, nil
}

func (s *fileRepoStub) sorted() []models.FileEntry {
	out := make([]models.FileEntry, 0, len(s.files))
	for _, f := range s.files {
		out = append(out, cloneFile(f))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].FileNo < out[j].FileNo })
	return out
}

func (s *fileRepoStub) List(ctx context.Context, filter models.FileEntryFilter) ([]models.FileEntry, int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.FileEntry, 0)
	for _, f := range s.sorted() {
		if filter.Search != "" &&
			!strings.Contains(strings.ToLower(f.FileNo), strings.ToLower(filter.Search)) &&
			!strings.Contains(strings.ToLower(f.ApplicantName), strings.ToLower(filter.Search)) {
			continue
		}
		out = append(out, f)
	}
	return out, len(out), nil
}

func (s *fileRepoStub) All(ctx context.Context) ([]models.FileEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sorted(), nil
}

func (s *fileRepoStub) ListByFileNos(ctx context.Context, fileNos []string) ([]models.FileEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.FileEntry, 0, len(fileNos))
	for _, no := range fileNos {
		if f, ok := s.files[no]; ok {
			out = append(out, cloneFile(f))
		}
	}
	return out, nil
}

func (s *fileRepoStub) ListBySupervisor(ctx context.Context, uid string) ([]models.FileEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.FileEntry, 0)
	for _, f := range s.sorted() {
		for _, site := range f.SiteDetails {
			if site.SupervisedBy(uid) {
				out = append(out, f)
				break
			}
		}
	}
	return out, nil
}

func (s *fileRepoStub) Create(ctx context.Context, file *models.FileEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.files[file.FileNo]; exists {
		return repository.ErrDuplicateKey
	}
	now := s.tick()
	file.CreatedAt = now
	file.UpdatedAt = now
	s.files[file.FileNo] = cloneFile(*file)
	return nil
}

func (s *fileRepoStub) Update(ctx context.Context, file *models.FileEntry, expected time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.updateLocked(file, expected)
}

func (s *fileRepoStub) updateLocked(file *models.FileEntry, expected time.Time) error {
	current, ok := s.files[file.FileNo]
	if !ok || !current.UpdatedAt.Equal(expected) {
		return repository.ErrStaleWrite
	}
	file.UpdatedAt = s.tick()
	s.files[file.FileNo] = cloneFile(*file)
	return nil
}

func (s *fileRepoStub) ClearSupervisor(ctx context.Context, uid string) ([]string, int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fileNos := make([]string, 0)
	cleared := 0
	for _, f := range s.sorted() {
		touched := false
		for i := range f.SiteDetails {
			if f.SiteDetails[i].SupervisedBy(uid) {
				f.SiteDetails[i].SupervisorUID = nil
				f.SiteDetails[i].SupervisorName = ""
				f.SiteDetails[i].Version++
				cleared++
				touched = true
			}
		}
		if touched {
			f.UpdatedAt = s.tick()
			s.files[f.FileNo] = f
			fileNos = append(fileNos, f.FileNo)
		}
	}
	return fileNos, cleared, nil
}

type pendingRepoStub struct {
	mu      sync.Mutex
	updates map[string]models.PendingUpdate
	files   *fileRepoStub
	seq     int
	clock   time.Time
}

func newPendingRepoStub(files *fileRepoStub) *pendingRepoStub {
	return &pendingRepoStub{
		updates: make(map[string]models.PendingUpdate),
		files:   files,
		clock:   time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC),
	}
}

func (s *pendingRepoStub) Create(ctx context.Context, update *models.PendingUpdate) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seq++
	if update.ID == "" {
		update.ID = fmt.Sprintf("pu-%d", s.seq)
	}
	s.clock = s.clock.Add(time.Minute)
	update.SubmittedAt = s.clock
	s.updates[update.ID] = *update
	return nil
}

func (s *pendingRepoStub) GetByID(ctx context.Context, id string) (*models.PendingUpdate, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	update, ok := s.updates[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &update, nil
}

func (s *pendingRepoStub) List(ctx context.Context, filter models.PendingUpdateFilter) ([]models.PendingUpdate, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.PendingUpdate, 0)
	for _, update := range s.updates {
		if filter.FileNo != "" && update.FileNo != filter.FileNo {
			continue
		}
		if filter.SubmittedBy != "" && update.SubmittedByUID != filter.SubmittedBy {
			continue
		}
		if len(filter.Statuses) > 0 {
			match := false
			for _, status := range filter.Statuses {
				match = match || status == update.Status
			}
			if !match {
				continue
			}
		}
		out = append(out, update)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SubmittedAt.After(out[j].SubmittedAt) })
	return out, nil
}

func (s *pendingRepoStub) transitionLocked(t models.PendingUpdateTransition) error {
	update, ok := s.updates[t.ID]
	if !ok || update.Status != models.PendingUpdateStatusPending {
		return sql.ErrNoRows
	}
	update.Status = t.Status
	if t.Notes != nil {
		update.Notes = t.Notes
	}
	update.ReviewedBy = t.ReviewedBy
	reviewedAt := t.ReviewedAt
	update.ReviewedAt = &reviewedAt
	s.updates[t.ID] = update
	return nil
}

func (s *pendingRepoStub) Transition(ctx context.Context, t models.PendingUpdateTransition) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.transitionLocked(t)
}

func (s *pendingRepoStub) ApproveAndMerge(ctx context.Context, file *models.FileEntry, expected time.Time, t models.PendingUpdateTransition) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	before := s.updates[t.ID]
	if err := s.transitionLocked(t); err != nil {
		return err
	}
	s.files.mu.Lock()
	defer s.files.mu.Unlock()
	if err := s.files.updateLocked(file, expected); err != nil {
		s.updates[t.ID] = before
		return err
	}
	return nil
}

func (s *pendingRepoStub) CountByStatus(ctx context.Context) (map[models.PendingUpdateStatus]int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	counts := make(map[models.PendingUpdateStatus]int)
	for _, update := range s.updates {
		counts[update.Status]++
	}
	return counts, nil
}

type userRepoStub struct {
	mu    sync.Mutex
	users map[string]models.User
}

func newUserRepoStub(users ...models.User) *userRepoStub {
	stub := &userRepoStub{users: make(map[string]models.User)}
	for _, u := range users {
		stub.users[u.ID] = u
	}
	return stub
}

func (s *userRepoStub) FindByID(ctx context.Context, id string) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &u, nil
}

func (s *userRepoStub) List(ctx context.Context, filter models.UserFilter) ([]models.User, int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.User, 0, len(s.users))
	for _, u := range s.users {
		if filter.Role != nil && u.Role != *filter.Role {
			continue
		}
		if filter.Active != nil && u.Active != *filter.Active {
			continue
		}
		out = append(out, u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].FullName < out[j].FullName })
	return out, len(out), nil
}

func (s *userRepoStub) Create(ctx context.Context, user *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.users[user.ID]; exists {
		return repository.ErrDuplicateKey
	}
	s.users[user.ID] = *user
	return nil
}

func (s *userRepoStub) UpdateRole(ctx context.Context, id string, role models.UserRole) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return sql.ErrNoRows
	}
	u.Role = role
	s.users[id] = u
	return nil
}

type auditStub struct {
	mu   sync.Mutex
	logs []*models.AuditLog
}

func (a *auditStub) CreateAuditLog(ctx context.Context, log *models.AuditLog) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.logs = append(a.logs, log)
	return nil
}

func (a *auditStub) actions() []string {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]string, 0, len(a.logs))
	for _, l := range a.logs {
		out = append(out, l.Action)
	}
	return out
}

func strPtr(s string) *string { return &s }

func datePtr(year int, month time.Month, day int) *time.Time {
	t := time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
	return &t
}

// newSite returns a minimal site that passes validation.
func newSite(name string) models.SiteDetail {
	return models.SiteDetail{NameOfSite: name, Purpose: models.PurposeBWC, WorkStatus: models.WorkStatusUnderProcess}
}

func assigned(site models.SiteDetail, uid string) models.SiteDetail {
	site.SupervisorUID = &uid
	return site
}

func editorClaims() *models.JWTClaims {
	return &models.JWTClaims{UserID: "editor-1", Role: models.RoleEditor, Email: "editor@gwd.local", FullName: "Asha Editor"}
}

func supervisorClaims(uid, name string) *models.JWTClaims {
	return &models.JWTClaims{UserID: uid, Role: models.RoleSupervisor, Email: uid + "@gwd.local", FullName: name}
}

// sampleFile returns a file with two sites; Borewell-12 belongs to sup-1.
func sampleFile() models.FileEntry {
	file := models.FileEntry{
		FileNo:        "GWD/2026/001",
		ApplicantName: "Panchayat Ward 4",
		RemittanceDetails: models.Remittances{
			{Date: datePtr(2026, 1, 10), Amount: decimal.NewFromInt(500000), Account: "Plan"},
		},
		PaymentDetails: models.Payments{
			{Date: datePtr(2026, 2, 1), Amount: decimal.NewFromInt(120000), Account: "Plan"},
		},
		SiteDetails: models.SiteDetails{
			{
				ID:             "site-b12",
				NameOfSite:     "Borewell-12",
				Purpose:        models.PurposeBWC,
				WorkStatus:     models.WorkStatusWorkInProgress,
				SupervisorUID:  strPtr("sup-1"),
				SupervisorName: "Ravi Supervisor",
				EstimateAmount: decimal.NewFromInt(250000),
				WorkOrderDate:  datePtr(2026, 1, 15),
				Version:        1,
			},
			{
				ID:             "site-p03",
				NameOfSite:     "Pond-03",
				Purpose:        models.PurposeARS,
				WorkStatus:     models.WorkStatusWorkInProgress,
				SupervisorUID:  strPtr("sup-2"),
				SupervisorName: "Meera Supervisor",
				Version:        1,
			},
		},
	}
	file.RecomputeTotals()
	return file
}
