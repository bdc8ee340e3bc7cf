package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/gwd-records-api/internal/dto"
	"github.com/noah-isme/gwd-records-api/internal/models"
	"github.com/noah-isme/gwd-records-api/internal/search"
	appErrors "github.com/noah-isme/gwd-records-api/pkg/errors"
	"github.com/noah-isme/gwd-records-api/pkg/response"
)

type fakeFileEntrySrv struct {
	lastQuery  dto.FileEntryQuery
	lastFileNo string
	lastSiteID string
	lastReq    dto.FileEntryRequest
	lastAssign dto.AssignSupervisorRequest
	lastText   string
	lastLimit  int
	err        error
}

func (f *fakeFileEntrySrv) List(_ context.Context, query dto.FileEntryQuery, _ *models.JWTClaims) ([]models.FileEntry, *response.Pagination, error) {
	f.lastQuery = query
	if f.err != nil {
		return nil, nil, f.err
	}
	return []models.FileEntry{{FileNo: "GWD/2026/001"}}, &response.Pagination{Page: query.Page, PageSize: query.PageSize, TotalCount: 1}, nil
}

func (f *fakeFileEntrySrv) Get(_ context.Context, fileNo string, _ *models.JWTClaims) (*models.FileEntry, error) {
	f.lastFileNo = fileNo
	if f.err != nil {
		return nil, f.err
	}
	return &models.FileEntry{FileNo: fileNo}, nil
}

func (f *fakeFileEntrySrv) Search(_ context.Context, text string, limit int, _ *models.JWTClaims) ([]search.Hit, error) {
	f.lastText, f.lastLimit = text, limit
	if f.err != nil {
		return nil, f.err
	}
	return []search.Hit{{FileNo: "GWD/2026/001", ApplicantName: "Panchayat Ward 4", SiteNames: []string{"Borewell-12"}}}, nil
}

func (f *fakeFileEntrySrv) Create(_ context.Context, req dto.FileEntryRequest, _ *models.JWTClaims) (*models.FileEntry, error) {
	f.lastReq = req
	if f.err != nil {
		return nil, f.err
	}
	return &models.FileEntry{FileNo: req.FileNo, ApplicantName: req.ApplicantName}, nil
}

func (f *fakeFileEntrySrv) Update(_ context.Context, fileNo string, req dto.FileEntryRequest, _ *models.JWTClaims) (*models.FileEntry, error) {
	f.lastFileNo, f.lastReq = fileNo, req
	if f.err != nil {
		return nil, f.err
	}
	return &models.FileEntry{FileNo: fileNo, ApplicantName: req.ApplicantName}, nil
}

func (f *fakeFileEntrySrv) AssignSupervisor(_ context.Context, fileNo, siteID string, req dto.AssignSupervisorRequest, _ *models.JWTClaims) (*models.FileEntry, error) {
	f.lastFileNo, f.lastSiteID, f.lastAssign = fileNo, siteID, req
	if f.err != nil {
		return nil, f.err
	}
	return &models.FileEntry{FileNo: fileNo}, nil
}

func (f *fakeFileEntrySrv) AssignedSites(context.Context, *models.JWTClaims) ([]dto.AssignedSite, error) {
	if f.err != nil {
		return nil, f.err
	}
	return []dto.AssignedSite{{FileNo: "GWD/2026/001", Site: models.SiteDetail{ID: "site-b12", NameOfSite: "Borewell-12"}, HasPending: true}}, nil
}

func TestFileEntryHandlerListPaginates(t *testing.T) {
	srv := &fakeFileEntrySrv{}
	handler := NewFileEntryHandler(srv)

	c, rec := newTestContext(http.MethodGet, "/files?page=2&page_size=5&search=ward", "", editor())
	handler.List(c)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, dto.FileEntryQuery{Search: "ward", Page: 2, PageSize: 5}, srv.lastQuery)
	envelope := decodeEnvelope(t, rec)
	assert.EqualValues(t, 2, envelope.Pagination["page"])
	assert.EqualValues(t, 1, envelope.Pagination["total_count"])
}

func TestFileEntryHandlerListDefaults(t *testing.T) {
	srv := &fakeFileEntrySrv{}
	handler := NewFileEntryHandler(srv)

	c, rec := newTestContext(http.MethodGet, "/files", "", editor())
	handler.List(c)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, srv.lastQuery.Page)
	assert.Equal(t, 20, srv.lastQuery.PageSize)
}

func TestFileEntryHandlerGetUsesUnescapedFileNo(t *testing.T) {
	srv := &fakeFileEntrySrv{}
	handler := NewFileEntryHandler(srv)

	c, rec := newTestContext(http.MethodGet, "/files/GWD%2F2026%2F001", "", editor())
	c.Params = gin.Params{{Key: "fileNo", Value: "GWD/2026/001"}}
	handler.Get(c)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "GWD/2026/001", srv.lastFileNo)
}

func TestFileEntryHandlerGetNotFound(t *testing.T) {
	handler := NewFileEntryHandler(&fakeFileEntrySrv{err: appErrors.Clone(appErrors.ErrNotFound, "file not found")})

	c, rec := newTestContext(http.MethodGet, "/files/missing", "", editor())
	c.Params = gin.Params{{Key: "fileNo", Value: "missing"}}
	handler.Get(c)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestFileEntryHandlerCreateAndUpdate(t *testing.T) {
	srv := &fakeFileEntrySrv{}
	handler := NewFileEntryHandler(srv)

	body := `{"fileNo":"GWD/2026/002","applicantName":"Village Council","remittanceDetails":[{"amount":"1000.50"}]}`
	c, rec := newTestContext(http.MethodPost, "/files", body, editor())
	handler.Create(c)
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "GWD/2026/002", srv.lastReq.FileNo)
	require.Len(t, srv.lastReq.RemittanceDetails, 1)
	assert.Equal(t, "1000.5", srv.lastReq.RemittanceDetails[0].Amount.String())

	c, rec = newTestContext(http.MethodPut, "/files/GWD%2F2026%2F002", `{"fileNo":"GWD/2026/002","applicantName":"Renamed"}`, editor())
	c.Params = gin.Params{{Key: "fileNo", Value: "GWD/2026/002"}}
	handler.Update(c)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Renamed", srv.lastReq.ApplicantName)
}

func TestFileEntryHandlerCreateConflict(t *testing.T) {
	handler := NewFileEntryHandler(&fakeFileEntrySrv{err: appErrors.Clone(appErrors.ErrConflict, "file already exists")})

	c, rec := newTestContext(http.MethodPost, "/files", `{"fileNo":"GWD/2026/001","applicantName":"x"}`, editor())
	handler.Create(c)

	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestFileEntryHandlerAssignSupervisor(t *testing.T) {
	srv := &fakeFileEntrySrv{}
	handler := NewFileEntryHandler(srv)

	c, rec := newTestContext(http.MethodPut, "/files/x/sites/site-b12/supervisor", `{"supervisorUid":"sup-2"}`, editor())
	c.Params = gin.Params{{Key: "fileNo", Value: "GWD/2026/001"}, {Key: "siteId", Value: "site-b12"}}
	handler.AssignSupervisor(c)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "site-b12", srv.lastSiteID)
	require.NotNil(t, srv.lastAssign.SupervisorUID)
	assert.Equal(t, "sup-2", *srv.lastAssign.SupervisorUID)

	c, rec = newTestContext(http.MethodPut, "/files/x/sites/site-b12/supervisor", `{"supervisorUid":null}`, editor())
	c.Params = gin.Params{{Key: "fileNo", Value: "GWD/2026/001"}, {Key: "siteId", Value: "site-b12"}}
	handler.AssignSupervisor(c)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Nil(t, srv.lastAssign.SupervisorUID)
}

func TestFileEntryHandlerSearchAndAssignedSites(t *testing.T) {
	srv := &fakeFileEntrySrv{}
	handler := NewFileEntryHandler(srv)

	c, rec := newTestContext(http.MethodGet, "/files/search?q=borewell&limit=3", "", editor())
	handler.Search(c)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "borewell", srv.lastText)
	assert.Equal(t, 3, srv.lastLimit)

	c, rec = newTestContext(http.MethodGet, "/sites/assigned", "", supervisor())
	handler.AssignedSites(c)
	require.Equal(t, http.StatusOK, rec.Code)
	var sites []dto.AssignedSite
	require.NoError(t, json.Unmarshal(decodeEnvelope(t, rec).Data, &sites))
	require.Len(t, sites, 1)
	assert.True(t, sites[0].HasPending)
}

func TestFileEntryHandlerSearchUnavailable(t *testing.T) {
	handler := NewFileEntryHandler(&fakeFileEntrySrv{err: appErrors.ErrUnavailable})

	c, rec := newTestContext(http.MethodGet, "/files/search?q=pond", "", editor())
	handler.Search(c)

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}
