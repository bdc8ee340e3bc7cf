package handler

import (
	"context"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/gwd-records-api/internal/dto"
	"github.com/noah-isme/gwd-records-api/internal/models"
	appErrors "github.com/noah-isme/gwd-records-api/pkg/errors"
	"github.com/noah-isme/gwd-records-api/pkg/response"
)

type fakeUserSrv struct {
	lastFilter models.UserFilter
	lastCreate dto.CreateUserRequest
	lastRole   dto.ChangeRoleRequest
	lastID     string
	err        error
}

func (f *fakeUserSrv) List(_ context.Context, filter models.UserFilter, _ *models.JWTClaims) ([]models.User, *response.Pagination, error) {
	f.lastFilter = filter
	return []models.User{{ID: "sup-1"}}, &response.Pagination{Page: filter.Page, PageSize: filter.PageSize, TotalCount: 1}, f.err
}

func (f *fakeUserSrv) Get(_ context.Context, id string, _ *models.JWTClaims) (*models.User, error) {
	f.lastID = id
	if f.err != nil {
		return nil, f.err
	}
	return &models.User{ID: id}, nil
}

func (f *fakeUserSrv) Create(_ context.Context, req dto.CreateUserRequest, _ *models.JWTClaims) (*models.User, error) {
	f.lastCreate = req
	if f.err != nil {
		return nil, f.err
	}
	return &models.User{ID: req.ID, Email: req.Email, Role: req.Role, Active: true}, nil
}

func (f *fakeUserSrv) ChangeRole(_ context.Context, id string, req dto.ChangeRoleRequest, _ *models.JWTClaims) (*dto.RoleChangeResult, error) {
	f.lastID, f.lastRole = id, req
	if f.err != nil {
		return nil, f.err
	}
	return &dto.RoleChangeResult{User: &models.User{ID: id, Role: req.Role}, SitesUnassigned: 2, OrphanSweepQueued: true}, nil
}

func TestUserHandlerListFilters(t *testing.T) {
	srv := &fakeUserSrv{}
	handler := NewUserHandler(srv)

	c, rec := newTestContext(http.MethodGet, "/users?role=supervisor&active=true&search=ravi&page=3", "", editor())
	handler.List(c)

	require.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, srv.lastFilter.Role)
	assert.Equal(t, models.RoleSupervisor, *srv.lastFilter.Role)
	require.NotNil(t, srv.lastFilter.Active)
	assert.True(t, *srv.lastFilter.Active)
	assert.Equal(t, "ravi", srv.lastFilter.Search)
	assert.Equal(t, 3, srv.lastFilter.Page)
	assert.Equal(t, 20, srv.lastFilter.PageSize)
}

func TestUserHandlerListRejectsBadActive(t *testing.T) {
	handler := NewUserHandler(&fakeUserSrv{})

	c, rec := newTestContext(http.MethodGet, "/users?active=sometimes", "", editor())
	handler.List(c)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUserHandlerCreate(t *testing.T) {
	srv := &fakeUserSrv{}
	handler := NewUserHandler(srv)

	c, rec := newTestContext(http.MethodPost, "/users", `{"id":"sup-3","email":"anil@gwd.example","full_name":"Anil","role":"SUPERVISOR"}`, editor())
	handler.Create(c)

	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "sup-3", srv.lastCreate.ID)
	assert.Equal(t, models.RoleSupervisor, srv.lastCreate.Role)
}

func TestUserHandlerChangeRole(t *testing.T) {
	srv := &fakeUserSrv{}
	handler := NewUserHandler(srv)

	c, rec := newTestContext(http.MethodPut, "/users/sup-1/role", `{"role":"VIEWER"}`, editor())
	c.Params = gin.Params{{Key: "id", Value: "sup-1"}}
	handler.ChangeRole(c)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "sup-1", srv.lastID)
	assert.Equal(t, models.RoleViewer, srv.lastRole.Role)
	assert.Contains(t, rec.Body.String(), `"orphanSweepQueued":true`)
}

func TestUserHandlerGetForbidden(t *testing.T) {
	handler := NewUserHandler(&fakeUserSrv{err: appErrors.ErrForbidden})

	c, rec := newTestContext(http.MethodGet, "/users/sup-1", "", supervisor())
	c.Params = gin.Params{{Key: "id", Value: "sup-1"}}
	handler.Get(c)

	assert.Equal(t, http.StatusForbidden, rec.Code)
}
