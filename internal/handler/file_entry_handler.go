package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/gwd-records-api/internal/dto"
	"github.com/noah-isme/gwd-records-api/internal/models"
	"github.com/noah-isme/gwd-records-api/internal/search"
	"github.com/noah-isme/gwd-records-api/pkg/response"
)

type fileEntryService interface {
	List(ctx context.Context, query dto.FileEntryQuery, actor *models.JWTClaims) ([]models.FileEntry, *response.Pagination, error)
	Get(ctx context.Context, fileNo string, actor *models.JWTClaims) (*models.FileEntry, error)
	Search(ctx context.Context, text string, limit int, actor *models.JWTClaims) ([]search.Hit, error)
	Create(ctx context.Context, req dto.FileEntryRequest, actor *models.JWTClaims) (*models.FileEntry, error)
	Update(ctx context.Context, fileNo string, req dto.FileEntryRequest, actor *models.JWTClaims) (*models.FileEntry, error)
	AssignSupervisor(ctx context.Context, fileNo, siteID string, req dto.AssignSupervisorRequest, actor *models.JWTClaims) (*models.FileEntry, error)
	AssignedSites(ctx context.Context, actor *models.JWTClaims) ([]dto.AssignedSite, error)
}

// FileEntryHandler serves file records and their sites. File numbers contain
// slashes, so clients escape them and the router matches on the raw path.
type FileEntryHandler struct {
	service fileEntryService
}

// NewFileEntryHandler constructs the handler.
func NewFileEntryHandler(service fileEntryService) *FileEntryHandler {
	return &FileEntryHandler{service: service}
}

// List godoc
// @Summary List files
// @Tags Files
// @Produce json
// @Param page query int false "Page number"
// @Param page_size query int false "Page size"
// @Param search query string false "File number or applicant contains"
// @Success 200 {object} response.Envelope
// @Router /files [get]
func (h *FileEntryHandler) List(c *gin.Context) {
	claims, ok := claimsFromContext(c)
	if !ok {
		return
	}
	page, err := queryInt(c, "page", 1)
	if err != nil {
		response.Error(c, err)
		return
	}
	size, err := queryInt(c, "page_size", 20)
	if err != nil {
		response.Error(c, err)
		return
	}
	files, pagination, err := h.service.List(c.Request.Context(), dto.FileEntryQuery{
		Search:   strings.TrimSpace(c.Query("search")),
		Page:     page,
		PageSize: size,
	}, claims)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, files, pagination)
}

// Search godoc
// @Summary Full-text file search
// @Tags Files
// @Produce json
// @Param q query string true "Search text"
// @Param limit query int false "Maximum hits"
// @Success 200 {object} response.Envelope
// @Failure 503 {object} response.Envelope
// @Router /files/search [get]
func (h *FileEntryHandler) Search(c *gin.Context) {
	claims, ok := claimsFromContext(c)
	if !ok {
		return
	}
	limit, err := queryInt(c, "limit", 20)
	if err != nil {
		response.Error(c, err)
		return
	}
	hits, err := h.service.Search(c.Request.Context(), c.Query("q"), limit, claims)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, hits, nil)
}

// Get godoc
// @Summary Get file
// @Tags Files
// @Produce json
// @Param fileNo path string true "URL-escaped file number"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /files/{fileNo} [get]
func (h *FileEntryHandler) Get(c *gin.Context) {
	claims, ok := claimsFromContext(c)
	if !ok {
		return
	}
	file, err := h.service.Get(c.Request.Context(), c.Param("fileNo"), claims)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, file, nil)
}

// Create godoc
// @Summary Create file
// @Tags Files
// @Accept json
// @Produce json
// @Param payload body dto.FileEntryRequest true "File"
// @Success 201 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /files [post]
func (h *FileEntryHandler) Create(c *gin.Context) {
	claims, ok := claimsFromContext(c)
	if !ok {
		return
	}
	var req dto.FileEntryRequest
	if !bindJSON(c, &req) {
		return
	}
	file, err := h.service.Create(c.Request.Context(), req, claims)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, file)
}

// Update godoc
// @Summary Replace file
// @Tags Files
// @Accept json
// @Produce json
// @Param fileNo path string true "URL-escaped file number"
// @Param payload body dto.FileEntryRequest true "File"
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /files/{fileNo} [put]
func (h *FileEntryHandler) Update(c *gin.Context) {
	claims, ok := claimsFromContext(c)
	if !ok {
		return
	}
	var req dto.FileEntryRequest
	if !bindJSON(c, &req) {
		return
	}
	file, err := h.service.Update(c.Request.Context(), c.Param("fileNo"), req, claims)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, file, nil)
}

// AssignSupervisor godoc
// @Summary Assign or clear a site supervisor
// @Tags Files
// @Accept json
// @Produce json
// @Param fileNo path string true "URL-escaped file number"
// @Param siteId path string true "Site ID"
// @Param payload body dto.AssignSupervisorRequest true "Supervisor"
// @Success 200 {object} response.Envelope
// @Router /files/{fileNo}/sites/{siteId}/supervisor [put]
func (h *FileEntryHandler) AssignSupervisor(c *gin.Context) {
	claims, ok := claimsFromContext(c)
	if !ok {
		return
	}
	var req dto.AssignSupervisorRequest
	if !bindJSON(c, &req) {
		return
	}
	file, err := h.service.AssignSupervisor(c.Request.Context(), c.Param("fileNo"), c.Param("siteId"), req, claims)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, file, nil)
}

// AssignedSites godoc
// @Summary Sites assigned to the calling supervisor
// @Tags Files
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /sites/assigned [get]
func (h *FileEntryHandler) AssignedSites(c *gin.Context) {
	claims, ok := claimsFromContext(c)
	if !ok {
		return
	}
	sites, err := h.service.AssignedSites(c.Request.Context(), claims)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, sites, nil)
}
