package handler

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/gwd-records-api/internal/dto"
	"github.com/noah-isme/gwd-records-api/internal/models"
	appErrors "github.com/noah-isme/gwd-records-api/pkg/errors"
	"github.com/noah-isme/gwd-records-api/pkg/response"
)

const defaultStreamHeartbeat = 25 * time.Second

type pendingUpdateService interface {
	Submit(ctx context.Context, req dto.SubmitPendingUpdateRequest, actor *models.JWTClaims) (*models.PendingUpdate, error)
	List(ctx context.Context, query dto.PendingUpdateQuery, actor *models.JWTClaims) ([]models.PendingUpdate, error)
	Actionable(ctx context.Context, fileNo string, actor *models.JWTClaims) ([]models.PendingUpdate, error)
	ReassignQueue(ctx context.Context, fileNo string, actor *models.JWTClaims) ([]models.PendingUpdate, error)
	Get(ctx context.Context, id string, actor *models.JWTClaims) (*models.PendingUpdate, error)
	Subscribe(ctx context.Context, query dto.PendingUpdateQuery, actor *models.JWTClaims, fn func([]models.PendingUpdate)) (func(), error)
	Diff(ctx context.Context, id string, actor *models.JWTClaims) (*dto.PendingUpdateReview, error)
	Approve(ctx context.Context, id string, actor *models.JWTClaims) (*dto.ApprovalResult, error)
	Reject(ctx context.Context, id string, req dto.RejectPendingUpdateRequest, actor *models.JWTClaims) (*models.PendingUpdate, error)
	SweepOrphans(ctx context.Context, req dto.OrphanSweepRequest, actor *models.JWTClaims) (*dto.OrphanSweepResult, error)
}

// PendingUpdateHandler exposes the supervisor submission and editor review workflow.
type PendingUpdateHandler struct {
	service   pendingUpdateService
	heartbeat time.Duration
}

// NewPendingUpdateHandler constructs the handler.
func NewPendingUpdateHandler(service pendingUpdateService) *PendingUpdateHandler {
	return &PendingUpdateHandler{service: service, heartbeat: defaultStreamHeartbeat}
}

// List godoc
// @Summary List pending updates
// @Description Newest first. Supervisors only see their own submissions.
// @Tags PendingUpdates
// @Produce json
// @Param fileNo query string false "File number"
// @Param status query string false "Comma separated statuses"
// @Param mine query bool false "Only the caller's submissions"
// @Param limit query int false "Limit"
// @Param offset query int false "Offset"
// @Success 200 {object} response.Envelope
// @Router /pending-updates [get]
func (h *PendingUpdateHandler) List(c *gin.Context) {
	claims, ok := claimsFromContext(c)
	if !ok {
		return
	}
	query, err := parsePendingUpdateQuery(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	updates, err := h.service.List(c.Request.Context(), query, claims)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, updates, nil)
}

// Actionable godoc
// @Summary Pending updates awaiting review
// @Tags PendingUpdates
// @Produce json
// @Param fileNo query string false "File number"
// @Success 200 {object} response.Envelope
// @Router /pending-updates/actionable [get]
func (h *PendingUpdateHandler) Actionable(c *gin.Context) {
	claims, ok := claimsFromContext(c)
	if !ok {
		return
	}
	updates, err := h.service.Actionable(c.Request.Context(), c.Query("fileNo"), claims)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, updates, nil)
}

// Reassign godoc
// @Summary Orphaned updates waiting for a new site supervisor
// @Tags PendingUpdates
// @Produce json
// @Param fileNo query string false "File number"
// @Success 200 {object} response.Envelope
// @Router /pending-updates/reassign [get]
func (h *PendingUpdateHandler) Reassign(c *gin.Context) {
	claims, ok := claimsFromContext(c)
	if !ok {
		return
	}
	updates, err := h.service.ReassignQueue(c.Request.Context(), c.Query("fileNo"), claims)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, updates, nil)
}

// Stream godoc
// @Summary Live pending update list
// @Description Server-sent events. Every event carries the full filtered list.
// @Tags PendingUpdates
// @Produce text/event-stream
// @Param fileNo query string false "File number"
// @Param status query string false "Comma separated statuses"
// @Param mine query bool false "Only the caller's submissions"
// @Success 200 {string} string
// @Router /pending-updates/stream [get]
func (h *PendingUpdateHandler) Stream(c *gin.Context) {
	claims, ok := claimsFromContext(c)
	if !ok {
		return
	}
	query, err := parsePendingUpdateQuery(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	ctx, cancel := context.WithCancel(c.Request.Context())
	defer cancel()

	snapshots := make(chan []models.PendingUpdate, 1)
	stop, err := h.service.Subscribe(ctx, query, claims, func(updates []models.PendingUpdate) {
		// Only the newest snapshot matters to the client.
		select {
		case <-snapshots:
		default:
		}
		select {
		case snapshots <- updates:
		default:
		}
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	defer stop()

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")
	c.Status(http.StatusOK)
	c.Writer.Flush()

	heartbeat := time.NewTicker(h.heartbeat)
	defer heartbeat.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case updates := <-snapshots:
			c.SSEvent("pending-updates", updates)
			c.Writer.Flush()
		case now := <-heartbeat.C:
			c.SSEvent("heartbeat", now.UTC().Format(time.RFC3339))
			c.Writer.Flush()
		}
	}
}

// Submit godoc
// @Summary Submit proposed site changes
// @Tags PendingUpdates
// @Accept json
// @Produce json
// @Param payload body dto.SubmitPendingUpdateRequest true "Proposed sites"
// @Success 201 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /pending-updates [post]
func (h *PendingUpdateHandler) Submit(c *gin.Context) {
	claims, ok := claimsFromContext(c)
	if !ok {
		return
	}
	var req dto.SubmitPendingUpdateRequest
	if !bindJSON(c, &req) {
		return
	}
	update, err := h.service.Submit(c.Request.Context(), req, claims)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, update)
}

// Get godoc
// @Summary Get pending update
// @Tags PendingUpdates
// @Produce json
// @Param id path string true "Pending update ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /pending-updates/{id} [get]
func (h *PendingUpdateHandler) Get(c *gin.Context) {
	claims, ok := claimsFromContext(c)
	if !ok {
		return
	}
	update, err := h.service.Get(c.Request.Context(), c.Param("id"), claims)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, update, nil)
}

// Diff godoc
// @Summary Field-level review of a pending update
// @Tags PendingUpdates
// @Produce json
// @Param id path string true "Pending update ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Failure 422 {object} response.Envelope
// @Router /pending-updates/{id}/diff [get]
func (h *PendingUpdateHandler) Diff(c *gin.Context) {
	claims, ok := claimsFromContext(c)
	if !ok {
		return
	}
	review, err := h.service.Diff(c.Request.Context(), c.Param("id"), claims)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, review, nil)
}

// Approve godoc
// @Summary Approve and merge a pending update
// @Tags PendingUpdates
// @Produce json
// @Param id path string true "Pending update ID"
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /pending-updates/{id}/approve [post]
func (h *PendingUpdateHandler) Approve(c *gin.Context) {
	claims, ok := claimsFromContext(c)
	if !ok {
		return
	}
	result, err := h.service.Approve(c.Request.Context(), c.Param("id"), claims)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// Reject godoc
// @Summary Reject a pending update
// @Tags PendingUpdates
// @Accept json
// @Produce json
// @Param id path string true "Pending update ID"
// @Param payload body dto.RejectPendingUpdateRequest true "Rejection notes"
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /pending-updates/{id}/reject [post]
func (h *PendingUpdateHandler) Reject(c *gin.Context) {
	claims, ok := claimsFromContext(c)
	if !ok {
		return
	}
	var req dto.RejectPendingUpdateRequest
	if !bindJSON(c, &req) {
		return
	}
	update, err := h.service.Reject(c.Request.Context(), c.Param("id"), req, claims)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, update, nil)
}

// SweepOrphans godoc
// @Summary Move orphaned pending updates to supervisor-unassigned
// @Tags PendingUpdates
// @Accept json
// @Produce json
// @Param payload body dto.OrphanSweepRequest false "Sweep scope"
// @Success 200 {object} response.Envelope
// @Router /pending-updates/orphans/sweep [post]
func (h *PendingUpdateHandler) SweepOrphans(c *gin.Context) {
	claims, ok := claimsFromContext(c)
	if !ok {
		return
	}
	var req dto.OrphanSweepRequest
	if c.Request.ContentLength > 0 && !bindJSON(c, &req) {
		return
	}
	result, err := h.service.SweepOrphans(c.Request.Context(), req, claims)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

func parsePendingUpdateQuery(c *gin.Context) (dto.PendingUpdateQuery, error) {
	query := dto.PendingUpdateQuery{FileNo: strings.TrimSpace(c.Query("fileNo"))}
	for _, raw := range strings.Split(c.Query("status"), ",") {
		if status := strings.TrimSpace(raw); status != "" {
			query.Statuses = append(query.Statuses, models.PendingUpdateStatus(status))
		}
	}
	if mine := c.Query("mine"); mine != "" {
		value, err := strconv.ParseBool(mine)
		if err != nil {
			return query, appErrors.Clone(appErrors.ErrValidation, "mine must be a boolean")
		}
		query.Mine = value
	}
	var err error
	if query.Limit, err = queryInt(c, "limit", 0); err != nil {
		return query, err
	}
	if query.Offset, err = queryInt(c, "offset", 0); err != nil {
		return query, err
	}
	return query, nil
}
