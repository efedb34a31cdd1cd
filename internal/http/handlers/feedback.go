package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/teamloop/feedbackhub/internal/actorctx"
	"github.com/teamloop/feedbackhub/internal/cache"
	"github.com/teamloop/feedbackhub/internal/config"
	"github.com/teamloop/feedbackhub/internal/domain/feedback"
	"github.com/teamloop/feedbackhub/internal/domain/job"
	"github.com/teamloop/feedbackhub/internal/http/middlewares"
	"github.com/teamloop/feedbackhub/internal/jobs"
	"github.com/teamloop/feedbackhub/internal/utils"
)

type FeedbackStore interface {
	Create(ctx context.Context, req feedback.CreateRequest) (feedback.Feedback, error)
	ListForEmployee(ctx context.Context, employeeID string) ([]feedback.Feedback, error)
	ListForManager(ctx context.Context, managerID string) ([]feedback.Feedback, error)
	SetAcknowledged(ctx context.Context, id, employeeID string, acknowledged bool) error
}

type JobEnqueuer interface {
	Create(ctx context.Context, req job.CreateRequest) (job.Job, error)
}

type FeedbackHandler struct {
	repo      FeedbackStore
	enqueuer  JobEnqueuer      // optional; nil disables notifications
	listCache *cache.RedisCache // optional; nil disables list caching
	log       *slog.Logger
}

func NewFeedbackHandler(repo FeedbackStore, enqueuer JobEnqueuer, listCache *cache.RedisCache, log *slog.Logger) *FeedbackHandler {
	if log == nil {
		log = slog.Default()
	}
	return &FeedbackHandler{
		repo:      repo,
		enqueuer:  enqueuer,
		listCache: listCache,
		log:       log,
	}
}

type SubmitFeedbackRequest struct {
	EmployeeID   string `json:"employee_id" binding:"required"`
	Strengths    string `json:"strengths" binding:"required"`
	Improvements string `json:"improvements" binding:"required"`
	Sentiment    string `json:"sentiment" binding:"required"`
}

type AcknowledgeRequest struct {
	FeedbackID   string `json:"feedback_id" binding:"required"`
	Acknowledged *bool  `json:"acknowledged" binding:"required"`
}

// Submit creates a feedback record for an employee. Route wiring restricts it
// to managers; the submitter becomes the record's manager_id.
func (h *FeedbackHandler) Submit(ctx *gin.Context) {
	u, ok := middlewares.CurrentUser(ctx)
	if !ok {
		RespondUnAuthorized(ctx, "unauthorized", "Missing identity context")
		return
	}

	var req SubmitFeedbackRequest

	if !BindJSON(ctx, &req) {
		return
	}

	cctx, cancel := config.WithTimeout(3 * time.Second)
	defer cancel()

	fb, err := h.repo.Create(cctx, feedback.CreateRequest{
		EmployeeID:   req.EmployeeID,
		ManagerID:    u.ID,
		Strengths:    req.Strengths,
		Improvements: req.Improvements,
		Sentiment:    req.Sentiment,
	})

	if err != nil {
		if errors.Is(err, feedback.ErrEmployeeNotFound) {
			RespondNotFound(ctx, "employee_not_found", "No employee with that id")
			return
		}
		RespondInternal(ctx, "Could not submit feedback")
		return
	}

	h.enqueueSubmittedNotification(ctx, fb)
	h.invalidateListCaches(cctx, fb.EmployeeID, fb.ManagerID)

	ctx.JSON(http.StatusOK, fb)
}

func (h *FeedbackHandler) ListForEmployee(ctx *gin.Context) {
	u, ok := middlewares.CurrentUser(ctx)
	if !ok {
		RespondUnAuthorized(ctx, "unauthorized", "Missing identity context")
		return
	}

	h.respondList(ctx, utils.EmployeeFeedbackCacheKey(u.ID), func(cctx context.Context) ([]feedback.Feedback, error) {
		return h.repo.ListForEmployee(cctx, u.ID)
	})
}

func (h *FeedbackHandler) ListForManager(ctx *gin.Context) {
	u, ok := middlewares.CurrentUser(ctx)
	if !ok {
		RespondUnAuthorized(ctx, "unauthorized", "Missing identity context")
		return
	}

	h.respondList(ctx, utils.ManagerFeedbackCacheKey(u.ID), func(cctx context.Context) ([]feedback.Feedback, error) {
		return h.repo.ListForManager(cctx, u.ID)
	})
}

func (h *FeedbackHandler) respondList(ctx *gin.Context, cacheKey string, load func(context.Context) ([]feedback.Feedback, error)) {
	cctx, cancel := config.WithTimeout(3 * time.Second)
	defer cancel()

	if b, hit, err := h.listCache.Get(cctx, cacheKey); err == nil && hit {
		ctx.Data(http.StatusOK, "application/json; charset=utf-8", b)
		return
	}

	items, err := load(cctx)

	if err != nil {
		RespondInternal(ctx, "Could not list feedback")
		return
	}

	if b, err := json.Marshal(items); err == nil {
		if cerr := h.listCache.Set(cctx, cacheKey, b); cerr != nil {
			h.log.Warn("list cache set failed", "err", cerr)
		}
	}

	ctx.JSON(http.StatusOK, items)
}

// Acknowledge flips the acknowledged flag on a record the caller owns. A
// record belonging to another employee responds 404, same as a missing one.
func (h *FeedbackHandler) Acknowledge(ctx *gin.Context) {
	u, ok := middlewares.CurrentUser(ctx)
	if !ok {
		RespondUnAuthorized(ctx, "unauthorized", "Missing identity context")
		return
	}

	var req AcknowledgeRequest

	if !BindJSON(ctx, &req) {
		return
	}

	cctx, cancel := config.WithTimeout(3 * time.Second)
	defer cancel()

	err := h.repo.SetAcknowledged(cctx, req.FeedbackID, u.ID, *req.Acknowledged)

	if err != nil {
		if errors.Is(err, feedback.ErrNotFound) {
			RespondNotFound(ctx, "feedback_not_found", "Feedback not found")
			return
		}
		RespondInternal(ctx, "Could not acknowledge feedback")
		return
	}

	h.invalidateListCaches(cctx, u.ID, "")

	ctx.JSON(http.StatusOK, gin.H{
		"detail": "Acknowledged successfully",
	})
}

// enqueueSubmittedNotification is best-effort: a queue failure must not fail
// the submit request.
func (h *FeedbackHandler) enqueueSubmittedNotification(ctx *gin.Context, fb feedback.Feedback) {
	if h.enqueuer == nil {
		return
	}

	payload := jobs.FeedbackSubmittedPayload{
		FeedbackID:  fb.ID,
		EmployeeID:  fb.EmployeeID,
		ManagerID:   fb.ManagerID,
		SubmittedAt: fb.CreatedAt,
		RequestID:   requestIDFrom(ctx),
	}

	raw, err := jobs.EncodePayload(jobs.JobFeedbackSubmitted, payload)
	if err != nil {
		h.log.Error("encode notification payload", "err", err)
		return
	}

	cctx, cancel := config.WithTimeout(2 * time.Second)
	defer cancel()

	cctx = actorctx.WithUserID(cctx, fb.ManagerID)

	if _, err := h.enqueuer.Create(cctx, job.CreateRequest{
		Type:    string(jobs.JobFeedbackSubmitted),
		Payload: raw,
	}); err != nil {
		h.log.Error("enqueue feedback.submitted", "feedback", fb.ID, "err", err)
	}
}

func (h *FeedbackHandler) invalidateListCaches(ctx context.Context, employeeID, managerID string) {
	keys := make([]string, 0, 2)

	if employeeID != "" {
		keys = append(keys, utils.EmployeeFeedbackCacheKey(employeeID))
	}
	if managerID != "" {
		keys = append(keys, utils.ManagerFeedbackCacheKey(managerID))
	}

	if err := h.listCache.Delete(ctx, keys...); err != nil {
		h.log.Warn("list cache invalidation failed", "err", err)
	}
}
