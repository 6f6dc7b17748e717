package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/ZerosAndOnesLLC/OpenGRC-sub001/internal/domain"
	"github.com/ZerosAndOnesLLC/OpenGRC-sub001/internal/service"
)

type TemplateHandler struct {
	svc *service.TemplateService
}

func NewTemplateHandler(svc *service.TemplateService) *TemplateHandler {
	return &TemplateHandler{svc: svc}
}

// 请求体：创建定期任务模板
type CreateTemplateRequest struct {
	Title            string     `json:"title" binding:"required"`
	Description      string     `json:"description"`
	TaskType         string     `json:"task_type"`
	Assignee         string     `json:"assignee"`
	Priority         int        `json:"priority"`
	// pattern+interval 与 cron_expr 二选一，由服务层校验
	Pattern          string     `json:"pattern" binding:"omitempty,oneof=daily weekly biweekly monthly quarterly yearly"`
	Interval         int        `json:"interval" binding:"omitempty,min=1"`
	AnchorDayOfWeek  *int       `json:"anchor_day_of_week"`
	AnchorDayOfMonth *int       `json:"anchor_day_of_month"`
	AnchorMonth      *int       `json:"anchor_month_of_year"`
	CronExpr         string     `json:"cron_expr"`
	EndAt            *time.Time `json:"end_at"`
	MaxOccurrences   *int       `json:"max_occurrences"`
}

// POST /api/v1/templates
func (h *TemplateHandler) CreateTemplate(c *gin.Context) {
	var req CreateTemplateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request", "detail": err.Error()})
		return
	}

	id, err := h.svc.CreateTemplate(c.Request.Context(), service.CreateTemplateParams{
		Title:       req.Title,
		Description: req.Description,
		TaskType:    req.TaskType,
		Assignee:    req.Assignee,
		Priority:    req.Priority,
		Rule: domain.RecurrenceRule{
			Pattern:          req.Pattern,
			Interval:         req.Interval,
			AnchorDayOfWeek:  req.AnchorDayOfWeek,
			AnchorDayOfMonth: req.AnchorDayOfMonth,
			AnchorMonth:      req.AnchorMonth,
			CronExpr:         req.CronExpr,
			EndAt:            req.EndAt,
			MaxOccurrences:   req.MaxOccurrences,
		},
	})
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "create template failed", "detail": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"template_id": id})
}

// GET /api/v1/templates?active=true/false
func (h *TemplateHandler) ListTemplates(c *gin.Context) {
	var activePtr *bool
	if v := c.Query("active"); v != "" {
		val := v == "true"
		activePtr = &val
	}
	templates, err := h.svc.ListTemplates(c.Request.Context(), activePtr)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"templates": templates, "count": len(templates)})
}

// GET /api/v1/templates/:id
func (h *TemplateHandler) GetTemplate(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid template id"})
		return
	}
	tpl, err := h.svc.GetTemplate(c.Request.Context(), id)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "template not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"template": tpl})
}

type skipRequest struct {
	Reason string `json:"reason"`
}

// POST /api/v1/templates/:id/skip
func (h *TemplateHandler) SkipNext(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid template id"})
		return
	}
	var req skipRequest
	_ = c.ShouldBindJSON(&req)
	if err := h.svc.SkipNext(c.Request.Context(), id, req.Reason); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "skip failed", "detail": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"id": id, "skipped": true})
}

// POST /api/v1/templates/:id/pause
func (h *TemplateHandler) Pause(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid template id"})
		return
	}
	if err := h.svc.Pause(c.Request.Context(), id); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "pause failed", "detail": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"id": id, "active": false})
}

type resumeRequest struct {
	ResumeFrom *time.Time `json:"resume_from"`
}

// POST /api/v1/templates/:id/resume
func (h *TemplateHandler) Resume(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid template id"})
		return
	}
	var req resumeRequest
	_ = c.ShouldBindJSON(&req)
	if err := h.svc.Resume(c.Request.Context(), id, req.ResumeFrom); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "resume failed", "detail": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"id": id, "active": true})
}

// GET /api/v1/templates/:id/history
func (h *TemplateHandler) ListHistory(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid template id"})
		return
	}
	history, err := h.svc.ListHistory(c.Request.Context(), id)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"history": history, "count": len(history)})
}

// GET /api/v1/templates/:id/occurrences
func (h *TemplateHandler) ListOccurrences(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid template id"})
		return
	}
	occurrences, err := h.svc.ListOccurrences(c.Request.Context(), id)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"occurrences": occurrences, "count": len(occurrences)})
}
