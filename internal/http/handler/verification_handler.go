package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/ZerosAndOnesLLC/OpenGRC-sub001/internal/domain"
	"github.com/ZerosAndOnesLLC/OpenGRC-sub001/internal/service"
)

type VerificationHandler struct {
	svc *service.VerificationService
}

func NewVerificationHandler(svc *service.VerificationService) *VerificationHandler {
	return &VerificationHandler{svc: svc}
}

// 请求体：创建控制测试
type CreateVerificationRequest struct {
	ControlID string                   `json:"control_id" binding:"required"`
	Name      string                   `json:"name" binding:"required"`
	TestType  string                   `json:"test_type" binding:"required,oneof=manual automated"`
	Config    *domain.AutomationConfig `json:"automation_config"`
	Frequency string                   `json:"frequency"`
	EndAt     *time.Time               `json:"end_at"`
	MaxRuns   *int                     `json:"max_runs"`
}

// POST /api/v1/verifications
func (h *VerificationHandler) CreateVerification(c *gin.Context) {
	var req CreateVerificationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request", "detail": err.Error()})
		return
	}
	controlID, err := uuid.Parse(req.ControlID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid control_id"})
		return
	}

	id, err := h.svc.CreateVerification(c.Request.Context(), service.CreateVerificationParams{
		ControlID: controlID,
		Name:      req.Name,
		TestType:  req.TestType,
		Config:    req.Config,
		Frequency: req.Frequency,
		EndAt:     req.EndAt,
		MaxRuns:   req.MaxRuns,
	})
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "create verification failed", "detail": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"verification_id": id})
}

// GET /api/v1/verifications
func (h *VerificationHandler) ListVerifications(c *gin.Context) {
	list, err := h.svc.ListVerifications(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"verifications": list, "count": len(list)})
}

// GET /api/v1/verifications/:id
func (h *VerificationHandler) GetVerification(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid verification id"})
		return
	}
	v, err := h.svc.GetVerification(c.Request.Context(), id)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "verification not found"})
		return
	}
	resp := gin.H{"verification": v}
	if results, err := h.svc.ListResults(c.Request.Context(), id, 1); err == nil && len(results) > 0 {
		resp["latest_result"] = results[0]
	}
	c.JSON(http.StatusOK, resp)
}

// GET /api/v1/verifications/:id/results?limit=20
func (h *VerificationHandler) ListResults(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid verification id"})
		return
	}
	limit := 20
	if v := c.Query("limit"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil && parsed > 0 {
			limit = parsed
		}
	}
	results, err := h.svc.ListResults(c.Request.Context(), id, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"results": results, "count": len(results)})
}

// POST /api/v1/verifications/:id/run
// 立即执行一次，绕过调度周期，复用同一条记录路径
func (h *VerificationHandler) TriggerNow(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid verification id"})
		return
	}
	status, err := h.svc.TriggerNow(c.Request.Context(), id)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "trigger failed", "detail": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"id": id, "status": status})
}
