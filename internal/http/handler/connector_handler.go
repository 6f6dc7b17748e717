package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ZerosAndOnesLLC/OpenGRC-sub001/internal/service"
)

type ConnectorHandler struct {
	svc *service.ConnectorService
}

func NewConnectorHandler(svc *service.ConnectorService) *ConnectorHandler {
	return &ConnectorHandler{svc: svc}
}

type registerConnectorRequest struct {
	ID      string         `json:"id" binding:"required"`
	Name    string         `json:"name"`
	Kind    string         `json:"kind" binding:"required"`
	Config  map[string]any `json:"config"`
	Enabled *bool          `json:"enabled"` // 可选，默认 true
}

// POST /api/v1/connectors
func (h *ConnectorHandler) RegisterConnector(c *gin.Context) {
	var req registerConnectorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request", "detail": err.Error()})
		return
	}
	enabled := true
	if req.Enabled != nil {
		enabled = *req.Enabled
	}
	if err := h.svc.RegisterConnector(c.Request.Context(), service.RegisterConnectorParams{
		ID:      req.ID,
		Name:    req.Name,
		Kind:    req.Kind,
		Config:  req.Config,
		Enabled: enabled,
	}); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "register connector failed", "detail": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"id": req.ID})
}

// GET /api/v1/connectors
func (h *ConnectorHandler) ListConnectors(c *gin.Context) {
	list, err := h.svc.ListConnectors(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"connectors": list, "count": len(list)})
}
