package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"github.com/ZerosAndOnesLLC/OpenGRC-sub001/internal/events"
)

type MetricsHandler struct {
	rdb *redis.Client
}

func NewMetricsHandler(rdb *redis.Client) *MetricsHandler {
	return &MetricsHandler{rdb: rdb}
}

// GET /api/v1/metrics/verifier
func (h *MetricsHandler) GetVerifierMetrics(c *gin.Context) {
	ctx := c.Request.Context()
	last, err := h.rdb.HGetAll(ctx, "metrics:verifier:last").Result()
	if err != nil {
		log.Error().Err(err).Msg("failed to get verifier metrics")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}
	ticks, err := h.rdb.Get(ctx, "metrics:verifier:ticks").Int64()
	if err != nil && err != redis.Nil {
		log.Error().Err(err).Msg("failed to get verifier ticks")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"ticks": ticks,
		"last":  last, // 包含 time, due_templates, due_verifications, fired, passed, failed, skipped
	})
}

// GET /api/v1/results/recent?count=50
// 读取结果事件流尾部，供运维检查下游告警将消费到什么
func (h *MetricsHandler) ListRecentResults(c *gin.Context) {
	count := int64(50)
	if v := c.Query("count"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil && parsed > 0 {
			count = int64(parsed)
		}
	}
	list, err := events.ListRecentResults(c.Request.Context(), h.rdb, count)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "list recent results failed", "detail": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"results": list, "count": len(list)})
}
