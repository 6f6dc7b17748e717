// Package events 提供基于 Redis 的执行结果事件流
// 使用 Redis List 保存最近完成的执行结果，供下游告警/通知层消费
// 调度器每记录一次结果即发布一条事件，列表按上限裁剪
package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/ZerosAndOnesLLC/OpenGRC-sub001/internal/domain"
)

// ResultStreamKey 结果事件流的 Redis key
const ResultStreamKey = "events:verification_results"

// resultStreamCap 事件流保留的最大条数，超出时从头部裁剪
const resultStreamCap = 1000

// ResultEvent 发布到事件流的结果摘要
type ResultEvent struct {
	VerificationID uuid.UUID  `json:"verification_id"`
	ResultID       uuid.UUID  `json:"result_id"`
	Status         string     `json:"status"` // passed/failed/skipped
	Notes          string     `json:"notes,omitempty"`
	ExecutedAt     time.Time  `json:"executed_at"`
	NextDueAt      *time.Time `json:"next_due_at,omitempty"`
}

// PublishResult 将结果事件追加到事件流
// 参数:
//
//	ctx: 上下文对象
//	rdb: Redis 客户端实例
//	ev: 结果事件
//
// 实现:
//
//	RPUSH 追加到列表尾部，LTRIM 只保留最近 resultStreamCap 条，
//	两个命令放入 Pipeline 一次往返执行
func PublishResult(ctx context.Context, rdb *redis.Client, ev ResultEvent) error {
	b, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	pipe := rdb.TxPipeline()
	pipe.RPush(ctx, ResultStreamKey, string(b))
	pipe.LTrim(ctx, ResultStreamKey, -resultStreamCap, -1)
	_, err = pipe.Exec(ctx)
	return err
}

// ListRecentResults 读取事件流尾部最近的 count 条事件（最新的在最后）
func ListRecentResults(ctx context.Context, rdb *redis.Client, count int64) ([]ResultEvent, error) {
	raw, err := rdb.LRange(ctx, ResultStreamKey, -count, -1).Result()
	if err != nil {
		return nil, err
	}
	res := make([]ResultEvent, 0, len(raw))
	for _, item := range raw {
		var ev ResultEvent
		if err := json.Unmarshal([]byte(item), &ev); err != nil {
			continue
		}
		res = append(res, ev)
	}
	return res, nil
}

// NewResultEvent 从领域对象构造事件
func NewResultEvent(v *domain.Verification, r *domain.VerificationResult) ResultEvent {
	return ResultEvent{
		VerificationID: v.ID,
		ResultID:       r.ID,
		Status:         r.Status,
		Notes:          r.Notes,
		ExecutedAt:     r.ExecutedAt,
		NextDueAt:      v.NextDueAt,
	}
}

// Connect 建立 Redis 连接
// URL 格式 "redis://[:password@]host:port[/database]"，连接后通过 PING 验证
func Connect(ctx context.Context, url string) (*redis.Client, error) {
	opt, err := redis.ParseURL(url)
	if err != nil {
		return nil, err
	}
	rdb := redis.NewClient(opt)
	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, err
	}
	return rdb, nil
}
