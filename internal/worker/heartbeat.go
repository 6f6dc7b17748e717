package worker

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

func heartbeatKey(instanceID string) string {
	return "verifier:" + instanceID + ":heartbeat"
}

// StartHeartbeat 周期刷新调度器实例的心跳键（TTL=ttl，刷新间隔=interval）
// 运维可通过心跳键确认调度器存活；实例退出后键随 TTL 过期
func StartHeartbeat(ctx context.Context, rdb *redis.Client, instanceID string, ttl, interval time.Duration) {
	tkr := time.NewTicker(interval)
	defer tkr.Stop()
	_ = rdb.Set(ctx, heartbeatKey(instanceID), time.Now().Format(time.RFC3339), ttl).Err()
	for {
		select {
		case <-ctx.Done():
			return
		case <-tkr.C:
			_ = rdb.Set(ctx, heartbeatKey(instanceID), time.Now().Format(time.RFC3339), ttl).Err()
		}
	}
}
