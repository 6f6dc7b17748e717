package lease

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// TickLockKey 调度周期锁的 Redis key
const TickLockKey = "lock:verifier:tick"

// TickLock 调度周期互斥锁
// 多个调度器进程同时部署时，只有持锁的实例执行本轮扫描，
// 避免同一条到期记录被两个实例重复执行
type TickLock struct {
	rdb   *redis.Client
	owner string
	ttl   time.Duration
}

func NewTickLock(rdb *redis.Client, owner string, ttl time.Duration) *TickLock {
	return &TickLock{rdb: rdb, owner: owner, ttl: ttl}
}

// Acquire 尝试获取周期锁（仅当不存在时成功），返回是否成功
func (l *TickLock) Acquire(ctx context.Context) (bool, error) {
	return l.rdb.SetNX(ctx, TickLockKey, l.owner, l.ttl).Result()
}

// Renew 仅当持有者匹配时续期，返回是否成功
func (l *TickLock) Renew(ctx context.Context) (bool, error) {
	script := `
		if redis.call('GET', KEYS[1]) == ARGV[1] then
 			return redis.call('PEXPIRE', KEYS[1], ARGV[2])
		else
			return 0
		end`

	cmd := l.rdb.Eval(ctx, script, []string{TickLockKey}, l.owner, int(l.ttl.Milliseconds()))
	if err := cmd.Err(); err != nil {
		return false, err
	}
	n, _ := cmd.Int()
	return n == 1, nil
}

// Release 仅当持有者匹配时释放锁
func (l *TickLock) Release(ctx context.Context) (bool, error) {
	script := `
		if redis.call('GET', KEYS[1]) == ARGV[1] then
			return redis.call('DEL', KEYS[1])
		else
			return 0
		end`

	cmd := l.rdb.Eval(ctx, script, []string{TickLockKey}, l.owner)
	if err := cmd.Err(); err != nil {
		return false, err
	}
	n, _ := cmd.Int()
	return n == 1, nil
}
