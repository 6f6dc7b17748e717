package worker

import (
	"context"
	"sync"
)

// Pool 单轮扫描内按固定并发度执行逐项工作
// size=1 时严格串行（与源系统行为一致）；size>1 时有界并行，
// 同一轮的所有项执行完毕后 Run 才返回，调度周期之间不会重叠
type Pool struct {
	size int
}

func NewPool(size int) *Pool {
	if size <= 0 {
		size = 1
	}
	return &Pool{size: size}
}

// Run 对 n 个下标逐一调用 fn，全部完成后返回
// ctx 取消后不再派发新的下标，已开始的项执行完毕
func (p *Pool) Run(ctx context.Context, n int, fn func(ctx context.Context, i int)) {
	if n <= 0 {
		return
	}
	workers := p.size
	if workers > n {
		workers = n
	}

	idx := make(chan int)
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range idx {
				fn(ctx, i)
			}
		}()
	}

	for i := 0; i < n; i++ {
		select {
		case <-ctx.Done():
			close(idx)
			wg.Wait()
			return
		case idx <- i:
		}
	}
	close(idx)
	wg.Wait()
}
