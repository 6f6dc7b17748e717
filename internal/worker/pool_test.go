package worker

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPoolRunProcessesAllItems(t *testing.T) {
	p := NewPool(3)
	var mu sync.Mutex
	seen := map[int]bool{}

	p.Run(context.Background(), 20, func(ctx context.Context, i int) {
		mu.Lock()
		seen[i] = true
		mu.Unlock()
	})

	assert.Len(t, seen, 20)
}

func TestPoolSequentialWhenSizeOne(t *testing.T) {
	p := NewPool(1)
	var order []int

	// 串行执行，无需加锁，顺序必须与下标一致
	p.Run(context.Background(), 5, func(ctx context.Context, i int) {
		order = append(order, i)
	})

	assert.Equal(t, []int{0, 1, 2, 3, 4}, order)
}

func TestPoolZeroSizeFallsBackToSerial(t *testing.T) {
	p := NewPool(0)
	count := 0
	p.Run(context.Background(), 3, func(ctx context.Context, i int) { count++ })
	assert.Equal(t, 3, count)
}

func TestPoolRunEmpty(t *testing.T) {
	p := NewPool(2)
	called := false
	p.Run(context.Background(), 0, func(ctx context.Context, i int) { called = true })
	assert.False(t, called)
}

func TestPoolStopsDispatchOnCancel(t *testing.T) {
	p := NewPool(1)
	ctx, cancel := context.WithCancel(context.Background())

	count := 0
	p.Run(ctx, 100, func(ctx context.Context, i int) {
		count++
		if i == 2 {
			cancel()
		}
	})

	assert.Less(t, count, 100, "cancel must stop dispatching new items")
	assert.GreaterOrEqual(t, count, 3)
}
