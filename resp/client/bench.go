// Package client -----------------------------
// @file      : bench.go
// @author    : hcjjj
// @contact   : hcjjj@foxmail.com
// @time      : 2024/1/21 10:15
// -------------------------------------------
package client

import (
	"bytes"
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/pkg/errors"
)

// BenchOptions 每个 worker 只写自己的 key，互不重叠
type BenchOptions struct {
	Workers   int
	Requests  int
	KeyPrefix string
	ValueSize int
}

type BenchResult struct {
	// 一次 SET 加一次 GET 算两个
	Ops int64
	// 命令返回了错误
	Failures int64
	// GET 读到的值和写入的不一致
	Mismatches int64
	Elapsed    time.Duration
}

func (r *BenchResult) OpsPerSecond() float64 {
	if r.Elapsed <= 0 {
		return 0
	}
	return float64(r.Ops) / r.Elapsed.Seconds()
}

// Bench 并发地 SET 再 GET，校验每个 key 读到的是自己写入的值
func Bench(ctx context.Context, p *Pool, opts BenchOptions) (*BenchResult, error) {
	if opts.Workers <= 0 || opts.Requests <= 0 {
		return nil, errors.New("workers and requests must be positive")
	}
	if opts.KeyPrefix == "" {
		opts.KeyPrefix = fmt.Sprintf("bench:%d", time.Now().UnixNano())
	}
	var ops, failures, mismatches atomic.Int64
	var wg sync.WaitGroup
	errCh := make(chan error, opts.Workers)
	start := time.Now()
	for w := 0; w < opts.Workers; w++ {
		wg.Add(1)
		go func(worker int) {
			defer wg.Done()
			c, err := p.Borrow(ctx)
			if err != nil {
				errCh <- err
				return
			}
			defer func() {
				_ = p.Return(ctx, c)
			}()
			for i := 0; i < opts.Requests; i++ {
				if ctx.Err() != nil {
					return
				}
				key := fmt.Sprintf("%s:%d:%d", opts.KeyPrefix, worker, i)
				value := benchValue(worker, i, opts.ValueSize)
				if err := c.Set(key, value); err != nil {
					failures.Add(1)
					continue
				}
				ops.Add(1)
				got, ok, err := c.Get(key)
				if err != nil {
					failures.Add(1)
					continue
				}
				ops.Add(1)
				if !ok || !bytes.Equal(got, value) {
					mismatches.Add(1)
				}
			}
		}(w)
	}
	wg.Wait()
	close(errCh)
	result := &BenchResult{
		Ops:        ops.Load(),
		Failures:   failures.Load(),
		Mismatches: mismatches.Load(),
		Elapsed:    time.Since(start),
	}
	if err := <-errCh; err != nil {
		return result, err
	}
	return result, ctx.Err()
}

func benchValue(worker, i, size int) []byte {
	value := []byte(fmt.Sprintf("%d-%d-", worker, i))
	for len(value) < size {
		value = append(value, 'x')
	}
	return value
}
