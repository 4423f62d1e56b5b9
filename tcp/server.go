// Package tcp -----------------------------
// @file      : server.go
// @author    : hcjjj
// @contact   : hcjjj@foxmail.com
// @time      : 2023/12/15 19:34
// -------------------------------------------
package tcp

import (
	"context"
	"net"
	"os/signal"
	"sync"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/pkg/errors"

	"mini-redis/interface/tcp"
	"mini-redis/lib/logger"
)

// Config tcp连接配置信息
type Config struct {
	Address string
}

// accept 出现临时错误时的等待时间
const acceptRetryDelay = 50 * time.Millisecond

// ListenAndServeWithSignal 收到 SIGHUP SIGQUIT SIGTERM SIGINT 时优雅退出
func ListenAndServeWithSignal(cfg *Config, handler tcp.Handler) error {
	ctx, stop := signal.NotifyContext(context.Background(),
		syscall.SIGHUP, syscall.SIGQUIT, syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	listener, err := net.Listen("tcp", cfg.Address)
	if err != nil {
		return err
	}
	logger.Info("Start listen on " + listener.Addr().String())
	ListenAndServe(ctx, listener, handler)
	return nil
}

// ListenAndServe 一个连接一个协程，ctx 结束后停止 accept，关闭 handler 并等已有的连接结束
func ListenAndServe(ctx context.Context, listener net.Listener, handler tcp.Handler) {
	var closeOnce sync.Once
	shutdown := func() {
		closeOnce.Do(func() {
			_ = listener.Close()
			_ = handler.Close()
		})
	}
	stopped := make(chan struct{})
	defer close(stopped)
	go func() {
		select {
		case <-ctx.Done():
			logger.Info("Shutting down")
			shutdown()
		case <-stopped:
		}
	}()

	var (
		waitDone sync.WaitGroup
		active   atomic.Int64
	)
	for {
		conn, err := listener.Accept()
		if err != nil {
			if isTemporary(err) {
				logger.Warn("accept: " + err.Error())
				time.Sleep(acceptRetryDelay)
				continue
			}
			if !errors.Is(err, net.ErrClosed) {
				logger.Error("accept: " + err.Error())
			}
			break
		}
		logger.Info("Accepted link: ", conn.RemoteAddr().String(), ", active: ", active.Add(1))
		waitDone.Add(1)
		go func() {
			// 防止连接出现 panic 导致没 Done()
			defer func() {
				active.Add(-1)
				waitDone.Done()
			}()
			handler.Handle(ctx, conn)
		}()
	}
	// 出现错误跳出循环时需要等待已存在的连接结束
	shutdown()
	waitDone.Wait()
}

// isTemporary accept 超时可以重试，其余错误都结束循环
func isTemporary(err error) bool {
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}
