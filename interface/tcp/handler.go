// Package tcp -----------------------------
// @file      : handler.go
// @author    : hcjjj
// @contact   : hcjjj@foxmail.com
// @time      : 2023/12/15 19:30
// -------------------------------------------
package tcp

import (
	"context"
	"net"
)

// Handler 服务一个已经 accept 的连接，每个连接在自己的协程里调用 Handle
type Handler interface {
	// Handle 返回之前必须关闭 conn
	Handle(ctx context.Context, conn net.Conn)
	// Close 断开所有连接并释放存储，之后的 Handle 直接关闭连接
	Close() error
}
