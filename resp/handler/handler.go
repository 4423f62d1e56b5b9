// Package handler -----------------------------
// @file      : handler.go
// @author    : hcjjj
// @contact   : hcjjj@foxmail.com
// @time      : 2024/1/3 11:20
// -------------------------------------------
package handler

import (
	"context"
	"io"
	"net"
	"strings"
	"sync"

	"github.com/pkg/errors"

	databaseinterface "mini-redis/interface/database"
	"mini-redis/interface/resp"
	"mini-redis/lib/logger"
	"mini-redis/lib/metrics"
	"mini-redis/lib/sync/atomic"
	"mini-redis/resp/connection"
	"mini-redis/resp/parser"
	"mini-redis/resp/reply"
)

const defaultReadBuffer = 1024

// Options 建立 RespHandler 的参数
type Options struct {
	// 每次 read 的缓冲大小
	ReadBuffer int
	// 单个连接未解析的数据上限，0 表示不限制
	MaxQueryBuffer int
	Metrics        *metrics.Metrics
}

type RespHandler struct {
	// 记录协议层保持连接的用户信息
	activeConn sync.Map
	db         databaseinterface.Database
	opts       Options
	// 并发安全的 bool
	closing atomic.Boolean
}

// MakeHandler db 由调用方创建，所有连接共享同一个
func MakeHandler(db databaseinterface.Database, opts Options) *RespHandler {
	if opts.ReadBuffer <= 0 {
		opts.ReadBuffer = defaultReadBuffer
	}
	return &RespHandler{
		db:   db,
		opts: opts,
	}
}

// 关闭一个客户端的连接
func (r *RespHandler) closeClient(client *connection.Connection) {
	_ = client.Close()
	// 客户端关闭后数据库需要做的一些善后操作
	r.db.AfterClientClose(client)
	r.activeConn.Delete(client)
	r.opts.Metrics.ConnClosed()
}

// Handle 处理 TCP 连接
// Reading → Dispatching → Writing → Reading ... 读到 EOF 或出现 io 错误时关闭
func (r *RespHandler) Handle(ctx context.Context, conn net.Conn) {
	// TCP 的 连接包装为 协议层的连接
	client := connection.NewConn(conn)
	r.activeConn.Store(client, struct{}{})
	r.opts.Metrics.ConnOpened()
	defer r.closeClient(client)
	// 先登记再检查，Close 要么遍历到这个连接，要么这里已经能看到 closing
	if r.closing.Get() {
		return
	}

	buf := make([]byte, r.opts.ReadBuffer)
	frames := parser.NewBuffer(r.opts.MaxQueryBuffer)
	for {
		n, err := client.Read(buf)
		if n > 0 {
			if ferr := frames.Feed(buf[:n]); ferr != nil {
				logger.Warn("query buffer limit exceeded, closing " + client.Name())
				_ = client.Write(reply.MakeQueryBufferErrReply().ToBytes())
				return
			}
			if !r.serveFrames(client, frames) {
				return
			}
		}
		if err != nil {
			if isClosedErr(err) {
				logger.Info("Connection closed: " + client.Name())
			} else {
				logger.Error("read from " + client.Name() + " failed: " + err.Error())
			}
			return
		}
	}
}

// serveFrames 处理缓冲里所有完整的帧，写回复失败时返回 false
func (r *RespHandler) serveFrames(client *connection.Connection, frames *parser.Buffer) bool {
	for {
		payload, err := frames.Next()
		if errors.Is(err, parser.ErrIncomplete) {
			return true
		}
		var result []byte
		if err != nil {
			// protocol error，缓冲已经丢弃，连接保持
			logger.Warn("protocol error from " + client.Name() + ": " + err.Error())
			r.opts.Metrics.ProtocolError()
			result = reply.MakeInvalidCommandReply().ToBytes()
		} else {
			result = r.exec(client, payload)
		}
		if werr := client.Write(result); werr != nil {
			logger.Error("write to " + client.Name() + " failed: " + werr.Error())
			return false
		}
	}
}

// exec 请求必须是以 bulk string 开头的数组
func (r *RespHandler) exec(client *connection.Connection, payload resp.Reply) []byte {
	arr, ok := payload.(*reply.ArrayReply)
	if !ok || len(arr.Items) == 0 {
		return reply.MakeInvalidCommandReply().ToBytes()
	}
	if _, ok := arr.Items[0].(*reply.BulkReply); !ok {
		return reply.MakeInvalidCommandReply().ToBytes()
	}
	result := r.db.Exec(client, arr.Items)
	if result == nil {
		return reply.MakeUnknownErrReply().ToBytes()
	}
	return result.ToBytes()
}

func isClosedErr(err error) bool {
	return err == io.EOF ||
		err == io.ErrUnexpectedEOF ||
		errors.Is(err, net.ErrClosed) ||
		strings.Contains(err.Error(), "use of closed network connection")
}

// Close 关闭整个 handler
func (r *RespHandler) Close() error {
	logger.Info("handler shutting down ...")
	r.closing.Set(true)
	// 逐步断开每个客户端的连接
	r.activeConn.Range(
		func(key interface{}, value interface{}) bool {
			client := key.(*connection.Connection)
			_ = client.Close()
			return true
		})
	r.db.Close()
	return nil
}
