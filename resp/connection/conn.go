// Package connection -----------------------------
// @file      : conn.go
// @author    : hcjjj
// @contact   : hcjjj@foxmail.com
// @time      : 2024/1/3 11:04
// -------------------------------------------
package connection

import (
	"net"
	"sync"
	"time"

	"mini-redis/lib/sync/wait"
)

// Connection 协议层的一个客户端连接
type Connection struct {
	conn         net.Conn
	waitingReply wait.Wait
	mu           sync.Mutex
	name         string
}

func NewConn(conn net.Conn) *Connection {
	c := &Connection{
		conn: conn,
	}
	if addr := conn.RemoteAddr(); addr != nil {
		c.name = addr.String()
	}
	return c
}

func (c *Connection) Name() string {
	return c.name
}

// Read 从底层连接读取，只有连接自己的协程调用
func (c *Connection) Read(p []byte) (int, error) {
	return c.conn.Read(p)
}

func (c *Connection) Close() error {
	// 防止客户端关闭引起服务端的异常
	c.waitingReply.WaitWithTimeout(10 * time.Second)
	return c.conn.Close()
}

// 给客户端发送数据，写完才返回
func (c *Connection) Write(bytes []byte) error {
	if len(bytes) == 0 {
		return nil
	}
	c.mu.Lock()
	c.waitingReply.Add(1)
	defer func() {
		c.waitingReply.Done()
		c.mu.Unlock()
	}()
	_, err := c.conn.Write(bytes)
	return err
}
