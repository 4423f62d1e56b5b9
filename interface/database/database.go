// Package database -----------------------------
// @file      : database.go
// @author    : hcjjj
// @contact   : hcjjj@foxmail.com
// @time      : 2024/1/3 16:46
// -------------------------------------------
package database

import (
	"time"

	"mini-redis/interface/resp"
)

// CmdLine 一条命令，第一个元素是命令名，保留每个参数原本的 RESP 类型
type CmdLine = []resp.Reply

type Database interface {
	Exec(client resp.Connection, cmdLine CmdLine) resp.Reply
	Close()
	AfterClientClose(c resp.Connection)
}

// DataEntity 一个 key 对应的值，创建之后不再修改
type DataEntity struct {
	Data      []byte
	CreatedAt time.Time
	TTL       time.Duration
	HasTTL    bool
}

// IsExpired now - CreatedAt >= TTL 就算过期
func (e *DataEntity) IsExpired(now time.Time) bool {
	return e.HasTTL && now.Sub(e.CreatedAt) >= e.TTL
}

// Deadline 过期的时刻，没有 TTL 时第二个返回值为 false
func (e *DataEntity) Deadline() (time.Time, bool) {
	if !e.HasTTL {
		return time.Time{}, false
	}
	return e.CreatedAt.Add(e.TTL), true
}
