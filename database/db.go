// Package database -----------------------------
// @file      : db.go
// @author    : hcjjj
// @contact   : hcjjj@foxmail.com
// @time      : 2024/1/10 20:55
// -------------------------------------------
package database

import (
	"time"

	"mini-redis/datastruct/dict"
	"mini-redis/interface/database"
	"mini-redis/interface/resp"
	"mini-redis/lib/metrics"
	"mini-redis/resp/reply"
)

type DB struct {
	data dict.Dict
	// 开启主动过期时才有
	expires *expireIndex
	metrics *metrics.Metrics
	now     func() time.Time
}

// ExecFunc 的 args 不包含命令名
type ExecFunc func(db *DB, args database.CmdLine) resp.Reply

func makeDB() *DB {
	return &DB{
		data: dict.MakeSyncDict(),
		now:  time.Now,
	}
}

func (db *DB) Exec(c resp.Connection, cmdLine database.CmdLine) resp.Reply {
	if len(cmdLine) == 0 {
		return reply.MakeInvalidCommandReply()
	}
	name, ok := cmdLine[0].(*reply.BulkReply)
	if !ok {
		return reply.MakeInvalidCommandReply()
	}
	cmdType := ParseCommand(string(name.Arg))
	db.metrics.CommandProcessed(cmdType.String())
	cmd, ok := cmdTable[cmdType]
	// 用户发送未知的命令
	if !ok {
		return reply.MakeInvalidCommandReply()
	}
	if !validateArity(cmd.arity, cmdLine) {
		return reply.MakeInvalidArgsReply()
	}
	// SET K V → K V
	return cmd.executor(db, cmdLine[1:])
}

// SET K V → arity = 3
// PING ... → arity = -1
func validateArity(arity int, cmdArgs database.CmdLine) bool {
	argNum := len(cmdArgs)
	// 固定长度
	if arity > 0 {
		return argNum == arity
	}
	// 变长
	return argNum >= -arity
}

// SetIfAbsent key 不存在时才写入，过期了但还没删除的也算存在
func (db *DB) SetIfAbsent(key string, value []byte, ttl *time.Duration) bool {
	entity := &database.DataEntity{
		Data:      value,
		CreatedAt: db.now(),
	}
	if ttl != nil {
		entity.TTL = *ttl
		entity.HasTTL = true
	}
	if db.data.PutIfAbsent(key, entity) == 0 {
		return false
	}
	if db.expires != nil && entity.HasTTL {
		db.expires.add(key, entity)
	}
	return true
}

// Get 返回存储的值，是否过期由调用方判断，读取不会删除过期的值
func (db *DB) Get(key string) (*database.DataEntity, bool) {
	raw, ok := db.data.Get(key)
	if !ok {
		return nil, false
	}
	entity, _ := raw.(*database.DataEntity)
	return entity, true
}

// GetAlive 过期的值当作不存在
func (db *DB) GetAlive(key string) (*database.DataEntity, bool) {
	entity, ok := db.Get(key)
	if !ok || entity.IsExpired(db.now()) {
		return nil, false
	}
	return entity, true
}

func (db *DB) Len() int {
	return db.data.Len()
}

func (db *DB) Flush() {
	db.data.Clear()
	if db.expires != nil {
		db.expires.clear()
	}
}
