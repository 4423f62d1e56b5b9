// Package database -----------------------------
// @file      : string.go
// @author    : hcjjj
// @contact   : hcjjj@foxmail.com
// @time      : 2024/1/13 20:37
// -------------------------------------------
package database

import (
	"math"
	"strconv"
	"time"

	"mini-redis/interface/database"
	"mini-redis/interface/resp"
	"mini-redis/resp/reply"
)

// 超过这个毫秒数的 TTL 按 time.Duration 的最大值处理
const maxTTLMillis = math.MaxInt64 / int64(time.Millisecond)

// bulkArg 参数必须是非空的 bulk string
func bulkArg(arg resp.Reply) ([]byte, bool) {
	bulk, ok := arg.(*reply.BulkReply)
	if !ok {
		return nil, false
	}
	return bulk.Arg, true
}

// GET k1
func execGet(db *DB, args database.CmdLine) resp.Reply {
	key, ok := bulkArg(args[0])
	if !ok {
		return reply.MakeInvalidArgsReply()
	}
	entity, exists := db.GetAlive(string(key))
	if !exists {
		return reply.MakeNullBulkReply()
	}
	return reply.MakeBulkReply(entity.Data)
}

// SET k1 v
// SET k1 v PX 100，第四个参数不做解释，TTL 都按毫秒算
// key 已经存在时什么也不做，但仍然回复 OK
func execSet(db *DB, args database.CmdLine) resp.Reply {
	if len(args) != 2 && len(args) != 4 {
		return reply.MakeInvalidArgsReply()
	}
	key, ok := bulkArg(args[0])
	if !ok {
		return reply.MakeInvalidArgsReply()
	}
	value, ok := bulkArg(args[1])
	if !ok {
		return reply.MakeInvalidArgsReply()
	}
	var ttl *time.Duration
	if len(args) == 4 {
		literal, ok := bulkArg(args[3])
		if !ok {
			return reply.MakeInvalidArgsReply()
		}
		d, err := parseTTL(literal)
		if err != nil {
			return reply.MakeInvalidArgsReply()
		}
		ttl = &d
	}
	db.SetIfAbsent(string(key), value, ttl)
	return reply.MakeOkReply()
}

// parseTTL 只接受非负的十进制整数，单位毫秒
func parseTTL(literal []byte) (time.Duration, error) {
	ms, err := strconv.ParseUint(string(literal), 10, 64)
	if err != nil {
		return 0, err
	}
	if ms > uint64(maxTTLMillis) {
		return time.Duration(math.MaxInt64), nil
	}
	return time.Duration(ms) * time.Millisecond, nil
}

func init() {
	RegisterCommand(CmdGet, execGet, -2)
	RegisterCommand(CmdSet, execSet, -3)
}
