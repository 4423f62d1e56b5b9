// Package database -----------------------------
// @file      : ping.go
// @author    : hcjjj
// @contact   : hcjjj@foxmail.com
// @time      : 2024/1/12 20:11
// -------------------------------------------
package database

import (
	"mini-redis/interface/database"
	"mini-redis/interface/resp"
	"mini-redis/resp/reply"
)

// Ping 多余的参数忽略
func Ping(db *DB, args database.CmdLine) resp.Reply {
	return reply.MakePongReply()
}

// Echo 原样返回第一个参数，保留它原本的类型
func Echo(db *DB, args database.CmdLine) resp.Reply {
	return args[0]
}

// Info 只报告角色
func Info(db *DB, args database.CmdLine) resp.Reply {
	return reply.MakeInfoReply()
}

func init() {
	RegisterCommand(CmdPing, Ping, -1)
	RegisterCommand(CmdEcho, Echo, -2)
	RegisterCommand(CmdInfo, Info, -1)
}
