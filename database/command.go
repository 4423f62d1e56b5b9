// Package database -----------------------------
// @file      : command.go
// @author    : hcjjj
// @contact   : hcjjj@foxmail.com
// @time      : 2024/1/12 18:28
// -------------------------------------------
package database

import "strings"

// CommandType 支持的命令，其余的都是 CmdUnknown
type CommandType int

const (
	CmdUnknown CommandType = iota
	CmdPing
	CmdEcho
	CmdSet
	CmdGet
	CmdInfo
)

var commandNames = map[string]CommandType{
	"ping": CmdPing,
	"echo": CmdEcho,
	"set":  CmdSet,
	"get":  CmdGet,
	"info": CmdInfo,
}

// ParseCommand 不区分大小写，PING ping Ping 都一样
func ParseCommand(token string) CommandType {
	if t, ok := commandNames[strings.ToLower(token)]; ok {
		return t
	}
	return CmdUnknown
}

func (t CommandType) String() string {
	switch t {
	case CmdPing:
		return "ping"
	case CmdEcho:
		return "echo"
	case CmdSet:
		return "set"
	case CmdGet:
		return "get"
	case CmdInfo:
		return "info"
	default:
		return "unknown"
	}
}

// 支持的 指令表
// 每个指令对应一个 command 结构体
var cmdTable = make(map[CommandType]*command)

type command struct {
	// 对应的执行的方法
	executor ExecFunc
	// 参数的数量，包括命令名本身
	// arity > 0 要求刚好这么多，arity < 0 要求至少 -arity 个
	arity int
}

func RegisterCommand(cmdType CommandType, executor ExecFunc, arity int) {
	cmdTable[cmdType] = &command{
		executor: executor,
		arity:    arity,
	}
}
