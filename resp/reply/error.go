// Package reply -----------------------------
// @file      : error.go
// @author    : hcjjj
// @contact   : hcjjj@foxmail.com
// @time      : 2023/12/23 12:55
// -------------------------------------------
package reply

var (
	// 命令不认识，或者请求不是以 bulk string 开头的数组
	theInvalidCommandReply = &StandardErrReply{Status: "ERR invalid command"}
	// 命令认识但是参数的个数或类型不对
	theInvalidArgsReply = &StandardErrReply{Status: "ERR invalid arguments"}
	// 执行命令时出现 panic
	theUnknownErrReply = &StandardErrReply{Status: "ERR unknown"}
	// 单个连接缓冲的数据太多
	theQueryBufferErrReply = &StandardErrReply{Status: "ERR query buffer limit exceeded"}
)

// MakeInvalidCommandReply -ERR invalid command
func MakeInvalidCommandReply() *StandardErrReply {
	return theInvalidCommandReply
}

// MakeInvalidArgsReply -ERR invalid arguments
func MakeInvalidArgsReply() *StandardErrReply {
	return theInvalidArgsReply
}

// MakeUnknownErrReply -ERR unknown
func MakeUnknownErrReply() *StandardErrReply {
	return theUnknownErrReply
}

// MakeQueryBufferErrReply -ERR query buffer limit exceeded
func MakeQueryBufferErrReply() *StandardErrReply {
	return theQueryBufferErrReply
}
