// Package reply -----------------------------
// @file      : reply.go
// @author    : hcjjj
// @contact   : hcjjj@foxmail.com
// @time      : 2023/12/23 12:55
// -------------------------------------------
package reply

import (
	"strconv"

	"mini-redis/interface/resp"
)

var (
	CRLF = "\r\n"
)

/* ---- Bulk Reply ---- */

// BulkReply 定长、二进制安全的字符串，长度为 0 也是合法值，和 NullBulkReply 不同
type BulkReply struct {
	Arg []byte
}

func (b *BulkReply) ToBytes() []byte {
	// "hcjjj" → "$5\r\nhcjjj\r\n"
	buf := make([]byte, 0, len(b.Arg)+16)
	return appendBulk(buf, b.Arg)
}

func MakeBulkReply(arg []byte) *BulkReply {
	return &BulkReply{
		Arg: arg,
	}
}

func appendBulk(buf []byte, arg []byte) []byte {
	buf = append(buf, '$')
	buf = strconv.AppendInt(buf, int64(len(arg)), 10)
	buf = append(buf, CRLF...)
	buf = append(buf, arg...)
	return append(buf, CRLF...)
}

/* ---- Multi Bulk Reply ---- */

// MultiBulkReply 二维的参数，客户端发命令时用，元素为 nil 时编码为空回复
type MultiBulkReply struct {
	Args [][]byte
}

func (r *MultiBulkReply) ToBytes() []byte {
	size := 16
	for _, arg := range r.Args {
		size += len(arg) + 16
	}
	buf := make([]byte, 0, size)
	buf = append(buf, '*')
	buf = strconv.AppendInt(buf, int64(len(r.Args)), 10)
	buf = append(buf, CRLF...)
	for _, arg := range r.Args {
		if arg == nil {
			buf = append(buf, nullBulkBytes...)
		} else {
			buf = appendBulk(buf, arg)
		}
	}
	return buf
}

func MakeMultiBulkReply(arg [][]byte) *MultiBulkReply {
	return &MultiBulkReply{Args: arg}
}

/* ---- Array Reply ---- */

// ArrayReply 任意 RESP 值组成的数组，解析器得到的数组都是这个类型
type ArrayReply struct {
	Items []resp.Reply
}

func (r *ArrayReply) ToBytes() []byte {
	buf := make([]byte, 0, 16)
	buf = append(buf, '*')
	buf = strconv.AppendInt(buf, int64(len(r.Items)), 10)
	buf = append(buf, CRLF...)
	for _, item := range r.Items {
		buf = append(buf, item.ToBytes()...)
	}
	return buf
}

func MakeArrayReply(items ...resp.Reply) *ArrayReply {
	if items == nil {
		items = []resp.Reply{}
	}
	return &ArrayReply{Items: items}
}

/* ---- Status Reply ---- */

// StatusReply stores a simple status string
type StatusReply struct {
	Status string
}

// ToBytes marshal redis.Reply
func (r *StatusReply) ToBytes() []byte {
	return []byte("+" + r.Status + CRLF)
}

// MakeStatusReply creates StatusReply
func MakeStatusReply(status string) *StatusReply {
	return &StatusReply{
		Status: status,
	}
}

/* ---- Int Reply ---- */

// IntReply stores an int64 number
type IntReply struct {
	Code int64
}

// MakeIntReply creates int protocol
func MakeIntReply(code int64) *IntReply {
	return &IntReply{
		Code: code,
	}
}

// ToBytes marshal redis.Reply
func (r *IntReply) ToBytes() []byte {
	// int64 → string
	return []byte(":" + strconv.FormatInt(r.Code, 10) + CRLF)
}

/* ---- Err Reply ---- */

// ErrorReply is an error and redis.Reply
type ErrorReply interface {
	Error() string
	ToBytes() []byte
}

// StandardErrReply represents server error
type StandardErrReply struct {
	Status string
}

func (r *StandardErrReply) ToBytes() []byte {
	return []byte("-" + r.Status + CRLF)
}

func (r *StandardErrReply) Error() string {
	return r.Status
}

// MakeErrReply creates StandardErrReply
func MakeErrReply(status string) *StandardErrReply {
	return &StandardErrReply{
		Status: status,
	}
}
