// Package reply -----------------------------
// @file      : consts.go
// @author    : hcjjj
// @contact   : hcjjj@foxmail.com
// @time      : 2023/12/22 16:44
// -------------------------------------------
package reply

// 固定的一些回复

var pongBytes = []byte("PONG")

// MakePongReply PING 的回复是 bulk string
func MakePongReply() *BulkReply {
	return &BulkReply{Arg: pongBytes}
}

// 持有固定的一个，节约内存的一种方式
var theOkReply = &StatusReply{Status: "OK"}

func MakeOkReply() *StatusReply {
	return theOkReply
}

// NullBulkReply 空的字符串回复
type NullBulkReply struct {
}

// 空回复，不是空字符串
var nullBulkBytes = []byte("$-1\r\n")

func (n *NullBulkReply) ToBytes() []byte {
	return nullBulkBytes
}

var theNullBulkReply = new(NullBulkReply)

func MakeNullBulkReply() *NullBulkReply {
	return theNullBulkReply
}

// NullMultiBulkReply 长度为 -1 的数组
type NullMultiBulkReply struct{}

var nullMultiBulkBytes = []byte("*-1\r\n")

func (r *NullMultiBulkReply) ToBytes() []byte {
	return nullMultiBulkBytes
}

var theNullMultiBulkReply = new(NullMultiBulkReply)

func MakeNullMultiBulkReply() *NullMultiBulkReply {
	return theNullMultiBulkReply
}

// MakeEmptyMultiBulkReply *0\r\n
func MakeEmptyMultiBulkReply() *ArrayReply {
	return MakeArrayReply()
}

var infoBytes = []byte("role:master\r\n")

// MakeInfoReply INFO 的内容是固定的
func MakeInfoReply() *BulkReply {
	return &BulkReply{Arg: infoBytes}
}
