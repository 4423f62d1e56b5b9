// Package resp -----------------------------
// @file      : reply.go
// @author    : hcjjj
// @contact   : hcjjj@foxmail.com
// @time      : 2023/12/22 16:42
// -------------------------------------------
package resp

// Reply 是 RESP 协议里的一个值，服务器的回复和客户端的请求都用它表示
type Reply interface {
	// ToBytes 编码为线上的字节，不会失败
	ToBytes() []byte
}
