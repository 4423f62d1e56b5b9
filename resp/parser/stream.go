// Package parser -----------------------------
// @file      : stream.go
// @author    : hcjjj
// @contact   : hcjjj@foxmail.com
// @time      : 2023/12/23 21:30
// -------------------------------------------
package parser

import (
	"io"
	"runtime/debug"

	"github.com/pkg/errors"

	"mini-redis/interface/resp"
	"mini-redis/lib/logger"
)

const readChunkSize = 4096

type Payload struct {
	// 服务器的回复和客户端的请求格式一致，所以都用 Reply
	Data resp.Reply
	Err  error
}

// ParseStream 异步解析，一个 reader 一个解析协程
// 协议错误会发一个 Err 然后继续解析，io 错误发出后关闭通道
func ParseStream(reader io.Reader) <-chan *Payload {
	ch := make(chan *Payload)
	go parse0(reader, ch)
	return ch
}

func parse0(reader io.Reader, ch chan<- *Payload) {
	defer func() {
		if err := recover(); err != nil {
			logger.Error(string(debug.Stack()))
		}
	}()
	defer close(ch)
	buffer := NewBuffer(0)
	chunk := make([]byte, readChunkSize)
	for {
		n, err := reader.Read(chunk)
		if n > 0 {
			_ = buffer.Feed(chunk[:n])
			for {
				v, perr := buffer.Next()
				if errors.Is(perr, ErrIncomplete) {
					break
				}
				ch <- &Payload{Data: v, Err: perr}
			}
		}
		if err != nil {
			// 半个帧之后断开
			if err == io.EOF && buffer.InFrame() {
				err = io.ErrUnexpectedEOF
			}
			ch <- &Payload{Err: err}
			return
		}
	}
}
