// Package parser -----------------------------
// @file      : buffer.go
// @author    : hcjjj
// @contact   : hcjjj@foxmail.com
// @time      : 2023/12/24 15:12
// -------------------------------------------
package parser

import (
	"github.com/pkg/errors"

	"mini-redis/interface/resp"
)

// ErrBufferFull 缓冲的未解析数据超过上限
var ErrBufferFull = errors.New("query buffer limit exceeded")

// Buffer 累积一个连接上读到的字节，一次取出一个完整的帧
// 一次 read 可能只有半个帧，也可能有多个帧
// 半个帧里已经解析完的元素保存在 dec 里，对应的字节立即丢弃
type Buffer struct {
	data []byte
	dec  decoder
	// 当前这一帧已经解析并丢弃的字节数，也计入 limit
	consumed int
	// 0 表示不限制
	limit int
}

func NewBuffer(limit int) *Buffer {
	return &Buffer{limit: limit}
}

// Feed 追加新读到的数据
func (b *Buffer) Feed(p []byte) error {
	if b.limit > 0 && b.consumed+len(b.data)+len(p) > b.limit {
		return ErrBufferFull
	}
	b.data = append(b.data, p...)
	return nil
}

// Next 取出下一个完整的值
// 数据不够时返回 ErrIncomplete，下次 Next 从停下的位置继续
// 协议错误时丢弃所有缓冲的数据，后面的数据从新的帧开始解析
func (b *Buffer) Next() (resp.Reply, error) {
	if len(b.data) == 0 {
		return nil, ErrIncomplete
	}
	v, n, err := b.dec.decode(b.data, 0)
	if err != nil {
		if !errors.Is(err, ErrIncomplete) {
			b.Reset()
			return nil, err
		}
		b.consumed += n
		b.discard(n)
		return nil, err
	}
	b.consumed = 0
	b.discard(n)
	return v, nil
}

// discard 丢掉开头 n 个字节，解析出来的值不引用 data，可以直接挪动
func (b *Buffer) discard(n int) {
	if n > 0 {
		b.data = append(b.data[:0], b.data[n:]...)
	}
}

// InFrame 有一个帧收到了一部分
func (b *Buffer) InFrame() bool {
	return len(b.data) > 0 || b.consumed > 0
}

func (b *Buffer) Reset() {
	b.data = b.data[:0]
	b.dec.reset()
	b.consumed = 0
}
