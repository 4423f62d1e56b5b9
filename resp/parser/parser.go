// Package parser -----------------------------
// @file      : parser.go
// @author    : hcjjj
// @contact   : hcjjj@foxmail.com
// @time      : 2023/12/23 20:43
// -------------------------------------------
package parser

import (
	"bytes"
	"strconv"

	"github.com/pkg/errors"

	"mini-redis/interface/resp"
	"mini-redis/resp/reply"
)

var (
	// ErrIncomplete 数据还没收全，调用方需要再读一些字节
	ErrIncomplete = errors.New("incomplete frame")
	// ErrProtocol 数据不符合 RESP 协议，再读也没用
	ErrProtocol = errors.New("protocol error")
)

const (
	MaxBulkLength      = 512 * 1024 * 1024
	MaxMultiBulkLength = 1024 * 1024
	// 数组嵌套的最大层数
	maxDepth = 64
	// 单行（类型字节之后到 \r\n）的最大长度，和 redis 的 inline 上限一致
	maxLineLength = 64 * 1024
)

var crlf = []byte{'\r', '\n'}

// Decode 从 buf 的开头解析出一个完整的 RESP 值，返回值和消耗的字节数
// 单行: +OK\r\n -ERR\r\n :5\r\n
// 多行: $3\r\nfoo\r\n *2\r\n$3\r\nfoo\r\n$3\r\nbar\r\n
func Decode(buf []byte) (resp.Reply, int, error) {
	var d decoder
	v, next, err := d.decode(buf, 0)
	if err != nil {
		return nil, 0, err
	}
	return v, next, nil
}

// decoder 在数据不够时记住还没收全的数组，下次从停下的位置继续
// 已经解析出来的元素不会再解析第二遍
type decoder struct {
	stack []*partialArray
}

type partialArray struct {
	items []resp.Reply
	want  int64
}

// decode 从 buf[pos:] 开始解析
// 成功时返回完整的值和下一个值开始的位置
// ErrIncomplete 时返回已经解析完的位置，之前的字节可以丢弃，下次从新数据的开头继续
func (d *decoder) decode(buf []byte, pos int) (resp.Reply, int, error) {
	for {
		v, count, next, err := decodeOne(buf, pos)
		if err != nil {
			return nil, pos, err
		}
		pos = next
		if v == nil {
			if len(d.stack) >= maxDepth {
				return nil, pos, errors.Wrap(ErrProtocol, "array nested too deep")
			}
			// 长度来自客户端，不能直接按它分配
			capacity := count
			if capacity > 64 {
				capacity = 64
			}
			d.stack = append(d.stack, &partialArray{items: make([]resp.Reply, 0, capacity), want: count})
			continue
		}
		if done := d.complete(v); done != nil {
			return done, pos, nil
		}
	}
}

// complete 把 v 放进最里层的数组，数组满了就继续往外放
// 最外层的值完整时返回它
func (d *decoder) complete(v resp.Reply) resp.Reply {
	for len(d.stack) > 0 {
		top := d.stack[len(d.stack)-1]
		top.items = append(top.items, v)
		if int64(len(top.items)) < top.want {
			return nil
		}
		d.stack = d.stack[:len(d.stack)-1]
		v = &reply.ArrayReply{Items: top.items}
	}
	return v
}

func (d *decoder) reset() {
	d.stack = nil
}

// decodeOne 解析 buf[pos:] 的一个值，数组只解析头部
// 返回 nil 值时表示一个长度为 count (> 0) 的数组开始了
func decodeOne(buf []byte, pos int) (resp.Reply, int64, int, error) {
	if pos >= len(buf) {
		return nil, 0, 0, ErrIncomplete
	}
	switch buf[pos] {
	case '+', '-', ':', '$', '*':
	default:
		return nil, 0, 0, errors.Wrapf(ErrProtocol, "unexpected type byte %q", buf[pos])
	}
	line, next, err := readLine(buf, pos+1)
	if err != nil {
		return nil, 0, 0, err
	}
	switch buf[pos] {
	case '+':
		return reply.MakeStatusReply(string(line)), 0, next, nil
	case '-':
		return reply.MakeErrReply(string(line)), 0, next, nil
	case ':':
		val, err := strconv.ParseInt(string(line), 10, 64)
		if err != nil {
			return nil, 0, 0, errors.Wrapf(ErrProtocol, "invalid integer %q", line)
		}
		return reply.MakeIntReply(val), 0, next, nil
	case '$':
		v, end, err := decodeBulk(buf, line, next)
		return v, 0, end, err
	default:
		return decodeArrayHeader(line, next)
	}
}

// $3\r\nSET\r\n，内容按长度读取，可以包含 \r\n
func decodeBulk(buf []byte, header []byte, pos int) (resp.Reply, int, error) {
	bulkLen, err := parseLength(header)
	if err != nil {
		return nil, 0, errors.Wrap(err, "bulk length")
	}
	if bulkLen == -1 {
		return reply.MakeNullBulkReply(), pos, nil
	}
	if bulkLen > MaxBulkLength {
		return nil, 0, errors.Wrapf(ErrProtocol, "bulk length %d exceeds limit", bulkLen)
	}
	end := pos + int(bulkLen)
	// 内容加上末尾的 \r\n
	if len(buf)-pos < int(bulkLen)+2 {
		return nil, 0, ErrIncomplete
	}
	if buf[end] != '\r' || buf[end+1] != '\n' {
		return nil, 0, errors.Wrap(ErrProtocol, "bulk string not terminated by CRLF")
	}
	// 拷贝一份，不引用读缓冲
	arg := make([]byte, bulkLen)
	copy(arg, buf[pos:end])
	return reply.MakeBulkReply(arg), end + 2, nil
}

// *3\r\n 后面跟 3 个值，-1 和 0 直接得到完整的值
func decodeArrayHeader(header []byte, pos int) (resp.Reply, int64, int, error) {
	count, err := parseLength(header)
	if err != nil {
		return nil, 0, 0, errors.Wrap(err, "array length")
	}
	if count == -1 {
		return reply.MakeNullMultiBulkReply(), 0, pos, nil
	}
	if count > MaxMultiBulkLength {
		return nil, 0, 0, errors.Wrapf(ErrProtocol, "array length %d exceeds limit", count)
	}
	if count == 0 {
		return reply.MakeEmptyMultiBulkReply(), 0, pos, nil
	}
	return nil, count, pos, nil
}

// readLine 返回 buf[pos:] 到 \r\n 之前的内容以及 \r\n 之后的位置
func readLine(buf []byte, pos int) ([]byte, int, error) {
	idx := bytes.Index(buf[pos:], crlf)
	if idx < 0 {
		if len(buf)-pos > maxLineLength {
			return nil, 0, errors.Wrap(ErrProtocol, "line too long")
		}
		return nil, 0, ErrIncomplete
	}
	if idx > maxLineLength {
		return nil, 0, errors.Wrap(ErrProtocol, "line too long")
	}
	return buf[pos : pos+idx], pos + idx + 2, nil
}

// parseLength 只接受十进制数字，负数只允许 -1
func parseLength(b []byte) (int64, error) {
	if len(b) == 2 && b[0] == '-' && b[1] == '1' {
		return -1, nil
	}
	if len(b) == 0 {
		return 0, errors.Wrap(ErrProtocol, "empty length")
	}
	for _, c := range b {
		if c < '0' || c > '9' {
			return 0, errors.Wrapf(ErrProtocol, "invalid length %q", b)
		}
	}
	n, err := strconv.ParseInt(string(b), 10, 64)
	if err != nil {
		return 0, errors.Wrapf(ErrProtocol, "invalid length %q", b)
	}
	return n, nil
}
