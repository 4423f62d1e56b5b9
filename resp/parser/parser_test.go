package parser

import (
	"bytes"
	"io"
	"strconv"
	"strings"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mini-redis/interface/resp"
	"mini-redis/resp/reply"
)

func TestDecodeRoundTrip(t *testing.T) {
	replies := []resp.Reply{
		reply.MakeStatusReply("OK"),
		reply.MakeStatusReply(""),
		reply.MakeErrReply("ERR boom"),
		reply.MakeIntReply(0),
		reply.MakeIntReply(-123),
		reply.MakeIntReply(1 << 62),
		reply.MakeBulkReply([]byte("hcjjj")),
		reply.MakeBulkReply([]byte{}),
		reply.MakeBulkReply([]byte("a\r\nb\x00c")),
		reply.MakeBulkReply([]byte("你好")),
		reply.MakeNullBulkReply(),
		reply.MakeEmptyMultiBulkReply(),
		reply.MakeNullMultiBulkReply(),
		reply.MakeArrayReply(
			reply.MakeBulkReply([]byte("SET")),
			reply.MakeIntReply(1),
			reply.MakeArrayReply(reply.MakeStatusReply("x"), reply.MakeNullBulkReply()),
		),
	}
	for _, r := range replies {
		encoded := r.ToBytes()
		v, n, err := Decode(encoded)
		require.NoError(t, err, "decode %q", encoded)
		assert.Equal(t, len(encoded), n)
		assert.Equal(t, encoded, v.ToBytes())
	}
}

func TestDecodeConsumesOnlyFirstValue(t *testing.T) {
	buf := []byte("+OK\r\n:1\r\n")
	v, n, err := Decode(buf)
	require.NoError(t, err)
	assert.Equal(t, 5, n)
	assert.Equal(t, reply.MakeStatusReply("OK"), v)
}

func TestDecodeNullVsEmpty(t *testing.T) {
	v, _, err := Decode([]byte("$-1\r\n"))
	require.NoError(t, err)
	assert.IsType(t, &reply.NullBulkReply{}, v)

	v, _, err = Decode([]byte("$0\r\n\r\n"))
	require.NoError(t, err)
	bulk, ok := v.(*reply.BulkReply)
	require.True(t, ok)
	assert.Len(t, bulk.Arg, 0)

	v, _, err = Decode([]byte("*-1\r\n"))
	require.NoError(t, err)
	assert.IsType(t, &reply.NullMultiBulkReply{}, v)
}

func TestDecodeIncomplete(t *testing.T) {
	full := "*3\r\n$3\r\nSET\r\n$1\r\nk\r\n$5\r\nhello\r\n"
	for i := 0; i < len(full); i++ {
		_, _, err := Decode([]byte(full[:i]))
		assert.ErrorIs(t, err, ErrIncomplete, "prefix %q", full[:i])
	}
	_, n, err := Decode([]byte(full))
	require.NoError(t, err)
	assert.Equal(t, len(full), n)
}

func TestDecodeMissingArrayItemIsIncomplete(t *testing.T) {
	_, _, err := Decode([]byte("*2\r\n$3\r\nfoo\r\n"))
	assert.ErrorIs(t, err, ErrIncomplete)
	assert.False(t, errors.Is(err, ErrProtocol))
}

func TestDecodeProtocolErrors(t *testing.T) {
	cases := map[string]string{
		"unknown type":         "?foo\r\n",
		"unknown type no crlf": "hello",
		"bad integer":          ":12a\r\n",
		"empty integer":        ":\r\n",
		"bad bulk length":      "$x\r\nfoo\r\n",
		"negative bulk length": "$-2\r\n",
		"signed bulk length":   "$+3\r\nfoo\r\n",
		"empty bulk length":    "$\r\n",
		"bad bulk terminator":  "$3\r\nfooXY",
		"bad array length":     "*a\r\n",
		"negative array":       "*-5\r\n",
		"bad nested item":      "*2\r\n$3\r\nfoo\r\n!x\r\n",
	}
	for name, raw := range cases {
		t.Run(name, func(t *testing.T) {
			_, _, err := Decode([]byte(raw))
			assert.ErrorIs(t, err, ErrProtocol)
		})
	}
}

func TestDecodeLimits(t *testing.T) {
	_, _, err := Decode([]byte("$536870913\r\n"))
	assert.ErrorIs(t, err, ErrProtocol)

	_, _, err = Decode([]byte("*1048577\r\n"))
	assert.ErrorIs(t, err, ErrProtocol)

	deep := strings.Repeat("*1\r\n", maxDepth+1) + ":1\r\n"
	_, _, err = Decode([]byte(deep))
	assert.ErrorIs(t, err, ErrProtocol)

	ok := strings.Repeat("*1\r\n", maxDepth) + ":1\r\n"
	_, n, err := Decode([]byte(ok))
	require.NoError(t, err)
	assert.Equal(t, len(ok), n)
}

func TestDecodeCopiesBulk(t *testing.T) {
	buf := []byte("$3\r\nfoo\r\n")
	v, _, err := Decode(buf)
	require.NoError(t, err)
	copy(buf, "XXXXXXXXX")
	assert.Equal(t, []byte("foo"), v.(*reply.BulkReply).Arg)
}

func TestBufferPartialFeeds(t *testing.T) {
	b := NewBuffer(0)
	frame := []byte("*2\r\n$4\r\nECHO\r\n$2\r\nhi\r\n")
	for i := 0; i < len(frame)-1; i++ {
		require.NoError(t, b.Feed(frame[i:i+1]))
		_, err := b.Next()
		assert.ErrorIs(t, err, ErrIncomplete)
	}
	require.NoError(t, b.Feed(frame[len(frame)-1:]))
	v, err := b.Next()
	require.NoError(t, err)
	assert.Equal(t, frame, v.ToBytes())
	assert.Equal(t, 0, len(b.data))
}

// commandName 请求数组的第一个 bulk string
func commandName(t *testing.T, v resp.Reply) string {
	t.Helper()
	arr, ok := v.(*reply.ArrayReply)
	require.True(t, ok)
	require.NotEmpty(t, arr.Items)
	name, ok := arr.Items[0].(*reply.BulkReply)
	require.True(t, ok)
	return string(name.Arg)
}

func TestBufferPipelined(t *testing.T) {
	b := NewBuffer(0)
	require.NoError(t, b.Feed([]byte("*1\r\n$4\r\nPING\r\n*1\r\n$4\r\nINFO\r\n*1\r\n$3")))

	first, err := b.Next()
	require.NoError(t, err)
	assert.Equal(t, "PING", commandName(t, first))

	second, err := b.Next()
	require.NoError(t, err)
	assert.Equal(t, "INFO", commandName(t, second))

	_, err = b.Next()
	assert.ErrorIs(t, err, ErrIncomplete)
	// 数组头已经解析，只剩下半个 bulk
	assert.Equal(t, len("$3"), len(b.data))

	require.NoError(t, b.Feed([]byte("\r\nGET\r\n")))
	third, err := b.Next()
	require.NoError(t, err)
	assert.Equal(t, "GET", commandName(t, third))
}

func TestBufferDiscardsOnProtocolError(t *testing.T) {
	b := NewBuffer(0)
	require.NoError(t, b.Feed([]byte("hello\r\n*1\r\n$4\r\nPING\r\n")))
	_, err := b.Next()
	assert.ErrorIs(t, err, ErrProtocol)
	assert.Equal(t, 0, len(b.data))

	require.NoError(t, b.Feed([]byte("*1\r\n$4\r\nPING\r\n")))
	v, err := b.Next()
	require.NoError(t, err)
	assert.Equal(t, "*1\r\n$4\r\nPING\r\n", string(v.ToBytes()))
}

func TestBufferResumesLargeArray(t *testing.T) {
	const n = 200000
	var frame bytes.Buffer
	frame.WriteString("*" + strconv.Itoa(n) + "\r\n")
	for i := 0; i < n; i++ {
		frame.WriteString("$1\r\na\r\n")
	}
	raw := frame.Bytes()

	b := NewBuffer(0)
	var v resp.Reply
	for i := 0; i < len(raw); i += 1024 {
		end := i + 1024
		if end > len(raw) {
			end = len(raw)
		}
		require.NoError(t, b.Feed(raw[i:end]))
		got, err := b.Next()
		if err != nil {
			require.ErrorIs(t, err, ErrIncomplete)
			// 解析过的元素不会留在缓冲里等着重新解析
			require.Less(t, len(b.data), len("$1\r\na\r\n"))
			continue
		}
		v = got
	}
	require.NotNil(t, v)
	arr, ok := v.(*reply.ArrayReply)
	require.True(t, ok)
	assert.Len(t, arr.Items, n)
	assert.Equal(t, 0, len(b.data))
	assert.Empty(t, b.dec.stack)
}

func TestBufferResumesNestedArray(t *testing.T) {
	b := NewBuffer(0)
	require.NoError(t, b.Feed([]byte("*2\r\n*2\r\n:1\r\n")))
	_, err := b.Next()
	assert.ErrorIs(t, err, ErrIncomplete)
	assert.Len(t, b.dec.stack, 2)

	require.NoError(t, b.Feed([]byte(":2\r\n+x")))
	_, err = b.Next()
	assert.ErrorIs(t, err, ErrIncomplete)
	assert.Len(t, b.dec.stack, 1)

	require.NoError(t, b.Feed([]byte("\r\n:9\r\n")))
	v, err := b.Next()
	require.NoError(t, err)
	assert.Equal(t, "*2\r\n*2\r\n:1\r\n:2\r\n+x\r\n", string(v.ToBytes()))

	next, err := b.Next()
	require.NoError(t, err)
	assert.Equal(t, ":9\r\n", string(next.ToBytes()))
}

func TestBufferProtocolErrorDropsPartialArray(t *testing.T) {
	b := NewBuffer(0)
	require.NoError(t, b.Feed([]byte("*3\r\n:1\r\n")))
	_, err := b.Next()
	assert.ErrorIs(t, err, ErrIncomplete)

	require.NoError(t, b.Feed([]byte("?\r\n")))
	_, err = b.Next()
	assert.ErrorIs(t, err, ErrProtocol)
	assert.Empty(t, b.dec.stack)

	require.NoError(t, b.Feed([]byte(":5\r\n")))
	v, err := b.Next()
	require.NoError(t, err)
	assert.Equal(t, ":5\r\n", string(v.ToBytes()))
}

func TestBufferLimitCountsParsedPart(t *testing.T) {
	b := NewBuffer(64)
	require.NoError(t, b.Feed([]byte("*100\r\n"+strings.Repeat(":1\r\n", 10))))
	_, err := b.Next()
	assert.ErrorIs(t, err, ErrIncomplete)
	assert.Equal(t, 0, len(b.data))
	assert.ErrorIs(t, b.Feed([]byte(strings.Repeat(":1\r\n", 5))), ErrBufferFull)
}

func TestDecodeLineTooLong(t *testing.T) {
	_, _, err := Decode([]byte("+" + strings.Repeat("a", maxLineLength+1)))
	assert.ErrorIs(t, err, ErrProtocol)

	_, _, err = Decode([]byte("+" + strings.Repeat("a", maxLineLength+1) + "\r\n"))
	assert.ErrorIs(t, err, ErrProtocol)

	_, _, err = Decode([]byte("+" + strings.Repeat("a", maxLineLength)))
	assert.ErrorIs(t, err, ErrIncomplete)
}

func TestBufferLimit(t *testing.T) {
	b := NewBuffer(8)
	require.NoError(t, b.Feed([]byte("$5\r\n")))
	assert.ErrorIs(t, b.Feed([]byte("hello\r\n")), ErrBufferFull)
	assert.Equal(t, 4, len(b.data))
}

// slowReader 每次只返回一个字节
type slowReader struct {
	r io.Reader
}

func (s *slowReader) Read(p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}
	return s.r.Read(p[:1])
}

func TestParseStream(t *testing.T) {
	replies := []resp.Reply{
		reply.MakeOkReply(),
		reply.MakeErrReply("ERR unknown"),
		reply.MakeIntReply(1),
		reply.MakeBulkReply([]byte("a\r\nb")),
		reply.MakeBulkReply([]byte{}),
		reply.MakeNullBulkReply(),
		reply.MakeMultiBulkReply([][]byte{[]byte("a"), nil, []byte("c")}),
		reply.MakeEmptyMultiBulkReply(),
	}
	var raw bytes.Buffer
	for _, r := range replies {
		raw.Write(r.ToBytes())
	}
	ch := ParseStream(&slowReader{r: &raw})
	i := 0
	for payload := range ch {
		if payload.Err != nil {
			assert.Equal(t, io.EOF, payload.Err)
			continue
		}
		require.Less(t, i, len(replies))
		assert.Equal(t, replies[i].ToBytes(), payload.Data.ToBytes())
		i++
	}
	assert.Equal(t, len(replies), i)
}

func TestParseStreamProtocolErrorContinues(t *testing.T) {
	ch := ParseStream(strings.NewReader("?bad\r\n"))
	payload := <-ch
	assert.ErrorIs(t, payload.Err, ErrProtocol)
	payload = <-ch
	assert.Equal(t, io.EOF, payload.Err)
	_, open := <-ch
	assert.False(t, open)
}

func TestParseStreamTruncated(t *testing.T) {
	ch := ParseStream(strings.NewReader("$5\r\nhel"))
	payload := <-ch
	assert.Equal(t, io.ErrUnexpectedEOF, payload.Err)

	// 数组的前半部分已经解析完，缓冲里没有剩余的字节
	ch = ParseStream(strings.NewReader("*2\r\n:1\r\n"))
	payload = <-ch
	assert.Equal(t, io.ErrUnexpectedEOF, payload.Err)
}
