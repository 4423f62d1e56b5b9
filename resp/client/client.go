// Package client -----------------------------
// @file      : client.go
// @author    : hcjjj
// @contact   : hcjjj@foxmail.com
// @time      : 2024/1/17 14:10
// -------------------------------------------
package client

import (
	"net"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/pkg/errors"

	"mini-redis/interface/resp"
	"mini-redis/lib/logger"
	"mini-redis/lib/sync/atomic"
	"mini-redis/lib/sync/wait"
	"mini-redis/lib/utils"
	"mini-redis/resp/parser"
	"mini-redis/resp/reply"
)

// Client pipeline 模式的客户端，请求按顺序发送，回复按顺序匹配
type Client struct {
	// mu 保护 conn，写请求和把请求放进 waitingReqs 要在同一把锁里完成，回复才能和请求对上
	mu          sync.Mutex
	conn        net.Conn
	pendingReqs chan *request // wait to send
	waitingReqs chan *request // waiting response
	ticker      *time.Ticker
	addr        string
	working     *sync.WaitGroup // its counter presents unfinished requests(pending and waiting)
	closeOnce   sync.Once
	closed      atomic.Boolean

	// 持有读锁时才能往 pendingReqs 里放，Close 持有写锁关闭它
	sendMu sync.RWMutex
	// 关闭后心跳协程退出，之后才能关闭 pendingReqs
	stopped       chan struct{}
	heartbeatDone sync.WaitGroup
	writeDone     sync.WaitGroup
}

// request is a message sends to redis server
type request struct {
	args      [][]byte
	reply     resp.Reply
	heartbeat bool
	waiting   *wait.Wait
	err       error
}

const (
	chanSize          = 256
	maxWait           = 3 * time.Second
	dialTimeout       = 3 * time.Second
	heartbeatInterval = 10 * time.Second
	reconnectRetries  = 3
	reconnectDelay    = time.Second
)

var (
	// ErrUnexpectedReply 回复的类型和命令对不上
	ErrUnexpectedReply = errors.New("unexpected reply")
	// ErrClosed 客户端已经关闭
	ErrClosed = errors.New("client closed")

	errConnLost = errors.New("connection closed")
)

// MakeClient creates a new client
func MakeClient(addr string) (*Client, error) {
	conn, err := net.DialTimeout("tcp", addr, dialTimeout)
	if err != nil {
		return nil, errors.Wrapf(err, "dial %s", addr)
	}
	return &Client{
		addr:        addr,
		conn:        conn,
		pendingReqs: make(chan *request, chanSize),
		waitingReqs: make(chan *request, chanSize),
		working:     &sync.WaitGroup{},
		stopped:     make(chan struct{}),
	}, nil
}

// Start starts asynchronous goroutines
func (client *Client) Start() {
	client.ticker = time.NewTicker(heartbeatInterval)
	client.heartbeatDone.Add(1)
	client.writeDone.Add(1)
	go client.handleWrite()
	go client.handleRead(client.conn)
	// 定时 PING，保持连接活跃
	go client.heartbeat()
}

// Close stops asynchronous goroutines and close connection
func (client *Client) Close() {
	client.closeOnce.Do(func() {
		client.closed.Set(true)
		close(client.stopped)
		if client.ticker != nil {
			client.ticker.Stop()
			client.heartbeatDone.Wait()
		}
		// stop new request
		client.sendMu.Lock()
		close(client.pendingReqs)
		client.sendMu.Unlock()

		// wait stop process
		client.writeDone.Wait()
		client.working.Wait()

		// 关闭与服务端的连接，连接关闭后读协程会退出
		client.mu.Lock()
		_ = client.conn.Close()
		client.mu.Unlock()
		client.failWaiting(ErrClosed)
	})
}

// reconnect 由 old 的读协程调用，最多重试三次，失败则关闭客户端
func (client *Client) reconnect(old net.Conn) {
	logger.Info("reconnect with: " + client.addr)
	// 之后在 old 上的写都会失败，已经写出去的请求不会再有回复
	_ = old.Close()
	client.failWaiting(errConnLost)

	var conn net.Conn
	for i := 0; i < reconnectRetries && !client.closed.Get(); i++ {
		var err error
		conn, err = net.DialTimeout("tcp", client.addr, dialTimeout)
		if err != nil {
			logger.Error("reconnect error: " + err.Error())
			time.Sleep(reconnectDelay)
			continue
		}
		break
	}
	if conn == nil { // reach max retry, abort
		client.Close()
		return
	}

	client.mu.Lock()
	if client.closed.Get() {
		client.mu.Unlock()
		_ = conn.Close()
		return
	}
	client.conn = conn
	// 拿到锁之前写在 old 上的请求
	client.failWaiting(errConnLost)
	client.mu.Unlock()
	// restart handle read
	go client.handleRead(conn)
}

// failWaiting 让所有等回复的请求失败返回，不阻塞
func (client *Client) failWaiting(err error) {
	for {
		select {
		case req := <-client.waitingReqs:
			req.err = err
			req.waiting.Done()
		default:
			return
		}
	}
}

func (client *Client) heartbeat() {
	defer client.heartbeatDone.Done()
	for {
		select {
		case <-client.ticker.C:
			client.doHeartbeat()
		case <-client.stopped:
			return
		}
	}
}

func (client *Client) handleWrite() {
	defer client.writeDone.Done()
	for req := range client.pendingReqs {
		client.doRequest(req)
	}
}

// enqueue 把请求交给写协程，客户端关闭后返回 false
func (client *Client) enqueue(req *request) bool {
	client.sendMu.RLock()
	defer client.sendMu.RUnlock()
	if client.closed.Get() {
		return false
	}
	select {
	case client.pendingReqs <- req:
		return true
	case <-client.stopped:
		return false
	}
}

// Send 发送请求并等待回复，超时或连接出错时返回错误回复
func (client *Client) Send(args [][]byte) resp.Reply {
	request := &request{
		args:    args,
		waiting: &wait.Wait{},
	}
	request.waiting.Add(1)
	client.working.Add(1)
	defer client.working.Done()
	if !client.enqueue(request) {
		return reply.MakeErrReply("request failed " + ErrClosed.Error())
	}
	timeout := request.waiting.WaitWithTimeout(maxWait)
	if timeout {
		return reply.MakeErrReply("server time out")
	}
	if request.err != nil {
		return reply.MakeErrReply("request failed " + request.err.Error())
	}
	return request.reply
}

func (client *Client) doHeartbeat() {
	request := &request{
		args:      [][]byte{[]byte("PING")},
		heartbeat: true,
		waiting:   &wait.Wait{},
	}
	request.waiting.Add(1)
	client.working.Add(1)
	defer client.working.Done()
	if !client.enqueue(request) {
		return
	}
	request.waiting.WaitWithTimeout(maxWait)
}

func (client *Client) doRequest(req *request) {
	if req == nil || len(req.args) == 0 {
		return
	}
	bytes := reply.MakeMultiBulkReply(req.args).ToBytes()
	client.mu.Lock()
	defer client.mu.Unlock()
	var err error
	for i := 0; i < 3; i++ { // only retry, waiting for handleRead
		_, err = client.conn.Write(bytes)
		if err == nil ||
			(!strings.Contains(err.Error(), "timeout") && // only retry timeout
				!strings.Contains(err.Error(), "deadline exceeded")) {
			break
		}
	}
	if err == nil {
		select {
		case client.waitingReqs <- req:
		case <-client.stopped:
			req.err = ErrClosed
			req.waiting.Done()
		}
	} else {
		req.err = err
		req.waiting.Done()
	}
}

// 读协程是个 RESP 协议解析器，每个连接一个
func (client *Client) handleRead(conn net.Conn) {
	ch := parser.ParseStream(conn)
	for payload := range ch {
		if payload.Err != nil {
			// 协议错误的回复也要占掉一个请求，否则后面的回复全部错位
			if errors.Is(payload.Err, parser.ErrProtocol) {
				client.finishRequest(reply.MakeErrReply(payload.Err.Error()))
				continue
			}
			if client.closed.Get() {
				return
			}
			client.reconnect(conn)
			return
		}
		client.finishRequest(payload.Data)
	}
}

// finishRequest 回复可能比 doRequest 放进 waitingReqs 更早到，所以要等
func (client *Client) finishRequest(reply resp.Reply) {
	var request *request
	select {
	case request = <-client.waitingReqs:
	case <-client.stopped:
		return
	}
	request.reply = reply
	if request.waiting != nil {
		request.waiting.Done()
	}
}

// Ping 期望回复 bulk string PONG
func (client *Client) Ping() error {
	result := client.Send(utils.ToCmdLine("PING"))
	bulk, ok := result.(*reply.BulkReply)
	if !ok || string(bulk.Arg) != "PONG" {
		return replyError(result)
	}
	return nil
}

// Set key 已存在时服务端不会覆盖，但仍然回复 OK
func (client *Client) Set(key string, value []byte) error {
	return expectOK(client.Send(utils.ToCmdLine2("SET", []byte(key), value)))
}

// SetPX 带过期时间的 SET，精度为毫秒
func (client *Client) SetPX(key string, value []byte, ttl time.Duration) error {
	args := utils.ToCmdLine2("SET", []byte(key), value,
		[]byte("PX"), []byte(strconv.FormatInt(ttl.Milliseconds(), 10)))
	return expectOK(client.Send(args))
}

func expectOK(result resp.Reply) error {
	status, ok := result.(*reply.StatusReply)
	if !ok || status.Status != "OK" {
		return replyError(result)
	}
	return nil
}

// Get 第二个返回值表示 key 是否存在
func (client *Client) Get(key string) ([]byte, bool, error) {
	result := client.Send(utils.ToCmdLine("GET", key))
	switch r := result.(type) {
	case *reply.BulkReply:
		return r.Arg, true, nil
	case *reply.NullBulkReply:
		return nil, false, nil
	default:
		return nil, false, replyError(result)
	}
}

func replyError(result resp.Reply) error {
	if errReply, ok := result.(reply.ErrorReply); ok {
		return errors.New(errReply.Error())
	}
	if result == nil {
		return errors.Wrap(ErrUnexpectedReply, "nil")
	}
	return errors.Wrapf(ErrUnexpectedReply, "%q", result.ToBytes())
}
