// Package client -----------------------------
// @file      : pool.go
// @author    : hcjjj
// @contact   : hcjjj@foxmail.com
// @time      : 2024/1/17 14:39
// -------------------------------------------
package client

import (
	"context"

	pool "github.com/jolestar/go-commons-pool/v2"
	"github.com/pkg/errors"
)

type connectionFactory struct {
	// 服务端的地址
	Addr string
}

func (f *connectionFactory) MakeObject(ctx context.Context) (*pool.PooledObject, error) {
	c, err := MakeClient(f.Addr)
	if err != nil {
		return nil, err
	}
	c.Start()
	return pool.NewPooledObject(c), nil
}

func (f *connectionFactory) DestroyObject(ctx context.Context, object *pool.PooledObject) error {
	c, ok := object.Object.(*Client)
	if !ok {
		return errors.New("type mismatch")
	}
	c.Close()
	return nil
}

// ValidateObject 借出前 PING 一次，坏掉的连接会被销毁重建
func (f *connectionFactory) ValidateObject(ctx context.Context, object *pool.PooledObject) bool {
	c, ok := object.Object.(*Client)
	if !ok {
		return false
	}
	return c.Ping() == nil
}

func (f *connectionFactory) ActivateObject(ctx context.Context, object *pool.PooledObject) error {
	return nil
}

func (f *connectionFactory) PassivateObject(ctx context.Context, object *pool.PooledObject) error {
	return nil
}

// Pool 同一个服务端的客户端连接池
type Pool struct {
	objects *pool.ObjectPool
}

// NewPool size 是最多同时借出的连接数
func NewPool(ctx context.Context, addr string, size int) *Pool {
	config := pool.NewDefaultPoolConfig()
	config.MaxTotal = size
	config.MaxIdle = size
	config.TestOnBorrow = true
	return &Pool{
		objects: pool.NewObjectPool(ctx, &connectionFactory{Addr: addr}, config),
	}
}

func (p *Pool) Borrow(ctx context.Context) (*Client, error) {
	object, err := p.objects.BorrowObject(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "borrow client")
	}
	c, ok := object.(*Client)
	if !ok {
		return nil, errors.New("wrong type")
	}
	return c, nil
}

// Return 归还连接，避免连接耗尽
func (p *Pool) Return(ctx context.Context, c *Client) error {
	return p.objects.ReturnObject(ctx, c)
}

// Invalidate 连接出错时丢弃，不再放回池子
func (p *Pool) Invalidate(ctx context.Context, c *Client) error {
	return p.objects.InvalidateObject(ctx, c)
}

func (p *Pool) Active() int {
	return p.objects.GetNumActive()
}

func (p *Pool) Close(ctx context.Context) {
	p.objects.Close(ctx)
}
