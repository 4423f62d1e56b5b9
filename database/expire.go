// Package database -----------------------------
// @file      : expire.go
// @author    : hcjjj
// @contact   : hcjjj@foxmail.com
// @time      : 2024/1/19 16:40
// -------------------------------------------
package database

import (
	"sync"
	"time"

	"github.com/google/btree"

	"mini-redis/interface/database"
)

// expireIndex 按过期时间排序的 key，只在开启主动过期时使用
// GET 不依赖它，过期的值无论有没有被删除都读不到
type expireIndex struct {
	mu   sync.Mutex
	tree *btree.BTreeG[expireItem]
}

type expireItem struct {
	deadline time.Time
	key      string
	// 删除时确认 key 对应的还是同一个值
	entity *database.DataEntity
}

func lessExpireItem(a, b expireItem) bool {
	if !a.deadline.Equal(b.deadline) {
		return a.deadline.Before(b.deadline)
	}
	return a.key < b.key
}

func newExpireIndex() *expireIndex {
	return &expireIndex{
		tree: btree.NewG[expireItem](32, lessExpireItem),
	}
}

func (idx *expireIndex) add(key string, entity *database.DataEntity) {
	deadline, ok := entity.Deadline()
	if !ok {
		return
	}
	idx.mu.Lock()
	idx.tree.ReplaceOrInsert(expireItem{deadline: deadline, key: key, entity: entity})
	idx.mu.Unlock()
}

// popDue 取出所有 deadline <= now 的项
func (idx *expireIndex) popDue(now time.Time) []expireItem {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	var due []expireItem
	for {
		item, ok := idx.tree.Min()
		if !ok || item.deadline.After(now) {
			return due
		}
		idx.tree.DeleteMin()
		due = append(due, item)
	}
}

func (idx *expireIndex) len() int {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	return idx.tree.Len()
}

func (idx *expireIndex) clear() {
	idx.mu.Lock()
	idx.tree.Clear(false)
	idx.mu.Unlock()
}

// enableActiveExpire 之后写入的带 TTL 的 key 会被 sweepExpired 删除
func (db *DB) enableActiveExpire() {
	db.expires = newExpireIndex()
}

// sweepExpired 删除已经过期的 key，返回删除的数量
func (db *DB) sweepExpired() int {
	if db.expires == nil {
		return 0
	}
	removed := 0
	for _, item := range db.expires.popDue(db.now()) {
		entity := item.entity
		removed += db.data.RemoveIf(item.key, func(val interface{}) bool {
			current, _ := val.(*database.DataEntity)
			return current == entity
		})
	}
	db.metrics.KeysSwept(removed)
	return removed
}
