// Package dict -----------------------------
// @file      : sync_dict.go
// @author    : hcjjj
// @contact   : hcjjj@foxmail.com
// @time      : 2024/1/4 19:30
// -------------------------------------------
package dict

import "sync"

// SyncDict 整个 map 只用一把锁，每次只在访问 map 的时候加锁
type SyncDict struct {
	mu sync.Mutex
	m  map[string]interface{}
}

func MakeSyncDict() *SyncDict {
	return &SyncDict{
		m: make(map[string]interface{}),
	}
}

func (dict *SyncDict) Get(key string) (val interface{}, exists bool) {
	dict.mu.Lock()
	defer dict.mu.Unlock()
	val, exists = dict.m[key]
	return
}

func (dict *SyncDict) Len() int {
	dict.mu.Lock()
	defer dict.mu.Unlock()
	return len(dict.m)
}

func (dict *SyncDict) PutIfAbsent(key string, val interface{}) int {
	dict.mu.Lock()
	defer dict.mu.Unlock()
	if _, ok := dict.m[key]; ok {
		return 0
	}
	dict.m[key] = val
	return 1
}

func (dict *SyncDict) RemoveIf(key string, pred func(val interface{}) bool) int {
	dict.mu.Lock()
	defer dict.mu.Unlock()
	val, ok := dict.m[key]
	if !ok || !pred(val) {
		return 0
	}
	delete(dict.m, key)
	return 1
}

func (dict *SyncDict) Clear() {
	dict.mu.Lock()
	defer dict.mu.Unlock()
	dict.m = make(map[string]interface{})
}
