// Package dict -----------------------------
// @file      : dict.go
// @author    : hcjjj
// @contact   : hcjjj@foxmail.com
// @time      : 2024/1/4 19:03
// -------------------------------------------
package dict

type Dict interface {
	Get(key string) (val interface{}, exists bool)
	Len() int
	// PutIfAbsent 返回存进去了几个，key 已存在时返回 0
	PutIfAbsent(key string, val interface{}) int
	// RemoveIf 只有 pred 返回 true 时才删除，判断和删除在同一把锁内
	RemoveIf(key string, pred func(val interface{}) bool) int
	Clear()
}
