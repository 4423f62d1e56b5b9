// Package database -----------------------------
// @file      : standalone_database.go
// @author    : hcjjj
// @contact   : hcjjj@foxmail.com
// @time      : 2024/1/13 21:10
// -------------------------------------------
package database

import (
	"sync"
	"time"

	"mini-redis/interface/database"
	"mini-redis/interface/resp"
	"mini-redis/lib/logger"
	"mini-redis/lib/metrics"
	"mini-redis/resp/reply"
)

// Options 创建数据库的参数
type Options struct {
	// 大于 0 时后台按这个间隔删除过期的 key
	ExpireSweepInterval time.Duration
	Metrics             *metrics.Metrics
}

// StandaloneDatabase 所有连接共享的存储，只有一个 DB
type StandaloneDatabase struct {
	db        *DB
	stopSweep chan struct{}
	closeOnce sync.Once
	sweepDone sync.WaitGroup
}

// NewStandaloneDatabase 创建 Redis 数据库的核心
func NewStandaloneDatabase(opts Options) *StandaloneDatabase {
	db := makeDB()
	db.metrics = opts.Metrics
	sdb := &StandaloneDatabase{
		db:        db,
		stopSweep: make(chan struct{}),
	}
	opts.Metrics.RegisterKeys(db.Len)
	if opts.ExpireSweepInterval > 0 {
		db.enableActiveExpire()
		sdb.sweepDone.Add(1)
		go sdb.sweepLoop(opts.ExpireSweepInterval)
	}
	return sdb
}

func (sdb *StandaloneDatabase) sweepLoop(interval time.Duration) {
	defer sdb.sweepDone.Done()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-sdb.stopSweep:
			return
		case <-ticker.C:
			if n := sdb.db.sweepExpired(); n > 0 {
				logger.Debug("swept expired keys: ", n)
			}
		}
	}
}

// Exec 执行一条命令，命令里的 panic 不会影响连接
func (sdb *StandaloneDatabase) Exec(client resp.Connection, cmdLine database.CmdLine) (result resp.Reply) {
	defer func() {
		if err := recover(); err != nil {
			logger.Error(err)
			result = reply.MakeUnknownErrReply()
		}
	}()
	return sdb.db.Exec(client, cmdLine)
}

// DB 返回底层的存储，测试里直接操作它
func (sdb *StandaloneDatabase) DB() *DB {
	return sdb.db
}

func (sdb *StandaloneDatabase) Close() {
	sdb.closeOnce.Do(func() {
		close(sdb.stopSweep)
		sdb.sweepDone.Wait()
		sdb.db.Flush()
	})
}

func (sdb *StandaloneDatabase) AfterClientClose(c resp.Connection) {
}
