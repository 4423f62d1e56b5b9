package database

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mini-redis/interface/database"
	"mini-redis/interface/resp"
	"mini-redis/resp/reply"
)

// fakeClock 手动推进的时钟
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Unix(1700000000, 0)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func bulks(args ...string) database.CmdLine {
	line := make(database.CmdLine, len(args))
	for i, arg := range args {
		line[i] = reply.MakeBulkReply([]byte(arg))
	}
	return line
}

func exec(db *DB, args ...string) string {
	return string(db.Exec(nil, bulks(args...)).ToBytes())
}

const (
	okBytes          = "+OK\r\n"
	nullBulkBytes    = "$-1\r\n"
	invalidCommand   = "-ERR invalid command\r\n"
	invalidArguments = "-ERR invalid arguments\r\n"
)

func TestParseCommand(t *testing.T) {
	tests := map[string]CommandType{
		"PING":  CmdPing,
		"ping":  CmdPing,
		"PiNg":  CmdPing,
		"echo":  CmdEcho,
		"SET":   CmdSet,
		"Get":   CmdGet,
		"INFO":  CmdInfo,
		"DEL":   CmdUnknown,
		"":      CmdUnknown,
		"PINGX": CmdUnknown,
		"set ":  CmdUnknown,
	}
	for token, want := range tests {
		assert.Equal(t, want, ParseCommand(token), "token %q", token)
	}
	assert.Equal(t, "set", CmdSet.String())
	assert.Equal(t, "unknown", CmdUnknown.String())
}

func TestPingEchoInfo(t *testing.T) {
	db := makeDB()
	assert.Equal(t, "$4\r\nPONG\r\n", exec(db, "PING"))
	assert.Equal(t, "$4\r\nPONG\r\n", exec(db, "ping", "ignored"))
	assert.Equal(t, "$5\r\nhello\r\n", exec(db, "ECHO", "hello"))
	assert.Equal(t, "$0\r\n\r\n", exec(db, "echo", ""))
	assert.Equal(t, "$13\r\nrole:master\r\n\r\n", exec(db, "INFO"))
	assert.Equal(t, "$13\r\nrole:master\r\n\r\n", exec(db, "info", "replication"))
	assert.Equal(t, invalidArguments, exec(db, "ECHO"))
}

func TestEchoPreservesArgumentKind(t *testing.T) {
	db := makeDB()
	result := db.Exec(nil, database.CmdLine{reply.MakeBulkReply([]byte("ECHO")), reply.MakeIntReply(5)})
	assert.Equal(t, ":5\r\n", string(result.ToBytes()))
}

func TestSetGet(t *testing.T) {
	db := makeDB()
	assert.Equal(t, nullBulkBytes, exec(db, "GET", "missing"))
	assert.Equal(t, okBytes, exec(db, "SET", "k", "v"))
	assert.Equal(t, "$1\r\nv\r\n", exec(db, "GET", "k"))
	assert.Equal(t, "$1\r\nv\r\n", exec(db, "get", "k", "extra"))

	assert.Equal(t, okBytes, exec(db, "SET", "empty", ""))
	assert.Equal(t, "$0\r\n\r\n", exec(db, "GET", "empty"))

	assert.Equal(t, okBytes, exec(db, "SET", "bin", "a\r\nb"))
	assert.Equal(t, "$4\r\na\r\nb\r\n", exec(db, "GET", "bin"))
}

func TestSetDoesNotOverwrite(t *testing.T) {
	db := makeDB()
	assert.Equal(t, okBytes, exec(db, "SET", "k", "first"))
	assert.Equal(t, okBytes, exec(db, "SET", "k", "second"))
	assert.Equal(t, "$5\r\nfirst\r\n", exec(db, "GET", "k"))
	assert.Equal(t, 1, db.Len())
}

func TestSetWithTTL(t *testing.T) {
	clock := newFakeClock()
	db := makeDB()
	db.now = clock.Now

	assert.Equal(t, okBytes, exec(db, "SET", "k", "v", "PX", "100"))
	clock.Advance(99 * time.Millisecond)
	assert.Equal(t, "$1\r\nv\r\n", exec(db, "GET", "k"))
	clock.Advance(time.Millisecond)
	assert.Equal(t, nullBulkBytes, exec(db, "GET", "k"))

	// 过期但没删除的 key 仍然占着位置
	assert.Equal(t, okBytes, exec(db, "SET", "k", "new"))
	assert.Equal(t, nullBulkBytes, exec(db, "GET", "k"))
	assert.Equal(t, 1, db.Len())
}

func TestSetTTLZeroExpiresImmediately(t *testing.T) {
	db := makeDB()
	assert.Equal(t, okBytes, exec(db, "SET", "k", "v", "PX", "0"))
	assert.Equal(t, nullBulkBytes, exec(db, "GET", "k"))
}

func TestSetFlagTokenIsNotInterpreted(t *testing.T) {
	clock := newFakeClock()
	db := makeDB()
	db.now = clock.Now

	assert.Equal(t, okBytes, exec(db, "SET", "k", "v", "EX", "10"))
	clock.Advance(10 * time.Millisecond)
	assert.Equal(t, nullBulkBytes, exec(db, "GET", "k"))
}

func TestSetHugeTTL(t *testing.T) {
	db := makeDB()
	assert.Equal(t, okBytes, exec(db, "SET", "k", "v", "PX", "18446744073709551615"))
	assert.Equal(t, "$1\r\nv\r\n", exec(db, "GET", "k"))
	entity, ok := db.Get("k")
	require.True(t, ok)
	assert.True(t, entity.HasTTL)
}

func TestSetInvalidArguments(t *testing.T) {
	db := makeDB()
	assert.Equal(t, invalidArguments, exec(db, "SET"))
	assert.Equal(t, invalidArguments, exec(db, "SET", "k"))
	assert.Equal(t, invalidArguments, exec(db, "SET", "k", "v", "PX"))
	assert.Equal(t, invalidArguments, exec(db, "SET", "k", "v", "PX", "10", "extra"))
	assert.Equal(t, invalidArguments, exec(db, "SET", "k", "v", "PX", "-1"))
	assert.Equal(t, invalidArguments, exec(db, "SET", "k", "v", "PX", "soon"))
	assert.Equal(t, 0, db.Len())

	notBulk := database.CmdLine{reply.MakeBulkReply([]byte("SET")), reply.MakeIntReply(1), reply.MakeBulkReply([]byte("v"))}
	assert.Equal(t, invalidArguments, string(db.Exec(nil, notBulk).ToBytes()))

	nullTTL := bulks("SET", "k", "v", "PX")
	nullTTL = append(nullTTL, reply.MakeNullBulkReply())
	assert.Equal(t, invalidArguments, string(db.Exec(nil, nullTTL).ToBytes()))
}

func TestGetInvalidArguments(t *testing.T) {
	db := makeDB()
	assert.Equal(t, invalidArguments, exec(db, "GET"))
	line := database.CmdLine{reply.MakeBulkReply([]byte("GET")), reply.MakeNullBulkReply()}
	assert.Equal(t, invalidArguments, string(db.Exec(nil, line).ToBytes()))
}

func TestUnknownCommand(t *testing.T) {
	db := makeDB()
	assert.Equal(t, invalidCommand, exec(db, "DEL", "k"))
	assert.Equal(t, invalidCommand, exec(db, "FLUSHALL"))
	assert.Equal(t, invalidCommand, string(db.Exec(nil, database.CmdLine{}).ToBytes()))
	assert.Equal(t, invalidCommand, string(db.Exec(nil, database.CmdLine{reply.MakeIntReply(1)}).ToBytes()))
}

func TestExecRecoversPanic(t *testing.T) {
	orig := cmdTable[CmdInfo]
	RegisterCommand(CmdInfo, func(db *DB, args database.CmdLine) resp.Reply {
		panic("boom")
	}, -1)
	defer func() { cmdTable[CmdInfo] = orig }()

	sdb := NewStandaloneDatabase(Options{})
	defer sdb.Close()
	result := sdb.Exec(nil, bulks("INFO"))
	assert.Equal(t, "-ERR unknown\r\n", string(result.ToBytes()))
	assert.Equal(t, "$4\r\nPONG\r\n", string(sdb.Exec(nil, bulks("PING")).ToBytes()))
}

func TestSweepExpired(t *testing.T) {
	clock := newFakeClock()
	db := makeDB()
	db.now = clock.Now
	db.enableActiveExpire()

	exec(db, "SET", "short", "v", "PX", "10")
	exec(db, "SET", "long", "v", "PX", "1000")
	exec(db, "SET", "forever", "v")
	assert.Equal(t, 2, db.expires.len())

	assert.Equal(t, 0, db.sweepExpired())
	clock.Advance(10 * time.Millisecond)
	assert.Equal(t, 1, db.sweepExpired())
	assert.Equal(t, 2, db.Len())
	assert.Equal(t, 1, db.expires.len())

	// 删除之后可以重新写入
	assert.Equal(t, okBytes, exec(db, "SET", "short", "again"))
	assert.Equal(t, "$5\r\nagain\r\n", exec(db, "GET", "short"))

	clock.Advance(time.Second)
	assert.Equal(t, 1, db.sweepExpired())
	assert.Equal(t, 2, db.Len())
	assert.Equal(t, "$1\r\nv\r\n", exec(db, "GET", "forever"))
}

func TestSweepKeepsReplacedEntity(t *testing.T) {
	clock := newFakeClock()
	db := makeDB()
	db.now = clock.Now
	db.enableActiveExpire()

	exec(db, "SET", "k", "old", "PX", "10")
	old, _ := db.Get("k")
	// 模拟 sweeper 之外的删除
	db.data.RemoveIf("k", func(interface{}) bool { return true })
	exec(db, "SET", "k", "new")

	clock.Advance(time.Second)
	assert.Equal(t, 0, db.sweepExpired())
	current, ok := db.Get("k")
	require.True(t, ok)
	assert.NotSame(t, old, current)
	assert.Equal(t, []byte("new"), current.Data)
}

func TestFlushClearsExpireIndex(t *testing.T) {
	db := makeDB()
	db.enableActiveExpire()
	exec(db, "SET", "k", "v", "PX", "10")
	db.Flush()
	assert.Equal(t, 0, db.Len())
	assert.Equal(t, 0, db.expires.len())
}

func TestStandaloneDatabaseSweepLoop(t *testing.T) {
	sdb := NewStandaloneDatabase(Options{ExpireSweepInterval: 5 * time.Millisecond})
	defer sdb.Close()

	assert.Equal(t, okBytes, string(sdb.Exec(nil, bulks("SET", "k", "v", "PX", "1")).ToBytes()))
	assert.Eventually(t, func() bool {
		return sdb.DB().Len() == 0
	}, time.Second, 5*time.Millisecond)
}

func TestStandaloneDatabaseCloseTwice(t *testing.T) {
	sdb := NewStandaloneDatabase(Options{ExpireSweepInterval: time.Millisecond})
	sdb.Exec(nil, bulks("SET", "k", "v"))
	sdb.Close()
	sdb.Close()
	assert.Equal(t, 0, sdb.DB().Len())
}

func TestConcurrentDisjointKeys(t *testing.T) {
	sdb := NewStandaloneDatabase(Options{})
	defer sdb.Close()

	const workers, perWorker = 16, 200
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < perWorker; i++ {
				key := fmt.Sprintf("key:%d:%d", w, i)
				value := fmt.Sprintf("value:%d:%d", w, i)
				assert.Equal(t, okBytes, string(sdb.Exec(nil, bulks("SET", key, value)).ToBytes()))
				got := sdb.Exec(nil, bulks("GET", key))
				assert.Equal(t, string(reply.MakeBulkReply([]byte(value)).ToBytes()), string(got.ToBytes()))
			}
		}(w)
	}
	wg.Wait()
	assert.Equal(t, workers*perWorker, sdb.DB().Len())
}

func TestConcurrentSetSameKey(t *testing.T) {
	sdb := NewStandaloneDatabase(Options{})
	defer sdb.Close()

	const workers = 32
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			sdb.Exec(nil, bulks("SET", "shared", fmt.Sprintf("v%d", w)))
		}(w)
	}
	wg.Wait()

	first := string(sdb.Exec(nil, bulks("GET", "shared")).ToBytes())
	assert.NotEqual(t, nullBulkBytes, first)
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, string(sdb.Exec(nil, bulks("GET", "shared")).ToBytes()))
	}
	assert.Equal(t, 1, sdb.DB().Len())
}
