package worker

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/redis/go-redis/v9"
)

// MockClickHouseConn implements driver.Conn for testing
type MockClickHouseConn struct {
	driver.Conn
	mu         sync.Mutex
	Batches    []*MockBatch
	PrepareErr error
	SendErr    error
}

func (m *MockClickHouseConn) PrepareBatch(ctx context.Context, query string, opts ...driver.PrepareBatchOption) (driver.Batch, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.PrepareErr != nil {
		return nil, m.PrepareErr
	}
	b := &MockBatch{Query: query, SendErr: m.SendErr}
	m.Batches = append(m.Batches, b)
	return b, nil
}

// SentRows returns the rows of every sent batch whose query contains table
func (m *MockClickHouseConn) SentRows(table string) [][]interface{} {
	m.mu.Lock()
	defer m.mu.Unlock()
	var rows [][]interface{}
	for _, b := range m.Batches {
		if b.sent && strings.Contains(b.Query, table) {
			rows = append(rows, b.Appended...)
		}
	}
	return rows
}

type MockBatch struct {
	driver.Batch
	Query    string
	Appended [][]interface{}
	SendErr  error
	sent     bool
}

func (m *MockBatch) Append(v ...interface{}) error {
	if len(v) == 0 {
		return errors.New("empty row")
	}
	m.Appended = append(m.Appended, v)
	return nil
}

func (m *MockBatch) Send() error {
	if m.SendErr != nil {
		return m.SendErr
	}
	m.sent = true
	return nil
}

func (m *MockBatch) Abort() error { return nil }
func (m *MockBatch) IsSent() bool { return m.sent }
func (m *MockBatch) Rows() int    { return len(m.Appended) }

// MockDB implements DBExecer and records every statement
type MockDB struct {
	mu      sync.Mutex
	Execs   []ExecCall
	ExecErr error
}

type ExecCall struct {
	SQL  string
	Args []any
}

func (m *MockDB) Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Execs = append(m.Execs, ExecCall{SQL: sql, Args: args})
	return pgconn.CommandTag{}, m.ExecErr
}

func (m *MockDB) Calls() []ExecCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]ExecCall(nil), m.Execs...)
}

// MockCache implements IdentityCache over a plain map
type MockCache struct {
	mu      sync.Mutex
	Hash    map[string]string
	HSetErr error
}

func (m *MockCache) HSet(ctx context.Context, key string, values ...interface{}) *redis.IntCmd {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.HSetErr != nil {
		return redis.NewIntResult(0, m.HSetErr)
	}
	if m.Hash == nil {
		m.Hash = map[string]string{}
	}
	for i := 0; i+1 < len(values); i += 2 {
		m.Hash[values[i].(string)] = values[i+1].(string)
	}
	return redis.NewIntResult(int64(len(values)/2), nil)
}
