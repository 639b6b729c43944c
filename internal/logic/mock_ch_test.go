package logic

import (
	"context"
	"reflect"
	"sync"

	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/redis/go-redis/v9"
)

// MockConn implements driver.Conn for testing
type MockConn struct {
	driver.Conn
	QueryFunc  func(ctx context.Context, query string, args ...interface{}) (driver.Rows, error)
	QueryCalls int
	mu         sync.Mutex
}

func (m *MockConn) Query(ctx context.Context, query string, args ...interface{}) (driver.Rows, error) {
	m.mu.Lock()
	m.QueryCalls++
	m.mu.Unlock()
	if m.QueryFunc != nil {
		return m.QueryFunc(ctx, query, args...)
	}
	return &MockRows{}, nil
}

// MockRows implements driver.Rows over a fixed data set
type MockRows struct {
	driver.Rows
	Data    [][]interface{}
	Index   int
	ScanErr error
	IterErr error
}

func (m *MockRows) Next() bool {
	m.Index++
	return m.Index <= len(m.Data)
}

func (m *MockRows) Scan(dest ...interface{}) error {
	if m.ScanErr != nil {
		return m.ScanErr
	}
	row := m.Data[m.Index-1]
	for i, val := range row {
		if i < len(dest) {
			setDest(dest[i], val)
		}
	}
	return nil
}

func (m *MockRows) Close() error { return nil }
func (m *MockRows) Err() error   { return m.IterErr }

// MockPgPool implements PgPool for testing
type MockPgPool struct {
	QueryFunc    func(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRowFunc func(ctx context.Context, sql string, args ...any) pgx.Row
}

func (m *MockPgPool) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	if m.QueryFunc != nil {
		return m.QueryFunc(ctx, sql, args...)
	}
	return &MockPgRows{}, nil
}

func (m *MockPgPool) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	if m.QueryRowFunc != nil {
		return m.QueryRowFunc(ctx, sql, args...)
	}
	return &MockPgRow{Err: pgx.ErrNoRows}
}

func (m *MockPgPool) Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	return pgconn.CommandTag{}, nil
}

// MockPgRows implements pgx.Rows over a fixed data set
type MockPgRows struct {
	pgx.Rows
	Data  [][]interface{}
	Index int
}

func (m *MockPgRows) Next() bool {
	m.Index++
	return m.Index <= len(m.Data)
}

func (m *MockPgRows) Scan(dest ...any) error {
	row := m.Data[m.Index-1]
	for i, val := range row {
		if i < len(dest) {
			setDest(dest[i], val)
		}
	}
	return nil
}

func (m *MockPgRows) Close()     {}
func (m *MockPgRows) Err() error { return nil }

// MockPgRow implements pgx.Row
type MockPgRow struct {
	Values []interface{}
	Err    error
}

func (m *MockPgRow) Scan(dest ...any) error {
	if m.Err != nil {
		return m.Err
	}
	for i, val := range m.Values {
		if i < len(dest) {
			setDest(dest[i], val)
		}
	}
	return nil
}

// MockRedis implements RedisClient backed by a plain map
type MockRedis struct {
	Hash     map[string]string
	HMGetErr error
	HSetErr  error
	HSetArgs []interface{}
}

func (m *MockRedis) HMGet(ctx context.Context, key string, fields ...string) *redis.SliceCmd {
	if m.HMGetErr != nil {
		return redis.NewSliceResult(nil, m.HMGetErr)
	}
	vals := make([]interface{}, len(fields))
	for i, f := range fields {
		if v, ok := m.Hash[f]; ok {
			vals[i] = v
		}
	}
	return redis.NewSliceResult(vals, nil)
}

func (m *MockRedis) HSet(ctx context.Context, key string, values ...interface{}) *redis.IntCmd {
	m.HSetArgs = append(m.HSetArgs, values...)
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

func setDest(dest interface{}, val interface{}) {
	v := reflect.ValueOf(dest).Elem()
	if val == nil {
		v.Set(reflect.Zero(v.Type()))
		return
	}
	valV := reflect.ValueOf(val)
	// Handle type conversion if needed (e.g. int to int64)
	if valV.Type().ConvertibleTo(v.Type()) {
		v.Set(valV.Convert(v.Type()))
	} else {
		v.Set(valV)
	}
}
