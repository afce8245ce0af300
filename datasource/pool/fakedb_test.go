package pool

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"io"
	"net/url"
	"sync"
	"sync/atomic"
)

// fakedb is a database/sql driver for tests: "fakedb://up" connects, "fakedb://down" is refused,
// "fakedb://flaky" is refused as long as flakyFailures is positive.
// Executing "SELECT broken" fails, every other statement succeeds and is recorded.
type fakeDriver struct {
	mu       sync.Mutex
	executed []string
	opened   atomic.Int32
}

var (
	fakeDB        = &fakeDriver{}
	flakyFailures atomic.Int32

	errRefused = errors.New("dial tcp: connection refused")
)

func init() {
	sql.Register("fakedb", fakeDB)
}

func (d *fakeDriver) reset() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.executed = nil
	d.opened.Store(0)
}

func (d *fakeDriver) statements() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]string(nil), d.executed...)
}

func (d *fakeDriver) Open(dsn string) (driver.Conn, error) {
	u, err := url.Parse(dsn)
	if err != nil {
		return nil, err
	}
	switch u.Host {
	case "down":
		return nil, errRefused
	case "flaky":
		if flakyFailures.Add(-1) >= 0 {
			return nil, errRefused
		}
	}
	d.opened.Add(1)
	return &fakeConn{driver: d}, nil
}

type fakeConn struct {
	driver *fakeDriver
}

func (c *fakeConn) ExecContext(_ context.Context, query string, _ []driver.NamedValue) (driver.Result, error) {
	if query == "SELECT broken" {
		return nil, errors.New(`relation "broken" does not exist`)
	}
	c.driver.mu.Lock()
	defer c.driver.mu.Unlock()
	c.driver.executed = append(c.driver.executed, query)
	return driver.RowsAffected(0), nil
}

func (c *fakeConn) Ping(context.Context) error {
	return nil
}

func (c *fakeConn) Prepare(string) (driver.Stmt, error) {
	return nil, errors.New("prepared statements are not supported")
}

func (c *fakeConn) Close() error {
	return nil
}

func (c *fakeConn) Begin() (driver.Tx, error) {
	return nil, io.ErrUnexpectedEOF
}
