package postgres

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"ethicure/internal/kv/core"
	"ethicure/internal/kv/kvtest"
)

func TestContract(t *testing.T) {
	dsn := os.Getenv("ETHICURE_TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skipf("ETHICURE_TEST_POSTGRES_DSN not set")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	s, err := Open(ctx, dsn)
	if err != nil {
		t.Skipf("postgres unavailable: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	kvtest.RunContract(t, s)
}

func TestOpenCreatesTableWithDollarDialect(t *testing.T) {
	db, conn := newStubDB(t)
	restore := OverrideSQLOpen(func(driverName, _ string) (*sql.DB, error) {
		if driverName != defaultDriver {
			t.Fatalf("unexpected driver %s", driverName)
		}
		return db, nil
	})
	defer restore()

	s, err := Open(context.Background(), "")
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if s.Driver() != core.DriverPostgres {
		t.Fatalf("unexpected driver %s", s.Driver())
	}
	if len(conn.execs) != 1 || !strings.Contains(conn.execs[0], "BYTEA") {
		t.Fatalf("expected a BYTEA table DDL, got %v", conn.execs)
	}

	// the stub rejects every delete; the statement text is what matters here
	_, _ = s.Delete(context.Background(), "app:users")
	last := conn.execs[len(conn.execs)-1]
	if !strings.Contains(last, "key = $1") {
		t.Fatalf("expected dollar placeholders, got %q", last)
	}
}

func TestOpenErrors(t *testing.T) {
	restore := OverrideSQLOpen(func(string, string) (*sql.DB, error) { return nil, errors.New("boom") })
	if _, err := Open(context.Background(), "postgres://x"); err == nil || !strings.Contains(err.Error(), "open postgres") {
		t.Fatalf("expected open error, got %v", err)
	}
	restore()

	db, conn := newStubDB(t)
	conn.failPing = true
	restore = OverrideSQLOpen(func(string, string) (*sql.DB, error) { return db, nil })
	defer restore()
	if _, err := Open(context.Background(), "postgres://x"); err == nil || !strings.Contains(err.Error(), "ping postgres") {
		t.Fatalf("expected ping error, got %v", err)
	}
}

type stubConn struct {
	execs    []string
	failPing bool
}

type stubDriver struct{ conn *stubConn }

var stubSeq atomic.Int64

func newStubDB(t *testing.T) (*sql.DB, *stubConn) {
	t.Helper()
	conn := &stubConn{}
	name := fmt.Sprintf("stubpg%d", stubSeq.Add(1))
	sql.Register(name, &stubDriver{conn: conn})
	db, err := sql.Open(name, "stub")
	if err != nil {
		t.Fatalf("open stub: %v", err)
	}
	return db, conn
}

func (d *stubDriver) Open(string) (driver.Conn, error) { return d.conn, nil }

func (c *stubConn) Prepare(string) (driver.Stmt, error) { return nil, errors.New("not implemented") }
func (c *stubConn) Close() error                        { return nil }
func (c *stubConn) Begin() (driver.Tx, error)           { return nil, errors.New("not implemented") }

func (c *stubConn) Ping(context.Context) error {
	if c.failPing {
		return errors.New("ping fail")
	}
	return nil
}

func (c *stubConn) ExecContext(_ context.Context, query string, _ []driver.NamedValue) (driver.Result, error) {
	c.execs = append(c.execs, query)
	if strings.HasPrefix(strings.TrimSpace(query), "CREATE TABLE") {
		return driver.RowsAffected(0), nil
	}
	return nil, errors.New("stub: statement not supported")
}
