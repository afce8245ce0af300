package pool

import (
	"context"
	"database/sql/driver"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
)

type (
	// initSQLConnector runs a statement on every new connection, before handing it to the pool.
	initSQLConnector struct {
		driver.Connector
		initSQL string
	}

	// dsnConnector adapts a driver without connector support.
	dsnConnector struct {
		dsn    string
		driver driver.Driver
	}
)

func withInitSQL(connector driver.Connector, initSQL string) driver.Connector {
	if initSQL == "" {
		return connector
	}
	return &initSQLConnector{Connector: connector, initSQL: initSQL}
}

func (c *initSQLConnector) Connect(ctx context.Context) (driver.Conn, error) {
	conn, err := c.Connector.Connect(ctx)
	if err != nil {
		return nil, err
	}
	if err := execOn(ctx, conn, c.initSQL); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("connection init sql failed:\n\t%w", err)
	}
	return conn, nil
}

func execOn(ctx context.Context, conn driver.Conn, query string) error {
	if execer, ok := conn.(driver.ExecerContext); ok {
		_, err := execer.ExecContext(ctx, query, nil)
		if !errors.Is(err, driver.ErrSkip) {
			return err
		}
	}

	var (
		stmt driver.Stmt
		err  error
	)
	if preparer, ok := conn.(driver.ConnPrepareContext); ok {
		stmt, err = preparer.PrepareContext(ctx, query)
	} else {
		stmt, err = conn.Prepare(query)
	}
	if err != nil {
		return err
	}
	defer stmt.Close()

	if withContext, ok := stmt.(driver.StmtExecContext); ok {
		_, err = withContext.ExecContext(ctx, nil)
		return err
	}
	//nolint:staticcheck // drivers without context support only have Exec
	_, err = stmt.Exec(nil)
	return err
}

func (c *dsnConnector) Connect(_ context.Context) (driver.Conn, error) {
	return c.driver.Open(c.dsn)
}

func (c *dsnConnector) Driver() driver.Driver {
	return c.driver
}

// afterConnect runs the init statement on pgx connections.
func afterConnect(initSQL string) func(ctx context.Context, conn *pgx.Conn) error {
	return func(ctx context.Context, conn *pgx.Conn) error {
		if _, err := conn.Exec(ctx, initSQL); err != nil {
			return fmt.Errorf("connection init sql failed:\n\t%w", err)
		}
		return nil
	}
}
