// Copyright 2020 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package conddb retrieves the RPC readout link maps from the conditions
// database.
package conddb // import "github.com/go-lpc/rpcraw/conddb"

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/jmoiron/sqlx"
)

var (
	usr  = getenv("RPCRAW_DB_USER", "username")
	pwd  = getenv("RPCRAW_DB_PASS", "s3cr3t")
	host = getenv("RPCRAW_DB_HOST", "localhost")

	drvName = "mysql"
)

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

// DB exposes convenience methods to easily retrieve conditions data
// from the RPC database.
type DB struct {
	db   *sqlx.DB
	name string // name of the RPC database
}

// Open opens a connection to the RPC database dbname.
func Open(dbname string) (*DB, error) {
	db, err := sqlx.Open(drvName, dsn(dbname))
	if err != nil {
		return nil, fmt.Errorf("conddb: could not open %q db: %w", dbname, err)
	}

	err = ping(db, dbname)
	if err != nil {
		return nil, fmt.Errorf("conddb: could not ping %q db: %w", dbname, err)
	}

	return &DB{db: db, name: dbname}, nil
}

func dsn(db string) string {
	return fmt.Sprintf("%s:%s@tcp(%s)/%s", usr, pwd, host, db)
}

func ping(db *sqlx.DB, dbname string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	err := db.PingContext(ctx)
	if err != nil {
		return fmt.Errorf("conddb: could not ping %q db: %w", dbname, err)
	}

	return nil
}

func (db *DB) Name() string { return db.name }

func (db *DB) Close() error {
	return db.db.Close()
}

func (db *DB) QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error) {
	return db.db.QueryContext(ctx, query, args...)
}

// Runs returns the sorted list of runs starting a validity period of the
// link maps.
func (db *DB) Runs(ctx context.Context) ([]int, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var runs []int
	rows, err := db.db.QueryxContext(
		ctx,
		`
SELECT MinRun FROM dcc_links
UNION SELECT MinRun FROM twinmux_links
UNION SELECT MinRun FROM feb_connectors
ORDER BY MinRun
`,
	)
	if err != nil {
		return runs, fmt.Errorf("conddb: could not query runs: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var run int
		err = rows.Scan(&run)
		if err != nil {
			return runs, fmt.Errorf("conddb: could not get run value: %w", err)
		}
		runs = append(runs, run)
	}

	if err := rows.Err(); err != nil {
		return runs, fmt.Errorf("conddb: could not scan db for runs: %w", err)
	}

	if err := ctx.Err(); err != nil {
		return runs, fmt.Errorf("conddb: context error while retrieving runs: %w", err)
	}

	return runs, nil
}
