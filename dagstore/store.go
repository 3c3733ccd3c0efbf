// Copyright 2025 Kadir Pekel
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package dagstore

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"
	"time"

	// SQL drivers: sqlite is the default per the on-disk layout this store
	// targets (<project>/.agentgit/dag.sqlite). The postgres and mysql
	// drivers are registered too, but the schema and queries use SQLite
	// syntax, so only sqlite works end to end.
	_ "github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"

	"github.com/rohithputha/agentgraph/model"
)

// Store persists the DAG, its branches and checkpoints, and the recording
// sidecar tables over a single *sql.DB. Concurrency is handled by
// database-level locking (transactions), exactly as the session store
// this is grounded on does.
type Store struct {
	db      *sql.DB
	dialect string
}

// queryer is satisfied by both *sql.DB and *sql.Tx, so every store method
// can run either inside the bus's transaction or opportunistically.
type queryer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Open creates a Store and ensures its schema exists. dialect must be one
// of "sqlite", "postgres", "mysql". The schema DDL (INTEGER PRIMARY KEY
// AUTOINCREMENT) and the tag upsert (INSERT OR REPLACE) are SQLite syntax,
// so schema creation fails on postgres and mysql.
func Open(db *sql.DB, dialect string) (*Store, error) {
	if db == nil {
		return nil, fmt.Errorf("dagstore: database connection is required")
	}
	switch dialect {
	case "sqlite", "postgres", "mysql":
	default:
		return nil, fmt.Errorf("dagstore: unsupported dialect %q (supported: sqlite, postgres, mysql)", dialect)
	}

	s := &Store{db: db, dialect: dialect}
	if err := s.initSchema(); err != nil {
		return nil, fmt.Errorf("dagstore: init schema: %w", err)
	}
	return s, nil
}

// DB exposes the underlying connection, e.g. so eventbus.New can bind to it.
func (s *Store) DB() *sql.DB { return s.db }

func (s *Store) initSchema() error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	for _, stmt := range schemaStatements {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("exec schema statement: %w", err)
		}
	}
	return nil
}

// q resolves to tx if non-nil, else the store's shared *sql.DB, so callers
// inside an event-bus transaction write through it and read-only callers
// outside one still work.
func (s *Store) q(tx *sql.Tx) queryer {
	if tx != nil {
		return tx
	}
	return s.db
}

// rebind rewrites "?" placeholders into the dialect's native form. Postgres
// uses $1, $2, ...; sqlite and mysql both accept "?" natively.
func (s *Store) rebind(query string) string {
	if s.dialect != "postgres" {
		return query
	}
	var b strings.Builder
	n := 0
	for i := 0; i < len(query); i++ {
		if query[i] == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteByte(query[i])
	}
	return b.String()
}

func nullableInt64(p *int64) any {
	if p == nil {
		return nil
	}
	return *p
}

func nullableString(p *string) any {
	if p == nil {
		return nil
	}
	return *p
}

func docJSON(d model.Document) (string, error) {
	b, err := d.MarshalJSON()
	if err != nil {
		return "", err
	}
	return string(b), nil
}
