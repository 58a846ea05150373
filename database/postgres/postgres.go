package postgres

import (
	"context"
	"fmt"

	"github.com/frain-dev/timepart/datastore"
	"github.com/frain-dev/timepart/database"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
)

const pkgName = "postgres"

type Postgres struct {
	dbx *sqlx.DB
}

func NewDB(dsn string) (*Postgres, error) {
	db, err := sqlx.Connect("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("[%s]: failed to open database - %v", pkgName, err)
	}

	return &Postgres{dbx: db}, nil
}

func (p *Postgres) GetDB() *sqlx.DB {
	return p.dbx
}

func (p *Postgres) Close() error {
	return p.dbx.Close()
}

type statementExecutor struct {
	db database.Database
}

// NewStatementExecutor returns an executor applying opaque DDL/DML text on
// the database connection. Statements run sequentially on the caller's
// goroutine; transactional atomicity across a sequence is the caller's
// concern.
func NewStatementExecutor(db database.Database) datastore.StatementExecutor {
	return &statementExecutor{db: db}
}

func (e *statementExecutor) Exec(ctx context.Context, stmt string) error {
	if _, err := e.db.GetDB().ExecContext(ctx, stmt); err != nil {
		return fmt.Errorf("%w: %v", datastore.ErrStatementFailure, err)
	}

	return nil
}
