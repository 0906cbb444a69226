package migrations

import (
	"context"
	"database/sql"
	"embed"
	"strings"

	_ "github.com/lib/pq"
	"github.com/pkg/errors"
	"github.com/pressly/goose/v3"
	"go.uber.org/zap"
)

//go:embed sql/*.sql
var embedMigrations embed.FS

const migrationDir = "sql"

type gooseLogger struct {
	*zap.SugaredLogger
}

func (l gooseLogger) Printf(format string, v ...interface{}) {
	l.Infof(strings.TrimRight(format, "\n"), v...)
}

// SetLogger направляет вывод goose в zap
func SetLogger(log *zap.Logger) {
	goose.SetLogger(gooseLogger{log.Sugar()})
}

func setup() error {
	goose.SetBaseFS(embedMigrations)
	return goose.SetDialect("postgres")
}

// Run применяет все миграции из встроенной папки sql
func Run(ctx context.Context, db *sql.DB) error {
	if err := setup(); err != nil {
		return errors.Wrap(err, "set goose dialect")
	}
	if err := goose.UpContext(ctx, db, migrationDir); err != nil {
		return errors.Wrap(err, "run migrations")
	}
	return nil
}

// Down откатывает последнюю миграцию
func Down(ctx context.Context, db *sql.DB) error {
	if err := setup(); err != nil {
		return errors.Wrap(err, "set goose dialect")
	}
	return errors.Wrap(goose.DownContext(ctx, db, migrationDir), "rollback migration")
}

// Status печатает состояние миграций через логгер goose
func Status(ctx context.Context, db *sql.DB) error {
	if err := setup(); err != nil {
		return errors.Wrap(err, "set goose dialect")
	}
	return errors.Wrap(goose.StatusContext(ctx, db, migrationDir), "migration status")
}
