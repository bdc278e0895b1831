package postgres

import (
	"errors"
	"fmt"

	"github.com/Dhoini/publishing-platform/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
)

// mapError переводит ошибки драйвера в доменные
func mapError(err error, entity string, id any) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.NewNotFoundError(entity, id)
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgUniqueViolation:
			return domain.NewDuplicateError(entity, pgErr.ConstraintName, fmt.Sprint(id))
		case pgForeignKeyViolation:
			return fmt.Errorf("%w: %s references a missing row (%s)", domain.ErrNotFound, entity, pgErr.ConstraintName)
		}
	}
	return fmt.Errorf("postgres: %s: %w", entity, err)
}

func isForeignKeyViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgForeignKeyViolation
}
