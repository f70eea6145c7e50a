package repository

import (
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pkg/errors"
	"gorm.io/gorm"

	repo "storefront/internal/repository"
)

// postgresのunique_violation
const pgUniqueViolation = "23505"

// gormのエラーをrepository層のエラーに揃える
func translate(err error, op string) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return repo.ErrNotFound
	}
	if isDuplicate(err) {
		return repo.ErrDuplicate
	}
	return errors.Wrap(err, op)
}

func isDuplicate(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
		return true
	}
	// TranslateError未対応のドライバ向け
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}
