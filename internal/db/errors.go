package db

import (
	"errors"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
)

// Код ошибки PostgreSQL для нарушения уникальности
const pgUniqueViolationCode = "23505"

// IsUniqueViolation определяет, вызвана ли ошибка нарушением уникального
// ограничения (дубликат telegram_id, госномера или пары координат).
func IsUniqueViolation(err error) bool {
	if err == nil {
		return false
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == pgUniqueViolationCode
	}

	// SQLite в тестах сообщает о нарушении текстом
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") ||
		strings.Contains(msg, "constraint failed")
}
