package sqlite

import (
	"errors"
	"strings"

	"github.com/atvirokodosprendimai/topicgraph/internal/domain"
	"gorm.io/gorm"
	msqlite "modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

// translate maps driver errors onto domain error kinds. Errors it does not
// recognise are returned unchanged.
func translate(err error) error {
	if err == nil {
		return nil
	}
	var de *domain.Error
	if errors.As(err, &de) {
		return err
	}

	var se *msqlite.Error
	if !errors.As(err, &se) {
		return err
	}

	switch se.Code() {
	case sqlite3.SQLITE_CONSTRAINT_FOREIGNKEY:
		return domain.NewReferenceError("referenced record does not exist", err)
	case sqlite3.SQLITE_CONSTRAINT_UNIQUE, sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY:
		return domain.NewConcurrencyConflict("conflicting write", err)
	case sqlite3.SQLITE_CONSTRAINT_CHECK:
		return &domain.Error{Kind: domain.KindValidation, Message: "value rejected by store", Cause: err}
	}

	switch se.Code() & 0xff {
	case sqlite3.SQLITE_BUSY, sqlite3.SQLITE_LOCKED:
		return domain.NewConcurrencyConflict("database is busy", err)
	case sqlite3.SQLITE_CONSTRAINT:
		if strings.Contains(se.Error(), "FOREIGN KEY") {
			return domain.NewReferenceError("referenced record does not exist", err)
		}
	}
	return err
}

// translateLookup is translate plus gorm's not-found sentinel.
func translateLookup(err error, resource string, id any) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return domain.NewNotFoundError(resource, id)
	}
	return translate(err)
}
