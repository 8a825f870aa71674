package datastore

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/vedanthangal/sanctuary/internal/errors"
)

const component = "datastore"

// storeError tags err with the datastore component, a category and
// key/value context pairs. Odd trailing keys are dropped.
func storeError(err error, category errors.ErrorCategory, kv ...any) error {
	b := errors.New(err).Component(component).Category(category)
	for i := 0; i+1 < len(kv); i += 2 {
		if key, ok := kv[i].(string); ok {
			b = b.Context(key, kv[i+1])
		}
	}
	return b.Build()
}

// dbError wraps a gorm failure. gorm.ErrRecordNotFound becomes a not-found
// error so handlers can answer 404.
func dbError(err error, operation, table string, kv ...any) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return storeError(errors.NewStd(table+" record not found"), errors.CategoryNotFound,
			append([]any{"table", table}, kv...)...)
	}
	return storeError(err, errors.CategoryDatabase,
		append([]any{"operation", operation, "table", table}, kv...)...)
}

func validationError(message, field string, value any) error {
	return storeError(errors.NewStd(message), errors.CategoryValidation, "field", field, "value", fmt.Sprint(value))
}

func conflictError(message, field string, value any) error {
	return storeError(errors.NewStd(message), errors.CategoryConflict, "field", field, "value", fmt.Sprint(value))
}

func errNotOpen() error {
	return storeError(errors.NewStd("database connection is not initialized"), errors.CategoryDatabase)
}
