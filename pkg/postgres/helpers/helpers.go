package helpers

import "gorm.io/gorm"

// WrapTxAndCommit runs fn inside tx when one is given, otherwise inside a new
// transaction that is committed on success and rolled back on error.
func WrapTxAndCommit[T any](fn func(*gorm.DB) (T, error), db *gorm.DB, tx *gorm.DB) (T, error) {
	if tx != nil {
		return fn(tx)
	}

	var res T
	err := db.Transaction(func(inner *gorm.DB) error {
		var err error
		res, err = fn(inner)
		return err
	})
	return res, err
}
