package storage

import (
	"fmt"

	"gorm.io/gorm"
)

// ResetDerivedState deletes every derived row and the checkpoint so the next run replays
// the ledger from the configured start block.
func ResetDerivedState(grm *gorm.DB) error {
	return grm.Transaction(func(tx *gorm.DB) error {
		for _, table := range DerivedTables {
			if res := tx.Exec(fmt.Sprintf("delete from %s", table)); res.Error != nil {
				return res.Error
			}
		}
		return nil
	})
}
