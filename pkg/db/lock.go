package db

import (
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ForUpdate scopes a query to take a row-level write lock held until the
// surrounding transaction ends. Dialects without FOR UPDATE (sqlite) ignore
// the clause and rely on their own writer serialization.
func ForUpdate(tx *gorm.DB) *gorm.DB {
	return tx.Clauses(clause.Locking{Strength: clause.LockingStrengthUpdate})
}
