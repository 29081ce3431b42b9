package models

import (
	"github.com/sop/financialcontrol/config"
)

// MigrateTable creates or alters the three lifecycle tables.
// Order matters: foreign keys point expense <- commitment <- payment.
func MigrateTable() error {
	db := config.GetDB()
	return db.AutoMigrate(
		&Expense{},
		&Commitment{},
		&Payment{},
	)
}
