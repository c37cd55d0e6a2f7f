package _202610180915_battleCredits

import (
	"database/sql"

	"gorm.io/gorm"
)

type Migration struct {
}

func (m *Migration) Up(db *sql.DB, grm *gorm.DB) error {
	query := `CREATE TABLE IF NOT EXISTS battle_credits (
		challenge_id bigint not null primary key,
		winner varchar not null,
		loser varchar not null,
		block_number bigint not null
	)`
	if res := grm.Exec(query); res.Error != nil {
		return res.Error
	}
	return nil
}

func (m *Migration) GetName() string {
	return "202610180915_battleCredits"
}
