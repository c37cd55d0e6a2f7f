package _202610181000_windowStateRoots

import (
	"database/sql"

	"gorm.io/gorm"
)

type Migration struct {
}

func (m *Migration) Up(db *sql.DB, grm *gorm.DB) error {
	query := `CREATE TABLE IF NOT EXISTS window_state_roots (
		to_position bigint not null primary key,
		from_position bigint not null,
		fact_count integer not null,
		state_root varchar not null,
		created_at timestamp DEFAULT current_timestamp
	)`
	if res := grm.Exec(query); res.Error != nil {
		return res.Error
	}
	return nil
}

func (m *Migration) GetName() string {
	return "202610181000_windowStateRoots"
}
