package _202610181030_queryIndexes

import (
	"database/sql"

	"gorm.io/gorm"
)

type Migration struct {
}

func (m *Migration) Up(db *sql.DB, grm *gorm.DB) error {
	queries := []string{
		`CREATE INDEX IF NOT EXISTS idx_sessions_status ON sessions (status)`,
		`CREATE INDEX IF NOT EXISTS idx_stakes_session_id ON stakes (session_id)`,
		`CREATE INDEX IF NOT EXISTS idx_challenges_opponent ON challenges (opponent)`,
		`CREATE INDEX IF NOT EXISTS idx_challenges_status ON challenges (status)`,
		`CREATE INDEX IF NOT EXISTS idx_fighters_total_reps ON fighters (total_reps)`,
	}
	for _, query := range queries {
		if res := grm.Exec(query); res.Error != nil {
			return res.Error
		}
	}
	return nil
}

func (m *Migration) GetName() string {
	return "202610181030_queryIndexes"
}
