package _202610180900_bootstrapDb

import (
	"database/sql"

	"gorm.io/gorm"
)

type Migration struct {
}

func (m *Migration) Up(db *sql.DB, grm *gorm.DB) error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS checkpoints (
			id integer not null primary key,
			last_position bigint not null,
			updated_at timestamp DEFAULT current_timestamp
		)`,
		`CREATE TABLE IF NOT EXISTS sessions (
			id bigint not null primary key,
			exerciser varchar not null,
			exercise_type integer not null,
			target_reps bigint not null,
			actual_reps bigint not null default 0,
			target_met boolean not null default false,
			started_at timestamp not null,
			status integer not null default 0,
			total_up_stake varchar not null default '0',
			total_down_stake varchar not null default '0',
			block_number bigint not null,
			transaction_hash varchar not null,
			log_index bigint not null,
			created_at timestamp DEFAULT current_timestamp
		)`,
		`CREATE TABLE IF NOT EXISTS stakes (
			session_id bigint not null,
			staker varchar not null,
			is_up boolean not null,
			amount varchar not null,
			claimed boolean not null default false,
			payout varchar not null default '0',
			block_number bigint not null,
			primary key (session_id, staker)
		)`,
		`CREATE TABLE IF NOT EXISTS fighters (
			address varchar not null primary key,
			strength bigint not null default 0,
			agility bigint not null default 0,
			endurance bigint not null default 0,
			total_reps bigint not null default 0,
			level bigint not null default 0,
			wins bigint not null default 0,
			losses bigint not null default 0,
			block_number bigint not null
		)`,
		`CREATE TABLE IF NOT EXISTS challenges (
			id bigint not null primary key,
			challenger varchar not null,
			opponent varchar not null,
			wager varchar not null,
			status integer not null default 0,
			winner varchar,
			payout varchar not null default '0',
			block_number bigint not null,
			created_at timestamp DEFAULT current_timestamp
		)`,
	}
	for _, query := range queries {
		if res := grm.Exec(query); res.Error != nil {
			return res.Error
		}
	}
	return nil
}

func (m *Migration) GetName() string {
	return "202610180900_bootstrapDb"
}
