package migrations

import (
	"database/sql"
	"fmt"
	"time"

	_202610180900_bootstrapDb "github.com/mojo-fit/mojo-indexer/pkg/migrations/202610180900_bootstrapDb"
	_202610180915_battleCredits "github.com/mojo-fit/mojo-indexer/pkg/migrations/202610180915_battleCredits"
	_202610181000_windowStateRoots "github.com/mojo-fit/mojo-indexer/pkg/migrations/202610181000_windowStateRoots"
	_202610181030_queryIndexes "github.com/mojo-fit/mojo-indexer/pkg/migrations/202610181030_queryIndexes"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Migration interface {
	Up(db *sql.DB, grm *gorm.DB) error
	GetName() string
}

type Migrator struct {
	Db     *sql.DB
	GDb    *gorm.DB
	Logger *zap.Logger
}

func NewMigrator(gDb *gorm.DB, l *zap.Logger) (*Migrator, error) {
	db, err := gDb.DB()
	if err != nil {
		return nil, err
	}
	err = gDb.Exec(`CREATE TABLE IF NOT EXISTS migrations (
		name varchar not null primary key,
		created_at timestamp DEFAULT current_timestamp
	)`).Error
	if err != nil {
		return nil, err
	}
	return &Migrator{
		Db:     db,
		GDb:    gDb,
		Logger: l,
	}, nil
}

func allMigrations() []Migration {
	return []Migration{
		&_202610180900_bootstrapDb.Migration{},
		&_202610180915_battleCredits.Migration{},
		&_202610181000_windowStateRoots.Migration{},
		&_202610181030_queryIndexes.Migration{},
	}
}

func (m *Migrator) MigrateAll() error {
	for _, migration := range allMigrations() {
		if err := m.Migrate(migration); err != nil {
			return err
		}
	}
	return nil
}

func (m *Migrator) Migrate(migration Migration) error {
	name := migration.GetName()

	var migrationRecord Migrations
	result := m.GDb.Where("name = ?", name).Limit(1).Find(&migrationRecord)
	if result.Error != nil {
		m.Logger.Sugar().Errorw(fmt.Sprintf("Failed to find migration '%s'", name), zap.Error(result.Error))
		return result.Error
	}
	if result.RowsAffected > 0 {
		m.Logger.Sugar().Debugw("Migration already run", zap.String("name", name))
		return nil
	}

	m.Logger.Sugar().Infow("Running migration", zap.String("name", name))
	if err := migration.Up(m.Db, m.GDb); err != nil {
		m.Logger.Sugar().Errorw(fmt.Sprintf("Failed to run migration '%s'", name), zap.Error(err))
		return err
	}

	result = m.GDb.Exec(`insert into migrations (name) values (@name)`, sql.Named("name", name))
	if result.Error != nil {
		m.Logger.Sugar().Errorw(fmt.Sprintf("Failed to record migration '%s'", name), zap.Error(result.Error))
		return result.Error
	}
	return nil
}

type Migrations struct {
	Name      string `gorm:"primaryKey"`
	CreatedAt time.Time
}

func (Migrations) TableName() string { return "migrations" }
